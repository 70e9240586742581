package purchases

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/apperr"
)

const purchaseColumns = `p.id, p.event_id, p.name, COALESCE(p.description,''), p.amount_cents, p.buyer_id, p.purchase_date,
	u.username, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''), u.role`

const purchaseFrom = ` FROM purchases p JOIN users u ON u.id = p.buyer_id`

// Repository handles purchase persistence. The per-participant share is
// recomputed after every read, never stored.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a purchase repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the purchase and its initial participant set in one
// transaction.
func (r *Repository) Create(ctx context.Context, p *models.Purchase, participantIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO purchases (event_id, name, description, amount_cents, buyer_id)
		VALUES ($1, $2, NULLIF($3,''), $4, $5)
		RETURNING id, purchase_date`
	if err := tx.QueryRow(ctx, q, p.EventID, p.Name, p.Description, p.AmountCents, p.BuyerID).
		Scan(&p.ID, &p.PurchaseDate); err != nil {
		return err
	}
	for _, userID := range participantIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO purchase_participants (purchase_id, user_id) VALUES ($1, $2)
			ON CONFLICT (purchase_id, user_id) DO NOTHING`, p.ID, userID); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanPurchase(row pgx.Row) (*models.Purchase, error) {
	var p models.Purchase
	var buyer models.UserPublic
	err := row.Scan(&p.ID, &p.EventID, &p.Name, &p.Description, &p.AmountCents, &p.BuyerID, &p.PurchaseDate,
		&buyer.Username, &buyer.Email, &buyer.FirstName, &buyer.LastName, &buyer.Role)
	if err != nil {
		return nil, err
	}
	buyer.ID = p.BuyerID
	p.Buyer = &buyer
	return &p, nil
}

// GetByID returns a purchase with buyer, participants and derived share.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	p, err := scanPurchase(r.pool.QueryRow(ctx, `SELECT `+purchaseColumns+purchaseFrom+` WHERE p.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("purchase", id.String())
	}
	if err != nil {
		return nil, err
	}
	participants, err := r.loadParticipants(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	p.Participants = participants[p.ID]
	p.ShareCents = p.SharePerParticipant()
	return p, nil
}

// ListByEvent returns all purchases of an event.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Purchase, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+purchaseColumns+purchaseFrom+` WHERE p.event_id = $1 ORDER BY p.purchase_date DESC, p.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Purchase
	var ids []uuid.UUID
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *p)
		ids = append(ids, p.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return list, nil
	}
	participants, err := r.loadParticipants(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].Participants = participants[list[i].ID]
		list[i].ShareCents = list[i].SharePerParticipant()
	}
	return list, nil
}

func (r *Repository) loadParticipants(ctx context.Context, purchaseIDs []uuid.UUID) (map[uuid.UUID][]models.UserPublic, error) {
	const q = `SELECT pp.purchase_id, u.id, u.username, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''), u.role
		FROM purchase_participants pp
		JOIN users u ON u.id = pp.user_id
		WHERE pp.purchase_id = ANY($1)
		ORDER BY u.username`
	rows, err := r.pool.Query(ctx, q, purchaseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.UserPublic, len(purchaseIDs))
	for rows.Next() {
		var purchaseID uuid.UUID
		var u models.UserPublic
		if err := rows.Scan(&purchaseID, &u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role); err != nil {
			return nil, err
		}
		out[purchaseID] = append(out[purchaseID], u)
	}
	return out, rows.Err()
}

// Update replaces name, description and amount. Buyer, event and
// purchase_date stay as created.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, name, description string, amountCents int64) error {
	const q = `UPDATE purchases SET name = $1, description = NULLIF($2,''), amount_cents = $3 WHERE id = $4`
	tag, err := r.pool.Exec(ctx, q, name, description, amountCents, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("purchase", id.String())
	}
	return nil
}

// Delete removes the purchase and its participant rows.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM purchase_participants WHERE purchase_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM purchases WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("purchase", id.String())
	}
	return tx.Commit(ctx)
}

// AddParticipant inserts the cost-sharing row; re-adding is a no-op.
func (r *Repository) AddParticipant(ctx context.Context, purchaseID, userID uuid.UUID) error {
	const q = `INSERT INTO purchase_participants (purchase_id, user_id) VALUES ($1, $2)
		ON CONFLICT (purchase_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, purchaseID, userID)
	return err
}

// RemoveParticipant deletes the cost-sharing row; removing a non-member is
// a no-op.
func (r *Repository) RemoveParticipant(ctx context.Context, purchaseID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM purchase_participants WHERE purchase_id = $1 AND user_id = $2`, purchaseID, userID)
	return err
}
