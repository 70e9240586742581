package events

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/apperr"
)

const eventColumns = `e.id, e.title, COALESCE(e.description,''), e.event_date, COALESCE(e.place,''), COALESCE(e.image_url,''),
	e.organizer_id, e.created_at,
	u.username, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''), u.role`

const eventFrom = ` FROM events e JOIN users u ON u.id = e.organizer_id`

// Repository handles event aggregate persistence: the event row, its
// participant relation and its owned purchases and tasks.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates an event repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts the event and its organizer's participant row in one
// transaction, so a stored event always satisfies organizer membership.
func (r *Repository) Create(ctx context.Context, e *models.Event) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	const q = `INSERT INTO events (title, description, event_date, place, image_url, organizer_id)
		VALUES ($1, NULLIF($2,''), $3, NULLIF($4,''), NULLIF($5,''), $6)
		RETURNING id, created_at`
	if err := tx.QueryRow(ctx, q, e.Title, e.Description, e.Date, e.Place, e.ImageURL, e.OrganizerID).
		Scan(&e.ID, &e.CreatedAt); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx,
		`INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2)`,
		e.ID, e.OrganizerID); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	var org models.UserPublic
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.Date, &e.Place, &e.ImageURL,
		&e.OrganizerID, &e.CreatedAt,
		&org.Username, &org.Email, &org.FirstName, &org.LastName, &org.Role)
	if err != nil {
		return nil, err
	}
	org.ID = e.OrganizerID
	e.Organizer = &org
	return &e, nil
}

// GetByID returns a fully hydrated event (organizer and participants).
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	e, err := scanEvent(r.pool.QueryRow(ctx, `SELECT `+eventColumns+eventFrom+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("event", id.String())
	}
	if err != nil {
		return nil, err
	}
	participants, err := r.loadParticipants(ctx, []uuid.UUID{e.ID})
	if err != nil {
		return nil, err
	}
	e.Participants = participants[e.ID]
	return e, nil
}

// List returns all events.
func (r *Repository) List(ctx context.Context) ([]models.Event, error) {
	return r.listWhere(ctx, "", nil)
}

// ListByOrganizer returns events organized by the user.
func (r *Repository) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	return r.listWhere(ctx, ` WHERE e.organizer_id = $1`, []interface{}{organizerID})
}

// ListByParticipant returns events the user participates in.
func (r *Repository) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	return r.listWhere(ctx,
		` WHERE EXISTS (SELECT 1 FROM event_participants ep WHERE ep.event_id = e.id AND ep.user_id = $1)`,
		[]interface{}{userID})
}

func (r *Repository) listWhere(ctx context.Context, cond string, args []interface{}) ([]models.Event, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+eventColumns+eventFrom+cond+` ORDER BY e.created_at DESC, e.id`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Event
	var ids []uuid.UUID
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
		ids = append(ids, e.ID)
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
	}
	return list, nil
}

func (r *Repository) loadParticipants(ctx context.Context, eventIDs []uuid.UUID) (map[uuid.UUID][]models.UserPublic, error) {
	const q = `SELECT ep.event_id, u.id, u.username, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''), u.role
		FROM event_participants ep
		JOIN users u ON u.id = ep.user_id
		WHERE ep.event_id = ANY($1)
		ORDER BY ep.added_at`
	rows, err := r.pool.Query(ctx, q, eventIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]models.UserPublic, len(eventIDs))
	for rows.Next() {
		var eventID uuid.UUID
		var u models.UserPublic
		if err := rows.Scan(&eventID, &u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role); err != nil {
			return nil, err
		}
		out[eventID] = append(out[eventID], u)
	}
	return out, rows.Err()
}

// Update replaces the mutable fields of an event. Organizer, participants
// and created_at are never touched here.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, p UpdateParams) error {
	const q = `UPDATE events SET title = $1, description = NULLIF($2,''), event_date = $3, place = NULLIF($4,''), image_url = NULLIF($5,'')
		WHERE id = $6`
	tag, err := r.pool.Exec(ctx, q, p.Title, p.Description, p.Date, p.Place, p.ImageURL, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event", id.String())
	}
	return nil
}

// SetImageURL updates only the event image reference.
func (r *Repository) SetImageURL(ctx context.Context, id uuid.UUID, url string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE events SET image_url = NULLIF($1,'') WHERE id = $2`, url, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event", id.String())
	}
	return nil
}

// Delete removes the event together with everything it owns. Children are
// deleted explicitly inside the transaction; the schema's ON DELETE CASCADE
// is only a backstop.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM purchase_participants WHERE purchase_id IN (SELECT id FROM purchases WHERE event_id = $1)`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM purchases WHERE event_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM tasks WHERE event_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM event_participants WHERE event_id = $1`, id); err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("event", id.String())
	}
	return tx.Commit(ctx)
}

// AddParticipant inserts the membership row; re-adding is a no-op.
func (r *Repository) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	const q = `INSERT INTO event_participants (event_id, user_id) VALUES ($1, $2)
		ON CONFLICT (event_id, user_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, eventID, userID)
	return err
}

// RemoveParticipant deletes the membership row; removing a non-member is a
// no-op. Removing the organizer is allowed.
func (r *Repository) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM event_participants WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	return err
}
