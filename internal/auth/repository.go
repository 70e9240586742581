package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/apperr"
)

const userColumns = `id, username, email, password_hash,
	COALESCE(first_name,''), COALESCE(last_name,''), COALESCE(phone_number,''), COALESCE(telegram_id,''),
	role, created_at, updated_at`

// Repository is the identity store: user persistence and lookups.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a user repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.Password,
		&u.FirstName, &u.LastName, &u.PhoneNumber, &u.TelegramID,
		&u.Role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. Duplicate username, email or telegram_id
// surfaces as a Conflict error.
func (r *Repository) Create(ctx context.Context, u *models.User) error {
	const q = `INSERT INTO users (username, email, password_hash, first_name, last_name, phone_number, telegram_id, role)
		VALUES ($1, $2, $3, NULLIF($4,''), NULLIF($5,''), NULLIF($6,''), NULLIF($7,''), $8)
		RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, q, u.Username, u.Email, u.Password,
		u.FirstName, u.LastName, u.PhoneNumber, u.TelegramID, string(u.Role)).
		Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			switch pgErr.ConstraintName {
			case "users_username_key":
				return apperr.Conflict("username", u.Username)
			case "users_telegram_id_key":
				return apperr.Conflict("telegram_id", u.TelegramID)
			default:
				return apperr.Conflict("email", u.Email)
			}
		}
		return err
	}
	return nil
}

// GetByID returns a user by ID.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user", id.String())
	}
	return u, err
}

// GetByUsername returns a user by unique username.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user", username)
	}
	return u, err
}

// GetByEmail returns a user by unique email.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user", email)
	}
	return u, err
}

// GetByTelegramID returns a user by external telegram identifier.
func (r *Repository) GetByTelegramID(ctx context.Context, telegramID string) (*models.User, error) {
	u, err := scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE telegram_id = $1`, telegramID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("user", telegramID)
	}
	return u, err
}

// ExistsByUsername reports whether a user with the username exists.
func (r *Repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// ExistsByEmail reports whether a user with the email exists.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// List returns all users without credential fields.
func (r *Repository) List(ctx context.Context) ([]models.UserPublic, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, username, email, COALESCE(first_name,''), COALESCE(last_name,''), role
		FROM users ORDER BY username`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var list []models.UserPublic
	for rows.Next() {
		var u models.UserPublic
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName, &u.Role); err != nil {
			return nil, err
		}
		list = append(list, u)
	}
	return list, rows.Err()
}
