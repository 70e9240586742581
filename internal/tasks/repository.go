package tasks

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/apperr"
)

const taskColumns = `t.id, t.event_id, t.title, COALESCE(t.description,''), t.status, t.assignee_id, t.due_date, t.created_at, t.updated_at,
	u.username, u.email, COALESCE(u.first_name,''), COALESCE(u.last_name,''), u.role`

const taskFrom = ` FROM tasks t LEFT JOIN users u ON u.id = t.assignee_id`

// Repository handles task persistence. Every mutating statement refreshes
// updated_at.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a task repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Create inserts a new task; status starts as PENDING unless given.
func (r *Repository) Create(ctx context.Context, t *models.Task) error {
	const q = `INSERT INTO tasks (event_id, title, description, status, assignee_id, due_date)
		VALUES ($1, $2, NULLIF($3,''), $4, $5, $6)
		RETURNING id, created_at, updated_at`
	status := t.Status
	if status == "" {
		status = models.TaskStatusPending
	}
	err := r.pool.QueryRow(ctx, q, t.EventID, t.Title, t.Description, string(status), t.AssigneeID, t.DueDate).
		Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return err
	}
	t.Status = status
	return nil
}

func scanTask(row pgx.Row) (*models.Task, error) {
	var t models.Task
	var username, email, firstName, lastName, role *string
	err := row.Scan(&t.ID, &t.EventID, &t.Title, &t.Description, &t.Status, &t.AssigneeID, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
		&username, &email, &firstName, &lastName, &role)
	if err != nil {
		return nil, err
	}
	if t.AssigneeID != nil && username != nil {
		t.Assignee = &models.UserPublic{
			ID:        *t.AssigneeID,
			Username:  *username,
			Email:     *email,
			FirstName: deref(firstName),
			LastName:  deref(lastName),
			Role:      models.Role(deref(role)),
		}
	}
	return &t, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// GetByID returns a task with its assignee hydrated when set.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*models.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.NotFound("task", id.String())
	}
	return t, err
}

// ListByEvent returns all tasks of an event.
func (r *Repository) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.Task, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+taskColumns+taskFrom+` WHERE t.event_id = $1 ORDER BY t.created_at, t.id`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []models.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *t)
	}
	return list, rows.Err()
}

// Update replaces title, description, status, assignee and due date.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, title, description string, status models.TaskStatus, assigneeID *uuid.UUID, dueDate *time.Time) error {
	const q = `UPDATE tasks SET title = $1, description = NULLIF($2,''), status = $3, assignee_id = $4, due_date = $5, updated_at = NOW()
		WHERE id = $6`
	tag, err := r.pool.Exec(ctx, q, title, description, string(status), assigneeID, dueDate, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task", id.String())
	}
	return nil
}

// UpdateStatus moves the task to the given status. All transitions are
// allowed.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TaskStatus) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET status = $1, updated_at = NOW() WHERE id = $2`, string(status), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task", id.String())
	}
	return nil
}

// Assign sets the task assignee.
func (r *Repository) Assign(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `UPDATE tasks SET assignee_id = $1, updated_at = NOW() WHERE id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task", id.String())
	}
	return nil
}

// Delete removes the task.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("task", id.String())
	}
	return nil
}
