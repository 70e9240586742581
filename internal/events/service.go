package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vmeste-app/backend/internal/models"
)

// UserStore resolves user ids for the directory service.
type UserStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// UpdateParams are the mutable event fields; a PUT replaces all of them.
type UpdateParams struct {
	Title       string
	Description string
	Date        *time.Time
	Place       string
	ImageURL    string
}

// CreateParams are the fields accepted at event creation.
type CreateParams struct {
	Title       string
	Description string
	Date        *time.Time
	Place       string
	ImageURL    string
	OrganizerID uuid.UUID
}

// EventStore is the persistence surface the directory service drives.
// Create must persist the organizer's participant membership together with
// the event.
type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Event, error)
	List(ctx context.Context) ([]models.Event, error)
	ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error)
	ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Event, error)
	Update(ctx context.Context, id uuid.UUID, p UpdateParams) error
	SetImageURL(ctx context.Context, id uuid.UUID, url string) error
	Delete(ctx context.Context, id uuid.UUID) error
	AddParticipant(ctx context.Context, eventID, userID uuid.UUID) error
	RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) error
}

// Service is the event directory: it resolves identifiers through the
// identity and event stores, applies the operation and returns the updated
// aggregate. Missing references always surface as NotFound.
type Service struct {
	events EventStore
	users  UserStore
}

// NewService creates the event directory service.
func NewService(events EventStore, users UserStore) *Service {
	return &Service{events: events, users: users}
}

// Create makes a new event organized by OrganizerID. The organizer becomes
// a participant as part of the same operation.
func (s *Service) Create(ctx context.Context, p CreateParams) (*models.Event, error) {
	organizer, err := s.users.GetByID(ctx, p.OrganizerID)
	if err != nil {
		return nil, err
	}
	e := &models.Event{
		Title:       p.Title,
		Description: p.Description,
		Date:        p.Date,
		Place:       p.Place,
		ImageURL:    p.ImageURL,
		OrganizerID: organizer.ID,
	}
	if err := s.events.Create(ctx, e); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, e.ID)
}

// Get returns the event by id.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Event, error) {
	return s.events.GetByID(ctx, id)
}

// ListAll returns every event.
func (s *Service) ListAll(ctx context.Context) ([]models.Event, error) {
	return s.events.List(ctx)
}

// ListByOrganizer returns events organized by the user.
func (s *Service) ListByOrganizer(ctx context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	if _, err := s.users.GetByID(ctx, organizerID); err != nil {
		return nil, err
	}
	return s.events.ListByOrganizer(ctx, organizerID)
}

// ListByParticipant returns events the user participates in.
func (s *Service) ListByParticipant(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.events.ListByParticipant(ctx, userID)
}

// ListForUser returns the union, without duplicates, of events the user
// organizes and events the user participates in.
func (s *Service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Event, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	organized, err := s.events.ListByOrganizer(ctx, userID)
	if err != nil {
		return nil, err
	}
	participating, err := s.events.ListByParticipant(ctx, userID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]struct{}, len(organized)+len(participating))
	out := make([]models.Event, 0, len(organized)+len(participating))
	for _, list := range [][]models.Event{organized, participating} {
		for _, e := range list {
			if _, ok := seen[e.ID]; ok {
				continue
			}
			seen[e.ID] = struct{}{}
			out = append(out, e)
		}
	}
	return out, nil
}

// Update replaces the mutable fields of the event and returns the updated
// aggregate. Organizer, participants and created_at are untouched.
func (s *Service) Update(ctx context.Context, id uuid.UUID, p UpdateParams) (*models.Event, error) {
	if err := s.events.Update(ctx, id, p); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, id)
}

// SetImageURL stores the uploaded image reference on the event.
func (s *Service) SetImageURL(ctx context.Context, id uuid.UUID, url string) (*models.Event, error) {
	if err := s.events.SetImageURL(ctx, id, url); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, id)
}

// Delete removes the event and everything it owns.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.events.Delete(ctx, id)
}

// AddParticipant adds the user to the event's participant set. Adding an
// existing participant is a no-op.
func (s *Service) AddParticipant(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.events.AddParticipant(ctx, eventID, userID); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, eventID)
}

// RemoveParticipant removes the user from the participant set. Removing a
// non-member is a no-op; removing the organizer is not prevented.
func (s *Service) RemoveParticipant(ctx context.Context, eventID, userID uuid.UUID) (*models.Event, error) {
	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.events.RemoveParticipant(ctx, eventID, userID); err != nil {
		return nil, err
	}
	return s.events.GetByID(ctx, eventID)
}
