package events

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vmeste-app/backend/internal/models"
	"github.com/vmeste-app/backend/pkg/apperr"
)

type fakeUserStore struct {
	users map[uuid.UUID]*models.User
}

func (f *fakeUserStore) GetByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, apperr.NotFound("user", id.String())
	}
	return u, nil
}

type fakeEventStore struct {
	events map[uuid.UUID]*models.Event
}

func newFakeEventStore() *fakeEventStore {
	return &fakeEventStore{events: make(map[uuid.UUID]*models.Event)}
}

func (f *fakeEventStore) Create(_ context.Context, e *models.Event) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	e.Participants = []models.UserPublic{{ID: e.OrganizerID}}
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventStore) GetByID(_ context.Context, id uuid.UUID) (*models.Event, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, apperr.NotFound("event", id.String())
	}
	cp := *e
	cp.Participants = append([]models.UserPublic(nil), e.Participants...)
	return &cp, nil
}

func (f *fakeEventStore) List(_ context.Context) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		out = append(out, *e)
	}
	return out, nil
}

func (f *fakeEventStore) ListByOrganizer(_ context.Context, organizerID uuid.UUID) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if e.OrganizerID == organizerID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) ListByParticipant(_ context.Context, userID uuid.UUID) ([]models.Event, error) {
	var out []models.Event
	for _, e := range f.events {
		if e.HasParticipant(userID) {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeEventStore) Update(_ context.Context, id uuid.UUID, p UpdateParams) error {
	e, ok := f.events[id]
	if !ok {
		return apperr.NotFound("event", id.String())
	}
	e.Title = p.Title
	e.Description = p.Description
	e.Date = p.Date
	e.Place = p.Place
	e.ImageURL = p.ImageURL
	return nil
}

func (f *fakeEventStore) SetImageURL(_ context.Context, id uuid.UUID, url string) error {
	e, ok := f.events[id]
	if !ok {
		return apperr.NotFound("event", id.String())
	}
	e.ImageURL = url
	return nil
}

func (f *fakeEventStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.events[id]; !ok {
		return apperr.NotFound("event", id.String())
	}
	delete(f.events, id)
	return nil
}

func (f *fakeEventStore) AddParticipant(_ context.Context, eventID, userID uuid.UUID) error {
	e, ok := f.events[eventID]
	if !ok {
		return apperr.NotFound("event", eventID.String())
	}
	if e.HasParticipant(userID) {
		return nil
	}
	e.Participants = append(e.Participants, models.UserPublic{ID: userID})
	return nil
}

func (f *fakeEventStore) RemoveParticipant(_ context.Context, eventID, userID uuid.UUID) error {
	e, ok := f.events[eventID]
	if !ok {
		return apperr.NotFound("event", eventID.String())
	}
	for i, p := range e.Participants {
		if p.ID == userID {
			e.Participants = append(e.Participants[:i], e.Participants[i+1:]...)
			return nil
		}
	}
	return nil
}

func newTestService(userIDs ...uuid.UUID) (*Service, *fakeEventStore) {
	users := &fakeUserStore{users: make(map[uuid.UUID]*models.User)}
	for _, id := range userIDs {
		users.users[id] = &models.User{ID: id, Username: "u-" + id.String()[:8]}
	}
	store := newFakeEventStore()
	return NewService(store, users), store
}

func TestCreateMakesOrganizerParticipant(t *testing.T) {
	organizerID := uuid.New()
	svc, _ := newTestService(organizerID)

	e, err := svc.Create(context.Background(), CreateParams{Title: "Picnic", OrganizerID: organizerID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if e.OrganizerID != organizerID {
		t.Fatalf("organizer = %s, want %s", e.OrganizerID, organizerID)
	}
	if !e.HasParticipant(organizerID) {
		t.Fatal("organizer is not a participant after create")
	}
}

func TestCreateUnknownOrganizer(t *testing.T) {
	svc, _ := newTestService()
	_, err := svc.Create(context.Background(), CreateParams{Title: "x", OrganizerID: uuid.New()})
	if !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestAddParticipantIdempotent(t *testing.T) {
	organizerID, userID := uuid.New(), uuid.New()
	svc, _ := newTestService(organizerID, userID)

	e, err := svc.Create(context.Background(), CreateParams{Title: "x", OrganizerID: organizerID})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	for i := 0; i < 2; i++ {
		e, err = svc.AddParticipant(context.Background(), e.ID, userID)
		if err != nil {
			t.Fatalf("AddParticipant #%d: %v", i+1, err)
		}
	}
	if len(e.Participants) != 2 {
		t.Fatalf("participants = %d, want 2", len(e.Participants))
	}
}

func TestRemoveParticipant(t *testing.T) {
	organizerID, userID := uuid.New(), uuid.New()
	svc, _ := newTestService(organizerID, userID)

	e, _ := svc.Create(context.Background(), CreateParams{Title: "x", OrganizerID: organizerID})
	e, err := svc.AddParticipant(context.Background(), e.ID, userID)
	if err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}

	e, err = svc.RemoveParticipant(context.Background(), e.ID, userID)
	if err != nil {
		t.Fatalf("RemoveParticipant: %v", err)
	}
	if e.HasParticipant(userID) {
		t.Fatal("user still a participant after removal")
	}

	// Removing a non-member is a no-op, not an error.
	if _, err := svc.RemoveParticipant(context.Background(), e.ID, userID); err != nil {
		t.Fatalf("second RemoveParticipant: %v", err)
	}

	// The organizer can leave too.
	e, err = svc.RemoveParticipant(context.Background(), e.ID, organizerID)
	if err != nil {
		t.Fatalf("remove organizer: %v", err)
	}
	if len(e.Participants) != 0 {
		t.Fatalf("participants = %d, want 0", len(e.Participants))
	}
}

func TestParticipantOpsUnknownRefs(t *testing.T) {
	organizerID := uuid.New()
	svc, _ := newTestService(organizerID)
	e, _ := svc.Create(context.Background(), CreateParams{Title: "x", OrganizerID: organizerID})

	if _, err := svc.AddParticipant(context.Background(), uuid.New(), organizerID); !apperr.IsNotFound(err) {
		t.Fatalf("unknown event: err = %v, want NotFound", err)
	}
	if _, err := svc.AddParticipant(context.Background(), e.ID, uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("unknown user: err = %v, want NotFound", err)
	}
}

func TestUpdateKeepsOwnershipAndMembership(t *testing.T) {
	organizerID, userID := uuid.New(), uuid.New()
	svc, _ := newTestService(organizerID, userID)

	e, _ := svc.Create(context.Background(), CreateParams{Title: "Before", Place: "Park", OrganizerID: organizerID})
	e, _ = svc.AddParticipant(context.Background(), e.ID, userID)
	createdAt := e.CreatedAt

	date := time.Date(2026, 9, 12, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), e.ID, UpdateParams{
		Title: "After", Description: "new", Date: &date, Place: "Beach",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "After" || updated.Place != "Beach" {
		t.Fatalf("fields not updated: %+v", updated)
	}
	if updated.OrganizerID != organizerID {
		t.Fatal("organizer changed by update")
	}
	if !updated.CreatedAt.Equal(createdAt) {
		t.Fatal("created_at changed by update")
	}
	if len(updated.Participants) != 2 {
		t.Fatalf("participants = %d, want 2 after update", len(updated.Participants))
	}
}

func TestListForUserDeduplicates(t *testing.T) {
	userID, otherID := uuid.New(), uuid.New()
	svc, _ := newTestService(userID, otherID)

	// Organized by the user: appears in both organizer and participant lists.
	own, _ := svc.Create(context.Background(), CreateParams{Title: "own", OrganizerID: userID})
	// Organized by someone else, user joins.
	joined, _ := svc.Create(context.Background(), CreateParams{Title: "joined", OrganizerID: otherID})
	if _, err := svc.AddParticipant(context.Background(), joined.ID, userID); err != nil {
		t.Fatalf("AddParticipant: %v", err)
	}
	// Unrelated event.
	if _, err := svc.Create(context.Background(), CreateParams{Title: "other", OrganizerID: otherID}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := svc.ListForUser(context.Background(), userID)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("ListForUser returned %d events, want 2", len(list))
	}
	seen := map[uuid.UUID]bool{}
	for _, e := range list {
		if seen[e.ID] {
			t.Fatalf("event %s listed twice", e.ID)
		}
		seen[e.ID] = true
	}
	if !seen[own.ID] || !seen[joined.ID] {
		t.Fatalf("expected events missing: %v", seen)
	}
}

func TestListForUserUnknownUser(t *testing.T) {
	svc, _ := newTestService()
	if _, err := svc.ListForUser(context.Background(), uuid.New()); !apperr.IsNotFound(err) {
		t.Fatalf("err = %v, want NotFound", err)
	}
}

func TestDeleteThenGet(t *testing.T) {
	organizerID := uuid.New()
	svc, store := newTestService(organizerID)
	e, _ := svc.Create(context.Background(), CreateParams{Title: "x", OrganizerID: organizerID})

	if err := svc.Delete(context.Background(), e.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), e.ID); !apperr.IsNotFound(err) {
		t.Fatalf("get after delete: err = %v, want NotFound", err)
	}
	if len(store.events) != 0 {
		t.Fatalf("store still holds %d events", len(store.events))
	}
}
