package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is an organized gathering with a participant set. The organizer is
// always a participant; creation inserts both rows in one transaction.
// Purchases and tasks belong to the event and are removed with it.
type Event struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Description  string       `json:"description,omitempty"`
	Date         *time.Time   `json:"date,omitempty"`
	Place        string       `json:"place,omitempty"`
	ImageURL     string       `json:"image_url,omitempty"`
	OrganizerID  uuid.UUID    `json:"organizer_id"`
	Organizer    *UserPublic  `json:"organizer,omitempty"`
	Participants []UserPublic `json:"participants"`
	CreatedAt    time.Time    `json:"created_at"`
}

// HasParticipant reports whether the user is in the participant set.
func (e *Event) HasParticipant(userID uuid.UUID) bool {
	for _, p := range e.Participants {
		if p.ID == userID {
			return true
		}
	}
	return false
}
