package models

import (
	"time"

	"github.com/google/uuid"
)

// Purchase is a shared expense inside an event. Amounts are carried as
// integer cents. The per-participant share is derived on read and never
// stored.
type Purchase struct {
	ID           uuid.UUID    `json:"id"`
	EventID      uuid.UUID    `json:"event_id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	AmountCents  int64        `json:"amount_cents"`
	BuyerID      uuid.UUID    `json:"buyer_id"`
	Buyer        *UserPublic  `json:"buyer,omitempty"`
	Participants []UserPublic `json:"participants"`
	ShareCents   int64        `json:"share_per_participant_cents"`
	PurchaseDate time.Time    `json:"purchase_date"`
}

// SharePerParticipant returns the cost share per participant in cents:
// the smallest amount that covers an even split. Zero when nobody shares
// the purchase. Any leftover from uneven division is over-collected, not
// redistributed.
func (p *Purchase) SharePerParticipant() int64 {
	n := int64(len(p.Participants))
	if n == 0 {
		return 0
	}
	return (p.AmountCents + n - 1) / n
}
