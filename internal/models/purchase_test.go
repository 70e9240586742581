package models

import (
	"testing"

	"github.com/google/uuid"
)

func TestSharePerParticipant(t *testing.T) {
	tests := []struct {
		name         string
		amountCents  int64
		participants int
		want         int64
	}{
		{"no participants", 10000, 0, 0},
		{"single participant pays all", 10000, 1, 10000},
		{"even split", 10000, 4, 2500},
		{"uneven split rounds up", 10000, 3, 3334},
		{"one cent over two", 1, 2, 1},
		{"zero amount", 0, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Purchase{AmountCents: tt.amountCents}
			for i := 0; i < tt.participants; i++ {
				p.Participants = append(p.Participants, UserPublic{ID: uuid.New()})
			}
			if got := p.SharePerParticipant(); got != tt.want {
				t.Fatalf("SharePerParticipant() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestSharePerParticipantCoversAmount(t *testing.T) {
	p := Purchase{AmountCents: 9999}
	for i := 0; i < 7; i++ {
		p.Participants = append(p.Participants, UserPublic{ID: uuid.New()})
	}
	share := p.SharePerParticipant()
	if total := share * int64(len(p.Participants)); total < p.AmountCents {
		t.Fatalf("shares collect %d cents, less than amount %d", total, p.AmountCents)
	}
}
