package models

import "time"

const (
	BookingStatusPending   = "pending"
	BookingStatusApproved  = "approved"
	BookingStatusCancelled = "cancelled"
)

const (
	BookingRoleRequester   = "requester"
	BookingRoleCounterpart = "counterpart"
	BookingRoleEither      = "either"
)

// Direction is the role-relative projection of a record: "sent" when the
// viewer initiated it, "received" when the viewer is the other party.
const (
	DirectionSent     = "sent"
	DirectionReceived = "received"
)

// PairBooking is a claim by the requester to share one slot with the
// counterpart. Both sides see the same row; the sent/received distinction is a
// projection at query time.
type PairBooking struct {
	ID            int64      `json:"id"`
	SlotID        int64      `json:"slot_id"`
	RequesterID   string     `json:"requester_id"`
	CounterpartID string     `json:"counterpart_id"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"created_at"`
	DecidedAt     *time.Time `json:"decided_at"`
}

// OtherParty returns the id of the opposite side of the booking relative to
// accountID, or "" when accountID is not a party.
func (b *PairBooking) OtherParty(accountID string) string {
	switch accountID {
	case b.RequesterID:
		return b.CounterpartID
	case b.CounterpartID:
		return b.RequesterID
	default:
		return ""
	}
}

// BookingView is the display-ready projection produced by the query facade.
type BookingView struct {
	PairBooking
	Direction   string          `json:"direction"`
	Counterpart *AccountProfile `json:"counterpart"`
	Slot        *Slot           `json:"slot,omitempty"`
}
