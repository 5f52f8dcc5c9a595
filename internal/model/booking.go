package model

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Booking is the durable record of a confirmed (or since-cancelled)
// appointment. Bookings are never physically deleted; cancellation is a
// status change so the audit trail survives.
type Booking struct {
	ID           uuid.UUID     `db:"id" json:"id"`
	Reference    string        `db:"reference" json:"reference"`
	ClientRef    string        `db:"client_ref" json:"client_ref"`
	LawyerID     uuid.UUID     `db:"lawyer_id" json:"lawyer_id"`
	SlotID       uuid.UUID     `db:"slot_id" json:"slot_id"`
	Duration     int           `db:"duration_minutes" json:"duration_minutes"`
	Status       BookingStatus `db:"status" json:"status"`
	CancelReason *string       `db:"cancel_reason" json:"cancel_reason,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// CancelReasonText returns the cancellation reason, or "" when none was
// given.
func (b *Booking) CancelReasonText() string {
	if b.CancelReason == nil {
		return ""
	}
	return *b.CancelReason
}

// NewBookingReference builds the human-facing reference, e.g.
// LEG-20240115-4821.
func NewBookingReference(at time.Time) string {
	return fmt.Sprintf("LEG-%s-%04d", at.Format("20060102"), rand.Intn(10000))
}

// Hold is a time-boxed soft reservation of a slot pending confirmation.
// It lives only in the ledger; the token is what callers hand back to
// Confirm.
type Hold struct {
	Token     uuid.UUID `json:"token"`
	LawyerID  uuid.UUID `json:"lawyer_id"`
	SlotID    uuid.UUID `json:"slot_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (h *Hold) Expired(now time.Time) bool {
	return !now.Before(h.ExpiresAt)
}
