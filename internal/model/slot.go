package model

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotStatusOpen   SlotStatus = "open"
	SlotStatusHeld   SlotStatus = "held"
	SlotStatusBooked SlotStatus = "booked"
)

type SlotLocation string

const (
	SlotLocationOffice  SlotLocation = "office"
	SlotLocationVirtual SlotLocation = "virtual"
)

// Slot is a discrete bookable interval on one lawyer's calendar.
// Status moves open→held→booked, with held→open on release or expiry
// and booked→open on cancellation.
type Slot struct {
	ID        uuid.UUID    `db:"id" json:"id"`
	LawyerID  uuid.UUID    `db:"lawyer_id" json:"lawyer_id"`
	StartTime time.Time    `db:"start_time" json:"start_time"`
	EndTime   time.Time    `db:"end_time" json:"end_time"`
	Status    SlotStatus   `db:"status" json:"status"`
	Location  SlotLocation `db:"location" json:"location"`
	CreatedAt time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt time.Time    `db:"updated_at" json:"updated_at"`
}

func (s *Slot) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// CanTransition reports whether moving from the slot's current status to
// the target is a legal state-machine edge.
func CanTransition(from, to SlotStatus) bool {
	switch from {
	case SlotStatusOpen:
		return to == SlotStatusHeld
	case SlotStatusHeld:
		return to == SlotStatusOpen || to == SlotStatusBooked
	case SlotStatusBooked:
		return to == SlotStatusOpen
	}
	return false
}

// LawyerSlot pairs an open slot with its owning lawyer, the unit the
// availability query and matcher work in.
type LawyerSlot struct {
	Lawyer *Lawyer
	Slot   *Slot
}
