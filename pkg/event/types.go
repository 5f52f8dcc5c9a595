package event

import "context"

type EventType string

// Booking lifecycle events published for the communication step.
const (
	BookingConfirmed EventType = "booking.confirmed"
	BookingCancelled EventType = "booking.cancelled"
	HoldExpired      EventType = "hold.expired"
)

// Emitter records an event for eventual delivery. The ledger and facade
// only depend on this; the outbox-backed implementation lives in
// Service.
type Emitter interface {
	Emit(ctx context.Context, eventType EventType, payload interface{}) error
}
