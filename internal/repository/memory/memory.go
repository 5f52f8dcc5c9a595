package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
)

// Store is the in-memory backing for all repositories. The outer mutex
// guards map membership only; each slot carries its own lock so
// transitions on unrelated slots never serialize against each other.
type Store struct {
	mu      sync.RWMutex
	lawyers map[uuid.UUID]*model.Lawyer
	slots   map[uuid.UUID]*slotEntry
	byArea  map[model.PracticeArea][]uuid.UUID

	bmu        sync.RWMutex
	bookings   map[uuid.UUID]*model.Booking
	liveBySlot map[uuid.UUID]uuid.UUID

	omu    sync.Mutex
	outbox []*model.OutboxEvent
}

type slotEntry struct {
	mu   sync.RWMutex
	slot model.Slot
}

func NewStore() *Store {
	return &Store{
		lawyers:    make(map[uuid.UUID]*model.Lawyer),
		slots:      make(map[uuid.UUID]*slotEntry),
		byArea:     make(map[model.PracticeArea][]uuid.UUID),
		bookings:   make(map[uuid.UUID]*model.Booking),
		liveBySlot: make(map[uuid.UUID]uuid.UUID),
	}
}

func copyLawyer(l *model.Lawyer) *model.Lawyer {
	out := *l
	out.PracticeAreas = append([]model.PracticeArea(nil), l.PracticeAreas...)
	return &out
}

func copyBooking(b *model.Booking) *model.Booking {
	out := *b
	if b.CancelReason != nil {
		reason := *b.CancelReason
		out.CancelReason = &reason
	}
	return &out
}
