package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
)

// All repository interfaces in one file
type (
	// LawyerRepository handles lawyer records, which arrive from the
	// external scheduling-data feed and are read-only for this core.
	LawyerRepository interface {
		Create(ctx context.Context, lawyer *model.Lawyer) error
		Get(ctx context.Context, id uuid.UUID) (*model.Lawyer, error)
		List(ctx context.Context) ([]*model.Lawyer, error)
	}

	// SlotRepository owns slot rows and their status machine. Transition
	// is the single mutation path: a compare-and-swap that succeeds only
	// when the slot still carries the expected status, so two concurrent
	// holds on one slot can never both win.
	SlotRepository interface {
		Create(ctx context.Context, slot *model.Slot) error
		Get(ctx context.Context, id uuid.UUID) (*model.Slot, error)
		// ListOpen returns open slots of at least minDuration whose start
		// falls between from (inclusive) and to (exclusive), joined with
		// their lawyers, filtered to the given practice area. Reads see a
		// consistent snapshot: no slot is observed mid-transition.
		ListOpen(ctx context.Context, area model.PracticeArea, from, to time.Time, minDuration time.Duration) ([]*model.LawyerSlot, error)
		// Transition moves the slot from one status to another. It returns
		// a Conflict error when the slot no longer carries the expected
		// status, and NotFound for an unknown slot.
		Transition(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error
	}

	// BookingRepository persists booking records. Rows are never deleted;
	// cancellation is a status update.
	BookingRepository interface {
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id uuid.UUID) (*model.Booking, error)
		Update(ctx context.Context, booking *model.Booking) error
		List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error)
		// GetLiveBySlot returns the single non-cancelled booking for the
		// slot, or NotFound.
		GetLiveBySlot(ctx context.Context, slotID uuid.UUID) (*model.Booking, error)
	}

	// OutboxRepository stores booking lifecycle events until the
	// processor publishes them.
	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error
	}
)
