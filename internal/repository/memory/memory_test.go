package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	"github.com/leaptra/scheduling-core/internal/repository/memory"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
)

func seedLawyer(t *testing.T, repo repository.LawyerRepository, name string, rate float64, areas ...model.PracticeArea) *model.Lawyer {
	t.Helper()
	lawyer := &model.Lawyer{
		Name:          name,
		Email:         name + "@leaptra.com",
		HourlyRate:    rate,
		PracticeAreas: areas,
	}
	require.NoError(t, repo.Create(context.Background(), lawyer))
	return lawyer
}

func seedSlot(t *testing.T, repo repository.SlotRepository, lawyerID uuid.UUID, start time.Time, duration time.Duration) *model.Slot {
	t.Helper()
	slot := &model.Slot{
		LawyerID:  lawyerID,
		StartTime: start,
		EndTime:   start.Add(duration),
		Location:  model.SlotLocationOffice,
	}
	require.NoError(t, repo.Create(context.Background(), slot))
	return slot
}

func TestLawyerRepository(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewLawyerRepository(store)
	ctx := context.Background()

	t.Run("rejects empty practice areas", func(t *testing.T) {
		err := repo.Create(ctx, &model.Lawyer{Name: "No Areas", HourlyRate: 100})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("rejects negative rate", func(t *testing.T) {
		err := repo.Create(ctx, &model.Lawyer{
			Name:          "Negative",
			HourlyRate:    -1,
			PracticeAreas: []model.PracticeArea{model.PracticeAreaFamily},
		})
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("round trips", func(t *testing.T) {
		lawyer := seedLawyer(t, repo, "Sarah Johnson", 450, model.PracticeAreaCorporate, model.PracticeAreaEmployment)
		got, err := repo.Get(ctx, lawyer.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sarah Johnson", got.Name)
		assert.Len(t, got.PracticeAreas, 2)
	})

	t.Run("get unknown is NotFound", func(t *testing.T) {
		_, err := repo.Get(ctx, uuid.New())
		assert.True(t, apperrors.IsNotFound(err))
	})
}

func TestSlotTransitionCAS(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	ctx := context.Background()

	lawyer := seedLawyer(t, lawyers, "Emily Rodriguez", 350, model.PracticeAreaFamily)
	slot := seedSlot(t, slots, lawyer.ID, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), 2*time.Hour)

	require.NoError(t, slots.Transition(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld))

	err := slots.Transition(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld)
	assert.True(t, apperrors.IsConflict(err), "second open->held must conflict")

	require.NoError(t, slots.Transition(ctx, slot.ID, model.SlotStatusHeld, model.SlotStatusBooked))
	require.NoError(t, slots.Transition(ctx, slot.ID, model.SlotStatusBooked, model.SlotStatusOpen))

	got, err := slots.Get(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, model.SlotStatusOpen, got.Status)
}

func TestSlotTransitionErrors(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	ctx := context.Background()

	lawyer := seedLawyer(t, lawyers, "Michael Chen", 400, model.PracticeAreaLitigation)
	slot := seedSlot(t, slots, lawyer.ID, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), time.Hour)

	err := slots.Transition(ctx, uuid.New(), model.SlotStatusOpen, model.SlotStatusHeld)
	assert.True(t, apperrors.IsNotFound(err))

	err = slots.Transition(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusBooked)
	assert.True(t, apperrors.IsValidation(err), "open->booked is not a legal edge")
}

func TestConcurrentTransitionsSingleWinner(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	ctx := context.Background()

	lawyer := seedLawyer(t, lawyers, "David Kim", 425, model.PracticeAreaRealEstate)
	slot := seedSlot(t, slots, lawyer.ID, time.Date(2024, 1, 16, 14, 0, 0, 0, time.UTC), time.Hour)

	const attempts = 32
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- slots.Transition(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld)
		}()
	}
	wg.Wait()
	close(results)

	var wins, conflicts int
	for err := range results {
		if err == nil {
			wins++
		} else if apperrors.IsConflict(err) {
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one transition may win")
	assert.Equal(t, attempts-1, conflicts)
}

func TestListOpenFilteringAndOrdering(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	ctx := context.Background()

	cheap := seedLawyer(t, lawyers, "Emily Rodriguez", 350, model.PracticeAreaFamily)
	pricey := seedLawyer(t, lawyers, "Priya Shah", 500, model.PracticeAreaFamily)
	other := seedLawyer(t, lawyers, "Michael Chen", 400, model.PracticeAreaCriminal)

	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	late := seedSlot(t, slots, cheap.ID, day.Add(15*time.Hour), 2*time.Hour)
	earlyPricey := seedSlot(t, slots, pricey.ID, day.Add(10*time.Hour), 2*time.Hour)
	earlyCheap := seedSlot(t, slots, cheap.ID, day.Add(10*time.Hour), 2*time.Hour)
	seedSlot(t, slots, cheap.ID, day.Add(12*time.Hour), 30*time.Minute) // too short
	seedSlot(t, slots, other.ID, day.Add(10*time.Hour), 2*time.Hour)    // wrong area

	held := seedSlot(t, slots, cheap.ID, day.Add(17*time.Hour), 2*time.Hour)
	require.NoError(t, slots.Transition(ctx, held.ID, model.SlotStatusOpen, model.SlotStatusHeld))

	got, err := slots.ListOpen(ctx, model.PracticeAreaFamily, day, day.Add(24*time.Hour), time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 3)

	// Start ascending, then rate ascending.
	assert.Equal(t, earlyCheap.ID, got[0].Slot.ID)
	assert.Equal(t, earlyPricey.ID, got[1].Slot.ID)
	assert.Equal(t, late.ID, got[2].Slot.ID)
	for _, pair := range got {
		assert.Equal(t, model.SlotStatusOpen, pair.Slot.Status)
		assert.True(t, pair.Lawyer.HandlesArea(model.PracticeAreaFamily))
	}
}

func TestBookingLiveIndex(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	bookings := memory.NewBookingRepository(store)
	ctx := context.Background()

	lawyer := seedLawyer(t, lawyers, "Sarah Johnson", 450, model.PracticeAreaCorporate)
	slot := seedSlot(t, slots, lawyer.ID, time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC), time.Hour)

	first := &model.Booking{
		Reference: "LEG-20240115-0001",
		ClientRef: "client@example.com",
		LawyerID:  lawyer.ID,
		SlotID:    slot.ID,
		Duration:  60,
		Status:    model.BookingStatusConfirmed,
	}
	require.NoError(t, bookings.Create(ctx, first))

	second := &model.Booking{
		Reference: "LEG-20240115-0002",
		ClientRef: "someone@example.com",
		LawyerID:  lawyer.ID,
		SlotID:    slot.ID,
		Duration:  60,
		Status:    model.BookingStatusConfirmed,
	}
	err := bookings.Create(ctx, second)
	assert.True(t, apperrors.IsConflict(err), "slot may carry one live booking")

	live, err := bookings.GetLiveBySlot(ctx, slot.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, live.ID)

	first.Status = model.BookingStatusCancelled
	require.NoError(t, bookings.Update(ctx, first))

	_, err = bookings.GetLiveBySlot(ctx, slot.ID)
	assert.True(t, apperrors.IsNotFound(err))

	// With the first booking cancelled its row survives for audit.
	got, err := bookings.Get(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusCancelled, got.Status)

	// And the slot can be booked again.
	require.NoError(t, bookings.Create(ctx, second))
}
