package availability_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	"github.com/leaptra/scheduling-core/internal/repository/memory"
	"github.com/leaptra/scheduling-core/internal/service/availability"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func seed(t *testing.T, lawyers repository.LawyerRepository, slots repository.SlotRepository) (*model.Lawyer, *model.Slot) {
	t.Helper()
	ctx := context.Background()
	lawyer := &model.Lawyer{
		Name:          "Emily Rodriguez",
		Email:         "emily@leaptra.com",
		HourlyRate:    350,
		PracticeAreas: []model.PracticeArea{model.PracticeAreaFamily, model.PracticeAreaImmigration},
	}
	require.NoError(t, lawyers.Create(ctx, lawyer))

	start := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	slot := &model.Slot{
		LawyerID:  lawyer.ID,
		StartTime: start,
		EndTime:   start.Add(2 * time.Hour),
		Location:  model.SlotLocationOffice,
	}
	require.NoError(t, slots.Create(ctx, slot))
	return lawyer, slot
}

func TestQueryValidation(t *testing.T) {
	store := memory.NewStore()
	svc := availability.NewService(memory.NewSlotRepository(store), 0, testLogger())
	ctx := context.Background()
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	_, err := svc.Query(ctx, "maritime", model.DateRange{Start: day, End: day}, time.Hour)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Query(ctx, model.PracticeAreaFamily, model.DateRange{Start: day, End: day.Add(-24 * time.Hour)}, time.Hour)
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.Query(ctx, model.PracticeAreaFamily, model.DateRange{Start: day, End: day}, 0)
	assert.True(t, apperrors.IsValidation(err))
}

func TestQueryInclusiveDayRange(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	svc := availability.NewService(slots, 0, testLogger())
	ctx := context.Background()

	_, slot := seed(t, lawyers, slots)

	// The slot starts at 10:00 on the range's end day; the range is
	// inclusive of the whole end day.
	rng := model.DateRange{
		Start: time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}
	got, err := svc.Query(ctx, model.PracticeAreaFamily, rng, time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, slot.ID, got[0].Slot.ID)

	before := model.DateRange{
		Start: time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 14, 0, 0, 0, 0, time.UTC),
	}
	got, err = svc.Query(ctx, model.PracticeAreaFamily, before, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryEmptyResultIsNotAnError(t *testing.T) {
	store := memory.NewStore()
	svc := availability.NewService(memory.NewSlotRepository(store), 0, testLogger())
	day := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

	got, err := svc.Query(context.Background(), model.PracticeAreaCorporate, model.DateRange{Start: day, End: day}, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestQueryCacheInvalidation(t *testing.T) {
	store := memory.NewStore()
	lawyers := memory.NewLawyerRepository(store)
	slots := memory.NewSlotRepository(store)
	svc := availability.NewService(slots, time.Minute, testLogger())
	ctx := context.Background()

	_, slot := seed(t, lawyers, slots)
	rng := model.DateRange{
		Start: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
	}

	got, err := svc.Query(ctx, model.PracticeAreaFamily, rng, time.Hour)
	require.NoError(t, err)
	require.Len(t, got, 1)

	require.NoError(t, slots.Transition(ctx, slot.ID, model.SlotStatusOpen, model.SlotStatusHeld))

	// Cached result still serves the stale read until invalidated.
	got, err = svc.Query(ctx, model.PracticeAreaFamily, rng, time.Hour)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	svc.Invalidate()

	got, err = svc.Query(ctx, model.PracticeAreaFamily, rng, time.Hour)
	require.NoError(t, err)
	assert.Empty(t, got)
}
