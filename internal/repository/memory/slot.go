package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
)

type slotRepository struct {
	store *Store
}

func NewSlotRepository(store *Store) repository.SlotRepository {
	return &slotRepository{store: store}
}

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if !slot.EndTime.After(slot.StartTime) {
		return apperrors.Validation("slot end must be after start", nil)
	}
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if slot.Status == "" {
		slot.Status = model.SlotStatusOpen
	}
	now := time.Now()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	lawyer, ok := r.store.lawyers[slot.LawyerID]
	if !ok {
		return apperrors.NotFound("lawyer", fmt.Errorf("id %s", slot.LawyerID))
	}
	if _, ok := r.store.slots[slot.ID]; ok {
		return apperrors.Conflict("slot already exists", nil)
	}

	r.store.slots[slot.ID] = &slotEntry{slot: *slot}
	for _, area := range lawyer.PracticeAreas {
		r.store.byArea[area] = append(r.store.byArea[area], slot.ID)
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	r.store.mu.RLock()
	entry, ok := r.store.slots[id]
	r.store.mu.RUnlock()
	if !ok {
		return nil, apperrors.NotFound("slot", fmt.Errorf("id %s", id))
	}

	entry.mu.RLock()
	defer entry.mu.RUnlock()
	slot := entry.slot
	return &slot, nil
}

func (r *slotRepository) ListOpen(ctx context.Context, area model.PracticeArea, from, to time.Time, minDuration time.Duration) ([]*model.LawyerSlot, error) {
	r.store.mu.RLock()
	ids := append([]uuid.UUID(nil), r.store.byArea[area]...)
	entries := make([]*slotEntry, 0, len(ids))
	lawyers := make([]*model.Lawyer, 0, len(ids))
	for _, id := range ids {
		entry := r.store.slots[id]
		lawyer := r.store.lawyers[entry.slot.LawyerID]
		entries = append(entries, entry)
		lawyers = append(lawyers, lawyer)
	}
	r.store.mu.RUnlock()

	var out []*model.LawyerSlot
	for i, entry := range entries {
		entry.mu.RLock()
		slot := entry.slot
		entry.mu.RUnlock()

		if slot.Status != model.SlotStatusOpen {
			continue
		}
		if slot.StartTime.Before(from) || !slot.StartTime.Before(to) {
			continue
		}
		if slot.Duration() < minDuration {
			continue
		}
		out = append(out, &model.LawyerSlot{
			Lawyer: copyLawyer(lawyers[i]),
			Slot:   &slot,
		})
	}

	// Start time ascending, rate breaks ties.
	sort.Slice(out, func(i, j int) bool {
		if out[i].Slot.StartTime.Equal(out[j].Slot.StartTime) {
			return out[i].Lawyer.HourlyRate < out[j].Lawyer.HourlyRate
		}
		return out[i].Slot.StartTime.Before(out[j].Slot.StartTime)
	})
	return out, nil
}

func (r *slotRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	if !model.CanTransition(from, to) {
		return apperrors.Validation(fmt.Sprintf("illegal slot transition %s -> %s", from, to), nil)
	}

	r.store.mu.RLock()
	entry, ok := r.store.slots[id]
	r.store.mu.RUnlock()
	if !ok {
		return apperrors.NotFound("slot", fmt.Errorf("id %s", id))
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.slot.Status != from {
		return apperrors.Conflict(
			fmt.Sprintf("slot is %s, expected %s", entry.slot.Status, from), nil)
	}
	entry.slot.Status = to
	entry.slot.UpdatedAt = time.Now()
	return nil
}
