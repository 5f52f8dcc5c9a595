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

type bookingRepository struct {
	store *Store
}

func NewBookingRepository(store *Store) repository.BookingRepository {
	return &bookingRepository{store: store}
}

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	now := time.Now()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	r.store.bmu.Lock()
	defer r.store.bmu.Unlock()

	if _, ok := r.store.bookings[booking.ID]; ok {
		return apperrors.Conflict("booking already exists", nil)
	}
	if booking.Status != model.BookingStatusCancelled {
		if _, ok := r.store.liveBySlot[booking.SlotID]; ok {
			return apperrors.Conflict("slot already has a live booking", nil)
		}
		r.store.liveBySlot[booking.SlotID] = booking.ID
	}
	r.store.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	r.store.bmu.RLock()
	defer r.store.bmu.RUnlock()

	booking, ok := r.store.bookings[id]
	if !ok {
		return nil, apperrors.NotFound("booking", fmt.Errorf("id %s", id))
	}
	return copyBooking(booking), nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	booking.UpdatedAt = time.Now()

	r.store.bmu.Lock()
	defer r.store.bmu.Unlock()

	existing, ok := r.store.bookings[booking.ID]
	if !ok {
		return apperrors.NotFound("booking", fmt.Errorf("id %s", booking.ID))
	}
	if booking.Status == model.BookingStatusCancelled && existing.Status != model.BookingStatusCancelled {
		delete(r.store.liveBySlot, booking.SlotID)
	}
	r.store.bookings[booking.ID] = copyBooking(booking)
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	r.store.bmu.RLock()
	defer r.store.bmu.RUnlock()

	var out []*model.Booking
	for _, booking := range r.store.bookings {
		if filters != nil {
			if filters.LawyerID != uuid.Nil && booking.LawyerID != filters.LawyerID {
				continue
			}
			if filters.ClientRef != "" && booking.ClientRef != filters.ClientRef {
				continue
			}
			if filters.Status != "" && booking.Status != filters.Status {
				continue
			}
			if !filters.StartDate.IsZero() && booking.CreatedAt.Before(filters.StartDate) {
				continue
			}
			if !filters.EndDate.IsZero() && booking.CreatedAt.After(filters.EndDate) {
				continue
			}
		}
		out = append(out, copyBooking(booking))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *bookingRepository) GetLiveBySlot(ctx context.Context, slotID uuid.UUID) (*model.Booking, error) {
	r.store.bmu.RLock()
	defer r.store.bmu.RUnlock()

	id, ok := r.store.liveBySlot[slotID]
	if !ok {
		return nil, apperrors.NotFound("booking", fmt.Errorf("no live booking for slot %s", slotID))
	}
	return copyBooking(r.store.bookings[id]), nil
}
