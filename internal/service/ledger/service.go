package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/event"
	"github.com/leaptra/scheduling-core/pkg/logger"
	"github.com/leaptra/scheduling-core/pkg/metrics"
)

const (
	DefaultHoldTTL = 10 * time.Minute

	// Expired hold tombstones stay around this long so a late Confirm
	// still gets Expired rather than InvalidToken.
	expiredHoldRetention = 24 * time.Hour
)

type holdState int

const (
	holdActive holdState = iota
	holdExpired
)

type holdEntry struct {
	hold  model.Hold
	state holdState
}

// Invalidator is notified after every slot transition so cached
// availability reads do not outlive the status change.
type Invalidator interface {
	Invalidate()
}

// Service is the booking ledger: the sole writer of slot status and
// booking records. Slot transitions go through the repository's
// compare-and-swap, so concurrent attempts on one slot serialize there
// and never against unrelated slots. The ledger's own mutex guards only
// the hold table.
type Service struct {
	slots       repository.SlotRepository
	bookings    repository.BookingRepository
	lawyers     repository.LawyerRepository
	events      event.Emitter
	invalidator Invalidator
	metrics     *metrics.Metrics
	logger      *logger.Logger

	mu    sync.Mutex
	holds map[uuid.UUID]*holdEntry
	now   func() time.Time
}

func NewService(
	slots repository.SlotRepository,
	bookings repository.BookingRepository,
	lawyers repository.LawyerRepository,
	events event.Emitter,
	invalidator Invalidator,
	m *metrics.Metrics,
	log *logger.Logger,
) *Service {
	return &Service{
		slots:       slots,
		bookings:    bookings,
		lawyers:     lawyers,
		events:      events,
		invalidator: invalidator,
		metrics:     m,
		logger:      log,
		holds:       make(map[uuid.UUID]*holdEntry),
		now:         time.Now,
	}
}

// Hold soft-reserves an open slot for ttl (DefaultHoldTTL when zero) and
// returns the hold. Fails with Conflict when the slot is not open.
func (s *Service) Hold(ctx context.Context, lawyerID, slotID uuid.UUID, ttl time.Duration) (*model.Hold, error) {
	if ttl <= 0 {
		ttl = DefaultHoldTTL
	}

	slot, err := s.slots.Get(ctx, slotID)
	if err != nil {
		return nil, err
	}
	if slot.LawyerID != lawyerID {
		return nil, apperrors.Validation("slot does not belong to the given lawyer", nil)
	}

	if err := s.slots.Transition(ctx, slotID, model.SlotStatusOpen, model.SlotStatusHeld); err != nil {
		if apperrors.IsConflict(err) {
			s.metrics.HoldConflicts.Inc()
		}
		return nil, err
	}
	s.invalidate()

	now := s.now()
	hold := model.Hold{
		Token:     uuid.New(),
		LawyerID:  lawyerID,
		SlotID:    slotID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}

	s.mu.Lock()
	s.holds[hold.Token] = &holdEntry{hold: hold, state: holdActive}
	s.mu.Unlock()

	s.metrics.HoldsCreated.Inc()
	s.metrics.ActiveHolds.Inc()
	s.logger.Info("slot held",
		"slot_id", slotID.String(),
		"lawyer_id", lawyerID.String(),
		"expires_at", hold.ExpiresAt.Format(time.RFC3339))
	return &hold, nil
}

// Release voluntarily gives a held slot back before confirmation.
func (s *Service) Release(ctx context.Context, token uuid.UUID) error {
	s.mu.Lock()
	entry, ok := s.holds[token]
	if !ok {
		s.mu.Unlock()
		return apperrors.InvalidToken(nil)
	}
	if entry.state == holdExpired {
		s.mu.Unlock()
		return apperrors.Expired("hold has expired", nil)
	}
	delete(s.holds, token)
	s.mu.Unlock()

	s.metrics.ActiveHolds.Dec()
	if err := s.slots.Transition(ctx, entry.hold.SlotID, model.SlotStatusHeld, model.SlotStatusOpen); err != nil {
		return err
	}
	s.invalidate()
	return nil
}

// Confirm turns a live hold into a confirmed booking. It fails with
// Expired once the ttl has elapsed (reverting the slot to open) and with
// InvalidToken when the token never resolved or was already consumed.
func (s *Service) Confirm(ctx context.Context, token uuid.UUID, clientRef string, durationMinutes int) (*model.Booking, error) {
	s.mu.Lock()
	entry, ok := s.holds[token]
	if !ok {
		s.mu.Unlock()
		s.metrics.ConfirmFailures.WithLabelValues("invalid_token").Inc()
		return nil, apperrors.InvalidToken(nil)
	}
	if entry.state == holdExpired {
		s.mu.Unlock()
		s.metrics.ConfirmFailures.WithLabelValues("expired").Inc()
		return nil, apperrors.Expired("hold has expired", nil)
	}
	if entry.hold.Expired(s.now()) {
		entry.state = holdExpired
		s.mu.Unlock()
		s.expireHold(ctx, entry.hold)
		s.metrics.ConfirmFailures.WithLabelValues("expired").Inc()
		return nil, apperrors.Expired("hold ttl elapsed before confirmation", nil)
	}
	hold := entry.hold
	s.mu.Unlock()

	slot, err := s.slots.Get(ctx, hold.SlotID)
	if err != nil {
		return nil, err
	}
	if durationMinutes <= 0 {
		return nil, apperrors.Validation("requested duration must be positive", nil)
	}
	if time.Duration(durationMinutes)*time.Minute > slot.Duration() {
		return nil, apperrors.Validation("requested duration exceeds slot length", nil)
	}
	if clientRef == "" {
		return nil, apperrors.Validation("client reference is required", nil)
	}

	if err := s.slots.Transition(ctx, hold.SlotID, model.SlotStatusHeld, model.SlotStatusBooked); err != nil {
		if apperrors.IsConflict(err) {
			// Lost the race against the sweeper or a concurrent confirm
			// on the same token. The hold table says which.
			s.mu.Lock()
			entry, ok := s.holds[token]
			expired := ok && entry.state == holdExpired
			s.mu.Unlock()
			if expired {
				s.metrics.ConfirmFailures.WithLabelValues("expired").Inc()
				return nil, apperrors.Expired("hold ttl elapsed before confirmation", err)
			}
			s.metrics.ConfirmFailures.WithLabelValues("invalid_token").Inc()
			return nil, apperrors.InvalidToken(err)
		}
		return nil, err
	}
	s.invalidate()

	now := s.now()
	booking := &model.Booking{
		Reference: model.NewBookingReference(now),
		ClientRef: clientRef,
		LawyerID:  hold.LawyerID,
		SlotID:    hold.SlotID,
		Duration:  durationMinutes,
		Status:    model.BookingStatusConfirmed,
	}
	if err := s.bookings.Create(ctx, booking); err != nil {
		// Storage fault: put the slot back so it is not stranded booked
		// without a live booking.
		if revertErr := s.slots.Transition(ctx, hold.SlotID, model.SlotStatusBooked, model.SlotStatusOpen); revertErr != nil {
			s.logger.Error(revertErr, "failed to revert slot after booking write failure",
				"slot_id", hold.SlotID.String())
		}
		s.invalidate()
		return nil, apperrors.Internal(fmt.Errorf("failed to persist booking: %w", err))
	}

	s.mu.Lock()
	delete(s.holds, token)
	s.mu.Unlock()

	s.metrics.ActiveHolds.Dec()
	s.metrics.BookingsConfirmed.Inc()
	s.logger.Info("booking confirmed",
		"booking_id", booking.ID.String(),
		"reference", booking.Reference,
		"slot_id", booking.SlotID.String())

	s.emitBookingEvent(ctx, event.BookingConfirmed, booking)
	return booking, nil
}

// Cancel moves a booking to cancelled and atomically reopens its slot.
// A second cancel of the same booking returns AlreadyCancelled and does
// not touch the slot again.
func (s *Service) Cancel(ctx context.Context, bookingID uuid.UUID, reason string) (*model.Booking, error) {
	booking, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status == model.BookingStatusCancelled {
		return nil, apperrors.AlreadyCancelled(nil)
	}

	booking.Status = model.BookingStatusCancelled
	if reason != "" {
		booking.CancelReason = &reason
	}
	if err := s.bookings.Update(ctx, booking); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to update booking: %w", err))
	}

	if err := s.slots.Transition(ctx, booking.SlotID, model.SlotStatusBooked, model.SlotStatusOpen); err != nil {
		s.logger.Error(err, "failed to reopen slot on cancellation",
			"booking_id", bookingID.String(),
			"slot_id", booking.SlotID.String())
		return nil, apperrors.Internal(err)
	}
	s.invalidate()

	s.metrics.BookingsCancelled.Inc()
	s.logger.Info("booking cancelled",
		"booking_id", bookingID.String(),
		"reference", booking.Reference)

	s.emitBookingEvent(ctx, event.BookingCancelled, booking)
	return booking, nil
}

// GetBooking reads a booking record.
func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return s.bookings.Get(ctx, bookingID)
}

// SweepExpired reverts every lapsed hold to open and reports how many it
// reclaimed. The hold sweeper worker calls this on a ticker; Confirm
// performs the same lazy check on access, and both paths go through the
// repository compare-and-swap, so a late confirm and a sweep can never
// both win a slot.
func (s *Service) SweepExpired(ctx context.Context) int {
	now := s.now()

	var lapsed []model.Hold
	s.mu.Lock()
	for token, entry := range s.holds {
		switch entry.state {
		case holdActive:
			if entry.hold.Expired(now) {
				entry.state = holdExpired
				lapsed = append(lapsed, entry.hold)
			}
		case holdExpired:
			if now.Sub(entry.hold.ExpiresAt) > expiredHoldRetention {
				delete(s.holds, token)
			}
		}
	}
	s.mu.Unlock()

	for _, hold := range lapsed {
		s.expireHold(ctx, hold)
	}
	return len(lapsed)
}

func (s *Service) expireHold(ctx context.Context, hold model.Hold) {
	if err := s.slots.Transition(ctx, hold.SlotID, model.SlotStatusHeld, model.SlotStatusOpen); err != nil {
		// A concurrent confirm won the slot; nothing to revert.
		s.logger.Debug("expired hold slot already transitioned",
			"slot_id", hold.SlotID.String())
		return
	}
	s.invalidate()
	s.metrics.HoldsExpired.Inc()
	s.metrics.ActiveHolds.Dec()
	s.logger.Info("hold expired, slot reopened",
		"slot_id", hold.SlotID.String())

	if err := s.events.Emit(ctx, event.HoldExpired, map[string]string{
		"slot_id":   hold.SlotID.String(),
		"lawyer_id": hold.LawyerID.String(),
	}); err != nil {
		s.logger.Error(err, "failed to emit hold expiry event")
	}
}

func (s *Service) emitBookingEvent(ctx context.Context, eventType event.EventType, booking *model.Booking) {
	payload := model.BookingEventPayload{Booking: booking}
	if lawyer, err := s.lawyers.Get(ctx, booking.LawyerID); err == nil {
		payload.Lawyer = lawyer
	}
	if slot, err := s.slots.Get(ctx, booking.SlotID); err == nil {
		payload.Slot = slot
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "failed to emit booking event",
			"event_type", string(eventType),
			"booking_id", booking.ID.String())
	}
}

func (s *Service) invalidate() {
	if s.invalidator != nil {
		s.invalidator.Invalidate()
	}
}
