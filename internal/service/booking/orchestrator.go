package booking

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/service/ledger"
	"github.com/leaptra/scheduling-core/internal/service/matcher"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

type MatchStatus string

const (
	// StatusOptionsAvailable means candidates were found and the client
	// should pick one.
	StatusOptionsAvailable MatchStatus = "options_available"
	// StatusNoAvailability means the inquiry matched nothing; the client
	// needs an alternative date range. This is a business outcome, not a
	// failure.
	StatusNoAvailability MatchStatus = "no_availability"
)

// MatchResult is what the facade hands back to the intake/communication
// side after running an inquiry through the matcher.
type MatchResult struct {
	Status     MatchStatus         `json:"status"`
	Candidates []*model.LawyerSlot `json:"candidates,omitempty"`
}

// Selection is the client's chosen candidate, fed back from the external
// choice step.
type Selection struct {
	LawyerID        uuid.UUID        `json:"lawyer_id" validate:"required"`
	SlotID          uuid.UUID        `json:"slot_id" validate:"required"`
	Client          model.ClientInfo `json:"client" validate:"required"`
	DurationMinutes int              `json:"duration_minutes" validate:"required,gt=0"`
}

// Service is the single coordination point: inquiry → matcher →
// candidates → client choice → hold → confirm → booking event. It owns
// the retry policy boundary: ledger failures come back typed and are
// never retried below this layer.
type Service struct {
	matcher  *matcher.Service
	ledger   *ledger.Service
	validate *validator.Validate
	holdTTL  time.Duration
	logger   *logger.Logger
}

func NewService(m *matcher.Service, l *ledger.Service, holdTTL time.Duration, log *logger.Logger) *Service {
	if holdTTL <= 0 {
		holdTTL = ledger.DefaultHoldTTL
	}
	return &Service{
		matcher:  m,
		ledger:   l,
		validate: validator.New(),
		holdTTL:  holdTTL,
		logger:   log,
	}
}

// ProcessInquiry validates the structured inquiry and returns ranked
// candidates, or a no-availability outcome when the matcher comes back
// empty.
func (s *Service) ProcessInquiry(ctx context.Context, inquiry *model.Inquiry) (*MatchResult, error) {
	if inquiry == nil {
		return nil, apperrors.Validation("inquiry is required", nil)
	}
	if err := s.validate.Struct(inquiry); err != nil {
		return nil, apperrors.Validation("invalid inquiry", err)
	}
	if !inquiry.DateRange.Valid() {
		return nil, apperrors.Validation("inquiry date range end precedes start", nil)
	}

	candidates, err := s.matcher.Match(ctx, inquiry)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return &MatchResult{Status: StatusNoAvailability}, nil
	}
	return &MatchResult{
		Status:     StatusOptionsAvailable,
		Candidates: candidates,
	}, nil
}

// ConfirmSelection holds the chosen slot and immediately confirms it.
// A Conflict means someone else got the slot first; the caller should
// re-run ProcessInquiry for fresh candidates.
func (s *Service) ConfirmSelection(ctx context.Context, selection *Selection) (*model.Booking, error) {
	if selection == nil {
		return nil, apperrors.Validation("selection is required", nil)
	}
	if err := s.validate.Struct(selection); err != nil {
		return nil, apperrors.Validation("invalid selection", err)
	}

	hold, err := s.ledger.Hold(ctx, selection.LawyerID, selection.SlotID, s.holdTTL)
	if err != nil {
		return nil, err
	}

	booking, err := s.ledger.Confirm(ctx, hold.Token, selection.Client.Email, selection.DurationMinutes)
	if err != nil {
		// Give the slot back instead of letting the hold run out its ttl.
		if releaseErr := s.ledger.Release(ctx, hold.Token); releaseErr != nil && !apperrors.IsInvalidToken(releaseErr) {
			s.logger.Error(releaseErr, "failed to release hold after confirm failure",
				"slot_id", selection.SlotID.String())
		}
		return nil, err
	}
	return booking, nil
}

// CancelBooking cancels a booking and reopens its slot. Cancelling twice
// yields AlreadyCancelled, a recoverable no-op.
func (s *Service) CancelBooking(ctx context.Context, bookingID uuid.UUID, reason string) (*model.Booking, error) {
	return s.ledger.Cancel(ctx, bookingID, reason)
}

// GetBooking exposes booking lookups to the outbound collaborators.
func (s *Service) GetBooking(ctx context.Context, bookingID uuid.UUID) (*model.Booking, error) {
	return s.ledger.GetBooking(ctx, bookingID)
}
