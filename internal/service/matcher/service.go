package matcher

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/service/availability"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/logger"
	"github.com/leaptra/scheduling-core/pkg/metrics"
)

const (
	DefaultMaxCandidates = 5

	// Urgency windows applied before ranking.
	EmergencyWindow         = 48 * time.Hour
	HighUrgencyBusinessDays = 5
)

type Config struct {
	MaxCandidates int
}

// Service converts an Inquiry into a ranked list of booking candidates.
type Service struct {
	availability *availability.Service
	cfg          Config
	metrics      *metrics.Metrics
	logger       *logger.Logger
	now          func() time.Time
}

func NewService(avail *availability.Service, cfg Config, m *metrics.Metrics, log *logger.Logger) *Service {
	if cfg.MaxCandidates <= 0 {
		cfg.MaxCandidates = DefaultMaxCandidates
	}
	return &Service{
		availability: avail,
		cfg:          cfg,
		metrics:      m,
		logger:       log,
		now:          time.Now,
	}
}

// Match returns at most MaxCandidates ranked (lawyer, slot) pairs. An
// empty result means "no availability" and is not an error; the caller
// translates it into a needs-alternative-dates outcome.
func (s *Service) Match(ctx context.Context, inquiry *model.Inquiry) ([]*model.LawyerSlot, error) {
	if inquiry == nil {
		return nil, apperrors.Validation("inquiry is required", nil)
	}
	if !inquiry.DateRange.Valid() {
		return nil, apperrors.Validation("inquiry date range end precedes start", nil)
	}
	if inquiry.MinDuration <= 0 {
		return nil, apperrors.Validation("inquiry duration must be positive", nil)
	}

	timer := prometheus.NewTimer(s.metrics.MatchLatency)
	defer timer.ObserveDuration()
	s.metrics.MatchRequests.WithLabelValues(string(inquiry.PracticeArea), string(inquiry.Urgency)).Inc()

	minDuration := time.Duration(inquiry.MinDuration) * time.Minute
	results, err := s.availability.Query(ctx, inquiry.PracticeArea, inquiry.DateRange, minDuration)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		s.logger.Debug("no availability for inquiry",
			"practice_area", string(inquiry.PracticeArea))
		return nil, nil
	}

	candidates := s.applyUrgencyWindow(results, inquiry.Urgency)
	candidates = s.rank(candidates, inquiry.PreferredLawyer)

	if len(candidates) > s.cfg.MaxCandidates {
		candidates = candidates[:s.cfg.MaxCandidates]
	}
	return candidates, nil
}

// applyUrgencyWindow narrows urgent inquiries to near-term slots. When
// the window would leave an urgent client with zero options, the
// unfiltered result is returned instead.
func (s *Service) applyUrgencyWindow(results []*model.LawyerSlot, urgency model.Urgency) []*model.LawyerSlot {
	var deadline time.Time
	switch urgency {
	case model.UrgencyEmergency:
		deadline = s.now().Add(EmergencyWindow)
	case model.UrgencyHigh:
		deadline = addBusinessDays(s.now(), HighUrgencyBusinessDays)
	default:
		return append([]*model.LawyerSlot(nil), results...)
	}

	var windowed []*model.LawyerSlot
	for _, candidate := range results {
		if !candidate.Slot.StartTime.After(deadline) {
			windowed = append(windowed, candidate)
		}
	}
	if len(windowed) == 0 {
		s.metrics.MatchFallbacks.Inc()
		return append([]*model.LawyerSlot(nil), results...)
	}
	return windowed
}

// rank orders candidates: preferred lawyer first (when requested and
// still available), then soonest slot start, then lowest hourly rate.
func (s *Service) rank(candidates []*model.LawyerSlot, preferred *uuid.UUID) []*model.LawyerSlot {
	sort.SliceStable(candidates, func(i, j int) bool {
		if preferred != nil {
			iPreferred := candidates[i].Lawyer.ID == *preferred
			jPreferred := candidates[j].Lawyer.ID == *preferred
			if iPreferred != jPreferred {
				return iPreferred
			}
		}
		if !candidates[i].Slot.StartTime.Equal(candidates[j].Slot.StartTime) {
			return candidates[i].Slot.StartTime.Before(candidates[j].Slot.StartTime)
		}
		return candidates[i].Lawyer.HourlyRate < candidates[j].Lawyer.HourlyRate
	})
	return candidates
}

// addBusinessDays advances t by n weekdays, rolling over weekends.
func addBusinessDays(t time.Time, n int) time.Time {
	out := t
	for added := 0; added < n; {
		out = out.Add(24 * time.Hour)
		if wd := out.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return out
}
