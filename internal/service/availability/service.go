package availability

import (
	"context"
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

// Service answers "which lawyers have an open slot of at least D minutes
// in this date range, qualified for this practice area". It is a pure
// read over the slot repository; an empty result is a legitimate
// business outcome, not an error.
type Service struct {
	slots    repository.SlotRepository
	cache    *cache.Cache
	cacheTTL time.Duration
	logger   *logger.Logger
}

func NewService(slots repository.SlotRepository, cacheTTL time.Duration, log *logger.Logger) *Service {
	s := &Service{
		slots:    slots,
		cacheTTL: cacheTTL,
		logger:   log,
	}
	if cacheTTL > 0 {
		s.cache = cache.New(cacheTTL, 2*cacheTTL)
	}
	return s
}

// Query returns qualifying (lawyer, slot) pairs ordered by slot start
// ascending, hourly rate breaking ties.
func (s *Service) Query(ctx context.Context, area model.PracticeArea, dateRange model.DateRange, minDuration time.Duration) ([]*model.LawyerSlot, error) {
	if !area.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("unknown practice area %q", area), nil)
	}
	if !dateRange.Valid() {
		return nil, apperrors.Validation("date range end precedes start", nil)
	}
	if minDuration <= 0 {
		return nil, apperrors.Validation("minimum duration must be positive", nil)
	}

	key := s.cacheKey(area, dateRange, minDuration)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			return cached.([]*model.LawyerSlot), nil
		}
	}

	from := startOfDay(dateRange.Start)
	to := startOfDay(dateRange.End).Add(24 * time.Hour)

	results, err := s.slots.ListOpen(ctx, area, from, to, minDuration)
	if err != nil {
		return nil, fmt.Errorf("failed to list open slots: %w", err)
	}

	if s.cache != nil {
		s.cache.Set(key, results, s.cacheTTL)
	}
	return results, nil
}

// Invalidate drops every cached query result. The ledger calls this on
// each slot transition so queries never serve a slot in a stale status
// beyond the cache window.
func (s *Service) Invalidate() {
	if s.cache != nil {
		s.cache.Flush()
	}
}

func (s *Service) cacheKey(area model.PracticeArea, dateRange model.DateRange, minDuration time.Duration) string {
	return fmt.Sprintf("%s|%s|%s|%d",
		area,
		dateRange.Start.Format("2006-01-02"),
		dateRange.End.Format("2006-01-02"),
		int(minDuration.Minutes()),
	)
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
