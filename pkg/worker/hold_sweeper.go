package worker

import (
	"context"
	"time"

	"github.com/leaptra/scheduling-core/pkg/logger"
)

// Sweeper is implemented by the booking ledger.
type Sweeper interface {
	SweepExpired(ctx context.Context) int
}

// HoldSweeper reverts lapsed holds on a ticker so an abandoned hold
// never keeps a slot off the market past its ttl.
type HoldSweeper struct {
	ledger   Sweeper
	interval time.Duration
	logger   *logger.Logger
}

func NewHoldSweeper(ledger Sweeper, interval time.Duration, log *logger.Logger) *HoldSweeper {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &HoldSweeper{
		ledger:   ledger,
		interval: interval,
		logger:   log,
	}
}

func (s *HoldSweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("starting hold sweeper", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("shutting down hold sweeper")
			return
		case <-ticker.C:
			if reclaimed := s.ledger.SweepExpired(ctx); reclaimed > 0 {
				s.logger.Info("reclaimed expired holds", "count", reclaimed)
			}
		}
	}
}
