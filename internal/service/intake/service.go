package intake

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/leaptra/scheduling-core/internal/model"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

// Agent is the external intake collaborator: it turns a free-text client
// message into a structured Inquiry. The natural-language understanding
// lives entirely on the other side of this port.
type Agent interface {
	ProcessInquiry(ctx context.Context, message string, client model.ClientInfo) (*model.Inquiry, error)
}

type Config struct {
	MaxAttempts       int
	BaseDelay         time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client wraps the intake agent with a bounded retry (base delay doubled
// per attempt) and a rate limiter, since the remote service is both
// flaky and metered. Retry policy stops here; nothing below retries.
type Client struct {
	agent   Agent
	limiter *rate.Limiter
	cfg     Config
	logger  *logger.Logger
}

func NewClient(agent Agent, cfg Config, log *logger.Logger) *Client {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = 500 * time.Millisecond
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 5
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	return &Client{
		agent:   agent,
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		cfg:     cfg,
		logger:  log,
	}
}

// ProcessInquiry calls the intake agent, retrying up to MaxAttempts with
// exponential backoff, and validates that the result parses into a
// usable Inquiry.
func (c *Client) ProcessInquiry(ctx context.Context, message string, client model.ClientInfo) (*model.Inquiry, error) {
	if message == "" {
		return nil, apperrors.Validation("inquiry message is empty", nil)
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter wait interrupted: %w", err)
	}

	var lastErr error
	delay := c.cfg.BaseDelay
	for attempt := 1; attempt <= c.cfg.MaxAttempts; attempt++ {
		inquiry, err := c.agent.ProcessInquiry(ctx, message, client)
		if err == nil {
			if inquiry == nil {
				return nil, apperrors.Internal(fmt.Errorf("intake agent returned no inquiry"))
			}
			return inquiry, nil
		}
		lastErr = err
		c.logger.Warn("intake agent call failed",
			"attempt", attempt,
			"error", err.Error())

		if attempt == c.cfg.MaxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return nil, fmt.Errorf("intake agent failed after %d attempts: %w", c.cfg.MaxAttempts, lastErr)
}
