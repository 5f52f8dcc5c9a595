package intake_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/service/intake"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

type stubAgent struct {
	calls    int
	failures int
	inquiry  *model.Inquiry
}

func (a *stubAgent) ProcessInquiry(ctx context.Context, message string, client model.ClientInfo) (*model.Inquiry, error) {
	a.calls++
	if a.calls <= a.failures {
		return nil, errors.New("intake service unavailable")
	}
	return a.inquiry, nil
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func testConfig() intake.Config {
	return intake.Config{
		MaxAttempts:       3,
		BaseDelay:         time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}
}

var testClientInfo = model.ClientInfo{
	Name:  "Jordan Avery",
	Email: "jordan.avery@example.com",
	Phone: "+15550123456",
}

func TestProcessInquiryRetriesThenSucceeds(t *testing.T) {
	agent := &stubAgent{
		failures: 2,
		inquiry:  &model.Inquiry{PracticeArea: model.PracticeAreaFamily},
	}
	client := intake.NewClient(agent, testConfig(), testLogger())

	inquiry, err := client.ProcessInquiry(context.Background(), "I need help with a custody case", testClientInfo)
	require.NoError(t, err)
	assert.Equal(t, model.PracticeAreaFamily, inquiry.PracticeArea)
	assert.Equal(t, 3, agent.calls)
}

func TestProcessInquiryBoundedRetry(t *testing.T) {
	agent := &stubAgent{failures: 10}
	client := intake.NewClient(agent, testConfig(), testLogger())

	_, err := client.ProcessInquiry(context.Background(), "hello", testClientInfo)
	require.Error(t, err)
	assert.ErrorContains(t, err, "after 3 attempts")
	assert.Equal(t, 3, agent.calls, "retry stops at the attempt cap")
}

func TestProcessInquiryEmptyMessage(t *testing.T) {
	client := intake.NewClient(&stubAgent{}, testConfig(), testLogger())
	_, err := client.ProcessInquiry(context.Background(), "", testClientInfo)
	assert.True(t, apperrors.IsValidation(err))
}

func TestProcessInquiryNilResult(t *testing.T) {
	client := intake.NewClient(&stubAgent{}, testConfig(), testLogger())
	_, err := client.ProcessInquiry(context.Background(), "hello", testClientInfo)
	assert.True(t, apperrors.IsInternal(err))
}

func TestProcessInquiryContextCancelled(t *testing.T) {
	agent := &stubAgent{failures: 10}
	cfg := testConfig()
	cfg.BaseDelay = time.Hour
	client := intake.NewClient(agent, cfg, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := client.ProcessInquiry(ctx, "hello", testClientInfo)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 1, agent.calls, "the backoff wait honors cancellation")
}
