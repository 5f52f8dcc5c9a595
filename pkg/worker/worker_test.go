package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository/memory"
	"github.com/leaptra/scheduling-core/pkg/event"
	"github.com/leaptra/scheduling-core/pkg/logger"
	"github.com/leaptra/scheduling-core/pkg/metrics"
)

type stubBroker struct {
	mu        sync.Mutex
	published map[string][][]byte
	failures  int
	channels  map[string]chan []byte
}

func newStubBroker() *stubBroker {
	return &stubBroker{
		published: make(map[string][][]byte),
		channels:  make(map[string]chan []byte),
	}
}

func (b *stubBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failures > 0 {
		b.failures--
		return errors.New("broker unavailable")
	}
	raw, err := json.Marshal(message)
	if err != nil {
		return err
	}
	b.published[channel] = append(b.published[channel], raw)
	return nil
}

func (b *stubBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan []byte, 8)
	b.channels[channel] = ch
	return ch, nil
}

func (b *stubBroker) Close() error { return nil }

func (b *stubBroker) publishedOn(channel string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published[channel])
}

func testLogger() *logger.Logger {
	return logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard})
}

func seedOutboxEvent(t *testing.T, emitter *event.Service, eventType event.EventType) {
	t.Helper()
	require.NoError(t, emitter.Emit(context.Background(), eventType, map[string]string{"k": "v"}))
}

func TestOutboxProcessorPublishesAndMarksProcessed(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOutboxRepository(store)
	emitter := event.NewService(repo, testLogger())
	broker := newStubBroker()
	m := metrics.NewMetrics("test", "outbox", prometheus.NewRegistry())

	seedOutboxEvent(t, emitter, event.BookingConfirmed)
	seedOutboxEvent(t, emitter, event.BookingCancelled)

	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  5 * time.Millisecond,
		RetryAttempts: 1,
		RetryDelay:    time.Millisecond,
	}, testLogger(), m)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	p.Start(ctx)

	assert.Equal(t, 1, broker.publishedOn(string(event.BookingConfirmed)))
	assert.Equal(t, 1, broker.publishedOn(string(event.BookingCancelled)))

	pending, err := repo.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "published rows leave the pending set")
}

func TestOutboxProcessorRetriesTransientFailures(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOutboxRepository(store)
	emitter := event.NewService(repo, testLogger())
	broker := newStubBroker()
	broker.failures = 2
	m := metrics.NewMetrics("test", "outbox", prometheus.NewRegistry())

	seedOutboxEvent(t, emitter, event.BookingConfirmed)

	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  5 * time.Millisecond,
		RetryAttempts: 3,
		RetryDelay:    time.Millisecond,
	}, testLogger(), m)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	p.Start(ctx)

	assert.Equal(t, 1, broker.publishedOn(string(event.BookingConfirmed)))
}

func TestOutboxProcessorMarksExhaustedEventsFailed(t *testing.T) {
	store := memory.NewStore()
	repo := memory.NewOutboxRepository(store)
	emitter := event.NewService(repo, testLogger())
	broker := newStubBroker()
	broker.failures = 100
	m := metrics.NewMetrics("test", "outbox", prometheus.NewRegistry())

	seedOutboxEvent(t, emitter, event.BookingConfirmed)

	p := NewOutboxProcessor(repo, broker, OutboxProcessorConfig{
		BatchSize:     10,
		PollInterval:  5 * time.Millisecond,
		RetryAttempts: 2,
		RetryDelay:    time.Millisecond,
	}, testLogger(), m)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	p.Start(ctx)

	assert.Equal(t, 0, broker.publishedOn(string(event.BookingConfirmed)))
	pending, err := repo.GetPendingEvents(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending, "a failed row is no longer pending")
}

type countingSweeper struct {
	mu    sync.Mutex
	calls int
}

func (s *countingSweeper) SweepExpired(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return 1
}

func (s *countingSweeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type recordingEmail struct {
	mu            sync.Mutex
	confirmations []*model.BookingEventPayload
	cancellations []*model.BookingEventPayload
}

func (e *recordingEmail) SendBookingConfirmation(ctx context.Context, payload *model.BookingEventPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.confirmations = append(e.confirmations, payload)
	return nil
}

func (e *recordingEmail) SendCancellationNotice(ctx context.Context, payload *model.BookingEventPayload) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancellations = append(e.cancellations, payload)
	return nil
}

func TestNotifierRelaysBookingEvents(t *testing.T) {
	broker := newStubBroker()
	emailSvc := &recordingEmail{}
	n := NewNotifier(broker, emailSvc, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- n.Start(ctx) }()

	// Wait for the subscriptions to land.
	require.Eventually(t, func() bool {
		broker.mu.Lock()
		defer broker.mu.Unlock()
		return len(broker.channels) == 2
	}, time.Second, time.Millisecond)

	payload := model.BookingEventPayload{
		Booking: &model.Booking{Reference: "LEG-20240115-0001", Status: model.BookingStatusConfirmed},
	}
	raw, err := json.Marshal(payload)
	require.NoError(t, err)

	broker.mu.Lock()
	broker.channels[string(event.BookingConfirmed)] <- raw
	broker.mu.Unlock()

	require.Eventually(t, func() bool {
		emailSvc.mu.Lock()
		defer emailSvc.mu.Unlock()
		return len(emailSvc.confirmations) == 1
	}, time.Second, time.Millisecond)

	emailSvc.mu.Lock()
	assert.Equal(t, "LEG-20240115-0001", emailSvc.confirmations[0].Booking.Reference)
	assert.Empty(t, emailSvc.cancellations)
	emailSvc.mu.Unlock()

	cancel()
	require.NoError(t, <-done)
}

func TestHoldSweeperTicks(t *testing.T) {
	sweeper := &countingSweeper{}
	hs := NewHoldSweeper(sweeper, 5*time.Millisecond, testLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()
	hs.Start(ctx)

	assert.GreaterOrEqual(t, sweeper.count(), 2)
}
