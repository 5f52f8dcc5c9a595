package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	"github.com/leaptra/scheduling-core/pkg/logger"
)

// Service writes events to the transactional outbox; the outbox
// processor picks them up and publishes to the broker.
type Service struct {
	outboxRepo repository.OutboxRepository
	logger     *logger.Logger
}

func NewService(outboxRepo repository.OutboxRepository, log *logger.Logger) *Service {
	return &Service{
		outboxRepo: outboxRepo,
		logger:     log,
	}
}

func (s *Service) Emit(ctx context.Context, eventType EventType, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	evt := &model.OutboxEvent{
		EventType: string(eventType),
		Payload:   data,
	}
	if err := s.outboxRepo.Create(ctx, evt); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}

	s.logger.Debug("event recorded", "event_type", string(eventType))
	return nil
}
