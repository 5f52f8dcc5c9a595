package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
)

type outboxRepository struct {
	store *Store
}

func NewOutboxRepository(store *Store) repository.OutboxRepository {
	return &outboxRepository{store: store}
}

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil {
		return apperrors.Validation("event payload cannot be nil", nil)
	}
	event.ID = uuid.New()
	event.Status = string(model.OutboxStatusPending)
	now := time.Now()
	event.CreatedAt = now
	event.UpdatedAt = now

	r.store.omu.Lock()
	defer r.store.omu.Unlock()

	copied := *event
	r.store.outbox = append(r.store.outbox, &copied)
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	r.store.omu.Lock()
	defer r.store.omu.Unlock()

	var out []*model.OutboxEvent
	for _, event := range r.store.outbox {
		if event.Status != string(model.OutboxStatusPending) {
			continue
		}
		copied := *event
		out = append(out, &copied)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	r.store.omu.Lock()
	defer r.store.omu.Unlock()

	for _, event := range r.store.outbox {
		if event.ID != id {
			continue
		}
		event.Status = string(status)
		event.ErrorMessage = errorMessage
		event.UpdatedAt = time.Now()
		if status == model.OutboxStatusProcessed {
			processedAt := event.UpdatedAt
			event.ProcessedAt = &processedAt
		}
		if status == model.OutboxStatusFailed {
			event.RetryCount++
		}
		return nil
	}
	return apperrors.NotFound("outbox event", fmt.Errorf("id %s", id))
}
