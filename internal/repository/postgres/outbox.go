package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
)

func (r *outboxRepository) Create(ctx context.Context, event *model.OutboxEvent) error {
	if event == nil || event.Payload == nil {
		return apperrors.Validation("event payload cannot be nil", nil)
	}

	query := `
		INSERT INTO outbox_events (
			id, event_type, payload, status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`
	event.ID = uuid.New()
	event.Status = string(model.OutboxStatusPending)
	event.CreatedAt = time.Now()
	event.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		event.ID,
		event.EventType,
		event.Payload,
		event.Status,
		event.CreatedAt,
		event.UpdatedAt,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create outbox event: %w", err))
	}
	return nil
}

func (r *outboxRepository) GetPendingEvents(ctx context.Context, limit int) ([]*model.OutboxEvent, error) {
	query := `
		SELECT id, event_type, payload, status, error_message,
		       created_at, processed_at, updated_at, retry_count
		FROM outbox_events
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	var events []*model.OutboxEvent
	err := r.db.SelectContext(ctx, &events, query, string(model.OutboxStatusPending), limit)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to get pending events: %w", err))
	}
	return events, nil
}

func (r *outboxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errorMessage *string) error {
	query := `
		UPDATE outbox_events
		SET status = $1,
		    error_message = $2,
		    processed_at = CASE WHEN $1 = $3 THEN NOW() ELSE processed_at END,
		    retry_count = CASE WHEN $1 = $4 THEN retry_count + 1 ELSE retry_count END,
		    updated_at = NOW()
		WHERE id = $5
	`
	result, err := r.db.ExecContext(ctx, query,
		string(status),
		errorMessage,
		string(model.OutboxStatusProcessed),
		string(model.OutboxStatusFailed),
		id,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update event status: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(err)
	}
	if rows == 0 {
		return apperrors.NotFound("outbox event", nil)
	}
	return nil
}
