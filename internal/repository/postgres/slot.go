package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/leaptra/scheduling-core/internal/model"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
)

func (r *slotRepository) Create(ctx context.Context, slot *model.Slot) error {
	if !slot.EndTime.After(slot.StartTime) {
		return apperrors.Validation("slot end must be after start", nil)
	}

	query := `
		INSERT INTO slots (
			id, lawyer_id, start_time, end_time, status, location, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	if slot.ID == uuid.Nil {
		slot.ID = uuid.New()
	}
	if slot.Status == "" {
		slot.Status = model.SlotStatusOpen
	}
	slot.CreatedAt = time.Now()
	slot.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		slot.ID,
		slot.LawyerID,
		slot.StartTime,
		slot.EndTime,
		slot.Status,
		slot.Location,
		slot.CreatedAt,
		slot.UpdatedAt,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create slot: %w", err))
	}
	return nil
}

func (r *slotRepository) Get(ctx context.Context, id uuid.UUID) (*model.Slot, error) {
	query := `
		SELECT id, lawyer_id, start_time, end_time, status, location, created_at, updated_at
		FROM slots
		WHERE id = $1
	`
	var slot model.Slot
	err := r.db.GetContext(ctx, &slot, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("slot", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get slot: %w", err))
	}
	return &slot, nil
}

func (r *slotRepository) ListOpen(ctx context.Context, area model.PracticeArea, from, to time.Time, minDuration time.Duration) ([]*model.LawyerSlot, error) {
	query := `
		SELECT s.id, s.lawyer_id, s.start_time, s.end_time, s.status, s.location,
		       s.created_at, s.updated_at,
		       l.id, l.name, l.email, l.hourly_rate, l.practice_areas,
		       l.created_at, l.updated_at
		FROM slots s
		JOIN lawyers l ON l.id = s.lawyer_id
		WHERE s.status = $1
		  AND $2 = ANY(l.practice_areas)
		  AND s.start_time >= $3
		  AND s.start_time < $4
		  AND EXTRACT(EPOCH FROM (s.end_time - s.start_time)) >= $5
		ORDER BY s.start_time ASC, l.hourly_rate ASC
	`
	rows, err := r.db.QueryContext(ctx, query,
		model.SlotStatusOpen,
		string(area),
		from,
		to,
		minDuration.Seconds(),
	)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list open slots: %w", err))
	}
	defer rows.Close()

	var out []*model.LawyerSlot
	for rows.Next() {
		var slot model.Slot
		var lawyer model.Lawyer
		var areas []string
		err := rows.Scan(
			&slot.ID, &slot.LawyerID, &slot.StartTime, &slot.EndTime,
			&slot.Status, &slot.Location, &slot.CreatedAt, &slot.UpdatedAt,
			&lawyer.ID, &lawyer.Name, &lawyer.Email, &lawyer.HourlyRate,
			pq.Array(&areas), &lawyer.CreatedAt, &lawyer.UpdatedAt,
		)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to scan open slot: %w", err))
		}
		lawyer.PracticeAreas = make([]model.PracticeArea, len(areas))
		for i, a := range areas {
			lawyer.PracticeAreas[i] = model.PracticeArea(a)
		}
		out = append(out, &model.LawyerSlot{Lawyer: &lawyer, Slot: &slot})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return out, nil
}

// Transition relies on the conditional UPDATE as the compare-and-swap:
// zero rows affected with an existing slot means the status moved
// underneath us.
func (r *slotRepository) Transition(ctx context.Context, id uuid.UUID, from, to model.SlotStatus) error {
	if !model.CanTransition(from, to) {
		return apperrors.Validation(fmt.Sprintf("illegal slot transition %s -> %s", from, to), nil)
	}

	query := `
		UPDATE slots
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, to, time.Now(), id, from)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to transition slot: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		var status model.SlotStatus
		err := r.db.GetContext(ctx, &status, `SELECT status FROM slots WHERE id = $1`, id)
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound("slot", err)
		}
		if err != nil {
			return apperrors.Internal(err)
		}
		return apperrors.Conflict(fmt.Sprintf("slot is %s, expected %s", status, from), nil)
	}
	return nil
}
