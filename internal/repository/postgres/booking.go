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

func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (
			id, reference, client_ref, lawyer_id, slot_id,
			duration_minutes, status, cancel_reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	booking.CreatedAt = time.Now()
	booking.UpdatedAt = time.Now()

	_, err := r.db.ExecContext(ctx, query,
		booking.ID,
		booking.Reference,
		booking.ClientRef,
		booking.LawyerID,
		booking.SlotID,
		booking.Duration,
		booking.Status,
		booking.CancelReason,
		booking.CreatedAt,
		booking.UpdatedAt,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create booking: %w", err))
	}
	return nil
}

func (r *bookingRepository) Get(ctx context.Context, id uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, reference, client_ref, lawyer_id, slot_id,
		       duration_minutes, status, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE id = $1
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get booking: %w", err))
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings
		SET status = $1, cancel_reason = $2, updated_at = $3
		WHERE id = $4
	`
	booking.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		booking.Status,
		booking.CancelReason,
		booking.UpdatedAt,
		booking.ID,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to update booking: %w", err))
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to get rows affected: %w", err))
	}
	if rows == 0 {
		return apperrors.NotFound("booking", nil)
	}
	return nil
}

func (r *bookingRepository) List(ctx context.Context, filters *model.BookingFilters) ([]*model.Booking, error) {
	query := `
		SELECT id, reference, client_ref, lawyer_id, slot_id,
		       duration_minutes, status, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.LawyerID != uuid.Nil {
			query += fmt.Sprintf(" AND lawyer_id = $%d", argCount)
			args = append(args, filters.LawyerID)
			argCount++
		}
		if filters.ClientRef != "" {
			query += fmt.Sprintf(" AND client_ref = $%d", argCount)
			args = append(args, filters.ClientRef)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if !filters.StartDate.IsZero() {
			query += fmt.Sprintf(" AND created_at >= $%d", argCount)
			args = append(args, filters.StartDate)
			argCount++
		}
		if !filters.EndDate.IsZero() {
			query += fmt.Sprintf(" AND created_at <= $%d", argCount)
			args = append(args, filters.EndDate)
			argCount++
		}
	}
	query += " ORDER BY created_at ASC"

	var bookings []*model.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list bookings: %w", err))
	}
	return bookings, nil
}

func (r *bookingRepository) GetLiveBySlot(ctx context.Context, slotID uuid.UUID) (*model.Booking, error) {
	query := `
		SELECT id, reference, client_ref, lawyer_id, slot_id,
		       duration_minutes, status, cancel_reason, created_at, updated_at
		FROM bookings
		WHERE slot_id = $1 AND status != $2
	`
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, query, slotID, model.BookingStatusCancelled)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("booking", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get live booking: %w", err))
	}
	return &booking, nil
}
