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

func (r *lawyerRepository) Create(ctx context.Context, lawyer *model.Lawyer) error {
	if len(lawyer.PracticeAreas) == 0 {
		return apperrors.Validation("lawyer must handle at least one practice area", nil)
	}
	if lawyer.HourlyRate < 0 {
		return apperrors.Validation("hourly rate must be non-negative", nil)
	}

	query := `
		INSERT INTO lawyers (
			id, name, email, hourly_rate, practice_areas, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	if lawyer.ID == uuid.Nil {
		lawyer.ID = uuid.New()
	}
	lawyer.CreatedAt = time.Now()
	lawyer.UpdatedAt = time.Now()

	areas := make([]string, len(lawyer.PracticeAreas))
	for i, area := range lawyer.PracticeAreas {
		areas[i] = string(area)
	}

	_, err := r.db.ExecContext(ctx, query,
		lawyer.ID,
		lawyer.Name,
		lawyer.Email,
		lawyer.HourlyRate,
		pq.Array(areas),
		lawyer.CreatedAt,
		lawyer.UpdatedAt,
	)
	if err != nil {
		return apperrors.Internal(fmt.Errorf("failed to create lawyer: %w", err))
	}
	return nil
}

func (r *lawyerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lawyer, error) {
	query := `
		SELECT id, name, email, hourly_rate, practice_areas, created_at, updated_at
		FROM lawyers
		WHERE id = $1
	`
	lawyer, err := scanLawyer(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound("lawyer", err)
		}
		return nil, apperrors.Internal(fmt.Errorf("failed to get lawyer: %w", err))
	}
	return lawyer, nil
}

func (r *lawyerRepository) List(ctx context.Context) ([]*model.Lawyer, error) {
	query := `
		SELECT id, name, email, hourly_rate, practice_areas, created_at, updated_at
		FROM lawyers
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("failed to list lawyers: %w", err))
	}
	defer rows.Close()

	var lawyers []*model.Lawyer
	for rows.Next() {
		lawyer, err := scanLawyer(rows)
		if err != nil {
			return nil, apperrors.Internal(fmt.Errorf("failed to scan lawyer: %w", err))
		}
		lawyers = append(lawyers, lawyer)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Internal(err)
	}
	return lawyers, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLawyer(row rowScanner) (*model.Lawyer, error) {
	var lawyer model.Lawyer
	var areas []string
	err := row.Scan(
		&lawyer.ID,
		&lawyer.Name,
		&lawyer.Email,
		&lawyer.HourlyRate,
		pq.Array(&areas),
		&lawyer.CreatedAt,
		&lawyer.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	lawyer.PracticeAreas = make([]model.PracticeArea, len(areas))
	for i, area := range areas {
		lawyer.PracticeAreas[i] = model.PracticeArea(area)
	}
	return &lawyer, nil
}
