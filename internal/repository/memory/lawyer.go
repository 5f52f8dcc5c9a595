package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/leaptra/scheduling-core/internal/model"
	"github.com/leaptra/scheduling-core/internal/repository"
	apperrors "github.com/leaptra/scheduling-core/pkg/errors"
)

type lawyerRepository struct {
	store *Store
}

func NewLawyerRepository(store *Store) repository.LawyerRepository {
	return &lawyerRepository{store: store}
}

func (r *lawyerRepository) Create(ctx context.Context, lawyer *model.Lawyer) error {
	if len(lawyer.PracticeAreas) == 0 {
		return apperrors.Validation("lawyer must handle at least one practice area", nil)
	}
	if lawyer.HourlyRate < 0 {
		return apperrors.Validation("hourly rate must be non-negative", nil)
	}
	if lawyer.ID == uuid.Nil {
		lawyer.ID = uuid.New()
	}
	now := time.Now()
	lawyer.CreatedAt = now
	lawyer.UpdatedAt = now

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.lawyers[lawyer.ID]; ok {
		return apperrors.Conflict("lawyer already exists", nil)
	}
	r.store.lawyers[lawyer.ID] = copyLawyer(lawyer)
	return nil
}

func (r *lawyerRepository) Get(ctx context.Context, id uuid.UUID) (*model.Lawyer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	lawyer, ok := r.store.lawyers[id]
	if !ok {
		return nil, apperrors.NotFound("lawyer", fmt.Errorf("id %s", id))
	}
	return copyLawyer(lawyer), nil
}

func (r *lawyerRepository) List(ctx context.Context) ([]*model.Lawyer, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	out := make([]*model.Lawyer, 0, len(r.store.lawyers))
	for _, lawyer := range r.store.lawyers {
		out = append(out, copyLawyer(lawyer))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
