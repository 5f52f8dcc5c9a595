package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/leaptra/scheduling-core/internal/repository"
)

type lawyerRepository struct {
	db *sqlx.DB
}

type slotRepository struct {
	db *sqlx.DB
}

type bookingRepository struct {
	db *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewLawyerRepository(db *sqlx.DB) repository.LawyerRepository {
	return &lawyerRepository{db: db}
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{db: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
