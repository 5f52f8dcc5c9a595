package model

import (
	"time"

	"github.com/google/uuid"
)

// Pagination represents common pagination parameters
type Pagination struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
}

// BookingFilters narrows booking listings.
type BookingFilters struct {
	LawyerID  uuid.UUID
	ClientRef string
	Status    BookingStatus
	StartDate time.Time
	EndDate   time.Time
}
