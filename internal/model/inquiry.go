package model

import (
	"time"

	"github.com/google/uuid"
)

type Urgency string

const (
	UrgencyLow       Urgency = "low"
	UrgencyNormal    Urgency = "normal"
	UrgencyHigh      Urgency = "high"
	UrgencyEmergency Urgency = "emergency"
)

type AppointmentType string

const (
	AppointmentTypeConsultation   AppointmentType = "consultation"
	AppointmentTypeFollowUp       AppointmentType = "follow_up"
	AppointmentTypeDocumentReview AppointmentType = "document_review"
	AppointmentTypeCourtPrep      AppointmentType = "court_preparation"
	AppointmentTypeContractReview AppointmentType = "contract_review"
)

// ClientInfo is the contact record the intake step collects before a
// booking can be confirmed.
type ClientInfo struct {
	Name    string `json:"name" validate:"required,min=2,max=100"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required,min=10,max=15"`
	Company string `json:"company,omitempty" validate:"max=100"`
}

// DateRange is an inclusive calendar-date range. Times are compared at
// day granularity: a slot belongs to the range when its start falls on
// any day from Start through End.
type DateRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t falls on a day inside the range.
func (r DateRange) Contains(t time.Time) bool {
	dayStart := time.Date(r.Start.Year(), r.Start.Month(), r.Start.Day(), 0, 0, 0, 0, r.Start.Location())
	dayEnd := time.Date(r.End.Year(), r.End.Month(), r.End.Day(), 0, 0, 0, 0, r.End.Location()).Add(24 * time.Hour)
	return !t.Before(dayStart) && t.Before(dayEnd)
}

func (r DateRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// Inquiry is a structured, already-understood client request. The
// free-text understanding that produces it lives in the intake
// collaborator, outside this core.
type Inquiry struct {
	PracticeArea    PracticeArea    `json:"practice_area" validate:"required,oneof=corporate litigation family real_estate criminal immigration intellectual_property employment"`
	AppointmentType AppointmentType `json:"appointment_type" validate:"required,oneof=consultation follow_up document_review court_preparation contract_review"`
	Urgency         Urgency         `json:"urgency" validate:"required,oneof=low normal high emergency"`
	DateRange       DateRange       `json:"date_range"`
	MinDuration     int             `json:"min_duration_minutes" validate:"required,gte=30,lte=240"`
	PreferredLawyer *uuid.UUID      `json:"preferred_lawyer,omitempty"`
	Client          ClientInfo      `json:"client"`
	Summary         string          `json:"summary" validate:"max=1000"`
}
