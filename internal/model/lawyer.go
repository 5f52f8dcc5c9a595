package model

import (
	"time"

	"github.com/google/uuid"
)

type PracticeArea string

const (
	PracticeAreaCorporate            PracticeArea = "corporate"
	PracticeAreaLitigation           PracticeArea = "litigation"
	PracticeAreaFamily               PracticeArea = "family"
	PracticeAreaRealEstate           PracticeArea = "real_estate"
	PracticeAreaCriminal             PracticeArea = "criminal"
	PracticeAreaImmigration          PracticeArea = "immigration"
	PracticeAreaIntellectualProperty PracticeArea = "intellectual_property"
	PracticeAreaEmployment           PracticeArea = "employment"
)

// PracticeAreas lists every supported area, in display order.
var PracticeAreas = []PracticeArea{
	PracticeAreaCorporate,
	PracticeAreaLitigation,
	PracticeAreaFamily,
	PracticeAreaRealEstate,
	PracticeAreaCriminal,
	PracticeAreaImmigration,
	PracticeAreaIntellectualProperty,
	PracticeAreaEmployment,
}

func (p PracticeArea) Valid() bool {
	for _, area := range PracticeAreas {
		if p == area {
			return true
		}
	}
	return false
}

type Lawyer struct {
	ID            uuid.UUID      `db:"id" json:"id"`
	Name          string         `db:"name" json:"name"`
	Email         string         `db:"email" json:"email"`
	HourlyRate    float64        `db:"hourly_rate" json:"hourly_rate"`
	PracticeAreas []PracticeArea `db:"practice_areas" json:"practice_areas"`
	CreatedAt     time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time      `db:"updated_at" json:"updated_at"`
}

// HandlesArea reports whether the lawyer is qualified for the given area.
func (l *Lawyer) HandlesArea(area PracticeArea) bool {
	for _, a := range l.PracticeAreas {
		if a == area {
			return true
		}
	}
	return false
}
