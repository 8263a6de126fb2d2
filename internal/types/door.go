package types

import (
	"time"

	"github.com/google/uuid"
)

// Door is a catalogued door photo. Only the location fields are read or
// written by this service.
type Door struct {
	ID             uuid.UUID    `json:"id"`
	Location       string       `json:"location"`
	Neighborhood   *string      `json:"neighborhood,omitempty"`
	Arrondissement *string      `json:"arrondissement,omitempty"`
	Coordinates    *Coordinates `json:"coordinates,omitempty"`
	ImageURL       string       `json:"image_url"`
	DateAdded      time.Time    `json:"date_added"`
}

type MigrationStatus string

const (
	MigrationUpdated MigrationStatus = "updated"
	MigrationSkipped MigrationStatus = "skipped"
	MigrationFailed  MigrationStatus = "failed"
)

// MigrationOutcome is the per-door result of a batch run.
type MigrationOutcome struct {
	DoorID   uuid.UUID       `json:"door_id"`
	Location string          `json:"location"`
	Status   MigrationStatus `json:"status"`
	Reason   string          `json:"reason,omitempty"`
}

// MigrationSummary aggregates a batch run over the door catalog.
type MigrationSummary struct {
	Updated  int                `json:"updated"`
	Skipped  int                `json:"skipped"`
	Failed   int                `json:"failed"`
	Total    int                `json:"total"`
	Outcomes []MigrationOutcome `json:"outcomes"`
}

func (s *MigrationSummary) Record(o MigrationOutcome) {
	switch o.Status {
	case MigrationUpdated:
		s.Updated++
	case MigrationSkipped:
		s.Skipped++
	case MigrationFailed:
		s.Failed++
	}
	s.Outcomes = append(s.Outcomes, o)
}
