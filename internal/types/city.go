package types

import (
	"fmt"

	"github.com/paulmach/orb"
)

// District is one administrative quartier of the city. Its polygon rings are
// in (lon, lat) order as published in GeoJSON.
type District struct {
	Name               string       `json:"name"`
	Code               string       `json:"code"`
	ArrondissementName string       `json:"arrondissement_name"`
	ArrondissementCode int          `json:"arrondissement_code"`
	Geometry           orb.Geometry `json:"-"`
	Bound              orb.Bound    `json:"-"`
}

// RecordError describes a dataset record that was skipped during ingest.
type RecordError struct {
	Index  int    `json:"index"`
	ID     string `json:"id,omitempty"`
	Reason string `json:"reason"`
}

func (e RecordError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("record %d (%s): %s", e.Index, e.ID, e.Reason)
	}
	return fmt.Sprintf("record %d: %s", e.Index, e.Reason)
}
