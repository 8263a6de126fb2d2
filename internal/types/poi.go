package types

// PointOfInterest is a named landmark with an influence radius and a
// unitless preference score. Higher scores win ties inside overlapping radii.
type PointOfInterest struct {
	Name    string  `json:"name"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	RadiusM float64 `json:"radius_m"`
	Score   float64 `json:"score"`
	Arr     int     `json:"arr"`
}

// POIMatch is the outcome of a nearest-POI lookup. Both fields are nil only
// when the POI dataset is empty.
type POIMatch struct {
	POI      *PointOfInterest `json:"poi,omitempty"`
	Distance *float64         `json:"distance_m,omitempty"`
}

// WithinRadius reports whether the matched POI's radius covers the query point.
func (m POIMatch) WithinRadius() bool {
	return m.POI != nil && m.Distance != nil && *m.Distance <= m.POI.RadiusM
}
