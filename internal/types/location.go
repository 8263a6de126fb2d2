package types

import "math"

// DefaultNeighborhood is used when neither a POI nor a district covers a point.
const DefaultNeighborhood = "Paris"

// LocationInfo is the resolved view of a single coordinate.
type LocationInfo struct {
	District                *District        `json:"district,omitempty"`
	NearestPOI              *PointOfInterest `json:"nearest_poi,omitempty"`
	DistanceToPOI           *float64         `json:"distance_to_poi_m,omitempty"`
	SuggestedNeighborhood   string           `json:"suggested_neighborhood"`
	SuggestedArrondissement *string          `json:"suggested_arrondissement"`
}

// Coordinates is the persisted form of a door position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

type ResolveResponse struct {
	Lat      float64      `json:"lat"`
	Lon      float64      `json:"lon"`
	Location LocationInfo `json:"location"`
}

// ValidCoordinates rejects NaN, infinities and out-of-range degrees.
func ValidCoordinates(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
