package types

// GeocodeCandidate records one address variant sent to the geocoder.
type GeocodeCandidate struct {
	Query string        `json:"query"`
	Found bool          `json:"found"`
	Lat   float64       `json:"lat,omitempty"`
	Lon   float64       `json:"lon,omitempty"`
	Info  *LocationInfo `json:"info,omitempty"`
}

// GeocodeResult is a successful forward geocode of a street address.
type GeocodeResult struct {
	Lat        float64            `json:"lat"`
	Lng        float64            `json:"lng"`
	Location   LocationInfo       `json:"location"`
	Query      string             `json:"query"`
	Candidates []GeocodeCandidate `json:"candidates"`
}

// ReverseAddress is the human readable form of a coordinate.
type ReverseAddress struct {
	Location string `json:"location"`
	Quarter  string `json:"quarter"`
}

type GeocodeRequest struct {
	Address        string `json:"address"`
	Arrondissement string `json:"arrondissement"`
}

// GeocodeMatch is a single hit returned by the external search endpoint.
type GeocodeMatch struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	DisplayName string  `json:"display_name"`
}

// ReverseLookup is the raw reverse geocoding answer.
type ReverseLookup struct {
	HouseNumber   string `json:"house_number,omitempty"`
	Road          string `json:"road,omitempty"`
	Postcode      string `json:"postcode,omitempty"`
	Quarter       string `json:"quarter,omitempty"`
	Suburb        string `json:"suburb,omitempty"`
	Neighbourhood string `json:"neighbourhood,omitempty"`
	District      string `json:"district,omitempty"`
	DisplayName   string `json:"display_name,omitempty"`
}
