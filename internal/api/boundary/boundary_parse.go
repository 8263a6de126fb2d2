package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/FACorreiaa/go-parisian-doors/internal/api/arrondissement"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

var ErrNotFeatureCollection = errors.New("boundary document is not a FeatureCollection")

const unknownName = "Unknown"

type featureCollection struct {
	Type     string            `json:"type"`
	Features []json.RawMessage `json:"features"`
}

// ParseDistricts decodes a GeoJSON FeatureCollection of quartiers. Each
// feature is validated on its own: bad ones come back as RecordErrors and
// the rest of the document is kept in order.
func ParseDistricts(data []byte) ([]types.District, []types.RecordError, error) {
	var fc featureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode boundary dataset: %w", err)
	}
	if fc.Type != "FeatureCollection" {
		return nil, nil, ErrNotFeatureCollection
	}

	districts := make([]types.District, 0, len(fc.Features))
	var rejected []types.RecordError
	for i, raw := range fc.Features {
		d, err := parseFeature(raw)
		if err != nil {
			rejected = append(rejected, types.RecordError{Index: i, ID: d.Code, Reason: err.Error()})
			continue
		}
		districts = append(districts, d)
	}
	return districts, rejected, nil
}

func parseFeature(raw json.RawMessage) (types.District, error) {
	f, err := geojson.UnmarshalFeature(raw)
	if err != nil {
		return types.District{}, fmt.Errorf("invalid feature: %w", err)
	}

	d := types.District{
		Name:               propString(f.Properties, "l_qu", unknownName),
		Code:               propString(f.Properties, "c_qu", ""),
		ArrondissementName: propString(f.Properties, "l_ar", ""),
	}

	code, ok := propInt(f.Properties, "c_ar")
	if !ok || !arrondissement.ValidCode(code) {
		return d, fmt.Errorf("c_ar missing or outside 1..20")
	}
	d.ArrondissementCode = code

	if f.Geometry == nil {
		return d, fmt.Errorf("missing geometry")
	}
	switch g := f.Geometry.(type) {
	case orb.Polygon:
		if err := validatePolygon(g); err != nil {
			return d, err
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return d, fmt.Errorf("empty multipolygon")
		}
		for _, p := range g {
			if err := validatePolygon(p); err != nil {
				return d, err
			}
		}
	default:
		return d, fmt.Errorf("unsupported geometry %s", f.Geometry.GeoJSONType())
	}

	d.Geometry = f.Geometry
	d.Bound = f.Geometry.Bound()
	return d, nil
}

func validatePolygon(p orb.Polygon) error {
	if len(p) == 0 {
		return fmt.Errorf("polygon has no rings")
	}
	for i, ring := range p {
		if len(ring) < 4 {
			return fmt.Errorf("ring %d has %d points, need at least 4", i, len(ring))
		}
		if !ring.Closed() {
			return fmt.Errorf("ring %d is not closed", i)
		}
		for _, pt := range ring {
			if !types.ValidCoordinates(pt.Lat(), pt.Lon()) {
				return fmt.Errorf("ring %d has an invalid vertex", i)
			}
		}
	}
	return nil
}

func propString(props geojson.Properties, key, def string) string {
	switch v := props[key].(type) {
	case string:
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return def
}

// propInt accepts both numeric and string encodings; the open-data export
// has used both over time.
func propInt(props geojson.Properties, key string) (int, bool) {
	switch v := props[key].(type) {
	case float64:
		if v != math.Trunc(v) {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		return n, err == nil
	}
	return 0, false
}
