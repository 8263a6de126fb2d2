package boundary

import (
	"log/slog"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// Index is an immutable list of districts searched in dataset order.
type Index struct {
	districts []types.District
	logger    *slog.Logger
}

func NewIndex(districts []types.District, logger *slog.Logger) *Index {
	return &Index{districts: districts, logger: logger}
}

func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.districts)
}

// Find returns the first district whose polygon contains the point.
func (i *Index) Find(lat, lon float64) *types.District {
	if i == nil || !types.ValidCoordinates(lat, lon) {
		return nil
	}
	pt := orb.Point{lon, lat}
	for k := range i.districts {
		d := &i.districts[k]
		if !d.Bound.Contains(pt) {
			continue
		}
		if i.contains(d, pt) {
			out := *d
			return &out
		}
	}
	return nil
}

// contains isolates a single polygon test so a broken geometry only costs
// its own district.
func (i *Index) contains(d *types.District, pt orb.Point) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			i.logger.Warn("Polygon containment test failed",
				slog.String("district", d.Name),
				slog.Any("panic", r))
			ok = false
		}
	}()

	switch g := d.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

func (i *Index) Districts() []types.District {
	if i == nil {
		return nil
	}
	out := make([]types.District, len(i.districts))
	copy(out, i.districts)
	return out
}
