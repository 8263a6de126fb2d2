package poi

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// distanceMeters is the great-circle distance between two WGS84 points.
func distanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	return geo.DistanceHaversine(orb.Point{lon1, lat1}, orb.Point{lon2, lat2})
}

// findNearest scans pois once. Inside-radius candidates are ranked by
// distance divided by score; if none qualifies the absolute nearest POI is
// returned. Equal weights keep the earlier entry.
func findNearest(pois []types.PointOfInterest, lat, lon float64) types.POIMatch {
	var (
		nearest      *types.PointOfInterest
		nearestDist  = math.Inf(1)
		best         *types.PointOfInterest
		bestDist     float64
		bestWeighted = math.Inf(1)
	)

	for i := range pois {
		p := &pois[i]
		d := distanceMeters(lat, lon, p.Lat, p.Lon)
		if d < nearestDist {
			nearest, nearestDist = p, d
		}
		if d <= p.RadiusM {
			w := d / p.Score
			if w < bestWeighted {
				best, bestDist, bestWeighted = p, d, w
			}
		}
	}

	if best != nil {
		p := *best
		return types.POIMatch{POI: &p, Distance: &bestDist}
	}
	if nearest != nil {
		p := *nearest
		return types.POIMatch{POI: &p, Distance: &nearestDist}
	}
	return types.POIMatch{}
}
