package location

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/arrondissement"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/boundary"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/poi"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service turns a coordinate into a neighborhood and arrondissement label.
type Service interface {
	Resolve(ctx context.Context, lat, lon float64) types.LocationInfo
	FindDistrict(ctx context.Context, lat, lon float64) *types.District
	Districts(ctx context.Context) []types.District
}

type ServiceImpl struct {
	logger     *slog.Logger
	pois       poi.Service
	boundaries boundary.Service
}

func NewServiceImpl(pois poi.Service, boundaries boundary.Service, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger:     logger,
		pois:       pois,
		boundaries: boundaries,
	}
}

// Resolve never fails. Invalid coordinates and an unavailable boundary
// dataset both degrade to the city-wide default.
func (s *ServiceImpl) Resolve(ctx context.Context, lat, lon float64) types.LocationInfo {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "Resolve", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	))
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.Get().ResolveRequestsTotal.Add(ctx, 1)
		metrics.Get().ResolveDurationSeconds.Record(ctx, time.Since(start).Seconds())
	}()

	info := types.LocationInfo{SuggestedNeighborhood: types.DefaultNeighborhood}
	if !types.ValidCoordinates(lat, lon) {
		s.logger.WarnContext(ctx, "Rejecting invalid coordinates", slog.Float64("lat", lat), slog.Float64("lon", lon))
		span.SetStatus(codes.Error, "invalid coordinates")
		return info
	}

	match := s.pois.FindNearest(ctx, lat, lon)
	district := s.boundaries.FindDistrict(ctx, lat, lon)

	info.NearestPOI = match.POI
	info.DistanceToPOI = match.Distance
	info.District = district

	switch {
	case match.WithinRadius():
		info.SuggestedNeighborhood = match.POI.Name
	case district != nil:
		info.SuggestedNeighborhood = district.Name
	}

	switch {
	case district != nil:
		info.SuggestedArrondissement = arrondissement.LabelPtr(district.ArrondissementCode)
	case match.POI != nil:
		info.SuggestedArrondissement = arrondissement.LabelPtr(match.POI.Arr)
	}

	span.SetAttributes(attribute.String("neighborhood", info.SuggestedNeighborhood))
	if info.SuggestedArrondissement != nil {
		span.SetAttributes(attribute.String("arrondissement", *info.SuggestedArrondissement))
	}
	span.SetStatus(codes.Ok, "Location resolved")
	return info
}

func (s *ServiceImpl) FindDistrict(ctx context.Context, lat, lon float64) *types.District {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "FindDistrict")
	defer span.End()
	return s.boundaries.FindDistrict(ctx, lat, lon)
}

// Districts lists the loaded quartiers in dataset order. It is empty while
// the boundary dataset is unavailable.
func (s *ServiceImpl) Districts(ctx context.Context) []types.District {
	ctx, span := otel.Tracer("LocationService").Start(ctx, "Districts")
	defer span.End()

	districts := s.boundaries.Districts(ctx)
	span.SetAttributes(attribute.Int("districts", len(districts)))
	return districts
}
