package poi

import (
	"context"
	"log/slog"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

var _ Service = (*ServiceImpl)(nil)

// Service answers nearest-landmark queries against the POI dataset.
type Service interface {
	FindNearest(ctx context.Context, lat, lon float64) types.POIMatch
	ListPOIs(ctx context.Context) []types.PointOfInterest
}

type ServiceImpl struct {
	logger *slog.Logger
	repo   Repository

	once sync.Once
	pois []types.PointOfInterest
}

func NewServiceImpl(repo Repository, logger *slog.Logger) *ServiceImpl {
	return &ServiceImpl{
		logger: logger,
		repo:   repo,
	}
}

// load reads the dataset on first use. A failed load leaves the index empty
// for the life of the process since the bundled data cannot change.
func (s *ServiceImpl) load(ctx context.Context) []types.PointOfInterest {
	s.once.Do(func() {
		pois, rejected, err := s.repo.LoadPOIs(ctx)
		if err != nil {
			s.logger.ErrorContext(ctx, "Failed to load POI dataset", slog.Any("error", err))
			return
		}
		s.pois = pois
		s.logger.InfoContext(ctx, "POI dataset loaded",
			slog.Int("pois", len(pois)),
			slog.Int("rejected", len(rejected)))
	})
	return s.pois
}

func (s *ServiceImpl) FindNearest(ctx context.Context, lat, lon float64) types.POIMatch {
	_, span := otel.Tracer("POIService").Start(ctx, "FindNearest", trace.WithAttributes(
		attribute.Float64("lat", lat),
		attribute.Float64("lon", lon),
	))
	defer span.End()

	pois := s.load(ctx)
	if !types.ValidCoordinates(lat, lon) {
		return types.POIMatch{}
	}
	match := findNearest(pois, lat, lon)
	if match.POI != nil {
		span.SetAttributes(
			attribute.String("poi.name", match.POI.Name),
			attribute.Float64("poi.distance_m", *match.Distance),
		)
	}
	return match
}

func (s *ServiceImpl) ListPOIs(ctx context.Context) []types.PointOfInterest {
	pois := s.load(ctx)
	out := make([]types.PointOfInterest, len(pois))
	copy(out, pois)
	return out
}
