package door

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/geocoding"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/location"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

const (
	DefaultGeocodeDelay      = time.Second
	DefaultNeighborhoodDelay = 100 * time.Millisecond
)

var _ Service = (*ServiceImpl)(nil)

// Service runs the catalog-wide location backfills.
type Service interface {
	GeocodeMissingCoordinates(ctx context.Context) (types.MigrationSummary, error)
	RefreshNeighborhoods(ctx context.Context) (types.MigrationSummary, error)
}

type ServiceImpl struct {
	logger            *slog.Logger
	repo              Repository
	geocoder          geocoding.Service
	resolver          location.Service
	geocodeDelay      time.Duration
	neighborhoodDelay time.Duration
	sleep             func(ctx context.Context, d time.Duration) error
}

type Option func(*ServiceImpl)

func WithDelays(geocode, neighborhood time.Duration) Option {
	return func(s *ServiceImpl) {
		s.geocodeDelay = geocode
		s.neighborhoodDelay = neighborhood
	}
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *ServiceImpl) { s.sleep = fn }
}

func NewServiceImpl(repo Repository, geocoder geocoding.Service, resolver location.Service, logger *slog.Logger, opts ...Option) *ServiceImpl {
	s := &ServiceImpl{
		logger:            logger,
		repo:              repo,
		geocoder:          geocoder,
		resolver:          resolver,
		geocodeDelay:      DefaultGeocodeDelay,
		neighborhoodDelay: DefaultNeighborhoodDelay,
		sleep:             wait,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// GeocodeMissingCoordinates geocodes every door that has an address and an
// arrondissement but no coordinates. Doors are processed one at a time with
// geocodeDelay between geocoder calls.
func (s *ServiceImpl) GeocodeMissingCoordinates(ctx context.Context) (types.MigrationSummary, error) {
	ctx, span := otel.Tracer("DoorService").Start(ctx, "GeocodeMissingCoordinates")
	defer span.End()

	l := s.logger.With(slog.String("job", "geocode_doors"))

	doors, err := s.repo.ListDoors(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list doors", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list doors failed")
		return types.MigrationSummary{}, err
	}

	summary := types.MigrationSummary{Total: len(doors), Outcomes: make([]types.MigrationOutcome, 0, len(doors))}
	l.InfoContext(ctx, "Starting coordinate backfill", slog.Int("doors", len(doors)))

	processed := 0
	for i, d := range doors {
		outcome := types.MigrationOutcome{DoorID: d.ID, Location: d.Location}

		switch {
		case d.Coordinates != nil:
			outcome.Status, outcome.Reason = types.MigrationSkipped, "already has coordinates"
		case strings.TrimSpace(d.Location) == "" || d.Arrondissement == nil || strings.TrimSpace(*d.Arrondissement) == "":
			outcome.Status, outcome.Reason = types.MigrationSkipped, "missing location or arrondissement"
		default:
			if processed > 0 {
				if err := s.sleep(ctx, s.geocodeDelay); err != nil {
					return s.interrupted(ctx, l, summary, err)
				}
			}
			processed++
			outcome = s.geocodeDoor(ctx, l, d)
		}

		s.record(ctx, &summary, outcome, "geocode")
		l.DebugContext(ctx, "Door processed",
			slog.Int("index", i+1),
			slog.Int("total", len(doors)),
			slog.String("location", d.Location),
			slog.String("status", string(outcome.Status)))
	}

	l.InfoContext(ctx, "Coordinate backfill complete",
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("total", summary.Total))
	span.SetAttributes(attribute.Int("updated", summary.Updated), attribute.Int("failed", summary.Failed))
	span.SetStatus(codes.Ok, "Backfill complete")
	return summary, nil
}

func (s *ServiceImpl) geocodeDoor(ctx context.Context, l *slog.Logger, d types.Door) types.MigrationOutcome {
	outcome := types.MigrationOutcome{DoorID: d.ID, Location: d.Location}

	result := s.geocoder.Geocode(ctx, d.Location, *d.Arrondissement)
	if result == nil {
		outcome.Status, outcome.Reason = types.MigrationFailed, "address not found"
		return outcome
	}

	neighborhood := result.Location.SuggestedNeighborhood
	coords := types.Coordinates{Lat: result.Lat, Lng: result.Lng}
	if err := s.repo.UpdateCoordinates(ctx, d.ID, coords, &neighborhood); err != nil {
		l.ErrorContext(ctx, "Failed to store coordinates", slog.String("door_id", d.ID.String()), slog.Any("error", err))
		outcome.Status, outcome.Reason = types.MigrationFailed, err.Error()
		return outcome
	}
	outcome.Status = types.MigrationUpdated
	return outcome
}

// RefreshNeighborhoods re-resolves every door with coordinates and rewrites
// the neighborhood where it changed.
func (s *ServiceImpl) RefreshNeighborhoods(ctx context.Context) (types.MigrationSummary, error) {
	ctx, span := otel.Tracer("DoorService").Start(ctx, "RefreshNeighborhoods")
	defer span.End()

	l := s.logger.With(slog.String("job", "refresh_neighborhoods"))

	doors, err := s.repo.ListDoorsWithCoordinates(ctx)
	if err != nil {
		l.ErrorContext(ctx, "Failed to list doors", slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "list doors failed")
		return types.MigrationSummary{}, err
	}

	summary := types.MigrationSummary{Total: len(doors), Outcomes: make([]types.MigrationOutcome, 0, len(doors))}
	for i, d := range doors {
		if i > 0 {
			if err := s.sleep(ctx, s.neighborhoodDelay); err != nil {
				return s.interrupted(ctx, l, summary, err)
			}
		}

		outcome := types.MigrationOutcome{DoorID: d.ID, Location: d.Location}
		if d.Coordinates == nil {
			outcome.Status, outcome.Reason = types.MigrationSkipped, "no coordinates"
			s.record(ctx, &summary, outcome, "neighborhood")
			continue
		}

		info := s.resolver.Resolve(ctx, d.Coordinates.Lat, d.Coordinates.Lng)
		switch {
		case d.Neighborhood != nil && *d.Neighborhood == info.SuggestedNeighborhood:
			outcome.Status, outcome.Reason = types.MigrationSkipped, "unchanged"
		default:
			if err := s.repo.UpdateNeighborhood(ctx, d.ID, info.SuggestedNeighborhood); err != nil {
				l.ErrorContext(ctx, "Failed to store neighborhood", slog.String("door_id", d.ID.String()), slog.Any("error", err))
				outcome.Status, outcome.Reason = types.MigrationFailed, err.Error()
			} else {
				outcome.Status = types.MigrationUpdated
			}
		}
		s.record(ctx, &summary, outcome, "neighborhood")
	}

	l.InfoContext(ctx, "Neighborhood refresh complete",
		slog.Int("updated", summary.Updated),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", summary.Failed),
		slog.Int("total", summary.Total))
	span.SetStatus(codes.Ok, "Refresh complete")
	return summary, nil
}

func (s *ServiceImpl) record(ctx context.Context, summary *types.MigrationSummary, o types.MigrationOutcome, job string) {
	summary.Record(o)
	metrics.Get().DoorMigrationOutcomesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("job", job),
		attribute.String("status", string(o.Status)),
	))
}

func (s *ServiceImpl) interrupted(ctx context.Context, l *slog.Logger, summary types.MigrationSummary, err error) (types.MigrationSummary, error) {
	l.WarnContext(ctx, "Batch interrupted",
		slog.Int("processed", len(summary.Outcomes)),
		slog.Int("total", summary.Total),
		slog.Any("error", err))
	return summary, err
}
