package geocoding

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/arrondissement"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/location"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// DefaultVariantDelay spaces consecutive queries for one address.
const DefaultVariantDelay = 300 * time.Millisecond

var _ Service = (*ServiceImpl)(nil)

// Service converts between street addresses and resolved locations. It
// reports failure as an empty result and never returns an error.
type Service interface {
	Geocode(ctx context.Context, address, arrondissementLabel string) *types.GeocodeResult
	ReverseGeocode(ctx context.Context, lat, lon float64) string
	ReverseAddress(ctx context.Context, lat, lon float64) types.ReverseAddress
}

type ServiceImpl struct {
	logger       *slog.Logger
	client       Client
	resolver     location.Service
	cache        Cache
	variantDelay time.Duration
	sleep        func(ctx context.Context, d time.Duration) error
}

type Option func(*ServiceImpl)

func WithCache(c Cache) Option {
	return func(s *ServiceImpl) { s.cache = c }
}

func WithVariantDelay(d time.Duration) Option {
	return func(s *ServiceImpl) { s.variantDelay = d }
}

func withSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *ServiceImpl) { s.sleep = fn }
}

func NewServiceImpl(client Client, resolver location.Service, logger *slog.Logger, opts ...Option) *ServiceImpl {
	s := &ServiceImpl{
		logger:       logger,
		client:       client,
		resolver:     resolver,
		variantDelay: DefaultVariantDelay,
		sleep:        sleepContext,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type cachedSearch struct {
	Query string  `json:"query"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Geocode tries each address variant in turn and resolves the first hit.
func (s *ServiceImpl) Geocode(ctx context.Context, address, arrondissementLabel string) *types.GeocodeResult {
	ctx, span := otel.Tracer("GeocodingService").Start(ctx, "Geocode", trace.WithAttributes(
		attribute.String("arrondissement", arrondissementLabel),
	))
	defer span.End()

	l := s.logger.With(slog.String("method", "Geocode"))
	metrics.Get().GeocodeRequestsTotal.Add(ctx, 1)

	normalized := NormalizeAddress(address)
	if normalized == "" {
		l.WarnContext(ctx, "Empty address, skipping geocode")
		span.SetStatus(codes.Error, "empty address")
		return nil
	}
	postal := arrondissement.PostalCode(arrondissementLabel)
	key := geocodeCacheKey(normalized, postal)

	if hit, ok := s.cachedSearch(ctx, key); ok {
		l.DebugContext(ctx, "Geocode cache hit", slog.String("query", hit.Query))
		info := s.resolver.Resolve(ctx, hit.Lat, hit.Lon)
		span.SetStatus(codes.Ok, "cache hit")
		return &types.GeocodeResult{
			Lat:        hit.Lat,
			Lng:        hit.Lon,
			Location:   info,
			Query:      hit.Query,
			Candidates: []types.GeocodeCandidate{{Query: hit.Query, Found: true, Lat: hit.Lat, Lon: hit.Lon, Info: &info}},
		}
	}

	variants := BuildVariants(normalized, postal)
	candidates := make([]types.GeocodeCandidate, 0, len(variants))
	for i, query := range variants {
		metrics.Get().GeocodeAttemptsTotal.Add(ctx, 1)
		l.DebugContext(ctx, "Trying address variant", slog.Int("attempt", i+1), slog.String("query", query))

		matches, err := s.client.Search(ctx, query)
		if err != nil {
			l.WarnContext(ctx, "Geocoder request failed", slog.String("query", query), slog.Any("error", err))
			span.RecordError(err)
		}
		if len(matches) > 0 {
			m := matches[0]
			info := s.resolver.Resolve(ctx, m.Lat, m.Lon)
			candidates = append(candidates, types.GeocodeCandidate{Query: query, Found: true, Lat: m.Lat, Lon: m.Lon, Info: &info})
			s.storeSearch(ctx, key, cachedSearch{Query: query, Lat: m.Lat, Lon: m.Lon})

			l.InfoContext(ctx, "Address geocoded",
				slog.String("query", query),
				slog.Float64("lat", m.Lat),
				slog.Float64("lon", m.Lon),
				slog.String("neighborhood", info.SuggestedNeighborhood))
			span.SetAttributes(attribute.Int("attempts", i+1))
			span.SetStatus(codes.Ok, "Address geocoded")
			return &types.GeocodeResult{
				Lat:        m.Lat,
				Lng:        m.Lon,
				Location:   info,
				Query:      query,
				Candidates: candidates,
			}
		}
		candidates = append(candidates, types.GeocodeCandidate{Query: query})

		if i < len(variants)-1 {
			if err := s.sleep(ctx, s.variantDelay); err != nil {
				l.WarnContext(ctx, "Geocode interrupted", slog.Any("error", err))
				span.SetStatus(codes.Error, "interrupted")
				return nil
			}
		}
	}

	metrics.Get().GeocodeMissesTotal.Add(ctx, 1)
	l.WarnContext(ctx, "No address variant matched", slog.String("address", normalized), slog.String("postal_code", postal))
	span.SetStatus(codes.Error, "no match")
	return nil
}

func (s *ServiceImpl) cachedSearch(ctx context.Context, key string) (cachedSearch, bool) {
	var hit cachedSearch
	if s.cache == nil {
		return hit, false
	}
	b, ok := s.cache.Get(ctx, key)
	if !ok {
		return hit, false
	}
	if err := json.Unmarshal(b, &hit); err != nil {
		s.logger.WarnContext(ctx, "Discarding corrupt cache entry", slog.String("key", key), slog.Any("error", err))
		return hit, false
	}
	return hit, true
}

func (s *ServiceImpl) storeSearch(ctx context.Context, key string, hit cachedSearch) {
	if s.cache == nil {
		return
	}
	b, err := json.Marshal(hit)
	if err != nil {
		return
	}
	s.cache.Set(ctx, key, b)
}

// reverseLookup returns nil when the lookup failed; failures are not cached.
func (s *ServiceImpl) reverseLookup(ctx context.Context, lat, lon float64) *types.ReverseLookup {
	if !types.ValidCoordinates(lat, lon) {
		return nil
	}
	key := reverseCacheKey(lat, lon)
	if s.cache != nil {
		if b, ok := s.cache.Get(ctx, key); ok {
			var lookup types.ReverseLookup
			if err := json.Unmarshal(b, &lookup); err == nil {
				return &lookup
			}
		}
	}

	lookup, err := s.client.Reverse(ctx, lat, lon)
	if err != nil {
		s.logger.WarnContext(ctx, "Reverse geocoding failed",
			slog.Float64("lat", lat), slog.Float64("lon", lon), slog.Any("error", err))
		return nil
	}
	if s.cache != nil {
		if b, err := json.Marshal(lookup); err == nil {
			s.cache.Set(ctx, key, b)
		}
	}
	return lookup
}

// ReverseGeocode returns a display string for a coordinate, falling back to
// the raw coordinate when nothing better is known.
func (s *ServiceImpl) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	ctx, span := otel.Tracer("GeocodingService").Start(ctx, "ReverseGeocode")
	defer span.End()
	return FormatReverse(s.reverseLookup(ctx, lat, lon), lat, lon)
}

func (s *ServiceImpl) ReverseAddress(ctx context.Context, lat, lon float64) types.ReverseAddress {
	ctx, span := otel.Tracer("GeocodingService").Start(ctx, "ReverseAddress")
	defer span.End()
	lookup := s.reverseLookup(ctx, lat, lon)
	return types.ReverseAddress{
		Location: FormatReverse(lookup, lat, lon),
		Quarter:  Quarter(lookup),
	}
}
