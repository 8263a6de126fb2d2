package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "MyParisianDoors/1.0"

	maxResponseBytes = 1 << 20
)

var ErrUpstreamStatus = errors.New("geocoder returned an unexpected status")

var _ Client = (*NominatimClient)(nil)

// Client is the external geocoding provider.
type Client interface {
	Search(ctx context.Context, query string) ([]types.GeocodeMatch, error)
	Reverse(ctx context.Context, lat, lon float64) (*types.ReverseLookup, error)
}

type ClientConfig struct {
	BaseURL           string
	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	BreakerFailures   uint32
	BreakerTimeout    time.Duration
}

// NominatimClient talks to an OSM Nominatim instance. All calls share one
// rate limiter so the public usage policy holds across goroutines.
type NominatimClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	logger    *slog.Logger
}

func NewNominatimClient(cfg ClientConfig, logger *slog.Logger) *NominatimClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = 5
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = 30 * time.Second
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	c := &NominatimClient{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		userAgent: cfg.UserAgent,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(limit, 1),
		logger:    logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "nominatim",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Geocoder circuit breaker state changed",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return c
}

type searchHit struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// Search runs a forward lookup limited to one result. Hits whose coordinates
// do not parse are dropped.
func (c *NominatimClient) Search(ctx context.Context, query string) ([]types.GeocodeMatch, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("q", query)
	params.Set("limit", "1")

	body, err := c.get(ctx, "search", params)
	if err != nil {
		return nil, err
	}

	var hits []searchHit
	if err := json.Unmarshal(body, &hits); err != nil {
		return nil, fmt.Errorf("failed to decode search response: %w", err)
	}

	matches := make([]types.GeocodeMatch, 0, len(hits))
	for _, h := range hits {
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(h.Lat), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(h.Lon), 64)
		if errLat != nil || errLon != nil || !types.ValidCoordinates(lat, lon) {
			c.logger.WarnContext(ctx, "Ignoring search hit with unusable coordinates",
				slog.String("lat", h.Lat), slog.String("lon", h.Lon))
			continue
		}
		matches = append(matches, types.GeocodeMatch{Lat: lat, Lon: lon, DisplayName: h.DisplayName})
	}
	return matches, nil
}

type reverseResponse struct {
	Error       string `json:"error"`
	DisplayName string `json:"display_name"`
	Address     struct {
		HouseNumber   string `json:"house_number"`
		Road          string `json:"road"`
		Street        string `json:"street"`
		Pedestrian    string `json:"pedestrian"`
		Postcode      string `json:"postcode"`
		Quarter       string `json:"quarter"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		District      string `json:"district"`
		CityDistrict  string `json:"city_district"`
	} `json:"address"`
}

func (c *NominatimClient) Reverse(ctx context.Context, lat, lon float64) (*types.ReverseLookup, error) {
	params := url.Values{}
	params.Set("format", "json")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	params.Set("zoom", "18")
	params.Set("addressdetails", "1")

	body, err := c.get(ctx, "reverse", params)
	if err != nil {
		return nil, err
	}

	var resp reverseResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode reverse response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("reverse lookup failed: %s", resp.Error)
	}

	road := firstNonEmpty(resp.Address.Road, resp.Address.Street, resp.Address.Pedestrian)
	return &types.ReverseLookup{
		HouseNumber:   resp.Address.HouseNumber,
		Road:          road,
		Postcode:      resp.Address.Postcode,
		Quarter:       resp.Address.Quarter,
		Suburb:        resp.Address.Suburb,
		Neighbourhood: resp.Address.Neighbourhood,
		District:      firstNonEmpty(resp.Address.District, resp.Address.CityDistrict),
		DisplayName:   resp.DisplayName,
	}, nil
}

func (c *NominatimClient) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	start := time.Now()
	attrs := metric.WithAttributes(attribute.String("endpoint", endpoint))
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.do(ctx, endpoint, params)
	})
	metrics.Get().ExternalRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	if err != nil {
		metrics.Get().ExternalRequestErrorsTotal.Add(ctx, 1, attrs)
		return nil, err
	}
	return body, nil
}

func (c *NominatimClient) do(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	reqURL := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s request: %w", endpoint, err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s %d", ErrUpstreamStatus, endpoint, resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", endpoint, err)
	}
	return body, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
