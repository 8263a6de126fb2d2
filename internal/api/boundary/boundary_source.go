package boundary

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// DefaultSourceURL is the Paris open-data export of the 80 administrative quartiers.
const DefaultSourceURL = "https://opendata.paris.fr/api/records/1.0/download/?dataset=quartier_paris&format=geojson"

// maxDatasetBytes caps the downloaded document.
const maxDatasetBytes = 32 << 20

var _ Source = (*HTTPSource)(nil)

// Source fetches the raw GeoJSON FeatureCollection.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
}

type HTTPSource struct {
	url       string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

func NewHTTPSource(url, userAgent string, timeout time.Duration, logger *slog.Logger) *HTTPSource {
	if url == "" {
		url = DefaultSourceURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		url:       url,
		userAgent: userAgent,
		client:    &http.Client{Timeout: timeout},
		logger:    logger,
	}
}

func (s *HTTPSource) Fetch(ctx context.Context) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build boundary request: %w", err)
	}
	req.Header.Set("Accept", "application/geo+json, application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch boundary dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("boundary dataset returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDatasetBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read boundary dataset: %w", err)
	}
	s.logger.DebugContext(ctx, "Boundary dataset downloaded",
		slog.Int("bytes", len(body)),
		slog.Duration("elapsed", time.Since(start)))
	return body, nil
}
