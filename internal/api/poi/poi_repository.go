package poi

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/FACorreiaa/go-parisian-doors/internal/api/arrondissement"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

//go:embed data/paris_pois.json
var embeddedPOIs []byte

var _ Repository = (*EmbeddedRepository)(nil)

// Repository supplies the POI dataset.
type Repository interface {
	LoadPOIs(ctx context.Context) ([]types.PointOfInterest, []types.RecordError, error)
}

// EmbeddedRepository serves the POI list bundled with the binary.
type EmbeddedRepository struct {
	logger *slog.Logger
	data   []byte
}

func NewEmbeddedRepository(logger *slog.Logger) *EmbeddedRepository {
	return &EmbeddedRepository{
		logger: logger,
		data:   embeddedPOIs,
	}
}

// NewRepositoryFromBytes is used for alternative or test datasets.
func NewRepositoryFromBytes(data []byte, logger *slog.Logger) *EmbeddedRepository {
	return &EmbeddedRepository{
		logger: logger,
		data:   data,
	}
}

func (r *EmbeddedRepository) LoadPOIs(ctx context.Context) ([]types.PointOfInterest, []types.RecordError, error) {
	pois, rejected, err := ParseDataset(bytes.NewReader(r.data))
	if err != nil {
		return nil, nil, err
	}
	for _, rec := range rejected {
		r.logger.WarnContext(ctx, "Skipping invalid POI record",
			slog.Int("index", rec.Index),
			slog.String("name", rec.ID),
			slog.String("reason", rec.Reason))
	}
	return pois, rejected, nil
}

type poiDocument struct {
	POIs []json.RawMessage `json:"pois"`
}

type rawPOI struct {
	Name    string   `json:"name"`
	Lat     *float64 `json:"lat"`
	Lon     *float64 `json:"lon"`
	RadiusM *float64 `json:"radius_m"`
	Score   *float64 `json:"score"`
	Arr     *int     `json:"arr"`
}

// ParseDataset decodes a {"pois": [...]} document. A malformed entry is
// reported as a RecordError and skipped; only an undecodable document fails.
func ParseDataset(r io.Reader) ([]types.PointOfInterest, []types.RecordError, error) {
	var doc poiDocument
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode POI dataset: %w", err)
	}

	pois := make([]types.PointOfInterest, 0, len(doc.POIs))
	var rejected []types.RecordError
	for i, msg := range doc.POIs {
		var raw rawPOI
		if err := json.Unmarshal(msg, &raw); err != nil {
			rejected = append(rejected, types.RecordError{Index: i, Reason: err.Error()})
			continue
		}
		p, reason := validatePOI(raw)
		if reason != "" {
			rejected = append(rejected, types.RecordError{Index: i, ID: raw.Name, Reason: reason})
			continue
		}
		pois = append(pois, p)
	}
	return pois, rejected, nil
}

func validatePOI(raw rawPOI) (types.PointOfInterest, string) {
	switch {
	case strings.TrimSpace(raw.Name) == "":
		return types.PointOfInterest{}, "missing name"
	case raw.Lat == nil || raw.Lon == nil:
		return types.PointOfInterest{}, "missing coordinates"
	case !types.ValidCoordinates(*raw.Lat, *raw.Lon):
		return types.PointOfInterest{}, "coordinates out of range"
	case raw.RadiusM == nil || *raw.RadiusM <= 0:
		return types.PointOfInterest{}, "radius_m must be positive"
	case raw.Score == nil || *raw.Score <= 0:
		return types.PointOfInterest{}, "score must be positive"
	case raw.Arr == nil || !arrondissement.ValidCode(*raw.Arr):
		return types.PointOfInterest{}, "arr must be between 1 and 20"
	}
	return types.PointOfInterest{
		Name:    raw.Name,
		Lat:     *raw.Lat,
		Lon:     *raw.Lon,
		RadiusM: *raw.RadiusM,
		Score:   *raw.Score,
		Arr:     *raw.Arr,
	}, ""
}
