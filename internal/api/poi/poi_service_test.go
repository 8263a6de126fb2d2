package poi

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// MockPOIRepository is a mock implementation of Repository
type MockPOIRepository struct {
	mock.Mock
}

func (m *MockPOIRepository) LoadPOIs(ctx context.Context) ([]types.PointOfInterest, []types.RecordError, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	var rejected []types.RecordError
	if args.Get(1) != nil {
		rejected = args.Get(1).([]types.RecordError)
	}
	return args.Get(0).([]types.PointOfInterest), rejected, args.Error(2)
}

func setupPOIServiceTest() (*ServiceImpl, *MockPOIRepository) {
	mockRepo := new(MockPOIRepository)
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewServiceImpl(mockRepo, logger), mockRepo
}

var origin = orb.Point{2.3522, 48.8566}

// poiAt places a POI at distance meters from origin along bearing.
func poiAt(name string, bearing, distance, radius, score float64) types.PointOfInterest {
	p := geo.PointAtBearingAndDistance(origin, bearing, distance)
	return types.PointOfInterest{Name: name, Lat: p.Lat(), Lon: p.Lon(), RadiusM: radius, Score: score, Arr: 4}
}

func TestFindNearest(t *testing.T) {
	ctx := context.Background()

	t.Run("Empty dataset yields no match", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		mockRepo.On("LoadPOIs", mock.Anything).Return([]types.PointOfInterest{}, nil, nil).Once()

		match := service.FindNearest(ctx, origin.Lat(), origin.Lon())
		assert.Nil(t, match.POI)
		assert.Nil(t, match.Distance)
		mockRepo.AssertExpectations(t)
	})

	t.Run("Weighted distance prefers higher score inside radius", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		pois := []types.PointOfInterest{
			poiAt("A", 0, 150, 200, 1),
			poiAt("B", 180, 900, 1000, 10),
		}
		mockRepo.On("LoadPOIs", mock.Anything).Return(pois, nil, nil).Once()

		match := service.FindNearest(ctx, origin.Lat(), origin.Lon())
		require.NotNil(t, match.POI)
		assert.Equal(t, "B", match.POI.Name)
		assert.InDelta(t, 900, *match.Distance, 1)
		assert.True(t, match.WithinRadius())
	})

	t.Run("Closer POI wins when its weight is lower", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		pois := []types.PointOfInterest{
			poiAt("A", 0, 150, 200, 1),
			poiAt("B", 180, 900, 1000, 5),
		}
		mockRepo.On("LoadPOIs", mock.Anything).Return(pois, nil, nil).Once()

		match := service.FindNearest(ctx, origin.Lat(), origin.Lon())
		require.NotNil(t, match.POI)
		assert.Equal(t, "A", match.POI.Name)
	})

	t.Run("Falls back to absolute nearest outside every radius", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		pois := []types.PointOfInterest{
			poiAt("Far but famous", 90, 800, 100, 100),
			poiAt("Near", 270, 500, 100, 1),
		}
		mockRepo.On("LoadPOIs", mock.Anything).Return(pois, nil, nil).Once()

		match := service.FindNearest(ctx, origin.Lat(), origin.Lon())
		require.NotNil(t, match.POI)
		assert.Equal(t, "Near", match.POI.Name)
		assert.InDelta(t, 500, *match.Distance, 1)
		assert.False(t, match.WithinRadius())
	})

	t.Run("Exact tie keeps dataset order", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		first := poiAt("First", 45, 100, 300, 2)
		second := first
		second.Name = "Second"
		mockRepo.On("LoadPOIs", mock.Anything).Return([]types.PointOfInterest{first, second}, nil, nil).Once()

		match := service.FindNearest(ctx, origin.Lat(), origin.Lon())
		require.NotNil(t, match.POI)
		assert.Equal(t, "First", match.POI.Name)
	})

	t.Run("Invalid coordinates yield no match", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		mockRepo.On("LoadPOIs", mock.Anything).Return([]types.PointOfInterest{poiAt("A", 0, 10, 100, 1)}, nil, nil).Once()

		assert.Nil(t, service.FindNearest(ctx, math.NaN(), 2.35).POI)
		assert.Nil(t, service.FindNearest(ctx, 48.85, 200).POI)
	})

	t.Run("Repository failure degrades to empty index and loads once", func(t *testing.T) {
		service, mockRepo := setupPOIServiceTest()
		mockRepo.On("LoadPOIs", mock.Anything).Return(nil, nil, errors.New("boom")).Once()

		assert.Nil(t, service.FindNearest(ctx, origin.Lat(), origin.Lon()).POI)
		assert.Nil(t, service.FindNearest(ctx, origin.Lat(), origin.Lon()).POI)
		assert.Empty(t, service.ListPOIs(ctx))
		mockRepo.AssertNumberOfCalls(t, "LoadPOIs", 1)
	})
}

func TestEmbeddedDataset(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	service := NewServiceImpl(NewEmbeddedRepository(logger), logger)
	ctx := context.Background()

	pois := service.ListPOIs(ctx)
	require.NotEmpty(t, pois)

	t.Run("Louvre courtyard resolves to the Louvre", func(t *testing.T) {
		match := service.FindNearest(ctx, 48.8606, 2.3376)
		require.NotNil(t, match.POI)
		assert.Equal(t, "Louvre", match.POI.Name)
		assert.Equal(t, 1, match.POI.Arr)
		assert.InDelta(t, 0, *match.Distance, 0.5)
	})

	t.Run("Point outside the city still gets the nearest POI", func(t *testing.T) {
		match := service.FindNearest(ctx, 48.95, 2.25)
		require.NotNil(t, match.POI)
		assert.False(t, match.WithinRadius())
	})
}

func TestParseDataset(t *testing.T) {
	doc := `{"pois": [
		{"name": "Valid", "lat": 48.86, "lon": 2.33, "radius_m": 100, "score": 1, "arr": 1},
		{"name": "", "lat": 48.86, "lon": 2.33, "radius_m": 100, "score": 1, "arr": 1},
		{"name": "No radius", "lat": 48.86, "lon": 2.33, "score": 1, "arr": 1},
		{"name": "Zero score", "lat": 48.86, "lon": 2.33, "radius_m": 100, "score": 0, "arr": 1},
		{"name": "Bad arr", "lat": 48.86, "lon": 2.33, "radius_m": 100, "score": 1, "arr": 21},
		{"name": "Bad lat", "lat": 148.86, "lon": 2.33, "radius_m": 100, "score": 1, "arr": 1},
		{"name": 42}
	]}`

	pois, rejected, err := ParseDataset(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, pois, 1)
	assert.Equal(t, "Valid", pois[0].Name)
	require.Len(t, rejected, 6)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Equal(t, "missing name", rejected[0].Reason)
	assert.Equal(t, "No radius", rejected[1].ID)
	assert.Equal(t, 6, rejected[5].Index)

	t.Run("Undecodable document", func(t *testing.T) {
		_, _, err := ParseDataset(strings.NewReader("not json"))
		assert.Error(t, err)
	})
}
