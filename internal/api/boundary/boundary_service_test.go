package boundary

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// MockSource is a mock implementation of Source
type MockSource struct {
	mock.Mock
}

func (m *MockSource) Fetch(ctx context.Context) ([]byte, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("testdata/quartiers.geojson")
	require.NoError(t, err)
	return data
}

func setupBoundaryServiceTest(t *testing.T) (*ServiceImpl, *MockSource) {
	mockSource := new(MockSource)
	return NewServiceImpl(mockSource, testLogger()), mockSource
}

func TestParseDistricts(t *testing.T) {
	districts, rejected, err := ParseDistricts(loadFixture(t))
	require.NoError(t, err)

	require.Len(t, districts, 5)
	assert.Equal(t, "Saint-Germain-l'Auxerrois", districts[0].Name)
	assert.Equal(t, "1", districts[0].Code)
	assert.Equal(t, 1, districts[0].ArrondissementCode)
	assert.Equal(t, "Gros-Caillou", districts[3].Name)
	assert.Equal(t, 7, districts[3].ArrondissementCode, "string encoded c_ar")
	assert.Equal(t, "Unknown", districts[4].Name)

	require.Len(t, rejected, 3)
	assert.Equal(t, 3, rejected[0].Index)
	assert.Equal(t, "99", rejected[0].ID)
	assert.Contains(t, rejected[1].Reason, "unsupported geometry")
	assert.Contains(t, rejected[2].Reason, "not closed")

	t.Run("Not a FeatureCollection", func(t *testing.T) {
		_, _, err := ParseDistricts([]byte(`{"type":"Feature"}`))
		assert.ErrorIs(t, err, ErrNotFeatureCollection)
	})

	t.Run("Undecodable document", func(t *testing.T) {
		_, _, err := ParseDistricts([]byte(`<html>`))
		assert.Error(t, err)
	})
}

func TestFindDistrict(t *testing.T) {
	ctx := context.Background()
	service, mockSource := setupBoundaryServiceTest(t)
	mockSource.On("Fetch", mock.Anything).Return(loadFixture(t), nil).Once()

	t.Run("Point inside a polygon", func(t *testing.T) {
		d := service.FindDistrict(ctx, 48.8606, 2.3320)
		require.NotNil(t, d)
		assert.Equal(t, "Saint-Germain-l'Auxerrois", d.Name)
	})

	t.Run("Overlapping polygons resolve to the first in dataset order", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			d := service.FindDistrict(ctx, 48.860, 2.340)
			require.NotNil(t, d)
			assert.Equal(t, 1, d.ArrondissementCode)
		}
	})

	t.Run("Second part of a multipolygon", func(t *testing.T) {
		d := service.FindDistrict(ctx, 48.890, 2.365)
		require.NotNil(t, d)
		assert.Equal(t, "Clignancourt", d.Name)
		assert.Equal(t, 18, d.ArrondissementCode)
	})

	t.Run("Hole is outside the polygon", func(t *testing.T) {
		assert.Nil(t, service.FindDistrict(ctx, 48.850, 2.310))
		d := service.FindDistrict(ctx, 48.842, 2.302)
		require.NotNil(t, d)
		assert.Equal(t, "Gros-Caillou", d.Name)
	})

	t.Run("Point outside every district", func(t *testing.T) {
		assert.Nil(t, service.FindDistrict(ctx, 48.95, 2.50))
	})

	t.Run("Invalid coordinates", func(t *testing.T) {
		assert.Nil(t, service.FindDistrict(ctx, math.NaN(), 2.34))
		assert.Nil(t, service.FindDistrict(ctx, 48.86, math.Inf(1)))
		assert.Nil(t, service.FindDistrict(ctx, 91, 2.34))
	})

	assert.Len(t, service.Districts(ctx), 5)
	mockSource.AssertExpectations(t)
}

func TestIndexSurvivesBrokenGeometry(t *testing.T) {
	good := orb.Polygon{{{2.33, 48.85}, {2.35, 48.85}, {2.35, 48.87}, {2.33, 48.87}, {2.33, 48.85}}}
	idx := NewIndex([]types.District{
		{
			Name:               "Broken",
			ArrondissementCode: 2,
			Geometry:           orb.Polygon{},
			Bound:              orb.Bound{Min: orb.Point{2.0, 48.0}, Max: orb.Point{3.0, 49.0}},
		},
		{
			Name:               "Good",
			ArrondissementCode: 1,
			Geometry:           good,
			Bound:              good.Bound(),
		},
	}, testLogger())

	var d *types.District
	require.NotPanics(t, func() { d = idx.Find(48.86, 2.34) })
	require.NotNil(t, d)
	assert.Equal(t, "Good", d.Name)

	// Only the broken district covers this point.
	require.NotPanics(t, func() { d = idx.Find(48.5, 2.5) })
	assert.Nil(t, d)
}

func TestEnsureLoaded(t *testing.T) {
	ctx := context.Background()

	t.Run("Fetch failure disables lookups until retry", func(t *testing.T) {
		service, mockSource := setupBoundaryServiceTest(t)
		current := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		service.now = func() time.Time { return current }

		mockSource.On("Fetch", mock.Anything).Return(nil, errors.New("connection refused")).Once()

		err := service.EnsureLoaded(ctx)
		assert.ErrorIs(t, err, ErrIndexUnavailable)
		assert.Nil(t, service.FindDistrict(ctx, 48.8606, 2.3320))
		mockSource.AssertNumberOfCalls(t, "Fetch", 1)

		current = current.Add(2 * time.Minute)
		mockSource.On("Fetch", mock.Anything).Return(loadFixture(t), nil).Once()

		d := service.FindDistrict(ctx, 48.8606, 2.3320)
		require.NotNil(t, d)
		assert.Equal(t, 1, d.ArrondissementCode)
		mockSource.AssertNumberOfCalls(t, "Fetch", 2)
	})

	t.Run("Dataset without usable features counts as a failure", func(t *testing.T) {
		service, mockSource := setupBoundaryServiceTest(t)
		mockSource.On("Fetch", mock.Anything).Return([]byte(`{"type":"FeatureCollection","features":[]}`), nil).Once()

		assert.Error(t, service.EnsureLoaded(ctx))
		assert.Nil(t, service.Districts(ctx))
	})

	t.Run("Concurrent first callers share one fetch", func(t *testing.T) {
		var hits atomic.Int32
		fixture := loadFixture(t)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			assert.Equal(t, "MyParisianDoors/1.0", r.Header.Get("User-Agent"))
			time.Sleep(50 * time.Millisecond)
			w.Header().Set("Content-Type", "application/geo+json")
			_, _ = w.Write(fixture)
		}))
		defer server.Close()

		source := NewHTTPSource(server.URL, "MyParisianDoors/1.0", 5*time.Second, testLogger())
		service := NewServiceImpl(source, testLogger())

		var wg sync.WaitGroup
		results := make([]string, 16)
		for i := range results {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				if d := service.FindDistrict(ctx, 48.890, 2.345); d != nil {
					results[i] = d.Name
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, int32(1), hits.Load())
		for _, name := range results {
			assert.Equal(t, "Clignancourt", name)
		}
	})

	t.Run("Non-200 response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		service := NewServiceImpl(NewHTTPSource(server.URL, "", time.Second, testLogger()), testLogger())
		assert.ErrorIs(t, service.EnsureLoaded(ctx), ErrIndexUnavailable)
	})

	t.Run("Load survives a cancelled caller context", func(t *testing.T) {
		service, mockSource := setupBoundaryServiceTest(t)
		mockSource.On("Fetch", mock.MatchedBy(func(c context.Context) bool { return c.Err() == nil })).
			Return(loadFixture(t), nil).Once()

		cancelled, cancel := context.WithCancel(ctx)
		cancel()
		require.NoError(t, service.EnsureLoaded(cancelled))
		mockSource.AssertExpectations(t)
	})
}
