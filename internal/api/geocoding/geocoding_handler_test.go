package geocoding

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

// MockGeocodingService is a mock implementation of Service
type MockGeocodingService struct {
	mock.Mock
}

func (m *MockGeocodingService) Geocode(ctx context.Context, address, arrondissementLabel string) *types.GeocodeResult {
	args := m.Called(ctx, address, arrondissementLabel)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*types.GeocodeResult)
}

func (m *MockGeocodingService) ReverseGeocode(ctx context.Context, lat, lon float64) string {
	args := m.Called(ctx, lat, lon)
	return args.String(0)
}

func (m *MockGeocodingService) ReverseAddress(ctx context.Context, lat, lon float64) types.ReverseAddress {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(types.ReverseAddress)
}

func TestGeocodeHandler(t *testing.T) {
	mockService := new(MockGeocodingService)
	handler := NewHandlerImpl(mockService, slog.Default())

	t.Run("Success", func(t *testing.T) {
		mockService.On("Geocode", mock.Anything, "8 Rue Lepic", "18th — Montmartre (Butte-Montmartre)").
			Return(&types.GeocodeResult{Lat: 48.8843, Lng: 2.3335, Location: types.LocationInfo{SuggestedNeighborhood: "Montmartre"}}).Once()

		body, _ := json.Marshal(map[string]string{"address": "8 Rue Lepic", "arrondissement": "18th — Montmartre (Butte-Montmartre)"})
		req := httptest.NewRequest(http.MethodPost, "/geocode", bytes.NewBuffer(body))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		handler.Geocode(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response types.GeocodeResult
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, 48.8843, response.Lat)
		assert.Equal(t, "Montmartre", response.Location.SuggestedNeighborhood)
		mockService.AssertExpectations(t)
	})

	t.Run("NotFound", func(t *testing.T) {
		mockService.On("Geocode", mock.Anything, "Rue Imaginaire", "").Return(nil).Once()

		req := httptest.NewRequest(http.MethodPost, "/geocode", bytes.NewBufferString(`{"address":"Rue Imaginaire"}`))
		w := httptest.NewRecorder()
		handler.Geocode(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("MissingAddress", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/geocode", bytes.NewBufferString(`{"address":"  "}`))
		w := httptest.NewRecorder()
		handler.Geocode(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("InvalidRequestBody", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/geocode", bytes.NewBufferString(`{"address":`))
		w := httptest.NewRecorder()
		handler.Geocode(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestReverseHandler(t *testing.T) {
	mockService := new(MockGeocodingService)
	handler := NewHandlerImpl(mockService, slog.Default())

	t.Run("Success", func(t *testing.T) {
		mockService.On("ReverseAddress", mock.Anything, 48.8867, 2.3431).
			Return(types.ReverseAddress{Location: "35 Rue Lepic", Quarter: "Montmartre"}).Once()

		req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=48.8867&lon=2.3431", nil)
		w := httptest.NewRecorder()
		handler.Reverse(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		var response types.ReverseAddress
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, "35 Rue Lepic", response.Location)
		assert.Equal(t, "Montmartre", response.Quarter)
	})

	t.Run("InvalidCoordinates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/geocode/reverse?lat=x", nil)
		w := httptest.NewRecorder()
		handler.Reverse(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
