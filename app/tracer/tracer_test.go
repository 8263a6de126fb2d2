package tracer

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-parisian-doors/app/observability/metrics"
)

func TestInitTracingAndMetrics(t *testing.T) {
	providers, err := InitTracingAndMetrics()
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics.Get().GeocodeRequestsTotal.Add(context.Background(), 1)

	w := httptest.NewRecorder()
	providers.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "geocode_requests_total")
}
