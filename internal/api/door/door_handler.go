package door

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	appMiddleware "github.com/FACorreiaa/go-parisian-doors/app/middleware"
	"github.com/FACorreiaa/go-parisian-doors/internal/api"
)

type HandlerImpl struct {
	service Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

// GeocodeDoors godoc
// @Summary      Backfill Door Coordinates
// @Description  Geocodes every door without coordinates and stores the result. A summary is returned even when the run stops early.
// @Tags         Admin
// @Produce      json
// @Success      200 {object} types.MigrationSummary "Per-door outcomes"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      500 {object} types.Response "Failed to geocode doors"
// @Security     BearerAuth
// @Router       /admin/doors/geocode [post]
func (h *HandlerImpl) GeocodeDoors(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DoorHandler").Start(r.Context(), "GeocodeDoors", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/doors/geocode"),
	))
	defer span.End()

	userID, _ := appMiddleware.GetUserIDFromContext(ctx)
	l := h.logger.With(slog.String("handler", "GeocodeDoors"), slog.String("user_id", userID))
	l.InfoContext(ctx, "Coordinate backfill requested")

	summary, err := h.service.GeocodeMissingCoordinates(ctx)
	if err != nil && len(summary.Outcomes) == 0 {
		l.ErrorContext(ctx, "Coordinate backfill failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to geocode doors")
		return
	}
	if err != nil {
		l.WarnContext(ctx, "Coordinate backfill stopped early", slog.Any("error", err))
	}
	api.WriteJSONResponse(w, r, http.StatusOK, summary)
}

// RefreshNeighborhoods godoc
// @Summary      Refresh Door Neighborhoods
// @Description  Recomputes neighborhood and arrondissement for every located door.
// @Tags         Admin
// @Produce      json
// @Success      200 {object} types.MigrationSummary "Per-door outcomes"
// @Failure      401 {object} types.Response "Unauthorized"
// @Failure      403 {object} types.Response "Forbidden"
// @Failure      500 {object} types.Response "Failed to refresh neighborhoods"
// @Security     BearerAuth
// @Router       /admin/doors/neighborhoods [post]
func (h *HandlerImpl) RefreshNeighborhoods(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("DoorHandler").Start(r.Context(), "RefreshNeighborhoods", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/admin/doors/neighborhoods"),
	))
	defer span.End()

	userID, _ := appMiddleware.GetUserIDFromContext(ctx)
	l := h.logger.With(slog.String("handler", "RefreshNeighborhoods"), slog.String("user_id", userID))
	l.InfoContext(ctx, "Neighborhood refresh requested")

	summary, err := h.service.RefreshNeighborhoods(ctx)
	if err != nil && len(summary.Outcomes) == 0 {
		l.ErrorContext(ctx, "Neighborhood refresh failed", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusInternalServerError, "Failed to refresh neighborhoods")
		return
	}
	if err != nil {
		l.WarnContext(ctx, "Neighborhood refresh stopped early", slog.Any("error", err))
	}
	api.WriteJSONResponse(w, r, http.StatusOK, summary)
}
