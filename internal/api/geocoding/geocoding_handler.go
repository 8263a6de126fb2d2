package geocoding

import (
	"log/slog"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-parisian-doors/internal/api"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
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

// Geocode godoc
// @Summary      Geocode Address
// @Description  Geocodes a Paris street address, trying progressively looser query variants until one matches.
// @Tags         Geocoding
// @Accept       json
// @Produce      json
// @Param        request body types.GeocodeRequest true "Address and optional arrondissement"
// @Success      200 {object} types.GeocodeResult "Coordinates"
// @Failure      400 {object} types.Response "Invalid request"
// @Failure      404 {object} types.Response "Address could not be located"
// @Router       /geocode [post]
func (h *HandlerImpl) Geocode(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GeocodingHandler").Start(r.Context(), "Geocode", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/geocode"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Geocode"))

	var req types.GeocodeRequest
	if err := api.DecodeJSONBody(w, r, &req); err != nil {
		l.WarnContext(ctx, "Failed to decode request body", slog.Any("error", err))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(req.Address) == "" {
		api.ErrorResponse(w, r, http.StatusBadRequest, "address is required")
		return
	}

	result := h.service.Geocode(ctx, req.Address, req.Arrondissement)
	if result == nil {
		l.InfoContext(ctx, "Address not found", slog.String("address", req.Address))
		api.ErrorResponse(w, r, http.StatusNotFound, "Address could not be located")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, result)
}

// Reverse godoc
// @Summary      Reverse Geocode
// @Description  Returns the street address and district for a point. Fields are empty when the provider has no answer.
// @Tags         Geocoding
// @Produce      json
// @Param        lat query number true "Latitude in decimal degrees"
// @Param        lon query number true "Longitude in decimal degrees"
// @Success      200 {object} types.ReverseAddress "Address"
// @Failure      400 {object} types.Response "Invalid coordinates"
// @Router       /geocode/reverse [get]
func (h *HandlerImpl) Reverse(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("GeocodingHandler").Start(r.Context(), "Reverse", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/geocode/reverse"),
	))
	defer span.End()

	lat, lon, err := api.QueryCoordinates(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	api.WriteJSONResponse(w, r, http.StatusOK, h.service.ReverseAddress(ctx, lat, lon))
}
