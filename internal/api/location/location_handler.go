package location

import (
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/go-parisian-doors/internal/api"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/arrondissement"
	"github.com/FACorreiaa/go-parisian-doors/internal/api/poi"
	"github.com/FACorreiaa/go-parisian-doors/internal/types"
)

type HandlerImpl struct {
	service Service
	pois    poi.Service
	logger  *slog.Logger
}

func NewHandlerImpl(service Service, pois poi.Service, logger *slog.Logger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		pois:    pois,
		logger:  logger,
	}
}

// Resolve godoc
// @Summary      Resolve Coordinates
// @Description  Suggests a neighborhood and arrondissement for a WGS84 point. Landmarks win the neighborhood name when the point is inside their radius; the containing quartier wins the arrondissement.
// @Tags         Location
// @Produce      json
// @Param        lat query number true "Latitude in decimal degrees"
// @Param        lon query number true "Longitude in decimal degrees"
// @Success      200 {object} types.ResolveResponse "Resolved location"
// @Failure      400 {object} types.Response "Invalid coordinates"
// @Router       /location/resolve [get]
func (h *HandlerImpl) Resolve(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "Resolve", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/location/resolve"),
	))
	defer span.End()

	l := h.logger.With(slog.String("handler", "Resolve"))

	lat, lon, err := api.QueryCoordinates(r)
	if err != nil {
		l.WarnContext(ctx, "Invalid coordinates", slog.String("query", r.URL.RawQuery))
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	info := h.service.Resolve(ctx, lat, lon)
	l.DebugContext(ctx, "Location resolved", slog.String("neighborhood", info.SuggestedNeighborhood))
	api.WriteJSONResponse(w, r, http.StatusOK, types.ResolveResponse{Lat: lat, Lon: lon, Location: info})
}

// FindDistrict godoc
// @Summary      Find Quartier
// @Description  Returns the administrative quartier whose polygon contains the point.
// @Tags         Location
// @Produce      json
// @Param        lat query number true "Latitude in decimal degrees"
// @Param        lon query number true "Longitude in decimal degrees"
// @Success      200 {object} types.District "Containing quartier"
// @Failure      400 {object} types.Response "Invalid coordinates"
// @Failure      404 {object} types.Response "No quartier contains the point"
// @Router       /location/district [get]
func (h *HandlerImpl) FindDistrict(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "FindDistrict", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/location/district"),
	))
	defer span.End()

	lat, lon, err := api.QueryCoordinates(r)
	if err != nil {
		api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
		return
	}

	d := h.service.FindDistrict(ctx, lat, lon)
	if d == nil {
		api.ErrorResponse(w, r, http.StatusNotFound, "No district contains this point")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, d)
}

// ListDistricts godoc
// @Summary      List Quartiers
// @Description  Lists the loaded quartiers in dataset order. Geometry is not included.
// @Tags         Location
// @Produce      json
// @Success      200 {array}  types.District "Quartiers"
// @Failure      503 {object} types.Response "Boundary dataset unavailable"
// @Router       /location/districts [get]
func (h *HandlerImpl) ListDistricts(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.Tracer("LocationHandler").Start(r.Context(), "ListDistricts", trace.WithAttributes(
		semconv.HTTPRequestMethodKey.String(r.Method),
		semconv.HTTPRouteKey.String("/api/v1/location/districts"),
	))
	defer span.End()

	districts := h.service.Districts(ctx)
	if len(districts) == 0 {
		// Districts is empty only while the dataset cannot be loaded; a later call retries.
		h.logger.WarnContext(ctx, "Boundary dataset unavailable", slog.String("handler", "ListDistricts"))
		api.ErrorResponse(w, r, http.StatusServiceUnavailable, "Boundary dataset unavailable")
		return
	}
	api.WriteJSONResponse(w, r, http.StatusOK, districts)
}

// ListArrondissements godoc
// @Summary      List Arrondissements
// @Description  Returns the 20 arrondissement labels, in code order.
// @Tags         Location
// @Produce      json
// @Success      200 {array} string "Arrondissement labels"
// @Router       /location/arrondissements [get]
func (h *HandlerImpl) ListArrondissements(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, arrondissement.Labels())
}

// ListPOIs godoc
// @Summary      List Landmarks
// @Description  Returns the landmark dataset used for neighborhood names.
// @Tags         Location
// @Produce      json
// @Success      200 {array} types.PointOfInterest "Landmarks"
// @Router       /location/pois [get]
func (h *HandlerImpl) ListPOIs(w http.ResponseWriter, r *http.Request) {
	api.WriteJSONResponse(w, r, http.StatusOK, h.pois.ListPOIs(r.Context()))
}
