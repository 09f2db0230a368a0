package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/megannnn98/transport-catalogue/internal/api/models"
	"github.com/megannnn98/transport-catalogue/internal/api/response"
	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/requests"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// TransitHandlerConfig holds the collaborators of a TransitHandler.
type TransitHandlerConfig struct {
	// Catalogue answers stop and bus queries. Required.
	Catalogue *catalogue.Catalogue

	// Router answers journey queries. Without it /routes answers 503.
	Router *router.Router

	// Renderer draws the SVG map. Without it /map.svg answers 503.
	Renderer *mapview.Renderer

	// Logger for handler failures.
	Logger zerolog.Logger
}

// TransitHandler serves the catalogue, journey and map endpoints.
type TransitHandler struct {
	cat      *catalogue.Catalogue
	router   *router.Router
	renderer *mapview.Renderer
	stats    *requests.Handler
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewTransitHandler creates a new TransitHandler.
func NewTransitHandler(cfg TransitHandlerConfig) *TransitHandler {
	return &TransitHandler{
		cat:      cfg.Catalogue,
		router:   cfg.Router,
		renderer: cfg.Renderer,
		stats: requests.NewHandler(requests.HandlerConfig{
			Catalogue: cfg.Catalogue,
			Router:    cfg.Router,
			Renderer:  cfg.Renderer,
			Logger:    cfg.Logger,
		}),
		validate: validator.New(),
		logger:   cfg.Logger,
	}
}

// ListStops handles GET /v1/stops - all stops ordered by name.
func (h *TransitHandler) ListStops(w http.ResponseWriter, r *http.Request) {
	stops := h.cat.Stops()
	list := models.StopList{Items: make([]models.Stop, 0, len(stops)), Count: len(stops)}
	for _, stop := range stops {
		buses, err := h.cat.BusesAtStop(stop.Name)
		if err != nil {
			h.logger.Error().Err(err).Str("stop", stop.Name).Msg("failed to list buses at stop")
			response.InternalError(w, r, "failed to list stops")
			return
		}
		list.Items = append(list.Items, stopModel(stop, buses))
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetStop handles GET /v1/stops/{name}.
func (h *TransitHandler) GetStop(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	stop, ok := h.cat.Stop(name)
	if !ok {
		response.NotFound(w, r, "stop "+strconv.Quote(name)+" not found")
		return
	}
	buses, err := h.cat.BusesAtStop(name)
	if err != nil {
		response.NotFound(w, r, "stop "+strconv.Quote(name)+" not found")
		return
	}
	response.JSON(w, r, http.StatusOK, stopModel(stop, buses))
}

func stopModel(stop catalogue.Stop, buses []string) models.Stop {
	return models.Stop{
		Name: stop.Name,
		Coordinates: models.Coordinates{
			Lat: stop.Coordinates.Lat,
			Lng: stop.Coordinates.Lng,
		},
		Buses: buses,
	}
}

// ListBuses handles GET /v1/buses - all buses ordered by name with statistics.
func (h *TransitHandler) ListBuses(w http.ResponseWriter, r *http.Request) {
	buses := h.cat.Buses()
	list := models.BusList{Items: make([]models.Bus, 0, len(buses)), Count: len(buses)}
	for _, bus := range buses {
		item, err := h.busModel(bus)
		if err != nil {
			h.logger.Error().Err(err).Str("bus", bus.Name).Msg("failed to compute bus statistics")
			response.InternalError(w, r, "failed to list buses")
			return
		}
		list.Items = append(list.Items, item)
	}
	response.JSON(w, r, http.StatusOK, list)
}

// GetBus handles GET /v1/buses/{name}. The body includes the route geometry.
func (h *TransitHandler) GetBus(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	bus, ok := h.cat.Bus(name)
	if !ok {
		response.NotFound(w, r, "bus "+strconv.Quote(name)+" not found")
		return
	}
	item, err := h.busModel(bus)
	if err != nil {
		response.NotFound(w, r, "bus "+strconv.Quote(name)+" not found")
		return
	}
	item.Geometry = mapview.BusWKT(h.cat, bus)
	item.Polyline = mapview.BusPolyline(h.cat, bus)
	response.JSON(w, r, http.StatusOK, item)
}

func (h *TransitHandler) busModel(bus catalogue.Bus) (models.Bus, error) {
	stats, err := h.cat.BusStatistics(bus.Name)
	if err != nil {
		return models.Bus{}, err
	}
	return models.Bus{
		Name:            bus.Name,
		IsRoundTrip:     bus.IsRoundTrip,
		Stops:           h.cat.StopNames(bus.Stops),
		StopCount:       stats.StopCount,
		UniqueStopCount: stats.UniqueStopCount,
		RouteLength:     stats.RouteLength,
		Curvature:       stats.Curvature,
	}, nil
}

// FindRoute handles GET /v1/routes?from=&to= - the fastest journey between two stops.
func (h *TransitHandler) FindRoute(w http.ResponseWriter, r *http.Request) {
	query := models.RouteQuery{
		From: r.URL.Query().Get("from"),
		To:   r.URL.Query().Get("to"),
	}
	if err := h.validate.Struct(query); err != nil {
		response.BadRequest(w, r, "from and to are required", fieldErrors(err))
		return
	}
	if h.router == nil {
		response.ServiceUnavailable(w, r, "routing settings are not configured")
		return
	}
	for _, name := range []string{query.From, query.To} {
		if _, ok := h.cat.Stop(name); !ok {
			response.NotFound(w, r, "stop "+strconv.Quote(name)+" not found")
			return
		}
	}

	route, err := h.router.FindRoute(r.Context(), query.From, query.To)
	if errors.Is(err, router.ErrNoRoute) {
		response.NoRoute(w, r, "no route from "+strconv.Quote(query.From)+" to "+strconv.Quote(query.To))
		return
	}
	if err != nil {
		h.logger.Error().Err(err).
			Str("from", query.From).
			Str("to", query.To).
			Msg("failed to find route")
		response.InternalError(w, r, "failed to find route")
		return
	}

	response.JSON(w, r, http.StatusOK, models.Route{
		From:      query.From,
		To:        query.To,
		TotalTime: route.TotalTime,
		Items:     requests.RouteItems(route),
	})
}

// MapSVG handles GET /v1/map.svg.
func (h *TransitHandler) MapSVG(w http.ResponseWriter, r *http.Request) {
	if h.renderer == nil {
		response.ServiceUnavailable(w, r, "render settings are not configured")
		return
	}
	h.cat.Freeze()
	svg, err := h.renderer.RenderString(h.cat)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to render map")
		response.InternalError(w, r, "failed to render map")
		return
	}
	response.Raw(w, r, http.StatusOK, "image/svg+xml", []byte(svg))
}

// MapGeoJSON handles GET /v1/map.geojson.
func (h *TransitHandler) MapGeoJSON(w http.ResponseWriter, r *http.Request) {
	body, err := mapview.GeoJSON(h.cat)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to encode geojson")
		response.InternalError(w, r, "failed to encode map")
		return
	}
	response.Raw(w, r, http.StatusOK, "application/geo+json", body)
}

// ProcessRequests handles POST /v1/requests - a stat_requests document
// answered in the same form as the batch tool.
func (h *TransitHandler) ProcessRequests(w http.ResponseWriter, r *http.Request) {
	var body models.StatRequestsBody
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&body); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if err := h.validate.Struct(body); err != nil {
		response.BadRequest(w, r, "invalid stat_requests", fieldErrors(err))
		return
	}
	response.JSON(w, r, http.StatusOK, h.stats.Process(r.Context(), body.StatRequests))
}

// pathParam returns a decoded chi URL parameter.
func pathParam(r *http.Request, key string) string {
	raw := chi.URLParam(r, key)
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func fieldErrors(err error) []models.FieldError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}
	out := make([]models.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, models.FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: "failed on " + fe.Tag(),
			Code:    strings.ToUpper(fe.Tag()),
		})
	}
	return out
}
