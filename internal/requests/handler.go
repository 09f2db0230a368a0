package requests

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

// HandlerConfig holds the collaborators of a Handler.
type HandlerConfig struct {
	// Catalogue answers Bus and Stop requests. Required.
	Catalogue *catalogue.Catalogue

	// Router answers Route requests. Without it Route requests fail.
	Router *router.Router

	// Renderer answers Map requests. Without it Map requests fail.
	Renderer *mapview.Renderer

	// Logger for request failures.
	Logger zerolog.Logger
}

// Handler answers stat requests.
type Handler struct {
	cat      *catalogue.Catalogue
	router   *router.Router
	renderer *mapview.Renderer
	logger   zerolog.Logger
}

// NewHandler creates a stat request handler.
func NewHandler(cfg HandlerConfig) *Handler {
	return &Handler{
		cat:      cfg.Catalogue,
		router:   cfg.Router,
		renderer: cfg.Renderer,
		logger:   cfg.Logger,
	}
}

// Process answers every request in order. Failures become error responses,
// so the result always has one entry per request.
func (h *Handler) Process(ctx context.Context, reqs []StatRequest) []Response {
	out := make([]Response, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, h.Answer(ctx, req))
	}
	return out
}

// Answer answers a single request.
func (h *Handler) Answer(ctx context.Context, req StatRequest) Response {
	switch req.Type {
	case TypeBus:
		return h.bus(req)
	case TypeStop:
		return h.stop(req)
	case TypeMap:
		return h.renderMap(req)
	case TypeRoute:
		return h.route(ctx, req)
	default:
		h.logger.Warn().
			Int("request_id", req.ID).
			Str("type", req.Type).
			Msg("unknown stat request type")
		return ErrorResponse{RequestID: req.ID, ErrorMessage: "unknown request type"}
	}
}

func (h *Handler) bus(req StatRequest) Response {
	stats, err := h.cat.BusStatistics(req.Name)
	if err != nil {
		return ErrorResponse{RequestID: req.ID, ErrorMessage: NotFound}
	}
	return BusResponse{
		RequestID:       req.ID,
		Curvature:       stats.Curvature,
		RouteLength:     stats.RouteLength,
		StopCount:       stats.StopCount,
		UniqueStopCount: stats.UniqueStopCount,
	}
}

func (h *Handler) stop(req StatRequest) Response {
	buses, err := h.cat.BusesAtStop(req.Name)
	if err != nil {
		return ErrorResponse{RequestID: req.ID, ErrorMessage: NotFound}
	}
	return StopResponse{RequestID: req.ID, Buses: buses}
}

func (h *Handler) renderMap(req StatRequest) Response {
	if h.renderer == nil {
		return ErrorResponse{RequestID: req.ID, ErrorMessage: "render settings are not configured"}
	}
	h.cat.Freeze()
	svg, err := h.renderer.RenderString(h.cat)
	if err != nil {
		h.logger.Error().Err(err).Int("request_id", req.ID).Msg("failed to render map")
		return ErrorResponse{RequestID: req.ID, ErrorMessage: "internal error"}
	}
	return MapResponse{RequestID: req.ID, Map: svg}
}

func (h *Handler) route(ctx context.Context, req StatRequest) Response {
	if h.router == nil {
		return ErrorResponse{RequestID: req.ID, ErrorMessage: "routing settings are not configured"}
	}
	route, err := h.router.FindRoute(ctx, req.From, req.To)
	if errors.Is(err, router.ErrNoRoute) {
		return ErrorResponse{RequestID: req.ID, ErrorMessage: NotFound}
	}
	if err != nil {
		h.logger.Error().Err(err).
			Int("request_id", req.ID).
			Str("from", req.From).
			Str("to", req.To).
			Msg("failed to find route")
		return ErrorResponse{RequestID: req.ID, ErrorMessage: "internal error"}
	}
	return RouteResponse{
		RequestID: req.ID,
		TotalTime: route.TotalTime,
		Items:     RouteItems(route),
	}
}

// RouteItems converts journey legs into document items.
func RouteItems(route router.Route) []RouteItem {
	items := make([]RouteItem, 0, len(route.Legs))
	for _, leg := range route.Legs {
		item := RouteItem{Type: leg.Kind.String(), Time: leg.Time}
		switch leg.Kind {
		case router.LegWait:
			item.StopName = leg.StopName
		case router.LegRide:
			item.Bus = leg.Bus
			item.SpanCount = leg.SpanCount
		}
		items = append(items, item)
	}
	return items
}
