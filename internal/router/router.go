package router

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
)

const tracerName = "github.com/megannnn98/transport-catalogue/internal/router"

// Config holds configuration for the router.
type Config struct {
	// Catalogue is the source of stops and buses. It is frozen by the first build.
	Catalogue *catalogue.Catalogue

	// Settings are the routing parameters. Required.
	Settings Settings

	// Logger for graph builds and queries.
	Logger zerolog.Logger

	// CacheTTL is how long to keep answered queries (default: 5 minutes).
	CacheTTL time.Duration

	// CleanupInterval is how often expired answers are purged (default: 10 minutes).
	CleanupInterval time.Duration
}

type state int

const (
	stateUnbuilt state = iota
	stateBuilt
)

// cachedRoute is a stored answer; found is false for a cached ErrNoRoute.
type cachedRoute struct {
	route Route
	found bool
}

// Router answers journey queries over a lazily built graph.
//
// The graph is built on the first query that needs it and never rebuilt.
type Router struct {
	cat      *catalogue.Catalogue
	settings Settings
	logger   zerolog.Logger
	cache    *cache.Cache
	metrics  *metrics
	tracer   trace.Tracer

	mu    sync.RWMutex
	state state
	graph *Graph
}

// New creates a router. It fails when the settings are missing or invalid.
func New(cfg Config) (*Router, error) {
	if cfg.Catalogue == nil {
		return nil, errors.New("router: catalogue is required")
	}
	if err := cfg.Settings.Validate(); err != nil {
		return nil, err
	}

	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 10 * time.Minute
	}

	m, err := newMetrics()
	if err != nil {
		return nil, fmt.Errorf("router metrics: %w", err)
	}

	return &Router{
		cat:      cfg.Catalogue,
		settings: cfg.Settings,
		logger:   cfg.Logger,
		cache:    cache.New(cacheTTL, cleanupInterval),
		metrics:  m,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Settings returns the routing parameters.
func (r *Router) Settings() Settings {
	return r.settings
}

// Built reports whether the graph has been built.
func (r *Router) Built() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state == stateBuilt
}

// Graph returns the routing graph, building it on first use. Concurrent first
// callers wait for a single build.
func (r *Router) Graph(ctx context.Context) (*Graph, error) {
	r.mu.RLock()
	if r.state == stateBuilt {
		g := r.graph
		r.mu.RUnlock()
		return g, nil
	}
	r.mu.RUnlock()

	return r.build(ctx)
}

func (r *Router) build(ctx context.Context) (*Graph, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Double-check: another caller may have finished the build.
	if r.state == stateBuilt {
		return r.graph, nil
	}

	_, span := r.tracer.Start(ctx, "router.BuildGraph")
	defer span.End()

	start := time.Now()
	g, err := Build(r.cat, r.settings)
	if err != nil {
		span.RecordError(err)
		r.logger.Error().Err(err).Msg("failed to build routing graph")
		return nil, err
	}
	elapsed := time.Since(start)
	r.metrics.recordBuild(ctx, elapsed)

	span.SetAttributes(
		attribute.Int("graph.vertices", g.VertexCount()),
		attribute.Int("graph.edges", g.EdgeCount()),
	)
	r.logger.Info().
		Int("vertices", g.VertexCount()).
		Int("edges", g.EdgeCount()).
		Int("bus_wait_time", r.settings.BusWaitTime).
		Float64("bus_velocity", r.settings.BusVelocity).
		Dur("duration", elapsed).
		Msg("routing graph built")

	r.graph = g
	r.state = stateBuilt
	return g, nil
}

// FindRoute returns the minimum-time journey between two stops.
//
// A journey from a known stop to itself has no legs and never touches the
// graph. Unknown stops, stops no bus visits, and disconnected stops all
// yield ErrNoRoute.
func (r *Router) FindRoute(ctx context.Context, from, to string) (Route, error) {
	ctx, span := r.tracer.Start(ctx, "router.FindRoute", trace.WithAttributes(
		attribute.String("route.from", from),
		attribute.String("route.to", to),
	))
	defer span.End()

	fromStop, ok := r.cat.Stop(from)
	if !ok {
		r.metrics.recordQuery(ctx, outcomeNoRoute)
		return Route{}, fmt.Errorf("stop %q: %w", from, ErrNoRoute)
	}
	toStop, ok := r.cat.Stop(to)
	if !ok {
		r.metrics.recordQuery(ctx, outcomeNoRoute)
		return Route{}, fmt.Errorf("stop %q: %w", to, ErrNoRoute)
	}
	if fromStop.ID == toStop.ID {
		r.metrics.recordQuery(ctx, outcomeSameStop)
		return Route{Legs: []Leg{}}, nil
	}

	key := cacheKey(fromStop.ID, toStop.ID)
	if v, ok := r.cache.Get(key); ok {
		cached := v.(cachedRoute)
		r.metrics.recordQuery(ctx, outcomeCached)
		r.logger.Debug().
			Str("from", from).
			Str("to", to).
			Msg("route cache hit")
		if !cached.found {
			return Route{}, ErrNoRoute
		}
		return copyRoute(cached.route), nil
	}

	g, err := r.Graph(ctx)
	if err != nil {
		return Route{}, err
	}

	route, err := g.ShortestPath(fromStop.ID, toStop.ID)
	switch {
	case errors.Is(err, ErrNoRoute):
		r.cache.Set(key, cachedRoute{}, cache.DefaultExpiration)
		r.metrics.recordQuery(ctx, outcomeNoRoute)
		return Route{}, ErrNoRoute
	case err != nil:
		span.RecordError(err)
		r.logger.Error().Err(err).
			Str("from", from).
			Str("to", to).
			Msg("failed to reconstruct route")
		return Route{}, err
	}

	r.cache.Set(key, cachedRoute{route: copyRoute(route), found: true}, cache.DefaultExpiration)
	r.metrics.recordQuery(ctx, outcomeFound)
	span.SetAttributes(attribute.Float64("route.total_time", route.TotalTime))
	return route, nil
}

// cacheKey formats a query key. Stop ids are stable for the life of the graph.
func cacheKey(from, to catalogue.StopID) string {
	return fmt.Sprintf("%d:%d", from, to)
}

func copyRoute(r Route) Route {
	legs := make([]Leg, len(r.Legs))
	copy(legs, r.Legs)
	return Route{Legs: legs, TotalTime: r.TotalTime}
}
