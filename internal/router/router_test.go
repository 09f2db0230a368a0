package router_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/geo"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

type busDef struct {
	name      string
	stops     []string
	roundTrip bool
}

type distanceDef struct {
	from, to string
	meters   int
}

func buildCatalogue(t *testing.T, stops map[string]geo.Coordinates, distances []distanceDef, buses []busDef) *catalogue.Catalogue {
	t.Helper()
	cat := catalogue.New(catalogue.Config{})
	for _, name := range []string{"A", "B", "C", "D", "E"} {
		coords, ok := stops[name]
		if !ok {
			continue
		}
		_, err := cat.AddStop(name, coords)
		require.NoError(t, err)
	}
	for _, d := range distances {
		require.NoError(t, cat.SetDistance(d.from, d.to, d.meters))
	}
	for _, b := range buses {
		_, err := cat.AddBus(b.name, b.stops, b.roundTrip)
		require.NoError(t, err)
	}
	return cat
}

func lineStops(names ...string) map[string]geo.Coordinates {
	out := make(map[string]geo.Coordinates, len(names))
	for i, name := range names {
		out[name] = geo.Coordinates{Lat: 0, Lng: float64(i)}
	}
	return out
}

func newRouter(t *testing.T, cat *catalogue.Catalogue, wait int, velocity float64) *router.Router {
	t.Helper()
	r, err := router.New(router.Config{
		Catalogue: cat,
		Settings:  router.Settings{BusWaitTime: wait, BusVelocity: velocity},
	})
	require.NoError(t, err)
	return r
}

func TestRouter_FindRoute_RoundTrip(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B"),
		[]distanceDef{{"A", "B", 1000}},
		[]busDef{{"1", []string{"A", "B", "A"}, true}},
	)
	r := newRouter(t, cat, 5, 30)

	route, err := r.FindRoute(context.Background(), "A", "B")
	require.NoError(t, err)

	require.Len(t, route.Legs, 2)
	assert.Equal(t, router.Leg{Kind: router.LegWait, StopName: "A", Time: 5}, route.Legs[0])
	assert.Equal(t, router.LegRide, route.Legs[1].Kind)
	assert.Equal(t, "1", route.Legs[1].Bus)
	assert.Equal(t, 1, route.Legs[1].SpanCount)
	assert.InDelta(t, 2.0, route.Legs[1].Time, 1e-9)
	assert.InDelta(t, 7.0, route.TotalTime, 1e-9)
}

func TestRouter_FindRoute_ThereAndBackUsesReverseDistance(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B"),
		[]distanceDef{{"A", "B", 1000}},
		[]busDef{{"1", []string{"A", "B"}, false}},
	)
	r := newRouter(t, cat, 5, 30)

	route, err := r.FindRoute(context.Background(), "B", "A")
	require.NoError(t, err)

	require.Len(t, route.Legs, 2)
	assert.Equal(t, "B", route.Legs[0].StopName)
	assert.Equal(t, "1", route.Legs[1].Bus)
	assert.InDelta(t, 7.0, route.TotalTime, 1e-9)
}

func TestRouter_FindRoute_RidesPastIntermediateStops(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B", "C"),
		[]distanceDef{{"A", "B", 1000}, {"B", "C", 2000}},
		[]busDef{{"1", []string{"A", "B", "C"}, false}},
	)
	r := newRouter(t, cat, 6, 60)

	route, err := r.FindRoute(context.Background(), "A", "C")
	require.NoError(t, err)

	require.Len(t, route.Legs, 2)
	assert.Equal(t, router.LegWait, route.Legs[0].Kind)
	assert.Equal(t, router.LegRide, route.Legs[1].Kind)
	assert.Equal(t, 2, route.Legs[1].SpanCount)
	assert.InDelta(t, 3.0, route.Legs[1].Time, 1e-9)
	assert.InDelta(t, 9.0, route.TotalTime, 1e-9)
}

func TestRouter_FindRoute_Transfer(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B", "C"),
		[]distanceDef{{"A", "B", 1000}, {"B", "C", 2000}},
		[]busDef{
			{"1", []string{"A", "B"}, false},
			{"2", []string{"B", "C"}, false},
		},
	)
	r := newRouter(t, cat, 6, 60)

	route, err := r.FindRoute(context.Background(), "A", "C")
	require.NoError(t, err)

	require.Len(t, route.Legs, 4)
	assert.Equal(t, "A", route.Legs[0].StopName)
	assert.Equal(t, "1", route.Legs[1].Bus)
	assert.Equal(t, "B", route.Legs[2].StopName)
	assert.Equal(t, "2", route.Legs[3].Bus)
	assert.InDelta(t, 15.0, route.TotalTime, 1e-9)

	sum := 0.0
	for _, leg := range route.Legs {
		sum += leg.Time
	}
	assert.InDelta(t, route.TotalTime, sum, 1e-9)
}

func TestRouter_FindRoute_SameStopSkipsGraph(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B", "C"),
		nil,
		[]busDef{{"1", []string{"A", "B"}, false}},
	)
	r := newRouter(t, cat, 5, 30)

	for _, stop := range []string{"A", "C"} {
		route, err := r.FindRoute(context.Background(), stop, stop)
		require.NoError(t, err)
		assert.NotNil(t, route.Legs)
		assert.Empty(t, route.Legs)
		assert.Zero(t, route.TotalTime)
	}
	assert.False(t, r.Built())
}

func TestRouter_FindRoute_NoRoute(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B", "C", "D", "E"),
		nil,
		[]busDef{
			{"1", []string{"A", "B"}, false},
			{"2", []string{"C", "D"}, false},
		},
	)
	r := newRouter(t, cat, 5, 30)

	tests := []struct {
		name     string
		from, to string
	}{
		{"unvisited target", "A", "E"},
		{"unvisited source", "E", "A"},
		{"unknown stop", "A", "Nowhere"},
		{"disconnected", "A", "D"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.FindRoute(context.Background(), tt.from, tt.to)
			assert.ErrorIs(t, err, router.ErrNoRoute)
		})
	}

	// cached negative answers stay negative
	_, err := r.FindRoute(context.Background(), "A", "D")
	assert.ErrorIs(t, err, router.ErrNoRoute)
}

func TestRouter_FindRoute_EmptyGraph(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B"), nil, nil)
	r := newRouter(t, cat, 5, 30)

	_, err := r.FindRoute(context.Background(), "A", "B")
	assert.ErrorIs(t, err, router.ErrNoRoute)

	g, err := r.Graph(context.Background())
	require.NoError(t, err)
	assert.Zero(t, g.VertexCount())
	assert.Zero(t, g.EdgeCount())
}

func TestRouter_BuildFreezesCatalogue(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B"),
		nil,
		[]busDef{{"1", []string{"A", "B"}, false}},
	)
	r := newRouter(t, cat, 5, 30)

	_, err := r.FindRoute(context.Background(), "A", "B")
	require.NoError(t, err)
	assert.True(t, r.Built())

	_, err = cat.AddStop("C", geo.Coordinates{})
	assert.ErrorIs(t, err, catalogue.ErrFrozen)
}

func TestRouter_CachedRouteIsCopied(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B"),
		[]distanceDef{{"A", "B", 1000}},
		[]busDef{{"1", []string{"A", "B"}, false}},
	)
	r := newRouter(t, cat, 5, 30)

	first, err := r.FindRoute(context.Background(), "A", "B")
	require.NoError(t, err)
	first.Legs[0].StopName = "mutated"

	second, err := r.FindRoute(context.Background(), "A", "B")
	require.NoError(t, err)
	assert.Equal(t, "A", second.Legs[0].StopName)
	assert.InDelta(t, 7.0, second.TotalTime, 1e-9)
}

func TestRouter_ConcurrentFirstQueriesBuildOnce(t *testing.T) {
	cat := buildCatalogue(t, lineStops("A", "B", "C"),
		[]distanceDef{{"A", "B", 1000}, {"B", "C", 2000}},
		[]busDef{{"1", []string{"A", "B", "C"}, false}},
	)
	r := newRouter(t, cat, 6, 60)

	const workers = 32
	graphs := make([]*router.Graph, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			route, err := r.FindRoute(context.Background(), "A", "C")
			assert.NoError(t, err)
			assert.InDelta(t, 9.0, route.TotalTime, 1e-9)
			g, err := r.Graph(context.Background())
			assert.NoError(t, err)
			graphs[i] = g
		}(i)
	}
	wg.Wait()

	for _, g := range graphs {
		assert.Same(t, graphs[0], g)
	}
}

func TestRouter_New_RejectsInvalidSettings(t *testing.T) {
	cat := catalogue.New(catalogue.Config{})
	tests := []struct {
		name     string
		settings router.Settings
	}{
		{"missing", router.Settings{}},
		{"missing velocity", router.Settings{BusWaitTime: 5}},
		{"missing wait", router.Settings{BusVelocity: 30}},
		{"negative velocity", router.Settings{BusWaitTime: 5, BusVelocity: -1}},
		{"wait out of range", router.Settings{BusWaitTime: 1001, BusVelocity: 30}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := router.New(router.Config{Catalogue: cat, Settings: tt.settings})
			assert.ErrorIs(t, err, router.ErrInvalidSettings)
		})
	}
}

func TestBuild_Idempotent(t *testing.T) {
	stops := map[string]geo.Coordinates{
		"A": {Lat: 55.611087, Lng: 37.20829},
		"B": {Lat: 55.595884, Lng: 37.209755},
		"C": {Lat: 55.632761, Lng: 37.333324},
		"D": {Lat: 55.574371, Lng: 37.6517},
		"E": {Lat: 55.581065, Lng: 37.64839},
	}
	cat := buildCatalogue(t, stops,
		[]distanceDef{{"A", "B", 3900}, {"B", "C", 9900}, {"C", "B", 10000}, {"D", "E", 1800}},
		[]busDef{
			{"256", []string{"A", "B", "C", "A"}, true},
			{"750", []string{"C", "D", "E"}, false},
			{"828", []string{"B", "E"}, false},
		},
	)
	settings := router.Settings{BusWaitTime: 6, BusVelocity: 40}

	first, err := router.Build(cat, settings)
	require.NoError(t, err)
	second, err := router.Build(cat, settings)
	require.NoError(t, err)

	assert.Equal(t, first.VertexCount(), second.VertexCount())
	assert.Equal(t, first.EdgeCount(), second.EdgeCount())
	assert.Equal(t, 10, first.VertexCount())

	for _, from := range cat.Stops() {
		for _, to := range cat.Stops() {
			a, errA := first.ShortestPath(from.ID, to.ID)
			b, errB := second.ShortestPath(from.ID, to.ID)
			require.Equal(t, errA, errB, "%s -> %s", from.Name, to.Name)
			assert.InDelta(t, a.TotalTime, b.TotalTime, 1e-9, "%s -> %s", from.Name, to.Name)
			if errA == nil && from.ID != to.ID {
				assert.GreaterOrEqual(t, a.TotalTime, float64(settings.BusWaitTime))
			}
		}
	}
}

func TestLegKind_String(t *testing.T) {
	assert.Equal(t, "Wait", router.LegWait.String())
	assert.Equal(t, "Bus", router.LegRide.String())
}
