package catalogue

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/megannnn98/transport-catalogue/internal/geo"
)

func newTestCatalogue(t *testing.T) *Catalogue {
	t.Helper()
	c := New(Config{})
	for _, s := range []struct {
		name string
		lat  float64
		lng  float64
	}{
		{"A", 55.611087, 37.20829},
		{"B", 55.595884, 37.209755},
		{"C", 55.632761, 37.333324},
		{"D", 55.574371, 37.6517},
	} {
		_, err := c.AddStop(s.name, geo.Coordinates{Lat: s.lat, Lng: s.lng})
		require.NoError(t, err)
	}
	return c
}

func TestCatalogue_AddStop_IssuesSequentialIDs(t *testing.T) {
	c := New(Config{})

	a, err := c.AddStop("A", geo.Coordinates{Lat: 1, Lng: 2})
	require.NoError(t, err)
	b, err := c.AddStop("B", geo.Coordinates{Lat: 3, Lng: 4})
	require.NoError(t, err)

	assert.Equal(t, StopID(0), a)
	assert.Equal(t, StopID(1), b)

	stop, ok := c.StopByID(b)
	require.True(t, ok)
	assert.Equal(t, "B", stop.Name)
	assert.Equal(t, geo.Coordinates{Lat: 3, Lng: 4}, stop.Coordinates)
}

func TestCatalogue_AddStop_FirstDefinitionWins(t *testing.T) {
	c := New(Config{})

	first, err := c.AddStop("A", geo.Coordinates{Lat: 1, Lng: 1})
	require.NoError(t, err)
	second, err := c.AddStop("A", geo.Coordinates{Lat: 9, Lng: 9})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, c.StopCount())
	stop, ok := c.Stop("A")
	require.True(t, ok)
	assert.Equal(t, geo.Coordinates{Lat: 1, Lng: 1}, stop.Coordinates)
}

func TestCatalogue_AddStop_Rejects(t *testing.T) {
	c := New(Config{})

	_, err := c.AddStop("", geo.Coordinates{})
	assert.ErrorIs(t, err, ErrEmptyName)

	_, err = c.AddStop("X", geo.Coordinates{Lat: 1, Lng: math.Inf(1)})
	assert.ErrorIs(t, err, ErrInvalidCoordinates)

	assert.Zero(t, c.StopCount())
}

func TestCatalogue_AddBus_UnknownStopDoesNotPartiallyApply(t *testing.T) {
	c := newTestCatalogue(t)

	_, err := c.AddBus("1", []string{"A", "B", "Nowhere"}, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownStop)

	var catErr *Error
	require.True(t, errors.As(err, &catErr))
	assert.Equal(t, "Nowhere", catErr.Name)

	_, ok := c.Bus("1")
	assert.False(t, ok)
	assert.Zero(t, c.BusCount())

	buses, err := c.BusesAtStop("A")
	require.NoError(t, err)
	assert.Empty(t, buses)
}

func TestCatalogue_AddBus_FirstDefinitionWins(t *testing.T) {
	c := newTestCatalogue(t)

	first, err := c.AddBus("1", []string{"A", "B"}, false)
	require.NoError(t, err)
	second, err := c.AddBus("1", []string{"C", "D", "C"}, true)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	bus, ok := c.Bus("1")
	require.True(t, ok)
	assert.Equal(t, []StopID{0, 1}, bus.Stops)
	assert.False(t, bus.IsRoundTrip)
}

func TestCatalogue_SetDistance(t *testing.T) {
	c := newTestCatalogue(t)

	assert.ErrorIs(t, c.SetDistance("A", "B", 0), ErrInvalidDistance)
	assert.ErrorIs(t, c.SetDistance("A", "B", -5), ErrInvalidDistance)
	assert.ErrorIs(t, c.SetDistance("A", "Nowhere", 10), ErrUnknownStop)
	assert.ErrorIs(t, c.SetDistance("Nowhere", "A", 10), ErrUnknownStop)
	assert.Empty(t, c.Distances())

	require.NoError(t, c.SetDistance("A", "B", 100))
	require.NoError(t, c.SetDistance("A", "B", 200))
	assert.Equal(t, []Distance{{From: "A", To: "B", Meters: 200}}, c.Distances())
}

func TestCatalogue_Distance_Fallback(t *testing.T) {
	c := newTestCatalogue(t)
	require.NoError(t, c.SetDistance("A", "B", 2000))
	require.NoError(t, c.SetDistance("B", "C", 3000))
	require.NoError(t, c.SetDistance("C", "B", 3500))

	tests := []struct {
		name     string
		from, to string
		want     func() float64
	}{
		{"explicit", "A", "B", func() float64 { return 2000 }},
		{"reverse fallback", "B", "A", func() float64 { return 2000 }},
		{"explicit wins over reverse", "B", "C", func() float64 { return 3000 }},
		{"explicit in other direction", "C", "B", func() float64 { return 3500 }},
		{"great circle", "A", "D", func() float64 {
			a, _ := c.Stop("A")
			d, _ := c.Stop("D")
			return geo.Distance(a.Coordinates, d.Coordinates)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.Distance(tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want(), got)
		})
	}

	ad, err := c.Distance("A", "D")
	require.NoError(t, err)
	da, err := c.Distance("D", "A")
	require.NoError(t, err)
	assert.Equal(t, ad, da)

	_, err = c.Distance("A", "Nowhere")
	assert.ErrorIs(t, err, ErrUnknownStop)
}

func TestCatalogue_BusStatistics_RoundTrip(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("256", []string{"A", "B", "C", "A"}, true)
	require.NoError(t, err)

	stats, err := c.BusStatistics("256")
	require.NoError(t, err)
	assert.Equal(t, 4, stats.StopCount)
	assert.Equal(t, 3, stats.UniqueStopCount)
}

func TestCatalogue_BusStatistics_ThereAndBack(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("750", []string{"A", "B", "C"}, false)
	require.NoError(t, err)

	stats, err := c.BusStatistics("750")
	require.NoError(t, err)
	assert.Equal(t, 5, stats.StopCount)
	assert.Equal(t, 3, stats.UniqueStopCount)
}

func TestCatalogue_BusStatistics_Lengths(t *testing.T) {
	c := New(Config{})
	_, err := c.AddStop("A", geo.Coordinates{Lat: 0, Lng: 0})
	require.NoError(t, err)
	_, err = c.AddStop("B", geo.Coordinates{Lat: 0, Lng: 1})
	require.NoError(t, err)
	require.NoError(t, c.SetDistance("A", "B", 150000))
	require.NoError(t, c.SetDistance("B", "A", 160000))
	_, err = c.AddBus("1", []string{"A", "B"}, false)
	require.NoError(t, err)

	stats, err := c.BusStatistics("1")
	require.NoError(t, err)

	geometric := 2 * geo.Distance(geo.Coordinates{Lat: 0, Lng: 0}, geo.Coordinates{Lat: 0, Lng: 1})
	assert.Equal(t, 310000.0, stats.RouteLength)
	assert.InDelta(t, geometric, stats.GeographicLength, 1e-6)
	assert.InDelta(t, 310000.0/geometric, stats.Curvature, 1e-9)
	assert.GreaterOrEqual(t, stats.Curvature, 1.0)
}

func TestCatalogue_BusStatistics_CurvatureOneWithoutOverrides(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("1", []string{"A", "B", "C", "D"}, false)
	require.NoError(t, err)

	stats, err := c.BusStatistics("1")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, stats.Curvature, 1e-9)
	assert.InDelta(t, stats.GeographicLength, stats.RouteLength, 1e-6)
}

func TestCatalogue_BusStatistics_EmptyRouteIsValid(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("ghost", nil, false)
	require.NoError(t, err)

	stats, err := c.BusStatistics("ghost")
	require.NoError(t, err)
	assert.Equal(t, Statistics{}, stats)
}

func TestCatalogue_BusStatistics_UnknownBus(t *testing.T) {
	c := newTestCatalogue(t)

	_, err := c.BusStatistics("404")
	assert.ErrorIs(t, err, ErrUnknownBus)
}

func TestCatalogue_BusesAtStop(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("828", []string{"A", "B", "A"}, true)
	require.NoError(t, err)
	_, err = c.AddBus("256", []string{"B", "C"}, false)
	require.NoError(t, err)
	_, err = c.AddBus("14", []string{"B", "B"}, false)
	require.NoError(t, err)

	buses, err := c.BusesAtStop("B")
	require.NoError(t, err)
	assert.Equal(t, []string{"14", "256", "828"}, buses)

	buses, err = c.BusesAtStop("D")
	require.NoError(t, err)
	assert.NotNil(t, buses)
	assert.Empty(t, buses)

	_, err = c.BusesAtStop("Nowhere")
	assert.ErrorIs(t, err, ErrUnknownStop)
}

func TestCatalogue_QueriesFreeze(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("1", []string{"A", "B"}, false)
	require.NoError(t, err)
	assert.False(t, c.Frozen())

	_, err = c.BusesAtStop("A")
	require.NoError(t, err)
	assert.True(t, c.Frozen())

	_, err = c.AddStop("E", geo.Coordinates{})
	assert.ErrorIs(t, err, ErrFrozen)
	_, err = c.AddBus("2", []string{"A"}, false)
	assert.ErrorIs(t, err, ErrFrozen)
	assert.ErrorIs(t, c.SetDistance("A", "B", 10), ErrFrozen)

	// rejected mutations leave committed state intact
	assert.Equal(t, 4, c.StopCount())
	assert.Equal(t, 1, c.BusCount())
}

func TestCatalogue_EnumerationsAreNameOrdered(t *testing.T) {
	c := New(Config{})
	for _, name := range []string{"Zeta", "Alpha", "Mu"} {
		_, err := c.AddStop(name, geo.Coordinates{})
		require.NoError(t, err)
	}
	for _, name := range []string{"9", "10", "1"} {
		_, err := c.AddBus(name, []string{"Mu"}, false)
		require.NoError(t, err)
	}
	require.NoError(t, c.SetDistance("Zeta", "Alpha", 5))
	require.NoError(t, c.SetDistance("Alpha", "Zeta", 7))
	require.NoError(t, c.SetDistance("Alpha", "Mu", 3))

	var stopNames []string
	for _, s := range c.Stops() {
		stopNames = append(stopNames, s.Name)
	}
	assert.Equal(t, []string{"Alpha", "Mu", "Zeta"}, stopNames)

	var busNames []string
	for _, b := range c.Buses() {
		busNames = append(busNames, b.Name)
	}
	assert.Equal(t, []string{"1", "10", "9"}, busNames)

	assert.Equal(t, []Distance{
		{From: "Alpha", To: "Mu", Meters: 3},
		{From: "Alpha", To: "Zeta", Meters: 7},
		{From: "Zeta", To: "Alpha", Meters: 5},
	}, c.Distances())
}

func TestCatalogue_BusReturnsCopy(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("1", []string{"A", "B"}, false)
	require.NoError(t, err)

	bus, _ := c.Bus("1")
	bus.Stops[0] = 3

	again, _ := c.Bus("1")
	assert.Equal(t, StopID(0), again.Stops[0])
}

func TestCatalogue_IsServed(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("1", []string{"A", "B"}, false)
	require.NoError(t, err)

	assert.True(t, c.IsServed(0))
	assert.False(t, c.IsServed(3))
	assert.False(t, c.IsServed(99))
}

func TestBus_LogicalRoute(t *testing.T) {
	tests := []struct {
		name string
		bus  Bus
		want []StopID
	}{
		{"round trip as stored", Bus{Stops: []StopID{0, 1, 2, 0}, IsRoundTrip: true}, []StopID{0, 1, 2, 0}},
		{"there and back", Bus{Stops: []StopID{0, 1, 2}}, []StopID{0, 1, 2, 1, 0}},
		{"single stop", Bus{Stops: []StopID{4}}, []StopID{4}},
		{"empty", Bus{}, []StopID{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.bus.LogicalRoute())
		})
	}
}

func TestCatalogue_ConcurrentQueries(t *testing.T) {
	c := newTestCatalogue(t)
	_, err := c.AddBus("1", []string{"A", "B", "C"}, false)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			stats, err := c.BusStatistics("1")
			assert.NoError(t, err)
			assert.Equal(t, 5, stats.StopCount)
			_, err = c.BusesAtStop("B")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
}

func TestError_Message(t *testing.T) {
	err := &Error{Op: "add bus 1", Name: "X", Err: ErrUnknownStop}
	assert.Equal(t, `add bus 1: unknown stop "X"`, err.Error())
	assert.True(t, errors.Is(err, ErrUnknownStop))

	err = &Error{Op: "add stop", Err: ErrEmptyName}
	assert.Equal(t, "add stop: empty name", err.Error())
}
