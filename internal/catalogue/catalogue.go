package catalogue

import (
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/megannnn98/transport-catalogue/internal/geo"
)

// Config holds configuration for the catalogue.
type Config struct {
	// Logger for catalogue mutations.
	Logger zerolog.Logger
}

// stopPair keys the road distance table.
type stopPair struct {
	from StopID
	to   StopID
}

// Catalogue owns all stops, buses and explicit road distances.
//
// Names are interned once at the boundary and every internal structure
// references stops and buses by arena index. The first query freezes the
// catalogue; mutations after that fail with ErrFrozen.
type Catalogue struct {
	logger zerolog.Logger
	frozen atomic.Bool

	mu        sync.RWMutex
	stops     []Stop
	stopIndex map[string]StopID
	stopBuses []map[BusID]struct{}
	buses     []Bus
	busIndex  map[string]BusID
	distances map[stopPair]int
}

// New creates an empty catalogue.
func New(cfg Config) *Catalogue {
	return &Catalogue{
		logger:    cfg.Logger,
		stopIndex: make(map[string]StopID),
		busIndex:  make(map[string]BusID),
		distances: make(map[stopPair]int),
	}
}

// Freeze rejects every further mutation. It is idempotent.
func (c *Catalogue) Freeze() {
	if c.frozen.CompareAndSwap(false, true) {
		c.logger.Debug().
			Int("stops", c.StopCount()).
			Int("buses", c.BusCount()).
			Msg("catalogue frozen")
	}
}

// Frozen reports whether the catalogue rejects mutations.
func (c *Catalogue) Frozen() bool {
	return c.frozen.Load()
}

// AddStop registers a stop and returns its id.
// The first definition of a name wins: adding an existing name is a no-op
// that returns the existing id and keeps the original coordinates.
func (c *Catalogue) AddStop(name string, coords geo.Coordinates) (StopID, error) {
	if name == "" {
		return 0, &Error{Op: "add stop", Err: ErrEmptyName}
	}
	if !coords.Finite() {
		return 0, &Error{Op: "add stop", Name: name, Err: ErrInvalidCoordinates}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Frozen() {
		return 0, &Error{Op: "add stop", Name: name, Err: ErrFrozen}
	}
	if id, ok := c.stopIndex[name]; ok {
		if c.stops[id].Coordinates != coords {
			c.logger.Debug().
				Str("stop", name).
				Float64("lat", coords.Lat).
				Float64("lng", coords.Lng).
				Msg("ignoring redefinition of existing stop")
		}
		return id, nil
	}

	id := StopID(len(c.stops))
	c.stops = append(c.stops, Stop{ID: id, Name: name, Coordinates: coords})
	c.stopBuses = append(c.stopBuses, make(map[BusID]struct{}))
	c.stopIndex[name] = id

	c.logger.Debug().
		Str("stop", name).
		Int("stop_id", int(id)).
		Msg("stop added")
	return id, nil
}

// AddBus registers a bus over already added stops and links it into every
// stop it visits. The first definition of a name wins, as for stops.
// Nothing is changed when any stop name is unknown.
func (c *Catalogue) AddBus(name string, stopNames []string, isRoundTrip bool) (BusID, error) {
	if name == "" {
		return 0, &Error{Op: "add bus", Err: ErrEmptyName}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Frozen() {
		return 0, &Error{Op: "add bus", Name: name, Err: ErrFrozen}
	}
	if id, ok := c.busIndex[name]; ok {
		c.logger.Debug().
			Str("bus", name).
			Msg("ignoring redefinition of existing bus")
		return id, nil
	}

	route := make([]StopID, len(stopNames))
	for i, stopName := range stopNames {
		stopID, ok := c.stopIndex[stopName]
		if !ok {
			return 0, &Error{Op: "add bus " + name, Name: stopName, Err: ErrUnknownStop}
		}
		route[i] = stopID
	}

	id := BusID(len(c.buses))
	c.buses = append(c.buses, Bus{ID: id, Name: name, Stops: route, IsRoundTrip: isRoundTrip})
	c.busIndex[name] = id
	for _, stopID := range route {
		c.stopBuses[stopID][id] = struct{}{}
	}

	c.logger.Debug().
		Str("bus", name).
		Int("bus_id", int(id)).
		Int("stops", len(route)).
		Bool("round_trip", isRoundTrip).
		Msg("bus added")
	return id, nil
}

// SetDistance stores the road distance from one stop to another,
// overwriting a previous value for the same ordered pair.
func (c *Catalogue) SetDistance(from, to string, meters int) error {
	if meters <= 0 {
		return &Error{Op: "set distance " + from + " -> " + to, Err: ErrInvalidDistance}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Frozen() {
		return &Error{Op: "set distance", Name: from, Err: ErrFrozen}
	}
	fromID, ok := c.stopIndex[from]
	if !ok {
		return &Error{Op: "set distance", Name: from, Err: ErrUnknownStop}
	}
	toID, ok := c.stopIndex[to]
	if !ok {
		return &Error{Op: "set distance", Name: to, Err: ErrUnknownStop}
	}
	c.distances[stopPair{from: fromID, to: toID}] = meters
	return nil
}

// Distance returns the road distance between two stops in meters: the
// explicit value for (from, to), else the explicit value for (to, from),
// else the great-circle distance.
func (c *Catalogue) Distance(from, to string) (float64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	fromID, ok := c.stopIndex[from]
	if !ok {
		return 0, &Error{Op: "distance", Name: from, Err: ErrUnknownStop}
	}
	toID, ok := c.stopIndex[to]
	if !ok {
		return 0, &Error{Op: "distance", Name: to, Err: ErrUnknownStop}
	}
	return c.distance(fromID, toID), nil
}

// DistanceBetween is Distance for stop ids. Unknown ids yield 0.
func (c *Catalogue) DistanceBetween(from, to StopID) float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.validStop(from) || !c.validStop(to) {
		return 0
	}
	return c.distance(from, to)
}

func (c *Catalogue) distance(from, to StopID) float64 {
	if d, ok := c.distances[stopPair{from: from, to: to}]; ok {
		return float64(d)
	}
	if d, ok := c.distances[stopPair{from: to, to: from}]; ok {
		return float64(d)
	}
	return geo.Distance(c.stops[from].Coordinates, c.stops[to].Coordinates)
}

func (c *Catalogue) validStop(id StopID) bool {
	return id >= 0 && int(id) < len(c.stops)
}

// BusStatistics returns the aggregates of the named bus and freezes the catalogue.
// A bus with an empty route reports zero values.
func (c *Catalogue) BusStatistics(name string) (Statistics, error) {
	c.Freeze()

	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.busIndex[name]
	if !ok {
		return Statistics{}, &Error{Op: "bus statistics", Name: name, Err: ErrUnknownBus}
	}

	route := c.buses[id].LogicalRoute()
	var stats Statistics
	stats.StopCount = len(route)

	unique := make(map[StopID]struct{}, len(route))
	for i, stopID := range route {
		unique[stopID] = struct{}{}
		if i == 0 {
			continue
		}
		prev := route[i-1]
		stats.RouteLength += c.distance(prev, stopID)
		stats.GeographicLength += geo.Distance(c.stops[prev].Coordinates, c.stops[stopID].Coordinates)
	}
	stats.UniqueStopCount = len(unique)
	if stats.GeographicLength > 0 {
		stats.Curvature = stats.RouteLength / stats.GeographicLength
	}
	return stats, nil
}

// BusesAtStop returns the sorted names of buses serving the stop and freezes
// the catalogue. An empty slice means the stop exists but no bus visits it.
func (c *Catalogue) BusesAtStop(name string) ([]string, error) {
	c.Freeze()

	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.stopIndex[name]
	if !ok {
		return nil, &Error{Op: "buses at stop", Name: name, Err: ErrUnknownStop}
	}
	names := make([]string, 0, len(c.stopBuses[id]))
	for busID := range c.stopBuses[id] {
		names = append(names, c.buses[busID].Name)
	}
	sort.Strings(names)
	return names, nil
}

// Stop looks a stop up by name.
func (c *Catalogue) Stop(name string) (Stop, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.stopIndex[name]
	if !ok {
		return Stop{}, false
	}
	return c.stops[id], true
}

// StopByID looks a stop up by id.
func (c *Catalogue) StopByID(id StopID) (Stop, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.validStop(id) {
		return Stop{}, false
	}
	return c.stops[id], true
}

// Bus looks a bus up by name. The returned route is a copy.
func (c *Catalogue) Bus(name string) (Bus, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	id, ok := c.busIndex[name]
	if !ok {
		return Bus{}, false
	}
	return copyBus(c.buses[id]), true
}

// IsServed reports whether at least one bus visits the stop.
func (c *Catalogue) IsServed(id StopID) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return c.validStop(id) && len(c.stopBuses[id]) > 0
}

// StopCount returns the number of stops.
func (c *Catalogue) StopCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.stops)
}

// BusCount returns the number of buses.
func (c *Catalogue) BusCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.buses)
}

// Stops returns all stops ordered by name.
func (c *Catalogue) Stops() []Stop {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Stop, len(c.stops))
	copy(out, c.stops)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Buses returns all buses ordered by name.
func (c *Catalogue) Buses() []Bus {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Bus, len(c.buses))
	for i, b := range c.buses {
		out[i] = copyBus(b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Distances returns the explicit road distance table ordered by (From, To).
func (c *Catalogue) Distances() []Distance {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]Distance, 0, len(c.distances))
	for pair, meters := range c.distances {
		out = append(out, Distance{
			From:   c.stops[pair.from].Name,
			To:     c.stops[pair.to].Name,
			Meters: meters,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].From != out[j].From {
			return out[i].From < out[j].From
		}
		return out[i].To < out[j].To
	})
	return out
}

// StopNames resolves ids to names, skipping unknown ids.
func (c *Catalogue) StopNames(ids []StopID) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if c.validStop(id) {
			names = append(names, c.stops[id].Name)
		}
	}
	return names
}

func copyBus(b Bus) Bus {
	stops := make([]StopID, len(b.Stops))
	copy(stops, b.Stops)
	b.Stops = stops
	return b
}
