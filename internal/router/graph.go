package router

import (
	"fmt"
	"sync"

	"github.com/LdDl/ch"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
)

// Every served stop owns two vertices: the even label is the wait vertex,
// the following odd label the board vertex.
func waitVertex(id catalogue.StopID) int64  { return 2 * int64(id) }
func boardVertex(id catalogue.StopID) int64 { return 2*int64(id) + 1 }

func stopOf(vertex int64) catalogue.StopID { return catalogue.StopID(vertex / 2) }

type edgeKey struct {
	from int64
	to   int64
}

// ride is the metadata of one ride edge.
type ride struct {
	bus       string
	spanCount int
	time      float64
}

// Graph is the immutable routing graph derived from one catalogue state.
type Graph struct {
	waitTime  float64
	stopNames []string
	vertices  map[int64]struct{}
	rides     map[edgeKey]ride
	order     []edgeKey

	// ch keeps per-query scratch state inside the graph.
	mu sync.Mutex
	ch ch.Graph
}

// Build freezes the catalogue and derives the routing graph from it.
//
// Wait edges go from the wait vertex to the board vertex of each served stop.
// Ride edges go from the board vertex of every position of a logical route to
// the wait vertex of every later position, weighted with the cumulative road
// distance over the bus speed. When several buses connect the same pair of
// vertices the fastest one is kept; on a tie the bus first in name order wins.
func Build(cat *catalogue.Catalogue, settings Settings) (*Graph, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	cat.Freeze()

	stops := cat.Stops()
	g := &Graph{
		waitTime:  float64(settings.BusWaitTime),
		stopNames: make([]string, len(stops)),
		vertices:  make(map[int64]struct{}),
		rides:     make(map[edgeKey]ride),
	}
	for _, stop := range stops {
		g.stopNames[stop.ID] = stop.Name
	}

	speed := settings.metersPerMinute()
	for _, bus := range cat.Buses() {
		route := bus.LogicalRoute()
		for i := 0; i < len(route); i++ {
			meters := 0.0
			for j := i + 1; j < len(route); j++ {
				meters += cat.DistanceBetween(route[j-1], route[j])
				if route[i] == route[j] {
					continue
				}
				g.addRide(route[i], route[j], ride{
					bus:       bus.Name,
					spanCount: j - i,
					time:      meters / speed,
				})
			}
		}
	}

	for _, stop := range stops {
		if !cat.IsServed(stop.ID) {
			continue
		}
		if err := g.addVertex(waitVertex(stop.ID)); err != nil {
			return nil, err
		}
		if err := g.addVertex(boardVertex(stop.ID)); err != nil {
			return nil, err
		}
		if err := g.ch.AddEdge(waitVertex(stop.ID), boardVertex(stop.ID), g.waitTime); err != nil {
			return nil, fmt.Errorf("add wait edge at %q: %w", stop.Name, err)
		}
	}
	for _, key := range g.order {
		r := g.rides[key]
		if err := g.ch.AddEdge(key.from, key.to, r.time); err != nil {
			return nil, fmt.Errorf("add ride edge for bus %q: %w", r.bus, err)
		}
	}
	return g, nil
}

func (g *Graph) addVertex(label int64) error {
	if _, ok := g.vertices[label]; ok {
		return nil
	}
	if err := g.ch.CreateVertex(label); err != nil {
		return fmt.Errorf("create vertex %d: %w", label, err)
	}
	g.vertices[label] = struct{}{}
	return nil
}

func (g *Graph) addRide(from, to catalogue.StopID, r ride) {
	key := edgeKey{from: boardVertex(from), to: waitVertex(to)}
	existing, ok := g.rides[key]
	if !ok {
		g.order = append(g.order, key)
	} else if existing.time <= r.time {
		return
	}
	g.rides[key] = r
}

// VertexCount returns the number of vertices, two per served stop.
func (g *Graph) VertexCount() int {
	return len(g.vertices)
}

// EdgeCount returns the number of wait and ride edges.
func (g *Graph) EdgeCount() int {
	return len(g.vertices)/2 + len(g.rides)
}

// ShortestPath finds the minimum-time journey between the wait vertices of
// two stops. It returns ErrNoRoute when either stop is not served or no path
// connects them.
func (g *Graph) ShortestPath(from, to catalogue.StopID) (Route, error) {
	if from == to {
		return Route{Legs: []Leg{}}, nil
	}
	source, target := waitVertex(from), waitVertex(to)
	if _, ok := g.vertices[source]; !ok {
		return Route{}, ErrNoRoute
	}
	if _, ok := g.vertices[target]; !ok {
		return Route{}, ErrNoRoute
	}
	if g.EdgeCount() == 0 {
		return Route{}, ErrNoRoute
	}

	g.mu.Lock()
	cost, path := g.ch.VanillaShortestPath(source, target)
	g.mu.Unlock()

	if cost < 0 || len(path) < 2 {
		return Route{}, ErrNoRoute
	}
	return g.legs(path)
}

// legs converts a vertex path into wait and ride legs.
func (g *Graph) legs(path []int64) (Route, error) {
	route := Route{Legs: make([]Leg, 0, len(path)-1)}
	for i := 1; i < len(path); i++ {
		u, v := path[i-1], path[i]
		var leg Leg
		if u%2 == 0 && v == u+1 {
			leg = Leg{Kind: LegWait, StopName: g.stopNames[stopOf(u)], Time: g.waitTime}
		} else {
			r, ok := g.rides[edgeKey{from: u, to: v}]
			if !ok {
				return Route{}, fmt.Errorf("path step %d -> %d is not a graph edge", u, v)
			}
			leg = Leg{Kind: LegRide, Bus: r.bus, SpanCount: r.spanCount, Time: r.time}
		}
		route.Legs = append(route.Legs, leg)
		route.TotalTime += leg.Time
	}
	return route, nil
}
