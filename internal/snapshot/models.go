// Package snapshot persists catalogue contents with their routing and render
// settings. The routing graph is never stored; it is rebuilt after restore.
package snapshot

import (
	"errors"
	"fmt"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/geo"
	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound indicates no snapshot has been saved yet.
	ErrNotFound = errors.New("snapshot not found")
	// ErrCorrupt indicates stored bytes that do not decode into a snapshot.
	ErrCorrupt = errors.New("snapshot is corrupt")
)

// Stop is a stored stop.
type Stop struct {
	Name string
	Lat  float64
	Lng  float64
}

// Bus is a stored bus with its stops exactly as they were added.
type Bus struct {
	Name        string
	Stops       []string
	IsRoundTrip bool
}

// Distance is a stored directed road distance.
type Distance struct {
	From   string
	To     string
	Meters int
}

// Snapshot is everything needed to answer stat requests again.
type Snapshot struct {
	Stops     []Stop
	Buses     []Bus
	Distances []Distance
	// Routing and Render are nil when the source document had no such section.
	Routing *router.Settings
	Render  *mapview.Settings
}

// FromCatalogue copies the catalogue contents into a snapshot.
func FromCatalogue(cat *catalogue.Catalogue) *Snapshot {
	stops := cat.Stops()
	s := &Snapshot{
		Stops: make([]Stop, 0, len(stops)),
	}
	for _, stop := range stops {
		s.Stops = append(s.Stops, Stop{
			Name: stop.Name,
			Lat:  stop.Coordinates.Lat,
			Lng:  stop.Coordinates.Lng,
		})
	}

	buses := cat.Buses()
	s.Buses = make([]Bus, 0, len(buses))
	for _, bus := range buses {
		s.Buses = append(s.Buses, Bus{
			Name:        bus.Name,
			Stops:       cat.StopNames(bus.Stops),
			IsRoundTrip: bus.IsRoundTrip,
		})
	}

	distances := cat.Distances()
	s.Distances = make([]Distance, 0, len(distances))
	for _, d := range distances {
		s.Distances = append(s.Distances, Distance{From: d.From, To: d.To, Meters: d.Meters})
	}
	return s
}

// Restore builds a new catalogue from the snapshot: stops first, then road
// distances, then buses.
func (s *Snapshot) Restore(cfg catalogue.Config) (*catalogue.Catalogue, error) {
	cat := catalogue.New(cfg)
	for _, stop := range s.Stops {
		if _, err := cat.AddStop(stop.Name, geo.Coordinates{Lat: stop.Lat, Lng: stop.Lng}); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	for _, d := range s.Distances {
		if err := cat.SetDistance(d.From, d.To, d.Meters); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	for _, bus := range s.Buses {
		if _, err := cat.AddBus(bus.Name, bus.Stops, bus.IsRoundTrip); err != nil {
			return nil, fmt.Errorf("restore: %w", err)
		}
	}
	return cat, nil
}
