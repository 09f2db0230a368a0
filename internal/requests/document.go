package requests

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/geo"
)

// Decode reads one JSON request document.
func Decode(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	return &doc, nil
}

// Load applies base requests to the catalogue in three passes: every stop,
// then every road distance, then every bus. A bus may therefore reference a
// stop defined later in the list. The first failing request aborts the load.
func Load(cat *catalogue.Catalogue, reqs []BaseRequest) error {
	for i, req := range reqs {
		switch req.Type {
		case TypeStop:
			if req.Latitude == nil || req.Longitude == nil {
				return fmt.Errorf("base request %d: stop %q: %w: missing coordinates", i, req.Name, ErrInvalidRequest)
			}
			coords := geo.Coordinates{Lat: *req.Latitude, Lng: *req.Longitude}
			if _, err := cat.AddStop(req.Name, coords); err != nil {
				return fmt.Errorf("base request %d: %w", i, err)
			}
		case TypeBus:
		default:
			return fmt.Errorf("base request %d: %w: unknown type %q", i, ErrInvalidRequest, req.Type)
		}
	}

	for i, req := range reqs {
		if req.Type != TypeStop {
			continue
		}
		neighbours := make([]string, 0, len(req.RoadDistances))
		for name := range req.RoadDistances {
			neighbours = append(neighbours, name)
		}
		sort.Strings(neighbours)
		for _, name := range neighbours {
			if err := cat.SetDistance(req.Name, name, req.RoadDistances[name]); err != nil {
				return fmt.Errorf("base request %d: %w", i, err)
			}
		}
	}

	for i, req := range reqs {
		if req.Type != TypeBus {
			continue
		}
		if _, err := cat.AddBus(req.Name, req.Stops, req.IsRoundTrip); err != nil {
			return fmt.Errorf("base request %d: %w", i, err)
		}
	}
	return nil
}
