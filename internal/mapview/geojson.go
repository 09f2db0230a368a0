package mapview

import (
	"fmt"

	geojson "github.com/paulmach/go.geojson"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/geo"
	"github.com/megannnn98/transport-catalogue/pkg/polyline"
)

// Feature kinds stored in the "kind" property.
const (
	KindStop = "stop"
	KindBus  = "bus"
)

// GeoJSON returns a FeatureCollection with a Point per served stop and a
// LineString per bus along its logical route. Buses without stops have no
// geometry and are left out.
func GeoJSON(cat *catalogue.Catalogue) ([]byte, error) {
	fc := geojson.NewFeatureCollection()

	for _, stop := range cat.Stops() {
		if !cat.IsServed(stop.ID) {
			continue
		}
		f := geojson.NewPointFeature([]float64{stop.Coordinates.Lng, stop.Coordinates.Lat})
		f.SetProperty("kind", KindStop)
		f.SetProperty("name", stop.Name)
		fc.AddFeature(f)
	}

	for _, bus := range cat.Buses() {
		line := busLine(cat, bus)
		if len(line) == 0 {
			continue
		}
		coords := make([][]float64, len(line))
		for i, p := range line {
			coords[i] = []float64{p.X(), p.Y()}
		}
		f := geojson.NewLineStringFeature(coords)
		f.SetProperty("kind", KindBus)
		f.SetProperty("name", bus.Name)
		f.SetProperty("is_roundtrip", bus.IsRoundTrip)
		fc.AddFeature(f)
	}

	b, err := fc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("marshal map geojson: %w", err)
	}
	return b, nil
}

// BusWKT returns the logical route of a bus as a WKT LINESTRING, or an empty
// string for a bus without stops.
func BusWKT(cat *catalogue.Catalogue, bus catalogue.Bus) string {
	line := busLine(cat, bus)
	if len(line) == 0 {
		return ""
	}
	return wkt.MarshalString(line)
}

// BusPolyline returns the logical route of a bus as an encoded polyline.
func BusPolyline(cat *catalogue.Catalogue, bus catalogue.Bus) string {
	line := busLine(cat, bus)
	points := make([]geo.Coordinates, len(line))
	for i, p := range line {
		points[i] = geo.Coordinates{Lat: p.Y(), Lng: p.X()}
	}
	return polyline.Encode(points)
}

func busLine(cat *catalogue.Catalogue, bus catalogue.Bus) orb.LineString {
	route := bus.LogicalRoute()
	line := make(orb.LineString, 0, len(route))
	for _, id := range route {
		stop, ok := cat.StopByID(id)
		if !ok {
			continue
		}
		line = append(line, orb.Point{stop.Coordinates.Lng, stop.Coordinates.Lat})
	}
	return line
}
