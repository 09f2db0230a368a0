package mapview

import (
	"math"

	"github.com/paulmach/orb"

	"github.com/megannnn98/transport-catalogue/internal/geo"
)

const epsilon = 1e-6

// Projector maps coordinates onto the canvas. Longitude grows to the right and
// latitude grows upwards, so the northernmost point lands on the top padding.
type Projector struct {
	padding float64
	minLng  float64
	maxLat  float64
	zoom    float64
}

// NewProjector fits the points into a width x height canvas. An axis with no
// extent is ignored when choosing the zoom; with no extent at all every point
// lands on the padding corner.
func NewProjector(points []geo.Coordinates, width, height, padding float64) Projector {
	p := Projector{padding: padding}
	if len(points) == 0 {
		return p
	}

	mp := make(orb.MultiPoint, len(points))
	for i, c := range points {
		mp[i] = orb.Point{c.Lng, c.Lat}
	}
	bound := mp.Bound()
	p.minLng = bound.Min.X()
	p.maxLat = bound.Max.Y()

	lngSpan := bound.Max.X() - bound.Min.X()
	latSpan := bound.Max.Y() - bound.Min.Y()

	zoom := math.Inf(1)
	if math.Abs(lngSpan) >= epsilon {
		zoom = math.Min(zoom, (width-2*padding)/lngSpan)
	}
	if math.Abs(latSpan) >= epsilon {
		zoom = math.Min(zoom, (height-2*padding)/latSpan)
	}
	if !math.IsInf(zoom, 1) {
		p.zoom = zoom
	}
	return p
}

// Project returns the canvas position of the coordinates.
func (p Projector) Project(c geo.Coordinates) Point {
	return Point{
		X: (c.Lng-p.minLng)*p.zoom + p.padding,
		Y: (p.maxLat-c.Lat)*p.zoom + p.padding,
	}
}
