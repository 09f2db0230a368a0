// Package geo provides great-circle math for stop coordinates.
package geo

import (
	"fmt"
	"math"
)

const (
	// EarthRadius is the mean Earth radius in meters.
	EarthRadius = 6371000.0
	pi180       = math.Pi / 180.0
)

// Coordinates is a point on Earth in degrees.
type Coordinates struct {
	Lat float64
	Lng float64
}

// String returns pretty printed value for Coordinates.
func (c Coordinates) String() string {
	return fmt.Sprintf("Lat: %f | Lng: %f", c.Lat, c.Lng)
}

// Finite reports whether both components are finite numbers.
func (c Coordinates) Finite() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) && !math.IsInf(c.Lat, 0) && !math.IsInf(c.Lng, 0)
}

func degreesToRadians(d float64) float64 {
	return d * pi180
}

// Distance returns the great-circle distance between two points in meters.
// The result is symmetric and zero for identical points.
func Distance(from, to Coordinates) float64 {
	if from == to {
		return 0
	}
	lat1 := degreesToRadians(from.Lat)
	lat2 := degreesToRadians(to.Lat)
	dLng := degreesToRadians(math.Abs(from.Lng - to.Lng))

	cos := math.Sin(lat1)*math.Sin(lat2) + math.Cos(lat1)*math.Cos(lat2)*math.Cos(dLng)
	// rounding can push nearly identical points past 1
	cos = math.Max(-1, math.Min(1, cos))
	return math.Acos(cos) * EarthRadius
}

// LineLength returns the sum of great-circle distances along consecutive points (meters).
func LineLength(line []Coordinates) float64 {
	total := 0.0
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}
