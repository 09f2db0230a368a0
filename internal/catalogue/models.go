// Package catalogue is the in-memory store of stops, buses and road distances.
package catalogue

import (
	"errors"

	"github.com/megannnn98/transport-catalogue/internal/geo"
)

// Sentinel errors for catalogue operations.
var (
	// ErrUnknownStop indicates a reference to a stop name that was never added.
	ErrUnknownStop = errors.New("unknown stop")
	// ErrUnknownBus indicates a query for a bus name that was never added.
	ErrUnknownBus = errors.New("unknown bus")
	// ErrInvalidDistance indicates a non-positive road distance.
	ErrInvalidDistance = errors.New("invalid distance")
	// ErrInvalidCoordinates indicates NaN or infinite coordinates.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrEmptyName indicates a stop or bus without a name.
	ErrEmptyName = errors.New("empty name")
	// ErrFrozen indicates a mutation after the catalogue started serving queries.
	ErrFrozen = errors.New("catalogue is frozen")
)

// StopID is the arena index of a stop, issued in insertion order.
type StopID int

// BusID is the arena index of a bus, issued in insertion order.
type BusID int

// Stop is a named location.
type Stop struct {
	ID          StopID
	Name        string
	Coordinates geo.Coordinates
}

// Bus is a named route over catalogue stops.
type Bus struct {
	ID   BusID
	Name string
	// Stops is the sequence as it was added. A round-trip bus repeats its
	// first stop at the end; a there-and-back bus lists the forward half only.
	Stops       []StopID
	IsRoundTrip bool
}

// LogicalRoute returns the expanded stop sequence used for every distance and
// statistics computation: the stored sequence for a round trip, otherwise the
// forward sequence followed by its reverse without the turnaround stop.
func (b Bus) LogicalRoute() []StopID {
	if b.IsRoundTrip || len(b.Stops) == 0 {
		out := make([]StopID, len(b.Stops))
		copy(out, b.Stops)
		return out
	}
	out := make([]StopID, 0, 2*len(b.Stops)-1)
	out = append(out, b.Stops...)
	for i := len(b.Stops) - 2; i >= 0; i-- {
		out = append(out, b.Stops[i])
	}
	return out
}

// FinalStop returns the last stop of the forward half of the route.
func (b Bus) FinalStop() (StopID, bool) {
	if len(b.Stops) == 0 {
		return 0, false
	}
	return b.Stops[len(b.Stops)-1], true
}

// Statistics are the derived aggregates for one bus.
type Statistics struct {
	// StopCount is the number of positions in the logical route.
	StopCount int
	// UniqueStopCount is the number of distinct stops on the route.
	UniqueStopCount int
	// RouteLength is the road distance along the logical route in meters.
	RouteLength float64
	// GeographicLength is the great-circle distance along the same pairs.
	GeographicLength float64
	// Curvature is RouteLength / GeographicLength, or 0 when the
	// geographic length is 0.
	Curvature float64
}

// Distance is one explicitly provided directed road distance.
type Distance struct {
	From   string
	To     string
	Meters int
}

// Error carries the operation and offending name of a failed call.
type Error struct {
	Op   string // Operation that failed, e.g. "add bus"
	Name string // Name that caused the failure
	Err  error  // Underlying sentinel error
}

func (e *Error) Error() string {
	if e.Name == "" {
		return e.Op + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error() + " " + `"` + e.Name + `"`
}

func (e *Error) Unwrap() error {
	return e.Err
}
