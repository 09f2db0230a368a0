// Package router builds the wait/ride time graph over a frozen catalogue and
// answers minimum-time journey queries between stops.
package router

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Sentinel errors for routing operations.
var (
	// ErrNoRoute indicates there is no path between the requested stops.
	ErrNoRoute = errors.New("no route")
	// ErrInvalidSettings indicates missing or out-of-range routing settings.
	ErrInvalidSettings = errors.New("invalid routing settings")
)

var validate = validator.New()

// Settings are the routing parameters shared by every bus.
type Settings struct {
	// BusWaitTime is the wait at a stop before each boarding, in minutes.
	BusWaitTime int `json:"bus_wait_time" yaml:"bus_wait_time" validate:"required,gte=1,lte=1000"`
	// BusVelocity is the travel speed of every bus, in km/h.
	BusVelocity float64 `json:"bus_velocity" yaml:"bus_velocity" validate:"required,gt=0,lte=1000"`
}

// Validate checks that both settings are present and within range.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	return nil
}

// metersPerMinute converts the bus velocity to the unit used by ride edges.
func (s Settings) metersPerMinute() float64 {
	return s.BusVelocity * 1000.0 / 60.0
}

// LegKind distinguishes the two kinds of journey segment.
type LegKind int

const (
	// LegWait is a wait at a stop before boarding.
	LegWait LegKind = iota
	// LegRide is a ride on one bus over one or more consecutive spans.
	LegRide
)

// String returns the document name of the leg kind.
func (k LegKind) String() string {
	switch k {
	case LegWait:
		return "Wait"
	case LegRide:
		return "Bus"
	default:
		return fmt.Sprintf("LegKind(%d)", int(k))
	}
}

// Leg is one segment of a journey.
type Leg struct {
	Kind LegKind
	// StopName is set for wait legs.
	StopName string
	// Bus and SpanCount are set for ride legs.
	Bus       string
	SpanCount int
	// Time is the leg duration in minutes.
	Time float64
}

// Route is a minimum-time journey. A journey from a stop to itself has no legs.
type Route struct {
	Legs      []Leg
	TotalTime float64
}
