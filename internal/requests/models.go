// Package requests reads transit request documents into a catalogue and
// answers their stat requests.
package requests

import (
	"errors"

	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

// Request types.
const (
	TypeStop  = "Stop"
	TypeBus   = "Bus"
	TypeMap   = "Map"
	TypeRoute = "Route"
)

// NotFound is the error message of unknown names and impossible routes.
const NotFound = "not found"

// Sentinel errors for document handling.
var (
	// ErrInvalidDocument indicates a document that cannot be decoded.
	ErrInvalidDocument = errors.New("invalid request document")
	// ErrInvalidRequest indicates a base request with missing or unknown fields.
	ErrInvalidRequest = errors.New("invalid base request")
)

// Document is a complete request document. Every section is optional.
type Document struct {
	BaseRequests          []BaseRequest          `json:"base_requests"`
	RoutingSettings       *router.Settings       `json:"routing_settings,omitempty"`
	RenderSettings        *mapview.Settings      `json:"render_settings,omitempty"`
	SerializationSettings *SerializationSettings `json:"serialization_settings,omitempty"`
	StatRequests          []StatRequest          `json:"stat_requests"`
}

// SerializationSettings name the snapshot file.
type SerializationSettings struct {
	File string `json:"file"`
}

// BaseRequest defines a stop or a bus.
type BaseRequest struct {
	Type string `json:"type"`
	Name string `json:"name"`

	// Stop fields.
	Latitude      *float64       `json:"latitude,omitempty"`
	Longitude     *float64       `json:"longitude,omitempty"`
	RoadDistances map[string]int `json:"road_distances,omitempty"`

	// Bus fields.
	Stops       []string `json:"stops,omitempty"`
	IsRoundTrip bool     `json:"is_roundtrip"`
}

// StatRequest is one query against the loaded catalogue.
type StatRequest struct {
	ID   int    `json:"id"`
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
	From string `json:"from,omitempty"`
	To   string `json:"to,omitempty"`
}

// Response is the answer to one stat request.
type Response interface {
	requestID() int
}

// BusResponse answers a Bus request.
type BusResponse struct {
	RequestID       int     `json:"request_id"`
	Curvature       float64 `json:"curvature"`
	RouteLength     float64 `json:"route_length"`
	StopCount       int     `json:"stop_count"`
	UniqueStopCount int     `json:"unique_stop_count"`
}

// StopResponse answers a Stop request.
type StopResponse struct {
	RequestID int      `json:"request_id"`
	Buses     []string `json:"buses"`
}

// MapResponse answers a Map request with the SVG document.
type MapResponse struct {
	RequestID int    `json:"request_id"`
	Map       string `json:"map"`
}

// RouteResponse answers a Route request.
type RouteResponse struct {
	RequestID int         `json:"request_id"`
	TotalTime float64     `json:"total_time"`
	Items     []RouteItem `json:"items"`
}

// RouteItem is one journey leg: Wait carries the stop name, Bus carries the
// bus name and the number of spans ridden.
type RouteItem struct {
	Type      string  `json:"type"`
	StopName  string  `json:"stop_name,omitempty"`
	Bus       string  `json:"bus,omitempty"`
	SpanCount int     `json:"span_count,omitempty"`
	Time      float64 `json:"time"`
}

// ErrorResponse answers a request that cannot be satisfied.
type ErrorResponse struct {
	RequestID    int    `json:"request_id"`
	ErrorMessage string `json:"error_message"`
}

func (r BusResponse) requestID() int   { return r.RequestID }
func (r StopResponse) requestID() int  { return r.RequestID }
func (r MapResponse) requestID() int   { return r.RequestID }
func (r RouteResponse) requestID() int { return r.RequestID }
func (r ErrorResponse) requestID() int { return r.RequestID }
