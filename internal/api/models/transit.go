package models

import "github.com/megannnn98/transport-catalogue/internal/requests"

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Stop describes a stop and the buses serving it.
type Stop struct {
	Name        string      `json:"name"`
	Coordinates Coordinates `json:"coordinates"`
	Buses       []string    `json:"buses"`
}

// StopList is the body of GET /v1/stops.
type StopList struct {
	Items []Stop `json:"items"`
	Count int    `json:"count"`
}

// Bus describes a bus together with its route statistics.
type Bus struct {
	Name            string   `json:"name"`
	IsRoundTrip     bool     `json:"isRoundTrip"`
	Stops           []string `json:"stops"`
	StopCount       int      `json:"stopCount"`
	UniqueStopCount int      `json:"uniqueStopCount"`
	RouteLength     float64  `json:"routeLength"`
	Curvature       float64  `json:"curvature"`
	// Geometry is the logical route as WKT, omitted in listings.
	Geometry string `json:"geometry,omitempty"`
	// Polyline is the same route in Google's encoded polyline format.
	Polyline string `json:"polyline,omitempty"`
}

// BusList is the body of GET /v1/buses.
type BusList struct {
	Items []Bus `json:"items"`
	Count int   `json:"count"`
}

// RouteQuery holds the query parameters of GET /v1/routes.
type RouteQuery struct {
	From string `validate:"required,max=256"`
	To   string `validate:"required,max=256"`
}

// Route is the body of GET /v1/routes.
type Route struct {
	From      string               `json:"from"`
	To        string               `json:"to"`
	TotalTime float64              `json:"totalTime"`
	Items     []requests.RouteItem `json:"items"`
}

// StatRequestsBody is the body of POST /v1/requests.
type StatRequestsBody struct {
	StatRequests []requests.StatRequest `json:"stat_requests" validate:"required,max=1000"`
}
