package snapshot

import (
	"encoding/json"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/megannnn98/transport-catalogue/internal/mapview"
	"github.com/megannnn98/transport-catalogue/internal/router"
)

// Field numbers of the snapshot wire schema:
//
//	message Catalogue { repeated Stop stops = 1; repeated Bus buses = 2;
//	                    repeated Distance distances = 3; Routing routing = 4;
//	                    bytes render_json = 5; }
//	message Stop      { string name = 1; double lat = 2; double lng = 3; }
//	message Bus       { string name = 1; repeated string stops = 2; bool is_round_trip = 3; }
//	message Distance  { string from = 1; string to = 2; uint64 meters = 3; }
//	message Routing   { uint64 bus_wait_time = 1; double bus_velocity = 2; }
const (
	fieldStops     protowire.Number = 1
	fieldBuses     protowire.Number = 2
	fieldDistances protowire.Number = 3
	fieldRouting   protowire.Number = 4
	fieldRender    protowire.Number = 5

	fieldStopName protowire.Number = 1
	fieldStopLat  protowire.Number = 2
	fieldStopLng  protowire.Number = 3

	fieldBusName      protowire.Number = 1
	fieldBusStops     protowire.Number = 2
	fieldBusRoundTrip protowire.Number = 3

	fieldDistanceFrom   protowire.Number = 1
	fieldDistanceTo     protowire.Number = 2
	fieldDistanceMeters protowire.Number = 3

	fieldRoutingWait     protowire.Number = 1
	fieldRoutingVelocity protowire.Number = 2
)

// Marshal encodes the snapshot in protobuf wire format.
func Marshal(s *Snapshot) ([]byte, error) {
	var b []byte
	for _, stop := range s.Stops {
		var m []byte
		m = protowire.AppendTag(m, fieldStopName, protowire.BytesType)
		m = protowire.AppendString(m, stop.Name)
		m = appendDouble(m, fieldStopLat, stop.Lat)
		m = appendDouble(m, fieldStopLng, stop.Lng)
		b = appendMessage(b, fieldStops, m)
	}
	for _, bus := range s.Buses {
		var m []byte
		m = protowire.AppendTag(m, fieldBusName, protowire.BytesType)
		m = protowire.AppendString(m, bus.Name)
		for _, stop := range bus.Stops {
			m = protowire.AppendTag(m, fieldBusStops, protowire.BytesType)
			m = protowire.AppendString(m, stop)
		}
		m = protowire.AppendTag(m, fieldBusRoundTrip, protowire.VarintType)
		m = protowire.AppendVarint(m, protowire.EncodeBool(bus.IsRoundTrip))
		b = appendMessage(b, fieldBuses, m)
	}
	for _, d := range s.Distances {
		if d.Meters < 0 {
			return nil, fmt.Errorf("marshal snapshot: negative distance %s -> %s", d.From, d.To)
		}
		var m []byte
		m = protowire.AppendTag(m, fieldDistanceFrom, protowire.BytesType)
		m = protowire.AppendString(m, d.From)
		m = protowire.AppendTag(m, fieldDistanceTo, protowire.BytesType)
		m = protowire.AppendString(m, d.To)
		m = protowire.AppendTag(m, fieldDistanceMeters, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(d.Meters))
		b = appendMessage(b, fieldDistances, m)
	}
	if s.Routing != nil {
		var m []byte
		m = protowire.AppendTag(m, fieldRoutingWait, protowire.VarintType)
		m = protowire.AppendVarint(m, uint64(s.Routing.BusWaitTime))
		m = appendDouble(m, fieldRoutingVelocity, s.Routing.BusVelocity)
		b = appendMessage(b, fieldRouting, m)
	}
	if s.Render != nil {
		raw, err := json.Marshal(s.Render)
		if err != nil {
			return nil, fmt.Errorf("marshal render settings: %w", err)
		}
		b = appendMessage(b, fieldRender, raw)
	}
	return b, nil
}

func appendMessage(b []byte, num protowire.Number, m []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, m)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// Unmarshal decodes a snapshot. Unknown fields are skipped.
func Unmarshal(b []byte) (*Snapshot, error) {
	s := &Snapshot{}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		if typ != protowire.BytesType {
			return skip(num, typ, v)
		}
		m, n := protowire.ConsumeBytes(v)
		if n < 0 {
			return 0, protowire.ParseError(n)
		}
		switch num {
		case fieldStops:
			stop, err := unmarshalStop(m)
			if err != nil {
				return 0, err
			}
			s.Stops = append(s.Stops, stop)
		case fieldBuses:
			bus, err := unmarshalBus(m)
			if err != nil {
				return 0, err
			}
			s.Buses = append(s.Buses, bus)
		case fieldDistances:
			d, err := unmarshalDistance(m)
			if err != nil {
				return 0, err
			}
			s.Distances = append(s.Distances, d)
		case fieldRouting:
			routing, err := unmarshalRouting(m)
			if err != nil {
				return 0, err
			}
			s.Routing = &routing
		case fieldRender:
			var render mapview.Settings
			if err := json.Unmarshal(m, &render); err != nil {
				return 0, fmt.Errorf("render settings: %w", err)
			}
			s.Render = &render
		}
		return n, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return s, nil
}

// walk calls fn for every field of a message. fn returns the length of the
// value it consumed.
func walk(b []byte, fn func(num protowire.Number, typ protowire.Type, v []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return protowire.ParseError(n)
		}
		b = b[n:]
		m, err := fn(num, typ, b)
		if err != nil {
			return err
		}
		b = b[m:]
	}
	return nil
}

func skip(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, v)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func consumeString(typ protowire.Type, v []byte) (string, int, error) {
	if typ != protowire.BytesType {
		return "", 0, fmt.Errorf("want bytes, got wire type %d", typ)
	}
	s, n := protowire.ConsumeString(v)
	if n < 0 {
		return "", 0, protowire.ParseError(n)
	}
	return s, n, nil
}

func consumeDouble(typ protowire.Type, v []byte) (float64, int, error) {
	if typ != protowire.Fixed64Type {
		return 0, 0, fmt.Errorf("want fixed64, got wire type %d", typ)
	}
	bits, n := protowire.ConsumeFixed64(v)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return math.Float64frombits(bits), n, nil
}

func consumeVarint(typ protowire.Type, v []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, fmt.Errorf("want varint, got wire type %d", typ)
	}
	x, n := protowire.ConsumeVarint(v)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return x, n, nil
}

func unmarshalStop(b []byte) (Stop, error) {
	var stop Stop
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		var n int
		var err error
		switch num {
		case fieldStopName:
			stop.Name, n, err = consumeString(typ, v)
		case fieldStopLat:
			stop.Lat, n, err = consumeDouble(typ, v)
		case fieldStopLng:
			stop.Lng, n, err = consumeDouble(typ, v)
		default:
			return skip(num, typ, v)
		}
		return n, err
	})
	if err != nil {
		return Stop{}, fmt.Errorf("stop: %w", err)
	}
	return stop, nil
}

func unmarshalBus(b []byte) (Bus, error) {
	bus := Bus{Stops: []string{}}
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case fieldBusName:
			name, n, err := consumeString(typ, v)
			bus.Name = name
			return n, err
		case fieldBusStops:
			stop, n, err := consumeString(typ, v)
			if err == nil {
				bus.Stops = append(bus.Stops, stop)
			}
			return n, err
		case fieldBusRoundTrip:
			x, n, err := consumeVarint(typ, v)
			bus.IsRoundTrip = protowire.DecodeBool(x)
			return n, err
		default:
			return skip(num, typ, v)
		}
	})
	if err != nil {
		return Bus{}, fmt.Errorf("bus: %w", err)
	}
	return bus, nil
}

func unmarshalDistance(b []byte) (Distance, error) {
	var d Distance
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case fieldDistanceFrom:
			s, n, err := consumeString(typ, v)
			d.From = s
			return n, err
		case fieldDistanceTo:
			s, n, err := consumeString(typ, v)
			d.To = s
			return n, err
		case fieldDistanceMeters:
			x, n, err := consumeVarint(typ, v)
			if err == nil && x > math.MaxInt32 {
				err = fmt.Errorf("meters out of range: %d", x)
			}
			d.Meters = int(x)
			return n, err
		default:
			return skip(num, typ, v)
		}
	})
	if err != nil {
		return Distance{}, fmt.Errorf("distance: %w", err)
	}
	return d, nil
}

func unmarshalRouting(b []byte) (router.Settings, error) {
	var s router.Settings
	err := walk(b, func(num protowire.Number, typ protowire.Type, v []byte) (int, error) {
		switch num {
		case fieldRoutingWait:
			x, n, err := consumeVarint(typ, v)
			if err == nil && x > math.MaxInt32 {
				err = fmt.Errorf("bus wait time out of range: %d", x)
			}
			s.BusWaitTime = int(x)
			return n, err
		case fieldRoutingVelocity:
			velocity, n, err := consumeDouble(typ, v)
			s.BusVelocity = velocity
			return n, err
		default:
			return skip(num, typ, v)
		}
	})
	if err != nil {
		return router.Settings{}, fmt.Errorf("routing: %w", err)
	}
	return s, nil
}
