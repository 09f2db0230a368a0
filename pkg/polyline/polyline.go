// Package polyline encodes stop sequences with Google's polyline algorithm.
// The algorithm is documented at: https://developers.google.com/maps/documentation/utilities/polylinealgorithm
package polyline

import (
	"errors"
	"math"

	"github.com/megannnn98/transport-catalogue/internal/geo"
)

// precision is the number of decimal places kept (the standard Google format).
const precision = 1e5

// ErrMalformed indicates an encoded string that ends mid-value or contains
// characters outside the polyline alphabet.
var ErrMalformed = errors.New("malformed polyline")

// Encode encodes a sequence of coordinates. An empty sequence encodes to "".
func Encode(points []geo.Coordinates) string {
	if len(points) == 0 {
		return ""
	}

	encoded := make([]byte, 0, len(points)*6)
	var prevLat, prevLng int
	for _, p := range points {
		lat := int(math.Round(p.Lat * precision))
		lng := int(math.Round(p.Lng * precision))

		encoded = appendValue(encoded, lat-prevLat)
		encoded = appendValue(encoded, lng-prevLng)

		prevLat, prevLng = lat, lng
	}
	return string(encoded)
}

// appendValue appends one signed delta in 5-bit chunks.
func appendValue(buf []byte, value int) []byte {
	if value < 0 {
		value = ^(value << 1)
	} else {
		value <<= 1
	}

	for value >= 0x20 {
		buf = append(buf, byte((value&0x1f)|0x20)+63)
		value >>= 5
	}
	return append(buf, byte(value)+63)
}

// Decode decodes an encoded string back into coordinates.
func Decode(encoded string) ([]geo.Coordinates, error) {
	var (
		points   []geo.Coordinates
		lat, lng int
		index    int
	)
	for index < len(encoded) {
		dLat, next, err := readValue(encoded, index)
		if err != nil {
			return nil, err
		}
		dLng, next, err := readValue(encoded, next)
		if err != nil {
			return nil, err
		}
		index = next

		lat += dLat
		lng += dLng
		points = append(points, geo.Coordinates{
			Lat: float64(lat) / precision,
			Lng: float64(lng) / precision,
		})
	}
	return points, nil
}

// readValue reads the delta starting at index and returns it with the index
// of the next value.
func readValue(encoded string, index int) (int, int, error) {
	var result, shift int
	for {
		if index >= len(encoded) {
			return 0, 0, ErrMalformed
		}
		b := int(encoded[index]) - 63
		if b < 0 || b > 0x3f {
			return 0, 0, ErrMalformed
		}
		index++
		result |= (b & 0x1f) << shift
		shift += 5
		if b < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), index, nil
	}
	return result >> 1, index, nil
}
