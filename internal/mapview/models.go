// Package mapview renders the bus network as an SVG map and as GeoJSON.
package mapview

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidSettings indicates render settings that cannot produce a map.
var ErrInvalidSettings = errors.New("invalid render settings")

var validate = validator.New()

// Settings control the geometry and palette of the rendered map.
type Settings struct {
	Width             float64 `json:"width" validate:"gt=0,lte=100000"`
	Height            float64 `json:"height" validate:"gt=0,lte=100000"`
	Padding           float64 `json:"padding" validate:"gte=0"`
	LineWidth         float64 `json:"line_width" validate:"gte=0,lte=100000"`
	StopRadius        float64 `json:"stop_radius" validate:"gte=0,lte=100000"`
	BusLabelFontSize  int     `json:"bus_label_font_size" validate:"gte=0,lte=100000"`
	BusLabelOffset    Point   `json:"bus_label_offset"`
	StopLabelFontSize int     `json:"stop_label_font_size" validate:"gte=0,lte=100000"`
	StopLabelOffset   Point   `json:"stop_label_offset"`
	UnderlayerColor   Color   `json:"underlayer_color"`
	UnderlayerWidth   float64 `json:"underlayer_width" validate:"gte=0,lte=100000"`
	ColorPalette      []Color `json:"color_palette" validate:"min=1"`
}

// Validate checks the settings ranges. Padding must leave room for the map.
func (s Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}
	if 2*s.Padding >= s.Width || 2*s.Padding >= s.Height {
		return fmt.Errorf("%w: padding %g does not fit %gx%g", ErrInvalidSettings, s.Padding, s.Width, s.Height)
	}
	return nil
}

// Point is a position or offset on the canvas, encoded as [x, y].
type Point struct {
	X float64
	Y float64
}

// MarshalJSON encodes the point as a two element array.
func (p Point) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]float64{p.X, p.Y})
}

// UnmarshalJSON decodes a two element array.
func (p *Point) UnmarshalJSON(data []byte) error {
	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("point: %w", err)
	}
	if len(arr) != 2 {
		return fmt.Errorf("point: want 2 elements, got %d", len(arr))
	}
	p.X, p.Y = arr[0], arr[1]
	return nil
}

type colorKind int

const (
	colorNone colorKind = iota
	colorNamed
	colorRGB
	colorRGBA
)

// Color is an SVG paint: none, a named colour, rgb or rgba.
// In JSON it is a string, [r, g, b] or [r, g, b, opacity].
type Color struct {
	kind    colorKind
	name    string
	r, g, b uint8
	opacity float64
}

// NamedColor returns a colour referenced by name, e.g. "white".
func NamedColor(name string) Color {
	return Color{kind: colorNamed, name: name}
}

// RGB returns an opaque colour.
func RGB(r, g, b uint8) Color {
	return Color{kind: colorRGB, r: r, g: g, b: b}
}

// RGBA returns a colour with opacity in [0, 1].
func RGBA(r, g, b uint8, opacity float64) Color {
	return Color{kind: colorRGBA, r: r, g: g, b: b, opacity: opacity}
}

// String returns the SVG attribute value.
func (c Color) String() string {
	switch c.kind {
	case colorNamed:
		return c.name
	case colorRGB:
		return fmt.Sprintf("rgb(%d,%d,%d)", c.r, c.g, c.b)
	case colorRGBA:
		return fmt.Sprintf("rgba(%d,%d,%d,%s)", c.r, c.g, c.b, formatNumber(c.opacity))
	default:
		return "none"
	}
}

// MarshalJSON encodes the colour in its document form.
func (c Color) MarshalJSON() ([]byte, error) {
	switch c.kind {
	case colorNamed:
		return json.Marshal(c.name)
	case colorRGB:
		return json.Marshal([]int{int(c.r), int(c.g), int(c.b)})
	case colorRGBA:
		return json.Marshal([]any{int(c.r), int(c.g), int(c.b), c.opacity})
	default:
		return json.Marshal("none")
	}
}

// UnmarshalJSON decodes a string, [r, g, b] or [r, g, b, opacity].
func (c *Color) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*c = NamedColor(name)
		return nil
	}

	var arr []float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return fmt.Errorf("color: want string or array: %w", err)
	}
	if len(arr) != 3 && len(arr) != 4 {
		return fmt.Errorf("color: want 3 or 4 components, got %d", len(arr))
	}
	var rgb [3]uint8
	for i := 0; i < 3; i++ {
		if arr[i] < 0 || arr[i] > 255 || arr[i] != float64(int(arr[i])) {
			return fmt.Errorf("color: component %d out of range: %g", i, arr[i])
		}
		rgb[i] = uint8(arr[i])
	}
	if len(arr) == 3 {
		*c = RGB(rgb[0], rgb[1], rgb[2])
		return nil
	}
	if arr[3] < 0 || arr[3] > 1 {
		return fmt.Errorf("color: opacity out of range: %g", arr[3])
	}
	*c = RGBA(rgb[0], rgb[1], rgb[2], arr[3])
	return nil
}

// formatNumber prints a float the way SVG attributes expect it.
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}
