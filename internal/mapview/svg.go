package mapview

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"

	"github.com/megannnn98/transport-catalogue/internal/catalogue"
	"github.com/megannnn98/transport-catalogue/internal/geo"
)

const (
	fontFamily     = "Verdana"
	busLabelWeight = "bold"
)

var (
	stopFill      = NamedColor("white")
	stopLabelFill = NamedColor("black")
)

// Renderer draws catalogue maps with fixed settings.
type Renderer struct {
	settings Settings
}

// NewRenderer validates the settings and returns a renderer.
func NewRenderer(settings Settings) (*Renderer, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &Renderer{settings: settings}, nil
}

// Settings returns the render settings.
func (r *Renderer) Settings() Settings {
	return r.settings
}

// layout is the subset of the catalogue a map is drawn from.
type layout struct {
	buses     []catalogue.Bus
	stops     []catalogue.Stop
	coords    map[catalogue.StopID]geo.Coordinates
	projector Projector
}

func (r *Renderer) layout(cat *catalogue.Catalogue) layout {
	l := layout{coords: make(map[catalogue.StopID]geo.Coordinates)}
	for _, bus := range cat.Buses() {
		if len(bus.Stops) > 0 {
			l.buses = append(l.buses, bus)
		}
	}

	points := make([]geo.Coordinates, 0)
	for _, stop := range cat.Stops() {
		if !cat.IsServed(stop.ID) {
			continue
		}
		l.stops = append(l.stops, stop)
		l.coords[stop.ID] = stop.Coordinates
		points = append(points, stop.Coordinates)
	}
	l.projector = NewProjector(points, r.settings.Width, r.settings.Height, r.settings.Padding)
	return l
}

func (l layout) project(id catalogue.StopID) Point {
	return l.projector.Project(l.coords[id])
}

// Render writes the SVG document for the catalogue.
//
// Layers are drawn in order: route lines, bus labels, stop circles and stop
// labels. Buses and stops are ordered by name, only buses with stops are drawn
// and only stops visited by a bus appear on the map.
func (r *Renderer) Render(w io.Writer, cat *catalogue.Catalogue) error {
	l := r.layout(cat)
	s := r.settings

	out := &svgWriter{w: bufio.NewWriter(w)}
	out.raw(`<?xml version="1.0" encoding="UTF-8" ?>` + "\n")
	out.raw(`<svg xmlns="http://www.w3.org/2000/svg" version="1.1">` + "\n")

	for i, bus := range l.buses {
		color := s.ColorPalette[i%len(s.ColorPalette)]
		route := bus.LogicalRoute()
		points := make([]Point, len(route))
		for j, id := range route {
			points[j] = l.project(id)
		}
		out.polyline(points, color, s.LineWidth)
	}

	for i, bus := range l.buses {
		color := s.ColorPalette[i%len(s.ColorPalette)]
		first := bus.Stops[0]
		r.busLabel(out, l.project(first), bus.Name, color)
		if last, ok := bus.FinalStop(); ok && !bus.IsRoundTrip && last != first {
			r.busLabel(out, l.project(last), bus.Name, color)
		}
	}

	for _, stop := range l.stops {
		out.circle(l.project(stop.ID), s.StopRadius, stopFill)
	}

	for _, stop := range l.stops {
		pos := l.project(stop.ID)
		out.text(textProps{
			pos: pos, offset: s.StopLabelOffset, fontSize: s.StopLabelFontSize,
			fill: s.UnderlayerColor, stroke: &s.UnderlayerColor, strokeWidth: s.UnderlayerWidth,
		}, stop.Name)
		out.text(textProps{
			pos: pos, offset: s.StopLabelOffset, fontSize: s.StopLabelFontSize,
			fill: stopLabelFill,
		}, stop.Name)
	}

	out.raw("</svg>")
	if out.err != nil {
		return out.err
	}
	return out.w.Flush()
}

// RenderString renders the map into a string.
func (r *Renderer) RenderString(cat *catalogue.Catalogue) (string, error) {
	var sb strings.Builder
	if err := r.Render(&sb, cat); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (r *Renderer) busLabel(out *svgWriter, pos Point, name string, color Color) {
	s := r.settings
	out.text(textProps{
		pos: pos, offset: s.BusLabelOffset, fontSize: s.BusLabelFontSize, weight: busLabelWeight,
		fill: s.UnderlayerColor, stroke: &s.UnderlayerColor, strokeWidth: s.UnderlayerWidth,
	}, name)
	out.text(textProps{
		pos: pos, offset: s.BusLabelOffset, fontSize: s.BusLabelFontSize, weight: busLabelWeight,
		fill: color,
	}, name)
}

type textProps struct {
	pos         Point
	offset      Point
	fontSize    int
	weight      string
	fill        Color
	stroke      *Color
	strokeWidth float64
}

// svgWriter emits SVG elements and keeps the first write error.
type svgWriter struct {
	w   *bufio.Writer
	err error
}

func (s *svgWriter) raw(str string) {
	if s.err != nil {
		return
	}
	_, s.err = s.w.WriteString(str)
}

func (s *svgWriter) attr(name, value string) {
	s.raw(" " + name + `="` + value + `"`)
}

func (s *svgWriter) roundStroke() {
	s.attr("stroke-linecap", "round")
	s.attr("stroke-linejoin", "round")
}

func (s *svgWriter) polyline(points []Point, stroke Color, width float64) {
	var sb strings.Builder
	for i, p := range points {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(formatNumber(p.X))
		sb.WriteByte(',')
		sb.WriteString(formatNumber(p.Y))
	}
	s.raw("  <polyline")
	s.attr("points", sb.String())
	s.attr("fill", "none")
	s.attr("stroke", stroke.String())
	s.attr("stroke-width", formatNumber(width))
	s.roundStroke()
	s.raw("/>\n")
}

func (s *svgWriter) circle(center Point, radius float64, fill Color) {
	s.raw("  <circle")
	s.attr("cx", formatNumber(center.X))
	s.attr("cy", formatNumber(center.Y))
	s.attr("r", formatNumber(radius))
	s.attr("fill", fill.String())
	s.raw("/>\n")
}

func (s *svgWriter) text(p textProps, data string) {
	s.raw("  <text")
	s.attr("fill", p.fill.String())
	if p.stroke != nil {
		s.attr("stroke", p.stroke.String())
		s.attr("stroke-width", formatNumber(p.strokeWidth))
		s.roundStroke()
	}
	s.attr("x", formatNumber(p.pos.X))
	s.attr("y", formatNumber(p.pos.Y))
	s.attr("dx", formatNumber(p.offset.X))
	s.attr("dy", formatNumber(p.offset.Y))
	s.attr("font-size", formatNumber(float64(p.fontSize)))
	s.attr("font-family", fontFamily)
	if p.weight != "" {
		s.attr("font-weight", p.weight)
	}
	s.raw(">")
	if s.err == nil {
		s.err = xml.EscapeText(s.w, []byte(data))
	}
	s.raw("</text>\n")
}
