package render

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/agalakhov/millsim/internal/gcode"
)

// Canvas size of the drawing, millimeters. The viewBox is centered on the
// machine origin.
const (
	svgWidth  = 400.0
	svgHeight = 200.0
)

// Stock is an optional material rectangle drawn under the toolpath.
// Dimensions and the origin offset are millimeters.
type Stock struct {
	Width   float64
	Height  float64
	CenterX float64
	CenterY float64
}

// SVG renders the toolpath as a vector drawing. Segments are buffered and
// grouped into path items; a new item starts whenever the tool width or
// the line kind changes. Everything is written on Finalize.
type SVG struct {
	path     string
	stock    *Stock
	items    []drawingItem
	current  *drawingItem
	position *Point
}

// NewSVG creates a renderer that writes the drawing to path on Finalize.
func NewSVG(path string) *SVG {
	return &SVG{path: path}
}

// SetStock adds a material rectangle under the toolpath.
func (s *SVG) SetStock(stock Stock) {
	s.stock = &stock
}

// prepare returns the current drawing item, starting a new one when the
// pen changes. The new item re-anchors at the current position.
func (s *SVG) prepare(tool gcode.Micrometer, kind LineKind) *drawingItem {
	if s.current == nil {
		s.current = &drawingItem{kind: kind, width: tool.MM()}
		return s.current
	}
	if s.current.width != tool.MM() || s.current.kind != kind {
		next := &drawingItem{kind: kind, width: tool.MM()}
		if s.position != nil {
			next.path = append(next.path, pathEl{op: opMove, end: *s.position})
		}
		s.items = append(s.items, *s.current)
		s.current = next
	}
	return s.current
}

// LineTo implements Renderer.
func (s *SVG) LineTo(tool gcode.Micrometer, kind LineKind, point Point, height gcode.Micrometer) {
	oldPos := s.position
	it := s.prepare(tool, kind)
	if oldPos == nil || *oldPos != point {
		op := opLine
		if len(it.path) == 0 {
			op = opMove
		}
		it.path = append(it.path, pathEl{op: op, end: point})
	}
	s.position = &point
}

// ArcTo implements Renderer.
func (s *SVG) ArcTo(tool gcode.Micrometer, kind ArcKind, center, end Point) {
	if s.position == nil {
		panic("bug: arc with no start position")
	}
	start := *s.position
	it := s.prepare(tool, Cut)

	r := math.Hypot((end.X - center.X).MM(), (end.Y - center.Y).MM())

	if start == end {
		// A full circle degenerates in SVG arc syntax; draw two halves
		// through the diametrically opposite point.
		mid := Point{
			X: center.X + center.X - end.X,
			Y: center.Y + center.Y - end.Y,
		}
		flags := smallRight
		if kind == Ccw {
			flags = smallLeft
		}
		it.path = append(it.path,
			pathEl{op: opArc, end: mid, r: r, arc: flags},
			pathEl{op: opArc, end: end, r: r, arc: flags},
		)
	} else {
		a1 := math.Atan2((start.Y - center.Y).MM(), (start.X - center.X).MM())
		a2 := math.Atan2((end.Y - center.Y).MM(), (end.X - center.X).MM())
		a := a2 - a1
		if kind == Cw {
			a = a1 - a2
		}
		a = a * 180.0 / math.Pi
		if a < 0 {
			a += 360.0
		}

		var flags arcFlags
		switch {
		case a > 180.0 && kind == Cw:
			flags = largeRight
		case a > 180.0:
			flags = largeLeft
		case kind == Cw:
			flags = smallRight
		default:
			flags = smallLeft
		}
		it.path = append(it.path, pathEl{op: opArc, end: end, r: r, arc: flags})
	}

	s.position = &end
}

// Finalize implements Renderer. It writes the whole drawing to the target
// file.
func (s *SVG) Finalize() error {
	if s.current != nil {
		s.items = append(s.items, *s.current)
		s.current = nil
	}

	fd, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create drawing file: %w", err)
	}
	defer fd.Close()

	w := bufio.NewWriter(fd)
	if err := s.encode(w); err != nil {
		return fmt.Errorf("failed to write drawing: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush drawing: %w", err)
	}
	return nil
}

func (s *SVG) encode(w io.Writer) error {
	left := -svgWidth / 2.0
	bottom := -svgHeight / 2.0
	if _, err := fmt.Fprintf(w,
		"<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%vmm\" height=\"%vmm\" viewBox=\"%v %v %v %v\">\n",
		svgWidth, svgHeight, left, bottom, svgWidth, svgHeight); err != nil {
		return err
	}

	if s.stock != nil {
		x := -s.stock.CenterX
		y := s.stock.CenterY - s.stock.Height
		if _, err := fmt.Fprintf(w,
			"<rect x=\"%v\" y=\"%v\" width=\"%v\" height=\"%v\" stroke=\"none\" fill=\"grey\" />",
			x, y, s.stock.Width, s.stock.Height); err != nil {
			return err
		}
	}

	for _, item := range s.items {
		color, opacity := "green", 0.9
		if item.kind == Fast {
			color, opacity = "blue", 0.2
		}
		if _, err := fmt.Fprintf(w,
			"<path fill=\"none\" stroke=\"%s\" stroke-width=\"%v\" stroke-opacity=\"%v\" d=\"",
			color, item.width, opacity); err != nil {
			return err
		}
		for _, el := range item.path {
			if _, err := io.WriteString(w, el.String()); err != nil {
				return err
			}
		}
		if _, err := io.WriteString(w, "\" stroke-linecap=\"round\" stroke-linejoin=\"round\"/>\n"); err != nil {
			return err
		}
	}

	_, err := io.WriteString(w, "</svg>\n")
	return err
}

type pathOp int

const (
	opMove pathOp = iota
	opLine
	opArc
)

// arcFlags selects the SVG large-arc and sweep flags.
type arcFlags struct {
	large int
	sweep int
}

var (
	smallLeft  = arcFlags{large: 0, sweep: 0}
	smallRight = arcFlags{large: 0, sweep: 1}
	largeLeft  = arcFlags{large: 1, sweep: 0}
	largeRight = arcFlags{large: 1, sweep: 1}
)

// pathEl is one element of an SVG path. The drawing flips the Y axis so
// that machine +Y points up.
type pathEl struct {
	op  pathOp
	end Point
	r   float64
	arc arcFlags
}

func (e pathEl) String() string {
	x := e.end.X.String()
	y := (-e.end.Y).String()
	switch e.op {
	case opMove:
		return fmt.Sprintf("M%s %s", x, y)
	case opLine:
		return fmt.Sprintf("L%s %s", x, y)
	case opArc:
		r := strconv.FormatFloat(e.r, 'f', -1, 64)
		return fmt.Sprintf("A%s %s 0 %d %d %s %s", r, r, e.arc.large, e.arc.sweep, x, y)
	}
	return ""
}

// drawingItem is one stroked path with uniform pen attributes.
type drawingItem struct {
	kind  LineKind
	width float64 // millimeters
	path  []pathEl
}
