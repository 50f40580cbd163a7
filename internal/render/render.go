// Package render defines the drawing sink the simulator speaks to, plus
// the bundled back-ends. Renderers are pure side-effect sinks; the
// simulator never consults them for correctness.
package render

import "github.com/agalakhov/millsim/internal/gcode"

// Point is a position in the XY plane.
type Point struct {
	X gcode.Micrometer
	Y gcode.Micrometer
}

// LineKind distinguishes rapid traverses from cuts.
type LineKind int

const (
	// Fast is a non-cutting rapid traverse.
	Fast LineKind = iota
	// Cut is a cutting move.
	Cut
)

// ArcKind is the direction of a circular move.
type ArcKind int

const (
	// Cw is a clockwise arc.
	Cw ArcKind = iota
	// Ccw is a counter-clockwise arc.
	Ccw
)

// Renderer receives the resolved toolpath. Implementations own their
// drawing state and may buffer until Finalize.
type Renderer interface {
	// LineTo draws a straight segment from the current position to point.
	LineTo(tool gcode.Micrometer, kind LineKind, point Point, height gcode.Micrometer)
	// ArcTo draws an arc from the current position to end around center.
	ArcTo(tool gcode.Micrometer, kind ArcKind, center, end Point)
	// Finalize flushes the drawing and performs any I/O.
	Finalize() error
}

// Nop is a renderer that draws nothing.
type Nop struct{}

// LineTo implements Renderer.
func (Nop) LineTo(gcode.Micrometer, LineKind, Point, gcode.Micrometer) {}

// ArcTo implements Renderer.
func (Nop) ArcTo(gcode.Micrometer, ArcKind, Point, Point) {}

// Finalize implements Renderer.
func (Nop) Finalize() error { return nil }

// Multi fans the toolpath out to several renderers. Finalize finalizes
// all of them and reports the first failure.
func Multi(renderers ...Renderer) Renderer {
	return multi(renderers)
}

type multi []Renderer

func (m multi) LineTo(tool gcode.Micrometer, kind LineKind, point Point, height gcode.Micrometer) {
	for _, r := range m {
		r.LineTo(tool, kind, point, height)
	}
}

func (m multi) ArcTo(tool gcode.Micrometer, kind ArcKind, center, end Point) {
	for _, r := range m {
		r.ArcTo(tool, kind, center, end)
	}
}

func (m multi) Finalize() error {
	var first error
	for _, r := range m {
		if err := r.Finalize(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
