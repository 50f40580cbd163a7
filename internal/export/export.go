// Package export re-emits the executed toolpath as portable G-code. It is
// a renderer implementation: the simulator has already resolved modal
// state and relative coordinates, so the output is plain absolute
// millimeter moves any controller understands.
package export

import (
	"bufio"
	"fmt"
	"os"

	ngc "github.com/256dpi/gcode"

	"github.com/agalakhov/millsim/internal/gcode"
	"github.com/agalakhov/millsim/internal/render"
)

// Generator records render calls and writes a normalized G-code file on
// Finalize.
type Generator struct {
	path string
	file ngc.File
	pos  *render.Point
}

// NewGenerator creates a generator that writes to path on Finalize.
func NewGenerator(path string) *Generator {
	g := &Generator{path: path}
	g.file.Lines = append(g.file.Lines,
		ngc.Line{Comment: "exported by millsim"},
		// Millimeter units, absolute coordinates.
		ngc.Line{Codes: []ngc.GCode{
			{Letter: "G", Value: 21},
			{Letter: "G", Value: 90},
		}},
	)
	return g
}

// LineTo implements render.Renderer.
func (g *Generator) LineTo(tool gcode.Micrometer, kind render.LineKind, point render.Point, height gcode.Micrometer) {
	move := 0.0
	if kind == render.Cut {
		move = 1.0
	}
	g.file.Lines = append(g.file.Lines, ngc.Line{Codes: []ngc.GCode{
		{Letter: "G", Value: move},
		{Letter: "X", Value: point.X.MM()},
		{Letter: "Y", Value: point.Y.MM()},
		{Letter: "Z", Value: height.MM()},
	}})
	g.pos = &point
}

// ArcTo implements render.Renderer. Arc centers are emitted as I/J
// offsets relative to the start point.
func (g *Generator) ArcTo(tool gcode.Micrometer, kind render.ArcKind, center, end render.Point) {
	if g.pos == nil {
		// An arc cannot be the first motion; the simulator rejects such
		// programs before rendering.
		return
	}
	move := 2.0
	if kind == render.Ccw {
		move = 3.0
	}
	g.file.Lines = append(g.file.Lines, ngc.Line{Codes: []ngc.GCode{
		{Letter: "G", Value: move},
		{Letter: "X", Value: end.X.MM()},
		{Letter: "Y", Value: end.Y.MM()},
		{Letter: "I", Value: (center.X - g.pos.X).MM()},
		{Letter: "J", Value: (center.Y - g.pos.Y).MM()},
	}})
	g.pos = &end
}

// Finalize implements render.Renderer. It writes the collected program.
func (g *Generator) Finalize() error {
	fd, err := os.Create(g.path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer fd.Close()

	w := bufio.NewWriter(fd)
	if err := ngc.WriteFile(w, &g.file); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}
	return nil
}

// Lines returns the generated program so far, one string per line.
func (g *Generator) Lines() []string {
	lines := make([]string, 0, len(g.file.Lines))
	for _, l := range g.file.Lines {
		lines = append(lines, l.String())
	}
	return lines
}
