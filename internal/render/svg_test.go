package render_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/agalakhov/millsim/internal/gcode"
	"github.com/agalakhov/millsim/internal/render"
)

const tool = gcode.Micrometer(6_000)

func pt(x, y gcode.Micrometer) render.Point {
	return render.Point{X: x, Y: y}
}

func finalizeToString(t *testing.T, draw func(s *render.SVG)) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "out.svg")
	s := render.NewSVG(path)
	draw(s)
	if err := s.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestSVGLines(t *testing.T) {
	out := finalizeToString(t, func(s *render.SVG) {
		s.LineTo(tool, render.Fast, pt(0, 0), 150_000)
		s.LineTo(tool, render.Fast, pt(10_000, 20_000), 150_000)
	})

	if !strings.Contains(out, "<svg xmlns=\"http://www.w3.org/2000/svg\"") {
		t.Errorf("missing svg header in %q", out)
	}
	// The Y axis is flipped in the drawing.
	if !strings.Contains(out, "M0.000 0.000L10.000 -20.000") {
		t.Errorf("missing path data in %q", out)
	}
	if !strings.Contains(out, "stroke=\"blue\"") {
		t.Errorf("rapid moves should be blue: %q", out)
	}
	if !strings.Contains(out, "stroke-width=\"6\"") {
		t.Errorf("missing tool width: %q", out)
	}
}

func TestSVGSplitsItemsOnKindChange(t *testing.T) {
	out := finalizeToString(t, func(s *render.SVG) {
		s.LineTo(tool, render.Fast, pt(0, 0), 150_000)
		s.LineTo(tool, render.Cut, pt(10_000, 0), 0)
	})

	if got := strings.Count(out, "<path "); got != 2 {
		t.Errorf("got %d path items, want 2: %q", got, out)
	}
	if !strings.Contains(out, "stroke=\"green\"") {
		t.Errorf("cuts should be green: %q", out)
	}
	// The cut path re-anchors at the last rapid position.
	if !strings.Contains(out, "M0.000 0.000L10.000 0.000") {
		t.Errorf("cut path not re-anchored: %q", out)
	}
}

func TestSVGArc(t *testing.T) {
	out := finalizeToString(t, func(s *render.SVG) {
		s.LineTo(tool, render.Cut, pt(0, 0), 0)
		// Counter-clockwise half circle down and under to (10, 0) around (5, 0).
		s.ArcTo(tool, render.Ccw, pt(5_000, 0), pt(10_000, 0))
	})

	if !strings.Contains(out, "A5 5 0 0 0 10.000 0.000") {
		t.Errorf("missing arc element: %q", out)
	}
}

func TestSVGFullCircle(t *testing.T) {
	out := finalizeToString(t, func(s *render.SVG) {
		s.LineTo(tool, render.Cut, pt(0, 0), 0)
		s.ArcTo(tool, render.Cw, pt(5_000, 0), pt(0, 0))
	})

	// A full circle renders as two half arcs through the far point.
	if got := strings.Count(out, "A5 5 0 "); got != 2 {
		t.Errorf("got %d arc elements, want 2: %q", got, out)
	}
	if !strings.Contains(out, "10.000") {
		t.Errorf("missing far point: %q", out)
	}
}

func TestSVGStock(t *testing.T) {
	out := finalizeToString(t, func(s *render.SVG) {
		s.SetStock(render.Stock{Width: 300, Height: 60.3, CenterX: 300, CenterY: 0})
		s.LineTo(tool, render.Fast, pt(0, 0), 150_000)
	})

	if !strings.Contains(out, "<rect x=\"-300\" y=\"-60.3\" width=\"300\" height=\"60.3\"") {
		t.Errorf("missing stock rectangle: %q", out)
	}
}

func TestNopRenderer(t *testing.T) {
	var r render.Renderer = render.Nop{}
	r.LineTo(tool, render.Fast, pt(0, 0), 0)
	r.ArcTo(tool, render.Cw, pt(0, 0), pt(1, 1))
	if err := r.Finalize(); err != nil {
		t.Errorf("Nop.Finalize: %v", err)
	}
}

func TestMultiRenderer(t *testing.T) {
	path := filepath.Join(t.TempDir(), "multi.svg")
	s := render.NewSVG(path)
	m := render.Multi(render.Nop{}, s)
	m.LineTo(tool, render.Fast, pt(0, 0), 150_000)
	m.LineTo(tool, render.Fast, pt(1_000, 0), 150_000)
	if err := m.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("drawing file not written: %v", err)
	}
}
