package machine

import (
	"math"

	"github.com/agalakhov/millsim/internal/gcode"
	"github.com/agalakhov/millsim/internal/render"
)

// toolDiameter is the width of every tool. A production system would
// derive this from the D word and a tool table.
const toolDiameter = gcode.Micrometer(6_000)

// Machine simulates a milling machine. It consumes one command at a time,
// mutates its state, enforces the safety invariants, and feeds resolved
// motion to the renderer.
type Machine struct {
	cfg    Config
	render render.Renderer
	stats  Stats

	movement *Movement

	x *gcode.Micrometer
	y *gcode.Micrometer
	z *gcode.Micrometer

	speed *uint16
	feed  *uint16
	tool  *uint8

	spindleOn bool
	waterOn   bool
	relative  bool
}

// New creates a machine in its power-on state: position undefined,
// spindle and coolant off, absolute coordinates.
func New(cfg Config, r render.Renderer) *Machine {
	return &Machine{cfg: cfg, render: r}
}

// Stats returns the counters accumulated so far.
func (m *Machine) Stats() Stats {
	return m.stats
}

// Execute runs one command. The evaluation order within a command is fixed
// and significant; see the step comments.
func (m *Machine) Execute(cmd *Command) *gcode.SimpleError {
	m.stats.Lines++

	// Program end is gated before anything else on the line takes effect.
	if cmd.Global != nil && cmd.Global.Kind == EndProgram {
		if m.spindleOn {
			return gcode.Errorf("Program end (M2) with spindle running")
		}
		if m.waterOn {
			return gcode.Errorf("Program end (M2) with coolant running")
		}
		if m.z != nil && *m.z < m.cfg.SafeZ {
			return gcode.Errorf("Program end (M2) below safe Z height")
		}
	}
	if cmd.Global != nil && cmd.Global.Kind == CallSub {
		m.stats.SubCalls++
	}

	// Modal updates. A tool change is flagged when a new tool arrives
	// while one is already mounted; only a tool-change dispatch below
	// legitimizes it.
	upd(&m.speed, cmd.Speed)
	upd(&m.feed, cmd.Feed)
	toolChange := cmd.Tool != nil && m.tool != nil
	upd(&m.tool, cmd.Tool)
	if cmd.Coord != nil {
		m.relative = *cmd.Coord == CoordRelative
	}

	// Coordinate resolution.
	x, y, z := cmd.RawX, cmd.RawY, cmd.RawZ
	if m.relative && (x != nil || y != nil || z != nil) {
		if m.x == nil || m.y == nil || m.z == nil {
			return gcode.Errorf("Relative coordinates can only be used with fully defined position")
		}
		x = offset(x, m.x)
		y = offset(y, m.y)
		z = offset(z, m.z)
	}

	// Movement edge detection.
	newMove := cmd.Movement != nil
	if newMove {
		mv := *cmd.Movement
		m.movement = &mv
	}

	// Spindle switching.
	if cmd.Spindle != nil {
		switch *cmd.Spindle {
		case SpindleOnCW:
			if !m.waterOn {
				return gcode.Errorf("Trying to start spindle without ensuring coolant flow")
			}
			if m.speed == nil {
				return gcode.Errorf("Trying to start spindle without any speed")
			}
			m.spindleOn = true
		case SpindleOnCCW:
			return gcode.Errorf("Trying to start spindle backwards")
		case SpindleOff:
			if newMove {
				return gcode.Errorf("Trying to stop spindle while moving")
			}
			if err := prohibitAxes(cmd); err != nil {
				return err
			}
			m.spindleOn = false
			m.speed = nil
		}
	}

	// Coolant switching.
	if cmd.Water != nil {
		switch *cmd.Water {
		case WaterOn:
			m.waterOn = true
		case WaterOff:
			if newMove {
				return gcode.Errorf("Trying to stop coolant while moving")
			}
			if m.spindleOn {
				return gcode.Errorf("Trying to stop coolant while spindle still running")
			}
			if err := prohibitAxes(cmd); err != nil {
				return err
			}
			m.waterOn = false
		}
	}

	// Movement dispatch.
	anyAxis := cmd.RawX != nil || cmd.RawY != nil || cmd.RawZ != nil
	dispatched := false
	var dispatchedKind MovementKind
	if m.movement != nil && (newMove || anyAxis) {
		dispatched = true
		dispatchedKind = m.movement.Kind
		if err := m.dispatch(cmd, newMove, x, y, z); err != nil {
			return err
		}
	} else if err := prohibitAxes(cmd); err != nil {
		return err
	}

	if toolChange && !(dispatched && dispatchedKind == MoveToolChange) {
		return gcode.Errorf("Tool change without stopping")
	}

	return nil
}

func (m *Machine) dispatch(cmd *Command, newMove bool, x, y, z *gcode.Micrometer) *gcode.SimpleError {
	switch m.movement.Kind {
	case MoveFastLine:
		if newMove {
			if err := prohibit(cmd.Tool, "D"); err != nil {
				return err
			}
		}
		if err := prohibit(cmd.I, "I"); err != nil {
			return err
		}
		if err := prohibit(cmd.J, "J"); err != nil {
			return err
		}

		switch {
		case m.z == nil:
			// No horizontal movement until Z is safe.
			if err := prohibit(cmd.RawX, "X"); err != nil {
				return err
			}
			if err := prohibit(cmd.RawY, "Y"); err != nil {
				return err
			}
			zv, err := require(z, "Z")
			if err != nil {
				return err
			}
			if zv != m.cfg.SafeZ {
				return gcode.Errorf("First movement should be to safe Z height")
			}
			m.z = &zv
		case m.x == nil || m.y == nil:
			if z != nil {
				if *z < m.cfg.SafeZ {
					return gcode.Errorf("Unsafe movement without fully defining the position")
				}
				m.z = z
			}
			if x != nil {
				m.x = x
			}
			if y != nil {
				m.y = y
			}
		default:
			upd(&m.x, x)
			upd(&m.y, y)
			upd(&m.z, z)
		}
		m.stats.RapidMoves++
		m.lineTo(render.Fast)

	case MoveLine:
		if err := prohibit(cmd.Tool, "D"); err != nil {
			return err
		}
		if err := prohibit(cmd.I, "I"); err != nil {
			return err
		}
		if err := prohibit(cmd.J, "J"); err != nil {
			return err
		}
		if err := m.prepareCut(); err != nil {
			return err
		}
		upd(&m.x, x)
		upd(&m.y, y)
		upd(&m.z, z)
		m.stats.CutMoves++
		m.lineTo(render.Cut)

	case MoveCircleCW, MoveCircleCCW:
		if err := prohibit(cmd.Tool, "D"); err != nil {
			return err
		}
		if err := prohibit(cmd.RawZ, "Z"); err != nil {
			return err
		}
		i, err := require(cmd.I, "I")
		if err != nil {
			return err
		}
		j, err := require(cmd.J, "J")
		if err != nil {
			return err
		}
		ex, err := require(x, "X")
		if err != nil {
			return err
		}
		ey, err := require(y, "Y")
		if err != nil {
			return err
		}
		kind := render.Cw
		if m.movement.Kind == MoveCircleCCW {
			kind = render.Ccw
		}
		if err := m.circle(kind, i, j, ex, ey); err != nil {
			return err
		}

	case MoveToolChange:
		if _, err := require(cmd.Tool, "D"); err != nil {
			return err
		}
		if err := prohibitAxes(cmd); err != nil {
			return err
		}
		if m.spindleOn {
			return gcode.Errorf("Trying to change tool with spindle running")
		}
		if m.waterOn {
			return gcode.Errorf("Trying to change tool with coolant running")
		}
		if m.z != nil && *m.z < m.cfg.SafeZ {
			return gcode.Errorf("Must be high enough to perform tool change")
		}
		m.speed = nil
		m.feed = nil
		m.movement = nil
		m.z = nil
		m.stats.ToolChanges++

	case MoveBuiltinCycle:
		if err := prohibit(cmd.Tool, "D"); err != nil {
			return err
		}
		if err := m.prepareCut(); err != nil {
			return err
		}
		// The cycle body moves nothing in this simulator.
		m.movement = nil
		m.stats.Cycles++
	}

	return nil
}

// prepareCut checks everything a cutting move relies on.
func (m *Machine) prepareCut() *gcode.SimpleError {
	if !m.spindleOn {
		return gcode.Errorf("Trying to cut with stopped spindle")
	}
	if !m.waterOn {
		return gcode.Errorf("Trying to cut without coolant")
	}

	speed := uint16(0)
	if m.speed != nil {
		speed = *m.speed
	}
	if speed < m.cfg.MinSpeed {
		return gcode.Errorf("Speed %d is too low", speed)
	}
	if speed > m.cfg.MaxSpeed {
		return gcode.Errorf("Speed %d is too high", speed)
	}

	feed := uint16(0)
	if m.feed != nil {
		feed = *m.feed
	}
	if feed < m.cfg.MinFeed {
		return gcode.Errorf("Feed %d is too low", feed)
	}
	if feed > m.cfg.MaxFeed {
		return gcode.Errorf("Feed %d is too high", feed)
	}

	if m.x == nil || m.y == nil || m.z == nil {
		return gcode.Errorf("Trying to cut from undefined position")
	}
	if m.tool == nil {
		return gcode.Errorf("Trying to cut with no tool")
	}

	return nil
}

// circle validates arc geometry and renders it. The I and J offsets are
// always relative to the start point on this machine.
func (m *Machine) circle(kind render.ArcKind, i, j, ex, ey gcode.Micrometer) *gcode.SimpleError {
	if err := m.prepareCut(); err != nil {
		return err
	}
	sx, sy := *m.x, *m.y

	cx := sx + i
	cy := sy + j
	r := math.Hypot(i.MM(), j.MM())
	r2 := math.Hypot((ex - cx).MM(), (ey - cy).MM())

	// Radius equality is defined at micrometer precision.
	rum := gcode.FromMM(r)
	if gcode.FromMM(r2) != rum {
		return gcode.Errorf("Circle end point not on the circle (radius = %s, start at (%s, %s))",
			rum, sx, sy)
	}

	m.render.ArcTo(toolDiameter, kind,
		render.Point{X: cx, Y: cy}, render.Point{X: ex, Y: ey})
	m.x = &ex
	m.y = &ey
	m.stats.Arcs++
	return nil
}

// lineTo reports a finished rapid or linear move to the renderer. The
// very first moves may leave X and Y undefined; nothing is drawn until
// the horizontal position is known.
func (m *Machine) lineTo(kind render.LineKind) {
	if m.x == nil || m.y == nil || m.z == nil {
		return
	}
	m.render.LineTo(toolDiameter, kind, render.Point{X: *m.x, Y: *m.y}, *m.z)
}

// upd overwrites a modal slot when the command provides a new value.
func upd[T any](slot **T, value *T) {
	if value != nil {
		v := *value
		*slot = &v
	}
}

func offset(v, base *gcode.Micrometer) *gcode.Micrometer {
	if v == nil {
		return nil
	}
	sum := *v + *base
	return &sum
}

func require[T any](v *T, name string) (T, *gcode.SimpleError) {
	if v == nil {
		var zero T
		return zero, gcode.Errorf("Required parameter '%s'", name)
	}
	return *v, nil
}

func prohibit[T any](v *T, name string) *gcode.SimpleError {
	if v != nil {
		return gcode.Errorf("Parameter '%s' is dangerous here", name)
	}
	return nil
}

func prohibitAxes(cmd *Command) *gcode.SimpleError {
	if err := prohibit(cmd.RawX, "X"); err != nil {
		return err
	}
	if err := prohibit(cmd.RawY, "Y"); err != nil {
		return err
	}
	if err := prohibit(cmd.RawZ, "Z"); err != nil {
		return err
	}
	if err := prohibit(cmd.I, "I"); err != nil {
		return err
	}
	return prohibit(cmd.J, "J")
}
