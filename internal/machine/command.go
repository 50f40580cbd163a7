// Package machine implements the back half of the pipeline: folding word
// lists into commands, structuring programs, executing them, and the
// milling machine simulator itself.
package machine

import (
	"fmt"

	"github.com/agalakhov/millsim/internal/gcode"
)

// GlobalKind is a control-flow action of a command.
type GlobalKind int

const (
	// CallSub calls a subprogram by number.
	CallSub GlobalKind = iota
	// ReturnSub returns from a subprogram (M17).
	ReturnSub
	// EndProgram ends the main program (M2).
	EndProgram
)

// Global is the control-flow slot of a command.
type Global struct {
	Kind GlobalKind
	Sub  uint16 // subprogram number, CallSub only
}

func (g Global) String() string {
	switch g.Kind {
	case CallSub:
		return "L (subroutine call)"
	case ReturnSub:
		return "M17 (subroutine return)"
	case EndProgram:
		return "M2 (program end)"
	}
	return "unknown"
}

// MovementKind is a movement mode of the machine.
type MovementKind int

const (
	// MoveFastLine is a G0 rapid traverse.
	MoveFastLine MovementKind = iota
	// MoveLine is a G1 linear cut.
	MoveLine
	// MoveCircleCW is a G2 clockwise arc.
	MoveCircleCW
	// MoveCircleCCW is a G3 counter-clockwise arc.
	MoveCircleCCW
	// MoveToolChange is an M6 tool change.
	MoveToolChange
	// MoveBuiltinCycle is an L word with number >= 80.
	MoveBuiltinCycle
)

// Movement is the movement slot of a command.
type Movement struct {
	Kind  MovementKind
	Cycle uint16 // builtin cycle number, MoveBuiltinCycle only
}

func (m Movement) String() string {
	switch m.Kind {
	case MoveFastLine:
		return "G0 (fast move)"
	case MoveLine:
		return "G1 (linear move)"
	case MoveCircleCW:
		return "G2 (circular move CW)"
	case MoveCircleCCW:
		return "G3 (circular move CCW)"
	case MoveToolChange:
		return "M6 (tool change)"
	case MoveBuiltinCycle:
		return "L (builtin subroutine)"
	}
	return "unknown"
}

// SpindleAction switches the spindle.
type SpindleAction int

const (
	// SpindleOnCW starts the spindle forwards (M3).
	SpindleOnCW SpindleAction = iota
	// SpindleOnCCW starts the spindle backwards (M4).
	SpindleOnCCW
	// SpindleOff stops the spindle (M5).
	SpindleOff
)

func (a SpindleAction) String() string {
	switch a {
	case SpindleOnCW:
		return "M3 (spindle on CW)"
	case SpindleOnCCW:
		return "M4 (spindle on CCW)"
	case SpindleOff:
		return "M5 (spindle off)"
	}
	return "unknown"
}

// WaterAction switches the coolant.
type WaterAction int

const (
	// WaterOn starts the coolant (M8).
	WaterOn WaterAction = iota
	// WaterOff stops the coolant (M9).
	WaterOff
)

func (a WaterAction) String() string {
	switch a {
	case WaterOn:
		return "M8 (coolant on)"
	case WaterOff:
		return "M9 (coolant off)"
	}
	return "unknown"
}

// CoordSwitch switches the coordinate mode.
type CoordSwitch int

const (
	// CoordAbsolute selects absolute coordinates (G90).
	CoordAbsolute CoordSwitch = iota
	// CoordRelative selects relative coordinates (G91).
	CoordRelative
)

func (c CoordSwitch) String() string {
	switch c {
	case CoordAbsolute:
		return "G90 (absolute coordinates)"
	case CoordRelative:
		return "G91 (relative coordinates)"
	}
	return "unknown"
}

// Command is the fold of one line's words into per-concern slots. Each
// slot is populated at most once per line.
type Command struct {
	Global   *Global
	Movement *Movement

	Spindle *SpindleAction
	Water   *WaterAction
	Coord   *CoordSwitch

	RawX *gcode.Micrometer
	RawY *gcode.Micrometer
	RawZ *gcode.Micrometer
	I    *gcode.Micrometer
	J    *gcode.Micrometer

	Speed *uint16
	Feed  *uint16
	Tool  *uint8

	N *uint32
	P *uint16

	Comment string

	// Raw is the original word list, kept verbatim for echoing.
	Raw []gcode.Word
}

const builtinCycleBase = 80

// CommandFromWords folds an ordered word list into a Command, rejecting a
// second word for an already populated slot.
func CommandFromWords(words []gcode.Word) (*Command, *gcode.SimpleError) {
	cmd := &Command{}

	for _, word := range words {
		cmd.Raw = append(cmd.Raw, word)

		var err *gcode.SimpleError
		switch w := word.(type) {
		case gcode.L:
			if w.Sub >= builtinCycleBase {
				err = set(&cmd.Movement, Movement{Kind: MoveBuiltinCycle, Cycle: w.Sub})
			} else {
				err = set(&cmd.Global, Global{Kind: CallSub, Sub: w.Sub})
			}
		case gcode.N:
			err = setNamed(&cmd.N, "N[umber]", w.Number)
		case gcode.Comment:
			cmd.Comment += w.Text
		case gcode.R:
			// Reserved; parsed but without semantic effect.
		case gcode.M:
			switch w.Code {
			case gcode.M2:
				err = set(&cmd.Global, Global{Kind: EndProgram})
			case gcode.M17:
				err = set(&cmd.Global, Global{Kind: ReturnSub})
			case gcode.M6:
				err = set(&cmd.Movement, Movement{Kind: MoveToolChange})
			case gcode.M3:
				err = set(&cmd.Spindle, SpindleOnCW)
			case gcode.M4:
				err = set(&cmd.Spindle, SpindleOnCCW)
			case gcode.M5:
				err = set(&cmd.Spindle, SpindleOff)
			case gcode.M8:
				err = set(&cmd.Water, WaterOn)
			case gcode.M9:
				err = set(&cmd.Water, WaterOff)
			}
		case gcode.G:
			switch w.Code {
			case gcode.G0:
				err = set(&cmd.Movement, Movement{Kind: MoveFastLine})
			case gcode.G1:
				err = set(&cmd.Movement, Movement{Kind: MoveLine})
			case gcode.G2:
				err = set(&cmd.Movement, Movement{Kind: MoveCircleCW})
			case gcode.G3:
				err = set(&cmd.Movement, Movement{Kind: MoveCircleCCW})
			case gcode.G90:
				err = set(&cmd.Coord, CoordAbsolute)
			case gcode.G91:
				err = set(&cmd.Coord, CoordRelative)
			}
		case gcode.S:
			err = setNamed(&cmd.Speed, "S[peed]", w.Speed)
		case gcode.F:
			err = setNamed(&cmd.Feed, "F[eed]", w.Feed)
		case gcode.D:
			err = setNamed(&cmd.Tool, "D (tool)", w.Tool)
		case gcode.X:
			err = setNamed(&cmd.RawX, "X", w.Pos)
		case gcode.Y:
			err = setNamed(&cmd.RawY, "Y", w.Pos)
		case gcode.Z:
			err = setNamed(&cmd.RawZ, "Z", w.Pos)
		case gcode.I:
			err = setNamed(&cmd.I, "I (center X)", w.Off)
		case gcode.J:
			err = setNamed(&cmd.J, "J (center Y)", w.Off)
		case gcode.P:
			err = setNamed(&cmd.P, "P (repeat count)", w.Count)
		}
		if err != nil {
			return nil, err
		}
	}

	return cmd, nil
}

// RawString renders the original word list of the line.
func (c *Command) RawString() string {
	s := ""
	for i, w := range c.Raw {
		if i > 0 {
			s += " "
		}
		s += w.String()
	}
	return s
}

// set populates a slot whose value describes itself.
func set[T fmt.Stringer](slot **T, value T) *gcode.SimpleError {
	if *slot != nil {
		return gcode.Errorf("Double command: '%s' and '%s'", **slot, value)
	}
	*slot = &value
	return nil
}

// setNamed populates a scalar slot, naming it in the duplicate diagnostic.
func setNamed[T any](slot **T, name string, value T) *gcode.SimpleError {
	if *slot != nil {
		return gcode.Errorf("Double '%s' command: '%v' and '%v'", name, **slot, value)
	}
	*slot = &value
	return nil
}
