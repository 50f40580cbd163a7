package machine

import (
	"math"
	"slices"

	"github.com/samber/lo"

	"github.com/agalakhov/millsim/internal/gcode"
)

// CodeLine is one code line with its 1-based position in the source file.
type CodeLine struct {
	FileLine uint64
	Words    []gcode.Word
}

func (l *CodeLine) executableWords() []gcode.Word {
	return lo.Filter(l.Words, func(w gcode.Word, _ int) bool {
		return w.Executable()
	})
}

// CodeBlock is the body of one main or sub program. FileLine is the
// position of the block's header line.
type CodeBlock struct {
	FileLine uint64
	Code     []CodeLine
}

// Program is the catalog of main and sub programs of one file, keyed by
// the numeric suffix of their %MPF/%SPF headers.
type Program struct {
	mains map[uint8]*CodeBlock
	subs  map[uint8]*CodeBlock
}

// ProgramFromFile structures the parsed lines into program blocks and
// checks every block's terminator.
func ProgramFromFile(file *gcode.File) (*Program, *gcode.LineError) {
	type cursor struct {
		known bool
		main  bool
		n     uint8
	}

	p := &Program{
		mains: make(map[uint8]*CodeBlock),
		subs:  make(map[uint8]*CodeBlock),
	}
	var cur cursor
	var defLine uint64

	for i, line := range file.Lines {
		fileLine := uint64(i) + 1

		var words []gcode.Word
		switch l := line.(type) {
		case gcode.Empty:
			continue
		case gcode.MainProgram:
			cur = cursor{known: true, main: true, n: l.Number}
			defLine = fileLine
			continue
		case gcode.SubProgram:
			cur = cursor{known: true, main: false, n: l.Number}
			defLine = fileLine
			continue
		case gcode.Code:
			words = l.Words
		}

		if !cur.known {
			return nil, gcode.Errorf("Code line with no program").AtLine(fileLine)
		}
		blocks := p.subs
		if cur.main {
			blocks = p.mains
		}
		block := blocks[cur.n]
		if block == nil {
			// A repeated header with the same number appends to the
			// existing block and keeps its original header line.
			block = &CodeBlock{FileLine: defLine}
			blocks[cur.n] = block
		}
		block.Code = append(block.Code, CodeLine{FileLine: fileLine, Words: words})
	}

	if err := checkLastExecutable(p.mains, "Main program", gcode.M2); err != nil {
		return nil, err
	}
	if err := checkLastExecutable(p.subs, "Subprogram", gcode.M17); err != nil {
		return nil, err
	}

	return p, nil
}

// Mains lists the main program numbers in ascending order.
func (p *Program) Mains() []uint8 {
	ks := lo.Keys(p.mains)
	slices.Sort(ks)
	return ks
}

// Subs lists the sub program numbers in ascending order.
func (p *Program) Subs() []uint8 {
	ks := lo.Keys(p.subs)
	slices.Sort(ks)
	return ks
}

// Execute starts execution of the lowest-numbered main program.
func (p *Program) Execute() (*Executor, *gcode.SimpleError) {
	mains := p.Mains()
	if len(mains) == 0 {
		return nil, gcode.Errorf("No main programs found")
	}
	return p.ExecuteProgram(mains[0])
}

// ExecuteProgram starts execution of the main program with the given
// number.
func (p *Program) ExecuteProgram(n uint8) (*Executor, *gcode.SimpleError) {
	block := p.mains[n]
	if block == nil {
		return nil, gcode.Errorf("Program %%%d not found", n)
	}
	return &Executor{
		stack: []frame{{code: block.Code, full: block.Code}},
		subs:  p.subs,
	}, nil
}

// checkLastExecutable enforces the terminator law: the last code line with
// any executable words must consist of exactly the terminator word.
func checkLastExecutable(blocks map[uint8]*CodeBlock, kind string, want gcode.MCode) *gcode.LineError {
	ns := lo.Keys(blocks)
	slices.Sort(ns)
	for _, n := range ns {
		block := blocks[n]
		ok := false
		for i := len(block.Code) - 1; i >= 0; i-- {
			words := block.Code[i].executableWords()
			if len(words) == 0 {
				continue
			}
			if len(words) == 1 {
				if m, isM := words[0].(gcode.M); isM && m.Code == want {
					ok = true
				}
			}
			break
		}
		if !ok {
			return gcode.Errorf("%s #%d does not end with %s", kind, n, want).
				AtLine(block.FileLine)
		}
	}
	return nil
}

// frame is one level of the subroutine call stack. code is the remaining
// tail of full; repetition re-borrows full.
type frame struct {
	repeats uint16
	code    []CodeLine
	full    []CodeLine
}

// Executor walks a main program, expanding subprogram calls with their
// repeat counts, and yields one command per executed line. It is a lazy,
// forward-only sequence in the manner of bufio.Scanner.
type Executor struct {
	stack []frame
	subs  map[uint8]*CodeBlock

	line uint64
	cmd  *Command
	err  *gcode.LineError
}

// Next advances to the next executed line. It returns false at the end of
// the program or on error; check Err afterwards.
func (e *Executor) Next() bool {
	if e.err != nil || len(e.stack) == 0 {
		return false
	}
	top := &e.stack[len(e.stack)-1]
	if len(top.code) == 0 {
		e.stack = nil
		return false
	}
	line := &top.code[0]
	top.code = top.code[1:]

	cmd, err := e.exec(line)
	if err != nil {
		e.err = err.AtLine(line.FileLine)
		return false
	}
	e.line = line.FileLine
	e.cmd = cmd
	return true
}

// Line returns the file line of the current command.
func (e *Executor) Line() uint64 {
	return e.line
}

// Command returns the current command.
func (e *Executor) Command() *Command {
	return e.cmd
}

// Err returns the error that stopped iteration, if any.
func (e *Executor) Err() *gcode.LineError {
	return e.err
}

func (e *Executor) exec(line *CodeLine) (*Command, *gcode.SimpleError) {
	cmd, err := CommandFromWords(line.Words)
	if err != nil {
		return nil, err
	}
	if cmd.Global == nil {
		return cmd, nil
	}

	switch cmd.Global.Kind {
	case CallSub:
		n := cmd.Global.Sub
		var sub *CodeBlock
		if n <= math.MaxUint8 {
			sub = e.subs[uint8(n)]
		}
		if sub == nil {
			return nil, gcode.Errorf("Subroutine L%d not found", n)
		}
		if cmd.P == nil {
			return nil, gcode.Errorf("Repeats count for subroutine L%d not defined", n)
		}
		e.stack = append(e.stack, frame{repeats: *cmd.P, code: sub.Code, full: sub.Code})

	case ReturnSub:
		if len(e.stack) <= 1 {
			return nil, gcode.Errorf("Subroutine return (M17) without subroutine call")
		}
		top := e.stack[len(e.stack)-1]
		if len(top.code) != 0 {
			return nil, gcode.Errorf("Subroutine return (M17) is not the last statement")
		}
		e.stack = e.stack[:len(e.stack)-1]
		if top.repeats > 0 {
			e.stack = append(e.stack, frame{
				repeats: top.repeats - 1,
				code:    top.full,
				full:    top.full,
			})
		}

	case EndProgram:
		if len(e.stack) > 1 {
			return nil, gcode.Errorf("Program end (M2) in a subroutine")
		}
		if len(e.stack[len(e.stack)-1].code) != 0 {
			return nil, gcode.Errorf("Program end (M2) is not the last statement")
		}
	}

	return cmd, nil
}
