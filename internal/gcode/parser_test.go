package gcode_test

import (
	"reflect"
	"testing"

	"github.com/agalakhov/millsim/internal/gcode"
)

func TestParseLineWords(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  gcode.Line
	}{
		{
			name:  "single rapid",
			input: "G0",
			want:  gcode.Code{Words: []gcode.Word{gcode.G{Code: gcode.G0}}},
		},
		{
			name:  "rapid with axes",
			input: "G0 X15 Y60",
			want: gcode.Code{Words: []gcode.Word{
				gcode.G{Code: gcode.G0},
				gcode.X{Pos: 15000},
				gcode.Y{Pos: 60000},
			}},
		},
		{
			name:  "numbered cut",
			input: "N10 G1 X1.5 Y-0.25 Z-1. F100",
			want: gcode.Code{Words: []gcode.Word{
				gcode.N{Number: 10},
				gcode.G{Code: gcode.G1},
				gcode.X{Pos: 1500},
				gcode.Y{Pos: -250},
				gcode.Z{Pos: -1000},
				gcode.F{Feed: 100},
			}},
		},
		{
			name:  "arc with center offsets",
			input: "G2 X10 Y0 I5 J0",
			want: gcode.Code{Words: []gcode.Word{
				gcode.G{Code: gcode.G2},
				gcode.X{Pos: 10000},
				gcode.Y{Pos: 0},
				gcode.I{Off: 5000},
				gcode.J{Off: 0},
			}},
		},
		{
			name:  "machine words",
			input: "M6 D2 S1000",
			want: gcode.Code{Words: []gcode.Word{
				gcode.M{Code: gcode.M6},
				gcode.D{Tool: 2},
				gcode.S{Speed: 1000},
			}},
		},
		{
			name:  "subprogram call with repeats",
			input: "L7 P2",
			want: gcode.Code{Words: []gcode.Word{
				gcode.L{Sub: 7},
				gcode.P{Count: 2},
			}},
		},
		{
			name:  "parametric pair",
			input: "R1=5.5",
			want: gcode.Code{Words: []gcode.Word{
				gcode.R{Index: 1, Value: 5500},
			}},
		},
		{
			name:  "comment",
			input: "(face milling)",
			want: gcode.Code{Words: []gcode.Word{
				gcode.Comment{Text: "face milling"},
			}},
		},
		{
			name:  "unterminated trailing comment",
			input: "G0 (roughing pass",
			want: gcode.Code{Words: []gcode.Word{
				gcode.G{Code: gcode.G0},
				gcode.Comment{Text: "roughing pass"},
			}},
		},
		{
			name:  "words without spaces",
			input: "G0X1Y2",
			want: gcode.Code{Words: []gcode.Word{
				gcode.G{Code: gcode.G0},
				gcode.X{Pos: 1000},
				gcode.Y{Pos: 2000},
			}},
		},
		{
			name:  "empty",
			input: "",
			want:  gcode.Empty{},
		},
		{
			name:  "spaces only",
			input: "    ",
			want:  gcode.Empty{},
		},
		{
			name:  "main program header",
			input: "%MPF1",
			want:  gcode.MainProgram{Number: 1},
		},
		{
			name:  "main program header with trailing spaces",
			input: "%MPF12  ",
			want:  gcode.MainProgram{Number: 12},
		},
		{
			name:  "sub program header",
			input: "%SPF7",
			want:  gcode.SubProgram{Number: 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := gcode.ParseLine(tt.input)
			if err != nil {
				t.Fatalf("ParseLine(%q): %v", tt.input, err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ParseLine(%q) = %#v, want %#v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "garbage mid-line",
			input: "G0 G1 G2KG3 X15 Y60",
			want:  "Invalid syntax at 'KG3 X15 Y60'",
		},
		{
			name:  "unknown G code",
			input: "G7",
			want:  "Unknown G code 'G7'",
		},
		{
			name:  "unknown M code",
			input: "M1",
			want:  "Unknown M code 'M1'",
		},
		{
			name:  "bare letter",
			input: "X",
			want:  "Invalid syntax at 'X'",
		},
		{
			name:  "header with code on the same line",
			input: "%MPF1 G0",
			want:  "Invalid syntax at '%MPF1 G0'",
		},
		{
			name:  "overflowing G number",
			input: "G999",
			want:  "Invalid syntax at 'G999'",
		},
		{
			name:  "parametric pair without value",
			input: "R1=",
			want:  "Invalid syntax at 'R1='",
		},
		{
			name:  "parametric pair without equals",
			input: "R1 5",
			want:  "Invalid syntax at 'R1 5'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := gcode.ParseLine(tt.input)
			if err == nil {
				t.Fatalf("ParseLine(%q) succeeded, want error %q", tt.input, tt.want)
			}
			if err.Message != tt.want {
				t.Errorf("ParseLine(%q) error = %q, want %q", tt.input, err.Message, tt.want)
			}
		})
	}
}

func TestWordExecutability(t *testing.T) {
	executable := []gcode.Word{
		gcode.G{Code: gcode.G0},
		gcode.M{Code: gcode.M2},
		gcode.X{Pos: 1},
		gcode.S{Speed: 1},
		gcode.L{Sub: 7},
		gcode.R{Index: 1, Value: 1},
	}
	for _, w := range executable {
		if !w.Executable() {
			t.Errorf("%s should be executable", w)
		}
	}

	passive := []gcode.Word{
		gcode.N{Number: 10},
		gcode.Comment{Text: "note"},
	}
	for _, w := range passive {
		if w.Executable() {
			t.Errorf("%s should not be executable", w)
		}
	}
}
