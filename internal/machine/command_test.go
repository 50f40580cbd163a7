package machine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agalakhov/millsim/internal/gcode"
	"github.com/agalakhov/millsim/internal/machine"
)

// words parses one line of program text into its word list.
func words(t *testing.T, line string) []gcode.Word {
	t.Helper()
	parsed, err := gcode.ParseLine(line)
	require.Nil(t, err)
	code, ok := parsed.(gcode.Code)
	require.True(t, ok, "line %q is not a code line", line)
	return code.Words
}

// command folds one line of program text into a Command.
func command(t *testing.T, line string) *machine.Command {
	t.Helper()
	cmd, err := machine.CommandFromWords(words(t, line))
	require.Nil(t, err)
	return cmd
}

func TestCommandFold(t *testing.T) {
	cmd := command(t, "N10 G1 X1.5 Y-2 Z3 F100 S1000 D1 (first) (second)")

	require.NotNil(t, cmd.N)
	assert.Equal(t, uint32(10), *cmd.N)
	require.NotNil(t, cmd.Movement)
	assert.Equal(t, machine.MoveLine, cmd.Movement.Kind)
	require.NotNil(t, cmd.RawX)
	assert.Equal(t, gcode.Micrometer(1500), *cmd.RawX)
	require.NotNil(t, cmd.RawY)
	assert.Equal(t, gcode.Micrometer(-2000), *cmd.RawY)
	require.NotNil(t, cmd.RawZ)
	assert.Equal(t, gcode.Micrometer(3000), *cmd.RawZ)
	require.NotNil(t, cmd.Feed)
	assert.Equal(t, uint16(100), *cmd.Feed)
	require.NotNil(t, cmd.Speed)
	assert.Equal(t, uint16(1000), *cmd.Speed)
	require.NotNil(t, cmd.Tool)
	assert.Equal(t, uint8(1), *cmd.Tool)
	assert.Equal(t, "firstsecond", cmd.Comment)
	assert.Len(t, cmd.Raw, 10)
}

func TestCommandSubprogramCall(t *testing.T) {
	cmd := command(t, "L7 P2")
	require.NotNil(t, cmd.Global)
	assert.Equal(t, machine.CallSub, cmd.Global.Kind)
	assert.Equal(t, uint16(7), cmd.Global.Sub)
	require.NotNil(t, cmd.P)
	assert.Equal(t, uint16(2), *cmd.P)
	assert.Nil(t, cmd.Movement)
}

func TestCommandBuiltinCycle(t *testing.T) {
	cmd := command(t, "L80")
	require.NotNil(t, cmd.Movement)
	assert.Equal(t, machine.MoveBuiltinCycle, cmd.Movement.Kind)
	assert.Equal(t, uint16(80), cmd.Movement.Cycle)
	assert.Nil(t, cmd.Global)
}

func TestCommandGlobals(t *testing.T) {
	assert.Equal(t, machine.EndProgram, command(t, "M2").Global.Kind)
	assert.Equal(t, machine.ReturnSub, command(t, "M17").Global.Kind)
}

func TestCommandParametricPairIsInert(t *testing.T) {
	cmd := command(t, "R1=5.5")
	assert.Nil(t, cmd.Global)
	assert.Nil(t, cmd.Movement)
	// The word is still echoed.
	assert.Len(t, cmd.Raw, 1)
	assert.Equal(t, "R1=5.500", cmd.RawString())
}

func TestCommandDuplicateErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
		want string
	}{
		{
			name: "two movements",
			line: "G0 G1",
			want: "Double command: 'G0 (fast move)' and 'G1 (linear move)'",
		},
		{
			name: "two coordinate switches",
			line: "G90 G91",
			want: "Double command: 'G90 (absolute coordinates)' and 'G91 (relative coordinates)'",
		},
		{
			name: "movement and tool change",
			line: "G1 M6",
			want: "Double command: 'G1 (linear move)' and 'M6 (tool change)'",
		},
		{
			name: "two X words",
			line: "X1 X2",
			want: "Double 'X' command: '1.000' and '2.000'",
		},
		{
			name: "two speeds",
			line: "S100 S200",
			want: "Double 'S[peed]' command: '100' and '200'",
		},
		{
			name: "two line numbers",
			line: "N1 N2",
			want: "Double 'N[umber]' command: '1' and '2'",
		},
		{
			name: "two repeat counts",
			line: "P1 P2",
			want: "Double 'P (repeat count)' command: '1' and '2'",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := machine.CommandFromWords(words(t, tt.line))
			require.NotNil(t, err)
			assert.Equal(t, tt.want, err.Message)
		})
	}
}

func TestCommandRawString(t *testing.T) {
	cmd := command(t, "N10 G0 X15 Y60")
	assert.Equal(t, "N10 G0 X15.000 Y60.000", cmd.RawString())
}
