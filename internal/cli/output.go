// Package cli holds the diagnostic output and exit-code policy of the
// millsim command.
package cli

import (
	"fmt"
	"os"

	"github.com/agalakhov/millsim/internal/machine"
)

// Exit codes of the command.
const (
	ExitOK    = 0
	ExitError = 1
	ExitUsage = 2
)

// PrintWarning prints a warning message to stderr.
// Format: "WARNING: <message>"
func PrintWarning(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)
	fmt.Fprintf(os.Stderr, "WARNING: %s\n", message)
}

// PrintError prints an error to stderr and returns the exit code. Load
// and simulation errors render their own "At line N:" prefix.
func PrintError(err error) int {
	if err == nil {
		return ExitOK
	}
	fmt.Fprintln(os.Stderr, err)
	return ExitError
}

// PrintSummary prints the simulation counters to stdout.
func PrintSummary(stats machine.Stats) {
	fmt.Println("\n=== Simulation Complete ===")
	fmt.Println()
	fmt.Printf("Commands executed:  %s\n", FormatNumber(stats.Lines))
	fmt.Printf("Rapid moves:        %s\n", FormatNumber(stats.RapidMoves))
	fmt.Printf("Cutting moves:      %s\n", FormatNumber(stats.CutMoves))
	fmt.Printf("Arcs:               %s\n", FormatNumber(stats.Arcs))
	fmt.Printf("Tool changes:       %s\n", FormatNumber(stats.ToolChanges))
	fmt.Printf("Builtin cycles:     %s\n", FormatNumber(stats.Cycles))
	fmt.Printf("Subprogram calls:   %s\n", FormatNumber(stats.SubCalls))
}
