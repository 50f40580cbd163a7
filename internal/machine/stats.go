package machine

// Stats counts what a simulation run actually did. The counters feed the
// CLI summary.
type Stats struct {
	Lines       int // commands executed
	RapidMoves  int // G0 dispatches
	CutMoves    int // G1 dispatches
	Arcs        int // G2/G3 dispatches
	ToolChanges int // M6 dispatches
	Cycles      int // builtin cycle dispatches
	SubCalls    int // subprogram calls
}

// Moves returns the total number of motion dispatches.
func (s Stats) Moves() int {
	return s.RapidMoves + s.CutMoves + s.Arcs
}
