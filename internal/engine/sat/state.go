package sat

// State is a phase of the search loop.
type State uint8

// Search states. A search starts Propagating and stops in Sat, Unsat or Exceeded.
const (
	StatePropagating State = iota
	StateDeciding
	StateConflict
	StateAnalyzing
	StateBackjumping
	StateSat
	StateUnsat
	StateExceeded
)

var stateNames = [...]string{
	StatePropagating: "propagating",
	StateDeciding:    "deciding",
	StateConflict:    "conflict",
	StateAnalyzing:   "analyzing",
	StateBackjumping: "backjumping",
	StateSat:         "sat",
	StateUnsat:       "unsat",
	StateExceeded:    "exceeded",
}

// String returns the state name.
func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Status is the verdict of a search.
type Status uint8

const (
	// StatusSat means a model was found.
	StatusSat Status = iota
	// StatusUnsat means the constraints admit no model.
	StatusUnsat
	// StatusExceeded means the budget ran out before a verdict.
	StatusExceeded
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSat:
		return "sat"
	case StatusUnsat:
		return "unsat"
	default:
		return "exceeded"
	}
}

// Budget bounds a search. Zero fields are unbounded.
type Budget struct {
	MaxConflicts int
	MaxDecisions int
}

func (b Budget) conflictsExceeded(n int) bool {
	return b.MaxConflicts > 0 && n > b.MaxConflicts
}

func (b Budget) decisionsExceeded(n int) bool {
	return b.MaxDecisions > 0 && n > b.MaxDecisions
}

// Stats counts search effort.
type Stats struct {
	Decisions    int
	Conflicts    int
	Propagations int
	Learned      int
	Restarts     int
	CoreChecks   int
}

// Result is the outcome of Solve.
type Result struct {
	Status Status

	// Model holds the value of every variable when Status is StatusSat.
	Model []bool

	// Core holds the original constraints of an unsatisfiable subset when Status is
	// StatusUnsat, in ascending order.
	Core []Ref

	Stats Stats
}
