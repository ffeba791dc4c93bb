package domain

import "time"

// SolverTask is the input of a single solve.
type SolverTask struct {
	// AvailablePackages is the candidate catalog, shared read-only between solves.
	AvailablePackages PackageIndex

	// LockedPackages must appear in the solution exactly as given.
	LockedPackages []*PackageRecord

	// PinnedPackages are preferred but may be replaced when the specs require it.
	PinnedPackages []*PackageRecord

	// VirtualPackages describe platform capabilities that satisfy dependencies
	// without being installed.
	VirtualPackages []*PackageRecord

	// Specs are the requested top-level requirements, in priority order.
	Specs []MatchSpec

	// Budget bounds the search. The zero value is unbounded.
	Budget Budget
}

// Budget bounds the work one solve may perform. Zero fields are unbounded.
type Budget struct {
	// MaxConflicts is the maximum number of conflicts before giving up.
	MaxConflicts int

	// MaxDecisions is the maximum number of decisions before giving up.
	MaxDecisions int
}

// Unbounded reports whether the budget places no limit on the search.
func (b Budget) Unbounded() bool {
	return b.MaxConflicts <= 0 && b.MaxDecisions <= 0
}

// Solution is the result of a successful solve.
type Solution struct {
	// Records are the installed packages, one per name, ordered by name.
	Records []*PackageRecord

	// Virtual are the virtual packages referenced by the selection, ordered by name.
	Virtual []*PackageRecord

	// Score is the objective value of the selection; lower is better.
	Score Score

	// Stats describes the search effort.
	Stats SolveStats
}

// Record returns the installed record named name, or nil.
func (s *Solution) Record(name string) *PackageRecord {
	for _, rec := range s.Records {
		if rec.Name == name {
			return rec
		}
	}
	return nil
}

// SolveStats counts the work performed by a solve.
type SolveStats struct {
	Variables    int
	Clauses      int
	Groups       int
	Decisions    int
	Conflicts    int
	Propagations int
	Learned      int
	Restarts     int
	Duration     time.Duration
}

// Add accumulates o into s.
func (s *SolveStats) Add(o SolveStats) {
	s.Decisions += o.Decisions
	s.Conflicts += o.Conflicts
	s.Propagations += o.Propagations
	s.Learned += o.Learned
	s.Restarts += o.Restarts
	s.Duration += o.Duration
}
