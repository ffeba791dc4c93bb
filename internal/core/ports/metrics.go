package ports

import "go.trai.ch/rattle/internal/core/domain"

// Solve outcomes reported to Metrics.
const (
	OutcomeSolved     = "solved"
	OutcomeUnsolvable = "unsolvable"
	OutcomeExceeded   = "exceeded"
	OutcomeFailed     = "failed"
)

// SolveTotals aggregates the solves observed so far.
type SolveTotals struct {
	// Outcomes counts solves per outcome.
	Outcomes map[string]int

	Decisions int
	Conflicts int

	// Seconds is the total solve time.
	Seconds float64
}

// Metrics records solver measurements.
//
//go:generate go run go.uber.org/mock/mockgen -source=metrics.go -destination=mocks/mock_metrics.go -package=mocks
type Metrics interface {
	// ObserveSolve records one solve.
	ObserveSolve(outcome string, stats domain.SolveStats)

	// Totals returns the aggregate of every observed solve.
	Totals() (SolveTotals, error)
}
