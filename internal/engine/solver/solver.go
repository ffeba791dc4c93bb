// Package solver is the entry point of dependency resolution: it compiles a task,
// runs the search and turns the verdict into a Solution or an explained Conflict.
package solver

import (
	"fmt"
	"time"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/encoding"
	"go.trai.ch/rattle/internal/engine/sat"
)

type options struct {
	stats  *domain.SolveStats
	logger func(string)
}

// Option configures Solve.
type Option func(*options)

// WithStats stores the search statistics of the solve in s, whatever the outcome.
func WithStats(s *domain.SolveStats) Option {
	return func(o *options) { o.stats = s }
}

// WithLogger receives compiler warnings and one line per search state transition.
func WithLogger(fn func(string)) Option {
	return func(o *options) { o.logger = fn }
}

// Solve resolves task. It returns a *domain.ConflictError when no solution exists and
// a *domain.ComplexityError when the budget runs out first. Solve performs no I/O and
// is safe to call concurrently with tasks sharing one package index.
func Solve(task *domain.SolverTask, opts ...Option) (*domain.Solution, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	start := time.Now()

	p := encoding.Compile(task)
	stats := domain.SolveStats{
		Variables: p.Solver.NumVars(),
		Clauses:   p.Solver.NumClauses(),
		Groups:    p.Solver.NumGroups(),
	}
	if o.logger != nil {
		for _, w := range p.Warnings {
			o.logger("warning: " + w)
		}
		o.logger(fmt.Sprintf("compiled %d variables, %d clauses, %d groups",
			stats.Variables, stats.Clauses, stats.Groups))
		p.Solver.SetTrace(o.logger)
	}

	p.Solver.SetBrancher(p.Brancher())
	p.Solver.SetBudget(sat.Budget{
		MaxConflicts: task.Budget.MaxConflicts,
		MaxDecisions: task.Budget.MaxDecisions,
	})
	res := p.Solver.Solve()

	var (
		sol *domain.Solution
		err error
	)
	switch res.Status {
	case sat.StatusSat:
		sol = extract(p, res.Model)
		sol.Score = p.Score(res.Model)
	case sat.StatusUnsat:
		core := p.Solver.Minimize(res.Core)
		err = &domain.ConflictError{Conflict: explain(p, task, core)}
	case sat.StatusExceeded:
		err = &domain.ComplexityError{Budget: task.Budget}
	}

	s := p.Solver.Stats()
	stats.Decisions = s.Decisions
	stats.Conflicts = s.Conflicts
	stats.Propagations = s.Propagations
	stats.Learned = s.Learned
	stats.Restarts = s.Restarts
	stats.Duration = time.Since(start)

	if ce, ok := err.(*domain.ComplexityError); ok {
		ce.Stats = stats
	}
	if sol != nil {
		sol.Stats = stats
	}
	if o.stats != nil {
		*o.stats = stats
	}
	return sol, err
}
