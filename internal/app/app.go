// Package app implements the application layer for rattle.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/rattle/internal/engine/matchspec"
	"go.trai.ch/rattle/internal/engine/solver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	loader  ports.EnvironmentLoader
	source  ports.RecordSource
	store   ports.LockStore
	metrics ports.Metrics
	tracer   ports.Tracer
	exporter ports.TraceExporter
	logger   ports.Logger
	now      func() time.Time
}

// New creates a new App instance.
func New(
	loader ports.EnvironmentLoader,
	source ports.RecordSource,
	store ports.LockStore,
	metrics ports.Metrics,
	tracer ports.Tracer,
	exporter ports.TraceExporter,
	log ports.Logger,
) *App {
	return &App{
		loader:   loader,
		source:   source,
		store:    store,
		metrics:  metrics,
		tracer:   tracer,
		exporter: exporter,
		logger:   log,
		now:      time.Now,
	}
}

// WithClock replaces the clock used to timestamp lockfiles.
func (a *App) WithClock(now func() time.Time) *App {
	a.now = now
	return a
}

// SetJSONLogs switches the logger to JSON output when it supports it.
func (a *App) SetJSONLogs(enable bool) {
	if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
		l.SetJSON(enable)
	}
}

// EnableTracing starts exporting spans to w. With verbose set, finished spans are
// also reported to the logger. The returned function flushes and stops export.
func (a *App) EnableTracing(w io.Writer, verbose bool) (func(context.Context) error, error) {
	if a.exporter == nil {
		return func(context.Context) error { return nil }, nil
	}
	var log ports.Logger
	if verbose {
		log = a.logger
	}
	return a.exporter.Install(w, log)
}

// SolveOptions configuration for the Solve method.
type SolveOptions struct {
	// EnvFile is an environment file or a directory to search for one. Empty skips it.
	EnvFile string

	// Repodata, Specs, Locked, Pinned and Virtual replace the environment file's lists when non-empty.
	Repodata []string
	Specs    []string
	Locked   []string
	Pinned   []string
	Virtual  []string

	// Budget fields replace the environment file's budget when positive.
	Budget domain.Budget

	// NoStoredLock skips the stored lockfile of the specs as pin source.
	NoStoredLock bool

	// SaveLock records the solution in the lock store.
	SaveLock bool

	// Trace reports the search transitions to the logger.
	Trace bool
}

// SolveResult is the outcome of a successful Solve.
type SolveResult struct {
	// Specs are the normalized requested specs.
	Specs []string

	// Solution is the selected environment.
	Solution *domain.Solution
}

// Solve resolves the requested environment. An unsolvable request returns the
// *domain.ConflictError of the solver unchanged.
func (a *App) Solve(ctx context.Context, opts SolveOptions) (*SolveResult, error) {
	env, err := a.environment(opts)
	if err != nil {
		return nil, err
	}

	specs, err := matchspec.ParseAll(env.Specs)
	if err != nil {
		return nil, err
	}
	if len(specs) == 0 {
		return nil, domain.ErrNoSpecs
	}
	rendered := renderSpecs(specs)

	locked, err := matchspec.ParseAll(env.Locked)
	if err != nil {
		return nil, err
	}
	pinned, err := matchspec.ParseAll(env.Pinned)
	if err != nil {
		return nil, err
	}
	virtual, err := parseVirtual(env.Virtual)
	if err != nil {
		return nil, err
	}

	idx, err := a.load(ctx, env.Repodata, roots(specs, locked, pinned))
	if err != nil {
		return nil, err
	}

	task := &domain.SolverTask{
		AvailablePackages: idx,
		VirtualPackages:   virtual,
		Specs:             specs,
		Budget:            env.Budget,
	}
	if task.LockedPackages, err = resolveLocked(idx, locked); err != nil {
		return nil, err
	}
	task.PinnedPackages = a.resolvePinned(idx, pinned)
	if !opts.NoStoredLock {
		task.PinnedPackages = a.storedPins(idx, rendered, task.PinnedPackages)
	}

	sol, _, err := a.solve(ctx, rendered, task, opts.Trace)
	if err != nil {
		return nil, err
	}

	if opts.SaveLock {
		if err := a.saveLock(ctx, rendered, sol); err != nil {
			return nil, err
		}
	}
	return &SolveResult{Specs: rendered, Solution: sol}, nil
}

// environment merges the environment file with the explicit options.
func (a *App) environment(opts SolveOptions) (*domain.Environment, error) {
	env := &domain.Environment{}
	if opts.EnvFile != "" {
		loaded, err := a.loader.Load(opts.EnvFile)
		if err != nil {
			return nil, zerr.Wrap(err, "failed to load environment")
		}
		env = loaded
	}

	override := func(dst *[]string, src []string) {
		if len(src) > 0 {
			*dst = src
		}
	}
	override(&env.Repodata, opts.Repodata)
	override(&env.Specs, opts.Specs)
	override(&env.Locked, opts.Locked)
	override(&env.Pinned, opts.Pinned)
	override(&env.Virtual, opts.Virtual)
	if opts.Budget.MaxConflicts > 0 {
		env.Budget.MaxConflicts = opts.Budget.MaxConflicts
	}
	if opts.Budget.MaxDecisions > 0 {
		env.Budget.MaxDecisions = opts.Budget.MaxDecisions
	}
	return env, nil
}

func (a *App) load(ctx context.Context, sources, roots []string) (domain.PackageIndex, error) {
	ctx, span := a.tracer.Start(ctx, "load", ports.WithAttribute("sources", sources))
	defer span.End()

	idx, err := a.source.LoadRecordsRecursive(ctx, sources, roots)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	span.SetAttribute("records", idx.Len())
	span.SetAttribute("names", len(idx))
	return idx, nil
}

// solve runs one solve under a span and reports it to the metrics.
func (a *App) solve(
	ctx context.Context,
	specs []string,
	task *domain.SolverTask,
	trace bool,
) (*domain.Solution, domain.SolveStats, error) {
	_, span := a.tracer.Start(ctx, "solve", ports.WithAttribute("specs", specs))
	defer span.End()

	var stats domain.SolveStats
	opts := []solver.Option{solver.WithStats(&stats)}
	if trace {
		opts = append(opts, solver.WithLogger(a.logger.Info))
	}
	sol, err := solver.Solve(task, opts...)

	a.metrics.ObserveSolve(outcome(err), stats)
	span.SetAttribute("variables", stats.Variables)
	span.SetAttribute("clauses", stats.Clauses)
	span.SetAttribute("decisions", stats.Decisions)
	span.SetAttribute("conflicts", stats.Conflicts)
	span.SetAttribute("duration", stats.Duration)
	if err != nil {
		span.RecordError(err)
		return nil, stats, err
	}
	span.SetAttribute("packages", len(sol.Records))
	return sol, stats, nil
}

func (a *App) saveLock(ctx context.Context, specs []string, sol *domain.Solution) error {
	_, span := a.tracer.Start(ctx, "persist")
	defer span.End()

	if err := a.store.Put(domain.NewLockfile(specs, sol, a.now())); err != nil {
		span.RecordError(err)
		return zerr.Wrap(err, "failed to save lockfile")
	}
	a.logger.Info(fmt.Sprintf("saved lockfile with %d packages", len(sol.Records)))
	return nil
}

// storedPins adds the records of the stored lockfile of specs to pins. Explicit pins
// keep precedence on their names.
func (a *App) storedPins(idx domain.PackageIndex, specs []string, pins []*domain.PackageRecord) []*domain.PackageRecord {
	lf, err := a.store.Get(specs)
	if err != nil {
		a.logger.Warn("ignoring stored lockfile: " + err.Error())
		return pins
	}
	if lf == nil {
		return pins
	}

	records, missing := lf.Resolve(idx)
	for _, name := range missing {
		a.logger.Info("stored lock on " + name + " no longer matches an available record")
	}
	for _, rec := range records {
		if !slices.ContainsFunc(pins, func(p *domain.PackageRecord) bool { return p.Name == rec.Name }) {
			pins = append(pins, rec)
		}
	}
	return pins
}

func (a *App) resolvePinned(idx domain.PackageIndex, specs []domain.MatchSpec) []*domain.PackageRecord {
	out := make([]*domain.PackageRecord, 0, len(specs))
	for _, spec := range specs {
		rec := idx.Find(spec)
		if rec == nil {
			a.logger.Warn("ignoring pin " + spec.String() + ": no record matches")
			continue
		}
		out = append(out, rec)
	}
	return out
}

func resolveLocked(idx domain.PackageIndex, specs []domain.MatchSpec) ([]*domain.PackageRecord, error) {
	out := make([]*domain.PackageRecord, 0, len(specs))
	for _, spec := range specs {
		rec := idx.Find(spec)
		if rec == nil {
			return nil, zerr.With(domain.ErrRecordNotFound, "locked_spec", spec.String())
		}
		out = append(out, rec)
	}
	return out, nil
}

func parseVirtual(texts []string) ([]*domain.PackageRecord, error) {
	out := make([]*domain.PackageRecord, 0, len(texts))
	for _, text := range texts {
		rec, err := domain.ParseVirtualPackage(text)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// roots returns the names the index must cover.
func roots(groups ...[]domain.MatchSpec) []string {
	var names []string
	for _, specs := range groups {
		for _, s := range specs {
			if !slices.Contains(names, s.Name) {
				names = append(names, s.Name)
			}
		}
	}
	return names
}

func renderSpecs(specs []domain.MatchSpec) []string {
	out := make([]string, len(specs))
	for i, s := range specs {
		out[i] = s.String()
	}
	return out
}

// outcome classifies a solve result for the metrics.
func outcome(err error) string {
	var (
		conflict   *domain.ConflictError
		complexity *domain.ComplexityError
	)
	switch {
	case err == nil:
		return ports.OutcomeSolved
	case errors.As(err, &conflict):
		return ports.OutcomeUnsolvable
	case errors.As(err, &complexity):
		return ports.OutcomeExceeded
	default:
		return ports.OutcomeFailed
	}
}
