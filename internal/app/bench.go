package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/rattle/internal/engine/matchspec"
	"golang.org/x/sync/errgroup"
)

// DefaultBenchSets are the spec sets benchmarked when none are given.
var DefaultBenchSets = [][]string{
	{"python=3.9"},
	{"xtensor", "xsimd"},
	{"tensorflow"},
	{"quetz"},
	{"tensorboard=2.1.1", "grpc-cpp=1.39.1"},
}

// BenchOptions configuration for the Bench method.
type BenchOptions struct {
	// Repodata lists the repodata files, highest channel priority first.
	Repodata []string

	// Sets are the spec sets to solve. Empty uses DefaultBenchSets.
	Sets [][]string

	// Iterations is the number of solves per set. Values below 1 mean 1.
	Iterations int

	// Concurrency bounds the sets solved at once. Values below 1 mean one per set.
	Concurrency int

	// Budget bounds each solve.
	Budget domain.Budget
}

// BenchResult summarizes the solves of one spec set.
type BenchResult struct {
	Specs    []string
	Outcome  string
	Packages int
	Min      time.Duration
	Mean     time.Duration
	Max      time.Duration
	Stats    domain.SolveStats

	// Err is the error of the last solve, if any.
	Err error
}

// BenchReport is the outcome of Bench.
type BenchReport struct {
	// Records is the size of the loaded index.
	Records int

	// Load is the time spent reading the repodata.
	Load time.Duration

	// Results holds one entry per set, in input order.
	Results []BenchResult

	// Totals aggregate every solve observed by the metrics.
	Totals ports.SolveTotals
}

// Bench loads the repodata once and solves every set the given number of times.
// Sets run concurrently over the shared index. Unsolvable sets are reported, not
// returned as errors.
func (a *App) Bench(ctx context.Context, opts BenchOptions) (*BenchReport, error) {
	sets := opts.Sets
	if len(sets) == 0 {
		sets = DefaultBenchSets
	}
	iterations := max(opts.Iterations, 1)

	parsed := make([][]domain.MatchSpec, len(sets))
	for i, set := range sets {
		specs, err := matchspec.ParseAll(set)
		if err != nil {
			return nil, err
		}
		if len(specs) == 0 {
			return nil, domain.ErrNoSpecs
		}
		parsed[i] = specs
	}

	start := time.Now()
	idx, err := a.load(ctx, opts.Repodata, roots(parsed...))
	if err != nil {
		return nil, err
	}
	report := &BenchReport{Records: idx.Len(), Load: time.Since(start), Results: make([]BenchResult, len(sets))}
	a.logger.Info(fmt.Sprintf("loaded %d records in %s", report.Records, report.Load.Round(time.Millisecond)))

	g, ctx := errgroup.WithContext(ctx)
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, specs := range parsed {
		g.Go(func() error {
			res, err := a.benchSet(ctx, idx, specs, iterations, opts.Budget)
			if err != nil {
				return err
			}
			report.Results[i] = res
			a.logger.Info(fmt.Sprintf("%s: %s, mean %s", strings.Join(res.Specs, ", "), res.Outcome, res.Mean))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if report.Totals, err = a.metrics.Totals(); err != nil {
		return nil, err
	}
	return report, nil
}

// benchSet solves one set iterations times. Only cancellation aborts it.
func (a *App) benchSet(
	ctx context.Context,
	idx domain.PackageIndex,
	specs []domain.MatchSpec,
	iterations int,
	budget domain.Budget,
) (BenchResult, error) {
	res := BenchResult{Specs: renderSpecs(specs)}
	var total time.Duration
	for i := range iterations {
		if err := ctx.Err(); err != nil {
			return BenchResult{}, err
		}
		task := &domain.SolverTask{AvailablePackages: idx, Specs: specs, Budget: budget}
		sol, stats, err := a.solve(ctx, res.Specs, task, false)

		res.Outcome = outcome(err)
		res.Err = err
		res.Stats = stats
		if sol != nil {
			res.Packages = len(sol.Records)
		}
		d := stats.Duration
		total += d
		if i == 0 || d < res.Min {
			res.Min = d
		}
		res.Max = max(res.Max, d)
	}
	res.Mean = total / time.Duration(iterations)
	return res, nil
}
