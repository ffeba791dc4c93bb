package solver_test

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/matchspec"
	"go.trai.ch/rattle/internal/engine/solver"
)

func rec(name, version string, buildNumber uint64, depends ...string) *domain.PackageRecord {
	return &domain.PackageRecord{
		Name:        name,
		Version:     domain.MustParseVersion(version),
		Build:       fmt.Sprintf("h%d", buildNumber),
		BuildNumber: buildNumber,
		Depends:     depends,
		Channel:     domain.NewInternedString("conda-forge"),
		Subdir:      domain.NewInternedString("linux-64"),
	}
}

func index(recs ...*domain.PackageRecord) domain.PackageIndex {
	idx := make(domain.PackageIndex)
	for _, r := range recs {
		idx[r.Name] = append(idx[r.Name], r)
	}
	return idx
}

func task(t *testing.T, idx domain.PackageIndex, specs ...string) *domain.SolverTask {
	t.Helper()
	parsed, err := matchspec.ParseAll(specs)
	require.NoError(t, err)
	return &domain.SolverTask{AvailablePackages: idx, Specs: parsed}
}

func selection(sol *domain.Solution) []string {
	out := make([]string, 0, len(sol.Records))
	for _, r := range sol.Records {
		out = append(out, r.String())
	}
	return out
}

func conflictOf(t *testing.T, err error) *domain.Conflict {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrUnsolvable)
	var ce *domain.ConflictError
	require.ErrorAs(t, err, &ce)
	require.NotNil(t, ce.Conflict)
	return ce.Conflict
}

func TestSolve_ScenarioA(t *testing.T) {
	idx := index(
		rec("python", "3.8.10", 0, "zlib"),
		rec("python", "3.9.0", 0, "openssl >=1.1", "zlib"),
		rec("python", "3.9.1", 1, "openssl >=1.1", "zlib"),
		rec("openssl", "1.0.2", 0),
		rec("openssl", "1.1.1", 0, "ca-certificates"),
		rec("ca-certificates", "2021.10.8", 0),
		rec("zlib", "1.2.11", 0),
		rec("zlib", "1.2.13", 0),
	)

	sol, err := solver.Solve(task(t, idx, "python=3.9"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"ca-certificates-2021.10.8-h0",
		"openssl-1.1.1-h0",
		"python-3.9.1-h1",
		"zlib-1.2.13-h0",
	}, selection(sol))
	assert.Empty(t, sol.Virtual)
	assert.Equal(t, []int{0}, sol.Score.SpecRanks)
	assert.Equal(t, 4, sol.Score.Packages)
	assert.Equal(t, 2, sol.Stats.Decisions)
	assert.Positive(t, sol.Stats.Variables)
}

func TestSolve_ScenarioB(t *testing.T) {
	idx := index(
		rec("pkga", "1.0", 0, "pkgb >=2"),
		rec("pkgb", "1.0", 0),
	)

	_, err := solver.Solve(task(t, idx, "pkga"))
	c := conflictOf(t, err)
	assert.True(t, c.Has(domain.CauseDependency, "pkgb"))
	assert.True(t, c.Has(domain.CauseRequest, "pkga"))

	g := goldie.New(t)
	g.Assert(t, "scenario_b", []byte(c.String()))
}

func TestSolve_ScenarioC(t *testing.T) {
	locked := rec("pkgc", "1.0", 0)

	t.Run("newer record available", func(t *testing.T) {
		tk := task(t, index(locked, rec("pkgc", "2.0", 0)), "pkgc>=2")
		tk.LockedPackages = []*domain.PackageRecord{locked}

		_, err := solver.Solve(tk)
		c := conflictOf(t, err)
		assert.True(t, c.Has(domain.CauseLock, "pkgc"))
		assert.True(t, c.Has(domain.CauseRequest, "pkgc"))

		g := goldie.New(t)
		g.Assert(t, "scenario_c", []byte(c.String()))
	})

	t.Run("only the locked record", func(t *testing.T) {
		tk := task(t, index(locked), "pkgc>=2")
		tk.LockedPackages = []*domain.PackageRecord{locked}

		_, err := solver.Solve(tk)
		c := conflictOf(t, err)
		assert.True(t, c.Has(domain.CauseLock, "pkgc"))
		require.NotEmpty(t, c.Lines())
		assert.Contains(t, c.Lines()[0], "forces pkgc outside >=2")
	})
}

func TestSolve_ConflictingRequests(t *testing.T) {
	idx := index(rec("lib", "1.0", 0), rec("lib", "2.0", 0), rec("other", "1.0", 0))

	_, err := solver.Solve(task(t, idx, "other", "lib <2", "lib >=2"))
	c := conflictOf(t, err)
	assert.Equal(t, []string{"lib"}, c.Names())
	assert.Equal(t, []string{
		`requested spec "lib <2" requires package lib at version range <2, but the requested spec "lib >=2" forces lib outside <2`,
		"only one record of lib can be installed",
	}, c.Lines())
}

func TestSolve_MissingPackage(t *testing.T) {
	_, err := solver.Solve(task(t, index(rec("lib", "1.0", 0)), "nothere"))
	c := conflictOf(t, err)
	assert.Equal(t, []string{`requested spec "nothere" requires package nothere, which no channel provides`}, c.Lines())
}

func TestSolve_LockHonored(t *testing.T) {
	lockedLib := rec("lib", "1.0", 0)
	idx := index(
		rec("app", "1.0", 0, "lib"),
		rec("app", "2.0", 0, "lib >=2"),
		lockedLib, rec("lib", "2.0", 0),
	)
	tk := task(t, idx, "app")
	tk.LockedPackages = []*domain.PackageRecord{lockedLib}

	sol, err := solver.Solve(tk)
	require.NoError(t, err)
	assert.Equal(t, []string{"app-1.0-h0", "lib-1.0-h0"}, selection(sol))
	assert.Same(t, lockedLib, sol.Record("lib"))
}

func TestSolve_PinIsSoft(t *testing.T) {
	pinned := rec("lib", "1.0", 0)
	idx := index(rec("app", "2.0", 0, "lib >=2"), pinned, rec("lib", "2.0", 0))
	tk := task(t, idx, "app")
	tk.PinnedPackages = []*domain.PackageRecord{pinned}

	sol, err := solver.Solve(tk)
	require.NoError(t, err)
	assert.Equal(t, []string{"app-2.0-h0", "lib-2.0-h0"}, selection(sol))
	assert.Equal(t, 1, sol.Score.Churn)
}

func TestSolve_VirtualPackages(t *testing.T) {
	glibc := rec("__glibc", "2.28", 0)
	idx := index(
		rec("python", "3.10", 0, "__glibc >=2.30"),
		rec("python", "3.9", 0, "__glibc >=2.17"),
	)
	tk := task(t, idx, "python")
	tk.VirtualPackages = []*domain.PackageRecord{glibc}

	sol, err := solver.Solve(tk)
	require.NoError(t, err)
	assert.Equal(t, []string{"python-3.9-h0"}, selection(sol))
	assert.Equal(t, []*domain.PackageRecord{glibc}, sol.Virtual)
	assert.Equal(t, 1, sol.Score.Packages)
}

func TestSolve_Budget(t *testing.T) {
	idx := index(
		rec("app", "1.0", 0, "lib"), rec("app", "0.9", 0),
		rec("lib", "1.0", 0), rec("lib", "0.9", 0),
	)
	tk := task(t, idx, "app")
	tk.Budget = domain.Budget{MaxDecisions: 1}

	var stats domain.SolveStats
	sol, err := solver.Solve(tk, solver.WithStats(&stats))
	assert.Nil(t, sol)
	require.ErrorIs(t, err, domain.ErrComplexityExceeded)
	assert.NotErrorIs(t, err, domain.ErrUnsolvable)

	var ce *domain.ComplexityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 2, ce.Stats.Decisions)
	assert.Equal(t, 2, stats.Decisions)
	assert.Equal(t, tk.Budget, ce.Budget)
}

func TestSolve_WithLogger(t *testing.T) {
	idx := index(rec("app", "1.0", 0, "lib >=>1"), rec("app", "0.9", 0))
	var lines []string
	sol, err := solver.Solve(task(t, idx, "app"), solver.WithLogger(func(s string) { lines = append(lines, s) }))
	require.NoError(t, err)
	assert.Equal(t, []string{"app-0.9-h0"}, selection(sol))

	joined := strings.Join(lines, "\n")
	assert.Contains(t, joined, "warning: excluding conda-forge/linux-64::app-1.0-h0")
	assert.Contains(t, joined, "compiled 2 variables")
	assert.Contains(t, joined, "state=sat")
}

func TestSolve_Deterministic(t *testing.T) {
	idx := index(
		rec("app", "1.0", 0, "lib", "tool | other"),
		rec("lib", "1.0", 0), rec("lib", "1.0", 1),
		rec("tool", "2.0", 0, "lib <1"),
		rec("other", "1.0", 0),
	)

	first, err := solver.Solve(task(t, idx, "app"))
	require.NoError(t, err)
	for range 5 {
		again, err := solver.Solve(task(t, idx, "app"))
		require.NoError(t, err)
		assert.Equal(t, first.Records, again.Records)
	}
	assert.Equal(t, []string{"app-1.0-h0", "lib-1.0-h1", "other-1.0-h0"}, selection(first))
}

// randomIndex builds a layered index where packages only depend on later layers.
func randomIndex(rng *rand.Rand) domain.PackageIndex {
	const names = 6
	var recs []*domain.PackageRecord
	for n := range names {
		for v := range 1 + rng.IntN(3) {
			var deps []string
			for d := n + 1; d < names; d++ {
				if rng.IntN(3) != 0 {
					continue
				}
				deps = append(deps, fmt.Sprintf("p%d >=%d", d, 1+rng.IntN(3)))
			}
			r := rec(fmt.Sprintf("p%d", n), fmt.Sprintf("%d.0", v+1), 0, deps...)
			if rng.IntN(4) == 0 {
				r.Constrains = []string{fmt.Sprintf("p%d <%d", rng.IntN(names), 1+rng.IntN(3))}
			}
			recs = append(recs, r)
		}
	}
	return index(recs...)
}

func checkSolution(t *testing.T, sol *domain.Solution) {
	t.Helper()
	names := make(map[string]bool)
	for _, r := range sol.Records {
		require.False(t, names[r.Name], "duplicate %s", r.Name)
		names[r.Name] = true
	}
	for _, r := range sol.Records {
		for _, text := range r.Depends {
			dep, err := matchspec.ParseDependency(text)
			require.NoError(t, err)
			sel := sol.Record(dep.Alternatives[0].Name)
			require.NotNil(t, sel, "%s: dangling %s", r, text)
			require.True(t, dep.Matches(sel), "%s: %s not satisfied by %s", r, text, sel)
		}
	}
}

func TestSolve_Properties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := range 200 {
		idx := randomIndex(rng)
		specText := fmt.Sprintf("p%d >=%d", rng.IntN(3), 1+rng.IntN(3))
		relaxed := strings.Fields(specText)[0]

		base := task(t, idx, specText)
		sol, err := solver.Solve(base)
		if err != nil {
			conflictOf(t, err)
		} else {
			checkSolution(t, sol)
		}

		loose, looseErr := solver.Solve(task(t, idx, relaxed))
		if err == nil {
			require.NoError(t, looseErr, "round %d: relaxing %q broke the solve", round, specText)
		}
		if looseErr != nil {
			continue
		}
		checkSolution(t, loose)

		// Lock a random record of one of the last layers.
		name := fmt.Sprintf("p%d", 3+rng.IntN(3))
		cands := idx[name]
		locked := cands[rng.IntN(len(cands))]
		lockTask := task(t, idx, relaxed)
		lockTask.LockedPackages = []*domain.PackageRecord{locked}

		lockSol, lockErr := solver.Solve(lockTask)
		if lockErr != nil {
			c := conflictOf(t, lockErr)
			require.True(t, c.Involves(name), "round %d: conflict does not name %s:\n%s", round, name, c)
			continue
		}
		checkSolution(t, lockSol)
		require.Same(t, locked, lockSol.Record(name), "round %d", round)
	}
}
