package solver

import (
	"cmp"
	"slices"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/encoding"
	"go.trai.ch/rattle/internal/engine/matchspec"
	"go.trai.ch/zerr"
)

// extract assembles the solution of a model and re-checks it. A duplicate name or an
// unsatisfied dependency is a defect of the compiler or the search and panics.
func extract(p *encoding.Problem, model []bool) *domain.Solution {
	sol := &domain.Solution{}
	selected := make(map[string]*domain.PackageRecord)
	for v, on := range model {
		if !on {
			continue
		}
		c := &p.Candidates[v]
		if prev, ok := selected[c.Record.Name]; ok {
			panic(zerr.With(zerr.With(domain.ErrInvariantViolated, "selected", prev.String()), "duplicate", c.Record.String()))
		}
		selected[c.Record.Name] = c.Record
		if c.Virtual() {
			sol.Virtual = append(sol.Virtual, c.Record)
		} else {
			sol.Records = append(sol.Records, c.Record)
		}
	}

	byName := func(a, b *domain.PackageRecord) int { return cmp.Compare(a.Name, b.Name) }
	slices.SortFunc(sol.Records, byName)
	slices.SortFunc(sol.Virtual, byName)

	for _, rec := range selected {
		for _, text := range rec.Depends {
			dep, err := matchspec.ParseDependency(text)
			if err != nil {
				panic(zerr.With(zerr.With(domain.ErrInvariantViolated, "record", rec.String()), "reason", err.Error()))
			}
			if !satisfied(dep, selected) {
				panic(zerr.With(zerr.With(domain.ErrInvariantViolated, "record", rec.String()), "dangling", text))
			}
		}
	}
	return sol
}

func satisfied(dep domain.Dependency, selected map[string]*domain.PackageRecord) bool {
	for _, alt := range dep.Alternatives {
		if rec, ok := selected[alt.Name]; ok && alt.Matches(rec) {
			return true
		}
	}
	return false
}
