package sat

import "slices"

// coreMaxConflicts caps each re-solve of core minimization when the search itself is
// unbounded.
const coreMaxConflicts = 10000

// coreOf maps a level-0 conflict to the original constraints it was derived from.
func (s *Solver) coreOf(confl conflict) []Ref {
	vars := make([]Var, 0, len(confl.lits))
	for _, l := range confl.lits {
		vars = append(vars, l.Var())
	}
	ants := s.zeroAntecedents(vars, []reason{confl.reason})
	return s.expand(ants)
}

// expand replaces learned clauses by their antecedents until only original
// constraints remain.
func (s *Solver) expand(ants []reason) []Ref {
	doneClause := make(map[int32]bool)
	var core []Ref

	stack := slices.Clone(ants)
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		switch r.kind {
		case reasonGroup:
			core = append(core, s.groups[r.idx].ref)
		case reasonClause:
			if doneClause[r.idx] {
				continue
			}
			doneClause[r.idx] = true
			c := &s.clauses[r.idx]
			if c.learned() {
				stack = append(stack, c.ants...)
				continue
			}
			core = append(core, c.ref)
		}
	}

	slices.Sort(core)
	return slices.Compact(core)
}

// Minimize shrinks an unsatisfiable core by deletion: each constraint is dropped in
// turn and kept out when the rest stays unsatisfiable. Only the core's constraints
// take part in the re-solves. Constraints whose removal cannot be decided within the
// budget are kept.
func (s *Solver) Minimize(core []Ref) []Ref {
	current := slices.Clone(core)
	slices.Sort(current)
	current = slices.Compact(current)

	budget := Budget{MaxConflicts: s.budget.MaxConflicts}
	if budget.MaxConflicts <= 0 {
		budget.MaxConflicts = coreMaxConflicts
	}

	for i := 0; i < len(current); {
		trial := slices.Delete(slices.Clone(current), i, i+1)
		res, mapping := s.subSolve(trial, budget)
		s.stats.CoreChecks++
		if res.Status != StatusUnsat {
			i++
			continue
		}

		smaller := make([]Ref, 0, len(res.Core))
		for _, r := range res.Core {
			smaller = append(smaller, mapping[r])
		}
		slices.Sort(smaller)
		current = smaller
	}
	return current
}

// subSolve solves the original constraints refs in isolation. The returned mapping
// translates references of the sub-problem back to references of s.
func (s *Solver) subSolve(refs []Ref, budget Budget) (Result, []Ref) {
	sub := New(s.numVars)
	sub.SetBudget(budget)
	mapping := make([]Ref, 0, len(refs))
	for _, ref := range refs {
		o := s.originals[ref]
		switch o.kind {
		case kindClause:
			sub.AddClause(s.clauses[o.idx].lits...)
		case kindGroup:
			sub.AddAtMostOne(s.groups[o.idx].vars...)
		}
		mapping = append(mapping, ref)
	}
	return sub.Solve(), mapping
}

// Constraint returns the literals of an original clause, or the variables of an
// original group as positive literals, and whether ref is a group.
func (s *Solver) Constraint(ref Ref) ([]Lit, bool) {
	o := s.originals[ref]
	if o.kind == kindGroup {
		vars := s.groups[o.idx].vars
		lits := make([]Lit, len(vars))
		for i, v := range vars {
			lits[i] = Pos(v)
		}
		return lits, true
	}
	return slices.Clone(s.clauses[o.idx].lits), false
}
