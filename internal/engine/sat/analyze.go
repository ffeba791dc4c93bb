package sat

import (
	"cmp"
	"slices"
)

// analyze derives the first-UIP clause of a conflict. It returns the learned
// literals with the asserting literal first and a literal of the backjump level
// second, the backjump level, and the constraints the clause was derived from.
func (s *Solver) analyze(confl conflict) ([]Lit, int, []reason) {
	cur := int32(s.Level())
	learnt := []Lit{LitUndef}
	ants := []reason{confl.reason}
	var marked, zero []Var

	lits := confl.lits
	p := LitUndef
	idx := len(s.trail) - 1
	pending := 0

	for {
		for _, q := range lits {
			v := q.Var()
			if s.seen[v] {
				continue
			}
			s.seen[v] = true
			marked = append(marked, v)

			switch lvl := s.levels[v]; {
			case lvl == 0:
				zero = append(zero, v)
			case lvl == cur:
				pending++
			default:
				learnt = append(learnt, q)
			}
		}

		for !s.seen[s.trail[idx].Var()] {
			idx--
		}
		p = s.trail[idx]
		idx--
		pending--
		if pending == 0 {
			break
		}
		r := s.reasons[p.Var()]
		ants = append(ants, r)
		lits = s.explain(p, r)
	}
	learnt[0] = p.Not()

	for _, v := range marked {
		s.seen[v] = false
	}
	ants = s.zeroAntecedents(zero, ants)

	btLevel := 0
	for i := 2; i < len(learnt); i++ {
		if s.levels[learnt[i].Var()] > s.levels[learnt[1].Var()] {
			learnt[1], learnt[i] = learnt[i], learnt[1]
		}
	}
	if len(learnt) > 1 {
		btLevel = int(s.levels[learnt[1].Var()])
	}

	return learnt, btLevel, dedupReasons(ants)
}

// zeroAntecedents appends the reasons of the level-0 assignments in vars, and
// transitively of the assignments they were forced by. Literals false at level 0 are
// dropped from learned clauses, so their derivations become antecedents instead.
func (s *Solver) zeroAntecedents(vars []Var, ants []reason) []reason {
	if len(vars) == 0 {
		return ants
	}
	s.mark++
	stack := slices.Clone(vars)
	for _, v := range vars {
		s.stamp[v] = s.mark
	}
	for len(stack) > 0 {
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		r := s.reasons[v]
		if r.kind == reasonDecision {
			continue
		}
		ants = append(ants, r)

		lit := Pos(v)
		if s.values[v] == False {
			lit = Neg(v)
		}
		for _, q := range s.explain(lit, r) {
			u := q.Var()
			if s.stamp[u] != s.mark {
				s.stamp[u] = s.mark
				stack = append(stack, u)
			}
		}
	}
	return ants
}

// learn stores a learned clause and asserts its first literal. The trail must
// already be cut back to the backjump level.
func (s *Solver) learn(lits []Lit, ants []reason) {
	idx := int32(len(s.clauses))
	s.clauses = append(s.clauses, clause{lits: lits, ref: -1, ants: ants})
	if len(lits) > 1 {
		s.watch(idx)
	}
	s.stats.Learned++
	if s.trace != nil {
		s.tracef("learned clause %v from %d antecedents", lits, len(ants))
	}
	s.assign(lits[0], reason{kind: reasonClause, idx: idx})
}

func dedupReasons(rs []reason) []reason {
	key := func(r reason) int64 { return int64(r.idx)<<2 | int64(r.kind) }
	slices.SortFunc(rs, func(a, b reason) int { return cmp.Compare(key(a), key(b)) })
	out := rs[:0]
	for _, r := range rs {
		if len(out) > 0 && key(out[len(out)-1]) == key(r) {
			continue
		}
		r.by = LitUndef
		out = append(out, r)
	}
	return out
}
