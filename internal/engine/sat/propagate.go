package sat

// conflict is a violated constraint: every literal of lits is false.
type conflict struct {
	lits   []Lit
	reason reason
}

// propagate runs unit propagation to a fixed point. Groups propagate natively: a
// member set true forces every other member false.
func (s *Solver) propagate() (conflict, bool) {
	for s.qhead < len(s.trail) {
		p := s.trail[s.qhead]
		s.qhead++
		s.stats.Propagations++

		if !p.IsNeg() {
			if c, ok := s.propagateGroups(p); ok {
				return c, true
			}
		}
		if c, ok := s.propagateClauses(p.Not()); ok {
			return c, true
		}
	}
	return conflict{}, false
}

func (s *Solver) propagateGroups(p Lit) (conflict, bool) {
	v := p.Var()
	for _, g := range s.varGroups[v] {
		for _, u := range s.groups[g].vars {
			if u == v {
				continue
			}
			switch s.values[u] {
			case True:
				return conflict{
					lits:   []Lit{Neg(v), Neg(u)},
					reason: reason{kind: reasonGroup, idx: g, by: p},
				}, true
			case Unassigned:
				s.assign(Neg(u), reason{kind: reasonGroup, idx: g, by: p})
			}
		}
	}
	return conflict{}, false
}

// propagateClauses visits the clauses watching falseLit, which just became false.
func (s *Solver) propagateClauses(falseLit Lit) (conflict, bool) {
	ws := s.watches[falseLit]
	i, j := 0, 0
	for i < len(ws) {
		ci := ws[i]
		i++
		c := &s.clauses[ci]

		if c.lits[0] == falseLit {
			c.lits[0], c.lits[1] = c.lits[1], c.lits[0]
		}
		if s.LitValue(c.lits[0]) == True {
			ws[j] = ci
			j++
			continue
		}

		moved := false
		for k := 2; k < len(c.lits); k++ {
			if s.LitValue(c.lits[k]) != False {
				c.lits[1], c.lits[k] = c.lits[k], c.lits[1]
				s.watches[c.lits[1]] = append(s.watches[c.lits[1]], ci)
				moved = true
				break
			}
		}
		if moved {
			continue
		}

		ws[j] = ci
		j++
		if s.LitValue(c.lits[0]) == False {
			j += copy(ws[j:], ws[i:])
			s.watches[falseLit] = ws[:j]
			return conflict{lits: c.lits, reason: reason{kind: reasonClause, idx: ci}}, true
		}
		s.assign(c.lits[0], reason{kind: reasonClause, idx: ci})
	}
	s.watches[falseLit] = ws[:j]
	return conflict{}, false
}

// explain returns the false literals that forced p under reason r.
func (s *Solver) explain(p Lit, r reason) []Lit {
	switch r.kind {
	case reasonClause:
		lits := s.clauses[r.idx].lits
		out := make([]Lit, 0, len(lits)-1)
		for _, l := range lits {
			if l != p {
				out = append(out, l)
			}
		}
		return out
	case reasonGroup:
		return []Lit{r.by.Not()}
	default:
		return nil
	}
}
