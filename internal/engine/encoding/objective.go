package encoding

import "go.trai.ch/rattle/internal/core/domain"

// Score evaluates the objective of a model.
func (p *Problem) Score(model []bool) domain.Score {
	selected := make(map[string]*Candidate)
	var score domain.Score
	for v, on := range model {
		if !on {
			continue
		}
		c := &p.Candidates[v]
		selected[c.Record.Name] = c
		if !c.Virtual() {
			score.Packages++
			score.Recency += c.Recency
		}
	}

	score.SpecRanks = make([]int, len(p.requests))
	for i, lits := range p.requests {
		score.SpecRanks[i] = len(lits)
		for rank, l := range lits {
			if model[l.Var()] {
				score.SpecRanks[i] = rank
				break
			}
		}
	}

	for name := range p.pins {
		sel := selected[name]
		if sel != nil && sel.Pinned {
			continue
		}
		score.Churn++
		if p.neighborhood[name] {
			score.LockDrift++
		}
	}
	return score
}
