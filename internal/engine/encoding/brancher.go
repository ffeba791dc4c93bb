package encoding

import "go.trai.ch/rattle/internal/engine/sat"

// Brancher returns the decision heuristic of the problem. It satisfies the first open
// requirement: requested specs in order, then the dependencies of selected records in
// the order they were selected. The best unassigned candidate of that requirement is
// decided true. With no open requirement left the solver sets the rest false.
func (p *Problem) Brancher() sat.Brancher {
	return &brancher{requests: p.requests, required: p.required, epoch: -1}
}

type brancher struct {
	requests [][]sat.Lit
	required [][][]sat.Lit

	// Scan progress, valid while the epoch is unchanged: requirements before these
	// positions are satisfied.
	epoch    int
	request  int
	trailPos int
}

func (b *brancher) Next(a sat.Assignment) (sat.Lit, bool) {
	if e := a.Epoch(); e != b.epoch {
		b.epoch, b.request, b.trailPos = e, 0, 0
	}

	for ; b.request < len(b.requests); b.request++ {
		if lit, ok := open(a, b.requests[b.request]); ok {
			return lit, true
		}
	}

	trail := a.Trail()
	for ; b.trailPos < len(trail); b.trailPos++ {
		l := trail[b.trailPos]
		if l.IsNeg() {
			continue
		}
		for _, req := range b.required[l.Var()] {
			if lit, ok := open(a, req); ok {
				return lit, true
			}
		}
	}
	return sat.LitUndef, false
}

// open returns the first unassigned literal of an unsatisfied requirement.
func open(a sat.Assignment, lits []sat.Lit) (sat.Lit, bool) {
	first := sat.LitUndef
	for _, l := range lits {
		switch a.LitValue(l) {
		case sat.True:
			return sat.LitUndef, false
		case sat.Unassigned:
			if first == sat.LitUndef {
				first = l
			}
		}
	}
	return first, first != sat.LitUndef
}
