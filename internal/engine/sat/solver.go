package sat

import "fmt"

// Ref identifies an original constraint, clause or group, in the order it was added.
type Ref int32

type constraintKind uint8

const (
	kindClause constraintKind = iota
	kindGroup
)

type reasonKind uint8

const (
	reasonDecision reasonKind = iota
	reasonClause
	reasonGroup
)

// reason is the justification of an assignment: a decision, a clause that became
// unit, or a group whose member `by` was set true.
type reason struct {
	kind reasonKind
	idx  int32
	by   Lit
}

type clause struct {
	lits []Lit
	ref  Ref

	// ants lists the constraints a learned clause was derived from.
	ants []reason
}

func (c *clause) learned() bool { return c.ref < 0 }

type group struct {
	vars []Var
	ref  Ref
}

type original struct {
	kind constraintKind
	idx  int32
}

// Solver is a single-use CDCL search. Constraints are added with AddClause and
// AddAtMostOne, then Solve is called once.
type Solver struct {
	numVars int

	clauses   []clause
	groups    []group
	originals []original
	units     []int32
	emptyRef  Ref

	watches   [][]int32
	varGroups [][]int32

	values   []Value
	levels   []int32
	reasons  []reason
	trail    []Lit
	trailLim []int
	qhead    int
	epoch    int
	nextVar  int

	seen  []bool
	stamp []uint32
	mark  uint32

	// litStamp dedupes literals while constraints are added.
	litStamp []uint32
	litMark  uint32

	brancher Brancher
	budget   Budget
	trace    func(string)
	stats    Stats
	state    State
}

// New returns a solver over numVars variables.
func New(numVars int) *Solver {
	return &Solver{
		numVars:   numVars,
		emptyRef:  -1,
		watches:   make([][]int32, 2*numVars),
		varGroups: make([][]int32, numVars),
		values:    make([]Value, numVars),
		levels:    make([]int32, numVars),
		reasons:   make([]reason, numVars),
		seen:      make([]bool, numVars),
		stamp:     make([]uint32, numVars),
		litStamp:  make([]uint32, 2*numVars),
	}
}

// SetBrancher installs the decision heuristic. Without one, the solver decides the
// lowest unassigned variable false.
func (s *Solver) SetBrancher(b Brancher) { s.brancher = b }

// SetBudget bounds the search.
func (s *Solver) SetBudget(b Budget) { s.budget = b }

// SetTrace installs a hook receiving one line per state transition and learned clause.
func (s *Solver) SetTrace(fn func(string)) { s.trace = fn }

// NumVars returns the number of variables.
func (s *Solver) NumVars() int { return s.numVars }

// NumClauses returns the number of original and learned clauses.
func (s *Solver) NumClauses() int { return len(s.clauses) }

// NumGroups returns the number of at-most-one groups.
func (s *Solver) NumGroups() int { return len(s.groups) }

// AddClause adds the disjunction of lits and returns its reference. Duplicate
// literals are removed; an empty clause makes the problem unsatisfiable.
func (s *Solver) AddClause(lits ...Lit) Ref {
	ref := Ref(len(s.originals))
	idx := int32(len(s.clauses))
	s.originals = append(s.originals, original{kind: kindClause, idx: idx})

	s.litMark++
	norm := make([]Lit, 0, len(lits))
	tautology := false
	for _, l := range lits {
		s.checkVar(l.Var())
		if s.litStamp[l] == s.litMark {
			continue
		}
		if s.litStamp[l.Not()] == s.litMark {
			tautology = true
		}
		s.litStamp[l] = s.litMark
		norm = append(norm, l)
	}
	s.clauses = append(s.clauses, clause{lits: norm, ref: ref})

	switch {
	case tautology:
	case len(norm) == 0:
		if s.emptyRef < 0 {
			s.emptyRef = ref
		}
	case len(norm) == 1:
		s.units = append(s.units, idx)
	default:
		s.watch(idx)
	}
	return ref
}

// AddAtMostOne adds the constraint that at most one of vars is true and returns its
// reference.
func (s *Solver) AddAtMostOne(vars ...Var) Ref {
	ref := Ref(len(s.originals))
	idx := int32(len(s.groups))
	s.originals = append(s.originals, original{kind: kindGroup, idx: idx})

	s.litMark++
	members := make([]Var, 0, len(vars))
	for _, v := range vars {
		s.checkVar(v)
		if s.litStamp[Pos(v)] != s.litMark {
			s.litStamp[Pos(v)] = s.litMark
			members = append(members, v)
		}
	}
	s.groups = append(s.groups, group{vars: members, ref: ref})
	if len(members) > 1 {
		for _, v := range members {
			s.varGroups[v] = append(s.varGroups[v], idx)
		}
	}
	return ref
}

func (s *Solver) checkVar(v Var) {
	if v < 0 || int(v) >= s.numVars {
		panic(fmt.Sprintf("sat: variable %d out of range [0, %d)", v, s.numVars))
	}
}

func (s *Solver) watch(idx int32) {
	c := &s.clauses[idx]
	s.watches[c.lits[0]] = append(s.watches[c.lits[0]], idx)
	s.watches[c.lits[1]] = append(s.watches[c.lits[1]], idx)
}

// Value returns the current value of v.
func (s *Solver) Value(v Var) Value { return s.values[v] }

// LitValue returns the current value of l.
func (s *Solver) LitValue(l Lit) Value {
	v := s.values[l.Var()]
	if v == Unassigned || !l.IsNeg() {
		return v
	}
	if v == True {
		return False
	}
	return True
}

// Trail returns the assigned literals in assignment order. The slice must not be modified.
func (s *Solver) Trail() []Lit { return s.trail }

// Epoch counts backjumps; a changed epoch means trail entries may have been undone.
func (s *Solver) Epoch() int { return s.epoch }

// Level returns the current decision level.
func (s *Solver) Level() int { return len(s.trailLim) }

// Stats returns the counters of the search so far.
func (s *Solver) Stats() Stats { return s.stats }

// Solve runs the search to a verdict.
func (s *Solver) Solve() Result {
	if s.emptyRef >= 0 {
		s.setState(StateUnsat)
		return Result{Status: StatusUnsat, Core: []Ref{s.emptyRef}, Stats: s.stats}
	}

	var (
		confl   conflict
		learnt  []Lit
		ants    []reason
		btLevel int
	)

	state := StatePropagating
	if c, ok := s.enqueueUnits(); ok {
		confl, state = c, StateConflict
	}

	for {
		s.setState(state)
		switch state {
		case StatePropagating:
			if c, ok := s.propagate(); ok {
				confl, state = c, StateConflict
				continue
			}
			state = StateDeciding

		case StateDeciding:
			lit, ok := s.pickBranch()
			if !ok {
				state = StateSat
				continue
			}
			s.stats.Decisions++
			if s.budget.decisionsExceeded(s.stats.Decisions) {
				state = StateExceeded
				continue
			}
			s.trailLim = append(s.trailLim, len(s.trail))
			s.assign(lit, reason{kind: reasonDecision})
			state = StatePropagating

		case StateConflict:
			s.stats.Conflicts++
			if s.Level() == 0 {
				state = StateUnsat
				continue
			}
			if s.budget.conflictsExceeded(s.stats.Conflicts) {
				state = StateExceeded
				continue
			}
			state = StateAnalyzing

		case StateAnalyzing:
			learnt, btLevel, ants = s.analyze(confl)
			state = StateBackjumping

		case StateBackjumping:
			s.cancelUntil(btLevel)
			s.learn(learnt, ants)
			state = StatePropagating

		case StateSat:
			model := make([]bool, s.numVars)
			for v, val := range s.values {
				model[v] = val == True
			}
			return Result{Status: StatusSat, Model: model, Stats: s.stats}

		case StateUnsat:
			return Result{Status: StatusUnsat, Core: s.coreOf(confl), Stats: s.stats}

		case StateExceeded:
			return Result{Status: StatusExceeded, Stats: s.stats}
		}
	}
}

func (s *Solver) setState(st State) {
	s.state = st
	if s.trace != nil {
		s.tracef("state=%s level=%d trail=%d", st, s.Level(), len(s.trail))
	}
}

func (s *Solver) tracef(format string, args ...any) {
	if s.trace != nil {
		s.trace(fmt.Sprintf(format, args...))
	}
}

// pickBranch asks the brancher for a decision and falls back to deciding the lowest
// unassigned variable false.
func (s *Solver) pickBranch() (Lit, bool) {
	if s.brancher != nil {
		if lit, ok := s.brancher.Next(s); ok && s.values[lit.Var()] == Unassigned {
			return lit, true
		}
	}
	for ; s.nextVar < s.numVars; s.nextVar++ {
		if s.values[s.nextVar] == Unassigned {
			return Neg(Var(s.nextVar)), true
		}
	}
	return LitUndef, false
}

func (s *Solver) assign(l Lit, r reason) {
	v := l.Var()
	if l.IsNeg() {
		s.values[v] = False
	} else {
		s.values[v] = True
	}
	s.levels[v] = int32(s.Level())
	s.reasons[v] = r
	s.trail = append(s.trail, l)
}

func (s *Solver) cancelUntil(level int) {
	if s.Level() <= level {
		return
	}
	start := s.trailLim[level]
	for i := len(s.trail) - 1; i >= start; i-- {
		v := s.trail[i].Var()
		s.values[v] = Unassigned
		s.reasons[v] = reason{}
	}
	s.trail = s.trail[:start]
	s.trailLim = s.trailLim[:level]
	s.qhead = start
	s.nextVar = 0
	s.epoch++
}

// enqueueUnits assigns the original unit clauses at level 0.
func (s *Solver) enqueueUnits() (conflict, bool) {
	for _, idx := range s.units {
		l := s.clauses[idx].lits[0]
		switch s.LitValue(l) {
		case False:
			return conflict{lits: s.clauses[idx].lits, reason: reason{kind: reasonClause, idx: idx}}, true
		case Unassigned:
			s.assign(l, reason{kind: reasonClause, idx: idx})
		}
	}
	return conflict{}, false
}
