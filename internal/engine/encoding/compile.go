package encoding

import (
	"slices"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/matchspec"
	"go.trai.ch/rattle/internal/engine/sat"
	"go.trai.ch/zerr"
)

// Problem is a compiled solver task: one variable per candidate and one constraint
// per requirement, each with its provenance.
type Problem struct {
	// Solver holds the constraints. It is single-use.
	Solver *sat.Solver

	// Candidates is indexed by variable.
	Candidates []Candidate

	// Provenance is indexed by constraint reference.
	Provenance []Provenance

	// Warnings describes entries of the index that could not be compiled.
	Warnings []string

	names        []string
	byName       map[string][]sat.Var
	requests     [][]sat.Lit
	required     [][][]sat.Lit
	neighborhood map[string]bool
	pins         map[string]*domain.PackageRecord
}

// Names returns the candidate package names in sorted order.
func (p *Problem) Names() []string { return p.names }

// Vars returns the variables of name in preference order.
func (p *Problem) Vars(name string) []sat.Var { return p.byName[name] }

// Records maps variables to their records.
func (p *Problem) Records(vars []sat.Var) []*domain.PackageRecord {
	out := make([]*domain.PackageRecord, len(vars))
	for i, v := range vars {
		out[i] = p.Candidates[v].Record
	}
	return out
}

type parsedDependency struct {
	dep domain.Dependency
	err error
}

type parsedSpec struct {
	spec domain.MatchSpec
	err  error
}

type compiler struct {
	task *domain.SolverTask

	deps       map[string]parsedDependency
	constrains map[string]parsedSpec

	cands    map[string][]*Candidate
	topLevel map[string]bool
	pins     map[string]*domain.PackageRecord

	// seen stamps variables already listed for the dependency being emitted.
	seen []uint32
	mark uint32
}

// Compile translates task into a problem. Only names reachable from the requested
// specs and the locked records take part. Entries that cannot be parsed are reported
// in Problem.Warnings; a record with an unparsable dependency is excluded.
func Compile(task *domain.SolverTask) *Problem {
	c := &compiler{
		task:       task,
		deps:       make(map[string]parsedDependency),
		constrains: make(map[string]parsedSpec),
		cands:      make(map[string][]*Candidate),
		topLevel:   make(map[string]bool),
		pins:       make(map[string]*domain.PackageRecord),
	}
	for _, spec := range task.Specs {
		c.topLevel[spec.Name] = true
	}
	for _, rec := range task.PinnedPackages {
		if _, ok := c.pins[rec.Name]; !ok {
			c.pins[rec.Name] = rec
		}
	}

	c.collect()
	neighborhood := c.neighborhood()
	p := &Problem{
		byName:       make(map[string][]sat.Var),
		neighborhood: neighborhood,
		pins:         c.pins,
	}
	c.order(p)
	c.emit(p)
	return p
}

func (c *compiler) dependency(text string) parsedDependency {
	if d, ok := c.deps[text]; ok {
		return d
	}
	dep, err := matchspec.ParseDependency(text)
	d := parsedDependency{dep: dep, err: err}
	c.deps[text] = d
	return d
}

func (c *compiler) constraint(text string) parsedSpec {
	if s, ok := c.constrains[text]; ok {
		return s
	}
	spec, err := matchspec.Parse(text)
	s := parsedSpec{spec: spec, err: err}
	c.constrains[text] = s
	return s
}

// collect gathers the candidates of every name reachable through dependency edges.
func (c *compiler) collect() {
	var queue []string
	for _, spec := range c.task.Specs {
		queue = append(queue, spec.Name)
	}
	for _, rec := range c.task.LockedPackages {
		queue = append(queue, rec.Name)
	}

	seen := make(map[string]bool)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true

		cands := c.gather(name)
		c.cands[name] = cands
		for _, cand := range cands {
			for _, text := range cand.Record.Depends {
				d := c.dependency(text)
				if d.err != nil {
					continue
				}
				for _, n := range d.dep.Names() {
					if !seen[n] {
						queue = append(queue, n)
					}
				}
			}
		}
	}
}

// gather lists the candidates of name: index records in index order, then locked,
// pinned and virtual records the index does not carry. Index records are taken as
// distinct; only out-of-index records are compared against the list.
func (c *compiler) gather(name string) []*Candidate {
	index := c.task.AvailablePackages[name]
	out := make([]*Candidate, 0, len(index))
	for _, rec := range index {
		out = append(out, &Candidate{Record: rec, Origin: domain.OriginIndex})
	}
	add := func(rec *domain.PackageRecord, origin domain.Origin) {
		for _, cand := range out {
			if cand.Record.Same(rec) {
				if origin > cand.Origin && cand.Origin != domain.OriginLocked {
					cand.Origin = origin
				}
				return
			}
		}
		out = append(out, &Candidate{Record: rec, Origin: origin})
	}

	for _, rec := range c.task.LockedPackages {
		if rec.Name == name {
			add(rec, domain.OriginLocked)
		}
	}
	for _, rec := range c.task.PinnedPackages {
		if rec.Name == name {
			add(rec, domain.OriginPinned)
		}
	}
	for _, rec := range c.task.VirtualPackages {
		if rec.Name == name {
			add(rec, domain.OriginVirtual)
		}
	}

	pin := c.pins[name]
	for _, cand := range out {
		cand.Pinned = pin != nil && cand.Record.Same(pin)
	}
	return out
}

// neighborhood returns the names reachable from locked records, following the
// dependencies of locked and pinned records. Locked names are excluded.
func (c *compiler) neighborhood() map[string]bool {
	locked := make(map[string]bool)
	var queue []*domain.PackageRecord
	for _, rec := range c.task.LockedPackages {
		locked[rec.Name] = true
		queue = append(queue, rec)
	}

	out := make(map[string]bool)
	for len(queue) > 0 {
		rec := queue[0]
		queue = queue[1:]
		for _, text := range rec.Depends {
			d := c.dependency(text)
			if d.err != nil {
				continue
			}
			for _, n := range d.dep.Names() {
				if locked[n] || out[n] {
					continue
				}
				out[n] = true
				if pin := c.pins[n]; pin != nil {
					queue = append(queue, pin)
				}
			}
		}
	}
	return out
}

// order sorts every name's candidates by preference and numbers the variables.
func (c *compiler) order(p *Problem) {
	names := make([]string, 0, len(c.cands))
	for name := range c.cands {
		names = append(names, name)
	}
	slices.Sort(names)
	p.names = names

	for _, name := range names {
		cands := c.cands[name]
		channels := make(map[domain.InternedString]int)
		for i, cand := range cands {
			rec := cand.Record
			if _, ok := channels[rec.Channel]; !ok {
				channels[rec.Channel] = len(channels)
			}
			cand.key = CandidateKey{
				Locked:       cand.Origin == domain.OriginLocked,
				Virtual:      cand.Origin == domain.OriginVirtual,
				NeighborPin:  cand.Pinned && p.neighborhood[name],
				TopLevel:     c.topLevel[name],
				Pinned:       cand.Pinned,
				Version:      rec.Version,
				BuildNumber:  rec.BuildNumber,
				TrackFeature: len(rec.TrackFeatures),
				Timestamp:    rec.Timestamp,
				ChannelRank:  channels[rec.Channel],
				Position:     i,
			}
		}

		byRecency := slices.Clone(cands)
		slices.SortStableFunc(byRecency, func(a, b *Candidate) int { return a.key.compareRecency(b.key) })
		for i, cand := range byRecency {
			cand.Recency = i
		}

		slices.SortStableFunc(cands, func(a, b *Candidate) int { return a.key.Compare(b.key) })
		vars := make([]sat.Var, len(cands))
		for i, cand := range cands {
			cand.Rank = i
			cand.Var = sat.Var(len(p.Candidates))
			vars[i] = cand.Var
			p.Candidates = append(p.Candidates, *cand)
		}
		p.byName[name] = vars
	}
}

func (c *compiler) emit(p *Problem) {
	p.Solver = sat.New(len(p.Candidates))
	p.required = make([][][]sat.Lit, len(p.Candidates))
	c.seen = make([]uint32, len(p.Candidates))

	for i, spec := range c.task.Specs {
		var lits []sat.Lit
		var vars []sat.Var
		for _, v := range p.byName[spec.Name] {
			if spec.Matches(p.Candidates[v].Record) {
				lits = append(lits, sat.Pos(v))
				vars = append(vars, v)
			}
		}
		p.requests = append(p.requests, lits)
		p.clause(Provenance{
			Kind:       domain.CauseRequest,
			Spec:       spec.String(),
			Name:       spec.Name,
			Candidates: vars,
			Request:    i,
		}, lits...)
	}

	for _, rec := range c.task.LockedPackages {
		v := p.find(rec)
		p.clause(Provenance{
			Kind:       domain.CauseLock,
			Spec:       exactSpec(rec),
			Record:     rec,
			Name:       rec.Name,
			Candidates: []sat.Var{v},
			Request:    -1,
		}, sat.Pos(v))
	}

	for _, name := range p.names {
		vars := p.byName[name]
		if len(vars) < 2 {
			continue
		}
		p.Solver.AddAtMostOne(vars...)
		p.Provenance = append(p.Provenance, Provenance{
			Kind:       domain.CauseExclusivity,
			Name:       name,
			Candidates: vars,
			Request:    -1,
		})
	}

	for v := range p.Candidates {
		c.emitDependencies(p, sat.Var(v))
	}
	for v := range p.Candidates {
		c.emitConstrains(p, sat.Var(v))
	}
}

func (c *compiler) emitDependencies(p *Problem, v sat.Var) {
	rec := p.Candidates[v].Record
	for _, text := range rec.Depends {
		d := c.dependency(text)
		if d.err != nil {
			p.Warnings = append(p.Warnings, "excluding "+rec.Locator()+": "+d.err.Error())
			p.clause(Provenance{
				Kind:      domain.CauseDependency,
				Spec:      text,
				Record:    rec,
				Request:   -1,
				Malformed: true,
			}, sat.Neg(v))
			continue
		}

		// A single alternative lists each variable of its name at most once.
		multi := len(d.dep.Alternatives) > 1
		if multi {
			c.mark++
		}
		lits := []sat.Lit{sat.Neg(v)}
		var vars []sat.Var
		for _, alt := range d.dep.Alternatives {
			for _, u := range p.byName[alt.Name] {
				if multi && c.seen[u] == c.mark {
					continue
				}
				if alt.Matches(p.Candidates[u].Record) {
					if multi {
						c.seen[u] = c.mark
					}
					vars = append(vars, u)
					lits = append(lits, sat.Pos(u))
				}
			}
		}
		p.required[v] = append(p.required[v], lits[1:])
		p.clause(Provenance{
			Kind:       domain.CauseDependency,
			Spec:       text,
			Record:     rec,
			Name:       d.dep.Alternatives[0].Name,
			Candidates: vars,
			Request:    -1,
		}, lits...)
	}
}

func (c *compiler) emitConstrains(p *Problem, v sat.Var) {
	rec := p.Candidates[v].Record
	for _, text := range rec.Constrains {
		s := c.constraint(text)
		if s.err != nil {
			p.Warnings = append(p.Warnings, "ignoring constraint of "+rec.Locator()+": "+s.err.Error())
			continue
		}

		var admitted, excluded []sat.Var
		for _, u := range p.byName[s.spec.Name] {
			if s.spec.Matches(p.Candidates[u].Record) {
				admitted = append(admitted, u)
			} else {
				excluded = append(excluded, u)
			}
		}
		for _, u := range excluded {
			p.clause(Provenance{
				Kind:       domain.CauseConstrains,
				Spec:       text,
				Record:     rec,
				Name:       s.spec.Name,
				Target:     p.Candidates[u].Record,
				Candidates: admitted,
				Request:    -1,
			}, sat.Neg(v), sat.Neg(u))
		}
	}
}

func (p *Problem) clause(pv Provenance, lits ...sat.Lit) {
	p.Solver.AddClause(lits...)
	p.Provenance = append(p.Provenance, pv)
}

func (p *Problem) find(rec *domain.PackageRecord) sat.Var {
	for _, v := range p.byName[rec.Name] {
		if p.Candidates[v].Record.Same(rec) {
			return v
		}
	}
	panic(zerr.With(domain.ErrInvariantViolated, "locked_record", rec.String()))
}

func exactSpec(rec *domain.PackageRecord) string {
	s := rec.Name + " ==" + rec.Version.String()
	if rec.Build != "" {
		s += " " + rec.Build
	}
	return s
}
