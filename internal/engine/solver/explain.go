package solver

import (
	"cmp"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/encoding"
	"go.trai.ch/rattle/internal/engine/sat"
)

// maxListed bounds the candidates named in one explanation line.
const maxListed = 4

var kindOrder = map[domain.CauseKind]int{
	domain.CauseRequest:     0,
	domain.CauseLock:        1,
	domain.CauseDependency:  2,
	domain.CauseConstrains:  3,
	domain.CauseExclusivity: 4,
}

type item struct {
	pv    encoding.Provenance
	cause domain.Cause
	used  bool
}

// explain maps an unsatisfiable core back to its origins and renders the causal chain.
func explain(p *encoding.Problem, task *domain.SolverTask, core []sat.Ref) *domain.Conflict {
	items := gatherItems(p, core)

	var lines []string
	for i := range items {
		it := &items[i]
		if it.pv.Kind != domain.CauseRequest || it.used {
			continue
		}
		rng := versionRange(task.Specs[it.pv.Request])
		if partner := findPartner(items, i); partner != nil {
			partner.used = true
			lines = append(lines, "requested spec "+quote(it.pv.Spec)+" requires package "+it.pv.Name+
				" at version range "+rng+", but "+describe(partner.pv)+" forces "+it.pv.Name+" outside "+rng)
			continue
		}
		lines = append(lines, requestLine(p, it.pv, rng))
	}
	for i := range items {
		it := &items[i]
		if it.pv.Kind == domain.CauseRequest || it.used {
			continue
		}
		lines = append(lines, causeLine(p, it.pv))
	}

	c := &domain.Conflict{Explanation: lines}
	for _, it := range items {
		c.Causes = append(c.Causes, it.cause)
	}
	return c
}

// gatherItems converts core constraints to causes, requests first. Constrains clauses
// of the same entry collapse into one cause. A request that matches nothing also
// cites the locks on its name.
func gatherItems(p *encoding.Problem, core []sat.Ref) []item {
	var items []item
	seen := make(map[string]bool)
	add := func(pv encoding.Provenance) {
		key := pv.Kind.String() + "\x00" + pv.Spec + "\x00" + pv.Name
		if pv.Record != nil {
			key += "\x00" + pv.Record.Locator()
		}
		if seen[key] {
			return
		}
		seen[key] = true
		items = append(items, item{pv: pv, cause: domain.Cause{
			Kind:       pv.Kind,
			Spec:       pv.Spec,
			Record:     pv.Record,
			Name:       pv.Name,
			Candidates: p.Records(pv.Candidates),
		}})
	}

	for _, ref := range core {
		add(p.Provenance[ref])
	}
	for _, ref := range core {
		pv := p.Provenance[ref]
		if pv.Kind != domain.CauseRequest || len(pv.Candidates) > 0 {
			continue
		}
		for _, other := range p.Provenance {
			if other.Kind == domain.CauseLock && other.Name == pv.Name {
				add(other)
			}
		}
	}

	slices.SortStableFunc(items, func(a, b item) int {
		if c := cmp.Compare(kindOrder[a.pv.Kind], kindOrder[b.pv.Kind]); c != 0 {
			return c
		}
		return cmp.Compare(a.pv.Request, b.pv.Request)
	})
	return items
}

// findPartner returns the cause that restricts the name of request i elsewhere.
func findPartner(items []item, i int) *item {
	name := items[i].pv.Name
	for j := range items {
		it := &items[j]
		if j == i || it.used || it.pv.Name != name {
			continue
		}
		switch it.pv.Kind {
		case domain.CauseLock, domain.CauseDependency, domain.CauseConstrains, domain.CauseRequest:
			if it.pv.Kind == domain.CauseDependency && it.pv.Malformed {
				continue
			}
			return it
		}
	}
	return nil
}

func versionRange(spec domain.MatchSpec) string {
	if spec.Version == nil {
		return "*"
	}
	return spec.Version.String()
}

func describe(pv encoding.Provenance) string {
	switch pv.Kind {
	case domain.CauseLock:
		return "the lock on " + pv.Record.String()
	case domain.CauseDependency:
		return "the dependency " + quote(pv.Spec) + " of " + pv.Record.String()
	case domain.CauseConstrains:
		return "the constraint " + quote(pv.Spec) + " of " + pv.Record.String()
	default:
		return "the requested spec " + quote(pv.Spec)
	}
}

func requestLine(p *encoding.Problem, pv encoding.Provenance, rng string) string {
	if len(pv.Candidates) > 0 {
		return "requested spec " + quote(pv.Spec) + " requires package " + pv.Name +
			" at version range " + rng + " (" + listRecords(p.Records(pv.Candidates)) + ")"
	}
	if len(p.Vars(pv.Name)) == 0 {
		return "requested spec " + quote(pv.Spec) + " requires package " + pv.Name + ", which no channel provides"
	}
	return "requested spec " + quote(pv.Spec) + " requires package " + pv.Name + " at version range " + rng +
		", but no available record matches (" + listRecords(p.Records(p.Vars(pv.Name))) + ")"
}

func causeLine(p *encoding.Problem, pv encoding.Provenance) string {
	switch pv.Kind {
	case domain.CauseLock:
		return "package " + pv.Name + " is locked to " + pv.Record.String()
	case domain.CauseDependency:
		switch {
		case pv.Malformed:
			return "package " + pv.Record.String() + " has an unreadable dependency " + quote(pv.Spec)
		case len(pv.Candidates) == 0:
			return "package " + pv.Record.String() + " depends on " + quote(pv.Spec) + ", which no available record provides"
		default:
			return "package " + pv.Record.String() + " depends on " + quote(pv.Spec) +
				" (" + listRecords(p.Records(pv.Candidates)) + ")"
		}
	case domain.CauseConstrains:
		return "package " + pv.Record.String() + " constrains " + quote(pv.Spec) + ", which excludes " + pv.Target.String()
	case domain.CauseExclusivity:
		return "only one record of " + pv.Name + " can be installed"
	default:
		return "requested spec " + quote(pv.Spec)
	}
}

func listRecords(recs []*domain.PackageRecord) string {
	names := make([]string, 0, min(len(recs), maxListed))
	for i, r := range recs {
		if i == maxListed {
			break
		}
		names = append(names, r.String())
	}
	s := strings.Join(names, ", ")
	if extra := len(recs) - maxListed; extra > 0 {
		s += " and " + strconv.Itoa(extra) + " more"
	}
	return s
}

func quote(s string) string {
	return "\"" + s + "\""
}
