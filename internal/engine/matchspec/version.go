package matchspec

import (
	"strings"

	"go.trai.ch/rattle/internal/core/domain"
)

type op uint8

const (
	opNone op = iota
	opFuzzy
	opExact
	opNe
	opGt
	opGe
	opLt
	opLe
	opCompatible
)

var operators = []struct {
	token string
	op    op
}{
	{"==", opExact},
	{"!=", opNe},
	{">=", opGe},
	{"<=", opLe},
	{"~=", opCompatible},
	{">", opGt},
	{"<", opLt},
	{"=", opFuzzy},
}

func (o op) domain() domain.Operator {
	switch o {
	case opNe:
		return domain.OpNe
	case opGt:
		return domain.OpGt
	case opGe:
		return domain.OpGe
	case opLt:
		return domain.OpLt
	case opLe:
		return domain.OpLe
	case opCompatible:
		return domain.OpCompatible
	case opFuzzy:
		return domain.OpStartsWith
	default:
		return domain.OpEq
	}
}

// operator scans an optional comparison operator at start.
func (p *parser) operator(start, end int) (op, int) {
	for _, o := range operators {
		if strings.HasPrefix(p.input[start:end], o.token) {
			return o.op, start + len(o.token)
		}
	}
	return opNone, start
}

// versionSpec parses the version predicate in input[start:end].
func (p *parser) versionSpec(start, end int) (domain.VersionSpec, error) {
	vp := &versionParser{p: p, pos: start, end: end}
	vs, err := vp.or()
	if err != nil {
		return nil, err
	}
	vp.skipSpace()
	if vp.pos < vp.end {
		if p.input[vp.pos] == ')' {
			return nil, p.fail(vp.pos, vp.end, "unbalanced parenthesis")
		}
		return nil, p.fail(vp.pos, vp.end, "unexpected character in version spec")
	}
	return vs, nil
}

// versionParser is a recursive descent parser where ',' binds tighter than '|'.
type versionParser struct {
	p   *parser
	pos int
	end int
}

func (vp *versionParser) skipSpace() {
	for vp.pos < vp.end && isSpace(vp.p.input[vp.pos]) {
		vp.pos++
	}
}

func (vp *versionParser) peek(c byte) bool {
	vp.skipSpace()
	return vp.pos < vp.end && vp.p.input[vp.pos] == c
}

// or returns nil when any alternative matches every version.
func (vp *versionParser) or() (domain.VersionSpec, error) {
	first, err := vp.and()
	if err != nil {
		return nil, err
	}
	alts := domain.VersionOr{first}
	anyVersion := first == nil
	for vp.peek('|') {
		vp.pos++
		next, err := vp.and()
		if err != nil {
			return nil, err
		}
		anyVersion = anyVersion || next == nil
		alts = append(alts, next)
	}
	if anyVersion {
		return nil, nil
	}
	if len(alts) == 1 {
		return first, nil
	}
	return alts, nil
}

// and drops members that match every version.
func (vp *versionParser) and() (domain.VersionSpec, error) {
	var all domain.VersionAnd
	for {
		term, err := vp.term()
		if err != nil {
			return nil, err
		}
		if term != nil {
			all = append(all, term)
		}
		if !vp.peek(',') {
			break
		}
		vp.pos++
	}
	switch len(all) {
	case 0:
		return nil, nil
	case 1:
		return all[0], nil
	default:
		return all, nil
	}
}

func (vp *versionParser) term() (domain.VersionSpec, error) {
	if vp.peek('(') {
		open := vp.pos
		vp.pos++
		inner, err := vp.or()
		if err != nil {
			return nil, err
		}
		if !vp.peek(')') {
			return nil, vp.p.fail(open, vp.end, "missing closing parenthesis")
		}
		vp.pos++
		return inner, nil
	}
	return vp.constraint()
}

func (vp *versionParser) constraint() (domain.VersionSpec, error) {
	vp.skipSpace()
	start := vp.pos
	o, pos := vp.p.operator(vp.pos, vp.end)
	vp.pos = pos
	if o == opNone && vp.pos < vp.end && vp.p.input[vp.pos] == '!' {
		return nil, vp.p.fail(start, vp.end, "invalid operator")
	}
	vp.skipSpace()

	litStart := vp.pos
	for vp.pos < vp.end && strings.IndexByte(",|() \t", vp.p.input[vp.pos]) < 0 {
		vp.pos++
	}
	lit := vp.p.input[litStart:vp.pos]
	if lit == "" {
		return nil, vp.p.fail(start, vp.pos, "missing version")
	}

	base, wildcard := strings.CutSuffix(lit, "*")
	if wildcard {
		base = strings.TrimSuffix(base, ".")
	}
	if strings.IndexByte(base, '*') >= 0 {
		return nil, vp.p.fail(litStart, vp.pos, "wildcard is only allowed at the end of a version")
	}

	if base == "" {
		switch o {
		case opNone, opFuzzy, opExact, opGe:
			return nil, nil
		default:
			return nil, vp.p.fail(start, vp.pos, "wildcard cannot be combined with this operator")
		}
	}

	v, err := domain.ParseVersion(base)
	if err != nil {
		return nil, vp.p.fail(litStart, vp.pos, "invalid version")
	}

	switch {
	case o == opCompatible && wildcard:
		return nil, vp.p.fail(start, vp.pos, "wildcard cannot be combined with ~=")
	case o == opNe && wildcard:
		return domain.VersionConstraint{Op: domain.OpNotStartsWith, Version: v}, nil
	case wildcard && (o == opNone || o == opExact || o == opFuzzy):
		return domain.VersionConstraint{Op: domain.OpStartsWith, Version: v}, nil
	default:
		return domain.VersionConstraint{Op: o.domain(), Version: v}, nil
	}
}
