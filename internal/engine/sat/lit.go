// Package sat implements a conflict-driven clause learning solver over clauses and
// native at-most-one groups.
package sat

import "strconv"

// Var is a boolean variable, numbered from 0.
type Var int32

// Lit is a literal encoded as var<<1 | sign, where sign 1 is negation.
type Lit int32

// LitUndef is the absent literal.
const LitUndef Lit = -1

// Pos returns the positive literal of v.
func Pos(v Var) Lit { return Lit(v << 1) }

// Neg returns the negative literal of v.
func Neg(v Var) Lit { return Lit(v<<1 | 1) }

// Var returns the variable of l.
func (l Lit) Var() Var { return Var(l >> 1) }

// IsNeg reports whether l is a negative literal.
func (l Lit) IsNeg() bool { return l&1 == 1 }

// Not returns the complement of l.
func (l Lit) Not() Lit { return l ^ 1 }

// String renders l as "+3" or "-3".
func (l Lit) String() string {
	if l == LitUndef {
		return "undef"
	}
	sign := "+"
	if l.IsNeg() {
		sign = "-"
	}
	return sign + strconv.Itoa(int(l.Var()))
}

// Value is the assignment state of a variable or literal.
type Value int8

const (
	// Unassigned means no value has been given yet.
	Unassigned Value = iota
	// True means assigned true.
	True
	// False means assigned false.
	False
)

// String returns the value name.
func (v Value) String() string {
	switch v {
	case True:
		return "true"
	case False:
		return "false"
	default:
		return "unassigned"
	}
}
