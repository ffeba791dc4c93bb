package domain

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// CauseKind identifies the origin of a constraint taking part in a conflict.
type CauseKind uint8

const (
	// CauseRequest is a requested top-level spec.
	CauseRequest CauseKind = iota
	// CauseDependency is a dependency edge of a record.
	CauseDependency
	// CauseConstrains is a run constraint of a record.
	CauseConstrains
	// CauseLock is a locked record.
	CauseLock
	// CauseExclusivity is the rule that only one record per name may be installed.
	CauseExclusivity
)

// String returns the kind name.
func (k CauseKind) String() string {
	switch k {
	case CauseRequest:
		return "request"
	case CauseDependency:
		return "dependency"
	case CauseConstrains:
		return "constrains"
	case CauseLock:
		return "lock"
	case CauseExclusivity:
		return "exclusivity"
	default:
		return "unknown"
	}
}

// Cause is one constraint of an unsatisfiable core, mapped back to where it came from.
type Cause struct {
	Kind CauseKind

	// Spec is the constraint text: the requested spec, the dependency or
	// constrains entry, or the lock rendered as an exact spec.
	Spec string

	// Record is the record that carries the constraint (dependency, constrains) or
	// the locked record. It is nil for requests and exclusivity.
	Record *PackageRecord

	// Name is the package name the constraint is about.
	Name string

	// Candidates are the records of Name the constraint admits.
	Candidates []*PackageRecord
}

// Conflict is an explained unsatisfiable core.
type Conflict struct {
	// Causes are the constraints of the core, requests first.
	Causes []Cause

	// Explanation holds the rendered causal chain, one sentence per line.
	Explanation []string
}

// Names returns the sorted distinct package names the conflict involves.
func (c *Conflict) Names() []string {
	var names []string
	for _, cause := range c.Causes {
		if cause.Name != "" && !slices.Contains(names, cause.Name) {
			names = append(names, cause.Name)
		}
		if cause.Record != nil && !slices.Contains(names, cause.Record.Name) {
			names = append(names, cause.Record.Name)
		}
	}
	slices.Sort(names)
	return names
}

// Involves reports whether the conflict names package name.
func (c *Conflict) Involves(name string) bool {
	return slices.Contains(c.Names(), name)
}

// Has reports whether the conflict contains a cause of the given kind about name.
func (c *Conflict) Has(kind CauseKind, name string) bool {
	for _, cause := range c.Causes {
		if cause.Kind != kind {
			continue
		}
		if cause.Name == name || (cause.Record != nil && cause.Record.Name == name) {
			return true
		}
	}
	return false
}

// Lines returns the rendered explanation.
func (c *Conflict) Lines() []string {
	return c.Explanation
}

// String renders the explanation as an indented list.
func (c *Conflict) String() string {
	var b strings.Builder
	for i, line := range c.Explanation {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  - ")
		b.WriteString(line)
	}
	return b.String()
}

// ConflictError is returned when a solve proves that no solution exists.
type ConflictError struct {
	Conflict *Conflict
}

// Error implements error.
func (e *ConflictError) Error() string {
	if e.Conflict == nil || len(e.Conflict.Explanation) == 0 {
		return ErrUnsolvable.Error()
	}
	return ErrUnsolvable.Error() + ":\n" + e.Conflict.String()
}

// Unwrap returns ErrUnsolvable.
func (e *ConflictError) Unwrap() error {
	return ErrUnsolvable
}

// ComplexityError is returned when a solve exhausts its budget before reaching a verdict.
type ComplexityError struct {
	Budget Budget
	Stats  SolveStats
}

// Error implements error.
func (e *ComplexityError) Error() string {
	return fmt.Sprintf("%s after %d conflicts and %d decisions (limits: conflicts=%s, decisions=%s)",
		ErrComplexityExceeded.Error(), e.Stats.Conflicts, e.Stats.Decisions,
		limitString(e.Budget.MaxConflicts), limitString(e.Budget.MaxDecisions))
}

// Unwrap returns ErrComplexityExceeded.
func (e *ComplexityError) Unwrap() error {
	return ErrComplexityExceeded
}

func limitString(n int) string {
	if n <= 0 {
		return "unbounded"
	}
	return strconv.Itoa(n)
}

// ParseError describes malformed match spec text.
type ParseError struct {
	// Input is the full text that was parsed.
	Input string

	// Pos is the byte offset of the offending fragment in Input.
	Pos int

	// Fragment is the offending part of Input.
	Fragment string

	// Reason describes what was expected.
	Reason string
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %s at position %d near %q",
		ErrInvalidMatchSpec.Error(), e.Input, e.Reason, e.Pos, e.Fragment)
}

// Unwrap returns ErrInvalidMatchSpec.
func (e *ParseError) Unwrap() error {
	return ErrInvalidMatchSpec
}
