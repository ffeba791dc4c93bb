package encoding

import (
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/sat"
)

// Provenance records where a constraint of the compiled problem came from.
type Provenance struct {
	Kind domain.CauseKind

	// Spec is the constraint text as written: the requested spec, the depends or
	// constrains entry, or the locked record as an exact spec.
	Spec string

	// Record carries the constraint: the depending or constraining record, or the
	// locked record.
	Record *domain.PackageRecord

	// Name is the package the constraint restricts.
	Name string

	// Target is the candidate a constrains clause excludes.
	Target *domain.PackageRecord

	// Candidates are the variables the constraint admits, in preference order.
	Candidates []sat.Var

	// Request is the index of the requested spec, or -1.
	Request int

	// Malformed is set on a dependency entry that could not be parsed; the carrying
	// record is excluded.
	Malformed bool
}
