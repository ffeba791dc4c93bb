// Package encoding compiles a solver task into boolean constraints over one variable
// per candidate record.
package encoding

import (
	"cmp"

	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/engine/sat"
)

// Candidate is one record the solver may select.
type Candidate struct {
	Record *domain.PackageRecord
	Origin domain.Origin
	Var    sat.Var

	// Rank is the position of the candidate in its name's preference order.
	Rank int

	// Recency is the position of the candidate when its name's candidates are ordered
	// newest first, ignoring locks and pins.
	Recency int

	// Pinned reports whether the candidate is the pin hint of its name.
	Pinned bool

	key CandidateKey
}

// Virtual reports whether the candidate is a virtual package.
func (c *Candidate) Virtual() bool { return c.Origin == domain.OriginVirtual }

// CandidateKey is the preference tuple of a candidate within its name. The fields
// are compared in declaration order.
type CandidateKey struct {
	Locked       bool
	Virtual      bool
	NeighborPin  bool
	TopLevel     bool
	Pinned       bool
	Version      domain.Version
	BuildNumber  uint64
	TrackFeature int
	Timestamp    int64
	ChannelRank  int
	Position     int
}

// Compare returns -1 when a is preferred over b, +1 when b is preferred and 0 when
// they tie. Locked, virtual and pinned candidates come first; for requested names the
// highest version beats a pin.
func (a CandidateKey) Compare(b CandidateKey) int {
	if c := preferTrue(a.Locked, b.Locked); c != 0 {
		return c
	}
	if c := preferTrue(a.Virtual, b.Virtual); c != 0 {
		return c
	}
	if c := preferTrue(a.NeighborPin, b.NeighborPin); c != 0 {
		return c
	}
	if a.TopLevel && b.TopLevel {
		if c := b.Version.Compare(a.Version); c != 0 {
			return c
		}
	}
	if c := preferTrue(a.Pinned, b.Pinned); c != 0 {
		return c
	}
	return a.compareRecency(b)
}

func (a CandidateKey) compareRecency(b CandidateKey) int {
	if c := b.Version.Compare(a.Version); c != 0 {
		return c
	}
	if c := cmp.Compare(b.BuildNumber, a.BuildNumber); c != 0 {
		return c
	}
	if c := cmp.Compare(a.TrackFeature, b.TrackFeature); c != 0 {
		return c
	}
	if c := cmp.Compare(b.Timestamp, a.Timestamp); c != 0 {
		return c
	}
	if c := cmp.Compare(a.ChannelRank, b.ChannelRank); c != 0 {
		return c
	}
	return cmp.Compare(a.Position, b.Position)
}

func preferTrue(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return -1
	default:
		return 1
	}
}
