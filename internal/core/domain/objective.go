package domain

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Score is the objective value of a selection, compared lexicographically tier by
// tier. Lower is better in every tier.
type Score struct {
	// LockDrift counts names reachable from locked records whose selection differs
	// from their pin.
	LockDrift int

	// SpecRanks holds, per requested spec in order, the rank of the selected record
	// among that spec's matching candidates (0 is the most preferred).
	SpecRanks []int

	// Packages is the number of selected non-virtual records.
	Packages int

	// Recency is the sum of per-name candidate ranks of the selection.
	Recency int

	// Churn counts pinned names whose selection differs from or drops the pin.
	Churn int
}

// Compare returns -1 when s is better than o, +1 when worse and 0 when equal.
func (s Score) Compare(o Score) int {
	if c := cmp.Compare(s.LockDrift, o.LockDrift); c != 0 {
		return c
	}
	if c := slices.Compare(s.SpecRanks, o.SpecRanks); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Packages, o.Packages); c != 0 {
		return c
	}
	if c := cmp.Compare(s.Recency, o.Recency); c != 0 {
		return c
	}
	return cmp.Compare(s.Churn, o.Churn)
}

// Less reports whether s is strictly better than o.
func (s Score) Less(o Score) bool {
	return s.Compare(o) < 0
}

// String renders the tuple as "(drift, [ranks], packages, recency, churn)".
func (s Score) String() string {
	ranks := make([]string, len(s.SpecRanks))
	for i, r := range s.SpecRanks {
		ranks[i] = strconv.Itoa(r)
	}
	return "(" + strconv.Itoa(s.LockDrift) +
		", [" + strings.Join(ranks, " ") + "], " +
		strconv.Itoa(s.Packages) + ", " +
		strconv.Itoa(s.Recency) + ", " +
		strconv.Itoa(s.Churn) + ")"
}
