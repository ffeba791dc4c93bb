package domain

import (
	"slices"
	"strings"
)

// CanonicalSpecs builds a deterministic key from a list of rendered specs. The
// order of the input does not matter and duplicates collapse.
func CanonicalSpecs(specs []string) string {
	sorted := slices.Clone(specs)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	var b strings.Builder
	for _, s := range sorted {
		b.WriteString(s)
		b.WriteByte(';')
	}
	return b.String()
}
