package domain

import (
	"slices"
	"time"
)

// LockfileVersion is the current lockfile format version.
const LockfileVersion = 1

// Lockfile is a persisted solution. It is read back as pin hints for later solves
// of the same specs.
type Lockfile struct {
	// Version is the lockfile format version.
	Version int `json:"version"`

	// Specs are the normalized requested specs the solution was computed for.
	Specs []string `json:"specs"`

	// CreatedAt is the time the solution was recorded.
	CreatedAt time.Time `json:"created_at,omitzero"`

	// Packages are the installed records, ordered by name.
	Packages []LockedPackage `json:"packages"`
}

// LockedPackage identifies one installed record of a lockfile.
type LockedPackage struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Build       string `json:"build"`
	BuildNumber uint64 `json:"build_number"`
	Channel     string `json:"channel,omitempty"`
	Subdir      string `json:"subdir,omitempty"`
	SHA256      string `json:"sha256,omitempty"`
}

// NewLockfile records a solution for specs.
func NewLockfile(specs []string, sol *Solution, now time.Time) *Lockfile {
	lf := &Lockfile{
		Version:   LockfileVersion,
		Specs:     slices.Clone(specs),
		CreatedAt: now.UTC(),
		Packages:  make([]LockedPackage, 0, len(sol.Records)),
	}
	for _, rec := range sol.Records {
		lf.Packages = append(lf.Packages, LockedPackage{
			Name:        rec.Name,
			Version:     rec.Version.String(),
			Build:       rec.Build,
			BuildNumber: rec.BuildNumber,
			Channel:     rec.Channel.String(),
			Subdir:      rec.Subdir.String(),
			SHA256:      rec.SHA256,
		})
	}
	return lf
}

// Matches reports whether rec is the build recorded by p.
func (p LockedPackage) Matches(rec *PackageRecord) bool {
	if rec.Name != p.Name || rec.Version.String() != p.Version || rec.Build != p.Build {
		return false
	}
	return p.Channel == "" || p.Channel == rec.Channel.String()
}

// Resolve maps the lockfile entries to records of idx. Entries without a matching
// record are returned by name in missing.
func (lf *Lockfile) Resolve(idx PackageIndex) (records []*PackageRecord, missing []string) {
	for _, p := range lf.Packages {
		i := slices.IndexFunc(idx[p.Name], p.Matches)
		if i < 0 {
			missing = append(missing, p.Name)
			continue
		}
		records = append(records, idx[p.Name][i])
	}
	return records, missing
}
