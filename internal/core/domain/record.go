package domain

import (
	"slices"
	"strconv"
	"strings"
)

// PackageRecord describes one installable build of a package, the way a repodata
// entry does. Records are immutable once loaded; the solver only ever reads them.
type PackageRecord struct {
	// Name is the normalized (lower case) package name.
	Name string

	// Version is the parsed package version.
	Version Version

	// Build is the build string (e.g., "py39h6a678d5_0").
	Build string

	// BuildNumber orders builds of the same version.
	BuildNumber uint64

	// Depends lists the dependency match specs of this build.
	Depends []string

	// Constrains lists optional constraints on other packages, applied only when they are installed.
	Constrains []string

	// Channel is the channel the record was loaded from.
	Channel InternedString

	// Subdir is the platform subdirectory (e.g., "linux-64", "noarch").
	Subdir InternedString

	// FileName is the archive file name in the channel.
	FileName string

	// Timestamp is the build time in milliseconds since the epoch.
	Timestamp int64

	// MD5 is the hex encoded MD5 digest of the archive.
	MD5 string

	// SHA256 is the hex encoded SHA-256 digest of the archive.
	SHA256 string

	// Size is the archive size in bytes.
	Size uint64

	// TrackFeatures lists the features tracked by this build. Builds tracking
	// features are deprioritized.
	TrackFeatures []string

	// Features is the legacy features string.
	Features string
}

// String returns the conventional "name-version-build" identifier.
func (r *PackageRecord) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte('-')
	b.WriteString(r.Version.String())
	if r.Build != "" {
		b.WriteByte('-')
		b.WriteString(r.Build)
	}
	return b.String()
}

// Identity returns the key used to deduplicate records across channels:
// the same name, version and build from two channels are one package.
func (r *PackageRecord) Identity() string {
	return r.Name + "=" + r.Version.String() + "=" + r.Build
}

// Locator returns a fully qualified location for the record, including channel and subdir.
func (r *PackageRecord) Locator() string {
	var b strings.Builder
	if ch := r.Channel.String(); ch != "" {
		b.WriteString(ch)
		if sd := r.Subdir.String(); sd != "" {
			b.WriteByte('/')
			b.WriteString(sd)
		}
		b.WriteString("::")
	}
	b.WriteString(r.String())
	return b.String()
}

// Same reports whether r and o describe the same build.
func (r *PackageRecord) Same(o *PackageRecord) bool {
	if r == o {
		return true
	}
	if r == nil || o == nil {
		return false
	}
	return r.Name == o.Name && r.Version.Equal(o.Version) && r.Build == o.Build &&
		r.BuildNumber == o.BuildNumber && r.Channel == o.Channel && r.Subdir == o.Subdir
}

// BuildNumberString returns the build number in decimal form.
func (r *PackageRecord) BuildNumberString() string {
	return strconv.FormatUint(r.BuildNumber, 10)
}

// Origin tags where a solver candidate comes from. Locked, pinned and virtual
// packages share the PackageRecord representation and differ only by origin.
type Origin uint8

const (
	// OriginIndex marks a record supplied by the package index.
	OriginIndex Origin = iota
	// OriginLocked marks a record that must stay exactly as given.
	OriginLocked
	// OriginPinned marks a preferred but replaceable record.
	OriginPinned
	// OriginVirtual marks a synthetic record describing a platform capability.
	OriginVirtual
)

// String returns the origin name.
func (o Origin) String() string {
	switch o {
	case OriginLocked:
		return "locked"
	case OriginPinned:
		return "pinned"
	case OriginVirtual:
		return "virtual"
	default:
		return "index"
	}
}

// PackageIndex maps a package name to its ordered list of candidate records.
// It is shared read-only between solves.
type PackageIndex map[string][]*PackageRecord

// Names returns the package names of the index in sorted order.
func (idx PackageIndex) Names() []string {
	names := make([]string, 0, len(idx))
	for name := range idx {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Len returns the total number of records in the index.
func (idx PackageIndex) Len() int {
	n := 0
	for _, recs := range idx {
		n += len(recs)
	}
	return n
}

// Find returns the first record of name matching spec, or nil.
func (idx PackageIndex) Find(spec MatchSpec) *PackageRecord {
	for _, rec := range idx[spec.Name] {
		if spec.Matches(rec) {
			return rec
		}
	}
	return nil
}
