package domain

import (
	"slices"
	"strconv"
	"strings"
)

// Operator is a comparison operator of a version or build number constraint.
type Operator uint8

const (
	// OpEq matches versions equal to the operand.
	OpEq Operator = iota
	// OpNe matches versions different from the operand.
	OpNe
	// OpGt matches versions greater than the operand.
	OpGt
	// OpGe matches versions greater than or equal to the operand.
	OpGe
	// OpLt matches versions less than the operand.
	OpLt
	// OpLe matches versions less than or equal to the operand.
	OpLe
	// OpCompatible matches versions compatible with the operand ("~=").
	OpCompatible
	// OpStartsWith matches versions in the prefix range of the operand ("1.2.*").
	OpStartsWith
	// OpNotStartsWith matches versions outside the prefix range of the operand ("!=1.2.*").
	OpNotStartsWith
)

// String returns the operator token. OpStartsWith renders as "=" and OpNotStartsWith
// as "!=", the range is carried by the trailing ".*" of the operand.
func (op Operator) String() string {
	switch op {
	case OpEq:
		return "=="
	case OpNe, OpNotStartsWith:
		return "!="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpCompatible:
		return "~="
	default:
		return "="
	}
}

// VersionSpec is a predicate over versions. A nil VersionSpec matches every version.
type VersionSpec interface {
	// Matches reports whether v satisfies the predicate.
	Matches(v Version) bool
	// String renders the predicate in match spec syntax.
	String() string
}

// VersionConstraint compares a version against a single operand.
type VersionConstraint struct {
	Op      Operator
	Version Version
}

// Matches implements VersionSpec.
func (c VersionConstraint) Matches(v Version) bool {
	switch c.Op {
	case OpEq:
		return v.Equal(c.Version)
	case OpNe:
		return !v.Equal(c.Version)
	case OpGt:
		return v.Compare(c.Version) > 0
	case OpGe:
		return v.Compare(c.Version) >= 0
	case OpLt:
		return v.Compare(c.Version) < 0
	case OpLe:
		return v.Compare(c.Version) <= 0
	case OpCompatible:
		return v.CompatibleWith(c.Version)
	case OpStartsWith:
		return v.StartsWith(c.Version)
	case OpNotStartsWith:
		return !v.StartsWith(c.Version)
	default:
		return false
	}
}

// String implements VersionSpec.
func (c VersionConstraint) String() string {
	switch c.Op {
	case OpStartsWith:
		return c.Version.String() + ".*"
	case OpNotStartsWith:
		return "!=" + c.Version.String() + ".*"
	default:
		return c.Op.String() + c.Version.String()
	}
}

// VersionAnd matches versions satisfying every member.
type VersionAnd []VersionSpec

// Matches implements VersionSpec.
func (a VersionAnd) Matches(v Version) bool {
	for _, s := range a {
		if !s.Matches(v) {
			return false
		}
	}
	return true
}

// String implements VersionSpec.
func (a VersionAnd) String() string {
	parts := make([]string, len(a))
	for i, s := range a {
		if _, ok := s.(VersionOr); ok {
			parts[i] = "(" + s.String() + ")"
			continue
		}
		parts[i] = s.String()
	}
	return strings.Join(parts, ",")
}

// VersionOr matches versions satisfying at least one member.
type VersionOr []VersionSpec

// Matches implements VersionSpec.
func (o VersionOr) Matches(v Version) bool {
	for _, s := range o {
		if s.Matches(v) {
			return true
		}
	}
	return false
}

// String implements VersionSpec.
func (o VersionOr) String() string {
	parts := make([]string, len(o))
	for i, s := range o {
		parts[i] = s.String()
	}
	return strings.Join(parts, "|")
}

// BuildNumberSpec constrains the build number of a record.
type BuildNumberSpec struct {
	Op    Operator
	Value uint64
}

// Matches reports whether n satisfies the constraint.
func (b BuildNumberSpec) Matches(n uint64) bool {
	switch b.Op {
	case OpEq:
		return n == b.Value
	case OpNe:
		return n != b.Value
	case OpGt:
		return n > b.Value
	case OpGe:
		return n >= b.Value
	case OpLt:
		return n < b.Value
	case OpLe:
		return n <= b.Value
	default:
		return false
	}
}

// String renders the constraint; equality renders as the bare number.
func (b BuildNumberSpec) String() string {
	v := strconv.FormatUint(b.Value, 10)
	if b.Op == OpEq {
		return v
	}
	return b.Op.String() + v
}

// MatchSpec is a parsed package requirement. Zero-valued fields do not constrain.
type MatchSpec struct {
	// Name is the normalized package name.
	Name string

	// Version is the version predicate, nil for any version.
	Version VersionSpec

	// Build is a glob over the build string where '*' matches any run of characters.
	Build string

	// BuildNumber constrains the build number when set.
	BuildNumber *BuildNumberSpec

	// Channel restricts the record's channel.
	Channel string

	// Subdir restricts the record's platform subdirectory.
	Subdir string

	// MD5 and SHA256 pin the archive digest.
	MD5    string
	SHA256 string

	// TrackFeatures must all be tracked by the record.
	TrackFeatures []string
}

// Matches reports whether rec satisfies every constraint of the spec.
func (m MatchSpec) Matches(rec *PackageRecord) bool {
	if rec == nil || rec.Name != m.Name {
		return false
	}
	if m.Version != nil && !m.Version.Matches(rec.Version) {
		return false
	}
	if m.Build != "" && !GlobMatch(m.Build, rec.Build) {
		return false
	}
	if m.BuildNumber != nil && !m.BuildNumber.Matches(rec.BuildNumber) {
		return false
	}
	if m.Channel != "" && !channelMatches(m.Channel, rec.Channel.String()) {
		return false
	}
	if m.Subdir != "" && m.Subdir != rec.Subdir.String() {
		return false
	}
	if m.MD5 != "" && !strings.EqualFold(m.MD5, rec.MD5) {
		return false
	}
	if m.SHA256 != "" && !strings.EqualFold(m.SHA256, rec.SHA256) {
		return false
	}
	for _, f := range m.TrackFeatures {
		if !slices.Contains(rec.TrackFeatures, f) {
			return false
		}
	}
	return true
}

// IsExactVersion reports whether the spec selects a single version by equality.
func (m MatchSpec) IsExactVersion() bool {
	c, ok := m.Version.(VersionConstraint)
	return ok && c.Op == OpEq
}

// String renders the spec in canonical match spec syntax.
func (m MatchSpec) String() string {
	var b strings.Builder
	if m.Channel != "" {
		b.WriteString(m.Channel)
		if m.Subdir != "" {
			b.WriteByte('/')
			b.WriteString(m.Subdir)
		}
		b.WriteString("::")
	}
	b.WriteString(m.Name)

	if m.Version != nil {
		b.WriteByte(' ')
		b.WriteString(m.Version.String())
	}
	if m.Build != "" {
		if m.Version == nil {
			b.WriteString(" *")
		}
		b.WriteByte(' ')
		b.WriteString(m.Build)
	}

	var attrs []string
	if m.BuildNumber != nil {
		attrs = append(attrs, "build_number="+m.BuildNumber.String())
	}
	if m.Channel == "" && m.Subdir != "" {
		attrs = append(attrs, "subdir="+m.Subdir)
	}
	if m.MD5 != "" {
		attrs = append(attrs, "md5="+m.MD5)
	}
	if m.SHA256 != "" {
		attrs = append(attrs, "sha256="+m.SHA256)
	}
	if len(m.TrackFeatures) > 0 {
		attrs = append(attrs, "track_features='"+strings.Join(m.TrackFeatures, " ")+"'")
	}
	if len(attrs) > 0 {
		b.WriteByte('[')
		b.WriteString(strings.Join(attrs, ", "))
		b.WriteByte(']')
	}
	return b.String()
}

// Dependency is one entry of a depends list: ordered alternatives, any of which satisfies it.
type Dependency struct {
	Alternatives []MatchSpec
}

// Matches reports whether rec satisfies any alternative.
func (d Dependency) Matches(rec *PackageRecord) bool {
	for _, alt := range d.Alternatives {
		if alt.Matches(rec) {
			return true
		}
	}
	return false
}

// Names returns the distinct package names of the alternatives, in order.
func (d Dependency) Names() []string {
	names := make([]string, 0, len(d.Alternatives))
	for _, alt := range d.Alternatives {
		if !slices.Contains(names, alt.Name) {
			names = append(names, alt.Name)
		}
	}
	return names
}

// String renders the dependency with alternatives joined by " | ".
func (d Dependency) String() string {
	parts := make([]string, len(d.Alternatives))
	for i, alt := range d.Alternatives {
		parts[i] = alt.String()
	}
	return strings.Join(parts, " | ")
}

// GlobMatch reports whether s matches pattern, where '*' matches any run of characters
// and every other character matches itself.
func GlobMatch(pattern, s string) bool {
	px, sx := 0, 0
	star, mark := -1, 0
	for sx < len(s) {
		switch {
		case px < len(pattern) && pattern[px] == '*':
			star, mark = px, sx
			px++
		case px < len(pattern) && pattern[px] == s[sx]:
			px++
			sx++
		case star >= 0:
			px = star + 1
			mark++
			sx = mark
		default:
			return false
		}
	}
	for px < len(pattern) && pattern[px] == '*' {
		px++
	}
	return px == len(pattern)
}

// channelMatches compares a spec channel with a record channel. A bare channel name
// matches a record channel URL ending in that name.
func channelMatches(spec, rec string) bool {
	spec = strings.TrimSuffix(spec, "/")
	rec = strings.TrimSuffix(rec, "/")
	if spec == rec {
		return true
	}
	return strings.HasSuffix(rec, "/"+spec)
}
