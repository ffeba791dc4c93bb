package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/rattle/internal/core/domain"
)

func constraint(op domain.Operator, v string) domain.VersionConstraint {
	return domain.VersionConstraint{Op: op, Version: domain.MustParseVersion(v)}
}

func TestVersionConstraint_Matches(t *testing.T) {
	tests := []struct {
		name string
		spec domain.VersionSpec
		v    string
		want bool
	}{
		{name: "eq", spec: constraint(domain.OpEq, "1.0"), v: "1.0.0", want: true},
		{name: "ne", spec: constraint(domain.OpNe, "1.0"), v: "1.1", want: true},
		{name: "gt", spec: constraint(domain.OpGt, "1.0"), v: "1.0", want: false},
		{name: "ge", spec: constraint(domain.OpGe, "1.0"), v: "1.0", want: true},
		{name: "lt", spec: constraint(domain.OpLt, "2"), v: "1.9", want: true},
		{name: "le", spec: constraint(domain.OpLe, "2"), v: "2.0.1", want: false},
		{name: "compatible", spec: constraint(domain.OpCompatible, "1.4"), v: "1.9", want: true},
		{name: "starts with", spec: constraint(domain.OpStartsWith, "3.9"), v: "3.9.7", want: true},
		{name: "not starts with", spec: constraint(domain.OpNotStartsWith, "3.9"), v: "3.9.7", want: false},
		{
			name: "and",
			spec: domain.VersionAnd{constraint(domain.OpGe, "1.0"), constraint(domain.OpLt, "2.0")},
			v:    "1.5",
			want: true,
		},
		{
			name: "or",
			spec: domain.VersionOr{constraint(domain.OpLt, "1.0"), constraint(domain.OpGe, "2.0")},
			v:    "1.5",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Matches(domain.MustParseVersion(tt.v)))
		})
	}
}

func TestVersionSpec_String(t *testing.T) {
	spec := domain.VersionAnd{
		constraint(domain.OpGe, "1.0"),
		domain.VersionOr{constraint(domain.OpLt, "1.5"), constraint(domain.OpStartsWith, "2")},
	}
	assert.Equal(t, ">=1.0,(<1.5|2.*)", spec.String())
	assert.Equal(t, "!=1.2.*", constraint(domain.OpNotStartsWith, "1.2").String())
}

func TestBuildNumberSpec(t *testing.T) {
	assert.True(t, domain.BuildNumberSpec{Op: domain.OpEq, Value: 3}.Matches(3))
	assert.True(t, domain.BuildNumberSpec{Op: domain.OpGe, Value: 3}.Matches(4))
	assert.False(t, domain.BuildNumberSpec{Op: domain.OpLt, Value: 3}.Matches(3))
	assert.Equal(t, "3", domain.BuildNumberSpec{Op: domain.OpEq, Value: 3}.String())
	assert.Equal(t, ">=3", domain.BuildNumberSpec{Op: domain.OpGe, Value: 3}.String())
}

func TestMatchSpec_Matches(t *testing.T) {
	rec := newRecord("numpy", "1.26.4", "py39h6a678d5_0")
	rec.BuildNumber = 2
	rec.MD5 = "ABC"
	rec.TrackFeatures = []string{"mkl"}

	tests := []struct {
		name string
		spec domain.MatchSpec
		want bool
	}{
		{name: "name only", spec: domain.MatchSpec{Name: "numpy"}, want: true},
		{name: "other name", spec: domain.MatchSpec{Name: "scipy"}, want: false},
		{name: "version", spec: domain.MatchSpec{Name: "numpy", Version: constraint(domain.OpStartsWith, "1.26")}, want: true},
		{name: "version mismatch", spec: domain.MatchSpec{Name: "numpy", Version: constraint(domain.OpLt, "1.26")}, want: false},
		{name: "build glob", spec: domain.MatchSpec{Name: "numpy", Build: "py39*"}, want: true},
		{name: "build glob mismatch", spec: domain.MatchSpec{Name: "numpy", Build: "py310*"}, want: false},
		{name: "build number", spec: domain.MatchSpec{Name: "numpy", BuildNumber: &domain.BuildNumberSpec{Op: domain.OpGe, Value: 2}}, want: true},
		{name: "channel", spec: domain.MatchSpec{Name: "numpy", Channel: "conda-forge"}, want: true},
		{name: "channel mismatch", spec: domain.MatchSpec{Name: "numpy", Channel: "defaults"}, want: false},
		{name: "subdir", spec: domain.MatchSpec{Name: "numpy", Subdir: "linux-64"}, want: true},
		{name: "subdir mismatch", spec: domain.MatchSpec{Name: "numpy", Subdir: "osx-64"}, want: false},
		{name: "md5 case insensitive", spec: domain.MatchSpec{Name: "numpy", MD5: "abc"}, want: true},
		{name: "sha256 mismatch", spec: domain.MatchSpec{Name: "numpy", SHA256: "ff"}, want: false},
		{name: "track features", spec: domain.MatchSpec{Name: "numpy", TrackFeatures: []string{"mkl"}}, want: true},
		{name: "track features missing", spec: domain.MatchSpec{Name: "numpy", TrackFeatures: []string{"debug"}}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Matches(rec))
		})
	}

	assert.False(t, domain.MatchSpec{Name: "numpy"}.Matches(nil))
}

func TestMatchSpec_ChannelURL(t *testing.T) {
	rec := newRecord("numpy", "1.0", "0")
	rec.Channel = domain.NewInternedString("https://conda.anaconda.org/conda-forge/")

	assert.True(t, domain.MatchSpec{Name: "numpy", Channel: "conda-forge"}.Matches(rec))
	assert.False(t, domain.MatchSpec{Name: "numpy", Channel: "forge"}.Matches(rec))
}

func TestMatchSpec_String(t *testing.T) {
	tests := []struct {
		name string
		spec domain.MatchSpec
		want string
	}{
		{name: "name", spec: domain.MatchSpec{Name: "python"}, want: "python"},
		{name: "version", spec: domain.MatchSpec{Name: "python", Version: constraint(domain.OpStartsWith, "3.9")}, want: "python 3.9.*"},
		{name: "build only", spec: domain.MatchSpec{Name: "python", Build: "*_cpython"}, want: "python * *_cpython"},
		{
			name: "channel and subdir",
			spec: domain.MatchSpec{Name: "python", Channel: "conda-forge", Subdir: "linux-64", Version: constraint(domain.OpEq, "3.9.1")},
			want: "conda-forge/linux-64::python ==3.9.1",
		},
		{
			name: "brackets",
			spec: domain.MatchSpec{Name: "python", BuildNumber: &domain.BuildNumberSpec{Op: domain.OpGt, Value: 1}, MD5: "abc"},
			want: "python[build_number=>1, md5=abc]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.String())
		})
	}
	assert.True(t, domain.MatchSpec{Name: "x", Version: constraint(domain.OpEq, "1")}.IsExactVersion())
	assert.False(t, domain.MatchSpec{Name: "x", Version: constraint(domain.OpGe, "1")}.IsExactVersion())
}

func TestDependency(t *testing.T) {
	dep := domain.Dependency{Alternatives: []domain.MatchSpec{
		{Name: "libblas", Build: "*mkl"},
		{Name: "openblas"},
		{Name: "libblas"},
	}}

	assert.True(t, dep.Matches(newRecord("openblas", "0.3", "0")))
	assert.True(t, dep.Matches(newRecord("libblas", "3.9", "openblas")))
	assert.False(t, dep.Matches(newRecord("mkl", "2024", "0")))
	assert.Equal(t, []string{"libblas", "openblas"}, dep.Names())
	assert.Equal(t, "libblas * *mkl | openblas | libblas", dep.String())
}

func TestGlobMatch(t *testing.T) {
	tests := []struct {
		pattern, s string
		want       bool
	}{
		{"*", "", true},
		{"*", "anything", true},
		{"py39*", "py39h_0", true},
		{"py39*", "py310h_0", false},
		{"*_0", "py39h_0", true},
		{"*cuda*", "py39_cuda11_0", true},
		{"py*h*_0", "py39habc_0", true},
		{"abc", "abc", true},
		{"abc", "abcd", false},
		{"a*c", "ab", false},
		{"**", "x", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, domain.GlobMatch(tt.pattern, tt.s), "%q ~ %q", tt.pattern, tt.s)
	}
}
