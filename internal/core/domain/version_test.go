package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rattle/internal/core/domain"
)

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "simple", input: "1.2.3"},
		{name: "epoch", input: "1!2.0"},
		{name: "local", input: "1.0+abc.7"},
		{name: "letters", input: "1.0a1"},
		{name: "dev", input: "1.0.dev3"},
		{name: "underscore", input: "1_2_3"},
		{name: "empty", input: "", wantErr: true},
		{name: "blank", input: "   ", wantErr: true},
		{name: "bad epoch", input: "x!1.0", wantErr: true},
		{name: "trailing dot", input: "1.2.", wantErr: true},
		{name: "leading dot", input: ".1", wantErr: true},
		{name: "double dot", input: "1..2", wantErr: true},
		{name: "empty local", input: "1.0+", wantErr: true},
		{name: "invalid character", input: "1.0@2", wantErr: true},
		{name: "second epoch", input: "1!2!3", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := domain.ParseVersion(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorContains(t, err, domain.ErrInvalidVersion.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.input, v.String())
		})
	}
}

func TestVersion_Compare(t *testing.T) {
	// Each version sorts strictly before the next.
	ordered := []string{
		"0.4",
		"0.4.1.rc",
		"0.4.1",
		"0.5a1",
		"0.5b3",
		"0.5C1",
		"0.5",
		"0.9.6",
		"0.960923",
		"1.0",
		"1.1dev1",
		"1.1a1",
		"1.1.0dev1",
		"1.1.a1",
		"1.1.0rc1",
		"1.1.0",
		"1.1.0post1",
		"1.1post1",
		"1996.07.12",
		"1!0.4.1",
		"1!3.1.1.6",
		"2!0.4.1",
	}

	for i := 0; i+1 < len(ordered); i++ {
		a := domain.MustParseVersion(ordered[i])
		b := domain.MustParseVersion(ordered[i+1])
		assert.Equal(t, -1, a.Compare(b), "%s < %s", ordered[i], ordered[i+1])
		assert.Equal(t, 1, b.Compare(a), "%s > %s", ordered[i+1], ordered[i])
	}
}

func TestVersion_Equal(t *testing.T) {
	tests := []struct{ a, b string }{
		{"1.0", "1.0.0"},
		{"1.0", "1"},
		{"1.0.0rc1", "1.0.0RC1"},
		{"0!1.0", "1.0"},
		{"1_0", "1.0"},
	}
	for _, tt := range tests {
		assert.True(t, domain.MustParseVersion(tt.a).Equal(domain.MustParseVersion(tt.b)), "%s == %s", tt.a, tt.b)
	}
}

func TestVersion_StartsWith(t *testing.T) {
	tests := []struct {
		version string
		prefix  string
		want    bool
	}{
		{"1.2", "1.2", true},
		{"1.2.3", "1.2", true},
		{"1.20", "1.2", false},
		{"1.3", "1.2", false},
		{"1.2a", "1.2", true},
		{"3.9.1", "3.9", true},
		{"3.10.0", "3.9", false},
		{"1!1.2.3", "1.2", false},
		{"1.0+abc", "1.0+abc", true},
		{"1.0+abd", "1.0+abc", false},
	}
	for _, tt := range tests {
		t.Run(tt.version+"/"+tt.prefix, func(t *testing.T) {
			v := domain.MustParseVersion(tt.version)
			p := domain.MustParseVersion(tt.prefix)
			assert.Equal(t, tt.want, v.StartsWith(p))
		})
	}
}

func TestVersion_CompatibleWith(t *testing.T) {
	tests := []struct {
		version string
		operand string
		want    bool
	}{
		{"2.2", "2.2", true},
		{"2.9", "2.2", true},
		{"3.0", "2.2", false},
		{"2.1", "2.2", false},
		{"1.4.8", "1.4.5", true},
		{"1.5.0", "1.4.5", false},
		{"7", "5", true},
	}
	for _, tt := range tests {
		v := domain.MustParseVersion(tt.version)
		p := domain.MustParseVersion(tt.operand)
		assert.Equal(t, tt.want, v.CompatibleWith(p), "%s ~= %s", tt.version, tt.operand)
	}
}

func TestMustParseVersion_Panics(t *testing.T) {
	assert.Panics(t, func() { domain.MustParseVersion("") })
}
