package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rattle/internal/adapters/config"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func createFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), domain.DirPerm))
	require.NoError(t, os.WriteFile(path, []byte(content), domain.FilePerm))
	return path
}

const envfile = `version: "1"
repodata:
  - channels/conda-forge/linux-64/repodata.json
  - /abs/noarch/repodata.json
  - channels/conda-forge/linux-64/../linux-64/repodata.json
specs:
  - python=3.9
  - numpy >=1.20
locked:
  - openssl ==1.1.1k
pinned:
  - zlib
virtual:
  - __glibc=2.17
  - __unix
budget:
  maxConflicts: 500
  maxDecisions: 10000
`

func TestLoader_Load(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	root := t.TempDir()
	path := createFile(t, root, "rattle.yaml", envfile)

	env, err := config.NewLoader(log).Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(root, "channels", "conda-forge", "linux-64", "repodata.json"),
		"/abs/noarch/repodata.json",
	}, env.Repodata)
	assert.Equal(t, []string{"python=3.9", "numpy >=1.20"}, env.Specs)
	assert.Equal(t, []string{"openssl ==1.1.1k"}, env.Locked)
	assert.Equal(t, []string{"zlib"}, env.Pinned)
	assert.Equal(t, []string{"__glibc=2.17", "__unix"}, env.Virtual)
	assert.Equal(t, domain.Budget{MaxConflicts: 500, MaxDecisions: 10000}, env.Budget)
}

func TestLoader_Discovery(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	root := t.TempDir()
	createFile(t, root, "rattle.yaml", "specs: [quetz]\n")
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, domain.DirPerm))

	env, err := config.NewLoader(log).Load(nested)
	require.NoError(t, err)
	assert.Equal(t, []string{"quetz"}, env.Specs)
	assert.Empty(t, env.Repodata)
}

func TestLoader_Errors(t *testing.T) {
	tests := []struct {
		name        string
		setup       func(t *testing.T, dir string) string
		errContains string
	}{
		{
			name: "missing file",
			setup: func(_ *testing.T, dir string) string {
				return filepath.Join(dir, "missing.yaml")
			},
			errContains: domain.ErrConfigReadFailed.Error(),
		},
		{
			name: "invalid yaml",
			setup: func(t *testing.T, dir string) string {
				return createFile(t, dir, "rattle.yaml", "specs: [unclosed\n")
			},
			errContains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name: "unknown field",
			setup: func(t *testing.T, dir string) string {
				return createFile(t, dir, "rattle.yaml", "spec: [python]\n")
			},
			errContains: domain.ErrConfigParseFailed.Error(),
		},
		{
			name: "invalid virtual package",
			setup: func(t *testing.T, dir string) string {
				return createFile(t, dir, "rattle.yaml", "virtual: [\"=1.0\"]\n")
			},
			errContains: domain.ErrInvalidVirtualPackage.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			log := mocks.NewMockLogger(ctrl)

			env, err := config.NewLoader(log).Load(tt.setup(t, t.TempDir()))
			require.Error(t, err)
			require.ErrorContains(t, err, tt.errContains)
			assert.Nil(t, env)
		})
	}
}

func TestLoader_UnknownVersionWarns(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	path := createFile(t, t.TempDir(), "rattle.yaml", "version: \"2\"\nspecs: [python]\n")
	env, err := config.NewLoader(log).Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, env.Specs)
}
