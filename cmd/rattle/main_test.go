package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rattle/internal/adapters/cas"
	"go.trai.ch/rattle/internal/adapters/config"
	"go.trai.ch/rattle/internal/adapters/metrics"
	"go.trai.ch/rattle/internal/adapters/repodata"
	"go.trai.ch/rattle/internal/adapters/telemetry"
	"go.trai.ch/rattle/internal/app"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

const testRepodata = `{
  "info": {"subdir": "linux-64"},
  "packages": {
    "app-1.0-h0.tar.bz2": {"name": "app", "version": "1.0", "build": "h0", "build_number": 0, "depends": ["lib >=1"]},
    "lib-1.1-h0.tar.bz2": {"name": "lib", "version": "1.1", "build": "h0", "build_number": 0, "depends": []},
    "lib-0.9-h0.tar.bz2": {"name": "lib", "version": "0.9", "build": "h0", "build_number": 0, "depends": []}
  }
}`

// setup writes a repodata file and returns a provider backed by the real adapters.
func setup(t *testing.T, log *mocks.MockLogger) (string, ComponentProvider) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "conda-forge", "linux-64", "repodata.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(testRepodata), 0o600))

	store, err := cas.NewStore(dir)
	require.NoError(t, err)

	application := app.New(
		config.NewLoader(log),
		repodata.NewSource(log),
		store,
		metrics.New(),
		telemetry.NewOTelTracer("test"),
		telemetry.Exporter{},
		log,
	)
	return path, func(_ context.Context) (*app.Components, func(), error) {
		return &app.Components{App: application, Logger: log}, func() {}, nil
	}
}

// TestRun_Version verifies that the run function returns 0 when the command succeeds.
func TestRun_Version(t *testing.T) {
	ctrl := gomock.NewController(t)
	_, provider := setup(t, mocks.NewMockLogger(ctrl))

	exitCode := run(context.Background(), []string{"version"}, new(bytes.Buffer), provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_InitializationError verifies that run returns 1 when component initialization fails.
func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, func(), error) {
		return nil, nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_Solve(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	path, provider := setup(t, log)

	log.EXPECT().Info(gomock.Any()).AnyTimes()

	exitCode := run(context.Background(), []string{"solve", "app", "--repodata", path, "--save-lock"}, new(bytes.Buffer), provider)
	assert.Equal(t, 0, exitCode)
}

// TestRun_Unsolvable verifies the dedicated exit code and that the conflict is logged.
func TestRun_Unsolvable(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	path, provider := setup(t, log)

	log.EXPECT().Error(gomock.Any()).Do(func(err error) {
		assert.ErrorIs(t, err, domain.ErrUnsolvable)
	})

	exitCode := run(context.Background(), []string{"solve", "app", "lib <1", "-r", path, "--no-stored-lock"}, new(bytes.Buffer), provider)
	assert.Equal(t, exitUnsolvable, exitCode)
}

// TestRun_ExecutionError verifies that run returns 1 when the command execution fails.
func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	_, provider := setup(t, log)

	log.EXPECT().Error(gomock.Any())

	missing := filepath.Join(t.TempDir(), "missing.json")
	exitCode := run(context.Background(), []string{"solve", "app", "-r", missing}, new(bytes.Buffer), provider)
	assert.Equal(t, 1, exitCode)
}
