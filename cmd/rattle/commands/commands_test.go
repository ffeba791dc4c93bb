package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/rattle/cmd/rattle/commands"
	"go.trai.ch/rattle/internal/app"
	"go.trai.ch/rattle/internal/build"
	"go.trai.ch/rattle/internal/core/domain"
)

type mockApp struct {
	solveFunc   func(ctx context.Context, opts app.SolveOptions) (*app.SolveResult, error)
	benchFunc   func(ctx context.Context, opts app.BenchOptions) (*app.BenchReport, error)
	tracingFunc func(w io.Writer, verbose bool) (func(context.Context) error, error)
	jsonLogs    bool
}

func (m *mockApp) Solve(ctx context.Context, opts app.SolveOptions) (*app.SolveResult, error) {
	if m.solveFunc != nil {
		return m.solveFunc(ctx, opts)
	}
	return &app.SolveResult{Solution: &domain.Solution{}}, nil
}

func (m *mockApp) Bench(ctx context.Context, opts app.BenchOptions) (*app.BenchReport, error) {
	if m.benchFunc != nil {
		return m.benchFunc(ctx, opts)
	}
	return &app.BenchReport{}, nil
}

func (m *mockApp) SetJSONLogs(enable bool) {
	m.jsonLogs = enable
}

func (m *mockApp) EnableTracing(w io.Writer, verbose bool) (func(context.Context) error, error) {
	if m.tracingFunc != nil {
		return m.tracingFunc(w, verbose)
	}
	return func(context.Context) error { return nil }, nil
}

func execute(t *testing.T, a commands.Application, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(a)
	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs(args)
	err := cli.Execute(context.Background())
	return buf.String(), err
}

func TestCommands_Solve(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.SolveOptions
		mock := &mockApp{
			solveFunc: func(_ context.Context, opts app.SolveOptions) (*app.SolveResult, error) {
				captured = opts
				return &app.SolveResult{Specs: opts.Specs, Solution: &domain.Solution{}}, nil
			},
		}

		_, err := execute(t, mock, "solve", "numpy >=1.20", "python",
			"-r", "a.json,b.json",
			"--lock", "python >=3.8,<3.10",
			"--pin", "numpy 1.21",
			"--virtual", "__glibc=2.17=0",
			"--max-conflicts", "10",
			"--max-decisions", "20",
			"--save-lock", "--no-stored-lock", "--trace-search",
			"--json-logs",
		)
		require.NoError(t, err)

		assert.Empty(t, captured.EnvFile)
		assert.Equal(t, []string{"numpy >=1.20", "python"}, captured.Specs)
		assert.Equal(t, []string{"a.json", "b.json"}, captured.Repodata)
		assert.Equal(t, []string{"python >=3.8,<3.10"}, captured.Locked)
		assert.Equal(t, []string{"numpy 1.21"}, captured.Pinned)
		assert.Equal(t, []string{"__glibc=2.17=0"}, captured.Virtual)
		assert.Equal(t, domain.Budget{MaxConflicts: 10, MaxDecisions: 20}, captured.Budget)
		assert.True(t, captured.SaveLock)
		assert.True(t, captured.NoStoredLock)
		assert.True(t, captured.Trace)
		assert.True(t, mock.jsonLogs)
	})

	t.Run("discovers environment without specs", func(t *testing.T) {
		var captured app.SolveOptions
		mock := &mockApp{
			solveFunc: func(_ context.Context, opts app.SolveOptions) (*app.SolveResult, error) {
				captured = opts
				return &app.SolveResult{Solution: &domain.Solution{}}, nil
			},
		}

		_, err := execute(t, mock, "solve")
		require.NoError(t, err)
		assert.Equal(t, ".", captured.EnvFile)
	})

	t.Run("prints json", func(t *testing.T) {
		mock := &mockApp{
			solveFunc: func(_ context.Context, _ app.SolveOptions) (*app.SolveResult, error) {
				return &app.SolveResult{
					Specs: []string{"app"},
					Solution: &domain.Solution{Records: []*domain.PackageRecord{
						{Name: "app", Version: domain.MustParseVersion("1.0"), Build: "h0"},
					}},
				}, nil
			},
		}

		out, err := execute(t, mock, "solve", "app", "--json")
		require.NoError(t, err)

		var lf domain.Lockfile
		require.NoError(t, json.Unmarshal([]byte(out), &lf))
		assert.Equal(t, []string{"app"}, lf.Specs)
		require.Len(t, lf.Packages, 1)
		assert.Equal(t, "1.0", lf.Packages[0].Version)
		assert.NotContains(t, out, "created_at")
	})

	t.Run("returns error on solve failure", func(t *testing.T) {
		mock := &mockApp{
			solveFunc: func(_ context.Context, _ app.SolveOptions) (*app.SolveResult, error) {
				return nil, &domain.ConflictError{}
			},
		}

		_, err := execute(t, mock, "solve", "app")
		require.ErrorIs(t, err, domain.ErrUnsolvable)
	})
}

func TestCommands_Bench(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.BenchOptions
		mock := &mockApp{
			benchFunc: func(_ context.Context, opts app.BenchOptions) (*app.BenchReport, error) {
				captured = opts
				return &app.BenchReport{}, nil
			},
		}

		out, err := execute(t, mock, "bench", "-r", "repodata.json", "-n", "5", "--concurrency", "2",
			"--set", "xtensor,xsimd", "--set", "python >=3.8,<3.10")
		require.NoError(t, err)

		assert.Equal(t, []string{"repodata.json"}, captured.Repodata)
		assert.Equal(t, 5, captured.Iterations)
		assert.Equal(t, 2, captured.Concurrency)
		assert.Equal(t, [][]string{{"xtensor", "xsimd"}, {"python >=3.8,<3.10"}}, captured.Sets)
		assert.Contains(t, out, "Loaded 0 records")
	})

	t.Run("defaults", func(t *testing.T) {
		var captured app.BenchOptions
		mock := &mockApp{
			benchFunc: func(_ context.Context, opts app.BenchOptions) (*app.BenchReport, error) {
				captured = opts
				return &app.BenchReport{}, nil
			},
		}

		_, err := execute(t, mock, "bench")
		require.NoError(t, err)
		assert.Equal(t, 3, captured.Iterations)
		assert.Empty(t, captured.Sets)
	})

	t.Run("rejects arguments", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "bench", "python")
		require.Error(t, err)
	})
}

func TestCommands_Tracing(t *testing.T) {
	t.Run("exports to file and flushes", func(t *testing.T) {
		var exported io.Writer
		stopped := false
		mock := &mockApp{
			tracingFunc: func(w io.Writer, verbose bool) (func(context.Context) error, error) {
				exported = w
				assert.False(t, verbose)
				return func(context.Context) error {
					stopped = true
					return nil
				}, nil
			},
		}

		path := filepath.Join(t.TempDir(), "trace.json")
		_, err := execute(t, mock, "solve", "app", "--trace", path)
		require.NoError(t, err)
		assert.NotNil(t, exported)
		assert.True(t, stopped)
		assert.FileExists(t, path)
	})

	t.Run("verbose without export", func(t *testing.T) {
		called := false
		mock := &mockApp{
			tracingFunc: func(w io.Writer, verbose bool) (func(context.Context) error, error) {
				called = true
				assert.Nil(t, w)
				assert.True(t, verbose)
				return func(context.Context) error { return nil }, nil
			},
		}

		_, err := execute(t, mock, "solve", "app", "--verbose")
		require.NoError(t, err)
		assert.True(t, called)
	})

	t.Run("setup failure", func(t *testing.T) {
		mock := &mockApp{
			tracingFunc: func(io.Writer, bool) (func(context.Context) error, error) {
				return nil, errors.New("exporter failed")
			},
			solveFunc: func(context.Context, app.SolveOptions) (*app.SolveResult, error) {
				panic("should not be called")
			},
		}

		_, err := execute(t, mock, "solve", "app", "--verbose")
		require.ErrorContains(t, err, "exporter failed")
	})
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}
