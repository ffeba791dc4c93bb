// Package commands implements the CLI commands for rattle.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.trai.ch/rattle/internal/app"
	"go.trai.ch/rattle/internal/build"
	"go.trai.ch/zerr"
)

// CLI represents the command line interface for rattle.
type CLI struct {
	app     Application
	rootCmd *cobra.Command

	// stopTracing flushes the tracer provider once the command returns.
	stopTracing func(context.Context) error
}

// Application represents the application logic interface.
type Application interface {
	Solve(ctx context.Context, opts app.SolveOptions) (*app.SolveResult, error)
	Bench(ctx context.Context, opts app.BenchOptions) (*app.BenchReport, error)
	SetJSONLogs(enable bool)
	EnableTracing(w io.Writer, verbose bool) (func(context.Context) error, error)
}

// New creates a new CLI instance with the given app.
func New(a Application) *CLI {
	rootCmd := &cobra.Command{
		Use:           "rattle",
		Short:         "A conda-style package dependency resolver",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       build.Version,
	}

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"{{.Name}} version {{.Version}} (commit: %s, date: %s)\n",
		build.Commit,
		build.Date,
	))
	rootCmd.InitDefaultVersionFlag()
	rootCmd.Flags().Lookup("version").Usage = "Print the application version"

	rootCmd.InitDefaultHelpFlag()
	rootCmd.Flags().Lookup("help").Usage = "Show help for command"

	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Log every finished span")
	rootCmd.PersistentFlags().String("trace", "", "Export spans as JSON to `FILE`")

	c := &CLI{
		app:     a,
		rootCmd: rootCmd,
	}
	rootCmd.PersistentPreRunE = c.setup

	rootCmd.AddCommand(c.newSolveCmd())
	rootCmd.AddCommand(c.newBenchCmd())
	rootCmd.AddCommand(c.newVersionCmd())

	return c
}

// setup applies the persistent flags before any command runs.
func (c *CLI) setup(cmd *cobra.Command, _ []string) error {
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	verbose, _ := cmd.Flags().GetBool("verbose")
	tracePath, _ := cmd.Flags().GetString("trace")

	c.app.SetJSONLogs(jsonLogs)
	if tracePath == "" && !verbose {
		return nil
	}

	var export io.Writer
	var file *os.File
	if tracePath != "" {
		f, err := os.Create(tracePath)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create trace file"), "path", tracePath)
		}
		file, export = f, f
	}

	stop, err := c.app.EnableTracing(export, verbose)
	if err != nil {
		if file != nil {
			_ = file.Close()
		}
		return err
	}
	c.stopTracing = func(ctx context.Context) error {
		err := stop(ctx)
		if file != nil {
			err = errors.Join(err, file.Close())
		}
		return err
	}
	return nil
}

// Execute runs the root command with the given context.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	err := c.rootCmd.Execute()
	if c.stopTracing != nil {
		err = errors.Join(err, c.stopTracing(context.WithoutCancel(ctx)))
		c.stopTracing = nil
	}
	return err
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOutput sets the output and error streams for the root command. Used for testing.
func (c *CLI) SetOutput(out, err io.Writer) {
	c.rootCmd.SetOut(out)
	c.rootCmd.SetErr(err)
}
