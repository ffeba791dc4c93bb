package commands

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/rattle/internal/app"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/core/ports"
	"go.trai.ch/rattle/internal/ui/style"
)

func (c *CLI) newBenchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Time repeated solves of spec sets over one loaded index",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			repodata, _ := cmd.Flags().GetStringSlice("repodata")
			iterations, _ := cmd.Flags().GetInt("iterations")
			concurrency, _ := cmd.Flags().GetInt("concurrency")
			rawSets, _ := cmd.Flags().GetStringArray("set")
			maxConflicts, _ := cmd.Flags().GetInt("max-conflicts")
			maxDecisions, _ := cmd.Flags().GetInt("max-decisions")

			sets := make([][]string, 0, len(rawSets))
			for _, raw := range rawSets {
				sets = append(sets, splitSet(raw))
			}

			report, err := c.app.Bench(cmd.Context(), app.BenchOptions{
				Repodata:    repodata,
				Sets:        sets,
				Iterations:  iterations,
				Concurrency: concurrency,
				Budget:      domain.Budget{MaxConflicts: maxConflicts, MaxDecisions: maxDecisions},
			})
			if err != nil {
				return err
			}
			renderBench(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().StringSliceP("repodata", "r", nil, "Repodata `FILE`, highest priority first")
	cmd.Flags().IntP("iterations", "n", 3, "Solves per set")
	cmd.Flags().Int("concurrency", 0, "Sets solved at once, 0 for all")
	cmd.Flags().StringArray("set", nil, "Comma separated spec `SET` to solve")
	cmd.Flags().Int("max-conflicts", 0, "Give up after `N` conflicts")
	cmd.Flags().Int("max-decisions", 0, "Give up after `N` decisions")
	return cmd
}

// splitSet splits a spec set at the commas that start a new package name. Commas
// inside a version constraint are followed by an operator or a digit and are kept.
func splitSet(raw string) []string {
	var specs []string
	start := 0
	for i := 0; i < len(raw); i++ {
		if raw[i] != ',' {
			continue
		}
		rest := strings.TrimLeft(raw[i+1:], " ")
		if rest == "" || !startsName(rest[0]) {
			continue
		}
		specs = appendSpec(specs, raw[start:i])
		start = i + 1
	}
	return appendSpec(specs, raw[start:])
}

func startsName(b byte) bool {
	return b == '_' || (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func appendSpec(specs []string, s string) []string {
	if s = strings.Trim(s, " ,"); s != "" {
		specs = append(specs, s)
	}
	return specs
}

func renderBench(w io.Writer, report *app.BenchReport) {
	_, _ = fmt.Fprintln(w, style.Header.Render(fmt.Sprintf("Loaded %d records in %s",
		report.Records, report.Load.Round(time.Millisecond))))

	labels := make([]string, len(report.Results))
	width := 0
	for i, res := range report.Results {
		labels[i] = strings.Join(res.Specs, ", ")
		width = max(width, lipgloss.Width(labels[i]))
	}

	for i, res := range report.Results {
		icon, outcome := style.Success.Render(style.Check), style.Success.Render(res.Outcome)
		if res.Outcome != ports.OutcomeSolved {
			icon, outcome = style.Failure.Render(style.Cross), style.Failure.Render(res.Outcome)
		}
		_, _ = fmt.Fprintf(w, "%s %s  %s  %s  %s\n",
			icon,
			style.Name.Width(width).Render(labels[i]),
			outcome,
			plural(res.Packages, "package"),
			style.Muted.Render(fmt.Sprintf("min %s mean %s max %s",
				res.Min.Round(time.Microsecond), res.Mean.Round(time.Microsecond), res.Max.Round(time.Microsecond))))
	}

	t := report.Totals
	solves := 0
	outcomes := make([]string, 0, len(t.Outcomes))
	for _, name := range slices.Sorted(maps.Keys(t.Outcomes)) {
		solves += t.Outcomes[name]
		outcomes = append(outcomes, fmt.Sprintf("%d %s", t.Outcomes[name], name))
	}
	_, _ = fmt.Fprintf(w, "%s %s (%s), %s, %s in %s\n",
		style.Arrow,
		plural(solves, "solve"),
		strings.Join(outcomes, ", "),
		plural(t.Decisions, "decision"),
		plural(t.Conflicts, "conflict"),
		time.Duration(t.Seconds*float64(time.Second)).Round(time.Millisecond))
}
