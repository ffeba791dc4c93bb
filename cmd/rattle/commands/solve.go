package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"go.trai.ch/rattle/internal/app"
	"go.trai.ch/rattle/internal/core/domain"
	"go.trai.ch/rattle/internal/ui/style"
)

func (c *CLI) newSolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve [specs...]",
		Short: "Resolve a set of match specs against repodata",
		Long: "Resolve a set of match specs against repodata.\n\n" +
			"Without specs the environment file found from the working directory is used.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			envFile, _ := cmd.Flags().GetString("env")
			if envFile == "" && len(args) == 0 {
				envFile = "."
			}
			repodata, _ := cmd.Flags().GetStringSlice("repodata")
			locked, _ := cmd.Flags().GetStringArray("lock")
			pinned, _ := cmd.Flags().GetStringArray("pin")
			virtual, _ := cmd.Flags().GetStringArray("virtual")
			maxConflicts, _ := cmd.Flags().GetInt("max-conflicts")
			maxDecisions, _ := cmd.Flags().GetInt("max-decisions")
			asJSON, _ := cmd.Flags().GetBool("json")
			saveLock, _ := cmd.Flags().GetBool("save-lock")
			noStoredLock, _ := cmd.Flags().GetBool("no-stored-lock")
			traceSearch, _ := cmd.Flags().GetBool("trace-search")

			res, err := c.app.Solve(cmd.Context(), app.SolveOptions{
				EnvFile:      envFile,
				Repodata:     repodata,
				Specs:        args,
				Locked:       locked,
				Pinned:       pinned,
				Virtual:      virtual,
				Budget:       domain.Budget{MaxConflicts: maxConflicts, MaxDecisions: maxDecisions},
				NoStoredLock: noStoredLock,
				SaveLock:     saveLock,
				Trace:        traceSearch,
			})
			if err != nil {
				return err
			}
			if asJSON {
				return writeSolutionJSON(cmd.OutOrStdout(), res)
			}
			renderSolution(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().StringP("env", "e", "", "Environment `FILE` or directory to search for rattle.yaml")
	cmd.Flags().StringSliceP("repodata", "r", nil, "Repodata `FILE`, highest priority first")
	cmd.Flags().StringArray("lock", nil, "Keep the record matching `SPEC` installed")
	cmd.Flags().StringArray("pin", nil, "Prefer the record matching `SPEC`")
	cmd.Flags().StringArray("virtual", nil, "Provide a virtual package as `name=version=build`")
	cmd.Flags().Int("max-conflicts", 0, "Give up after `N` conflicts")
	cmd.Flags().Int("max-decisions", 0, "Give up after `N` decisions")
	cmd.Flags().Bool("json", false, "Print the solution as JSON")
	cmd.Flags().Bool("save-lock", false, "Store the solution as lockfile")
	cmd.Flags().Bool("no-stored-lock", false, "Ignore the stored lockfile of the specs")
	cmd.Flags().Bool("trace-search", false, "Log every search transition")
	return cmd
}

func writeSolutionJSON(w io.Writer, res *app.SolveResult) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(domain.NewLockfile(res.Specs, res.Solution, time.Time{}))
}

// renderSolution prints the selected records as an aligned table followed by a
// summary of the search.
func renderSolution(w io.Writer, res *app.SolveResult) {
	sol := res.Solution
	_, _ = fmt.Fprintln(w, style.Header.Render("Solution for "+strings.Join(res.Specs, ", ")))
	renderRecords(w, sol.Records)
	if len(sol.Virtual) > 0 {
		_, _ = fmt.Fprintln(w, style.Header.Render("Virtual packages"))
		renderRecords(w, sol.Virtual)
	}

	s := sol.Stats
	summary := fmt.Sprintf("%s %s, %s, %s in %s",
		style.Check,
		plural(len(sol.Records), "package"),
		plural(s.Decisions, "decision"),
		plural(s.Conflicts, "conflict"),
		s.Duration.Round(time.Microsecond))
	_, _ = fmt.Fprintln(w, style.Success.Render(summary))
}

func renderRecords(w io.Writer, recs []*domain.PackageRecord) {
	rows := make([][4]string, len(recs))
	var widths [4]int
	for i, r := range recs {
		origin := r.Channel.String()
		if sub := r.Subdir.String(); sub != "" {
			origin = strings.TrimPrefix(origin+"/"+sub, "/")
		}
		rows[i] = [4]string{r.Name, r.Version.String(), r.Build, origin}
		for j, cell := range rows[i] {
			widths[j] = max(widths[j], lipgloss.Width(cell))
		}
	}

	for _, row := range rows {
		line := "  " + style.Name.Width(widths[0]).Render(row[0]) +
			"  " + lipgloss.NewStyle().Width(widths[1]).Render(row[1]) +
			"  " + style.Muted.Width(widths[2]).Render(row[2])
		if row[3] != "" {
			line += "  " + style.Muted.Render(row[3])
		}
		_, _ = fmt.Fprintln(w, strings.TrimRight(line, " "))
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return strconv.Itoa(n) + " " + noun + "s"
}
