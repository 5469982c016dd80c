package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"gemlaunch/internal/resolve"
	"gemlaunch/internal/tools"
	"gemlaunch/internal/tui"
)

var (
	provisionJobs    int
	provisionNoTable bool
)

func newProvisionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision [tool...]",
		Short: "Resolve several tools at once, installing missing gems",
		Long: "Resolve the given tools, or every known tool, concurrently. Tools that are\n" +
			"neither configured, bundled nor on PATH are installed into the private gemset.",
		RunE: runProvision,
	}

	cmd.Flags().IntVarP(&provisionJobs, "jobs", "j", 0, "Maximum concurrent resolutions (default from config)")
	cmd.Flags().BoolVar(&provisionNoTable, "no-progress", false, "Disable the live progress table")

	return cmd
}

func runProvision(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	defs, err := lookupTools(args)
	if err != nil {
		return err
	}
	jobs := provisionJobs
	if jobs < 1 {
		jobs = s.global.Jobs
	}

	out := cmd.OutOrStdout()
	mode := tui.DetectMode(out, provisionNoTable, outputJSON)
	s.logger.Debug("provision", "tools", len(defs), "jobs", jobs, "mode", mode)

	var statuses []tools.Status
	var errs []error
	if mode == tui.ModeTUI {
		ids := make([]string, 0, len(defs))
		for _, def := range defs {
			ids = append(ids, def.ID)
		}
		err := tui.RunProvision(cmd.Context(), out, tui.NewProvisionModel("Provisioning tools", ids),
			func(ctx context.Context, reporter resolve.Reporter) {
				statuses, errs = provisionAll(ctx, s, defs, jobs, reporter)
			})
		if err != nil {
			return err
		}
	} else {
		statuses, errs = provisionAll(cmd.Context(), s, defs, jobs, nil)
	}

	switch mode {
	case tui.ModeJSON:
		if err := writeJSON(cmd, statuses); err != nil {
			return err
		}
	case tui.ModePlain:
		printProvisionTable(cmd, statuses)
	}

	if len(errs) > 0 {
		if missingRuby(errs) {
			for _, hint := range tools.InstallHints() {
				fmt.Fprintln(cmd.ErrOrStderr(), tui.DimStyle.Render("hint: "+hint))
			}
		}
		return errors.Join(errs...)
	}
	return nil
}

// missingRuby reports whether any failure came from probing the interpreter.
func missingRuby(errs []error) bool {
	for _, err := range errs {
		var rerr *resolve.Error
		if errors.As(err, &rerr) && rerr.Step == resolve.StepRubyProbe {
			return true
		}
	}
	return false
}

// provisionAll resolves defs with at most jobs running at once. One tool
// failing does not stop the others.
func provisionAll(ctx context.Context, s *session, defs []tools.Definition, jobs int, reporter resolve.Reporter) ([]tools.Status, []error) {
	resolver := s.resolver(reporter)

	var (
		mu       sync.Mutex
		statuses = make([]tools.Status, 0, len(defs))
		errs     []error
		g        errgroup.Group
	)
	g.SetLimit(jobs)

	for _, def := range defs {
		g.Go(func() error {
			c, err := resolver.Resolve(ctx, s.request(def))
			st := tools.Status{Tool: def.ID}
			if err != nil {
				st.Error = err.Error()
				s.logger.Error("provision failed", "tool", def.ID, "err", err)
			} else {
				st.Ready = true
				st.Source = c.Source
				st.Path = c.Path
				st.Version = c.Version
			}

			mu.Lock()
			defer mu.Unlock()
			statuses = append(statuses, st)
			if err != nil {
				errs = append(errs, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(statuses, func(i, j int) bool { return statuses[i].Tool < statuses[j].Tool })
	return statuses, errs
}

func printProvisionTable(cmd *cobra.Command, statuses []tools.Status) {
	if len(statuses) == 0 {
		cmd.Println("(no tools)")
		return
	}
	rows := make([][]string, 0, len(statuses))
	for _, st := range statuses {
		if st.Ready {
			rows = append(rows, []string{st.Tool, string(resolve.StatusReady), "-", string(st.Source) + " " + st.Path})
		} else {
			rows = append(rows, []string{st.Tool, string(resolve.StatusFailed), "-", st.Error})
		}
	}
	cmd.Print(tui.RenderTable(tui.ProvisionColumns(), rows))
}
