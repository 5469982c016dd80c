package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"gemlaunch/internal/execx"
	"gemlaunch/internal/resolve"
	"gemlaunch/internal/tui"
)

func newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec <tool> [-- args...]",
		Short: "Resolve a tool and run it with the terminal attached",
		Long: "Resolve a tool and run it in the project root with stdin, stdout and stderr\n" +
			"attached. Arguments after -- are appended to the tool's arguments. The tool's\n" +
			"exit status becomes gemlaunch's exit status.",
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
}

func runExec(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	defs, err := lookupTools(args[:1])
	if err != nil {
		return err
	}
	def := defs[0]

	reporter := resolve.Reporter(nil)
	var sw *tui.StatusWriter
	if tui.IsTerminal(cmd.ErrOrStderr()) {
		sw = tui.NewStatusWriter(cmd.ErrOrStderr())
		reporter = sw
	}
	resolved, err := s.resolver(reporter).Resolve(cmd.Context(), s.request(def))
	if sw != nil {
		sw.Stop()
	}
	if err != nil {
		s.logger.Error("resolve failed", "tool", def.ID, "err", err)
		return err
	}

	argv := append(resolved.Args, args[1:]...)
	s.logger.Info("exec", "tool", def.ID, "source", resolved.Source, "path", resolved.Path, "args", argv)

	out, err := s.runner.Run(cmd.Context(), resolved.Path, argv, execx.RunOptions{
		Dir:         s.project.Root,
		Env:         resolved.Env,
		Stdin:       cmd.InOrStdin(),
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
		Passthrough: true,
	})
	if err != nil {
		return err
	}
	if out.Status == nil {
		if ctxErr := cmd.Context().Err(); ctxErr != nil {
			return fmt.Errorf("%s interrupted: %w", def.ID, ctxErr)
		}
		return errors.New(def.ID + " terminated without an exit status")
	}
	if *out.Status != 0 {
		s.logger.Debug("tool exited", "tool", def.ID, "status", *out.Status)
		return &ExitError{Code: *out.Status}
	}
	return nil
}
