package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
)

// Version is stamped at build time.
var Version = "dev"

var (
	projectDir string
	outputJSON bool
	verbose    bool
	loginEnv   bool
)

// ExitError carries a child process exit status out of a command.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

// Execute runs the root cobra command.
func Execute() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(Version),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(handleError),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

func handleError(w io.Writer, styles fang.Styles, err error) {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return
	}
	fang.DefaultErrorHandler(w, styles, err)
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gemlaunch",
		Short: "Resolve, install and launch Ruby language tools",
		Long: "gemlaunch finds the right way to start a Ruby tool for a project: a configured\n" +
			"binary, the project's bundle, the PATH, or a private gemset it installs on demand.",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&projectDir, "project", "", "Path to project directory")
	cmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output machine-readable JSON")
	cmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Also write debug logs to stderr")
	cmd.PersistentFlags().BoolVar(&loginEnv, "login-env", false, "Use the environment of a login $SHELL instead of the current one")

	cmd.AddCommand(newInitCmd())
	cmd.AddCommand(newCheckCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newToolsCmd())
	cmd.AddCommand(newResolveCmd())
	cmd.AddCommand(newExecCmd())
	cmd.AddCommand(newProvisionCmd())
	cmd.AddCommand(newCacheCmd())

	return cmd
}
