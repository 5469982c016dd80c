package execx

import (
	"bytes"
	"context"
	"errors"
	"os"

	"gemlaunch/internal/environ"
)

// ErrNoShell is returned by LoginShellEnv when no shell is configured.
var ErrNoShell = errors.New("no login shell: SHELL is not set")

// LoginShellEnv captures the environment a login shell would give the user,
// which is where version managers such as rbenv or chruby put Ruby on PATH.
// An empty shell falls back to $SHELL.
func LoginShellEnv(ctx context.Context, runner Runner, shell string) (environ.List, error) {
	if shell == "" {
		shell = os.Getenv("SHELL")
	}
	if shell == "" {
		return nil, ErrNoShell
	}
	out, err := runner.Run(ctx, shell, []string{"-l", "-c", "env -0"}, RunOptions{})
	if err != nil {
		return nil, err
	}
	if _, err := out.Text(shell); err != nil {
		return nil, err
	}

	var entries []string
	for _, entry := range bytes.Split(out.Stdout, []byte{0}) {
		if len(entry) > 0 {
			entries = append(entries, string(entry))
		}
	}
	return environ.Parse(entries), nil
}
