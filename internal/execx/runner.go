package execx

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"gemlaunch/internal/environ"
)

// RunOptions controls how a command is run. Env entries are layered over the
// inherited process environment.
type RunOptions struct {
	Dir    string
	Env    environ.List
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	// Passthrough hands Stdout and Stderr to the child without capturing
	// them, so Output carries only the status.
	Passthrough bool
}

// Output is the captured result of a finished process. A nil Status means the
// process ran but no exit status could be collected.
type Output struct {
	Status *int
	Stdout []byte
	Stderr []byte
}

// Runner runs external programs.
type Runner interface {
	Run(ctx context.Context, command string, args []string, opts RunOptions) (Output, error)
}

// CmdRunner runs programs with os/exec. By default RunOptions.Env is layered
// over the inherited environment. With Isolated set, a non-nil Env is the
// child's complete environment, so variables absent from it are not passed on.
type CmdRunner struct {
	Isolated bool
}

func (r CmdRunner) Run(ctx context.Context, command string, args []string, opts RunOptions) (Output, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	if opts.Dir != "" {
		cmd.Dir = opts.Dir
	}
	if r.Isolated && opts.Env != nil {
		cmd.Env = opts.Env.Strings()
	} else if len(opts.Env) > 0 {
		env := environ.Parse(os.Environ())
		for _, v := range opts.Env {
			env = env.With(v.Key, v.Value)
		}
		cmd.Env = env.Strings()
	}
	cmd.Stdin = opts.Stdin

	if opts.Passthrough {
		cmd.Stdout = opts.Stdout
		cmd.Stderr = opts.Stderr
		return wait(cmd, command, nil, nil)
	}

	var stdoutBuf, stderrBuf bytes.Buffer

	stdoutWriter := io.Writer(&stdoutBuf)
	if opts.Stdout != nil {
		stdoutWriter = io.MultiWriter(&stdoutBuf, opts.Stdout)
	}
	stderrWriter := io.Writer(&stderrBuf)
	if opts.Stderr != nil {
		stderrWriter = io.MultiWriter(&stderrBuf, opts.Stderr)
	}

	cmd.Stdout = stdoutWriter
	cmd.Stderr = stderrWriter

	return wait(cmd, command, &stdoutBuf, &stderrBuf)
}

func wait(cmd *exec.Cmd, command string, stdout, stderr *bytes.Buffer) (Output, error) {
	if err := cmd.Start(); err != nil {
		return Output{}, &SpawnError{Command: command, Err: err}
	}

	err := cmd.Wait()
	var out Output
	if stdout != nil {
		out.Stdout = stdout.Bytes()
	}
	if stderr != nil {
		out.Stderr = stderr.Bytes()
	}
	if err == nil {
		out.Status = Status(0)
		return out, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() >= 0 {
		out.Status = Status(exitErr.ExitCode())
	}
	return out, nil
}

// Status returns a pointer to code, for building Output values.
func Status(code int) *int {
	return &code
}

var _ Runner = CmdRunner{}
