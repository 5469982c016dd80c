package execx

import (
	"fmt"
	"strings"
)

// SpawnError reports a program that could not be started at all.
type SpawnError struct {
	Command string
	Err     error
}

func (e *SpawnError) Error() string {
	return fmt.Sprintf("failed to start '%s': %v", e.Command, e.Err)
}

func (e *SpawnError) Unwrap() error {
	return e.Err
}

// ExitError reports a process that ran and exited with a non-zero status.
type ExitError struct {
	Command string
	Status  int
	Stderr  string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("'%s' command failed (status: %d)\nError: %s", e.Command, e.Status, e.Stderr)
}

// WaitError reports a process whose exit status could not be collected.
type WaitError struct {
	Command string
	Stderr  string
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("failed to execute '%s' command: %s", e.Command, e.Stderr)
}

// Text returns stdout when the process exited with status 0 and a typed error
// describing the failure otherwise.
func (o Output) Text(command string) (string, error) {
	stderr := strings.TrimRight(string(o.Stderr), "\n")
	if o.Status == nil {
		return "", &WaitError{Command: command, Stderr: stderr}
	}
	if *o.Status != 0 {
		return "", &ExitError{Command: command, Status: *o.Status, Stderr: stderr}
	}
	return string(o.Stdout), nil
}

// Success reports whether the process exited with status 0.
func (o Output) Success() bool {
	return o.Status != nil && *o.Status == 0
}
