// Package execxtest provides a scripted execx.Runner for tests.
package execxtest

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
)

// Call records a single invocation seen by Scripted.
type Call struct {
	Command string
	Args    []string
	Env     environ.List
}

// Expectation is the next call Scripted expects and what it answers with. A nil
// Env skips the environment comparison.
type Expectation struct {
	Command string
	Args    []string
	Env     environ.List
	Output  execx.Output
	Err     error
}

// Scripted answers calls from an ordered list of expectations and fails the
// test on any mismatch, surplus call or unconsumed expectation.
type Scripted struct {
	t            testing.TB
	mu           sync.Mutex
	expectations []Expectation
	calls        []Call
}

// New returns a Scripted runner bound to t. Unconsumed expectations are
// reported when the test finishes.
func New(t testing.TB) *Scripted {
	t.Helper()
	s := &Scripted{t: t}
	t.Cleanup(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if len(s.expectations) > 0 {
			t.Errorf("execxtest: %d expected call(s) never made, next: %s %v", len(s.expectations), s.expectations[0].Command, s.expectations[0].Args)
		}
	})
	return s
}

// Expect queues an expectation.
func (s *Scripted) Expect(e Expectation) *Scripted {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expectations = append(s.expectations, e)
	return s
}

// Calls returns a copy of every call received so far.
func (s *Scripted) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// Run implements execx.Runner.
func (s *Scripted) Run(_ context.Context, command string, args []string, opts execx.RunOptions) (execx.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := Call{Command: command, Args: append([]string(nil), args...), Env: opts.Env.Clone()}
	s.calls = append(s.calls, call)

	if len(s.expectations) == 0 {
		s.t.Errorf("execxtest: unexpected call %s %v", command, args)
		return execx.Output{}, fmt.Errorf("execxtest: unexpected call %s", command)
	}
	next := s.expectations[0]
	s.expectations = s.expectations[1:]

	if command != next.Command {
		s.t.Errorf("execxtest: command = %q, want %q", command, next.Command)
	}
	if diff := cmp.Diff(next.Args, args, cmpopts.EquateEmpty()); diff != "" {
		s.t.Errorf("execxtest: %s args mismatch (-want +got):\n%s", command, diff)
	}
	if next.Env != nil {
		if diff := cmp.Diff(next.Env, opts.Env, cmpopts.EquateEmpty()); diff != "" {
			s.t.Errorf("execxtest: %s env mismatch (-want +got):\n%s", command, diff)
		}
	}

	if opts.Stdout != nil && len(next.Output.Stdout) > 0 {
		_, _ = opts.Stdout.Write(next.Output.Stdout)
	}
	if opts.Stderr != nil && len(next.Output.Stderr) > 0 {
		_, _ = opts.Stderr.Write(next.Output.Stderr)
	}
	return next.Output, next.Err
}

// Exit builds an Output with the given status and streams.
func Exit(status int, stdout, stderr string) execx.Output {
	return execx.Output{Status: execx.Status(status), Stdout: []byte(stdout), Stderr: []byte(stderr)}
}

// OK builds a successful Output with stdout.
func OK(stdout string) execx.Output {
	return Exit(0, stdout, "")
}

var _ execx.Runner = (*Scripted)(nil)
