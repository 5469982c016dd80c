// Package bundler asks a project's Bundler setup which gems it provides.
package bundler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
)

const (
	// GemfileName is the manifest bundler reads in the project root.
	GemfileName = "Gemfile"
	// DefaultCommand is the bundler executable.
	DefaultCommand = "bundle"
)

// ErrNotFound reports that bundler answered successfully but printed no version.
var ErrNotFound = errors.New("gem not found in bundle")

// Error wraps a bundler invocation that did not produce a version.
type Error struct {
	Gem string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("bundle info for '%s': %v", e.Gem, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PathEncodingError reports a Gemfile path that cannot be passed as text.
type PathEncodingError struct {
	Path string
}

func (e *PathEncodingError) Error() string {
	return fmt.Sprintf("invalid path to Gemfile: %q", e.Path)
}

// Bundler runs bundler commands against the Gemfile in ProjectRoot.
type Bundler struct {
	ProjectRoot string
	Command     string
	Runner      execx.Runner
}

// New returns a Bundler for root that runs through runner.
func New(root string, runner execx.Runner) *Bundler {
	return &Bundler{ProjectRoot: root, Command: DefaultCommand, Runner: runner}
}

// GemfilePath returns the manifest path bundler is pinned to.
func (b *Bundler) GemfilePath() string {
	return filepath.Join(b.ProjectRoot, GemfileName)
}

// InstalledVersion returns the version of gem the bundle resolves to, verbatim
// as bundler prints it.
func (b *Bundler) InstalledVersion(ctx context.Context, gem string, env environ.List) (string, error) {
	out, err := b.run(ctx, "info", []string{"--version", gem}, env)
	if err != nil {
		return "", &Error{Gem: gem, Err: err}
	}
	if strings.TrimSpace(out) == "" {
		return "", &Error{Gem: gem, Err: ErrNotFound}
	}
	return out, nil
}

func (b *Bundler) run(ctx context.Context, subcommand string, args []string, env environ.List) (string, error) {
	gemfile := b.GemfilePath()
	if !utf8.ValidString(gemfile) {
		return "", &PathEncodingError{Path: gemfile}
	}

	command := b.Command
	if command == "" {
		command = DefaultCommand
	}

	fullArgs := append([]string{subcommand}, args...)
	commandEnv := env.Without(environ.BundleGemfileKey).With(environ.BundleGemfileKey, gemfile)

	output, err := b.Runner.Run(ctx, command, fullArgs, execx.RunOptions{Env: commandEnv})
	if err != nil {
		return "", err
	}
	return output.Text(command)
}
