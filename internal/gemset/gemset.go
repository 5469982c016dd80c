// Package gemset manages a private GEM_HOME owned by gemlaunch.
//
// Every operation shells out to the gem command with GEM_HOME pointing at the
// gemset and --norc set, so a user's ~/.gemrc cannot change the output format
// the parsers below rely on.
package gemset

import (
	"bufio"
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
)

// DefaultCommand is the gem executable.
const DefaultCommand = "gem"

var gemVersionRegex = regexp.MustCompile(`^(\S+) \((.+)\)$`)

// Gemset is a GEM_HOME directory plus the ambient environment gem commands run
// with. It is meant to live for a single resolution.
type Gemset struct {
	Home    string
	Command string

	runner  execx.Runner
	ambient environ.List

	envOnce sync.Once
	env     environ.List
}

// New returns a Gemset rooted at home. Ambient entries are passed to every gem
// command after GEM_HOME and never override it.
func New(home string, ambient environ.List, runner execx.Runner) *Gemset {
	var normalized environ.List
	for _, v := range ambient {
		normalized = normalized.With(v.Key, v.Value)
	}
	return &Gemset{
		Home:    home,
		Command: DefaultCommand,
		runner:  runner,
		ambient: normalized,
	}
}

// BinPath returns the path of an executable installed into the gemset.
func (g *Gemset) BinPath(executable string) (string, error) {
	path := filepath.Join(g.Home, "bin", executable)
	if !utf8.ValidString(path) {
		return "", &PathEncodingError{Path: path, What: fmt.Sprintf("path for '%s'", executable)}
	}
	return path, nil
}

// Env returns the environment a gemset executable should run with: the ambient
// environment with the gemset placed first on GEM_PATH and its bin directory
// first on PATH. The result is computed once per Gemset.
func (g *Gemset) Env() environ.List {
	g.envOnce.Do(func() {
		g.env = g.ambient.
			PrependPath(environ.GemPathKey, g.Home).
			PrependPath(environ.PathKey, filepath.Join(g.Home, "bin"))
	})
	return g.env.Clone()
}

// Install installs the latest version of name into the gemset.
func (g *Gemset) Install(ctx context.Context, name string) error {
	args := []string{"--no-user-install", "--no-format-executable", "--no-document", name}
	if _, err := g.run(ctx, "install", args); err != nil {
		return &Error{Op: OpInstall, Gem: name, Err: err}
	}
	return nil
}

// Update updates name to its latest version.
func (g *Gemset) Update(ctx context.Context, name string) error {
	if _, err := g.run(ctx, "update", []string{name}); err != nil {
		return &Error{Op: OpUpdate, Gem: name, Err: err}
	}
	return nil
}

// Uninstall removes one installed version of name.
func (g *Gemset) Uninstall(ctx context.Context, name, version string) error {
	if _, err := g.run(ctx, "uninstall", []string{name, "--version", version}); err != nil {
		return &Error{Op: OpUninstall, Gem: name, Version: version, Err: err}
	}
	return nil
}

// InstalledVersion reports the installed version of name. The version is the
// full text inside the parentheses of `gem list`, so annotated entries such as
// "default: 1.2.0" are returned as-is. ok is false when name is not installed.
func (g *Gemset) InstalledVersion(ctx context.Context, name string) (version string, ok bool, err error) {
	out, err := g.run(ctx, "list", []string{"--exact", name})
	if err != nil {
		return "", false, &Error{Op: OpList, Gem: name, Err: err}
	}
	version, ok = parseInstalledVersion(out, name)
	return version, ok, nil
}

// IsOutdated reports whether `gem outdated` lists name.
func (g *Gemset) IsOutdated(ctx context.Context, name string) (bool, error) {
	out, err := g.run(ctx, "outdated", nil)
	if err != nil {
		return false, &Error{Op: OpOutdated, Gem: name, Err: err}
	}
	return listsOutdated(out, name), nil
}

func (g *Gemset) run(ctx context.Context, subcommand string, args []string) (string, error) {
	if !utf8.ValidString(g.Home) {
		return "", &PathEncodingError{Path: g.Home, What: "gem home"}
	}

	command := g.Command
	if command == "" {
		command = DefaultCommand
	}

	fullArgs := make([]string, 0, len(args)+2)
	fullArgs = append(fullArgs, subcommand, "--norc")
	fullArgs = append(fullArgs, args...)

	env := environ.List{{Key: environ.GemHomeKey, Value: g.Home}}
	env = append(env, g.ambient.Without(environ.GemHomeKey)...)

	output, err := g.runner.Run(ctx, command, fullArgs, execx.RunOptions{Env: env})
	if err != nil {
		return "", err
	}
	return output.Text(command)
}

func parseInstalledVersion(output, name string) (string, bool) {
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		match := gemVersionRegex.FindStringSubmatch(strings.TrimRight(scanner.Text(), "\r"))
		if match == nil {
			continue
		}
		if match[1] == name {
			return match[2], true
		}
	}
	return "", false
}

func listsOutdated(output, name string) bool {
	for _, line := range strings.Split(output, "\n") {
		fields := strings.Fields(line)
		if len(fields) > 0 && fields[0] == name {
			return true
		}
	}
	return false
}
