package gemset

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"

	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
)

// DefaultRubyCommand is the interpreter probed for the gemset fingerprint.
const DefaultRubyCommand = "ruby"

// Fingerprint hashes `ruby --version` output so that gemsets built against
// different interpreters never share a directory.
func Fingerprint(versionOutput string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(strings.TrimSpace(versionOutput)))
}

// VersionedHome returns <base>/gems/<fingerprint> for the Ruby interpreter
// visible in env.
func VersionedHome(ctx context.Context, runner execx.Runner, ruby, base string, env environ.List) (string, error) {
	if ruby == "" {
		ruby = DefaultRubyCommand
	}
	output, err := runner.Run(ctx, ruby, []string{"--version"}, execx.RunOptions{Env: env})
	if err != nil {
		return "", &Error{Op: OpProbe, Err: err}
	}
	text, err := output.Text(ruby)
	if err != nil {
		return "", &Error{Op: OpProbe, Err: err}
	}
	return filepath.Join(base, "gems", Fingerprint(text)), nil
}

// Roots lists the fingerprinted gemset directories under base.
func Roots(base string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(base, "gems", "*"))
	if err != nil {
		return nil, fmt.Errorf("list gemsets: %w", err)
	}
	roots := matches[:0]
	for _, m := range matches {
		if strings.HasSuffix(m, lockSuffix) {
			continue
		}
		roots = append(roots, m)
	}
	return roots, nil
}
