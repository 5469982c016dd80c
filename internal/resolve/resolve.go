// Package resolve decides how a Ruby tool is launched for a project.
//
// The order is fixed: a configured binary path, the project's bundle, the
// executable on the ambient PATH, and finally a private gemset that gemlaunch
// provisions itself. Only the gemset step is allowed to fail terminally;
// failures in the bundle step fall through to the next step.
package resolve

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"gemlaunch/internal/bundler"
	"gemlaunch/internal/config"
	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
	"gemlaunch/internal/gemset"
	"gemlaunch/internal/logx"
	"gemlaunch/internal/tools"
)

// Command is a fully resolved invocation.
type Command struct {
	Path    string       `json:"path"`
	Args    []string     `json:"args"`
	Env     environ.List `json:"env"`
	Source  tools.Source `json:"source"`
	Version string       `json:"version,omitempty"`
}

// Argv returns the command path followed by its arguments.
func (c Command) Argv() []string {
	return append([]string{c.Path}, c.Args...)
}

// Request describes one tool to resolve for one project.
type Request struct {
	Tool        tools.Definition
	ProjectRoot string
	// Env is the ambient environment of the project, typically the user's
	// login shell environment.
	Env      environ.List
	Settings config.ToolSettings
}

// Options configures a Resolver. Zero values pick the production defaults.
type Options struct {
	// CacheDir is the base directory under which versioned gemsets live.
	CacheDir string
	Ruby     string
	Gem      string
	Bundle   string
	Runner   execx.Runner
	Finder   Finder
	Reporter Reporter
	Logger   *log.Logger
}

// Resolver turns requests into commands.
type Resolver struct {
	cacheDir string
	ruby     string
	gem      string
	bundle   string
	runner   execx.Runner
	finder   Finder
	reporter Reporter
	logger   *log.Logger
}

// New builds a Resolver from opts.
func New(opts Options) *Resolver {
	r := &Resolver{
		cacheDir: opts.CacheDir,
		ruby:     opts.Ruby,
		gem:      opts.Gem,
		bundle:   opts.Bundle,
		runner:   opts.Runner,
		finder:   opts.Finder,
		reporter: opts.Reporter,
		logger:   logx.OrDiscard(opts.Logger),
	}
	if r.ruby == "" {
		r.ruby = gemset.DefaultRubyCommand
	}
	if r.gem == "" {
		r.gem = gemset.DefaultCommand
	}
	if r.bundle == "" {
		r.bundle = bundler.DefaultCommand
	}
	if r.runner == nil {
		r.runner = execx.CmdRunner{}
	}
	if r.finder == nil {
		r.finder = PathFinder{}
	}
	if r.reporter == nil {
		r.reporter = nopReporter{}
	}
	return r
}

// Resolve returns the command that launches req.Tool. The outcome is also sent
// to the Reporter as ready or failed.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Command, error) {
	cmd, err := r.resolve(ctx, req)
	if err != nil {
		r.reporter.Report(req.Tool.ID, StatusFailed, err.Error())
		return Command{}, err
	}
	r.reporter.Report(req.Tool.ID, StatusReady, string(cmd.Source))
	return cmd, nil
}

func (r *Resolver) resolve(ctx context.Context, req Request) (Command, error) {
	tool := req.Tool
	logger := r.logger.With("tool", tool.ID)

	if err := tool.Check(req.ProjectRoot, req.Settings); err != nil {
		return Command{}, &Error{Tool: tool.ID, Step: StepPreflight, Err: err}
	}

	if path := req.Settings.Binary.Path; path != "" {
		args := req.Settings.Binary.Arguments
		if args == nil {
			args = tool.Args()
		}
		logger.Debug("using configured binary", "path", path)
		return Command{
			Path:   path,
			Args:   append([]string(nil), args...),
			Env:    req.Env.Clone(),
			Source: tools.SourceOverride,
		}, nil
	}

	if tool.Bundler.Allows(req.Settings.UseBundler) {
		if cmd, ok := r.fromBundle(ctx, req, logger); ok {
			return cmd, nil
		}
	} else {
		logger.Debug("bundle disabled", "policy", tool.Bundler)
	}

	if path, err := r.finder.LookPath(tool.Executable, req.Env); err == nil {
		logger.Debug("found on PATH", "path", path)
		return Command{
			Path:   path,
			Args:   tool.Args(),
			Env:    req.Env.Clone(),
			Source: tools.SourcePath,
		}, nil
	}

	return r.fromGemset(ctx, req, logger)
}

func (r *Resolver) fromBundle(ctx context.Context, req Request, logger *log.Logger) (Command, bool) {
	tool := req.Tool
	b := bundler.New(req.ProjectRoot, r.runner)
	b.Command = r.bundle

	version, err := b.InstalledVersion(ctx, tool.Gem, req.Env)
	if err != nil {
		logger.Debug("not in bundle", "err", err)
		return Command{}, false
	}
	bundlePath, err := r.finder.LookPath(r.bundle, req.Env)
	if err != nil {
		logger.Warn("bundle resolves the gem but the bundle command is not on PATH", "err", err)
		return Command{}, false
	}

	args := append([]string{"exec", tool.Executable}, tool.Args()...)
	version = strings.TrimSpace(version)
	logger.Debug("using bundle", "version", version)
	return Command{
		Path:    bundlePath,
		Args:    args,
		Env:     req.Env.Clone(),
		Source:  tools.SourceBundler,
		Version: version,
	}, true
}

func (r *Resolver) fromGemset(ctx context.Context, req Request, logger *log.Logger) (Command, error) {
	tool := req.Tool
	fail := func(step Step, err error) (Command, error) {
		return Command{}, &Error{Tool: tool.ID, Step: step, Err: err}
	}

	home, err := gemset.VersionedHome(ctx, r.runner, r.ruby, r.cacheDir, req.Env)
	if err != nil {
		return fail(StepRubyProbe, err)
	}

	unlock, err := gemset.Lock(ctx, home)
	if err != nil {
		return fail(StepLock, err)
	}
	defer unlock()

	gs := gemset.New(home, req.Env, r.runner)
	gs.Command = r.gem
	logger = logger.With("gem_home", home)

	r.reporter.Report(tool.ID, StatusChecking, "")
	version, installed, err := gs.InstalledVersion(ctx, tool.Gem)
	if err != nil {
		return fail(StepList, err)
	}

	if installed {
		outdated, err := gs.IsOutdated(ctx, tool.Gem)
		if err != nil {
			return fail(StepOutdated, err)
		}
		if outdated {
			r.reporter.Report(tool.ID, StatusUpdating, version)
			logger.Info("updating gem", "gem", tool.Gem, "from", version)
			if err := gs.Update(ctx, tool.Gem); err != nil {
				return fail(StepUpdate, err)
			}
			if err := gs.Uninstall(ctx, tool.Gem, version); err != nil {
				return fail(StepUninstall, err)
			}
			r.record(logger, home, tool.Gem, gemset.ManifestEntry{Action: "update", Previous: version})
			version = ""
		}
	} else {
		r.reporter.Report(tool.ID, StatusInstalling, "")
		logger.Info("installing gem", "gem", tool.Gem)
		if err := gs.Install(ctx, tool.Gem); err != nil {
			return fail(StepInstall, err)
		}
		r.record(logger, home, tool.Gem, gemset.ManifestEntry{Action: "install"})
	}

	path, err := gs.BinPath(tool.Executable)
	if err != nil {
		return fail(StepExecutable, err)
	}
	return Command{
		Path:    path,
		Args:    tool.Args(),
		Env:     gs.Env(),
		Source:  tools.SourceGemset,
		Version: version,
	}, nil
}

// record notes an install or update in the gemset manifest. The manifest is
// informational, so a failure is only logged.
func (r *Resolver) record(logger *log.Logger, home, gem string, entry gemset.ManifestEntry) {
	entry.InstalledAt = time.Now().UTC()
	if err := gemset.Record(home, gem, entry); err != nil {
		logger.Warn("cannot update gemset manifest", "err", err)
	}
}
