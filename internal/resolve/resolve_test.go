package resolve

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"gemlaunch/internal/config"
	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
	"gemlaunch/internal/execx/execxtest"
	"gemlaunch/internal/gemset"
	"gemlaunch/internal/tools"
)

const rubyVersion = "ruby 3.3.0 (2023-12-25 revision 5124f9ac75) [x86_64-linux]"

type recordingReporter struct {
	mu      sync.Mutex
	updates []InstallStatus
}

func (r *recordingReporter) Report(_ string, status InstallStatus, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, status)
}

type fixture struct {
	t        *testing.T
	runner   *execxtest.Scripted
	finder   MapFinder
	reporter *recordingReporter
	cacheDir string
	root     string
	env      environ.List
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return &fixture{
		t:        t,
		runner:   execxtest.New(t),
		finder:   MapFinder{},
		reporter: &recordingReporter{},
		cacheDir: t.TempDir(),
		root:     t.TempDir(),
		env:      environ.Of("PATH", "/usr/local/bin:/usr/bin", "HOME", "/home/dev"),
	}
}

func (f *fixture) resolver() *Resolver {
	return New(Options{
		CacheDir: f.cacheDir,
		Runner:   f.runner,
		Finder:   f.finder,
		Reporter: f.reporter,
	})
}

func (f *fixture) home() string {
	return filepath.Join(f.cacheDir, "gems", gemset.Fingerprint(rubyVersion))
}

func (f *fixture) request(id string, settings config.ToolSettings) Request {
	f.t.Helper()
	def, err := tools.Lookup(id)
	if err != nil {
		f.t.Fatalf("lookup %s: %v", id, err)
	}
	return Request{Tool: def, ProjectRoot: f.root, Env: f.env, Settings: settings}
}

func (f *fixture) expectBundleInfo(gem string, out execx.Output) {
	f.runner.Expect(execxtest.Expectation{
		Command: "bundle",
		Args:    []string{"info", "--version", gem},
		Env:     f.env.With(environ.BundleGemfileKey, filepath.Join(f.root, "Gemfile")),
		Output:  out,
	})
}

func (f *fixture) expectRuby() {
	f.runner.Expect(execxtest.Expectation{
		Command: "ruby",
		Args:    []string{"--version"},
		Env:     f.env,
		Output:  execxtest.OK(rubyVersion + "\n"),
	})
}

func (f *fixture) expectGem(args []string, out execx.Output, err error) {
	env := environ.List{{Key: environ.GemHomeKey, Value: f.home()}}
	env = append(env, f.env...)
	f.runner.Expect(execxtest.Expectation{
		Command: "gem",
		Args:    args,
		Env:     env,
		Output:  out,
		Err:     err,
	})
}

func commandLines(calls []execxtest.Call) []string {
	lines := make([]string, 0, len(calls))
	for _, c := range calls {
		lines = append(lines, strings.Join(append([]string{c.Command}, c.Args...), " "))
	}
	return lines
}

func boolPtr(v bool) *bool {
	return &v
}

func TestOverrideSpawnsNothing(t *testing.T) {
	f := newFixture(t)
	settings := config.ToolSettings{Binary: config.BinarySettings{Path: "/opt/bin/rubocop"}}

	cmd, err := f.resolver().Resolve(context.Background(), f.request("rubocop", settings))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := Command{Path: "/opt/bin/rubocop", Args: []string{"--lsp"}, Env: f.env, Source: tools.SourceOverride}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
	if calls := f.runner.Calls(); len(calls) != 0 {
		t.Fatalf("expected no subprocess, got %v", commandLines(calls))
	}
}

func TestOverrideUsesConfiguredArguments(t *testing.T) {
	f := newFixture(t)
	settings := config.ToolSettings{Binary: config.BinarySettings{Path: "/opt/bin/solargraph", Arguments: []string{}}}

	cmd, err := f.resolver().Resolve(context.Background(), f.request("solargraph", settings))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(cmd.Args) != 0 {
		t.Fatalf("expected explicit empty arguments to win, got %v", cmd.Args)
	}
}

func TestBundlerProvidesCommand(t *testing.T) {
	f := newFixture(t)
	f.finder["bundle"] = "/usr/bin/bundle"
	f.expectBundleInfo("rubocop", execxtest.OK("1.65.0\n"))

	cmd, err := f.resolver().Resolve(context.Background(), f.request("rubocop", config.ToolSettings{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := Command{
		Path:    "/usr/bin/bundle",
		Args:    []string{"exec", "rubocop", "--lsp"},
		Env:     f.env,
		Source:  tools.SourceBundler,
		Version: "1.65.0",
	}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Fatalf("command mismatch (-want +got):\n%s", diff)
	}
}

func TestOptInBundlerIsNotConsultedByDefault(t *testing.T) {
	f := newFixture(t)
	f.finder["bundle"] = "/usr/bin/bundle"
	f.finder["ruby-lsp"] = "/usr/local/bin/ruby-lsp"

	cmd, err := f.resolver().Resolve(context.Background(), f.request("ruby-lsp", config.ToolSettings{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Source != tools.SourcePath || cmd.Path != "/usr/local/bin/ruby-lsp" {
		t.Fatalf("expected PATH command, got %+v", cmd)
	}
	if len(cmd.Args) != 0 {
		t.Fatalf("ruby-lsp takes no default args, got %v", cmd.Args)
	}
	if calls := f.runner.Calls(); len(calls) != 0 {
		t.Fatalf("expected bundler to be skipped without spawning, got %v", commandLines(calls))
	}
}

func TestOptInBundlerWhenEnabled(t *testing.T) {
	f := newFixture(t)
	f.finder["bundle"] = "/usr/bin/bundle"
	f.expectBundleInfo("ruby-lsp", execxtest.OK("0.17.0"))

	cmd, err := f.resolver().Resolve(context.Background(), f.request("ruby-lsp", config.ToolSettings{UseBundler: boolPtr(true)}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"exec", "ruby-lsp"}, cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestBundlerDisabledBySetting(t *testing.T) {
	f := newFixture(t)
	f.finder["standardrb"] = "/usr/bin/standardrb"

	cmd, err := f.resolver().Resolve(context.Background(), f.request("standardrb", config.ToolSettings{UseBundler: boolPtr(false)}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Source != tools.SourcePath {
		t.Fatalf("expected PATH command, got %+v", cmd)
	}
}

func TestBundlerFailureFallsThroughToPath(t *testing.T) {
	tests := []struct {
		name   string
		output execx.Output
		finder MapFinder
	}{
		{
			name:   "gem not in bundle",
			output: execxtest.Exit(7, "", "Could not find gem 'solargraph'."),
			finder: MapFinder{"bundle": "/usr/bin/bundle", "solargraph": "/usr/bin/solargraph"},
		},
		{
			name:   "blank version",
			output: execxtest.OK("\n"),
			finder: MapFinder{"bundle": "/usr/bin/bundle", "solargraph": "/usr/bin/solargraph"},
		},
		{
			name:   "bundle command missing from PATH",
			output: execxtest.OK("0.50.0"),
			finder: MapFinder{"solargraph": "/usr/bin/solargraph"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.finder = tt.finder
			f.expectBundleInfo("solargraph", tt.output)

			cmd, err := f.resolver().Resolve(context.Background(), f.request("solargraph", config.ToolSettings{}))
			if err != nil {
				t.Fatalf("resolve: %v", err)
			}
			want := Command{Path: "/usr/bin/solargraph", Args: []string{"stdio"}, Env: f.env, Source: tools.SourcePath}
			if diff := cmp.Diff(want, cmd); diff != "" {
				t.Fatalf("command mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestBundlerSpawnFailureFallsThrough(t *testing.T) {
	f := newFixture(t)
	f.finder["steep"] = "/usr/bin/steep"
	if err := os.WriteFile(filepath.Join(f.root, tools.SteepfileName), nil, 0o644); err != nil {
		t.Fatalf("write Steepfile: %v", err)
	}
	f.runner.Expect(execxtest.Expectation{
		Command: "bundle",
		Args:    []string{"info", "--version", "steep"},
		Err:     &execx.SpawnError{Command: "bundle", Err: errors.New("no such file or directory")},
	})

	cmd, err := f.resolver().Resolve(context.Background(), f.request("steep", config.ToolSettings{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Source != tools.SourcePath {
		t.Fatalf("expected PATH command, got %+v", cmd)
	}
}

func TestGemsetInstallsMissingGem(t *testing.T) {
	f := newFixture(t)
	f.expectBundleInfo("standard", execxtest.Exit(7, "", "Could not locate Gemfile"))
	f.expectRuby()
	f.expectGem([]string{"list", "--norc", "--exact", "standard"}, execxtest.OK(""), nil)
	f.expectGem([]string{"install", "--norc", "--no-user-install", "--no-format-executable", "--no-document", "standard"}, execxtest.OK(""), nil)

	cmd, err := f.resolver().Resolve(context.Background(), f.request("standardrb", config.ToolSettings{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	home := f.home()
	if cmd.Path != filepath.Join(home, "bin", "standardrb") || cmd.Source != tools.SourceGemset {
		t.Fatalf("unexpected command %+v", cmd)
	}
	if diff := cmp.Diff([]string{"--lsp"}, cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
	if got := cmd.Env.Get(environ.PathKey); got != filepath.Join(home, "bin")+":/usr/local/bin:/usr/bin" {
		t.Fatalf("PATH = %q", got)
	}
	if got := cmd.Env.Get(environ.GemPathKey); got != home {
		t.Fatalf("GEM_PATH = %q", got)
	}

	installs := 0
	for _, line := range commandLines(f.runner.Calls()) {
		if strings.HasPrefix(line, "gem install") {
			installs++
		}
	}
	if installs != 1 {
		t.Fatalf("expected exactly one install, got %d", installs)
	}

	want := []InstallStatus{StatusChecking, StatusInstalling, StatusReady}
	if diff := cmp.Diff(want, f.reporter.updates); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}

	m, err := gemset.LoadManifest(home)
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if entry, ok := m.Entries["standard"]; !ok || entry.Action != "install" || entry.InstalledAt.IsZero() {
		t.Fatalf("expected install recorded, got %#v", m.Entries)
	}
}

func TestGemsetUpdatesOutdatedGemThenUninstallsPrevious(t *testing.T) {
	f := newFixture(t)
	f.expectBundleInfo("rubocop", execxtest.Exit(1, "", ""))
	f.expectRuby()
	f.expectGem([]string{"list", "--norc", "--exact", "rubocop"}, execxtest.OK("rubocop (1.60.0)\n"), nil)
	f.expectGem([]string{"outdated", "--norc"}, execxtest.OK("rubocop (1.60.0 < 1.65.0)\n"), nil)
	f.expectGem([]string{"update", "--norc", "rubocop"}, execxtest.OK(""), nil)
	f.expectGem([]string{"uninstall", "--norc", "rubocop", "--version", "1.60.0"}, execxtest.OK(""), nil)

	cmd, err := f.resolver().Resolve(context.Background(), f.request("rubocop", config.ToolSettings{}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Source != tools.SourceGemset {
		t.Fatalf("expected gemset command, got %+v", cmd)
	}

	want := []string{
		"bundle info --version rubocop",
		"ruby --version",
		"gem list --norc --exact rubocop",
		"gem outdated --norc",
		"gem update --norc rubocop",
		"gem uninstall --norc rubocop --version 1.60.0",
	}
	if diff := cmp.Diff(want, commandLines(f.runner.Calls())); diff != "" {
		t.Fatalf("call order mismatch (-want +got):\n%s", diff)
	}
	wantStatus := []InstallStatus{StatusChecking, StatusUpdating, StatusReady}
	if diff := cmp.Diff(wantStatus, f.reporter.updates); diff != "" {
		t.Fatalf("status mismatch (-want +got):\n%s", diff)
	}

	m, err := gemset.LoadManifest(f.home())
	if err != nil {
		t.Fatalf("load manifest: %v", err)
	}
	if entry := m.Entries["rubocop"]; entry.Action != "update" || entry.Previous != "1.60.0" {
		t.Fatalf("expected update recorded, got %#v", m.Entries)
	}
}

func TestGemsetCurrentGemIsUsedAsIs(t *testing.T) {
	f := newFixture(t)
	f.expectRuby()
	f.expectGem([]string{"list", "--norc", "--exact", "kanayago"}, execxtest.OK("kanayago (0.4.0)\n"), nil)
	f.expectGem([]string{"outdated", "--norc"}, execxtest.OK("csv (3.3.2 < 3.3.4)\n"), nil)

	cmd, err := f.resolver().Resolve(context.Background(), f.request("kanayago", config.ToolSettings{UseBundler: boolPtr(false)}))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cmd.Version != "0.4.0" {
		t.Fatalf("expected installed version, got %q", cmd.Version)
	}
}

func TestGemsetUninstallFailureIsFatal(t *testing.T) {
	f := newFixture(t)
	f.expectRuby()
	f.expectGem([]string{"list", "--norc", "--exact", "sorbet"}, execxtest.OK("sorbet (0.5.1)\n"), nil)
	f.expectGem([]string{"outdated", "--norc"}, execxtest.OK("sorbet (0.5.1 < 0.5.2)\n"), nil)
	f.expectGem([]string{"update", "--norc", "sorbet"}, execxtest.OK(""), nil)
	f.expectGem([]string{"uninstall", "--norc", "sorbet", "--version", "0.5.1"}, execxtest.Exit(1, "", "dependency error"), nil)

	_, err := f.resolver().Resolve(context.Background(), f.request("sorbet", config.ToolSettings{UseBundler: boolPtr(false)}))
	var resolveErr *Error
	if !errors.As(err, &resolveErr) || resolveErr.Step != StepUninstall {
		t.Fatalf("expected uninstall step error, got %v", err)
	}
	if !strings.Contains(err.Error(), "dependency error") {
		t.Fatalf("expected underlying stderr in message, got %q", err.Error())
	}
	if last := f.reporter.updates[len(f.reporter.updates)-1]; last != StatusFailed {
		t.Fatalf("expected failed status, got %s", last)
	}
}

func TestGemsetInstallSpawnFailurePreservesMessage(t *testing.T) {
	f := newFixture(t)
	f.expectRuby()
	f.expectGem([]string{"list", "--norc", "--exact", "solargraph"}, execxtest.OK(""), nil)
	f.expectGem(
		[]string{"install", "--norc", "--no-user-install", "--no-format-executable", "--no-document", "solargraph"},
		execx.Output{},
		&execx.SpawnError{Command: "gem", Err: errors.New("exec format error")},
	)

	_, err := f.resolver().Resolve(context.Background(), f.request("solargraph", config.ToolSettings{UseBundler: boolPtr(false)}))
	var resolveErr *Error
	if !errors.As(err, &resolveErr) || resolveErr.Step != StepInstall {
		t.Fatalf("expected install step error, got %v", err)
	}
	var spawnErr *execx.SpawnError
	if !errors.As(err, &spawnErr) {
		t.Fatalf("expected SpawnError in chain, got %v", err)
	}
	if !strings.Contains(err.Error(), "failed to start 'gem': exec format error") {
		t.Fatalf("expected spawn message verbatim, got %q", err.Error())
	}
}

func TestGemsetRubyProbeFailure(t *testing.T) {
	f := newFixture(t)
	f.runner.Expect(execxtest.Expectation{
		Command: "ruby",
		Args:    []string{"--version"},
		Err:     &execx.SpawnError{Command: "ruby", Err: errors.New("executable file not found")},
	})

	_, err := f.resolver().Resolve(context.Background(), f.request("rubocop", config.ToolSettings{UseBundler: boolPtr(false)}))
	var resolveErr *Error
	if !errors.As(err, &resolveErr) || resolveErr.Step != StepRubyProbe {
		t.Fatalf("expected ruby probe error, got %v", err)
	}
}

func TestSteepRequiresSteepfile(t *testing.T) {
	f := newFixture(t)
	f.finder["steep"] = "/usr/bin/steep"

	_, err := f.resolver().Resolve(context.Background(), f.request("steep", config.ToolSettings{}))
	var resolveErr *Error
	if !errors.As(err, &resolveErr) || resolveErr.Step != StepPreflight {
		t.Fatalf("expected preflight error, got %v", err)
	}
	if !strings.Contains(err.Error(), "require_root_steepfile") {
		t.Fatalf("expected hint about require_root_steepfile, got %q", err.Error())
	}
	if calls := f.runner.Calls(); len(calls) != 0 {
		t.Fatalf("expected no subprocess, got %v", commandLines(calls))
	}
}

func TestSteepfileRequirementCanBeDisabled(t *testing.T) {
	f := newFixture(t)
	f.finder["steep"] = "/usr/bin/steep"

	settings := config.ToolSettings{RequireRootSteepfile: boolPtr(false), UseBundler: boolPtr(false)}
	cmd, err := f.resolver().Resolve(context.Background(), f.request("steep", settings))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if diff := cmp.Diff([]string{"langserver"}, cmd.Args); diff != "" {
		t.Fatalf("args mismatch (-want +got):\n%s", diff)
	}
}

func TestCommandArgv(t *testing.T) {
	cmd := Command{Path: "/usr/bin/bundle", Args: []string{"exec", "rubocop"}}
	if diff := cmp.Diff([]string{"/usr/bin/bundle", "exec", "rubocop"}, cmd.Argv()); diff != "" {
		t.Fatalf("argv mismatch (-want +got):\n%s", diff)
	}
}
