package tools

import "gemlaunch/internal/config"

// Source names the resolution step that produced a command.
type Source string

const (
	SourceUnknown  Source = ""
	SourceOverride Source = "override"
	SourceBundler  Source = "bundler"
	SourcePath     Source = "path"
	SourceGemset   Source = "gemset"
)

// BundlerPolicy decides whether a tool may be launched through the project's
// bundle.
type BundlerPolicy int

const (
	// BundlerNever skips the bundle entirely.
	BundlerNever BundlerPolicy = iota
	// BundlerOptIn uses the bundle only when use_bundler is set to true.
	BundlerOptIn
	// BundlerDefault uses the bundle unless use_bundler is set to false.
	BundlerDefault
)

func (p BundlerPolicy) String() string {
	switch p {
	case BundlerOptIn:
		return "opt-in"
	case BundlerDefault:
		return "default"
	default:
		return "never"
	}
}

// Allows reports whether the bundle may be consulted given the user's
// use_bundler setting (nil when unset).
func (p BundlerPolicy) Allows(useBundler *bool) bool {
	switch p {
	case BundlerOptIn:
		return useBundler != nil && *useBundler
	case BundlerDefault:
		return useBundler == nil || *useBundler
	default:
		return false
	}
}

// Definition contains what is needed to launch one tool.
type Definition struct {
	ID          string
	Executable  string
	Gem         string
	DefaultArgs []string
	Bundler     BundlerPolicy

	// Preflight runs before any resolution step. A non-nil error stops the
	// tool from being launched in this project.
	Preflight func(projectRoot string, settings config.ToolSettings) error
}

// Args returns a copy of the default arguments.
func (d Definition) Args() []string {
	if d.DefaultArgs == nil {
		return nil
	}
	return append([]string(nil), d.DefaultArgs...)
}

// Check runs the preflight hook if the tool has one.
func (d Definition) Check(projectRoot string, settings config.ToolSettings) error {
	if d.Preflight == nil {
		return nil
	}
	return d.Preflight(projectRoot, settings)
}

// Status captures the resolved state of a tool for reporting.
type Status struct {
	Tool    string   `json:"tool"`
	Source  Source   `json:"source,omitempty"`
	Path    string   `json:"path,omitempty"`
	Version string   `json:"version,omitempty"`
	Ready   bool     `json:"ready"`
	Error   string   `json:"error,omitempty"`
	Notes   []string `json:"notes,omitempty"`
}
