package tools

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gemlaunch/internal/config"
)

// SteepfileName is the project file steep needs to type check anything.
const SteepfileName = "Steepfile"

// ErrUnknownTool is returned by Lookup for an unregistered id.
var ErrUnknownTool = errors.New("unknown tool")

var toolDefinitions = map[string]Definition{
	"ruby-lsp": {
		ID:         "ruby-lsp",
		Executable: "ruby-lsp",
		Gem:        "ruby-lsp",
		Bundler:    BundlerOptIn,
	},
	"rubocop": {
		ID:          "rubocop",
		Executable:  "rubocop",
		Gem:         "rubocop",
		DefaultArgs: []string{"--lsp"},
		Bundler:     BundlerDefault,
	},
	"solargraph": {
		ID:          "solargraph",
		Executable:  "solargraph",
		Gem:         "solargraph",
		DefaultArgs: []string{"stdio"},
		Bundler:     BundlerDefault,
	},
	"sorbet": {
		ID:          "sorbet",
		Executable:  "srb",
		Gem:         "sorbet",
		DefaultArgs: []string{"tc", "--lsp", "--enable-experimental-lsp-document-highlight"},
		Bundler:     BundlerDefault,
	},
	"steep": {
		ID:          "steep",
		Executable:  "steep",
		Gem:         "steep",
		DefaultArgs: []string{"langserver"},
		Bundler:     BundlerDefault,
		Preflight:   requireSteepfile,
	},
	"standardrb": {
		ID:          "standardrb",
		Executable:  "standardrb",
		Gem:         "standard",
		DefaultArgs: []string{"--lsp"},
		Bundler:     BundlerDefault,
	},
	"kanayago": {
		ID:          "kanayago",
		Executable:  "kanayago",
		Gem:         "kanayago",
		DefaultArgs: []string{"--lsp"},
		Bundler:     BundlerDefault,
	},
}

// KnownTools returns the registered tool ids.
func KnownTools() []string {
	names := make([]string, 0, len(toolDefinitions))
	for name := range toolDefinitions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the definition registered under id.
func Lookup(id string) (Definition, error) {
	def, ok := toolDefinitions[id]
	if !ok {
		return Definition{}, fmt.Errorf("%w %q (known: %v)", ErrUnknownTool, id, KnownTools())
	}
	def.DefaultArgs = def.Args()
	return def, nil
}

func requireSteepfile(projectRoot string, settings config.ToolSettings) error {
	if !settings.RequireRootSteepfileValue() {
		return nil
	}
	info, err := os.Stat(filepath.Join(projectRoot, SteepfileName))
	if err == nil && !info.IsDir() {
		return nil
	}
	return fmt.Errorf("no %s found in %s; create one or set require_root_steepfile: false", SteepfileName, projectRoot)
}
