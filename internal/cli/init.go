package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"gemlaunch/internal/paths"
)

const configTemplate = `# gemlaunch project settings.
version: 1

# Per-tool settings keyed by tool id (see "gemlaunch tools list").
tools: {}
#   rubocop:
#     # Launch through "bundle exec" when the Gemfile resolves the gem.
#     use_bundler: true
#   ruby-lsp:
#     # ruby-lsp only uses the bundle when asked to.
#     use_bundler: false
#   steep:
#     # Steep refuses to start without a Steepfile in the project root.
#     require_root_steepfile: true
#   solargraph:
#     # Skip discovery and run this executable.
#     binary:
#       path: /usr/local/bin/solargraph
#       arguments: ["stdio"]
#     initialization_options:
#       diagnostics: true
`

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a starter settings file into the project",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
}

func runInit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}
	exists, err := paths.DirExists(pp.Root)
	if err != nil {
		return fmt.Errorf("stat project dir: %w", err)
	}
	if !exists {
		return fmt.Errorf("project directory does not exist: %s", pp.Root)
	}

	created, err := ensureConfigFile(pp)
	if err != nil {
		return err
	}
	if !created {
		cmd.Printf("Config already exists at %s\n", pp.ConfigFile)
		return nil
	}
	cmd.Printf("Created %s\n", pp.ConfigFile)
	return nil
}
