package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"mvdan.cc/sh/v3/shell"

	"gemlaunch/internal/config"
	"gemlaunch/internal/execx"
	"gemlaunch/internal/paths"
)

var configShowGlobal bool

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or edit gemlaunch configuration",
	}

	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigEditCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration in YAML",
		RunE:  runConfigShow,
	}
	cmd.Flags().BoolVar(&configShowGlobal, "global", false, "Show user-wide settings instead of the project's")
	return cmd
}

func newConfigEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Open the project configuration in $EDITOR",
		RunE:  runConfigEdit,
	}
}

func runConfigShow(cmd *cobra.Command, _ []string) error {
	var (
		value any
		err   error
	)
	if configShowGlobal {
		value, err = config.LoadGlobal(paths.User("").ConfigFile)
	} else {
		var pp paths.ProjectPaths
		pp, err = paths.Resolve(projectDir)
		if err != nil {
			return err
		}
		value, err = config.Load(pp.ConfigFile)
	}
	if err != nil {
		return err
	}

	if outputJSON {
		return writeJSON(cmd, value)
	}
	data, err := yaml.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	fmt.Fprint(cmd.OutOrStdout(), string(data))
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	pp, err := paths.Resolve(projectDir)
	if err != nil {
		return err
	}

	if _, err := ensureConfigFile(pp); err != nil {
		return err
	}

	parts, err := editorCommand(os.Getenv("EDITOR"))
	if err != nil {
		return err
	}
	parts = append(parts, pp.ConfigFile)

	out, err := execx.CmdRunner{}.Run(cmd.Context(), parts[0], parts[1:], execx.RunOptions{
		Dir:         pp.Root,
		Stdin:       cmd.InOrStdin(),
		Stdout:      cmd.OutOrStdout(),
		Stderr:      cmd.ErrOrStderr(),
		Passthrough: true,
	})
	if err != nil {
		return err
	}
	if !out.Success() {
		if out.Status == nil {
			return errors.New("editor was terminated by a signal")
		}
		return fmt.Errorf("editor exited with status %d", *out.Status)
	}
	return nil
}

// editorCommand splits $EDITOR with shell quoting rules, defaulting to vi.
func editorCommand(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return []string{"vi"}, nil
	}
	fields, err := shell.Fields(value, func(string) string { return "" })
	if err != nil {
		return nil, fmt.Errorf("invalid EDITOR value %q: %w", value, err)
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("invalid EDITOR value: %q", value)
	}
	return fields, nil
}

// ensureConfigFile writes the commented template when the project has no
// settings file yet and reports whether it did.
func ensureConfigFile(pp paths.ProjectPaths) (bool, error) {
	exists, err := paths.FileExists(pp.ConfigFile)
	if err != nil {
		return false, fmt.Errorf("check config: %w", err)
	}
	if exists {
		return false, nil
	}
	if err := os.WriteFile(pp.ConfigFile, []byte(configTemplate), 0o644); err != nil {
		return false, fmt.Errorf("write config: %w", err)
	}
	return true, nil
}
