package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"gemlaunch/internal/tools"
	"gemlaunch/internal/tui"
)

func newToolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tools gemlaunch knows how to launch",
	}

	cmd.AddCommand(newToolsListCmd())

	return cmd
}

func newToolsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List known tools and whether they are on PATH",
		Args:  cobra.NoArgs,
		RunE:  runToolsList,
	}
}

func runToolsList(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	infos := tools.Probe(s.env)
	if outputJSON {
		return writeJSON(cmd, infos)
	}

	printToolTable(cmd, infos)
	return nil
}

func printToolTable(cmd *cobra.Command, infos []tools.ToolInfo) {
	columns := []tui.Column{
		{Header: "TOOL"},
		{Header: "GEM"},
		{Header: "EXECUTABLE"},
		{Header: "BUNDLER"},
		{Header: "ARGS", Max: 24},
		{Header: "PATH", Max: 60},
	}
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		def, _ := tools.Lookup(info.Name)
		path := info.Path
		if !info.Available {
			path = "(not on PATH)"
		}
		if info.Error != "" {
			path = info.Error
		}
		rows = append(rows, []string{
			info.Name,
			info.Gem,
			info.Executable,
			info.Bundler,
			tui.NonEmptyOrDash(strings.Join(def.DefaultArgs, " ")),
			path,
		})
	}
	cmd.Print(tui.RenderTable(columns, rows))
}
