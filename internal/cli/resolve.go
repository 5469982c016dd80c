package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"mvdan.cc/sh/v3/syntax"

	"gemlaunch/internal/environ"
	"gemlaunch/internal/resolve"
	"gemlaunch/internal/tui"
)

var resolveShell bool

func newResolveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve <tool>",
		Short: "Print the command that launches a tool, installing it if needed",
		Args:  cobra.ExactArgs(1),
		RunE:  runResolve,
	}

	cmd.Flags().BoolVar(&resolveShell, "shell", false, "Print a shell snippet that runs the tool")

	return cmd
}

// resolvedTool is the JSON shape of a resolution.
type resolvedTool struct {
	Tool                  string          `json:"tool"`
	Command               resolve.Command `json:"command"`
	InitializationOptions map[string]any  `json:"initialization_options,omitempty"`
}

func runResolve(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	defs, err := lookupTools(args)
	if err != nil {
		return err
	}
	def := defs[0]

	reporter := resolve.Reporter(nil)
	var sw *tui.StatusWriter
	if tui.IsTerminal(cmd.ErrOrStderr()) {
		sw = tui.NewStatusWriter(cmd.ErrOrStderr())
		reporter = sw
	}

	resolved, err := s.resolver(reporter).Resolve(cmd.Context(), s.request(def))
	if sw != nil {
		sw.Stop()
	}
	if err != nil {
		s.logger.Error("resolve failed", "tool", def.ID, "err", err)
		return err
	}
	s.logger.Info("resolved", "tool", def.ID, "source", resolved.Source, "path", resolved.Path)

	switch {
	case outputJSON:
		return writeJSON(cmd, resolvedTool{
			Tool:                  def.ID,
			Command:               resolved,
			InitializationOptions: s.cfg.Tool(def.ID).InitializationOptions,
		})
	case resolveShell:
		script, err := shellScript(resolved, s.env)
		if err != nil {
			return err
		}
		cmd.Print(script)
		return nil
	default:
		printResolved(cmd, def.ID, resolved)
		return nil
	}
}

func printResolved(cmd *cobra.Command, tool string, c resolve.Command) {
	label := func(s string) string { return tui.HeaderStyle.Render(fmt.Sprintf("%-8s", s)) }
	cmd.Println(label("tool") + " " + tool)
	cmd.Println(label("source") + " " + string(c.Source))
	if c.Version != "" {
		cmd.Println(label("version") + " " + c.Version)
	}
	cmd.Println(label("path") + " " + c.Path)
	cmd.Println(label("args") + " " + tui.NonEmptyOrDash(strings.Join(c.Args, " ")))
	for _, v := range changedEnv(c.Env, nil) {
		cmd.Println(tui.DimStyle.Render(fmt.Sprintf("  %s=%s", v.Key, v.Value)))
	}
}

// changedEnv returns the entries of env whose value differs from ambient. A nil
// ambient keeps only the gem related variables.
func changedEnv(env, ambient environ.List) environ.List {
	var out environ.List
	for _, v := range env {
		if ambient == nil {
			if v.Key == environ.GemPathKey || v.Key == environ.GemHomeKey {
				out = append(out, v)
			}
			continue
		}
		if prev, ok := ambient.Lookup(v.Key); !ok || prev != v.Value {
			out = append(out, v)
		}
	}
	return out
}

// shellScript renders c as bash: exports for the variables that differ from
// ambient followed by an exec line.
func shellScript(c resolve.Command, ambient environ.List) (string, error) {
	var b strings.Builder
	for _, v := range changedEnv(c.Env, ambient) {
		value, err := syntax.Quote(v.Value, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %s: %w", v.Key, err)
		}
		fmt.Fprintf(&b, "export %s=%s\n", v.Key, value)
	}
	words := make([]string, 0, len(c.Args)+1)
	for _, arg := range c.Argv() {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			return "", fmt.Errorf("quote %q: %w", arg, err)
		}
		words = append(words, quoted)
	}
	fmt.Fprintf(&b, "exec %s \"$@\"\n", strings.Join(words, " "))
	return b.String(), nil
}
