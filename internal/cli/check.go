package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"gemlaunch/internal/config"
	"gemlaunch/internal/environ"
	"gemlaunch/internal/execx"
	"gemlaunch/internal/tools"
)

var checkStrict bool

func newCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the Ruby toolchain and project configuration",
		RunE:  runCheck,
	}

	cmd.Flags().BoolVar(&checkStrict, "strict", false, "fail when ruby or gem is missing or the config has warnings")

	return cmd
}

// prerequisite is one command gemlaunch shells out to.
type prerequisite struct {
	Name     string `json:"name"`
	Command  string `json:"command"`
	Path     string `json:"path,omitempty"`
	Version  string `json:"version,omitempty"`
	Required bool   `json:"required"`
	Error    string `json:"error,omitempty"`
}

func (p prerequisite) ok() bool { return p.Path != "" && p.Error == "" }

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	prereqs := []prerequisite{
		{Name: "ruby", Command: orDefault(s.global.Ruby, "ruby"), Required: true},
		{Name: "gem", Command: orDefault(s.global.Gem, "gem"), Required: true},
		{Name: "bundle", Command: orDefault(s.global.Bundle, "bundle")},
	}
	for i := range prereqs {
		prereqs[i] = probePrerequisite(cmd, s.runner, s.env, prereqs[i])
		s.logger.Debug("prerequisite", "name", prereqs[i].Name, "path", prereqs[i].Path, "version", prereqs[i].Version, "err", prereqs[i].Error)
	}
	validations := s.cfg.ValidateStrict(tools.KnownTools())

	payload := struct {
		Project       string                    `json:"project"`
		Config        string                    `json:"config"`
		Prerequisites []prerequisite            `json:"prerequisites"`
		Validations   []config.ValidationResult `json:"validations,omitempty"`
	}{
		Project:       s.project.Root,
		Config:        s.project.ConfigFile,
		Prerequisites: prereqs,
		Validations:   validations,
	}

	if outputJSON {
		if err := writeJSON(cmd, payload); err != nil {
			return err
		}
	} else {
		printCheckResult(cmd, payload.Project, payload.Config, prereqs, validations)
	}

	if checkStrict {
		return ensureStrict(prereqs, validations)
	}
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func probePrerequisite(cmd *cobra.Command, runner execx.Runner, env environ.List, p prerequisite) prerequisite {
	path, err := environ.LookPath(p.Command, env)
	if err != nil {
		p.Error = "not found on PATH"
		return p
	}
	p.Path = path

	out, err := runner.Run(cmd.Context(), path, []string{"--version"}, execx.RunOptions{Env: env})
	if err != nil {
		p.Error = err.Error()
		return p
	}
	text, err := out.Text(p.Command)
	if err != nil {
		p.Error = err.Error()
		return p
	}
	p.Version = firstLine(text)
	return p
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(line)
}

func printCheckResult(cmd *cobra.Command, project, configFile string, prereqs []prerequisite, validations []config.ValidationResult) {
	bold := lipgloss.NewStyle().Bold(true)
	green := lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	red := lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	yellow := lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	faint := lipgloss.NewStyle().Faint(true)

	cmd.Println(bold.Render("Project:") + " " + project)
	cmd.Println(bold.Render("Config:") + "  " + configFile)
	cmd.Println()

	for _, p := range prereqs {
		if p.ok() {
			cmd.Println(green.Render("✓") + " " + bold.Render(p.Name))
			detail := p.Path
			if p.Version != "" {
				detail = p.Version + " · " + p.Path
			}
			cmd.Println(faint.Render("  " + detail))
			continue
		}
		mark := red.Render("✗")
		if !p.Required {
			mark = yellow.Render("–")
		}
		cmd.Println(mark + " " + bold.Render(p.Name) + red.Render(" ("+p.Error+")"))
	}

	if len(validations) > 0 {
		cmd.Println()
	}
	for _, v := range validations {
		cmd.Println(yellow.Render(v.Level+":") + " " + v.Message)
	}
}

func ensureStrict(prereqs []prerequisite, validations []config.ValidationResult) error {
	var failures []string
	for _, p := range prereqs {
		if p.Required && !p.ok() {
			failures = append(failures, fmt.Sprintf("%s (%s)", p.Name, p.Error))
		}
	}
	for _, v := range validations {
		failures = append(failures, v.Message)
	}
	if len(failures) == 0 {
		return nil
	}
	return errors.New("check failed: " + strings.Join(failures, "; "))
}
