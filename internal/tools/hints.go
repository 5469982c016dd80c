package tools

import "runtime"

// InstallHints suggests how to get a Ruby interpreter onto PATH when the
// private gemset cannot be fingerprinted.
func InstallHints() []string {
	return installHintsFor(runtime.GOOS)
}

func installHintsFor(goos string) []string {
	var hints []string
	switch goos {
	case "darwin":
		hints = append(hints, "brew install ruby, then put $(brew --prefix ruby)/bin first on PATH")
	case "linux":
		hints = append(hints, "install your distribution's ruby package (apt install ruby-full, dnf install ruby)")
	}
	return append(hints,
		"or install one with a version manager such as rbenv, chruby, asdf or mise",
		"or point gemlaunch at an interpreter: GEMLAUNCH_RUBY=/path/to/ruby",
	)
}
