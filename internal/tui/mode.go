package tui

import (
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// OutputMode selects how multi-tool progress is presented.
type OutputMode int

const (
	ModeTUI OutputMode = iota
	ModePlain
	ModeJSON
)

func (m OutputMode) String() string {
	return [...]string{"tui", "plain", "json"}[m]
}

// DetectMode picks JSON when asked, the live view on an interactive terminal,
// and the plain table everywhere else (pipes, dumb terminals, CI).
func DetectMode(out io.Writer, plain, jsonOutput bool) OutputMode {
	switch {
	case jsonOutput:
		return ModeJSON
	case plain, !IsTerminal(out), os.Getenv("CI") != "":
		return ModePlain
	}
	if term := os.Getenv("TERM"); term == "" || strings.EqualFold(term, "dumb") {
		return ModePlain
	}
	return ModeTUI
}

// IsTerminal reports whether w is a terminal device.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
