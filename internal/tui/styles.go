package tui

import (
	"github.com/charmbracelet/lipgloss"

	"gemlaunch/internal/resolve"
)

// StatusPending is shown for tools whose resolution has not started yet.
const StatusPending resolve.InstallStatus = "pending"

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	OKStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	FailStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	WarnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	DimStyle    = lipgloss.NewStyle().Faint(true)

	busyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	spinnerStyle = busyStyle
)

// StatusStyle colours a status: green when ready, red when failed, blue while
// gem commands run and faint while pending.
func StatusStyle(status resolve.InstallStatus) lipgloss.Style {
	switch status {
	case resolve.StatusReady:
		return OKStyle
	case resolve.StatusFailed:
		return FailStyle
	case resolve.StatusChecking, resolve.StatusInstalling, resolve.StatusUpdating:
		return busyStyle
	case StatusPending:
		return DimStyle
	}
	return lipgloss.NewStyle()
}

// Finished reports whether status is the last one a tool will receive.
func Finished(status resolve.InstallStatus) bool {
	return status == resolve.StatusReady || status == resolve.StatusFailed
}
