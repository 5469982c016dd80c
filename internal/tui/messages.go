package tui

import (
	"time"

	"gemlaunch/internal/resolve"
)

// ToolStatusMsg moves one tool's row to a new status.
type ToolStatusMsg struct {
	Tool   string
	Status resolve.InstallStatus
	Detail string
	At     time.Time
}

// provisionDoneMsg ends the program once every resolution has returned.
type provisionDoneMsg struct{}
