package tui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"gemlaunch/internal/resolve"
)

// StatusWriter draws a single spinner line on a terminal while one tool is
// being resolved. It is used by resolve and exec, which hand the terminal to
// something else afterwards and so cannot run a full bubbletea program.
type StatusWriter struct {
	w     io.Writer
	spin  spinner.Spinner
	stop  chan struct{}
	done  sync.WaitGroup
	close sync.Once

	mu    sync.Mutex
	line  string
	since time.Time
}

// NewStatusWriter starts drawing to w. Nothing is drawn until the first
// long-running status arrives.
func NewStatusWriter(w io.Writer) *StatusWriter {
	sw := &StatusWriter{w: w, spin: spinner.MiniDot, stop: make(chan struct{})}
	sw.done.Add(1)
	go sw.run()
	return sw
}

// Report implements resolve.Reporter. Ready and failed are left to the
// caller, which prints the outcome itself.
func (sw *StatusWriter) Report(tool string, status resolve.InstallStatus, detail string) {
	var line string
	switch status {
	case resolve.StatusChecking:
		line = "checking " + tool
	case resolve.StatusInstalling:
		line = "installing " + tool
	case resolve.StatusUpdating:
		line = fmt.Sprintf("updating %s from %s", tool, detail)
	default:
		return
	}
	sw.mu.Lock()
	sw.line, sw.since = line, time.Now()
	sw.mu.Unlock()
}

// Stop erases the spinner line. It is safe to call more than once.
func (sw *StatusWriter) Stop() {
	sw.close.Do(func() {
		close(sw.stop)
		sw.done.Wait()
		fmt.Fprint(sw.w, "\r\033[K")
	})
}

func (sw *StatusWriter) run() {
	defer sw.done.Done()
	ticker := time.NewTicker(sw.spin.FPS)
	defer ticker.Stop()

	for frame := 0; ; {
		select {
		case <-sw.stop:
			return
		case <-ticker.C:
		}
		sw.mu.Lock()
		line, since := sw.line, sw.since
		sw.mu.Unlock()
		if line == "" {
			continue
		}
		glyph := sw.spin.Frames[frame%len(sw.spin.Frames)]
		frame++
		fmt.Fprintf(sw.w, "\r\033[K%s %s %s", spinnerStyle.Render(glyph), line, DimStyle.Render(formatElapsed(time.Since(since))))
	}
}
