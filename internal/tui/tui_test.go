package tui

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gemlaunch/internal/resolve"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func step(t *testing.T, m ProvisionModel, msg tea.Msg) (ProvisionModel, tea.Cmd) {
	t.Helper()
	updated, cmd := m.Update(msg)
	next, ok := updated.(ProvisionModel)
	if !ok {
		t.Fatalf("Update returned %T", updated)
	}
	return next, cmd
}

func TestToolStatusMsgUpdatesOnlyItsRow(t *testing.T) {
	m := NewProvisionModel("", []string{"rubocop", "steep"})

	m, _ = step(t, m, ToolStatusMsg{Tool: "rubocop", Status: resolve.StatusInstalling, At: t0})
	m, _ = step(t, m, ToolStatusMsg{Tool: "rufo", Status: resolve.StatusReady, At: t0})

	if status, _ := m.Status("rubocop"); status != resolve.StatusInstalling {
		t.Errorf("rubocop status = %q", status)
	}
	if status, _ := m.Status("steep"); status != StatusPending {
		t.Errorf("steep status = %q, want pending", status)
	}
	if status, _ := m.Status("rufo"); status != "" {
		t.Errorf("unknown tool should not be added, got %q", status)
	}
}

func TestElapsedFreezesWhenFinished(t *testing.T) {
	m := NewProvisionModel("", []string{"sorbet"})
	m.now = func() time.Time { return t0.Add(3 * time.Second) }

	m, _ = step(t, m, ToolStatusMsg{Tool: "sorbet", Status: resolve.StatusChecking, At: t0})
	if got := m.elapsed(m.rows[0]); got != "3.0s" {
		t.Errorf("running elapsed = %q", got)
	}

	m, _ = step(t, m, ToolStatusMsg{Tool: "sorbet", Status: resolve.StatusReady, Detail: "gemset", At: t0.Add(1500 * time.Millisecond)})
	m.now = func() time.Time { return t0.Add(time.Hour) }
	if got := m.elapsed(m.rows[0]); got != "1.5s" {
		t.Errorf("finished elapsed = %q", got)
	}
}

func TestViewFooterAndSummary(t *testing.T) {
	m := NewProvisionModel("Provisioning tools", []string{"rubocop", "steep", "sorbet"})
	m, _ = step(t, m, ToolStatusMsg{Tool: "rubocop", Status: resolve.StatusReady, Detail: "gemset", At: t0})
	m, _ = step(t, m, ToolStatusMsg{Tool: "steep", Status: resolve.StatusFailed, Detail: "no Steepfile found", At: t0})

	view := m.View()
	for _, want := range []string{"Provisioning tools", "TOOL", "STATUS", "TIME", "no Steepfile found", "pending", "2/3 tools finished"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}

	m, cmd := step(t, m, provisionDoneMsg{})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	view = m.View()
	if strings.Contains(view, "tools finished") || !strings.Contains(view, "1 of 3 tools failed") {
		t.Errorf("unexpected final view:\n%s", view)
	}
}

func TestCounts(t *testing.T) {
	m := NewProvisionModel("", []string{"a", "b", "c"})
	m, _ = step(t, m, ToolStatusMsg{Tool: "a", Status: resolve.StatusReady, At: t0})
	m, _ = step(t, m, ToolStatusMsg{Tool: "b", Status: resolve.StatusFailed, At: t0})
	m, _ = step(t, m, ToolStatusMsg{Tool: "c", Status: resolve.StatusUpdating, At: t0})

	finished, failed, total := m.Counts()
	if finished != 2 || failed != 1 || total != 3 {
		t.Fatalf("Counts = %d, %d, %d", finished, failed, total)
	}
}

func TestQuitKeysInterrupt(t *testing.T) {
	for _, key := range []tea.KeyMsg{{Type: tea.KeyCtrlC}, {Type: tea.KeyRunes, Runes: []rune("q")}} {
		m := NewProvisionModel("", []string{"rubocop"})
		m, cmd := step(t, m, key)
		if !m.Interrupted() || cmd == nil {
			t.Errorf("%v should interrupt", key)
		}
		if !strings.Contains(m.View(), "interrupted") {
			t.Errorf("expected interrupted footer, got %q", m.View())
		}
	}
}

func TestSpinnerStopsAfterDone(t *testing.T) {
	m := NewProvisionModel("", nil)
	tick := m.spinner.Tick()
	if _, ok := tick.(spinner.TickMsg); !ok {
		t.Fatalf("unexpected tick %T", tick)
	}
	m, cmd := step(t, m, tick)
	if cmd == nil {
		t.Fatal("expected another tick while running")
	}
	m, _ = step(t, m, provisionDoneMsg{})
	if _, cmd := step(t, m, m.spinner.Tick()); cmd != nil {
		t.Error("expected no tick after done")
	}
}

func TestProgramReporter(t *testing.T) {
	var (
		mu   sync.Mutex
		msgs []ToolStatusMsg
	)
	r := NewProgramReporter(func(msg tea.Msg) {
		mu.Lock()
		defer mu.Unlock()
		msgs = append(msgs, msg.(ToolStatusMsg))
	})
	r.now = func() time.Time { return t0 }

	r.Report("rubocop", resolve.StatusUpdating, "1.60.0")
	if len(msgs) != 1 {
		t.Fatalf("expected one message, got %d", len(msgs))
	}
	want := ToolStatusMsg{Tool: "rubocop", Status: resolve.StatusUpdating, Detail: "1.60.0", At: t0}
	if msgs[0] != want {
		t.Fatalf("got %+v, want %+v", msgs[0], want)
	}
}

func TestRenderTable(t *testing.T) {
	columns := []Column{{Header: "TOOL"}, {Header: "STATUS", Status: true}, {Header: "DETAIL", Max: 8}}
	out := RenderTable(columns, [][]string{
		{"rubocop", "ready", "gemset install"},
		{"steep", "failed"},
	})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and two rows, got %q", out)
	}
	if !strings.Contains(lines[1], "gemse...") {
		t.Errorf("expected detail truncated to 8, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "steep    failed") {
		t.Errorf("expected tool column padded to widest cell, got %q", lines[2])
	}
}

func TestNonEmptyOrDash(t *testing.T) {
	tests := []struct{ input, want string }{
		{"", "-"},
		{"  ", "-"},
		{"gemset", "gemset"},
		{" gemset ", "gemset"},
	}
	for _, tt := range tests {
		if got := NonEmptyOrDash(tt.input); got != tt.want {
			t.Errorf("NonEmptyOrDash(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTruncateWithEllipsis(t *testing.T) {
	tests := []struct {
		input string
		limit int
		want  string
	}{
		{"short", 10, "short"},
		{"a longer string here", 10, "a longe..."},
		{"abcd", 3, "abc"},
		{"hello", 0, ""},
	}
	for _, tt := range tests {
		if got := TruncateWithEllipsis(tt.input, tt.limit); got != tt.want {
			t.Errorf("TruncateWithEllipsis(%q, %d) = %q, want %q", tt.input, tt.limit, got, tt.want)
		}
	}
}

func TestDetectMode(t *testing.T) {
	var buf strings.Builder
	if got := DetectMode(&buf, false, true); got != ModeJSON {
		t.Errorf("expected json mode, got %s", got)
	}
	if got := DetectMode(&buf, false, false); got != ModePlain {
		t.Errorf("expected plain mode for non-terminal writer, got %s", got)
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{350 * time.Millisecond, "350ms"},
		{1500 * time.Millisecond, "1.5s"},
		{17 * time.Second, "17s"},
		{125 * time.Second, "2m05s"},
	}
	for _, tt := range tests {
		if got := formatElapsed(tt.d); got != tt.want {
			t.Errorf("formatElapsed(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestStatusWriterStopClearsLine(t *testing.T) {
	var buf syncBuffer
	sw := NewStatusWriter(&buf)
	sw.Report("rubocop", resolve.StatusInstalling, "")
	sw.Report("rubocop", resolve.StatusReady, "gemset")
	sw.Stop()
	sw.Stop()

	if !strings.HasSuffix(buf.String(), "\r\033[K") {
		t.Fatalf("expected final line clear, got %q", buf.String())
	}
}

type syncBuffer struct {
	mu sync.Mutex
	b  strings.Builder
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}
