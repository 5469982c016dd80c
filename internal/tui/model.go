package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"gemlaunch/internal/resolve"
)

type toolRow struct {
	tool    string
	status  resolve.InstallStatus
	detail  string
	started time.Time
	ended   time.Time
}

// ProvisionModel is the bubbletea model behind `gemlaunch provision`: one row
// per tool with its status, how long it has been working and the latest
// detail, plus a spinner footer until every tool has finished.
type ProvisionModel struct {
	title       string
	rows        []toolRow
	index       map[string]int
	spinner     spinner.Model
	done        bool
	interrupted bool
	now         func() time.Time
}

// NewProvisionModel starts every tool in the pending state.
func NewProvisionModel(title string, tools []string) ProvisionModel {
	m := ProvisionModel{
		title:   title,
		rows:    make([]toolRow, 0, len(tools)),
		index:   make(map[string]int, len(tools)),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle)),
		now:     time.Now,
	}
	for _, tool := range tools {
		m.index[tool] = len(m.rows)
		m.rows = append(m.rows, toolRow{tool: tool, status: StatusPending})
	}
	return m
}

func (m ProvisionModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m ProvisionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case ToolStatusMsg:
		m.apply(msg)
		return m, nil

	case provisionDoneMsg:
		m.done = true
		return m, tea.Quit

	case tea.KeyMsg:
		if k := msg.String(); k == "ctrl+c" || k == "q" {
			m.interrupted = true
			m.done = true
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m *ProvisionModel) apply(msg ToolStatusMsg) {
	i, ok := m.index[msg.Tool]
	if !ok {
		return
	}
	row := &m.rows[i]
	row.status = msg.Status
	row.detail = msg.Detail
	if row.started.IsZero() {
		row.started = msg.At
	}
	if Finished(msg.Status) {
		row.ended = msg.At
	}
}

func (m ProvisionModel) View() string {
	var b strings.Builder
	if m.title != "" {
		b.WriteString(HeaderStyle.Render(m.title))
		b.WriteString("\n\n")
	}

	cells := make([][]string, 0, len(m.rows))
	for _, row := range m.rows {
		cells = append(cells, []string{row.tool, string(row.status), m.elapsed(row), NonEmptyOrDash(row.detail)})
	}
	b.WriteString(RenderTable(ProvisionColumns(), cells))

	finished, failed, total := m.Counts()
	switch {
	case !m.done:
		fmt.Fprintf(&b, "\n%s %d/%d tools finished\n", m.spinner.View(), finished, total)
	case m.interrupted:
		b.WriteString("\n" + WarnStyle.Render("interrupted") + "\n")
	case failed > 0:
		b.WriteString("\n" + FailStyle.Render(fmt.Sprintf("%d of %d tools failed", failed, total)) + "\n")
	default:
		b.WriteString("\n" + OKStyle.Render(fmt.Sprintf("%d tools ready", total)) + "\n")
	}
	return b.String()
}

func (m ProvisionModel) elapsed(row toolRow) string {
	switch {
	case row.started.IsZero():
		return "-"
	case row.ended.IsZero():
		return formatElapsed(m.now().Sub(row.started))
	}
	return formatElapsed(row.ended.Sub(row.started))
}

// ProvisionColumns is the layout shared by the live view and the plain table.
func ProvisionColumns() []Column {
	return []Column{
		{Header: "TOOL"},
		{Header: "STATUS", Status: true},
		{Header: "TIME"},
		{Header: "DETAIL", Max: 72},
	}
}

// Counts returns how many tools finished, how many of those failed, and the
// total.
func (m ProvisionModel) Counts() (finished, failed, total int) {
	for _, row := range m.rows {
		if Finished(row.status) {
			finished++
		}
		if row.status == resolve.StatusFailed {
			failed++
		}
	}
	return finished, failed, len(m.rows)
}

// Status returns the current status and detail of tool.
func (m ProvisionModel) Status(tool string) (resolve.InstallStatus, string) {
	i, ok := m.index[tool]
	if !ok {
		return "", ""
	}
	return m.rows[i].status, m.rows[i].detail
}

// Interrupted reports whether the user quit before the work finished.
func (m ProvisionModel) Interrupted() bool {
	return m.interrupted
}
