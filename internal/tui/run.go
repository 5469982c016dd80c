package tui

import (
	"context"
	"errors"
	"io"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"gemlaunch/internal/resolve"
)

// ErrInterrupted is returned by RunProvision when the user quits early.
var ErrInterrupted = errors.New("provisioning interrupted")

// ProgramReporter turns resolution progress into ToolStatusMsg values for a
// running program. It is safe for concurrent use.
type ProgramReporter struct {
	send func(tea.Msg)
	now  func() time.Time
}

// NewProgramReporter returns a reporter that delivers messages through send,
// typically (*tea.Program).Send.
func NewProgramReporter(send func(tea.Msg)) *ProgramReporter {
	return &ProgramReporter{send: send, now: time.Now}
}

func (r *ProgramReporter) Report(tool string, status resolve.InstallStatus, detail string) {
	r.send(ToolStatusMsg{Tool: tool, Status: status, Detail: detail, At: r.now()})
}

var _ resolve.Reporter = (*ProgramReporter)(nil)

// RunProvision renders model on out while work runs in the background. work
// gets a context that is cancelled if the user quits, and a reporter wired to
// the model. RunProvision returns after both the program and work are done.
func RunProvision(ctx context.Context, out io.Writer, model ProvisionModel, work func(ctx context.Context, reporter resolve.Reporter)) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	workDone := make(chan struct{})
	go func() {
		defer close(workDone)
		work(ctx, NewProgramReporter(p.Send))
		p.Send(provisionDoneMsg{})
	}()

	final, err := p.Run()
	cancel()
	<-workDone
	if err != nil {
		return err
	}
	if m, ok := final.(ProvisionModel); ok && m.Interrupted() {
		return ErrInterrupted
	}
	return nil
}
