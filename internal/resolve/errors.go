package resolve

import "fmt"

// Step names the resolution step that failed.
type Step string

const (
	StepPreflight  Step = "preflight"
	StepRubyProbe  Step = "detect ruby"
	StepLock       Step = "lock gemset"
	StepList       Step = "check installed version"
	StepOutdated   Step = "check for updates"
	StepUpdate     Step = "update gem"
	StepUninstall  Step = "uninstall previous version"
	StepInstall    Step = "install gem"
	StepExecutable Step = "locate executable"
)

// Error reports a resolution failure for one tool. The underlying error's
// message is kept intact.
type Error struct {
	Tool string
	Step Step
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Tool, e.Step, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
