package resolve

// InstallStatus is the provisioning state reported for a tool.
type InstallStatus string

const (
	StatusChecking   InstallStatus = "checking"
	StatusInstalling InstallStatus = "installing"
	StatusUpdating   InstallStatus = "updating"
	StatusReady      InstallStatus = "ready"
	StatusFailed     InstallStatus = "failed"
)

// Reporter receives provisioning progress. Implementations must be safe for
// concurrent use when one Resolver serves several tools at once.
type Reporter interface {
	Report(tool string, status InstallStatus, detail string)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(tool string, status InstallStatus, detail string)

func (f ReporterFunc) Report(tool string, status InstallStatus, detail string) {
	f(tool, status, detail)
}

type nopReporter struct{}

func (nopReporter) Report(string, InstallStatus, string) {}
