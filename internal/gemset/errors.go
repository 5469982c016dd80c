package gemset

import "fmt"

// Op names a gem operation for error reporting.
type Op string

const (
	OpInstall   Op = "install"
	OpUpdate    Op = "update"
	OpUninstall Op = "uninstall"
	OpList      Op = "list"
	OpOutdated  Op = "outdated"
	OpProbe     Op = "probe"
)

// Error wraps a failed gem operation.
type Error struct {
	Op      Op
	Gem     string
	Version string
	Err     error
}

func (e *Error) Error() string {
	switch e.Op {
	case OpUninstall:
		return fmt.Sprintf("failed to uninstall gem '%s' version %s: %v", e.Gem, e.Version, e.Err)
	case OpList:
		return fmt.Sprintf("failed to list installed versions of gem '%s': %v", e.Gem, e.Err)
	case OpOutdated:
		return fmt.Sprintf("failed to check whether gem '%s' is outdated: %v", e.Gem, e.Err)
	case OpProbe:
		return fmt.Sprintf("failed to detect Ruby version: %v", e.Err)
	default:
		return fmt.Sprintf("failed to %s gem '%s': %v", e.Op, e.Gem, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// PathEncodingError reports a filesystem path that is not valid text.
type PathEncodingError struct {
	Path string
	What string
}

func (e *PathEncodingError) Error() string {
	return fmt.Sprintf("failed to convert %s to a string: %q", e.What, e.Path)
}
