package resolve

import "gemlaunch/internal/environ"

// Finder locates an executable on the PATH carried by env.
type Finder interface {
	LookPath(name string, env environ.List) (string, error)
}

// PathFinder searches the PATH entry of the supplied environment, never the
// process environment.
type PathFinder struct{}

func (PathFinder) LookPath(name string, env environ.List) (string, error) {
	return environ.LookPath(name, env)
}

// MapFinder answers lookups from a fixed table and is meant for tests and
// dry runs.
type MapFinder map[string]string

func (m MapFinder) LookPath(name string, _ environ.List) (string, error) {
	if path, ok := m[name]; ok {
		return path, nil
	}
	return "", environ.ErrNotFound
}
