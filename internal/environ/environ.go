// Package environ holds process environments as ordered KEY=VALUE lists so a
// request can carry an environment other than the current process's.
package environ

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// PathKey is the binary search path variable.
	PathKey = "PATH"
	// GemPathKey is the gem search path variable.
	GemPathKey = "GEM_PATH"
	// GemHomeKey is the gem installation directory variable.
	GemHomeKey = "GEM_HOME"
	// BundleGemfileKey pins the Gemfile bundler operates on.
	BundleGemfileKey = "BUNDLE_GEMFILE"
)

// ErrNotFound is returned by LookPath when no executable matches.
var ErrNotFound = errors.New("executable file not found in PATH")

// Var is a single environment entry.
type Var struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// List is an ordered environment. Keys are unique; the position of a key is the
// position of its first appearance.
type List []Var

// Of builds a List from alternating key/value arguments. A trailing key without a
// value is ignored.
func Of(kv ...string) List {
	var l List
	for i := 0; i+1 < len(kv); i += 2 {
		l = l.With(kv[i], kv[i+1])
	}
	return l
}

// Parse converts KEY=VALUE strings, as returned by os.Environ, into a List.
// Later duplicates overwrite the value of the first occurrence.
func Parse(entries []string) List {
	var l List
	for _, entry := range entries {
		key, value, ok := strings.Cut(entry, "=")
		if !ok || key == "" {
			continue
		}
		l = l.With(key, value)
	}
	return l
}

// Lookup returns the value for key and whether it is present.
func (l List) Lookup(key string) (string, bool) {
	for _, v := range l {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Get returns the value for key, or an empty string.
func (l List) Get(key string) string {
	value, _ := l.Lookup(key)
	return value
}

// Clone returns a copy that shares nothing with l.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	out := make(List, len(l))
	copy(out, l)
	return out
}

// With returns a copy of l with key set to value. An existing key keeps its
// position; a new key is appended.
func (l List) With(key, value string) List {
	out := l.Clone()
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Var{Key: key, Value: value})
}

// Without returns a copy of l with the given keys removed.
func (l List) Without(keys ...string) List {
	out := make(List, 0, len(l))
	for _, v := range l {
		drop := false
		for _, key := range keys {
			if v.Key == key {
				drop = true
				break
			}
		}
		if !drop {
			out = append(out, v)
		}
	}
	return out
}

// Merge returns l followed by the entries of other. Keys already present in l
// are left untouched.
func (l List) Merge(other List) List {
	out := l.Clone()
	for _, v := range other {
		if _, ok := out.Lookup(v.Key); ok {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Strings renders the list as KEY=VALUE entries.
func (l List) Strings() []string {
	out := make([]string, 0, len(l))
	for _, v := range l {
		out = append(out, v.Key+"="+v.Value)
	}
	return out
}

// Map returns the list as a map.
func (l List) Map() map[string]string {
	out := make(map[string]string, len(l))
	for _, v := range l {
		out[v.Key] = v.Value
	}
	return out
}

// PrependPath places dir at the head of the search-path variable key. Any other
// occurrence of dir is removed so it appears once. When key is absent it is
// appended with dir as its only element.
func (l List) PrependPath(key, dir string) List {
	current, ok := l.Lookup(key)
	if !ok || current == "" {
		return l.With(key, dir)
	}

	parts := filepath.SplitList(current)
	if len(parts) > 0 && filepath.Clean(parts[0]) == filepath.Clean(dir) {
		return l.Clone()
	}

	kept := []string{dir}
	for _, part := range parts {
		if part != "" && filepath.Clean(part) == filepath.Clean(dir) {
			continue
		}
		kept = append(kept, part)
	}
	return l.With(key, strings.Join(kept, string(os.PathListSeparator)))
}

// LookPath searches the PATH held in env for an executable named name. Names
// containing a separator are checked directly.
func LookPath(name string, env List) (string, error) {
	if name == "" {
		return "", fmt.Errorf("look up executable: %w", ErrNotFound)
	}
	if strings.ContainsRune(name, filepath.Separator) {
		if isExecutable(name) {
			return name, nil
		}
		return "", fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	for _, dir := range filepath.SplitList(env.Get(PathKey)) {
		if dir == "" {
			continue
		}
		candidate := filepath.Join(dir, name)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode().Perm()&0o111 != 0
}
