package paths

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"gemlaunch/internal/config"
)

// AppName names the per-user directories gemlaunch owns.
const AppName = "gemlaunch"

// ProjectPaths captures canonical locations inside a Ruby project.
type ProjectPaths struct {
	Root       string
	ConfigFile string
	Gemfile    string
}

// Resolve determines the project root using the optional --project flag or the
// current working directory when the flag is empty.
func Resolve(projectFlag string) (ProjectPaths, error) {
	var (
		root string
		err  error
	)

	if projectFlag != "" {
		root, err = filepath.Abs(projectFlag)
	} else {
		root, err = os.Getwd()
	}
	if err != nil {
		return ProjectPaths{}, fmt.Errorf("resolve project root: %w", err)
	}

	return newProjectPaths(root), nil
}

func newProjectPaths(root string) ProjectPaths {
	return ProjectPaths{
		Root:       root,
		ConfigFile: config.Find(root),
		Gemfile:    filepath.Join(root, "Gemfile"),
	}
}

// UserPaths are the per-user locations shared by every project.
type UserPaths struct {
	// CacheDir is the base under which versioned gemsets live.
	CacheDir   string
	LogsDir    string
	ConfigFile string
}

// User resolves the per-user directories from the XDG base directories. A
// non-empty cacheDir replaces the default data location.
func User(cacheDir string) UserPaths {
	if cacheDir == "" {
		cacheDir = filepath.Join(xdg.DataHome, AppName)
	}
	return UserPaths{
		CacheDir:   filepath.Clean(cacheDir),
		LogsDir:    filepath.Join(xdg.StateHome, AppName, "logs"),
		ConfigFile: filepath.Join(xdg.ConfigHome, AppName, "config.yaml"),
	}
}

// EnsureLogsDir creates the logs directory if it does not exist.
func (u UserPaths) EnsureLogsDir() error {
	if err := os.MkdirAll(u.LogsDir, 0o755); err != nil {
		return fmt.Errorf("create logs dir: %w", err)
	}
	return nil
}

// FileExists reports whether a path exists and is a regular file.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// DirExists reports whether a path exists and is a directory.
func DirExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// DiskUsage sums the sizes of regular files below root. A missing root is
// reported as zero.
func DiskUsage(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) && path == root {
				return fs.SkipAll
			}
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("measure %s: %w", root, err)
	}
	return total, nil
}
