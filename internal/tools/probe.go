package tools

import (
	"errors"

	"gemlaunch/internal/environ"
)

// ToolInfo captures whether a tool's executable is visible on PATH.
type ToolInfo struct {
	Name       string `json:"name"`
	Executable string `json:"executable"`
	Gem        string `json:"gem"`
	Bundler    string `json:"bundler"`
	Path       string `json:"path,omitempty"`
	Available  bool   `json:"available"`
	Error      string `json:"error,omitempty"`
}

// Probe looks every known tool up on the PATH carried by env.
func Probe(env environ.List) []ToolInfo {
	names := KnownTools()
	result := make([]ToolInfo, 0, len(names))
	for _, name := range names {
		result = append(result, probeOne(toolDefinitions[name], env))
	}
	return result
}

func probeOne(def Definition, env environ.List) ToolInfo {
	info := ToolInfo{
		Name:       def.ID,
		Executable: def.Executable,
		Gem:        def.Gem,
		Bundler:    def.Bundler.String(),
	}
	path, err := environ.LookPath(def.Executable, env)
	if err != nil {
		if !errors.Is(err, environ.ErrNotFound) {
			info.Error = err.Error()
		}
		return info
	}
	info.Path = path
	info.Available = true
	return info
}
