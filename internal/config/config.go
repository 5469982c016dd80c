package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

const (
	// FileName is the project settings file looked up in the project root.
	FileName = ".gemlaunch.yaml"
	// TOMLFileName is accepted when no YAML settings file exists.
	TOMLFileName = ".gemlaunch.toml"
)

// Config captures per-project tool settings.
type Config struct {
	Version int                     `yaml:"version" toml:"version" json:"version"`
	Tools   map[string]ToolSettings `yaml:"tools" toml:"tools" json:"tools"`
}

// ToolSettings are the user settings for one tool.
type ToolSettings struct {
	Binary                BinarySettings `yaml:"binary,omitempty" toml:"binary,omitempty" json:"binary,omitempty"`
	UseBundler            *bool          `yaml:"use_bundler,omitempty" toml:"use_bundler,omitempty" json:"use_bundler,omitempty"`
	RequireRootSteepfile  *bool          `yaml:"require_root_steepfile,omitempty" toml:"require_root_steepfile,omitempty" json:"require_root_steepfile,omitempty"`
	InitializationOptions map[string]any `yaml:"initialization_options,omitempty" toml:"initialization_options,omitempty" json:"initialization_options,omitempty"`
}

// BinarySettings overrides the executable used for a tool. A nil Arguments
// keeps the tool's default arguments; an empty list launches it bare.
type BinarySettings struct {
	Path      string   `yaml:"path,omitempty" toml:"path,omitempty" json:"path,omitempty"`
	Arguments []string `yaml:"arguments,omitempty" toml:"arguments,omitempty" json:"arguments,omitempty"`
}

// RequireRootSteepfileValue returns the effective flag applying the default.
func (t ToolSettings) RequireRootSteepfileValue() bool {
	if t.RequireRootSteepfile == nil {
		return true
	}
	return *t.RequireRootSteepfile
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		Version: 1,
		Tools:   map[string]ToolSettings{},
	}
}

// Tool returns the settings for id, or zero settings when none are configured.
func (c Config) Tool(id string) ToolSettings {
	return c.Tools[id]
}

// Find returns the settings file for a project root. The YAML file wins when
// both exist; when neither exists the YAML path is returned so Load falls back
// to defaults.
func Find(projectRoot string) string {
	yamlPath := filepath.Join(projectRoot, FileName)
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	tomlPath := filepath.Join(projectRoot, TOMLFileName)
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return yamlPath
}

// Load reads the settings file at path if it exists, otherwise returns the
// default configuration. Files ending in .toml are decoded as TOML, anything
// else as YAML.
func Load(path string) (Config, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			cfg.ApplyDefaults()
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(contents, &cfg); err != nil {
			return Config{}, fmt.Errorf("unmarshal config %s: %w", filepath.Base(path), err)
		}
	} else if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config %s: %w", filepath.Base(path), err)
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

// ApplyDefaults fills fields the file omitted.
func (c *Config) ApplyDefaults() {
	if c.Version == 0 {
		c.Version = Default().Version
	}
	if c.Tools == nil {
		c.Tools = map[string]ToolSettings{}
	}
}

// Marshal encodes the configuration as YAML.
func (c Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}
