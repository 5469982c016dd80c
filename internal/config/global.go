package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment variables that override global settings,
// e.g. GEMLAUNCH_CACHE_DIR.
const EnvPrefix = "GEMLAUNCH"

// Global holds user-wide settings that are not tied to a project.
type Global struct {
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir" json:"cache_dir"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Ruby     string `mapstructure:"ruby" yaml:"ruby" json:"ruby"`
	Gem      string `mapstructure:"gem" yaml:"gem" json:"gem"`
	Bundle   string `mapstructure:"bundle" yaml:"bundle" json:"bundle"`
	Jobs     int    `mapstructure:"jobs" yaml:"jobs" json:"jobs"`
}

// DefaultGlobal returns the built-in global settings.
func DefaultGlobal() Global {
	return Global{
		LogLevel: "info",
		Ruby:     "ruby",
		Gem:      "gem",
		Bundle:   "bundle",
		Jobs:     min(runtime.NumCPU(), 4),
	}
}

// LoadGlobal reads the global settings file at path (skipped when empty or
// missing) and applies GEMLAUNCH_* environment overrides.
func LoadGlobal(path string) (Global, error) {
	v := viper.New()

	defaults := DefaultGlobal()
	v.SetDefault("cache_dir", defaults.CacheDir)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("ruby", defaults.Ruby)
	v.SetDefault("gem", defaults.Gem)
	v.SetDefault("bundle", defaults.Bundle)
	v.SetDefault("jobs", defaults.Jobs)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			v.SetConfigFile(path)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return Global{}, fmt.Errorf("read global config %s: %w", path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return Global{}, fmt.Errorf("stat global config: %w", err)
		}
	}

	var g Global
	if err := v.Unmarshal(&g); err != nil {
		return Global{}, fmt.Errorf("failed to parse global config: %w", err)
	}
	if g.Jobs < 1 {
		g.Jobs = 1
	}
	return g, nil
}
