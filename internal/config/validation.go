package config

import (
	"fmt"
	"path/filepath"
	"slices"
	"sort"
)

// ValidationResult captures a single validation finding.
type ValidationResult struct {
	Level   string `json:"level"` // "error" or "warning"
	Message string `json:"message"`
}

// ValidateStrict checks the settings against the set of known tool ids.
func (c Config) ValidateStrict(knownTools []string) []ValidationResult {
	var results []ValidationResult
	results = append(results, c.validateToolIDs(knownTools)...)
	results = append(results, c.validateBinaries()...)
	return results
}

func (c Config) sortedToolIDs() []string {
	ids := make([]string, 0, len(c.Tools))
	for id := range c.Tools {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c Config) validateToolIDs(knownTools []string) []ValidationResult {
	var results []ValidationResult
	for _, id := range c.sortedToolIDs() {
		if !slices.Contains(knownTools, id) {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("settings for unknown tool %q are ignored", id),
			})
		}
	}
	return results
}

func (c Config) validateBinaries() []ValidationResult {
	var results []ValidationResult
	for _, id := range c.sortedToolIDs() {
		binary := c.Tools[id].Binary
		if binary.Path == "" {
			if binary.Arguments != nil {
				results = append(results, ValidationResult{
					Level:   "warning",
					Message: fmt.Sprintf("tools.%s.binary.arguments has no effect without binary.path", id),
				})
			}
			continue
		}
		if !filepath.IsAbs(binary.Path) {
			results = append(results, ValidationResult{
				Level:   "warning",
				Message: fmt.Sprintf("tools.%s.binary.path %q is relative and is looked up from the working directory", id, binary.Path),
			})
		}
	}
	return results
}
