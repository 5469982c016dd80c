package gemset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const manifestFileName = "gemlaunch-manifest.json"

// ManifestEntry records what gemlaunch last did to one gem in a gemset.
type ManifestEntry struct {
	// Previous is the version an update replaced; empty after an install.
	Previous    string    `json:"previous,omitempty"`
	Action      string    `json:"action"`
	InstalledAt time.Time `json:"installed_at"`
}

// Manifest lists the gems gemlaunch installed into one gemset.
type Manifest struct {
	Entries map[string]ManifestEntry `json:"entries"`
}

// ManifestPath returns the manifest location for the gemset at home.
func ManifestPath(home string) string {
	return filepath.Join(home, manifestFileName)
}

// LoadManifest reads the manifest of the gemset at home. A missing file yields
// an empty manifest.
func LoadManifest(home string) (Manifest, error) {
	contents, err := os.ReadFile(ManifestPath(home))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Manifest{Entries: map[string]ManifestEntry{}}, nil
		}
		return Manifest{}, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(contents, &m); err != nil {
		return Manifest{}, fmt.Errorf("unmarshal manifest: %w", err)
	}
	if m.Entries == nil {
		m.Entries = map[string]ManifestEntry{}
	}
	return m, nil
}

// Record stores entry for gem in the manifest of the gemset at home. Callers
// must hold the gemset lock.
func Record(home, gem string, entry ManifestEntry) error {
	m, err := LoadManifest(home)
	if err != nil {
		return err
	}
	m.Entries[gem] = entry
	return saveManifest(home, m)
}

func saveManifest(home string, m Manifest) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return fmt.Errorf("prepare manifest directory: %w", err)
	}

	buf, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tmp, err := os.CreateTemp(home, "manifest-*.json")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err := tmp.Write(buf); err != nil {
		tmp.Close()
		return fmt.Errorf("write manifest temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close manifest temp: %w", err)
	}

	if err := os.Rename(tmp.Name(), ManifestPath(home)); err != nil {
		return fmt.Errorf("replace manifest: %w", err)
	}
	return nil
}
