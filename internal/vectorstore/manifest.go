package vectorstore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// manifestFile is the sidecar written next to the chromem gob files.
const manifestFile = "manifest.json"

// manifest tracks which sources were ingested into the index and the
// embedding configuration the index was built with. chromem-go does not
// offer a lookup by metadata without a query vector, so source-level
// existence checks go through this sidecar instead.
type manifest struct {
	mu   sync.Mutex
	path string

	// Fingerprint identifies the embedding provider + model the index was
	// built with. Never changes after first write.
	Fingerprint string `json:"embedding_fingerprint"`

	// Sources maps each ingested source identifier to its chunk count.
	Sources map[string]int `json:"sources"`
}

// loadOrCreateManifest reads the manifest under dir, creating one stamped
// with the given fingerprint when none exists.
func loadOrCreateManifest(dir, fingerprint string) (*manifest, error) {
	path := filepath.Join(dir, manifestFile)

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("reading %s: %w", path, err)
		}
		m := &manifest{
			path:        path,
			Fingerprint: fingerprint,
			Sources:     map[string]int{},
		}
		if err := m.save(); err != nil {
			return nil, err
		}
		return m, nil
	}

	var m manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	m.path = path
	if m.Sources == nil {
		m.Sources = map[string]int{}
	}
	return &m, nil
}

// hasSource reports whether the source was recorded as ingested.
func (m *manifest) hasSource(sourceID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Sources[sourceID]
	return ok
}

// recordSource marks a source as ingested and persists the manifest.
func (m *manifest) recordSource(sourceID string, chunks int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sources[sourceID] = chunks
	return m.save()
}

// save writes the manifest atomically via a temp file and rename.
func (m *manifest) save() error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding manifest: %w", err)
	}

	tmp := m.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, m.path); err != nil {
		return fmt.Errorf("replacing %s: %w", m.path, err)
	}
	return nil
}
