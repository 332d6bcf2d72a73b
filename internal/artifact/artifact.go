// Package artifact registers generated files as build artifacts. The
// default attacher records them in a YAML manifest that release pipelines
// pick up next to the output.
package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ManifestName is the file name of the manifest written by ManifestAttacher
// when no explicit path is configured.
const ManifestName = "artifacts.yml"

// Artifact identifies a generated file by type and classifier.
type Artifact struct {
	Path       string `yaml:"path"`
	Type       string `yaml:"type"`
	Classifier string `yaml:"classifier,omitempty"`
}

// Attacher registers a generated file with the surrounding build.
type Attacher interface {
	Attach(a Artifact) error
}

// Manifest is the on-disk list of attached artifacts.
type Manifest struct {
	Artifacts []Artifact `yaml:"artifacts"`
}

// ManifestAttacher records artifacts in a YAML manifest. An empty Path puts
// the manifest next to the artifact.
type ManifestAttacher struct {
	Path string
}

// NewManifestAttacher returns an attacher writing to path.
func NewManifestAttacher(path string) *ManifestAttacher {
	return &ManifestAttacher{Path: path}
}

// Attach adds a to the manifest, replacing an entry with the same type and
// classifier.
func (m *ManifestAttacher) Attach(a Artifact) error {
	if a.Path == "" {
		return errors.New("artifact path is required")
	}
	if a.Type == "" {
		return errors.New("artifact type is required")
	}

	path := m.manifestPath(a)
	manifest, err := LoadManifest(path)
	if err != nil {
		return err
	}

	manifest.put(a)

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return fmt.Errorf("encoding artifact manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing artifact manifest %s: %w", path, err)
	}
	return nil
}

func (m *ManifestAttacher) manifestPath(a Artifact) string {
	if m.Path != "" {
		return m.Path
	}
	return filepath.Join(filepath.Dir(a.Path), ManifestName)
}

// LoadManifest reads a manifest. A missing file yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact manifest %s: %w", path, err)
	}

	manifest := &Manifest{}
	if err := yaml.Unmarshal(data, manifest); err != nil {
		return nil, fmt.Errorf("parsing artifact manifest %s: %w", path, err)
	}
	return manifest, nil
}

func (m *Manifest) put(a Artifact) {
	for i, existing := range m.Artifacts {
		if existing.Type == a.Type && existing.Classifier == a.Classifier {
			m.Artifacts[i] = a
			return
		}
	}
	m.Artifacts = append(m.Artifacts, a)
}
