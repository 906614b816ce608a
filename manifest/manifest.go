// Package manifest reads a project's ./project.json (spec §6.4/§6.5) and
// enumerates its source files through an afero.Fs, so the driver and CLI
// never touch the real filesystem directly and can be pointed at an
// in-memory tree in tests.
package manifest

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// FileName is the manifest's fixed name, always read from the project
// root.
const FileName = "project.json"

// SourceSuffix is the fixed extension source files are enumerated by.
const SourceSuffix = ".los"

// Manifest is the decoded contents of project.json.
type Manifest struct {
	Name      string `json:"name"`
	SourceDir string `json:"source_dir"`
	OutputDir string `json:"output_dir"`
	Binary    string `json:"binary"`
}

// applyDefaults fills in the fields a freshly-scaffolded project relies on
// when project.json omits them.
func (m *Manifest) applyDefaults() {
	if m.SourceDir == "" {
		m.SourceDir = "."
	}
	if m.OutputDir == "" {
		m.OutputDir = "build"
	}
	if m.Binary == "" {
		m.Binary = m.Name
	}
}

// Load reads and decodes project.json from dir.
func Load(fs afero.Fs, dir string) (Manifest, error) {
	path := filepath.Join(dir, FileName)
	raw, err := afero.ReadFile(fs, path)
	if err != nil {
		return Manifest{}, errors.Wrapf(err, "reading %s", path)
	}

	var m Manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return Manifest{}, errors.Wrapf(err, "parsing %s", path)
	}
	if m.Name == "" {
		return Manifest{}, errors.Errorf("%s: \"name\" is required", path)
	}
	m.applyDefaults()
	return m, nil
}

// Write encodes m as project.json under dir, creating dir if needed.
func Write(fs afero.Fs, dir string, m Manifest) error {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", dir)
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding project.json")
	}
	path := filepath.Join(dir, FileName)
	if err := afero.WriteFile(fs, path, raw, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}

// Sources recursively enumerates every SourceSuffix file under m's source
// directory (resolved relative to root), sorted for a deterministic
// build order.
func Sources(fs afero.Fs, root string, m Manifest) ([]string, error) {
	dir := filepath.Join(root, m.SourceDir)

	var sources []string
	err := afero.Walk(fs, dir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if info.IsDir() {
			return nil
		}
		if strings.EqualFold(filepath.Ext(path), SourceSuffix) {
			sources = append(sources, path)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking source directory %s", dir)
	}

	sort.Strings(sources)
	return sources, nil
}
