package plugins

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	// ManifestFile is the metadata file each add-on directory carries.
	ManifestFile = "plugin.yaml"
	// ActiveStateFile lists the filenames of enabled add-ons.
	ActiveStateFile = "active-plugins.yaml"

	maxManifestSize = 64 << 10
)

// Plugin is an installed add-on as described by its manifest.
type Plugin struct {
	Filename string            `json:"filename"` // "<dir>/plugin.yaml", unique per add-on
	Name     string            `json:"name"`
	Version  string            `json:"version"`
	Product  string            `json:"product,omitempty"` // licensing product tag
	Headers  map[string]string `json:"headers,omitempty"`
	Active   bool              `json:"active"`
}

type manifest struct {
	Name    string            `yaml:"name"`
	Version string            `yaml:"version"`
	Product string            `yaml:"product"`
	Headers map[string]string `yaml:"headers"`
}

type activeState struct {
	Active []string `yaml:"active"`
}

// Inventory enumerates add-ons installed under a plugins directory.
type Inventory struct {
	dir string
	mu  sync.Mutex
}

// NewInventory returns an inventory rooted at dir.
func NewInventory(dir string) *Inventory {
	return &Inventory{dir: dir}
}

// Dir returns the plugins directory.
func (i *Inventory) Dir() string {
	return i.dir
}

// Plugins returns every installed add-on keyed by filename. Add-ons with an
// unreadable manifest are skipped.
func (i *Inventory) Plugins() (map[string]Plugin, error) {
	entries, err := os.ReadDir(i.dir)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Plugin{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read plugins dir: %w", err)
	}

	active, err := i.ActiveFilenames()
	if err != nil {
		return nil, err
	}

	plugins := make(map[string]Plugin)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		filename := path.Join(entry.Name(), ManifestFile)
		m, err := readManifest(filepath.Join(i.dir, entry.Name(), ManifestFile))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			log.Warn().Err(err).Str("plugin", filename).Msg("Skipping add-on with invalid manifest")
			continue
		}
		plugins[filename] = Plugin{
			Filename: filename,
			Name:     m.Name,
			Version:  m.Version,
			Product:  strings.TrimSpace(m.Product),
			Headers:  m.Headers,
			Active:   active[filename],
		}
	}
	return plugins, nil
}

func readManifest(p string) (*manifest, error) {
	info, err := os.Stat(p)
	if err != nil {
		return nil, err
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("manifest %s is not a regular file", p)
	}
	if info.Size() > maxManifestSize {
		return nil, fmt.Errorf("manifest %s exceeds %d bytes", p, maxManifestSize)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", p, err)
	}
	return &m, nil
}

// ActiveFilenames returns the set of enabled add-on filenames.
func (i *Inventory) ActiveFilenames() (map[string]bool, error) {
	data, err := os.ReadFile(filepath.Join(i.dir, ActiveStateFile))
	if errors.Is(err, os.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read active plugins: %w", err)
	}
	var state activeState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse active plugins: %w", err)
	}
	active := make(map[string]bool, len(state.Active))
	for _, name := range state.Active {
		if name = strings.TrimSpace(name); name != "" {
			active[name] = true
		}
	}
	return active, nil
}

// SetActive enables or disables filename. It reports whether the state changed.
func (i *Inventory) SetActive(filename string, active bool) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	current, err := i.ActiveFilenames()
	if err != nil {
		return false, err
	}
	if current[filename] == active {
		return false, nil
	}
	if active {
		if _, err := os.Stat(filepath.Join(i.dir, filepath.FromSlash(filename))); err != nil {
			return false, fmt.Errorf("plugin %s is not installed: %w", filename, err)
		}
		current[filename] = true
	} else {
		delete(current, filename)
	}

	names := make([]string, 0, len(current))
	for name := range current {
		names = append(names, name)
	}
	sort.Strings(names)

	data, err := yaml.Marshal(activeState{Active: names})
	if err != nil {
		return false, fmt.Errorf("encode active plugins: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(i.dir, ActiveStateFile), data); err != nil {
		return false, fmt.Errorf("write active plugins: %w", err)
	}
	return true, nil
}

func writeFileAtomic(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(p), filepath.Base(p)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpPath, p); err != nil {
		return err
	}
	cleanup = false
	return nil
}
