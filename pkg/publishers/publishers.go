package publishers

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// ConfigRegistry holds the publisher entries read from a publishers file.
// It is immutable after LoadRegistry returns.
type ConfigRegistry struct {
	entries []PublisherConfig
	byID    map[string]int
}

type registryFile struct {
	Publishers []PublisherConfig `json:"publishers" yaml:"publishers"`
}

// LoadRegistry reads a YAML (.yaml, .yml) or JSON (.json) publishers file.
// Files with any other extension are tried as YAML, then JSON.
func LoadRegistry(path string) (*ConfigRegistry, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("publishers file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read publishers file: %w", err)
	}

	file, err := decodeRegistryFile(raw, strings.ToLower(filepath.Ext(path)))
	if err != nil {
		return nil, err
	}
	if len(file.Publishers) == 0 {
		return nil, errors.New("publishers file contains no publishers entries")
	}

	reg := &ConfigRegistry{
		entries: make([]PublisherConfig, 0, len(file.Publishers)),
		byID:    make(map[string]int, len(file.Publishers)),
	}
	for i, entry := range file.Publishers {
		cfg := entry.normalized()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("publishers[%d]: %w", i, err)
		}
		if _, dup := reg.byID[cfg.ID]; dup {
			return nil, fmt.Errorf("duplicate publisher id %q", cfg.ID)
		}
		reg.byID[cfg.ID] = len(reg.entries)
		reg.entries = append(reg.entries, cfg)
	}
	return reg, nil
}

func decodeRegistryFile(raw []byte, ext string) (registryFile, error) {
	var file registryFile
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &file); err != nil {
			return file, fmt.Errorf("decode yaml publishers: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(raw, &file); err != nil {
			return file, fmt.Errorf("decode json publishers: %w", err)
		}
	default:
		yamlErr := yaml.Unmarshal(raw, &file)
		if yamlErr == nil {
			return file, nil
		}
		file = registryFile{}
		if jsonErr := json.Unmarshal(raw, &file); jsonErr != nil {
			return file, fmt.Errorf("publishers file format not recognized: %w", errors.Join(yamlErr, jsonErr))
		}
	}
	return file, nil
}

// ByID looks up an entry by its id.
func (r *ConfigRegistry) ByID(id string) (PublisherConfig, bool) {
	if r == nil {
		return PublisherConfig{}, false
	}
	i, ok := r.byID[strings.TrimSpace(id)]
	if !ok {
		return PublisherConfig{}, false
	}
	return r.entries[i], true
}

// All returns every entry in file order.
func (r *ConfigRegistry) All() []PublisherConfig {
	if r == nil {
		return nil
	}
	return append([]PublisherConfig(nil), r.entries...)
}

// Enabled returns the entries that are switched on, in file order.
func (r *ConfigRegistry) Enabled() []PublisherConfig {
	var out []PublisherConfig
	for _, cfg := range r.All() {
		if cfg.EnabledValue() {
			out = append(out, cfg)
		}
	}
	return out
}
