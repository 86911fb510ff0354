package profile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/cigarscout/cigarscout/pkg/errors"
)

// LoadFile reads and validates a single profile YAML document, filling
// unset fields from the defaults.
func LoadFile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewConfigError("profile", "reading "+path, err)
	}
	return Parse(data, path)
}

// Parse unmarshals a profile document. name is used in error messages only.
func Parse(data []byte, name string) (*Profile, error) {
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, errors.NewConfigError("profile", "parsing "+name, err)
	}
	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// LoadDir loads every *.yaml profile in a directory, keyed by retailer_key.
// An empty or missing directory is a configuration error: a run with no
// profiles has nothing to do.
func LoadDir(dir string) (map[string]*Profile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.NewConfigError("profile", "reading profiles dir "+dir, err)
	}

	profiles := make(map[string]*Profile)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		p, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, exists := profiles[p.RetailerKey]; exists {
			return nil, errors.NewConfigError("profile", "duplicate retailer_key "+p.RetailerKey, nil)
		}
		profiles[p.RetailerKey] = p
	}

	if len(profiles) == 0 {
		return nil, errors.NewConfigError("profile", "no profiles found in "+dir, nil)
	}
	return profiles, nil
}

// Keys returns the retailer keys of a profile set in sorted order.
func Keys(profiles map[string]*Profile) []string {
	keys := make([]string, 0, len(profiles))
	for k := range profiles {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
