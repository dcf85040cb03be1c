// Package registry reads the server registry and answers the allow-list
// questions the probe endpoints ask before touching the network.
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hamed0406/serverprobe/internal/domain"
)

// Source yields the current registry. Implementations must not cache.
type Source interface {
	Load() (domain.Registry, error)
}

// Loader reads the registry file on every call.
type Loader struct {
	Path string
}

func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// Load reads and normalizes the registry. A missing or malformed Servers
// list is an empty registry; only read and parse failures are errors.
func (l *Loader) Load() (domain.Registry, error) {
	raw, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrRegistryUnreadable, err)
	}
	doc, err := decode(l.Path, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", domain.ErrRegistryUnreadable, l.Path, err)
	}
	return Normalize(doc), nil
}

// decode parses YAML files with yaml.v3 and everything else as JSON.
func decode(path string, raw []byte) (any, error) {
	var doc any
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	default:
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, err
		}
	}
	return doc, nil
}
