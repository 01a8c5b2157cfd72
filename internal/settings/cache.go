package settings

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/and161185/relax-alerting/model"
)

// Cache is the device's local copy of the last applied settings.
type Cache struct {
	path string
}

func NewCache(path string) *Cache {
	return &Cache{path: path}
}

// Load returns the cached settings. Fields absent from the file keep their
// defaults; a missing or unreadable file yields the defaults and an error.
func (c *Cache) Load() (model.Settings, error) {
	s := model.DefaultSettings()
	if c.path == "" {
		return s, fmt.Errorf("no cache path")
	}

	data, err := os.ReadFile(c.path)
	if err != nil {
		return model.DefaultSettings(), fmt.Errorf("read cache: %w", err)
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return model.DefaultSettings(), fmt.Errorf("decode cache: %w", err)
	}
	return s, nil
}

// Save replaces the cached snapshot.
func (c *Cache) Save(s model.Settings) error {
	if c.path == "" {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode cache: %w", err)
	}
	if dir := filepath.Dir(c.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create cache dir: %w", err)
		}
	}
	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}
	return os.Rename(tmp, c.path)
}
