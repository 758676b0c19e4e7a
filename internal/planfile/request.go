package planfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roomwise/roomwise/internal/models"
	"gopkg.in/yaml.v3"
)

// Request is a wizard run described in a YAML file. Images maps a wall slot
// (wall-1..wall-4) to a local path or an http(s) URL.
type Request struct {
	Images      map[string]string          `yaml:"images"`
	Preferences models.PersonalPreferences `yaml:"preferences"`
}

// LoadRequest reads a request file. Relative image paths are resolved
// against the directory holding the file.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}

	var req Request
	if err := yaml.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("failed to parse request file: %w", err)
	}

	base := filepath.Dir(path)
	resolved := make(map[string]string, len(req.Images))
	for wall, p := range req.Images {
		if _, err := models.ParseWallSlot(wall); err != nil {
			return nil, fmt.Errorf("request file %s: %w", path, err)
		}
		p = strings.TrimSpace(p)
		if p != "" && !IsURL(p) && !filepath.IsAbs(p) {
			p = filepath.Join(base, p)
		}
		resolved[wall] = p
	}
	req.Images = resolved
	return &req, nil
}

// IsURL reports whether an image reference should be downloaded.
func IsURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
