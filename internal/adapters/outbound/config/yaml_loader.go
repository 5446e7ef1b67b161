package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/phpsniff/phpsniff/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up in a project root.
const FileName = ".phpsniff.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .phpsniff.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads .phpsniff.yaml from projectPath and overlays it on the defaults.
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(projectPath string) (domain.ProjectConfig, error) {
	return l.LoadFile(filepath.Join(projectPath, FileName))
}

// LoadFile reads an explicit config path. A missing file yields defaults.
func (l *YAMLLoader) LoadFile(path string) (domain.ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.ProjectConfig{}, err
	}

	var cfg domain.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}

	// Validate before merging so typos in the user's raw input surface.
	if err := cfg.Validate(); err != nil {
		return domain.ProjectConfig{}, fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}

	return domain.DefaultConfig().Merge(cfg), nil
}
