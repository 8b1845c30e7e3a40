package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dakshscra/scra/internal/domain"
	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in a directory.
const FileName = ".scra.yaml"

// YAMLLoader implements domain.ConfigLoader by reading .scra.yaml.
type YAMLLoader struct{}

// New creates a YAMLLoader.
func New() *YAMLLoader { return &YAMLLoader{} }

// Load reads the config at path. A directory is searched for .scra.yaml.
// Returns DefaultConfig if the file does not exist.
func (l *YAMLLoader) Load(path string) (domain.ToolConfig, error) {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, FileName)
	}
	name := filepath.Base(path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return domain.DefaultConfig(), nil
		}
		return domain.ToolConfig{}, err
	}

	var cfg domain.ToolConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.ToolConfig{}, fmt.Errorf("parsing %s: %w", name, err)
	}

	// Validate before merging: catches typos in the user's raw input.
	if err := cfg.Validate(); err != nil {
		return domain.ToolConfig{}, fmt.Errorf("invalid %s: %w", name, err)
	}

	return cfg.WithDefaults(), nil
}

// Write marshals cfg to dir/.scra.yaml. An existing file is only replaced when
// force is set.
func Write(dir string, cfg domain.ToolConfig, force bool) (string, error) {
	path := filepath.Join(dir, FileName)
	if !force {
		if _, err := os.Stat(path); err == nil {
			return path, fmt.Errorf("%s already exists (use --force to overwrite)", FileName)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return path, fmt.Errorf("encoding %s: %w", FileName, err)
	}
	return path, os.WriteFile(path, data, 0644)
}
