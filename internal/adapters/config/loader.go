// Package config provides the project configuration loader for utica.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// FileName is the optional per-project configuration file.
const FileName = "utica.yaml"

const (
	defaultCheckoutsDir = "Carthage/Checkouts"
	defaultBuildDir     = "Carthage/Build"
)

// FileConfigLoader implements ports.ConfigLoader using a YAML file. A missing
// file yields the defaults.
type FileConfigLoader struct{}

var _ ports.ConfigLoader = (*FileConfigLoader)(nil)

// NewLoader creates a FileConfigLoader.
func NewLoader() *FileConfigLoader {
	return &FileConfigLoader{}
}

// schema is the on-disk shape of utica.yaml.
type schema struct {
	CheckoutsDir string   `yaml:"checkoutsDir"`
	BuildDir     string   `yaml:"buildDir"`
	CacheRoot    string   `yaml:"cacheRoot"`
	Platforms    []string `yaml:"platforms"`
	Jobs         int      `yaml:"jobs"`
}

// Load reads the configuration for the given project directory.
func (l *FileConfigLoader) Load(projectDir string) (ports.ProjectConfig, error) {
	cfg := ports.ProjectConfig{
		ProjectDirectory: projectDir,
		CheckoutsDir:     defaultCheckoutsDir,
		BuildDir:         defaultBuildDir,
		CacheRoot:        DefaultCacheRoot(),
	}

	path := filepath.Join(projectDir, FileName)
	data, err := os.ReadFile(path) //nolint:gosec // path is rooted in the project directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return ports.ProjectConfig{}, zerr.With(zerr.Wrap(err, "failed to read config file"), "path", path)
	}

	var s schema
	if err := yaml.Unmarshal(data, &s); err != nil {
		return ports.ProjectConfig{}, zerr.With(zerr.Wrap(err, "failed to parse config file"), "path", path)
	}

	if s.CheckoutsDir != "" {
		cfg.CheckoutsDir = s.CheckoutsDir
	}
	if s.BuildDir != "" {
		cfg.BuildDir = s.BuildDir
	}
	if s.CacheRoot != "" {
		cfg.CacheRoot = s.CacheRoot
	}
	if s.Jobs > 0 {
		cfg.Jobs = s.Jobs
	}
	for _, raw := range s.Platforms {
		platform, err := parsePlatform(raw)
		if err != nil {
			return ports.ProjectConfig{}, zerr.With(err, "path", path)
		}
		cfg.Platforms = append(cfg.Platforms, platform)
	}

	return cfg, nil
}

func parsePlatform(raw string) (domain.Platform, error) {
	for _, platform := range domain.AllPlatforms() {
		if raw == string(platform) {
			return platform, nil
		}
	}
	return "", zerr.With(zerr.New("unknown platform"), "platform", raw)
}

// DefaultCacheRoot returns the process-wide mirror and binary cache root.
func DefaultCacheRoot() string {
	if base, err := os.UserCacheDir(); err == nil {
		return filepath.Join(base, "utica")
	}
	return filepath.Join(os.TempDir(), "utica-cache")
}
