package ports

import "go.trai.ch/utica/internal/core/domain"

// ProjectConfig is the on-disk project configuration with defaults applied.
type ProjectConfig struct {
	// ProjectDirectory is the root the manifest lives in.
	ProjectDirectory string
	// CheckoutsDir is the working-tree directory, relative to the root.
	CheckoutsDir string
	// BuildDir is the artifact output directory, relative to the root.
	BuildDir string
	// CacheRoot is the process-wide mirror and binary cache directory.
	CacheRoot string
	// Platforms are the default build platforms.
	Platforms []domain.Platform
	// Jobs bounds build concurrency; 0 means the CPU count.
	Jobs int
}

// ConfigLoader loads the project configuration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration for the given project directory,
	// applying defaults when no config file exists.
	Load(projectDir string) (ProjectConfig, error)
}
