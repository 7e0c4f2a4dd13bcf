package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/adapters/config"
	"go.trai.ch/utica/internal/core/domain"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := config.NewLoader().Load(dir)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ProjectDirectory)
	assert.Equal(t, "Carthage/Checkouts", cfg.CheckoutsDir)
	assert.Equal(t, "Carthage/Build", cfg.BuildDir)
	assert.NotEmpty(t, cfg.CacheRoot)
	assert.Empty(t, cfg.Platforms)
	assert.Zero(t, cfg.Jobs)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	content := `
checkoutsDir: Vendor/Checkouts
buildDir: Vendor/Build
cacheRoot: /var/cache/utica
platforms: [Mac, iOS]
jobs: 3
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(content), 0o600))

	cfg, err := config.NewLoader().Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "Vendor/Checkouts", cfg.CheckoutsDir)
	assert.Equal(t, "Vendor/Build", cfg.BuildDir)
	assert.Equal(t, "/var/cache/utica", cfg.CacheRoot)
	assert.Equal(t, []domain.Platform{domain.PlatformMacOS, domain.PlatformIOS}, cfg.Platforms)
	assert.Equal(t, 3, cfg.Jobs)
}

func TestLoadRejectsUnknownPlatform(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte("platforms: [Amiga]\n"), 0o600))

	_, err := config.NewLoader().Load(dir)
	assert.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(":\n  - ["), 0o600))

	_, err := config.NewLoader().Load(dir)
	assert.Error(t, err)
}
