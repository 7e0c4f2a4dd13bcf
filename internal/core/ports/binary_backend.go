package ports

import (
	"context"

	"go.trai.ch/utica/internal/core/domain"
)

// BinaryInstallOptions selects how assets are chosen and where they land.
type BinaryInstallOptions struct {
	// BuildDir is the output tree assets are installed into.
	BuildDir string
	// PreferXCFrameworks prioritizes xcframework assets over single-platform
	// framework assets.
	PreferXCFrameworks bool
}

// BinaryBackend serves binary-only dependencies: JSON artifact manifests
// mapping pinned versions to asset URLs, plus a content-addressed download
// cache.
//
//go:generate go run go.uber.org/mock/mockgen -source=binary_backend.go -destination=mocks/mock_binary_backend.go -package=mocks
type BinaryBackend interface {
	// Versions enumerates the pinned versions the artifact manifest offers.
	// The manifest document is fetched and memoized per run.
	Versions(ctx context.Context, dep domain.Dependency) ([]domain.PinnedVersion, error)

	// Install downloads the assets for a version into the cache, expands
	// them, and moves the surviving frameworks into the output tree.
	Install(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion, opts BinaryInstallOptions) error
}
