package ports

import (
	"context"

	"go.trai.ch/utica/internal/core/domain"
)

// Declared is one dependency declaration read from a manifest.
type Declared struct {
	Dependency domain.Dependency
	Specifier  domain.VersionSpecifier
}

// DependencyProvider answers the resolver's metadata questions: which
// versions exist, what a version declares, and what a ref points at.
//
//go:generate go run go.uber.org/mock/mockgen -source=provider.go -destination=mocks/mock_provider.go -package=mocks
type DependencyProvider interface {
	// Versions enumerates the available pinned versions of a dependency.
	Versions(ctx context.Context, dep domain.Dependency) ([]domain.PinnedVersion, error)

	// DependenciesAt returns the dependency declarations of dep at the given
	// pinned version. Binary dependencies declare nothing.
	DependenciesAt(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion) ([]Declared, error)

	// ResolveRef resolves a git reference to a commit SHA so one resolution
	// run cannot observe branch drift.
	ResolveRef(ctx context.Context, dep domain.Dependency, ref string) (domain.PinnedVersion, error)
}
