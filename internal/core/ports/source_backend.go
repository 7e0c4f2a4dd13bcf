// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/utica/internal/core/domain"
)

// SourceBackend clones and reads VCS repositories through a shared mirror
// directory.
//
//go:generate go run go.uber.org/mock/mockgen -source=source_backend.go -destination=mocks/mock_source_backend.go -package=mocks
type SourceBackend interface {
	// EnsureMirror guarantees a bare mirror for the dependency exists and is
	// current, returning its path. When commitish is non-empty, already
	// present in the mirror, and not a branch name, the fetch is skipped.
	// At most one fetch per remote URL happens per process.
	EnsureMirror(ctx context.Context, dep domain.Dependency, commitish string) (string, error)

	// Tags enumerates the tag refs of a mirror.
	Tags(ctx context.Context, repoDir string) ([]string, error)

	// ResolveRef resolves a ref to a commit SHA, preferring an exact tag
	// match over a general rev-parse.
	ResolveRef(ctx context.Context, repoDir, ref string) (string, error)

	// FileAtRevision reads a file blob at a revision. A missing file returns
	// an empty slice and no error.
	FileAtRevision(ctx context.Context, repoDir, path, revision string) ([]byte, error)

	// Checkout populates workDir with the tree at revision.
	Checkout(ctx context.Context, workDir, repoDir, revision string) error

	// Submodules enumerates the submodules recorded at revision.
	Submodules(ctx context.Context, repoDir, revision string) ([]domain.Submodule, error)
}
