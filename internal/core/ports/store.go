package ports

import "go.trai.ch/utica/internal/core/domain"

// VersionFileStore reads and writes the per-artifact fingerprint files that
// drive cache invalidation.
//
//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type VersionFileStore interface {
	// Matches reports whether the recorded fingerprint for the node equals
	// the current invocation: same commitish, same configuration and
	// toolchain, and identical (name, hash) sets for every requested
	// platform. A missing or malformed version file is a mismatch, not an
	// error.
	Matches(node domain.BuildNode, opts domain.BuildOptions) (bool, error)

	// Recorded reports whether any version file exists for the node,
	// distinguishing an invalidated cache from an absent one.
	Recorded(node domain.BuildNode) bool

	// Write records the fingerprint for a freshly built node.
	Write(node domain.BuildNode, opts domain.BuildOptions, artifacts []domain.BuiltArtifact) error
}
