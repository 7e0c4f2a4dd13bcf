package domain

import "go.trai.ch/zerr"

var (
	// ErrExpectedString is returned when a manifest line is missing its
	// quoted identifier.
	ErrExpectedString = zerr.New("expected string after dependency type")

	// ErrUnterminatedString is returned for an empty or unclosed identifier.
	ErrUnterminatedString = zerr.New("empty or unterminated string after dependency type")

	// ErrInvalidGitHubIdentifier is returned when a github identifier is
	// neither owner/name nor an enterprise repository URL.
	ErrInvalidGitHubIdentifier = zerr.New("invalid GitHub repository identifier")

	// ErrInvalidBinaryURL is returned when a binary identifier does not parse
	// as an https or file URL.
	ErrInvalidBinaryURL = zerr.New("invalid URL found for dependency type `binary`")

	// ErrInvalidSpecifier is returned when the trailing version specifier of a
	// manifest entry cannot be parsed.
	ErrInvalidSpecifier = zerr.New("invalid version specifier")

	// ErrDuplicateDependencies is returned when the primary and private
	// manifests declare the same dependency.
	ErrDuplicateDependencies = zerr.New("duplicate dependencies")

	// ErrRequiredVersionNotFound is returned when no available version of a
	// dependency satisfies its requirements.
	ErrRequiredVersionNotFound = zerr.New("required version not found")

	// ErrIncompatibleRequirements is returned when two ancestors place
	// non-intersecting requirements on the same dependency.
	ErrIncompatibleRequirements = zerr.New("incompatible requirements")

	// ErrTaggedVersionNotFound is returned when a repository carries no
	// semantic version tags at all.
	ErrTaggedVersionNotFound = zerr.New("no tagged versions found")

	// ErrCycleDetected is returned when the resolved graph contains a cycle.
	ErrCycleDetected = zerr.New("dependency cycle detected")

	// ErrMissingDependency is returned when a node references a dependency
	// absent from the graph.
	ErrMissingDependency = zerr.New("missing dependency")

	// ErrNetworkFailure is returned when a remote fetch fails.
	ErrNetworkFailure = zerr.New("network request failed")

	// ErrCommandFailed is returned when an external tool exits non-zero.
	ErrCommandFailed = zerr.New("command failed")

	// ErrNoSharedSchemes is returned by the builder when a project exposes no
	// shared schemes; the scheduler downgrades it to a skipped event.
	ErrNoSharedSchemes = zerr.New("no shared schemes")

	// ErrDuplicateArchivePaths is returned when an expanded binary archive
	// would install two files at the same destination.
	ErrDuplicateArchivePaths = zerr.New("archive contains duplicate destination paths")

	// ErrNoFrameworksInArchive is returned when an expanded binary archive
	// contains nothing recognizable as a framework.
	ErrNoFrameworksInArchive = zerr.New("no frameworks found in archive")

	// ErrNoMatchingBinaryVersion is returned when a binary manifest has no
	// entry for the pinned version.
	ErrNoMatchingBinaryVersion = zerr.New("no binary asset matches the pinned version")

	// ErrResolvedFileOutdated is returned by validate when the lockfile no
	// longer satisfies the manifest.
	ErrResolvedFileOutdated = zerr.New("resolved file is out of date")

	// ErrResolvedFileMissing is returned when an operation requires a
	// lockfile that does not exist.
	ErrResolvedFileMissing = zerr.New("resolved file not found")
)
