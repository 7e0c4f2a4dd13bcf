package domain

import (
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
	"go.trai.ch/zerr"
)

// SemanticVersion is a version conforming strictly to SemVer 2.0.0: exactly
// three numeric components, no leading zeros, with optional pre-release and
// build metadata segments.
type SemanticVersion struct {
	v *mmsemver.Version
}

// ParseSemanticVersion parses raw after an optional leading "v". A missing
// patch component is rejected, not defaulted.
func ParseSemanticVersion(raw string) (SemanticVersion, error) {
	v, err := mmsemver.StrictNewVersion(strings.TrimPrefix(raw, "v"))
	if err != nil {
		return SemanticVersion{}, zerr.With(zerr.Wrap(err, "invalid semantic version"), "version", raw)
	}
	return SemanticVersion{v: v}, nil
}

// NewSemanticVersion constructs a version from explicit components.
func NewSemanticVersion(major, minor, patch uint64) SemanticVersion {
	return SemanticVersion{v: mmsemver.New(major, minor, patch, "", "")}
}

// IsZero reports whether the version is the uninitialized zero value.
func (s SemanticVersion) IsZero() bool {
	return s.v == nil
}

// Major returns the major component.
func (s SemanticVersion) Major() uint64 { return s.v.Major() }

// Minor returns the minor component.
func (s SemanticVersion) Minor() uint64 { return s.v.Minor() }

// Patch returns the patch component.
func (s SemanticVersion) Patch() uint64 { return s.v.Patch() }

// PreRelease returns the pre-release segment, empty when absent.
func (s SemanticVersion) PreRelease() string { return s.v.Prerelease() }

// BuildMetadata returns the build metadata segment, empty when absent.
func (s SemanticVersion) BuildMetadata() string { return s.v.Metadata() }

// IsPreRelease reports whether the version carries a pre-release segment.
func (s SemanticVersion) IsPreRelease() bool { return s.v.Prerelease() != "" }

// Compare orders versions per SemVer 2.0.0. Build metadata is ignored, so a
// result of 0 means the versions tie under precedence rules.
func (s SemanticVersion) Compare(other SemanticVersion) int {
	return s.v.Compare(other.v)
}

// Equal reports full equality including pre-release and build metadata.
func (s SemanticVersion) Equal(other SemanticVersion) bool {
	return s.Compare(other) == 0 && s.BuildMetadata() == other.BuildMetadata()
}

// SameNumericComponents reports whether both versions share the same
// major.minor.patch triple.
func (s SemanticVersion) SameNumericComponents(other SemanticVersion) bool {
	return s.Major() == other.Major() && s.Minor() == other.Minor() && s.Patch() == other.Patch()
}

func (s SemanticVersion) String() string {
	if s.v == nil {
		return "0.0.0"
	}
	return s.v.String()
}

// maxSemantic returns the later of a and b; on a precedence tie the right
// operand wins.
func maxSemantic(a, b SemanticVersion) SemanticVersion {
	if a.Compare(b) <= 0 {
		return b
	}
	return a
}

// PinnedVersion is the opaque version string recorded in the lockfile: either
// a semantic version or a commit identifier.
type PinnedVersion string

// Semantic attempts to interpret the pinned version semantically.
func (p PinnedVersion) Semantic() (SemanticVersion, bool) {
	v, err := ParseSemanticVersion(string(p))
	if err != nil {
		return SemanticVersion{}, false
	}
	return v, true
}

func (p PinnedVersion) String() string {
	return string(p)
}

// ComparePinned orders pinned versions. Semantic ordering is preferred;
// unparseable values collate as 0.0.0, tie-broken lexically for determinism.
func ComparePinned(a, b PinnedVersion) int {
	av, aok := a.Semantic()
	bv, bok := b.Semantic()
	if !aok {
		av = NewSemanticVersion(0, 0, 0)
	}
	if !bok {
		bv = NewSemanticVersion(0, 0, 0)
	}
	if cmp := av.Compare(bv); cmp != 0 {
		return cmp
	}
	return strings.Compare(string(a), string(b))
}
