package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/core/domain"
)

func version(t *testing.T, raw string) domain.SemanticVersion {
	t.Helper()
	v, err := domain.ParseSemanticVersion(raw)
	require.NoError(t, err)
	return v
}

func TestSpecifierSatisfied(t *testing.T) {
	tests := []struct {
		name   string
		spec   domain.VersionSpecifier
		pinned domain.PinnedVersion
		want   bool
	}{
		{"any accepts releases", domain.AnySpecifier(), "1.0.0", true},
		{"any rejects pre-releases", domain.AnySpecifier(), "1.0.0-alpha", false},
		{"any accepts non-semantic", domain.AnySpecifier(), "badc0ffee", true},

		{"atLeast lower bound", domain.AtLeast(version(t, "2.0.0")), "1.9.9", false},
		{"atLeast equal", domain.AtLeast(version(t, "2.0.0")), "2.0.0", true},
		{"atLeast above", domain.AtLeast(version(t, "2.0.0")), "3.1.0", true},
		{"atLeast non-semantic", domain.AtLeast(version(t, "2.0.0")), "somesha", true},
		{"atLeast rejects pre-release of same base", domain.AtLeast(version(t, "2.0.0")), "2.0.0-rc.1", false},
		{"atLeast rejects pre-release of greater base", domain.AtLeast(version(t, "2.0.0")), "2.1.0-rc.1", false},
		{"atLeast pre-release requirement admits same-base pre-release", domain.AtLeast(version(t, "2.0.0-alpha")), "2.0.0-beta", true},
		{"atLeast accepts build metadata", domain.AtLeast(version(t, "2.2.0")), "2.2.0+b421", true},

		{"compatible same major", domain.CompatibleWith(version(t, "1.3.0")), "1.9.1", true},
		{"compatible below floor", domain.CompatibleWith(version(t, "1.3.0")), "1.2.9", false},
		{"compatible major bump", domain.CompatibleWith(version(t, "1.3.0")), "2.0.0", false},
		{"compatible non-semantic", domain.CompatibleWith(version(t, "1.3.0")), "somesha", true},
		{"compatible zero major pins minor", domain.CompatibleWith(version(t, "0.2.0")), "0.2.5", true},
		{"compatible zero major rejects minor bump", domain.CompatibleWith(version(t, "0.2.0")), "0.3.0", false},
		{"compatible zero major rejects pre-releases", domain.CompatibleWith(version(t, "0.2.0")), "0.2.5-alpha", false},

		{"exactly equal", domain.Exactly(version(t, "1.2.3")), "1.2.3", true},
		{"exactly different patch", domain.Exactly(version(t, "1.2.3")), "1.2.4", false},
		{"exactly build metadata differs", domain.Exactly(version(t, "2.2.0")), "2.2.0+b421", false},
		{"exactly with matching metadata", domain.Exactly(version(t, "2.2.0+b421")), "2.2.0+b421", true},
		{"exactly pre-release", domain.Exactly(version(t, "2.2.0-alpha")), "2.2.0-alpha", true},
		{"exactly non-semantic", domain.Exactly(version(t, "1.2.3")), "somesha", true},

		{"git reference matches commitish", domain.GitReference("abc123"), "abc123", true},
		{"git reference mismatch", domain.GitReference("abc123"), "def456", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.spec.Satisfied(tt.pinned))
		})
	}
}

func TestIntersect(t *testing.T) {
	tests := []struct {
		name  string
		a, b  domain.VersionSpecifier
		want  domain.VersionSpecifier
		empty bool
	}{
		{name: "any with any", a: domain.AnySpecifier(), b: domain.AnySpecifier(), want: domain.AnySpecifier()},
		{name: "any passes through", a: domain.AnySpecifier(), b: domain.AtLeast(version(t, "1.0.0")), want: domain.AtLeast(version(t, "1.0.0"))},

		{name: "atLeast keeps the higher floor", a: domain.AtLeast(version(t, "1.0.0")), b: domain.AtLeast(version(t, "2.1.0")), want: domain.AtLeast(version(t, "2.1.0"))},
		{name: "atLeast pre-release loses to its release", a: domain.AtLeast(version(t, "2.0.0-alpha")), b: domain.AtLeast(version(t, "2.0.0")), want: domain.AtLeast(version(t, "2.0.0"))},

		{name: "atLeast below compatible major", a: domain.AtLeast(version(t, "1.5.0")), b: domain.CompatibleWith(version(t, "2.0.0")), want: domain.CompatibleWith(version(t, "2.0.0"))},
		{name: "atLeast same major tightens compatible", a: domain.AtLeast(version(t, "1.5.0")), b: domain.CompatibleWith(version(t, "1.2.0")), want: domain.CompatibleWith(version(t, "1.5.0"))},
		{name: "atLeast above compatible major", a: domain.AtLeast(version(t, "3.0.0")), b: domain.CompatibleWith(version(t, "2.0.0")), empty: true},

		{name: "compatible different majors", a: domain.CompatibleWith(version(t, "1.3.2")), b: domain.CompatibleWith(version(t, "2.1.1")), empty: true},
		{name: "compatible zero major different minors", a: domain.CompatibleWith(version(t, "0.1.0")), b: domain.CompatibleWith(version(t, "0.2.0")), empty: true},
		{name: "compatible same major", a: domain.CompatibleWith(version(t, "1.3.0")), b: domain.CompatibleWith(version(t, "1.5.2")), want: domain.CompatibleWith(version(t, "1.5.2"))},

		{name: "atLeast with exact build metadata", a: domain.AtLeast(version(t, "2.2.0")), b: domain.Exactly(version(t, "2.2.0+b421")), want: domain.Exactly(version(t, "2.2.0+b421"))},
		{name: "atLeast rejects lower exact", a: domain.AtLeast(version(t, "2.2.0")), b: domain.Exactly(version(t, "2.1.0")), empty: true},
		{name: "compatible keeps matching exact", a: domain.CompatibleWith(version(t, "1.2.0")), b: domain.Exactly(version(t, "1.4.0")), want: domain.Exactly(version(t, "1.4.0"))},

		{name: "exact equal", a: domain.Exactly(version(t, "2.2.0")), b: domain.Exactly(version(t, "2.2.0")), want: domain.Exactly(version(t, "2.2.0"))},
		{name: "exact pre-release against release", a: domain.Exactly(version(t, "2.2.0-alpha")), b: domain.Exactly(version(t, "2.2.0")), empty: true},
		{name: "exact differing build metadata", a: domain.Exactly(version(t, "2.2.0+b1")), b: domain.Exactly(version(t, "2.2.0+b2")), empty: true},

		{name: "git reference dominates versions", a: domain.GitReference("develop"), b: domain.AtLeast(version(t, "1.0.0")), want: domain.GitReference("develop")},
		{name: "identical git references", a: domain.GitReference("develop"), b: domain.GitReference("develop"), want: domain.GitReference("develop")},
		{name: "distinct git references", a: domain.GitReference("develop"), b: domain.GitReference("main"), empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := domain.Intersect(tt.a, tt.b)
			if tt.empty {
				assert.False(t, ok)
				return
			}
			require.True(t, ok)
			assert.Equal(t, tt.want, got)

			// Commutativity.
			reversed, reversedOK := domain.Intersect(tt.b, tt.a)
			require.True(t, reversedOK)
			assert.Equal(t, got, reversed)
		})
	}
}

// The version-only intersections must accept exactly the versions both inputs
// accept.
func TestIntersectionPreservesSatisfaction(t *testing.T) {
	specs := []domain.VersionSpecifier{
		domain.AnySpecifier(),
		domain.AtLeast(version(t, "1.2.0")),
		domain.AtLeast(version(t, "2.0.0")),
		domain.CompatibleWith(version(t, "1.3.0")),
		domain.CompatibleWith(version(t, "2.1.0")),
		domain.Exactly(version(t, "1.4.0")),
		domain.Exactly(version(t, "2.2.0")),
	}
	pinned := []domain.PinnedVersion{
		"1.2.0", "1.3.0", "1.3.9", "1.4.0", "2.0.0", "2.1.0", "2.1.5", "2.2.0", "3.0.0",
	}

	for _, a := range specs {
		for _, b := range specs {
			merged, ok := domain.Intersect(a, b)
			for _, v := range pinned {
				both := a.Satisfied(v) && b.Satisfied(v)
				if !ok {
					assert.False(t, both, "empty intersection of %s and %s must reject %s", a, b, v)
					continue
				}
				assert.Equal(t, both, merged.Satisfied(v), "%s ∩ %s at %s", a, b, v)
			}
		}
	}
}

func TestStricterThan(t *testing.T) {
	atLeast := domain.AtLeast(version(t, "1.0.0"))
	compatible := domain.CompatibleWith(version(t, "1.0.0"))
	exactly := domain.Exactly(version(t, "1.0.0"))
	ref := domain.GitReference("main")

	assert.True(t, exactly.StricterThan(compatible))
	assert.True(t, compatible.StricterThan(atLeast))
	assert.True(t, atLeast.StricterThan(domain.AnySpecifier()))
	assert.False(t, atLeast.StricterThan(exactly))
	assert.False(t, ref.StricterThan(atLeast))
	assert.False(t, atLeast.StricterThan(ref))
}
