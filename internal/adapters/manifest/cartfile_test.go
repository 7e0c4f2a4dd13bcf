package manifest_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/adapters/manifest"
	"go.trai.ch/utica/internal/core/domain"
)

func TestParseGitHubLines(t *testing.T) {
	m, err := manifest.Parse([]byte(`github "ReactiveCocoa/ReactiveCocoa"`), "")
	require.NoError(t, err)
	require.Len(t, m.Entries, 1)

	dep := m.Entries[0].Dependency
	assert.Equal(t, domain.DependencyHosted, dep.Kind)
	assert.False(t, dep.Server.IsEnterprise())
	assert.Equal(t, "ReactiveCocoa", dep.Owner)
	assert.Equal(t, "ReactiveCocoa", dep.Repo)
	assert.Equal(t, domain.SpecifierAny, m.Entries[0].Specifier.Kind)

	m, err = manifest.Parse([]byte(`github "http://ghe.example.com/o/n"`), "")
	require.NoError(t, err)
	dep = m.Entries[0].Dependency
	assert.Equal(t, domain.Server{BaseURL: "http://ghe.example.com"}, dep.Server)
	assert.Equal(t, "o", dep.Owner)
	assert.Equal(t, "n", dep.Repo)

	_, err = manifest.Parse([]byte(`github "Whatsthis"`), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrInvalidGitHubIdentifier))
}

func TestParseGitCanonicalization(t *testing.T) {
	viaGit, err := manifest.Parse([]byte(`git "ssh://git@github.com:owner/name"`), "")
	require.NoError(t, err)
	viaGitHub, err := manifest.Parse([]byte(`github "owner/name"`), "")
	require.NoError(t, err)

	assert.Equal(t, viaGitHub.Entries[0].Dependency.Key(), viaGit.Entries[0].Dependency.Key())
}

func TestParseSpecifiers(t *testing.T) {
	input := `
github "a/compatible" ~> 1.2.3
github "a/atleast" >= 2.0.0
github "a/exactly" == 3.1.4
github "a/ref" "development"
github "a/any"
`
	m, err := manifest.Parse([]byte(input), "")
	require.NoError(t, err)
	require.Len(t, m.Entries, 5)

	kinds := []domain.SpecifierKind{
		domain.SpecifierCompatibleWith,
		domain.SpecifierAtLeast,
		domain.SpecifierExactly,
		domain.SpecifierGitReference,
		domain.SpecifierAny,
	}
	for i, kind := range kinds {
		assert.Equal(t, kind, m.Entries[i].Specifier.Kind, "entry %d", i)
	}
	assert.Equal(t, "development", m.Entries[3].Specifier.Ref)
}

func TestParseComments(t *testing.T) {
	input := `
# full-line comment
github "a/b" >= 1.0.0 # trailing comment
git "https://example.com/has#hash.git"  # the first hash is quoted
`
	m, err := manifest.Parse([]byte(input), "")
	require.NoError(t, err)
	require.Len(t, m.Entries, 2)
	assert.Equal(t, "https://example.com/has#hash.git", m.Entries[1].Dependency.GitURL)
}

func TestParseStringErrors(t *testing.T) {
	_, err := manifest.Parse([]byte(`github`), "")
	assert.True(t, errors.Is(err, domain.ErrExpectedString))

	_, err = manifest.Parse([]byte(`github owner/name`), "")
	assert.True(t, errors.Is(err, domain.ErrExpectedString))

	_, err = manifest.Parse([]byte(`github ""`), "")
	assert.True(t, errors.Is(err, domain.ErrUnterminatedString))

	_, err = manifest.Parse([]byte(`github "unclosed`), "")
	assert.True(t, errors.Is(err, domain.ErrUnterminatedString))
}

func TestParseBinaryIdentifiers(t *testing.T) {
	m, err := manifest.Parse([]byte(`binary "https://example.com/spec.json"`), "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/spec.json", m.Entries[0].Dependency.URL)

	m, err = manifest.Parse([]byte(`binary "relative/spec.json"`), "/projects/demo")
	require.NoError(t, err)
	assert.Equal(t, "file:///projects/demo/relative/spec.json", m.Entries[0].Dependency.URL)
	assert.Equal(t, "relative/spec.json", m.Entries[0].Dependency.DisplayURL)

	_, err = manifest.Parse([]byte(`binary "http://example.com/spec.json"`), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidBinaryURL))

	_, err = manifest.Parse([]byte(`binary "relative/spec.json"`), "")
	assert.True(t, errors.Is(err, domain.ErrInvalidBinaryURL))
}

func TestParseDuplicateWithinFile(t *testing.T) {
	input := `
github "a/b"
git "https://github.com/a/b.git"
`
	_, err := manifest.Parse([]byte(input), "")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateDependencies))
}

func TestMergeRejectsDuplicates(t *testing.T) {
	primary, err := manifest.Parse([]byte(`github "a/b"`), "")
	require.NoError(t, err)
	private, err := manifest.Parse([]byte(`github "a/b" >= 1.0.0`), "")
	require.NoError(t, err)

	_, err = manifest.Merge(primary, private)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateDependencies))
}

func TestMergeAppendsPrivate(t *testing.T) {
	primary, err := manifest.Parse([]byte(`github "a/b"`), "")
	require.NoError(t, err)
	private, err := manifest.Parse([]byte(`github "c/d" ~> 2.0.0`), "")
	require.NoError(t, err)

	merged, err := manifest.Merge(primary, private)
	require.NoError(t, err)
	assert.Len(t, merged.Entries, 2)
}

func TestRoundTrip(t *testing.T) {
	input := `
github "ReactiveCocoa/ReactiveCocoa" ~> 4.0.0
github "http://ghe.example.com/o/n" >= 1.2.3
git "https://example.com/widget.git" "development"
binary "https://example.com/spec.json" == 2.0.0
`
	first, err := manifest.Parse([]byte(input), "")
	require.NoError(t, err)

	second, err := manifest.Parse(first.Serialize(), "")
	require.NoError(t, err)

	require.Equal(t, len(first.Entries), len(second.Entries))
	for i := range first.Entries {
		assert.Equal(t, first.Entries[i].Dependency.Key(), second.Entries[i].Dependency.Key())
		assert.Equal(t, first.Entries[i].Specifier, second.Entries[i].Specifier)
	}
}
