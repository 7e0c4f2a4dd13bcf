// Package metadata implements the resolver's dependency provider on top of
// the source and binary backends.
package metadata

import (
	"context"
	"sync"

	"go.trai.ch/utica/internal/adapters/manifest"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
)

// Provider implements ports.DependencyProvider. Version enumerations and
// per-version dependency declarations are memoized for the run; the build
// scheduler re-reads the same declarations the resolver saw.
type Provider struct {
	source   ports.SourceBackend
	binaries ports.BinaryBackend

	mu       sync.Mutex
	versions map[domain.InternedString][]domain.PinnedVersion
	declared map[string][]ports.Declared
}

var _ ports.DependencyProvider = (*Provider)(nil)

// NewProvider creates a Provider over the given backends.
func NewProvider(source ports.SourceBackend, binaries ports.BinaryBackend) *Provider {
	return &Provider{
		source:   source,
		binaries: binaries,
		versions: make(map[domain.InternedString][]domain.PinnedVersion),
		declared: make(map[string][]ports.Declared),
	}
}

// Versions enumerates the available pinned versions of a dependency: tag refs
// that parse semantically for source dependencies, manifest entries for
// binary dependencies.
func (p *Provider) Versions(ctx context.Context, dep domain.Dependency) ([]domain.PinnedVersion, error) {
	key := dep.Key()
	p.mu.Lock()
	if cached, ok := p.versions[key]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	var versions []domain.PinnedVersion
	if dep.Kind == domain.DependencyBinary {
		binaryVersions, err := p.binaries.Versions(ctx, dep)
		if err != nil {
			return nil, err
		}
		versions = binaryVersions
	} else {
		repoDir, err := p.source.EnsureMirror(ctx, dep, "")
		if err != nil {
			return nil, err
		}
		tags, err := p.source.Tags(ctx, repoDir)
		if err != nil {
			return nil, err
		}
		for _, tag := range tags {
			pinned := domain.PinnedVersion(tag)
			if _, ok := pinned.Semantic(); ok {
				versions = append(versions, pinned)
			}
		}
	}

	p.mu.Lock()
	p.versions[key] = versions
	p.mu.Unlock()
	return versions, nil
}

// DependenciesAt returns the declarations of dep at a pinned version, read
// from its manifest at that revision. Binary dependencies declare nothing.
func (p *Provider) DependenciesAt(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion) ([]ports.Declared, error) {
	if dep.Kind == domain.DependencyBinary {
		return nil, nil
	}

	cacheKey := dep.Key().String() + "@" + version.String()
	p.mu.Lock()
	if cached, ok := p.declared[cacheKey]; ok {
		p.mu.Unlock()
		return cached, nil
	}
	p.mu.Unlock()

	repoDir, err := p.source.EnsureMirror(ctx, dep, version.String())
	if err != nil {
		return nil, err
	}

	data, err := p.source.FileAtRevision(ctx, repoDir, manifest.FileName, version.String())
	if err != nil {
		return nil, err
	}

	var declared []ports.Declared
	if len(data) > 0 {
		parsed, err := manifest.Parse(data, "")
		if err != nil {
			return nil, err
		}
		for _, entry := range parsed.Entries {
			declared = append(declared, ports.Declared{Dependency: entry.Dependency, Specifier: entry.Specifier})
		}
	}

	p.mu.Lock()
	p.declared[cacheKey] = declared
	p.mu.Unlock()
	return declared, nil
}

// ResolveRef resolves a git reference against the dependency's mirror.
func (p *Provider) ResolveRef(ctx context.Context, dep domain.Dependency, ref string) (domain.PinnedVersion, error) {
	repoDir, err := p.source.EnsureMirror(ctx, dep, ref)
	if err != nil {
		return "", err
	}
	sha, err := p.source.ResolveRef(ctx, repoDir, ref)
	if err != nil {
		return "", err
	}
	return domain.PinnedVersion(sha), nil
}
