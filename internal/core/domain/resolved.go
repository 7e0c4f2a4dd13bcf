package domain

import "sort"

// ResolvedEntry pairs a dependency with its pinned version.
type ResolvedEntry struct {
	Dependency Dependency
	Version    PinnedVersion
}

// ResolvedGraph is the ordered mapping from dependency to pinned version that
// resolution emits and the lockfile records.
type ResolvedGraph struct {
	deps     map[InternedString]Dependency
	versions map[InternedString]PinnedVersion
}

// NewResolvedGraph creates an empty ResolvedGraph.
func NewResolvedGraph() *ResolvedGraph {
	return &ResolvedGraph{
		deps:     make(map[InternedString]Dependency),
		versions: make(map[InternedString]PinnedVersion),
	}
}

// Pin records the pinned version for a dependency, replacing any earlier pin.
func (g *ResolvedGraph) Pin(dep Dependency, version PinnedVersion) {
	key := dep.Key()
	g.deps[key] = dep
	g.versions[key] = version
}

// Version returns the pinned version for a dependency.
func (g *ResolvedGraph) Version(dep Dependency) (PinnedVersion, bool) {
	v, ok := g.versions[dep.Key()]
	return v, ok
}

// Len returns the number of pinned dependencies.
func (g *ResolvedGraph) Len() int {
	return len(g.deps)
}

// Entries returns the pinned dependencies in canonical order, sorted by the
// textual form of the dependency.
func (g *ResolvedGraph) Entries() []ResolvedEntry {
	entries := make([]ResolvedEntry, 0, len(g.deps))
	for key, dep := range g.deps {
		entries = append(entries, ResolvedEntry{Dependency: dep, Version: g.versions[key]})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Dependency.String() < entries[j].Dependency.String()
	})
	return entries
}

// Equal reports whether both graphs pin the same dependencies to the same
// versions.
func (g *ResolvedGraph) Equal(other *ResolvedGraph) bool {
	if g.Len() != other.Len() {
		return false
	}
	for key, version := range g.versions {
		if other.versions[key] != version {
			return false
		}
	}
	return true
}
