// Package resolver implements constraint resolution: from a root set of
// version specifiers to an exact pinned version for every transitive
// dependency.
package resolver

import (
	"context"
	"sort"
	"sync"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// backendConcurrency bounds in-flight metadata calls against the backends.
const backendConcurrency = 4

// Resolver is the greedy constraint solver. It selects the highest version
// satisfying each dependency's merged requirements and never backtracks, so
// it can miss assignments where an older parent would admit a compatible
// child; that trade-off is deliberate.
type Resolver struct {
	provider ports.DependencyProvider
}

// New creates a Resolver on top of the given metadata provider.
func New(provider ports.DependencyProvider) *Resolver {
	return &Resolver{provider: provider}
}

// versionFilter restricts candidate versions beyond the merged specifier.
// The only live policy is the partial-update pin; the signature allows
// richer policies but none are implemented.
type versionFilter func(dep domain.Dependency, version domain.PinnedVersion, spec domain.VersionSpecifier) bool

// contribution is one specifier placed on a dependency by a parent. A zero
// parent marks a root declaration.
type contribution struct {
	parent domain.Dependency
	spec   domain.VersionSpecifier
	isRoot bool
}

// requirement is the merged constraint set for one dependency.
type requirement struct {
	dep           domain.Dependency
	merged        domain.VersionSpecifier
	contributions []contribution
}

// state is the value threaded through the three-phase fixpoint. Selection
// and commit derive a fresh state with new candidates and a new resolved
// set; the requirements map is shared by every state and expand merges into
// it in place.
type state struct {
	candidates   map[domain.InternedString]domain.PinnedVersion
	requirements map[domain.InternedString]*requirement
	resolved     *domain.ResolvedGraph
	filter       versionFilter
}

// Resolve produces the pinned version map for the given roots.
//
// When dependenciesToUpdate is non-empty and lastResolved is available, the
// roots are restricted to dependencies that already appear in lastResolved or
// are named for update, and every unnamed dependency is pinned to its
// recorded version for as long as that version still satisfies its current
// specifier.
func (r *Resolver) Resolve(
	ctx context.Context,
	roots []ports.Declared,
	lastResolved *domain.ResolvedGraph,
	dependenciesToUpdate []string,
) (*domain.ResolvedGraph, error) {
	run := &resolution{
		resolver: r,
		refs:     make(map[string]domain.PinnedVersion),
	}

	activeRoots := roots
	filter := versionFilter(nil)
	if len(dependenciesToUpdate) > 0 && lastResolved != nil && lastResolved.Len() > 0 {
		updating := make(map[string]bool, len(dependenciesToUpdate))
		for _, name := range dependenciesToUpdate {
			updating[name] = true
		}

		activeRoots = nil
		for _, root := range roots {
			if _, pinned := lastResolved.Version(root.Dependency); pinned || updating[root.Dependency.Name()] {
				activeRoots = append(activeRoots, root)
			}
		}

		filter = func(dep domain.Dependency, version domain.PinnedVersion, spec domain.VersionSpecifier) bool {
			if updating[dep.Name()] {
				return true
			}
			recorded, ok := lastResolved.Version(dep)
			if !ok || !spec.Satisfied(recorded) {
				return true
			}
			return version == recorded
		}
	}

	s := &state{
		candidates:   make(map[domain.InternedString]domain.PinnedVersion),
		requirements: make(map[domain.InternedString]*requirement),
		resolved:     domain.NewResolvedGraph(),
		filter:       filter,
	}
	for _, root := range activeRoots {
		if err := run.merge(ctx, s, root.Dependency, root.Specifier, contribution{spec: root.Specifier, isRoot: true}); err != nil {
			return nil, err
		}
	}

	return run.iterate(ctx, s)
}

// resolution holds the per-run caches shared across fixpoint iterations.
type resolution struct {
	resolver *Resolver

	mu   sync.Mutex
	refs map[string]domain.PinnedVersion
}

// iterate runs select-candidates, expand, commit until selection is empty.
func (run *resolution) iterate(ctx context.Context, s *state) (*domain.ResolvedGraph, error) {
	next, err := run.selectCandidates(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(next.candidates) == 0 {
		return next.resolved, nil
	}

	if err := run.expand(ctx, next); err != nil {
		return nil, err
	}

	return run.iterate(ctx, run.commit(next))
}

// selectCandidates picks the highest admissible version for every required
// dependency not yet resolved.
func (run *resolution) selectCandidates(ctx context.Context, s *state) (*state, error) {
	next := &state{
		candidates:   make(map[domain.InternedString]domain.PinnedVersion),
		requirements: s.requirements,
		resolved:     s.resolved,
		filter:       s.filter,
	}

	pending := make([]*requirement, 0, len(s.requirements))
	for _, req := range s.requirements {
		if _, done := s.resolved.Version(req.dep); done {
			continue
		}
		pending = append(pending, req)
	}
	sort.Slice(pending, func(i, j int) bool {
		return pending[i].dep.String() < pending[j].dep.String()
	})

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(backendConcurrency)
	for _, req := range pending {
		group.Go(func() error {
			version, err := run.selectVersion(groupCtx, s, req)
			if err != nil {
				return err
			}
			mu.Lock()
			next.candidates[req.dep.Key()] = version
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return next, nil
}

func (run *resolution) selectVersion(ctx context.Context, s *state, req *requirement) (domain.PinnedVersion, error) {
	if req.merged.Kind == domain.SpecifierGitReference {
		version, err := run.resolveRef(ctx, req.dep, req.merged.Ref)
		if err != nil {
			return "", err
		}
		if s.filter != nil && !s.filter(req.dep, version, req.merged) {
			return "", zerr.With(zerr.With(domain.ErrRequiredVersionNotFound,
				"dependency", req.dep.String()), "specifier", req.merged.String())
		}
		return version, nil
	}

	available, err := run.resolver.provider.Versions(ctx, req.dep)
	if err != nil {
		return "", err
	}
	if len(available) == 0 {
		return "", zerr.With(domain.ErrTaggedVersionNotFound, "dependency", req.dep.String())
	}

	var best domain.PinnedVersion
	found := false
	for _, version := range available {
		if !req.merged.Satisfied(version) {
			continue
		}
		if s.filter != nil && !s.filter(req.dep, version, req.merged) {
			continue
		}
		if !found || domain.ComparePinned(version, best) > 0 {
			best = version
			found = true
		}
	}
	if !found {
		return "", zerr.With(zerr.With(domain.ErrRequiredVersionNotFound,
			"dependency", req.dep.String()), "specifier", req.merged.String())
	}
	return best, nil
}

// resolveRef resolves a git reference once per run; later lookups reuse the
// SHA so a moving branch cannot drift within a single resolution.
func (run *resolution) resolveRef(ctx context.Context, dep domain.Dependency, ref string) (domain.PinnedVersion, error) {
	cacheKey := dep.Key().String() + "@" + ref

	run.mu.Lock()
	if sha, ok := run.refs[cacheKey]; ok {
		run.mu.Unlock()
		return sha, nil
	}
	run.mu.Unlock()

	sha, err := run.resolver.provider.ResolveRef(ctx, dep, ref)
	if err != nil {
		return "", err
	}

	run.mu.Lock()
	run.refs[cacheKey] = sha
	// The SHA resolves to itself, so later lookups of the pinned form hit
	// the cache instead of the backend.
	run.refs[dep.Key().String()+"@"+sha.String()] = sha
	run.mu.Unlock()
	return sha, nil
}

// expand fetches the dependency declarations of every candidate and merges
// them into the requirements.
func (run *resolution) expand(ctx context.Context, s *state) error {
	type expansion struct {
		parent   domain.Dependency
		declared []ports.Declared
	}

	keys := make([]domain.InternedString, 0, len(s.candidates))
	for key := range s.candidates {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return s.requirements[keys[i]].dep.String() < s.requirements[keys[j]].dep.String()
	})

	expansions := make([]expansion, len(keys))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(backendConcurrency)
	for i, key := range keys {
		parent := s.requirements[key].dep
		version := s.candidates[key]
		group.Go(func() error {
			declared, err := run.resolver.provider.DependenciesAt(groupCtx, parent, version)
			if err != nil {
				return err
			}
			expansions[i] = expansion{parent: parent, declared: declared}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return err
	}

	for _, exp := range expansions {
		for _, child := range exp.declared {
			if err := run.merge(ctx, s, child.Dependency, child.Specifier, contribution{parent: exp.parent, spec: child.Specifier}); err != nil {
				return err
			}
		}
	}
	return nil
}

// merge intersects a new specifier into the requirement for dep. Git
// references are resolved to commit SHAs before merging.
func (run *resolution) merge(ctx context.Context, s *state, dep domain.Dependency, spec domain.VersionSpecifier, contrib contribution) error {
	if spec.Kind == domain.SpecifierGitReference {
		sha, err := run.resolveRef(ctx, dep, spec.Ref)
		if err != nil {
			return err
		}
		spec = domain.GitReference(sha.String())
		contrib.spec = spec
	}

	key := dep.Key()
	req, exists := s.requirements[key]
	if !exists {
		s.requirements[key] = &requirement{
			dep:           dep,
			merged:        spec,
			contributions: []contribution{contrib},
		}
		return nil
	}

	merged, ok := domain.Intersect(req.merged, spec)
	if !ok {
		return incompatibleRequirements(req, contrib)
	}
	req.merged = merged
	req.contributions = append(req.contributions, contrib)
	return nil
}

// incompatibleRequirements attributes blame: the failing new contribution is
// paired with the prior contribution it cannot intersect with, stricter
// specifier first.
func incompatibleRequirements(req *requirement, contrib contribution) error {
	existing := req.contributions[0]
	for _, prior := range req.contributions {
		if _, ok := domain.Intersect(prior.spec, contrib.spec); !ok {
			existing = prior
			break
		}
	}

	first, second := existing, contrib
	if second.spec.StricterThan(first.spec) {
		first, second = second, first
	}

	err := zerr.With(domain.ErrIncompatibleRequirements, "dependency", req.dep.String())
	err = zerr.With(err, "required", first.spec.String()+" (by "+describeParent(first)+")")
	return zerr.With(err, "conflicting", second.spec.String()+" (by "+describeParent(second)+")")
}

func describeParent(contrib contribution) string {
	if contrib.isRoot {
		return "the manifest"
	}
	return contrib.parent.String()
}

// commit folds the candidates into the resolved set, re-validating earlier
// resolutions against the latest requirements: a new parent may have
// tightened a specifier an old pin no longer satisfies.
func (run *resolution) commit(s *state) *state {
	combined := domain.NewResolvedGraph()
	for _, entry := range s.resolved.Entries() {
		combined.Pin(entry.Dependency, entry.Version)
	}
	for key, version := range s.candidates {
		combined.Pin(s.requirements[key].dep, version)
	}

	revalidated := domain.NewResolvedGraph()
	for _, entry := range combined.Entries() {
		req, constrained := s.requirements[entry.Dependency.Key()]
		if constrained && !req.merged.Satisfied(entry.Version) {
			continue
		}
		revalidated.Pin(entry.Dependency, entry.Version)
	}

	return &state{
		candidates:   make(map[domain.InternedString]domain.PinnedVersion),
		requirements: s.requirements,
		resolved:     revalidated,
		filter:       s.filter,
	}
}
