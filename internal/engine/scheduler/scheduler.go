// Package scheduler implements the build scheduler: topological ordering of
// the resolved graph, cache invalidation, binary installation, and bounded
// concurrent source builds.
package scheduler

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
)

// NodeStatus represents the scheduling state of a build node.
type NodeStatus string

const (
	// StatusPending indicates the node has not been examined yet.
	StatusPending NodeStatus = "Pending"
	// StatusRebuild indicates the node needs a source build.
	StatusRebuild NodeStatus = "Rebuild"
	// StatusBuilding indicates the node is currently building.
	StatusBuilding NodeStatus = "Building"
	// StatusBuilt indicates the node finished building.
	StatusBuilt NodeStatus = "Built"
	// StatusSkipped indicates the node's cached artifact is still valid. A
	// node without shared schemes ends as StatusBuilt.
	StatusSkipped NodeStatus = "Skipped"
	// StatusInstalled indicates a binary artifact was installed instead of
	// building from source.
	StatusInstalled NodeStatus = "Installed"
	// StatusFailed indicates the node's build failed.
	StatusFailed NodeStatus = "Failed"
)

// RunOptions configures one scheduler run.
type RunOptions struct {
	domain.BuildOptions

	// BuildDir is the artifact output directory.
	BuildDir string
	// DependencyFilter restricts the run to the named dependencies and their
	// transitive dependencies. Empty means everything.
	DependencyFilter []string
}

// Scheduler walks the resolved graph and either imports cached artifacts,
// installs binaries, or dispatches source builds with bounded concurrency.
type Scheduler struct {
	provider ports.DependencyProvider
	binaries ports.BinaryBackend
	builder  ports.Builder
	store    ports.VersionFileStore
	events   ports.EventSink
	logger   ports.Logger

	mu     sync.RWMutex
	status map[domain.InternedString]NodeStatus
}

// NewScheduler creates a Scheduler with the given collaborators.
func NewScheduler(
	provider ports.DependencyProvider,
	binaries ports.BinaryBackend,
	builder ports.Builder,
	store ports.VersionFileStore,
	events ports.EventSink,
	logger ports.Logger,
) *Scheduler {
	return &Scheduler{
		provider: provider,
		binaries: binaries,
		builder:  builder,
		store:    store,
		events:   events,
		logger:   logger,
		status:   make(map[domain.InternedString]NodeStatus),
	}
}

// Status returns the scheduling state of a node.
func (s *Scheduler) Status(key domain.InternedString) NodeStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status[key]
}

func (s *Scheduler) setStatus(key domain.InternedString, status NodeStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status[key] = status
}

// Run executes the build pipeline over the resolved graph.
func (s *Scheduler) Run(ctx context.Context, resolved *domain.ResolvedGraph, opts RunOptions) error {
	graph, err := s.buildGraph(ctx, resolved, opts.DependencyFilter)
	if err != nil {
		return err
	}

	for node := range graph.Walk() {
		s.setStatus(node.Dependency.Key(), StatusPending)
	}

	s.planCacheStates(graph, opts)

	if err := s.installBinaries(ctx, graph, opts); err != nil {
		return err
	}

	return s.buildSources(ctx, graph, opts)
}

// buildGraph derives BuildNodes from the lockfile, with edges from the
// per-version dependency declarations, restricted to the requested names.
func (s *Scheduler) buildGraph(ctx context.Context, resolved *domain.ResolvedGraph, filter []string) (*domain.Graph, error) {
	graph := domain.NewGraph()

	for _, entry := range resolved.Entries() {
		declared, err := s.provider.DependenciesAt(ctx, entry.Dependency, entry.Version)
		if err != nil {
			return nil, err
		}

		var direct []domain.InternedString
		for _, child := range declared {
			// Edges outside the lockfile carry no build obligation.
			if _, pinned := resolved.Version(child.Dependency); pinned {
				direct = append(direct, child.Dependency.Key())
			}
		}

		graph.AddNode(domain.BuildNode{
			Dependency: entry.Dependency,
			Version:    entry.Version,
			DirectDeps: direct,
		})
	}

	if err := graph.Validate(); err != nil {
		return nil, err
	}

	if len(filter) == 0 {
		return graph, nil
	}

	roots, err := rootsByName(graph, filter)
	if err != nil {
		return nil, err
	}
	restricted, missing := graph.Restrict(roots)
	if len(missing) > 0 {
		return nil, zerr.With(domain.ErrMissingDependency, "dependency", missing[0].String())
	}
	if err := restricted.Validate(); err != nil {
		return nil, err
	}
	return restricted, nil
}

func rootsByName(graph *domain.Graph, names []string) ([]domain.InternedString, error) {
	byName := make(map[string]domain.InternedString)
	for node := range graph.Walk() {
		byName[node.Dependency.Name()] = node.Dependency.Key()
	}

	roots := make([]domain.InternedString, 0, len(names))
	for _, name := range names {
		key, ok := byName[name]
		if !ok {
			return nil, zerr.With(domain.ErrMissingDependency, "dependency", name)
		}
		roots = append(roots, key)
	}
	return roots, nil
}

// planCacheStates marks every node Skipped or Rebuild. A node with a valid
// version file still rebuilds when any of its dependencies does: its artifact
// links against theirs.
func (s *Scheduler) planCacheStates(graph *domain.Graph, opts RunOptions) {
	rebuilding := make(map[domain.InternedString]bool)

	for node := range graph.Walk() {
		key := node.Dependency.Key()

		depRebuilds := false
		for _, dep := range node.DirectDeps {
			if rebuilding[dep] {
				depRebuilds = true
				break
			}
		}

		if !opts.CacheBuilds {
			s.setStatus(key, StatusRebuild)
			rebuilding[key] = true
			s.events.Publish(domain.ProjectEvent{Kind: domain.EventBuildingUncached, Dependency: node.Dependency})
			continue
		}

		matches, err := s.store.Matches(node, opts.BuildOptions)
		if err != nil {
			s.logger.Error(err)
			matches = false
		}

		if matches && !depRebuilds {
			s.setStatus(key, StatusSkipped)
			s.events.Publish(domain.ProjectEvent{Kind: domain.EventSkippedBuildingCached, Dependency: node.Dependency})
			continue
		}

		s.setStatus(key, StatusRebuild)
		rebuilding[key] = true
		if s.store.Recorded(node) {
			s.events.Publish(domain.ProjectEvent{Kind: domain.EventRebuildingCached, Dependency: node.Dependency})
		} else {
			s.events.Publish(domain.ProjectEvent{Kind: domain.EventBuildingUncached, Dependency: node.Dependency})
		}
	}
}

// installBinaries runs the binary installation pass before any source build.
// Binary dependencies install from their JSON manifests; hosted dependencies
// may install release assets when binaries are enabled, falling through to a
// source build when no matching asset exists.
func (s *Scheduler) installBinaries(ctx context.Context, graph *domain.Graph, opts RunOptions) error {
	installOpts := ports.BinaryInstallOptions{
		BuildDir:           opts.BuildDir,
		PreferXCFrameworks: opts.UseXCFrameworks,
	}

	for node := range graph.Walk() {
		if err := ctx.Err(); err != nil {
			return err
		}

		key := node.Dependency.Key()
		if s.Status(key) != StatusRebuild {
			continue
		}

		switch node.Dependency.Kind {
		case domain.DependencyBinary:
			s.events.Publish(domain.ProjectEvent{
				Kind:       domain.EventDownloadingBinaries,
				Dependency: node.Dependency,
				Revision:   node.Version.String(),
			})
			if err := s.binaries.Install(ctx, node.Dependency, node.Version, installOpts); err != nil {
				return err
			}
			s.finishInstalled(node, opts)

		case domain.DependencyHosted:
			if !opts.UseBinaries {
				s.events.Publish(domain.ProjectEvent{
					Kind:       domain.EventSkippedDownloadingBinaries,
					Dependency: node.Dependency,
					Reason:     "binaries are disabled",
				})
				continue
			}
			s.events.Publish(domain.ProjectEvent{
				Kind:       domain.EventDownloadingBinaries,
				Dependency: node.Dependency,
				Revision:   node.Version.String(),
			})
			if err := s.binaries.Install(ctx, node.Dependency, node.Version, installOpts); err != nil {
				// A missing or broken release asset is not fatal; the node
				// falls through to a source build.
				s.events.Publish(domain.ProjectEvent{
					Kind:       domain.EventSkippedInstallingBinaries,
					Dependency: node.Dependency,
					Err:        err,
				})
				continue
			}
			s.finishInstalled(node, opts)
		}
	}
	return nil
}

func (s *Scheduler) finishInstalled(node domain.BuildNode, opts RunOptions) {
	s.setStatus(node.Dependency.Key(), StatusInstalled)
	if err := s.store.Write(node, opts.BuildOptions, nil); err != nil {
		s.logger.Error(err)
	}
}

// buildSources builds the remaining rebuild nodes in topological order with
// bounded parallelism. A node dispatches only when every direct dependency is
// already built, skipped, or installed.
func (s *Scheduler) buildSources(ctx context.Context, graph *domain.Graph, opts RunOptions) error {
	parallelism := opts.Jobs
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}

	state := s.newRunState(ctx, graph, opts, parallelism)

	for !state.isDone() {
		state.schedule()

		if state.isDone() {
			break
		}

		if state.ctx.Err() != nil && state.active == 0 {
			return errors.Join(state.errs, state.ctx.Err())
		}

		select {
		case res := <-state.resultsCh:
			state.handleResult(res)
		case <-state.ctx.Done():
		}
	}

	if state.ctx.Err() != nil {
		state.errs = errors.Join(state.errs, state.ctx.Err())
	}

	return state.errs
}

type result struct {
	node domain.BuildNode
	err  error
}

type runState struct {
	s           *Scheduler
	ctx         context.Context
	opts        RunOptions
	graph       *domain.Graph
	inDegree    map[domain.InternedString]int
	ready       []domain.InternedString
	active      int
	resultsCh   chan result
	errs        error
	parallelism int
}

func (s *Scheduler) newRunState(ctx context.Context, graph *domain.Graph, opts RunOptions, parallelism int) *runState {
	inDegree := make(map[domain.InternedString]int, graph.NodeCount())
	var ready []domain.InternedString

	// Nodes already satisfied (skipped or installed) start resolved; their
	// dependents only wait on nodes that actually build.
	for node := range graph.Walk() {
		key := node.Dependency.Key()
		if s.Status(key) != StatusRebuild {
			continue
		}

		degree := 0
		for _, dep := range node.DirectDeps {
			if s.Status(dep) == StatusRebuild || s.Status(dep) == StatusPending {
				degree++
			}
		}
		inDegree[key] = degree
		if degree == 0 {
			ready = append(ready, key)
		}
	}

	return &runState{
		s:           s,
		ctx:         ctx,
		opts:        opts,
		graph:       graph,
		inDegree:    inDegree,
		ready:       ready,
		resultsCh:   make(chan result, parallelism),
		parallelism: parallelism,
	}
}

func (state *runState) isDone() bool {
	return state.active == 0 && len(state.ready) == 0
}

func (state *runState) schedule() {
	for len(state.ready) > 0 && state.active < state.parallelism && state.ctx.Err() == nil {
		key := state.ready[0]
		state.ready = state.ready[1:]

		node, ok := state.graph.Node(key)
		if !ok {
			continue
		}

		state.active++
		state.s.setStatus(key, StatusBuilding)

		go func(n domain.BuildNode) {
			state.resultsCh <- result{node: n, err: state.buildNode(state.ctx, n)}
		}(node)
	}
}

func (state *runState) buildNode(ctx context.Context, node domain.BuildNode) error {
	artifacts, err := state.s.builder.Build(ctx, node, state.opts.BuildOptions)
	if err != nil {
		if errors.Is(err, domain.ErrNoSharedSchemes) {
			state.s.events.Publish(domain.ProjectEvent{
				Kind:       domain.EventSkippedBuilding,
				Dependency: node.Dependency,
				Reason:     "no shared schemes",
			})
			return nil
		}
		return err
	}

	return state.s.store.Write(node, state.opts.BuildOptions, artifacts)
}

func (state *runState) handleResult(res result) {
	state.active--
	key := res.node.Dependency.Key()

	if res.err != nil {
		wrappedErr := zerr.With(zerr.Wrap(res.err, "build failed"), "dependency", res.node.Dependency.Name())
		state.errs = errors.Join(state.errs, wrappedErr)
		state.s.setStatus(key, StatusFailed)
		return
	}

	state.s.setStatus(key, StatusBuilt)
	for _, dependent := range state.graph.Dependents(key) {
		if _, waiting := state.inDegree[dependent]; !waiting {
			continue
		}
		state.inDegree[dependent]--
		if state.inDegree[dependent] == 0 {
			state.ready = append(state.ready, dependent)
		}
	}
}
