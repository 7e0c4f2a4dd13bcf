package scheduler_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/utica/internal/core/ports/mocks"
	"go.trai.ch/utica/internal/engine/scheduler"
	"go.uber.org/mock/gomock"
)

func hosted(name string) domain.Dependency {
	return domain.NewHostedDependency(domain.Server{}, "acme", name)
}

// eventCollector is a concurrency-safe EventSink for assertions.
type eventCollector struct {
	mu     sync.Mutex
	events []domain.ProjectEvent
}

func (c *eventCollector) sink() ports.EventSink {
	return ports.EventSinkFunc(func(event domain.ProjectEvent) {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.events = append(c.events, event)
	})
}

func (c *eventCollector) kinds() []domain.EventKind {
	c.mu.Lock()
	defer c.mu.Unlock()
	kinds := make([]domain.EventKind, len(c.events))
	for i, event := range c.events {
		kinds[i] = event.Kind
	}
	return kinds
}

type fixture struct {
	provider *mocks.MockDependencyProvider
	binaries *mocks.MockBinaryBackend
	builder  *mocks.MockBuilder
	store    *mocks.MockVersionFileStore
	events   *eventCollector
	sched    *scheduler.Scheduler
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	f := &fixture{
		provider: mocks.NewMockDependencyProvider(ctrl),
		binaries: mocks.NewMockBinaryBackend(ctrl),
		builder:  mocks.NewMockBuilder(ctrl),
		store:    mocks.NewMockVersionFileStore(ctrl),
		events:   &eventCollector{},
	}
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	logger.EXPECT().Warn(gomock.Any()).AnyTimes()
	logger.EXPECT().Error(gomock.Any()).AnyTimes()

	f.sched = scheduler.NewScheduler(f.provider, f.binaries, f.builder, f.store, f.events.sink(), logger)
	return f
}

// declare wires provider.DependenciesAt from a name -> children map.
func (f *fixture) declare(edges map[string][]string) {
	f.provider.EXPECT().
		DependenciesAt(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dep domain.Dependency, _ domain.PinnedVersion) ([]ports.Declared, error) {
			var declared []ports.Declared
			for _, child := range edges[dep.Name()] {
				declared = append(declared, ports.Declared{
					Dependency: hosted(child),
					Specifier:  domain.AnySpecifier(),
				})
			}
			return declared, nil
		}).
		AnyTimes()
}

func resolvedGraph(names ...string) *domain.ResolvedGraph {
	graph := domain.NewResolvedGraph()
	for _, name := range names {
		graph.Pin(hosted(name), "1.0.0")
	}
	return graph
}

func sourceOnlyOptions() scheduler.RunOptions {
	return scheduler.RunOptions{
		BuildOptions: domain.BuildOptions{
			Platforms: []domain.Platform{domain.PlatformMacOS},
			Jobs:      2,
		},
		BuildDir: "/tmp/build",
	}
}

func TestRunBuildsInDependencyOrder(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{
		"A": {"B", "C"},
		"B": {"D"},
		"C": {"D"},
	})

	var mu sync.Mutex
	var order []string
	f.builder.EXPECT().
		Build(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, node domain.BuildNode, _ domain.BuildOptions) ([]domain.BuiltArtifact, error) {
			mu.Lock()
			defer mu.Unlock()
			order = append(order, node.Dependency.Name())
			return nil, nil
		}).
		Times(4)
	f.store.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(4)
	f.binaries.EXPECT().Install(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("no release asset")).AnyTimes()

	opts := sourceOnlyOptions()
	err := f.sched.Run(context.Background(), resolvedGraph("A", "B", "C", "D"), opts)
	require.NoError(t, err)

	position := make(map[string]int)
	for i, name := range order {
		position[name] = i
	}
	assert.Less(t, position["D"], position["B"])
	assert.Less(t, position["D"], position["C"])
	assert.Less(t, position["B"], position["A"])
	assert.Less(t, position["C"], position["A"])
}

func TestRunSkipsCachedNodes(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{"A": {"B"}})

	f.store.EXPECT().Matches(gomock.Any(), gomock.Any()).Return(true, nil).Times(2)

	opts := sourceOnlyOptions()
	opts.CacheBuilds = true
	err := f.sched.Run(context.Background(), resolvedGraph("A", "B"), opts)
	require.NoError(t, err)

	kinds := f.events.kinds()
	assert.Equal(t, []domain.EventKind{
		domain.EventSkippedBuildingCached,
		domain.EventSkippedBuildingCached,
	}, kinds)
	assert.Equal(t, scheduler.StatusSkipped, f.sched.Status(hosted("A").Key()))
}

func TestRunRebuildsWhenDependencyCacheInvalid(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{"A": {"B"}})

	// B's fingerprint is stale; A's is valid but must rebuild transitively.
	f.store.EXPECT().Matches(gomock.Any(), gomock.Any()).
		DoAndReturn(func(node domain.BuildNode, _ domain.BuildOptions) (bool, error) {
			return node.Dependency.Name() == "A", nil
		}).Times(2)
	f.store.EXPECT().Recorded(gomock.Any()).Return(true).AnyTimes()
	f.binaries.EXPECT().Install(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("no release asset")).AnyTimes()
	f.builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(2)
	f.store.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	opts := sourceOnlyOptions()
	opts.CacheBuilds = true
	opts.UseBinaries = false
	err := f.sched.Run(context.Background(), resolvedGraph("A", "B"), opts)
	require.NoError(t, err)

	assert.Equal(t, scheduler.StatusBuilt, f.sched.Status(hosted("A").Key()))
	assert.Equal(t, scheduler.StatusBuilt, f.sched.Status(hosted("B").Key()))
}

func TestRunInstallsBinariesInsteadOfBuilding(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{})

	f.binaries.EXPECT().
		Install(gomock.Any(), gomock.Any(), domain.PinnedVersion("1.0.0"), gomock.Any()).
		Return(nil).
		Times(1)
	f.store.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	opts := sourceOnlyOptions()
	opts.UseBinaries = true
	err := f.sched.Run(context.Background(), resolvedGraph("A"), opts)
	require.NoError(t, err)

	assert.Equal(t, scheduler.StatusInstalled, f.sched.Status(hosted("A").Key()))
	assert.Contains(t, f.events.kinds(), domain.EventDownloadingBinaries)
}

func TestRunFallsThroughToSourceOnInstallFailure(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{})

	f.binaries.EXPECT().Install(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(errors.New("asset missing")).Times(1)
	f.builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).Times(1)
	f.store.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(1)

	opts := sourceOnlyOptions()
	opts.UseBinaries = true
	err := f.sched.Run(context.Background(), resolvedGraph("A"), opts)
	require.NoError(t, err)

	assert.Contains(t, f.events.kinds(), domain.EventSkippedInstallingBinaries)
	assert.Equal(t, scheduler.StatusBuilt, f.sched.Status(hosted("A").Key()))
}

func TestRunDowngradesMissingSharedSchemes(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{})

	f.builder.EXPECT().Build(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, domain.ErrNoSharedSchemes).Times(1)

	opts := sourceOnlyOptions()
	err := f.sched.Run(context.Background(), resolvedGraph("A"), opts)
	require.NoError(t, err)

	assert.Contains(t, f.events.kinds(), domain.EventSkippedBuilding)
}

func TestRunFailsOnCycle(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{
		"A": {"B"},
		"B": {"A"},
	})

	err := f.sched.Run(context.Background(), resolvedGraph("A", "B"), sourceOnlyOptions())
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCycleDetected))
}

func TestRunFilterRestrictsToReachableNodes(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{"A": {"B"}})

	var mu sync.Mutex
	var built []string
	f.builder.EXPECT().
		Build(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, node domain.BuildNode, _ domain.BuildOptions) ([]domain.BuiltArtifact, error) {
			mu.Lock()
			defer mu.Unlock()
			built = append(built, node.Dependency.Name())
			return nil, nil
		}).
		Times(2)
	f.store.EXPECT().Write(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil).Times(2)

	opts := sourceOnlyOptions()
	opts.DependencyFilter = []string{"A"}
	err := f.sched.Run(context.Background(), resolvedGraph("A", "B", "C"), opts)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"A", "B"}, built)
}

func TestRunFailurePreventsDependents(t *testing.T) {
	f := newFixture(t)
	f.declare(map[string][]string{"A": {"B"}})

	f.builder.EXPECT().
		Build(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, node domain.BuildNode, _ domain.BuildOptions) ([]domain.BuiltArtifact, error) {
			assert.Equal(t, "B", node.Dependency.Name(), "A must never build after B fails")
			return nil, errors.New("compile error")
		}).
		Times(1)

	err := f.sched.Run(context.Background(), resolvedGraph("A", "B"), sourceOnlyOptions())
	require.Error(t, err)
	assert.Equal(t, scheduler.StatusFailed, f.sched.Status(hosted("B").Key()))
}
