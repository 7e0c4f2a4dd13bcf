package checkout_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/utica/internal/core/ports/mocks"
	"go.trai.ch/utica/internal/engine/checkout"
	"go.uber.org/mock/gomock"
)

func hosted(name string) domain.Dependency {
	return domain.NewHostedDependency(domain.Server{}, "acme", name)
}

func discardEvents() ports.EventSink {
	return ports.EventSinkFunc(func(domain.ProjectEvent) {})
}

// fixtureBackend wires a source backend whose Checkout writes a marker file
// into the working tree.
func fixtureBackend(t *testing.T, ctrl *gomock.Controller) *mocks.MockSourceBackend {
	t.Helper()
	source := mocks.NewMockSourceBackend(ctrl)
	source.EXPECT().EnsureMirror(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dep domain.Dependency, _ string) (string, error) {
			return "/mirrors/" + dep.Name(), nil
		}).AnyTimes()
	source.EXPECT().Checkout(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, workDir, _, _ string) error {
			if err := os.MkdirAll(workDir, 0o750); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(workDir, "README.md"), []byte("checked out"), 0o600)
		}).AnyTimes()
	source.EXPECT().Submodules(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	return source
}

func declaring(ctrl *gomock.Controller, edges map[string][]string) *mocks.MockDependencyProvider {
	provider := mocks.NewMockDependencyProvider(ctrl)
	provider.EXPECT().DependenciesAt(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dep domain.Dependency, _ domain.PinnedVersion) ([]ports.Declared, error) {
			var declared []ports.Declared
			for _, child := range edges[dep.Name()] {
				declared = append(declared, ports.Declared{Dependency: hosted(child), Specifier: domain.AnySpecifier()})
			}
			return declared, nil
		}).AnyTimes()
	return provider
}

func TestRunCreatesWorkingTreesAndSymlinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := fixtureBackend(t, ctrl)
	provider := declaring(ctrl, map[string][]string{"Parent": {"Child"}})

	root := t.TempDir()
	engine := checkout.New(source, provider, discardEvents())

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("Parent"), "1.0.0")
	resolved.Pin(hosted("Child"), "2.0.0")

	opts := checkout.Options{ProjectDirectory: root, CheckoutsDir: "Carthage/Checkouts"}
	require.NoError(t, engine.Run(context.Background(), resolved, opts))

	// Working trees exist.
	assert.FileExists(t, filepath.Join(root, "Carthage/Checkouts/Parent/README.md"))
	assert.FileExists(t, filepath.Join(root, "Carthage/Checkouts/Child/README.md"))

	// Parent's nested checkouts dir links back to the shared Child tree.
	link := filepath.Join(root, "Carthage/Checkouts/Parent/Carthage/Checkouts/Child")
	info, err := os.Lstat(link)
	require.NoError(t, err)
	assert.NotZero(t, info.Mode()&os.ModeSymlink)

	resolvedPath, err := filepath.EvalSymlinks(link)
	require.NoError(t, err)
	expected, err := filepath.EvalSymlinks(filepath.Join(root, "Carthage/Checkouts/Child"))
	require.NoError(t, err)
	assert.Equal(t, expected, resolvedPath)
}

func TestRunIsIdempotentAndReplacesStaleSymlinks(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := fixtureBackend(t, ctrl)
	provider := declaring(ctrl, map[string][]string{"Parent": {"Child"}})

	root := t.TempDir()
	engine := checkout.New(source, provider, discardEvents())

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("Parent"), "1.0.0")
	resolved.Pin(hosted("Child"), "2.0.0")

	opts := checkout.Options{ProjectDirectory: root, CheckoutsDir: "Carthage/Checkouts"}
	require.NoError(t, engine.Run(context.Background(), resolved, opts))

	// Point the symlink somewhere stale, then rerun.
	link := filepath.Join(root, "Carthage/Checkouts/Parent/Carthage/Checkouts/Child")
	require.NoError(t, os.Remove(link))
	require.NoError(t, os.Symlink("/nowhere", link))

	require.NoError(t, engine.Run(context.Background(), resolved, opts))

	target, err := os.Readlink(link)
	require.NoError(t, err)
	assert.NotEqual(t, "/nowhere", target)
}

func TestRunLeavesCommittedFilesAlone(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := declaring(ctrl, map[string][]string{"Parent": {"Child"}})

	source := mocks.NewMockSourceBackend(ctrl)
	source.EXPECT().EnsureMirror(gomock.Any(), gomock.Any(), gomock.Any()).Return("/mirror", nil).AnyTimes()
	source.EXPECT().Submodules(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil).AnyTimes()
	source.EXPECT().Checkout(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, workDir, _, _ string) error {
			// Parent commits a real file where the symlink would go,
			// with different casing.
			nested := filepath.Join(workDir, "Carthage", "Checkouts")
			if err := os.MkdirAll(nested, 0o750); err != nil {
				return err
			}
			return os.WriteFile(filepath.Join(nested, "child"), []byte("vendored"), 0o600)
		}).AnyTimes()

	root := t.TempDir()
	engine := checkout.New(source, provider, discardEvents())

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("Parent"), "1.0.0")
	resolved.Pin(hosted("Child"), "2.0.0")

	opts := checkout.Options{ProjectDirectory: root, CheckoutsDir: "Carthage/Checkouts"}
	require.NoError(t, engine.Run(context.Background(), resolved, opts))

	// The committed file survives and no symlink was created over it.
	vendored := filepath.Join(root, "Carthage/Checkouts/Parent/Carthage/Checkouts/child")
	data, err := os.ReadFile(vendored)
	require.NoError(t, err)
	assert.Equal(t, "vendored", string(data))

	_, err = os.Lstat(filepath.Join(root, "Carthage/Checkouts/Parent/Carthage/Checkouts/Child"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSkipsBinaryDependencies(t *testing.T) {
	ctrl := gomock.NewController(t)
	source := mocks.NewMockSourceBackend(ctrl)
	provider := declaring(ctrl, nil)

	resolved := domain.NewResolvedGraph()
	resolved.Pin(domain.NewBinaryDependency("https://example.com/spec.json", "spec.json"), "1.0.0")

	engine := checkout.New(source, provider, discardEvents())
	opts := checkout.Options{ProjectDirectory: t.TempDir(), CheckoutsDir: "Carthage/Checkouts"}
	require.NoError(t, engine.Run(context.Background(), resolved, opts))
}

func TestRunPopulatesSubmodulesRecursively(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := declaring(ctrl, nil)

	source := mocks.NewMockSourceBackend(ctrl)
	source.EXPECT().EnsureMirror(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, dep domain.Dependency, _ string) (string, error) {
			return "/mirrors/" + dep.Name(), nil
		}).AnyTimes()
	source.EXPECT().Checkout(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, workDir, _, _ string) error {
			return os.MkdirAll(workDir, 0o750)
		}).AnyTimes()

	// Parent has one submodule; the submodule itself has none.
	source.EXPECT().Submodules(gomock.Any(), "/mirrors/Parent", "1.0.0").
		Return([]domain.Submodule{{
			Name: "dep",
			Path: "vendor/dep",
			URL:  "https://example.com/dep.git",
			SHA:  "cafebabe",
		}}, nil)
	source.EXPECT().Submodules(gomock.Any(), "/mirrors/dep", "cafebabe").Return(nil, nil)

	root := t.TempDir()
	engine := checkout.New(source, provider, discardEvents())

	resolved := domain.NewResolvedGraph()
	resolved.Pin(hosted("Parent"), "1.0.0")

	opts := checkout.Options{ProjectDirectory: root, CheckoutsDir: "Carthage/Checkouts"}
	require.NoError(t, engine.Run(context.Background(), resolved, opts))

	assert.DirExists(t, filepath.Join(root, "Carthage/Checkouts/Parent/vendor/dep"))
}