package binary_test

import (
	"archive/zip"
	"bytes"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/utica/internal/adapters/binary"
	"go.trai.ch/utica/internal/adapters/logger"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
)

// frameworkZip builds an archive containing one framework bundle under the
// conventional build layout.
func frameworkZip(t *testing.T, name string) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	binaryFile, err := w.Create("Carthage/Build/iOS/" + name + ".framework/" + name)
	require.NoError(t, err)
	_, err = binaryFile.Write([]byte("machine code"))
	require.NoError(t, err)

	plist, err := w.Create("Carthage/Build/iOS/" + name + ".framework/Info.plist")
	require.NoError(t, err)
	_, err = plist.Write([]byte("<plist/>"))
	require.NoError(t, err)

	require.NoError(t, w.Close())
	return buf.Bytes()
}

func TestVersionsFromManifest(t *testing.T) {
	var manifestFetches atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		manifestFetches.Add(1)
		_, _ = w.Write([]byte(`{"1.0.0": "https://example.com/a.framework.zip", "2.0.0": "https://example.com/b.framework.zip"}`))
	}))
	defer server.Close()

	backend := binary.NewBackend(t.TempDir(), binary.NewClient(nil), logger.New())
	dep := domain.NewBinaryDependency(server.URL+"/spec.json", "spec.json")

	versions, err := backend.Versions(t.Context(), dep)
	require.NoError(t, err)
	assert.Equal(t, []domain.PinnedVersion{"1.0.0", "2.0.0"}, versions)

	// The document is memoized per run.
	_, err = backend.Versions(t.Context(), dep)
	require.NoError(t, err)
	assert.Equal(t, int64(1), manifestFetches.Load())
}

func TestInstallBinaryDependency(t *testing.T) {
	archive := frameworkZip(t, "Widget")
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/spec.json", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"1.0.0": "` + server.URL + `/Widget.framework.zip"}`))
	})
	var assetFetches atomic.Int64
	mux.HandleFunc("/Widget.framework.zip", func(w http.ResponseWriter, _ *http.Request) {
		assetFetches.Add(1)
		_, _ = w.Write(archive)
	})

	cacheRoot := t.TempDir()
	buildDir := t.TempDir()
	backend := binary.NewBackend(cacheRoot, binary.NewClient(nil), logger.New())
	dep := domain.NewBinaryDependency(server.URL+"/spec.json", "spec.json")

	opts := ports.BinaryInstallOptions{BuildDir: buildDir}
	require.NoError(t, backend.Install(t.Context(), dep, "1.0.0", opts))

	installed := filepath.Join(buildDir, "iOS", "Widget.framework", "Widget")
	data, err := os.ReadFile(installed)
	require.NoError(t, err)
	assert.Equal(t, "machine code", string(data))

	// A second install reuses the cached asset.
	require.NoError(t, backend.Install(t.Context(), dep, "1.0.0", opts))
	assert.Equal(t, int64(1), assetFetches.Load())
}

func TestInstallUnknownVersion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"1.0.0": "https://example.com/a.framework.zip"}`))
	}))
	defer server.Close()

	backend := binary.NewBackend(t.TempDir(), binary.NewClient(nil), logger.New())
	dep := domain.NewBinaryDependency(server.URL+"/spec.json", "spec.json")

	err := backend.Install(t.Context(), dep, "9.9.9", ports.BinaryInstallOptions{BuildDir: t.TempDir()})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoMatchingBinaryVersion)
}

func TestManifestFromFileURL(t *testing.T) {
	dir := t.TempDir()
	specPath := filepath.Join(dir, "spec.json")
	require.NoError(t, os.WriteFile(specPath, []byte(`{"3.0.0": "https://example.com/x.framework.zip"}`), 0o600))

	backend := binary.NewBackend(t.TempDir(), binary.NewClient(nil), logger.New())
	dep := domain.NewBinaryDependency("file://"+specPath, "spec.json")

	versions, err := backend.Versions(t.Context(), dep)
	require.NoError(t, err)
	assert.Equal(t, []domain.PinnedVersion{"3.0.0"}, versions)
}

func TestLoadNetrcFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".netrc")
	content := "machine api.example.com\n  login alice\n  password wonderland\ndefault login bob password builder\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	store, err := binary.LoadNetrc(path)
	require.NoError(t, err)

	login, password, ok := store.Lookup("api.example.com")
	assert.True(t, ok)
	assert.Equal(t, "alice", login)
	assert.Equal(t, "wonderland", password)

	login, _, ok = store.Lookup("unknown.example.com")
	assert.True(t, ok)
	assert.Equal(t, "bob", login)

	missing, err := binary.LoadNetrc(filepath.Join(t.TempDir(), "absent"))
	require.NoError(t, err)
	_, _, ok = missing.Lookup("api.example.com")
	assert.False(t, ok)
}
