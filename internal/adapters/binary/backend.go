package binary

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
)

const dirPerm = 0o750

// Backend implements ports.BinaryBackend. Manifest documents are memoized per
// run; downloaded assets live in a content-addressed cache under
// <cacheRoot>/binaries and are reused when present.
type Backend struct {
	cacheRoot string
	client    *Client
	logger    ports.Logger

	mu        sync.Mutex
	manifests map[string]map[domain.PinnedVersion][]string
}

var _ ports.BinaryBackend = (*Backend)(nil)

// NewBackend creates a Backend rooted at cacheRoot.
func NewBackend(cacheRoot string, client *Client, logger ports.Logger) *Backend {
	return &Backend{
		cacheRoot: cacheRoot,
		client:    client,
		logger:    logger,
		manifests: make(map[string]map[domain.PinnedVersion][]string),
	}
}

// Versions enumerates the pinned versions the artifact manifest offers.
func (b *Backend) Versions(ctx context.Context, dep domain.Dependency) ([]domain.PinnedVersion, error) {
	doc, err := b.manifest(ctx, dep)
	if err != nil {
		return nil, err
	}

	versions := make([]domain.PinnedVersion, 0, len(doc))
	for version := range doc {
		versions = append(versions, version)
	}
	sort.Slice(versions, func(i, j int) bool {
		return domain.ComparePinned(versions[i], versions[j]) < 0
	})
	return versions, nil
}

// manifest fetches and memoizes the JSON document for dep.
func (b *Backend) manifest(ctx context.Context, dep domain.Dependency) (map[domain.PinnedVersion][]string, error) {
	b.mu.Lock()
	if doc, ok := b.manifests[dep.URL]; ok {
		b.mu.Unlock()
		return doc, nil
	}
	b.mu.Unlock()

	var buf bytes.Buffer
	if err := b.client.Get(ctx, dep.URL, &buf); err != nil {
		return nil, zerr.With(err, "dependency", dep.DisplayURL)
	}

	doc, err := parseManifestDocument(buf.Bytes())
	if err != nil {
		return nil, zerr.With(err, "dependency", dep.DisplayURL)
	}

	b.mu.Lock()
	b.manifests[dep.URL] = doc
	b.mu.Unlock()
	return doc, nil
}

// parseManifestDocument reads the binary JSON shape: version to asset URL,
// or version to a list of asset URLs.
func parseManifestDocument(data []byte) (map[domain.PinnedVersion][]string, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, zerr.Wrap(err, "failed to parse binary manifest")
	}

	doc := make(map[domain.PinnedVersion][]string, len(raw))
	for version, value := range raw {
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			doc[domain.PinnedVersion(version)] = []string{single}
			continue
		}
		var many []string
		if err := json.Unmarshal(value, &many); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse binary manifest entry"), "version", version)
		}
		doc[domain.PinnedVersion(version)] = many
	}
	return doc, nil
}

// Install provisions the binary artifacts for one resolved dependency.
// Binary dependencies install the assets their JSON manifest names; hosted
// dependencies install release assets from the hosting service.
func (b *Backend) Install(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion, opts ports.BinaryInstallOptions) error {
	if dep.Kind == domain.DependencyHosted {
		return b.installRelease(ctx, dep, version, opts)
	}

	doc, err := b.manifest(ctx, dep)
	if err != nil {
		return err
	}

	urls, ok := doc[version]
	if !ok || len(urls) == 0 {
		return zerr.With(zerr.With(domain.ErrNoMatchingBinaryVersion,
			"dependency", dep.DisplayURL), "version", version.String())
	}

	for _, assetURL := range selectAssets(urls, opts.PreferXCFrameworks) {
		archive, err := b.fetchAsset(ctx, dep, version, assetURL)
		if err != nil {
			return err
		}
		if err := installArchive(archive, opts.BuildDir); err != nil {
			return zerr.With(err, "asset", assetURL)
		}
	}
	return nil
}

// fetchAsset downloads one asset into the cache, reusing an existing entry.
func (b *Backend) fetchAsset(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion, assetURL string) (string, error) {
	cached := b.assetCachePath(dep, version, assetURL)
	if _, err := os.Stat(cached); err == nil {
		b.logger.Info("reusing cached binary asset " + filepath.Base(cached))
		return cached, nil
	}

	if err := b.downloadTo(ctx, assetURL, cached); err != nil {
		return "", err
	}
	return cached, nil
}

// assetCachePath derives <cacheRoot>/binaries/<name>/<version>/<base>-<sha256(url)>.<ext>.
func (b *Backend) assetCachePath(dep domain.Dependency, version domain.PinnedVersion, assetURL string) string {
	fileName := assetFileName(assetURL)
	ext := path.Ext(fileName)
	base := fileName[:len(fileName)-len(ext)]

	sum := sha256.Sum256([]byte(assetURL))
	return filepath.Join(b.cacheRoot, "binaries", dep.Name(), version.String(),
		base+"-"+hex.EncodeToString(sum[:])+ext)
}

func assetFileName(assetURL string) string {
	if parsed, err := url.Parse(assetURL); err == nil && parsed.Path != "" {
		return path.Base(parsed.Path)
	}
	return path.Base(assetURL)
}
