package binary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
)

// release is the subset of the hosting service's release document we consume.
type release struct {
	TagName    string         `json:"tag_name"`
	Draft      bool           `json:"draft"`
	Prerelease bool           `json:"prerelease"`
	Assets     []releaseAsset `json:"assets"`
}

type releaseAsset struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// installRelease downloads a matching release asset for a hosted dependency
// and installs its frameworks. No usable asset is reported as
// ErrNoMatchingBinaryVersion so the caller can fall through to a source
// build.
func (b *Backend) installRelease(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion, opts ports.BinaryInstallOptions) error {
	rel, err := b.fetchRelease(ctx, dep, version)
	if err != nil {
		return err
	}
	if rel.Draft {
		return zerr.With(zerr.With(domain.ErrNoMatchingBinaryVersion,
			"dependency", dep.String()), "reason", "release is a draft")
	}

	assets := selectReleaseAssets(rel.Assets, opts.PreferXCFrameworks)
	if len(assets) == 0 {
		return zerr.With(zerr.With(domain.ErrNoMatchingBinaryVersion,
			"dependency", dep.String()), "version", version.String())
	}

	for _, asset := range assets {
		cached := filepath.Join(b.cacheRoot, "binaries", dep.Name(), version.String(),
			fmt.Sprintf("%d-%s", asset.ID, asset.Name))
		if _, err := os.Stat(cached); err != nil {
			if err := b.downloadTo(ctx, asset.DownloadURL, cached); err != nil {
				return err
			}
		}
		if err := installArchive(cached, opts.BuildDir); err != nil {
			return zerr.With(err, "asset", asset.Name)
		}
	}
	return nil
}

// fetchRelease loads the release document for the pinned version, trying the
// tag both verbatim and with the conventional v prefix.
func (b *Backend) fetchRelease(ctx context.Context, dep domain.Dependency, version domain.PinnedVersion) (*release, error) {
	var lastErr error
	for _, tag := range []string{version.String(), "v" + version.String()} {
		var buf bytes.Buffer
		if err := b.client.Get(ctx, releaseAPIURL(dep, tag), &buf); err != nil {
			lastErr = err
			continue
		}

		var rel release
		if err := json.Unmarshal(buf.Bytes(), &rel); err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to parse release document"), "dependency", dep.String())
		}
		return &rel, nil
	}
	return nil, lastErr
}

func releaseAPIURL(dep domain.Dependency, tag string) string {
	if dep.Server.IsEnterprise() {
		return fmt.Sprintf("%s/api/v3/repos/%s/%s/releases/tags/%s", dep.Server.BaseURL, dep.Owner, dep.Repo, tag)
	}
	return fmt.Sprintf("https://api.github.com/repos/%s/%s/releases/tags/%s", dep.Owner, dep.Repo, tag)
}

// selectReleaseAssets narrows release assets to framework archives, applying
// the same tiering and key deduplication as binary-manifest assets.
func selectReleaseAssets(assets []releaseAsset, preferXCFrameworks bool) []releaseAsset {
	byName := make(map[string]releaseAsset, len(assets))
	var urls []string
	for _, asset := range assets {
		if !strings.HasSuffix(asset.Name, ".zip") || !strings.Contains(asset.Name, "framework") {
			continue
		}
		byName[asset.Name] = asset
		urls = append(urls, asset.Name)
	}

	selected := selectAssets(urls, preferXCFrameworks)
	result := make([]releaseAsset, 0, len(selected))
	for _, name := range selected {
		result = append(result, byName[name])
	}
	return result
}

// downloadTo fetches a URL into the cache path via a temp file.
func (b *Backend) downloadTo(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create binary cache directory"), "path", dest)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create download temp file"), "path", dest)
	}
	tmpName := tmp.Name()

	if err := b.client.Get(ctx, url, tmp); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to close download temp file"), "path", tmpName)
	}
	return moveIntoPlace(tmpName, dest)
}
