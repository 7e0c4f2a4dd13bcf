package binary

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

// selectAssets picks the asset URLs to install for one version. When
// preferXCFrameworks is set, xcframework-style assets outrank single-platform
// framework assets; within a tier, assets sharing a key (the file name with
// the framework/xcframework token stripped) are deduplicated keeping the
// earliest by file name.
func selectAssets(urls []string, preferXCFrameworks bool) []string {
	type candidate struct {
		url      string
		fileName string
		tier     int
	}

	candidates := make([]candidate, 0, len(urls))
	for _, assetURL := range urls {
		fileName := assetFileName(assetURL)
		tier := 0
		if preferXCFrameworks && !strings.Contains(fileName, ".xcframework") {
			tier = 1
		}
		candidates = append(candidates, candidate{url: assetURL, fileName: fileName, tier: tier})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].tier != candidates[j].tier {
			return candidates[i].tier < candidates[j].tier
		}
		return candidates[i].fileName < candidates[j].fileName
	})

	seen := make(map[string]bool)
	var selected []string
	for _, c := range candidates {
		key := assetKey(c.fileName)
		if seen[key] {
			continue
		}
		seen[key] = true
		selected = append(selected, c.url)
	}
	return selected
}

func assetKey(fileName string) string {
	key := strings.ReplaceAll(fileName, ".xcframework", "")
	return strings.ReplaceAll(key, ".framework", "")
}

// installArchive expands a zip archive, enumerates the candidate frameworks,
// and moves them into buildDir. Duplicate destination paths are a hard error,
// as is an archive with nothing recognizable.
func installArchive(archivePath, buildDir string) error {
	expanded, err := os.MkdirTemp("", "utica-archive-*")
	if err != nil {
		return zerr.Wrap(err, "failed to create expansion directory")
	}
	defer os.RemoveAll(expanded) //nolint:errcheck // best effort cleanup

	if err := expandZip(archivePath, expanded); err != nil {
		return err
	}

	bundles, err := findFrameworkBundles(expanded)
	if err != nil {
		return err
	}
	if len(bundles) == 0 {
		return zerr.With(domain.ErrNoFrameworksInArchive, "archive", filepath.Base(archivePath))
	}

	destinations := make(map[string]string, len(bundles))
	for _, bundle := range bundles {
		dest := filepath.Join(buildDir, installRelPath(expanded, bundle))
		if earlier, dup := destinations[dest]; dup {
			dupErr := zerr.With(domain.ErrDuplicateArchivePaths, "destination", dest)
			dupErr = zerr.With(dupErr, "first", earlier)
			return zerr.With(dupErr, "second", bundle)
		}
		destinations[dest] = bundle
	}

	for dest, bundle := range destinations {
		if err := os.MkdirAll(filepath.Dir(dest), dirPerm); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create output directory"), "path", dest)
		}
		if err := os.RemoveAll(dest); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to clear output path"), "path", dest)
		}
		if err := moveIntoPlace(bundle, dest); err != nil {
			return err
		}
	}
	return nil
}

// installRelPath preserves the archive's layout below any Carthage/Build
// segment so platform subdirectories survive; everything else installs flat.
func installRelPath(root, bundle string) string {
	rel, err := filepath.Rel(root, bundle)
	if err != nil {
		return filepath.Base(bundle)
	}
	parts := strings.Split(rel, string(filepath.Separator))
	for i := 0; i+1 < len(parts); i++ {
		if parts[i] == "Carthage" && parts[i+1] == "Build" {
			return filepath.Join(parts[i+2:]...)
		}
	}
	return filepath.Base(bundle)
}

func expandZip(archivePath, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open archive"), "path", archivePath)
	}
	defer reader.Close() //nolint:errcheck // best effort close

	for _, file := range reader.File {
		if err := extractZipEntry(file, dest); err != nil {
			return err
		}
	}
	return nil
}

func extractZipEntry(file *zip.File, dest string) error {
	cleaned := filepath.Clean(file.Name)
	if strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return zerr.With(zerr.New("archive entry escapes destination"), "entry", file.Name)
	}
	target := filepath.Join(dest, cleaned)

	if file.FileInfo().IsDir() {
		return os.MkdirAll(target, dirPerm)
	}

	if err := os.MkdirAll(filepath.Dir(target), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create archive directory"), "path", target)
	}

	src, err := file.Open()
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to read archive entry"), "entry", file.Name)
	}
	defer src.Close() //nolint:errcheck // best effort close

	if file.Mode()&os.ModeSymlink != 0 {
		linkTarget, err := io.ReadAll(src)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read symlink entry"), "entry", file.Name)
		}
		return os.Symlink(string(linkTarget), target)
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode().Perm()|0o200) //nolint:gosec // target is confined above
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create extracted file"), "path", target)
	}
	defer out.Close() //nolint:errcheck // best effort close

	if _, err := io.Copy(out, src); err != nil { //nolint:gosec // archive sizes are operator-controlled
		return zerr.With(zerr.Wrap(err, "failed to extract archive entry"), "entry", file.Name)
	}
	return nil
}

// findFrameworkBundles enumerates .framework and .xcframework bundles in the
// expanded tree, without descending into bundles.
func findFrameworkBundles(root string) ([]string, error) {
	var bundles []string
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		ext := filepath.Ext(d.Name())
		if ext == ".framework" || ext == ".xcframework" {
			bundles = append(bundles, path)
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, zerr.Wrap(err, "failed to enumerate archive contents")
	}
	sort.Strings(bundles)
	return bundles, nil
}

// moveIntoPlace renames src to dest, falling back to a copy and unlink when
// the rename crosses devices.
func moveIntoPlace(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	}
	if err := copyTree(src, dest); err != nil {
		return err
	}
	return os.RemoveAll(src)
}

func copyTree(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to stat source"), "path", src)
	}

	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read symlink"), "path", src)
		}
		return os.Symlink(target, dest)
	case info.IsDir():
		if err := os.MkdirAll(dest, info.Mode().Perm()); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", dest)
		}
		entries, err := os.ReadDir(src)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to read directory"), "path", src)
		}
		for _, entry := range entries {
			if err := copyTree(filepath.Join(src, entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
				return err
			}
		}
		return nil
	default:
		in, err := os.Open(src) //nolint:gosec // paths are derived from the cache layout
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open source"), "path", src)
		}
		defer in.Close() //nolint:errcheck // best effort close

		out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm()) //nolint:gosec // see above
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to create destination"), "path", dest)
		}
		defer out.Close() //nolint:errcheck // best effort close

		if _, err := io.Copy(out, in); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to copy file"), "path", dest)
		}
		return nil
	}
}
