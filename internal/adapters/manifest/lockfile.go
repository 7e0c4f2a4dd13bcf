package manifest

import (
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

// ParseLockfile reads a Cartfile.resolved: the manifest line grammar with
// every entry terminated by an exact pinned form.
func ParseLockfile(data []byte, baseDir string) (*domain.ResolvedGraph, error) {
	graph := domain.NewResolvedGraph()

	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(stripComment(rawLine))
		if line == "" {
			continue
		}

		entry, err := parseEntry(line, baseDir)
		if err != nil {
			return nil, err
		}
		if entry.Specifier.Kind != domain.SpecifierGitReference {
			return nil, parseError(zerr.With(domain.ErrInvalidSpecifier,
				"reason", "lockfile entries must carry an exact pinned version"), rawLine)
		}

		graph.Pin(entry.Dependency, domain.PinnedVersion(entry.Specifier.Ref))
	}

	return graph, nil
}

// SerializeLockfile renders the resolved graph in canonical sort order.
func SerializeLockfile(graph *domain.ResolvedGraph) []byte {
	var b strings.Builder
	for _, entry := range graph.Entries() {
		b.WriteString(entry.Dependency.String())
		b.WriteString(" \"")
		b.WriteString(entry.Version.String())
		b.WriteString("\"\n")
	}
	return []byte(b.String())
}

// ReadLockfile loads and parses the lockfile at path.
func ReadLockfile(path string) (*domain.ResolvedGraph, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from the project directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, zerr.With(domain.ErrResolvedFileMissing, "path", path)
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read resolved file"), "path", path)
	}
	return ParseLockfile(data, filepath.Dir(path))
}

// WriteLockfile writes the resolved graph atomically: a temp file in the
// destination directory, synced, renamed into place, and the directory
// synced so the rename survives a crash.
func WriteLockfile(path string, graph *domain.ResolvedGraph) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ResolvedFileName+".*")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temp resolved file"), "path", path)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(SerializeLockfile(graph)); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to write resolved file"), "path", tmpName)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to sync resolved file"), "path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to close resolved file"), "path", tmpName)
	}

	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return zerr.With(zerr.Wrap(err, "failed to replace resolved file"), "path", path)
	}

	return syncDir(dir)
}

// syncDir flushes the directory entry so a completed rename is durable.
func syncDir(dir string) error {
	d, err := os.Open(dir) //nolint:gosec // dir is the resolved file's parent
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to open resolved file directory"), "path", dir)
	}
	defer d.Close() //nolint:errcheck // best effort close in defer

	if err := d.Sync(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to sync resolved file directory"), "path", dir)
	}
	return nil
}
