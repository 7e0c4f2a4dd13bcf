// Package cas implements the version-file protocol: the per-artifact
// fingerprint documents that drive cache invalidation, with content hashes of
// the built framework binaries.
package cas

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	dirPerm  = 0o750
	filePerm = 0o644
)

// FrameworkEntry records one built framework bundle and the content hash of
// its binary.
type FrameworkEntry struct {
	Name string `json:"name"`
	Hash string `json:"hash"`
}

// VersionFile is the on-disk fingerprint document stored next to each built
// artifact.
type VersionFile struct {
	Commitish             string `json:"commitish"`
	Configuration         string `json:"configuration,omitempty"`
	ToolchainIdentifier   string `json:"toolchainIdentifier,omitempty"`
	SwiftToolchainVersion string `json:"swiftToolchainVersion,omitempty"`

	Mac     []FrameworkEntry `json:"Mac,omitempty"`
	IOS     []FrameworkEntry `json:"iOS,omitempty"`
	TvOS    []FrameworkEntry `json:"tvOS,omitempty"`
	WatchOS []FrameworkEntry `json:"watchOS,omitempty"`
}

func (v *VersionFile) entries(platform domain.Platform) []FrameworkEntry {
	switch platform {
	case domain.PlatformMacOS:
		return v.Mac
	case domain.PlatformIOS:
		return v.IOS
	case domain.PlatformTvOS:
		return v.TvOS
	default:
		return v.WatchOS
	}
}

func (v *VersionFile) setEntries(platform domain.Platform, entries []FrameworkEntry) {
	switch platform {
	case domain.PlatformMacOS:
		v.Mac = entries
	case domain.PlatformIOS:
		v.IOS = entries
	case domain.PlatformTvOS:
		v.TvOS = entries
	default:
		v.WatchOS = entries
	}
}

// Store implements ports.VersionFileStore over a build output directory.
type Store struct {
	buildDir string
}

var _ ports.VersionFileStore = (*Store)(nil)

// NewStore creates a Store writing version files into buildDir.
func NewStore(buildDir string) *Store {
	return &Store{buildDir: filepath.Clean(buildDir)}
}

// Path returns the version-file path for a dependency:
// <buildDir>/.<name>.version.
func (s *Store) Path(dep domain.Dependency) string {
	return filepath.Join(s.buildDir, "."+dep.Name()+".version")
}

// Recorded reports whether a version file exists for the node.
func (s *Store) Recorded(node domain.BuildNode) bool {
	_, err := os.Stat(s.Path(node.Dependency))
	return err == nil
}

// Matches reports whether the recorded fingerprint equals the current
// invocation. A missing or malformed file is a mismatch, not an error.
func (s *Store) Matches(node domain.BuildNode, opts domain.BuildOptions) (bool, error) {
	data, err := os.ReadFile(s.Path(node.Dependency)) //nolint:gosec // path derives from the build directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, zerr.With(zerr.Wrap(err, "failed to read version file"), "path", s.Path(node.Dependency))
	}

	var recorded VersionFile
	if err := json.Unmarshal(data, &recorded); err != nil {
		return false, nil
	}

	if recorded.Commitish != node.Version.String() ||
		recorded.Configuration != opts.Configuration ||
		recorded.ToolchainIdentifier != opts.ToolchainIdentifier ||
		recorded.SwiftToolchainVersion != opts.SwiftToolchainVersion {
		return false, nil
	}

	for _, platform := range opts.Platforms {
		entries := recorded.entries(platform)
		if len(entries) == 0 {
			return false, nil
		}
		for _, entry := range entries {
			current, err := s.hashArtifact(platform, entry.Name)
			if err != nil || current != entry.Hash {
				return false, nil
			}
		}
	}
	return true, nil
}

// Write records the fingerprint for a freshly built node.
func (s *Store) Write(node domain.BuildNode, opts domain.BuildOptions, artifacts []domain.BuiltArtifact) error {
	file := VersionFile{
		Commitish:             node.Version.String(),
		Configuration:         opts.Configuration,
		ToolchainIdentifier:   opts.ToolchainIdentifier,
		SwiftToolchainVersion: opts.SwiftToolchainVersion,
	}

	byPlatform := make(map[domain.Platform][]FrameworkEntry)
	for _, artifact := range artifacts {
		hash, err := hashFile(artifact.BinaryPath)
		if err != nil {
			return err
		}
		byPlatform[artifact.Platform] = append(byPlatform[artifact.Platform],
			FrameworkEntry{Name: artifact.Name, Hash: hash})
	}
	for platform, entries := range byPlatform {
		file.setEntries(platform, entries)
	}

	data, err := json.MarshalIndent(&file, "", "  ")
	if err != nil {
		return zerr.Wrap(err, "failed to marshal version file")
	}

	path := s.Path(node.Dependency)
	if err := os.MkdirAll(filepath.Dir(path), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create build directory"), "path", path)
	}
	if err := os.WriteFile(path, data, filePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write version file"), "path", path)
	}
	return nil
}

// hashArtifact hashes the on-disk binary for a recorded framework name.
func (s *Store) hashArtifact(platform domain.Platform, name string) (string, error) {
	binary := filepath.Join(s.buildDir, string(platform), name+".framework", name)
	if _, err := os.Stat(binary); err != nil {
		// An xcframework installs at the build root; its Info.plist indexes
		// every contained binary, which makes it a stable content probe.
		binary = filepath.Join(s.buildDir, name+".xcframework", "Info.plist")
	}
	return hashFile(binary)
}

// hashFile computes the xxhash of a file's content.
func hashFile(path string) (string, error) {
	f, err := os.Open(path) //nolint:gosec // path is controlled by caller
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to open artifact"), "path", path)
	}
	defer f.Close() //nolint:errcheck // best effort close in defer

	hasher := xxhash.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to hash artifact"), "path", path)
	}
	return fmt.Sprintf("%016x", hasher.Sum64()), nil
}
