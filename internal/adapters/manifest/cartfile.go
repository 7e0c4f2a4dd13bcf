// Package manifest implements the line-oriented Cartfile codec: the declared
// manifest, the private overlay, and the pinned lockfile.
package manifest

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// FileName is the primary manifest file name.
	FileName = "Cartfile"
	// PrivateFileName is the private overlay manifest file name.
	PrivateFileName = "Cartfile.private"
	// ResolvedFileName is the lockfile file name.
	ResolvedFileName = "Cartfile.resolved"
)

// Entry is one declared dependency with its version constraint.
type Entry struct {
	Dependency domain.Dependency
	Specifier  domain.VersionSpecifier
}

// Manifest is a parsed Cartfile. Entry order is the file order.
type Manifest struct {
	Entries []Entry
}

// Parse reads a manifest from its textual form. baseDir resolves bare binary
// paths; when empty, bare paths are rejected.
func Parse(data []byte, baseDir string) (*Manifest, error) {
	m := &Manifest{}
	seen := make(map[domain.InternedString]bool)

	for _, rawLine := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(stripComment(rawLine))
		if line == "" {
			continue
		}

		entry, err := parseEntry(line, baseDir)
		if err != nil {
			return nil, err
		}

		key := entry.Dependency.Key()
		if seen[key] {
			return nil, parseError(zerr.With(domain.ErrDuplicateDependencies,
				"dependency", entry.Dependency.String()), rawLine)
		}
		seen[key] = true
		m.Entries = append(m.Entries, entry)
	}

	return m, nil
}

func parseEntry(line, baseDir string) (Entry, error) {
	s := newScanner(line)
	kind := s.word()

	identifier, err := s.quoted()
	if err != nil {
		return Entry{}, parseError(err, line)
	}

	var dep domain.Dependency
	switch kind {
	case "github":
		dep, err = parseGitHubIdentifier(identifier)
	case "git":
		dep = domain.NewGitDependency(identifier)
	case "binary":
		dep, err = parseBinaryIdentifier(identifier, baseDir)
	default:
		err = zerr.With(zerr.New("unknown dependency type"), "type", kind)
	}
	if err != nil {
		return Entry{}, parseError(err, line)
	}

	spec, err := parseSpecifier(s.remainder())
	if err != nil {
		return Entry{}, parseError(err, line)
	}

	return Entry{Dependency: dep, Specifier: spec}, nil
}

func parseGitHubIdentifier(identifier string) (domain.Dependency, error) {
	if parsed, err := url.Parse(identifier); err == nil && parsed.Scheme != "" && parsed.Host != "" {
		parts := strings.Split(strings.Trim(parsed.Path, "/"), "/")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			server := domain.Server{}
			if !strings.EqualFold(parsed.Host, domain.PrimaryHost) {
				server = domain.Server{BaseURL: parsed.Scheme + "://" + parsed.Host}
			}
			return domain.NewHostedDependency(server, parts[0], parts[1]), nil
		}
		return domain.Dependency{}, zerr.With(domain.ErrInvalidGitHubIdentifier, "identifier", identifier)
	}

	parts := strings.Split(identifier, "/")
	if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
		return domain.NewHostedDependency(domain.Server{}, parts[0], parts[1]), nil
	}
	return domain.Dependency{}, zerr.With(domain.ErrInvalidGitHubIdentifier, "identifier", identifier)
}

func parseBinaryIdentifier(identifier, baseDir string) (domain.Dependency, error) {
	parsed, err := url.Parse(identifier)
	if err != nil {
		return domain.Dependency{}, zerr.With(domain.ErrInvalidBinaryURL, "identifier", identifier)
	}

	switch parsed.Scheme {
	case "https", "file":
		return domain.NewBinaryDependency(identifier, identifier), nil
	case "":
		if baseDir == "" {
			return domain.Dependency{}, zerr.With(domain.ErrInvalidBinaryURL, "identifier", identifier)
		}
		resolved := identifier
		if !filepath.IsAbs(resolved) {
			resolved = filepath.Join(baseDir, resolved)
		}
		return domain.NewBinaryDependency("file://"+resolved, identifier), nil
	default:
		return domain.Dependency{}, zerr.With(domain.ErrInvalidBinaryURL, "identifier", identifier)
	}
}

func parseSpecifier(raw string) (domain.VersionSpecifier, error) {
	if raw == "" {
		return domain.AnySpecifier(), nil
	}

	if strings.HasPrefix(raw, `"`) {
		ref, err := newScanner(raw).quoted()
		if err != nil {
			return domain.VersionSpecifier{}, err
		}
		return domain.GitReference(ref), nil
	}

	for prefix, build := range map[string]func(domain.SemanticVersion) domain.VersionSpecifier{
		"~>": domain.CompatibleWith,
		">=": domain.AtLeast,
		"==": domain.Exactly,
	} {
		rest, found := strings.CutPrefix(raw, prefix)
		if !found {
			continue
		}
		version, err := domain.ParseSemanticVersion(strings.TrimSpace(rest))
		if err != nil {
			return domain.VersionSpecifier{}, err
		}
		return build(version), nil
	}

	return domain.VersionSpecifier{}, zerr.With(domain.ErrInvalidSpecifier, "specifier", raw)
}

// Merge combines the primary and private manifests. Both declaring the same
// dependency is a hard error carrying the duplicate list.
func Merge(primary, private *Manifest) (*Manifest, error) {
	if private == nil || len(private.Entries) == 0 {
		return primary, nil
	}

	keys := make(map[domain.InternedString]bool, len(primary.Entries))
	for _, entry := range primary.Entries {
		keys[entry.Dependency.Key()] = true
	}

	var duplicates []string
	merged := &Manifest{Entries: append([]Entry(nil), primary.Entries...)}
	for _, entry := range private.Entries {
		if keys[entry.Dependency.Key()] {
			duplicates = append(duplicates, entry.Dependency.String())
			continue
		}
		merged.Entries = append(merged.Entries, entry)
	}

	if len(duplicates) > 0 {
		return nil, zerr.With(domain.ErrDuplicateDependencies, "dependencies", strings.Join(duplicates, ", "))
	}
	return merged, nil
}

// Serialize renders the manifest back to its textual form.
func (m *Manifest) Serialize() []byte {
	var b strings.Builder
	for _, entry := range m.Entries {
		b.WriteString(entry.Dependency.String())
		if suffix := specifierSuffix(entry.Specifier); suffix != "" {
			b.WriteString(" ")
			b.WriteString(suffix)
		}
		b.WriteString("\n")
	}
	return []byte(b.String())
}

func specifierSuffix(spec domain.VersionSpecifier) string {
	switch spec.Kind {
	case domain.SpecifierAny:
		return ""
	case domain.SpecifierGitReference:
		return fmt.Sprintf("%q", spec.Ref)
	default:
		return spec.String()
	}
}

// Roots returns the manifest's declarations as the resolver's root
// constraint set.
func (m *Manifest) Roots() map[domain.InternedString]Entry {
	roots := make(map[domain.InternedString]Entry, len(m.Entries))
	for _, entry := range m.Entries {
		roots[entry.Dependency.Key()] = entry
	}
	return roots
}
