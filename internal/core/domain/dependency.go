package domain

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// PrimaryHost is the hosting service assumed for bare owner/name identifiers.
const PrimaryHost = "github.com"

// Server identifies the hosting service of a hosted repository.
// The zero value is the primary service; an enterprise installation carries
// its base URL.
type Server struct {
	BaseURL string
}

// IsEnterprise reports whether the server is an enterprise installation.
func (s Server) IsEnterprise() bool {
	return s.BaseURL != ""
}

func (s Server) String() string {
	if s.IsEnterprise() {
		return s.BaseURL
	}
	return "https://" + PrimaryHost
}

// DependencyKind discriminates the variants of Dependency.
type DependencyKind int

const (
	// DependencyHosted is a repository on a well-known host, addressed as owner/name.
	DependencyHosted DependencyKind = iota
	// DependencyGit is an arbitrary VCS repository addressed by URL.
	DependencyGit
	// DependencyBinary is a JSON artifact manifest addressed by URL.
	DependencyBinary
)

// Dependency identifies a single declared dependency. It is a closed sum:
// exactly the fields of the active Kind are meaningful.
type Dependency struct {
	Kind DependencyKind

	// Hosted
	Server Server
	Owner  string
	Repo   string

	// Git
	GitURL string

	// Binary. URL is the fully resolved form; DisplayURL preserves the
	// user-written form for error messages.
	URL        string
	DisplayURL string
}

// NewHostedDependency returns a Hosted dependency on the given server.
func NewHostedDependency(server Server, owner, repo string) Dependency {
	return Dependency{Kind: DependencyHosted, Server: server, Owner: owner, Repo: repo}
}

// NewGitDependency returns a dependency for an arbitrary VCS URL.
// URLs recognizable as primary-host repositories are canonicalized to Hosted,
// so that `git "ssh://git@github.com:owner/name"` and `github "owner/name"`
// compare equal.
func NewGitDependency(rawURL string) Dependency {
	if owner, repo, ok := hostedFromGitURL(rawURL); ok {
		return NewHostedDependency(Server{}, owner, repo)
	}
	return Dependency{Kind: DependencyGit, GitURL: rawURL}
}

// NewBinaryDependency returns a Binary dependency.
func NewBinaryDependency(resolvedURL, displayURL string) Dependency {
	return Dependency{Kind: DependencyBinary, URL: resolvedURL, DisplayURL: displayURL}
}

// hostedFromGitURL recognizes the primary-host URL shapes that address a
// hosted repository.
func hostedFromGitURL(rawURL string) (owner, repo string, ok bool) {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git")
	prefixes := []string{
		"ssh://git@" + PrimaryHost + ":",
		"ssh://git@" + PrimaryHost + "/",
		"git@" + PrimaryHost + ":",
		"https://" + PrimaryHost + "/",
	}
	for _, prefix := range prefixes {
		rest, found := strings.CutPrefix(trimmed, prefix)
		if !found {
			continue
		}
		parts := strings.Split(rest, "/")
		if len(parts) == 2 && parts[0] != "" && parts[1] != "" {
			return parts[0], parts[1], true
		}
	}
	return "", "", false
}

// Key returns the normalized identity of the dependency. Two dependencies are
// the same iff their keys are equal; hosted identifiers compare
// case-insensitively the way the hosting services treat them.
func (d Dependency) Key() InternedString {
	switch d.Kind {
	case DependencyHosted:
		return NewInternedString(fmt.Sprintf("hosted:%s/%s/%s",
			strings.ToLower(d.Server.String()), strings.ToLower(d.Owner), strings.ToLower(d.Repo)))
	case DependencyGit:
		return NewInternedString("git:" + normalizeGitURL(d.GitURL))
	default:
		return NewInternedString("binary:" + d.URL)
	}
}

func normalizeGitURL(rawURL string) string {
	trimmed := strings.TrimSuffix(strings.TrimSuffix(rawURL, "/"), ".git")
	if parsed, err := url.Parse(trimmed); err == nil && parsed.Host != "" {
		return strings.ToLower(parsed.Host) + parsed.Path
	}
	return trimmed
}

// String renders the dependency in its manifest form. Lockfile entries are
// sorted by this representation.
func (d Dependency) String() string {
	switch d.Kind {
	case DependencyHosted:
		if d.Server.IsEnterprise() {
			return fmt.Sprintf("github %q", d.Server.BaseURL+"/"+d.Owner+"/"+d.Repo)
		}
		return fmt.Sprintf("github %q", d.Owner+"/"+d.Repo)
	case DependencyGit:
		return fmt.Sprintf("git %q", d.GitURL)
	default:
		return fmt.Sprintf("binary %q", d.DisplayURL)
	}
}

// RemoteURL returns the URL used for clone and fetch operations.
func (d Dependency) RemoteURL() string {
	switch d.Kind {
	case DependencyHosted:
		return d.Server.String() + "/" + d.Owner + "/" + d.Repo + ".git"
	case DependencyGit:
		return d.GitURL
	default:
		return d.URL
	}
}

// Name derives the filesystem-safe label for the dependency. The result never
// contains a path separator or NUL and is never "." or "..", so it cannot
// escape the checkout root.
func (d Dependency) Name() string {
	switch d.Kind {
	case DependencyHosted:
		return sanitizeName(d.Repo)
	case DependencyGit:
		component := lastPathComponent(d.GitURL)
		if stripped := strings.TrimSuffix(component, ".git"); stripped != "" {
			component = stripped
		}
		return sanitizeName(component)
	default:
		base := d.URL
		if parsed, err := url.Parse(d.URL); err == nil && parsed.Path != "" {
			base = parsed.Path
		}
		component := lastPathComponent(base)
		return sanitizeName(strings.TrimSuffix(component, path.Ext(component)))
	}
}

// lastPathComponent strips trailing separators, then takes everything after
// the final one.
func lastPathComponent(s string) string {
	s = strings.TrimRight(s, "/")
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

// sanitizeName projects a raw component out of path-traversal semantics.
// The sentinel names "." and ".." become their fullwidth equivalents and NUL
// bytes become the NUL symbol.
func sanitizeName(name string) string {
	switch name {
	case ".":
		return "．"
	case "..":
		return "．．"
	}
	return strings.ReplaceAll(name, "\x00", "␀")
}
