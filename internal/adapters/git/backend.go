package git

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/semaphore"
)

const dirPerm = 0o750

// Backend implements ports.SourceBackend. Mirrors live under
// <cacheRoot>/dependencies/<name>; fetches are deduplicated per remote URL
// for the lifetime of the process and bounded by min(GOMAXPROCS, 4).
type Backend struct {
	cacheRoot string
	runner    Runner
	events    ports.EventSink

	sem *semaphore.Weighted

	mu      sync.Mutex
	fetched map[string]bool
	remotes map[string]*sync.Mutex
}

var _ ports.SourceBackend = (*Backend)(nil)

// NewBackend creates a Backend rooted at cacheRoot.
func NewBackend(cacheRoot string, runner Runner, events ports.EventSink) *Backend {
	limit := runtime.GOMAXPROCS(0)
	if limit > 4 {
		limit = 4
	}
	return &Backend{
		cacheRoot: cacheRoot,
		runner:    runner,
		events:    events,
		sem:       semaphore.NewWeighted(int64(limit)),
		fetched:   make(map[string]bool),
		remotes:   make(map[string]*sync.Mutex),
	}
}

// MirrorDir returns the mirror path for a dependency.
func (b *Backend) MirrorDir(dep domain.Dependency) string {
	return filepath.Join(b.cacheRoot, "dependencies", dep.Name())
}

// EnsureMirror guarantees a current bare mirror for dep and returns its path.
func (b *Backend) EnsureMirror(ctx context.Context, dep domain.Dependency, commitish string) (string, error) {
	remote := dep.RemoteURL()
	lock := b.remoteLock(remote)
	lock.Lock()
	defer lock.Unlock()

	repoDir := b.MirrorDir(dep)
	if _, err := os.Stat(repoDir); err != nil {
		if !os.IsNotExist(err) {
			return "", zerr.With(zerr.Wrap(err, "failed to stat mirror"), "path", repoDir)
		}
		if err := b.clone(ctx, dep, remote, repoDir); err != nil {
			return "", err
		}
		return repoDir, nil
	}

	if err := b.fetchIfNeeded(ctx, dep, remote, repoDir, commitish); err != nil {
		return "", err
	}
	return repoDir, nil
}

func (b *Backend) remoteLock(remote string) *sync.Mutex {
	b.mu.Lock()
	defer b.mu.Unlock()
	lock, ok := b.remotes[remote]
	if !ok {
		lock = &sync.Mutex{}
		b.remotes[remote] = lock
	}
	return lock
}

func (b *Backend) clone(ctx context.Context, dep domain.Dependency, remote, repoDir string) error {
	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.sem.Release(1)

	if err := os.MkdirAll(filepath.Dir(repoDir), dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create mirror root"), "path", repoDir)
	}

	b.events.Publish(domain.ProjectEvent{Kind: domain.EventCloning, Dependency: dep})
	if _, err := b.runner.Run(ctx, "", nil, "clone", "--bare", "--quiet", remote, repoDir); err != nil {
		// A failed clone must not leave a half-populated mirror behind.
		_ = os.RemoveAll(repoDir)
		return err
	}

	b.markFetched(remote)
	return nil
}

func (b *Backend) fetchIfNeeded(ctx context.Context, dep domain.Dependency, remote, repoDir, commitish string) error {
	if b.alreadyFetched(remote) {
		return nil
	}
	if commitish != "" && b.hasCommit(ctx, repoDir, commitish) && !b.isBranch(ctx, repoDir, commitish) {
		return nil
	}

	if err := b.sem.Acquire(ctx, 1); err != nil {
		return err
	}
	defer b.sem.Release(1)

	b.events.Publish(domain.ProjectEvent{Kind: domain.EventFetching, Dependency: dep})
	_, err := b.runner.Run(ctx, repoDir, nil,
		"fetch", "--prune", "--quiet", remote,
		"+refs/heads/*:refs/heads/*", "+refs/tags/*:refs/tags/*")
	if err != nil {
		return err
	}

	b.markFetched(remote)
	return nil
}

func (b *Backend) alreadyFetched(remote string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetched[remote]
}

func (b *Backend) markFetched(remote string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetched[remote] = true
}

func (b *Backend) hasCommit(ctx context.Context, repoDir, commitish string) bool {
	_, err := b.runner.Run(ctx, repoDir, nil, "rev-parse", "--quiet", "--verify", commitish+"^{object}")
	return err == nil
}

func (b *Backend) isBranch(ctx context.Context, repoDir, commitish string) bool {
	_, err := b.runner.Run(ctx, repoDir, nil, "show-ref", "--verify", "--quiet", "refs/heads/"+commitish)
	return err == nil
}

// Tags enumerates tag refs.
func (b *Backend) Tags(ctx context.Context, repoDir string) ([]string, error) {
	out, err := b.runner.Run(ctx, repoDir, nil, "tag", "--list")
	if err != nil {
		return nil, err
	}

	var tags []string
	for _, line := range strings.Split(out, "\n") {
		if tag := strings.TrimSpace(line); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags, nil
}

// ResolveRef resolves ref to a commit SHA, preferring an exact tag match.
func (b *Backend) ResolveRef(ctx context.Context, repoDir, ref string) (string, error) {
	if out, err := b.runner.Run(ctx, repoDir, nil, "rev-parse", "--quiet", "--verify", "refs/tags/"+ref+"^{commit}"); err == nil {
		return strings.TrimSpace(out), nil
	}

	out, err := b.runner.Run(ctx, repoDir, nil, "rev-parse", "--quiet", "--verify", ref+"^{commit}")
	if err != nil {
		return "", zerr.With(err, "ref", ref)
	}
	return strings.TrimSpace(out), nil
}

// FileAtRevision reads a file blob at a revision. A path absent from the tree
// returns empty contents and no error.
func (b *Backend) FileAtRevision(ctx context.Context, repoDir, path, revision string) ([]byte, error) {
	if _, err := b.runner.Run(ctx, repoDir, nil, "cat-file", "-e", revision+":"+path); err != nil {
		return nil, nil
	}

	out, err := b.runner.Run(ctx, repoDir, nil, "show", revision+":"+path)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// Checkout populates workDir with the tree at revision using the mirror as
// the object store.
func (b *Backend) Checkout(ctx context.Context, workDir, repoDir, revision string) error {
	if err := os.MkdirAll(workDir, dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create working tree"), "path", workDir)
	}

	env := []string{
		"GIT_WORK_TREE=" + workDir,
		"GIT_INDEX_FILE=" + filepath.Join(workDir, ".git-checkout-index"),
	}
	if _, err := b.runner.Run(ctx, repoDir, env, "checkout", "--quiet", "--force", revision); err != nil {
		return err
	}
	_ = os.Remove(filepath.Join(workDir, ".git-checkout-index"))
	return nil
}

// Submodules enumerates the submodules recorded at revision.
func (b *Backend) Submodules(ctx context.Context, repoDir, revision string) ([]domain.Submodule, error) {
	data, err := b.FileAtRevision(ctx, repoDir, ".gitmodules", revision)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	submodules := parseGitmodules(string(data))
	for i := range submodules {
		sha, err := b.submoduleSHA(ctx, repoDir, revision, submodules[i].Path)
		if err != nil {
			return nil, err
		}
		submodules[i].SHA = sha
	}
	return submodules, nil
}

func (b *Backend) submoduleSHA(ctx context.Context, repoDir, revision, path string) (string, error) {
	out, err := b.runner.Run(ctx, repoDir, nil, "ls-tree", revision, "--", path)
	if err != nil {
		return "", err
	}

	// Format: <mode> SP <type> SP <sha> TAB <path>
	fields := strings.Fields(strings.TrimSpace(out))
	if len(fields) < 3 || fields[1] != "commit" {
		return "", zerr.With(zerr.New("submodule entry is not a gitlink"), "path", path)
	}
	return fields[2], nil
}

// parseGitmodules reads the .gitmodules sections we care about: name, path,
// and url per submodule.
func parseGitmodules(content string) []domain.Submodule {
	var submodules []domain.Submodule
	var current *domain.Submodule

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if name, ok := strings.CutPrefix(line, `[submodule "`); ok {
			if current != nil {
				submodules = append(submodules, *current)
			}
			current = &domain.Submodule{Name: strings.TrimSuffix(name, `"]`)}
			continue
		}
		if current == nil {
			continue
		}
		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}
		switch strings.TrimSpace(key) {
		case "path":
			current.Path = strings.TrimSpace(value)
		case "url":
			current.URL = strings.TrimSpace(value)
		}
	}
	if current != nil {
		submodules = append(submodules, *current)
	}
	return submodules
}
