// Package checkout materializes resolved dependencies into working trees and
// maintains the nested symlink tree that lets dependencies find each other.
package checkout

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/zerr"
)

const dirPerm = 0o750

// Options configures a checkout run.
type Options struct {
	// ProjectDirectory is the root the checkouts directory lives under.
	ProjectDirectory string
	// CheckoutsDir is the working-tree directory relative to the root.
	CheckoutsDir string
}

// Engine implements the checkout pass over a resolved graph. It is
// idempotent: rerunning over the same lockfile converges to the same on-disk
// state and replaces stale symlinks from earlier runs.
type Engine struct {
	source   ports.SourceBackend
	provider ports.DependencyProvider
	events   ports.EventSink
}

// New creates a checkout Engine.
func New(source ports.SourceBackend, provider ports.DependencyProvider, events ports.EventSink) *Engine {
	return &Engine{source: source, provider: provider, events: events}
}

// Run checks out every source dependency of the resolved graph and rebuilds
// the symlink tree. Dependencies are processed sequentially: submodule
// population is not safe to parallelize against one superproject.
func (e *Engine) Run(ctx context.Context, resolved *domain.ResolvedGraph, opts Options) error {
	for _, entry := range resolved.Entries() {
		if entry.Dependency.Kind == domain.DependencyBinary {
			continue
		}
		if err := e.checkoutDependency(ctx, entry, opts); err != nil {
			return err
		}
	}

	return e.linkCheckouts(ctx, resolved, opts)
}

func (e *Engine) checkoutDependency(ctx context.Context, entry domain.ResolvedEntry, opts Options) error {
	repoDir, err := e.source.EnsureMirror(ctx, entry.Dependency, entry.Version.String())
	if err != nil {
		return err
	}

	e.events.Publish(domain.ProjectEvent{
		Kind:       domain.EventCheckingOut,
		Dependency: entry.Dependency,
		Revision:   entry.Version.String(),
	})

	workDir := filepath.Join(opts.ProjectDirectory, opts.CheckoutsDir, entry.Dependency.Name())
	if err := os.RemoveAll(workDir); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to clear working tree"), "path", workDir)
	}
	if err := e.source.Checkout(ctx, workDir, repoDir, entry.Version.String()); err != nil {
		return err
	}

	return e.populateSubmodules(ctx, repoDir, workDir, entry.Version.String())
}

// populateSubmodules recursively clones each submodule at its recorded SHA
// into the working tree.
func (e *Engine) populateSubmodules(ctx context.Context, repoDir, workDir, revision string) error {
	submodules, err := e.source.Submodules(ctx, repoDir, revision)
	if err != nil {
		return err
	}

	for _, submodule := range submodules {
		subDep := domain.NewGitDependency(submodule.URL)
		subRepoDir, err := e.source.EnsureMirror(ctx, subDep, submodule.SHA)
		if err != nil {
			return err
		}

		subWorkDir := filepath.Join(workDir, filepath.FromSlash(submodule.Path))
		if err := os.RemoveAll(subWorkDir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to clear submodule tree"), "path", subWorkDir)
		}
		if err := e.source.Checkout(ctx, subWorkDir, subRepoDir, submodule.SHA); err != nil {
			return err
		}

		if err := e.populateSubmodules(ctx, subRepoDir, subWorkDir, submodule.SHA); err != nil {
			return err
		}
	}
	return nil
}

// linkCheckouts ensures every dependency's nested checkouts directory links
// back toward the root checkouts, so relative references inside a dependency
// resolve against the shared working trees.
func (e *Engine) linkCheckouts(ctx context.Context, resolved *domain.ResolvedGraph, opts Options) error {
	checkoutsRoot := filepath.Join(opts.ProjectDirectory, opts.CheckoutsDir)

	for _, entry := range resolved.Entries() {
		if entry.Dependency.Kind == domain.DependencyBinary {
			continue
		}

		declared, err := e.provider.DependenciesAt(ctx, entry.Dependency, entry.Version)
		if err != nil {
			return err
		}

		nestedDir := filepath.Join(checkoutsRoot, entry.Dependency.Name(), filepath.FromSlash(opts.CheckoutsDir))
		for _, child := range declared {
			if child.Dependency.Kind == domain.DependencyBinary {
				continue
			}
			if err := e.linkDependency(nestedDir, checkoutsRoot, child.Dependency.Name()); err != nil {
				return err
			}
		}
	}
	return nil
}

func (e *Engine) linkDependency(nestedDir, checkoutsRoot, childName string) error {
	if committedFileBlocks(nestedDir, childName) {
		return nil
	}

	linkPath := filepath.Join(nestedDir, childName)
	info, err := os.Lstat(linkPath)
	switch {
	case err == nil && info.Mode()&os.ModeSymlink == 0 && info.IsDir():
		// A real directory the dependency vendored itself is left alone.
		return nil
	case err == nil && info.Mode()&os.ModeSymlink != 0:
		if err := os.Remove(linkPath); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to replace stale symlink"), "path", linkPath)
		}
	case err != nil && !os.IsNotExist(err):
		return zerr.With(zerr.Wrap(err, "failed to inspect symlink path"), "path", linkPath)
	}

	if err := os.MkdirAll(nestedDir, dirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create nested checkouts directory"), "path", nestedDir)
	}

	target, err := filepath.Rel(nestedDir, filepath.Join(checkoutsRoot, childName))
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to derive symlink target"), "path", linkPath)
	}
	if err := os.Symlink(target, linkPath); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create symlink"), "path", linkPath)
	}
	return nil
}

// committedFileBlocks reports whether the dependency committed a file into
// its checkouts directory whose name collides case-insensitively with the
// sub-dependency; such files are never overwritten.
func committedFileBlocks(nestedDir, childName string) bool {
	entries, err := os.ReadDir(nestedDir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !strings.EqualFold(entry.Name(), childName) {
			continue
		}
		if entry.Type()&os.ModeSymlink != 0 {
			continue
		}
		if !entry.IsDir() {
			return true
		}
	}
	return false
}
