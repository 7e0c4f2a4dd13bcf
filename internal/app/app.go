// Package app implements the application layer for utica: the verbs exposed
// by the CLI, composed from the engines and adapters.
package app

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"go.trai.ch/utica/internal/adapters/binary"
	"go.trai.ch/utica/internal/adapters/cas"
	"go.trai.ch/utica/internal/adapters/git"
	"go.trai.ch/utica/internal/adapters/manifest"
	"go.trai.ch/utica/internal/adapters/metadata"
	"go.trai.ch/utica/internal/adapters/shell"
	"go.trai.ch/utica/internal/adapters/tui"
	"go.trai.ch/utica/internal/core/domain"
	"go.trai.ch/utica/internal/core/ports"
	"go.trai.ch/utica/internal/engine/checkout"
	"go.trai.ch/utica/internal/engine/resolver"
	"go.trai.ch/utica/internal/engine/scheduler"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
)

// Options carries the per-invocation settings shared by all verbs.
type Options struct {
	ProjectDirectory string
	NoTUI            bool
	UseNetrc         bool
	NoCheckout       bool
	NoBuild          bool
	LogPath          string

	Build domain.BuildOptions
}

// App represents the main application logic.
type App struct {
	loader ports.ConfigLoader
	logger ports.Logger
	runner git.Runner

	teaOptions []tea.ProgramOption
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, logger ports.Logger, runner git.Runner) *App {
	return &App{
		loader: loader,
		logger: logger,
		runner: runner,
	}
}

// WithTeaOptions adds bubbletea program options to the App.
// This is primarily used for testing to disable input/output.
func (a *App) WithTeaOptions(opts ...tea.ProgramOption) *App {
	a.teaOptions = append(a.teaOptions, opts...)
	return a
}

// components bundles the per-invocation collaborators. They share one
// metadata provider so the scheduler sees the same declarations the resolver
// cached.
type components struct {
	cfg      ports.ProjectConfig
	source   ports.SourceBackend
	binaries ports.BinaryBackend
	provider ports.DependencyProvider
	resolver *resolver.Resolver
	checkout *checkout.Engine
	sched    *scheduler.Scheduler
}

func (a *App) components(opts Options, sink ports.EventSink) (*components, error) {
	cfg, err := a.loader.Load(opts.ProjectDirectory)
	if err != nil {
		return nil, err
	}

	var creds binary.CredentialStore
	if opts.UseNetrc {
		store, err := binary.LoadNetrc(binary.DefaultNetrcPath())
		if err != nil {
			a.logger.Warn("failed to read netrc: " + err.Error())
		} else {
			creds = store
		}
	}

	source := git.NewBackend(cfg.CacheRoot, a.runner, sink)
	binaries := binary.NewBackend(cfg.CacheRoot, binary.NewClient(creds), a.logger)
	provider := metadata.NewProvider(source, binaries)

	buildDir := filepath.Join(cfg.ProjectDirectory, cfg.BuildDir)
	checkoutsDir := filepath.Join(cfg.ProjectDirectory, cfg.CheckoutsDir)
	builder := shell.NewBuilder(checkoutsDir, buildDir, a.logger)
	store := cas.NewStore(buildDir)

	return &components{
		cfg:      cfg,
		source:   source,
		binaries: binaries,
		provider: provider,
		resolver: resolver.New(provider),
		checkout: checkout.New(source, provider, sink),
		sched:    scheduler.NewScheduler(provider, binaries, builder, store, sink, a.logger),
	}, nil
}

// Update resolves the manifest, writes the lockfile, and provisions the
// result. dependenciesToUpdate restricts resolution to the named
// dependencies, keeping every other pin from the previous lockfile.
func (a *App) Update(ctx context.Context, opts Options, dependenciesToUpdate []string) error {
	return a.withEvents(opts, func(sink ports.EventSink) error {
		c, err := a.components(opts, sink)
		if err != nil {
			return err
		}

		roots, err := a.readManifests(c.cfg)
		if err != nil {
			return err
		}

		var lastResolved *domain.ResolvedGraph
		if recorded, err := manifest.ReadLockfile(a.lockfilePath(c.cfg)); err == nil {
			lastResolved = recorded
		}

		resolved, err := c.resolver.Resolve(ctx, roots, lastResolved, dependenciesToUpdate)
		if err != nil {
			return err
		}
		if err := manifest.WriteLockfile(a.lockfilePath(c.cfg), resolved); err != nil {
			return err
		}

		return a.provision(ctx, c, resolved, opts)
	})
}

// Bootstrap provisions the project from its recorded lockfile, falling back
// to a full update when no lockfile exists yet.
func (a *App) Bootstrap(ctx context.Context, opts Options) error {
	err := a.withEvents(opts, func(sink ports.EventSink) error {
		c, err := a.components(opts, sink)
		if err != nil {
			return err
		}

		resolved, err := manifest.ReadLockfile(a.lockfilePath(c.cfg))
		if err != nil {
			return err
		}

		return a.provision(ctx, c, resolved, opts)
	})
	if errors.Is(err, domain.ErrResolvedFileMissing) {
		a.logger.Info("no resolved file found, resolving dependencies")
		return a.Update(ctx, opts, nil)
	}
	return err
}

// Checkout materializes the lockfile's working trees without building.
func (a *App) Checkout(ctx context.Context, opts Options) error {
	return a.withEvents(opts, func(sink ports.EventSink) error {
		c, err := a.components(opts, sink)
		if err != nil {
			return err
		}

		resolved, err := manifest.ReadLockfile(a.lockfilePath(c.cfg))
		if err != nil {
			return err
		}

		return c.checkout.Run(ctx, resolved, checkout.Options{
			ProjectDirectory: c.cfg.ProjectDirectory,
			CheckoutsDir:     c.cfg.CheckoutsDir,
		})
	})
}

// Build runs the build scheduler over the recorded lockfile. filter names
// restrict the run to those dependencies and their transitive dependencies.
func (a *App) Build(ctx context.Context, opts Options, filter []string) error {
	return a.withEvents(opts, func(sink ports.EventSink) error {
		c, err := a.components(opts, sink)
		if err != nil {
			return err
		}

		resolved, err := manifest.ReadLockfile(a.lockfilePath(c.cfg))
		if err != nil {
			return err
		}

		return c.sched.Run(ctx, resolved, a.runOptions(c.cfg, opts, filter))
	})
}

// Validate checks that the lockfile still satisfies every constraint
// reachable from the manifest.
func (a *App) Validate(ctx context.Context, opts Options) error {
	return a.withEvents(opts, func(sink ports.EventSink) error {
		c, err := a.components(opts, sink)
		if err != nil {
			return err
		}

		roots, err := a.readManifests(c.cfg)
		if err != nil {
			return err
		}
		resolved, err := manifest.ReadLockfile(a.lockfilePath(c.cfg))
		if err != nil {
			return err
		}

		return validateResolved(ctx, c.provider, roots, resolved)
	})
}

func (a *App) provision(ctx context.Context, c *components, resolved *domain.ResolvedGraph, opts Options) error {
	if !opts.NoCheckout {
		err := c.checkout.Run(ctx, resolved, checkout.Options{
			ProjectDirectory: c.cfg.ProjectDirectory,
			CheckoutsDir:     c.cfg.CheckoutsDir,
		})
		if err != nil {
			return err
		}
	}

	if opts.NoBuild {
		return nil
	}
	return c.sched.Run(ctx, resolved, a.runOptions(c.cfg, opts, nil))
}

func (a *App) runOptions(cfg ports.ProjectConfig, opts Options, filter []string) scheduler.RunOptions {
	build := opts.Build
	if len(build.Platforms) == 0 {
		build.Platforms = cfg.Platforms
	}
	if len(build.Platforms) == 0 {
		build.Platforms = domain.AllPlatforms()
	}
	if build.Jobs <= 0 {
		build.Jobs = cfg.Jobs
	}

	return scheduler.RunOptions{
		BuildOptions:     build,
		BuildDir:         filepath.Join(cfg.ProjectDirectory, cfg.BuildDir),
		DependencyFilter: filter,
	}
}

func (a *App) lockfilePath(cfg ports.ProjectConfig) string {
	return filepath.Join(cfg.ProjectDirectory, manifest.ResolvedFileName)
}

// readManifests loads and merges Cartfile and Cartfile.private.
func (a *App) readManifests(cfg ports.ProjectConfig) ([]ports.Declared, error) {
	primary, err := a.readManifest(filepath.Join(cfg.ProjectDirectory, manifest.FileName), cfg.ProjectDirectory, true)
	if err != nil {
		return nil, err
	}
	private, err := a.readManifest(filepath.Join(cfg.ProjectDirectory, manifest.PrivateFileName), cfg.ProjectDirectory, false)
	if err != nil {
		return nil, err
	}

	merged, err := manifest.Merge(primary, private)
	if err != nil {
		return nil, err
	}

	roots := make([]ports.Declared, 0, len(merged.Entries))
	for _, entry := range merged.Entries {
		roots = append(roots, ports.Declared{Dependency: entry.Dependency, Specifier: entry.Specifier})
	}
	return roots, nil
}

func (a *App) readManifest(path, baseDir string, required bool) (*manifest.Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is rooted in the project directory
	if err != nil {
		if os.IsNotExist(err) && !required {
			return &manifest.Manifest{}, nil
		}
		return nil, zerr.With(zerr.Wrap(err, "failed to read manifest"), "path", path)
	}
	return manifest.Parse(data, baseDir)
}

// withEvents selects the event surface: a live TUI on a terminal, the plain
// logger otherwise, and runs work with the chosen sink.
func (a *App) withEvents(opts Options, work func(ports.EventSink) error) error {
	if opts.LogPath != "" {
		redirectable, ok := a.logger.(interface{ SetOutput(io.Writer) })
		if !ok {
			return zerr.With(zerr.New("logger does not support redirection"), "path", opts.LogPath)
		}
		//nolint:gosec // the log path is chosen by the user
		logFile, err := os.OpenFile(opts.LogPath, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "failed to open log file"), "path", opts.LogPath)
		}
		redirectable.SetOutput(logFile)
	}

	if opts.NoTUI || !term.IsTerminal(int(os.Stdout.Fd())) {
		return work(tui.NewLoggerSink(a.logger))
	}

	program := tea.NewProgram(tui.NewModel(), a.teaOptions...)
	sink := tui.NewSink(program)

	group := errgroup.Group{}
	group.Go(func() error {
		err := work(sink)
		program.Send(tui.DoneMsg{Err: err})
		return err
	})

	if _, err := program.Run(); err != nil {
		return err
	}
	return group.Wait()
}

// validateResolved walks every constraint reachable from the roots and
// checks the pinned versions against it.
func validateResolved(ctx context.Context, provider ports.DependencyProvider, roots []ports.Declared, resolved *domain.ResolvedGraph) error {
	check := func(declared ports.Declared, requiredBy string) error {
		if declared.Specifier.Kind == domain.SpecifierGitReference {
			// A branch or tag name cannot be checked against a pinned SHA
			// without re-resolving the ref; presence is the best we can do.
			if _, ok := resolved.Version(declared.Dependency); !ok {
				err := zerr.With(domain.ErrResolvedFileOutdated, "dependency", declared.Dependency.String())
				return zerr.With(err, "reason", "missing from the resolved file (required by "+requiredBy+")")
			}
			return nil
		}
		pinned, ok := resolved.Version(declared.Dependency)
		if !ok {
			err := zerr.With(domain.ErrResolvedFileOutdated, "dependency", declared.Dependency.String())
			return zerr.With(err, "reason", "missing from the resolved file (required by "+requiredBy+")")
		}
		if !declared.Specifier.Satisfied(pinned) {
			err := zerr.With(domain.ErrResolvedFileOutdated, "dependency", declared.Dependency.String())
			err = zerr.With(err, "pinned", pinned.String())
			return zerr.With(err, "specifier", declared.Specifier.String()+" (required by "+requiredBy+")")
		}
		return nil
	}

	for _, root := range roots {
		if err := check(root, "the manifest"); err != nil {
			return err
		}
	}

	for _, entry := range resolved.Entries() {
		declared, err := provider.DependenciesAt(ctx, entry.Dependency, entry.Version)
		if err != nil {
			return err
		}
		for _, child := range declared {
			if err := check(child, entry.Dependency.String()); err != nil {
				return err
			}
		}
	}
	return nil
}
