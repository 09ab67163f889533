// Package app implements the application layer for plugpack.
package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"go.trai.ch/plugpack/internal/adapters/detector"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/plugpack/internal/engine/merger"
	"go.trai.ch/plugpack/internal/engine/resolver"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader  ports.ConfigLoader
	projectLoader ports.ProjectLoader
	resolver      *resolver.Resolver
	locator       ports.ArtifactLocator
	merger        *merger.Orchestrator
	store         ports.BuildInfoStore
	hasher        ports.Hasher
	watcher       ports.Watcher
	logger        ports.Logger
	workDir       string
	now           func() time.Time
}

// New creates a new App instance.
func New(
	configLoader ports.ConfigLoader,
	projectLoader ports.ProjectLoader,
	res *resolver.Resolver,
	locator ports.ArtifactLocator,
	orchestrator *merger.Orchestrator,
	store ports.BuildInfoStore,
	hasher ports.Hasher,
	watcher ports.Watcher,
	log ports.Logger,
) *App {
	return &App{
		configLoader:  configLoader,
		projectLoader: projectLoader,
		resolver:      res,
		locator:       locator,
		merger:        orchestrator,
		store:         store,
		hasher:        hasher,
		watcher:       watcher,
		logger:        log,
		now:           time.Now,
	}
}

// WithWorkDir pins the working directory instead of the process's current one.
// This is primarily used for testing.
func (a *App) WithWorkDir(dir string) *App {
	a.workDir = dir
	return a
}

// PackOptions configuration for the Pack method.
type PackOptions struct {
	NoCache bool
	Publish bool
	// Watch packs again whenever files below the working directory change.
	// Publish applies to the first pack only.
	Watch bool
}

// ResolveReport is the outcome of resolving a project without merging it.
type ResolveReport struct {
	Project           string `yaml:"project"`
	domain.Resolution `yaml:",inline"`
}

// Pack resolves the project's dependencies and merges them with the
// published plugin into one binary.
func (a *App) Pack(ctx context.Context, opts PackOptions) error {
	if opts.Watch {
		return a.watch(ctx, opts)
	}
	return a.pack(ctx, opts)
}

//nolint:cyclop // orchestration function
func (a *App) pack(ctx context.Context, opts PackOptions) error {
	// 1. Load configuration and project
	cfg, project, err := a.load()
	if err != nil {
		return err
	}

	// 2. Resolve dependencies
	res, err := a.resolve(ctx, cfg, project)
	if err != nil {
		return err
	}

	// 3. Publish
	if opts.Publish {
		if err := a.merger.Publish(ctx, cfg); err != nil {
			return err
		}
	}

	// 4. Locate the primary artifact
	primary, err := a.locator.Locate(cfg.WorkingDirectory, project.ArtifactName())
	if err != nil {
		return err
	}

	// 5. Check the build info
	inputHash, err := a.hasher.ComputeInputHash(append(res.Paths(), primary))
	if err != nil {
		return zerr.Wrap(err, "failed to hash merge inputs")
	}
	if !opts.NoCache && a.upToDate(cfg, inputHash) {
		a.logger.Info("plugin is up to date: " + cfg.OutputPath)
		return nil
	}

	// 6. Merge
	result, err := a.merger.Merge(ctx, cfg, res.Resolved, primary)
	if err != nil {
		return err
	}
	if !result.Succeeded {
		return domain.ErrMergeFailed
	}

	// 7. Record the build info
	a.record(cfg, inputHash)
	return nil
}

// watch packs once and then again after every burst of changes until ctx is
// done. Failed packs are reported and do not end the watch.
func (a *App) watch(ctx context.Context, opts PackOptions) error {
	cfg, _, err := a.load()
	if err != nil {
		return err
	}

	a.packAndReport(ctx, opts)
	opts.Publish = false

	ignores := []string{domain.StateDirName, "obj", filepath.Base(filepath.Dir(cfg.OutputPath))}
	a.logger.Info("watching " + cfg.WorkingDirectory + " for changes")
	return a.watcher.Watch(ctx, cfg.WorkingDirectory, ignores, func(paths []string) {
		a.logger.Info(strconv.Itoa(len(paths)) + " files changed")
		a.packAndReport(ctx, opts)
	})
}

func (a *App) packAndReport(ctx context.Context, opts PackOptions) {
	err := a.pack(ctx, opts)
	if err != nil && !errors.Is(err, domain.ErrMergeFailed) {
		a.logger.Error(err)
	}
}

// Resolve reports which dependencies would be bundled with the project.
func (a *App) Resolve(ctx context.Context) (*ResolveReport, error) {
	cfg, project, err := a.load()
	if err != nil {
		return nil, err
	}
	res, err := a.resolve(ctx, cfg, project)
	if err != nil {
		return nil, err
	}
	return &ResolveReport{Project: project.Name, Resolution: *res}, nil
}

// Clean removes the state directory of the working directory.
func (a *App) Clean(_ context.Context) error {
	cwd, err := a.cwd()
	if err != nil {
		return err
	}
	path := domain.DefaultStatePath(cwd)

	a.logger.Info("removing " + path + "...")
	if err := os.RemoveAll(path); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrCleanFailed.Error()), "path", path)
	}
	a.logger.Info("removed " + path)
	return nil
}

// SetLogFormat selects the log output format. "auto" picks JSON only for
// non-interactive CI runs.
func (a *App) SetLogFormat(format string) error {
	requested, err := detector.ParseFormat(format)
	if err != nil {
		return err
	}
	sw, ok := a.logger.(interface{ SetJSON(enable bool) })
	if !ok {
		return nil
	}
	sw.SetJSON(detector.Resolve(requested, detector.Current()) == detector.FormatJSON)
	return nil
}

func (a *App) load() (domain.BuildConfiguration, *domain.Project, error) {
	cwd, err := a.cwd()
	if err != nil {
		return domain.BuildConfiguration{}, nil, err
	}
	cfg, err := a.configLoader.Load(cwd)
	if err != nil {
		return domain.BuildConfiguration{}, nil, err
	}
	project, err := a.projectLoader.Load(cwd)
	if err != nil {
		return domain.BuildConfiguration{}, nil, err
	}
	return cfg.WithProject(project), project, nil
}

func (a *App) resolve(
	ctx context.Context,
	cfg domain.BuildConfiguration,
	project *domain.Project,
) (*domain.Resolution, error) {
	a.logger.Info("resolving " + strconv.Itoa(len(project.Dependencies)) + " package references of " + project.Name)
	res, err := a.resolver.Resolve(ctx, resolver.NewContext(cfg.PluginBaseType), cfg, project.Dependencies)
	if err != nil {
		return nil, err
	}
	a.logger.Info("resolved " + strconv.Itoa(len(res.Resolved)) + " dependencies")
	return res, nil
}

// upToDate reports whether the stored build info matches the inputs and the
// output on disk is unchanged since it was written.
func (a *App) upToDate(cfg domain.BuildConfiguration, inputHash string) bool {
	info, err := a.store.Get(cfg.WorkingDirectory, cfg.OutputPath)
	if err != nil {
		a.logger.Warn("ignoring build info: " + err.Error())
		return false
	}
	if info == nil || info.InputHash != inputHash {
		return false
	}
	outputHash, err := a.hasher.ComputeFileHash(cfg.OutputPath)
	if err != nil {
		return false
	}
	return outputHash == info.OutputHash
}

func (a *App) record(cfg domain.BuildConfiguration, inputHash string) {
	outputHash, err := a.hasher.ComputeFileHash(cfg.OutputPath)
	if err != nil {
		a.logger.Warn("build info not recorded: " + err.Error())
		return
	}
	info := domain.BuildInfo{
		OutputPath: cfg.OutputPath,
		InputHash:  inputHash,
		OutputHash: outputHash,
		Timestamp:  a.now(),
	}
	if err := a.store.Put(cfg.WorkingDirectory, info); err != nil {
		a.logger.Warn("build info not recorded: " + err.Error())
	}
}

func (a *App) cwd() (string, error) {
	if a.workDir != "" {
		return a.workDir, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", zerr.Wrap(err, "failed to get working directory")
	}
	return cwd, nil
}
