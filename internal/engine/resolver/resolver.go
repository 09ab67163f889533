// Package resolver turns the declared package references of a project into
// the library files that must be merged with it.
package resolver

import (
	"context"
	"slices"
	"strings"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
)

// Resolver selects one library file per declared package.
type Resolver struct {
	cache  ports.PackageCache
	filter *PluginFilter
	logger ports.Logger
}

// New creates a new Resolver.
func New(cache ports.PackageCache, filter *PluginFilter, logger ports.Logger) *Resolver {
	return &Resolver{cache: cache, filter: filter, logger: logger}
}

// Resolve walks decls in order. The SDK reference, packages missing from the
// cache, packages without a library for a supported framework and packages
// whose libraries are all plugins are skipped and logged. The only error is
// cancellation of ctx.
func (r *Resolver) Resolve(
	ctx context.Context,
	rc *Context,
	cfg domain.BuildConfiguration,
	decls []domain.DependencyDeclaration,
) (*domain.Resolution, error) {
	res := &domain.Resolution{Resolved: []domain.ResolvedDependency{}}
	seen := make(map[string]bool, len(decls))

	for _, decl := range decls {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		reason, path := r.resolveOne(rc, cfg, decl, seen)
		if reason != "" {
			res.Skipped = append(res.Skipped, domain.SkippedDependency{Declaration: decl, Reason: reason})
			continue
		}

		seen[strings.ToLower(decl.Name)] = true
		res.Resolved = append(res.Resolved, domain.ResolvedDependency{PackageName: decl.Name, FilePath: path})
		r.logger.Info("resolved " + decl.Name + " " + decl.VersionConstraint + " => " + path)
	}
	return res, nil
}

func (r *Resolver) resolveOne(
	rc *Context,
	cfg domain.BuildConfiguration,
	decl domain.DependencyDeclaration,
	seen map[string]bool,
) (domain.SkipReason, string) {
	label := decl.Name + " " + decl.VersionConstraint

	if decl.IsSDK(cfg.SDKSuffix) {
		r.logger.Info("skipping SDK reference " + label)
		return domain.SkipSDK, ""
	}
	if seen[strings.ToLower(decl.Name)] {
		r.logger.Warn("skipping repeated reference " + label)
		return domain.SkipDuplicate, ""
	}

	candidates, err := r.cache.Candidates(cfg.PackagesPath, decl.Name, decl.VersionConstraint)
	if err != nil {
		r.logger.Warn("cannot search package " + label + ": " + err.Error())
		return domain.SkipNotCached, ""
	}
	if len(candidates) == 0 {
		if !r.cache.Has(cfg.PackagesPath, decl.Name, decl.VersionConstraint) {
			r.logger.Warn("package " + label + " not found in " + cfg.PackagesPath)
			return domain.SkipNotCached, ""
		}
		r.logger.Warn("package " + label + " has no library for a supported framework")
		return domain.SkipNoLibrary, ""
	}

	eligible := slices.DeleteFunc(slices.Clone(candidates), func(path string) bool {
		return r.filter.IsPlugin(rc, path)
	})
	if len(eligible) == 0 {
		r.logger.Info("skipping plugin package " + label)
		return domain.SkipPlugin, ""
	}

	slices.Sort(eligible)
	return "", eligible[0]
}
