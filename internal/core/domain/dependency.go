// Package domain defines the core types shared by the plugin packer.
package domain

import "strings"

// DependencyDeclaration is a package reference declared by the project.
type DependencyDeclaration struct {
	Name              string `yaml:"name"`
	VersionConstraint string `yaml:"version"`
}

// IsSDK reports whether the declaration refers to the host SDK identified by suffix.
// The comparison ignores case.
func (d DependencyDeclaration) IsSDK(suffix string) bool {
	if suffix == "" {
		return false
	}
	return strings.HasSuffix(strings.ToLower(d.Name), strings.ToLower(suffix))
}

// ResolvedDependency is the single library file selected for a declared package.
type ResolvedDependency struct {
	PackageName string `yaml:"package"`
	FilePath    string `yaml:"path"`
}

// SkipReason explains why a declaration produced no resolved dependency.
type SkipReason string

const (
	// SkipSDK marks the host SDK reference.
	SkipSDK SkipReason = "sdk"
	// SkipNotCached marks a package with no directory in the package cache.
	SkipNotCached SkipReason = "not-cached"
	// SkipNoLibrary marks a package with no library for a supported framework.
	SkipNoLibrary SkipReason = "no-library"
	// SkipPlugin marks a package whose only libraries are plugins.
	SkipPlugin SkipReason = "plugin"
	// SkipDuplicate marks a repeated declaration of an already resolved package.
	SkipDuplicate SkipReason = "duplicate"
)

// SkippedDependency records a declaration that was left out of the bundle.
type SkippedDependency struct {
	Declaration DependencyDeclaration `yaml:",inline"`
	Reason      SkipReason            `yaml:"reason"`
}

// Resolution is the outcome of resolving every declaration of a project.
type Resolution struct {
	Resolved []ResolvedDependency `yaml:"resolved"`
	Skipped  []SkippedDependency  `yaml:"skipped,omitempty"`
}

// Paths returns the resolved file paths in resolution order.
func (r *Resolution) Paths() []string {
	paths := make([]string, 0, len(r.Resolved))
	for _, dep := range r.Resolved {
		paths = append(paths, dep.FilePath)
	}
	return paths
}
