// Package nuget locates library files in the local NuGet package cache.
package nuget

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	fsadapter "go.trai.ch/plugpack/internal/adapters/fs"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.PackageCache = (*Cache)(nil)

// Cache implements ports.PackageCache over the global packages folder layout
// <root>/<id>/<version>/lib/<framework>/*.dll.
type Cache struct {
	walker *fsadapter.Walker
}

// NewCache creates a new Cache.
func NewCache(walker *fsadapter.Walker) *Cache {
	return &Cache{walker: walker}
}

// PackageDir returns the cache directory of one package version.
// The packages folder stores ids and versions lower-cased.
func PackageDir(root, name, version string) string {
	return filepath.Join(root, strings.ToLower(name), strings.ToLower(version))
}

// Has reports whether the cache holds a directory for the package version.
func (c *Cache) Has(root, name, version string) bool {
	info, err := os.Stat(PackageDir(root, name, version))
	return err == nil && info.IsDir()
}

// Candidates returns the eligible library files of a package, sorted by path.
func (c *Cache) Candidates(root, name, version string) ([]string, error) {
	dir := PackageDir(root, name, version)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []string{}, nil
		}
		return nil, c.searchErr(err, name, version)
	}

	candidates := []string{}
	for path, err := range c.walker.WalkFiles(dir, nil) {
		if err != nil {
			return nil, c.searchErr(err, name, version)
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			continue
		}
		if IsEligible(filepath.ToSlash(rel)) {
			candidates = append(candidates, path)
		}
	}

	slices.Sort(candidates)
	return candidates, nil
}

// IsEligible reports whether a slash-separated path relative to a package
// directory is a library for a supported framework.
func IsEligible(rel string) bool {
	if !strings.EqualFold(filepath.Ext(rel), domain.AssemblyExt) {
		return false
	}

	segments := strings.Split(rel, "/")
	if !slices.Contains(segments[:len(segments)-1], domain.LibDirName) {
		return false
	}

	for _, framework := range domain.SupportedFrameworks {
		if strings.Contains(rel, framework) {
			return true
		}
	}
	return false
}

// SelectCandidate returns the first candidate in lexicographic order.
func SelectCandidate(candidates []string) (string, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return slices.Min(candidates), true
}

func (c *Cache) searchErr(err error, name, version string) error {
	err = zerr.Wrap(err, domain.ErrPackageSearchFailed.Error())
	err = zerr.With(err, "package", name)
	return zerr.With(err, "version", version)
}
