package ports

// PackageCache defines the interface for finding library files in the local package cache.
//
//go:generate mockgen -source=package_cache.go -destination=mocks/mock_package_cache.go -package=mocks
type PackageCache interface {
	// Candidates returns the eligible library files of a package, sorted by path.
	// A package without a cache directory yields an empty slice and no error.
	Candidates(root, name, version string) ([]string, error)
	// Has reports whether the cache holds a directory for the package version.
	Has(root, name, version string) bool
}
