package ports

import "context"

// Watcher defines the interface for watching file system changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Watch watches root recursively, skipping directories whose base name
	// matches one of the ignore patterns. After each quiet period following
	// a burst of changes it calls onChange with the changed paths, one call
	// at a time. Watch blocks until ctx is done.
	Watch(ctx context.Context, root string, ignores []string, onChange func(paths []string)) error
}
