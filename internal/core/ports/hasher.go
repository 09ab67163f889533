package ports

// Hasher defines the interface for computing content hashes.
//
//go:generate mockgen -destination=mocks/hasher_mock.go -package=mocks -source=hasher.go
type Hasher interface {
	// ComputeInputHash computes one hash over the given files in order.
	ComputeInputHash(paths []string) (string, error)

	// ComputeFileHash computes the hash of a single file.
	ComputeFileHash(path string) (string, error)
}
