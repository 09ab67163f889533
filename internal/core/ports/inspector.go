package ports

import "go.trai.ch/plugpack/internal/core/domain"

// AssemblyInspector defines the interface for reading assembly metadata without loading it.
//
//go:generate mockgen -source=inspector.go -destination=mocks/mock_inspector.go -package=mocks
type AssemblyInspector interface {
	// Identity reads only the assembly manifest of the file.
	Identity(path string) (domain.AssemblyIdentity, error)

	// Inspect reads the manifest, references and exported types of the file.
	Inspect(path string) (*domain.AssemblyMetadata, error)
}
