package ports

import "go.trai.ch/plugpack/internal/core/domain"

// ProjectLoader defines the interface for reading the project descriptor.
//
//go:generate mockgen -source=project_loader.go -destination=mocks/mock_project_loader.go -package=mocks
type ProjectLoader interface {
	// Load finds the single project file in cwd and parses it.
	Load(cwd string) (*domain.Project, error)
}
