package ports

import "go.trai.ch/plugpack/internal/core/domain"

// ConfigLoader defines the interface for loading the build configuration.
//
//go:generate mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ConfigLoader interface {
	// Load reads the configuration for the given working directory.
	// Relative paths in the result are resolved against cwd.
	Load(cwd string) (domain.BuildConfiguration, error)
}
