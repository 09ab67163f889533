package ports

import (
	"context"

	"go.trai.ch/plugpack/internal/core/domain"
)

// ProcessRunner defines the interface for running child processes.
//
//go:generate mockgen -source=process_runner.go -destination=mocks/mock_process_runner.go -package=mocks
type ProcessRunner interface {
	// Run starts the invocation and blocks until it exits and both output
	// streams are drained. Stdout lines are logged as info, stderr lines as errors.
	//
	// It returns an error only if the process could not be started.
	Run(ctx context.Context, inv domain.Invocation) (*domain.ProcessResult, error)
}
