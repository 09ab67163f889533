// Package merger runs the external merge tool over a plugin and its dependencies.
package merger

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
)

// Orchestrator builds merge jobs and runs them through a process runner.
type Orchestrator struct {
	runner ports.ProcessRunner
	logger ports.Logger
}

// New creates a new Orchestrator.
func New(runner ports.ProcessRunner, logger ports.Logger) *Orchestrator {
	return &Orchestrator{runner: runner, logger: logger}
}

// Merge runs `<runtime> <tool> /out:<output> <deps...> <primary>` in the
// working directory. A tool that cannot be started yields a failed result,
// not an error. Failed results are logged here, so callers need not report
// them again. The returned error reports only setup failures and
// cancellation of ctx.
func (o *Orchestrator) Merge(
	ctx context.Context,
	cfg domain.BuildConfiguration,
	deps []domain.ResolvedDependency,
	primary string,
) (*domain.MergeResult, error) {
	job := domain.NewMergeJob(deps, primary, cfg.OutputPath)
	result := &domain.MergeResult{Job: job}

	if err := os.MkdirAll(filepath.Dir(job.OutputPath), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrOutputDirCreateFailed.Error()), "path", filepath.Dir(job.OutputPath))
	}

	if cfg.MergeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.MergeTimeout)
		defer cancel()
	}

	inv := domain.Invocation{
		Executable: cfg.RuntimePath,
		Args:       job.Arguments(cfg.MergeToolPath),
		Dir:        cfg.WorkingDirectory,
	}
	o.logger.Info("merging " + strconv.Itoa(len(job.Inputs)) + " files into " + job.OutputPath)
	o.logger.Info(inv.String())

	proc, err := o.runner.Run(ctx, inv)
	if err != nil {
		o.logger.Error(err)
		result.ExitCode = -1
		result.Errors = []string{err.Error()}
		return result, nil
	}

	result.ExitCode = proc.ExitCode
	result.Errors = proc.StderrLines
	result.Succeeded = proc.Succeeded()

	if ctxErr := ctx.Err(); ctxErr != nil && !result.Succeeded {
		err := zerr.Wrap(ctxErr, domain.ErrMergeFailed.Error())
		if cfg.MergeTimeout > 0 {
			err = zerr.With(err, "timeout", cfg.MergeTimeout.String())
		}
		return result, err
	}

	if !result.Succeeded {
		err := zerr.With(zerr.New(domain.ErrMergeFailed.Error()), "exit_code", result.ExitCode)
		o.logger.Error(zerr.With(err, "errors", len(result.Errors)))
		return result, nil
	}
	o.logger.Info("merged plugin written to " + job.OutputPath)
	return result, nil
}

// Publish runs `<runtime> publish -c Release` in the working directory.
func (o *Orchestrator) Publish(ctx context.Context, cfg domain.BuildConfiguration) error {
	inv := domain.Invocation{
		Executable: cfg.RuntimePath,
		Args:       []string{"publish", "-c", "Release"},
		Dir:        cfg.WorkingDirectory,
	}
	o.logger.Info(inv.String())

	proc, err := o.runner.Run(ctx, inv)
	if err != nil {
		return zerr.Wrap(err, domain.ErrPublishFailed.Error())
	}
	if proc.ExitCode != 0 {
		return zerr.With(zerr.New(domain.ErrPublishFailed.Error()), "exit_code", proc.ExitCode)
	}
	return nil
}
