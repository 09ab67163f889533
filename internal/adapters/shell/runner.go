// Package shell runs child processes and streams their output into the logger.
package shell

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"

	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

var _ ports.ProcessRunner = (*Runner)(nil)

// Runner implements ports.ProcessRunner using os/exec.
type Runner struct {
	logger ports.Logger
}

// NewRunner creates a new Runner.
func NewRunner(logger ports.Logger) *Runner {
	return &Runner{logger: logger}
}

// Run starts inv and blocks until it exits and both streams are drained.
// Stdout lines are logged as info; stderr lines are logged as errors and
// recorded in the result.
func (r *Runner) Run(ctx context.Context, inv domain.Invocation) (*domain.ProcessResult, error) {
	cmd := exec.CommandContext(ctx, inv.Executable, inv.Args...) //nolint:gosec // configured runtime
	cmd.Dir = inv.Dir
	cmd.Env = os.Environ()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, r.startErr(err, inv)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, r.startErr(err, inv)
	}

	if err := cmd.Start(); err != nil {
		return nil, r.startErr(err, inv)
	}

	result := &domain.ProcessResult{}
	stdoutLog := &logWriter{emit: r.logger.Info}
	stderrLog := &logWriter{emit: func(line string) {
		result.StderrLines = append(result.StderrLines, line)
		r.logger.Error(zerr.New(line))
	}}

	var g errgroup.Group
	g.Go(func() error { return drain(stdoutLog, stdout) })
	g.Go(func() error { return drain(stderrLog, stderr) })
	copyErr := g.Wait()

	waitErr := cmd.Wait()
	result.ExitCode = exitCode(waitErr)
	if copyErr != nil && result.ExitCode == 0 {
		result.ExitCode = -1
	}
	return result, nil
}

func (r *Runner) startErr(err error, inv domain.Invocation) error {
	err = zerr.Wrap(err, domain.ErrProcessStartFailed.Error())
	return zerr.With(err, "executable", inv.Executable)
}

func drain(w *logWriter, src io.Reader) error {
	_, err := io.Copy(w, src)
	_ = w.Close()
	if errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}
