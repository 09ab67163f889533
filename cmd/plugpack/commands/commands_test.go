package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/plugpack/cmd/plugpack/commands"
	"go.trai.ch/plugpack/internal/app"
	"go.trai.ch/plugpack/internal/build"
	"go.trai.ch/plugpack/internal/core/domain"
)

type mockApp struct {
	packFunc    func(ctx context.Context, opts app.PackOptions) error
	resolveFunc func(ctx context.Context) (*app.ResolveReport, error)
	cleanFunc   func(ctx context.Context) error
	logFormat   string
}

func (m *mockApp) Pack(ctx context.Context, opts app.PackOptions) error {
	if m.packFunc != nil {
		return m.packFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Resolve(ctx context.Context) (*app.ResolveReport, error) {
	if m.resolveFunc != nil {
		return m.resolveFunc(ctx)
	}
	return &app.ResolveReport{}, nil
}

func (m *mockApp) Clean(ctx context.Context) error {
	if m.cleanFunc != nil {
		return m.cleanFunc(ctx)
	}
	return nil
}

func (m *mockApp) SetLogFormat(format string) error {
	m.logFormat = format
	if format == "xml" {
		return errors.New("unknown output format")
	}
	return nil
}

func sampleReport() *app.ResolveReport {
	return &app.ResolveReport{
		Project: "MyPlugin",
		Resolution: domain.Resolution{
			Resolved: []domain.ResolvedDependency{
				{PackageName: "Newtonsoft.Json", FilePath: "/cache/newtonsoft.json/13.0.3/lib/net6.0/Newtonsoft.Json.dll"},
			},
			Skipped: []domain.SkippedDependency{
				{Declaration: domain.DependencyDeclaration{Name: "SoruxBot.SDK", VersionConstraint: "1.2.0"}, Reason: domain.SkipSDK},
				{Declaration: domain.DependencyDeclaration{Name: "Other.Plugin", VersionConstraint: "2.0.0"}, Reason: domain.SkipPlugin},
			},
		},
	}
}

func TestCommands_Pack(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var capturedOpts app.PackOptions
		called := false

		mock := &mockApp{
			packFunc: func(_ context.Context, opts app.PackOptions) error {
				capturedOpts = opts
				called = true
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"pack", "--no-cache", "--publish", "--watch", "--log-format", "json"})

		err := cli.Execute(context.Background())
		require.NoError(t, err)
		assert.True(t, called)
		assert.True(t, capturedOpts.NoCache)
		assert.True(t, capturedOpts.Publish)
		assert.True(t, capturedOpts.Watch)
		assert.Equal(t, "json", mock.logFormat)
	})

	t.Run("defaults", func(t *testing.T) {
		var capturedOpts app.PackOptions
		mock := &mockApp{
			packFunc: func(_ context.Context, opts app.PackOptions) error {
				capturedOpts = opts
				return nil
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"pack"})

		require.NoError(t, cli.Execute(context.Background()))
		assert.Equal(t, app.PackOptions{}, capturedOpts)
		assert.Equal(t, "auto", mock.logFormat)
	})

	t.Run("returns error on pack failure", func(t *testing.T) {
		mock := &mockApp{
			packFunc: func(_ context.Context, _ app.PackOptions) error {
				return errors.New("simulated error")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"pack"})
		// Silence output to avoid polluting test logs
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "simulated error")
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		mock := &mockApp{
			packFunc: func(_ context.Context, _ app.PackOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"pack", "extra"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		require.Error(t, cli.Execute(context.Background()))
	})

	t.Run("rejects unknown log format", func(t *testing.T) {
		mock := &mockApp{
			packFunc: func(_ context.Context, _ app.PackOptions) error {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		cli.SetArgs([]string{"pack", "--log-format", "xml"})
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))

		require.Error(t, cli.Execute(context.Background()))
	})
}

func TestCommands_Resolve(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	tests := []struct {
		name string
		args []string
	}{
		{name: "resolve_text", args: []string{"resolve"}},
		{name: "resolve_yaml", args: []string{"resolve", "--format", "yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &mockApp{
				resolveFunc: func(context.Context) (*app.ResolveReport, error) {
					return sampleReport(), nil
				},
			}

			cli := commands.New(mock)
			buf := new(bytes.Buffer)
			cli.SetOutput(buf, buf)
			cli.SetArgs(tt.args)

			require.NoError(t, cli.Execute(context.Background()))

			g := goldie.New(t)
			g.Assert(t, tt.name, buf.Bytes())
		})
	}
}

func TestCommands_Resolve_Errors(t *testing.T) {
	t.Run("unknown format", func(t *testing.T) {
		mock := &mockApp{
			resolveFunc: func(context.Context) (*app.ResolveReport, error) {
				panic("should not be called")
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"resolve", "--format", "csv"})

		err := cli.Execute(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrUnknownFormat.Error())
	})

	t.Run("resolve failure", func(t *testing.T) {
		mock := &mockApp{
			resolveFunc: func(context.Context) (*app.ResolveReport, error) {
				return nil, domain.ErrProjectNotFound
			},
		}

		cli := commands.New(mock)
		cli.SetOutput(new(bytes.Buffer), new(bytes.Buffer))
		cli.SetArgs([]string{"resolve"})

		err := cli.Execute(context.Background())
		require.ErrorIs(t, err, domain.ErrProjectNotFound)
	})
}

func TestCommands_Clean(t *testing.T) {
	called := false
	mock := &mockApp{
		cleanFunc: func(context.Context) error {
			called = true
			return nil
		},
	}

	cli := commands.New(mock)
	cli.SetArgs([]string{"clean"})

	require.NoError(t, cli.Execute(context.Background()))
	assert.True(t, called)
}

func TestCommands_Version(t *testing.T) {
	mock := &mockApp{}
	cli := commands.New(mock)

	buf := new(bytes.Buffer)
	cli.SetOutput(buf, buf)
	cli.SetArgs([]string{"version"})

	err := cli.Execute(context.Background())
	require.NoError(t, err)

	assert.Contains(t, buf.String(), "plugpack version "+build.Version)
}
