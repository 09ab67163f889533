package app_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/plugpack/internal/app"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports/mocks"
	"go.trai.ch/plugpack/internal/engine/merger"
	"go.trai.ch/plugpack/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

const (
	pluginBase = "Host.SDK.PluginBase"
	alphaPath  = "/cache/alpha/1.0.0/lib/net8.0/Alpha.dll"
)

type fixture struct {
	cwd     string
	cfg     domain.BuildConfiguration
	output  string
	primary string

	configLoader  *mocks.MockConfigLoader
	projectLoader *mocks.MockProjectLoader
	cache         *mocks.MockPackageCache
	inspector     *mocks.MockAssemblyInspector
	locator       *mocks.MockArtifactLocator
	runner        *mocks.MockProcessRunner
	store         *mocks.MockBuildInfoStore
	hasher        *mocks.MockHasher
	watcher       *mocks.MockWatcher
	log           *mocks.MockLogger

	app *app.App
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)

	cwd := t.TempDir()
	f := &fixture{
		cwd: cwd,
		cfg: domain.BuildConfiguration{
			WorkingDirectory: cwd,
			RuntimePath:      "dotnet",
			MergeToolPath:    filepath.Join(cwd, "resources", "ILRepack.exe"),
			PackagesPath:     "/cache",
			PluginBaseType:   pluginBase,
			SDKSuffix:        "Host.SDK",
		},
		output:        filepath.Join(cwd, "plugin", "MyPlugin.dll"),
		primary:       filepath.Join(cwd, "bin", "Release", "net8.0", "publish", "MyPlugin.dll"),
		configLoader:  mocks.NewMockConfigLoader(ctrl),
		projectLoader: mocks.NewMockProjectLoader(ctrl),
		cache:         mocks.NewMockPackageCache(ctrl),
		inspector:     mocks.NewMockAssemblyInspector(ctrl),
		locator:       mocks.NewMockArtifactLocator(ctrl),
		runner:        mocks.NewMockProcessRunner(ctrl),
		store:         mocks.NewMockBuildInfoStore(ctrl),
		hasher:        mocks.NewMockHasher(ctrl),
		watcher:       mocks.NewMockWatcher(ctrl),
		log:           mocks.NewMockLogger(ctrl),
	}

	log := f.log
	log.EXPECT().Info(gomock.Any()).AnyTimes()
	log.EXPECT().Warn(gomock.Any()).AnyTimes()

	res := resolver.New(f.cache, resolver.NewPluginFilter(f.inspector, log), log)
	f.app = app.New(
		f.configLoader,
		f.projectLoader,
		res,
		f.locator,
		merger.New(f.runner, log),
		f.store,
		f.hasher,
		f.watcher,
		log,
	).WithWorkDir(cwd)
	return f
}

// expectProject sets up a project declaring Alpha and the SDK, where Alpha
// resolves to a plain library.
func (f *fixture) expectProject() {
	f.configLoader.EXPECT().Load(f.cwd).Return(f.cfg, nil)
	f.projectLoader.EXPECT().Load(f.cwd).Return(&domain.Project{
		Name: "MyPlugin",
		Path: filepath.Join(f.cwd, "MyPlugin.csproj"),
		Dependencies: []domain.DependencyDeclaration{
			{Name: "Alpha", VersionConstraint: "1.0.0"},
			{Name: "Host.SDK", VersionConstraint: "2.0.0"},
		},
	}, nil)
	f.cache.EXPECT().Candidates("/cache", "Alpha", "1.0.0").Return([]string{alphaPath}, nil)

	id := domain.AssemblyIdentity{Name: "Alpha", Version: "1.0.0.0"}
	f.inspector.EXPECT().Identity(alphaPath).Return(id, nil).AnyTimes()
	f.inspector.EXPECT().Inspect(alphaPath).Return(&domain.AssemblyMetadata{
		Identity: id,
		Types:    []domain.TypeInfo{{FullName: "Alpha.Helper", BaseType: "System.Object"}},
	}, nil).AnyTimes()
}

func (f *fixture) mergeInvocation() domain.Invocation {
	return domain.Invocation{
		Executable: "dotnet",
		Args:       []string{f.cfg.MergeToolPath, "/out:" + f.output, alphaPath, f.primary},
		Dir:        f.cwd,
	}
}

func TestApp_Pack(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil)
	f.hasher.EXPECT().ComputeInputHash([]string{alphaPath, f.primary}).Return("in-1", nil)
	f.store.EXPECT().Get(f.cwd, f.output).Return(nil, nil)
	f.runner.EXPECT().Run(gomock.Any(), f.mergeInvocation()).Return(&domain.ProcessResult{}, nil)
	f.hasher.EXPECT().ComputeFileHash(f.output).Return("out-1", nil)

	var stored domain.BuildInfo
	f.store.EXPECT().Put(f.cwd, gomock.Any()).DoAndReturn(func(_ string, info domain.BuildInfo) error {
		stored = info
		return nil
	})

	err := f.app.Pack(context.Background(), app.PackOptions{})
	require.NoError(t, err)

	assert.Equal(t, f.output, stored.OutputPath)
	assert.Equal(t, "in-1", stored.InputHash)
	assert.Equal(t, "out-1", stored.OutputHash)
	assert.False(t, stored.Timestamp.IsZero())

	info, err := os.Stat(filepath.Dir(f.output))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestApp_Pack_UpToDate(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil)
	f.hasher.EXPECT().ComputeInputHash(gomock.Any()).Return("in-1", nil)
	f.store.EXPECT().Get(f.cwd, f.output).Return(&domain.BuildInfo{
		OutputPath: f.output,
		InputHash:  "in-1",
		OutputHash: "out-1",
	}, nil)
	f.hasher.EXPECT().ComputeFileHash(f.output).Return("out-1", nil)

	err := f.app.Pack(context.Background(), app.PackOptions{})
	require.NoError(t, err)
}

func TestApp_Pack_OutputChanged(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil)
	f.hasher.EXPECT().ComputeInputHash(gomock.Any()).Return("in-1", nil)
	f.store.EXPECT().Get(f.cwd, f.output).Return(&domain.BuildInfo{InputHash: "in-1", OutputHash: "out-1"}, nil)
	gomock.InOrder(
		f.hasher.EXPECT().ComputeFileHash(f.output).Return("tampered", nil),
		f.hasher.EXPECT().ComputeFileHash(f.output).Return("out-2", nil),
	)
	f.runner.EXPECT().Run(gomock.Any(), f.mergeInvocation()).Return(&domain.ProcessResult{}, nil)
	f.store.EXPECT().Put(f.cwd, gomock.Any()).Return(nil)

	err := f.app.Pack(context.Background(), app.PackOptions{})
	require.NoError(t, err)
}

func TestApp_Pack_NoCache(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil)
	f.hasher.EXPECT().ComputeInputHash(gomock.Any()).Return("in-1", nil)
	f.runner.EXPECT().Run(gomock.Any(), f.mergeInvocation()).Return(&domain.ProcessResult{}, nil)
	f.hasher.EXPECT().ComputeFileHash(f.output).Return("out-1", nil)
	f.store.EXPECT().Put(f.cwd, gomock.Any()).Return(nil)

	err := f.app.Pack(context.Background(), app.PackOptions{NoCache: true})
	require.NoError(t, err)
}

func TestApp_Pack_MergeFailed(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil)
	f.hasher.EXPECT().ComputeInputHash(gomock.Any()).Return("in-1", nil)
	f.store.EXPECT().Get(f.cwd, f.output).Return(nil, nil)
	f.runner.EXPECT().Run(gomock.Any(), f.mergeInvocation()).Return(&domain.ProcessResult{
		ExitCode:    0,
		StderrLines: []string{"Duplicate type Alpha.Helper"},
	}, nil)
	f.log.EXPECT().Error(gomock.Any()).Times(1)

	err := f.app.Pack(context.Background(), app.PackOptions{})
	require.ErrorIs(t, err, domain.ErrMergeFailed)
}

func TestApp_Pack_ArtifactNotFound(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return("", domain.ErrArtifactNotFound)

	err := f.app.Pack(context.Background(), app.PackOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrArtifactNotFound.Error())
}

func TestApp_Pack_Publish(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	publish := domain.Invocation{Executable: "dotnet", Args: []string{"publish", "-c", "Release"}, Dir: f.cwd}
	gomock.InOrder(
		f.runner.EXPECT().Run(gomock.Any(), publish).Return(&domain.ProcessResult{}, nil),
		f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil),
		f.runner.EXPECT().Run(gomock.Any(), f.mergeInvocation()).Return(&domain.ProcessResult{}, nil),
	)
	f.hasher.EXPECT().ComputeInputHash(gomock.Any()).Return("in-1", nil)
	f.hasher.EXPECT().ComputeFileHash(f.output).Return("out-1", nil)
	f.store.EXPECT().Put(f.cwd, gomock.Any()).Return(nil)

	err := f.app.Pack(context.Background(), app.PackOptions{Publish: true, NoCache: true})
	require.NoError(t, err)
}

func TestApp_Pack_PublishFailed(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&domain.ProcessResult{ExitCode: 1}, nil)

	err := f.app.Pack(context.Background(), app.PackOptions{Publish: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrPublishFailed.Error())
}

func TestApp_Pack_ProjectNotFound(t *testing.T) {
	f := newFixture(t)
	f.configLoader.EXPECT().Load(f.cwd).Return(f.cfg, nil)
	f.projectLoader.EXPECT().Load(f.cwd).Return(nil, domain.ErrProjectNotFound)

	err := f.app.Pack(context.Background(), app.PackOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrProjectNotFound.Error())
}

func TestApp_Resolve(t *testing.T) {
	f := newFixture(t)
	f.expectProject()

	report, err := f.app.Resolve(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "MyPlugin", report.Project)
	assert.Equal(t, []domain.ResolvedDependency{{PackageName: "Alpha", FilePath: alphaPath}}, report.Resolved)
	assert.Equal(t, []domain.SkippedDependency{{
		Declaration: domain.DependencyDeclaration{Name: "Host.SDK", VersionConstraint: "2.0.0"},
		Reason:      domain.SkipSDK,
	}}, report.Skipped)
}

func TestApp_Clean(t *testing.T) {
	f := newFixture(t)

	state := domain.DefaultStorePath(f.cwd)
	require.NoError(t, os.MkdirAll(state, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(state, "record.json"), []byte("{}"), 0o600))

	require.NoError(t, f.app.Clean(context.Background()))

	_, err := os.Stat(domain.DefaultStatePath(f.cwd))
	assert.True(t, os.IsNotExist(err))
}

func TestApp_Clean_MissingStateDir(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.app.Clean(context.Background()))
}

func TestApp_SetLogFormat(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.app.SetLogFormat("pretty"))
	require.NoError(t, f.app.SetLogFormat("auto"))

	err := f.app.SetLogFormat("xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrUnknownFormat.Error())
}

// expectWatchedProject sets up a project without dependencies that can be
// loaded any number of times.
func (f *fixture) expectWatchedProject() {
	f.configLoader.EXPECT().Load(f.cwd).Return(f.cfg, nil).AnyTimes()
	f.projectLoader.EXPECT().Load(f.cwd).Return(&domain.Project{Name: "MyPlugin"}, nil).AnyTimes()
	f.hasher.EXPECT().ComputeInputHash(gomock.Any()).Return("in-1", nil).AnyTimes()
	f.hasher.EXPECT().ComputeFileHash(f.output).Return("out-1", nil).AnyTimes()
	f.store.EXPECT().Put(f.cwd, gomock.Any()).Return(nil).AnyTimes()
}

func TestApp_Pack_Watch(t *testing.T) {
	f := newFixture(t)
	f.expectWatchedProject()

	publish := domain.Invocation{Executable: "dotnet", Args: []string{"publish", "-c", "Release"}, Dir: f.cwd}
	merge := domain.Invocation{
		Executable: "dotnet",
		Args:       []string{f.cfg.MergeToolPath, "/out:" + f.output, f.primary},
		Dir:        f.cwd,
	}
	f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil).Times(3)
	gomock.InOrder(
		f.runner.EXPECT().Run(gomock.Any(), publish).Return(&domain.ProcessResult{}, nil),
		f.runner.EXPECT().Run(gomock.Any(), merge).Return(&domain.ProcessResult{}, nil).Times(3),
	)

	f.watcher.EXPECT().Watch(gomock.Any(), f.cwd, []string{".plugpack", "obj", "plugin"}, gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, _ []string, onChange func([]string)) error {
			onChange([]string{f.primary})
			onChange([]string{f.primary})
			return nil
		})

	err := f.app.Pack(context.Background(), app.PackOptions{Watch: true, Publish: true, NoCache: true})
	require.NoError(t, err)
}

func TestApp_Pack_Watch_ReportsFailures(t *testing.T) {
	f := newFixture(t)
	f.expectWatchedProject()
	f.store.EXPECT().Get(f.cwd, f.output).Return(nil, nil).AnyTimes()

	gomock.InOrder(
		f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return("", domain.ErrArtifactNotFound),
		f.locator.EXPECT().Locate(f.cwd, "MyPlugin.dll").Return(f.primary, nil).Times(2),
	)
	gomock.InOrder(
		f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&domain.ProcessResult{StderrLines: []string{"boom"}}, nil),
		f.runner.EXPECT().Run(gomock.Any(), gomock.Any()).Return(&domain.ProcessResult{}, nil),
	)

	// One report for the missing artifact and one from the merger for the failed merge.
	f.log.EXPECT().Error(gomock.Any()).Times(2)

	f.watcher.EXPECT().Watch(gomock.Any(), f.cwd, gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, _ []string, onChange func([]string)) error {
			onChange([]string{f.primary})
			onChange([]string{f.primary})
			return nil
		})

	err := f.app.Pack(context.Background(), app.PackOptions{Watch: true})
	require.NoError(t, err)
}

func TestApp_Pack_Watch_ConfigError(t *testing.T) {
	f := newFixture(t)
	f.configLoader.EXPECT().Load(f.cwd).Return(domain.BuildConfiguration{}, domain.ErrInvalidConfig)

	err := f.app.Pack(context.Background(), app.PackOptions{Watch: true})
	require.ErrorIs(t, err, domain.ErrInvalidConfig)
}
