package resolver_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/plugpack/internal/core/domain"
	"go.trai.ch/plugpack/internal/core/ports/mocks"
	"go.trai.ch/plugpack/internal/engine/resolver"
	"go.uber.org/mock/gomock"
)

var testConfig = domain.BuildConfiguration{
	PackagesPath:   "/cache",
	SDKSuffix:      "Host.SDK",
	PluginBaseType: pluginBase,
}

type fixture struct {
	cache     *mocks.MockPackageCache
	inspector *mocks.MockAssemblyInspector
	resolver  *resolver.Resolver
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := &fixture{
		cache:     mocks.NewMockPackageCache(ctrl),
		inspector: mocks.NewMockAssemblyInspector(ctrl),
	}
	log := quietLogger(ctrl)
	f.resolver = resolver.New(f.cache, resolver.NewPluginFilter(f.inspector, log), log)
	return f
}

func (f *fixture) library(path, name string, types ...domain.TypeInfo) {
	id := domain.AssemblyIdentity{Name: name, Version: "1.0.0.0"}
	f.inspector.EXPECT().Identity(path).Return(id, nil).AnyTimes()
	f.inspector.EXPECT().Inspect(path).Return(&domain.AssemblyMetadata{Identity: id, Types: types}, nil).AnyTimes()
}

func TestResolver_Resolve(t *testing.T) {
	f := newFixture(t)

	f.cache.EXPECT().Candidates("/cache", "Newtonsoft.Json", "13.0.3").
		Return([]string{"/cache/newtonsoft.json/13.0.3/lib/net6.0/Newtonsoft.Json.dll"}, nil)
	f.library("/cache/newtonsoft.json/13.0.3/lib/net6.0/Newtonsoft.Json.dll", "Newtonsoft.Json")

	f.cache.EXPECT().Candidates("/cache", "Missing", "1.0.0").Return([]string{}, nil)
	f.cache.EXPECT().Has("/cache", "Missing", "1.0.0").Return(false)

	f.cache.EXPECT().Candidates("/cache", "Other.Plugin", "2.0.0").
		Return([]string{"/cache/other.plugin/2.0.0/lib/net8.0/Other.Plugin.dll"}, nil)
	f.library("/cache/other.plugin/2.0.0/lib/net8.0/Other.Plugin.dll", "Other.Plugin",
		domain.TypeInfo{FullName: "Other.Plugin.Main", BaseType: pluginBase})

	f.cache.EXPECT().Candidates("/cache", "Native.Only", "1.0.0").Return([]string{}, nil)
	f.cache.EXPECT().Has("/cache", "Native.Only", "1.0.0").Return(true)

	decls := []domain.DependencyDeclaration{
		{Name: "Host.SDK", VersionConstraint: "3.0.0"},
		{Name: "Newtonsoft.Json", VersionConstraint: "13.0.3"},
		{Name: "Missing", VersionConstraint: "1.0.0"},
		{Name: "Other.Plugin", VersionConstraint: "2.0.0"},
		{Name: "newtonsoft.json", VersionConstraint: "13.0.3"},
		{Name: "Native.Only", VersionConstraint: "1.0.0"},
	}

	res, err := f.resolver.Resolve(context.Background(), resolver.NewContext(pluginBase), testConfig, decls)
	require.NoError(t, err)

	assert.Equal(t, []domain.ResolvedDependency{
		{PackageName: "Newtonsoft.Json", FilePath: "/cache/newtonsoft.json/13.0.3/lib/net6.0/Newtonsoft.Json.dll"},
	}, res.Resolved)
	assert.Equal(t, []domain.SkippedDependency{
		{Declaration: decls[0], Reason: domain.SkipSDK},
		{Declaration: decls[2], Reason: domain.SkipNotCached},
		{Declaration: decls[3], Reason: domain.SkipPlugin},
		{Declaration: decls[4], Reason: domain.SkipDuplicate},
		{Declaration: decls[5], Reason: domain.SkipNoLibrary},
	}, res.Skipped)
}

func TestResolver_Resolve_SkipsPluginCandidate(t *testing.T) {
	f := newFixture(t)
	net6 := "/cache/mixed/1.0.0/lib/net6.0/Mixed.dll"
	net8 := "/cache/mixed/1.0.0/lib/net8.0/Mixed.dll"

	f.cache.EXPECT().Candidates("/cache", "Mixed", "1.0.0").Return([]string{net6, net8}, nil)
	f.inspector.EXPECT().Identity(net6).Return(domain.AssemblyIdentity{Name: "Mixed", Version: "1.0.0.0"}, nil)
	f.inspector.EXPECT().Inspect(net6).Return(&domain.AssemblyMetadata{
		Types: []domain.TypeInfo{{FullName: "Mixed.Plugin", BaseType: pluginBase}},
	}, nil)
	f.inspector.EXPECT().Identity(net8).Return(domain.AssemblyIdentity{Name: "Mixed", Version: "1.0.1.0"}, nil)
	f.inspector.EXPECT().Inspect(net8).Return(&domain.AssemblyMetadata{}, nil)

	res, err := f.resolver.Resolve(context.Background(), resolver.NewContext(pluginBase), testConfig,
		[]domain.DependencyDeclaration{{Name: "Mixed", VersionConstraint: "1.0.0"}})
	require.NoError(t, err)
	assert.Equal(t, []string{net8}, res.Paths())
}

func TestResolver_Resolve_SDKNeverResolved(t *testing.T) {
	for _, decl := range []domain.DependencyDeclaration{
		{Name: "Host.SDK", VersionConstraint: "1.0.0"},
		{Name: "host.sdk", VersionConstraint: "9.9.9"},
		{Name: "Vendor.Host.SDK", VersionConstraint: "0.1.0-beta"},
	} {
		t.Run(decl.Name+"@"+decl.VersionConstraint, func(t *testing.T) {
			f := newFixture(t)

			res, err := f.resolver.Resolve(context.Background(), resolver.NewContext(pluginBase), testConfig,
				[]domain.DependencyDeclaration{decl})
			require.NoError(t, err)
			assert.Empty(t, res.Resolved)
			assert.Equal(t, domain.SkipSDK, res.Skipped[0].Reason)
		})
	}
}

func TestResolver_Resolve_SearchErrorIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.cache.EXPECT().Candidates("/cache", "Locked", "1.0.0").Return(nil, errors.New("permission denied"))

	res, err := f.resolver.Resolve(context.Background(), resolver.NewContext(pluginBase), testConfig,
		[]domain.DependencyDeclaration{{Name: "Locked", VersionConstraint: "1.0.0"}})
	require.NoError(t, err)
	assert.Empty(t, res.Resolved)
	assert.Len(t, res.Skipped, 1)
}

func TestResolver_Resolve_Cancelled(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.resolver.Resolve(ctx, resolver.NewContext(pluginBase), testConfig,
		[]domain.DependencyDeclaration{{Name: "Anything", VersionConstraint: "1.0.0"}})
	require.ErrorIs(t, err, context.Canceled)
}
