package nuget_test

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/plugpack/internal/adapters/fs"
	"go.trai.ch/plugpack/internal/adapters/nuget"
	"pgregory.net/rapid"
)

func touch(t *testing.T, root, rel string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o600))
	return path
}

func TestCache_Candidates(t *testing.T) {
	root := t.TempDir()
	net6 := touch(t, root, "newtonsoft.json/13.0.3/lib/net6.0/Newtonsoft.Json.dll")
	net8 := touch(t, root, "newtonsoft.json/13.0.3/lib/net8.0/Newtonsoft.Json.dll")
	std := touch(t, root, "newtonsoft.json/13.0.3/lib/netstandard2.0/Newtonsoft.Json.dll")
	touch(t, root, "newtonsoft.json/13.0.3/lib/net45/Newtonsoft.Json.dll")
	touch(t, root, "newtonsoft.json/13.0.3/lib/net8.0/Newtonsoft.Json.xml")
	touch(t, root, "newtonsoft.json/13.0.3/ref/net8.0/Newtonsoft.Json.dll")
	touch(t, root, "newtonsoft.json/12.0.1/lib/net8.0/Newtonsoft.Json.dll")

	got, err := nuget.NewCache(fs.NewWalker()).Candidates(root, "Newtonsoft.Json", "13.0.3")
	require.NoError(t, err)
	assert.Equal(t, []string{net6, net8, std}, got)

	selected, ok := nuget.SelectCandidate(got)
	require.True(t, ok)
	assert.Equal(t, net6, selected)
}

func TestCache_Candidates_MissingPackage(t *testing.T) {
	got, err := nuget.NewCache(fs.NewWalker()).Candidates(t.TempDir(), "Missing", "1.0.0")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCache_Has(t *testing.T) {
	root := t.TempDir()
	touch(t, root, "serilog/3.1.1/serilog.nuspec")
	cache := nuget.NewCache(fs.NewWalker())

	assert.True(t, cache.Has(root, "Serilog", "3.1.1"))
	assert.False(t, cache.Has(root, "Serilog", "2.0.0"))
	assert.False(t, cache.Has(root, "Missing", "1.0.0"))
}

func TestCache_Candidates_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "nowhere")
	got, err := nuget.NewCache(fs.NewWalker()).Candidates(root, "Missing", "1.0.0")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIsEligible(t *testing.T) {
	tests := []struct {
		rel  string
		want bool
	}{
		{"lib/net8.0/A.dll", true},
		{"lib/net6.0/A.DLL", true},
		{"lib/netstandard2.1/A.dll", true},
		{"runtimes/win/lib/net8.0/A.dll", true},
		{"lib/net48/A.dll", false},
		{"ref/net8.0/A.dll", false},
		{"lib/net8.0/A.pdb", false},
		{"library/net8.0/A.dll", false},
		{"lib.dll", false},
	}

	for _, tt := range tests {
		t.Run(tt.rel, func(t *testing.T) {
			assert.Equal(t, tt.want, nuget.IsEligible(tt.rel))
		})
	}
}

func TestSelectCandidate_Empty(t *testing.T) {
	_, ok := nuget.SelectCandidate(nil)
	assert.False(t, ok)
}

func TestSelectCandidate_IsOrderIndependent(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		candidates := rapid.SliceOfN(rapid.StringMatching(`/cache/[a-z]{1,6}/lib/net[68]\.0/[A-Z][a-z]{0,5}\.dll`), 1, 8).
			Draw(t, "candidates")
		shuffled := rapid.Permutation(candidates).Draw(t, "shuffled")

		want, _ := nuget.SelectCandidate(candidates)
		got, ok := nuget.SelectCandidate(shuffled)
		if !ok || got != want {
			t.Fatalf("got %q, want %q", got, want)
		}

		sorted := slices.Clone(candidates)
		slices.Sort(sorted)
		if got != sorted[0] {
			t.Fatalf("got %q, want first of %v", got, sorted)
		}
	})
}
