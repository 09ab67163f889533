package domain

import "path/filepath"

const (
	// StateDirName is the name of the per-project state directory.
	StateDirName = ".plugpack"

	// StoreDirName is the name of the build info store directory.
	StoreDirName = "store"

	// ProjectFileExt is the extension of the project descriptor.
	ProjectFileExt = ".csproj"

	// AssemblyExt is the extension of library and plugin binaries.
	AssemblyExt = ".dll"

	// LibDirName is the package directory segment holding compiled libraries.
	LibDirName = "lib"

	// EnvFileName is the optional dotenv file read from the working directory.
	EnvFileName = ".env"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// SupportedFrameworks lists the target framework monikers whose libraries may be bundled.
var SupportedFrameworks = []string{"net6.0", "net8.0", "netstandard"}

// ArtifactPathMarkers must all appear in the path of the published build output.
var ArtifactPathMarkers = []string{"bin", "Release", "publish"}

// DefaultStatePath returns the state directory below root.
func DefaultStatePath(root string) string {
	return filepath.Join(root, StateDirName)
}

// DefaultStorePath returns the build info store directory below root.
// It joins .plugpack and store.
func DefaultStorePath(root string) string {
	return filepath.Join(root, StateDirName, StoreDirName)
}
