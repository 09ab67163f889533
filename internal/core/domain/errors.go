package domain

import "go.trai.ch/zerr"

var (
	// ErrProjectNotFound is returned when the working directory contains no project file.
	ErrProjectNotFound = zerr.New("no project file found")

	// ErrAmbiguousProject is returned when the working directory contains more than one project file.
	ErrAmbiguousProject = zerr.New("more than one project file found")

	// ErrProjectReadFailed is returned when the project file cannot be read.
	ErrProjectReadFailed = zerr.New("failed to read project file")

	// ErrProjectParseFailed is returned when the project file is not valid project XML.
	ErrProjectParseFailed = zerr.New("failed to parse project file")

	// ErrArtifactNotFound is returned when no published build output matches the project name.
	ErrArtifactNotFound = zerr.New("no build artifact found")

	// ErrAmbiguousArtifact is returned when more than one published build output matches the project name.
	ErrAmbiguousArtifact = zerr.New("more than one build artifact found")

	// ErrArtifactSearchFailed is returned when the working directory cannot be searched.
	ErrArtifactSearchFailed = zerr.New("failed to search for build artifact")

	// ErrPackageSearchFailed is returned when a package directory cannot be searched.
	ErrPackageSearchFailed = zerr.New("failed to search package directory")

	// ErrNotManagedImage is returned when a file is not a PE image carrying CLI metadata.
	ErrNotManagedImage = zerr.New("not a managed assembly")

	// ErrMetadataCorrupt is returned when the CLI metadata of an image cannot be decoded.
	ErrMetadataCorrupt = zerr.New("corrupt assembly metadata")

	// ErrNoAssemblyManifest is returned when a module has no assembly manifest row.
	ErrNoAssemblyManifest = zerr.New("module has no assembly manifest")

	// ErrMergeFailed is returned when the merge tool reports an error or exits unsuccessfully.
	ErrMergeFailed = zerr.New("merge failed")

	// ErrPublishFailed is returned when publishing the project fails.
	ErrPublishFailed = zerr.New("publish failed")

	// ErrProcessStartFailed is returned when a child process cannot be spawned.
	ErrProcessStartFailed = zerr.New("failed to start process")

	// ErrOutputDirCreateFailed is returned when the directory for the merged output cannot be created.
	ErrOutputDirCreateFailed = zerr.New("failed to create output directory")

	// ErrConfigReadFailed is returned when the configuration cannot be loaded.
	ErrConfigReadFailed = zerr.New("failed to read configuration")

	// ErrInvalidConfig is returned when a configuration value cannot be interpreted.
	ErrInvalidConfig = zerr.New("invalid configuration")

	// ErrStoreCreateFailed is returned when the build info store directory cannot be created.
	ErrStoreCreateFailed = zerr.New("failed to create build info store directory")

	// ErrStoreReadFailed is returned when the build info cannot be read.
	ErrStoreReadFailed = zerr.New("failed to read build info")

	// ErrStoreUnmarshalFailed is returned when the build info cannot be unmarshaled.
	ErrStoreUnmarshalFailed = zerr.New("failed to unmarshal build info")

	// ErrStoreMarshalFailed is returned when the build info cannot be marshaled.
	ErrStoreMarshalFailed = zerr.New("failed to marshal build info")

	// ErrStoreWriteFailed is returned when the build info cannot be written.
	ErrStoreWriteFailed = zerr.New("failed to write build info")

	// ErrFileOpenFailed is returned when a file cannot be opened.
	ErrFileOpenFailed = zerr.New("failed to open file")

	// ErrFileHashFailed is returned when hashing a file fails.
	ErrFileHashFailed = zerr.New("failed to hash file content")

	// ErrCleanFailed is returned when the state directory cannot be removed.
	ErrCleanFailed = zerr.New("failed to remove state directory")

	// ErrWatchFailed is returned when the working directory cannot be watched.
	ErrWatchFailed = zerr.New("failed to watch working directory")

	// ErrUnknownFormat is returned when an output format is not recognised.
	ErrUnknownFormat = zerr.New("unknown output format")
)
