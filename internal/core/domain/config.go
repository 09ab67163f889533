package domain

import (
	"path/filepath"
	"time"
)

const (
	// DefaultRuntimePath is the runtime used to launch the merge tool.
	DefaultRuntimePath = "dotnet"

	// DefaultToolPath is the merge tool location relative to the working directory.
	DefaultToolPath = "./resources/ILRepack.exe"

	// DefaultOutputDir is the directory receiving the merged plugin.
	DefaultOutputDir = "plugin"

	// DefaultPluginBaseType is the base type every host plugin derives from.
	DefaultPluginBaseType = "SoruxBot.SDK.Plugins.Basic.SoruxBotPlugin"

	// DefaultSDKSuffix identifies the host SDK package reference.
	DefaultSDKSuffix = "SoruxBot.SDK"
)

// BuildConfiguration holds the externally supplied settings of a run.
type BuildConfiguration struct {
	MergeToolPath    string
	RuntimePath      string
	OutputPath       string
	WorkingDirectory string
	PackagesPath     string
	PluginBaseType   string
	SDKSuffix        string
	MergeTimeout     time.Duration
}

// WithProject returns a copy of the configuration with the output path
// defaulted for the given project.
func (c BuildConfiguration) WithProject(p *Project) BuildConfiguration {
	if c.OutputPath == "" {
		c.OutputPath = filepath.Join(c.WorkingDirectory, DefaultOutputDir, p.Name+AssemblyExt)
	}
	return c
}
