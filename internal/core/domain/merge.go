package domain

import "strings"

// OutFlagPrefix introduces the output path argument of the merge tool.
const OutFlagPrefix = "/out:"

// MergeJob is the ordered set of binaries merged into one output.
type MergeJob struct {
	Inputs     []string
	OutputPath string
}

// NewMergeJob orders the inputs as dependencies followed by the primary artifact.
func NewMergeJob(deps []ResolvedDependency, primary, outputPath string) MergeJob {
	inputs := make([]string, 0, len(deps)+1)
	for _, dep := range deps {
		inputs = append(inputs, dep.FilePath)
	}
	inputs = append(inputs, primary)
	return MergeJob{Inputs: inputs, OutputPath: outputPath}
}

// Arguments returns the runtime arguments that launch toolPath for the job.
func (j MergeJob) Arguments(toolPath string) []string {
	args := make([]string, 0, len(j.Inputs)+2)
	args = append(args, toolPath, OutFlagPrefix+j.OutputPath)
	return append(args, j.Inputs...)
}

// Invocation describes a child process to run.
type Invocation struct {
	Executable string
	Args       []string
	Dir        string
}

// String returns the space-joined command line.
func (i Invocation) String() string {
	return strings.Join(append([]string{i.Executable}, i.Args...), " ")
}

// ProcessResult is the observable outcome of a child process.
type ProcessResult struct {
	ExitCode    int
	StderrLines []string
}

// Succeeded reports whether the process exited cleanly without writing to stderr.
func (r *ProcessResult) Succeeded() bool {
	return r.ExitCode == 0 && len(r.StderrLines) == 0
}

// MergeResult is the outcome of one merge tool run.
type MergeResult struct {
	Job       MergeJob
	Succeeded bool
	ExitCode  int
	Errors    []string
}
