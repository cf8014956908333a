package execshell

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
)

const environmentAssignmentSeparatorConstant = "="

// OSCommandRunner runs commands as operating system processes.
type OSCommandRunner struct{}

// NewOSCommandRunner constructs a runner backed by os/exec.
func NewOSCommandRunner() OSCommandRunner {
	return OSCommandRunner{}
}

// Run starts the process, waits for it and captures both output streams.
// A process that exits with a non-zero status is not an error at this level.
func (runner OSCommandRunner) Run(executionContext context.Context, command ShellCommand) (ExecutionResult, error) {
	if executionContext == nil {
		executionContext = context.Background()
	}

	process := exec.CommandContext(executionContext, string(command.Name), command.Details.Arguments...)
	process.Dir = command.Details.WorkingDirectory
	process.Env = mergeEnvironment(os.Environ(), command.Details.EnvironmentVariables)
	if len(command.Details.StandardInput) > 0 {
		process.Stdin = bytes.NewReader(command.Details.StandardInput)
	}

	var standardOutput bytes.Buffer
	var standardError bytes.Buffer
	process.Stdout = &standardOutput
	process.Stderr = &standardError

	runError := process.Run()
	result := ExecutionResult{
		StandardOutput: standardOutput.String(),
		StandardError:  standardError.String(),
	}

	if runError == nil {
		return result, nil
	}

	var exitError *exec.ExitError
	if errors.As(runError, &exitError) && executionContext.Err() == nil {
		result.ExitCode = exitError.ExitCode()
		return result, nil
	}

	if contextError := executionContext.Err(); contextError != nil {
		return result, contextError
	}
	return result, runError
}

func mergeEnvironment(base []string, overrides map[string]string) []string {
	if len(overrides) == 0 {
		return base
	}

	merged := make([]string, 0, len(base)+len(overrides))
	for _, assignment := range base {
		name, _, found := strings.Cut(assignment, environmentAssignmentSeparatorConstant)
		if found {
			if _, overridden := overrides[name]; overridden {
				continue
			}
		}
		merged = append(merged, assignment)
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		merged = append(merged, name+environmentAssignmentSeparatorConstant+overrides[name])
	}
	return merged
}
