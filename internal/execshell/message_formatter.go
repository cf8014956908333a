package execshell

import (
	"fmt"
	"strings"
)

const (
	startedMessageTemplateConstant          = "Running %s"
	completedMessageTemplateConstant        = "Completed %s"
	failedMessageTemplateConstant           = "%s failed with exit code %d"
	failedWithDetailMessageTemplateConstant = "%s failed with exit code %d: %s"
	executionFailureMessageTemplateConstant = "%s failed: %v"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	gitListRemoteSubcommandConstant         = "ls-remote"
	gitTagSubcommandConstant                = "tag"
	listRemoteStartedTemplateConstant       = "Listing references of %s"
	listRemoteCompletedTemplateConstant     = "Listed references of %s"
	tagCreateCompletedTemplateConstant      = "Created tag %s"
)

// CommandMessageFormatter renders human-readable log messages for shell commands.
type CommandMessageFormatter struct{}

// BuildStartedMessage describes a command that is about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	if remote, isListing := formatter.listRemoteTarget(command); isListing {
		return fmt.Sprintf(listRemoteStartedTemplateConstant, remote)
	}
	return fmt.Sprintf(startedMessageTemplateConstant, formatter.describe(command))
}

// BuildSuccessMessage describes a command that exited with status zero.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	if remote, isListing := formatter.listRemoteTarget(command); isListing {
		return fmt.Sprintf(listRemoteCompletedTemplateConstant, remote)
	}
	if tagName, isTagCreation := formatter.tagCreationTarget(command); isTagCreation {
		return fmt.Sprintf(tagCreateCompletedTemplateConstant, tagName)
	}
	return fmt.Sprintf(completedMessageTemplateConstant, formatter.describe(command))
}

// BuildFailureMessage describes a command that exited with a non-zero status.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	detail := firstLine(result.StandardError)
	if len(detail) == 0 {
		return fmt.Sprintf(failedMessageTemplateConstant, formatter.describe(command), result.ExitCode)
	}
	return fmt.Sprintf(failedWithDetailMessageTemplateConstant, formatter.describe(command), result.ExitCode, detail)
}

// BuildExecutionFailureMessage describes a command the runner could not execute.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return fmt.Sprintf(executionFailureMessageTemplateConstant, formatter.describe(command), failure)
}

func (formatter CommandMessageFormatter) describe(command ShellCommand) string {
	description := strings.Join(command.Argv(), " ")
	workingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(workingDirectory) > 0 {
		description += fmt.Sprintf(workingDirectorySuffixTemplateConstant, workingDirectory)
	}
	return description
}

func (formatter CommandMessageFormatter) listRemoteTarget(command ShellCommand) (string, bool) {
	arguments := command.Details.Arguments
	if command.Name != CommandGit || len(arguments) != 2 || arguments[0] != gitListRemoteSubcommandConstant {
		return "", false
	}
	return arguments[1], true
}

func (formatter CommandMessageFormatter) tagCreationTarget(command ShellCommand) (string, bool) {
	arguments := command.Details.Arguments
	if command.Name != CommandGit || len(arguments) != 3 || arguments[0] != gitTagSubcommandConstant {
		return "", false
	}
	return arguments[1], true
}

func firstLine(text string) string {
	trimmed := strings.TrimSpace(text)
	if index := strings.IndexByte(trimmed, '\n'); index >= 0 {
		return strings.TrimSpace(trimmed[:index])
	}
	return trimmed
}
