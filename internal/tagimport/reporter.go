package tagimport

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tyemirov/tagimport/internal/execshell"
	"github.com/tyemirov/tagimport/internal/gitrepo"
)

const (
	oddReferenceTemplateConstant          = "-- odd: %s %s\n"
	announcementTemplateConstant          = "%s %s\n"
	commandFailedTemplateConstant         = "cmd failed (rc=%d)\n"
	commandArgvTemplateConstant           = "cmd: %s\n"
	commandStdoutTemplateConstant         = "stdout: %s\n"
	commandStderrTemplateConstant         = "stderr: %s\n"
	operationFailedTemplateConstant       = "failed: %s: %v\n"
	genericFailureTemplateConstant        = "failed: %v\n"
	argvSeparatorConstant                 = " "
	capturedOutputTrailingCharsetConstant = "\r\n"
)

// Reporter writes the operator-facing report lines.
type Reporter struct {
	output io.Writer
}

// NewReporter constructs a Reporter writing to output.
func NewReporter(output io.Writer) *Reporter {
	if output == nil {
		output = io.Discard
	}
	return &Reporter{output: output}
}

// ReportOdd prints a tag name no classification rule accepted.
func (reporter *Reporter) ReportOdd(remote string, tagName string) error {
	return reporter.printf(oddReferenceTemplateConstant, remote, tagName)
}

// AnnounceTag prints the tag about to be created and its target commit.
func (reporter *Reporter) AnnounceTag(tagName string, commitID string) error {
	return reporter.printf(announcementTemplateConstant, tagName, commitID)
}

// ReportFailure prints a failed gateway operation. Process exits produce the
// exit code, argv and stdout lines followed by a stderr line when the process wrote
// to its error stream; other failures produce a single line.
func (reporter *Reporter) ReportFailure(failure error) error {
	var commandFailure execshell.CommandFailedError
	if errors.As(failure, &commandFailure) {
		return reporter.reportCommandFailure(commandFailure)
	}

	var operationError gitrepo.RepositoryOperationError
	if errors.As(failure, &operationError) && operationError.Cause != nil {
		return reporter.printf(operationFailedTemplateConstant, operationError.Operation, operationError.Cause)
	}

	return reporter.printf(genericFailureTemplateConstant, failure)
}

func (reporter *Reporter) reportCommandFailure(commandFailure execshell.CommandFailedError) error {
	if writeError := reporter.printf(commandFailedTemplateConstant, commandFailure.Result.ExitCode); writeError != nil {
		return writeError
	}
	if writeError := reporter.printf(commandArgvTemplateConstant, strings.Join(commandFailure.Command.Argv(), argvSeparatorConstant)); writeError != nil {
		return writeError
	}
	if writeError := reporter.printf(commandStdoutTemplateConstant, strings.TrimRight(commandFailure.Result.StandardOutput, capturedOutputTrailingCharsetConstant)); writeError != nil {
		return writeError
	}

	standardError := strings.TrimRight(commandFailure.Result.StandardError, capturedOutputTrailingCharsetConstant)
	if len(standardError) == 0 {
		return nil
	}
	return reporter.printf(commandStderrTemplateConstant, standardError)
}

func (reporter *Reporter) printf(template string, arguments ...any) error {
	_, writeError := fmt.Fprintf(reporter.output, template, arguments...)
	return writeError
}
