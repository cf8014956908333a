package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tyemirov/tagimport/internal/execshell"
)

const (
	gitListRemoteSubcommandConstant             = "ls-remote"
	gitTagSubcommandConstant                    = "tag"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	repositoryPathFieldNameConstant             = "repository_path"
	remoteFieldNameConstant                     = "remote"
	tagNameFieldNameConstant                    = "tag_name"
	commitIDFieldNameConstant                   = "commit_id"
	requiredValueMessageConstant                = "value required"
	executorNotConfiguredMessageConstant        = "git executor not configured"
	repositoryOperationErrorTemplateConstant    = "%s operation failed"
	repositoryOperationErrorWithCauseConstant   = "%s operation failed: %s"
	invalidRepositoryInputTemplateConstant      = "%s: %s"
	listRemoteReferencesOperationNameConstant   = RepositoryOperationName("ListRemoteReferences")
	createTagOperationNameConstant              = RepositoryOperationName("CreateTag")
)

// GitCommandExecutor exposes the subset of execshell functionality required by RepositoryManager.
type GitCommandExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RepositoryManager lists remote references and creates tags by running the git executable
// inside a single local repository.
type RepositoryManager struct {
	executor          GitCommandExecutor
	repositoryPath    string
	invocationTimeout time.Duration
}

// ManagerOptions configures a RepositoryManager.
type ManagerOptions struct {
	RepositoryPath    string
	InvocationTimeout time.Duration
}

var (
	// ErrGitExecutorNotConfigured indicates the RepositoryManager was constructed without a git executor.
	ErrGitExecutorNotConfigured = errors.New(executorNotConfiguredMessageConstant)
)

// InvalidRepositoryInputError indicates validation failures for repository operations.
type InvalidRepositoryInputError struct {
	FieldName string
	Message   string
}

// Error describes the validation failure.
func (inputError InvalidRepositoryInputError) Error() string {
	return fmt.Sprintf(invalidRepositoryInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// RepositoryOperationName captures descriptive names for repository operations.
type RepositoryOperationName string

// RepositoryOperationError wraps execution failures for git operations.
type RepositoryOperationError struct {
	Operation RepositoryOperationName
	Cause     error
}

// Error describes the repository operation failure.
func (operationError RepositoryOperationError) Error() string {
	if operationError.Cause == nil {
		return fmt.Sprintf(repositoryOperationErrorTemplateConstant, operationError.Operation)
	}
	return fmt.Sprintf(repositoryOperationErrorWithCauseConstant, operationError.Operation, operationError.Cause)
}

// Unwrap exposes the underlying error.
func (operationError RepositoryOperationError) Unwrap() error {
	return operationError.Cause
}

// NewRepositoryManager constructs a RepositoryManager for the provided executor.
func NewRepositoryManager(executor GitCommandExecutor, options ManagerOptions) (*RepositoryManager, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}

	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return nil, InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	return &RepositoryManager{
		executor:          executor,
		repositoryPath:    repositoryPath,
		invocationTimeout: options.InvocationTimeout,
	}, nil
}

// ListRemoteReferences runs `git ls-remote <remote>` and parses its output.
// When git exits with a non-zero status the references parsed from whatever it printed
// are returned together with the command failure, even if that output is malformed.
func (manager *RepositoryManager) ListRemoteReferences(executionContext context.Context, remote string) ([]RemoteReference, error) {
	if len(remote) == 0 {
		return nil, InvalidRepositoryInputError{FieldName: remoteFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionContext, cancel := manager.boundContext(executionContext)
	defer cancel()

	executionResult, executionError := manager.executor.ExecuteGit(executionContext, manager.commandDetails(gitListRemoteSubcommandConstant, remote))

	references, parseError := ParseRemoteReferences(executionResult.StandardOutput)
	if executionError != nil {
		return references, RepositoryOperationError{Operation: listRemoteReferencesOperationNameConstant, Cause: executionError}
	}
	return references, parseError
}

// CreateTag runs `git tag <tagName> <commitID>`, creating a lightweight tag.
func (manager *RepositoryManager) CreateTag(executionContext context.Context, tagName string, commitID string) error {
	if len(tagName) == 0 {
		return InvalidRepositoryInputError{FieldName: tagNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if len(commitID) == 0 {
		return InvalidRepositoryInputError{FieldName: commitIDFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionContext, cancel := manager.boundContext(executionContext)
	defer cancel()

	if _, executionError := manager.executor.ExecuteGit(executionContext, manager.commandDetails(gitTagSubcommandConstant, tagName, commitID)); executionError != nil {
		return RepositoryOperationError{Operation: createTagOperationNameConstant, Cause: executionError}
	}
	return nil
}

func (manager *RepositoryManager) commandDetails(arguments ...string) execshell.CommandDetails {
	return execshell.CommandDetails{
		Arguments:            arguments,
		WorkingDirectory:     manager.repositoryPath,
		EnvironmentVariables: map[string]string{gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant},
	}
}

func (manager *RepositoryManager) boundContext(executionContext context.Context) (context.Context, context.CancelFunc) {
	return boundInvocation(executionContext, manager.invocationTimeout)
}

func boundInvocation(executionContext context.Context, invocationTimeout time.Duration) (context.Context, context.CancelFunc) {
	if executionContext == nil {
		executionContext = context.Background()
	}
	if invocationTimeout <= 0 {
		return executionContext, func() {}
	}
	return context.WithTimeout(executionContext, invocationTimeout)
}
