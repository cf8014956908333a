package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tyemirov/tagimport/internal/execshell"
	"github.com/tyemirov/tagimport/internal/gitrepo"
	"github.com/tyemirov/tagimport/internal/tagimport"
	"github.com/tyemirov/tagimport/internal/utils"
)

const (
	testUpstreamRemoteConstant        = "upstream"
	testMirrorRemoteConstant          = "mirror"
	testReleaseCommitConstant         = "1111111111111111111111111111111111111111"
	testAnnotatedTagObjectConstant    = "2222222222222222222222222222222222222222"
	testAnnotatedTargetConstant       = "3333333333333333333333333333333333333333"
	testDevelopmentCommitConstant     = "4444444444444444444444444444444444444444"
	testOddCommitConstant             = "5555555555555555555555555555555555555555"
	testVersionOutputConstant         = "v9.9.9"
	testRepositoryOverrideConstant    = "/srv/aggregate"
	testSearchPathEnvironmentConstant = "TAGIMPORT_CONFIG_SEARCH_PATH"
	testGitExitCodeConstant           = 128
	testExpectedImportReportConstant  = "upstream-v1.3.0 2222222222222222222222222222222222222222\n" +
		"-- odd: upstream release-1\n" +
		"upstream-v1.2.0 1111111111111111111111111111111111111111\n" +
		"cmd failed (rc=128)\n" +
		"cmd: git tag upstream-v1.2.0 1111111111111111111111111111111111111111\n" +
		"stdout: \n" +
		"stderr: fatal: failure\n" +
		"cmd failed (rc=128)\n" +
		"cmd: git ls-remote mirror\n" +
		"stdout: \n" +
		"stderr: fatal: failure\n"
)

type recordingGateway struct {
	listings     map[string][]gitrepo.RemoteReference
	listErrors   map[string]error
	createErrors map[string]error
	created      []string
}

func (gateway *recordingGateway) ListRemoteReferences(_ context.Context, remote string) ([]gitrepo.RemoteReference, error) {
	return gateway.listings[remote], gateway.listErrors[remote]
}

func (gateway *recordingGateway) CreateTag(_ context.Context, tagName string, commitID string) error {
	if createError, exists := gateway.createErrors[tagName]; exists {
		return createError
	}
	gateway.created = append(gateway.created, tagName+" "+commitID)
	return nil
}

func newUpstreamGateway() *recordingGateway {
	return &recordingGateway{
		listings: map[string][]gitrepo.RemoteReference{
			testUpstreamRemoteConstant: {
				{CommitID: testReleaseCommitConstant, ReferenceName: "HEAD"},
				{CommitID: testReleaseCommitConstant, ReferenceName: "refs/heads/main"},
				{CommitID: testAnnotatedTagObjectConstant, ReferenceName: "refs/tags/1.3.0"},
				{CommitID: testAnnotatedTargetConstant, ReferenceName: "refs/tags/1.3.0^{}"},
				{CommitID: testDevelopmentCommitConstant, ReferenceName: "refs/tags/v1.4.0-dev.1"},
				{CommitID: testOddCommitConstant, ReferenceName: "refs/tags/release-1"},
				{CommitID: testReleaseCommitConstant, ReferenceName: "refs/tags/v1.2.0"},
			},
		},
		listErrors:   map[string]error{},
		createErrors: map[string]error{},
	}
}

func gitFailure(exitCode int, arguments ...string) error {
	return execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: arguments}},
		Result:  execshell.ExecutionResult{ExitCode: exitCode, StandardError: "fatal: failure"},
	}
}

type gatewayInvocation struct {
	settings gatewaySettings
	calls    int
}

func newTestApplication(testInstance *testing.T, gateway tagimport.Gateway) (*Application, *gatewayInvocation, *bytes.Buffer) {
	testInstance.Helper()
	testInstance.Setenv(testSearchPathEnvironmentConstant, testInstance.TempDir())

	application := NewApplication()
	invocation := &gatewayInvocation{}
	application.gatewayFactory = func(settings gatewaySettings) (tagimport.Gateway, error) {
		invocation.settings = settings
		invocation.calls++
		return gateway, nil
	}
	application.versionResolver = func() string {
		return testVersionOutputConstant
	}

	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(&bytes.Buffer{})
	return application, invocation, outputBuffer
}

func executeRootCommand(application *Application, arguments ...string) error {
	application.rootCommand.SetArgs(arguments)
	return application.rootCommand.Execute()
}

func TestRunRootCommandReportsEveryOutcome(testInstance *testing.T) {
	gateway := newUpstreamGateway()
	gateway.createErrors["upstream-v1.2.0"] = gitrepo.RepositoryOperationError{
		Operation: "CreateTag",
		Cause:     gitFailure(testGitExitCodeConstant, "tag", "upstream-v1.2.0", testReleaseCommitConstant),
	}
	gateway.listErrors[testMirrorRemoteConstant] = gitrepo.RepositoryOperationError{
		Operation: "ListRemoteReferences",
		Cause:     gitFailure(testGitExitCodeConstant, "ls-remote", testMirrorRemoteConstant),
	}

	application, invocation, outputBuffer := newTestApplication(testInstance, gateway)

	require.NoError(testInstance, executeRootCommand(application, testUpstreamRemoteConstant, testMirrorRemoteConstant))
	require.Equal(testInstance, testExpectedImportReportConstant, outputBuffer.String())
	require.Equal(testInstance, []string{"upstream-v1.3.0 " + testAnnotatedTagObjectConstant}, gateway.created)
	require.Equal(testInstance, 1, invocation.calls)
	require.Equal(testInstance, importGatewayExecConstant, invocation.settings.Kind)
	require.Equal(testInstance, defaultRepositoryPathConstant, invocation.settings.RepositoryPath)
}

func TestRunRootCommandDryRunCreatesNothing(testInstance *testing.T) {
	gateway := newUpstreamGateway()
	application, _, outputBuffer := newTestApplication(testInstance, gateway)

	require.NoError(testInstance, executeRootCommand(application, "--dry-run", testUpstreamRemoteConstant))
	require.Equal(
		testInstance,
		"upstream-v1.3.0 "+testAnnotatedTagObjectConstant+"\n-- odd: upstream release-1\nupstream-v1.2.0 "+testReleaseCommitConstant+"\n",
		outputBuffer.String(),
	)
	require.Empty(testInstance, gateway.created)
}

func TestRunRootCommandRequiresRemotes(testInstance *testing.T) {
	application, invocation, outputBuffer := newTestApplication(testInstance, newUpstreamGateway())

	executionError := executeRootCommand(application)
	require.ErrorIs(testInstance, executionError, tagimport.ErrRemotesRequired)
	require.Contains(testInstance, executionError.Error(), "<remote>")
	require.Zero(testInstance, invocation.calls)
	require.Empty(testInstance, outputBuffer.String())
}

func TestRunRootCommandStopsOnMalformedListing(testInstance *testing.T) {
	gateway := newUpstreamGateway()
	gateway.listings[testMirrorRemoteConstant] = []gitrepo.RemoteReference{
		{CommitID: testReleaseCommitConstant, ReferenceName: "refs/tags/v2.0.0"},
	}
	gateway.listErrors[testMirrorRemoteConstant] = gitrepo.MalformedListingError{LineNumber: 2, Line: "garbage"}
	application, _, outputBuffer := newTestApplication(testInstance, gateway)

	executionError := executeRootCommand(application, testMirrorRemoteConstant, testUpstreamRemoteConstant)

	var malformedListing gitrepo.MalformedListingError
	require.ErrorAs(testInstance, executionError, &malformedListing)
	require.Equal(testInstance, "mirror-v2.0.0 "+testReleaseCommitConstant+"\n", outputBuffer.String())
	require.Equal(testInstance, []string{"mirror-v2.0.0 " + testReleaseCommitConstant}, gateway.created)
}

func TestRunRootCommandAppliesImportFlagOverrides(testInstance *testing.T) {
	application, invocation, _ := newTestApplication(testInstance, newUpstreamGateway())

	require.NoError(testInstance, executeRootCommand(
		application,
		"--repository", testRepositoryOverrideConstant,
		"--gateway", "Native",
		"--timeout", "5s",
		testUpstreamRemoteConstant,
	))
	require.Equal(testInstance, gatewaySettings{
		Kind:                 importGatewayNativeConstant,
		RepositoryPath:       testRepositoryOverrideConstant,
		Timeout:              5 * time.Second,
		Logger:               application.logger,
		HumanReadableLogging: false,
	}, invocation.settings)
}

func TestRunRootCommandReportsGatewayFactoryFailure(testInstance *testing.T) {
	application, _, _ := newTestApplication(testInstance, nil)
	application.gatewayFactory = func(settings gatewaySettings) (tagimport.Gateway, error) {
		return nil, gitrepo.ErrGitExecutorNotConfigured
	}

	executionError := executeRootCommand(application, testUpstreamRemoteConstant)
	require.ErrorIs(testInstance, executionError, gitrepo.ErrGitExecutorNotConfigured)
	require.Contains(testInstance, executionError.Error(), "exec gateway")
}

func TestRunRootCommandStoresSummaryFile(testInstance *testing.T) {
	gateway := newUpstreamGateway()
	application, _, _ := newTestApplication(testInstance, gateway)
	summaryPath := filepath.Join(testInstance.TempDir(), "reports", "summary.yaml")

	require.NoError(testInstance, executeRootCommand(application, "--summary-file", summaryPath, testUpstreamRemoteConstant))

	summaryContent, readError := os.ReadFile(summaryPath)
	require.NoError(testInstance, readError)

	var runSummary tagimport.RunSummary
	require.NoError(testInstance, yaml.Unmarshal(summaryContent, &runSummary))
	require.False(testInstance, runSummary.DryRun)
	require.Equal(testInstance, []tagimport.RemoteSummary{{
		Remote:         testUpstreamRemoteConstant,
		Listed:         7,
		Skipped:        4,
		Invalid:        1,
		Announced:      2,
		Created:        2,
		HighestVersion: "v1.3.0",
	}}, runSummary.Remotes)
}

func TestRunRootCommandPrintsVersion(testInstance *testing.T) {
	application, invocation, outputBuffer := newTestApplication(testInstance, newUpstreamGateway())

	require.NoError(testInstance, executeRootCommand(application, "--version"))
	require.Equal(testInstance, "tagimport version: "+testVersionOutputConstant+"\n", outputBuffer.String())
	require.Zero(testInstance, invocation.calls)
}

func TestInitializeConfigurationAttachesRepositoryContext(testInstance *testing.T) {
	testInstance.Setenv(testSearchPathEnvironmentConstant, testInstance.TempDir())
	application := NewApplication()
	command := &cobra.Command{Use: applicationNameConstant}
	command.SetContext(context.Background())

	require.NoError(testInstance, application.initializeConfiguration(command))

	repositoryContext, available := application.commandContextAccessor.RepositoryContext(command.Context())
	require.True(testInstance, available)
	require.Equal(testInstance, utils.RepositoryContext{Path: defaultRepositoryPathConstant, Gateway: importGatewayExecConstant}, repositoryContext)

	logLevel, logLevelAvailable := application.commandContextAccessor.LogLevel(command.Context())
	require.True(testInstance, logLevelAvailable)
	require.Equal(testInstance, string(utils.LogLevelError), logLevel)
}

func TestNormalizeInitializationScopeArguments(testInstance *testing.T) {
	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "Empty",
			arguments: nil,
			expected:  nil,
		},
		{
			name:      "BareFlagDefaultsToLocal",
			arguments: []string{"--init"},
			expected:  []string{"--init=local"},
		},
		{
			name:      "EmptyAssignmentDefaultsToLocal",
			arguments: []string{"--init="},
			expected:  []string{"--init=local"},
		},
		{
			name:      "FollowingScopeIsKept",
			arguments: []string{"--init", "user"},
			expected:  []string{"--init", "user"},
		},
		{
			name:      "FollowingRemoteIsNotConsumed",
			arguments: []string{"--init", "origin"},
			expected:  []string{"--init=local", "origin"},
		},
		{
			name:      "AssignmentIsKept",
			arguments: []string{"--init=user", "--force"},
			expected:  []string{"--init=user", "--force"},
		},
		{
			name:      "RemotesPassThrough",
			arguments: []string{"origin", "upstream"},
			expected:  []string{"origin", "upstream"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(t *testing.T) {
			require.Equal(t, testCase.expected, normalizeInitializationScopeArguments(testCase.arguments))
		})
	}
}

func TestBuildGateway(testInstance *testing.T) {
	testInstance.Run("UnsupportedKind", func(t *testing.T) {
		gateway, buildError := buildGateway(gatewaySettings{Kind: "libgit2", RepositoryPath: t.TempDir()})
		require.Nil(t, gateway)

		var unsupportedGateway UnsupportedGatewayError
		require.ErrorAs(t, buildError, &unsupportedGateway)
		require.Equal(t, "libgit2", unsupportedGateway.Gateway)
	})

	testInstance.Run("ExecRequiresRepositoryPath", func(t *testing.T) {
		_, buildError := buildGateway(gatewaySettings{Kind: importGatewayExecConstant})

		var inputError gitrepo.InvalidRepositoryInputError
		require.ErrorAs(t, buildError, &inputError)
	})

	testInstance.Run("ExecBuildsRepositoryManager", func(t *testing.T) {
		gateway, buildError := buildGateway(gatewaySettings{Kind: importGatewayExecConstant, RepositoryPath: t.TempDir()})
		require.NoError(t, buildError)
		require.IsType(t, &gitrepo.RepositoryManager{}, gateway)
	})

	testInstance.Run("NativeRequiresRepository", func(t *testing.T) {
		_, buildError := buildGateway(gatewaySettings{Kind: importGatewayNativeConstant, RepositoryPath: t.TempDir()})

		var operationError gitrepo.RepositoryOperationError
		require.ErrorAs(t, buildError, &operationError)
	})
}

func TestExecuteKeepsShortLiteralRemoteAfterDryRun(testInstance *testing.T) {
	gateway := &recordingGateway{
		listings: map[string][]gitrepo.RemoteReference{
			"n": {{CommitID: testReleaseCommitConstant, ReferenceName: "refs/tags/v1.2.0"}},
		},
		listErrors:   map[string]error{},
		createErrors: map[string]error{},
	}
	application, _, outputBuffer := newTestApplication(testInstance, gateway)

	originalArguments := os.Args
	os.Args = []string{applicationNameConstant, "--dry-run", "n"}
	testInstance.Cleanup(func() {
		os.Args = originalArguments
	})

	require.NoError(testInstance, application.Execute())
	require.Equal(testInstance, "n-v1.2.0 "+testReleaseCommitConstant+"\n", outputBuffer.String())
	require.Empty(testInstance, gateway.created)
}
