package cli

import (
	"bytes"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const (
	integrationUpstreamDirectoryConstant  = "upstream"
	integrationAggregateDirectoryConstant = "aggregate"
	integrationRemoteConstant             = "origin"
	integrationUserNameOptionConstant     = "user.name=Tag Importer"
	integrationUserEmailOptionConstant    = "user.email=tagimport@example.com"
)

type integrationFixture struct {
	aggregatePath   string
	releaseCommitID string
	annotatedTagID  string
}

func runGit(testInstance *testing.T, arguments ...string) string {
	testInstance.Helper()

	command := exec.Command("git", arguments...)
	output, runError := command.CombinedOutput()
	require.NoError(testInstance, runError, string(output))
	return strings.TrimSpace(string(output))
}

func newIntegrationFixture(testInstance *testing.T) integrationFixture {
	testInstance.Helper()
	if _, lookupError := exec.LookPath("git"); lookupError != nil {
		testInstance.Skip("git executable not available")
	}

	rootDirectory := testInstance.TempDir()
	upstreamPath := filepath.Join(rootDirectory, integrationUpstreamDirectoryConstant)
	aggregatePath := filepath.Join(rootDirectory, integrationAggregateDirectoryConstant)

	runGit(testInstance, "init", "-q", upstreamPath)
	runGit(testInstance, "-C", upstreamPath, "-c", integrationUserNameOptionConstant, "-c", integrationUserEmailOptionConstant, "commit", "-q", "--allow-empty", "-m", "initial")
	runGit(testInstance, "-C", upstreamPath, "tag", "v1.2.0")
	runGit(testInstance, "-C", upstreamPath, "-c", integrationUserNameOptionConstant, "-c", integrationUserEmailOptionConstant, "tag", "-a", "1.3.0", "-m", "release 1.3.0")
	runGit(testInstance, "-C", upstreamPath, "tag", "v1.4.0-dev.1")
	runGit(testInstance, "-C", upstreamPath, "tag", "release-1")
	runGit(testInstance, "clone", "-q", upstreamPath, aggregatePath)

	return integrationFixture{
		aggregatePath:   aggregatePath,
		releaseCommitID: runGit(testInstance, "-C", upstreamPath, "rev-parse", "HEAD"),
		annotatedTagID:  runGit(testInstance, "-C", upstreamPath, "rev-parse", "refs/tags/1.3.0"),
	}
}

func runIntegrationImport(testInstance *testing.T, arguments ...string) string {
	testInstance.Helper()
	testInstance.Setenv(testSearchPathEnvironmentConstant, testInstance.TempDir())

	application := NewApplication()
	outputBuffer := &bytes.Buffer{}
	application.rootCommand.SetOut(outputBuffer)
	application.rootCommand.SetErr(&bytes.Buffer{})
	application.rootCommand.SetArgs(arguments)

	require.NoError(testInstance, application.rootCommand.Execute())
	return outputBuffer.String()
}

func TestImportAgainstLocalRepositories(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		gateway              string
		assertRepeatedReport func(*testing.T, integrationFixture, string)
	}{
		{
			name:    "ExecGateway",
			gateway: importGatewayExecConstant,
			assertRepeatedReport: func(testInstance *testing.T, fixture integrationFixture, report string) {
				testInstance.Helper()

				reportLines := strings.Split(strings.TrimSuffix(report, "\n"), "\n")
				require.Len(testInstance, reportLines, 11, report)
				require.Equal(testInstance, []string{
					"origin-v1.3.0 " + fixture.annotatedTagID,
					"cmd failed (rc=128)",
					"cmd: git tag origin-v1.3.0 " + fixture.annotatedTagID,
					"stdout: ",
				}, reportLines[:4])
				require.True(testInstance, strings.HasPrefix(reportLines[4], "stderr: "), report)
				require.Contains(testInstance, reportLines[4], "already exists")
				require.Equal(testInstance, []string{
					"-- odd: origin release-1",
					"origin-v1.2.0 " + fixture.releaseCommitID,
					"cmd failed (rc=128)",
					"cmd: git tag origin-v1.2.0 " + fixture.releaseCommitID,
					"stdout: ",
				}, reportLines[5:10])
				require.True(testInstance, strings.HasPrefix(reportLines[10], "stderr: "), report)
				require.Contains(testInstance, reportLines[10], "already exists")
			},
		},
		{
			name:    "NativeGateway",
			gateway: importGatewayNativeConstant,
			assertRepeatedReport: func(testInstance *testing.T, fixture integrationFixture, report string) {
				testInstance.Helper()

				require.Equal(testInstance,
					"origin-v1.3.0 "+fixture.annotatedTagID+"\n"+
						"failed: CreateTag: origin-v1.3.0: tag already exists\n"+
						"-- odd: origin release-1\n"+
						"origin-v1.2.0 "+fixture.releaseCommitID+"\n"+
						"failed: CreateTag: origin-v1.2.0: tag already exists\n",
					report,
				)
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			fixture := newIntegrationFixture(testInstance)
			arguments := []string{"--repository", fixture.aggregatePath, "--gateway", testCase.gateway, integrationRemoteConstant}

			firstReport := runIntegrationImport(testInstance, arguments...)
			require.Equal(
				testInstance,
				"origin-v1.3.0 "+fixture.annotatedTagID+"\n-- odd: origin release-1\norigin-v1.2.0 "+fixture.releaseCommitID+"\n",
				firstReport,
			)
			require.Equal(testInstance, fixture.releaseCommitID, runGit(testInstance, "-C", fixture.aggregatePath, "rev-parse", "refs/tags/origin-v1.2.0"))
			require.Equal(testInstance, fixture.annotatedTagID, runGit(testInstance, "-C", fixture.aggregatePath, "rev-parse", "refs/tags/origin-v1.3.0"))

			testCase.assertRepeatedReport(testInstance, fixture, runIntegrationImport(testInstance, arguments...))
		})
	}
}

func TestImportDryRunLeavesRepositoryUntouched(testInstance *testing.T) {
	fixture := newIntegrationFixture(testInstance)

	report := runIntegrationImport(testInstance, "--dry-run", "--repository", fixture.aggregatePath, integrationRemoteConstant)
	require.Contains(testInstance, report, "origin-v1.2.0 "+fixture.releaseCommitID+"\n")
	require.Empty(testInstance, runGit(testInstance, "-C", fixture.aggregatePath, "tag", "--list", "origin-*"))
}

func TestImportReportsUnreachableRemote(testInstance *testing.T) {
	fixture := newIntegrationFixture(testInstance)
	missingRemote := filepath.Join(testInstance.TempDir(), "missing")

	report := runIntegrationImport(testInstance, "--repository", fixture.aggregatePath, missingRemote, integrationRemoteConstant)
	require.True(testInstance, strings.HasPrefix(report, "cmd failed (rc=128)\ncmd: git ls-remote "+missingRemote+"\nstdout: \nstderr: "), report)
	require.True(testInstance, strings.HasSuffix(report, "origin-v1.2.0 "+fixture.releaseCommitID+"\n"), report)
}
