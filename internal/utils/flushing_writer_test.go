package utils_test

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tyemirov/tagimport/internal/execshell"
	"github.com/tyemirov/tagimport/internal/tagimport"
	"github.com/tyemirov/tagimport/internal/utils"
)

const (
	testFlushReleaseCommitConstant = "1111111111111111111111111111111111111111"
	testFlushTagConstant           = "origin-v1.2.0"
)

type recordingReportDestination struct {
	buffer             bytes.Buffer
	flushError         error
	contentAtEachFlush []string
}

func (destination *recordingReportDestination) Write(data []byte) (int, error) {
	return destination.buffer.Write(data)
}

func (destination *recordingReportDestination) Flush() error {
	destination.contentAtEachFlush = append(destination.contentAtEachFlush, destination.buffer.String())
	return destination.flushError
}

func TestFlushingWriterFlushesEveryReportLine(testInstance *testing.T) {
	tagCreationFailure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"tag", testFlushTagConstant, testFlushReleaseCommitConstant}}},
		Result:  execshell.ExecutionResult{StandardError: "fatal: tag 'origin-v1.2.0' already exists\n", ExitCode: 128},
	}

	testCases := []struct {
		name            string
		report          func(*tagimport.Reporter) error
		expectedFlushes []string
	}{
		{
			name: "announcement_then_odd",
			report: func(reporter *tagimport.Reporter) error {
				if announceError := reporter.AnnounceTag(testFlushTagConstant, testFlushReleaseCommitConstant); announceError != nil {
					return announceError
				}
				return reporter.ReportOdd("origin", "release-1")
			},
			expectedFlushes: []string{
				"origin-v1.2.0 " + testFlushReleaseCommitConstant + "\n",
				"origin-v1.2.0 " + testFlushReleaseCommitConstant + "\n-- odd: origin release-1\n",
			},
		},
		{
			name: "command_failure_block",
			report: func(reporter *tagimport.Reporter) error {
				return reporter.ReportFailure(tagCreationFailure)
			},
			expectedFlushes: []string{
				"cmd failed (rc=128)\n",
				"cmd failed (rc=128)\ncmd: git tag origin-v1.2.0 " + testFlushReleaseCommitConstant + "\n",
				"cmd failed (rc=128)\ncmd: git tag origin-v1.2.0 " + testFlushReleaseCommitConstant + "\nstdout: \n",
				"cmd failed (rc=128)\ncmd: git tag origin-v1.2.0 " + testFlushReleaseCommitConstant + "\nstdout: \nstderr: fatal: tag 'origin-v1.2.0' already exists\n",
			},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			destination := &recordingReportDestination{}
			reporter := tagimport.NewReporter(utils.NewFlushingWriter(destination))

			require.NoError(testInstance, testCase.report(reporter))
			require.Equal(testInstance, testCase.expectedFlushes, destination.contentAtEachFlush)
		})
	}
}

func TestFlushingWriterSurfacesFlushFailure(testInstance *testing.T) {
	flushFailure := errors.New("stdout closed")
	destination := &recordingReportDestination{flushError: flushFailure}
	reporter := tagimport.NewReporter(utils.NewFlushingWriter(destination))

	announceError := reporter.AnnounceTag(testFlushTagConstant, testFlushReleaseCommitConstant)
	require.ErrorIs(testInstance, announceError, flushFailure)
	require.Equal(testInstance, "origin-v1.2.0 "+testFlushReleaseCommitConstant+"\n", destination.buffer.String())
	require.Len(testInstance, destination.contentAtEachFlush, 1)
}

func TestFlushingWriterPassesThroughPlainWriters(testInstance *testing.T) {
	plainBuffer := &bytes.Buffer{}
	require.Same(testInstance, plainBuffer, utils.NewFlushingWriter(plainBuffer))

	reporter := tagimport.NewReporter(utils.NewFlushingWriter(plainBuffer))
	require.NoError(testInstance, reporter.ReportOdd("origin", "nightly"))
	require.Equal(testInstance, "-- odd: origin nightly\n", plainBuffer.String())
}
