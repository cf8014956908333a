package gitrepo

import (
	"testing"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/stretchr/testify/require"
)

const (
	testFirstHashConstant  = "1111111111111111111111111111111111111111"
	testSecondHashConstant = "2222222222222222222222222222222222222222"
	testThirdHashConstant  = "3333333333333333333333333333333333333333"
)

func TestOrderedReferencesMatchesListingOrder(testInstance *testing.T) {
	advertised := []*plumbing.Reference{
		plumbing.NewReferenceFromStrings("refs/tags/v1.2.0^{}", testThirdHashConstant),
		plumbing.NewReferenceFromStrings("refs/tags/v1.2.0.1", testSecondHashConstant),
		plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), plumbing.NewHash(testFirstHashConstant)),
		plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main")),
		plumbing.NewReferenceFromStrings("refs/tags/v1.2.0", testSecondHashConstant),
		plumbing.NewSymbolicReference("refs/remotes/origin/HEAD", "refs/remotes/origin/missing"),
	}

	require.Equal(testInstance, []RemoteReference{
		{CommitID: testFirstHashConstant, ReferenceName: "HEAD"},
		{CommitID: testFirstHashConstant, ReferenceName: "refs/heads/main"},
		{CommitID: testSecondHashConstant, ReferenceName: "refs/tags/v1.2.0"},
		{CommitID: testThirdHashConstant, ReferenceName: "refs/tags/v1.2.0^{}"},
		{CommitID: testSecondHashConstant, ReferenceName: "refs/tags/v1.2.0.1"},
	}, orderedReferences(advertised))
}

func TestIsFullCommitID(testInstance *testing.T) {
	testCases := []struct {
		name     string
		commitID string
		expected bool
	}{
		{name: "full", commitID: testFirstHashConstant, expected: true},
		{name: "full_sha256", commitID: testFirstHashConstant + "111111111111111111111111", expected: true},
		{name: "between_widths", commitID: testFirstHashConstant + "1", expected: false},
		{name: "abbreviated", commitID: "abc123", expected: false},
		{name: "non_hex", commitID: "zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz", expected: false},
		{name: "empty", commitID: "", expected: false},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, isFullCommitID(testCase.commitID))
		})
	}
}
