package gitrepo

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	gitlib "github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/storage/memory"
)

const (
	anonymousRemoteNameConstant         = "anonymous"
	sha1CommitIDHexLengthConstant       = 40
	sha256CommitIDHexLengthConstant     = 64
	invalidCommitIDMessageConstant      = "expected 40 or 64 hexadecimal characters"
	unsupportedObjectFormatConstant     = "object format not supported by the repository"
	urlSchemeSeparatorConstant          = "://"
	scpLikeSeparatorConstant            = ":"
	peeledReferenceSuffixConstant       = "^{}"
	openRepositoryOperationNameConstant = RepositoryOperationName("OpenRepository")
)

// ErrUnsupportedObjectFormat indicates a commit id whose hash width the opened repository cannot address.
var ErrUnsupportedObjectFormat = errors.New(unsupportedObjectFormatConstant)

// NativeRepository implements the same operations as RepositoryManager on top of go-git,
// without spawning git processes.
type NativeRepository struct {
	repository        *gitlib.Repository
	repositoryPath    string
	invocationTimeout time.Duration
}

// OpenNativeRepository opens the repository containing options.RepositoryPath.
func OpenNativeRepository(options ManagerOptions) (*NativeRepository, error) {
	repositoryPath := strings.TrimSpace(options.RepositoryPath)
	if len(repositoryPath) == 0 {
		return nil, InvalidRepositoryInputError{FieldName: repositoryPathFieldNameConstant, Message: requiredValueMessageConstant}
	}

	repository, openError := gitlib.PlainOpenWithOptions(repositoryPath, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return nil, RepositoryOperationError{Operation: openRepositoryOperationNameConstant, Cause: openError}
	}

	return &NativeRepository{
		repository:        repository,
		repositoryPath:    repositoryPath,
		invocationTimeout: options.InvocationTimeout,
	}, nil
}

// ListRemoteReferences lists the references advertised by remote, which may be a configured
// remote name, a URL or a filesystem path. Peeled tag entries are included and HEAD comes first,
// followed by the remaining references in name order.
func (native *NativeRepository) ListRemoteReferences(executionContext context.Context, remote string) ([]RemoteReference, error) {
	if len(remote) == 0 {
		return nil, InvalidRepositoryInputError{FieldName: remoteFieldNameConstant, Message: requiredValueMessageConstant}
	}

	executionContext, cancel := boundInvocation(executionContext, native.invocationTimeout)
	defer cancel()

	advertised, listError := native.resolveRemote(remote).ListContext(executionContext, &gitlib.ListOptions{PeelingOption: gitlib.AppendPeeled})
	if listError != nil {
		if errors.Is(listError, transport.ErrEmptyRemoteRepository) {
			return []RemoteReference{}, nil
		}
		return []RemoteReference{}, RepositoryOperationError{Operation: listRemoteReferencesOperationNameConstant, Cause: listError}
	}

	return orderedReferences(advertised), nil
}

// CreateTag creates a lightweight tag named tagName pointing at commitID.
func (native *NativeRepository) CreateTag(executionContext context.Context, tagName string, commitID string) error {
	if len(tagName) == 0 {
		return InvalidRepositoryInputError{FieldName: tagNameFieldNameConstant, Message: requiredValueMessageConstant}
	}
	if !isFullCommitID(commitID) {
		return InvalidRepositoryInputError{FieldName: commitIDFieldNameConstant, Message: invalidCommitIDMessageConstant}
	}
	if executionContext != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return RepositoryOperationError{Operation: createTagOperationNameConstant, Cause: contextError}
		}
	}

	target := plumbing.NewHash(commitID)
	if target.String() != strings.ToLower(commitID) {
		return RepositoryOperationError{Operation: createTagOperationNameConstant, Cause: fmt.Errorf("%s: %w", commitID, ErrUnsupportedObjectFormat)}
	}
	if objectError := native.repository.Storer.HasEncodedObject(target); objectError != nil {
		return RepositoryOperationError{Operation: createTagOperationNameConstant, Cause: fmt.Errorf("%s: %w", commitID, objectError)}
	}

	if _, createError := native.repository.CreateTag(tagName, target, nil); createError != nil {
		return RepositoryOperationError{Operation: createTagOperationNameConstant, Cause: fmt.Errorf("%s: %w", tagName, createError)}
	}
	return nil
}

func (native *NativeRepository) resolveRemote(remote string) *gitlib.Remote {
	if configured, remoteError := native.repository.Remote(remote); remoteError == nil {
		return configured
	}

	return gitlib.NewRemote(memory.NewStorage(), &gitconfig.RemoteConfig{
		Name: anonymousRemoteNameConstant,
		URLs: []string{native.remoteLocation(remote)},
	})
}

// remoteLocation resolves relative filesystem paths against the repository directory, matching
// how git interprets them when run inside that directory.
func (native *NativeRepository) remoteLocation(remote string) string {
	if strings.Contains(remote, urlSchemeSeparatorConstant) || filepath.IsAbs(remote) {
		return remote
	}
	candidate := filepath.Join(native.repositoryPath, remote)
	if _, statError := os.Stat(candidate); statError == nil {
		return candidate
	}
	if strings.Contains(remote, scpLikeSeparatorConstant) {
		return remote
	}
	return candidate
}

func orderedReferences(advertised []*plumbing.Reference) []RemoteReference {
	hashesByName := make(map[plumbing.ReferenceName]plumbing.Hash, len(advertised))
	for _, reference := range advertised {
		if reference.Type() == plumbing.HashReference {
			hashesByName[reference.Name()] = reference.Hash()
		}
	}

	references := make([]RemoteReference, 0, len(advertised))
	var head *RemoteReference
	for _, reference := range advertised {
		hash := reference.Hash()
		if reference.Type() == plumbing.SymbolicReference {
			resolved, found := hashesByName[reference.Target()]
			if !found {
				continue
			}
			hash = resolved
		}

		entry := RemoteReference{CommitID: hash.String(), ReferenceName: reference.Name().String()}
		if reference.Name() == plumbing.HEAD {
			head = &entry
			continue
		}
		references = append(references, entry)
	}

	sort.SliceStable(references, func(leftIndex int, rightIndex int) bool {
		leftName, leftPeeled := peeledBaseName(references[leftIndex].ReferenceName)
		rightName, rightPeeled := peeledBaseName(references[rightIndex].ReferenceName)
		if leftName != rightName {
			return leftName < rightName
		}
		return !leftPeeled && rightPeeled
	})
	if head != nil {
		references = append([]RemoteReference{*head}, references...)
	}
	return references
}

// peeledBaseName strips the peeled suffix so a peeled entry sorts right after its tag.
func peeledBaseName(referenceName string) (string, bool) {
	baseName, peeled := strings.CutSuffix(referenceName, peeledReferenceSuffixConstant)
	return baseName, peeled
}

func isFullCommitID(commitID string) bool {
	switch len(commitID) {
	case sha1CommitIDHexLengthConstant, sha256CommitIDHexLengthConstant:
	default:
		return false
	}
	_, decodeError := hex.DecodeString(commitID)
	return decodeError == nil
}
