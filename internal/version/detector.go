package version

import (
	"os"
	"runtime/debug"
	"strings"

	gitlib "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"golang.org/x/mod/semver"
)

const (
	unknownVersionFallbackConstant      = "unknown"
	buildInfoDevelVersionValue          = "devel"
	buildInfoDevelWrappedVersionValue   = "(devel)"
	buildInfoRevisionSettingKeyConstant = "vcs.revision"
	buildInfoModifiedSettingKeyConstant = "vcs.modified"
	buildInfoModifiedSettingTrueValue   = "true"
	revisionDisplayLengthConstant       = 12
	dirtyRevisionSuffixConstant         = "-dirty"
)

// BuildInfoProvider exposes runtime build metadata.
type BuildInfoProvider interface {
	Read() (*debug.BuildInfo, bool)
}

// Detector resolves application version strings.
type Detector struct {
	buildInfoProvider BuildInfoProvider
	workingDirectory  string
}

// Dependencies describes the collaborators required for version detection.
type Dependencies struct {
	BuildInfoProvider BuildInfoProvider
	WorkingDirectory  string
}

// NewDetector constructs a Detector with the supplied dependencies or sensible defaults.
func NewDetector(dependencies Dependencies) *Detector {
	provider := dependencies.BuildInfoProvider
	if provider == nil {
		provider = runtimeBuildInfoProvider{}
	}

	workingDirectory := strings.TrimSpace(dependencies.WorkingDirectory)
	if len(workingDirectory) == 0 {
		currentDirectory, workingDirectoryError := os.Getwd()
		if workingDirectoryError == nil {
			workingDirectory = currentDirectory
		}
	}

	return &Detector{
		buildInfoProvider: provider,
		workingDirectory:  workingDirectory,
	}
}

// Detect resolves the application version using the supplied dependencies.
func Detect(dependencies Dependencies) string {
	return NewDetector(dependencies).Version()
}

// Version returns the module version recorded at build time. Development builds fall back to the
// highest semantic version tag on HEAD of the enclosing repository, then to the recorded revision.
func (detector *Detector) Version() string {
	if detector == nil {
		return unknownVersionFallbackConstant
	}

	buildInfo, buildInfoAvailable := detector.readBuildInfo()
	if buildInfoAvailable {
		if moduleVersion := releasedModuleVersion(buildInfo); len(moduleVersion) > 0 {
			return moduleVersion
		}
	}

	if taggedVersion := detector.versionFromRepository(); len(taggedVersion) > 0 {
		return taggedVersion
	}

	if buildInfoAvailable {
		if revision := recordedRevision(buildInfo); len(revision) > 0 {
			return revision
		}
	}

	return unknownVersionFallbackConstant
}

func (detector *Detector) readBuildInfo() (*debug.BuildInfo, bool) {
	if detector.buildInfoProvider == nil {
		return nil, false
	}
	buildInfo, available := detector.buildInfoProvider.Read()
	if !available || buildInfo == nil {
		return nil, false
	}
	return buildInfo, true
}

func releasedModuleVersion(buildInfo *debug.BuildInfo) string {
	trimmedVersion := strings.TrimSpace(buildInfo.Main.Version)
	if len(trimmedVersion) == 0 {
		return ""
	}
	if strings.EqualFold(trimmedVersion, buildInfoDevelVersionValue) || trimmedVersion == buildInfoDevelWrappedVersionValue {
		return ""
	}
	return trimmedVersion
}

func recordedRevision(buildInfo *debug.BuildInfo) string {
	revision := ""
	modified := false
	for _, setting := range buildInfo.Settings {
		switch setting.Key {
		case buildInfoRevisionSettingKeyConstant:
			revision = strings.TrimSpace(setting.Value)
		case buildInfoModifiedSettingKeyConstant:
			modified = setting.Value == buildInfoModifiedSettingTrueValue
		}
	}
	if len(revision) == 0 {
		return ""
	}
	if len(revision) > revisionDisplayLengthConstant {
		revision = revision[:revisionDisplayLengthConstant]
	}
	if modified {
		revision += dirtyRevisionSuffixConstant
	}
	return revision
}

// versionFromRepository returns the highest semantic version tag pointing at HEAD, if any.
func (detector *Detector) versionFromRepository() string {
	if len(detector.workingDirectory) == 0 {
		return ""
	}

	repository, openError := gitlib.PlainOpenWithOptions(detector.workingDirectory, &gitlib.PlainOpenOptions{DetectDotGit: true})
	if openError != nil {
		return ""
	}

	head, headError := repository.Head()
	if headError != nil {
		return ""
	}

	tags, tagsError := repository.Tags()
	if tagsError != nil {
		return ""
	}
	defer tags.Close()

	highestVersion := ""
	_ = tags.ForEach(func(reference *plumbing.Reference) error {
		if resolveTagTarget(repository, reference) != head.Hash() {
			return nil
		}
		tagName := reference.Name().Short()
		if !semver.IsValid(tagName) {
			return nil
		}
		if len(highestVersion) == 0 || semver.Compare(tagName, highestVersion) > 0 {
			highestVersion = tagName
		}
		return nil
	})
	return highestVersion
}

// resolveTagTarget returns the commit an annotated or lightweight tag reference points at.
func resolveTagTarget(repository *gitlib.Repository, reference *plumbing.Reference) plumbing.Hash {
	tagObject, tagObjectError := repository.TagObject(reference.Hash())
	if tagObjectError != nil {
		return reference.Hash()
	}
	commit, commitError := tagObject.Commit()
	if commitError != nil {
		return reference.Hash()
	}
	return commit.Hash
}

type runtimeBuildInfoProvider struct{}

func (runtimeBuildInfoProvider) Read() (*debug.BuildInfo, bool) {
	return debug.ReadBuildInfo()
}
