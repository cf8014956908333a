package tagimport

import (
	"regexp"
	"strings"
)

const (
	tagReferencePrefixConstant     = "refs/tags/"
	peeledReferenceSuffixConstant  = "{}"
	versionPrefixConstant          = "v"
	importedTagSeparatorConstant   = "-"
	developmentTagPatternConstant  = `-dev\.\d+$`
	bareVersionPatternConstant     = `^\d+\.\d+\.\d+$`
	prefixedVersionPatternConstant = `^v\d+\.\d+\.\d+$`
)

// Outcome enumerates what happens to a listed reference.
type Outcome int

const (
	// OutcomeSkip ignores the reference silently.
	OutcomeSkip Outcome = iota
	// OutcomeInvalid reports the reference as odd and ignores it.
	OutcomeInvalid
	// OutcomeRename imports the reference under a remote-prefixed tag name.
	OutcomeRename
)

// RuleName identifies the classification rule that decided an outcome.
type RuleName string

// Classification rules in evaluation order.
const (
	RuleNotATag          RuleName = "not_a_tag"
	RulePeeledReference  RuleName = "peeled_reference"
	RuleDevelopmentBuild RuleName = "development_build"
	RuleReleaseVersion   RuleName = "release_version"
	RuleUnrecognized     RuleName = "unrecognized"
)

var (
	developmentTagPattern  = regexp.MustCompile(developmentTagPatternConstant)
	bareVersionPattern     = regexp.MustCompile(bareVersionPatternConstant)
	prefixedVersionPattern = regexp.MustCompile(prefixedVersionPatternConstant)
)

// Classification is the decision taken for one reference.
// TagName holds the imported tag name for OutcomeRename and the stripped original name for OutcomeInvalid.
// Version is the normalized vMAJOR.MINOR.PATCH tag of an OutcomeRename.
type Classification struct {
	Outcome Outcome
	TagName string
	Version string
	Rule    RuleName
}

type classificationRule struct {
	name     RuleName
	classify func(remote string, referenceName string, tagName string) (Classification, bool)
}

var classificationRules = []classificationRule{
	{
		name: RuleNotATag,
		classify: func(_ string, referenceName string, _ string) (Classification, bool) {
			return Classification{Outcome: OutcomeSkip}, !strings.HasPrefix(referenceName, tagReferencePrefixConstant)
		},
	},
	{
		name: RulePeeledReference,
		classify: func(_ string, referenceName string, _ string) (Classification, bool) {
			return Classification{Outcome: OutcomeSkip}, strings.HasSuffix(referenceName, peeledReferenceSuffixConstant)
		},
	},
	{
		name: RuleDevelopmentBuild,
		classify: func(_ string, _ string, tagName string) (Classification, bool) {
			return Classification{Outcome: OutcomeSkip}, developmentTagPattern.MatchString(tagName)
		},
	},
	{
		name: RuleReleaseVersion,
		classify: func(remote string, _ string, tagName string) (Classification, bool) {
			if bareVersionPattern.MatchString(tagName) {
				tagName = versionPrefixConstant + tagName
			}
			if !prefixedVersionPattern.MatchString(tagName) {
				return Classification{}, false
			}
			return Classification{Outcome: OutcomeRename, TagName: ImportedTagName(remote, tagName), Version: tagName}, true
		},
	},
}

// Classify applies the classification rules in order to referenceName as listed by remote.
// The first matching rule decides; a tag no rule accepts is OutcomeInvalid.
func Classify(remote string, referenceName string) Classification {
	tagName := strings.TrimPrefix(referenceName, tagReferencePrefixConstant)
	for _, rule := range classificationRules {
		classification, matched := rule.classify(remote, referenceName, tagName)
		if matched {
			classification.Rule = rule.name
			return classification
		}
	}
	return Classification{Outcome: OutcomeInvalid, TagName: tagName, Rule: RuleUnrecognized}
}

// ImportedTagName joins the remote identifier and a normalized version tag.
func ImportedTagName(remote string, versionTag string) string {
	return remote + importedTagSeparatorConstant + versionTag
}

// String returns the lower-case outcome label.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeSkip:
		return "skip"
	case OutcomeInvalid:
		return "invalid"
	case OutcomeRename:
		return "rename"
	default:
		return "unknown"
	}
}
