package tagimport

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"
)

const (
	summaryFilePermissionsConstant      = 0o644
	summaryDirectoryPermissionsConstant = 0o755
	summaryEncodeErrorTemplateConstant  = "unable to encode import summary: %w"
	summaryWriteErrorTemplateConstant   = "unable to write import summary %s: %w"
	summaryLogMessageConstant           = "Imported tags from remote"
	remoteLogFieldConstant              = "remote"
	listedLogFieldConstant              = "listed"
	skippedLogFieldConstant             = "skipped"
	invalidLogFieldConstant             = "invalid"
	announcedLogFieldConstant           = "announced"
	createdLogFieldConstant             = "created"
	failedLogFieldConstant              = "failed"
	listingFailedLogFieldConstant       = "listing_failed"
	highestVersionLogFieldConstant      = "highest_version"
	dryRunLogFieldConstant              = "dry_run"
)

// RemoteSummary counts what happened to the references of one remote.
type RemoteSummary struct {
	Remote         string `yaml:"remote"`
	Listed         int    `yaml:"listed"`
	Skipped        int    `yaml:"skipped"`
	Invalid        int    `yaml:"invalid"`
	Announced      int    `yaml:"announced"`
	Created        int    `yaml:"created"`
	Failed         int    `yaml:"failed"`
	ListingFailed  bool   `yaml:"listing_failed"`
	HighestVersion string `yaml:"highest_version,omitempty"`
}

// RunSummary aggregates the remote summaries of one run in processing order.
type RunSummary struct {
	DryRun  bool            `yaml:"dry_run"`
	Remotes []RemoteSummary `yaml:"remotes"`
}

// recordImported tracks the highest semantic version imported from the remote.
func (summary *RemoteSummary) recordImported(version string) {
	if !semver.IsValid(version) {
		return
	}
	if len(summary.HighestVersion) == 0 || semver.Compare(version, summary.HighestVersion) > 0 {
		summary.HighestVersion = version
	}
}

// Totals sums the counters of every remote.
func (runSummary RunSummary) Totals() RemoteSummary {
	var totals RemoteSummary
	for _, remoteSummary := range runSummary.Remotes {
		totals.Listed += remoteSummary.Listed
		totals.Skipped += remoteSummary.Skipped
		totals.Invalid += remoteSummary.Invalid
		totals.Announced += remoteSummary.Announced
		totals.Created += remoteSummary.Created
		totals.Failed += remoteSummary.Failed
		totals.ListingFailed = totals.ListingFailed || remoteSummary.ListingFailed
		totals.recordImported(remoteSummary.HighestVersion)
	}
	return totals
}

func (summary RemoteSummary) logFields(dryRun bool) []zap.Field {
	return []zap.Field{
		zap.String(remoteLogFieldConstant, summary.Remote),
		zap.Int(listedLogFieldConstant, summary.Listed),
		zap.Int(skippedLogFieldConstant, summary.Skipped),
		zap.Int(invalidLogFieldConstant, summary.Invalid),
		zap.Int(announcedLogFieldConstant, summary.Announced),
		zap.Int(createdLogFieldConstant, summary.Created),
		zap.Int(failedLogFieldConstant, summary.Failed),
		zap.Bool(listingFailedLogFieldConstant, summary.ListingFailed),
		zap.String(highestVersionLogFieldConstant, summary.HighestVersion),
		zap.Bool(dryRunLogFieldConstant, dryRun),
	}
}

// WriteSummaryFile stores the run summary as YAML at filePath, creating parent directories.
func WriteSummaryFile(filePath string, runSummary RunSummary) error {
	encoded, encodeError := yaml.Marshal(runSummary)
	if encodeError != nil {
		return fmt.Errorf(summaryEncodeErrorTemplateConstant, encodeError)
	}

	cleanedPath := filepath.Clean(strings.TrimSpace(filePath))
	if directoryError := os.MkdirAll(filepath.Dir(cleanedPath), summaryDirectoryPermissionsConstant); directoryError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, cleanedPath, directoryError)
	}
	if writeError := os.WriteFile(cleanedPath, encoded, summaryFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(summaryWriteErrorTemplateConstant, cleanedPath, writeError)
	}
	return nil
}
