package tagimport

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/tyemirov/tagimport/internal/gitrepo"
)

const (
	gatewayMissingMessageConstant         = "version control gateway not configured"
	remotesRequiredMessageConstant        = "at least one remote must be provided"
	reportWriteErrorTemplateConstant      = "unable to write import report: %w"
	malformedListingErrorTemplateConstant = "listing of remote %q: %w"
	classifiedReferenceMessageConstant    = "Classified reference"
	referenceLogFieldConstant             = "reference"
	commitLogFieldConstant                = "commit"
	outcomeLogFieldConstant               = "outcome"
	ruleLogFieldConstant                  = "rule"
	tagLogFieldConstant                   = "tag"
)

// ErrGatewayNotConfigured indicates the Service was constructed without a gateway.
var ErrGatewayNotConfigured = errors.New(gatewayMissingMessageConstant)

// ErrRemotesRequired indicates Import was called without remotes.
var ErrRemotesRequired = errors.New(remotesRequiredMessageConstant)

// Gateway lists remote references and creates local tags.
type Gateway interface {
	ListRemoteReferences(executionContext context.Context, remote string) ([]gitrepo.RemoteReference, error)
	CreateTag(executionContext context.Context, tagName string, commitID string) error
}

// ServiceDependencies enumerates collaborators required by the import service.
type ServiceDependencies struct {
	Gateway Gateway
	Logger  *zap.Logger
	Output  io.Writer
}

// Options configure one import run.
type Options struct {
	Remotes []string
	DryRun  bool
}

// Service imports version tags from remotes under remote-prefixed names.
type Service struct {
	gateway  Gateway
	logger   *zap.Logger
	reporter *Reporter
}

// NewService constructs a Service from dependencies.
func NewService(dependencies ServiceDependencies) (*Service, error) {
	if dependencies.Gateway == nil {
		return nil, ErrGatewayNotConfigured
	}

	logger := dependencies.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Service{
		gateway:  dependencies.Gateway,
		logger:   logger,
		reporter: NewReporter(dependencies.Output),
	}, nil
}

// Import processes every remote in order. Listing and tag creation failures are reported and
// do not stop the run; a malformed listing or a failure to write the report does.
func (service *Service) Import(executionContext context.Context, options Options) (RunSummary, error) {
	runSummary := RunSummary{DryRun: options.DryRun, Remotes: make([]RemoteSummary, 0, len(options.Remotes))}
	if len(options.Remotes) == 0 {
		return runSummary, ErrRemotesRequired
	}

	for _, remote := range options.Remotes {
		remoteSummary, importError := service.importRemote(executionContext, remote, options.DryRun)
		runSummary.Remotes = append(runSummary.Remotes, remoteSummary)
		service.logger.Info(summaryLogMessageConstant, remoteSummary.logFields(options.DryRun)...)
		if importError != nil {
			return runSummary, importError
		}
	}
	return runSummary, nil
}

func (service *Service) importRemote(executionContext context.Context, remote string, dryRun bool) (RemoteSummary, error) {
	remoteSummary := RemoteSummary{Remote: remote}

	references, listError := service.gateway.ListRemoteReferences(executionContext, remote)

	var malformedListing gitrepo.MalformedListingError
	malformed := errors.As(listError, &malformedListing)
	if listError != nil && !malformed {
		remoteSummary.ListingFailed = true
		if reportError := service.reporter.ReportFailure(listError); reportError != nil {
			return remoteSummary, fmt.Errorf(reportWriteErrorTemplateConstant, reportError)
		}
	}

	for _, reference := range references {
		remoteSummary.Listed++
		if processError := service.processReference(executionContext, remote, reference, dryRun, &remoteSummary); processError != nil {
			return remoteSummary, processError
		}
	}

	if malformed {
		return remoteSummary, fmt.Errorf(malformedListingErrorTemplateConstant, remote, listError)
	}
	return remoteSummary, nil
}

func (service *Service) processReference(executionContext context.Context, remote string, reference gitrepo.RemoteReference, dryRun bool, remoteSummary *RemoteSummary) error {
	classification := Classify(remote, reference.ReferenceName)
	service.logger.Debug(classifiedReferenceMessageConstant,
		zap.String(remoteLogFieldConstant, remote),
		zap.String(referenceLogFieldConstant, reference.ReferenceName),
		zap.String(commitLogFieldConstant, reference.CommitID),
		zap.Stringer(outcomeLogFieldConstant, classification.Outcome),
		zap.String(ruleLogFieldConstant, string(classification.Rule)),
		zap.String(tagLogFieldConstant, classification.TagName),
	)

	switch classification.Outcome {
	case OutcomeSkip:
		remoteSummary.Skipped++
		return nil
	case OutcomeInvalid:
		remoteSummary.Invalid++
		return service.wrapReportError(service.reporter.ReportOdd(remote, classification.TagName))
	}

	remoteSummary.Announced++
	if reportError := service.reporter.AnnounceTag(classification.TagName, reference.CommitID); reportError != nil {
		return service.wrapReportError(reportError)
	}
	if dryRun {
		remoteSummary.recordImported(classification.Version)
		return nil
	}

	if createError := service.gateway.CreateTag(executionContext, classification.TagName, reference.CommitID); createError != nil {
		remoteSummary.Failed++
		return service.wrapReportError(service.reporter.ReportFailure(createError))
	}

	remoteSummary.Created++
	remoteSummary.recordImported(classification.Version)
	return nil
}

func (service *Service) wrapReportError(reportError error) error {
	if reportError == nil {
		return nil
	}
	return fmt.Errorf(reportWriteErrorTemplateConstant, reportError)
}
