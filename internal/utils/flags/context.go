package flags

import (
	"time"

	"github.com/spf13/cobra"
)

const (
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Print the tags that would be imported without creating them"
	// RepositoryFlagName exposes the local repository flag name.
	RepositoryFlagName = "repository"
	// RepositoryFlagUsage describes the local repository flag purpose.
	RepositoryFlagUsage = "Local repository receiving imported tags"
	// GatewayFlagName exposes the version control gateway flag name.
	GatewayFlagName = "gateway"
	// GatewayFlagUsage describes the version control gateway flag purpose.
	GatewayFlagUsage = "Version control backend"
	// TimeoutFlagName exposes the per-invocation timeout flag name.
	TimeoutFlagName = "timeout"
	// TimeoutFlagUsage describes the per-invocation timeout flag purpose.
	TimeoutFlagUsage = "Deadline for each listing or tag creation (0 disables)"
	// SummaryFileFlagName exposes the summary file flag name.
	SummaryFileFlagName = "summary-file"
	// SummaryFileFlagUsage describes the summary file flag purpose.
	SummaryFileFlagUsage = "Write a YAML summary of the run to this path"
)

// ImportFlagValues stores import target flag values.
type ImportFlagValues struct {
	RepositoryPath string
	Gateway        string
	Timeout        time.Duration
	SummaryFile    string
}

// ImportFlagDefinitions configures optional behavior of BindImportFlags.
type ImportFlagDefinitions struct {
	GatewayChoices []string
	Persistent     bool
}

// BindImportFlags attaches the import target flags to the provided command.
func BindImportFlags(command *cobra.Command, defaults ImportFlagValues, definitions ImportFlagDefinitions) *ImportFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	targetSet := command.Flags()
	if definitions.Persistent {
		targetSet = command.PersistentFlags()
	}

	gatewayUsage := GatewayFlagUsage
	if len(definitions.GatewayChoices) > 0 {
		gatewayUsage = FormatChoiceUsage(defaults.Gateway, definitions.GatewayChoices, GatewayFlagUsage)
	}

	if targetSet.Lookup(RepositoryFlagName) == nil {
		targetSet.StringVar(&values.RepositoryPath, RepositoryFlagName, defaults.RepositoryPath, RepositoryFlagUsage)
	}
	if targetSet.Lookup(GatewayFlagName) == nil {
		targetSet.StringVar(&values.Gateway, GatewayFlagName, defaults.Gateway, gatewayUsage)
	}
	if targetSet.Lookup(TimeoutFlagName) == nil {
		targetSet.DurationVar(&values.Timeout, TimeoutFlagName, defaults.Timeout, TimeoutFlagUsage)
	}
	if targetSet.Lookup(SummaryFileFlagName) == nil {
		targetSet.StringVar(&values.SummaryFile, SummaryFileFlagName, defaults.SummaryFile, SummaryFileFlagUsage)
	}

	return &values
}
