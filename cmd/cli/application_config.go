package cli

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	embeddedConfigurationTypeConstant     = "yaml"
	importGatewayExecConstant             = "exec"
	importGatewayNativeConstant           = "native"
	unsupportedGatewayTemplateConstant    = "unsupported gateway %q (expected %s or %s)"
	negativeTimeoutTemplateConstant       = "import timeout must not be negative, got %s"
	repositoryPathRequiredMessageConstant = "import repository path must not be empty"
)

//go:embed default_config.yaml
var embeddedDefaultConfigurationContent []byte

// EmbeddedDefaultConfiguration returns a copy of the default configuration shipped with the binary and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return append([]byte(nil), embeddedDefaultConfigurationContent...), embeddedConfigurationTypeConstant
}

// UnsupportedGatewayError indicates the configured gateway name is not recognized.
type UnsupportedGatewayError struct {
	Gateway string
}

// Error implements the error interface.
func (errorDetails UnsupportedGatewayError) Error() string {
	return fmt.Sprintf(unsupportedGatewayTemplateConstant, errorDetails.Gateway, importGatewayExecConstant, importGatewayNativeConstant)
}

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	Import ApplicationImportConfiguration `mapstructure:"import"`
}

// ApplicationCommonConfiguration stores logging and execution defaults.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`
	DryRun    bool   `mapstructure:"dry_run"`
}

// ApplicationImportConfiguration selects the repository receiving tags and how it is reached.
type ApplicationImportConfiguration struct {
	Repository  string        `mapstructure:"repository"`
	Gateway     string        `mapstructure:"gateway"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SummaryFile string        `mapstructure:"summary_file"`
}

// Normalize trims values and lower-cases the gateway name.
func (configuration ApplicationImportConfiguration) Normalize() ApplicationImportConfiguration {
	configuration.Repository = strings.TrimSpace(configuration.Repository)
	configuration.Gateway = strings.ToLower(strings.TrimSpace(configuration.Gateway))
	configuration.SummaryFile = strings.TrimSpace(configuration.SummaryFile)
	return configuration
}

// Validate reports the first invalid import setting.
func (configuration ApplicationImportConfiguration) Validate() error {
	if len(configuration.Repository) == 0 {
		return errors.New(repositoryPathRequiredMessageConstant)
	}
	switch configuration.Gateway {
	case importGatewayExecConstant, importGatewayNativeConstant:
	default:
		return UnsupportedGatewayError{Gateway: configuration.Gateway}
	}
	if configuration.Timeout < 0 {
		return fmt.Errorf(negativeTimeoutTemplateConstant, configuration.Timeout)
	}
	return nil
}
