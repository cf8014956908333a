package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/tyemirov/tagimport/internal/execshell"
	"github.com/tyemirov/tagimport/internal/gitrepo"
	"github.com/tyemirov/tagimport/internal/tagimport"
	"github.com/tyemirov/tagimport/internal/utils"
	flagutils "github.com/tyemirov/tagimport/internal/utils/flags"
	"github.com/tyemirov/tagimport/internal/version"
)

const (
	applicationNameConstant                                          = "tagimport"
	applicationUseConstant                                           = applicationNameConstant + " <remote> [<remote>...]"
	applicationShortDescriptionConstant                              = "Import version tags from remotes under remote-prefixed names"
	applicationLongDescriptionConstant                               = "tagimport lists the references of every remote, renames release tags (X.Y.Z or vX.Y.Z) to <remote>-vX.Y.Z and creates them as lightweight tags in the local repository."
	configFileFlagNameConstant                                       = "config"
	configFileFlagUsageConstant                                      = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                                         = "log-level"
	logLevelFlagUsageConstant                                        = "Override the configured log level."
	logFormatFlagNameConstant                                        = "log-format"
	logFormatFlagUsageConstant                                       = "Override the configured log format (structured or console)."
	configurationInitializationFlagNameConstant                      = "init"
	configurationInitializationFlagUsageConstant                     = "Write the embedded default configuration to LOCAL (./config.yaml) or user ($HOME/.tagimport/config.yaml)."
	configurationInitializationDefaultScopeConstant                  = "local"
	configurationInitializationForceFlagNameConstant                 = "force"
	configurationInitializationForceFlagUsageConstant                = "Overwrite an existing configuration file when initializing."
	configurationInitializationScopeLocalConstant                    = "local"
	configurationInitializationScopeUserConstant                     = "user"
	configurationInitializationUnsupportedScopeTemplateConstant      = "unsupported initialization scope %q"
	configurationInitializationWorkingDirectoryErrorTemplateConstant = "unable to determine working directory: %w"
	configurationInitializationWorkingDirectoryEmptyErrorConstant    = "working directory is empty"
	configurationInitializationHomeDirectoryErrorTemplateConstant    = "unable to determine user home directory: %w"
	configurationInitializationHomeDirectoryEmptyErrorConstant       = "user home directory is empty"
	configurationInitializationContentUnavailableErrorConstant       = "embedded configuration content is unavailable"
	configurationInitializationDirectoryErrorTemplateConstant        = "unable to ensure configuration directory %s: %w"
	configurationInitializationExistingFileTemplateConstant          = "configuration file already exists at %s (use --force to overwrite)"
	configurationInitializationExistingDirectoryTemplateConstant     = "configuration path %s is a directory"
	configurationInitializationDirectoryConflictTemplateConstant     = "configuration directory path %s is not a directory"
	configurationInitializationWriteErrorTemplateConstant            = "unable to write configuration file %s: %w"
	configurationInitializationSuccessMessageConstant                = "configuration file created"
	commonConfigurationKeyConstant                                   = "common"
	commonLogLevelConfigKeyConstant                                  = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant                                 = commonConfigurationKeyConstant + ".log_format"
	commonDryRunConfigKeyConstant                                    = commonConfigurationKeyConstant + ".dry_run"
	importConfigurationKeyConstant                                   = "import"
	importRepositoryConfigKeyConstant                                = importConfigurationKeyConstant + ".repository"
	importGatewayConfigKeyConstant                                   = importConfigurationKeyConstant + ".gateway"
	importTimeoutConfigKeyConstant                                   = importConfigurationKeyConstant + ".timeout"
	importSummaryFileConfigKeyConstant                               = importConfigurationKeyConstant + ".summary_file"
	defaultRepositoryPathConstant                                    = "."
	defaultTimeoutConstant                                           = "0s"
	environmentPrefixConstant                                        = "TAGIMPORT"
	configurationNameConstant                                        = "config"
	configurationTypeConstant                                        = "yaml"
	configurationFileNameConstant                                    = configurationNameConstant + "." + configurationTypeConstant
	configurationDirectoryPermissionConstant                         = 0o755
	configurationFilePermissionConstant                              = 0o600
	configurationInitializedMessageConstant                          = "configuration initialized"
	configurationLogLevelFieldConstant                               = "log_level"
	configurationLogFormatFieldConstant                              = "log_format"
	configurationFileFieldConstant                                   = "config_file"
	configurationGatewayFieldConstant                                = "gateway"
	configurationRepositoryFieldConstant                             = "repository"
	xdgConfigHomeEnvironmentVariableConstant                         = "XDG_CONFIG_HOME"
	configurationLoadErrorTemplateConstant                           = "unable to load configuration: %w"
	importConfigurationErrorTemplateConstant                         = "invalid import configuration: %w"
	loggerCreationErrorTemplateConstant                              = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant                                  = "unable to flush logger: %w"
	gatewayCreationErrorTemplateConstant                             = "unable to prepare %s gateway for %s: %w"
	serviceCreationErrorTemplateConstant                             = "unable to prepare tag import: %w"
	summaryFileErrorTemplateConstant                                 = "unable to store run summary: %w"
	remotesRequiredTemplateConstant                                  = "%w (usage: %s)"
	configurationInitializedConsoleTemplateConstant                  = "%s | log level=%s | log format=%s | config file=%s | gateway=%s | repository=%s"
	rootCommandInfoMessageConstant                                   = "tagimport started"
	rootCommandDebugMessageConstant                                  = "tagimport remotes"
	runCompletedMessageConstant                                      = "tagimport finished"
	summaryStoredMessageConstant                                     = "run summary stored"
	logFieldRemoteCountConstant                                      = "remote_count"
	logFieldRemotesConstant                                          = "remotes"
	logFieldDryRunConstant                                           = "dry_run"
	logFieldCreatedConstant                                          = "created"
	logFieldFailedConstant                                           = "failed"
	logFieldInvalidConstant                                          = "invalid"
	logFieldSummaryFileConstant                                      = "summary_file"
	loggerNotInitializedMessageConstant                              = "logger not initialized"
	defaultConfigurationSearchPathConstant                           = "."
	userConfigurationDirectoryNameConstant                           = ".tagimport"
	configurationSearchPathEnvironmentVariableConstant               = "TAGIMPORT_CONFIG_SEARCH_PATH"
	versionFlagNameConstant                                          = "version"
	versionFlagUsageConstant                                         = "Print the application version and exit"
	versionOutputTemplateConstant                                    = "tagimport version: %s\n"
)

type loggerOutputsFactory interface {
	CreateLoggerOutputs(utils.LogLevel, utils.LogFormat) (utils.LoggerOutputs, error)
}

// gatewaySettings carries what a gateway needs to reach the local repository.
type gatewaySettings struct {
	Kind                 string
	RepositoryPath       string
	Timeout              time.Duration
	Logger               *zap.Logger
	HumanReadableLogging bool
}

type gatewayFactory func(settings gatewaySettings) (tagimport.Gateway, error)

type configurationInitializationPlan struct {
	DirectoryPath string
	FilePath      string
}

// Application wires configuration, logging and the tag import service behind a Cobra command.
type Application struct {
	rootCommand                       *cobra.Command
	configurationLoader               *utils.ConfigurationLoader
	loggerFactory                     loggerOutputsFactory
	logger                            *zap.Logger
	consoleLogger                     *zap.Logger
	configuration                     ApplicationConfiguration
	configurationMetadata             utils.LoadedConfiguration
	configurationFilePath             string
	logLevelFlagValue                 string
	logFormatFlagValue                string
	commandContextAccessor            utils.CommandContextAccessor
	configurationInitializationScope  string
	configurationInitializationForced bool
	versionFlag                       bool
	versionResolver                   func() string
	gatewayFactory                    gatewayFactory
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	application := &Application{
		loggerFactory:          utils.NewLoggerFactory(),
		logger:                 zap.NewNop(),
		consoleLogger:          zap.NewNop(),
		commandContextAccessor: utils.NewCommandContextAccessor(),
	}
	application.versionResolver = application.resolveVersion
	application.gatewayFactory = buildGateway

	application.configurationLoader = utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		application.resolveConfigurationSearchPaths(),
	)

	embeddedConfigurationData, embeddedConfigurationType := EmbeddedDefaultConfiguration()
	application.configurationLoader.SetEmbeddedConfiguration(embeddedConfigurationData, embeddedConfigurationType)

	cobraCommand := &cobra.Command{
		Use:           applicationUseConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	cobraCommand.PersistentFlags().StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	cobraCommand.PersistentFlags().StringVar(
		&application.configurationInitializationScope,
		configurationInitializationFlagNameConstant,
		configurationInitializationDefaultScopeConstant,
		configurationInitializationFlagUsageConstant,
	)
	initializationFlag := cobraCommand.PersistentFlags().Lookup(configurationInitializationFlagNameConstant)
	if initializationFlag != nil {
		initializationFlag.Usage = flagutils.FormatChoiceUsage(
			configurationInitializationDefaultScopeConstant,
			[]string{
				configurationInitializationScopeLocalConstant,
				configurationInitializationScopeUserConstant,
			},
			configurationInitializationFlagUsageConstant,
		)
	}
	cobraCommand.PersistentFlags().BoolVar(
		&application.configurationInitializationForced,
		configurationInitializationForceFlagNameConstant,
		false,
		configurationInitializationForceFlagUsageConstant,
	)
	cobraCommand.PersistentFlags().BoolVar(&application.versionFlag, versionFlagNameConstant, false, versionFlagUsageConstant)

	flagutils.BindExecutionFlags(
		cobraCommand,
		flagutils.ExecutionDefaults{},
		flagutils.ExecutionFlagDefinitions{
			DryRun: flagutils.ExecutionFlagDefinition{Name: flagutils.DryRunFlagName, Usage: flagutils.DryRunFlagUsage, Enabled: true},
		},
	)
	flagutils.BindImportFlags(
		cobraCommand,
		flagutils.ImportFlagValues{},
		flagutils.ImportFlagDefinitions{
			GatewayChoices: []string{importGatewayExecConstant, importGatewayNativeConstant},
			Persistent:     true,
		},
	)

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command and ensures logger flushing.
func (application *Application) Execute() error {
	normalizedArguments := flagutils.NormalizeToggleArguments(os.Args[1:])
	normalizedArguments = normalizeInitializationScopeArguments(normalizedArguments)
	application.rootCommand.SetArgs(normalizedArguments)

	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command.
func Execute() error {
	return NewApplication().Execute()
}

func normalizeInitializationScopeArguments(arguments []string) []string {
	if len(arguments) == 0 {
		return nil
	}

	normalizedArguments := make([]string, 0, len(arguments))
	flagPrefix := "--" + configurationInitializationFlagNameConstant

	for index := 0; index < len(arguments); index++ {
		currentArgument := arguments[index]

		if strings.HasPrefix(currentArgument, flagPrefix+"=") {
			value := strings.TrimSpace(strings.TrimPrefix(currentArgument, flagPrefix+"="))
			if len(value) == 0 {
				normalizedArguments = append(
					normalizedArguments,
					fmt.Sprintf("%s=%s", flagPrefix, configurationInitializationDefaultScopeConstant),
				)
				continue
			}
			normalizedArguments = append(normalizedArguments, currentArgument)
			continue
		}

		if currentArgument == flagPrefix {
			nextIndex := index + 1
			if nextIndex >= len(arguments) || !isInitializationScope(arguments[nextIndex]) {
				normalizedArguments = append(
					normalizedArguments,
					fmt.Sprintf("%s=%s", flagPrefix, configurationInitializationDefaultScopeConstant),
				)
				continue
			}
		}

		normalizedArguments = append(normalizedArguments, currentArgument)
	}

	return normalizedArguments
}

// isInitializationScope keeps "--init <remote>" from consuming a remote as the scope.
func isInitializationScope(candidate string) bool {
	switch strings.ToLower(strings.TrimSpace(candidate)) {
	case configurationInitializationScopeLocalConstant, configurationInitializationScopeUserConstant:
		return true
	default:
		return false
	}
}

func (application *Application) resolveConfigurationSearchPaths() []string {
	overrideValue := strings.TrimSpace(os.Getenv(configurationSearchPathEnvironmentVariableConstant))
	if len(overrideValue) == 0 {
		defaultSearchPaths := []string{defaultConfigurationSearchPathConstant}
		userConfigurationDirectoryPaths := application.resolveUserConfigurationDirectoryPaths()
		if len(userConfigurationDirectoryPaths) > 0 {
			defaultSearchPaths = append(defaultSearchPaths, userConfigurationDirectoryPaths...)
		}

		return defaultSearchPaths
	}

	overridePaths := strings.FieldsFunc(overrideValue, func(candidate rune) bool {
		return candidate == os.PathListSeparator
	})

	cleanedPaths := make([]string, 0, len(overridePaths))
	for _, pathCandidate := range overridePaths {
		trimmedCandidate := strings.TrimSpace(pathCandidate)
		if len(trimmedCandidate) == 0 {
			continue
		}
		cleanedPaths = append(cleanedPaths, trimmedCandidate)
	}

	if len(cleanedPaths) == 0 {
		return []string{defaultConfigurationSearchPathConstant}
	}

	return cleanedPaths
}

func (application *Application) resolveUserConfigurationDirectoryPaths() []string {
	userConfigurationDirectoryPaths := make([]string, 0, 3)

	appendConfigurationDirectory := func(baseDirectoryPath string) {
		trimmedBaseDirectoryPath := strings.TrimSpace(baseDirectoryPath)
		if len(trimmedBaseDirectoryPath) == 0 {
			return
		}

		candidateDirectoryPath := filepath.Join(trimmedBaseDirectoryPath, userConfigurationDirectoryNameConstant)
		for _, existingDirectoryPath := range userConfigurationDirectoryPaths {
			if existingDirectoryPath == candidateDirectoryPath {
				return
			}
		}

		userConfigurationDirectoryPaths = append(userConfigurationDirectoryPaths, candidateDirectoryPath)
	}

	appendConfigurationDirectory(os.Getenv(xdgConfigHomeEnvironmentVariableConstant))

	userConfigurationBaseDirectoryPath, userConfigurationDirectoryError := os.UserConfigDir()
	if userConfigurationDirectoryError == nil {
		appendConfigurationDirectory(userConfigurationBaseDirectoryPath)
	}

	userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir()
	if userHomeDirectoryError == nil {
		appendConfigurationDirectory(userHomeDirectoryPath)
	}

	return userConfigurationDirectoryPaths
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:    string(utils.LogLevelError),
		commonLogFormatConfigKeyConstant:   string(utils.LogFormatStructured),
		commonDryRunConfigKeyConstant:      false,
		importRepositoryConfigKeyConstant:  defaultRepositoryPathConstant,
		importGatewayConfigKeyConstant:     importGatewayExecConstant,
		importTimeoutConfigKeyConstant:     defaultTimeoutConstant,
		importSummaryFileConfigKeyConstant: "",
	}

	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, defaultValues, &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	application.applyImportFlagOverrides(command)
	application.configuration.Import = application.configuration.Import.Normalize()
	if validationError := application.configuration.Import.Validate(); validationError != nil {
		return fmt.Errorf(importConfigurationErrorTemplateConstant, validationError)
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	if application.logger == nil {
		application.logger = zap.NewNop()
	}

	application.consoleLogger = loggerOutputs.ConsoleLogger
	if application.consoleLogger == nil {
		application.consoleLogger = zap.NewNop()
	}

	application.logConfigurationInitialization()

	if command != nil {
		updatedContext := application.commandContextAccessor.WithConfigurationFilePath(
			command.Context(),
			application.configurationMetadata.ConfigFileUsed,
		)

		executionFlags := flagutils.CollectExecutionFlags(command)
		updatedContext = application.commandContextAccessor.WithExecutionFlags(updatedContext, executionFlags)
		updatedContext = application.commandContextAccessor.WithLogLevel(updatedContext, application.configuration.Common.LogLevel)
		updatedContext = application.commandContextAccessor.WithRepositoryContext(updatedContext, utils.RepositoryContext{
			Path:    application.configuration.Import.Repository,
			Gateway: application.configuration.Import.Gateway,
		})

		command.SetContext(updatedContext)
		if rootCommand := command.Root(); rootCommand != nil {
			rootCommand.SetContext(updatedContext)
		}
	}

	return nil
}

func (application *Application) applyImportFlagOverrides(command *cobra.Command) {
	if repositoryPath, changed, flagError := flagutils.StringFlag(command, flagutils.RepositoryFlagName); flagError == nil && changed {
		application.configuration.Import.Repository = repositoryPath
	}
	if gateway, changed, flagError := flagutils.StringFlag(command, flagutils.GatewayFlagName); flagError == nil && changed {
		application.configuration.Import.Gateway = gateway
	}
	if timeout, changed, flagError := flagutils.DurationFlag(command, flagutils.TimeoutFlagName); flagError == nil && changed {
		application.configuration.Import.Timeout = timeout
	}
	if summaryFile, changed, flagError := flagutils.StringFlag(command, flagutils.SummaryFileFlagName); flagError == nil && changed {
		application.configuration.Import.SummaryFile = summaryFile
	}
}

// InitializeForCommand prepares application state for the provided command name without executing command logic.
func (application *Application) InitializeForCommand(commandUse string) error {
	command := &cobra.Command{Use: commandUse}
	return application.initializeConfiguration(command)
}

// ConfigFileUsed returns the configuration file path used during initialization.
func (application *Application) ConfigFileUsed() string {
	return application.configurationMetadata.ConfigFileUsed
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) logConfigurationInitialization() {
	if !strings.EqualFold(strings.TrimSpace(application.configuration.Common.LogLevel), string(utils.LogLevelDebug)) {
		return
	}

	if application.humanReadableLoggingEnabled() {
		bannerMessage := fmt.Sprintf(
			configurationInitializedConsoleTemplateConstant,
			configurationInitializedMessageConstant,
			application.configuration.Common.LogLevel,
			application.configuration.Common.LogFormat,
			application.configurationMetadata.ConfigFileUsed,
			application.configuration.Import.Gateway,
			application.configuration.Import.Repository,
		)
		application.consoleLogger.Debug(bannerMessage)
		return
	}

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
		zap.String(configurationGatewayFieldConstant, application.configuration.Import.Gateway),
		zap.String(configurationRepositoryFieldConstant, application.configuration.Import.Repository),
	)
}

func (application *Application) resolveVersion() string {
	return version.Detect(version.Dependencies{})
}

func (application *Application) printVersion(output io.Writer) error {
	_, writeError := fmt.Fprintf(output, versionOutputTemplateConstant, application.versionResolver())
	return writeError
}

func (application *Application) handleConfigurationInitialization(command *cobra.Command) (bool, error) {
	if !application.configurationInitializationRequested(command) {
		return false, nil
	}

	initializationScope := strings.TrimSpace(application.configurationInitializationScope)
	if len(initializationScope) == 0 {
		initializationScope = configurationInitializationDefaultScopeConstant
	}

	initializationPlan, planError := application.resolveConfigurationInitializationPlan(initializationScope)
	if planError != nil {
		return true, planError
	}

	configurationContent, _ := EmbeddedDefaultConfiguration()
	if len(configurationContent) == 0 {
		return true, errors.New(configurationInitializationContentUnavailableErrorConstant)
	}

	if writeError := application.writeConfigurationFile(initializationPlan, configurationContent); writeError != nil {
		return true, writeError
	}

	application.logger.Info(
		configurationInitializationSuccessMessageConstant,
		zap.String(configurationFileFieldConstant, initializationPlan.FilePath),
	)

	return true, nil
}

func (application *Application) configurationInitializationRequested(command *cobra.Command) bool {
	return application.persistentFlagChanged(command, configurationInitializationFlagNameConstant)
}

func (application *Application) resolveConfigurationInitializationPlan(initializationScope string) (configurationInitializationPlan, error) {
	normalizedScope := strings.ToLower(strings.TrimSpace(initializationScope))
	switch normalizedScope {
	case "", configurationInitializationScopeLocalConstant:
		workingDirectoryPath, workingDirectoryError := os.Getwd()
		if workingDirectoryError != nil {
			return configurationInitializationPlan{}, fmt.Errorf(configurationInitializationWorkingDirectoryErrorTemplateConstant, workingDirectoryError)
		}

		trimmedWorkingDirectoryPath := strings.TrimSpace(workingDirectoryPath)
		if len(trimmedWorkingDirectoryPath) == 0 {
			return configurationInitializationPlan{}, fmt.Errorf(
				configurationInitializationWorkingDirectoryErrorTemplateConstant,
				errors.New(configurationInitializationWorkingDirectoryEmptyErrorConstant),
			)
		}

		return configurationInitializationPlan{
			DirectoryPath: trimmedWorkingDirectoryPath,
			FilePath:      filepath.Join(trimmedWorkingDirectoryPath, configurationFileNameConstant),
		}, nil
	case configurationInitializationScopeUserConstant:
		userHomeDirectoryPath, userHomeDirectoryError := os.UserHomeDir()
		if userHomeDirectoryError != nil {
			return configurationInitializationPlan{}, fmt.Errorf(configurationInitializationHomeDirectoryErrorTemplateConstant, userHomeDirectoryError)
		}

		trimmedHomeDirectoryPath := strings.TrimSpace(userHomeDirectoryPath)
		if len(trimmedHomeDirectoryPath) == 0 {
			return configurationInitializationPlan{}, fmt.Errorf(
				configurationInitializationHomeDirectoryErrorTemplateConstant,
				errors.New(configurationInitializationHomeDirectoryEmptyErrorConstant),
			)
		}

		configurationDirectoryPath := filepath.Join(trimmedHomeDirectoryPath, userConfigurationDirectoryNameConstant)

		return configurationInitializationPlan{
			DirectoryPath: configurationDirectoryPath,
			FilePath:      filepath.Join(configurationDirectoryPath, configurationFileNameConstant),
		}, nil
	default:
		return configurationInitializationPlan{}, fmt.Errorf(configurationInitializationUnsupportedScopeTemplateConstant, strings.TrimSpace(initializationScope))
	}
}

func (application *Application) writeConfigurationFile(initializationPlan configurationInitializationPlan, configurationContent []byte) error {
	if len(configurationContent) == 0 {
		return errors.New(configurationInitializationContentUnavailableErrorConstant)
	}

	directoryPath := strings.TrimSpace(initializationPlan.DirectoryPath)
	if len(directoryPath) == 0 {
		return fmt.Errorf(
			configurationInitializationDirectoryErrorTemplateConstant,
			initializationPlan.DirectoryPath,
			errors.New(configurationInitializationWorkingDirectoryEmptyErrorConstant),
		)
	}

	directoryInfo, directoryStatError := os.Stat(directoryPath)
	switch {
	case directoryStatError == nil:
		if !directoryInfo.IsDir() {
			return fmt.Errorf(configurationInitializationDirectoryConflictTemplateConstant, directoryPath)
		}
	case errors.Is(directoryStatError, os.ErrNotExist):
		if createError := os.MkdirAll(directoryPath, configurationDirectoryPermissionConstant); createError != nil {
			return fmt.Errorf(configurationInitializationDirectoryErrorTemplateConstant, directoryPath, createError)
		}
	default:
		return fmt.Errorf(configurationInitializationDirectoryErrorTemplateConstant, directoryPath, directoryStatError)
	}

	fileInfo, fileStatError := os.Stat(initializationPlan.FilePath)
	switch {
	case fileStatError == nil:
		if fileInfo.IsDir() {
			return fmt.Errorf(configurationInitializationExistingDirectoryTemplateConstant, initializationPlan.FilePath)
		}
		if !application.configurationInitializationForced {
			return fmt.Errorf(configurationInitializationExistingFileTemplateConstant, initializationPlan.FilePath)
		}
	case errors.Is(fileStatError, os.ErrNotExist):
	default:
		return fmt.Errorf(configurationInitializationWriteErrorTemplateConstant, initializationPlan.FilePath, fileStatError)
	}

	writeError := os.WriteFile(initializationPlan.FilePath, configurationContent, configurationFilePermissionConstant)
	if writeError != nil {
		return fmt.Errorf(configurationInitializationWriteErrorTemplateConstant, initializationPlan.FilePath, writeError)
	}

	return nil
}

// runRootCommand imports tags from every remote argument. Listing and tag creation failures are
// reported on stdout and do not fail the command; startup problems and malformed listings do.
func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	if application.logger == nil {
		return errors.New(loggerNotInitializedMessageConstant)
	}

	initializationHandled, initializationError := application.handleConfigurationInitialization(command)
	if initializationError != nil {
		return initializationError
	}
	if initializationHandled {
		return nil
	}

	if application.versionFlag {
		return application.printVersion(command.OutOrStdout())
	}

	if len(arguments) == 0 {
		return fmt.Errorf(remotesRequiredTemplateConstant, tagimport.ErrRemotesRequired, command.UseLine())
	}

	executionFlags, _ := flagutils.ResolveExecutionFlags(command)
	dryRun := application.configuration.Common.DryRun
	if executionFlags.DryRunSet {
		dryRun = executionFlags.DryRun
	}

	application.logger.Info(
		rootCommandInfoMessageConstant,
		zap.Int(logFieldRemoteCountConstant, len(arguments)),
		zap.Bool(logFieldDryRunConstant, dryRun),
	)
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.Strings(logFieldRemotesConstant, arguments),
	)

	repositoryContext, repositoryContextAvailable := application.commandContextAccessor.RepositoryContext(command.Context())
	if !repositoryContextAvailable {
		repositoryContext = utils.RepositoryContext{
			Path:    application.configuration.Import.Repository,
			Gateway: application.configuration.Import.Gateway,
		}
	}

	gateway, gatewayError := application.gatewayFactory(gatewaySettings{
		Kind:                 repositoryContext.Gateway,
		RepositoryPath:       repositoryContext.Path,
		Timeout:              application.configuration.Import.Timeout,
		Logger:               application.logger,
		HumanReadableLogging: application.humanReadableLoggingEnabled(),
	})
	if gatewayError != nil {
		return fmt.Errorf(gatewayCreationErrorTemplateConstant, repositoryContext.Gateway, repositoryContext.Path, gatewayError)
	}

	service, serviceError := tagimport.NewService(tagimport.ServiceDependencies{
		Gateway: gateway,
		Logger:  application.logger,
		Output:  utils.NewFlushingWriter(command.OutOrStdout()),
	})
	if serviceError != nil {
		return fmt.Errorf(serviceCreationErrorTemplateConstant, serviceError)
	}

	runSummary, importError := service.Import(command.Context(), tagimport.Options{Remotes: arguments, DryRun: dryRun})

	totals := runSummary.Totals()
	application.logger.Info(
		runCompletedMessageConstant,
		zap.Int(logFieldRemoteCountConstant, len(runSummary.Remotes)),
		zap.Int(logFieldCreatedConstant, totals.Created),
		zap.Int(logFieldFailedConstant, totals.Failed),
		zap.Int(logFieldInvalidConstant, totals.Invalid),
		zap.Bool(logFieldDryRunConstant, dryRun),
	)

	summaryError := application.storeRunSummary(runSummary)
	if importError != nil {
		return importError
	}
	return summaryError
}

func (application *Application) storeRunSummary(runSummary tagimport.RunSummary) error {
	summaryFilePath := application.configuration.Import.SummaryFile
	if len(summaryFilePath) == 0 {
		return nil
	}
	if writeError := tagimport.WriteSummaryFile(summaryFilePath, runSummary); writeError != nil {
		return fmt.Errorf(summaryFileErrorTemplateConstant, writeError)
	}
	application.logger.Debug(summaryStoredMessageConstant, zap.String(logFieldSummaryFileConstant, summaryFilePath))
	return nil
}

// buildGateway connects to the local repository through the git executable or through go-git.
func buildGateway(settings gatewaySettings) (tagimport.Gateway, error) {
	options := gitrepo.ManagerOptions{RepositoryPath: settings.RepositoryPath, InvocationTimeout: settings.Timeout}

	switch settings.Kind {
	case importGatewayNativeConstant:
		nativeRepository, openError := gitrepo.OpenNativeRepository(options)
		if openError != nil {
			return nil, openError
		}
		return nativeRepository, nil
	case importGatewayExecConstant:
		logger := settings.Logger
		if logger == nil {
			logger = zap.NewNop()
		}
		shellExecutor, executorError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), settings.HumanReadableLogging)
		if executorError != nil {
			return nil, executorError
		}
		repositoryManager, managerError := gitrepo.NewRepositoryManager(shellExecutor, options)
		if managerError != nil {
			return nil, managerError
		}
		return repositoryManager, nil
	default:
		return nil, UnsupportedGatewayError{Gateway: settings.Kind}
	}
}

func (application *Application) flushLogger() error {
	if syncError := application.syncLoggerInstance(application.logger); syncError != nil {
		return syncError
	}

	if syncError := application.syncLoggerInstance(application.consoleLogger); syncError != nil {
		return syncError
	}

	return nil
}

func (application *Application) syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	case errors.Is(syncError, syscall.EBADF):
		return nil
	case errors.Is(syncError, syscall.ENOTTY):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
