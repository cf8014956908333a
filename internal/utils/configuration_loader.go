package utils

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const (
	environmentKeySeparatorConstant                = "."
	environmentVariableSeparatorConstant           = "_"
	embeddedConfigurationReadErrorTemplateConstant = "unable to read embedded configuration: %w"
	configurationFileReadErrorTemplateConstant     = "unable to read configuration file %s: %w"
	configurationSearchErrorTemplateConstant       = "unable to load configuration: %w"
	configurationDecoderErrorTemplateConstant      = "unable to construct configuration decoder: %w"
	configurationDecodeErrorTemplateConstant       = "unable to decode configuration: %w"
	configurationTargetMissingMessageConstant      = "configuration target must be provided"
)

// ErrConfigurationTargetMissing indicates LoadConfiguration received a nil target.
var ErrConfigurationTargetMissing = errors.New(configurationTargetMissingMessageConstant)

// LoadedConfiguration describes where configuration values came from.
type LoadedConfiguration struct {
	ConfigFileUsed string
}

// ConfigurationLoader layers defaults, embedded configuration, a configuration file and
// environment variables, in increasing precedence.
type ConfigurationLoader struct {
	configurationName     string
	configurationType     string
	environmentPrefix     string
	searchPaths           []string
	embeddedConfiguration []byte
	embeddedType          string
}

// NewConfigurationLoader constructs a loader looking for configurationName in searchPaths, in order.
func NewConfigurationLoader(configurationName string, configurationType string, environmentPrefix string, searchPaths []string) *ConfigurationLoader {
	return &ConfigurationLoader{
		configurationName: configurationName,
		configurationType: configurationType,
		environmentPrefix: environmentPrefix,
		searchPaths:       append([]string(nil), searchPaths...),
	}
}

// SetEmbeddedConfiguration registers configuration content applied beneath any configuration file.
func (loader *ConfigurationLoader) SetEmbeddedConfiguration(configurationData []byte, configurationType string) {
	loader.embeddedConfiguration = append([]byte(nil), configurationData...)
	loader.embeddedType = configurationType
}

// LoadConfiguration decodes the layered configuration into target. An explicit configurationFilePath
// must exist; otherwise the first configuration file found in the search paths is used, if any.
func (loader *ConfigurationLoader) LoadConfiguration(configurationFilePath string, defaultValues map[string]any, target any) (LoadedConfiguration, error) {
	if target == nil {
		return LoadedConfiguration{}, ErrConfigurationTargetMissing
	}

	configurationReader := viper.New()
	for key, value := range defaultValues {
		configurationReader.SetDefault(key, value)
	}

	if len(loader.embeddedConfiguration) > 0 {
		configurationReader.SetConfigType(loader.embeddedType)
		if readError := configurationReader.ReadConfig(bytes.NewReader(loader.embeddedConfiguration)); readError != nil {
			return LoadedConfiguration{}, fmt.Errorf(embeddedConfigurationReadErrorTemplateConstant, readError)
		}
	}

	trimmedPath := strings.TrimSpace(configurationFilePath)
	if len(trimmedPath) > 0 {
		configurationReader.SetConfigFile(trimmedPath)
		if mergeError := configurationReader.MergeInConfig(); mergeError != nil {
			return LoadedConfiguration{}, fmt.Errorf(configurationFileReadErrorTemplateConstant, trimmedPath, mergeError)
		}
	} else if len(loader.searchPaths) > 0 {
		configurationReader.SetConfigName(loader.configurationName)
		configurationReader.SetConfigType(loader.configurationType)
		for _, searchPath := range loader.searchPaths {
			configurationReader.AddConfigPath(searchPath)
		}
		if mergeError := configurationReader.MergeInConfig(); mergeError != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(mergeError, &notFound) {
				return LoadedConfiguration{}, fmt.Errorf(configurationSearchErrorTemplateConstant, mergeError)
			}
		}
	}

	if len(loader.environmentPrefix) > 0 {
		configurationReader.SetEnvPrefix(loader.environmentPrefix)
	}
	configurationReader.SetEnvKeyReplacer(strings.NewReplacer(environmentKeySeparatorConstant, environmentVariableSeparatorConstant))
	configurationReader.AutomaticEnv()

	decoder, decoderError := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.ComposeDecodeHookFunc(mapstructure.StringToTimeDurationHookFunc(), mapstructure.StringToSliceHookFunc(",")),
		WeaklyTypedInput: true,
		Result:           target,
	})
	if decoderError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecoderErrorTemplateConstant, decoderError)
	}
	if decodeError := decoder.Decode(configurationReader.AllSettings()); decodeError != nil {
		return LoadedConfiguration{}, fmt.Errorf(configurationDecodeErrorTemplateConstant, decodeError)
	}

	return LoadedConfiguration{ConfigFileUsed: configurationReader.ConfigFileUsed()}, nil
}
