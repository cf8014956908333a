package utils

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel enumerates supported diagnostic log levels.
type LogLevel string

// LogFormat enumerates supported diagnostic log encodings.
type LogFormat string

const (
	// LogLevelDebug enables every diagnostic message.
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables informational messages and above.
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn enables warnings and errors.
	LogLevelWarn LogLevel = "warn"
	// LogLevelError enables errors only.
	LogLevelError LogLevel = "error"

	// LogFormatStructured encodes diagnostics as JSON lines.
	LogFormatStructured LogFormat = "structured"
	// LogFormatConsole encodes diagnostics for humans and enables the console logger.
	LogFormatConsole LogFormat = "console"
)

const (
	unsupportedLogLevelTemplateConstant  = "unsupported log level %q"
	unsupportedLogFormatTemplateConstant = "unsupported log format %q"
	logLevelKeyConstant                  = "level"
	logMessageKeyConstant                = "msg"
)

// LoggerOutputs groups the loggers produced for a log format.
// DiagnosticLogger carries structured diagnostics; ConsoleLogger carries human-oriented
// messages and is a no-op unless the console format is selected.
type LoggerOutputs struct {
	DiagnosticLogger *zap.Logger
	ConsoleLogger    *zap.Logger
}

// LoggerFactory builds zap loggers writing to standard error.
type LoggerFactory struct{}

// NewLoggerFactory constructs a LoggerFactory.
func NewLoggerFactory() LoggerFactory {
	return LoggerFactory{}
}

// CreateLoggerOutputs builds loggers for the requested level and format.
func (factory LoggerFactory) CreateLoggerOutputs(logLevel LogLevel, logFormat LogFormat) (LoggerOutputs, error) {
	level, levelError := parseLogLevel(logLevel)
	if levelError != nil {
		return LoggerOutputs{}, levelError
	}

	errorOutput := zapcore.Lock(zapcore.AddSync(os.Stderr))

	switch LogFormat(strings.ToLower(strings.TrimSpace(string(logFormat)))) {
	case LogFormatStructured:
		diagnosticCore := zapcore.NewCore(zapcore.NewJSONEncoder(structuredEncoderConfig()), errorOutput, level)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(diagnosticCore, zap.ErrorOutput(errorOutput)),
			ConsoleLogger:    zap.NewNop(),
		}, nil
	case LogFormatConsole:
		diagnosticCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), errorOutput, level)
		consoleCore := zapcore.NewCore(zapcore.NewConsoleEncoder(consoleMessageEncoderConfig()), errorOutput, level)
		return LoggerOutputs{
			DiagnosticLogger: zap.New(diagnosticCore, zap.ErrorOutput(errorOutput)),
			ConsoleLogger:    zap.New(consoleCore, zap.ErrorOutput(errorOutput)),
		}, nil
	default:
		return LoggerOutputs{}, fmt.Errorf(unsupportedLogFormatTemplateConstant, logFormat)
	}
}

func parseLogLevel(logLevel LogLevel) (zapcore.Level, error) {
	switch LogLevel(strings.ToLower(strings.TrimSpace(string(logLevel)))) {
	case LogLevelDebug:
		return zapcore.DebugLevel, nil
	case LogLevelInfo:
		return zapcore.InfoLevel, nil
	case LogLevelWarn:
		return zapcore.WarnLevel, nil
	case LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InvalidLevel, fmt.Errorf(unsupportedLogLevelTemplateConstant, logLevel)
	}
}

func structuredEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return encoderConfig
}

func consoleEncoderConfig() zapcore.EncoderConfig {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return encoderConfig
}

// consoleMessageEncoderConfig prints only the level and message.
func consoleMessageEncoderConfig() zapcore.EncoderConfig {
	return zapcore.EncoderConfig{
		LevelKey:       logLevelKeyConstant,
		MessageKey:     logMessageKeyConstant,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
}
