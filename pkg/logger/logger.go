package logger

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mukfin/scripts/pkg/utils"
)

// Context key for storing logger
type contextKey string

const (
	loggerContextKey    contextKey = "cloud-inventory-logger"
	logCloserContextKey contextKey = "cloud-inventory-log-closer"
)

// logFileName is the name of the log file created in the optional log directory
const logFileName = "cloud-inventory.log"

// LogLevel represents supported logging levels
type LogLevel string

const (
	// LogLevelDebug enables debug, info, warning, and error messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo enables info, warning, and error messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarning enables warning and error messages
	LogLevelWarning LogLevel = "warning"
	// LogLevelError enables only error messages
	LogLevelError LogLevel = "error"
)

// ValidLogLevels contains all supported log levels
var ValidLogLevels = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warning": LogLevelWarning,
	"error":   LogLevelError,
}

// ValidateLogLevel validates if the provided log level is supported
func ValidateLogLevel(level string) error {
	normalizedLevel := strings.ToLower(strings.TrimSpace(level))
	if _, valid := ValidLogLevels[normalizedLevel]; !valid {
		return fmt.Errorf("invalid log level '%s'. Valid levels are: debug, info, warning, error", level)
	}
	return nil
}

// ParseLogLevel converts string log level to logrus.Level with validation
func ParseLogLevel(level string) (logrus.Level, error) {
	normalizedLevel := strings.ToLower(strings.TrimSpace(level))

	switch normalizedLevel {
	case "debug":
		return logrus.DebugLevel, nil
	case "info":
		return logrus.InfoLevel, nil
	case "warning":
		return logrus.WarnLevel, nil
	case "error":
		return logrus.ErrorLevel, nil
	default:
		return logrus.InfoLevel, fmt.Errorf("invalid log level '%s'. Valid levels are: debug, info, warning, error", level)
	}
}

// SetupLogger creates a logger with the specified level writing to stderr, the
// diagnostic stream. When logDir is set, everything is also appended to a log
// file there; release it with Close once the command is done.
func SetupLogger(ctx context.Context, level, logDir string) context.Context {
	logger, closer := NewLogger(os.Stderr, level, logDir)
	ctx = context.WithValue(ctx, loggerContextKey, logger)
	return context.WithValue(ctx, logCloserContextKey, closer)
}

// Close releases the log file opened by SetupLogger, if any. Later log
// entries only reach stderr.
func Close(ctx context.Context) error {
	closer, ok := ctx.Value(logCloserContextKey).(io.Closer)
	if !ok {
		return nil
	}
	if logger, ok := ctx.Value(loggerContextKey).(*logrus.Logger); ok {
		logger.SetOutput(os.Stderr)
	}
	return closer.Close()
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// NewLogger builds the logger used by SetupLogger on an arbitrary writer. The
// returned closer releases the log file in logDir.
func NewLogger(out io.Writer, level, logDir string) (*logrus.Logger, io.Closer) {
	logger := logrus.New()

	logLevel, err := ParseLogLevel(level)
	if err != nil {
		fmt.Fprintf(out, "Warning: %v. Using 'info' level as default.\n", err)
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)
	logger.SetReportCaller(logLevel == logrus.DebugLevel)
	logger.SetFormatter(&logrus.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		CallerPrettyfier: func(f *runtime.Frame) (string, string) {
			filename := filepath.Base(f.File)
			return fmt.Sprintf("[%s:%d]", filename, f.Line), ""
		},
	})

	writers := []io.Writer{out}
	var closer io.Closer = nopCloser{}
	if logDir != "" {
		if file, err := setupLogFileWriter(logDir); err != nil {
			fmt.Fprintf(out, "Warning: Failed to setup log file in directory '%s': %v. Logging to stderr only.\n", logDir, err)
		} else {
			writers = append(writers, file)
			closer = file
		}
	}
	logger.SetOutput(io.MultiWriter(writers...))

	return logger, closer
}

// setupLogFileWriter opens the log file in logDir for appending, creating it when needed
func setupLogFileWriter(logDir string) (*os.File, error) {
	logFilePath := filepath.Join(logDir, logFileName)
	if err := utils.EnsureParentDir(logFilePath); err != nil {
		return nil, fmt.Errorf("failed to create log directory '%s': %w", logDir, err)
	}

	file, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file '%s': %w", logFilePath, err)
	}
	return file, nil
}

// WithLogger stores an existing logger in the context
func WithLogger(ctx context.Context, logger *logrus.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

// GetLoggerFromContext retrieves the logger from context
func GetLoggerFromContext(ctx context.Context) *logrus.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*logrus.Logger); ok {
		return logger
	}
	// Fallback to a stderr logger if not found in context
	logger, _ := NewLogger(os.Stderr, string(LogLevelInfo), "")
	return logger
}

// GetCurrentLogLevel returns the current log level as a string
func GetCurrentLogLevel(ctx context.Context) string {
	logger := GetLoggerFromContext(ctx)
	switch logger.GetLevel() {
	case logrus.DebugLevel:
		return "debug"
	case logrus.InfoLevel:
		return "info"
	case logrus.WarnLevel:
		return "warning"
	case logrus.ErrorLevel:
		return "error"
	default:
		return "unknown"
	}
}

// IsDebugEnabled checks if debug logging is enabled
func IsDebugEnabled(ctx context.Context) bool {
	logger := GetLoggerFromContext(ctx)
	return logger.IsLevelEnabled(logrus.DebugLevel)
}
