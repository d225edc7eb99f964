// Package logger provides structured logging for netutil using Logrus.
// It supports JSON and text formats and structured field logging.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log            *logrus.Logger
	mu             sync.RWMutex
	currentLogFile io.Closer
)

func init() {
	log = logrus.New()
	log.SetLevel(logrus.InfoLevel)
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stderr)
}

// Initialize sets up the global logger. It may be called more than once;
// a previously opened log file is closed.
//   - level: debug, info, warn, error
//   - format: json, text
//   - output: stdout, stderr, file
//   - outputFile: path used when output is "file"
func Initialize(level, format, output, outputFile string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var formatter logrus.Formatter
	switch format {
	case "json":
		formatter = &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		}
	case "text", "":
		formatter = &logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		}
	default:
		return fmt.Errorf("invalid log format %q: must be json or text", format)
	}

	var (
		writer io.Writer
		file   *os.File
	)
	switch output {
	case "stderr", "":
		writer = os.Stderr
	case "stdout":
		writer = os.Stdout
	case "file":
		if outputFile == "" {
			return fmt.Errorf("log file must be specified when output is 'file'")
		}
		file, err = os.OpenFile(outputFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("failed to open log file %q: %w", outputFile, err)
		}
		writer = file
	default:
		return fmt.Errorf("invalid log output %q: must be stdout, stderr, or file", output)
	}

	mu.Lock()
	defer mu.Unlock()

	if currentLogFile != nil {
		if err := currentLogFile.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close previous log file: %v\n", err)
		}
		currentLogFile = nil
	}
	if file != nil {
		currentLogFile = file
	}

	l := logrus.New()
	l.SetLevel(lvl)
	l.SetFormatter(formatter)
	l.SetOutput(writer)
	log = l
	return nil
}

// Close releases the log file opened by Initialize, if any.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if currentLogFile == nil {
		return nil
	}
	err := currentLogFile.Close()
	currentLogFile = nil
	return err
}

// Get returns the global logger instance.
func Get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// WithFields returns a logger entry with structured fields:
//
//	logger.WithFields(logrus.Fields{
//	    "component": "host",
//	    "strategy":  "callback",
//	}).Info("registered")
func WithFields(fields logrus.Fields) *logrus.Entry {
	return Get().WithFields(fields)
}

// WithField returns a logger entry with a single structured field.
func WithField(key string, value interface{}) *logrus.Entry {
	return Get().WithField(key, value)
}

// WithError returns a logger entry with an error field.
func WithError(err error) *logrus.Entry {
	return Get().WithError(err)
}

func Debug(args ...interface{}) { Get().Debug(args...) }
func Info(args ...interface{})  { Get().Info(args...) }
func Warn(args ...interface{})  { Get().Warn(args...) }
func Error(args ...interface{}) { Get().Error(args...) }

func Debugf(format string, args ...interface{}) { Get().Debugf(format, args...) }
func Infof(format string, args ...interface{})  { Get().Infof(format, args...) }
func Warnf(format string, args ...interface{})  { Get().Warnf(format, args...) }
func Errorf(format string, args ...interface{}) { Get().Errorf(format, args...) }

// Fatalf logs a formatted message at level Fatal then calls os.Exit(1).
func Fatalf(format string, args ...interface{}) { Get().Fatalf(format, args...) }
