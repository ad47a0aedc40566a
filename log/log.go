// Package log provides the structured logging infrastructure shared by the server, resolvers and batch runs.
package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/cinegate/cinegate/filesystem"
	"github.com/cinegate/cinegate/key"
	"github.com/cinegate/cinegate/where"
	logrus "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Fields is an alias for logrus.Fields so callers do not import logrus directly.
type Fields = logrus.Fields

// Setup initializes the logging subsystem based on global configuration.
// Entries always go to stderr; with logs.write they are also appended to a dated file.
func Setup() error {
	var out io.Writer = os.Stderr

	if viper.GetBool(key.LogsWrite) {
		filename := fmt.Sprintf("%s.log", time.Now().Format("2006-01-02"))
		path := filepath.Join(where.Logs(), filename)

		f, err := filesystem.API().OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
	}
	logrus.SetOutput(out)

	if viper.GetBool(key.LogsJson) {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	parsed, err := logrus.ParseLevel(viper.GetString(key.LogsLevel))
	if err != nil {
		parsed = logrus.InfoLevel
	}
	logrus.SetLevel(parsed)

	return nil
}

// SetOutput redirects all entries, mostly to silence tests.
func SetOutput(w io.Writer) {
	logrus.SetOutput(w)
}

// WithFields returns an entry carrying structured context, e.g. server and source id.
func WithFields(fields Fields) *logrus.Entry {
	return logrus.WithFields(fields)
}

// WithError returns an entry carrying err under the standard error key.
func WithError(err error) *logrus.Entry {
	return logrus.WithError(err)
}

// Writer returns a pipe that logs every line at error level, used for net/http's ErrorLog.
func Writer() *io.PipeWriter {
	return logrus.StandardLogger().WriterLevel(logrus.ErrorLevel)
}

// Severity-Specific Log Emissions - these functions proxy messages to the configured backend.

func Error(args ...interface{}) {
	logrus.Error(args...)
}
func Errorf(format string, args ...interface{}) {
	logrus.Errorf(format, args...)
}
func Warn(args ...interface{}) {
	logrus.Warn(args...)
}
func Warnf(format string, args ...interface{}) {
	logrus.Warnf(format, args...)
}
func Info(args ...interface{}) {
	logrus.Info(args...)
}
func Infof(format string, args ...interface{}) {
	logrus.Infof(format, args...)
}
func Debug(args ...interface{}) {
	logrus.Debug(args...)
}
func Debugf(format string, args ...interface{}) {
	logrus.Debugf(format, args...)
}
func Tracef(format string, args ...interface{}) {
	logrus.Tracef(format, args...)
}
