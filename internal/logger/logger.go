package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var std = newConsoleLogger()

func newConsoleLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	return l
}

// Setup applies the configured level and, when file is non-empty, mirrors
// every entry as JSON into a rotating log file.
func Setup(level, file string) error {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		lvl = logrus.InfoLevel
	}
	std.SetLevel(lvl)

	if file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(file), 0o755); err != nil {
		return err
	}
	std.AddHook(&fileHook{
		writer: &lumberjack.Logger{
			Filename:   file,
			MaxSize:    10,
			MaxBackups: 10,
			MaxAge:     30,
			Compress:   true,
		},
		formatter: &logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		},
	})
	return nil
}

// SetOutput redirects console output. Tests use it to silence logs.
func SetOutput(w io.Writer) {
	std.SetOutput(w)
}

// fileHook writes entries to a second sink with its own formatter.
type fileHook struct {
	writer    io.Writer
	formatter logrus.Formatter
}

func (h *fileHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *fileHook) Fire(entry *logrus.Entry) error {
	b, err := h.formatter.Format(entry)
	if err != nil {
		return err
	}
	_, err = h.writer.Write(b)
	return err
}

func WithFields(fields logrus.Fields) *logrus.Entry {
	return std.WithFields(fields)
}

func Debugf(format string, args ...any) {
	std.Debugf(format, args...)
}

func Infof(format string, args ...any) {
	std.Infof(format, args...)
}

func Warnf(format string, args ...any) {
	std.Warnf(format, args...)
}

func Errorf(format string, args ...any) {
	std.Errorf(format, args...)
}

func Fatalf(format string, args ...any) {
	std.Fatalf(format, args...)
}
