package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

var logg = New(os.Stdout, "info")

// Logger returns the process-wide logger.
func Logger() *logrus.Logger {
	return logg
}

// Configure replaces the level of the process-wide logger.
func Configure(level string) {
	logg.SetLevel(parseLevel(level))
}

// New builds a JSON logger writing to out.
func New(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.JSONFormatter{})
	l.SetLevel(parseLevel(level))
	l.SetOutput(out)
	return l
}

func parseLevel(level string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.TrimSpace(level))
	if err != nil {
		return logrus.InfoLevel
	}
	return lvl
}

// LogError logs err with the module/function context it happened in.
func LogError(logger *logrus.Logger, module string, funcName string, context string, data any, err error) {
	fields := logrus.Fields{
		"module":   module,
		"funcName": funcName,
		"context":  context,
	}
	if data != nil {
		fields["data"] = data
	}
	logger.WithFields(fields).Error(err.Error())
}
