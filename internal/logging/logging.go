// Package logging configures the process-wide structured logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// New builds a logger writing to w. Format "console" gives human-readable
// lines; anything else writes JSON.
func New(level, format string, w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	logger := &log.Logger{
		Level:      log.ParseLevel(strings.ToLower(level)),
		TimeFormat: time.RFC3339,
	}
	if strings.EqualFold(format, "console") {
		logger.Writer = &log.ConsoleWriter{
			Writer:         w,
			QuoteString:    true,
			EndWithMessage: true,
		}
	} else {
		logger.Writer = &log.IOWriter{Writer: w}
	}
	return logger
}

// Setup installs a logger built from level and format as log.DefaultLogger.
func Setup(level, format string) {
	log.DefaultLogger = *New(level, format, os.Stderr)
}
