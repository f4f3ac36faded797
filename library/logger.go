package library

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"
)

// NewLogger builds the structured logger described by cfg. Output goes to stderr
// so it never mixes with command output.
func NewLogger(cfg LoggingConfig) *log.Logger {
	return newLoggerTo(cfg, os.Stderr)
}

func newLoggerTo(cfg LoggingConfig, w io.Writer) *log.Logger {
	logger := &log.Logger{
		Level:      log.ParseLevel(strings.ToLower(cfg.Level)),
		TimeFormat: "15:04:05.000",
	}
	if cfg.Format == "json" {
		logger.Writer = &log.IOWriter{Writer: w}
	} else {
		logger.Writer = &log.ConsoleWriter{Writer: w, ColorOutput: false, QuoteString: true}
	}
	return logger
}

func discardLogger() *log.Logger {
	return &log.Logger{Level: log.ErrorLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}

func orDiscard(logger *log.Logger) *log.Logger {
	if logger == nil {
		return discardLogger()
	}
	return logger
}
