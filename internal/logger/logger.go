// Package logger builds the process logger from configuration.
package logger

import (
	"io"
	"os"

	"github.com/phuslu/log"

	"askly/internal/config"
)

// New returns a logger writing to stderr so command output on stdout stays
// clean.
func New(cfg config.LogConfig) *log.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

func NewWithWriter(cfg config.LogConfig, out io.Writer) *log.Logger {
	var w log.Writer
	if cfg.Format == "json" {
		w = &log.IOWriter{Writer: out}
	} else {
		color := false
		if f, ok := out.(*os.File); ok {
			color = log.IsTerminal(f.Fd())
		}
		w = &log.ConsoleWriter{
			Writer:         out,
			ColorOutput:    color,
			QuoteString:    true,
			EndWithMessage: true,
		}
	}
	return &log.Logger{
		Level:      log.ParseLevel(cfg.Level),
		TimeFormat: "15:04:05",
		Writer:     w,
	}
}

// Discard drops everything; the terminal UI owns the screen.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}
