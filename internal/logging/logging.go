// Package logging builds the structured logger shared by every sastocks
// component. Loggers are passed explicitly; nothing here is global.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/phuslu/log"
)

// Formats accepted by New.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Options configures a logger.
type Options struct {
	Level  string    // "debug", "info", "warn", "error"
	Format string    // FormatConsole or FormatJSON
	Output io.Writer // defaults to os.Stderr
}

// New returns a leveled logger writing to opts.Output.
func New(opts Options) *log.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	var w log.Writer
	switch strings.ToLower(opts.Format) {
	case FormatJSON:
		w = &log.IOWriter{Writer: out}
	default:
		w = &log.ConsoleWriter{
			Writer:         out,
			ColorOutput:    out == os.Stderr || out == os.Stdout,
			EndWithMessage: true,
		}
	}

	return &log.Logger{
		Level:      ParseLevel(opts.Level),
		TimeFormat: time.RFC3339,
		Writer:     w,
	}
}

// ParseLevel maps a config string to a log level, defaulting to info.
func ParseLevel(s string) log.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return log.TraceLevel
	case "debug":
		return log.DebugLevel
	case "warn", "warning":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

// With returns a copy of l whose entries all carry the given string fields,
// supplied as key/value pairs.
func With(l *log.Logger, kv ...string) *log.Logger {
	child := *l
	ctx := log.NewContext(nil)
	for i := 0; i+1 < len(kv); i += 2 {
		ctx = ctx.Str(kv[i], kv[i+1])
	}
	child.Context = append(append(log.Context(nil), l.Context...), ctx.Value()...)
	return &child
}

// Discard returns a logger that drops everything. Useful in tests.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}
