// Package adapterlog provides the MCP adapter's structured request/
// response logger: a rotating file sink wrapped in log/slog, the same
// shape the teacher's daemon logger wraps around an io.Writer
// (slog.New(slog.NewTextHandler(writer, opts))), with lumberjack standing
// in for the daemon's writer so a long-lived adapter connection never
// grows one log file without bound.
package adapterlog

import (
	"log/slog"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the rotating sink. Zero or negative MaxSizeMB,
// MaxBackups and MaxAgeDays are replaced by hmem's own defaults (20 MB,
// 5 backups, 28 days) in New, not by lumberjack's.
type Options struct {
	Path       string // log file path; empty is passed to lumberjack as is, which then writes to its own default file in os.TempDir()
	MaxSizeMB  int    // megabytes before rotation; default 20
	MaxBackups int    // old files kept; default 5
	MaxAgeDays int    // days kept; default 28
	Compress   bool
	Level      slog.Level
}

func (o Options) withDefaults() Options {
	if o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 20
	}
	if o.MaxBackups <= 0 {
		o.MaxBackups = 5
	}
	if o.MaxAgeDays <= 0 {
		o.MaxAgeDays = 28
	}
	return o
}

// New returns a slog.Logger backed by a rotating file at opts.Path. The
// *lumberjack.Logger is also returned so the caller can Close it on
// shutdown, releasing the open log file.
func New(opts Options) (*slog.Logger, *lumberjack.Logger) {
	opts = opts.withDefaults()

	writer := &lumberjack.Logger{
		Filename:   opts.Path,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   opts.Compress,
	}

	handler := slog.NewJSONHandler(writer, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(handler), writer
}
