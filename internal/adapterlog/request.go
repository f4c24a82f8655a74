package adapterlog

import (
	"log/slog"
	"time"
)

// RequestLogger wraps a *slog.Logger with the two log lines the MCP stdio
// adapter emits around every tool call, mirroring the teacher's
// daemonLogger shape (a struct embedding a single *slog.Logger field that
// call sites pass around instead of the package-level default logger).
type RequestLogger struct {
	logger *slog.Logger
}

// NewRequestLogger builds a RequestLogger over an already-constructed
// slog.Logger, typically one returned by New.
func NewRequestLogger(logger *slog.Logger) *RequestLogger {
	return &RequestLogger{logger: logger}
}

// ToolCall logs a single tool invocation's start.
func (r *RequestLogger) ToolCall(requestID, tool, agent string, role string) {
	r.logger.Info("tool_call",
		slog.String("request_id", requestID),
		slog.String("tool", tool),
		slog.String("agent", agent),
		slog.String("role", role),
	)
}

// ToolResult logs a tool invocation's completion, success or failure.
func (r *RequestLogger) ToolResult(requestID, tool string, dur time.Duration, err error) {
	if err != nil {
		r.logger.Error("tool_result",
			slog.String("request_id", requestID),
			slog.String("tool", tool),
			slog.Duration("duration", dur),
			slog.String("error", err.Error()),
		)
		return
	}
	r.logger.Info("tool_result",
		slog.String("request_id", requestID),
		slog.String("tool", tool),
		slog.Duration("duration", dur),
	)
}

// Warnf logs a one-off warning, for adapter-level conditions that aren't
// tied to a single tool call (e.g. a malformed JSON-RPC envelope).
func (r *RequestLogger) Warnf(msg string, args ...any) {
	r.logger.Warn(msg, args...)
}
