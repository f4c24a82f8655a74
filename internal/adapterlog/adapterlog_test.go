package adapterlog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewWritesJSONLinesToConfiguredPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adapter.log")
	logger, writer := New(Options{Path: path})
	defer writer.Close()

	logger.Info("hello", "k", "v")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if !strings.Contains(string(data), `"msg":"hello"`) {
		t.Errorf("log file = %q, want a JSON line with msg=hello", data)
	}
}

func TestOptionsWithDefaultsFillsZeroValues(t *testing.T) {
	opts := Options{}.withDefaults()
	if opts.MaxSizeMB <= 0 || opts.MaxBackups <= 0 || opts.MaxAgeDays <= 0 {
		t.Errorf("withDefaults() = %+v, want all positive", opts)
	}
}

func TestRequestLoggerToolResultRecordsError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adapter.log")
	logger, writer := New(Options{Path: path})
	defer writer.Close()

	rl := NewRequestLogger(logger)
	rl.ToolCall("req-1", "write_memory", "agent-a", "al")
	rl.ToolResult("req-1", "write_memory", 5*time.Millisecond, errors.New("boom"))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"tool_call"`) || !strings.Contains(out, `"tool_result"`) {
		t.Errorf("log = %q, want both tool_call and tool_result lines", out)
	}
	if !strings.Contains(out, `"error":"boom"`) {
		t.Errorf("log = %q, want error=boom recorded", out)
	}
}
