package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/untoldecay/hmem/internal/adapterlog"
	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

func newTestSession(t *testing.T, role types.Role) *session {
	t.Helper()
	cfg := config.Defaults()
	cfg.Prefixes = map[string]string{"E": "Engineering"}
	dbPath := filepath.Join(t.TempDir(), "store.db")

	s, err := store.Open(context.Background(), dbPath, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	logger, writer := adapterlog.New(adapterlog.Options{Path: filepath.Join(t.TempDir(), "adapter.log"), Level: slog.LevelError})
	t.Cleanup(func() { writer.Close() })

	return &session{
		store: s,
		env:   adapterEnv{AgentRole: role, AuditStatePath: filepath.Join(t.TempDir(), "audit.json")},
		cache: sessioncache.New(),
		log:   adapterlog.NewRequestLogger(logger),
	}
}

func TestDispatchWriteThenReadRoundTrips(t *testing.T) {
	sess := newTestSession(t, types.RoleAL)
	ctx := context.Background()

	writeArgs, _ := json.Marshal(map[string]any{"prefix": "E", "content": "first entry"})
	resp := sess.dispatch(ctx, ToolCall{Tool: ToolWrite, Args: writeArgs})
	if !resp.Success {
		t.Fatalf("write_memory failed: %s", resp.Error)
	}

	var writeResult store.WriteResult
	if err := json.Unmarshal(resp.Result, &writeResult); err != nil {
		t.Fatalf("decoding write result: %v", err)
	}
	if writeResult.ID != "E0001" {
		t.Fatalf("ID = %q, want E0001", writeResult.ID)
	}

	readArgs, _ := json.Marshal(map[string]any{"id": writeResult.ID})
	resp = sess.dispatch(ctx, ToolCall{Tool: ToolRead, Args: readArgs})
	if !resp.Success {
		t.Fatalf("read_memory failed: %s", resp.Error)
	}
}

func TestDispatchUnknownToolFails(t *testing.T) {
	sess := newTestSession(t, types.RoleAL)
	resp := sess.dispatch(context.Background(), ToolCall{Tool: "nope"})
	if resp.Success {
		t.Fatalf("expected failure for unknown tool")
	}
}

func TestCuratorToolDeniedForWorker(t *testing.T) {
	sess := newTestSession(t, types.RoleWorker)
	args, _ := json.Marshal(map[string]any{"agent": "agent-a"})
	resp := sess.dispatch(context.Background(), ToolCall{Tool: ToolMarkAudited, Args: args})
	if resp.Success {
		t.Fatalf("expected role_denied for worker calling mark_audited")
	}
}

func TestCuratorToolAllowedForPL(t *testing.T) {
	sess := newTestSession(t, types.RolePL)
	args, _ := json.Marshal(map[string]any{"agent": "agent-a"})
	resp := sess.dispatch(context.Background(), ToolCall{Tool: ToolMarkAudited, Args: args})
	if !resp.Success {
		t.Fatalf("mark_audited failed: %s", resp.Error)
	}
}

func TestServeLoopEchoesRequestIDAndAssignsOneWhenMissing(t *testing.T) {
	sess := newTestSession(t, types.RoleAL)

	writeArgs, _ := json.Marshal(map[string]any{"prefix": "E", "content": "via serve loop"})
	call, _ := json.Marshal(ToolCall{Tool: ToolWrite, Args: writeArgs, RequestID: "req-123"})
	unnamed, _ := json.Marshal(ToolCall{Tool: ToolWrite, Args: writeArgs})

	in := bytes.NewBufferString(string(call) + "\n" + string(unnamed) + "\n")
	var out bytes.Buffer

	if err := serveLoop(context.Background(), in, &out, sess); err != nil {
		t.Fatalf("serveLoop() error = %v", err)
	}

	dec := json.NewDecoder(&out)
	var resp ToolResponse
	if err := dec.Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.RequestID != "req-123" {
		t.Errorf("RequestID = %q, want req-123", resp.RequestID)
	}
	if !resp.Success {
		t.Errorf("Success = false, want true: %s", resp.Error)
	}

	var resp2 ToolResponse
	if err := dec.Decode(&resp2); err != nil {
		t.Fatalf("decoding second response: %v", err)
	}
	if resp2.RequestID == "" {
		t.Errorf("RequestID is empty for a call sent without one, want an assigned ID")
	}
}

func TestServeLoopRepliesErrorOnMalformedLine(t *testing.T) {
	sess := newTestSession(t, types.RoleAL)
	in := bytes.NewBufferString("not json\n")
	var out bytes.Buffer

	if err := serveLoop(context.Background(), in, &out, sess); err != nil {
		t.Fatalf("serveLoop() error = %v", err)
	}

	var resp ToolResponse
	if err := json.Unmarshal(bytes.TrimSpace(out.Bytes()), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Success {
		t.Errorf("expected failure envelope for malformed line")
	}
}
