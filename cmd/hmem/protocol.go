package main

import (
	"encoding/json"
	"fmt"

	"golang.org/x/mod/semver"
)

// ProtocolVersion is the adapter's stdio envelope version, compared
// against ToolCall.ClientVersion the way bd's rpc server rejects a
// client whose major version it no longer speaks.
const ProtocolVersion = "v1.0.0"

// ToolCall is one line of the adapter's stdio protocol: a single MCP
// tools/call envelope, the same Operation/Args/RequestID shape bd's own
// RPC Request carries over its daemon socket, adapted to one JSON line
// per call instead of a length-prefixed frame.
type ToolCall struct {
	Tool          string          `json:"tool"`
	Args          json.RawMessage `json:"args"`
	RequestID     string          `json:"request_id,omitempty"`
	ClientVersion string          `json:"client_version,omitempty"`
}

// checkProtocolVersion rejects a client whose major protocol version
// differs from ours. An empty or malformed ClientVersion is treated as
// "unversioned caller" and let through, since most adapter hosts predate
// this field.
func checkProtocolVersion(clientVersion string) error {
	if clientVersion == "" || !semver.IsValid(clientVersion) {
		return nil
	}
	if semver.Major(clientVersion) != semver.Major(ProtocolVersion) {
		return fmt.Errorf("hmem: client protocol version %s is incompatible with adapter version %s", clientVersion, ProtocolVersion)
	}
	return nil
}

// ToolResponse mirrors bd's RPC Response: a success flag, opaque result
// payload, and a flat error string the adapter host renders.
type ToolResponse struct {
	Success   bool            `json:"success"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     string          `json:"error,omitempty"`
	RequestID string          `json:"request_id,omitempty"`
}

func okResponse(requestID string, data any) ToolResponse {
	raw, err := json.Marshal(data)
	if err != nil {
		return errResponse(requestID, err)
	}
	return ToolResponse{Success: true, Result: raw, RequestID: requestID}
}

func errResponse(requestID string, err error) ToolResponse {
	return ToolResponse{Success: false, Error: err.Error(), RequestID: requestID}
}

// Tool name constants, matching spec.md §6's "tool surface consumed by the
// adapter" list.
const (
	ToolWrite             = "write_memory"
	ToolRead              = "read_memory"
	ToolUpdate            = "update_memory"
	ToolAppend            = "append_memory"
	ToolSearch            = "search_memory"
	ToolExport            = "export_memory"
	ToolImport            = "import_memory"
	ToolResetCache        = "reset_memory_cache"
	ToolReadAgentMemory   = "read_agent_memory"
	ToolFixAgentMemory    = "fix_agent_memory"
	ToolAppendAgentMemory = "append_agent_memory"
	ToolDeleteAgentMemory = "delete_agent_memory"
	ToolMarkAudited       = "mark_audited"
	ToolGetAuditQueue     = "get_audit_queue"
)
