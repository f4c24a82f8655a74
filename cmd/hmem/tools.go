package main

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/untoldecay/hmem/internal/adapterlog"
	"github.com/untoldecay/hmem/internal/audit"
	"github.com/untoldecay/hmem/internal/exportimport"
	"github.com/untoldecay/hmem/internal/selector"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

// session bundles everything one adapter connection needs across calls:
// the open store, the caller's env, and its per-connection session cache
// (§9 design note: the cache is per-connection, not per-process — a stdio
// adapter serves exactly one connection for its whole lifetime, so one
// cache instance here is the correct scope).
type session struct {
	store *store.Store
	env   adapterEnv
	cache *sessioncache.Cache
	log   *adapterlog.RequestLogger
}

// curatorMinRole gates the curator tool variants (read_agent_memory,
// fix_agent_memory, append_agent_memory, delete_agent_memory,
// mark_audited, get_audit_queue) to pl and above.
const curatorMinRole = types.RolePL

func (s *session) requireCurator() error {
	if !s.env.AgentRole.Allows(curatorMinRole) {
		return types.RoleDenied("", s.env.AgentRole, curatorMinRole)
	}
	return nil
}

// dispatch routes one ToolCall to its handler, matching bd's own
// switch-on-operation-string RPC routing (internal/rpc's handleRequest).
func (s *session) dispatch(ctx context.Context, call ToolCall) ToolResponse {
	start := time.Now()
	s.log.ToolCall(call.RequestID, call.Tool, s.env.AgentID, string(s.env.AgentRole))

	if err := checkProtocolVersion(call.ClientVersion); err != nil {
		s.log.ToolResult(call.RequestID, call.Tool, time.Since(start), err)
		return errResponse(call.RequestID, err)
	}

	result, err := s.route(ctx, call)
	s.log.ToolResult(call.RequestID, call.Tool, time.Since(start), err)

	if err != nil {
		return errResponse(call.RequestID, err)
	}
	return okResponse(call.RequestID, result)
}

func (s *session) route(ctx context.Context, call ToolCall) (any, error) {
	switch call.Tool {
	case ToolWrite:
		return s.handleWrite(ctx, call.Args)
	case ToolRead:
		return s.handleRead(ctx, call.Args)
	case ToolUpdate:
		return s.handleUpdate(ctx, call.Args)
	case ToolAppend:
		return s.handleAppend(ctx, call.Args)
	case ToolSearch:
		return s.handleSearch(ctx, call.Args)
	case ToolExport:
		return s.handleExport(ctx, call.Args)
	case ToolImport:
		return s.handleImport(ctx, call.Args)
	case ToolResetCache:
		return s.handleResetCache(ctx, call.Args)
	case ToolReadAgentMemory:
		return s.handleReadAgentMemory(ctx, call.Args)
	case ToolFixAgentMemory:
		return s.handleFixAgentMemory(ctx, call.Args)
	case ToolAppendAgentMemory:
		return s.handleAppendAgentMemory(ctx, call.Args)
	case ToolDeleteAgentMemory:
		return s.handleDeleteAgentMemory(ctx, call.Args)
	case ToolMarkAudited:
		return s.handleMarkAudited(ctx, call.Args)
	case ToolGetAuditQueue:
		return s.handleGetAuditQueue(ctx, call.Args)
	default:
		return nil, fmt.Errorf("hmem: unknown tool %q", call.Tool)
	}
}

// --- write_memory ---

type writeArgs struct {
	Prefix   string   `json:"prefix"`
	Content  string   `json:"content"`
	Links    []string `json:"links,omitempty"`
	MinRole  string   `json:"min_role,omitempty"`
	Favorite bool     `json:"favorite,omitempty"`
	Pinned   bool     `json:"pinned,omitempty"`
	Active   bool     `json:"active,omitempty"`
	Secret   bool     `json:"secret,omitempty"`
	Tags     []string `json:"tags,omitempty"`
}

func (s *session) handleWrite(ctx context.Context, raw json.RawMessage) (any, error) {
	var a writeArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding write_memory args: %w", err)
	}
	minRole := types.Role(a.MinRole)
	if minRole == "" {
		minRole = types.RoleWorker
	}
	return s.store.Write(ctx, a.Prefix, a.Content, s.env.AgentRole, store.WriteOpts{
		Links:    a.Links,
		MinRole:  minRole,
		Favorite: a.Favorite,
		Pinned:   a.Pinned,
		Active:   a.Active,
		Secret:   a.Secret,
		Tags:     a.Tags,
	})
}

// --- read_memory (three-way dispatch: ID, search, or bulk) ---

type readArgs struct {
	ID               string   `json:"id,omitempty"`
	FollowObsolete   *bool    `json:"follow_obsolete,omitempty"`
	ShowObsoletePath bool     `json:"show_obsolete_path,omitempty"`
	Query            string   `json:"query,omitempty"`
	Around           string   `json:"around,omitempty"`
	LinkDepth        int      `json:"link_depth,omitempty"`
	Prefixes         []string `json:"prefixes,omitempty"`
	ShowObsolete     bool     `json:"show_obsolete,omitempty"`
}

func (s *session) handleRead(ctx context.Context, raw json.RawMessage) (any, error) {
	var a readArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding read_memory args: %w", err)
	}

	if a.ID != "" || a.Query != "" || a.Around != "" {
		followObsolete := true
		if a.FollowObsolete != nil {
			followObsolete = *a.FollowObsolete
		}
		linkDepth := a.LinkDepth
		if linkDepth == 0 {
			linkDepth = 1
		}
		return s.store.Read(ctx, store.ReadOpts{
			ID:               a.ID,
			FollowObsolete:   followObsolete,
			ShowObsoletePath: a.ShowObsoletePath,
			Query:            a.Query,
			Around:           a.Around,
			LinkDepth:        linkDepth,
		}, s.env.AgentRole)
	}

	return selector.BulkRead(ctx, s.store, s.env.AgentRole, s.cache, selector.Opts{
		Prefixes:     a.Prefixes,
		ShowObsolete: a.ShowObsolete,
	})
}

// --- update_memory ---

type updateArgs struct {
	ID            string   `json:"id"`
	Content       *string  `json:"content,omitempty"`
	Links         []string `json:"links,omitempty"`
	Obsolete      *bool    `json:"obsolete,omitempty"`
	Favorite      *bool    `json:"favorite,omitempty"`
	Irrelevant    *bool    `json:"irrelevant,omitempty"`
	Pinned        *bool    `json:"pinned,omitempty"`
	Active        *bool    `json:"active,omitempty"`
	Secret        *bool    `json:"secret,omitempty"`
	CuratorBypass bool     `json:"curator_bypass,omitempty"`
}

func (s *session) handleUpdate(ctx context.Context, raw json.RawMessage) (any, error) {
	var a updateArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding update_memory args: %w", err)
	}
	if a.CuratorBypass {
		if err := s.requireCurator(); err != nil {
			return nil, err
		}
	}
	ok, err := s.store.UpdateNode(ctx, a.ID, store.UpdateNodeOpts{
		Content:       a.Content,
		Links:         a.Links,
		Obsolete:      a.Obsolete,
		Favorite:      a.Favorite,
		Irrelevant:    a.Irrelevant,
		Pinned:        a.Pinned,
		Active:        a.Active,
		Secret:        a.Secret,
		CuratorBypass: a.CuratorBypass,
	})
	return map[string]bool{"updated": ok}, err
}

// --- append_memory ---

type appendArgs struct {
	ParentID string `json:"parent_id"`
	Content  string `json:"content"`
}

func (s *session) handleAppend(ctx context.Context, raw json.RawMessage) (any, error) {
	var a appendArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding append_memory args: %w", err)
	}
	return s.store.AppendChildren(ctx, a.ParentID, a.Content)
}

// --- search_memory: a thin alias over read_memory's search-mode dispatch ---

func (s *session) handleSearch(ctx context.Context, raw json.RawMessage) (any, error) {
	return s.handleRead(ctx, raw)
}

// --- export_memory ---

type exportArgs struct {
	Format string `json:"format"` // "markdown" or "native"
	Path   string `json:"path,omitempty"`
	Pretty bool   `json:"pretty,omitempty"` // format=markdown only: also return a glamour-rendered copy
}

func (s *session) handleExport(ctx context.Context, raw json.RawMessage) (any, error) {
	var a exportArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding export_memory args: %w", err)
	}
	switch a.Format {
	case "markdown":
		md, err := exportimport.ExportMarkdown(ctx, s.store)
		if err != nil {
			return nil, err
		}
		result := map[string]string{"markdown": md}
		if a.Pretty {
			rendered, err := renderPretty(md)
			if err != nil {
				return nil, fmt.Errorf("hmem: export_memory: rendering pretty output: %w", err)
			}
			result["rendered"] = rendered
		}
		return result, nil
	case "native":
		if a.Path == "" {
			return nil, fmt.Errorf("hmem: export_memory format=native requires path")
		}
		return map[string]string{"path": a.Path}, exportimport.ExportNative(ctx, s.store, a.Path)
	default:
		return nil, fmt.Errorf("hmem: export_memory: unknown format %q", a.Format)
	}
}

// --- import_memory ---

type importArgs struct {
	Path string `json:"path"`
}

func (s *session) handleImport(ctx context.Context, raw json.RawMessage) (any, error) {
	var a importArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding import_memory args: %w", err)
	}
	src, err := exportimport.OpenForeign(ctx, a.Path, s.store.Config())
	if err != nil {
		return nil, fmt.Errorf("hmem: opening import source: %w", err)
	}
	defer src.Close()

	return exportimport.ImportNative(ctx, s.store, src)
}

// --- reset_memory_cache ---

func (s *session) handleResetCache(_ context.Context, _ json.RawMessage) (any, error) {
	s.cache.Reset()
	return map[string]bool{"reset": true}, nil
}

// --- curator variants ---
//
// These reuse the same store operations as their non-curator counterparts;
// the only difference is the role gate (§6: curator variants require pl or
// above) and, for fix_agent_memory, that curator_bypass is always set to
// true so administration tooling never has to fight the [✓ID] requirement.

func (s *session) handleReadAgentMemory(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := s.requireCurator(); err != nil {
		return nil, err
	}
	return s.handleRead(ctx, raw)
}

func (s *session) handleFixAgentMemory(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := s.requireCurator(); err != nil {
		return nil, err
	}
	var a updateArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding fix_agent_memory args: %w", err)
	}
	a.CuratorBypass = true
	patched, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return s.handleUpdate(ctx, patched)
}

func (s *session) handleAppendAgentMemory(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := s.requireCurator(); err != nil {
		return nil, err
	}
	return s.handleAppend(ctx, raw)
}

type deleteAgentMemoryArgs struct {
	ID string `json:"id"`
}

func (s *session) handleDeleteAgentMemory(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := s.requireCurator(); err != nil {
		return nil, err
	}
	var a deleteAgentMemoryArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding delete_agent_memory args: %w", err)
	}
	ok, err := s.store.Delete(ctx, a.ID)
	return map[string]bool{"deleted": ok}, err
}

// --- mark_audited / get_audit_queue ---

type markAuditedArgs struct {
	Agent string `json:"agent"`
}

func (s *session) handleMarkAudited(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := s.requireCurator(); err != nil {
		return nil, err
	}
	var a markAuditedArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding mark_audited args: %w", err)
	}
	ts, err := s.store.MarkAudited(ctx, a.Agent)
	if err != nil {
		return nil, err
	}
	if err := audit.RecordSidecar(s.env.AuditStatePath, a.Agent, ts); err != nil {
		return nil, fmt.Errorf("hmem: recording audit sidecar: %w", err)
	}
	return map[string]time.Time{"last_audit": ts}, nil
}

type getAuditQueueArgs struct {
	Agent string `json:"agent"`
}

func (s *session) handleGetAuditQueue(ctx context.Context, raw json.RawMessage) (any, error) {
	if err := s.requireCurator(); err != nil {
		return nil, err
	}
	var a getAuditQueueArgs
	if err := json.Unmarshal(raw, &a); err != nil {
		return nil, fmt.Errorf("hmem: decoding get_audit_queue args: %w", err)
	}
	return s.store.AuditQueue(ctx, a.Agent)
}
