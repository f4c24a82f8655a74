// Package hmem provides a minimal public API for extending the memory
// store with custom orchestration.
//
// Most extensions should use the MCP tool surface exposed by cmd/hmem.
// This package exports only the essential types and functions needed for
// Go-based callers that want to use the store programmatically, without
// going through the JSON-RPC adapter.
package hmem

import (
	"context"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/selector"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

// Store is the entry point for all memory operations against one
// project's database file.
type Store = store.Store

// Open opens (creating and migrating if necessary) the memory database at
// path.
func Open(ctx context.Context, path string, cfg *Config) (*Store, error) {
	return store.Open(ctx, path, cfg)
}

// Config carries the project's prefix map, role defaults, and bulk-read
// tuning knobs.
type Config = config.Config

// DefaultConfig returns hmem's built-in defaults before any project
// config file is applied.
func DefaultConfig() *Config {
	return config.Defaults()
}

// LoadConfig loads and merges a project's .hmem/config.yaml (if present)
// over DefaultConfig.
func LoadConfig(projectDir string) (*Config, error) {
	return config.Load(projectDir)
}

// Core types re-exported from internal/types.
type (
	Role           = types.Role
	Entry          = types.Entry
	Node           = types.Node
	EntryView      = types.EntryView
	ChildHint      = types.ChildHint
	LinkedEntry    = types.LinkedEntry
	HotNode        = types.HotNode
	PrefixGroup    = types.PrefixGroup
	BulkReadResult = types.BulkReadResult
	BulkReadMode   = types.BulkReadMode
	PromotedReason = types.PromotedReason
	Error          = types.Error
)

// Role constants (§6: worker < al < pl < ceo).
const (
	RoleWorker = types.RoleWorker
	RoleAL     = types.RoleAL
	RolePL     = types.RolePL
	RoleCEO    = types.RoleCEO
)

// BulkReadMode constants.
const (
	ModeDiscover   = types.ModeDiscover
	ModeEssentials = types.ModeEssentials
)

// ReadOpts, WriteOpts, UpdateNodeOpts, WriteResult, and AppendResult are
// the argument/result bundles for the store's single-entry operations
// (§4.1-4.4).
type (
	ReadOpts       = store.ReadOpts
	WriteOpts      = store.WriteOpts
	UpdateNodeOpts = store.UpdateNodeOpts
	WriteResult    = store.WriteResult
	AppendResult   = store.AppendResult
	Stats          = store.Stats
)

// SessionCache tracks per-connection bulk-read delivery state (§4.5's
// discover/essentials split and Fibonacci suppression window).
type SessionCache = sessioncache.Cache

// NewSessionCache returns a fresh, zero-generation cache.
func NewSessionCache() *SessionCache {
	return sessioncache.New()
}

// BulkReadOpts selects which prefixes and time window a bulk read covers.
type BulkReadOpts = selector.Opts

// BulkRead runs the bulk-read V2 pipeline (§4.5) against s, using cache to
// track discover/essentials mode and cross-call suppression.
func BulkRead(ctx context.Context, s *Store, caller Role, cache *SessionCache, opts BulkReadOpts) (*BulkReadResult, error) {
	return selector.BulkRead(ctx, s, caller, cache, opts)
}
