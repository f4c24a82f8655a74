package store

// schema is the current DDL for a fresh database (§6). Existing databases
// reach the same shape through migrations, mirroring the teacher's split
// between a baseline schema for new installs and a numbered migration list
// for upgrades.
const schema = `
CREATE TABLE IF NOT EXISTS schema_version (
    version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    prefix TEXT NOT NULL,
    seq INTEGER NOT NULL,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    title TEXT NOT NULL DEFAULT '',
    level_1 TEXT NOT NULL DEFAULT '',
    links TEXT NOT NULL DEFAULT '[]',
    min_role TEXT NOT NULL DEFAULT 'worker',
    access_count INTEGER NOT NULL DEFAULT 0 CHECK(access_count >= 0),
    last_accessed DATETIME,
    obsolete INTEGER NOT NULL DEFAULT 0,
    favorite INTEGER NOT NULL DEFAULT 0,
    pinned INTEGER NOT NULL DEFAULT 0,
    irrelevant INTEGER NOT NULL DEFAULT 0,
    active INTEGER NOT NULL DEFAULT 1,
    secret INTEGER NOT NULL DEFAULT 0,
    tags TEXT NOT NULL DEFAULT '[]',
    effective_date DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_memories_prefix_seq ON memories(prefix, seq);
CREATE INDEX IF NOT EXISTS idx_memories_prefix ON memories(prefix);
CREATE INDEX IF NOT EXISTS idx_memories_obsolete ON memories(obsolete);
CREATE INDEX IF NOT EXISTS idx_memories_active ON memories(active);

CREATE TABLE IF NOT EXISTS memory_nodes (
    id TEXT PRIMARY KEY,
    parent_id TEXT NOT NULL,
    root_id TEXT NOT NULL,
    depth INTEGER NOT NULL CHECK(depth >= 2),
    seq INTEGER NOT NULL,
    title TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    access_count INTEGER NOT NULL DEFAULT 0 CHECK(access_count >= 0),
    last_accessed DATETIME,
    links TEXT NOT NULL DEFAULT '[]',
    obsolete INTEGER NOT NULL DEFAULT 0,
    favorite INTEGER NOT NULL DEFAULT 0,
    secret INTEGER NOT NULL DEFAULT 0,
    FOREIGN KEY (root_id) REFERENCES memories(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_memory_nodes_root ON memory_nodes(root_id);
CREATE INDEX IF NOT EXISTS idx_memory_nodes_parent ON memory_nodes(parent_id);

CREATE TABLE IF NOT EXISTS audit_state (
    agent TEXT PRIMARY KEY,
    last_audit TEXT NOT NULL
);
`
