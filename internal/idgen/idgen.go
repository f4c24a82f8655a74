// Package idgen assigns and parses entry and node identifiers.
//
// Root IDs are a single uppercase prefix letter plus a zero-padded sequence
// number (E0007). Node IDs are compound: the root ID followed by one
// dot-separated sibling index per level (E0007.1.2). The dotted-suffix
// parsing here mirrors bd's IsHierarchicalID, which detects a hierarchical
// issue ID by checking whether the text after the last dot is purely
// numeric — the same shape our compound IDs have, just with an uppercase
// root instead of a hashed one.
package idgen

import (
	"fmt"
	"strconv"
	"strings"
)

const seqWidth = 4

// HeaderSeq is the reserved seq value for a prefix's synthetic group-title entry.
const HeaderSeq = 0

// RootID formats a root entry ID from its prefix letter and sequence number.
func RootID(prefix string, seq int) string {
	return fmt.Sprintf("%s%0*d", prefix, seqWidth, seq)
}

// HeaderID returns the synthetic header entry ID for prefix (§3).
func HeaderID(prefix string) string {
	return RootID(prefix, HeaderSeq)
}

// ChildID builds a compound node ID from its parent's ID and the node's
// sibling sequence number.
func ChildID(parentID string, seq int) string {
	return parentID + "." + strconv.Itoa(seq)
}

// IsCompound reports whether id names a node (has at least one dot) rather
// than a root entry.
func IsCompound(id string) bool {
	return strings.Contains(id, ".")
}

// RootOf returns the leading non-dotted component of any entry or node ID.
func RootOf(id string) string {
	if i := strings.IndexByte(id, '.'); i >= 0 {
		return id[:i]
	}
	return id
}

// Depth returns 1 for a root ID, or 1+number of dots for a compound ID, per
// the invariant depth == 1 + dots(id).
func Depth(id string) int {
	return 1 + strings.Count(id, ".")
}

// ParentOf returns the immediate parent's ID for a compound ID, and ok=false
// for a root ID (roots have no parent ID of their own; their depth-2
// children treat the root itself as parent).
func ParentOf(id string) (parent string, ok bool) {
	i := strings.LastIndexByte(id, '.')
	if i < 0 {
		return "", false
	}
	return id[:i], true
}

// LastSeq returns the final dot-separated sequence number of a compound ID.
func LastSeq(id string) (int, error) {
	_, ok := ParentOf(id)
	if !ok {
		return 0, fmt.Errorf("idgen: %q is a root ID, has no sibling sequence", id)
	}
	last := id[strings.LastIndexByte(id, '.')+1:]
	return strconv.Atoi(last)
}

// ParsePrefix splits a root ID into its letter prefix and numeric sequence.
// Returns an error if id is not shaped like <LETTER><digits>.
func ParsePrefix(id string) (prefix string, seq int, err error) {
	if IsCompound(id) {
		return "", 0, fmt.Errorf("idgen: %q is a compound node ID, not a root ID", id)
	}
	if len(id) < 2 {
		return "", 0, fmt.Errorf("idgen: %q is too short to be a root ID", id)
	}
	prefix = id[:1]
	if prefix[0] < 'A' || prefix[0] > 'Z' {
		return "", 0, fmt.Errorf("idgen: %q does not start with an uppercase prefix letter", id)
	}
	seq, err = strconv.Atoi(id[1:])
	if err != nil {
		return "", 0, fmt.Errorf("idgen: %q has a non-numeric sequence: %w", id, err)
	}
	return prefix, seq, nil
}

// Valid reports whether id is syntactically well-formed: a root ID, or a
// compound ID whose every dot-separated component after the root is a
// positive integer.
func Valid(id string) bool {
	if id == "" {
		return false
	}
	parts := strings.Split(id, ".")
	if _, _, err := ParsePrefix(parts[0]); err != nil {
		return false
	}
	for _, p := range parts[1:] {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return false
		}
	}
	return true
}
