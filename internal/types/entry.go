// Package types holds the data model shared by every engine package: the
// Entry/Node records (§3), role gating, and the tagged error values (§7).
package types

import "time"

// Entry is a root memory record (§3). Header entries (seq == 0) are a
// degenerate Entry used only as a group title in bulk reads.
type Entry struct {
	ID            string
	Prefix        string
	Seq           int
	CreatedAt     time.Time
	Title         string
	Level1        string
	Links         []string
	MinRole       Role
	AccessCount   int
	LastAccessed  *time.Time
	Obsolete      bool
	Favorite      bool
	Pinned        bool
	Irrelevant    bool
	Active        bool
	Secret        bool
	Tags          []string
	EffectiveDate time.Time
}

// IsHeader reports whether e is a synthetic per-prefix group title (§3).
func (e *Entry) IsHeader() bool { return e.Seq == 0 }

// Node is a sub-tree element of a root Entry (§3).
type Node struct {
	ID           string
	ParentID     string
	RootID       string
	Depth        int
	Seq          int
	Title        string
	Content      string
	CreatedAt    time.Time
	AccessCount  int
	LastAccessed *time.Time
	Links        []string
	Obsolete     bool
	Favorite     bool
	Secret       bool
}

// PromotedReason names why an entry occupies an expansion slot (§4.5).
type PromotedReason string

const (
	PromotedNone     PromotedReason = "none"
	PromotedFavorite PromotedReason = "favorite"
	PromotedPinned   PromotedReason = "pinned"
	PromotedAccess   PromotedReason = "access"
)

// ChildHint describes the single most recent child shown for a non-expanded
// entry, plus how many older siblings are hidden (§4.5 rule 6).
type ChildHint struct {
	Latest      *Node
	HiddenCount int
}

// LinkedEntry is a resolved outbound link, flattened for display (§4.5.1).
type LinkedEntry struct {
	Entry          *Entry
	Node           *Node // set instead of Entry when the link target is a node
	ObsoleteChain  []string
	HiddenObsolete int
	HiddenIrrel    int
}

// EntryView is the tagged variant returned by reads: either a root Entry or
// a Node, carrying the behaviour shared by both (title, favorite/secret
// markers) plus root-only behaviour (promotion reason, children, links).
//
// Modelled as a tagged variant rather than an inheritance hierarchy per the
// polymorphic-entries design note: shared fields live alongside both cases,
// root-only fields are simply unset on the Node case.
type EntryView struct {
	IsNode bool

	Entry *Entry
	Node  *Node

	Expanded      bool
	Promoted      PromotedReason
	Children      []*Node // full children when Expanded
	ChildHint     *ChildHint
	Links         []LinkedEntry
	ObsoleteChain []string // set when the requested ID resolved through obsolete correction
	ObsoletePath  []*Entry // hydrated ObsoleteChain entries, set only when show_obsolete_path was requested
	CycleDetected bool
}

// Title returns the shared navigation label for either case.
func (v *EntryView) Title() string {
	if v.IsNode {
		return v.Node.Title
	}
	return v.Entry.Title
}

// IsFavorite, IsObsolete, IsSecret implement the shared marker behaviour
// described in the polymorphic-entries design note.
func (v *EntryView) IsFavorite() bool {
	if v.IsNode {
		return v.Node.Favorite
	}
	return v.Entry.Favorite
}

func (v *EntryView) IsObsolete() bool {
	if v.IsNode {
		return v.Node.Obsolete
	}
	return v.Entry.Obsolete
}

func (v *EntryView) IsSecret() bool {
	if v.IsNode {
		return v.Node.Secret
	}
	return v.Entry.Secret
}

// HotNode is one entry in the "Frequently Referenced Nodes" side-channel (§4.5 rule 7).
type HotNode struct {
	Node       *Node
	Score      float64
	Breadcrumb []string // titles from root down to the node, via the obsolete chain if the root was superseded
}

// BulkReadMode selects the slot-allocation strategy (§4.5 rule 3, §4.6).
type BulkReadMode string

const (
	ModeDiscover   BulkReadMode = "discover"
	ModeEssentials BulkReadMode = "essentials"
)

// PrefixGroup is one bucket of the bulk-read result; groups are ordered alphabetically by prefix.
type PrefixGroup struct {
	Prefix        string
	HeaderTitle   string
	Entries       []*EntryView
	ObsoleteTail  []*EntryView
	ObsoleteHidden int
}

// BulkReadResult is the full "snapshot" produced by the selector (§4.5).
type BulkReadResult struct {
	Mode     BulkReadMode
	Groups   []*PrefixGroup
	HotNodes []HotNode
}
