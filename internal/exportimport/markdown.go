// Package exportimport implements C8: a deterministic Markdown rendering
// of a store, a byte-identical native-file export with secret rows
// stripped, and import with merge-or-remap ID collision handling.
package exportimport

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

// ExportMarkdown renders every non-secret root (and its non-secret
// descendants) grouped by prefix, in prefix-alphabetical then seq order.
// Obsolete and irrelevant entries are included but clearly marked rather
// than hidden, matching §4.8's "included but clearly marked" rule.
func ExportMarkdown(ctx context.Context, s *store.Store) (string, error) {
	roots, err := s.AllRoots(ctx)
	if err != nil {
		return "", fmt.Errorf("exportimport: loading roots: %w", err)
	}

	byPrefix := map[string][]*types.Entry{}
	for _, e := range roots {
		if e.Secret {
			continue
		}
		byPrefix[e.Prefix] = append(byPrefix[e.Prefix], e)
	}

	prefixes := make([]string, 0, len(byPrefix))
	for p := range byPrefix {
		prefixes = append(prefixes, p)
	}
	sort.Strings(prefixes)

	var b strings.Builder
	for _, prefix := range prefixes {
		entries := byPrefix[prefix]
		sort.Slice(entries, func(i, j int) bool { return entries[i].Seq < entries[j].Seq })

		fmt.Fprintf(&b, "# %s — %s\n\n", prefix, s.HeaderTitle(ctx, prefix))
		for _, e := range entries {
			if err := writeEntryMarkdown(ctx, &b, s, e); err != nil {
				return "", err
			}
		}
	}
	return b.String(), nil
}

// RenderEntryMarkdown renders a single root entry and its descendants,
// for hmem show — the same per-entry rendering ExportMarkdown uses for
// the whole store.
func RenderEntryMarkdown(ctx context.Context, s *store.Store, e *types.Entry) (string, error) {
	var b strings.Builder
	if err := writeEntryMarkdown(ctx, &b, s, e); err != nil {
		return "", err
	}
	return b.String(), nil
}

func writeEntryMarkdown(ctx context.Context, b *strings.Builder, s *store.Store, e *types.Entry) error {
	fmt.Fprintf(b, "## %s: %s%s\n\n", e.ID, e.Title, markerSuffix(e.Obsolete, e.Irrelevant))
	if e.Level1 != "" {
		fmt.Fprintf(b, "%s\n\n", e.Level1)
	}

	children, err := s.FetchDirectChildren(ctx, e.ID)
	if err != nil {
		return fmt.Errorf("exportimport: loading children of %s: %w", e.ID, err)
	}
	for _, n := range children {
		if err := writeNodeMarkdown(ctx, b, s, n, 0); err != nil {
			return err
		}
	}
	return nil
}

func writeNodeMarkdown(ctx context.Context, b *strings.Builder, s *store.Store, n *types.Node, indent int) error {
	if n.Secret {
		return nil
	}
	fmt.Fprintf(b, "%s- **%s**%s: %s\n", strings.Repeat("  ", indent), n.ID, markerSuffix(n.Obsolete, false), n.Content)

	children, err := s.FetchDirectChildren(ctx, n.ID)
	if err != nil {
		return fmt.Errorf("exportimport: loading children of %s: %w", n.ID, err)
	}
	for _, c := range children {
		if err := writeNodeMarkdown(ctx, b, s, c, indent+1); err != nil {
			return err
		}
	}
	return nil
}

func markerSuffix(obsolete, irrelevant bool) string {
	switch {
	case obsolete && irrelevant:
		return " _(obsolete, irrelevant)_"
	case obsolete:
		return " _(obsolete)_"
	case irrelevant:
		return " _(irrelevant)_"
	default:
		return ""
	}
}
