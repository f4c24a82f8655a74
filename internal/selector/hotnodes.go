package selector

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/untoldecay/hmem/internal/obsolete"
	"github.com/untoldecay/hmem/internal/scorer"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

const hotNodeCount = 10

// computeHotNodes implements §4.5 rule 7: the top-10 most time-weighted-
// accessed sub-nodes across the whole store, each carrying a breadcrumb of
// titles from its root down to itself. A node is dropped from the list
// entirely if its root's obsolete chain terminates in an entry marked
// irrelevant — surfacing a hot path into abandoned history isn't useful.
func computeHotNodes(ctx context.Context, s *store.Store, now time.Time) ([]types.HotNode, error) {
	nodes, err := s.ListAllNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("selector: listing nodes for hot-nodes: %w", err)
	}

	sort.Slice(nodes, func(i, j int) bool {
		si := scorer.Score(nodes[i].AccessCount, nodes[i].CreatedAt, now)
		sj := scorer.Score(nodes[j].AccessCount, nodes[j].CreatedAt, now)
		if si != sj {
			return si > sj
		}
		return nodes[i].ID < nodes[j].ID
	})

	lookup := s.ObsoleteLookup(ctx)
	rootCache := map[string]*types.Entry{}
	out := make([]types.HotNode, 0, hotNodeCount)

	for _, n := range nodes {
		if len(out) >= hotNodeCount {
			break
		}

		root, ok := rootCache[n.RootID]
		if !ok {
			fetched, err := s.FetchEntry(ctx, n.RootID)
			if err != nil {
				continue // root deleted out from under a stale node row
			}
			root = fetched
			rootCache[n.RootID] = root
		}

		display := root
		if root.Obsolete {
			res, err := obsolete.Resolve(root.ID, lookup, false)
			if err != nil {
				return nil, err
			}
			final, ferr := s.FetchEntry(ctx, res.Resolved)
			if ferr == nil && final.Irrelevant {
				continue
			}
			if ferr == nil {
				display = final
			}
		}
		if root.Irrelevant {
			continue
		}

		breadcrumb, err := buildBreadcrumb(ctx, s, root, n)
		if err != nil {
			return nil, err
		}
		breadcrumb[0] = display.Title

		out = append(out, types.HotNode{
			Node:       n,
			Score:      scorer.Score(n.AccessCount, n.CreatedAt, now),
			Breadcrumb: breadcrumb,
		})
	}
	return out, nil
}

// buildBreadcrumb walks root's title down through each ancestor node on the
// path to n, using parent_id to climb rather than re-parsing n.ID's dotted
// segments (a node's ID segment count already equals its depth, but parent
// links stay authoritative if a future migration ever renumbers IDs).
func buildBreadcrumb(ctx context.Context, s *store.Store, root *types.Entry, n *types.Node) ([]string, error) {
	var chain []string
	cur := n
	for {
		chain = append([]string{cur.Title}, chain...)
		if cur.ParentID == root.ID || cur.ParentID == "" {
			break
		}
		parent, err := s.FetchNode(ctx, cur.ParentID)
		if err != nil {
			break
		}
		cur = parent
	}
	return append([]string{root.Title}, chain...), nil
}
