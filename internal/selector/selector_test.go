package selector

import (
	"context"
	"testing"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/sessioncache"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

func setupSelectorStore(t *testing.T) *store.Store {
	t.Helper()
	cfg := config.Defaults()
	cfg.Prefixes = map[string]string{"E": "Engineering"}
	cfg.BulkReadV2 = config.BulkReadV2{TopNewestCount: 3, TopAccessCount: 3, TopObsoleteCount: 2}

	dbPath := t.TempDir() + "/selector_test.db"
	s, err := store.Open(context.Background(), dbPath, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestBulkReadFirstCallIsDiscoverMode(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()
	if _, err := s.Write(ctx, "E", "First entry", types.RoleAL, store.WriteOpts{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cache := sessioncache.New()
	result, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() error = %v", err)
	}
	if result.Mode != types.ModeDiscover {
		t.Errorf("Mode = %q, want discover", result.Mode)
	}
	if cache.Generation() != 1 {
		t.Errorf("Generation() = %d, want 1 after first read", cache.Generation())
	}
}

func TestBulkReadSecondCallIsEssentialsMode(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()
	if _, err := s.Write(ctx, "E", "First entry", types.RoleAL, store.WriteOpts{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cache := sessioncache.New()
	if _, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{}); err != nil {
		t.Fatalf("BulkRead() #1 error = %v", err)
	}
	result, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() #2 error = %v", err)
	}
	if result.Mode != types.ModeEssentials {
		t.Errorf("Mode = %q, want essentials", result.Mode)
	}
}

func TestBulkReadFavoriteAlwaysOccupiesASlot(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()

	fav, err := s.Write(ctx, "E", "Favorite entry", types.RoleAL, store.WriteOpts{Favorite: true})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	for i := 0; i < 5; i++ {
		if _, err := s.Write(ctx, "E", "Filler", types.RoleAL, store.WriteOpts{}); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}

	cache := sessioncache.New()
	result, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() error = %v", err)
	}
	found := false
	for _, g := range result.Groups {
		for _, v := range g.Entries {
			if v.Entry != nil && v.Entry.ID == fav.ID && v.Promoted == types.PromotedFavorite {
				found = true
			}
		}
	}
	if !found {
		t.Errorf("favorite entry %s not found with PromotedFavorite marker", fav.ID)
	}
}

func TestBulkReadSuppressesRecentlyDeliveredNewest(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 6; i++ {
		r, err := s.Write(ctx, "E", "Entry", types.RoleAL, store.WriteOpts{})
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		ids = append(ids, r.ID)
	}

	cache := sessioncache.New()
	first, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() #1 error = %v", err)
	}
	firstIDs := map[string]bool{}
	for _, g := range first.Groups {
		for _, v := range g.Entries {
			if v.Expanded && v.Promoted == types.PromotedNone {
				firstIDs[v.Entry.ID] = true
			}
		}
	}

	second, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() #2 error = %v", err)
	}
	for _, g := range second.Groups {
		for _, v := range g.Entries {
			if v.Expanded && v.Promoted == types.PromotedNone && firstIDs[v.Entry.ID] {
				t.Errorf("second read re-expanded %s, delivered unpromoted by the first read", v.Entry.ID)
			}
		}
	}
}

func TestBulkReadObsoleteTailTruncatesToConfiguredCount(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()

	corrections := make([]string, 0, 4)
	for i := 0; i < 4; i++ {
		r, err := s.Write(ctx, "E", "Correction target", types.RoleAL, store.WriteOpts{})
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		corrections = append(corrections, r.ID)
	}
	for _, target := range corrections {
		wrong, err := s.Write(ctx, "E", "Superseded entry", types.RoleAL, store.WriteOpts{})
		if err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		content := "superseded — see [✓" + target + "]"
		obs := true
		if _, err := s.UpdateNode(ctx, wrong.ID, store.UpdateNodeOpts{Content: &content, Obsolete: &obs}); err != nil {
			t.Fatalf("UpdateNode() error = %v", err)
		}
	}

	cache := sessioncache.New()
	result, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() error = %v", err)
	}
	for _, g := range result.Groups {
		if g.Prefix != "E" {
			continue
		}
		if len(g.ObsoleteTail) > 2 {
			t.Errorf("ObsoleteTail len = %d, want <= 2 (topObsoleteCount)", len(g.ObsoleteTail))
		}
		if g.ObsoleteHidden != 2 {
			t.Errorf("ObsoleteHidden = %d, want 2", g.ObsoleteHidden)
		}
	}
}

func TestBulkReadPinnedEntryExpandsAllDescendantsAtDepthTwo(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()

	r, err := s.Write(ctx, "E", "Pinned root\n\tfirst child\n\t\tgrandchild a\n\tsecond child\n\t\tgrandchild b", types.RoleAL, store.WriteOpts{Pinned: true})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	cache := sessioncache.New()
	result, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() error = %v", err)
	}
	var view *types.EntryView
	for _, g := range result.Groups {
		for _, v := range g.Entries {
			if v.Entry != nil && v.Entry.ID == r.ID {
				view = v
			}
		}
	}
	if view == nil {
		t.Fatalf("pinned entry %s not found in result", r.ID)
	}
	if len(view.Children) != 2 {
		t.Errorf("pinned Children (depth 2) len = %d, want 2 (the two direct children)", len(view.Children))
	}
}

func TestBulkReadHotNodesRankedByScore(t *testing.T) {
	s := setupSelectorStore(t)
	ctx := context.Background()

	r, err := s.Write(ctx, "E", "Root\n\tcold child\n\thot child", types.RoleAL, store.WriteOpts{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	hotID := r.ID + ".2"
	if _, err := s.Bump(ctx, hotID, 20); err != nil {
		t.Fatalf("Bump() error = %v", err)
	}

	cache := sessioncache.New()
	result, err := BulkRead(ctx, s, types.RoleCEO, cache, Opts{})
	if err != nil {
		t.Fatalf("BulkRead() error = %v", err)
	}
	if len(result.HotNodes) == 0 {
		t.Fatalf("HotNodes is empty, want at least the bumped child")
	}
	if result.HotNodes[0].Node.ID != hotID {
		t.Errorf("HotNodes[0].Node.ID = %q, want %q (highest score first)", result.HotNodes[0].Node.ID, hotID)
	}
	if len(result.HotNodes[0].Breadcrumb) != 2 {
		t.Errorf("Breadcrumb len = %d, want 2 (root title, node title)", len(result.HotNodes[0].Breadcrumb))
	}
}
