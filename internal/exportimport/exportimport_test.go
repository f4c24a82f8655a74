package exportimport

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/untoldecay/hmem/internal/config"
	"github.com/untoldecay/hmem/internal/store"
	"github.com/untoldecay/hmem/internal/types"
)

func newTestStore(t *testing.T, prefixes map[string]string) *store.Store {
	t.Helper()
	cfg := config.Defaults()
	cfg.Prefixes = prefixes
	dbPath := filepath.Join(t.TempDir(), "store.db")
	s, err := store.Open(context.Background(), dbPath, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestExportMarkdownExcludesSecretRoots(t *testing.T) {
	s := newTestStore(t, map[string]string{"E": "Engineering"})
	ctx := context.Background()

	if _, err := s.Write(ctx, "E", "Public entry", types.RoleAL, store.WriteOpts{}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := s.Write(ctx, "E", "Secret entry", types.RoleAL, store.WriteOpts{Secret: true}); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	md, err := ExportMarkdown(ctx, s)
	if err != nil {
		t.Fatalf("ExportMarkdown() error = %v", err)
	}
	if !strings.Contains(md, "Public entry") {
		t.Errorf("export missing public entry:\n%s", md)
	}
	if strings.Contains(md, "Secret entry") {
		t.Errorf("export leaked secret entry:\n%s", md)
	}
}

func TestExportMarkdownMarksObsoleteAndIrrelevant(t *testing.T) {
	s := newTestStore(t, map[string]string{"E": "Engineering"})
	ctx := context.Background()

	correct, err := s.Write(ctx, "E", "Correct fix", types.RoleAL, store.WriteOpts{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	wrong, err := s.Write(ctx, "E", "Wrong fix", types.RoleAL, store.WriteOpts{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	content := "superseded — see [✓" + correct.ID + "]"
	obs := true
	if _, err := s.UpdateNode(ctx, wrong.ID, store.UpdateNodeOpts{Content: &content, Obsolete: &obs}); err != nil {
		t.Fatalf("UpdateNode() error = %v", err)
	}
	stale, err := s.Write(ctx, "E", "Stale note", types.RoleAL, store.WriteOpts{})
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	irr := true
	if _, err := s.UpdateNode(ctx, stale.ID, store.UpdateNodeOpts{Irrelevant: &irr}); err != nil {
		t.Fatalf("UpdateNode() error = %v", err)
	}

	md, err := ExportMarkdown(ctx, s)
	if err != nil {
		t.Fatalf("ExportMarkdown() error = %v", err)
	}
	if !strings.Contains(md, "(obsolete)") {
		t.Errorf("export does not mark obsolete entry:\n%s", md)
	}
	if !strings.Contains(md, "(irrelevant)") {
		t.Errorf("export does not mark irrelevant entry:\n%s", md)
	}
}

func TestImportNativeMergesOnIdenticalLevel1(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, map[string]string{"P": "Project"})
	dest := newTestStore(t, map[string]string{"P": "Project"})

	if _, err := dest.Write(ctx, "P", "Foo", types.RoleAL, store.WriteOpts{}); err != nil {
		t.Fatalf("Write(dest) error = %v", err)
	}
	srcRoot, err := src.Write(ctx, "P", "FOO", types.RoleAL, store.WriteOpts{})
	if err != nil {
		t.Fatalf("Write(src) error = %v", err)
	}
	if _, err := src.AppendChildren(ctx, srcRoot.ID, "extra child"); err != nil {
		t.Fatalf("AppendChildren() error = %v", err)
	}

	res, err := ImportNative(ctx, dest, src)
	if err != nil {
		t.Fatalf("ImportNative() error = %v", err)
	}
	if res.Merged != 1 || res.Imported != 0 {
		t.Errorf("Merged=%d Imported=%d, want Merged=1 Imported=0", res.Merged, res.Imported)
	}

	children, err := dest.FetchDirectChildren(ctx, "P0001")
	if err != nil {
		t.Fatalf("FetchDirectChildren() error = %v", err)
	}
	if len(children) != 1 || children[0].Content != "extra child" {
		t.Errorf("dest children = %v, want merged child from source", children)
	}
}

func TestImportNativeAllocatesFreshIDOnCollisionWithDifferentContent(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, map[string]string{"P": "Project"})
	dest := newTestStore(t, map[string]string{"P": "Project"})

	if _, err := dest.Write(ctx, "P", "Bar", types.RoleAL, store.WriteOpts{}); err != nil {
		t.Fatalf("Write(dest) error = %v", err)
	}
	if _, err := src.Write(ctx, "P", "Foo", types.RoleAL, store.WriteOpts{}); err != nil {
		t.Fatalf("Write(src) error = %v", err)
	}

	res, err := ImportNative(ctx, dest, src)
	if err != nil {
		t.Fatalf("ImportNative() error = %v", err)
	}
	if res.Imported != 1 || res.Merged != 0 {
		t.Errorf("Imported=%d Merged=%d, want Imported=1 Merged=0", res.Imported, res.Merged)
	}
	if len(res.Remapped) != 1 || !strings.Contains(res.Remapped[0], "P0001 → P0002") {
		t.Errorf("Remapped = %v, want a P0001 → P0002 line", res.Remapped)
	}

	entry, err := dest.FetchEntry(ctx, "P0002")
	if err != nil {
		t.Fatalf("FetchEntry(P0002) error = %v", err)
	}
	if entry.Title != "Foo" {
		t.Errorf("P0002.Title = %q, want %q", entry.Title, "Foo")
	}
}

func TestImportNativeSkipsSecretRoots(t *testing.T) {
	ctx := context.Background()
	src := newTestStore(t, map[string]string{"P": "Project"})
	dest := newTestStore(t, map[string]string{"P": "Project"})

	if _, err := src.Write(ctx, "P", "Secret plan", types.RoleAL, store.WriteOpts{Secret: true}); err != nil {
		t.Fatalf("Write(src) error = %v", err)
	}

	res, err := ImportNative(ctx, dest, src)
	if err != nil {
		t.Fatalf("ImportNative() error = %v", err)
	}
	if res.Imported != 0 || res.Merged != 0 {
		t.Errorf("Imported=%d Merged=%d, want both 0 (secret root skipped)", res.Imported, res.Merged)
	}
}
