package tree

import "testing"

func TestParseSingleTopLineExtractsTitle(t *testing.T) {
	p := Parse("Deploy runbook — covers staging and prod rollout", 80)
	if p.Title != "Deploy runbook" {
		t.Errorf("Title = %q, want %q", p.Title, "Deploy runbook")
	}
	if p.Level1 != "Deploy runbook — covers staging and prod rollout" {
		t.Errorf("Level1 = %q", p.Level1)
	}
}

func TestParseTwoTopLinesSplitsExplicitTitle(t *testing.T) {
	p := Parse("Deploy runbook\nRun the staging checklist before prod.", 80)
	if p.Title != "Deploy runbook" {
		t.Errorf("Title = %q, want explicit first line", p.Title)
	}
	if p.Level1 != "Run the staging checklist before prod." {
		t.Errorf("Level1 = %q", p.Level1)
	}
}

func TestParseTitleTruncatesAtWordBoundary(t *testing.T) {
	long := "This is a very long line of content with no em dash separator at all to split on"
	p := Parse(long, 20)
	if len(p.Title) > 20 {
		t.Fatalf("Title longer than maxTitleChars: %q", p.Title)
	}
	if p.Title != "This is a very long" {
		t.Errorf("Title = %q", p.Title)
	}
}

func TestParseTabIndentedChildren(t *testing.T) {
	content := "Root title\n\tfirst child\n\tsecond child\n\t\tgrandchild"
	p := Parse(content, 80)
	if len(p.Lines) != 3 {
		t.Fatalf("got %d lines, want 3: %+v", len(p.Lines), p.Lines)
	}
	if p.Lines[0].Depth != 1 || p.Lines[1].Depth != 1 || p.Lines[2].Depth != 2 {
		t.Errorf("depths = %d,%d,%d", p.Lines[0].Depth, p.Lines[1].Depth, p.Lines[2].Depth)
	}
}

func TestParseTwoSpaceIndentedChildren(t *testing.T) {
	content := "Root title\n  first child\n    grandchild"
	p := Parse(content, 80)
	if len(p.Lines) != 2 {
		t.Fatalf("got %d lines, want 2: %+v", len(p.Lines), p.Lines)
	}
	if p.Lines[0].Depth != 1 || p.Lines[1].Depth != 2 {
		t.Errorf("depths = %d,%d", p.Lines[0].Depth, p.Lines[1].Depth)
	}
}

func TestBuildNodesAssignsCompoundIDs(t *testing.T) {
	lines := []Line{
		{Depth: 1, Text: "first"},
		{Depth: 1, Text: "second"},
		{Depth: 2, Text: "grandchild of second"},
	}
	nodes := BuildNodes("E0007", lines, 6, nil)
	if len(nodes) != 3 {
		t.Fatalf("got %d nodes, want 3", len(nodes))
	}
	if nodes[0].ID != "E0007.1" || nodes[1].ID != "E0007.2" {
		t.Errorf("ids = %q, %q", nodes[0].ID, nodes[1].ID)
	}
	if nodes[2].ID != "E0007.2.1" || nodes[2].ParentID != "E0007.2" {
		t.Errorf("grandchild = %+v", nodes[2])
	}
}

func TestBuildNodesFlattensBeyondMaxDepth(t *testing.T) {
	lines := []Line{
		{Depth: 1, Text: "a"},
		{Depth: 2, Text: "b"},
		{Depth: 3, Text: "c"},
		{Depth: 4, Text: "d too deep for maxDepth 3"},
	}
	nodes := BuildNodes("E0007", lines, 3, nil)
	if len(nodes) != 4 {
		t.Fatalf("got %d nodes, want 4", len(nodes))
	}
	for _, n := range nodes {
		if n.Depth > 3 {
			t.Errorf("node %q has depth %d, exceeds maxDepth 3", n.ID, n.Depth)
		}
	}
	// "d" flattens to a sibling of "c" at depth 3 rather than nesting deeper.
	if nodes[3].Depth != 3 || nodes[3].ParentID != nodes[2].ParentID {
		t.Errorf("flattened node = %+v, sibling of %+v", nodes[3], nodes[2])
	}
}

func TestBuildNodesAttachesIndentJumpAtDeepestLegalParent(t *testing.T) {
	lines := []Line{
		{Depth: 1, Text: "a"},
		{Depth: 3, Text: "jumps two levels with no depth-2 sibling"},
	}
	nodes := BuildNodes("E0007", lines, 6, nil)
	if len(nodes) != 2 {
		t.Fatalf("got %d nodes, want 2", len(nodes))
	}
	if nodes[1].ParentID != nodes[0].ID {
		t.Errorf("jump child parent = %q, want %q", nodes[1].ParentID, nodes[0].ID)
	}
	if nodes[1].Depth != nodes[0].Depth+1 {
		t.Errorf("jump child depth = %d, want %d", nodes[1].Depth, nodes[0].Depth+1)
	}
}

func TestBuildNodesResumesFromExistingSiblings(t *testing.T) {
	lines := []Line{{Depth: 1, Text: "third child"}}
	nodes := BuildNodes("E0007", lines, 6, map[string]int{"E0007": 2})
	if nodes[0].ID != "E0007.3" {
		t.Errorf("ID = %q, want E0007.3", nodes[0].ID)
	}
}
