package idgen

import "testing"

func TestRootIDAndHeaderID(t *testing.T) {
	if got := RootID("E", 7); got != "E0007" {
		t.Errorf("RootID() = %q, want E0007", got)
	}
	if got := HeaderID("L"); got != "L0000" {
		t.Errorf("HeaderID() = %q, want L0000", got)
	}
}

func TestChildIDAndParentOf(t *testing.T) {
	root := "E0007"
	c1 := ChildID(root, 1)
	if c1 != "E0007.1" {
		t.Fatalf("ChildID() = %q, want E0007.1", c1)
	}
	c2 := ChildID(c1, 2)
	if c2 != "E0007.1.2" {
		t.Fatalf("ChildID() = %q, want E0007.1.2", c2)
	}

	parent, ok := ParentOf(c2)
	if !ok || parent != c1 {
		t.Fatalf("ParentOf(%q) = (%q, %v), want (%q, true)", c2, parent, ok, c1)
	}

	if _, ok := ParentOf(root); ok {
		t.Fatalf("ParentOf(root) should report ok=false")
	}
}

func TestDepthAndRootOf(t *testing.T) {
	tests := []struct {
		id        string
		wantDepth int
		wantRoot  string
	}{
		{"E0007", 1, "E0007"},
		{"E0007.1", 2, "E0007"},
		{"E0007.1.2", 3, "E0007"},
	}
	for _, tt := range tests {
		if d := Depth(tt.id); d != tt.wantDepth {
			t.Errorf("Depth(%q) = %d, want %d", tt.id, d, tt.wantDepth)
		}
		if r := RootOf(tt.id); r != tt.wantRoot {
			t.Errorf("RootOf(%q) = %q, want %q", tt.id, r, tt.wantRoot)
		}
	}
}

func TestLastSeq(t *testing.T) {
	seq, err := LastSeq("E0007.1.2")
	if err != nil || seq != 2 {
		t.Fatalf("LastSeq() = (%d, %v), want (2, nil)", seq, err)
	}
	if _, err := LastSeq("E0007"); err == nil {
		t.Fatalf("LastSeq(root) should error")
	}
}

func TestParsePrefix(t *testing.T) {
	prefix, seq, err := ParsePrefix("E0007")
	if err != nil || prefix != "E" || seq != 7 {
		t.Fatalf("ParsePrefix() = (%q, %d, %v), want (E, 7, nil)", prefix, seq, err)
	}
	if _, _, err := ParsePrefix("E0007.1"); err == nil {
		t.Fatalf("ParsePrefix(compound) should error")
	}
	if _, _, err := ParsePrefix("e0007"); err == nil {
		t.Fatalf("ParsePrefix(lowercase) should error")
	}
}

func TestValid(t *testing.T) {
	valid := []string{"E0007", "E0007.1", "E0007.1.2", "L0000"}
	for _, id := range valid {
		if !Valid(id) {
			t.Errorf("Valid(%q) = false, want true", id)
		}
	}
	invalid := []string{"", "e0007", "E", "E0007.", "E0007.0x", "E0007..1", "E0007.-1"}
	for _, id := range invalid {
		if Valid(id) {
			t.Errorf("Valid(%q) = true, want false", id)
		}
	}
}
