package obsolete

import "testing"

func mapLookup(data map[string]struct {
	content    string
	isObsolete bool
}) Lookup {
	return func(id string) (string, bool, bool) {
		e, ok := data[id]
		if !ok {
			return "", false, false
		}
		return e.content, e.isObsolete, true
	}
}

func TestMarkersExtractsAllTargets(t *testing.T) {
	got := Markers("superseded — see [✓E0002], also [✓E0003]")
	if len(got) != 2 || got[0] != "E0002" || got[1] != "E0003" {
		t.Fatalf("Markers() = %v", got)
	}
}

func TestResolveFollowsSingleHop(t *testing.T) {
	data := map[string]struct {
		content    string
		isObsolete bool
	}{
		"E0001": {"superseded — see [✓E0002]", true},
		"E0002": {"Correct fix", false},
	}
	res, err := Resolve("E0001", mapLookup(data), false)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if res.Resolved != "E0002" {
		t.Errorf("Resolved = %q, want E0002", res.Resolved)
	}
	want := []string{"E0001", "E0002"}
	if len(res.Chain) != len(want) || res.Chain[0] != want[0] || res.Chain[1] != want[1] {
		t.Errorf("Chain = %v, want %v", res.Chain, want)
	}
	if res.CycleFound {
		t.Errorf("CycleFound = true, want false")
	}
}

func TestResolveNonObsoleteIsIdentity(t *testing.T) {
	data := map[string]struct {
		content    string
		isObsolete bool
	}{
		"E0001": {"Plain entry", false},
	}
	res, err := Resolve("E0001", mapLookup(data), false)
	if err != nil || res.Resolved != "E0001" || len(res.Chain) != 1 {
		t.Fatalf("Resolve() = %+v, %v", res, err)
	}
}

func TestResolveLenientCycleTruncates(t *testing.T) {
	data := map[string]struct {
		content    string
		isObsolete bool
	}{
		"E0001": {"see [✓E0002]", true},
		"E0002": {"see [✓E0001]", true},
	}
	res, err := Resolve("E0001", mapLookup(data), false)
	if err != nil {
		t.Fatalf("Resolve() error = %v, want nil in lenient mode", err)
	}
	if !res.CycleFound {
		t.Errorf("CycleFound = false, want true")
	}
}

func TestResolveStrictCycleErrors(t *testing.T) {
	data := map[string]struct {
		content    string
		isObsolete bool
	}{
		"E0001": {"see [✓E0002]", true},
		"E0002": {"see [✓E0001]", true},
	}
	_, err := Resolve("E0001", mapLookup(data), true)
	if err == nil {
		t.Fatalf("Resolve() error = nil, want ObsoleteCycle")
	}
}

func TestResolveTerminatesOnUnresolvedMarker(t *testing.T) {
	data := map[string]struct {
		content    string
		isObsolete bool
	}{
		"E0001": {"obsolete but [✓E9999] does not exist", true},
	}
	res, err := Resolve("E0001", mapLookup(data), false)
	if err != nil || res.Resolved != "E0001" {
		t.Fatalf("Resolve() = %+v, %v, want terminate at E0001", res, err)
	}
}
