package rolefilter

import (
	"strings"
	"testing"

	"github.com/untoldecay/hmem/internal/types"
)

func TestBuildBindsCallerRank(t *testing.T) {
	p := Build(types.RolePL)
	if !strings.Contains(p.SQL, "<= ?") {
		t.Fatalf("SQL = %q, want a bound comparison", p.SQL)
	}
	if len(p.Args) != 1 || p.Args[0] != 2 {
		t.Fatalf("Args = %v, want [2]", p.Args)
	}
}

func TestBuildDeniesInvalidRole(t *testing.T) {
	p := Build(types.Role("nonsense"))
	if p.SQL != "1 = 0" {
		t.Fatalf("SQL = %q, want always-false predicate", p.SQL)
	}
}

func TestAllowsMatchesRoleOrdering(t *testing.T) {
	cases := []struct {
		caller, min types.Role
		want        bool
	}{
		{types.RoleWorker, types.RoleWorker, true},
		{types.RoleWorker, types.RoleAL, false},
		{types.RoleCEO, types.RoleWorker, true},
		{types.RolePL, types.RoleCEO, false},
	}
	for _, c := range cases {
		if got := Allows(c.caller, c.min); got != c.want {
			t.Errorf("Allows(%s, %s) = %v, want %v", c.caller, c.min, got, c.want)
		}
	}
}
