// Package rolefilter builds the parameterized SQL predicate that gates
// read access by caller role (§4.7): min_role <= caller_role, expressed as
// a rank comparison rather than string matching so callers can never widen
// their own clause via crafted role names.
package rolefilter

import (
	"fmt"

	"github.com/untoldecay/hmem/internal/types"
)

// Predicate is a SQL fragment plus its bound arguments, safe to splice into
// a larger query's WHERE clause.
type Predicate struct {
	SQL  string
	Args []any
}

// rankCase maps each role to a CASE expression comparison so the
// predicate never concatenates caller-controlled strings into SQL text.
var rankCase = "CASE min_role WHEN 'worker' THEN 0 WHEN 'al' THEN 1 WHEN 'pl' THEN 2 WHEN 'ceo' THEN 3 ELSE 99 END"

// Build returns the predicate restricting rows to those whose min_role is
// at or below caller's rank. An invalid caller role denies everything.
func Build(caller types.Role) Predicate {
	if !caller.IsValid() {
		return Predicate{SQL: "1 = 0"}
	}
	return Predicate{
		SQL:  fmt.Sprintf("%s <= ?", rankCase),
		Args: []any{caller.Rank()},
	}
}

// Allows is the in-process equivalent of the predicate, used by code paths
// that already hold a decoded row and don't need to touch SQL (single-ID
// reads, obsolete-chain resolution).
func Allows(caller, minRole types.Role) bool {
	return caller.Allows(minRole)
}
