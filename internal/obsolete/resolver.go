// Package obsolete resolves the `[✓ID]` correction-marker chain a root or
// node's content may carry when it has been superseded (§4.3).
package obsolete

import (
	"regexp"

	"github.com/untoldecay/hmem/internal/types"
)

// markerRe matches one [✓ID] correction marker and captures the target ID.
var markerRe = regexp.MustCompile(`\[✓([A-Za-z0-9.]+)\]`)

// Markers returns every [✓ID] target referenced in content, in order of
// appearance.
func Markers(content string) []string {
	matches := markerRe.FindAllStringSubmatch(content, -1)
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, m[1])
	}
	return out
}

// Lookup resolves one ID to its content and obsolete flag. Implementations
// back it with a Store; tests can use a plain map.
type Lookup func(id string) (content string, isObsolete bool, exists bool)

// Follow returns the single correction target for r's content, the first
// marker capture that resolves to a real entry in the store. If none of
// the markers in content resolve, follow(r) = r (the chain terminates).
func Follow(id, content string, exists Lookup) string {
	for _, target := range Markers(content) {
		if _, _, ok := exists(target); ok {
			return target
		}
	}
	return id
}

// Result is the outcome of resolving an obsolete chain starting at id.
type Result struct {
	Resolved   string   // the final, non-obsolete entry (or the last entry before a cycle)
	Chain      []string // ordered traversal, including the starting ID
	CycleFound bool
}

// Resolve walks follow() from id until a non-obsolete entry is reached or a
// previously visited ID recurs. strict controls what happens on a cycle:
// false (lenient/read mode) truncates silently and records CycleFound=true;
// true returns ObsoleteCycle instead.
func Resolve(id string, lookup Lookup, strict bool) (Result, error) {
	visited := map[string]bool{}
	chain := []string{id}
	visited[id] = true

	cur := id
	for {
		content, isObsolete, ok := lookup(cur)
		if !ok || !isObsolete {
			return Result{Resolved: cur, Chain: chain}, nil
		}
		next := Follow(cur, content, lookup)
		if next == cur {
			// No marker resolved: chain terminates here even though the
			// entry is flagged obsolete (malformed data, curator bypass).
			return Result{Resolved: cur, Chain: chain}, nil
		}
		if visited[next] {
			if strict {
				return Result{}, types.ObsoleteCycle(id)
			}
			return Result{Resolved: cur, Chain: chain, CycleFound: true}, nil
		}
		visited[next] = true
		chain = append(chain, next)
		cur = next
	}
}
