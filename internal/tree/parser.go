// Package tree converts the tab- (or space-) indented text passed to write
// and append_children into a flat list of (relative depth, content) lines,
// then into compound-ID'd nodes (§4.2).
package tree

import (
	"strings"
	"unicode"

	"github.com/untoldecay/hmem/internal/idgen"
)

// Line is one indented line of source content, with its depth relative to
// the root (depth 0 is the root's own unindented lines).
type Line struct {
	Depth   int
	Text    string
}

// Parsed is the result of splitting write/append content into a body and
// its indented tail.
type Parsed struct {
	Title  string // explicit or auto-extracted
	Level1 string
	Lines  []Line
}

// Node is one resulting compound-ID'd tree element, ready for storage.
type Node struct {
	ID       string
	ParentID string
	Depth    int // absolute depth: 2 for the first indented level
	Seq      int
	Content  string
}

// detectUnit returns the indentation unit used by the first indented line:
// one tab, two spaces, or four spaces, matched against its actual leading
// whitespace column count (§4.2 rule 1).
func detectUnit(lines []string) string {
	for _, l := range lines {
		if l == "" {
			continue
		}
		lead := leadingWhitespace(l)
		if lead == "" {
			continue
		}
		if strings.Contains(lead, "\t") {
			return "\t"
		}
		if len(lead) >= 4 && len(lead)%4 == 0 {
			return "    "
		}
		return "  "
	}
	return "\t"
}

func leadingWhitespace(s string) string {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	return s[:i]
}

// columnDepth converts a line's leading whitespace into an indentation
// depth using unit as the column width for one level. Inconsistent widths
// are treated by their leading-whitespace column count, per §4.2 rule 1.
func columnDepth(line, unit string) int {
	lead := leadingWhitespace(line)
	if lead == "" {
		return 0
	}
	if strings.Contains(unit, "\t") {
		// Tabs count 1-for-1; stray spaces count as a fraction of a tab,
		// rounded down, so mixed indentation degrades gracefully instead
		// of desynchronizing every subsequent line.
		tabs := strings.Count(lead, "\t")
		spaces := strings.Count(lead, " ")
		return tabs + spaces/4
	}
	width := len(unit)
	col := 0
	for _, r := range lead {
		if r == '\t' {
			col += width
		} else {
			col++
		}
	}
	return col / width
}

// Parse splits raw write/append content into its title/body and indented
// tail (§4.2 rules 1–2). maxTitleChars bounds auto-extracted titles.
func Parse(content string, maxTitleChars int) Parsed {
	rawLines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")

	// Find the contiguous run of non-indented lines at the top.
	var topLines []string
	i := 0
	for ; i < len(rawLines); i++ {
		l := rawLines[i]
		if strings.TrimSpace(l) == "" {
			if len(topLines) == 0 {
				continue // skip leading blank lines
			}
			break
		}
		if leadingWhitespace(l) != "" {
			break
		}
		topLines = append(topLines, l)
	}

	rest := rawLines[i:]
	unit := detectUnit(rest)

	var lines []Line
	for _, l := range rest {
		if strings.TrimSpace(l) == "" {
			continue
		}
		d := columnDepth(l, unit)
		if d < 1 {
			d = 1 // a non-indented line after the top run is still body text, not a new root
		}
		lines = append(lines, Line{Depth: d, Text: strings.TrimRight(strings.TrimLeft(l, " \t"), " \t")})
	}

	var title, level1 string
	switch len(topLines) {
	case 0:
		title, level1 = "", ""
	case 1:
		level1 = topLines[0]
		title = extractTitle(level1, maxTitleChars)
	default:
		title = topLines[0]
		level1 = strings.Join(topLines[1:], "\n")
	}

	return Parsed{Title: title, Level1: level1, Lines: lines}
}

// extractTitle implements §4.2 rule 2's auto-extraction fallback: text
// before " — " if present, else word-boundary truncation at maxTitleChars,
// else a hard cut.
func extractTitle(level1 string, maxTitleChars int) string {
	if i := strings.Index(level1, " — "); i >= 0 {
		return level1[:i]
	}
	if maxTitleChars <= 0 || len(level1) <= maxTitleChars {
		return level1
	}
	cut := level1[:maxTitleChars]
	if j := strings.LastIndexFunc(cut, unicode.IsSpace); j > 0 {
		return strings.TrimRight(cut[:j], " \t")
	}
	return cut
}

// siblingCounter tracks the next seq to allocate under each parent ID.
type siblingCounter struct {
	next map[string]int
}

func newSiblingCounter() *siblingCounter {
	return &siblingCounter{next: map[string]int{}}
}

func (c *siblingCounter) nextSeq(parent string) int {
	c.next[parent]++
	return c.next[parent]
}

// BuildNodes assigns compound IDs to a flat list of relative-depth lines
// under rootID, honoring maxDepth by flattening over-deep lines onto the
// deepest legal parent (§3, §4.2 rules 3–4). lastSeqByParent lets
// append_children resume sibling allocation under an existing parent by
// seeding each parent's last used seq; pass nil for a fresh root.
func BuildNodes(rootID string, lines []Line, maxDepth int, lastSeqByParent map[string]int) []Node {
	counter := newSiblingCounter()
	for parent, n := range lastSeqByParent {
		counter.next[parent] = n
	}

	// lastAtDepth[d] holds the ID of the most recently written node whose
	// absolute depth is d, used to attach a line to "the deepest legal
	// parent" when its indent jumps by more than one level (§4.2 rule 3).
	lastAtDepth := map[int]string{1: rootID}

	var out []Node
	for _, l := range lines {
		absDepth := l.Depth + 1 // depth 1 is the root's own level1; first indented line is depth 2
		if absDepth > maxDepth {
			absDepth = maxDepth
		}

		parent := lastAtDepth[absDepth-1]
		if parent == "" {
			// No node exists yet at absDepth-1 (a depth jump with no
			// intermediate lines): attach at the deepest depth we do have.
			for d := absDepth - 1; d >= 1; d-- {
				if lastAtDepth[d] != "" {
					parent = lastAtDepth[d]
					absDepth = d + 1
					break
				}
			}
			if parent == "" {
				parent = rootID
				absDepth = 2
			}
		}

		seq := counter.nextSeq(parent)
		id := idgen.ChildID(parent, seq)
		out = append(out, Node{ID: id, ParentID: parent, Depth: absDepth, Seq: seq, Content: l.Text})
		lastAtDepth[absDepth] = id
		// A new node at depth d invalidates any deeper "last written"
		// pointers: the next line at a yet-deeper indent must attach
		// under this node, not a now-irrelevant earlier sibling.
		for d := range lastAtDepth {
			if d > absDepth {
				delete(lastAtDepth, d)
			}
		}
	}
	return out
}
