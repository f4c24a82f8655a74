// Package sessioncache implements the per-connection "don't show me the
// same thing twice in a row" suppression window for bulk reads (§4.6). It
// holds no cross-connection state: the adapter must construct one Cache
// per MCP connection and dispose of it when the connection closes.
package sessioncache

// fibWeights is the suppression strength schedule: an ID delivered in
// generation g carries weight fibWeights[age-1] in generation g+age, for
// age in [1,5]. Weight 0 means fully aged out — no longer suppressed.
var fibWeights = [5]int{5, 3, 2, 1, 0}

// generation is the bookkeeping for one completed read().
type generation struct {
	delivered map[string]bool // all IDs shown, including promoted
	promoted  map[string]bool // favorite/pinned/access promoted subset, never suppressed
}

// Cache tracks delivered IDs across successive bulk reads on one connection.
type Cache struct {
	gens []generation // gens[len-1] is the most recent completed generation
}

// New returns an empty session cache at generation 0.
func New() *Cache {
	return &Cache{}
}

// Generation returns the current generation counter: the number of reads
// recorded so far.
func (c *Cache) Generation() int {
	return len(c.gens)
}

// Reset implements reset_memory_cache: clears history, generation counter
// back to zero.
func (c *Cache) Reset() {
	c.gens = nil
}

// Suppressed reports whether id currently carries nonzero suppression
// weight, considering every past generation's age relative to the
// generation about to be produced (Generation()+1). Promoted IDs are
// never suppressed, regardless of how recently they were delivered.
func (c *Cache) Suppressed(id string) bool {
	next := c.Generation() + 1
	for g := len(c.gens) - 1; g >= 0; g-- {
		gen := c.gens[g]
		if !gen.delivered[id] {
			continue
		}
		if gen.promoted[id] {
			return false
		}
		age := next - (g + 1)
		if age < 1 || age > len(fibWeights) {
			continue
		}
		if fibWeights[age-1] > 0 {
			return true
		}
	}
	return false
}

// RecordGeneration appends a completed read's delivered/promoted ID sets
// as the newest generation. Call once per read(), after slot allocation
// has settled which IDs were actually shown.
func (c *Cache) RecordGeneration(delivered, promoted []string) {
	gen := generation{delivered: map[string]bool{}, promoted: map[string]bool{}}
	for _, id := range delivered {
		gen.delivered[id] = true
	}
	for _, id := range promoted {
		gen.promoted[id] = true
	}
	c.gens = append(c.gens, gen)
}

// newestBase and accessBase are the generation-0 slot sizes; later
// generations decay toward a floor of 1 so a long-lived connection can
// still surface new material without the window collapsing to zero.
const (
	newestBase = 5
	accessBase = 5
	slotFloor  = 1
)

// NewestSlotBudget returns how many previously-unseen entries the newest
// slot of generation g may admit.
func NewestSlotBudget(g int) int {
	return decay(newestBase, g)
}

// AccessSlotBudget returns how many previously-unseen entries the access
// slot of generation g may admit.
func AccessSlotBudget(g int) int {
	return decay(accessBase, g)
}

func decay(base, g int) int {
	v := base - g
	if v < slotFloor {
		return slotFloor
	}
	return v
}
