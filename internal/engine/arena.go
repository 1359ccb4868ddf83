package engine

import "fmt"

// cacheLine is the alignment boundary buffer capacities are rounded up to,
// matching the scanner's widest lane so that unaligned loads at least start
// near a cache-line boundary.
const cacheLine = 64

// growthFactor is deliberately 1.5, not 2: less aggressive growth trades a
// few more reallocations for a lower steady-state memory ceiling.
const growthFactor = 1.5

// ErrOutOfMemory is returned by arena growth when honoring a request would
// exceed the parser's memory cap.
var ErrOutOfMemory = fmt.Errorf("sonicsv: allocation would exceed memory cap")

// memoryBudget is shared by every arena and field vector a single Parser
// owns, so max_memory_bytes bounds the parser's total footprint rather than
// each buffer individually.
type memoryBudget struct {
	limit   uint64 // 0 = unbounded
	current uint64
}

func (b *memoryBudget) reserve(delta int64) error {
	if b.limit == 0 {
		b.current = uint64(int64(b.current) + delta)
		return nil
	}
	next := int64(b.current) + delta
	if next < 0 {
		next = 0
	}
	if uint64(next) > b.limit {
		return ErrOutOfMemory
	}
	b.current = uint64(next)
	return nil
}

// arena is an append-only growable byte buffer with geometric growth and a
// shared memory cap, grounded on the teacher's sync.Pool-backed buffer
// helpers but generalized into a per-parser, accounted allocator: a shared
// pool cannot enforce a caller-visible memory ceiling, and the spec
// requires OutOfMemory to be returned before any allocation attempt that
// would breach it.
type arena struct {
	buf    []byte
	budget *memoryBudget
	stats  *counters
}

func newArena(initialCapacity int, budget *memoryBudget, stats *counters) (*arena, error) {
	a := &arena{budget: budget, stats: stats}
	if initialCapacity > 0 {
		if err := a.ensureCapacity(initialCapacity); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// alignUp rounds n up to the next multiple of cacheLine.
func alignUp(n int) int {
	if n <= 0 {
		return cacheLine
	}
	rem := n % cacheLine
	if rem == 0 {
		return n
	}
	return n + (cacheLine - rem)
}

// ensureCapacity grows the arena so it can hold at least `required` bytes
// total, failing with ErrOutOfMemory (and leaving the existing buffer
// intact) if growth would breach the shared memory budget.
func (a *arena) ensureCapacity(required int) error {
	if cap(a.buf) >= required {
		return nil
	}
	newCap := alignUp(required)
	if grown := int(float64(cap(a.buf)) * growthFactor); grown > newCap {
		newCap = alignUp(grown)
	}
	delta := int64(newCap - cap(a.buf))
	if err := a.budget.reserve(delta); err != nil {
		return err
	}
	grown := make([]byte, len(a.buf), newCap)
	copy(grown, a.buf)
	a.buf = grown
	if a.stats != nil {
		a.stats.recordRealloc()
		a.stats.recordMemory(a.budget.current)
	}
	return nil
}

// append copies data onto the end of the arena, growing first if needed,
// and returns the offset the data now starts at.
func (a *arena) append(data []byte) (int, error) {
	offset := len(a.buf)
	if err := a.ensureCapacity(len(a.buf) + len(data)); err != nil {
		return 0, err
	}
	a.buf = append(a.buf, data...)
	return offset, nil
}

// appendByte is the single-byte fast path used while accumulating a
// de-escaped quoted field one run at a time.
func (a *arena) appendByte(b byte) error {
	if err := a.ensureCapacity(len(a.buf) + 1); err != nil {
		return err
	}
	a.buf = append(a.buf, b)
	return nil
}

// slice returns a view into the arena's backing array; valid only until the
// arena is reset or grows again.
func (a *arena) slice(start, end int) []byte {
	return a.buf[start:end]
}

func (a *arena) len() int { return len(a.buf) }

// reset truncates the arena to empty but retains its backing array,
// matching Parser.Reset's "retain allocations" contract.
func (a *arena) reset() {
	a.buf = a.buf[:0]
}

// recopy replaces the arena's contents with data, which may safely alias
// the arena's own backing array (as it does when carrying a still-open
// field forward into the next chunk): the underlying copy uses memmove
// semantics, so a destination starting at or before the source is always
// correct regardless of overlap.
func (a *arena) recopy(data []byte) error {
	if err := a.ensureCapacity(len(data)); err != nil {
		return err
	}
	a.buf = append(a.buf[:0], data...)
	return nil
}
