// Package transposition implements an optional transposition table for
// the memory-enhanced NegaScout search. Entries record the depth a
// position was searched to and whether the stored score is exact or a
// bound.
package transposition

import (
	"math"
	"sync"
	"sync/atomic"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog/log"
)

// Bound classifies a stored score relative to the window it was searched
// with.
type Bound uint8

const (
	// Invalid marks an empty slot.
	Invalid Bound = iota
	// Exact means the score fell strictly inside the window.
	Exact
	// Lower means the search failed high; the true score is at least this.
	Lower
	// Upper means the search failed low; the true score is at most this.
	Upper
)

func (b Bound) String() string {
	switch b {
	case Exact:
		return "exact"
	case Lower:
		return "lower"
	case Upper:
		return "upper"
	}
	return "invalid"
}

// Classify determines the bound class of a fail-soft search result.
func Classify(value, alphaOrig, beta float64) Bound {
	if value <= alphaOrig {
		return Upper
	} else if value >= beta {
		return Lower
	}
	return Exact
}

const (
	entrySize = 24
	// MinSizePowerOf2 keeps tables usable even with a tiny memory fraction.
	MinSizePowerOf2 = 10
	// MaxSizePowerOf2 caps tables at 2^28 entries.
	MaxSizePowerOf2 = 28
)

// Entry is one slot of the table. The full key is stored, so a hit is only
// wrong if two positions share the same 64-bit key.
type Entry struct {
	key   uint64
	score float64
	depth uint8
	bound Bound
}

func (e Entry) Score() float64 {
	return e.score
}

func (e Entry) Depth() int {
	return int(e.depth)
}

func (e Entry) Bound() Bound {
	return e.bound
}

func (e Entry) Valid() bool {
	return e.bound != Invalid
}

type TableLock interface {
	Lock()
	Unlock()
	RLock()
	RUnlock()
}

type FakeLock struct{}

func (f FakeLock) Lock()    {}
func (f FakeLock) Unlock()  {}
func (f FakeLock) RLock()   {}
func (f FakeLock) RUnlock() {}

// Table is a fixed-size, always-replace transposition table.
type Table struct {
	TableLock
	table        []Entry
	created      atomic.Uint64
	lookups      atomic.Uint64
	hits         atomic.Uint64
	sizePowerOf2 int
	sizeMask     uint64
	// collisions counts lookups that landed on a slot held by a different
	// position.
	collisions atomic.Uint64
}

// NewTable returns a single-threaded table with 2^powerOf2 entries.
func NewTable(powerOf2 int) *Table {
	t := &Table{}
	t.SetSingleThreadedMode()
	t.ResetSize(powerOf2)
	return t
}

func (t *Table) SetSingleThreadedMode() {
	t.TableLock = &FakeLock{}
}

// SetMultiThreadedMode guards the table with a real lock, for callers that
// share one table among several concurrent searches.
func (t *Table) SetMultiThreadedMode() {
	t.TableLock = new(sync.RWMutex)
}

// Lookup returns the entry stored for key, if there is one.
func (t *Table) Lookup(key uint64) (Entry, bool) {
	t.RLock()
	defer t.RUnlock()
	t.lookups.Add(1)
	idx := key & t.sizeMask
	e := t.table[idx]
	if !e.Valid() {
		return Entry{}, false
	}
	if e.key != key {
		t.collisions.Add(1)
		return Entry{}, false
	}
	t.hits.Add(1)
	return e, true
}

// Store overwrites the slot for key.
func (t *Table) Store(key uint64, depth int, bound Bound, score float64) {
	if depth < 0 {
		depth = 0
	} else if depth > math.MaxUint8 {
		depth = math.MaxUint8
	}
	idx := key & t.sizeMask
	t.Lock()
	defer t.Unlock()
	t.table[idx] = Entry{key: key, score: score, depth: uint8(depth), bound: bound}
	t.created.Add(1)
}

// Reset sizes the table to the largest power of two that fits in the given
// fraction of system memory, and clears it.
func (t *Table) Reset(fractionOfMemory float64) {
	totalMem := memory.TotalMemory()
	desiredNElems := fractionOfMemory * (float64(totalMem) / float64(entrySize))
	powerOf2 := MinSizePowerOf2
	if desiredNElems > 1 {
		powerOf2 = int(math.Log2(desiredNElems))
	}
	t.ResetSize(powerOf2)
	log.Info().
		Float64("desired-num-elems", desiredNElems).
		Uint64("total-system-memory-bytes", totalMem).
		Msg("transposition-table-size")
}

// ResetSize clears the table and sizes it to 2^powerOf2 entries, clamped
// to [MinSizePowerOf2, MaxSizePowerOf2].
func (t *Table) ResetSize(powerOf2 int) {
	if t.TableLock == nil {
		t.SetSingleThreadedMode()
	}
	t.Lock()
	defer t.Unlock()
	if powerOf2 < MinSizePowerOf2 {
		powerOf2 = MinSizePowerOf2
	} else if powerOf2 > MaxSizePowerOf2 {
		powerOf2 = MaxSizePowerOf2
	}
	t.sizePowerOf2 = powerOf2
	numElems := 1 << powerOf2
	t.sizeMask = uint64(numElems - 1)
	reset := false
	if t.table != nil && len(t.table) == numElems {
		reset = true
		clear(t.table)
	} else {
		t.table = make([]Entry, numElems)
	}
	log.Debug().Int("num-elems", numElems).
		Int("estimated-total-memory-bytes", numElems*entrySize).
		Bool("reset", reset).
		Msg("transposition-table-reset")

	t.created.Store(0)
	t.lookups.Store(0)
	t.hits.Store(0)
	t.collisions.Store(0)
}

func (t *Table) Size() int {
	return len(t.table)
}

// Stats are the table's counters since the last reset.
type Stats struct {
	Created    uint64
	Lookups    uint64
	Hits       uint64
	Collisions uint64
}

func (t *Table) Stats() Stats {
	return Stats{
		Created:    t.created.Load(),
		Lookups:    t.lookups.Load(),
		Hits:       t.hits.Load(),
		Collisions: t.collisions.Load(),
	}
}
