// Package pairlog implements the append-only object-pair equivalence log:
// equivalences recorded by the frame object stitcher are unioned into a
// disjoint-set as each pair is added, which in turn produces the "stitching map"
// used to reindex stored frames and the raw-label "partial object"
// bit-set used to decide which stitched objects are complete.
package pairlog

import (
	"github.com/cocosip/go-mapbuffer/unionfind"
	"github.com/kelindar/roaring"
)

// Pair is a single recorded equivalence between two raw labels.
type Pair struct {
	A, B int32
}

// Log is the object-pair equivalence log plus its derived disjoint-set.
// Not safe for concurrent mutation, matching the single-writer model of
// the owning Map Buffer.
type Log struct {
	pairs     []Pair
	set       *unionfind.Set
	highWater int32 // exclusive upper bound of every raw label ever Observe'd
}

// New returns an empty Log.
func New() *Log {
	return &Log{set: unionfind.New()}
}

// Observe registers that raw label raw exists, regardless of whether it
// is ever passed to AddPair. unionfind.Set only grows its storage when a
// label is unioned or looked up with FindBase, so a label that never
// takes part in an accepted pairing (an interior object, a rejected
// cross-edge link, or any object in the very first frame added to the
// buffer) would otherwise be invisible to ReindexByAnd's enumeration.
func (l *Log) Observe(raw int32) {
	if raw+1 > l.highWater {
		l.highWater = raw + 1
	}
}

// AddPair appends (a, b) to the log and unions the two labels.
func (l *Log) AddPair(a, b int32) {
	l.pairs = append(l.pairs, Pair{A: a, B: b})
	l.set.Union(a, b)
	l.Observe(a)
	l.Observe(b)
}

// Pairs returns the raw append-only log, in insertion order. Callers
// must not mutate the returned slice.
func (l *Log) Pairs() []Pair {
	return l.pairs
}

// Reindex returns the current base of x via the fast ParentOrThis path.
func (l *Log) Reindex(x int32) int32 {
	return l.set.ParentOrThis(x)
}

// ReindexTable returns the full stitching map for labels [0, n): a table
// that maps each raw label to its current base.
func (l *Log) ReindexTable(n int32) []int32 {
	return l.set.ReindexTable(n)
}

// ResolveAllBases path-compresses every known label, so that subsequent
// Reindex calls are single-level lookups (the "quickMode" precondition
// used by the frame object stitcher's label-line extraction).
func (l *Log) ResolveAllBases() {
	l.set.ResolveAllBases()
}

// ReindexByAnd produces the "completed objects" mask: given a bit-set
// over raw labels (rawPartialObjects, bit set iff that raw label is
// still partial), it returns a new bit-set indexed by base label where
// the bit is set iff every raw label that maps to that base had its bit
// set. An object is therefore flagged complete only when
// ReindexByAnd(rawPartialObjects) leaves its base bit clear — all of its
// constituent raw pieces were marked non-partial. Using OR here instead
// would incorrectly mark a complete object as partial as soon as any
// unrelated object touched a frame edge.
func (l *Log) ReindexByAnd(bits *roaring.Bitmap) *roaring.Bitmap {
	n := l.highWater
	groupTotal := make(map[int32]int32)
	groupSet := make(map[int32]int32)
	for raw := int32(0); raw < n; raw++ {
		base := l.set.FindBase(raw)
		groupTotal[base]++
		if bits != nil && bits.Contains(uint32(raw)) {
			groupSet[base]++
		}
	}
	out := roaring.New()
	for base, total := range groupTotal {
		if groupSet[base] == total {
			out.Set(uint32(base))
		}
	}
	return out
}
