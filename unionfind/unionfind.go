// Package unionfind implements a dynamic union-find (disjoint-set) over
// 32-bit integer labels, with path compression and incremental
// base-merging. Storage grows on demand as labels are observed, indexed
// directly by label value.
//
// The set is not safe for concurrent mutation; per the single-writer
// model of the owning Map Buffer, reads are only lock-free relative to
// writes when no writer is active.
package unionfind

// Set is a disjoint-set over non-negative int32 labels.
type Set struct {
	parent []int32 // parent[x] == x means x is its own representative
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

func (s *Set) grow(upTo int32) {
	if int(upTo) < len(s.parent) {
		return
	}
	old := len(s.parent)
	next := make([]int32, upTo+1)
	copy(next, s.parent)
	for i := old; i < len(next); i++ {
		next[i] = int32(i)
	}
	s.parent = next
}

// ParentOrThis is a fast read that returns x unchanged if it lies beyond
// the set's storage (never passed to Union or FindBase), or its base
// representative otherwise, found by walking the parent chain without
// compressing it. It never mutates the set.
func (s *Set) ParentOrThis(x int32) int32 {
	if int(x) >= len(s.parent) {
		return x
	}
	p := x
	for s.parent[p] != p {
		p = s.parent[p]
	}
	return p
}

// FindBase returns the base representative of x, compressing every node
// visited along the way to point directly at the root.
func (s *Set) FindBase(x int32) int32 {
	s.grow(x)
	root := x
	for s.parent[root] != root {
		root = s.parent[root]
	}
	// Second pass: compress the whole chain onto root.
	for s.parent[x] != root {
		next := s.parent[x]
		s.parent[x] = root
		x = next
	}
	return root
}

// Union records that a and b are equivalent. The numerically smaller of
// the two bases survives as the new representative, so that
// ReindexTable stays monotone in input order.
func (s *Set) Union(a, b int32) {
	ra, rb := s.FindBase(a), s.FindBase(b)
	if ra == rb {
		return
	}
	if ra < rb {
		s.parent[rb] = ra
	} else {
		s.parent[ra] = rb
	}
}

// ReindexTable returns, for each label in [0, n), its base
// representative. Idempotent and callable repeatedly; produced in one
// pass over the current parent array.
func (s *Set) ReindexTable(n int32) []int32 {
	out := make([]int32, n)
	for i := int32(0); i < n; i++ {
		out[i] = s.FindBase(i)
	}
	return out
}

// ResolveAllBases path-compresses every currently-known label so that a
// subsequent ParentOrThis call is a single-level lookup for all of them.
// Intended to be called once before a batch of reads that promise
// "quickMode" lookups.
func (s *Set) ResolveAllBases() {
	for i := range s.parent {
		s.FindBase(int32(i))
	}
}

// Len returns the number of labels this set has ever observed (the high
// watermark of Union/FindBase arguments, plus one).
func (s *Set) Len() int {
	return len(s.parent)
}
