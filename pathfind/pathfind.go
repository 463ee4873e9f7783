// Package pathfind implements two shortest-path algorithms over a
// pure-capability weighted directed graph abstraction: no node or edge
// objects are materialised, so a caller like linkline can describe an
// m*n-vertex graph in O(m+n) working memory.
package pathfind

import (
	"fmt"
	"math"

	"github.com/cocosip/go-mapbuffer/mberr"
)

// Graph is the capability interface every finder operates over.
type Graph interface {
	// NumVertices returns the number of vertices, numbered [0, n).
	NumVertices() int
	// OutgoingEdges returns the number of edges leaving v.
	OutgoingEdges(v int) int
	// Neighbour returns the target vertex of the k-th edge leaving v.
	Neighbour(v, k int) int
	// EdgeWeight returns the weight of the k-th edge leaving v.
	EdgeWeight(v, k int) float64
}

// Result holds, per vertex, the tentative shortest distance from the
// start vertex and the predecessor on that path.
type Result struct {
	Distance       []float64
	PreviousInPath []int
	start          int
}

const unreachable = -1

func newResult(n, start int) *Result {
	r := &Result{
		Distance:       make([]float64, n),
		PreviousInPath: make([]int, n),
		start:          start,
	}
	for i := range r.Distance {
		r.Distance[i] = math.Inf(1)
		r.PreviousInPath[i] = unreachable
	}
	r.Distance[start] = 0
	r.PreviousInPath[start] = start
	return r
}

// Dijkstra computes shortest paths from start over g using the dense,
// priority-queue-free variant: repeatedly scan for the non-visited
// vertex of minimum tentative distance until none remains finite.
func Dijkstra(g Graph, start int) (*Result, error) {
	n := g.NumVertices()
	if start < 0 || start >= n {
		return nil, mberr.Wrap(mberr.BadInput, "pathfind.Dijkstra", fmt.Errorf("start %d out of range [0,%d)", start, n))
	}
	res := newResult(n, start)
	visited := make([]bool, n)

	for {
		u := -1
		best := math.Inf(1)
		for v := 0; v < n; v++ {
			if !visited[v] && res.Distance[v] < best {
				best = res.Distance[v]
				u = v
			}
		}
		if u == -1 {
			break
		}
		visited[u] = true
		deg := g.OutgoingEdges(u)
		for k := 0; k < deg; k++ {
			v := g.Neighbour(u, k)
			w := g.EdgeWeight(u, k)
			if nd := res.Distance[u] + w; nd < res.Distance[v] {
				res.Distance[v] = nd
				res.PreviousInPath[v] = u
			}
		}
	}
	return res, nil
}

// SortedAcyclic computes shortest paths from start over g using a single
// topological-order relaxation pass. It requires that every edge v1 -> v2
// satisfy v2 > v1; this precondition is validated up front.
func SortedAcyclic(g Graph, start int) (*Result, error) {
	n := g.NumVertices()
	if start < 0 || start >= n {
		return nil, mberr.Wrap(mberr.BadInput, "pathfind.SortedAcyclic", fmt.Errorf("start %d out of range [0,%d)", start, n))
	}
	for v := 0; v < n; v++ {
		deg := g.OutgoingEdges(v)
		for k := 0; k < deg; k++ {
			if nb := g.Neighbour(v, k); nb <= v {
				return nil, mberr.Wrap(mberr.BadInput, "pathfind.SortedAcyclic", fmt.Errorf("edge %d -> %d violates sorted-acyclic precondition", v, nb))
			}
		}
	}

	res := newResult(n, start)
	for v := start; v < n; v++ {
		if math.IsInf(res.Distance[v], 1) {
			continue
		}
		deg := g.OutgoingEdges(v)
		for k := 0; k < deg; k++ {
			nb := g.Neighbour(v, k)
			w := g.EdgeWeight(v, k)
			if nd := res.Distance[v] + w; nd < res.Distance[nb] {
				res.Distance[nb] = nd
				res.PreviousInPath[nb] = v
			}
		}
	}
	return res, nil
}

// GetPath walks the predecessor chain in res from its start vertex to
// target, returning vertices in start-to-target order. It detects cycles
// in the predecessor chain (a chain longer than n vertices can only mean
// concurrent misuse corrupted the result) and reports them as an
// Internal error.
func GetPath(res *Result, target int) ([]int, error) {
	n := len(res.Distance)
	if target < 0 || target >= n {
		return nil, mberr.Wrap(mberr.BadInput, "pathfind.GetPath", fmt.Errorf("target %d out of range [0,%d)", target, n))
	}
	if math.IsInf(res.Distance[target], 1) {
		return nil, mberr.Wrap(mberr.NotFound, "pathfind.GetPath", fmt.Errorf("vertex %d is unreachable from %d", target, res.start))
	}

	var rev []int
	v := target
	for {
		rev = append(rev, v)
		if v == res.start {
			break
		}
		if len(rev) > n {
			return nil, mberr.Wrap(mberr.Internal, "pathfind.GetPath", fmt.Errorf("predecessor chain longer than %d vertices: cycle detected", n))
		}
		v = res.PreviousInPath[v]
		if v == unreachable {
			return nil, mberr.Wrap(mberr.Internal, "pathfind.GetPath", fmt.Errorf("predecessor chain broken before reaching start %d", res.start))
		}
	}

	out := make([]int, len(rev))
	for i, v := range rev {
		out[len(rev)-1-i] = v
	}
	return out, nil
}
