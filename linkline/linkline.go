// Package linkline implements the minimum-cost linking algorithm over two
// sorted point sets on a line: given ascending coordinate arrays S and T,
// it finds the non-crossing pairing (i, j) minimising the total sum of
// |S[i] - T[j]|.
//
// The search is posed as shortest-path over an m*n+1 vertex DAG (vertex
// v = 1 + i + j*m represents "already linked through S[i] and T[j]") and
// solved by pathfind.SortedAcyclic in O(m*n) time, since every edge v1 ->
// v2 satisfies v2 > v1 by construction.
package linkline

import (
	"fmt"
	"math"

	"github.com/cocosip/go-mapbuffer/mberr"
	"github.com/cocosip/go-mapbuffer/pathfind"
)

// Link is a single matched pair: S[I] linked to T[J], at the given cost.
type Link struct {
	I, J int
	Cost float64
}

// lineGraph implements pathfind.Graph for the m*n+1-vertex linking DAG.
// Vertex 0 is the source; vertex v = 1 + i + j*m represents having linked
// through S[i] and T[j].
type lineGraph struct {
	s, t []float64
	m, n int
}

func (g *lineGraph) NumVertices() int { return g.m*g.n + 1 }

func (g *lineGraph) decode(v int) (i, j int) {
	v--
	return v % g.m, v / g.m
}

func (g *lineGraph) encode(i, j int) int {
	return 1 + i + j*g.m
}

// OutgoingEdges returns the degree of v: 1 for the source vertex (into
// vertex 1), otherwise up to 3 edges ("link next S", "link next T",
// "link next S to next T"), degenerate near the i==m-1/j==n-1 boundary.
func (g *lineGraph) OutgoingEdges(v int) int {
	if v == 0 {
		if g.m == 0 || g.n == 0 {
			return 0
		}
		return 1
	}
	i, j := g.decode(v)
	count := 0
	if i+1 < g.m {
		count++
	}
	if j+1 < g.n {
		count++
	}
	if i+1 < g.m && j+1 < g.n {
		count++
	}
	return count
}

func (g *lineGraph) edge(v, k int) (target int, weight float64) {
	if v == 0 {
		return g.encode(0, 0), math.Abs(g.s[0] - g.t[0])
	}
	i, j := g.decode(v)
	idx := 0
	if i+1 < g.m {
		if idx == k {
			return g.encode(i+1, j), math.Abs(g.s[i+1] - g.t[j])
		}
		idx++
	}
	if j+1 < g.n {
		if idx == k {
			return g.encode(i, j+1), math.Abs(g.s[i] - g.t[j+1])
		}
		idx++
	}
	if i+1 < g.m && j+1 < g.n {
		if idx == k {
			return g.encode(i+1, j+1), math.Abs(g.s[i+1] - g.t[j+1])
		}
	}
	panic(fmt.Sprintf("linkline: edge index %d out of range for vertex %d", k, v))
}

func (g *lineGraph) Neighbour(v, k int) int        { t, _ := g.edge(v, k); return t }
func (g *lineGraph) EdgeWeight(v, k int) float64   { _, w := g.edge(v, k); return w }

// Match computes the minimum-cost non-crossing pairing between sorted
// ascending coordinate arrays s and t. Both must be non-empty.
//
// A complete pairing need not consume both arrays: once either array is
// exhausted the remaining points of the other simply go unlinked. Match
// therefore takes the shortest path not to a single fixed vertex but to
// whichever "boundary" vertex (one array fully consumed) is cheapest to
// reach — ties broken by vertex index, matching the tie-break Dijkstra
// and SortedAcyclic agree on when run over the same graph.
func Match(s, t []float64) ([]Link, error) {
	if len(s) == 0 || len(t) == 0 {
		return nil, mberr.Wrap(mberr.BadInput, "linkline.Match", fmt.Errorf("both point sets must be non-empty, got len(s)=%d len(t)=%d", len(s), len(t)))
	}
	g := &lineGraph{s: s, t: t, m: len(s), n: len(t)}

	res, err := pathfind.SortedAcyclic(g, 0)
	if err != nil {
		return nil, mberr.Wrap(mberr.Internal, "linkline.Match", err)
	}

	target, err := cheapestBoundaryVertex(g, res)
	if err != nil {
		return nil, err
	}

	path, err := pathfind.GetPath(res, target)
	if err != nil {
		return nil, mberr.Wrap(mberr.Internal, "linkline.Match", err)
	}

	links := make([]Link, 0, len(path)-1)
	for idx := 1; idx < len(path); idx++ {
		i, j := g.decode(path[idx])
		links = append(links, Link{I: i, J: j, Cost: math.Abs(s[i] - t[j])})
	}
	return links, nil
}

// cheapestBoundaryVertex returns, among all vertices where S or T has
// been fully consumed (i == m-1 or j == n-1), the one with minimum
// tentative distance in res, ties broken by the lower vertex index.
func cheapestBoundaryVertex(g *lineGraph, res *pathfind.Result) (int, error) {
	best := -1
	bestDist := math.Inf(1)
	consider := func(v int) {
		d := res.Distance[v]
		if d < bestDist || (d == bestDist && (best == -1 || v < best)) {
			bestDist = d
			best = v
		}
	}
	for i := 0; i < g.m; i++ {
		consider(g.encode(i, g.n-1))
	}
	for j := 0; j < g.n; j++ {
		consider(g.encode(g.m-1, j))
	}
	if best == -1 || math.IsInf(bestDist, 1) {
		return 0, mberr.Wrap(mberr.Internal, "linkline.cheapestBoundaryVertex", fmt.Errorf("no reachable boundary vertex"))
	}
	return best, nil
}

// TotalCost sums the Cost field of links.
func TotalCost(links []Link) float64 {
	var total float64
	for _, l := range links {
		total += l.Cost
	}
	return total
}
