package pathfind_test

import (
	"errors"
	"testing"

	"github.com/cocosip/go-mapbuffer/mberr"
	"github.com/cocosip/go-mapbuffer/pathfind"
)

// edgeList is a trivial Graph built from a fixed adjacency list, used to
// exercise both finders against the same small DAG.
type edgeList struct {
	n     int
	edges map[int][][2]float64 // v -> list of (neighbour, weight) as float64 pairs encoded [target, weight]
}

func (g edgeList) NumVertices() int       { return g.n }
func (g edgeList) OutgoingEdges(v int) int { return len(g.edges[v]) }
func (g edgeList) Neighbour(v, k int) int  { return int(g.edges[v][k][0]) }
func (g edgeList) EdgeWeight(v, k int) float64 { return g.edges[v][k][1] }

func sampleDAG() edgeList {
	// 0 -> 1 (w=1), 0 -> 2 (w=4), 1 -> 2 (w=1), 1 -> 3 (w=5), 2 -> 3 (w=1)
	return edgeList{
		n: 4,
		edges: map[int][][2]float64{
			0: {{1, 1}, {2, 4}},
			1: {{2, 1}, {3, 5}},
			2: {{3, 1}},
		},
	}
}

func TestDijkstraAndSortedAcyclicAgree(t *testing.T) {
	g := sampleDAG()
	dRes, err := pathfind.Dijkstra(g, 0)
	if err != nil {
		t.Fatalf("Dijkstra error: %v", err)
	}
	sRes, err := pathfind.SortedAcyclic(g, 0)
	if err != nil {
		t.Fatalf("SortedAcyclic error: %v", err)
	}
	for v := 0; v < g.n; v++ {
		if dRes.Distance[v] != sRes.Distance[v] {
			t.Errorf("vertex %d: Dijkstra dist %v != SortedAcyclic dist %v", v, dRes.Distance[v], sRes.Distance[v])
		}
	}

	dPath, err := pathfind.GetPath(dRes, 3)
	if err != nil {
		t.Fatalf("GetPath (dijkstra) error: %v", err)
	}
	sPath, err := pathfind.GetPath(sRes, 3)
	if err != nil {
		t.Fatalf("GetPath (sorted) error: %v", err)
	}
	if len(dPath) != len(sPath) {
		t.Fatalf("path lengths differ: %v vs %v", dPath, sPath)
	}
	for i := range dPath {
		if dPath[i] != sPath[i] {
			t.Errorf("path mismatch at %d: %v vs %v", i, dPath, sPath)
		}
	}
	want := []int{0, 1, 2, 3}
	for i, v := range want {
		if dPath[i] != v {
			t.Errorf("path = %v, want %v", dPath, want)
		}
	}
}

func TestSortedAcyclicRejectsBackwardEdge(t *testing.T) {
	g := edgeList{
		n: 2,
		edges: map[int][][2]float64{
			1: {{0, 1}},
		},
	}
	if _, err := pathfind.SortedAcyclic(g, 0); mberr.Classify(err) != mberr.BadInput {
		t.Fatalf("expected BadInput for backward edge, got %v", err)
	}
}

func TestGetPathUnreachable(t *testing.T) {
	g := edgeList{n: 2, edges: map[int][][2]float64{}}
	res, err := pathfind.SortedAcyclic(g, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = pathfind.GetPath(res, 1)
	if !errors.Is(err, mberr.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unreachable target, got %v", err)
	}
}
