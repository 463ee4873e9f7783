package linkline_test

import (
	"math"
	"testing"

	"github.com/cocosip/go-mapbuffer/linkline"
)

func TestMatchSeedScenario(t *testing.T) {
	s := []float64{0, 10, 30}
	tt := []float64{5, 12}

	links, err := linkline.Match(s, tt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links, got %d: %+v", len(links), links)
	}
	want := []linkline.Link{
		{I: 0, J: 0, Cost: 5},
		{I: 1, J: 1, Cost: 2},
	}
	for i, w := range want {
		if links[i].I != w.I || links[i].J != w.J || math.Abs(links[i].Cost-w.Cost) > 1e-9 {
			t.Errorf("link[%d] = %+v, want %+v", i, links[i], w)
		}
	}
	if got := linkline.TotalCost(links); math.Abs(got-7) > 1e-9 {
		t.Errorf("TotalCost = %v, want 7", got)
	}
}

func TestMatchNonCrossing(t *testing.T) {
	s := []float64{1, 2, 3, 4, 5}
	tt := []float64{1.1, 3.9}
	links, err := linkline.Match(s, tt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Links may share an endpoint (one point linked to several on the
	// other side), but neither index may go backwards and no link repeats.
	for k := 1; k < len(links); k++ {
		if links[k].I < links[k-1].I || links[k].J < links[k-1].J ||
			(links[k].I == links[k-1].I && links[k].J == links[k-1].J) {
			t.Errorf("links cross or repeat at %d: %+v", k, links)
		}
	}
}

func TestMatchRejectsEmptyInput(t *testing.T) {
	if _, err := linkline.Match(nil, []float64{1}); err == nil {
		t.Errorf("expected error for empty S")
	}
	if _, err := linkline.Match([]float64{1}, nil); err == nil {
		t.Errorf("expected error for empty T")
	}
}

func TestMatchEqualLengthConsumesBoth(t *testing.T) {
	s := []float64{0, 100}
	tt := []float64{1, 99}
	links, err := linkline.Match(s, tt)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected both points linked when arrays are equal length, got %d links", len(links))
	}
}
