package unionfind_test

import (
	"testing"

	"github.com/cocosip/go-mapbuffer/unionfind"
)

func TestParentOrThisUnknownLabel(t *testing.T) {
	s := unionfind.New()
	if got := s.ParentOrThis(7); got != 7 {
		t.Errorf("ParentOrThis(7) on empty set = %d, want 7", got)
	}
}

func TestUnionTransitivity(t *testing.T) {
	s := unionfind.New()
	s.Union(1, 2)
	s.Union(2, 3)
	if s.FindBase(1) != s.FindBase(3) {
		t.Errorf("expected 1 and 3 to share a base after (1,2) and (2,3) unions")
	}
}

func TestUnionSmallerBaseSurvives(t *testing.T) {
	s := unionfind.New()
	s.Union(5, 2)
	if got := s.FindBase(5); got != 2 {
		t.Errorf("FindBase(5) = %d, want 2 (smaller base should survive)", got)
	}
	if got := s.FindBase(2); got != 2 {
		t.Errorf("FindBase(2) = %d, want 2", got)
	}
}

func TestReindexTableIdempotent(t *testing.T) {
	s := unionfind.New()
	s.Union(3, 1)
	s.Union(1, 0)
	first := s.ReindexTable(5)
	second := s.ReindexTable(5)
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("ReindexTable not idempotent at %d: %d vs %d", i, first[i], second[i])
		}
	}
	if first[0] != 0 || first[1] != 0 || first[3] != 0 {
		t.Errorf("expected 0,1,3 to all resolve to base 0, got %v", first)
	}
	if first[2] != 2 || first[4] != 4 {
		t.Errorf("expected untouched labels 2,4 to resolve to themselves, got %v", first)
	}
}

func TestResolveAllBasesMatchesFindBase(t *testing.T) {
	s := unionfind.New()
	s.Union(10, 4)
	s.Union(4, 1)
	s.Union(8, 8)
	want := make(map[int32]int32)
	for i := int32(0); i < 12; i++ {
		want[i] = s.FindBase(i)
	}
	s.ResolveAllBases()
	for i := int32(0); i < 12; i++ {
		if got := s.ParentOrThis(i); got != want[i] {
			t.Errorf("after ResolveAllBases, ParentOrThis(%d) = %d, want %d", i, got, want[i])
		}
	}
}
