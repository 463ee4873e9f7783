package pairlog_test

import (
	"testing"

	"github.com/cocosip/go-mapbuffer/pairlog"
	"github.com/kelindar/roaring"
)

func TestStitchingTransitivity(t *testing.T) {
	l := pairlog.New()
	l.AddPair(1, 2)
	l.AddPair(2, 3)
	if l.Reindex(1) != l.Reindex(3) {
		t.Errorf("expected 1 and 3 to reindex to the same base after chained pairs")
	}
}

func TestReindexTableMatchesReindex(t *testing.T) {
	l := pairlog.New()
	l.AddPair(4, 1)
	table := l.ReindexTable(6)
	for i := int32(0); i < 6; i++ {
		if table[i] != l.Reindex(i) {
			t.Errorf("ReindexTable[%d] = %d, Reindex(%d) = %d, want equal", i, table[i], i, l.Reindex(i))
		}
	}
}

func TestReindexByAndRequiresAllConstituentsComplete(t *testing.T) {
	l := pairlog.New()
	l.AddPair(0, 1) // object spans raw labels 0 and 1
	l.AddPair(2, 2) // singleton object, raw label 2

	partial := roaring.New()
	partial.Set(1) // raw label 1 is still partial; 0 is not; 2 is not

	completed := l.ReindexByAnd(partial)
	base01 := l.Reindex(0)
	base2 := l.Reindex(2)

	if completed.Contains(uint32(base01)) {
		t.Errorf("object spanning labels 0,1 should not be complete while label 1 is partial")
	}
	if !completed.Contains(uint32(base2)) {
		t.Errorf("singleton object at label 2 with no partial bit should be complete")
	}
}

func TestReindexByAndIncludesObservedButUnpairedLabels(t *testing.T) {
	l := pairlog.New()
	l.AddPair(0, 1)
	l.Observe(5) // raw label 5 exists (e.g. an interior object) but was never paired

	completed := l.ReindexByAnd(roaring.New())
	if !completed.Contains(5) {
		t.Errorf("unpaired label 5 with no partial bit should be complete, got bitmap %v", completed)
	}

	partial := roaring.New()
	partial.Set(5)
	completed = l.ReindexByAnd(partial)
	if completed.Contains(5) {
		t.Errorf("unpaired label 5 marked partial should not be complete")
	}
}

func TestReindexByAndAllComplete(t *testing.T) {
	l := pairlog.New()
	l.AddPair(0, 1)

	completed := l.ReindexByAnd(roaring.New())
	base := l.Reindex(0)
	if !completed.Contains(uint32(base)) {
		t.Errorf("object with no partial bits set anywhere should be complete")
	}
}
