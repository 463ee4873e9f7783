package matrixio_test

import (
	"testing"

	"github.com/cocosip/go-mapbuffer/matrixio"
)

func TestNewDenseFromInt32RoundTrip(t *testing.T) {
	m, err := matrixio.NewDenseFromInt32(2, 2, []int32{0, 1, 1, 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := [][2]int64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	wantVals := []int64{0, 1, 1, 2}
	for i, p := range want {
		if got := m.IntAt(0, p[0], p[1]); got != wantVals[i] {
			t.Errorf("IntAt(0,%d,%d) = %d, want %d", p[0], p[1], got, wantVals[i])
		}
	}
}

func TestSubViewZeroContinuation(t *testing.T) {
	m, err := matrixio.NewDenseFromInt32(2, 2, []int32{1, 2, 3, 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	sub := m.SubView(1, 1, 3, 3)
	if got := sub.IntAt(0, 0, 0); got != 4 {
		t.Errorf("corner pixel = %d, want 4 (matrix[1,1])", got)
	}
	if got := sub.IntAt(0, 2, 2); got != 0 {
		t.Errorf("out-of-source pixel = %d, want 0", got)
	}
}

func TestDirectInt32Capability(t *testing.T) {
	m, _ := matrixio.NewDenseFromInt32(2, 1, []int32{5, 6})
	arr, ok := m.DirectInt32()
	if !ok {
		t.Fatalf("expected DirectInt32 capability for single-channel I32 matrix")
	}
	if len(arr) != 2 || arr[0] != 5 || arr[1] != 6 {
		t.Errorf("DirectInt32() = %v, want [5 6]", arr)
	}

	multi, _ := matrixio.NewDense(matrixio.I32, 2, 2, 1)
	if _, ok := multi.DirectInt32(); ok {
		t.Errorf("expected no DirectInt32 capability for multi-channel matrix")
	}
}

func TestFactoryAllocatesZeroed(t *testing.T) {
	m, err := matrixio.DenseFactory.New(matrixio.U16, 1, 4, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.IntAt(0, 2, 2) != 0 {
		t.Errorf("freshly allocated matrix should be zero-filled")
	}
}
