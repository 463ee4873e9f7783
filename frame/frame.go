// Package frame implements the immutable per-ingest label frame: a
// rectangle on the plane paired with a matrix of the same size, with
// channel 0 privileged as the label channel for all label-related
// operations.
package frame

import (
	"context"
	"fmt"

	"github.com/cocosip/go-mapbuffer/blockwork"
	"github.com/cocosip/go-mapbuffer/mberr"
	"github.com/cocosip/go-mapbuffer/matrixio"
	"github.com/cocosip/go-mapbuffer/rectgeom"
)

// MaxLabel is the largest legal label value, 2^31-2.
const MaxLabel int64 = (1 << 31) - 2

// Frame is an immutable (position, matrix) pair. Operations that "change"
// a Frame return a new Frame sharing underlying storage where possible.
type Frame struct {
	Position rectgeom.Rect
	Matrix   matrixio.Matrix
}

// New constructs a Frame, checking that leftTop's implied size matches
// the matrix's own dimensions.
func New(leftTop rectgeom.Rect, m matrixio.Matrix) (Frame, error) {
	if leftTop.SizeX() != m.Dim(0) || leftTop.SizeY() != m.Dim(1) {
		return Frame{}, mberr.Wrap(mberr.BadShape, "frame.New", fmt.Errorf(
			"position size %dx%d does not match matrix dims %dx%d",
			leftTop.SizeX(), leftTop.SizeY(), m.Dim(0), m.Dim(1)))
	}
	return Frame{Position: leftTop, Matrix: m}, nil
}

// NewAt is a convenience constructor building the position rectangle from
// a left-top corner and the matrix's own dimensions.
func NewAt(minX, minY int64, m matrixio.Matrix) (Frame, error) {
	pos, err := rectgeom.New(minX, minY, m.Dim(0), m.Dim(1))
	if err != nil {
		return Frame{}, mberr.Wrap(mberr.BadShape, "frame.NewAt", err)
	}
	return New(pos, m)
}

// SubFrameWithZeroContinuation returns a Frame over rect, with pixels
// outside the receiver's own bounds read as zero. It is a cheap view when
// rect equals the receiver's current position.
func (f Frame) SubFrameWithZeroContinuation(rect rectgeom.Rect) Frame {
	if rect == f.Position {
		return f
	}
	offX := rect.MinX - f.Position.MinX
	offY := rect.MinY - f.Position.MinY
	sub := f.Matrix.SubView(offX, offY, rect.SizeX(), rect.SizeY())
	return Frame{Position: rect, Matrix: sub}
}

// labelChannelValid checks that channel 0's element type is an integer
// type no wider than 32 bits, the only label-channel types this spec's
// label-related operations accept.
func labelChannelValid(m matrixio.Matrix) bool {
	et := m.ElementType()
	return et.IsInteger() && et.BitWidth() <= 32
}

// AddIndexingBase returns a new Frame where channel 0 is reindexed:
// label -> (zeroIsBackground && label == 0) ? 0 : label + base. It
// validates that every pre-shift label is non-negative and that
// label+base fits in 31 bits.
func (f Frame) AddIndexingBase(ctx context.Context, zeroIsBackground bool, base int32) (Frame, error) {
	if !labelChannelValid(f.Matrix) {
		return Frame{}, mberr.Wrap(mberr.BadInput, "frame.AddIndexingBase", fmt.Errorf("label channel element type is not an integer type <= 32 bits"))
	}
	dimX, dimY := f.Matrix.Dim(0), f.Matrix.Dim(1)
	out, err := matrixio.DenseFactory.New(matrixio.I32, f.Matrix.Channels(), dimX, dimY)
	if err != nil {
		return Frame{}, mberr.Wrap(mberr.Internal, "frame.AddIndexingBase", err)
	}
	dense := out.(*matrixio.DenseMatrix)
	copyOtherChannels(dense, f.Matrix, dimX, dimY)

	err = blockwork.Run(ctx, dimY, blockwork.FrameBlockRows, func(lo, hi int64) error {
		for y := lo; y < hi; y++ {
			for x := int64(0); x < dimX; x++ {
				label := f.Matrix.IntAt(0, x, y)
				if label < 0 {
					return mberr.Wrap(mberr.BadInput, "frame.AddIndexingBase", fmt.Errorf("negative label %d at (%d,%d)", label, x, y))
				}
				if zeroIsBackground && label == 0 {
					dense.Set(0, x, y, 0)
					continue
				}
				shifted := label + int64(base)
				if shifted > MaxLabel {
					return mberr.Wrap(mberr.Exhausted, "frame.AddIndexingBase", fmt.Errorf("label %d + base %d exceeds 31-bit range", label, base))
				}
				dense.Set(0, x, y, float64(shifted))
			}
		}
		return nil
	})
	if err != nil {
		return Frame{}, err
	}
	return Frame{Position: f.Position, Matrix: dense}, nil
}

func copyOtherChannels(dst *matrixio.DenseMatrix, src matrixio.Matrix, dimX, dimY int64) {
	for c := 1; c < src.Channels(); c++ {
		for y := int64(0); y < dimY; y++ {
			for x := int64(0); x < dimX; x++ {
				dst.Set(c, x, y, src.At(c, x, y))
			}
		}
	}
}

// NextIndexingBase returns the indexing base a Map Buffer should adopt
// after this frame is added: max(currentBase, zeroIsBackground ?
// maxLabel : maxLabel+1). On an entirely-zero frame with
// zeroIsBackground, the base is left unchanged.
func (f Frame) NextIndexingBase(currentBase int32, zeroIsBackground bool) (int32, error) {
	if !labelChannelValid(f.Matrix) {
		return 0, mberr.Wrap(mberr.BadInput, "frame.NextIndexingBase", fmt.Errorf("label channel element type is not an integer type <= 32 bits"))
	}
	dimX, dimY := f.Matrix.Dim(0), f.Matrix.Dim(1)
	var maxLabel int64 = -1
	for y := int64(0); y < dimY; y++ {
		for x := int64(0); x < dimX; x++ {
			l := f.Matrix.IntAt(0, x, y)
			if l < 0 {
				return 0, mberr.Wrap(mberr.BadInput, "frame.NextIndexingBase", fmt.Errorf("negative label %d at (%d,%d)", l, x, y))
			}
			if l > maxLabel {
				maxLabel = l
			}
		}
	}
	if maxLabel == -1 {
		// Entirely zero-sized matrix: nothing to do, not a defined case.
		return currentBase, nil
	}
	if maxLabel == 0 && zeroIsBackground {
		return currentBase, nil
	}
	var candidate int64
	if zeroIsBackground {
		candidate = maxLabel
	} else {
		candidate = maxLabel + 1
	}
	if candidate > MaxLabel+1 {
		return 0, mberr.Wrap(mberr.Exhausted, "frame.NextIndexingBase", fmt.Errorf("next indexing base %d exceeds 31-bit range", candidate))
	}
	next := int32(candidate)
	if next < currentBase {
		next = currentBase
	}
	return next, nil
}

// RestoringTable is the inverse map of a SequentiallyReindex pass: new
// compact label k maps back to the original raw label.
type RestoringTable []int32

// SequentiallyReindex renumbers raw non-zero labels of channel 0 to
// 1, 2, ... in ascending order of their raw value, returning the
// reindexed Frame and the table mapping each new label back to its raw
// value. If includeBackground, entry 0 of the table is included and set
// to 0.
func (f Frame) SequentiallyReindex(ctx context.Context, includeBackground bool) (Frame, RestoringTable, error) {
	if !labelChannelValid(f.Matrix) {
		return Frame{}, nil, mberr.Wrap(mberr.BadInput, "frame.SequentiallyReindex", fmt.Errorf("label channel element type is not an integer type <= 32 bits"))
	}
	dimX, dimY := f.Matrix.Dim(0), f.Matrix.Dim(1)

	// Pass 1: discover the set of distinct raw non-zero labels, in
	// ascending order. This builds a shared map, so it runs single
	// threaded; only the write-out pass below goes through blockwork.Run,
	// where each block's output is disjoint.
	seen := make(map[int64]bool)
	for y := int64(0); y < dimY; y++ {
		for x := int64(0); x < dimX; x++ {
			l := f.Matrix.IntAt(0, x, y)
			if l < 0 {
				return Frame{}, nil, mberr.Wrap(mberr.BadInput, "frame.SequentiallyReindex", fmt.Errorf("negative label %d at (%d,%d)", l, x, y))
			}
			if l != 0 {
				seen[l] = true
			}
		}
	}
	raws := make([]int64, 0, len(seen))
	for l := range seen {
		raws = append(raws, l)
	}
	sortInt64s(raws)

	newOf := make(map[int64]int32, len(raws))
	var table RestoringTable
	start := int32(1)
	if includeBackground {
		table = append(table, 0)
	}
	for i, raw := range raws {
		newLabel := start + int32(i)
		newOf[raw] = newLabel
		table = append(table, int32(raw))
	}

	out, err := matrixio.DenseFactory.New(matrixio.I32, f.Matrix.Channels(), dimX, dimY)
	if err != nil {
		return Frame{}, nil, mberr.Wrap(mberr.Internal, "frame.SequentiallyReindex", err)
	}
	dense := out.(*matrixio.DenseMatrix)
	copyOtherChannels(dense, f.Matrix, dimX, dimY)

	err = blockwork.Run(ctx, dimY, blockwork.FrameBlockRows, func(lo, hi int64) error {
		for y := lo; y < hi; y++ {
			for x := int64(0); x < dimX; x++ {
				l := f.Matrix.IntAt(0, x, y)
				if l == 0 {
					dense.Set(0, x, y, 0)
					continue
				}
				dense.Set(0, x, y, float64(newOf[l]))
			}
		}
		return nil
	})
	if err != nil {
		return Frame{}, nil, err
	}
	return Frame{Position: f.Position, Matrix: dense}, table, nil
}

func sortInt64s(a []int64) {
	for i := 1; i < len(a); i++ {
		v := a[i]
		j := i - 1
		for j >= 0 && a[j] > v {
			a[j+1] = a[j]
			j--
		}
		a[j+1] = v
	}
}
