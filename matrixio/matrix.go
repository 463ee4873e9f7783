// Package matrixio models the retained contract with upstream image
// executors: a matrix handle (element type, channel count, dimensions,
// pixel access) supplied by the caller, and a factory for producing
// output matrix handles. Everything upstream of the handle (codecs, file
// I/O, color conversion) is out of this module's scope; only the
// interface and a reference in-memory implementation live here, so the
// rest of the module and its tests have something concrete to build
// frames from.
package matrixio

import (
	"fmt"
	"math"

	"github.com/cocosip/go-mapbuffer/mberr"
)

// ElementType enumerates the pixel element types a Matrix may carry.
type ElementType int

const (
	U8 ElementType = iota
	I8
	U16
	I16
	U32
	I32
	F32
	F64
	Bit
)

// IsInteger reports whether t is one of the integer element types.
func (t ElementType) IsInteger() bool {
	switch t {
	case U8, I8, U16, I16, U32, I32, Bit:
		return true
	default:
		return false
	}
}

// BitWidth returns the element's width in bits, or 0 for Bit (which is
// handled specially by callers that pack multiple bits per word).
func (t ElementType) BitWidth() int {
	switch t {
	case U8, I8:
		return 8
	case U16, I16:
		return 16
	case U32, I32, F32:
		return 32
	case F64:
		return 64
	default:
		return 0
	}
}

// Matrix is the inbound matrix handle contract: element type, channel
// count, 2D dimensions, row-major pixel access, and zero-extended
// sub-views. Matrices are shared read-only by reference; any operation
// that "changes" a Matrix returns a new handle.
type Matrix interface {
	// ElementType returns the matrix's pixel element type.
	ElementType() ElementType
	// Channels returns the channel count (>= 1).
	Channels() int
	// Dim returns the size along axis 0 (x) or 1 (y).
	Dim(axis int) int64
	// At returns the pixel value at (x, y) in the given channel, as a
	// float64-convertible integer/float depending on ElementType. Callers
	// that need label-channel integer semantics should use IntAt.
	At(channel int, x, y int64) float64
	// IntAt returns the integer pixel value at (x, y) in the given
	// channel. Valid only when ElementType().IsInteger().
	IntAt(channel int, x, y int64) int64
	// SubView returns a Matrix over [x0,x0+w) x [y0,y0+h), with pixels
	// outside the receiver's own bounds read as zero.
	SubView(x0, y0, w, h int64) Matrix
	// Materialize forces any lazily-computed view into owned storage,
	// returning a Matrix equivalent to the receiver that is safe to
	// retain beyond the lifetime of whatever it was a view over.
	Materialize() Matrix
}

// DirectIntAccessor is an optional capability a Matrix may implement: a
// single-channel, 32-bit-integer matrix whose backing storage is exposed
// as a flat, directly-addressable array. Map Buffer's fast-add path uses
// this to fuse check/shift/scan into one pass instead of going through
// At/IntAt pixel-by-pixel.
type DirectIntAccessor interface {
	// DirectInt32 returns the backing row-major array (length
	// Dim(0)*Dim(1)) and true, or (nil, false) if this matrix does not
	// support direct access (e.g. it is a lazy view or multi-channel).
	DirectInt32() ([]int32, bool)
}

// Factory allocates fresh, zero-initialised output matrices, the
// outbound half of the retained contract.
type Factory interface {
	// New allocates a zero-initialised matrix of the given element type,
	// channel count and dimensions.
	New(et ElementType, channels int, dimX, dimY int64) (Matrix, error)
}

// ValidateDims checks that dims are positive and the pixel count fits in
// the 2^31-1 limit used whenever a matrix participates in reindexing.
func ValidateDims(dimX, dimY int64) error {
	if dimX <= 0 || dimY <= 0 {
		return mberr.Wrap(mberr.BadShape, "matrixio.ValidateDims", fmt.Errorf("non-positive dims %dx%d", dimX, dimY))
	}
	if dimY > math.MaxInt32/dimX {
		return mberr.Wrap(mberr.BadShape, "matrixio.ValidateDims", fmt.Errorf("pixel count of dims %dx%d exceeds 2^31-1", dimX, dimY))
	}
	return nil
}
