package matrixio

import "fmt"

// DenseMatrix is a reference Matrix implementation backed by owned,
// row-major float64 storage per channel. It is the type this module's
// own tests build frames from, and implements DirectIntAccessor when its
// element type is I32 and it carries exactly one channel.
type DenseMatrix struct {
	et       ElementType
	dimX     int64
	dimY     int64
	channels [][]float64 // channels[c][y*dimX+x]
}

// NewDense allocates a zero-initialised DenseMatrix.
func NewDense(et ElementType, channels int, dimX, dimY int64) (*DenseMatrix, error) {
	if channels < 1 {
		return nil, fmt.Errorf("matrixio.NewDense: channels must be >= 1, got %d", channels)
	}
	if err := ValidateDims(dimX, dimY); err != nil {
		return nil, err
	}
	chans := make([][]float64, channels)
	n := dimX * dimY
	for c := range chans {
		chans[c] = make([]float64, n)
	}
	return &DenseMatrix{et: et, dimX: dimX, dimY: dimY, channels: chans}, nil
}

// NewDenseFromInt32 builds a single-channel I32 DenseMatrix directly from
// row-major label data, the common construction path in tests and
// examples.
func NewDenseFromInt32(dimX, dimY int64, labels []int32) (*DenseMatrix, error) {
	if int64(len(labels)) != dimX*dimY {
		return nil, fmt.Errorf("matrixio.NewDenseFromInt32: got %d labels, want %d", len(labels), dimX*dimY)
	}
	m, err := NewDense(I32, 1, dimX, dimY)
	if err != nil {
		return nil, err
	}
	row := m.channels[0]
	for i, v := range labels {
		row[i] = float64(v)
	}
	return m, nil
}

func (m *DenseMatrix) ElementType() ElementType { return m.et }
func (m *DenseMatrix) Channels() int            { return len(m.channels) }

func (m *DenseMatrix) Dim(axis int) int64 {
	if axis == 0 {
		return m.dimX
	}
	return m.dimY
}

func (m *DenseMatrix) At(channel int, x, y int64) float64 {
	if x < 0 || x >= m.dimX || y < 0 || y >= m.dimY {
		return 0
	}
	return m.channels[channel][y*m.dimX+x]
}

func (m *DenseMatrix) IntAt(channel int, x, y int64) int64 {
	return int64(m.At(channel, x, y))
}

// Set writes a single pixel. Not part of the Matrix interface: DenseMatrix
// exposes it as a construction convenience, since Matrix itself is
// read-only by contract.
func (m *DenseMatrix) Set(channel int, x, y int64, v float64) {
	m.channels[channel][y*m.dimX+x] = v
}

// SubView returns a new owned DenseMatrix over [x0,x0+w)x[y0,y0+h), zero
// outside the receiver's bounds. Unlike a lazy-view implementation this
// copies eagerly, so Materialize is a no-op identity.
func (m *DenseMatrix) SubView(x0, y0, w, h int64) Matrix {
	out, err := NewDense(m.et, len(m.channels), w, h)
	if err != nil {
		// w, h come from caller-controlled rectangle arithmetic already
		// validated upstream; a failure here means that validation was
		// skipped, which is a programming error, not a runtime condition.
		panic(err)
	}
	for c := range m.channels {
		for y := int64(0); y < h; y++ {
			for x := int64(0); x < w; x++ {
				out.Set(c, x, y, m.At(c, x0+x, y0+y))
			}
		}
	}
	return out
}

// Materialize returns the receiver unchanged: DenseMatrix already owns
// its storage.
func (m *DenseMatrix) Materialize() Matrix { return m }

// DirectInt32 implements DirectIntAccessor for single-channel I32
// matrices. Since DenseMatrix stores float64 values, it returns a fresh
// int32 copy of channel 0, not the backing storage; writes to the
// returned slice do not change the matrix.
func (m *DenseMatrix) DirectInt32() ([]int32, bool) {
	if m.et != I32 || len(m.channels) != 1 {
		return nil, false
	}
	out := make([]int32, len(m.channels[0]))
	for i, v := range m.channels[0] {
		out[i] = int32(v)
	}
	return out, true
}

// denseFactory is the reference Factory implementation, allocating
// DenseMatrix instances.
type denseFactory struct{}

// DenseFactory is a Factory that allocates DenseMatrix instances.
var DenseFactory Factory = denseFactory{}

func (denseFactory) New(et ElementType, channels int, dimX, dimY int64) (Matrix, error) {
	return NewDense(et, channels, dimX, dimY)
}
