// Package mapbuffer implements the Map Buffer: an in-memory spatial
// buffer accepting a stream of rectangular integer-labelled frames,
// positioning them on an unbounded plane,
// maintaining a bounded sliding window of the most recent ones,
// optionally re-indexing labels into disjoint per-frame ranges, and
// optionally stitching connected components across frame boundaries.
package mapbuffer

import (
	"context"
	"fmt"

	"github.com/cocosip/go-mapbuffer/blockwork"
	"github.com/cocosip/go-mapbuffer/frame"
	"github.com/cocosip/go-mapbuffer/matrixio"
	"github.com/cocosip/go-mapbuffer/mberr"
	"github.com/cocosip/go-mapbuffer/pairlog"
	"github.com/cocosip/go-mapbuffer/rectgeom"
	"github.com/cocosip/go-mapbuffer/stitch"
	"github.com/kelindar/roaring"
)

// Config holds the three lifetime-fixed policy flags plus the sliding
// window capacity and the stitcher's link-cost threshold. Intended to be
// set before any frame is added; changing it afterwards is unspecified
// and discouraged.
type Config struct {
	MaxFrames         int
	StitchLabels      bool
	AutoReindex       bool
	ZeroIsBackground  bool
	LinkCostThreshold float64
}

// Validate checks that cfg describes a usable buffer.
func (c Config) Validate() error {
	if c.MaxFrames < 1 {
		return mberr.Wrap(mberr.BadInput, "mapbuffer.Config.Validate", fmt.Errorf("maxFrames must be >= 1, got %d", c.MaxFrames))
	}
	if c.LinkCostThreshold < 0 {
		return mberr.Wrap(mberr.BadInput, "mapbuffer.Config.Validate", fmt.Errorf("linkCostThreshold must be non-negative, got %v", c.LinkCostThreshold))
	}
	return nil
}

// MapBuffer is the top-level container. Not safe for concurrent
// mutation: the whole subsystem assumes a single-writer model.
type MapBuffer struct {
	cfg Config

	frames []frame.Frame

	indexingBase       int32
	firstFramePosition *rectgeom.Rect

	pairLog           *pairlog.Log
	rawPartialObjects *roaring.Bitmap

	elementType matrixio.ElementType
	channels    int
	haveShape   bool
}

// New constructs an empty MapBuffer.
func New(cfg Config) (*MapBuffer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.LinkCostThreshold == 0 {
		cfg.LinkCostThreshold = stitch.DefaultLinkCostThreshold
	}
	return &MapBuffer{
		cfg:               cfg,
		pairLog:           pairlog.New(),
		rawPartialObjects: roaring.New(),
	}, nil
}

// Clear empties frames, the pair log, rawPartialObjects and
// firstFramePosition. indexingBase is zeroed only if resetIndexing.
func (mb *MapBuffer) Clear(resetIndexing bool) {
	mb.frames = nil
	mb.pairLog = pairlog.New()
	mb.rawPartialObjects = roaring.New()
	mb.firstFramePosition = nil
	mb.haveShape = false
	if resetIndexing {
		mb.indexingBase = 0
	}
}

// AddFrame validates, optionally crops, optionally reindexes and
// optionally stitches m (positioned with left-top corner (minX, minY))
// into the buffer, evicting the oldest frame if the window is full, and
// returns the Frame as stored.
func (mb *MapBuffer) AddFrame(ctx context.Context, m matrixio.Matrix, minX, minY int64, crop *rectgeom.Rect, disableOverlapping bool) (frame.Frame, error) {
	if mb.haveShape {
		if m.ElementType() != mb.elementType || m.Channels() != mb.channels {
			return frame.Frame{}, mberr.Wrap(mberr.BadShape, "mapbuffer.AddFrame", fmt.Errorf(
				"element type/channel count mismatch: got (%v,%d), buffer holds (%v,%d)",
				m.ElementType(), m.Channels(), mb.elementType, mb.channels))
		}
	}

	effective := m
	dimX, dimY := m.Dim(0), m.Dim(1)
	if crop != nil {
		if crop.MinX < 0 || crop.MinY < 0 || crop.MaxX >= dimX || crop.MaxY >= dimY {
			return frame.Frame{}, mberr.Wrap(mberr.BadShape, "mapbuffer.AddFrame", fmt.Errorf(
				"crop %+v is not contained in matrix bounds %dx%d", *crop, dimX, dimY))
		}
		effective = m.SubView(crop.MinX, crop.MinY, crop.SizeX(), crop.SizeY())
		dimX, dimY = effective.Dim(0), effective.Dim(1)
	}

	pos, err := rectgeom.New(minX, minY, dimX, dimY)
	if err != nil {
		return frame.Frame{}, err
	}

	if disableOverlapping {
		for _, f := range mb.frames {
			if f.Position.Intersects(pos) {
				return frame.Frame{}, mberr.Wrap(mberr.Conflict, "mapbuffer.AddFrame", fmt.Errorf(
					"new frame %+v overlaps existing frame %+v with overlap disabled", pos, f.Position))
			}
		}
	}

	f, err := frame.New(pos, effective)
	if err != nil {
		return frame.Frame{}, err
	}

	if mb.cfg.AutoReindex {
		f, err = mb.applyAutoReindex(ctx, f)
		if err != nil {
			return frame.Frame{}, err
		}
	}

	f.Matrix = f.Matrix.Materialize()

	if mb.cfg.StitchLabels {
		if err := stitch.StitchNewFrame(ctx, f, mb.frames, mb.pairLog, mb.rawPartialObjects, mb.cfg.LinkCostThreshold); err != nil {
			return frame.Frame{}, err
		}
	}

	if mb.firstFramePosition == nil {
		r := f.Position
		mb.firstFramePosition = &r
	}

	if !mb.haveShape {
		mb.elementType = f.Matrix.ElementType()
		mb.channels = f.Matrix.Channels()
		mb.haveShape = true
	}

	if len(mb.frames) == mb.cfg.MaxFrames {
		mb.frames = mb.frames[1:]
	}
	mb.frames = append(mb.frames, f)

	return f, nil
}

// applyAutoReindex shifts f's channel 0 by the buffer's current
// indexingBase and advances indexingBase to the result's
// nextIndexingBase. It takes the fused fast path when f's matrix is a
// single-channel, directly addressable 32-bit integer matrix.
func (mb *MapBuffer) applyAutoReindex(ctx context.Context, f frame.Frame) (frame.Frame, error) {
	if f.Matrix.Channels() == 1 && f.Matrix.ElementType() == matrixio.I32 {
		if accessor, ok := f.Matrix.(matrixio.DirectIntAccessor); ok {
			if raw, ok := accessor.DirectInt32(); ok {
				return mb.fastAutoReindex(ctx, f, raw)
			}
		}
	}
	shifted, err := f.AddIndexingBase(ctx, mb.cfg.ZeroIsBackground, mb.indexingBase)
	if err != nil {
		return frame.Frame{}, err
	}
	next, err := shifted.NextIndexingBase(mb.indexingBase, mb.cfg.ZeroIsBackground)
	if err != nil {
		return frame.Frame{}, err
	}
	mb.indexingBase = next
	return shifted, nil
}

// fastAutoReindex fuses the non-negativity check, base shift and
// nextIndexingBase computation into one row-partitioned sweep over raw,
// avoiding a second full pass over the matrix.
func (mb *MapBuffer) fastAutoReindex(ctx context.Context, f frame.Frame, raw []int32) (frame.Frame, error) {
	dimX, dimY := f.Matrix.Dim(0), f.Matrix.Dim(1)
	out := make([]int32, len(raw))
	base := mb.indexingBase
	zeroIsBackground := mb.cfg.ZeroIsBackground

	numBlocks := (dimY + blockwork.FrameBlockRows - 1) / blockwork.FrameBlockRows
	if numBlocks < 1 {
		numBlocks = 1
	}
	blockMax := make([]int64, numBlocks)
	for i := range blockMax {
		blockMax[i] = -1
	}

	err := blockwork.Run(ctx, dimY, blockwork.FrameBlockRows, func(lo, hi int64) error {
		blockIdx := lo / blockwork.FrameBlockRows
		localMax := int64(-1)
		for y := lo; y < hi; y++ {
			rowStart := y * dimX
			for x := int64(0); x < dimX; x++ {
				idx := rowStart + x
				label := int64(raw[idx])
				if label < 0 {
					return mberr.Wrap(mberr.BadInput, "mapbuffer.fastAutoReindex", fmt.Errorf("negative label %d at (%d,%d)", label, x, y))
				}
				var value int64
				if zeroIsBackground && label == 0 {
					value = 0
				} else {
					value = label + int64(base)
					if value > frame.MaxLabel {
						return mberr.Wrap(mberr.Exhausted, "mapbuffer.fastAutoReindex", fmt.Errorf("label %d + base %d exceeds 31-bit range", label, base))
					}
				}
				out[idx] = int32(value)
				if value > localMax {
					localMax = value
				}
			}
		}
		blockMax[blockIdx] = localMax
		return nil
	})
	if err != nil {
		return frame.Frame{}, err
	}

	maxLabel := int64(-1)
	for _, m := range blockMax {
		if m > maxLabel {
			maxLabel = m
		}
	}

	dense, err := matrixio.NewDenseFromInt32(dimX, dimY, out)
	if err != nil {
		return frame.Frame{}, mberr.Wrap(mberr.Internal, "mapbuffer.fastAutoReindex", err)
	}

	next := int64(base)
	if !(maxLabel == 0 && zeroIsBackground) {
		if zeroIsBackground {
			next = maxLabel
		} else {
			next = maxLabel + 1
		}
	}
	if next > frame.MaxLabel+1 {
		return frame.Frame{}, mberr.Wrap(mberr.Exhausted, "mapbuffer.fastAutoReindex", fmt.Errorf("next indexing base %d exceeds 31-bit range", next))
	}
	nextBase := int32(next)
	if nextBase < base {
		nextBase = base
	}
	mb.indexingBase = nextBase

	return frame.Frame{Position: f.Position, Matrix: dense}, nil
}

// ReadMatrix allocates a fresh zero-filled matrix sized to rect and
// copies the intersection of rect with each stored frame into it, later
// frames overwriting earlier ones.
func (mb *MapBuffer) ReadMatrix(rect rectgeom.Rect) (matrixio.Matrix, error) {
	return mb.read(rect, false)
}

// ReadMatrixReindexedByObjectPairs is ReadMatrix, but channel 0 passes
// through the pair log's disjoint-set via reindex. quickMode promises
// that ResolveAllBases has already been called, so reindex is a
// single-level lookup; otherwise ResolveAllBases is called here first.
func (mb *MapBuffer) ReadMatrixReindexedByObjectPairs(rect rectgeom.Rect, quickMode bool) (matrixio.Matrix, error) {
	if !quickMode {
		mb.pairLog.ResolveAllBases()
	}
	return mb.read(rect, true)
}

// read fills a fresh zero-valued matrix sized to rect with the
// intersection of rect against each stored frame (later frames
// overwriting earlier ones), row-partitioned via blockwork.Run: each
// block owns a disjoint range of output rows, so frames are still
// visited oldest-to-newest within a block to preserve later-wins
// semantics, while blocks themselves run concurrently.
func (mb *MapBuffer) read(rect rectgeom.Rect, reindex bool) (matrixio.Matrix, error) {
	if !mb.haveShape {
		return nil, mberr.Wrap(mberr.NotFound, "mapbuffer.read", fmt.Errorf("buffer has no frames"))
	}
	if err := rectgeom.CheckPixelCount(rect.Area()); err != nil {
		return nil, err
	}
	out, err := matrixio.DenseFactory.New(mb.elementType, mb.channels, rect.SizeX(), rect.SizeY())
	if err != nil {
		return nil, mberr.Wrap(mberr.Internal, "mapbuffer.read", err)
	}
	dense := out.(*matrixio.DenseMatrix)

	frames := mb.frames
	channels := mb.channels
	pairLog := mb.pairLog

	err = blockwork.Run(context.Background(), rect.SizeY(), blockwork.FrameBlockRows, func(lo, hi int64) error {
		blockRect := rectgeom.Rect{MinX: rect.MinX, MaxX: rect.MaxX, MinY: rect.MinY + lo, MaxY: rect.MinY + hi - 1}
		for _, f := range frames {
			inter, ok := f.Position.Intersect(blockRect)
			if !ok {
				continue
			}
			for y := inter.MinY; y <= inter.MaxY; y++ {
				for x := inter.MinX; x <= inter.MaxX; x++ {
					lx, ly := x-f.Position.MinX, y-f.Position.MinY
					ox, oy := x-rect.MinX, y-rect.MinY
					for c := 0; c < channels; c++ {
						v := f.Matrix.At(c, lx, ly)
						if reindex && c == 0 {
							v = float64(pairLog.Reindex(int32(v)))
						}
						dense.Set(c, ox, oy, v)
					}
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return dense, nil
}

// IsCovered reports whether rect is entirely contained in the union of
// all stored frame positions.
func (mb *MapBuffer) IsCovered(rect rectgeom.Rect) bool {
	rects := make([]rectgeom.Rect, 0, len(mb.frames))
	for _, f := range mb.frames {
		rects = append(rects, f.Position)
	}
	return rectgeom.Covers(rects, rect)
}

// ChangeRectangleOnMap tries to move/shrink orig toward target, axis by
// axis (Y before X), keeping the result covered. If mustBeCovered and
// orig itself is not covered, it fails. If orig and target don't
// intersect, it returns orig unchanged unless target is itself fully
// covered, in which case it returns target.
func (mb *MapBuffer) ChangeRectangleOnMap(orig, target rectgeom.Rect, mustBeCovered bool) (rectgeom.Rect, error) {
	if mustBeCovered && !mb.IsCovered(orig) {
		return rectgeom.Rect{}, mberr.Wrap(mberr.Conflict, "mapbuffer.ChangeRectangleOnMap", fmt.Errorf("orig %+v is not covered", orig))
	}
	if !orig.Intersects(target) {
		if mb.IsCovered(target) {
			return target, nil
		}
		return orig, nil
	}

	cur := orig
	tryApply := func(candidate rectgeom.Rect) {
		if mb.IsCovered(candidate) {
			cur = candidate
		}
	}

	// Y axis first (highest-numbered axis), then X; within each axis, min
	// before max.
	tryApply(rectgeom.Rect{MinX: cur.MinX, MinY: target.MinY, MaxX: cur.MaxX, MaxY: cur.MaxY})
	tryApply(rectgeom.Rect{MinX: cur.MinX, MinY: cur.MinY, MaxX: cur.MaxX, MaxY: target.MaxY})
	tryApply(rectgeom.Rect{MinX: target.MinX, MinY: cur.MinY, MaxX: cur.MaxX, MaxY: cur.MaxY})
	tryApply(rectgeom.Rect{MinX: cur.MinX, MinY: cur.MinY, MaxX: target.MaxX, MaxY: cur.MaxY})

	return cur, nil
}

// ContainingRectangle returns the minimal rectangle enclosing every
// stored frame's position, and false if there are no frames.
func (mb *MapBuffer) ContainingRectangle() (rectgeom.Rect, bool) {
	rects := make([]rectgeom.Rect, 0, len(mb.frames))
	for _, f := range mb.frames {
		rects = append(rects, f.Position)
	}
	return rectgeom.Bounding(rects)
}

// NumberOfObjects returns indexingBase + (1 if zeroIsBackground else 0).
func (mb *MapBuffer) NumberOfObjects() int32 {
	if mb.cfg.ZeroIsBackground {
		return mb.indexingBase + 1
	}
	return mb.indexingBase
}

// FirstFramePosition returns the sticky position of the first frame
// since the most recent Clear, and false if none has been added yet.
func (mb *MapBuffer) FirstFramePosition() (rectgeom.Rect, bool) {
	if mb.firstFramePosition == nil {
		return rectgeom.Rect{}, false
	}
	return *mb.firstFramePosition, true
}

// Frames returns the currently held frames, oldest first. Callers must
// not mutate the returned slice.
func (mb *MapBuffer) Frames() []frame.Frame {
	return mb.frames
}
