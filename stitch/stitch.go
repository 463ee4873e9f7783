// Package stitch implements the frame object stitcher: it detects
// labels that continue across the shared border of two adjacent
// frames, records their equivalence in a pairlog.Log, tracks which raw
// labels still have an exposed (un-stitched) edge, and renders a "jointed"
// view of the most recently added frame plus whatever neighbours it was
// stitched to.
package stitch

import (
	"context"
	"fmt"

	"github.com/cocosip/go-mapbuffer/blockwork"
	"github.com/cocosip/go-mapbuffer/frame"
	"github.com/cocosip/go-mapbuffer/linkline"
	"github.com/cocosip/go-mapbuffer/matrixio"
	"github.com/cocosip/go-mapbuffer/mberr"
	"github.com/cocosip/go-mapbuffer/pairlog"
	"github.com/cocosip/go-mapbuffer/rectgeom"
	"github.com/kelindar/roaring"
)

// DefaultLinkCostThreshold is the reference cutoff for accepting a
// cross-edge link as a genuine object continuation. It is deliberately
// small: adjacent frames' label centroids should land within a pixel or
// two of each other when they are really the same object. Configurable
// per caller via the threshold parameter of StitchNewFrame.
const DefaultLinkCostThreshold = 2.0

// StitchNewFrame runs the stitcher for one newly added frame against the
// set of frames already present (not including newFrame itself). It
// records accepted cross-edge pairs into log and sets, in partial, the
// bit for every raw label of newFrame that has at least one pixel on an
// edge not internally covered by an existing frame.
func StitchNewFrame(ctx context.Context, newFrame frame.Frame, existing []frame.Frame, log *pairlog.Log, partial *roaring.Bitmap, threshold float64) error {
	log.ResolveAllBases()
	observeFrameLabels(newFrame, log)

	for _, nb := range existing {
		if lo, hi, ok := verticalOverlap(newFrame.Position, nb.Position); ok {
			if newFrame.Position.MaxX+1 == nb.Position.MinX {
				if err := stitchPair(ctx, newFrame, newFrame.Position.MaxX, nb, nb.Position.MinX, lo, hi, true, log, threshold); err != nil {
					return err
				}
			}
			if nb.Position.MaxX+1 == newFrame.Position.MinX {
				if err := stitchPair(ctx, newFrame, newFrame.Position.MinX, nb, nb.Position.MaxX, lo, hi, true, log, threshold); err != nil {
					return err
				}
			}
		}
		if lo, hi, ok := horizontalOverlap(newFrame.Position, nb.Position); ok {
			if newFrame.Position.MaxY+1 == nb.Position.MinY {
				if err := stitchPair(ctx, newFrame, newFrame.Position.MaxY, nb, nb.Position.MinY, lo, hi, false, log, threshold); err != nil {
					return err
				}
			}
			if nb.Position.MaxY+1 == newFrame.Position.MinY {
				if err := stitchPair(ctx, newFrame, newFrame.Position.MinY, nb, nb.Position.MaxY, lo, hi, false, log, threshold); err != nil {
					return err
				}
			}
		}
	}

	markPartialEdges(newFrame, existing, partial)
	return nil
}

// observeFrameLabels registers every non-zero raw label in f with log,
// so that ReindexByAnd's enumeration includes objects that never take
// part in an accepted cross-edge link (an interior object, a rejected
// link, or any object in the very first frame, which has no neighbour
// to stitch against at all).
func observeFrameLabels(f frame.Frame, log *pairlog.Log) {
	pos := f.Position
	for y := pos.MinY; y <= pos.MaxY; y++ {
		for x := pos.MinX; x <= pos.MaxX; x++ {
			raw := int32(f.Matrix.IntAt(0, x-pos.MinX, y-pos.MinY))
			if raw != 0 {
				log.Observe(raw)
			}
		}
	}
}

func verticalOverlap(a, b rectgeom.Rect) (lo, hi int64, ok bool) {
	lo = max64(a.MinY, b.MinY)
	hi = min64(a.MaxY, b.MaxY)
	return lo, hi, lo <= hi
}

func horizontalOverlap(a, b rectgeom.Rect) (lo, hi int64, ok bool) {
	lo = max64(a.MinX, b.MinX)
	hi = min64(a.MaxX, b.MaxX)
	return lo, hi, lo <= hi
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

// stitchPair extracts the two one-pixel lines flanking a shared border
// (vertical: fixed x per frame, varying y in [lo,hi]; horizontal: fixed y
// per frame, varying x in [lo,hi]), matches their label centroids and
// records accepted links.
func stitchPair(ctx context.Context, a frame.Frame, aFixed int64, b frame.Frame, bFixed int64, lo, hi int64, vertical bool, log *pairlog.Log, threshold float64) error {
	var aLabels, bLabels []int32
	var aPos, bPos []int64
	var err error
	if vertical {
		aLabels, aPos, err = extractColumn(ctx, a, log, aFixed, lo, hi)
		if err != nil {
			return err
		}
		bLabels, bPos, err = extractColumn(ctx, b, log, bFixed, lo, hi)
		if err != nil {
			return err
		}
	} else {
		aLabels, aPos, err = extractRow(ctx, a, log, aFixed, lo, hi)
		if err != nil {
			return err
		}
		bLabels, bPos, err = extractRow(ctx, b, log, bFixed, lo, hi)
		if err != nil {
			return err
		}
	}

	aCentroids, aRunLabels := centroidRuns(aLabels, aPos)
	bCentroids, bRunLabels := centroidRuns(bLabels, bPos)
	if len(aCentroids) == 0 || len(bCentroids) == 0 {
		return nil
	}

	links, err := linkline.Match(aCentroids, bCentroids)
	if err != nil {
		return mberr.Wrap(mberr.Internal, "stitch.stitchPair", err)
	}
	for _, link := range links {
		if link.Cost > threshold {
			continue
		}
		log.AddPair(aRunLabels[link.I], bRunLabels[link.J])
	}
	return nil
}

// extractColumn reads the one-pixel-thick vertical line x=fixed,
// y in [yLo,yHi] out of f, reindexed through log. Called only after
// log.ResolveAllBases(), so log.Reindex is a single-level lookup and safe
// to run concurrently across blockwork.Run's blocks (each writes a
// disjoint slice range, and no writer touches the set meanwhile).
func extractColumn(ctx context.Context, f frame.Frame, log *pairlog.Log, x, yLo, yHi int64) ([]int32, []int64, error) {
	n := yHi - yLo + 1
	labels := make([]int32, n)
	positions := make([]int64, n)
	localX := x - f.Position.MinX
	err := blockwork.Run(ctx, n, blockwork.LineBlockRows, func(lo, hi int64) error {
		for i := lo; i < hi; i++ {
			y := yLo + i
			localY := y - f.Position.MinY
			raw := int32(f.Matrix.IntAt(0, localX, localY))
			labels[i] = log.Reindex(raw)
			positions[i] = y
		}
		return nil
	})
	if err != nil {
		return nil, nil, mberr.Wrap(mberr.Internal, "stitch.extractColumn", err)
	}
	return labels, positions, nil
}

// extractRow is extractColumn's horizontal-border counterpart: the line
// y=fixed, x in [xLo,xHi].
func extractRow(ctx context.Context, f frame.Frame, log *pairlog.Log, y, xLo, xHi int64) ([]int32, []int64, error) {
	n := xHi - xLo + 1
	labels := make([]int32, n)
	positions := make([]int64, n)
	localY := y - f.Position.MinY
	err := blockwork.Run(ctx, n, blockwork.LineBlockRows, func(lo, hi int64) error {
		for i := lo; i < hi; i++ {
			x := xLo + i
			localX := x - f.Position.MinX
			raw := int32(f.Matrix.IntAt(0, localX, localY))
			labels[i] = log.Reindex(raw)
			positions[i] = x
		}
		return nil
	})
	if err != nil {
		return nil, nil, mberr.Wrap(mberr.Internal, "stitch.extractRow", err)
	}
	return labels, positions, nil
}

// centroidRuns scans labels in position order and returns, for each
// maximal run of equal non-zero labels, the centroid (mean position) of
// the run and the label it carries.
func centroidRuns(labels []int32, positions []int64) ([]float64, []int32) {
	var centroids []float64
	var runLabels []int32
	i := 0
	for i < len(labels) {
		if labels[i] == 0 {
			i++
			continue
		}
		j := i + 1
		for j < len(labels) && labels[j] == labels[i] {
			j++
		}
		var sum int64
		for k := i; k < j; k++ {
			sum += positions[k]
		}
		centroids = append(centroids, float64(sum)/float64(j-i))
		runLabels = append(runLabels, labels[i])
		i = j
	}
	return centroids, runLabels
}

// markPartialEdges sets, in partial, the bit for every raw (not
// reindexed) label of newFrame with at least one border pixel whose
// immediately adjacent outside pixel is not covered by any other
// already-existing frame (i.e. a genuinely exposed edge, not one
// internal to a bigger, already-stitched region).
func markPartialEdges(newFrame frame.Frame, existing []frame.Frame, partial *roaring.Bitmap) {
	rects := make([]rectgeom.Rect, 0, len(existing))
	for _, f := range existing {
		rects = append(rects, f.Position)
	}
	pos := newFrame.Position

	mark := func(x, y, outsideX, outsideY int64) {
		unit := rectgeom.Rect{MinX: outsideX, MinY: outsideY, MaxX: outsideX, MaxY: outsideY}
		if rectgeom.Covers(rects, unit) {
			return
		}
		raw := int32(newFrame.Matrix.IntAt(0, x-pos.MinX, y-pos.MinY))
		if raw != 0 {
			partial.Set(uint32(raw))
		}
	}
	for x := pos.MinX; x <= pos.MaxX; x++ {
		mark(x, pos.MinY, x, pos.MinY-1)
		mark(x, pos.MaxY, x, pos.MaxY+1)
	}
	for y := pos.MinY; y <= pos.MaxY; y++ {
		mark(pos.MinX, y, pos.MinX-1, y)
		mark(pos.MaxX, y, pos.MaxX+1, y)
	}
}

// JointingPolicy decides how objects extending past the jointing
// expansion rectangle are handled.
type JointingPolicy int

const (
	// SkipTooLarge drops any object (by base label) with a pixel outside
	// the expansion rectangle entirely.
	SkipTooLarge JointingPolicy = iota
	// RetainLastPart keeps such an object clipped to the expansion
	// rectangle instead of dropping it.
	RetainLastPart
)

// JointOptions configures RenderJointed.
type JointOptions struct {
	Expansion                  rectgeom.Rect
	Policy                     JointingPolicy
	AutoCrop                   bool
	ZeroPaddingX, ZeroPaddingY int64
}

// Validate checks that opts describes a usable render.
func (o JointOptions) Validate() error {
	if o.ZeroPaddingX < 0 || o.ZeroPaddingY < 0 {
		return mberr.Wrap(mberr.BadInput, "stitch.JointOptions.Validate", fmt.Errorf("zero padding must be non-negative, got (%d,%d)", o.ZeroPaddingX, o.ZeroPaddingY))
	}
	return nil
}

// RenderJointed renders the expansion rectangle of opts using frames (all
// currently held, insertion-ordered), with channel 0 reindexed through
// log and gated by the SkipTooLarge policy against partial (the raw
// rawPartialObjects bit-set, fed through log.ReindexByAnd to find
// complete objects). It returns the rendered matrix and the rectangle it
// actually covers after auto-crop and zero-padding.
func RenderJointed(frames []frame.Frame, log *pairlog.Log, partial *roaring.Bitmap, opts JointOptions) (matrixio.Matrix, rectgeom.Rect, error) {
	if err := opts.Validate(); err != nil {
		return nil, rectgeom.Rect{}, err
	}
	e := opts.Expansion
	out, err := matrixio.DenseFactory.New(matrixio.I32, 1, e.SizeX(), e.SizeY())
	if err != nil {
		return nil, rectgeom.Rect{}, mberr.Wrap(mberr.Internal, "stitch.RenderJointed", err)
	}
	dense := out.(*matrixio.DenseMatrix)

	log.ResolveAllBases()

	complete := log.ReindexByAnd(partial)

	extendsBeyond := make(map[int32]bool)
	if opts.Policy == SkipTooLarge {
		for _, f := range frames {
			pos := f.Position
			for y := pos.MinY; y <= pos.MaxY; y++ {
				for x := pos.MinX; x <= pos.MaxX; x++ {
					raw := int32(f.Matrix.IntAt(0, x-pos.MinX, y-pos.MinY))
					if raw == 0 {
						continue
					}
					base := log.Reindex(raw)
					if !e.ContainsPoint(x, y) {
						extendsBeyond[base] = true
					}
				}
			}
		}
	}

	for _, f := range frames {
		inter, ok := f.Position.Intersect(e)
		if !ok {
			continue
		}
		for y := inter.MinY; y <= inter.MaxY; y++ {
			for x := inter.MinX; x <= inter.MaxX; x++ {
				raw := int32(f.Matrix.IntAt(0, x-f.Position.MinX, y-f.Position.MinY))
				if raw == 0 {
					continue
				}
				base := log.Reindex(raw)
				if opts.Policy == SkipTooLarge && extendsBeyond[base] && !complete.Contains(uint32(base)) {
					continue
				}
				dense.Set(0, x-e.MinX, y-e.MinY, float64(base))
			}
		}
	}

	var resultMatrix matrixio.Matrix = dense
	resultRect := e
	if opts.AutoCrop {
		resultMatrix, resultRect = autoCrop(dense, e)
	}
	if opts.ZeroPaddingX > 0 || opts.ZeroPaddingY > 0 {
		resultMatrix, resultRect = zeroPad(resultMatrix, resultRect, opts.ZeroPaddingX, opts.ZeroPaddingY)
	}
	return resultMatrix, resultRect, nil
}

// autoCrop trims all-zero leading/trailing rows and columns from m (whose
// absolute position is pos), returning the cropped matrix and its new
// absolute position. If m is entirely zero, it is returned unchanged.
func autoCrop(m *matrixio.DenseMatrix, pos rectgeom.Rect) (matrixio.Matrix, rectgeom.Rect) {
	dimX, dimY := m.Dim(0), m.Dim(1)
	minX, minY := dimX, dimY
	maxX, maxY := int64(-1), int64(-1)
	for y := int64(0); y < dimY; y++ {
		for x := int64(0); x < dimX; x++ {
			if m.IntAt(0, x, y) == 0 {
				continue
			}
			if x < minX {
				minX = x
			}
			if x > maxX {
				maxX = x
			}
			if y < minY {
				minY = y
			}
			if y > maxY {
				maxY = y
			}
		}
	}
	if maxX < 0 {
		return m, pos
	}
	cropped := m.SubView(minX, minY, maxX-minX+1, maxY-minY+1)
	newPos := rectgeom.Rect{
		MinX: pos.MinX + minX, MinY: pos.MinY + minY,
		MaxX: pos.MinX + maxX, MaxY: pos.MinY + maxY,
	}
	return cropped, newPos
}

// zeroPad adds padX/padY zero-valued pixels on every side of m, which
// SubFrameWithZeroContinuation-style views already read as zero, so this
// is implemented as a plain dilated SubView.
func zeroPad(m matrixio.Matrix, pos rectgeom.Rect, padX, padY int64) (matrixio.Matrix, rectgeom.Rect) {
	dimX, dimY := m.Dim(0), m.Dim(1)
	padded := m.SubView(-padX, -padY, dimX+2*padX, dimY+2*padY)
	newPos := rectgeom.Rect{
		MinX: pos.MinX - padX, MinY: pos.MinY - padY,
		MaxX: pos.MaxX + padX, MaxY: pos.MaxY + padY,
	}
	return padded, newPos
}
