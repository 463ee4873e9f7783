// Package rectgeom provides inclusive-integer rectangle arithmetic over
// the unbounded 2D plane the Map Buffer positions frames on. All
// coordinates are int64; sizes are always >= 1 on both axes.
package rectgeom

import (
	"fmt"
	"math"

	"github.com/cocosip/go-mapbuffer/mberr"
)

// Rect is an axis-aligned rectangle [MinX, MaxX] x [MinY, MaxY], both
// bounds inclusive.
type Rect struct {
	MinX, MinY int64
	MaxX, MaxY int64
}

// New builds a Rect from a left-top corner and a size. Size must be >= 1
// on both axes; the corner-plus-extent addition is checked for overflow.
func New(minX, minY, sizeX, sizeY int64) (Rect, error) {
	if sizeX < 1 || sizeY < 1 {
		return Rect{}, mberr.Wrap(mberr.BadShape, "rectgeom.New", fmt.Errorf("non-positive size %dx%d", sizeX, sizeY))
	}
	maxX, err := checkedAdd(minX, sizeX-1)
	if err != nil {
		return Rect{}, mberr.Wrap(mberr.BadShape, "rectgeom.New", err)
	}
	maxY, err := checkedAdd(minY, sizeY-1)
	if err != nil {
		return Rect{}, mberr.Wrap(mberr.BadShape, "rectgeom.New", err)
	}
	return Rect{MinX: minX, MinY: minY, MaxX: maxX, MaxY: maxY}, nil
}

func checkedAdd(a, b int64) (int64, error) {
	sum := a + b
	if (b > 0 && sum < a) || (b < 0 && sum > a) {
		return 0, fmt.Errorf("integer overflow adding %d + %d", a, b)
	}
	return sum, nil
}

// SizeX returns the rectangle's width.
func (r Rect) SizeX() int64 { return r.MaxX - r.MinX + 1 }

// SizeY returns the rectangle's height.
func (r Rect) SizeY() int64 { return r.MaxY - r.MinY + 1 }

// Area returns SizeX * SizeY.
func (r Rect) Area() int64 { return r.SizeX() * r.SizeY() }

// Empty reports whether r has no extent (the zero value).
func (r Rect) Empty() bool { return r.MaxX < r.MinX || r.MaxY < r.MinY }

// Intersects reports whether r and o share at least one point.
func (r Rect) Intersects(o Rect) bool {
	return r.MinX <= o.MaxX && o.MinX <= r.MaxX && r.MinY <= o.MaxY && o.MinY <= r.MaxY
}

// Intersect returns the overlapping rectangle of r and o, and whether the
// two actually intersect.
func (r Rect) Intersect(o Rect) (Rect, bool) {
	if !r.Intersects(o) {
		return Rect{}, false
	}
	return Rect{
		MinX: max64(r.MinX, o.MinX),
		MinY: max64(r.MinY, o.MinY),
		MaxX: min64(r.MaxX, o.MaxX),
		MaxY: min64(r.MaxY, o.MaxY),
	}, true
}

// Union returns the minimal rectangle enclosing both r and o.
func (r Rect) Union(o Rect) Rect {
	return Rect{
		MinX: min64(r.MinX, o.MinX),
		MinY: min64(r.MinY, o.MinY),
		MaxX: max64(r.MaxX, o.MaxX),
		MaxY: max64(r.MaxY, o.MaxY),
	}
}

// Contains reports whether o lies entirely within r.
func (r Rect) Contains(o Rect) bool {
	return r.MinX <= o.MinX && o.MaxX <= r.MaxX && r.MinY <= o.MinY && o.MaxY <= r.MaxY
}

// ContainsPoint reports whether (x, y) lies within r.
func (r Rect) ContainsPoint(x, y int64) bool {
	return x >= r.MinX && x <= r.MaxX && y >= r.MinY && y <= r.MaxY
}

// Dilate grows r by margin on every side. A negative margin shrinks it;
// the result may become Empty.
func (r Rect) Dilate(margin int64) Rect {
	return Rect{
		MinX: r.MinX - margin,
		MinY: r.MinY - margin,
		MaxX: r.MaxX + margin,
		MaxY: r.MaxY + margin,
	}
}

// Subtract returns the set of inclusive rectangles covering r \ o (r minus
// the part overlapping o). Returns {r} unchanged if the two don't
// intersect.
func (r Rect) Subtract(o Rect) []Rect {
	inter, ok := r.Intersect(o)
	if !ok {
		return []Rect{r}
	}
	var out []Rect
	if r.MinY < inter.MinY {
		out = append(out, Rect{MinX: r.MinX, MinY: r.MinY, MaxX: r.MaxX, MaxY: inter.MinY - 1})
	}
	if inter.MaxY < r.MaxY {
		out = append(out, Rect{MinX: r.MinX, MinY: inter.MaxY + 1, MaxX: r.MaxX, MaxY: r.MaxY})
	}
	if r.MinX < inter.MinX {
		out = append(out, Rect{MinX: r.MinX, MinY: inter.MinY, MaxX: inter.MinX - 1, MaxY: inter.MaxY})
	}
	if inter.MaxX < r.MaxX {
		out = append(out, Rect{MinX: inter.MaxX + 1, MinY: inter.MinY, MaxX: r.MaxX, MaxY: inter.MaxY})
	}
	return out
}

// Covers reports whether the union of rects contains r as a set of
// points. Implemented by iteratively subtracting each candidate rectangle
// from the remaining uncovered pieces of r.
func Covers(rects []Rect, r Rect) bool {
	remaining := []Rect{r}
	for _, cand := range rects {
		if len(remaining) == 0 {
			return true
		}
		var next []Rect
		for _, piece := range remaining {
			if _, ok := piece.Intersect(cand); !ok {
				next = append(next, piece)
				continue
			}
			next = append(next, piece.Subtract(cand)...)
		}
		remaining = next
	}
	return len(remaining) == 0
}

// Bounding returns the minimal enclosing rectangle of rects. The second
// return is false if rects is empty.
func Bounding(rects []Rect) (Rect, bool) {
	if len(rects) == 0 {
		return Rect{}, false
	}
	out := rects[0]
	for _, r := range rects[1:] {
		out = out.Union(r)
	}
	return out, true
}

// Boundary returns the unit-thickness external boundary of rects: the
// point set dilate(rects, 1) \ rects, expressed as unit-thin rectangles.
// straightOnly excludes the diagonal corner cells from the dilation.
func Boundary(rects []Rect, straightOnly bool) []Rect {
	var out []Rect
	for _, r := range rects {
		candidates := []Rect{
			{MinX: r.MinX - 1, MinY: r.MinY, MaxX: r.MinX - 1, MaxY: r.MaxY}, // left strip
			{MinX: r.MaxX + 1, MinY: r.MinY, MaxX: r.MaxX + 1, MaxY: r.MaxY}, // right strip
			{MinX: r.MinX, MinY: r.MinY - 1, MaxX: r.MaxX, MaxY: r.MinY - 1}, // top strip
			{MinX: r.MinX, MinY: r.MaxY + 1, MaxX: r.MaxX, MaxY: r.MaxY + 1}, // bottom strip
		}
		if !straightOnly {
			candidates = append(candidates,
				Rect{MinX: r.MinX - 1, MinY: r.MinY - 1, MaxX: r.MinX - 1, MaxY: r.MinY - 1},
				Rect{MinX: r.MaxX + 1, MinY: r.MinY - 1, MaxX: r.MaxX + 1, MaxY: r.MinY - 1},
				Rect{MinX: r.MinX - 1, MinY: r.MaxY + 1, MaxX: r.MinX - 1, MaxY: r.MaxY + 1},
				Rect{MinX: r.MaxX + 1, MinY: r.MaxY + 1, MaxX: r.MaxX + 1, MaxY: r.MaxY + 1},
			)
		}
		for _, c := range candidates {
			pieces := []Rect{c}
			for _, o := range rects {
				var next []Rect
				for _, p := range pieces {
					next = append(next, p.Subtract(o)...)
				}
				pieces = next
			}
			out = append(out, pieces...)
		}
	}
	return out
}

// StraightBoundary is Boundary with straightOnly set, excluding diagonal
// unit-dilation corners.
func StraightBoundary(rects []Rect) []Rect {
	return Boundary(rects, true)
}

func min64(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}

func max64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}

// CheckPixelCount validates that an area fits within the 2^31-1 pixel
// count limit matrices participating in reindexing must respect.
func CheckPixelCount(area int64) error {
	if area < 0 || area > math.MaxInt32 {
		return mberr.Wrap(mberr.BadShape, "rectgeom.CheckPixelCount", fmt.Errorf("pixel count %d exceeds 2^31-1", area))
	}
	return nil
}
