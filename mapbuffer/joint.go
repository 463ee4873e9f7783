package mapbuffer

import (
	"context"
	"fmt"

	"github.com/cocosip/go-mapbuffer/frame"
	"github.com/cocosip/go-mapbuffer/matrixio"
	"github.com/cocosip/go-mapbuffer/mberr"
	"github.com/cocosip/go-mapbuffer/rectgeom"
	"github.com/cocosip/go-mapbuffer/stitch"
)

// JointReadOptions are the per-read options for the jointed read of the
// last frame ("jointing").
type JointReadOptions struct {
	// HasJointExpansion gates JointExpansionX/Y; with it false, the
	// expansion rectangle is exactly the last frame's own position.
	HasJointExpansion        bool
	JointExpansionX          int64
	JointExpansionY          int64
	JointExpansionInPercents bool

	Policy       stitch.JointingPolicy
	AutoCrop     bool
	ZeroPaddingX int64
	ZeroPaddingY int64

	SequentiallyReindex     bool
	ZeroBasedRestoringTable bool
}

// Validate checks that opts describes a usable jointed read.
func (o JointReadOptions) Validate() error {
	if o.ZeroPaddingX < 0 || o.ZeroPaddingY < 0 {
		return mberr.Wrap(mberr.BadInput, "mapbuffer.JointReadOptions.Validate", fmt.Errorf(
			"zero padding must be non-negative, got (%d,%d)", o.ZeroPaddingX, o.ZeroPaddingY))
	}
	if o.HasJointExpansion && (o.JointExpansionX < 0 || o.JointExpansionY < 0) {
		return mberr.Wrap(mberr.BadInput, "mapbuffer.JointReadOptions.Validate", fmt.Errorf(
			"joint expansion must be non-negative, got (%d,%d)", o.JointExpansionX, o.JointExpansionY))
	}
	return nil
}

// JointResult is the outcome of a jointed read.
type JointResult struct {
	Matrix         matrixio.Matrix
	Rect           rectgeom.Rect
	RestoringTable frame.RestoringTable
}

// ReadJointed renders the expansion rectangle of the last added frame
// ("jointing"), optionally sequentially reindexing the result before
// returning it.
func (mb *MapBuffer) ReadJointed(ctx context.Context, opts JointReadOptions) (JointResult, error) {
	if err := opts.Validate(); err != nil {
		return JointResult{}, err
	}
	if len(mb.frames) == 0 {
		return JointResult{}, mberr.Wrap(mberr.NotFound, "mapbuffer.ReadJointed", fmt.Errorf("buffer has no frames"))
	}
	last := mb.frames[len(mb.frames)-1]

	expansion := last.Position
	if opts.HasJointExpansion {
		dx, dy := opts.JointExpansionX, opts.JointExpansionY
		if opts.JointExpansionInPercents {
			dx = last.Position.SizeX() * dx / 100
			dy = last.Position.SizeY() * dy / 100
		}
		expansion = rectgeom.Rect{
			MinX: last.Position.MinX - dx, MinY: last.Position.MinY - dy,
			MaxX: last.Position.MaxX + dx, MaxY: last.Position.MaxY + dy,
		}
	}

	out, rect, err := stitch.RenderJointed(mb.frames, mb.pairLog, mb.rawPartialObjects, stitch.JointOptions{
		Expansion:    expansion,
		Policy:       opts.Policy,
		AutoCrop:     opts.AutoCrop,
		ZeroPaddingX: opts.ZeroPaddingX,
		ZeroPaddingY: opts.ZeroPaddingY,
	})
	if err != nil {
		return JointResult{}, err
	}

	if !opts.SequentiallyReindex {
		return JointResult{Matrix: out, Rect: rect}, nil
	}

	joined, err := frame.New(rect, out)
	if err != nil {
		return JointResult{}, err
	}
	reindexed, table, err := joined.SequentiallyReindex(ctx, opts.ZeroBasedRestoringTable)
	if err != nil {
		return JointResult{}, err
	}
	return JointResult{Matrix: reindexed.Matrix, Rect: reindexed.Position, RestoringTable: table}, nil
}
