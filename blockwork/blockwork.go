// Package blockwork provides the single fork/join block-parallelism
// primitive used by every row-partitioned pass in the Map Buffer
// subsystem: label shift + next-indexing-base, the reindexed rectangular
// read, the label-line reindex, and the sequential-reindex two-pass. No
// result from a block is observable by the caller until every block has
// completed, satisfying the join-boundary requirement the concurrency
// model imposes on internal parallelism.
package blockwork

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// FrameBlockRows is the reference block size for whole-frame row-parallel
// passes (label shift, reindexed rectangular read, sequential reindex).
const FrameBlockRows = 256

// LineBlockRows is the reference block size for the thin label-line
// extraction used by the frame object stitcher.
const LineBlockRows = 16

// Func is the unit of work for one block: the half-open row range
// [lo, hi).
type Func func(lo, hi int64) error

// Run partitions [0, total) into blocks of at most blockSize rows and
// runs fn on each block concurrently via an errgroup.Group, returning the
// first error encountered (if any) only after every block has finished.
// blockSize <= 0 or total <= 0 runs fn once over the whole range (or not
// at all, for total <= 0).
func Run(ctx context.Context, total int64, blockSize int64, fn Func) error {
	if total <= 0 {
		return nil
	}
	if blockSize <= 0 || blockSize >= total {
		return fn(0, total)
	}

	g, _ := errgroup.WithContext(ctx)
	for lo := int64(0); lo < total; lo += blockSize {
		hi := lo + blockSize
		if hi > total {
			hi = total
		}
		lo, hi := lo, hi
		g.Go(func() error {
			return fn(lo, hi)
		})
	}
	return g.Wait()
}
