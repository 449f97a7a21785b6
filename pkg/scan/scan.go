// Package scan fills dense arrays column by column from profile queries.
//
// For every (x, y) column of a grid the scanner computes the ray endpoints
// through the column's voxel centers, asks a profile function to sample
// ZSize values along that ray into a reusable buffer, and marshals the buffer
// into [x, y, :] of the output array.
package scan

import (
	"context"

	"github.com/bits-and-blooms/bitset"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/spatial/r3"

	"gridmask/internal/logger"
	"gridmask/pkg/grid"
	"gridmask/pkg/marshal"
	"gridmask/pkg/volume"
)

// ProfileFunc samples len(buf) evenly spaced values from start to stop.
type ProfileFunc[T volume.Element] func(start, stop r3.Vec, buf []T) error

// PackedProfileFunc samples buf.Len() inside/outside bits from start to stop.
type PackedProfileFunc func(start, stop r3.Vec, buf *bitset.BitSet) error

// Options configures a scan.
type Options struct {
	// Verify enables the marshal verification pass for every column.
	Verify bool
	// Workers > 1 scans x rows concurrently. The profile function must then
	// be safe for concurrent use.
	Workers int
	Logger  *logger.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithVerify enables copy verification.
func WithVerify(v bool) Option {
	return func(o *Options) { o.Verify = v }
}

// WithWorkers sets the number of concurrent row workers.
func WithWorkers(n int) Option {
	return func(o *Options) { o.Workers = n }
}

// WithLogger sets the logger used to report scan progress.
func WithLogger(l *logger.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// Apply folds opts into a fresh Options value.
func Apply(opts ...Option) Options {
	o := Options{Workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.Workers < 1 {
		o.Workers = 1
	}
	o.Logger = logger.OrNoop(o.Logger)
	return o
}

// filler samples one column into buf. Each worker gets its own filler so
// scratch buffers are never shared.
type filler[T volume.Element] func(seg grid.Segment, buf []T) error

// Profiles scans g with fn and returns the sampled array.
func Profiles[T volume.Element](g grid.Grid, fn ProfileFunc[T], opts ...Option) (*volume.Array[T], error) {
	return run(g, Apply(opts...), func() filler[T] {
		return func(seg grid.Segment, buf []T) error {
			return fn(seg.Start, seg.Stop, buf)
		}
	})
}

// PackedProfiles scans g with a bit-packed profile function. Each column is
// sampled into a bitset pre-buffer and copied element by element into the
// boolean working buffer before it is marshaled.
func PackedProfiles(g grid.Grid, fn PackedProfileFunc, opts ...Option) (*volume.Array[bool], error) {
	return run(g, Apply(opts...), func() filler[bool] {
		pre := bitset.New(uint(g.ZSize))
		return func(seg grid.Segment, buf []bool) error {
			pre.ClearAll()
			if err := fn(seg.Start, seg.Stop, pre); err != nil {
				return err
			}
			if len(buf) > 0 && pre.Len() > uint(len(buf)) {
				pre.Shrink(uint(len(buf)) - 1)
			}
			for i := range buf {
				buf[i] = pre.Test(uint(i))
			}
			return nil
		}
	})
}

func run[T volume.Element](g grid.Grid, o Options, newFiller func() filler[T]) (*volume.Array[T], error) {
	out := volume.New[T](g.XSize, g.YSize, g.ZSize)
	columns := g.XSize * g.YSize
	log := o.Logger.WithGrid(g.XSize, g.YSize, g.ZSize)

	row := func(ctx context.Context, x int, fill filler[T], buf []T) error {
		for y, seg := range g.Columns(x) {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fill(seg, buf); err != nil {
				return err
			}
			values, err := marshal.Marshal[T](marshal.Slice(buf), marshal.WithVerify(o.Verify))
			if err != nil {
				return err
			}
			if err := out.SetColumn(x, y, values); err != nil {
				return err
			}
		}
		return nil
	}

	var err error
	if o.Workers == 1 {
		fill, buf := newFiller(), make([]T, g.ZSize)
		for x := 0; x < g.XSize && err == nil; x++ {
			err = row(context.Background(), x, fill, buf)
		}
	} else {
		// the first collaborator fault cancels ctx; rows still queued or
		// in flight stop before their next column
		eg, ctx := errgroup.WithContext(context.Background())
		eg.SetLimit(o.Workers)
		for x := 0; x < g.XSize && ctx.Err() == nil; x++ {
			eg.Go(func() error {
				return row(ctx, x, newFiller(), make([]T, g.ZSize))
			})
		}
		err = eg.Wait()
	}

	log.LogScan(context.Background(), columns, o.Workers, err)
	if err != nil {
		return nil, err
	}
	return out, nil
}
