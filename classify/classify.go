// Package classify partitions the points of a cloud among the oriented boxes
// of the active record, for highlighting.
package classify

import (
	"context"
	"runtime"

	"github.com/golang/geo/r3"
	"golang.org/x/sync/errgroup"

	"github.com/cloudlabel/labelkit/pointcloud"
	"github.com/cloudlabel/labelkit/spatialmath"
)

// Unclassified marks a point that lies outside every box.
const Unclassified = -1

// Result assigns each point index to the index of the first box in record
// order that contains it, or Unclassified.
type Result []int

// BoxFor returns the box index assigned to point i.
func (r Result) BoxFor(i int) int {
	return r[i]
}

// Inside returns the indices of all points assigned to the given box.
func (r Result) Inside(box int) []int {
	var out []int
	for i, b := range r {
		if b == box {
			out = append(out, i)
		}
	}
	return out
}

// Count returns how many points are assigned to the given box.
func (r Result) Count(box int) int {
	n := 0
	for _, b := range r {
		if b == box {
			n++
		}
	}
	return n
}

// aabb is a precomputed world axis-aligned bound used to prune containment
// tests before the exact local-coordinate check.
type aabb struct {
	min, max r3.Vector
}

func (b aabb) contains(p r3.Vector) bool {
	return p.X >= b.min.X && p.X <= b.max.X &&
		p.Y >= b.min.Y && p.Y <= b.max.Y &&
		p.Z >= b.min.Z && p.Z <= b.max.Z
}

func boundsFor(boxes []spatialmath.Box) []aabb {
	bounds := make([]aabb, len(boxes))
	for i, b := range boxes {
		bounds[i].min, bounds[i].max = b.AxisAlignedBounds()
	}
	return bounds
}

// Classify computes the assignment of every cloud point. A point inside
// multiple boxes goes to the earliest box in record order, so the scan can
// stop at the first match.
func Classify(cloud *pointcloud.Cloud, boxes []spatialmath.Box) Result {
	result := make(Result, cloud.Size())
	classifyRange(cloud, boxes, boundsFor(boxes), result, 0, cloud.Size())
	return result
}

func classifyRange(cloud *pointcloud.Cloud, boxes []spatialmath.Box, bounds []aabb, result Result, start, end int) {
	for i := start; i < end; i++ {
		p := cloud.At(i)
		result[i] = Unclassified
		for j, b := range boxes {
			if !bounds[j].contains(p) {
				continue
			}
			if b.ContainsPoint(p) {
				result[i] = j
				break
			}
		}
	}
}

// ClassifyParallel computes the same Result as Classify, splitting the cloud
// into contiguous index ranges across workers. The context aborts the scan
// early; a canceled classification returns the context's error and the
// partial result must be discarded by the caller.
func ClassifyParallel(ctx context.Context, cloud *pointcloud.Cloud, boxes []spatialmath.Box, workers int) (Result, error) {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	size := cloud.Size()
	if workers > size {
		workers = 1
	}
	result := make(Result, size)
	bounds := boundsFor(boxes)

	group, ctx := errgroup.WithContext(ctx)
	chunk := (size + workers - 1) / workers
	for start := 0; start < size; start += chunk {
		start := start
		end := start + chunk
		if end > size {
			end = size
		}
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			classifyRange(cloud, boxes, bounds, result, start, end)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return result, nil
}
