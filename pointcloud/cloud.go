// Package pointcloud defines an ordered, index-addressable point cloud and
// readers for the on-disk formats annotation frames are stored in.
//
// Point order is meaningful: classification results refer to points by index,
// so a cloud is append-only and never reordered once loaded.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/stat"
)

// MetaData is aggregate data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// NewMetaData returns a MetaData ready to merge points into.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64, MaxX: -math.MaxFloat64,
		MinY: math.MaxFloat64, MaxY: -math.MaxFloat64,
		MinZ: math.MaxFloat64, MaxZ: -math.MaxFloat64,
	}
}

// Merge folds a point into the running bounds.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}
	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}
}

// Cloud is an ordered sequence of 3-D points backed by a slice.
type Cloud struct {
	points []r3.Vector
	meta   MetaData
}

// New returns an empty Cloud.
func New() *Cloud {
	return NewWithPrealloc(0)
}

// NewWithPrealloc returns an empty Cloud with capacity for size points.
func NewWithPrealloc(size int) *Cloud {
	return &Cloud{
		points: make([]r3.Vector, 0, size),
		meta:   NewMetaData(),
	}
}

// Size returns the number of points in the cloud.
func (cloud *Cloud) Size() int {
	return len(cloud.points)
}

// MetaData returns the running bounds of the cloud.
func (cloud *Cloud) MetaData() MetaData {
	return cloud.meta
}

// At returns the point at the given index.
func (cloud *Cloud) At(i int) r3.Vector {
	return cloud.points[i]
}

// Append adds a point to the end of the cloud.
func (cloud *Cloud) Append(p r3.Vector) {
	cloud.points = append(cloud.points, p)
	cloud.meta.Merge(p)
}

// Iterate calls fn for each point in order. If fn returns false, iteration
// stops.
func (cloud *Cloud) Iterate(fn func(i int, p r3.Vector) bool) {
	for i, p := range cloud.points {
		if !fn(i, p) {
			return
		}
	}
}

// Centroid returns the mean position of all points, or the zero vector for an
// empty cloud.
func (cloud *Cloud) Centroid() r3.Vector {
	if len(cloud.points) == 0 {
		return r3.Vector{}
	}
	xs := make([]float64, len(cloud.points))
	ys := make([]float64, len(cloud.points))
	zs := make([]float64, len(cloud.points))
	for i, p := range cloud.points {
		xs[i], ys[i], zs[i] = p.X, p.Y, p.Z
	}
	return r3.Vector{
		X: stat.Mean(xs, nil),
		Y: stat.Mean(ys, nil),
		Z: stat.Mean(zs, nil),
	}
}
