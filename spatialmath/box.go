// Package spatialmath defines the oriented bounding box used to annotate
// objects in a point cloud, along with its geometric transforms.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// MinExtent is the smallest dimension a box may have along any axis. Edits
// that would shrink an extent below this value are clamped, never rejected.
const MinExtent = 1e-2

// Ordered list of unit box vertices. Corners returns world-space corners in
// this order: the +Z ring counterclockwise, then the -Z ring beneath it.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: -1},
}

// BoxEdges is the 12 edges of a box as pairs of indices into Corners output.
var BoxEdges = [12][2]int{
	{0, 1}, {1, 2}, {2, 3}, {3, 0},
	{4, 5}, {5, 6}, {6, 7}, {7, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// Box is an oriented bounding box that rotates only about the vertical (Z)
// axis. A center, full dimensions and a yaw fully define its geometry; the
// class label and the two reserved fields ride along for persistence.
type Box struct {
	Center r3.Vector
	Dims   r3.Vector
	Yaw    float64
	Label  string

	// Reserved holds the two trailing numeric fields of a stored label.
	// Their semantics are opaque; they pass through edits and saves unmodified.
	Reserved [2]float64
}

// NewBox instantiates a validated Box. Dimensions must be strictly positive
// and the label non-empty; yaw is normalized to (-pi, pi].
func NewBox(center, dims r3.Vector, yaw float64, label string) (Box, error) {
	if dims.X <= 0 || dims.Y <= 0 || dims.Z <= 0 {
		return Box{}, errors.Errorf("box dimensions must be positive, got (%v, %v, %v)", dims.X, dims.Y, dims.Z)
	}
	if label == "" {
		return Box{}, errors.New("box label may not be empty")
	}
	return Box{Center: center, Dims: dims, Yaw: NormalizeYaw(yaw), Label: label}, nil
}

// String returns a human readable string that represents the box.
func (b Box) String() string {
	return fmt.Sprintf("Type: Box | Label: %s | Position: X:%.2f, Y:%.2f, Z:%.2f | Dims: X:%.2f, Y:%.2f, Z:%.2f | Yaw: %.3f",
		b.Label, b.Center.X, b.Center.Y, b.Center.Z, b.Dims.X, b.Dims.Y, b.Dims.Z, b.Yaw)
}

// halfSize returns the box half extents along its local axes.
func (b Box) halfSize() [3]float64 {
	return [3]float64{b.Dims.X / 2, b.Dims.Y / 2, b.Dims.Z / 2}
}

// Corners computes the 8 world-space corners of the box from its center,
// dimensions and yaw, ordered per boxVertices.
func (b Box) Corners() [8]r3.Vector {
	half := b.halfSize()
	cos, sin := math.Cos(b.Yaw), math.Sin(b.Yaw)
	var corners [8]r3.Vector
	for i, vert := range boxVertices {
		lx := vert.X * half[0]
		ly := vert.Y * half[1]
		lz := vert.Z * half[2]
		corners[i] = r3.Vector{
			X: b.Center.X + cos*lx - sin*ly,
			Y: b.Center.Y + sin*lx + cos*ly,
			Z: b.Center.Z + lz,
		}
	}
	return corners
}

// ToLocal translates a world point to the box center and inverse-rotates it
// into the box's axis-aligned local frame.
func (b Box) ToLocal(pt r3.Vector) r3.Vector {
	d := pt.Sub(b.Center)
	cos, sin := math.Cos(b.Yaw), math.Sin(b.Yaw)
	return r3.Vector{
		X: cos*d.X + sin*d.Y,
		Y: -sin*d.X + cos*d.Y,
		Z: d.Z,
	}
}

// ContainsPoint reports whether the world point lies inside the box. Points
// exactly on a face count as inside (closed interval).
func (b Box) ContainsPoint(pt r3.Vector) bool {
	local := b.ToLocal(pt)
	half := b.halfSize()
	return math.Abs(local.X) <= half[0] &&
		math.Abs(local.Y) <= half[1] &&
		math.Abs(local.Z) <= half[2]
}

// AxisAlignedBounds returns the world axis-aligned bounding box enclosing the
// oriented box, as min and max corners. Used to pre-filter containment tests.
func (b Box) AxisAlignedBounds() (r3.Vector, r3.Vector) {
	half := b.halfSize()
	cos, sin := math.Abs(math.Cos(b.Yaw)), math.Abs(math.Sin(b.Yaw))
	// Extents of a yaw-rotated rectangle are |c|*w + |s|*h and |s|*w + |c|*h.
	ex := cos*half[0] + sin*half[1]
	ey := sin*half[0] + cos*half[1]
	min := r3.Vector{X: b.Center.X - ex, Y: b.Center.Y - ey, Z: b.Center.Z - half[2]}
	max := r3.Vector{X: b.Center.X + ex, Y: b.Center.Y + ey, Z: b.Center.Z + half[2]}
	return min, max
}

// Delta is an incremental update to a box produced by an edit gesture.
type Delta struct {
	Center r3.Vector
	Dims   r3.Vector
	Yaw    float64
}

// ApplyDelta returns the box updated by the given delta. Dimensions are
// clamped at MinExtent so an edit can never invert or flatten the box; yaw is
// re-normalized. The receiver is not modified.
func (b Box) ApplyDelta(d Delta) Box {
	out := b
	out.Center = b.Center.Add(d.Center)
	out.Dims = r3.Vector{
		X: clampExtent(b.Dims.X + d.Dims.X),
		Y: clampExtent(b.Dims.Y + d.Dims.Y),
		Z: clampExtent(b.Dims.Z + d.Dims.Z),
	}
	out.Yaw = NormalizeYaw(b.Yaw + d.Yaw)
	return out
}

// AlmostEqual compares two boxes within a fixed geometric tolerance. Labels
// and reserved fields are ignored.
func (b Box) AlmostEqual(other Box) bool {
	return Float64AlmostEqual(b.Center.X, other.Center.X, floatEpsilon) &&
		Float64AlmostEqual(b.Center.Y, other.Center.Y, floatEpsilon) &&
		Float64AlmostEqual(b.Center.Z, other.Center.Z, floatEpsilon) &&
		Float64AlmostEqual(b.Dims.X, other.Dims.X, floatEpsilon) &&
		Float64AlmostEqual(b.Dims.Y, other.Dims.Y, floatEpsilon) &&
		Float64AlmostEqual(b.Dims.Z, other.Dims.Z, floatEpsilon) &&
		Float64AlmostEqual(NormalizeYaw(b.Yaw), NormalizeYaw(other.Yaw), floatEpsilon)
}

func clampExtent(v float64) float64 {
	if v < MinExtent {
		return MinExtent
	}
	return v
}

// NormalizeYaw wraps an angle in radians into (-pi, pi].
func NormalizeYaw(yaw float64) float64 {
	yaw = math.Mod(yaw, 2*math.Pi)
	if yaw > math.Pi {
		yaw -= 2 * math.Pi
	} else if yaw <= -math.Pi {
		yaw += 2 * math.Pi
	}
	return yaw
}
