// Package projection maps oriented boxes between world space and the three
// orthographic editing planes, in both directions: box to 2-D footprint for
// display, and 2-D edit gesture back to a 3-D box delta.
//
// Views never own geometry. A footprint is derived from the canonical box on
// every refresh, and a gesture only ever produces a delta for the canonical
// box to apply.
package projection

import (
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"

	"github.com/cloudlabel/labelkit/spatialmath"
)

// Plane identifies one of the three orthographic editing planes.
type Plane int

const (
	// PlaneXY looks down the Z axis (the ground plane; yaw rotates here).
	PlaneXY Plane = iota
	// PlaneXZ looks down the Y axis.
	PlaneXZ
	// PlaneYZ looks down the X axis.
	PlaneYZ
)

func (p Plane) String() string {
	switch p {
	case PlaneXY:
		return "XY"
	case PlaneXZ:
		return "XZ"
	case PlaneYZ:
		return "YZ"
	default:
		return "unknown"
	}
}

// Footprint is the outline of a box in one plane: four corners plus their
// axis-aligned bounds. In the XY plane the outline is a rotated rectangle;
// in XZ and YZ yaw only widens the horizontal extent, so the outline is the
// axis-aligned rectangle itself.
type Footprint struct {
	Plane   Plane
	Corners [4]r2.Point
	Min     r2.Point
	Max     r2.Point
}

// Project orthographically drops one world axis of the box and returns its
// footprint in the given plane.
func Project(b spatialmath.Box, plane Plane) Footprint {
	fp := Footprint{Plane: plane}
	min, max := b.AxisAlignedBounds()
	switch plane {
	case PlaneXY:
		corners := b.Corners()
		// the +Z ring carries the rotated rectangle outline
		for i := 0; i < 4; i++ {
			fp.Corners[i] = r2.Point{X: corners[i].X, Y: corners[i].Y}
		}
		fp.Min = r2.Point{X: min.X, Y: min.Y}
		fp.Max = r2.Point{X: max.X, Y: max.Y}
	case PlaneXZ:
		fp.Min = r2.Point{X: min.X, Y: min.Z}
		fp.Max = r2.Point{X: max.X, Y: max.Z}
		fp.Corners = rectCorners(fp.Min, fp.Max)
	case PlaneYZ:
		fp.Min = r2.Point{X: min.Y, Y: min.Z}
		fp.Max = r2.Point{X: max.Y, Y: max.Z}
		fp.Corners = rectCorners(fp.Min, fp.Max)
	}
	return fp
}

func rectCorners(min, max r2.Point) [4]r2.Point {
	return [4]r2.Point{
		{X: max.X, Y: max.Y},
		{X: max.X, Y: min.Y},
		{X: min.X, Y: min.Y},
		{X: min.X, Y: max.Y},
	}
}

// GestureKind is the type of 2-D edit being performed.
type GestureKind int

const (
	// Translate drags the whole footprint, moving the two in-plane center
	// coordinates.
	Translate GestureKind = iota
	// Resize drags a scale handle, changing the two in-plane extents.
	Resize
	// Rotate spins the footprint about the dropped axis; only meaningful in
	// the plane containing the rotation axis (XY for a yaw-only box).
	Rotate
)

// Gesture is a 2-D edit expressed in one plane's coordinates.
type Gesture struct {
	Kind  GestureKind
	Plane Plane
	// Delta is the in-plane translation (Translate) or size change (Resize).
	Delta r2.Point
	// Yaw is the rotation delta in radians (Rotate only).
	Yaw float64
}

// Unproject computes the 3-D box delta corresponding to a 2-D gesture. The
// second return is false when the gesture is rejected: only the XY plane
// contains the rotation axis, so rotation gestures elsewhere produce no
// delta.
func Unproject(g Gesture) (spatialmath.Delta, bool) {
	var delta spatialmath.Delta
	switch g.Kind {
	case Translate:
		switch g.Plane {
		case PlaneXY:
			delta.Center = r3.Vector{X: g.Delta.X, Y: g.Delta.Y}
		case PlaneXZ:
			delta.Center = r3.Vector{X: g.Delta.X, Z: g.Delta.Y}
		case PlaneYZ:
			delta.Center = r3.Vector{Y: g.Delta.X, Z: g.Delta.Y}
		}
	case Resize:
		switch g.Plane {
		case PlaneXY:
			delta.Dims = r3.Vector{X: g.Delta.X, Y: g.Delta.Y}
		case PlaneXZ:
			delta.Dims = r3.Vector{X: g.Delta.X, Z: g.Delta.Y}
		case PlaneYZ:
			delta.Dims = r3.Vector{Y: g.Delta.X, Z: g.Delta.Y}
		}
	case Rotate:
		if g.Plane != PlaneXY {
			return spatialmath.Delta{}, false
		}
		delta.Yaw = g.Yaw
	}
	return delta, true
}
