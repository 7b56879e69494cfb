package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func TestCloudBasics(t *testing.T) {
	pc := New()
	test.That(t, pc.Size(), test.ShouldEqual, 0)
	test.That(t, pc.Centroid(), test.ShouldResemble, r3.Vector{})

	pc.Append(r3.Vector{X: 1, Y: 2, Z: 3})
	pc.Append(r3.Vector{X: 3, Y: 0, Z: -1})
	test.That(t, pc.Size(), test.ShouldEqual, 2)
	test.That(t, pc.At(0), test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 3})
	test.That(t, pc.At(1), test.ShouldResemble, r3.Vector{X: 3, Y: 0, Z: -1})

	meta := pc.MetaData()
	test.That(t, meta.MinX, test.ShouldAlmostEqual, 1.0)
	test.That(t, meta.MaxX, test.ShouldAlmostEqual, 3.0)
	test.That(t, meta.MinZ, test.ShouldAlmostEqual, -1.0)
	test.That(t, meta.MaxZ, test.ShouldAlmostEqual, 3.0)

	c := pc.Centroid()
	test.That(t, c.X, test.ShouldAlmostEqual, 2.0)
	test.That(t, c.Y, test.ShouldAlmostEqual, 1.0)
	test.That(t, c.Z, test.ShouldAlmostEqual, 1.0)
}

func TestCloudIterateOrder(t *testing.T) {
	pc := New()
	pts := []r3.Vector{{X: 1}, {X: 2}, {X: 3}, {X: 4}}
	for _, p := range pts {
		pc.Append(p)
	}

	var seen []float64
	pc.Iterate(func(i int, p r3.Vector) bool {
		test.That(t, p, test.ShouldResemble, pts[i])
		seen = append(seen, p.X)
		return true
	})
	test.That(t, seen, test.ShouldResemble, []float64{1, 2, 3, 4})

	// early exit
	count := 0
	pc.Iterate(func(i int, p r3.Vector) bool {
		count++
		return count < 2
	})
	test.That(t, count, test.ShouldEqual, 2)
}
