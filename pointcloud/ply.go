package pointcloud

import (
	"io"

	"github.com/chenzhekl/goply"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// ReadPLY reads the vertex element of a ply file into a Cloud.
func ReadPLY(in io.Reader) (*Cloud, error) {
	ply := goply.New(in)
	vertices := ply.Elements("vertex")
	pc := NewWithPrealloc(len(vertices))
	for i, v := range vertices {
		x, okX := plyFloat(v["x"])
		y, okY := plyFloat(v["y"])
		z, okZ := plyFloat(v["z"])
		if !okX || !okY || !okZ {
			return nil, errors.Errorf("ply vertex %d missing x/y/z properties", i)
		}
		pc.Append(r3.Vector{X: x, Y: y, Z: z})
	}
	return pc, nil
}

// plyFloat coerces a ply property value to float64; properties may decode as
// any numeric width depending on the file's declared types.
func plyFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}
