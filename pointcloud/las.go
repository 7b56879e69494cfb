package pointcloud

import (
	"github.com/edaniels/golog"
	"github.com/edaniels/lidario"
	"github.com/golang/geo/r3"
	"go.viam.com/utils"
)

// NewFromLASFile returns a point cloud from reading a LAS file. Only point
// positions are retained.
func NewFromLASFile(fn string, logger golog.Logger) (*Cloud, error) {
	lf, err := lidario.NewLasFile(fn, "r")
	if err != nil {
		return nil, err
	}
	defer utils.UncheckedErrorFunc(lf.Close)

	pc := NewWithPrealloc(lf.Header.NumberPoints)
	for i := 0; i < lf.Header.NumberPoints; i++ {
		p, err := lf.LasPoint(i)
		if err != nil {
			return nil, &FormatError{Path: fn, Err: err}
		}
		data := p.PointData()
		pc.Append(r3.Vector{X: data.X, Y: data.Y, Z: data.Z})
	}
	logger.Debugw("loaded LAS cloud", "path", fn, "points", pc.Size())
	return pc, nil
}
