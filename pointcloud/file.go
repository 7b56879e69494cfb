package pointcloud

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// CloudExtensions lists the point-cloud file extensions NewFromFile can read.
var CloudExtensions = []string{".pcd", ".ply", ".las"}

// FormatError indicates a cloud file was readable but not decodable. It is
// distinct from plain IO errors so callers can keep the frame navigable and
// show an empty cloud.
type FormatError struct {
	Path string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("cannot decode point cloud %q: %v", e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// IsSupportedFile reports whether the filename has a readable cloud extension.
func IsSupportedFile(fn string) bool {
	ext := strings.ToLower(filepath.Ext(fn))
	for _, e := range CloudExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// NewFromFile returns a point cloud read in from the given file, dispatching
// on the file extension.
func NewFromFile(fn string, logger golog.Logger) (*Cloud, error) {
	switch strings.ToLower(filepath.Ext(fn)) {
	case ".pcd":
		return readCloudFile(fn, ReadPCD)
	case ".ply":
		return readCloudFile(fn, ReadPLY)
	case ".las":
		return NewFromLASFile(fn, logger)
	default:
		return nil, errors.Errorf("do not know how to read file %q", fn)
	}
}

func readCloudFile(fn string, parse func(io.Reader) (*Cloud, error)) (_ *Cloud, err error) {
	//nolint:gosec
	f, oerr := os.Open(fn)
	if oerr != nil {
		return nil, oerr
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	cloud, perr := parse(f)
	if perr != nil {
		return nil, &FormatError{Path: fn, Err: perr}
	}
	return cloud, nil
}
