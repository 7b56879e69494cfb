package editor

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/edaniels/golog"

	"github.com/cloudlabel/labelkit/matching"
	"github.com/cloudlabel/labelkit/pointcloud"
	"github.com/cloudlabel/labelkit/records"
)

// CloudSource supplies the point cloud for a record's frame.
type CloudSource interface {
	CloudFor(rec *records.Record) (*pointcloud.Cloud, error)
}

// DirectorySource resolves record filenames against the cloud files found in
// a single directory, via the matching rules.
type DirectorySource struct {
	dir    string
	names  []string
	logger golog.Logger
}

// NewDirectorySource lists the readable cloud files in dir.
func NewDirectorySource(dir string, logger golog.Logger) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !pointcloud.IsSupportedFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	logger.Debugw("listed cloud directory", "dir", dir, "files", len(names))
	return &DirectorySource{dir: dir, names: names, logger: logger}, nil
}

// Names returns the cloud filenames available for matching.
func (s *DirectorySource) Names() []string {
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// CloudFor resolves and loads the cloud for the given record. Resolution
// failures return matching.ErrUnresolved wrapped; decoding failures return a
// pointcloud.FormatError. Both are recoverable: the caller shows an empty
// cloud and keeps the frame editable.
func (s *DirectorySource) CloudFor(rec *records.Record) (*pointcloud.Cloud, error) {
	name, err := matching.Resolve(rec.File, s.names, s.logger)
	if err != nil {
		return nil, err
	}
	return pointcloud.NewFromFile(filepath.Join(s.dir, name), s.logger)
}
