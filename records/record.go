// Package records owns the in-memory list of labeled annotation records for a
// session and their JSON persistence.
package records

import (
	"encoding/json"
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/cloudlabel/labelkit/spatialmath"
)

// boundingBoxFields is the length of the stored BoundingBoxes array:
// cx, cy, cz, w, h, d, yaw, plus two reserved values.
const boundingBoxFields = 9

// Label is one annotated object within a record.
type Label struct {
	Class         string    `json:"Class"`
	BoundingBoxes []float64 `json:"BoundingBoxes"`
}

// Record is one frame's annotations: a timestamp, the declared source file
// name, and an ordered sequence of labels. Label order is meaningful; it is
// the display and classification tie-break order.
type Record struct {
	Timestamp float64 `json:"Timestamp"`
	File      string  `json:"File"`
	Labels    []Label `json:"Labels"`

	// loadErr flags a record whose labels failed validation at load time.
	// The record stays navigable but exposes no boxes.
	loadErr error
	// raw is the record's original JSON, kept so a flagged record is written
	// back verbatim instead of as a zero value.
	raw json.RawMessage
}

// MarshalJSON re-emits a flagged record's original JSON untouched; a healthy
// record marshals normally.
func (r Record) MarshalJSON() ([]byte, error) {
	if r.loadErr != nil && len(r.raw) > 0 {
		return r.raw, nil
	}
	type plain Record
	return json.Marshal(plain(r))
}

// Err returns the validation error this record was flagged with at load
// time, if any.
func (r *Record) Err() error {
	return r.loadErr
}

// ParseError reports a malformed label file or record.
type ParseError struct {
	Path  string
	Index int // record index, or -1 when the whole file is unreadable
	Err   error
}

func (e *ParseError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("cannot parse label file %q: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("cannot parse record %d of %q: %v", e.Index, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Box converts the label's stored array into an oriented box. The two
// trailing reserved values are carried over opaquely.
func (l Label) Box() (spatialmath.Box, error) {
	if len(l.BoundingBoxes) != boundingBoxFields {
		return spatialmath.Box{}, errors.Errorf("label %q has %d bounding box values, want %d",
			l.Class, len(l.BoundingBoxes), boundingBoxFields)
	}
	v := l.BoundingBoxes
	box, err := spatialmath.NewBox(
		r3.Vector{X: v[0], Y: v[1], Z: v[2]},
		r3.Vector{X: v[3], Y: v[4], Z: v[5]},
		v[6],
		l.Class,
	)
	if err != nil {
		return spatialmath.Box{}, err
	}
	box.Reserved = [2]float64{v[7], v[8]}
	return box, nil
}

// NewLabel converts a box back into its stored form.
func NewLabel(b spatialmath.Box) Label {
	return Label{
		Class: b.Label,
		BoundingBoxes: []float64{
			b.Center.X, b.Center.Y, b.Center.Z,
			b.Dims.X, b.Dims.Y, b.Dims.Z,
			b.Yaw,
			b.Reserved[0], b.Reserved[1],
		},
	}
}

// Boxes converts all labels of the record, in order.
func (r *Record) Boxes() ([]spatialmath.Box, error) {
	if r.loadErr != nil {
		return nil, r.loadErr
	}
	boxes := make([]spatialmath.Box, 0, len(r.Labels))
	for _, l := range r.Labels {
		b, err := l.Box()
		if err != nil {
			return nil, err
		}
		boxes = append(boxes, b)
	}
	return boxes, nil
}

// SetBoxes replaces the record's labels with the given boxes, preserving
// order.
func (r *Record) SetBoxes(boxes []spatialmath.Box) {
	labels := make([]Label, 0, len(boxes))
	for _, b := range boxes {
		labels = append(labels, NewLabel(b))
	}
	r.Labels = labels
}

// validate flags structural problems that should not abort the whole load.
func (r *Record) validate() error {
	for i, l := range r.Labels {
		if len(l.BoundingBoxes) != boundingBoxFields {
			return errors.Errorf("label %d (%q) has %d bounding box values, want %d",
				i, l.Class, len(l.BoundingBoxes), boundingBoxFields)
		}
		if l.Class == "" {
			return errors.Errorf("label %d has an empty class", i)
		}
	}
	return nil
}
