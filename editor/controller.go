// Package editor orchestrates interactive mutation of annotation records: it
// owns the canonical box state for the displayed frame, routes 2-D edit
// gestures through the projector, keeps classification current, and tells the
// views when to redraw.
package editor

import (
	"fmt"
	"math"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/cloudlabel/labelkit/classify"
	"github.com/cloudlabel/labelkit/pointcloud"
	"github.com/cloudlabel/labelkit/projection"
	"github.com/cloudlabel/labelkit/records"
	"github.com/cloudlabel/labelkit/spatialmath"
)

// State is the edit controller's interaction state for the active record.
type State int

const (
	// Idle means no box is selected.
	Idle State = iota
	// Selected means one box is chosen and may be rotated, renamed or deleted.
	Selected
	// Dragging means an edit gesture from a 2-D view is in progress.
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selected:
		return "selected"
	case Dragging:
		return "dragging"
	default:
		return "unknown"
	}
}

// DefaultFrameInterval throttles recomputation during a drag to one step per
// interactive frame.
const DefaultFrameInterval = 16 * time.Millisecond

// defaultDims is the size of a freshly added box.
var defaultDims = r3.Vector{X: 1, Y: 1, Z: 1}

// RefreshSink is notified after every committed geometric change so all views
// can re-derive their projections from the canonical state.
type RefreshSink interface {
	Refresh(frame int, result classify.Result)
}

// Config tunes a Controller. The zero value is usable.
type Config struct {
	// Clock drives drag throttling; tests substitute a mock.
	Clock clock.Clock
	// FrameInterval is the minimum spacing between drag recomputes.
	FrameInterval time.Duration
}

// Controller is the session context for one open label file. It owns the
// record list, the displayed frame's cloud and canonical boxes, and the
// selection state machine. Not safe for concurrent use; the interactive
// application drives it from a single event thread.
type Controller struct {
	logger golog.Logger
	clock  clock.Clock
	sink   RefreshSink
	source CloudSource

	labelPath string
	recs      []records.Record

	frame  int
	cloud  *pointcloud.Cloud
	boxes  []spatialmath.Box
	result classify.Result

	state     State
	sel       int
	dragPlane projection.Plane
	dragKind  projection.GestureKind
	lastStep  time.Time
	interval  time.Duration
}

// NewController builds the session for the given loaded records and shows
// frame 0.
func NewController(
	labelPath string,
	recs []records.Record,
	source CloudSource,
	sink RefreshSink,
	cfg Config,
	logger golog.Logger,
) (*Controller, error) {
	if len(recs) == 0 {
		return nil, errors.New("label file holds no records")
	}
	c := &Controller{
		logger:    logger,
		clock:     cfg.Clock,
		sink:      sink,
		source:    source,
		labelPath: labelPath,
		recs:      recs,
		sel:       -1,
		interval:  cfg.FrameInterval,
	}
	if c.clock == nil {
		c.clock = clock.New()
	}
	if c.interval <= 0 {
		c.interval = DefaultFrameInterval
	}
	c.loadFrame(0)
	return c, nil
}

// Frame returns the displayed record index.
func (c *Controller) Frame() int { return c.frame }

// RecordCount returns how many records the session holds.
func (c *Controller) RecordCount() int { return len(c.recs) }

// State returns the current interaction state.
func (c *Controller) State() State { return c.state }

// Selection returns the selected box index, or -1.
func (c *Controller) Selection() int { return c.sel }

// Boxes returns the canonical boxes of the displayed frame.
func (c *Controller) Boxes() []spatialmath.Box {
	out := make([]spatialmath.Box, len(c.boxes))
	copy(out, c.boxes)
	return out
}

// Result returns the latest classification of the displayed frame's cloud.
func (c *Controller) Result() classify.Result { return c.result }

// Cloud returns the displayed frame's point cloud.
func (c *Controller) Cloud() *pointcloud.Cloud { return c.cloud }

// Project returns the selected projection of box i in the displayed frame.
func (c *Controller) Project(i int, plane projection.Plane) (projection.Footprint, error) {
	if i < 0 || i >= len(c.boxes) {
		return projection.Footprint{}, errors.Errorf("no box %d in frame %d", i, c.frame)
	}
	return projection.Project(c.boxes[i], plane), nil
}

// GotoFrame navigates to record i, tearing down the current selection. Out of
// range indices are ignored, matching arrow-key navigation semantics.
func (c *Controller) GotoFrame(i int) {
	if i < 0 || i >= len(c.recs) || i == c.frame {
		return
	}
	c.commitBoxes()
	c.loadFrame(i)
}

func (c *Controller) loadFrame(i int) {
	c.frame = i
	c.state = Idle
	c.sel = -1

	rec := &c.recs[i]
	boxes, err := rec.Boxes()
	if err != nil {
		c.logger.Warnw("frame has no usable boxes", "frame", i, "error", err)
		boxes = nil
	}
	c.boxes = boxes

	cloud := pointcloud.New()
	if c.source != nil {
		loaded, err := c.source.CloudFor(rec)
		if err != nil {
			// unresolved or undecodable cloud: keep the frame editable over
			// an empty cloud
			c.logger.Warnw("no cloud for frame", "frame", i, "file", rec.File, "error", err)
		} else {
			cloud = loaded
		}
	}
	c.cloud = cloud
	c.recompute()
}

// commitBoxes writes the canonical boxes back into the record before leaving
// a frame or saving.
func (c *Controller) commitBoxes() {
	if c.recs[c.frame].Err() != nil {
		return
	}
	c.recs[c.frame].SetBoxes(c.boxes)
}

func (c *Controller) recompute() {
	c.result = classify.Classify(c.cloud, c.boxes)
	c.lastStep = c.clock.Now()
	if c.sink != nil {
		c.sink.Refresh(c.frame, c.result)
	}
}

// Select chooses box i for editing.
func (c *Controller) Select(i int) error {
	if c.state == Dragging {
		return errors.New("cannot change selection mid-drag")
	}
	if i < 0 || i >= len(c.boxes) {
		return errors.Errorf("no box %d in frame %d", i, c.frame)
	}
	c.sel = i
	c.state = Selected
	return nil
}

// Deselect returns to Idle.
func (c *Controller) Deselect() {
	if c.state == Dragging {
		c.PointerUp()
	}
	c.sel = -1
	c.state = Idle
}

// PointerDown begins an edit gesture on the selected box in one 2-D view.
func (c *Controller) PointerDown(plane projection.Plane, kind projection.GestureKind) error {
	if c.state != Selected {
		return errors.Errorf("pointer down in state %v", c.state)
	}
	c.dragPlane = plane
	c.dragKind = kind
	c.state = Dragging
	return nil
}

// PointerMove applies one step of the gesture in progress. delta is the
// in-plane pointer movement (translation or size change); yawDelta is only
// meaningful for rotation gestures. Recomputation is throttled to one step
// per frame interval; the geometric update itself is never dropped.
func (c *Controller) PointerMove(delta r2.Point, yawDelta float64) error {
	if c.state != Dragging {
		return errors.Errorf("pointer move in state %v", c.state)
	}
	gesture := projection.Gesture{
		Kind:  c.dragKind,
		Plane: c.dragPlane,
		Delta: delta,
		Yaw:   yawDelta,
	}
	boxDelta, ok := projection.Unproject(gesture)
	if !ok {
		// e.g. a rotation gesture in a side view: rejected, nothing changes
		c.logger.Debugw("rejected gesture", "plane", c.dragPlane.String(), "kind", int(c.dragKind))
		return nil
	}
	c.boxes[c.sel] = c.boxes[c.sel].ApplyDelta(boxDelta)
	if c.clock.Now().Sub(c.lastStep) >= c.interval {
		c.recompute()
	}
	return nil
}

// PointerUp ends the gesture and always returns to Selected, committing a
// final recompute so views never display a stale highlight.
func (c *Controller) PointerUp() {
	if c.state != Dragging {
		return
	}
	c.state = Selected
	c.recompute()
}

// RotateSelectedTo sets the selected box's yaw from the rotation slider,
// given in degrees.
func (c *Controller) RotateSelectedTo(degrees float64) error {
	if c.state != Selected {
		return errors.Errorf("rotate in state %v", c.state)
	}
	target := spatialmath.NormalizeYaw(degrees * math.Pi / 180)
	c.boxes[c.sel] = c.boxes[c.sel].ApplyDelta(spatialmath.Delta{Yaw: target - c.boxes[c.sel].Yaw})
	c.recompute()
	return nil
}

// SliderDegrees returns the selected box's yaw as a 0-360 slider position.
func (c *Controller) SliderDegrees() (int, error) {
	if c.sel < 0 || c.sel >= len(c.boxes) {
		return 0, errors.New("no selection")
	}
	deg := math.Mod(c.boxes[c.sel].Yaw*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return int(math.Round(deg)), nil
}

// AddLabel appends a new default box centered on the cloud and selects it.
// An empty class gets the next humanN name.
func (c *Controller) AddLabel(class string) (spatialmath.Box, error) {
	if c.state == Dragging {
		return spatialmath.Box{}, errors.New("cannot add a label mid-drag")
	}
	if class == "" {
		class = fmt.Sprintf("human%d", len(c.boxes)+1)
	}
	box, err := spatialmath.NewBox(c.cloud.Centroid(), defaultDims, 0, class)
	if err != nil {
		return spatialmath.Box{}, err
	}
	c.boxes = append(c.boxes, box)
	c.sel = len(c.boxes) - 1
	c.state = Selected
	c.recompute()
	return box, nil
}

// DeleteSelected removes the selected box from the record and returns to
// Idle.
func (c *Controller) DeleteSelected() error {
	if c.state != Selected {
		return errors.Errorf("delete in state %v", c.state)
	}
	c.boxes = append(c.boxes[:c.sel], c.boxes[c.sel+1:]...)
	c.sel = -1
	c.state = Idle
	c.recompute()
	return nil
}

// RenameSelected changes the selected box's class label.
func (c *Controller) RenameSelected(class string) error {
	if c.state != Selected {
		return errors.Errorf("rename in state %v", c.state)
	}
	if class == "" {
		return errors.New("class label may not be empty")
	}
	c.boxes[c.sel].Label = class
	if c.sink != nil {
		c.sink.Refresh(c.frame, c.result)
	}
	return nil
}

// Save commits the displayed frame's boxes and writes every record to the
// edited path derived from the load path. Returns the path written.
func (c *Controller) Save() (string, error) {
	if c.state == Dragging {
		return "", errors.New("cannot save mid-drag")
	}
	c.commitBoxes()
	return records.Save(c.labelPath, c.recs)
}
