package records

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/cloudlabel/labelkit/spatialmath"
)

const sampleJSON = `[
  {
    "Timestamp": 1730367118.051969,
    "File": "1730367118.051969.png",
    "Labels": [
      {"Class": "human1", "BoundingBoxes": [1.0, 2.0, 0.5, 1.0, 1.0, 1.8, 0.25, 3.0, 4.0]}
    ]
  },
  {
    "Timestamp": 1730367119.151969,
    "File": "1730367119.151969.png",
    "Labels": []
  }
]`

func writeSample(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "labels.json")
	test.That(t, os.WriteFile(path, []byte(content), 0o600), test.ShouldBeNil)
	return path
}

func TestLoad(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := writeSample(t, sampleJSON)

	recs, err := Load(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, recs, test.ShouldHaveLength, 2)
	test.That(t, recs[0].File, test.ShouldEqual, "1730367118.051969.png")
	test.That(t, recs[0].Timestamp, test.ShouldAlmostEqual, 1730367118.051969)

	boxes, err := recs[0].Boxes()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, boxes, test.ShouldHaveLength, 1)
	test.That(t, boxes[0].Label, test.ShouldEqual, "human1")
	test.That(t, boxes[0].Center, test.ShouldResemble, r3.Vector{X: 1, Y: 2, Z: 0.5})
	test.That(t, boxes[0].Dims, test.ShouldResemble, r3.Vector{X: 1, Y: 1, Z: 1.8})
	test.That(t, boxes[0].Yaw, test.ShouldAlmostEqual, 0.25)
	test.That(t, boxes[0].Reserved, test.ShouldResemble, [2]float64{3, 4})
}

func TestLoadTopLevelUnreadable(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := writeSample(t, `{"not": "a list"`)

	_, err := Load(path, logger)
	var parseErr *ParseError
	test.That(t, errors.As(err, &parseErr), test.ShouldBeTrue)
	test.That(t, parseErr.Index, test.ShouldEqual, -1)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"), logger)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, errors.As(err, &parseErr), test.ShouldBeFalse)
}

func TestLoadFlagsMalformedRecord(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// second record has a short BoundingBoxes array
	path := writeSample(t, `[
	  {"Timestamp": 1, "File": "a.png", "Labels": [{"Class": "human1", "BoundingBoxes": [0,0,0,1,1,1,0,0,0]}]},
	  {"Timestamp": 2, "File": "b.png", "Labels": [{"Class": "human1", "BoundingBoxes": [0,0,0]}]},
	  {"Timestamp": 3, "File": "c.png", "Labels": []}
	]`)

	recs, err := Load(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, recs, test.ShouldHaveLength, 3)
	test.That(t, recs[0].Err(), test.ShouldBeNil)
	test.That(t, recs[2].Err(), test.ShouldBeNil)

	test.That(t, recs[1].Err(), test.ShouldNotBeNil)
	_, err = recs[1].Boxes()
	var parseErr *ParseError
	test.That(t, errors.As(err, &parseErr), test.ShouldBeTrue)
	test.That(t, parseErr.Index, test.ShouldEqual, 1)
}

func TestEditedPath(t *testing.T) {
	test.That(t, EditedPath("labels.json"), test.ShouldEqual, "labels_edited.json")
	test.That(t, EditedPath("/data/run1/labels.json"), test.ShouldEqual, "/data/run1/labels_edited.json")
	test.That(t, EditedPath("noext"), test.ShouldEqual, "noext_edited")
}

func TestSaveNeverTouchesOriginal(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := writeSample(t, sampleJSON)
	original, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)

	recs, err := Load(path, logger)
	test.That(t, err, test.ShouldBeNil)

	// zero edits
	written, err := Save(path, recs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, written, test.ShouldEqual, EditedPath(path))
	test.That(t, written, test.ShouldNotEqual, path)

	// edit then save again
	boxes, err := recs[0].Boxes()
	test.That(t, err, test.ShouldBeNil)
	boxes[0] = boxes[0].ApplyDelta(spatialmath.Delta{Center: r3.Vector{X: 1}})
	recs[0].SetBoxes(boxes)
	_, err = Save(path, recs)
	test.That(t, err, test.ShouldBeNil)

	after, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, after, test.ShouldResemble, original)
}

func TestSavePreservesFlaggedRecords(t *testing.T) {
	logger := golog.NewTestLogger(t)
	// first record has an unparseable timestamp, second a short BoundingBoxes
	// array; both get flagged but neither may lose content on save
	path := writeSample(t, `[
	  {"Timestamp": "not-a-number", "File": "frame1.png", "Labels": [{"Class": "human1", "BoundingBoxes": [0,0,0,1,1,1,0,0,0]}]},
	  {"Timestamp": 2, "File": "frame2.png", "Labels": [{"Class": "human2", "BoundingBoxes": [0,0,0]}]}
	]`)

	recs, err := Load(path, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, recs[0].Err(), test.ShouldNotBeNil)
	test.That(t, recs[1].Err(), test.ShouldNotBeNil)

	written, err := Save(path, recs)
	test.That(t, err, test.ShouldBeNil)

	out, err := os.ReadFile(written)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Contains(string(out), "frame1.png"), test.ShouldBeTrue)
	test.That(t, strings.Contains(string(out), "human1"), test.ShouldBeTrue)
	test.That(t, strings.Contains(string(out), "not-a-number"), test.ShouldBeTrue)
	test.That(t, strings.Contains(string(out), "frame2.png"), test.ShouldBeTrue)

	// the flagged records survive another load/save cycle unchanged
	reloaded, err := Load(written, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reloaded[0].Err(), test.ShouldNotBeNil)
	test.That(t, reloaded[1].File, test.ShouldEqual, "frame2.png")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	logger := golog.NewTestLogger(t)
	path := writeSample(t, sampleJSON)

	recs, err := Load(path, logger)
	test.That(t, err, test.ShouldBeNil)

	written, err := Save(path, recs)
	test.That(t, err, test.ShouldBeNil)

	reloaded, err := Load(written, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, reloaded, test.ShouldHaveLength, len(recs))
	for i := range recs {
		test.That(t, reloaded[i].File, test.ShouldEqual, recs[i].File)
		test.That(t, reloaded[i].Timestamp, test.ShouldAlmostEqual, recs[i].Timestamp)
		test.That(t, reloaded[i].Labels, test.ShouldResemble, recs[i].Labels)
	}
}

func TestLabelBoxRoundTrip(t *testing.T) {
	b, err := spatialmath.NewBox(r3.Vector{X: 1, Y: -2, Z: 3}, r3.Vector{X: 0.5, Y: 1.5, Z: 2.5}, -1.2, "crate")
	test.That(t, err, test.ShouldBeNil)
	b.Reserved = [2]float64{9, 10}

	got, err := NewLabel(b).Box()
	test.That(t, err, test.ShouldBeNil)
	test.That(t, got, test.ShouldResemble, b)
}
