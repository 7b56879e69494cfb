package records

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/edaniels/golog"
	"go.uber.org/multierr"
)

// EditedSuffix is inserted before the extension of the load path to form the
// save path. Saving never opens the original file for writing.
const EditedSuffix = "_edited"

// EditedPath derives the save path for a given label file path:
// "labels.json" becomes "labels_edited.json".
func EditedPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + EditedSuffix + ext
}

// Load reads a label file. An unreadable or structurally invalid top-level
// document is fatal and returns a ParseError with Index -1. A malformed
// individual record is flagged on the record and logged, and the load
// continues; flagged records stay navigable but expose no boxes.
func Load(path string, logger golog.Logger) ([]Record, error) {
	//nolint:gosec
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, &ParseError{Path: path, Index: -1, Err: err}
	}

	out := make([]Record, 0, len(raw))
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			rec = Record{loadErr: &ParseError{Path: path, Index: i, Err: err}}
			logger.Warnw("flagging malformed record", "path", path, "record", i, "error", err)
		} else if verr := rec.validate(); verr != nil {
			rec.loadErr = &ParseError{Path: path, Index: i, Err: verr}
			logger.Warnw("flagging invalid record", "path", path, "record", i, "error", verr)
		}
		if rec.loadErr != nil {
			// keep the original bytes so saving cannot lose this frame
			rec.raw = append(json.RawMessage(nil), msg...)
		}
		out = append(out, rec)
	}
	logger.Debugw("loaded label file", "path", path, "records", len(out))
	return out, nil
}

// Save writes the records to the edited path derived from the given load
// path and returns the path written. The original path is never opened for
// writing; this is unconditional.
func Save(path string, recs []Record) (_ string, err error) {
	target := EditedPath(path)

	data, err := json.MarshalIndent(recs, "", "  ")
	if err != nil {
		return "", err
	}

	f, err := os.Create(target) //nolint:gosec
	if err != nil {
		return "", err
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	if _, err := f.Write(data); err != nil {
		return "", err
	}
	return target, nil
}
