package matching

import (
	"sort"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/cloudlabel/labelkit/records"
)

// DefaultSyncCutoff is the minimum similarity ratio for a record name to be
// considered a fuzzy match during filename synchronization.
const DefaultSyncCutoff = 0.6

// SyncPlan is a computed reconciliation of record File fields against the
// actual cloud files on disk: every record gets its matched cloud filename,
// and records are reordered chronologically (filename stems are timestamps,
// so lexicographic order is chronological).
type SyncPlan struct {
	// Files holds the new File value for each input record, by input index.
	Files []string
	// Order is the permutation of input record indices sorted by new name.
	Order []int
}

// BuildSyncPlan fuzzy-matches every record against the candidate cloud
// files. It refuses to produce a plan (returning an error and changing
// nothing) unless record and candidate counts agree and every record matches
// above the cutoff; a partial rewrite would silently desynchronize frames.
func BuildSyncPlan(recs []records.Record, candidates []string, cutoff float64, logger golog.Logger) (*SyncPlan, error) {
	if len(recs) != len(candidates) {
		return nil, errors.Errorf("record/cloud count mismatch: %d records but %d cloud files", len(recs), len(candidates))
	}
	if cutoff <= 0 {
		cutoff = DefaultSyncCutoff
	}

	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	plan := &SyncPlan{Files: make([]string, len(recs))}
	for i, rec := range recs {
		stem := Stem(rec.File)
		best := ""
		bestRatio := -1.0
		for _, c := range sorted {
			if r := similarity(stem, Stem(c)); r > bestRatio {
				best, bestRatio = c, r
			}
		}
		if bestRatio < cutoff {
			return nil, errors.Errorf("record %d (%q) has no cloud file above similarity %.2f (best %q at %.2f)",
				i, rec.File, cutoff, best, bestRatio)
		}
		logger.Debugw("sync match", "record", rec.File, "cloud", best, "similarity", bestRatio)
		plan.Files[i] = best
	}

	plan.Order = make([]int, len(recs))
	for i := range plan.Order {
		plan.Order[i] = i
	}
	sort.SliceStable(plan.Order, func(a, b int) bool {
		return Stem(plan.Files[plan.Order[a]]) < Stem(plan.Files[plan.Order[b]])
	})
	return plan, nil
}

// Apply returns a new record slice with File fields rewritten and records in
// chronological order. The input is not modified; the caller persists the
// result through the record store, which only ever writes the edited path.
func (p *SyncPlan) Apply(recs []records.Record) []records.Record {
	out := make([]records.Record, 0, len(recs))
	for _, i := range p.Order {
		rec := recs[i]
		rec.File = p.Files[i]
		out = append(out, rec)
	}
	return out
}

// similarity is a difflib-style ratio in [0, 1]: twice the number of
// matching characters over the total length of both strings.
func similarity(a, b string) float64 {
	if len(a)+len(b) == 0 {
		return 1
	}
	dmp := diffmatchpatch.New()
	common := 0
	for _, d := range dmp.DiffMain(a, b, false) {
		if d.Type == diffmatchpatch.DiffEqual {
			common += len(d.Text)
		}
	}
	return 2 * float64(common) / float64(len(a)+len(b))
}
