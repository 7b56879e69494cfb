// Package matching associates an annotation record's declared source filename
// with a point-cloud file when the two do not match byte for byte. Record
// names are typically image-derived ("<timestamp>.png") while cloud files
// follow a "cloud_<stem>_..." convention, so resolution falls back from exact
// matching to a deterministic fuzzy search.
package matching

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
)

// CloudPrefix is the fixed marker cloud file names are expected to begin
// with, followed by the record stem.
const CloudPrefix = "cloud_"

// ErrUnresolved indicates no point-cloud file could be matched to a record.
// Non-fatal: the frame stays navigable with an empty cloud.
var ErrUnresolved = errors.New("no point cloud file matches record")

// Stem strips the path and extension from a filename, plus the leading cloud
// qualifier if present. It is the portion used for fuzzy matching.
func Stem(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return strings.TrimPrefix(base, CloudPrefix)
}

// Resolve finds the cloud file for a record's declared source filename.
// The search proceeds: exact stem match, then the cloud_<stem>_ prefix
// convention, then substring containment with longest-common-substring and
// lexicographic tie-breaks. Every decision is logged so mismatches are
// auditable. Returns ErrUnresolved when nothing matches.
func Resolve(recordName string, candidates []string, logger golog.Logger) (string, error) {
	stem := Stem(recordName)

	// deterministic regardless of directory listing order
	sorted := make([]string, len(candidates))
	copy(sorted, candidates)
	sort.Strings(sorted)

	for _, c := range sorted {
		if Stem(c) == stem {
			logger.Debugw("resolved cloud file by exact stem", "record", recordName, "cloud", c)
			return c, nil
		}
	}

	prefix := CloudPrefix + stem + "_"
	for _, c := range sorted {
		if strings.HasPrefix(filepath.Base(c), prefix) {
			logger.Debugw("resolved cloud file by prefix convention", "record", recordName, "cloud", c)
			return c, nil
		}
	}

	var best string
	bestLen := -1
	for _, c := range sorted {
		if !strings.Contains(filepath.Base(c), stem) {
			continue
		}
		if l := longestCommonSubstring(Stem(c), stem); l > bestLen {
			best, bestLen = c, l
		}
	}
	if bestLen >= 0 {
		logger.Debugw("resolved cloud file by substring search", "record", recordName, "cloud", best, "overlap", bestLen)
		return best, nil
	}

	logger.Warnw("no cloud file matches record", "record", recordName, "stem", stem, "candidates", len(sorted))
	return "", errors.Wrapf(ErrUnresolved, "record %q (stem %q)", recordName, stem)
}

// longestCommonSubstring returns the length of the longest contiguous
// substring shared by a and b.
func longestCommonSubstring(a, b string) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	best := 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
				if cur[j] > best {
					best = cur[j]
				}
			} else {
				cur[j] = 0
			}
		}
		prev, cur = cur, prev
	}
	return best
}
