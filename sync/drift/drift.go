// Package drift compares a freshly built digest set against a
// previously stored one and reports which bundle files and
// media files changed. The comparison is one-directional:
// entries present only in the stored set (deletions) are never
// reported, matching the export-only sync model.
package drift

import (
	"sort"

	"github.com/byte4ever/export_sync/sync/checksum"
)

// Reason explains the outcome of a comparison.
type Reason string

const (
	// ReasonNoRemoteDigest means no stored set exists: the
	// bundle was never synced.
	ReasonNoRemoteDigest Reason = "no-remote-digest"

	// ReasonCombinedMatch means the combined digests are
	// equal; no per-file comparison was performed.
	ReasonCombinedMatch Reason = "combined-match"

	// ReasonContentChanged means at least one file or media
	// digest differs.
	ReasonContentChanged Reason = "content-changed"

	// ReasonMatch means the full comparison found no
	// differences.
	ReasonMatch Reason = "match"
)

// Result reports whether a bundle changed and which filenames
// differ. Files and Media are sorted and hold each name at
// most once.
type Result struct {
	Changed bool     `json:"changed"`
	Reason  Reason   `json:"reason"`
	Files   []string `json:"files"`
	Media   []string `json:"media"`
}

// Compare diffs the fresh digest set against the stored one.
// A nil stored set models "never synced before" and always
// reports a change. Equal combined digests short-circuit the
// per-file comparison.
func Compare(fresh, stored *checksum.Set) Result {
	if stored == nil {
		return Result{
			Changed: true,
			Reason:  ReasonNoRemoteDigest,
			Files:   []string{},
			Media:   []string{},
		}
	}

	if fresh.Combined == stored.Combined {
		return Result{
			Changed: false,
			Reason:  ReasonCombinedMatch,
			Files:   []string{},
			Media:   []string{},
		}
	}

	files := newOrChanged(fresh.Files, stored.Files)
	media := newOrChanged(fresh.Media, stored.Media)

	result := Result{
		Changed: len(files) > 0 || len(media) > 0,
		Reason:  ReasonMatch,
		Files:   files,
		Media:   media,
	}

	if result.Changed {
		result.Reason = ReasonContentChanged
	}

	return result
}

// newOrChanged returns the sorted names whose fresh digest is
// missing from or different in the stored mapping.
func newOrChanged(
	fresh map[string]string,
	stored map[string]string,
) []string {
	changed := []string{}

	for name, dg := range fresh {
		if stored[name] != dg {
			changed = append(changed, name)
		}
	}

	sort.Strings(changed)

	return changed
}
