package checksum

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/export_sync/sync/canonical"
)

// Version is the digest set schema version written by this
// package.
const Version = 1

// Set is the aggregate digest record for one content bundle:
// per-file digests, per-media digests, and a combined digest
// over both mappings. Media is nil when the bundle has no
// media subdirectory and an empty map when the subdirectory
// exists but is empty.
type Set struct {
	Version   int               `json:"version"`
	Generated time.Time         `json:"generated"`
	Files     map[string]string `json:"files"`
	Media     map[string]string `json:"media"`
	Combined  string            `json:"combined"`
}

// Order selects the serialization order of filenames when
// computing the combined digest.
type Order int

const (
	// OrderSorted serializes filenames in ascending
	// lexicographic order. Stable across platforms and
	// directory-listing order; the default.
	OrderSorted Order = iota

	// OrderDirectory serializes filenames in the order they
	// were encountered while building the set. Kept for
	// compatibility with digest sets produced by the
	// listing-order-sensitive legacy pipeline.
	OrderDirectory
)

// Recombine recomputes the combined digest from Files and
// Media using sorted order. Call it after any mutation of the
// mappings; a stale combined digest defeats the drift
// fast path.
func (s *Set) Recombine() {
	s.Combined = combine(s.Files, nil, s.Media, nil)
}

// Load reads a persisted digest set from path.
func Load(path string) (*Set, error) {
	const errCtx = "loading digest set"

	raw, err := os.ReadFile(path) //nolint:gosec // path is caller-provided by design
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	var set Set

	if err := json.Unmarshal(raw, &set); err != nil {
		return nil, fmt.Errorf(
			"%s: parse json: %w", errCtx, err,
		)
	}

	return &set, nil
}

// Save writes the digest set to path as indented JSON.
func (s *Set) Save(path string) error {
	const errCtx = "saving digest set"

	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	if err := os.WriteFile(
		path, append(raw, '\n'), 0o600,
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// combine hashes the concatenated serializations of the files
// and media mappings. A nil order slice means sorted order;
// absent media serializes as an empty mapping.
func combine(
	files map[string]string,
	fileOrder []string,
	media map[string]string,
	mediaOrder []string,
) string {
	return canonical.DigestText(
		encodeEntries(files, fileOrder) +
			encodeEntries(media, mediaOrder),
	)
}

func encodeEntries(
	entries map[string]string,
	order []string,
) string {
	if order == nil {
		order = make([]string, 0, len(entries))
		for name := range entries {
			order = append(order, name)
		}

		sort.Strings(order)
	}

	var sb strings.Builder

	sb.WriteByte('{')

	for idx, name := range order {
		if idx > 0 {
			sb.WriteByte(',')
		}

		writeJSONString(&sb, name)
		sb.WriteByte(':')
		writeJSONString(&sb, entries[name])
	}

	sb.WriteByte('}')

	return sb.String()
}

func writeJSONString(sb *strings.Builder, value string) {
	enc, err := json.Marshal(value)
	if err != nil {
		// Marshaling a string cannot fail; fall back to the
		// raw value rather than corrupting the digest input.
		sb.WriteString(value)

		return
	}

	sb.Write(enc)
}
