// Package checksum builds and persists digest sets: one SHA-256 digest per
// bundle file and media file, plus a combined digest summarizing the whole
// set. The combined digest is the fast-path equality check used by drift
// detection, so it must be recomputed whenever the per-file digests change.
package checksum
