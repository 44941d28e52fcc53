// Package canonical computes SHA-256 content digests over raw bytes, text,
// and structured JSON-like values. Structured values are canonicalized
// before hashing: volatile top-level fields (ids, dates, guids, links) are
// excluded and mapping keys are sorted, so that two exports of the same
// content produce the same digest regardless of serialization order.
package canonical
