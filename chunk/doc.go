// Package chunk splits extracted document text into fixed-size
// overlapping token windows, the unit of embedding and indexing.
//
// Consecutive chunks from the same document share the configured overlap,
// so context at a window edge appears in both neighbors. Sequence indexes
// are contiguous starting at 0 and define reading order. Page numbers are
// attributed from the page of each chunk's first token.
package chunk
