// Package fts provides the keyword side of the hybrid index: a SQLite
// FTS5 full-text index over chunk text with BM25 relevance ranking and
// metadata filter push-down.
package fts
