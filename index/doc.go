// Package index defines the vector and keyword index abstractions and the
// Dual indexer that treats the two independent stores as one logical
// write with ordered writes and compensating rollback.
//
// Both indexes hold denormalized, eventually-consistent projections of
// chunk data keyed by chunk key; the relational store remains the source
// of truth and both projections are rebuildable from it.
//
// Implementations:
//
//   - index/qdrant: vector index over the Qdrant REST API
//   - index/fts: keyword index on SQLite FTS5 with BM25 ranking
//   - index/memory: in-process cosine-similarity vector index for tests
//     and single-node deployments
package index
