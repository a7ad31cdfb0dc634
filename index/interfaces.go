package index

import (
	"context"
	"time"

	"github.com/TamilselvanRaman/Research-Platform/core"
)

// Metadata is the denormalized chunk projection stored with each index
// entry so both stores can filter without consulting the relational store.
type Metadata struct {
	DocumentId    ID
	SequenceIndex int
	PageNumber    int
	Title         string
	Company       string
	DocumentType  string
	DocumentDate  time.Time
}

// ID aliases core.ID for brevity in index payloads.
type ID = core.ID

// Entry is one chunk as written into an index. The keyword index ignores
// Vector; everything else is common to both stores.
type Entry struct {
	ChunkKey string
	Text     string
	Vector   []float32
	Metadata Metadata
}

// Filters restricts retrieval to matching chunks. Zero values mean no
// restriction. Filters are pushed down into each store so the candidate
// pool entering fusion already respects them.
type Filters struct {
	Company      string
	DocumentType string
	DateFrom     time.Time
	DateTo       time.Time
}

// Empty reports whether no filter is set.
func (f Filters) Empty() bool {
	return f.Company == "" && f.DocumentType == "" && f.DateFrom.IsZero() && f.DateTo.IsZero()
}

// Match reports whether the metadata satisfies the filters. In-process
// implementations use it; remote stores translate Filters into their own
// query conditions instead.
func (f Filters) Match(m Metadata) bool {
	if f.Company != "" && m.Company != f.Company {
		return false
	}
	if f.DocumentType != "" && m.DocumentType != f.DocumentType {
		return false
	}
	if !f.DateFrom.IsZero() && m.DocumentDate.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && !m.DocumentDate.Before(f.DateTo) {
		return false
	}
	return true
}

// Hit is one ranked entry returned from a single source.
type Hit struct {
	ChunkKey string
	Score    float64
	Text     string
	Metadata Metadata
}

// VectorIndex stores chunk embeddings and retrieves them by vector
// similarity. Implementations must be thread-safe.
type VectorIndex interface {
	// Upsert writes the entries, replacing any existing entries with the
	// same chunk keys.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to topK hits ranked by similarity descending,
	// restricted by the filters.
	Query(ctx context.Context, vector []float32, filters Filters, topK int) ([]Hit, error)

	// DeleteByDocument removes all entries of a document. Deleting a
	// document with no entries is a no-op.
	DeleteByDocument(ctx context.Context, documentID ID) error
}

// KeywordIndex stores chunk text and retrieves it by lexical match with a
// per-chunk relevance score. Implementations must be thread-safe.
type KeywordIndex interface {
	// Upsert writes the entries, replacing any existing entries with the
	// same chunk keys.
	Upsert(ctx context.Context, entries []Entry) error

	// Query returns up to topK hits ranked by lexical relevance
	// descending, restricted by the filters.
	Query(ctx context.Context, query string, filters Filters, topK int) ([]Hit, error)

	// DeleteByDocument removes all entries of a document. Deleting a
	// document with no entries is a no-op.
	DeleteByDocument(ctx context.Context, documentID ID) error
}
