package core

import (
	"fmt"
	"time"
)

// ID is a unique identifier for persisted entities.
// IDs are assigned by the relational store from an autoincrement sequence.
type ID int64

// Status tracks a document through the ingestion pipeline.
type Status string

const (
	// StatusPending indicates the document is uploaded but not yet processed.
	StatusPending Status = "pending"
	// StatusProcessing indicates a worker owns the document.
	StatusProcessing Status = "processing"
	// StatusCompleted indicates the document is fully indexed and searchable.
	StatusCompleted Status = "completed"
	// StatusFailed indicates ingestion failed; LastError holds the reason.
	StatusFailed Status = "failed"
)

// Valid reports whether s is a known status value.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Document represents an uploaded file and its ingestion state.
// The relational record is the source of truth for existence; the vector
// and keyword indexes hold derived, rebuildable projections of its chunks.
type Document struct {
	Id               ID
	OriginalFilename string
	Title            string
	Company          string
	DocumentType     string
	DocumentDate     time.Time
	StorageKey       string
	MimeType         string
	FileSize         int64
	PageCount        int
	Status           Status
	LastError        string
	ChunkCount       int
	ProcessingTime   time.Duration
	ProcessedAt      time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Chunk is a bounded, overlapping slice of a document's extracted text.
// It is the unit of embedding and indexing. A chunk is owned exclusively
// by one document and cannot outlive it.
type Chunk struct {
	Id            ID
	DocumentId    ID
	SequenceIndex int // 0-based position within the document, contiguous
	Text          string
	PageNumber    int
	TokenCount    int
	Embedding     []float32 // populated by the embedding stage
}

// Key returns the identifier under which this chunk is stored in both
// indexes. Keys are deterministic so reprocessing overwrites rather than
// duplicates.
func (c *Chunk) Key() string {
	return ChunkKey(c.DocumentId, c.SequenceIndex)
}

// ChunkKey builds an index key from a document ID and sequence index.
func ChunkKey(documentID ID, sequenceIndex int) string {
	return fmt.Sprintf("%d:%d", documentID, sequenceIndex)
}

// SearchResult is a single fused search hit. It is query-scoped and never
// persisted.
type SearchResult struct {
	ChunkKey      string
	DocumentId    ID
	Score         float64 // fused score, normalized into [0,1] for display
	RankVector    int     // 1-based rank in the vector result list, 0 if absent
	RankKeyword   int     // 1-based rank in the keyword result list, 0 if absent
	Text          string
	PageNumber    int
	DocumentTitle string
	Company       string
}

// SearchResponse wraps an ordered result list with request-level stats.
type SearchResponse struct {
	Results []*SearchResult
	Total   int
	TookMS  int64
}
