package storage

import (
	"context"

	"github.com/TamilselvanRaman/Research-Platform/core"
)

// DocumentRepository is the relational source of truth for documents and
// their chunks. Implementations must be thread-safe and support concurrent
// access from multiple ingestion workers.
type DocumentRepository interface {
	// CreateDocument inserts a new document, assigns its ID from the
	// store's sequence, and sets CreatedAt/UpdatedAt. Returns the document
	// with those fields populated.
	CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error)

	// GetDocument retrieves a document by ID.
	// Returns ErrNotFound if the document doesn't exist.
	GetDocument(ctx context.Context, id core.ID) (*core.Document, error)

	// GetDocuments retrieves multiple documents by their IDs.
	// Returns only the documents that exist (no error for missing ones).
	GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error)

	// ListDocuments returns documents ordered by creation time descending.
	ListDocuments(ctx context.Context, limit, offset int) ([]*core.Document, error)

	// TransitionStatus atomically moves a document from one status to
	// another with a single conditional update. Returns true if the
	// transition was applied, false if the document was not in the expected
	// status (or does not exist). This is the sole concurrency-control
	// point preventing two workers from processing the same document.
	TransitionStatus(ctx context.Context, id core.ID, from, to core.Status) (bool, error)

	// MarkCompleted records a successful ingestion run: status becomes
	// completed, the chunk and page counts and processing duration are
	// stored, and LastError is cleared.
	MarkCompleted(ctx context.Context, id core.ID, result *CompletionResult) error

	// MarkFailed records a failed ingestion run with the error message for
	// operator visibility.
	MarkFailed(ctx context.Context, id core.ID, reason string) error

	// DeleteDocument removes a document and, through cascade, its chunk
	// rows. Deleting an absent document is a no-op, not an error.
	DeleteDocument(ctx context.Context, id core.ID) error

	// CountByStorageKey reports how many documents reference a storage
	// key. Objects are content-addressed and may be shared by several
	// documents; the bytes are only safe to delete when this reaches zero.
	CountByStorageKey(ctx context.Context, key string) (int, error)

	// ReplaceChunks atomically replaces all chunk rows of a document with
	// the given set. Used by reprocessing so a document never accumulates
	// duplicate chunk rows.
	ReplaceChunks(ctx context.Context, documentID core.ID, chunks []*core.Chunk) error

	// GetChunks retrieves all chunks of a document ordered by sequence index.
	GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error)

	// DeleteChunks removes all chunk rows of a document. Idempotent.
	DeleteChunks(ctx context.Context, documentID core.ID) error

	// Close closes the storage backend and releases resources.
	Close() error
}

// CompletionResult carries the fields recorded when ingestion succeeds.
type CompletionResult struct {
	ChunkCount     int
	PageCount      int
	Title          string // populated from extraction when the upload had none
	ProcessingTime int64  // milliseconds
}

// ObjectStore provides durable byte storage for original files.
// Keys are content-addressed: storing identical bytes yields the same key.
type ObjectStore interface {
	// Put stores the bytes and returns their storage key.
	Put(ctx context.Context, data []byte) (string, error)

	// Get retrieves the bytes for a key.
	// Returns ErrNotFound if no object exists under the key.
	Get(ctx context.Context, key string) ([]byte, error)

	// Delete removes the object. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close closes the store.
	Close() error
}
