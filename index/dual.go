package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/TamilselvanRaman/Research-Platform/core"
)

// Dual writes one logical chunk set into the two independent index
// stores. There is no cross-store transaction; Dual compensates with
// ordering and rollback: vectors are written first, and if the keyword
// write fails the just-written vectors are deleted again before the error
// surfaces. A failed document therefore never leaves residual vector
// entries without matching keyword entries.
type Dual struct {
	vector  VectorIndex
	keyword KeywordIndex
	logger  *slog.Logger
}

// DualOption configures a Dual indexer.
type DualOption func(*Dual)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) DualOption {
	return func(d *Dual) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewDual creates a dual indexer over the two stores.
func NewDual(vector VectorIndex, keyword KeywordIndex, opts ...DualOption) (*Dual, error) {
	if vector == nil {
		return nil, ErrVectorIndexRequired
	}
	if keyword == nil {
		return nil, ErrKeywordIndexRequired
	}

	d := &Dual{
		vector:  vector,
		keyword: keyword,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Index writes the entries to both stores. On keyword failure the vector
// writes of this batch are rolled back per document before the error is
// returned.
func (d *Dual) Index(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	if err := d.vector.Upsert(ctx, entries); err != nil {
		return fmt.Errorf("%w: vector upsert: %w", core.ErrIndexWrite, err)
	}

	if err := d.keyword.Upsert(ctx, entries); err != nil {
		d.rollbackVectors(ctx, entries)
		return fmt.Errorf("%w: keyword upsert: %w", core.ErrIndexWrite, err)
	}

	return nil
}

// rollbackVectors deletes the vector entries of every document in the
// batch. Rollback failures are logged, not returned: the caller already
// has the original write error, and reprocessing clears both stores anyway.
func (d *Dual) rollbackVectors(ctx context.Context, entries []Entry) {
	seen := make(map[ID]bool)
	for _, entry := range entries {
		if seen[entry.Metadata.DocumentId] {
			continue
		}
		seen[entry.Metadata.DocumentId] = true

		if err := d.vector.DeleteByDocument(ctx, entry.Metadata.DocumentId); err != nil {
			d.logger.Error("failed to roll back vector entries",
				"documentID", entry.Metadata.DocumentId, "err", err)
		}
	}
}

// Delete removes a document's entries from both stores. Both deletes are
// attempted regardless of individual failures; absent entries are not an
// error, keeping delete idempotent.
func (d *Dual) Delete(ctx context.Context, documentID ID) error {
	vecErr := d.vector.DeleteByDocument(ctx, documentID)
	kwErr := d.keyword.DeleteByDocument(ctx, documentID)

	if err := errors.Join(vecErr, kwErr); err != nil {
		return fmt.Errorf("%w: delete document %d: %w", core.ErrIndexWrite, documentID, err)
	}
	return nil
}
