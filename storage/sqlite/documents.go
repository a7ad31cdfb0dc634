package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/storage"
)

var _ storage.DocumentRepository = (*Store)(nil)

const documentColumns = `id, original_filename, title, company, document_type, document_date,
	storage_key, mime_type, file_size, page_count, status, last_error, chunk_count,
	processing_time_ms, processed_at, created_at, updated_at`

// CreateDocument inserts a new document and returns it with the assigned
// ID and timestamps populated.
func (s *Store) CreateDocument(ctx context.Context, doc *core.Document) (*core.Document, error) {
	if err := core.ValidateDocument(doc); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	doc.CreatedAt = now
	doc.UpdatedAt = now

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (original_filename, title, company, document_type, document_date,
			storage_key, mime_type, file_size, page_count, status, last_error, chunk_count,
			processing_time_ms, processed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.OriginalFilename, doc.Title, doc.Company, doc.DocumentType, unixMS(doc.DocumentDate),
		doc.StorageKey, doc.MimeType, doc.FileSize, doc.PageCount, string(doc.Status),
		doc.LastError, doc.ChunkCount, doc.ProcessingTime.Milliseconds(),
		unixMS(doc.ProcessedAt), unixMS(doc.CreatedAt), unixMS(doc.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("inserting document: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	doc.Id = core.ID(id)
	return doc, nil
}

// GetDocument retrieves a document by ID.
func (s *Store) GetDocument(ctx context.Context, id core.ID) (*core.Document, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, int64(id))
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	return doc, err
}

// GetDocuments retrieves the documents that exist among the given IDs.
func (s *Store) GetDocuments(ctx context.Context, ids ...core.ID) ([]*core.Document, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = "?"
		args[i] = int64(id)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// ListDocuments returns documents ordered by creation time descending.
func (s *Store) ListDocuments(ctx context.Context, limit, offset int) ([]*core.Document, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("%w: limit must be positive", storage.ErrInvalidQuery)
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*core.Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// TransitionStatus performs the atomic compare-and-set on a document's
// status. A single conditional UPDATE makes the transition race-free under
// concurrent workers: exactly one caller observes applied=true.
func (s *Store) TransitionStatus(ctx context.Context, id core.ID, from, to core.Status) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, updated_at = ? WHERE id = ? AND status = ?`,
		string(to), unixMS(time.Now().UTC()), int64(id), string(from))
	if err != nil {
		return false, fmt.Errorf("transitioning status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// MarkCompleted records a successful ingestion run.
func (s *Store) MarkCompleted(ctx context.Context, id core.ID, result *storage.CompletionResult) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `
		UPDATE documents
		SET status = ?, chunk_count = ?, page_count = ?,
			title = CASE WHEN title = '' THEN ? ELSE title END,
			processing_time_ms = ?, processed_at = ?, last_error = '', updated_at = ?
		WHERE id = ?`,
		string(core.StatusCompleted), result.ChunkCount, result.PageCount, result.Title,
		result.ProcessingTime, unixMS(now), unixMS(now), int64(id))
	if err != nil {
		return fmt.Errorf("marking completed: %w", err)
	}
	return requireAffected(res)
}

// MarkFailed records a failed ingestion run with its reason.
func (s *Store) MarkFailed(ctx context.Context, id core.ID, reason string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, last_error = ?, updated_at = ? WHERE id = ?`,
		string(core.StatusFailed), reason, unixMS(time.Now().UTC()), int64(id))
	if err != nil {
		return fmt.Errorf("marking failed: %w", err)
	}
	return requireAffected(res)
}

// DeleteDocument removes a document; chunk rows cascade. Absent documents
// are a no-op so delete stays idempotent.
func (s *Store) DeleteDocument(ctx context.Context, id core.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, int64(id))
	return err
}

// CountByStorageKey reports how many documents reference a storage key.
func (s *Store) CountByStorageKey(ctx context.Context, key string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE storage_key = ?`, key).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting documents by storage key: %w", err)
	}
	return count, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*core.Document, error) {
	var (
		doc          core.Document
		id           int64
		documentDate int64
		status       string
		processingMS int64
		processedAt  int64
		createdAt    int64
		updatedAt    int64
	)
	err := row.Scan(&id, &doc.OriginalFilename, &doc.Title, &doc.Company, &doc.DocumentType,
		&documentDate, &doc.StorageKey, &doc.MimeType, &doc.FileSize, &doc.PageCount,
		&status, &doc.LastError, &doc.ChunkCount, &processingMS, &processedAt,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	doc.Id = core.ID(id)
	doc.Status = core.Status(status)
	doc.DocumentDate = timeFromMS(documentDate)
	doc.ProcessingTime = time.Duration(processingMS) * time.Millisecond
	doc.ProcessedAt = timeFromMS(processedAt)
	doc.CreatedAt = timeFromMS(createdAt)
	doc.UpdatedAt = timeFromMS(updatedAt)
	return &doc, nil
}

// unixMS converts a time to unix milliseconds, keeping zero times as 0.
func unixMS(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func timeFromMS(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}
