package fts

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/TamilselvanRaman/Research-Platform/index"
)

// Index implements index.KeywordIndex on SQLite FTS5 with BM25 ranking.
// It keeps its own database file, independent of the relational store:
// the two index stores of the platform really are separate failure
// domains, which is what the dual-write rollback logic exists for.
type Index struct {
	db     *sql.DB
	logger *slog.Logger
}

var _ index.KeywordIndex = (*Index)(nil)

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	chunk_key      TEXT PRIMARY KEY,
	document_id    INTEGER NOT NULL,
	sequence_index INTEGER NOT NULL,
	page_number    INTEGER NOT NULL,
	title          TEXT NOT NULL DEFAULT '',
	company        TEXT NOT NULL DEFAULT '',
	document_type  TEXT NOT NULL DEFAULT '',
	document_date  INTEGER NOT NULL DEFAULT 0,
	text           TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_entries_document_id ON entries(document_id);

CREATE VIRTUAL TABLE IF NOT EXISTS entries_fts USING fts5(
	text,
	chunk_key UNINDEXED,
	content='entries',
	content_rowid='rowid'
);

CREATE TRIGGER IF NOT EXISTS entries_ai AFTER INSERT ON entries BEGIN
	INSERT INTO entries_fts(rowid, text, chunk_key) VALUES (new.rowid, new.text, new.chunk_key);
END;

CREATE TRIGGER IF NOT EXISTS entries_ad AFTER DELETE ON entries BEGIN
	INSERT INTO entries_fts(entries_fts, rowid, text, chunk_key)
	VALUES ('delete', old.rowid, old.text, old.chunk_key);
END;

CREATE TRIGGER IF NOT EXISTS entries_au AFTER UPDATE ON entries BEGIN
	INSERT INTO entries_fts(entries_fts, rowid, text, chunk_key)
	VALUES ('delete', old.rowid, old.text, old.chunk_key);
	INSERT INTO entries_fts(rowid, text, chunk_key) VALUES (new.rowid, new.text, new.chunk_key);
END;
`

// NewIndex opens (creating if needed) the keyword index inside dataDir.
func NewIndex(dataDir string) (*Index, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "keyword.db")
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening keyword index: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping keyword index schema: %w", err)
	}

	return &Index{
		db:     db,
		logger: slog.Default().With("component", "keyword-index"),
	}, nil
}

// Close closes the index database.
func (x *Index) Close() error {
	return x.db.Close()
}

// Upsert writes the entries, replacing existing rows with the same chunk
// keys. The FTS triggers keep the full-text table in sync.
func (x *Index) Upsert(ctx context.Context, entries []index.Entry) error {
	tx, err := x.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO entries (chunk_key, document_id, sequence_index, page_number,
			title, company, document_type, document_date, text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chunk_key) DO UPDATE SET
			document_id = excluded.document_id,
			sequence_index = excluded.sequence_index,
			page_number = excluded.page_number,
			title = excluded.title,
			company = excluded.company,
			document_type = excluded.document_type,
			document_date = excluded.document_date,
			text = excluded.text`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, entry := range entries {
		m := entry.Metadata
		var date int64
		if !m.DocumentDate.IsZero() {
			date = m.DocumentDate.UnixMilli()
		}
		if _, err := stmt.ExecContext(ctx, entry.ChunkKey, int64(m.DocumentId), m.SequenceIndex,
			m.PageNumber, m.Title, m.Company, m.DocumentType, date, entry.Text); err != nil {
			return fmt.Errorf("upserting entry %s: %w", entry.ChunkKey, err)
		}
	}

	return tx.Commit()
}

// Query runs an FTS5 match over the chunk text and returns up to topK
// hits ranked by BM25 relevance descending, restricted by the filters.
func (x *Index) Query(ctx context.Context, query string, filters index.Filters, topK int) ([]index.Hit, error) {
	match := buildMatchQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlQuery := `
		SELECT e.chunk_key, e.document_id, e.sequence_index, e.page_number,
			e.title, e.company, e.document_type, e.text, bm25(entries_fts) AS rank
		FROM entries_fts f
		JOIN entries e ON e.rowid = f.rowid
		WHERE entries_fts MATCH ?`
	args := []any{match}

	if filters.Company != "" {
		sqlQuery += ` AND e.company = ?`
		args = append(args, filters.Company)
	}
	if filters.DocumentType != "" {
		sqlQuery += ` AND e.document_type = ?`
		args = append(args, filters.DocumentType)
	}
	if !filters.DateFrom.IsZero() {
		sqlQuery += ` AND e.document_date >= ?`
		args = append(args, filters.DateFrom.UnixMilli())
	}
	if !filters.DateTo.IsZero() {
		sqlQuery += ` AND e.document_date < ?`
		args = append(args, filters.DateTo.UnixMilli())
	}

	sqlQuery += ` ORDER BY rank, e.chunk_key LIMIT ?`
	args = append(args, topK)

	rows, err := x.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("keyword query: %w", err)
	}
	defer rows.Close()

	var hits []index.Hit
	for rows.Next() {
		var (
			hit   index.Hit
			docID int64
			rank  float64
		)
		if err := rows.Scan(&hit.ChunkKey, &docID, &hit.Metadata.SequenceIndex,
			&hit.Metadata.PageNumber, &hit.Metadata.Title, &hit.Metadata.Company,
			&hit.Metadata.DocumentType, &hit.Text, &rank); err != nil {
			return nil, err
		}
		hit.Metadata.DocumentId = index.ID(docID)
		// bm25() returns lower-is-better; negate so higher means more relevant.
		hit.Score = -rank
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// DeleteByDocument removes all entries of a document. No-op when absent.
func (x *Index) DeleteByDocument(ctx context.Context, documentID index.ID) error {
	_, err := x.db.ExecContext(ctx, `DELETE FROM entries WHERE document_id = ?`, int64(documentID))
	return err
}

// buildMatchQuery turns raw user text into a safe FTS5 match expression.
// Each term is double-quoted so query punctuation cannot break the match
// syntax; terms are ANDed, FTS5's default.
func buildMatchQuery(query string) string {
	terms := strings.Fields(query)
	if len(terms) == 0 {
		return ""
	}

	quoted := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ReplaceAll(term, `"`, "")
		if term == "" {
			continue
		}
		quoted = append(quoted, `"`+term+`"`)
	}
	return strings.Join(quoted, " ")
}
