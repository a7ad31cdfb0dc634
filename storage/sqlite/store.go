package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // SQLite driver
)

// Store is a SQLite-backed implementation of storage.DocumentRepository.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                 INTEGER PRIMARY KEY AUTOINCREMENT,
	original_filename  TEXT NOT NULL,
	title              TEXT NOT NULL DEFAULT '',
	company            TEXT NOT NULL DEFAULT '',
	document_type      TEXT NOT NULL DEFAULT '',
	document_date      INTEGER NOT NULL DEFAULT 0,
	storage_key        TEXT NOT NULL,
	mime_type          TEXT NOT NULL DEFAULT '',
	file_size          INTEGER NOT NULL DEFAULT 0,
	page_count         INTEGER NOT NULL DEFAULT 0,
	status             TEXT NOT NULL,
	last_error         TEXT NOT NULL DEFAULT '',
	chunk_count        INTEGER NOT NULL DEFAULT 0,
	processing_time_ms INTEGER NOT NULL DEFAULT 0,
	processed_at       INTEGER NOT NULL DEFAULT 0,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_status ON documents(status);
CREATE INDEX IF NOT EXISTS idx_documents_company ON documents(company);
CREATE INDEX IF NOT EXISTS idx_documents_created_at ON documents(created_at);

CREATE TABLE IF NOT EXISTS chunks (
	id             INTEGER PRIMARY KEY AUTOINCREMENT,
	document_id    INTEGER NOT NULL REFERENCES documents(id) ON DELETE CASCADE,
	sequence_index INTEGER NOT NULL,
	text           TEXT NOT NULL,
	page_number    INTEGER NOT NULL DEFAULT 0,
	token_count    INTEGER NOT NULL DEFAULT 0,
	embedding      BLOB,
	UNIQUE(document_id, sequence_index)
);

CREATE INDEX IF NOT EXISTS idx_chunks_document_id ON chunks(document_id);
`

// NewStore opens (creating if needed) the metadata database inside dataDir.
func NewStore(dataDir string) (*Store, error) {
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// WAL mode for concurrent ingestion workers
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("bootstrapping schema: %w", err)
	}

	return &Store{
		db:     db,
		path:   dbPath,
		logger: slog.Default().With("component", "sqlite-store"),
	}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}
