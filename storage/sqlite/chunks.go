package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"

	"github.com/TamilselvanRaman/Research-Platform/core"
)

// ReplaceChunks atomically swaps a document's chunk rows for the given
// set. Reprocessing relies on this: no matter how many times a document is
// retried, exactly one chunk set remains.
func (s *Store) ReplaceChunks(ctx context.Context, documentID core.ID, chunks []*core.Chunk) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, int64(documentID)); err != nil {
		return fmt.Errorf("clearing chunks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO chunks (document_id, sequence_index, text, page_number, token_count, embedding)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, chunk := range chunks {
		if err := core.ValidateChunk(chunk); err != nil {
			return err
		}
		res, err := stmt.ExecContext(ctx, int64(documentID), chunk.SequenceIndex,
			chunk.Text, chunk.PageNumber, chunk.TokenCount, encodeVector(chunk.Embedding))
		if err != nil {
			return fmt.Errorf("inserting chunk %d: %w", chunk.SequenceIndex, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return err
		}
		chunk.Id = core.ID(id)
		chunk.DocumentId = documentID
	}

	return tx.Commit()
}

// GetChunks retrieves all chunks of a document ordered by sequence index.
func (s *Store) GetChunks(ctx context.Context, documentID core.ID) ([]*core.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, sequence_index, text, page_number, token_count, embedding
		FROM chunks WHERE document_id = ? ORDER BY sequence_index`, int64(documentID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var chunks []*core.Chunk
	for rows.Next() {
		var (
			chunk     core.Chunk
			id, docID int64
			embedding []byte
		)
		if err := rows.Scan(&id, &docID, &chunk.SequenceIndex, &chunk.Text,
			&chunk.PageNumber, &chunk.TokenCount, &embedding); err != nil {
			return nil, err
		}
		chunk.Id = core.ID(id)
		chunk.DocumentId = core.ID(docID)
		chunk.Embedding = decodeVector(embedding)
		chunks = append(chunks, &chunk)
	}
	return chunks, rows.Err()
}

// DeleteChunks removes all chunk rows of a document. Idempotent.
func (s *Store) DeleteChunks(ctx context.Context, documentID core.ID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM chunks WHERE document_id = ?`, int64(documentID))
	return err
}

// encodeVector packs a float32 slice into little-endian bytes for BLOB
// storage. Nil vectors stay nil.
func encodeVector(vector []float32) []byte {
	if len(vector) == 0 {
		return nil
	}
	buf := make([]byte, 4*len(vector))
	for i, v := range vector {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(v))
	}
	return buf
}

func decodeVector(buf []byte) []float32 {
	if len(buf) < 4 {
		return nil
	}
	vector := make([]float32, len(buf)/4)
	for i := range vector {
		vector[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[4*i:]))
	}
	return vector
}
