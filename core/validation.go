// Copyright 2025 The Research Platform Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"errors"
	"fmt"
)

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrInvalidChunk indicates a Chunk failed validation.
	ErrInvalidChunk = errors.New("invalid chunk")

	// ErrEmptyFilename indicates the OriginalFilename field is empty.
	ErrEmptyFilename = errors.New("filename cannot be empty")

	// ErrEmptyStorageKey indicates the StorageKey field is empty.
	ErrEmptyStorageKey = errors.New("storage key cannot be empty")

	// ErrInvalidStatus indicates an unknown Status value.
	ErrInvalidStatus = errors.New("invalid status")

	// ErrEmptyChunkText indicates the chunk Text field is empty.
	ErrEmptyChunkText = errors.New("chunk text cannot be empty")
)

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - OriginalFilename must not be empty
//   - StorageKey must not be empty
//   - Status must be a known value
//
// NOT validated (populated by the pipeline):
//   - PageCount, ChunkCount (zero until processing completes)
//   - Title, Company, DocumentType (optional metadata)
//   - ID (0 is valid before insertion)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.OriginalFilename == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyFilename)
	}

	if doc.StorageKey == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyStorageKey)
	}

	if !doc.Status.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidStatus, doc.Status)
	}

	return nil
}

// ValidateChunk validates a Chunk according to domain rules.
//
// Validation rules:
//   - DocumentId must be set
//   - SequenceIndex must not be negative
//   - Text must not be empty
//
// NOT validated (populated by the pipeline):
//   - Embedding (empty until the embedding stage runs)
//   - ID (0 is valid before insertion)
func ValidateChunk(chunk *Chunk) error {
	if chunk == nil {
		return fmt.Errorf("%w: chunk is nil", ErrInvalidChunk)
	}

	if chunk.DocumentId == 0 {
		return fmt.Errorf("%w: document id required", ErrInvalidChunk)
	}

	if chunk.SequenceIndex < 0 {
		return fmt.Errorf("%w: sequence index cannot be negative", ErrInvalidChunk)
	}

	if chunk.Text == "" {
		return fmt.Errorf("%w: %w", ErrInvalidChunk, ErrEmptyChunkText)
	}

	return nil
}
