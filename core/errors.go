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

import "errors"

// Pipeline error kinds. Stages wrap their failures with one of these so
// the worker can decide between retrying with backoff and failing the
// document terminally.
var (
	// ErrExtraction indicates the file is not a parseable PDF or contains
	// no extractable text. Terminal, never retried.
	ErrExtraction = errors.New("extraction failed")

	// ErrConfig indicates an invalid pipeline configuration, such as a
	// chunk overlap that is not strictly less than the chunk size.
	// Terminal, detected at construction time.
	ErrConfig = errors.New("invalid configuration")

	// ErrEmbedding indicates the embedding provider failed. Retryable.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndexWrite indicates the vector or keyword index rejected a write
	// or was unreachable. Retryable; triggers rollback of the other store.
	ErrIndexWrite = errors.New("index write failed")

	// ErrStorage indicates the object store or relational store was
	// unreachable. Retryable.
	ErrStorage = errors.New("storage unavailable")

	// ErrCancelled indicates the document was deleted while processing.
	// Terminal; the orchestrator aborts cleanly and rolls back.
	ErrCancelled = errors.New("document cancelled")
)

// Retryable reports whether err is a transient pipeline failure that the
// worker should retry with backoff.
func Retryable(err error) bool {
	return errors.Is(err, ErrEmbedding) ||
		errors.Is(err, ErrIndexWrite) ||
		errors.Is(err, ErrStorage)
}
