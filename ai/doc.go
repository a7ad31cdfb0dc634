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


// Package ai provides the embedding abstraction used by the ingestion
// pipeline and the search engine.
//
// The package defines the Embedder interface and its configuration. Two
// implementation sub-packages exist:
//
//   - ai/openai: production implementation backed by any OpenAI-compatible
//     embeddings API (Ollama, LocalAI, vLLM, OpenAI itself)
//   - ai/mock: deterministic test double with no external dependencies
//
// Production constructors return the ai.Embedder interface to keep callers
// decoupled from the concrete client; mock constructors return concrete
// types so tests can inject behavior and assert on call counts.
//
// Embeddings must be stable: the same text must always produce the same
// vector for a given model. Both the pipeline's idempotent reprocessing and
// search reproducibility depend on this.
package ai
