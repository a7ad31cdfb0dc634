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


// Package ingestion turns uploaded documents into indexed chunks.
//
// The Orchestrator runs the pipeline for a single document: claim it by
// an atomic status transition, fetch the stored bytes, extract text per
// page, chunk, embed in one batch, persist the chunk rows, and write the
// vector and keyword indexes through the dual indexer. Failures are
// classified: retryable stages back off exponentially, terminal errors
// mark the document failed with the cause recorded.
//
// The Pool consumes the durable queue and fans deliveries out to the
// orchestrator on a bounded worker pool.
package ingestion
