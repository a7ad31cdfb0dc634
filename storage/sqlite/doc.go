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


// Package sqlite implements storage.DocumentRepository on SQLite via the
// pure-Go modernc.org/sqlite driver.
//
// The database runs in WAL mode with a busy timeout so concurrent
// ingestion workers can read and write without connection errors. The
// pending→processing claim is a single conditional UPDATE, which SQLite
// executes atomically; the processing race between duplicate queue
// deliveries is decided here and nowhere else.
package sqlite
