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


// Package search implements hybrid retrieval over the vector and
// keyword indexes.
//
// The Engine queries both sources concurrently with identical filters,
// merges their ranked lists with Reciprocal Rank Fusion, and rescales
// the fused scores into [0,1] for display. Fusion uses only list
// positions, never raw source scores, so the two sources' incomparable
// score scales cannot skew the merge. A failing source degrades the
// search instead of failing it; results then come from the surviving
// source alone.
package search
