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


package search

import (
	"math"
	"sort"

	"github.com/TamilselvanRaman/Research-Platform/core"
	"github.com/TamilselvanRaman/Research-Platform/index"
)

// fuse merges the vector and keyword result lists with Reciprocal Rank
// Fusion: each list contributes 1/(k+rank) per hit, ranks starting at 1,
// and the contributions are summed per chunk. Raw source scores are
// deliberately ignored; only positions matter, which makes the fusion
// insensitive to the incomparable score scales of the two sources.
//
// The returned list is fully ordered: fused score descending, then
// better vector rank, then lexicographic chunk key. The ordering is
// total, so identical inputs always produce identical output.
func fuse(vectorHits, keywordHits []index.Hit, k int) []*core.SearchResult {
	merged := make(map[string]*core.SearchResult)

	collect := func(hits []index.Hit, vector bool) {
		for i, hit := range hits {
			rank := i + 1
			result, ok := merged[hit.ChunkKey]
			if !ok {
				result = &core.SearchResult{
					ChunkKey:      hit.ChunkKey,
					DocumentId:    hit.Metadata.DocumentId,
					Text:          hit.Text,
					PageNumber:    hit.Metadata.PageNumber,
					DocumentTitle: hit.Metadata.Title,
					Company:       hit.Metadata.Company,
				}
				merged[hit.ChunkKey] = result
			}
			if vector {
				result.RankVector = rank
			} else {
				result.RankKeyword = rank
			}
			result.Score += 1.0 / float64(k+rank)
		}
	}
	collect(vectorHits, true)
	collect(keywordHits, false)

	results := make([]*core.SearchResult, 0, len(merged))
	for _, result := range merged {
		results = append(results, result)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		ri, rj := vectorRankOrWorst(results[i]), vectorRankOrWorst(results[j])
		if ri != rj {
			return ri < rj
		}
		return results[i].ChunkKey < results[j].ChunkKey
	})
	return results
}

// vectorRankOrWorst orders absent vector ranks after any present rank.
func vectorRankOrWorst(r *core.SearchResult) int {
	if r.RankVector == 0 {
		return math.MaxInt
	}
	return r.RankVector
}

// normalize rescales fused scores linearly into [0,1] for display. The
// relative ordering is untouched; when all scores are equal they all
// map to 1.
func normalize(results []*core.SearchResult) {
	if len(results) == 0 {
		return
	}
	min, max := results[0].Score, results[0].Score
	for _, r := range results[1:] {
		if r.Score < min {
			min = r.Score
		}
		if r.Score > max {
			max = r.Score
		}
	}
	if max == min {
		for _, r := range results {
			r.Score = 1.0
		}
		return
	}
	for _, r := range results {
		r.Score = (r.Score - min) / (max - min)
	}
}
