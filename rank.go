// Copyright 2018 Fabian Wenzelmann
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package photomosaic

import (
	"sort"
)

// Ranked is an entry in a ranking of candidates. Index is the position of the
// candidate in the CandidateIndex and Score the distance to the target (color
// distance or Hamming distance).
//
// Rankings are scratch data, the candidates in the index are never changed.
type Ranked struct {
	Index int
	Score float64
}

// Ranking is a list of ranked candidates, the best candidate first.
type Ranking []Ranked

func sortRanking(ranking Ranking) {
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score < ranking[j].Score
	})
}

// RankByColor ranks all candidates by the distance of their average color to
// target. Candidates with the same distance keep their order in the index.
// If metric is nil ColorDistance is used.
func RankByColor(index *CandidateIndex, target RGB, metric ColorMetric) (Ranking, error) {
	if index.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	if metric == nil {
		metric = ColorDistance
	}
	res := make(Ranking, index.Len())
	for i, c := range index.Candidates {
		res[i] = Ranked{Index: i, Score: metric(target, c.Average)}
	}
	sortRanking(res)
	return res, nil
}

// RankByHash ranks all candidates by the Hamming distance of their hash to
// target. Candidates with the same distance keep their order in the index.
func RankByHash(index *CandidateIndex, target uint64) (Ranking, error) {
	if index.Len() == 0 {
		return nil, ErrEmptyDataset
	}
	res := make(Ranking, index.Len())
	for i, c := range index.Candidates {
		res[i] = Ranked{Index: i, Score: float64(Hamming(target, c.Hash))}
	}
	sortRanking(res)
	return res, nil
}

// NearestByColor returns the candidate with the smallest color distance to
// target. If several candidates have the same distance the first one in the
// index is returned.
func NearestByColor(index *CandidateIndex, target RGB, metric ColorMetric) (Ranked, error) {
	if index.Len() == 0 {
		return Ranked{Index: -1}, ErrEmptyDataset
	}
	if metric == nil {
		metric = ColorDistance
	}
	best := Ranked{Index: 0, Score: metric(target, index.Candidates[0].Average)}
	for i := 1; i < len(index.Candidates); i++ {
		score := metric(target, index.Candidates[i].Average)
		if score < best.Score {
			best = Ranked{Index: i, Score: score}
		}
	}
	return best, nil
}

// NearestByHash returns the candidate with the smallest Hamming distance to
// target. If several candidates have the same distance the first one in the
// index is returned.
func NearestByHash(index *CandidateIndex, target uint64) (Ranked, error) {
	if index.Len() == 0 {
		return Ranked{Index: -1}, ErrEmptyDataset
	}
	best := Ranked{Index: 0, Score: float64(Hamming(target, index.Candidates[0].Hash))}
	for i := 1; i < len(index.Candidates); i++ {
		score := Hamming(target, index.Candidates[i].Hash)
		if float64(score) < best.Score {
			best = Ranked{Index: i, Score: float64(score)}
		}
	}
	return best, nil
}

// TopCandidates returns the first k entries of the ranking. If k is negative
// or larger than the ranking the whole ranking is returned.
func TopCandidates(ranking Ranking, k int) Ranking {
	if k < 0 || k > len(ranking) {
		k = len(ranking)
	}
	res := make(Ranking, k)
	copy(res, ranking[:k])
	return res
}
