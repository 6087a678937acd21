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
	"reflect"
	"testing"
)

func testIndex() *CandidateIndex {
	return &CandidateIndex{
		Pattern: "test/*",
		Candidates: []CandidateImage{
			{Path: "a.png", Average: NewRGB(255, 0, 0), Hash: 0xff},
			{Path: "b.png", Average: NewRGB(0, 255, 0), Hash: 0x0f},
			{Path: "c.png", Average: NewRGB(255, 0, 0), Hash: 0x0f},
			{Path: "d.png", Average: NewRGB(0, 0, 255), Hash: 0xf0f0},
		},
	}
}

func TestNearestByColorTieBreak(t *testing.T) {
	index := testIndex()
	best, err := NearestByColor(index, NewRGB(250, 0, 0), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Index != 0 {
		t.Errorf("expected first of the equal candidates (0), got %d", best.Index)
	}
	best, err = NearestByColor(index, NewRGB(0, 0, 200), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Index != 3 {
		t.Errorf("expected candidate 3, got %d", best.Index)
	}
}

func TestNearestByHashTieBreak(t *testing.T) {
	index := testIndex()
	best, err := NearestByHash(index, 0x0f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if best.Index != 1 || best.Score != 0 {
		t.Errorf("expected candidate 1 with score 0, got %d (%f)", best.Index, best.Score)
	}
}

func TestRankByColor(t *testing.T) {
	index := testIndex()
	ranking, err := RankByColor(index, NewRGB(255, 0, 0), nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ranking) != index.Len() {
		t.Fatalf("expected %d entries, got %d", index.Len(), len(ranking))
	}
	if ranking[0].Index != 0 || ranking[1].Index != 2 {
		t.Errorf("expected candidates 0 and 2 first, got %v", ranking)
	}
	for i := 1; i < len(ranking); i++ {
		if ranking[i].Score < ranking[i-1].Score {
			t.Errorf("ranking not sorted: %v", ranking)
		}
	}
}

func TestRankByHash(t *testing.T) {
	index := testIndex()
	ranking, err := RankByHash(index, 0x0f)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := Ranking{{1, 0}, {2, 0}, {0, 4}, {3, 12}}
	if !reflect.DeepEqual(ranking, expected) {
		t.Errorf("expected %v, got %v", expected, ranking)
	}
}

func TestRankingDeterministic(t *testing.T) {
	index := testIndex()
	before := make([]CandidateImage, index.Len())
	copy(before, index.Candidates)
	first, _ := RankByColor(index, NewRGB(100, 100, 100), RGBDistance)
	for i := 0; i < 10; i++ {
		next, _ := RankByColor(index, NewRGB(100, 100, 100), RGBDistance)
		if !reflect.DeepEqual(first, next) {
			t.Fatalf("ranking is not deterministic: %v != %v", first, next)
		}
	}
	if !reflect.DeepEqual(before, index.Candidates) {
		t.Error("ranking changed the index")
	}
}

func TestRankEmptyDataset(t *testing.T) {
	empty := &CandidateIndex{}
	if _, err := NearestByColor(empty, NewRGB(1, 2, 3), nil); err != ErrEmptyDataset {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
	if best, err := NearestByHash(nil, 0); err != ErrEmptyDataset || best.Index != -1 {
		t.Errorf("expected ErrEmptyDataset and index -1, got %v (%d)", err, best.Index)
	}
	if _, err := RankByColor(empty, NewRGB(1, 2, 3), nil); err != ErrEmptyDataset {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
	if _, err := RankByHash(empty, 0); err != ErrEmptyDataset {
		t.Errorf("expected ErrEmptyDataset, got %v", err)
	}
}

func TestTopCandidates(t *testing.T) {
	ranking := Ranking{{0, 1}, {1, 2}, {2, 3}}
	tests := []struct {
		k    int
		want int
	}{
		{0, 0}, {2, 2}, {3, 3}, {10, 3}, {-1, 3},
	}
	for _, tt := range tests {
		got := TopCandidates(ranking, tt.k)
		if len(got) != tt.want {
			t.Errorf("TopCandidates(%d): expected %d entries, got %d", tt.k, tt.want, len(got))
		}
	}
	top := TopCandidates(ranking, 1)
	top[0].Score = 42
	if ranking[0].Score != 1 {
		t.Error("TopCandidates must return a copy")
	}
}
