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
	"image"
	"testing"
)

func TestGridDividerTruncates(t *testing.T) {
	bounds := image.Rect(0, 0, 201, 100)
	divider := NewGridDivider(10, 20)
	div, err := divider.Divide(bounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(div) != 10 {
		t.Fatalf("expected 10 rows, got %d", len(div))
	}
	if div.Size() != 200 {
		t.Errorf("expected 200 cells, got %d", div.Size())
	}
	if got := div.Get(0, 0); got != image.Rect(0, 0, 10, 10) {
		t.Errorf("unexpected first cell %v", got)
	}
	// last column ends at x = 200, the pixel column 200 is not covered
	if got := div.Get(19, 9); got != image.Rect(190, 90, 200, 100) {
		t.Errorf("unexpected last cell %v", got)
	}
}

func TestGridDividerCells(t *testing.T) {
	bounds := image.Rect(0, 0, 40, 30)
	divider := NewGridDivider(3, 4)
	div, err := divider.Divide(bounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for y, row := range div {
		if len(row) != 4 {
			t.Fatalf("expected 4 columns in row %d, got %d", y, len(row))
		}
		for x, r := range row {
			expected := image.Rect(x*10, y*10, (x+1)*10, (y+1)*10)
			if r != expected {
				t.Errorf("cell (%d, %d): expected %v, got %v", y, x, expected, r)
			}
			// cells are disjoint from their right neighbour
			if x > 0 && !r.Intersect(row[x-1]).Empty() {
				t.Errorf("cell (%d, %d) overlaps its left neighbour", y, x)
			}
		}
	}
}

func TestGridDividerOffsetBounds(t *testing.T) {
	bounds := image.Rect(5, 7, 25, 27)
	div, err := NewGridDivider(2, 2).Divide(bounds)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := div.Get(1, 1); got != image.Rect(15, 17, 25, 27) {
		t.Errorf("unexpected cell %v", got)
	}
}

func TestGridDividerErrors(t *testing.T) {
	tests := []struct {
		name       string
		rows, cols int
		bounds     image.Rectangle
		region     bool
	}{
		{"zero rows", 0, 2, image.Rect(0, 0, 10, 10), false},
		{"negative cols", 2, -1, image.Rect(0, 0, 10, 10), false},
		{"too many cols", 1, 11, image.Rect(0, 0, 10, 10), true},
		{"too many rows", 20, 1, image.Rect(0, 0, 10, 10), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewGridDivider(tt.rows, tt.cols).Divide(tt.bounds)
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.region && !IsInvalidRegionError(err) {
				t.Errorf("expected InvalidRegionError, got %v", err)
			}
		})
	}
}
