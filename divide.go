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
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
)

// TileDivision represents the divison of an image into rectangles.
//
// Tiles are not stored in the fashion (x, y) but (y, x). That means each entry
// in the division describes one row of the image.
// The get method does this correctly.
type TileDivision [][]image.Rectangle

// Get returns the rectangle at position div[y][x], that is the rectangle
// in row y and column x (both starting at 0).
func (div TileDivision) Get(x, y int) image.Rectangle {
	return div[y][x]
}

// Size returns the number of rectangles in the division.
func (div TileDivision) Size() int {
	res := 0
	for _, row := range div {
		res += len(row)
	}
	return res
}

// GridDivider divides an image into a fixed number of rows and columns.
//
// All cells have the same size: The width of a cell is floor(width / Cols) and
// the height floor(height / Rows). If the image dimensions are not divisible
// by the number of columns (rows) the remaining pixels on the right (bottom)
// are not part of any cell.
// Example: An image with width 201 divided into 20 columns yields cells with
// width 10, the pixel column x = 200 is not covered.
type GridDivider struct {
	Rows, Cols int
}

// NewGridDivider returns a new GridDivider given the number of rows and
// columns.
func NewGridDivider(rows, cols int) GridDivider {
	return GridDivider{Rows: rows, Cols: cols}
}

// CellSize returns the size of a cell in an image with the given bounds.
// An error is returned if the division would yield empty cells.
func (divider GridDivider) CellSize(bounds image.Rectangle) (int, int, error) {
	if divider.Rows <= 0 || divider.Cols <= 0 {
		return -1, -1, fmt.Errorf("Number of rows and columns must be positive, got %dx%d",
			divider.Rows, divider.Cols)
	}
	cellWidth := bounds.Dx() / divider.Cols
	cellHeight := bounds.Dy() / divider.Rows
	if cellWidth <= 0 || cellHeight <= 0 {
		region := image.Rect(bounds.Min.X, bounds.Min.Y,
			bounds.Min.X+cellWidth, bounds.Min.Y+cellHeight)
		return -1, -1, &InvalidRegionError{Region: region, Bounds: bounds}
	}
	return cellWidth, cellHeight, nil
}

// Cell returns the rectangle of the cell in the given row and column. Rows
// and columns start with 1: p1 = ((col - 1) * w, (row - 1) * h) and
// p2 = (col * w, row * h) (relative to bounds.Min). p2 is not part of the
// cell.
func (divider GridDivider) Cell(bounds image.Rectangle, cellWidth, cellHeight, row, col int) image.Rectangle {
	x0 := bounds.Min.X + (col-1)*cellWidth
	y0 := bounds.Min.Y + (row-1)*cellHeight
	return image.Rect(x0, y0, x0+cellWidth, y0+cellHeight)
}

// Divide computes all cells of the grid. The result contains Rows entries,
// each containing Cols rectangles.
func (divider GridDivider) Divide(bounds image.Rectangle) (TileDivision, error) {
	cellWidth, cellHeight, sizeErr := divider.CellSize(bounds)
	if sizeErr != nil {
		return nil, sizeErr
	}
	res := make(TileDivision, divider.Rows)
	for row := 1; row <= divider.Rows; row++ {
		res[row-1] = make([]image.Rectangle, divider.Cols)
		for col := 1; col <= divider.Cols; col++ {
			res[row-1][col-1] = divider.Cell(bounds, cellWidth, cellHeight, row, col)
		}
	}
	if Debug {
		checkDivision(res, bounds, divider.Rows, divider.Cols)
	}
	return res, nil
}

// checkDivision logs a warning if the division doesn't have the expected
// shape or contains rectangles outside of the bounds. This should never
// happen and is only checked in debug mode.
func checkDivision(div TileDivision, bounds image.Rectangle, rows, cols int) {
	if len(div) != rows {
		log.WithFields(log.Fields{
			"expected": rows,
			"got":      len(div),
		}).Warn("GridDivider returned division with wrong number of rows")
	}
	for i, row := range div {
		if len(row) != cols {
			log.WithFields(log.Fields{
				"row":      i,
				"expected": cols,
				"got":      len(row),
			}).Warn("GridDivider returned division with wrong number of columns")
		}
		for _, r := range row {
			if !r.In(bounds) {
				log.WithFields(log.Fields{
					"cell":   r,
					"bounds": bounds,
				}).Warn("GridDivider returned cell outside of the image")
			}
		}
	}
}

// GridCell describes one cell of a mosaic together with the values computed
// for it. Row and Col start with 1.
//
// Candidate is the path of the image used to fill the cell and Distance the
// distance between the cell and that image (color distance or Hamming
// distance, depending on the fill mode). Both are empty for plain color
// mosaics.
type GridCell struct {
	Row, Col  int
	Region    image.Rectangle
	Color     RGB
	Candidate string
	Distance  float64
}
