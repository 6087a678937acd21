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
	"image/png"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// State is the state of a Mosaic.
type State int

const (
	// Uninitialized is the state of a Mosaic without a source image.
	Uninitialized State = iota
	// SourceLoaded means that the source image was read.
	SourceLoaded
	// Indexed means that the source image was read and the candidate images
	// were loaded.
	Indexed
	// Composing means that a mosaic is being created.
	Composing
	// Composed means that a mosaic was created successfully.
	Composed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case SourceLoaded:
		return "source-loaded"
	case Indexed:
		return "indexed"
	case Composing:
		return "composing"
	case Composed:
		return "composed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// FillMode describes how the cells of a mosaic are filled.
type FillMode int

const (
	// FillPlainColor fills each cell with its average color.
	FillPlainColor FillMode = iota
	// FillImageByColor fills each cell with the candidate whose average color
	// is closest to the average color of the cell.
	FillImageByColor
	// FillImageByHash fills each cell with the candidate whose hash has the
	// smallest Hamming distance to the hash of the cell.
	FillImageByHash
)

func (mode FillMode) String() string {
	switch mode {
	case FillPlainColor:
		return "plain"
	case FillImageByColor:
		return "color"
	case FillImageByHash:
		return "hash"
	default:
		return fmt.Sprintf("FillMode(%d)", mode)
	}
}

// NeedsIndex returns true if the mode uses candidate images.
func (mode FillMode) NeedsIndex() bool {
	return mode == FillImageByColor || mode == FillImageByHash
}

// ParseFillMode parses a fill mode, valid strings are "plain", "color" (or
// "average") and "hash".
func ParseFillMode(s string) (FillMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "plain":
		return FillPlainColor, nil
	case "color", "average":
		return FillImageByColor, nil
	case "hash":
		return FillImageByHash, nil
	default:
		return -1, fmt.Errorf("Unknown fill mode \"%s\", expected plain, color or hash", s)
	}
}

// Options are used to configure the creation of mosaics.
type Options struct {
	// NumRoutines is the number of go routines used to compute the cells of the
	// mosaic and to create the candidate index.
	NumRoutines int
	// Resizer is used to scale candidates to the cell size.
	Resizer ImageResizer
	// CacheSize is the number of scaled candidates that are cached.
	CacheSize int
	// ColorMetric is the name of the metric used by FillImageByColor, see
	// GetColorMetric.
	ColorMetric string
	// Loader reads candidate images when they're painted.
	Loader CandidateLoader
	// OutputDir is the directory the results are written to, if empty the
	// directory of the source image is used.
	OutputDir string
	// Progress is called after each row of the mosaic was computed,
	// IndexProgress after each image when creating the candidate index.
	Progress, IndexProgress ProgressFunc
}

// DefaultOptions returns the default options: One go routine per CPU, the
// DefaultResizer, CIE76 as color metric and a cache of ImageCacheSize images.
func DefaultOptions() Options {
	return Options{
		NumRoutines: runtime.NumCPU(),
		Resizer:     DefaultResizer,
		CacheSize:   ImageCacheSize,
		ColorMetric: DefaultColorMetric,
		Loader:      FileCandidateLoader,
	}
}

// MatchStats describes how good the candidates matched the cells of a mosaic.
// The values are distances (color or Hamming distance) between a cell and the
// candidate it was filled with.
type MatchStats struct {
	Mean, Median, Max float64
}

// NewMatchStats computes the statistics for the given distances.
func NewMatchStats(distances []float64) (*MatchStats, error) {
	data := stats.Float64Data(distances)
	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}
	return &MatchStats{Mean: mean, Median: median, Max: max}, nil
}

func (s *MatchStats) String() string {
	return fmt.Sprintf("mean %.2f, median %.2f, max %.2f", s.Mean, s.Median, s.Max)
}

// MosaicResult is a composed mosaic.
//
// Cells contains Rows * Cols entries ordered row by row, the canvas has the
// same size as the source image. Stats is nil for FillPlainColor.
// PNGPath and HTMLPath are set once the result was saved.
type MosaicResult struct {
	Source                string
	Mode                  FillMode
	Canvas                *image.NRGBA
	Cells                 []GridCell
	Rows, Cols            int
	CellWidth, CellHeight int
	Stats                 *MatchStats
	PNGPath, HTMLPath     string
}

// Cell returns the cell in the given row and column (both starting with 1).
func (res *MosaicResult) Cell(row, col int) GridCell {
	return res.Cells[(row-1)*res.Cols+(col-1)]
}

// EncodePNG writes the canvas as a png.
func (res *MosaicResult) EncodePNG(w io.Writer) error {
	return png.Encode(w, res.Canvas)
}

// ReportData returns the data for the HTML report of the mosaic.
func (res *MosaicResult) ReportData() ReportData {
	return NewReportData(res.Source, res)
}

// Save writes the canvas to pngPath and the report to htmlPath.
// Both files are written atomically. If the report can't be written the png
// is removed again.
func (res *MosaicResult) Save(pngPath, htmlPath string) error {
	if err := WriteFileAtomic(pngPath, res.EncodePNG); err != nil {
		return err
	}
	report := res.ReportData()
	htmlErr := WriteFileAtomic(htmlPath, func(w io.Writer) error {
		return RenderReport(w, report)
	})
	if htmlErr != nil {
		if removeErr := os.Remove(pngPath); removeErr != nil {
			log.WithError(removeErr).WithField("path", pngPath).Warn("Can't remove mosaic image")
		}
		return htmlErr
	}
	res.PNGPath, res.HTMLPath = pngPath, htmlPath
	return nil
}

// OutputPaths returns the paths of the png and the HTML report for a source
// image: "<dir>/<name>-<rows>x<cols>.png" and ".html" where name is the name
// of the source without extension.
func OutputPaths(source string, rows, cols int) (string, string) {
	return OutputPathsIn(filepath.Dir(source), source, rows, cols)
}

// OutputPathsIn works as OutputPaths but uses dir instead of the directory of
// the source.
func OutputPathsIn(dir, source string, rows, cols int) (string, string) {
	base := filepath.Base(source)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	prefix := filepath.Join(dir, fmt.Sprintf("%s-%dx%d", name, rows, cols))
	return prefix + ".png", prefix + ".html"
}

// Mosaic creates mosaics for one source image.
//
// The workflow is: Create a Mosaic with NewMosaic, load the candidate images
// with LoadImages (only required if the mosaic is filled with images) and
// then create the mosaic with Create. Create can be called multiple times,
// for example with different sizes.
//
// A Mosaic must not be used by multiple go routines concurrently, but
// different mosaics can share the same CandidateIndex.
type Mosaic struct {
	Path    string
	Options Options

	source *image.NRGBA
	index  *CandidateIndex
	state  State
}

// NewMosaic reads the source image from path. If the image can't be read a
// DecodeError or IOError is returned.
func NewMosaic(path string) (*Mosaic, error) {
	img, err := DecodeImageFile(path)
	if err != nil {
		return nil, err
	}
	return NewMosaicFromImage(path, img), nil
}

// NewMosaicFromImage creates a mosaic for an image that was already decoded.
// path is used for the output files and the report. The image is copied, its
// bounds are moved to the origin.
func NewMosaicFromImage(path string, img image.Image) *Mosaic {
	return &Mosaic{
		Path:    path,
		Options: DefaultOptions(),
		source:  imaging.Clone(img),
		state:   SourceLoaded,
	}
}

// State returns the current state.
func (m *Mosaic) State() State {
	return m.state
}

// Source returns the source image.
func (m *Mosaic) Source() *image.NRGBA {
	return m.source
}

// Index returns the candidate index, nil if no images were loaded.
func (m *Mosaic) Index() *CandidateIndex {
	return m.index
}

// LoadImages loads the candidate images matching pattern, see LoadIndex.
func (m *Mosaic) LoadImages(pattern, cacheLocation string, mode CacheMode) error {
	index, err := LoadIndex(pattern, cacheLocation, mode, m.Options.NumRoutines, m.Options.IndexProgress)
	if err != nil {
		return err
	}
	m.SetIndex(index)
	return nil
}

// SetIndex sets the candidate index. The index is not changed by the mosaic.
func (m *Mosaic) SetIndex(index *CandidateIndex) {
	m.index = index
	if m.state == SourceLoaded || m.state == Composed {
		m.state = Indexed
	}
}

func (m *Mosaic) colorMetric() (ColorMetric, error) {
	name := m.Options.ColorMetric
	if name == "" {
		name = DefaultColorMetric
	}
	metric, ok := GetColorMetric(name)
	if !ok {
		return nil, fmt.Errorf("Unknown color metric \"%s\", registered metrics are %s",
			name, strings.Join(GetColorMetricNames(), ", "))
	}
	return metric, nil
}

// Compose creates the mosaic with the given number of rows and columns
// without writing any files.
//
// The source is divided by a GridDivider, so trailing pixels on the right and
// bottom are not part of any cell and stay black in the result.
// Modes that use candidate images return an EmptyDatasetError if no
// candidates were loaded.
//
// Any error aborts the composition, there is no partial result.
func (m *Mosaic) Compose(rows, cols int, mode FillMode) (*MosaicResult, error) {
	if m.source == nil {
		return nil, errors.New("No source image loaded")
	}
	if m.state == Composing {
		return nil, errors.New("Mosaic is already being composed")
	}
	if mode.NeedsIndex() && m.index.Len() == 0 {
		pattern := ""
		if m.index != nil {
			pattern = m.index.Pattern
		}
		return nil, &EmptyDatasetError{Pattern: pattern}
	}
	var metric ColorMetric
	if mode == FillImageByColor {
		var metricErr error
		if metric, metricErr = m.colorMetric(); metricErr != nil {
			return nil, metricErr
		}
	}
	bounds := m.source.Bounds()
	divider := NewGridDivider(rows, cols)
	cellWidth, cellHeight, sizeErr := divider.CellSize(bounds)
	if sizeErr != nil {
		return nil, sizeErr
	}
	division, divErr := divider.Divide(bounds)
	if divErr != nil {
		return nil, divErr
	}

	before := m.state
	m.state = Composing
	res := &MosaicResult{
		Source:     m.Path,
		Mode:       mode,
		Canvas:     NewCanvas(bounds),
		Cells:      make([]GridCell, rows*cols),
		Rows:       rows,
		Cols:       cols,
		CellWidth:  cellWidth,
		CellHeight: cellHeight,
	}
	composer := &cellComposer{
		source:     m.source,
		index:      m.index,
		mode:       mode,
		metric:     metric,
		compositor: NewCompositor(res.Canvas, m.Options.Resizer, m.Options.Loader, m.Options.CacheSize),
	}
	log.WithFields(log.Fields{
		"source": m.Path,
		"rows":   rows,
		"cols":   cols,
		"mode":   mode,
		"cell":   fmt.Sprintf("%dx%d", cellWidth, cellHeight),
	}).Info("Composing mosaic")
	if err := composer.composeRows(division, res.Cells, m.Options.NumRoutines, m.Options.Progress); err != nil {
		m.state = before
		return nil, err
	}
	if mode.NeedsIndex() {
		distances := make([]float64, len(res.Cells))
		for i, cell := range res.Cells {
			distances[i] = cell.Distance
		}
		matchStats, statsErr := NewMatchStats(distances)
		if statsErr != nil {
			m.state = before
			return nil, errors.Wrap(statsErr, "Can't compute match statistics")
		}
		res.Stats = matchStats
		log.WithField("distance", matchStats.String()).Info("Matched candidates")
	}
	m.state = Composed
	return res, nil
}

// Create composes the mosaic (see Compose) and writes the png and the HTML
// report, see OutputPaths.
func (m *Mosaic) Create(rows, cols int, mode FillMode) (*MosaicResult, error) {
	res, err := m.Compose(rows, cols, mode)
	if err != nil {
		return nil, err
	}
	var pngPath, htmlPath string
	if m.Options.OutputDir == "" {
		pngPath, htmlPath = OutputPaths(m.Path, rows, cols)
	} else {
		pngPath, htmlPath = OutputPathsIn(m.Options.OutputDir, m.Path, rows, cols)
	}
	if saveErr := res.Save(pngPath, htmlPath); saveErr != nil {
		return nil, saveErr
	}
	log.WithFields(log.Fields{
		"png":  pngPath,
		"html": htmlPath,
	}).Info("Saved mosaic")
	return res, nil
}

// CreateWithPlainColors creates a mosaic where each cell is filled with its
// average color.
func (m *Mosaic) CreateWithPlainColors(rows, cols int) (*MosaicResult, error) {
	return m.Create(rows, cols, FillPlainColor)
}

// CreateWithImagesByAverageColors creates a mosaic where each cell is filled
// with the candidate closest to its average color.
func (m *Mosaic) CreateWithImagesByAverageColors(rows, cols int) (*MosaicResult, error) {
	return m.Create(rows, cols, FillImageByColor)
}

// CreateWithImagesByHash creates a mosaic where each cell is filled with the
// candidate whose hash is closest to the hash of the cell.
func (m *Mosaic) CreateWithImagesByHash(rows, cols int) (*MosaicResult, error) {
	return m.Create(rows, cols, FillImageByHash)
}

// cellComposer computes and paints the cells of one composition.
type cellComposer struct {
	source     *image.NRGBA
	index      *CandidateIndex
	mode       FillMode
	metric     ColorMetric
	compositor *Compositor
}

func (c *cellComposer) composeCell(cell *GridCell) error {
	color, avgErr := AverageColor(c.source, cell.Region)
	if avgErr != nil {
		return avgErr
	}
	cell.Color = color
	var best Ranked
	switch c.mode {
	case FillPlainColor:
		return c.compositor.PaintColor(cell.Region, color)
	case FillImageByColor:
		var err error
		if best, err = NearestByColor(c.index, color, c.metric); err != nil {
			return err
		}
	case FillImageByHash:
		hash, hashErr := RegionHash(c.source, cell.Region)
		if hashErr != nil {
			return hashErr
		}
		var err error
		if best, err = NearestByHash(c.index, hash); err != nil {
			return err
		}
	default:
		return fmt.Errorf("Unknown fill mode %v", c.mode)
	}
	candidate := c.index.Get(best.Index)
	cell.Candidate = candidate.Path
	cell.Distance = best.Score
	return c.compositor.PaintCandidate(cell.Region, candidate.Path)
}

// composeRows computes all rows concurrently. Each row is handled by exactly
// one go routine which writes only the cells of that row, so cells and the
// canvas need no further synchronization.
func (c *cellComposer) composeRows(division TileDivision, cells []GridCell, numRoutines int, progress ProgressFunc) error {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	numRows := len(division)
	var err error
	jobs := make(chan int, BufferSize)
	errorChan := make(chan error, numRows)
	done := make(chan struct{})
	defer close(done)

	for w := 0; w < numRoutines; w++ {
		go func() {
			for row := range jobs {
				select {
				case <-done:
					// aborted, skip remaining rows
					errorChan <- nil
					continue
				default:
				}
				errorChan <- c.composeRow(division, cells, row)
			}
		}()
	}

	go func() {
		defer close(jobs)
		for row := 0; row < numRows; row++ {
			select {
			case jobs <- row:
			case <-done:
				return
			}
		}
	}()

	for i := 0; i < numRows; i++ {
		if nextErr := <-errorChan; nextErr != nil {
			err = nextErr
			break
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	return err
}

func (c *cellComposer) composeRow(division TileDivision, cells []GridCell, row int) error {
	cols := len(division[row])
	for col := 0; col < cols; col++ {
		cell := &cells[row*cols+col]
		*cell = GridCell{Row: row + 1, Col: col + 1, Region: division[row][col]}
		if err := c.composeCell(cell); err != nil {
			return err
		}
	}
	return nil
}
