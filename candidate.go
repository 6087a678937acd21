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
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// CandidateImage describes one image that can be used to fill a cell of the
// mosaic. It stores the values needed for the selection of an image (average
// color and hash) together with the path of the image. The image itself is
// loaded again when it's drawn to the mosaic.
type CandidateImage struct {
	Path          string
	Width, Height int
	Average       RGB
	Hash          uint64
}

// NewCandidateImage computes the candidate for img which was read from path.
func NewCandidateImage(path string, img image.Image) (CandidateImage, error) {
	bounds := img.Bounds()
	avg, avgErr := ImageAverage(img)
	if avgErr != nil {
		return CandidateImage{}, errors.Wrapf(avgErr, "Can't compute average color of %s", path)
	}
	return CandidateImage{
		Path:    path,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
		Average: avg,
		Hash:    DifferenceHash(img),
	}, nil
}

// String returns a short description of the candidate.
func (c CandidateImage) String() string {
	return fmt.Sprintf("%s (%dx%d, %s, %s)", c.Path, c.Width, c.Height,
		c.Average.Hex(), HashString(c.Hash))
}

// CandidateIndex is the list of all candidate images for a glob pattern.
// The order of the candidates is the (lexicographic) order of the matched
// paths, it does not depend on the order in which the images were processed.
//
// An index is never changed after it has been created, thus it can be used
// by multiple mosaics concurrently.
type CandidateIndex struct {
	Pattern    string
	Candidates []CandidateImage
}

// Len returns the number of candidates in the index.
func (index *CandidateIndex) Len() int {
	if index == nil {
		return 0
	}
	return len(index.Candidates)
}

// Get returns the candidate on position i.
func (index *CandidateIndex) Get(i int) CandidateImage {
	return index.Candidates[i]
}

// Paths returns the paths of all candidates.
func (index *CandidateIndex) Paths() []string {
	res := make([]string, len(index.Candidates))
	for i, c := range index.Candidates {
		res[i] = c.Path
	}
	return res
}

// CandidateFilter decides which files matching a pattern are used as
// candidates. Files with other extensions are skipped, directories are
// always skipped.
var CandidateFilter SupportedImageFunc = AllDecodable

// GlobCandidates returns all files matching pattern that are accepted by
// CandidateFilter, sorted lexicographically. A malformed pattern yields an
// IOError.
func GlobCandidates(pattern string) ([]string, error) {
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return nil, newIOError("glob", pattern, err)
	}
	sort.Strings(matches)
	res := make([]string, 0, len(matches))
	for _, path := range matches {
		if CandidateFilter != nil && !CandidateFilter(filepath.Ext(path)) {
			log.WithField("path", path).Debug("Skipping file, not an image")
			continue
		}
		if fi, statErr := os.Stat(path); statErr == nil && fi.IsDir() {
			continue
		}
		res = append(res, path)
	}
	return res, nil
}

// BuildIndex reads all images matching pattern and computes the candidate
// for each of them.
//
// The images are processed concurrently by numRoutines go routines. The
// first image that can't be read aborts the computation, the error is
// returned (DecodeError or IOError). progress is called after each
// processed image and may be nil.
//
// If no file matches the pattern an empty index is returned. It is up to the
// caller to decide if that's an error.
func BuildIndex(pattern string, numRoutines int, progress ProgressFunc) (*CandidateIndex, error) {
	paths, globErr := GlobCandidates(pattern)
	if globErr != nil {
		return nil, globErr
	}
	candidates, err := CreateCandidates(paths, numRoutines, progress)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"pattern":    pattern,
		"candidates": len(candidates),
	}).Info("Created candidate index")
	return &CandidateIndex{Pattern: pattern, Candidates: candidates}, nil
}

// CreateCandidates computes the candidates for all paths, the result has the
// same order as paths. See BuildIndex for details.
func CreateCandidates(paths []string, numRoutines int, progress ProgressFunc) ([]CandidateImage, error) {
	if numRoutines <= 0 {
		numRoutines = 1
	}
	numImages := len(paths)
	// any error that occurs sets this variable (first error)
	var err error

	type job struct {
		pos  int
		path string
	}

	res := make([]CandidateImage, numImages)
	jobs := make(chan job, BufferSize)
	// large enough s.t. workers never block after an abort
	errorChan := make(chan error, numImages)
	done := make(chan struct{})
	defer close(done)

	for w := 0; w < numRoutines; w++ {
		go func() {
			for next := range jobs {
				img, imgErr := DecodeImageFile(next.path)
				if imgErr != nil {
					errorChan <- imgErr
					continue
				}
				candidate, candidateErr := NewCandidateImage(next.path, img)
				if candidateErr != nil {
					errorChan <- candidateErr
					continue
				}
				// each job writes only its own position
				res[next.pos] = candidate
				errorChan <- nil
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, path := range paths {
			select {
			case jobs <- job{pos: i, path: path}:
			case <-done:
				return
			}
		}
	}()

	for i := 0; i < numImages; i++ {
		nextErr := <-errorChan
		if nextErr != nil {
			err = nextErr
			break
		}
		if progress != nil {
			progress(i + 1)
		}
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}
