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

	"github.com/pkg/errors"
)

// All errors returned during the creation of a mosaic abort the current
// composition. There is no partial result, so callers usually only have to
// check whether an error occurred. The types below allow a more fine grained
// handling, for example the command line tools print different messages for
// images that can't be decoded and images that can't be read at all.
//
// Errors are often wrapped (with github.com/pkg/errors), so use the Is*
// functions instead of type assertions.

var (
	// ErrEmptyDataset is returned if a candidate image is requested from an
	// index without any images.
	ErrEmptyDataset = errors.New("No candidate images in dataset")
)

// DecodeError is returned if an image (the source or a candidate) can't be
// decoded.
type DecodeError struct {
	Path string
	Err  error
}

func (err *DecodeError) Error() string {
	return fmt.Sprintf("Can't decode image \"%s\": %v", err.Path, err.Err)
}

// Cause returns the underlying decoder error.
func (err *DecodeError) Cause() error {
	return err.Err
}

// InvalidRegionError is returned if a region is empty or not contained in the
// image it should be applied to.
type InvalidRegionError struct {
	Region image.Rectangle
	Bounds image.Rectangle
}

func (err *InvalidRegionError) Error() string {
	if err.Region.Empty() {
		return fmt.Sprintf("Invalid region %v: region has no area", err.Region)
	}
	return fmt.Sprintf("Invalid region %v: not inside image bounds %v", err.Region, err.Bounds)
}

// EmptyDatasetError is returned if a mosaic should be filled with candidate
// images but the index loaded for Pattern doesn't contain any images.
type EmptyDatasetError struct {
	Pattern string
}

func (err *EmptyDatasetError) Error() string {
	if err.Pattern == "" {
		return ErrEmptyDataset.Error()
	}
	return fmt.Sprintf("%s (pattern \"%s\")", ErrEmptyDataset.Error(), err.Pattern)
}

// Cause returns ErrEmptyDataset.
func (err *EmptyDatasetError) Cause() error {
	return ErrEmptyDataset
}

// IOError is returned if reading or writing a file (source, cache or output)
// fails. Op describes the operation, for example "read" or "write".
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (err *IOError) Error() string {
	return fmt.Sprintf("Can't %s \"%s\": %v", err.Op, err.Path, err.Err)
}

// Cause returns the underlying error.
func (err *IOError) Cause() error {
	return err.Err
}

func newIOError(op, path string, err error) error {
	return &IOError{Op: op, Path: path, Err: err}
}

// findErr walks the chain of causes and returns the first error that matches.
func findErr(err error, match func(error) bool) bool {
	type causer interface {
		Cause() error
	}
	for err != nil {
		if match(err) {
			return true
		}
		c, ok := err.(causer)
		if !ok {
			return false
		}
		err = c.Cause()
	}
	return false
}

// IsDecodeError returns true if err was caused by a DecodeError.
func IsDecodeError(err error) bool {
	return findErr(err, func(e error) bool {
		_, ok := e.(*DecodeError)
		return ok
	})
}

// IsInvalidRegionError returns true if err was caused by an
// InvalidRegionError.
func IsInvalidRegionError(err error) bool {
	return findErr(err, func(e error) bool {
		_, ok := e.(*InvalidRegionError)
		return ok
	})
}

// IsEmptyDatasetError returns true if err was caused by an empty dataset.
func IsEmptyDatasetError(err error) bool {
	return errors.Cause(err) == ErrEmptyDataset
}

// IsIOError returns true if err was caused by an IOError.
func IsIOError(err error) bool {
	return findErr(err, func(e error) bool {
		_, ok := e.(*IOError)
		return ok
	})
}
