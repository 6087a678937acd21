// Copyright 2019 Fabian Wenzelmann
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
	"math/bits"

	"github.com/disintegration/imaging"
)

// This file contains the perceptual hash (difference hash, dHash) of images.
// Whereas the average color only describes the color of an image the hash
// describes its structure: The image is scaled down to a grid of 9x8 gray
// values and for each row the brightness gradient between neighbours is
// stored as a bit, yielding 8 * 8 = 64 bits.
//
// Two hashes are compared with the Hamming distance.

const (
	// HashBits is the number of bits in a hash (and the maximal Hamming
	// distance).
	HashBits = 64

	hashWidth  = 9
	hashHeight = 8
)

// DifferenceHash computes the dHash of an image.
//
// Bit i (counted from the most significant bit, i = row * 8 + col) is set
// iff the gray value at (col, row) is strictly greater than the gray value at
// (col + 1, row) in the downsampled image.
func DifferenceHash(img image.Image) uint64 {
	small := imaging.Resize(img, hashWidth, hashHeight, imaging.Box)
	gray := imaging.Grayscale(small)
	var hash uint64
	for y := 0; y < hashHeight; y++ {
		for x := 0; x < hashWidth-1; x++ {
			// grayscale image, so the red channel is enough
			left := gray.Pix[gray.PixOffset(x, y)]
			right := gray.Pix[gray.PixOffset(x+1, y)]
			hash <<= 1
			if left > right {
				hash |= 1
			}
		}
	}
	return hash
}

// Hamming returns the number of different bits in a and b. The result is
// between 0 (equal fingerprints) and HashBits.
func Hamming(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// HashString formats a hash as 16 hex digits.
func HashString(hash uint64) string {
	return fmt.Sprintf("%016x", hash)
}

// WithRegionImage materializes region of src as a standalone image and calls
// f with it. The copy is only valid during the call of f and is dropped
// afterwards, also if f returns an error.
func WithRegionImage(src image.Image, region image.Rectangle, f func(img image.Image) error) error {
	if err := ValidateRegion(region, src.Bounds()); err != nil {
		return err
	}
	tmp := imaging.Crop(src, region)
	defer func() {
		tmp.Pix = nil
	}()
	return f(tmp)
}

// RegionHash computes the dHash of a region in src. The region is copied to
// its own image first, see WithRegionImage.
func RegionHash(src image.Image, region image.Rectangle) (uint64, error) {
	var hash uint64
	err := WithRegionImage(src, region, func(img image.Image) error {
		hash = DifferenceHash(img)
		return nil
	})
	return hash, err
}
