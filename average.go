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
)

// ValidateRegion returns an InvalidRegionError if region has no area or is
// not completely inside of bounds. Regions are half-open, that is
// region.Max is not part of the region.
func ValidateRegion(region, bounds image.Rectangle) error {
	if region.Empty() || !region.In(bounds) {
		return &InvalidRegionError{Region: region, Bounds: bounds}
	}
	return nil
}

// AverageColor computes the average color of all pixels in region.
// Each component is the arithmetic mean rounded to the nearest integer
// (halves are rounded up).
//
// The region must be inside of the image bounds and must not be empty,
// otherwise an InvalidRegionError is returned.
func AverageColor(img image.Image, region image.Rectangle) (RGB, error) {
	if err := ValidateRegion(region, img.Bounds()); err != nil {
		return RGB{}, err
	}
	// just to be sure we use big integers, depending on the image size we might
	// get problems
	var r, g, b uint64
	numPixels := uint64(region.Dx() * region.Dy())
	switch src := img.(type) {
	case *image.NRGBA:
		// fast path for the canvas type, no color conversion needed
		for y := region.Min.Y; y < region.Max.Y; y++ {
			offset := src.PixOffset(region.Min.X, y)
			for x := region.Min.X; x < region.Max.X; x++ {
				r += uint64(src.Pix[offset])
				g += uint64(src.Pix[offset+1])
				b += uint64(src.Pix[offset+2])
				offset += 4
			}
		}
	default:
		for y := region.Min.Y; y < region.Max.Y; y++ {
			for x := region.Min.X; x < region.Max.X; x++ {
				rgb := ConvertRGB(img.At(x, y))
				r += uint64(rgb.R)
				g += uint64(rgb.G)
				b += uint64(rgb.B)
			}
		}
	}
	half := numPixels / 2
	return RGB{
		R: uint8((r + half) / numPixels),
		G: uint8((g + half) / numPixels),
		B: uint8((b + half) / numPixels),
	}, nil
}

// ImageAverage computes the average color of the whole image, see
// AverageColor.
func ImageAverage(img image.Image) (RGB, error) {
	return AverageColor(img, img.Bounds())
}
