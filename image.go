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
	"image/color"
	"os"
	"strconv"
	"strings"

	// register decoders, candidate datasets often contain more than jpg and png
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/nfnt/resize"
	"github.com/pkg/errors"
	"golang.org/x/image/draw"
)

// SupportedImageFunc is a function that takes a file extension and decides if
// this file extension is supported.
//
// The extension passed to this function could be for example ".txt" or ".jpg".
type SupportedImageFunc func(ext string) bool

// JPGAndPNG is an implementation of SupportedImageFunc accepting jpg and png
// file extensions.
func JPGAndPNG(ext string) bool {
	ext = strings.ToLower(ext)
	switch ext {
	case ".jpg", ".jpeg", ".png":
		return true
	default:
		return false
	}
}

// AllDecodable accepts all extensions for which a decoder is registered:
// jpg, png, gif, bmp, tiff and webp.
func AllDecodable(ext string) bool {
	if JPGAndPNG(ext) {
		return true
	}
	switch strings.ToLower(ext) {
	case ".gif", ".bmp", ".tif", ".tiff", ".webp":
		return true
	default:
		return false
	}
}

// RGB is a color containing r, g and b components.
type RGB struct {
	R, G, B uint8
}

// NewRGB returns a new RGB color.
func NewRGB(r, g, b uint8) RGB {
	return RGB{R: r, G: g, B: b}
}

// ConvertRGB converts a generic color into the internal RGB representation.
// Alpha is ignored, the color channels are not premultiplied.
func ConvertRGB(c color.Color) RGB {
	nrgba := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGB{R: nrgba.R, G: nrgba.G, B: nrgba.B}
}

// NRGBA returns the opaque color.NRGBA value of c.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 0xff}
}

// Hex returns the canonical representation "#rrggbb" (lowercase).
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c RGB) String() string {
	return c.Hex()
}

// ParseHex parses a color of the form "#rrggbb" or "#rgb". The leading # is
// optional, case doesn't matter.
func ParseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6:
	default:
		return RGB{}, fmt.Errorf("Invalid hex color \"%s\": expected #rrggbb or #rgb", s)
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, errors.Wrapf(err, "Invalid hex color \"%s\"", s)
	}
	return RGB{R: uint8(val >> 16), G: uint8(val >> 8), B: uint8(val)}, nil
}

// DecodeImageFile reads and decodes the image stored in path. If the file
// can't be opened an IOError is returned, if the content can't be decoded a
// DecodeError.
func DecodeImageFile(path string) (image.Image, error) {
	r, openErr := os.Open(path)
	if openErr != nil {
		return nil, newIOError("read", path, openErr)
	}
	defer r.Close()
	img, _, decodeErr := image.Decode(r)
	if decodeErr != nil {
		return nil, &DecodeError{Path: path, Err: decodeErr}
	}
	return img, nil
}

// ImageResizer resizes an image to the given width and height.
// The result must have exactly the requested dimensions, the ratio of the
// original image is not retained.
type ImageResizer interface {
	Resize(width, height uint, img image.Image) image.Image
}

// NfntResizer uses the nfnt/resize package to resize an image.
type NfntResizer struct {
	// InterP is the interpolation function to use.
	InterP resize.InterpolationFunction
}

// NewNfntResizer returns a new resizer given the interpolation function.
func NewNfntResizer(interP resize.InterpolationFunction) NfntResizer {
	return NfntResizer{interP}
}

// Resize calls nfnt/resize methods.
func (resizer NfntResizer) Resize(width, height uint, img image.Image) image.Image {
	return resize.Resize(width, height, img, resizer.InterP)
}

// XDrawResizer resizes images with a scaler from golang.org/x/image/draw.
type XDrawResizer struct {
	Scaler draw.Scaler
}

// NewXDrawResizer returns a new resizer given the scaler, for example
// draw.CatmullRom.
func NewXDrawResizer(scaler draw.Scaler) XDrawResizer {
	return XDrawResizer{Scaler: scaler}
}

// Resize scales img into a new NRGBA image of the given size.
func (resizer XDrawResizer) Resize(width, height uint, img image.Image) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, int(width), int(height)))
	resizer.Scaler.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst
}

// GetInterP returns an interpolation function given a desired quality.
// The higher the quality the better the interpolation should be, but execution
// time is higher. Currently supported are values between 0 and 4, each
// selecting a different interpolation function. Values greater than 4 are
// treated as 5 (Lanczos3).
//
// This method assumes that the interpolation functions provided by nfnt/resize
// can be sorted according to their quality. This should be a reasonable
// assumption.
func GetInterP(quality uint) resize.InterpolationFunction {
	switch quality {
	case 0:
		return resize.NearestNeighbor
	case 1:
		return resize.Bilinear
	case 2:
		return resize.Bicubic
	case 3:
		return resize.MitchellNetravali
	case 4:
		return resize.Lanczos2
	default:
		return resize.Lanczos3
	}
}

// InterPString returns a human readable name of an interpolation function.
func InterPString(interP resize.InterpolationFunction) string {
	switch interP {
	case resize.NearestNeighbor:
		return "nearest"
	case resize.Bilinear:
		return "bilinear"
	case resize.Bicubic:
		return "bicubic"
	case resize.MitchellNetravali:
		return "mitchell"
	case resize.Lanczos2:
		return "lanczos2"
	case resize.Lanczos3:
		return "lanczos3"
	default:
		return fmt.Sprintf("InterpolationFunction(%d)", interP)
	}
}

// ResizerFromString returns a resizer given its name. Names of nfnt
// interpolation functions (see InterPString) and the quality numbers of
// GetInterP select an NfntResizer, "approx-bilinear" and "catmull-rom" select
// an XDrawResizer.
func ResizerFromString(s string) (ImageResizer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "nearest":
		return NewNfntResizer(resize.NearestNeighbor), nil
	case "bilinear":
		return NewNfntResizer(resize.Bilinear), nil
	case "bicubic":
		return NewNfntResizer(resize.Bicubic), nil
	case "mitchell":
		return NewNfntResizer(resize.MitchellNetravali), nil
	case "lanczos2":
		return NewNfntResizer(resize.Lanczos2), nil
	case "lanczos3":
		return NewNfntResizer(resize.Lanczos3), nil
	case "approx-bilinear":
		return NewXDrawResizer(draw.ApproxBiLinear), nil
	case "catmull-rom":
		return NewXDrawResizer(draw.CatmullRom), nil
	}
	quality, parseErr := strconv.Atoi(s)
	if parseErr != nil || quality < 0 {
		return nil, fmt.Errorf("Unknown interpolation \"%s\"", s)
	}
	return NewNfntResizer(GetInterP(uint(quality))), nil
}

// ResizerString returns the name of a resizer as accepted by
// ResizerFromString.
func ResizerString(resizer ImageResizer) string {
	switch r := resizer.(type) {
	case NfntResizer:
		return InterPString(r.InterP)
	case XDrawResizer:
		switch r.Scaler {
		case draw.ApproxBiLinear:
			return "approx-bilinear"
		case draw.CatmullRom:
			return "catmull-rom"
		}
		return "x/image scaler"
	default:
		return fmt.Sprintf("%T", resizer)
	}
}

var (
	// DefaultResizer is the resizer that is used by default, if you're
	// looking for a resizer default argument this seems useful.
	DefaultResizer ImageResizer = NewNfntResizer(resize.Bilinear)
)
