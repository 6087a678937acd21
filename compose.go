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
	"sync"

	"golang.org/x/image/draw"
)

var (
	// ImageCacheSize is the default size of image caches. Composing a mosaic
	// is much faster if the resized candidates are cached since the same
	// candidate is often used for many cells. It must be a number ≥ 1.
	ImageCacheSize = 15
)

// ImageCache is used to cache resized versions of candidates during mosaic
// generation. All cells of a mosaic have the same size, so the same candidate
// in the same size appears often. If the cache is full the image that was
// inserted first is removed.
//
// Caches are safe for concurrent use.
type ImageCache struct {
	m           *sync.Mutex
	size        int
	content     map[string]image.Image
	insertOrder []string
}

// NewImageCache returns an empty image cache. size is the number of images that
// will be cached. size must be ≥ 1.
func NewImageCache(size int) *ImageCache {
	if size <= 0 {
		size = 1
	}
	var m sync.Mutex
	return &ImageCache{
		m:           &m,
		size:        size,
		content:     make(map[string]image.Image, size),
		insertOrder: make([]string, 0, size),
	}
}

func (cache *ImageCache) keyFormat(path string, width, height int) string {
	return fmt.Sprintf("%dx%d:%s", width, height, path)
}

// Len returns the number of images in the cache.
func (cache *ImageCache) Len() int {
	cache.m.Lock()
	defer cache.m.Unlock()
	return len(cache.insertOrder)
}

// Put adds an image to the cache. Usually Put is called after Get: If the
// image was not found in the cache it is scaled and then added to the cache via
// Put.
func (cache *ImageCache) Put(path string, width, height int, img image.Image) {
	cache.m.Lock()
	defer cache.m.Unlock()
	key := cache.keyFormat(path, width, height)
	if _, has := cache.content[key]; has {
		return
	}
	if len(cache.insertOrder) >= cache.size {
		// cache full, remove first element
		fst := cache.insertOrder[0]
		cache.insertOrder = cache.insertOrder[1:]
		delete(cache.content, fst)
	}
	cache.insertOrder = append(cache.insertOrder, key)
	cache.content[key] = img
}

// Get returns the image from the cache. If the return value is nil the image
// was not found in the cache and should be added to the cache by Put.
func (cache *ImageCache) Get(path string, width, height int) image.Image {
	cache.m.Lock()
	defer cache.m.Unlock()
	return cache.content[cache.keyFormat(path, width, height)]
}

// CandidateLoader loads the image of a candidate.
type CandidateLoader interface {
	LoadCandidate(path string) (image.Image, error)
}

// CandidateLoaderFunc is a function implementing CandidateLoader.
type CandidateLoaderFunc func(path string) (image.Image, error)

// LoadCandidate calls f(path).
func (f CandidateLoaderFunc) LoadCandidate(path string) (image.Image, error) {
	return f(path)
}

// FileCandidateLoader reads candidates from the filesystem, see
// DecodeImageFile.
var FileCandidateLoader CandidateLoader = CandidateLoaderFunc(DecodeImageFile)

// NewCanvas returns an opaque black canvas with the given bounds moved to the
// origin.
func NewCanvas(bounds image.Rectangle) *image.NRGBA {
	canvas := image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(canvas, canvas.Bounds(), image.Black, image.Point{}, draw.Src)
	return canvas
}

// FillColor paints region of canvas with color c.
func FillColor(canvas draw.Image, region image.Rectangle, c RGB) error {
	if err := ValidateRegion(region, canvas.Bounds()); err != nil {
		return err
	}
	draw.Draw(canvas, region, image.NewUniform(c.NRGBA()), image.Point{}, draw.Src)
	return nil
}

// FillImage scales img to the size of region (ignoring the aspect ratio of
// img) and paints it into region of canvas.
// If resizer is nil DefaultResizer is used.
func FillImage(canvas draw.Image, region image.Rectangle, img image.Image, resizer ImageResizer) error {
	if err := ValidateRegion(region, canvas.Bounds()); err != nil {
		return err
	}
	if resizer == nil {
		resizer = DefaultResizer
	}
	scaled := resizer.Resize(uint(region.Dx()), uint(region.Dy()), img)
	drawScaled(canvas, region, scaled)
	return nil
}

func drawScaled(canvas draw.Image, region image.Rectangle, scaled image.Image) {
	draw.Draw(canvas, region, scaled, scaled.Bounds().Min, draw.Src)
}

// Compositor paints cells into a canvas. Candidates are loaded with Loader,
// scaled with Resizer and the scaled images are stored in Cache.
//
// Different cells can be painted concurrently since each cell only writes its
// own pixels of the canvas.
type Compositor struct {
	Canvas  *image.NRGBA
	Resizer ImageResizer
	Loader  CandidateLoader
	Cache   *ImageCache
}

// NewCompositor returns a compositor for canvas. Nil values for resizer and
// loader are replaced by DefaultResizer and FileCandidateLoader, cacheSize
// values ≤ 0 by ImageCacheSize.
func NewCompositor(canvas *image.NRGBA, resizer ImageResizer, loader CandidateLoader, cacheSize int) *Compositor {
	if resizer == nil {
		resizer = DefaultResizer
	}
	if loader == nil {
		loader = FileCandidateLoader
	}
	if cacheSize <= 0 {
		cacheSize = ImageCacheSize
	}
	return &Compositor{
		Canvas:  canvas,
		Resizer: resizer,
		Loader:  loader,
		Cache:   NewImageCache(cacheSize),
	}
}

// PaintColor paints region with color c.
func (c *Compositor) PaintColor(region image.Rectangle, color RGB) error {
	return FillColor(c.Canvas, region, color)
}

// PaintCandidate paints the candidate image stored in path into region.
// Errors when reading the candidate are returned (usually a DecodeError).
func (c *Compositor) PaintCandidate(region image.Rectangle, path string) error {
	if err := ValidateRegion(region, c.Canvas.Bounds()); err != nil {
		return err
	}
	width, height := region.Dx(), region.Dy()
	scaled := c.Cache.Get(path, width, height)
	if scaled == nil {
		img, loadErr := c.Loader.LoadCandidate(path)
		if loadErr != nil {
			return loadErr
		}
		scaled = c.Resizer.Resize(uint(width), uint(height), img)
		c.Cache.Put(path, width, height, scaled)
	}
	drawScaled(c.Canvas, region, scaled)
	return nil
}
