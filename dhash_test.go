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

func TestHamming(t *testing.T) {
	values := []uint64{0, 1, 0xff, 0xdeadbeef, ^uint64(0), 0x8000000000000000}
	for _, a := range values {
		if d := Hamming(a, a); d != 0 {
			t.Errorf("Hamming(%x, %x) = %d, expected 0", a, a, d)
		}
		for _, b := range values {
			d := Hamming(a, b)
			if d != Hamming(b, a) {
				t.Errorf("Hamming not symmetric for %x and %x", a, b)
			}
			if d < 0 || d > HashBits {
				t.Errorf("Hamming(%x, %x) = %d out of range", a, b, d)
			}
		}
	}
	if d := Hamming(0, ^uint64(0)); d != 64 {
		t.Errorf("expected 64, got %d", d)
	}
	if d := Hamming(0xf0, 0x0f); d != 8 {
		t.Errorf("expected 8, got %d", d)
	}
}

func TestDifferenceHashUniform(t *testing.T) {
	img := uniformImage(50, 40, NewRGB(0x33, 0x66, 0x99))
	if h := DifferenceHash(img); h != 0 {
		t.Errorf("expected hash 0 for uniform image, got %s", HashString(h))
	}
}

func TestDifferenceHashGradient(t *testing.T) {
	// left is always brighter than right: all bits are set
	img := gradientImage(90, 80)
	if h := DifferenceHash(img); h != ^uint64(0) {
		t.Errorf("expected all bits set, got %s", HashString(h))
	}
}

func TestDifferenceHashDeterministic(t *testing.T) {
	img := gradientImage(33, 17)
	if DifferenceHash(img) != DifferenceHash(img) {
		t.Error("hash is not deterministic")
	}
}

func TestRegionHash(t *testing.T) {
	img := gradientImage(90, 80)
	h, err := RegionHash(img, img.Bounds())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h != DifferenceHash(img) {
		t.Errorf("hash of full region differs from image hash")
	}
	if _, err := RegionHash(img, image.Rect(80, 0, 100, 10)); !IsInvalidRegionError(err) {
		t.Errorf("expected InvalidRegionError, got %v", err)
	}
}

func TestWithRegionImage(t *testing.T) {
	img := gradientImage(20, 10)
	region := image.Rect(5, 2, 15, 8)
	err := WithRegionImage(img, region, func(sub image.Image) error {
		b := sub.Bounds()
		if b.Dx() != region.Dx() || b.Dy() != region.Dy() {
			t.Errorf("expected size %dx%d, got %dx%d", region.Dx(), region.Dy(), b.Dx(), b.Dy())
		}
		if ConvertRGB(sub.At(b.Min.X, b.Min.Y)) != ConvertRGB(img.At(5, 2)) {
			t.Error("region image doesn't start at region.Min")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestHashString(t *testing.T) {
	if s := HashString(1); s != "0000000000000001" {
		t.Errorf("unexpected hash string %s", s)
	}
	if s := HashString(^uint64(0)); s != "ffffffffffffffff" {
		t.Errorf("unexpected hash string %s", s)
	}
}
