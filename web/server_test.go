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

package web

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/FabianWe/photomosaic"
	"github.com/google/uuid"
)

func writeUniformPNG(t *testing.T, path string, width, height int, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("can't create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("can't encode %s: %v", path, err)
	}
}

func newTestServer(t *testing.T) (*Context, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	writeUniformPNG(t, filepath.Join(dir, "src.png"), 40, 40, color.NRGBA{R: 0x33, G: 0x66, B: 0x99, A: 0xff})
	if err := os.Mkdir(filepath.Join(dir, "images"), 0755); err != nil {
		t.Fatalf("can't create directory: %v", err)
	}
	writeUniformPNG(t, filepath.Join(dir, "images", "a.png"), 8, 8, color.NRGBA{R: 0x30, G: 0x60, B: 0x90, A: 0xff})
	writeUniformPNG(t, filepath.Join(dir, "images", "b.png"), 8, 8, color.NRGBA{R: 0xff, A: 0xff})
	context := NewContext(dir)
	context.NumRoutines = 2
	mux := http.NewServeMux()
	DefaultHandlers(context, mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return context, server
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("can't encode request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestPreviewHandler(t *testing.T) {
	_, server := newTestServer(t)
	resp := postJSON(t, server.URL+"/preview", MosaicRequest{Source: "src.png", Rows: 2, Cols: 2})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var res MosaicResponse
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		t.Fatalf("can't decode response: %v", err)
	}
	if _, err := uuid.Parse(res.ID); err != nil {
		t.Errorf("invalid id %s: %v", res.ID, err)
	}
	data, err := base64.StdEncoding.DecodeString(res.PNG)
	if err != nil {
		t.Fatalf("invalid base64: %v", err)
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("invalid png: %v", err)
	}
	if img.Bounds() != image.Rect(0, 0, 40, 40) {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}
	if res.Stats != nil {
		t.Errorf("plain mosaic should have no stats")
	}
}

func TestMosaicHandler(t *testing.T) {
	context, server := newTestServer(t)
	req := MosaicRequest{Source: "src.png", Rows: 4, Cols: 4, Mode: "color", Images: "images/*.png"}
	for i := 0; i < 2; i++ {
		resp := postJSON(t, server.URL+"/mosaic", req)
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			t.Fatalf("expected status 200, got %d", resp.StatusCode)
		}
		var res MosaicResponse
		err := json.NewDecoder(resp.Body).Decode(&res)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("can't decode response: %v", err)
		}
		if res.PNG != filepath.Join(context.BaseDir, "src-4x4.png") {
			t.Errorf("unexpected png path %s", res.PNG)
		}
		if _, err := os.Stat(res.HTML); err != nil {
			t.Errorf("report not written: %v", err)
		}
		if res.Stats == nil {
			t.Error("expected stats for color mosaic")
		}
	}
	// the index is shared by both requests
	if context.Indices.Len() != 1 {
		t.Errorf("expected 1 stored index, got %d", context.Indices.Len())
	}
}

func TestBadRequests(t *testing.T) {
	_, server := newTestServer(t)
	tests := []struct {
		name string
		req  MosaicRequest
	}{
		{"no source", MosaicRequest{Rows: 2, Cols: 2}},
		{"zero rows", MosaicRequest{Source: "src.png", Cols: 2}},
		{"missing source", MosaicRequest{Source: "missing.png", Rows: 2, Cols: 2}},
		{"unknown mode", MosaicRequest{Source: "src.png", Rows: 2, Cols: 2, Mode: "foo"}},
		{"no images", MosaicRequest{Source: "src.png", Rows: 2, Cols: 2, Mode: "hash"}},
		{"empty dataset", MosaicRequest{Source: "src.png", Rows: 2, Cols: 2, Mode: "hash", Images: "none/*.png"}},
		{"grid too large", MosaicRequest{Source: "src.png", Rows: 50, Cols: 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, server.URL+"/preview", tt.req)
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusBadRequest {
				t.Errorf("expected status 400, got %d", resp.StatusCode)
			}
		})
	}

	resp, err := http.Post(server.URL+"/preview", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400 for invalid json, got %d", resp.StatusCode)
	}

	resp, err = http.Get(server.URL + "/preview")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("expected status 405, got %d", resp.StatusCode)
	}
}

func TestIndexStorage(t *testing.T) {
	storage := NewIndexStorage()
	key := IndexKey{Pattern: "a/*", Cache: "cache.gob"}
	index := &photomosaic.CandidateIndex{Pattern: "a/*"}
	if _, has := storage.Get(key); has {
		t.Fatal("empty storage must not contain an index")
	}
	storage.Set(key, index)
	if got, has := storage.Get(key); !has || got != index {
		t.Error("expected stored index")
	}
	storage.Filter(time.Hour)
	if storage.Len() != 1 {
		t.Error("recently used index must not be removed")
	}
	storage.Filter(0)
	if storage.Len() != 0 {
		t.Error("expected index to be removed")
	}
	storage.Set(key, index)
	storage.Delete(key)
	if storage.Len() != 0 {
		t.Error("expected index to be deleted")
	}
}
