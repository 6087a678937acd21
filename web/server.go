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
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path/filepath"
	"runtime"

	"github.com/FabianWe/photomosaic"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

var (
	// ErrAlreadyHandled is returned by a HandlerFunc if it already wrote the
	// response.
	ErrAlreadyHandled = errors.New("Error was already handled")
)

// Context contains the configuration shared by all handlers.
type Context struct {
	// BaseDir is used to resolve relative paths in requests.
	BaseDir     string
	NumRoutines int
	CacheSize   int
	Resizer     photomosaic.ImageResizer
	Indices     *IndexStorage
}

// NewContext returns a context with default values for the given base
// directory.
func NewContext(baseDir string) *Context {
	initialRoutines := runtime.NumCPU()
	if initialRoutines <= 0 {
		initialRoutines = 4
	}
	return &Context{
		BaseDir:     baseDir,
		NumRoutines: initialRoutines,
		CacheSize:   photomosaic.ImageCacheSize,
		Resizer:     photomosaic.DefaultResizer,
		Indices:     NewIndexStorage(),
	}
}

// GetPath resolves path relative to BaseDir.
func (context *Context) GetPath(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(context.BaseDir, path)
}

// HandlerFunc handles a request, the result is encoded as JSON.
type HandlerFunc func(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error)

// ToHTTPFunc converts a HandlerFunc to an http.HandlerFunc.
func ToHTTPFunc(context *Context, handler HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jsonData, err := handler(context, w, r)
		if err != nil {
			if err != ErrAlreadyHandled {
				log.WithError(err).WithField("url", r.URL.String()).Error("Error in request")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
			return
		}
		jData, jErr := json.Marshal(jsonData)
		if jErr != nil {
			log.WithError(jErr).Error("Internal error: Can't marshal json")
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(jData)
	}
}

// MosaicRequest is the body of the mosaic and preview requests.
type MosaicRequest struct {
	Source string `json:"source"`
	Rows   int    `json:"rows"`
	Cols   int    `json:"cols"`
	Mode   string `json:"mode"`
	Images string `json:"images"`
	Cache  string `json:"cache"`
	Reload bool   `json:"reload"`
	Metric string `json:"metric"`
}

// MosaicResponse is the answer to a mosaic request. PNG is the path of the
// image (or the base64 encoded png for preview requests).
type MosaicResponse struct {
	ID    string                  `json:"id"`
	PNG   string                  `json:"png"`
	HTML  string                  `json:"html,omitempty"`
	Rows  int                     `json:"rows"`
	Cols  int                     `json:"cols"`
	Stats *photomosaic.MatchStats `json:"stats,omitempty"`
}

func badRequest(w http.ResponseWriter, err error) error {
	http.Error(w, err.Error(), http.StatusBadRequest)
	return ErrAlreadyHandled
}

// ProcessRequest decodes the mosaic request from the body of r.
func ProcessRequest(w http.ResponseWriter, r *http.Request) (*MosaicRequest, error) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, ErrAlreadyHandled
	}
	if r.Body == nil {
		http.Error(w, "No request body given", http.StatusBadRequest)
		return nil, ErrAlreadyHandled
	}
	var req MosaicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return nil, badRequest(w, fmt.Errorf("Invalid request, expected valid JSON, got: %s", err.Error()))
	}
	if req.Source == "" {
		return nil, badRequest(w, errors.New("Missing source image"))
	}
	if req.Rows <= 0 || req.Cols <= 0 {
		return nil, badRequest(w, fmt.Errorf("Rows and columns must be positive, got %dx%d", req.Rows, req.Cols))
	}
	return &req, nil
}

// loadIndex returns the index for the request, indices are shared by all
// requests with the same images and cache unless reload is set.
func (context *Context) loadIndex(req *MosaicRequest) (*photomosaic.CandidateIndex, error) {
	key := IndexKey{Pattern: context.GetPath(req.Images), Cache: req.Cache}
	if !req.Reload {
		if index, has := context.Indices.Get(key); has {
			return index, nil
		}
	}
	cache := key.Cache
	if cache != "" && !isURL(cache) {
		cache = context.GetPath(cache)
	}
	mode := photomosaic.UseCacheIfPresent
	if req.Reload {
		mode = photomosaic.ForceRebuild
	}
	index, err := photomosaic.LoadIndex(key.Pattern, cache, mode, context.NumRoutines, nil)
	if err != nil {
		return nil, err
	}
	context.Indices.Set(key, index)
	return index, nil
}

func isURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}

// clientError returns true if err is caused by the request (invalid input)
// and not by the server.
func clientError(err error) bool {
	return photomosaic.IsDecodeError(err) || photomosaic.IsInvalidRegionError(err) ||
		photomosaic.IsEmptyDatasetError(err)
}

func (context *Context) compose(w http.ResponseWriter, req *MosaicRequest, id string) (*photomosaic.Mosaic, *photomosaic.MosaicResult, error) {
	mode, modeErr := photomosaic.ParseFillMode(req.Mode)
	if req.Mode == "" {
		mode, modeErr = photomosaic.FillPlainColor, nil
	}
	if modeErr != nil {
		return nil, nil, badRequest(w, modeErr)
	}
	mosaic, mosaicErr := photomosaic.NewMosaic(context.GetPath(req.Source))
	if mosaicErr != nil {
		if photomosaic.IsIOError(mosaicErr) || photomosaic.IsDecodeError(mosaicErr) {
			return nil, nil, badRequest(w, mosaicErr)
		}
		return nil, nil, mosaicErr
	}
	mosaic.Options.NumRoutines = context.NumRoutines
	mosaic.Options.CacheSize = context.CacheSize
	mosaic.Options.Resizer = context.Resizer
	if req.Metric != "" {
		mosaic.Options.ColorMetric = req.Metric
	}
	if mode.NeedsIndex() {
		if req.Images == "" {
			return nil, nil, badRequest(w, fmt.Errorf("Mode %s requires images", mode))
		}
		index, indexErr := context.loadIndex(req)
		if indexErr != nil {
			return nil, nil, indexErr
		}
		mosaic.SetIndex(index)
	}
	log.WithFields(log.Fields{
		"id":     id,
		"source": mosaic.Path,
		"mode":   mode,
	}).Info("Composing mosaic for request")
	res, composeErr := mosaic.Compose(req.Rows, req.Cols, mode)
	if composeErr != nil {
		if clientError(composeErr) {
			return nil, nil, badRequest(w, composeErr)
		}
		return nil, nil, composeErr
	}
	return mosaic, res, nil
}

// MosaicHandler creates a mosaic and writes the png and HTML report next to
// the source image.
func MosaicHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, reqErr := ProcessRequest(w, r)
	if reqErr != nil {
		return nil, reqErr
	}
	id := uuid.New().String()
	mosaic, res, err := context.compose(w, req, id)
	if err != nil {
		return nil, err
	}
	pngPath, htmlPath := photomosaic.OutputPaths(mosaic.Path, res.Rows, res.Cols)
	if saveErr := res.Save(pngPath, htmlPath); saveErr != nil {
		return nil, errors.Wrapf(saveErr, "Request %s", id)
	}
	return MosaicResponse{
		ID:    id,
		PNG:   res.PNGPath,
		HTML:  res.HTMLPath,
		Rows:  res.Rows,
		Cols:  res.Cols,
		Stats: res.Stats,
	}, nil
}

// PreviewHandler creates a mosaic and returns it as base64 encoded png, no
// files are written.
func PreviewHandler(context *Context, w http.ResponseWriter, r *http.Request) (interface{}, error) {
	req, reqErr := ProcessRequest(w, r)
	if reqErr != nil {
		return nil, reqErr
	}
	id := uuid.New().String()
	_, res, err := context.compose(w, req, id)
	if err != nil {
		return nil, err
	}
	encoded, encErr := EncodePNG(res)
	if encErr != nil {
		return nil, errors.Wrapf(encErr, "Request %s", id)
	}
	return MosaicResponse{
		ID:    id,
		PNG:   encoded,
		Rows:  res.Rows,
		Cols:  res.Cols,
		Stats: res.Stats,
	}, nil
}

// DefaultHandlers registers the handlers on mux, if mux is nil
// http.DefaultServeMux is used.
func DefaultHandlers(context *Context, mux *http.ServeMux) {
	if mux == nil {
		mux = http.DefaultServeMux
	}
	mux.HandleFunc("/mosaic", ToHTTPFunc(context, MosaicHandler))
	mux.HandleFunc("/preview", ToHTTPFunc(context, PreviewHandler))
}
