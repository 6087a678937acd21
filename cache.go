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
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// This file contains the cache for candidate indices. Computing the index
// requires reading all candidate images, so it's a good idea to store the
// results and read them again next time.
//
// A cache stores exactly one index together with the pattern it was created
// for. The content of the cache is trusted, that is the images matching the
// pattern are not checked again. Use ForceRebuild to update a cache.

// CacheMode describes how LoadIndex deals with an existing cache.
type CacheMode int

const (
	// UseCacheIfPresent reads the index from the cache if the cache exists
	// and was created for the same pattern.
	UseCacheIfPresent CacheMode = iota
	// ForceRebuild always computes the index and overwrites the cache.
	ForceRebuild
)

func (mode CacheMode) String() string {
	switch mode {
	case UseCacheIfPresent:
		return "use-cache"
	case ForceRebuild:
		return "rebuild"
	default:
		return fmt.Sprintf("CacheMode(%d)", mode)
	}
}

// ErrCacheMiss is returned by IndexCache.Read if the cache doesn't exist yet.
var ErrCacheMiss = errors.New("Cache does not exist")

// IndexCacheFile is the content of a cache. Version is set to Version when
// writing.
type IndexCacheFile struct {
	Pattern string
	Version string
	Entries []CandidateImage
}

// NewIndexCacheFile returns the cache content for index.
func NewIndexCacheFile(index *CandidateIndex) *IndexCacheFile {
	entries := make([]CandidateImage, len(index.Candidates))
	copy(entries, index.Candidates)
	return &IndexCacheFile{
		Pattern: index.Pattern,
		Version: Version,
		Entries: entries,
	}
}

// Index returns the candidate index stored in the cache file.
func (f *IndexCacheFile) Index() *CandidateIndex {
	return &CandidateIndex{Pattern: f.Pattern, Candidates: f.Entries}
}

// CheckData tests if the content was created for pattern with the current
// version. If the returned error is nil the check passed.
func (f *IndexCacheFile) CheckData(pattern string) error {
	if f.Pattern != pattern {
		return fmt.Errorf("Cache was created for pattern \"%s\", not \"%s\"", f.Pattern, pattern)
	}
	if f.Version != Version {
		return fmt.Errorf("Cache was created with version %s, current version is %s", f.Version, Version)
	}
	return nil
}

// IndexCache is a location to store an index in.
type IndexCache interface {
	// Read returns the content of the cache, ErrCacheMiss if there is no
	// content yet.
	Read() (*IndexCacheFile, error)
	// Write replaces the content of the cache.
	Write(content *IndexCacheFile) error
	// Location returns a description of the cache (for example the path).
	Location() string
}

// CacheCodec describes how a cache file is encoded.
type CacheCodec int

const (
	// GobCodec stores caches encoded with encoding/gob.
	GobCodec CacheCodec = iota
	// JSONCodec stores caches encoded with encoding/json.
	JSONCodec
	// ZstdGobCodec stores gob encoded caches compressed with zstd.
	ZstdGobCodec
)

func (codec CacheCodec) String() string {
	switch codec {
	case GobCodec:
		return "gob"
	case JSONCodec:
		return "json"
	case ZstdGobCodec:
		return "gob+zstd"
	default:
		return fmt.Sprintf("CacheCodec(%d)", codec)
	}
}

// CodecForPath returns the codec for a cache file depending on the file
// extension: ".json" for JSONCodec, ".zst" (also ".gob.zst") for
// ZstdGobCodec and GobCodec for all other files (also files without an
// extension).
func CodecForPath(path string) CacheCodec {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		return JSONCodec
	case ".zst":
		return ZstdGobCodec
	default:
		return GobCodec
	}
}

// Encode writes content to w.
func (codec CacheCodec) Encode(w io.Writer, content *IndexCacheFile) error {
	switch codec {
	case JSONCodec:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(content)
	case ZstdGobCodec:
		zw, err := zstd.NewWriter(w)
		if err != nil {
			return err
		}
		if err := gob.NewEncoder(zw).Encode(content); err != nil {
			zw.Close()
			return err
		}
		return zw.Close()
	default:
		return gob.NewEncoder(w).Encode(content)
	}
}

// Decode reads the content from r.
func (codec CacheCodec) Decode(r io.Reader) (*IndexCacheFile, error) {
	res := &IndexCacheFile{}
	switch codec {
	case JSONCodec:
		if err := json.NewDecoder(r).Decode(res); err != nil {
			return nil, err
		}
	case ZstdGobCodec:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		if err := gob.NewDecoder(zr).Decode(res); err != nil {
			return nil, err
		}
	default:
		if err := gob.NewDecoder(r).Decode(res); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// EncodeBytes encodes the content to a byte slice.
func (codec CacheCodec) EncodeBytes(content *IndexCacheFile) ([]byte, error) {
	var buf bytes.Buffer
	if err := codec.Encode(&buf, content); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FileCache is a cache that is stored in a single file.
// The file is always rewritten completely.
type FileCache struct {
	Path  string
	Codec CacheCodec
}

// NewFileCache returns a file cache using the codec given by the file
// extension, see CodecForPath.
func NewFileCache(path string) *FileCache {
	return &FileCache{Path: path, Codec: CodecForPath(path)}
}

// Location returns the path of the file.
func (c *FileCache) Location() string {
	return c.Path
}

// Read implements IndexCache, it returns ErrCacheMiss if the file does not
// exist.
func (c *FileCache) Read() (*IndexCacheFile, error) {
	f, err := os.Open(c.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, newIOError("read", c.Path, err)
	}
	defer f.Close()
	content, decodeErr := c.Codec.Decode(f)
	if decodeErr != nil {
		return nil, errors.Wrapf(decodeErr, "Invalid cache file %s (%s)", c.Path, c.Codec)
	}
	return content, nil
}

// Write implements IndexCache. The file is replaced atomically, see
// WriteFileAtomic.
func (c *FileCache) Write(content *IndexCacheFile) error {
	content.Version = Version
	return WriteFileAtomic(c.Path, func(w io.Writer) error {
		return c.Codec.Encode(w, content)
	})
}

// OpenIndexCache returns the cache for location:
// Locations starting with "redis://" or "rediss://" are stored in redis (see
// NewRedisCache), files with extension ".db" or ".sqlite" in an SQLite
// database (see NewSQLiteCache). All other locations are files, see
// NewFileCache.
//
// The returned closer must be called when the cache is no longer used.
func OpenIndexCache(location string) (IndexCache, io.Closer, error) {
	lower := strings.ToLower(location)
	switch {
	case strings.HasPrefix(lower, "redis://"), strings.HasPrefix(lower, "rediss://"):
		cache, err := NewRedisCache(location)
		if err != nil {
			return nil, nil, err
		}
		return cache, cache, nil
	case strings.HasSuffix(lower, ".db"), strings.HasSuffix(lower, ".sqlite"):
		cache, err := NewSQLiteCache(location)
		if err != nil {
			return nil, nil, err
		}
		return cache, cache, nil
	default:
		return NewFileCache(location), nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// readCache returns the index from the cache or nil if the cache can't be
// used. A cache that can't be read is logged and ignored.
func readCache(cache IndexCache, pattern string) *CandidateIndex {
	content, err := cache.Read()
	switch {
	case err == ErrCacheMiss:
		log.WithField("cache", cache.Location()).Debug("No cache found, creating index")
		return nil
	case err != nil:
		log.WithError(err).WithField("cache", cache.Location()).Warn("Can't read cache, creating index")
		return nil
	}
	if checkErr := content.CheckData(pattern); checkErr != nil {
		log.WithError(checkErr).WithField("cache", cache.Location()).Info("Ignoring cache")
		return nil
	}
	return content.Index()
}

// LoadIndex returns the candidate index for all images matching pattern.
//
// If cacheLocation is not empty it's used as a cache, see OpenIndexCache.
// With UseCacheIfPresent the index is read from the cache if possible. If the
// cache can't be read (doesn't exist, is invalid or was created for another
// pattern) the index is created with BuildIndex and written to the cache.
// A failure while writing the cache is returned as an error. A cache database
// that is not a valid SQLite file is replaced, see NewSQLiteCache.
//
// With ForceRebuild the index is always created and the cache is
// overwritten.
func LoadIndex(pattern, cacheLocation string, mode CacheMode, numRoutines int, progress ProgressFunc) (*CandidateIndex, error) {
	if cacheLocation == "" {
		return BuildIndex(pattern, numRoutines, progress)
	}
	cache, closer, openErr := OpenIndexCache(cacheLocation)
	if openErr != nil {
		return nil, openErr
	}
	defer closer.Close()
	if mode == UseCacheIfPresent {
		if index := readCache(cache, pattern); index != nil {
			log.WithFields(log.Fields{
				"cache":      cache.Location(),
				"candidates": index.Len(),
			}).Info("Read candidate index from cache")
			return index, nil
		}
	}
	index, buildErr := BuildIndex(pattern, numRoutines, progress)
	if buildErr != nil {
		return nil, buildErr
	}
	if writeErr := cache.Write(NewIndexCacheFile(index)); writeErr != nil {
		if IsIOError(writeErr) {
			return nil, writeErr
		}
		return nil, newIOError("write", cache.Location(), writeErr)
	}
	log.WithField("cache", cache.Location()).Debug("Wrote candidate index to cache")
	return index, nil
}
