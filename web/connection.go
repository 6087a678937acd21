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
	"sync"
	"time"

	"github.com/FabianWe/photomosaic"
)

// IndexKey identifies a loaded index by the pattern and cache location it was
// loaded with.
type IndexKey struct {
	Pattern, Cache string
}

type indexEntry struct {
	index    *photomosaic.CandidateIndex
	lastUsed time.Time
}

// IndexStorage keeps loaded candidate indices in memory so that requests for
// the same images don't have to read the cache again.
// Indices are never changed, so the same index can be used by concurrent
// requests.
type IndexStorage struct {
	mutex   *sync.RWMutex
	entries map[IndexKey]*indexEntry
}

// NewIndexStorage returns an empty storage.
func NewIndexStorage() *IndexStorage {
	return &IndexStorage{
		mutex:   new(sync.RWMutex),
		entries: make(map[IndexKey]*indexEntry, 10),
	}
}

// Get returns the index for key, the second value is false if no index is
// stored.
func (s *IndexStorage) Get(key IndexKey) (*photomosaic.CandidateIndex, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	entry, has := s.entries[key]
	if !has {
		return nil, false
	}
	entry.lastUsed = time.Now().UTC()
	return entry.index, true
}

// Set stores the index for key.
func (s *IndexStorage) Set(key IndexKey, index *photomosaic.CandidateIndex) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.entries[key] = &indexEntry{index: index, lastUsed: time.Now().UTC()}
}

// Delete removes the index for key.
func (s *IndexStorage) Delete(key IndexKey) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	delete(s.entries, key)
}

// Len returns the number of stored indices.
func (s *IndexStorage) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.entries)
}

// Filter removes all indices that haven't been used for maxAge.
func (s *IndexStorage) Filter(maxAge time.Duration) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	now := time.Now().UTC()
	for key, entry := range s.entries {
		if now.Sub(entry.lastUsed) >= maxAge {
			delete(s.entries, key)
		}
	}
}

// RunFilter calls Filter every interval until done is closed.
func (s *IndexStorage) RunFilter(maxAge, interval time.Duration) chan<- struct{} {
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.Filter(maxAge)
			case <-done:
				return
			}
		}
	}()
	return done
}
