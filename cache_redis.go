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
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the key used by RedisCache if the location doesn't
// contain a key.
const DefaultRedisKey = "photomosaic:index"

// RedisCache stores an index under a single key in redis. The value is the
// gob encoded index compressed with zstd, it's always replaced with a
// single SET.
type RedisCache struct {
	URL     string
	Key     string
	Timeout time.Duration
	client  *redis.Client
}

// NewRedisCache creates a cache for a location of the form
// "redis://[user:password@]host[:port][/db][#key]". If no key is given
// DefaultRedisKey is used.
//
// No connection is established until the cache is used.
func NewRedisCache(location string) (*RedisCache, error) {
	url, key := location, DefaultRedisKey
	if pos := strings.LastIndex(location, "#"); pos >= 0 {
		url = location[:pos]
		if pos+1 < len(location) {
			key = location[pos+1:]
		}
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, newIOError("open", url, err)
	}
	return &RedisCache{
		URL:     url,
		Key:     key,
		Timeout: 30 * time.Second,
		client:  redis.NewClient(opts),
	}, nil
}

// Location returns the url and key of the cache.
func (c *RedisCache) Location() string {
	return c.URL + "#" + c.Key
}

// Close closes the connection to redis.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Read implements IndexCache.
func (c *RedisCache) Read() (*IndexCacheFile, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	data, err := c.client.Get(ctx, c.Key).Bytes()
	if err == redis.Nil {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, newIOError("read", c.Location(), err)
	}
	return ZstdGobCodec.Decode(bytes.NewReader(data))
}

// Write implements IndexCache.
func (c *RedisCache) Write(content *IndexCacheFile) error {
	content.Version = Version
	data, err := ZstdGobCodec.EncodeBytes(content)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.Timeout)
	defer cancel()
	if err := c.client.Set(ctx, c.Key, data, 0).Err(); err != nil {
		return newIOError("write", c.Location(), err)
	}
	return nil
}
