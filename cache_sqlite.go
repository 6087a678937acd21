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
	"database/sql"
	"os"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// SQLiteCache stores an index in an SQLite database. The database contains
// one table for the candidates and one table with key / value pairs for the
// pattern and the version.
//
// The database is rewritten in a single transaction, so other readers see
// either the old or the new index.
type SQLiteCache struct {
	Path string
	db   *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS cache_meta (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS candidates (
	pos INTEGER PRIMARY KEY,
	path TEXT NOT NULL,
	width INTEGER NOT NULL,
	height INTEGER NOT NULL,
	average TEXT NOT NULL,
	hash TEXT NOT NULL
);`

// NewSQLiteCache opens (and creates if required) the database in path.
//
// A file in path that is not a valid database is treated like a cache that
// does not exist: it is removed and a new database is created.
func NewSQLiteCache(path string) (*SQLiteCache, error) {
	cache, err := openSQLiteCache(path)
	if err == nil {
		return cache, nil
	}
	if _, statErr := os.Stat(path); statErr != nil {
		return nil, err
	}
	log.WithError(err).WithField("cache", path).Warn("Invalid cache database, creating a new one")
	if rmErr := os.Remove(path); rmErr != nil {
		return nil, newIOError("remove", path, rmErr)
	}
	os.Remove(path + "-journal")
	return openSQLiteCache(path)
}

func openSQLiteCache(path string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, newIOError("open", path, err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, newIOError("open", path, err)
	}
	return &SQLiteCache{Path: path, db: db}, nil
}

// Location returns the path of the database.
func (c *SQLiteCache) Location() string {
	return c.Path
}

// Close closes the database.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}

func (c *SQLiteCache) readMeta(key string) (string, bool, error) {
	var value string
	err := c.db.QueryRow("SELECT value FROM cache_meta WHERE key = ?", key).Scan(&value)
	switch {
	case err == sql.ErrNoRows:
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return value, true, nil
}

// Read implements IndexCache. If no pattern was stored yet ErrCacheMiss is
// returned.
func (c *SQLiteCache) Read() (*IndexCacheFile, error) {
	pattern, hasPattern, err := c.readMeta("pattern")
	if err != nil {
		return nil, newIOError("read", c.Path, err)
	}
	if !hasPattern {
		return nil, ErrCacheMiss
	}
	version, _, err := c.readMeta("version")
	if err != nil {
		return nil, newIOError("read", c.Path, err)
	}
	rows, err := c.db.Query("SELECT path, width, height, average, hash FROM candidates ORDER BY pos")
	if err != nil {
		return nil, newIOError("read", c.Path, err)
	}
	defer rows.Close()
	res := &IndexCacheFile{Pattern: pattern, Version: version}
	for rows.Next() {
		var candidate CandidateImage
		var average, hash string
		if err := rows.Scan(&candidate.Path, &candidate.Width, &candidate.Height, &average, &hash); err != nil {
			return nil, newIOError("read", c.Path, err)
		}
		if candidate.Average, err = ParseHex(average); err != nil {
			return nil, errors.Wrapf(err, "Invalid color for %s in cache", candidate.Path)
		}
		if candidate.Hash, err = strconv.ParseUint(hash, 16, 64); err != nil {
			return nil, errors.Wrapf(err, "Invalid hash for %s in cache", candidate.Path)
		}
		res.Entries = append(res.Entries, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, newIOError("read", c.Path, err)
	}
	return res, nil
}

// Write implements IndexCache. The old content is removed.
func (c *SQLiteCache) Write(content *IndexCacheFile) (err error) {
	content.Version = Version
	tx, err := c.db.Begin()
	if err != nil {
		return newIOError("write", c.Path, err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	if _, err = tx.Exec("DELETE FROM candidates"); err != nil {
		return newIOError("write", c.Path, err)
	}
	meta := map[string]string{"pattern": content.Pattern, "version": content.Version}
	for key, value := range meta {
		if _, err = tx.Exec("INSERT OR REPLACE INTO cache_meta (key, value) VALUES (?, ?)", key, value); err != nil {
			return newIOError("write", c.Path, err)
		}
	}
	stmt, err := tx.Prepare("INSERT INTO candidates (pos, path, width, height, average, hash) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return newIOError("write", c.Path, err)
	}
	defer stmt.Close()
	for i, candidate := range content.Entries {
		// hashes are stored as strings, sqlite has no unsigned 64 bit integers
		_, err = stmt.Exec(i, candidate.Path, candidate.Width, candidate.Height,
			candidate.Average.Hex(), HashString(candidate.Hash))
		if err != nil {
			return newIOError("write", c.Path, err)
		}
	}
	if err = tx.Commit(); err != nil {
		return newIOError("write", c.Path, err)
	}
	return nil
}
