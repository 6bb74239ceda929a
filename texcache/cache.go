// github.com/jkseppan/dviread - a reader for TeX DVI, TFM and VF files
// Copyright (C) 2024  The dviread Authors
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

// Package texcache is a persistent, schema-versioned cache of
// kpsewhich lookups and parsed DVI page contents, backed by an
// embedded SQLite database.
package texcache

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"
)

// SchemaVersion is the cache's current schema version. It is recorded
// in the database's PRAGMA user_version and never silently migrated:
// opening a database with a different version is a hard error.
const SchemaVersion = 2

// SchemaVersionError indicates that an on-disk cache file was created
// by an incompatible schema version.
type SchemaVersionError struct {
	Path            string
	Found, Expected int
}

func (err *SchemaVersionError) Error() string {
	return fmt.Sprintf("support database %s has version %d, expected %d",
		err.Path, err.Found, err.Expected)
}

// Cache is a single connection to the support-file database. Per the
// concurrency model, a Cache must only be used from one goroutine at a
// time; callers needing concurrent access should open one Cache per
// goroutine against the same file and let SQLite's own locking
// serialize writes.
type Cache struct {
	db   *sql.DB
	path string
}

// DefaultPath returns the default cache file location inside cacheDir:
// texsupport.<schema>.db.
func DefaultPath(cacheDir string) string {
	return filepath.Join(cacheDir, fmt.Sprintf("texsupport.%d.db", SchemaVersion))
}

var (
	defaultOnce  sync.Once
	defaultCache *Cache
	defaultErr   error
)

// Default returns a process-wide lazily-opened Cache at the default
// location under the user's cache directory. Prefer Open with an
// explicit path and dependency-injecting the result; Default exists so
// callers that don't care can omit the plumbing.
func Default() (*Cache, error) {
	defaultOnce.Do(func() {
		dir, err := os.UserCacheDir()
		if err != nil {
			defaultErr = err
			return
		}
		dir = filepath.Join(dir, "dviread")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			defaultErr = err
			return
		}
		defaultCache, defaultErr = Open(DefaultPath(dir))
	})
	return defaultCache, defaultErr
}

// Open opens (creating if necessary) the cache database at path.
func Open(path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The concurrency model calls for one connection per goroutine
	// sharing a file; within a single Cache, keep exactly one.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	c := &Cache{db: db, path: path}
	if err := c.init(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

func (c *Cache) init() error {
	if _, err := c.db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA foreign_keys=ON;
	`); err != nil {
		return err
	}

	var version int
	if err := c.db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return err
	}

	switch {
	case version == 0:
		return c.create()
	case version != SchemaVersion:
		return &SchemaVersionError{Path: c.path, Found: version, Expected: SchemaVersion}
	default:
		return nil
	}
}

func (c *Cache) create() error {
	_, err := c.db.Exec(`
		PRAGMA page_size=4096;
		CREATE TABLE file_path(
			filename TEXT PRIMARY KEY NOT NULL,
			pathname TEXT
		) WITHOUT ROWID;
		CREATE TABLE dvi_file(
			id INTEGER PRIMARY KEY,
			name TEXT UNIQUE NOT NULL,
			mtime INTEGER,
			size INTEGER
		);
		CREATE TABLE dvi_font(
			id INTEGER PRIMARY KEY,
			texname TEXT UNIQUE NOT NULL
		);
		CREATE TABLE dvi_font_metrics(
			id INTEGER NOT NULL
				REFERENCES dvi_font(id) ON DELETE CASCADE,
			scale INTEGER NOT NULL,
			widths BLOB NOT NULL,
			PRIMARY KEY (id, scale)
		);
		CREATE TABLE dvi(
			fileid INTEGER NOT NULL
				REFERENCES dvi_file(id) ON DELETE CASCADE,
			pageno INTEGER NOT NULL,
			seq INTEGER NOT NULL,
			x INTEGER NOT NULL,
			y INTEGER NOT NULL,
			height INTEGER NOT NULL,
			width INTEGER NOT NULL,
			depth INTEGER NOT NULL,
			fontid INTEGER,
			fontscale INTEGER,
			glyph INTEGER,
			PRIMARY KEY (fileid, pageno, seq)
		) WITHOUT ROWID;
		CREATE TABLE dvi_baseline(
			fileid INTEGER NOT NULL
				REFERENCES dvi_file(id) ON DELETE CASCADE,
			pageno INTEGER NOT NULL,
			baseline REAL NOT NULL,
			PRIMARY KEY (fileid, pageno)
		) WITHOUT ROWID;
		PRAGMA user_version=2;
	`)
	return err
}

// Close closes the underlying database connection.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Optimize runs SQLite's own PRAGMA optimize, which can improve query
// performance after a batch of inserts. Safe, and cheap, to skip.
func (c *Cache) Optimize() error {
	_, err := c.db.Exec("PRAGMA optimize;")
	return err
}
