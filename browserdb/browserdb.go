// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

// Package browserdb reads live records, orphaned rows and freelist state
// from the SQLite databases of Chrome, Firefox and Safari profiles.
//
// Original artifact files are never opened directly: a running browser may
// hold them locked, so callers copy each database to an isolated scratch
// location first (see Scratch) and open the copy read only.
package browserdb

import (
	"fmt"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"
)

// DB wraps a connection to a scratch copy of a browser database.
type DB struct {
	conn *sqlite.Conn
}

// Open opens the database at path.
func Open(path string) (*DB, error) {
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, errors.Wrap(err, "could not open database")
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Exec runs a statement that returns no rows.
func (db *DB) Exec(query string) error {
	stmt, err := db.conn.Prepare(query)
	if err != nil {
		return err
	}
	_, err = stmt.Step()
	if err != nil {
		return err
	}
	return stmt.Finalize()
}

func (db *DB) pragma(name string) (int64, error) {
	stmt, err := db.conn.Prepare("PRAGMA " + name)
	if err != nil {
		return 0, err
	}
	_, err = stmt.Step()
	if err != nil {
		return 0, err
	}
	i := stmt.GetInt64(name)
	return i, stmt.Finalize()
}

// FreeSpace reports the unallocated byte regions of the database: the
// number of freelist pages and the page size. Free pages are a primary
// carving target, they hold deleted rows until overwritten.
func (db *DB) FreeSpace() (pages, pageSize int64, err error) {
	pages, err = db.pragma("freelist_count")
	if err != nil {
		return 0, 0, err
	}
	pageSize, err = db.pragma("page_size")
	if err != nil {
		return 0, 0, err
	}
	return pages, pageSize, nil
}

// tableExists reports whether the database contains the named table.
func (db *DB) tableExists(name string) (bool, error) {
	stmt, err := db.conn.Prepare("SELECT count(*) AS n FROM sqlite_master WHERE type='table' AND name=$name")
	if err != nil {
		return false, err
	}
	stmt.SetText("$name", name)
	if _, err := stmt.Step(); err != nil {
		return false, err
	}
	n := stmt.GetInt64("n")
	return n > 0, stmt.Finalize()
}

// tableColumns returns the set of column names of a table, introspected
// once via PRAGMA table_info. Schema adapters are selected against this set
// instead of scattering column existence checks through every query site.
func (db *DB) tableColumns(table string) (map[string]bool, error) {
	stmt, err := db.conn.Prepare(fmt.Sprintf("PRAGMA table_info (\"%s\")", table))
	if err != nil {
		return nil, err
	}

	columns := map[string]bool{}
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		columns[stmt.GetText("name")] = true
	}
	return columns, stmt.Finalize()
}

// hasColumns reports whether every required column exists.
func hasColumns(columns map[string]bool, required []string) bool {
	for _, column := range required {
		if !columns[column] {
			return false
		}
	}
	return true
}
