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

// Package store persists extraction results in a single SQLite file, so a
// run can be archived as one artifact and re-analyzed later without access
// to the original profile.
package store

import (
	"encoding/json"
	"strings"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/browserartifacts"
)

// Store is a result container backed by a single SQLite file.
type Store struct {
	conn *sqlite.Conn
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id TEXT PRIMARY KEY,
	browser TEXT,
	kind TEXT,
	url TEXT,
	json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS recovered (
	id TEXT PRIMARY KEY,
	browser TEXT,
	url TEXT,
	confidence INTEGER,
	method TEXT,
	json TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS summary (
	id INTEGER PRIMARY KEY CHECK (id = 1),
	json TEXT NOT NULL
);`

// New opens or creates a result store at path.
func New(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, 0)
	if err != nil {
		return nil, errors.Wrap(err, "could not open store")
	}

	store := &Store{conn: conn}
	if err := store.exec(schema); err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "could not create schema")
	}
	return store, nil
}

// Close closes the underlying connection.
func (s *Store) Close() error {
	return s.conn.Close()
}

// InsertEvents writes live events in one transaction.
func (s *Store) InsertEvents(events []*browserartifacts.ArtifactEvent) error {
	if err := s.exec("BEGIN"); err != nil {
		return err
	}

	stmt, err := s.conn.Prepare(
		"INSERT OR REPLACE INTO events (id, browser, kind, url, json) VALUES ($id, $browser, $kind, $url, $json)")
	if err != nil {
		return err
	}
	for _, event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			return err
		}
		stmt.SetText("$id", event.ID)
		stmt.SetText("$browser", event.Browser)
		stmt.SetText("$kind", string(event.Kind))
		stmt.SetText("$url", event.URL)
		stmt.SetText("$json", string(data))
		if _, err := stmt.Step(); err != nil {
			return err
		}
		if err := stmt.Reset(); err != nil {
			return err
		}
	}
	if err := stmt.Finalize(); err != nil {
		return err
	}
	return s.exec("COMMIT")
}

// InsertRecovered writes recovered records in one transaction.
func (s *Store) InsertRecovered(records []*browserartifacts.RecoveredRecord) error {
	if err := s.exec("BEGIN"); err != nil {
		return err
	}

	stmt, err := s.conn.Prepare(
		"INSERT OR REPLACE INTO recovered (id, browser, url, confidence, method, json) " +
			"VALUES ($id, $browser, $url, $confidence, $method, $json)")
	if err != nil {
		return err
	}
	for _, record := range records {
		data, err := json.Marshal(record)
		if err != nil {
			return err
		}
		stmt.SetText("$id", record.ID)
		stmt.SetText("$browser", record.Browser)
		stmt.SetText("$url", record.URL)
		stmt.SetInt64("$confidence", int64(record.Confidence))
		stmt.SetText("$method", record.Method)
		stmt.SetText("$json", string(data))
		if _, err := stmt.Step(); err != nil {
			return err
		}
		if err := stmt.Reset(); err != nil {
			return err
		}
	}
	if err := stmt.Finalize(); err != nil {
		return err
	}
	return s.exec("COMMIT")
}

// SetSummary stores the run summary, replacing any previous one.
func (s *Store) SetSummary(summary *browserartifacts.RunSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	stmt, err := s.conn.Prepare("INSERT OR REPLACE INTO summary (id, json) VALUES (1, $json)")
	if err != nil {
		return err
	}
	stmt.SetText("$json", string(data))
	if _, err := stmt.Step(); err != nil {
		return err
	}
	return stmt.Finalize()
}

// Events reads back all stored live events.
func (s *Store) Events() ([]*browserartifacts.ArtifactEvent, error) {
	stmt, err := s.conn.Prepare("SELECT json FROM events")
	if err != nil {
		return nil, err
	}

	var events []*browserartifacts.ArtifactEvent
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		event := &browserartifacts.ArtifactEvent{}
		if err := json.Unmarshal([]byte(stmt.GetText("json")), event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, stmt.Finalize()
}

// Recovered reads back all stored recovered records.
func (s *Store) Recovered() ([]*browserartifacts.RecoveredRecord, error) {
	stmt, err := s.conn.Prepare("SELECT json FROM recovered")
	if err != nil {
		return nil, err
	}

	var records []*browserartifacts.RecoveredRecord
	for {
		hasRow, err := stmt.Step()
		if err != nil {
			return nil, err
		}
		if !hasRow {
			break
		}
		record := &browserartifacts.RecoveredRecord{}
		if err := json.Unmarshal([]byte(stmt.GetText("json")), record); err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, stmt.Finalize()
}

// Summary reads back the stored run summary. A store without a summary
// yields nil.
func (s *Store) Summary() (*browserartifacts.RunSummary, error) {
	stmt, err := s.conn.Prepare("SELECT json FROM summary WHERE id = 1")
	if err != nil {
		return nil, err
	}

	hasRow, err := stmt.Step()
	if err != nil {
		return nil, err
	}
	if !hasRow {
		return nil, stmt.Finalize()
	}

	summary := &browserartifacts.RunSummary{}
	if err := json.Unmarshal([]byte(stmt.GetText("json")), summary); err != nil {
		return nil, err
	}
	return summary, stmt.Finalize()
}

func (s *Store) exec(queries string) error {
	return exec(s.conn, queries)
}

// exec runs multiple semicolon separated statements that return no rows.
func exec(conn *sqlite.Conn, queries string) error {
	query := queries
	for strings.TrimSpace(query) != "" {
		stmt, trailing, err := conn.PrepareTransient(query)
		if err != nil {
			return err
		}
		if _, err := stmt.Step(); err != nil {
			stmt.Finalize()
			return err
		}
		if err := stmt.Finalize(); err != nil {
			return err
		}
		if trailing == 0 {
			return nil
		}
		query = query[len(query)-trailing:]
	}
	return nil
}
