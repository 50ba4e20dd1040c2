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

package browserdb

import (
	"crawshaw.io/sqlite"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/epochtime"
)

// ChromeHistory reads visit events from a History database copy. Chrome
// stores timestamps as microseconds since 1601.
func (db *DB) ChromeHistory(browser string) ([]*browserartifacts.ArtifactEvent, error) {
	ok, err := db.tableExists("urls")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no urls table")
	}

	stmt, err := db.conn.Prepare(`
		SELECT urls.url AS url, urls.title AS title,
		       urls.visit_count AS visit_count, visits.visit_time AS visit_time
		FROM urls
		LEFT JOIN visits ON urls.id = visits.url
		WHERE visits.visit_time IS NOT NULL
		ORDER BY visits.visit_time DESC`)
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

		event := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindVisit)
		event.URL = stmt.GetText("url")
		event.Title = stmt.GetText("title")
		event.VisitCount = int(stmt.GetInt64("visit_count"))
		setTimestamp(event, stmt.GetInt64("visit_time"), epochtime.Windows)
		events = append(events, event)
	}
	return events, stmt.Finalize()
}

// downloadsAdapter is a versioned schema adapter for the Chrome downloads
// table. The downloads schema changed across Chrome versions; adapters are
// tried in priority order and the first one whose required columns all
// exist builds the rows.
type downloadsAdapter struct {
	name     string
	required []string
	query    string
	rows     func(browser string, stmt *sqlite.Stmt) []*browserartifacts.ArtifactEvent
}

var downloadsAdapters = []downloadsAdapter{
	{
		name:     "modern",
		required: []string{"target_path", "url", "start_time", "end_time", "received_bytes", "total_bytes"},
		query: `SELECT target_path, url, start_time, end_time, received_bytes, total_bytes
			FROM downloads ORDER BY start_time DESC`,
		rows: func(browser string, stmt *sqlite.Stmt) []*browserartifacts.ArtifactEvent {
			var events []*browserartifacts.ArtifactEvent

			start := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindDownloadStart)
			start.URL = stmt.GetText("url")
			start.TargetPath = stmt.GetText("target_path")
			setTimestamp(start, stmt.GetInt64("start_time"), epochtime.Windows)
			events = append(events, start)

			if endTime := stmt.GetInt64("end_time"); endTime != 0 {
				end := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindDownloadComplete)
				end.URL = stmt.GetText("url")
				end.TargetPath = stmt.GetText("target_path")
				setTimestamp(end, endTime, epochtime.Windows)
				events = append(events, end)
			}
			return events
		},
	},
	{
		name:     "legacy",
		required: []string{"url", "start_time"},
		query:    `SELECT url, start_time FROM downloads ORDER BY start_time DESC`,
		rows: func(browser string, stmt *sqlite.Stmt) []*browserartifacts.ArtifactEvent {
			start := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindDownloadStart)
			start.URL = stmt.GetText("url")
			setTimestamp(start, stmt.GetInt64("start_time"), epochtime.Windows)
			return []*browserartifacts.ArtifactEvent{start}
		},
	},
}

// ChromeDownloads reads download events. The adapter is selected once by
// introspecting the available columns.
func (db *DB) ChromeDownloads(browser string) ([]*browserartifacts.ArtifactEvent, error) {
	ok, err := db.tableExists("downloads")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no downloads table")
	}

	columns, err := db.tableColumns("downloads")
	if err != nil {
		return nil, err
	}

	var adapter *downloadsAdapter
	for i := range downloadsAdapters {
		if hasColumns(columns, downloadsAdapters[i].required) {
			adapter = &downloadsAdapters[i]
			break
		}
	}
	if adapter == nil {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no recognizable downloads columns")
	}

	stmt, err := db.conn.Prepare(adapter.query)
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
		events = append(events, adapter.rows(browser, stmt)...)
	}
	return events, stmt.Finalize()
}

// ChromeCookies reads cookie lifecycle events from a Cookies database copy.
func (db *DB) ChromeCookies(browser string) ([]*browserartifacts.ArtifactEvent, error) {
	ok, err := db.tableExists("cookies")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no cookies table")
	}

	stmt, err := db.conn.Prepare(`
		SELECT host_key, name, creation_utc, last_access_utc
		FROM cookies
		ORDER BY last_access_utc DESC`)
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

		host := stmt.GetText("host_key")
		name := stmt.GetText("name")

		created := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindCookieCreated)
		created.Host = host
		created.Title = name
		setTimestamp(created, stmt.GetInt64("creation_utc"), epochtime.Windows)
		events = append(events, created)

		accessed := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindCookieAccessed)
		accessed.Host = host
		accessed.Title = name
		setTimestamp(accessed, stmt.GetInt64("last_access_utc"), epochtime.Windows)
		events = append(events, accessed)
	}
	return events, stmt.Finalize()
}
