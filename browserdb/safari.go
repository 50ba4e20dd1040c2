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
	"fmt"
	"net/url"
	"strings"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/carve"
	"github.com/forensicanalysis/browserartifacts/epochtime"
)

// SafariHistory reads visit events from a History.db copy. Safari stores
// visit times as seconds since 2001 with a fractional part and keeps no
// titles in the history store, so the domain serves as a pseudo title.
func (db *DB) SafariHistory(browser string) ([]*browserartifacts.ArtifactEvent, error) {
	for _, table := range []string{"history_items", "history_visits"} {
		ok, err := db.tableExists(table)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no "+table+" table")
		}
	}

	stmt, err := db.conn.Prepare(`
		SELECT history_items.url AS url, history_items.visit_count AS visit_count,
		       history_visits.visit_time AS visit_time
		FROM history_items
		LEFT JOIN history_visits ON history_items.id = history_visits.history_item
		ORDER BY history_visits.visit_time DESC`)
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
		event.Title = pseudoTitle(event.URL)
		event.VisitCount = int(stmt.GetInt64("visit_count"))

		t, err := epochtime.ConvertFloat(stmt.GetFloat("visit_time"), epochtime.Cocoa)
		if err != nil {
			event.AddError(err.Error())
		} else {
			event.Timestamp = t
		}
		events = append(events, event)
	}
	return events, stmt.Finalize()
}

// SafariTombstones extracts deleted history remnants from the
// history_tombstones table. The deletion interval survives as Cocoa
// timestamps; the URL column holds binary data that is pattern scanned for
// recognizable URLs.
func (db *DB) SafariTombstones(browser string) ([]*browserartifacts.RecoveredRecord, error) {
	ok, err := db.tableExists("history_tombstones")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil // older Safari versions keep no tombstones
	}

	stmt, err := db.conn.Prepare(`
		SELECT id, start_time, end_time, url, generation
		FROM history_tombstones
		ORDER BY end_time DESC`)
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

		record := browserartifacts.NewRecoveredRecord(
			browserartifacts.ArtifactOrphanedRow,
			browserartifacts.ConfidenceOrphanedRow,
			"tombstone_recovery",
		)
		record.Browser = browser

		blob := make([]byte, stmt.GetLen("url"))
		stmt.GetBytes("url", blob)
		if matches := carve.ScanURLs(blob); len(matches) > 0 {
			record.URL = matches[0].URL
			record.Title = "[recovered deleted URL]"
		} else {
			record.Title = fmt.Sprintf("[deleted record, tombstone %d]", stmt.GetInt64("id"))
			record.Text = fmt.Sprintf("generation %d, %d bytes of unrecognized url data",
				stmt.GetInt64("generation"), len(blob))
		}

		if t, err := epochtime.ConvertFloat(stmt.GetFloat("end_time"), epochtime.Cocoa); err == nil {
			record.Timestamp = t
		}
		records = append(records, record)
	}
	return records, stmt.Finalize()
}

// pseudoTitle derives a bracketed domain from a URL, with a leading www.
// label removed.
func pseudoTitle(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimPrefix(host, "www.")
	return "[" + host + "]"
}
