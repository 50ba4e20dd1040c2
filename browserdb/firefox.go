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
	"github.com/pkg/errors"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/epochtime"
)

// FirefoxHistory reads visit events from a places.sqlite copy. Firefox
// stores visit dates as microseconds since 1970.
func (db *DB) FirefoxHistory(browser string) ([]*browserartifacts.ArtifactEvent, error) {
	ok, err := db.tableExists("moz_places")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no moz_places table")
	}

	stmt, err := db.conn.Prepare(`
		SELECT moz_places.url AS url, moz_places.title AS title,
		       moz_places.visit_count AS visit_count,
		       moz_historyvisits.visit_date AS visit_date
		FROM moz_places
		LEFT JOIN moz_historyvisits ON moz_places.id = moz_historyvisits.place_id
		WHERE moz_historyvisits.visit_date IS NOT NULL
		ORDER BY moz_historyvisits.visit_date DESC`)
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
		setTimestamp(event, stmt.GetInt64("visit_date"), epochtime.UnixMicro)
		events = append(events, event)
	}
	return events, stmt.Finalize()
}

// FirefoxCookies reads cookie lifecycle events from a cookies.sqlite copy.
// Creation and last access are microseconds since 1970; each live cookie
// row yields up to two events.
func (db *DB) FirefoxCookies(browser string) ([]*browserartifacts.ArtifactEvent, error) {
	ok, err := db.tableExists("moz_cookies")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no moz_cookies table")
	}

	stmt, err := db.conn.Prepare(`
		SELECT host, name, path, creationTime, lastAccessed
		FROM moz_cookies
		ORDER BY lastAccessed DESC`)
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

		host := stmt.GetText("host")
		name := stmt.GetText("name")

		created := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindCookieCreated)
		created.Host = host
		created.Title = name
		setTimestamp(created, stmt.GetInt64("creationTime"), epochtime.UnixMicro)
		events = append(events, created)

		accessed := browserartifacts.NewArtifactEvent(browser, browserartifacts.KindCookieAccessed)
		accessed.Host = host
		accessed.Title = name
		setTimestamp(accessed, stmt.GetInt64("lastAccessed"), epochtime.UnixMicro)
		events = append(events, accessed)
	}
	return events, stmt.Finalize()
}

// FirefoxOrphans finds rows in moz_places that no moz_historyvisits row
// references anymore: the parent survived a deletion that should have
// cascaded. This uses the database's own structural guarantees and carries
// the highest recovery confidence.
func (db *DB) FirefoxOrphans(browser string) ([]*browserartifacts.RecoveredRecord, error) {
	ok, err := db.tableExists("moz_places")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.Wrap(browserartifacts.ErrCorruptContainer, "no moz_places table")
	}

	stmt, err := db.conn.Prepare(`
		SELECT url, title
		FROM moz_places
		WHERE id NOT IN (SELECT place_id FROM moz_historyvisits)
		AND url NOT LIKE 'place:%'
		AND url NOT LIKE 'about:%'`)
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
			"orphaned_record",
		)
		record.Browser = browser
		record.URL = stmt.GetText("url")
		record.Title = stmt.GetText("title")
		records = append(records, record)
	}
	return records, stmt.Finalize()
}

// setTimestamp normalizes a raw value onto an event. A malformed raw value
// degrades to an absent timestamp and flags the event instead of failing.
func setTimestamp(event *browserartifacts.ArtifactEvent, raw int64, epoch epochtime.Epoch) {
	t, err := epochtime.Convert(raw, epoch)
	if err != nil {
		event.AddError(err.Error())
		return
	}
	event.Timestamp = t
}
