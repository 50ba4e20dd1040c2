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
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/browserartifacts"
)

func createDB(t *testing.T, statements ...string) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	for _, statement := range statements {
		require.NoError(t, db.Exec(statement))
	}
	return db
}

func TestFirefoxHistory(t *testing.T) {
	db := createDB(t,
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER)`,
		`CREATE TABLE moz_historyvisits (id INTEGER PRIMARY KEY, place_id INTEGER, visit_date INTEGER)`,
		`INSERT INTO moz_places VALUES (1, 'https://example.test/', 'Example', 2)`,
		`INSERT INTO moz_historyvisits VALUES (1, 1, 1670000000000000)`,
		`INSERT INTO moz_historyvisits VALUES (2, 1, 1670000600000000)`,
	)

	events, err := db.FirefoxHistory("Firefox")
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "https://example.test/", events[0].URL)
	assert.Equal(t, "Example", events[0].Title)
	assert.Equal(t, 2, events[0].VisitCount)
	assert.Equal(t, browserartifacts.KindVisit, events[0].Kind)
	assert.Equal(t, time.Date(2022, 12, 2, 17, 3, 20, 0, time.UTC), events[0].Timestamp)
	assert.Equal(t, time.Date(2022, 12, 2, 16, 53, 20, 0, time.UTC), events[1].Timestamp)
}

func TestFirefoxHistoryGarbageTimestamp(t *testing.T) {
	db := createDB(t,
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER)`,
		`CREATE TABLE moz_historyvisits (id INTEGER PRIMARY KEY, place_id INTEGER, visit_date INTEGER)`,
		`INSERT INTO moz_places VALUES (1, 'https://example.test/', 'Example', 1)`,
		`INSERT INTO moz_historyvisits VALUES (1, 1, -99)`,
	)

	events, err := db.FirefoxHistory("Firefox")
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, events[0].Timestamp.IsZero())
	assert.NotEmpty(t, events[0].Errors)
}

func TestFirefoxOrphans(t *testing.T) {
	db := createDB(t,
		`CREATE TABLE moz_places (id INTEGER PRIMARY KEY, url TEXT, title TEXT, visit_count INTEGER)`,
		`CREATE TABLE moz_historyvisits (id INTEGER PRIMARY KEY, place_id INTEGER, visit_date INTEGER)`,
		`INSERT INTO moz_places VALUES (1, 'https://kept.test/', 'Kept', 1)`,
		`INSERT INTO moz_places VALUES (2, 'https://deleted.test/', 'Deleted', 1)`,
		`INSERT INTO moz_places VALUES (3, 'place:sort=8', 'Internal', 0)`,
		`INSERT INTO moz_places VALUES (4, 'about:config', 'Internal', 0)`,
		`INSERT INTO moz_historyvisits VALUES (1, 1, 1670000000000000)`,
	)

	records, err := db.FirefoxOrphans("Firefox")
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "https://deleted.test/", records[0].URL)
	assert.Equal(t, "Deleted", records[0].Title)
	assert.Equal(t, browserartifacts.ArtifactOrphanedRow, records[0].Artifact)
	assert.Equal(t, browserartifacts.ConfidenceOrphanedRow, records[0].Confidence)
	assert.Equal(t, "orphaned_record", records[0].Method)
}

func TestChromeDownloadsAdapters(t *testing.T) {
	t.Run("modern", func(t *testing.T) {
		db := createDB(t,
			`CREATE TABLE downloads (id INTEGER PRIMARY KEY, target_path TEXT, url TEXT,
				start_time INTEGER, end_time INTEGER, received_bytes INTEGER, total_bytes INTEGER)`,
			`INSERT INTO downloads VALUES (1, '/tmp/file.zip', 'https://example.test/file.zip',
				13320000000000000, 13320000060000000, 100, 100)`,
		)

		events, err := db.ChromeDownloads("Chrome")
		require.NoError(t, err)
		require.Len(t, events, 2)

		assert.Equal(t, browserartifacts.KindDownloadStart, events[0].Kind)
		assert.Equal(t, "/tmp/file.zip", events[0].TargetPath)
		assert.Equal(t, time.Date(2023, 2, 4, 16, 0, 0, 0, time.UTC), events[0].Timestamp)
		assert.Equal(t, browserartifacts.KindDownloadComplete, events[1].Kind)
		assert.Equal(t, time.Date(2023, 2, 4, 16, 1, 0, 0, time.UTC), events[1].Timestamp)
	})

	t.Run("legacy", func(t *testing.T) {
		db := createDB(t,
			`CREATE TABLE downloads (id INTEGER PRIMARY KEY, url TEXT, start_time INTEGER)`,
			`INSERT INTO downloads VALUES (1, 'https://example.test/old.zip', 13320000000000000)`,
		)

		events, err := db.ChromeDownloads("Chrome")
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, browserartifacts.KindDownloadStart, events[0].Kind)
	})

	t.Run("unrecognizable", func(t *testing.T) {
		db := createDB(t, `CREATE TABLE downloads (id INTEGER PRIMARY KEY, something TEXT)`)

		_, err := db.ChromeDownloads("Chrome")
		assert.True(t, errors.Is(err, browserartifacts.ErrCorruptContainer))
	})
}

func TestSafariHistory(t *testing.T) {
	db := createDB(t,
		`CREATE TABLE history_items (id INTEGER PRIMARY KEY, url TEXT, visit_count INTEGER)`,
		`CREATE TABLE history_visits (id INTEGER PRIMARY KEY, history_item INTEGER, visit_time REAL)`,
		`INSERT INTO history_items VALUES (1, 'https://www.example.test/page', 3)`,
		`INSERT INTO history_visits VALUES (1, 1, 700000000.5)`,
	)

	events, err := db.SafariHistory("Safari")
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.Equal(t, "[example.test]", events[0].Title)
	assert.Equal(t, time.Date(2023, 3, 8, 20, 26, 40, 500000000, time.UTC), events[0].Timestamp)
}

func TestSafariTombstones(t *testing.T) {
	db := createDB(t,
		`CREATE TABLE history_tombstones (id INTEGER PRIMARY KEY, start_time REAL, end_time REAL, url BLOB, generation INTEGER)`,
		`INSERT INTO history_tombstones VALUES (1, 699990000, 700000000, X'00FF68747470733A2F2F676F6E652E746573742F7061676500', 1)`,
		`INSERT INTO history_tombstones VALUES (2, 699980000, 699990000, X'00FF00FF', 1)`,
	)

	records, err := db.SafariTombstones("Safari")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "https://gone.test/page", records[0].URL)
	assert.Equal(t, time.Date(2023, 3, 8, 20, 26, 40, 0, time.UTC), records[0].Timestamp)

	assert.Empty(t, records[1].URL)
	assert.Contains(t, records[1].Text, "unrecognized url data")
}

func TestFreeSpace(t *testing.T) {
	db := createDB(t, `CREATE TABLE t (x INTEGER)`)

	pages, pageSize, err := db.FreeSpace()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pages, int64(0))
	assert.Greater(t, pageSize, int64(0))
}

func TestMissingTables(t *testing.T) {
	db := createDB(t, `CREATE TABLE unrelated (x INTEGER)`)

	_, err := db.FirefoxHistory("Firefox")
	assert.True(t, errors.Is(err, browserartifacts.ErrCorruptContainer))

	_, err = db.ChromeHistory("Chrome")
	assert.True(t, errors.Is(err, browserartifacts.ErrCorruptContainer))

	records, err := db.SafariTombstones("Safari")
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestScratch(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/profile/places.sqlite", []byte("data"), 0644))

	scratch, err := NewScratch(fs, "/profile/places.sqlite")
	require.NoError(t, err)
	assert.NotEqual(t, "/profile/places.sqlite", scratch.Path)

	copied, err := afero.ReadFile(fs, scratch.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), copied)

	require.NoError(t, scratch.Close())
	exists, err := afero.Exists(fs, scratch.Path)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestScratchMissing(t *testing.T) {
	_, err := NewScratch(afero.NewMemMapFs(), "/missing/places.sqlite")
	assert.True(t, errors.Is(err, browserartifacts.ErrMissingArtifact))
}
