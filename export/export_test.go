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

package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/timeline"
)

func TestTimelineCSV(t *testing.T) {
	base := time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	visit := browserartifacts.NewArtifactEvent("Firefox", browserartifacts.KindVisit)
	visit.URL = "https://example.test/"
	visit.Title = "Example"
	visit.Timestamp = base

	record := browserartifacts.NewRecoveredRecord(
		browserartifacts.ArtifactWriteAheadLog,
		browserartifacts.ConfidencePatternCarving,
		"wal_recovery",
	)
	record.Browser = "Firefox"
	record.URL = "https://deleted.test/"

	tl := timeline.Build(
		[]*browserartifacts.ArtifactEvent{visit},
		[]*browserartifacts.RecoveredRecord{record},
	)

	var buf bytes.Buffer
	require.NoError(t, TimelineCSV(&buf, tl))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"browser", "kind", "url", "title", "timestamp", "provenance", "confidence"}, rows[0])
	assert.Equal(t, []string{"Firefox", "visit", "https://example.test/", "Example",
		"2023-05-01T12:00:00Z", "live_table", ""}, rows[1])
	assert.Equal(t, []string{"Firefox", "recovered", "https://deleted.test/", "",
		"", "write_ahead_log", "pattern_carving"}, rows[2])
}

func TestRecoveredCSV(t *testing.T) {
	record := browserartifacts.NewRecoveredRecord(
		browserartifacts.ArtifactOrphanedRow,
		browserartifacts.ConfidenceOrphanedRow,
		"orphaned_record",
	)
	record.Browser = "Firefox"
	record.URL = "https://deleted.test/"
	record.Timestamp = time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, RecoveredCSV(&buf, []*browserartifacts.RecoveredRecord{record}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Firefox", "recovered", "https://deleted.test/", "",
		"2023-05-01T12:00:00Z", "orphaned_row", "orphaned_row"}, rows[1])
}

func TestUnionCSV(t *testing.T) {
	type visit struct {
		URL  string
		When time.Time
	}
	type download struct {
		URL    string
		Target string
	}

	var buf bytes.Buffer
	require.NoError(t, UnionCSV(&buf, []interface{}{
		visit{URL: "https://a.test/", When: time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)},
		download{URL: "https://b.test/", Target: "/tmp/file.zip"},
	}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, []string{"Target", "URL", "When"}, rows[0])
	assert.Equal(t, []string{"", "https://a.test/", "2023-05-01T12:00:00Z"}, rows[1])
	assert.Equal(t, []string{"/tmp/file.zip", "https://b.test/", ""}, rows[2])
}

func TestUnionCSVFlattensAttributes(t *testing.T) {
	type entry struct {
		URL        string
		Attributes map[string]string
	}

	var buf bytes.Buffer
	require.NoError(t, UnionCSV(&buf, []interface{}{
		entry{URL: "https://a.test/", Attributes: map[string]string{"artifact": "write_ahead_log"}},
	}))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Attributes.artifact", "URL"}, rows[0])
	assert.Equal(t, []string{"write_ahead_log", "https://a.test/"}, rows[1])
}

func TestSummaryJSON(t *testing.T) {
	summary := browserartifacts.NewRunSummary()
	summary.Add("Firefox", "session_container", "session_recovery",
		browserartifacts.OutcomeCorruptContainer, "bad magic header")

	var buf bytes.Buffer
	require.NoError(t, SummaryJSON(&buf, summary))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	outcomes := decoded["outcomes"].([]interface{})
	require.Len(t, outcomes, 1)
	assert.Equal(t, "corrupt_container", outcomes[0].(map[string]interface{})["outcome"])
}
