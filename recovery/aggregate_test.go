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

package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/browserartifacts"
)

func record(url, method string, confidence browserartifacts.Confidence) *browserartifacts.RecoveredRecord {
	r := browserartifacts.NewRecoveredRecord(browserartifacts.ArtifactFreeSpace, confidence, method)
	r.URL = url
	return r
}

func TestAggregateHighestConfidenceWins(t *testing.T) {
	weak := record("https://example.test/", "database_free_space", browserartifacts.ConfidencePatternCarving)
	strong := record("https://example.test/", "session_recovery", browserartifacts.ConfidenceSessionContainer)

	records := Aggregate([]*browserartifacts.RecoveredRecord{weak, strong}, nil)
	require.Len(t, records, 1)
	assert.Same(t, strong, records[0])
}

func TestAggregateTieKeepsEarliest(t *testing.T) {
	first := record("https://example.test/", "wal_recovery", browserartifacts.ConfidencePatternCarving)
	second := record("https://example.test/", "journal_recovery", browserartifacts.ConfidencePatternCarving)

	records := Aggregate([]*browserartifacts.RecoveredRecord{first, second}, nil)
	require.Len(t, records, 1)
	assert.Same(t, first, records[0])
}

func TestAggregateDropsLiveURLs(t *testing.T) {
	live := browserartifacts.NewArtifactEvent("Firefox", browserartifacts.KindVisit)
	live.URL = "https://live.test/"

	candidates := []*browserartifacts.RecoveredRecord{
		record("https://live.test/", "wal_recovery", browserartifacts.ConfidencePatternCarving),
		record("https://deleted.test/", "wal_recovery", browserartifacts.ConfidencePatternCarving),
	}

	records := Aggregate(candidates, []*browserartifacts.ArtifactEvent{live})
	require.Len(t, records, 1)
	assert.Equal(t, "https://deleted.test/", records[0].URL)
}

func TestAggregateKeepsSummaryStubs(t *testing.T) {
	stub := browserartifacts.NewRecoveredRecord(
		browserartifacts.ArtifactCookieContainer,
		browserartifacts.ConfidenceSummaryStub,
		"cookie_container",
	)
	stub.Text = "3 pages, 412 bytes"

	records := Aggregate([]*browserartifacts.RecoveredRecord{
		record("https://deleted.test/", "wal_recovery", browserartifacts.ConfidencePatternCarving),
		stub,
	}, nil)

	require.Len(t, records, 2)
	assert.Same(t, stub, records[1])
}

func TestAggregateURLsUnique(t *testing.T) {
	var candidates []*browserartifacts.RecoveredRecord
	urls := []string{"https://a.test/", "https://b.test/", "https://a.test/", "https://b.test/", "https://c.test/"}
	for _, u := range urls {
		candidates = append(candidates, record(u, "wal_recovery", browserartifacts.ConfidencePatternCarving))
	}

	records := Aggregate(candidates, nil)
	require.Len(t, records, 3)

	seen := map[string]bool{}
	for _, r := range records {
		assert.False(t, seen[r.URL])
		seen[r.URL] = true
	}
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil, nil))
}
