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

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/browserartifacts"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.sqlite")

	s, err := New(path)
	require.NoError(t, err)

	event := browserartifacts.NewArtifactEvent("Firefox", browserartifacts.KindVisit)
	event.URL = "https://example.test/"
	event.Timestamp = time.Date(2023, 5, 1, 12, 0, 0, 0, time.UTC)

	record := browserartifacts.NewRecoveredRecord(
		browserartifacts.ArtifactWriteAheadLog,
		browserartifacts.ConfidencePatternCarving,
		"wal_recovery",
	)
	record.Browser = "Firefox"
	record.URL = "https://deleted.test/"

	summary := browserartifacts.NewRunSummary()
	summary.LiveEvents = 1
	summary.Recovered = 1

	require.NoError(t, s.InsertEvents([]*browserartifacts.ArtifactEvent{event}))
	require.NoError(t, s.InsertRecovered([]*browserartifacts.RecoveredRecord{record}))
	require.NoError(t, s.SetSummary(summary))
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	events, err := s.Events()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, event.ID, events[0].ID)
	assert.Equal(t, event.URL, events[0].URL)
	assert.True(t, event.Timestamp.Equal(events[0].Timestamp))

	records, err := s.Recovered()
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, record.ID, records[0].ID)
	assert.Equal(t, browserartifacts.ConfidencePatternCarving, records[0].Confidence)

	stored, err := s.Summary()
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, 1, stored.LiveEvents)
	assert.Equal(t, 1, stored.Recovered)
}

func TestStoreInsertReplaces(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "run.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	event := browserartifacts.NewArtifactEvent("Chrome", browserartifacts.KindVisit)
	event.URL = "https://example.test/"

	require.NoError(t, s.InsertEvents([]*browserartifacts.ArtifactEvent{event}))
	event.Title = "Updated"
	require.NoError(t, s.InsertEvents([]*browserartifacts.ArtifactEvent{event}))

	events, err := s.Events()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Updated", events[0].Title)
}

func TestStoreEmptySummary(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "run.sqlite"))
	require.NoError(t, err)
	defer s.Close()

	summary, err := s.Summary()
	require.NoError(t, err)
	assert.Nil(t, summary)
}
