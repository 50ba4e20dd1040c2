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

package browserartifacts

import (
	"time"

	"github.com/google/uuid"
)

// EventKind classifies a single timeline entry.
type EventKind string

// All event kinds emitted by the live extractors.
const (
	KindVisit            EventKind = "visit"
	KindDownloadStart    EventKind = "download_start"
	KindDownloadComplete EventKind = "download_complete"
	KindCookieCreated    EventKind = "cookie_created"
	KindCookieAccessed   EventKind = "cookie_accessed"
	KindRecovered        EventKind = "recovered"
)

// Artifact names the on-disk source a record was taken from.
type Artifact string

// All artifact provenances.
const (
	ArtifactLiveTable        Artifact = "live_table"
	ArtifactWriteAheadLog    Artifact = "write_ahead_log"
	ArtifactRollbackJournal  Artifact = "rollback_journal"
	ArtifactFreeSpace        Artifact = "free_space"
	ArtifactSessionContainer Artifact = "session_container"
	ArtifactCookieContainer  Artifact = "cookie_container"
	ArtifactOrphanedRow      Artifact = "orphaned_row"
)

// Confidence ranks competing recovered candidates for the same URL. Higher
// values win during aggregation. The ordering is fixed: a record carved out
// of an intact structure beats a record assembled from byte patterns.
type Confidence int

// Confidence ranks, lowest to highest.
const (
	ConfidenceSummaryStub Confidence = iota + 1
	ConfidencePatternCarving
	ConfidenceCookieContainer
	ConfidenceSessionContainer
	ConfidenceOrphanedRow
)

func (c Confidence) String() string {
	switch c {
	case ConfidenceSummaryStub:
		return "summary_stub"
	case ConfidencePatternCarving:
		return "pattern_carving"
	case ConfidenceCookieContainer:
		return "cookie_container"
	case ConfidenceSessionContainer:
		return "session_container"
	case ConfidenceOrphanedRow:
		return "orphaned_row"
	}
	return "unknown"
}

// ArtifactEvent is a single entry from the live dataset of a browser. Events
// are immutable once created; a zero Timestamp means the instant is unknown.
type ArtifactEvent struct {
	ID         string            `json:"id"`
	Browser    string            `json:"browser"`
	Kind       EventKind         `json:"kind"`
	Timestamp  time.Time         `json:"timestamp,omitempty"`
	URL        string            `json:"url,omitempty"`
	Title      string            `json:"title,omitempty"`
	Host       string            `json:"host,omitempty"`
	TargetPath string            `json:"target_path,omitempty"`
	VisitCount int               `json:"visit_count,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Errors     []string          `json:"errors,omitempty"`
}

// NewArtifactEvent creates an event for one browser and kind.
func NewArtifactEvent(browser string, kind EventKind) *ArtifactEvent {
	return &ArtifactEvent{ID: "event--" + uuid.New().String(), Browser: browser, Kind: kind}
}

// AddError adds an error string to an ArtifactEvent and returns this
// ArtifactEvent.
func (e *ArtifactEvent) AddError(err string) *ArtifactEvent {
	e.Errors = append(e.Errors, err)
	return e
}

// RecoveredRecord is a candidate deleted record produced by a carving
// strategy or by orphaned row detection. Records are never mutated after
// creation; the aggregator discards a record if its URL collides with a live
// event.
type RecoveredRecord struct {
	ID         string     `json:"id"`
	Browser    string     `json:"browser"`
	URL        string     `json:"url,omitempty"`
	Title      string     `json:"title,omitempty"`
	Timestamp  time.Time  `json:"timestamp,omitempty"`
	Artifact   Artifact   `json:"artifact"`
	Confidence Confidence `json:"confidence"`
	Method     string     `json:"recovery_method"`
	Text       string     `json:"extracted_text,omitempty"`
	Offset     int64      `json:"raw_offset,omitempty"`
}

// NewRecoveredRecord creates a record recovered from the given artifact.
func NewRecoveredRecord(artifact Artifact, confidence Confidence, method string) *RecoveredRecord {
	return &RecoveredRecord{
		ID:         "recovered--" + uuid.New().String(),
		Artifact:   artifact,
		Confidence: confidence,
		Method:     method,
		Offset:     -1,
	}
}
