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

	"github.com/pkg/errors"
)

// Outcome describes how processing a single artifact with a single method
// ended. Outcomes other than OutcomeOK are non-fatal: they are recorded in
// the run summary and processing continues with the next artifact.
type Outcome string

// All outcomes.
const (
	OutcomeOK               Outcome = "ok"
	OutcomeDegraded         Outcome = "degraded"
	OutcomeEmpty            Outcome = "empty"
	OutcomeCorruptContainer Outcome = "corrupt_container"
	OutcomeMissing          Outcome = "missing"
	OutcomeUnreadable       Outcome = "unreadable"
)

// Failure taxonomy. Every failure is isolated to the artifact that produced
// it; none of these errors aborts the run.
var (
	ErrMissingArtifact    = errors.New("artifact file is missing")
	ErrLockedOrUnreadable = errors.New("artifact file is locked or unreadable")
	ErrCorruptContainer   = errors.New("container has a bad magic, header or size")
)

// ArtifactOutcome records the outcome of one artifact/method combination for
// the run summary.
type ArtifactOutcome struct {
	Browser  string  `json:"browser"`
	Artifact string  `json:"artifact"`
	Method   string  `json:"method"`
	Outcome  Outcome `json:"outcome"`
	Detail   string  `json:"detail,omitempty"`
}

// RunSummary enumerates every non-fatal outcome by category and artifact, so
// a caller can distinguish "this browser had no data" from "this browser's
// data could not be parsed".
type RunSummary struct {
	Started       time.Time         `json:"started"`
	Finished      time.Time         `json:"finished"`
	LiveEvents    int               `json:"live_events"`
	Recovered     int               `json:"recovered_records"`
	ByMethod      map[string]int    `json:"recovered_by_method"`
	ByBrowser     map[string]int    `json:"records_by_browser"`
	BrowsersFound []string          `json:"browsers_found"`
	Outcomes      []ArtifactOutcome `json:"outcomes"`
}

// NewRunSummary creates an empty summary with the start time set.
func NewRunSummary() *RunSummary {
	return &RunSummary{
		Started:   time.Now().UTC(),
		ByMethod:  map[string]int{},
		ByBrowser: map[string]int{},
	}
}

// Add records the outcome of one artifact/method combination.
func (s *RunSummary) Add(browser, artifact, method string, outcome Outcome, detail string) {
	s.Outcomes = append(s.Outcomes, ArtifactOutcome{
		Browser:  browser,
		Artifact: artifact,
		Method:   method,
		Outcome:  outcome,
		Detail:   detail,
	})
}

// CountRecovered tallies a deduplicated recovered record.
func (s *RunSummary) CountRecovered(r *RecoveredRecord) {
	s.Recovered++
	s.ByMethod[r.Method]++
	s.ByBrowser[r.Browser]++
}

// CountLive tallies a live event.
func (s *RunSummary) CountLive(e *ArtifactEvent) {
	s.LiveEvents++
	s.ByBrowser[e.Browser]++
}
