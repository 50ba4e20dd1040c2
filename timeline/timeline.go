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

// Package timeline merges live and recovered browser activity into one
// chronological record and segments it into usage sessions.
package timeline

import (
	"sort"

	"github.com/forensicanalysis/browserartifacts"
)

// Timeline is the merged chronological record. Entries without a usable
// timestamp are never dropped; they are listed separately in Unknown.
type Timeline struct {
	Ordered []*browserartifacts.ArtifactEvent
	Unknown []*browserartifacts.ArtifactEvent
}

// Build merges live events and recovered records, sorted ascending by
// timestamp. The sort is stable, so entries with equal timestamps keep
// their input order. Every input ends up in exactly one of the two lists.
func Build(
	events []*browserartifacts.ArtifactEvent,
	recovered []*browserartifacts.RecoveredRecord,
) *Timeline {
	merged := make([]*browserartifacts.ArtifactEvent, 0, len(events)+len(recovered))
	merged = append(merged, events...)
	for _, record := range recovered {
		merged = append(merged, recoveredEvent(record))
	}

	timeline := &Timeline{}
	for _, event := range merged {
		if event.Timestamp.IsZero() {
			timeline.Unknown = append(timeline.Unknown, event)
		} else {
			timeline.Ordered = append(timeline.Ordered, event)
		}
	}

	sort.SliceStable(timeline.Ordered, func(i, j int) bool {
		return timeline.Ordered[i].Timestamp.Before(timeline.Ordered[j].Timestamp)
	})
	return timeline
}

// recoveredEvent lifts a recovered record into the event model, keeping its
// provenance as attributes.
func recoveredEvent(record *browserartifacts.RecoveredRecord) *browserartifacts.ArtifactEvent {
	return &browserartifacts.ArtifactEvent{
		ID:        record.ID,
		Browser:   record.Browser,
		Kind:      browserartifacts.KindRecovered,
		Timestamp: record.Timestamp,
		URL:       record.URL,
		Title:     record.Title,
		Attributes: map[string]string{
			"artifact":        string(record.Artifact),
			"confidence":      record.Confidence.String(),
			"recovery_method": record.Method,
		},
	}
}
