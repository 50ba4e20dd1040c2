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

// Package recovery runs carving strategies and live extraction over browser
// profiles and reduces the candidate records to a deduplicated set of
// genuinely deleted activity.
package recovery

import (
	"github.com/forensicanalysis/browserartifacts"
)

// Aggregate reduces carved candidates to at most one record per URL.
//
// Candidates are grouped by exact URL string. Within a group the record with
// the highest confidence wins; on equal confidence the candidate produced
// first is kept, so the strategy ordering of the pipeline acts as a stable
// tie break. URLs that also appear in the live dataset are dropped entirely,
// those records were never deleted. Records without a URL, such as summary
// stubs from an unparseable container, pass through untouched and are
// appended after the deduplicated records.
func Aggregate(
	candidates []*browserartifacts.RecoveredRecord,
	live []*browserartifacts.ArtifactEvent,
) []*browserartifacts.RecoveredRecord {
	liveURLs := make(map[string]bool, len(live))
	for _, event := range live {
		if event.URL != "" {
			liveURLs[event.URL] = true
		}
	}

	best := map[string]*browserartifacts.RecoveredRecord{}
	var order []string
	var stubs []*browserartifacts.RecoveredRecord

	for _, candidate := range candidates {
		if candidate.URL == "" {
			stubs = append(stubs, candidate)
			continue
		}
		if liveURLs[candidate.URL] {
			continue
		}

		current, seen := best[candidate.URL]
		if !seen {
			best[candidate.URL] = candidate
			order = append(order, candidate.URL)
			continue
		}
		if candidate.Confidence > current.Confidence {
			best[candidate.URL] = candidate
		}
	}

	records := make([]*browserartifacts.RecoveredRecord, 0, len(order)+len(stubs))
	for _, url := range order {
		records = append(records, best[url])
	}
	return append(records, stubs...)
}
