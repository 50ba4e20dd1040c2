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

package carve

import (
	"bytes"
	"strings"

	"github.com/forensicanalysis/browserartifacts"
)

const (
	// titleWindow bounds the search for title text around a carved URL.
	titleWindow = 200
	// minURLTail is the minimum number of bytes required after the scheme.
	minURLTail = 3
	// minTitleLen is the minimum length of a printable run used as a title.
	minTitleLen = 3
)

// Pattern carves URL shaped substrings out of a raw byte buffer. It serves
// free database pages, write ahead logs and rollback journals, which share
// the same property: deleted rows survive as loose text until overwritten.
type Pattern struct {
	Source browserartifacts.Artifact
	Method string
}

// FreeSpace scans unallocated database pages.
func FreeSpace() Pattern {
	return Pattern{Source: browserartifacts.ArtifactFreeSpace, Method: "database_free_space"}
}

// WAL scans a write ahead log side file.
func WAL() Pattern {
	return Pattern{Source: browserartifacts.ArtifactWriteAheadLog, Method: "wal_recovery"}
}

// Journal scans a rollback journal side file.
func Journal() Pattern {
	return Pattern{Source: browserartifacts.ArtifactRollbackJournal, Method: "journal_recovery"}
}

func (p Pattern) Name() string { return p.Method }

// Carve scans data for URL shaped substrings and a best effort title near
// each match. Zero matches yield an empty result, not an error.
func (p Pattern) Carve(data []byte) Result {
	matches := ScanURLs(data)
	if len(matches) == 0 {
		return Result{Outcome: browserartifacts.OutcomeEmpty}
	}

	records := make([]*browserartifacts.RecoveredRecord, 0, len(matches))
	for _, m := range matches {
		record := browserartifacts.NewRecoveredRecord(p.Source, browserartifacts.ConfidencePatternCarving, p.Method)
		record.URL = m.URL
		record.Title = titleNear(data, m)
		record.Offset = m.Offset
		records = append(records, record)
	}
	return Result{Records: records, Outcome: browserartifacts.OutcomeOK}
}

// URLMatch is one URL shaped substring found in a byte buffer.
type URLMatch struct {
	URL    string
	Offset int64
}

// ScanURLs finds http and https URLs in raw bytes. A URL starts with its
// scheme and authority and ends at the first byte that is not printable
// ASCII. At least three bytes must follow the scheme.
func ScanURLs(data []byte) []URLMatch {
	var matches []URLMatch

	i := 0
	for {
		j := bytes.Index(data[i:], []byte("http"))
		if j < 0 {
			return matches
		}
		start := i + j

		var schemeLen int
		switch {
		case bytes.HasPrefix(data[start:], []byte("https://")):
			schemeLen = len("https://")
		case bytes.HasPrefix(data[start:], []byte("http://")):
			schemeLen = len("http://")
		default:
			i = start + len("http")
			continue
		}

		end := start + schemeLen
		for end < len(data) && printable(data[end]) {
			end++
		}
		if end-start-schemeLen < minURLTail {
			i = end
			continue
		}

		matches = append(matches, URLMatch{URL: string(data[start:end]), Offset: int64(start)})
		i = end
	}
}

// printable reports whether b is printable ASCII excluding space. Control
// bytes, whitespace and high bytes terminate a URL.
func printable(b byte) bool {
	return b > 0x20 && b < 0x7f
}

func titleByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == ' ' || b == '-' || b == '_':
		return true
	}
	return false
}

// titleNear searches a bounded window of bytes around a carved URL for the
// longest run of printable text that is not part of the URL itself.
func titleNear(data []byte, m URLMatch) string {
	start := int(m.Offset) - titleWindow
	if start < 0 {
		start = 0
	}
	end := int(m.Offset) + len(m.URL) + titleWindow
	if end > len(data) {
		end = len(data)
	}
	window := data[start:end]

	var title string
	runStart := -1
	for i := 0; i <= len(window); i++ {
		if i < len(window) && titleByte(window[i]) {
			if runStart < 0 {
				runStart = i
			}
			continue
		}
		if runStart >= 0 {
			candidate := strings.TrimSpace(string(window[runStart:i]))
			if len(candidate) >= minTitleLen && len(candidate) > len(title) &&
				!strings.Contains(m.URL, candidate) {
				title = candidate
			}
			runStart = -1
		}
	}
	return title
}
