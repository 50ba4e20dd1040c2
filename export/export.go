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

// Package export serializes timelines, recovered records and run summaries
// to CSV and JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/fatih/structs"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/timeline"
)

// canonicalHeader is the fixed column set of the canonical record schema.
var canonicalHeader = []string{
	"browser", "kind", "url", "title", "timestamp", "provenance", "confidence",
}

// TimelineCSV writes a merged timeline in the canonical record schema.
// Ordered entries come first, entries without a timestamp follow with an
// empty timestamp column.
func TimelineCSV(w io.Writer, tl *timeline.Timeline) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(canonicalHeader); err != nil {
		return err
	}
	for _, event := range tl.Ordered {
		if err := cw.Write(eventRow(event)); err != nil {
			return err
		}
	}
	for _, event := range tl.Unknown {
		if err := cw.Write(eventRow(event)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func eventRow(event *browserartifacts.ArtifactEvent) []string {
	provenance := string(browserartifacts.ArtifactLiveTable)
	confidence := ""
	if event.Kind == browserartifacts.KindRecovered {
		provenance = event.Attributes["artifact"]
		confidence = event.Attributes["confidence"]
	}
	return []string{
		event.Browser,
		string(event.Kind),
		event.URL,
		event.Title,
		isoTime(event.Timestamp),
		provenance,
		confidence,
	}
}

// RecoveredCSV writes recovered records in the canonical record schema.
func RecoveredCSV(w io.Writer, records []*browserartifacts.RecoveredRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(canonicalHeader); err != nil {
		return err
	}
	for _, record := range records {
		row := []string{
			record.Browser,
			string(browserartifacts.KindRecovered),
			record.URL,
			record.Title,
			isoTime(record.Timestamp),
			string(record.Artifact),
			record.Confidence.String(),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// UnionCSV writes heterogeneous structs as CSV. The header is the sorted
// union of all field names, with nested maps and slices flattened into
// dotted columns; rows leave missing fields empty.
func UnionCSV(w io.Writer, items []interface{}) error {
	maps := make([]map[string]interface{}, 0, len(items))
	fields := map[string]bool{}
	for _, item := range items {
		m := map[string]interface{}{}
		for _, field := range structs.New(item).Fields() {
			if !field.IsExported() {
				continue
			}
			m[field.Name()] = field.Value()
		}
		m = flattenMap(m)
		for name := range m {
			fields[name] = true
		}
		maps = append(maps, m)
	}

	header := make([]string, 0, len(fields))
	for name := range fields {
		header = append(header, name)
	}
	sort.Strings(header)

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, m := range maps {
		row := make([]string, len(header))
		for i, name := range header {
			if value, ok := m[name]; ok {
				row[i] = cell(value)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// SummaryJSON writes the run summary as indented JSON.
func SummaryJSON(w io.Writer, summary *browserartifacts.RunSummary) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(summary)
}

// SessionsJSON writes sessions and their stats as indented JSON.
func SessionsJSON(w io.Writer, sessions []*timeline.Session, stats timeline.Stats) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(struct {
		Stats    timeline.Stats      `json:"stats"`
		Sessions []*timeline.Session `json:"sessions"`
	}{Stats: stats, Sessions: sessions})
}

func isoTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func cell(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case time.Time:
		return isoTime(v)
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}
