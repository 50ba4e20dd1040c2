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
	"encoding/binary"
	"fmt"
	"time"

	"github.com/pierrec/lz4/v4"
	"github.com/tidwall/gjson"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/epochtime"
)

// mozLz4Magic starts every Mozilla lz4 compressed JSON file, e.g. the
// sessionstore backups in a Firefox profile.
var mozLz4Magic = []byte("mozLz40\x00")

// maxUncompressed caps the declared uncompressed size. Carved garbage
// reinterpreted as a size field must not trigger a huge allocation.
const maxUncompressed = 64 << 20

// SessionStore carves navigation entries out of a compressed session
// snapshot container. The container is a mozLz4 file: an eight byte magic,
// a little endian uint32 declared uncompressed size and an LZ4 block. The
// decompressed JSON nests windows, tabs and navigation entries.
type SessionStore struct {
	// Method labels the originating snapshot file in the output, e.g.
	// "session_recovery.jsonlz4". Empty means "session_recovery".
	Method string
}

func (s SessionStore) Name() string {
	if s.Method == "" {
		return "session_recovery"
	}
	return s.Method
}

// Carve validates the container header, decompresses the block and walks
// the session structure. A header mismatch yields a corrupt container
// outcome with zero records. A declared size mismatch still emits whatever
// was decompressed, flagged degraded.
func (s SessionStore) Carve(data []byte) Result {
	if len(data) < len(mozLz4Magic)+4 || !bytes.HasPrefix(data, mozLz4Magic) {
		return Result{Outcome: browserartifacts.OutcomeCorruptContainer, Detail: "bad magic header"}
	}

	declared := binary.LittleEndian.Uint32(data[len(mozLz4Magic):])
	if declared > maxUncompressed {
		return Result{
			Outcome: browserartifacts.OutcomeCorruptContainer,
			Detail:  fmt.Sprintf("implausible uncompressed size %d", declared),
		}
	}

	block := data[len(mozLz4Magic)+4:]
	decompressed := make([]byte, declared)
	n, err := lz4.UncompressBlock(block, decompressed)
	if err != nil {
		// The block itself is damaged. Fall back to pattern scanning the
		// compressed bytes; LZ4 keeps literal runs intact, so intact URLs
		// may still surface.
		return s.fallback(data, fmt.Sprintf("block decompression failed: %v", err))
	}
	decompressed = decompressed[:n]

	outcome := browserartifacts.OutcomeOK
	detail := ""
	if n != int(declared) {
		outcome = browserartifacts.OutcomeDegraded
		detail = fmt.Sprintf("declared %d bytes, decompressed %d", declared, n)
	}

	if !gjson.ValidBytes(decompressed) {
		return s.fallback(decompressed, "decompressed data is not valid JSON")
	}

	records := s.walk(decompressed)
	if len(records) == 0 && outcome == browserartifacts.OutcomeOK {
		outcome = browserartifacts.OutcomeEmpty
	}
	return Result{Records: records, Outcome: outcome, Detail: detail}
}

// walk extracts url, title and last accessed time per navigation entry,
// skipping internal non web schemes.
func (s SessionStore) walk(session []byte) []*browserartifacts.RecoveredRecord {
	var records []*browserartifacts.RecoveredRecord

	gjson.GetBytes(session, "windows").ForEach(func(_, window gjson.Result) bool {
		window.Get("tabs").ForEach(func(_, tab gjson.Result) bool {
			lastAccessed := tabLastAccessed(tab)
			tab.Get("entries").ForEach(func(_, entry gjson.Result) bool {
				url := entry.Get("url").String()
				if url == "" || isInternalURL(url) {
					return true
				}
				record := browserartifacts.NewRecoveredRecord(
					browserartifacts.ArtifactSessionContainer,
					browserartifacts.ConfidenceSessionContainer,
					s.Name(),
				)
				record.URL = url
				record.Title = entry.Get("title").String()
				record.Timestamp = lastAccessed
				records = append(records, record)
				return true
			})
			return true
		})
		return true
	})

	return records
}

// tabLastAccessed converts a tab's lastAccessed field, which Firefox
// session stores keep as Unix milliseconds. Implausible values degrade to
// an absent timestamp.
func tabLastAccessed(tab gjson.Result) time.Time {
	ms := tab.Get("lastAccessed").Int()
	t, err := epochtime.Convert(ms*1000, epochtime.UnixMicro)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s SessionStore) fallback(data []byte, detail string) Result {
	matches := ScanURLs(data)
	if len(matches) == 0 {
		return Result{Outcome: browserartifacts.OutcomeCorruptContainer, Detail: detail}
	}
	records := make([]*browserartifacts.RecoveredRecord, 0, len(matches))
	for _, m := range matches {
		if isInternalURL(m.URL) {
			continue
		}
		record := browserartifacts.NewRecoveredRecord(
			browserartifacts.ArtifactSessionContainer,
			browserartifacts.ConfidencePatternCarving,
			s.Name(),
		)
		record.URL = m.URL
		record.Offset = m.Offset
		records = append(records, record)
	}
	return Result{Records: records, Outcome: browserartifacts.OutcomeDegraded, Detail: detail}
}
