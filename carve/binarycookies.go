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
	"math"
	"strings"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/epochtime"
)

// cookMagic starts a Safari Cookies.binarycookies file.
var cookMagic = []byte("cook")

// maxCookiePages caps the page count read from the header. A damaged count
// field must not drive the page loop.
const maxCookiePages = 1 << 16

// BinaryCookies carves cookie records out of a Safari binary cookie
// container: a big endian page count and page size table followed by pages
// of little endian cookie records with offset addressed NUL terminated
// host, name, path and value fields.
type BinaryCookies struct{}

func (BinaryCookies) Name() string { return "cookie_container" }

// Carve validates the magic and the page table, then parses cookie records
// per page. If per record parsing cannot be completed reliably, it degrades
// to a single summary record reporting the page and byte counts, so the
// investigator knows unparsed material exists.
func (b BinaryCookies) Carve(data []byte) Result {
	if len(data) < len(cookMagic)+4 || !bytes.HasPrefix(data, cookMagic) {
		return Result{Outcome: browserartifacts.OutcomeCorruptContainer, Detail: "bad magic signature"}
	}

	pageCount := binary.BigEndian.Uint32(data[4:8])
	if pageCount == 0 {
		return Result{Outcome: browserartifacts.OutcomeEmpty}
	}
	if pageCount > maxCookiePages {
		return Result{
			Outcome: browserartifacts.OutcomeCorruptContainer,
			Detail:  fmt.Sprintf("implausible page count %d", pageCount),
		}
	}

	tableEnd := 8 + 4*int(pageCount)
	if tableEnd > len(data) {
		return b.summary(data, pageCount, "truncated page size table")
	}

	var records []*browserartifacts.RecoveredRecord
	offset := tableEnd
	for i := 0; i < int(pageCount); i++ {
		size := int(binary.BigEndian.Uint32(data[8+4*i : 12+4*i]))
		if size <= 0 || offset+size > len(data) {
			return b.summary(data, pageCount, fmt.Sprintf("page %d exceeds file bounds", i))
		}
		pageRecords, ok := parseCookiePage(data[offset : offset+size])
		if !ok {
			return b.summary(data, pageCount, fmt.Sprintf("page %d could not be parsed", i))
		}
		records = append(records, pageRecords...)
		offset += size
	}

	if len(records) == 0 {
		return Result{Outcome: browserartifacts.OutcomeEmpty}
	}
	return Result{Records: records, Outcome: browserartifacts.OutcomeOK}
}

// summary emits the degraded single record fallback instead of silently
// dropping unparsed cookie material.
func (b BinaryCookies) summary(data []byte, pageCount uint32, detail string) Result {
	record := browserartifacts.NewRecoveredRecord(
		browserartifacts.ArtifactCookieContainer,
		browserartifacts.ConfidenceSummaryStub,
		"cookie_summary",
	)
	record.Title = "[binary cookie container, not fully parsed]"
	record.Text = fmt.Sprintf("%d pages, %d bytes: %s", pageCount, len(data), detail)
	return Result{
		Records: []*browserartifacts.RecoveredRecord{record},
		Outcome: browserartifacts.OutcomeDegraded,
		Detail:  detail,
	}
}

// cookiePageTag starts every cookie page.
var cookiePageTag = []byte{0x00, 0x00, 0x01, 0x00}

// parseCookiePage parses the fixed layout cookie records of one page. It
// returns ok=false on any structural inconsistency so the caller can fall
// back to the summary record.
func parseCookiePage(page []byte) ([]*browserartifacts.RecoveredRecord, bool) {
	if len(page) < 8 || !bytes.HasPrefix(page, cookiePageTag) {
		return nil, false
	}
	count := int(binary.LittleEndian.Uint32(page[4:8]))
	if count < 0 || 8+4*count > len(page) {
		return nil, false
	}

	var records []*browserartifacts.RecoveredRecord
	for i := 0; i < count; i++ {
		start := int(binary.LittleEndian.Uint32(page[8+4*i : 12+4*i]))
		record, ok := parseCookieRecord(page, start)
		if !ok {
			return nil, false
		}
		records = append(records, record)
	}
	return records, true
}

// Byte layout of a single cookie record, relative to its start.
const (
	cookieFieldURL      = 16
	cookieFieldName     = 20
	cookieFieldPath     = 24
	cookieFieldValue    = 28
	cookieFieldExpiry   = 40
	cookieFieldCreation = 48
	cookieHeaderSize    = 56
)

func parseCookieRecord(page []byte, start int) (*browserartifacts.RecoveredRecord, bool) {
	if start < 0 || start+cookieHeaderSize > len(page) {
		return nil, false
	}
	rec := page[start:]

	size := int(binary.LittleEndian.Uint32(rec[0:4]))
	if size < cookieHeaderSize || start+size > len(page) {
		return nil, false
	}
	rec = rec[:size]

	host, ok := cookieString(rec, cookieFieldURL)
	if !ok {
		return nil, false
	}
	name, ok := cookieString(rec, cookieFieldName)
	if !ok {
		return nil, false
	}
	path, ok := cookieString(rec, cookieFieldPath)
	if !ok {
		return nil, false
	}
	value, ok := cookieString(rec, cookieFieldValue)
	if !ok {
		return nil, false
	}

	creation := math.Float64frombits(binary.LittleEndian.Uint64(rec[cookieFieldCreation : cookieFieldCreation+8]))

	record := browserartifacts.NewRecoveredRecord(
		browserartifacts.ArtifactCookieContainer,
		browserartifacts.ConfidenceCookieContainer,
		"cookie_container",
	)
	record.URL = "https://" + strings.TrimPrefix(host, ".") + path
	record.Title = "[Cookie] " + name
	record.Text = name + "=" + value
	if t, err := epochtime.ConvertFloat(creation, epochtime.Cocoa); err == nil {
		record.Timestamp = t
	}
	return record, true
}

// cookieString reads the NUL terminated string addressed by the offset
// field at fieldPos.
func cookieString(rec []byte, fieldPos int) (string, bool) {
	off := int(binary.LittleEndian.Uint32(rec[fieldPos : fieldPos+4]))
	if off < cookieHeaderSize || off >= len(rec) {
		return "", false
	}
	end := bytes.IndexByte(rec[off:], 0)
	if end < 0 {
		return "", false
	}
	return string(rec[off : off+end]), true
}
