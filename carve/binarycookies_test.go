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
	"encoding/binary"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/browserartifacts"
)

type testCookie struct {
	host, name, path, value string
	creation                float64
}

func buildCookieRecord(c testCookie) []byte {
	strs := []string{c.host, c.name, c.path, c.value}
	size := cookieHeaderSize
	offsets := make([]uint32, 4)
	for i, s := range strs {
		offsets[i] = uint32(size)
		size += len(s) + 1
	}

	rec := make([]byte, size)
	binary.LittleEndian.PutUint32(rec[0:4], uint32(size))
	binary.LittleEndian.PutUint32(rec[cookieFieldURL:], offsets[0])
	binary.LittleEndian.PutUint32(rec[cookieFieldName:], offsets[1])
	binary.LittleEndian.PutUint32(rec[cookieFieldPath:], offsets[2])
	binary.LittleEndian.PutUint32(rec[cookieFieldValue:], offsets[3])
	binary.LittleEndian.PutUint64(rec[cookieFieldCreation:], math.Float64bits(c.creation))
	for i, s := range strs {
		copy(rec[offsets[i]:], s)
	}
	return rec
}

func buildCookiePage(cookies ...testCookie) []byte {
	header := 8 + 4*len(cookies)
	var body []byte
	var offsets []uint32
	for _, c := range cookies {
		offsets = append(offsets, uint32(header+len(body)))
		body = append(body, buildCookieRecord(c)...)
	}

	page := append([]byte{}, cookiePageTag...)
	page = binary.LittleEndian.AppendUint32(page, uint32(len(cookies)))
	for _, off := range offsets {
		page = binary.LittleEndian.AppendUint32(page, off)
	}
	return append(page, body...)
}

func buildCookieContainer(pages ...[]byte) []byte {
	data := append([]byte{}, cookMagic...)
	data = binary.BigEndian.AppendUint32(data, uint32(len(pages)))
	for _, page := range pages {
		data = binary.BigEndian.AppendUint32(data, uint32(len(page)))
	}
	for _, page := range pages {
		data = append(data, page...)
	}
	return data
}

func TestBinaryCookiesCarve(t *testing.T) {
	page := buildCookiePage(
		testCookie{host: ".example.test", name: "sid", path: "/", value: "abc123", creation: 700000000},
		testCookie{host: "tracker.test", name: "uid", path: "/ads", value: "42", creation: 0},
	)
	data := buildCookieContainer(page)

	result := BinaryCookies{}.Carve(data)

	require.Equal(t, browserartifacts.OutcomeOK, result.Outcome)
	require.Len(t, result.Records, 2)

	assert.Equal(t, "https://example.test/", result.Records[0].URL)
	assert.Equal(t, "[Cookie] sid", result.Records[0].Title)
	assert.Equal(t, "sid=abc123", result.Records[0].Text)
	assert.Equal(t, time.Date(2023, 3, 8, 20, 26, 40, 0, time.UTC), result.Records[0].Timestamp)
	assert.Equal(t, browserartifacts.ConfidenceCookieContainer, result.Records[0].Confidence)

	assert.Equal(t, "https://tracker.test/ads", result.Records[1].URL)
	assert.True(t, result.Records[1].Timestamp.IsZero())
}

func TestBinaryCookiesBadMagic(t *testing.T) {
	result := BinaryCookies{}.Carve([]byte("nope nope nope"))
	assert.Equal(t, browserartifacts.OutcomeCorruptContainer, result.Outcome)
	assert.Empty(t, result.Records)
}

func TestBinaryCookiesSummaryFallback(t *testing.T) {
	// A page size table that points past the end of the file cannot be
	// parsed per record, but the material is reported, not dropped.
	data := append([]byte{}, cookMagic...)
	data = binary.BigEndian.AppendUint32(data, 3)
	data = binary.BigEndian.AppendUint32(data, 4096)

	result := BinaryCookies{}.Carve(data)

	assert.Equal(t, browserartifacts.OutcomeDegraded, result.Outcome)
	require.Len(t, result.Records, 1)
	assert.Equal(t, browserartifacts.ConfidenceSummaryStub, result.Records[0].Confidence)
	assert.Contains(t, result.Records[0].Text, "3 pages")
}

func TestBinaryCookiesDamagedPage(t *testing.T) {
	page := buildCookiePage(testCookie{host: "a.test", name: "n", path: "/", value: "v"})
	page[9] = 0xff // offset table now points nowhere sensible
	data := buildCookieContainer(page)

	result := BinaryCookies{}.Carve(data)

	assert.Equal(t, browserartifacts.OutcomeDegraded, result.Outcome)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "cookie_summary", result.Records[0].Method)
}

func TestBinaryCookiesEmpty(t *testing.T) {
	data := append([]byte{}, cookMagic...)
	data = binary.BigEndian.AppendUint32(data, 0)

	result := BinaryCookies{}.Carve(data)

	assert.Equal(t, browserartifacts.OutcomeEmpty, result.Outcome)
	assert.Empty(t, result.Records)
}

func TestBinaryCookiesRandomBytes(t *testing.T) {
	assert.NotPanics(t, func() {
		result := BinaryCookies{}.Carve([]byte{'c', 'o', 'o', 'k', 0xff, 0xff})
		assert.Empty(t, result.Records)
	})
}
