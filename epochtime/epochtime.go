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

// Package epochtime converts the timestamp encodings used by browsers into
// canonical UTC instants. Raw encodings never leak past this package: every
// component that compares or sorts timestamps works on the time.Time values
// produced here.
//
// A zero time.Time means "no timestamp". Conversion never panics; a raw
// value that cannot represent a plausible instant yields a zero time and
// ErrOutOfRange, because carved garbage bytes reinterpreted as timestamps
// frequently produce huge or negative values.
package epochtime

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// Epoch tags the source encoding of a raw timestamp value.
type Epoch int

// The three supported encodings.
const (
	// Windows counts microseconds since 1601-01-01 (Chrome, Edge).
	Windows Epoch = iota
	// UnixMicro counts microseconds since 1970-01-01 (Firefox).
	UnixMicro
	// Cocoa counts seconds since 2001-01-01 (Safari), fractions allowed.
	Cocoa
)

func (e Epoch) String() string {
	switch e {
	case Windows:
		return "windows"
	case UnixMicro:
		return "unix_micro"
	case Cocoa:
		return "cocoa"
	}
	return "unknown"
}

// ErrOutOfRange marks a raw value outside the plausible range.
var ErrOutOfRange = errors.New("timestamp out of plausible range")

const (
	// Microseconds between 1601-01-01 and 1970-01-01.
	windowsToUnixMicro = 11644473600000000
	// Seconds between 1970-01-01 and 2001-01-01.
	cocoaToUnixSeconds = 978307200
)

// Plausibility bounds. Anything a browser wrote falls well inside; anything
// outside is treated as garbage, not as a date.
var (
	minPlausible = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)
	maxPlausible = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// Convert turns a raw integer timestamp plus its epoch tag into a UTC
// instant. A raw value of exactly zero means "no timestamp" and yields a
// zero time with no error.
func Convert(raw int64, epoch Epoch) (time.Time, error) {
	if raw == 0 {
		return time.Time{}, nil
	}

	var t time.Time
	switch epoch {
	case Windows:
		t = time.UnixMicro(raw - windowsToUnixMicro)
	case UnixMicro:
		t = time.UnixMicro(raw)
	case Cocoa:
		t = time.Unix(raw+cocoaToUnixSeconds, 0)
	default:
		return time.Time{}, errors.Wrapf(ErrOutOfRange, "unknown epoch %d", epoch)
	}

	return bound(t, raw)
}

// ConvertFloat converts a raw floating point timestamp. Safari stores Cocoa
// seconds as REAL values with a fractional part; the other encodings appear
// as floats only in carved input.
func ConvertFloat(raw float64, epoch Epoch) (time.Time, error) {
	if raw == 0 {
		return time.Time{}, nil
	}
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return time.Time{}, errors.Wrapf(ErrOutOfRange, "raw value %f", raw)
	}

	if epoch == Cocoa {
		sec, frac := math.Modf(raw)
		if sec >= math.MaxInt64 || sec <= math.MinInt64 {
			return time.Time{}, errors.Wrapf(ErrOutOfRange, "raw value %f", raw)
		}
		t := time.Unix(int64(sec)+cocoaToUnixSeconds, int64(frac*float64(time.Second)))
		return bound(t, int64(sec))
	}

	if raw >= math.MaxInt64 || raw <= math.MinInt64 {
		return time.Time{}, errors.Wrapf(ErrOutOfRange, "raw value %f", raw)
	}
	return Convert(int64(raw), epoch)
}

// Raw derives the epoch value a browser would have stored for t. It is the
// inverse of Convert for instants inside the plausible range.
func Raw(t time.Time, epoch Epoch) int64 {
	if t.IsZero() {
		return 0
	}
	switch epoch {
	case Windows:
		return t.UnixMicro() + windowsToUnixMicro
	case UnixMicro:
		return t.UnixMicro()
	case Cocoa:
		return t.Unix() - cocoaToUnixSeconds
	}
	return 0
}

func bound(t time.Time, raw int64) (time.Time, error) {
	if t.Before(minPlausible) || t.After(maxPlausible) {
		return time.Time{}, errors.Wrapf(ErrOutOfRange, "raw value %d maps to %s", raw, t.UTC())
	}
	return t.UTC(), nil
}
