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

// Package carve recovers candidate deleted records from browser artifacts
// whose structured index no longer references them: unallocated database
// pages, rollback journals, write ahead logs, compressed session snapshot
// containers and binary cookie containers.
//
// Every scanner implements the Strategy interface and never fails on
// malformed input: a strategy that cannot parse its target structurally
// falls back to a weaker method before giving up, and arbitrary random
// bytes yield an empty result, not an error.
package carve

import (
	"strings"

	"github.com/forensicanalysis/browserartifacts"
)

// Result of running one carving strategy over one artifact.
type Result struct {
	Records []*browserartifacts.RecoveredRecord
	Outcome browserartifacts.Outcome
	Detail  string
}

// Strategy recovers candidate deleted records from a single artifact
// representation. Carve must tolerate structurally invalid or partially
// overwritten input and must not panic.
type Strategy interface {
	Name() string
	Carve(data []byte) Result
}

// internalSchemes are browser internal URL schemes that never describe web
// activity and are skipped during recovery.
var internalSchemes = []string{"about:", "place:", "chrome:", "moz-extension:"}

func isInternalURL(url string) bool {
	for _, scheme := range internalSchemes {
		if strings.HasPrefix(url, scheme) {
			return true
		}
	}
	return false
}
