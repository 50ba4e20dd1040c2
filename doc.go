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

// Package browserartifacts reconstructs a chronological record of browser
// activity from a browser profile's on-disk artifacts, including records the
// browser has logically deleted.
//
// The root package holds the canonical data model shared by all subpackages:
// live artifact events, recovered records with their provenance and
// confidence, carving outcomes and the run summary. Subpackages implement the
// processing stages:
//
//	epochtime   normalizes browser specific timestamp encodings to UTC instants
//	carve       recovers records from raw bytes, session snapshot and cookie containers
//	browserdb   reads live records, orphaned rows and freelist state from SQLite databases
//	recovery    runs all carving strategies per profile and deduplicates candidates
//	timeline    merges live and recovered events and segments them into user sessions
//	profile     locates browser profile directories per operating system
//	export      writes the canonical tabular output and the run summary
//	store       persists extraction results in a single SQLite file
package browserartifacts
