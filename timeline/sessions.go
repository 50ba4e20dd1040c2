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

package timeline

import (
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/forensicanalysis/browserartifacts"
)

// DefaultInactivityThreshold is the gap of inactivity that ends a browsing
// session.
const DefaultInactivityThreshold = 30 * time.Minute

// Session is one contiguous block of browsing activity. Two consecutive
// events belong to the same session when the gap between them is at most
// the inactivity threshold; a strictly greater gap starts a new session.
type Session struct {
	Start      time.Time
	End        time.Time
	Events     []*browserartifacts.ArtifactEvent
	Browsers   []string
	Domains    []string
	Activities []string
}

// Duration of a session. Single event sessions have duration zero.
func (s *Session) Duration() time.Duration {
	return s.End.Sub(s.Start)
}

// Split partitions timestamped events into sessions with one pass. The
// input must be sorted ascending by timestamp, as produced by Build; events
// without a timestamp cannot be placed and are ignored. Every timestamped
// event lands in exactly one session.
func Split(ordered []*browserartifacts.ArtifactEvent, threshold time.Duration) []*Session {
	if threshold <= 0 {
		threshold = DefaultInactivityThreshold
	}

	var sessions []*Session
	var current []*browserartifacts.ArtifactEvent

	for _, event := range ordered {
		if event.Timestamp.IsZero() {
			continue
		}
		if len(current) > 0 {
			gap := event.Timestamp.Sub(current[len(current)-1].Timestamp)
			if gap > threshold {
				sessions = append(sessions, newSession(current))
				current = nil
			}
		}
		current = append(current, event)
	}
	if len(current) > 0 {
		sessions = append(sessions, newSession(current))
	}
	return sessions
}

func newSession(events []*browserartifacts.ArtifactEvent) *Session {
	session := &Session{
		Start:  events[0].Timestamp,
		End:    events[len(events)-1].Timestamp,
		Events: events,
	}

	browsers := map[string]bool{}
	domains := map[string]bool{}
	activities := map[string]bool{}
	for _, event := range events {
		if event.Browser != "" {
			browsers[event.Browser] = true
		}
		if domain := eventDomain(event); domain != "" {
			domains[domain] = true
		}
		activities[string(event.Kind)] = true
	}
	session.Browsers = sortedKeys(browsers)
	session.Domains = sortedKeys(domains)
	session.Activities = sortedKeys(activities)
	return session
}

// Stats summarize the sessions of one timeline.
type Stats struct {
	Count        int           `json:"session_count"`
	MeanDuration time.Duration `json:"mean_duration"`
	StartsByHour [24]int       `json:"starts_by_hour"`
}

// Summarize computes session count, mean duration and a per hour histogram
// of session start times in UTC.
func Summarize(sessions []*Session) Stats {
	stats := Stats{Count: len(sessions)}
	if len(sessions) == 0 {
		return stats
	}

	var total time.Duration
	for _, session := range sessions {
		total += session.Duration()
		stats.StartsByHour[session.Start.UTC().Hour()]++
	}
	stats.MeanDuration = total / time.Duration(len(sessions))
	return stats
}

// Domain reduces a URL to its host with the scheme and a leading www. label
// stripped. Unparseable or hostless URLs yield the empty string.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(u.Host), "www.")
}

// eventDomain uses the URL host when present and falls back to the cookie
// host field.
func eventDomain(event *browserartifacts.ArtifactEvent) string {
	if domain := Domain(event.URL); domain != "" {
		return domain
	}
	host := strings.TrimPrefix(strings.ToLower(event.Host), ".")
	return strings.TrimPrefix(host, "www.")
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
