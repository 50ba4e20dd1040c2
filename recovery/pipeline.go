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

package recovery

import (
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/browserartifacts"
	"github.com/forensicanalysis/browserartifacts/browserdb"
	"github.com/forensicanalysis/browserartifacts/carve"
)

// Profile names the artifact files of one browser profile. Empty paths mean
// the profile does not have that artifact.
type Profile struct {
	Browser        string
	Database       string   // history database (History, places.sqlite, History.db)
	CookieDatabase string   // Chrome or Firefox cookie database
	WAL            string   // write ahead log side file of the history database
	Journal        string   // rollback journal side file
	SessionFiles   []string // Firefox jsonlz4 session snapshots
	CookieFile     string   // Safari Cookies.binarycookies
}

// Result of a full run over one or more profiles.
type Result struct {
	Events    []*browserartifacts.ArtifactEvent
	Recovered []*browserartifacts.RecoveredRecord
	Summary   *browserartifacts.RunSummary
}

// Run extracts live events and recovers deleted records from every profile.
//
// A failing artifact never aborts the run: its outcome is recorded in the
// summary and processing continues with the next artifact. Recovered
// candidates from all profiles are aggregated against the combined live
// dataset at the end.
func Run(fs afero.Fs, profiles []Profile) *Result {
	summary := browserartifacts.NewRunSummary()

	var events []*browserartifacts.ArtifactEvent
	var candidates []*browserartifacts.RecoveredRecord

	for i := range profiles {
		profileEvents, profileCandidates := runProfile(fs, &profiles[i], summary)
		if len(profileEvents) > 0 || len(profileCandidates) > 0 {
			summary.BrowsersFound = append(summary.BrowsersFound, profiles[i].Browser)
		}
		events = append(events, profileEvents...)
		candidates = append(candidates, profileCandidates...)
	}

	recovered := Aggregate(candidates, events)

	for _, event := range events {
		summary.CountLive(event)
	}
	for _, record := range recovered {
		summary.CountRecovered(record)
	}
	summary.Finished = time.Now().UTC()

	return &Result{Events: events, Recovered: recovered, Summary: summary}
}

func runProfile(fs afero.Fs, p *Profile, summary *browserartifacts.RunSummary) (
	[]*browserartifacts.ArtifactEvent, []*browserartifacts.RecoveredRecord,
) {
	var events []*browserartifacts.ArtifactEvent
	var candidates []*browserartifacts.RecoveredRecord

	tasks := carveTasks(p)

	if p.Database != "" {
		dbEvents, dbCandidates, freeSpace := extractDatabase(fs, p, summary)
		events = append(events, dbEvents...)
		candidates = append(candidates, dbCandidates...)
		if freeSpace != nil {
			tasks = append(tasks, carveTask{
				artifact: browserartifacts.ArtifactFreeSpace,
				strategy: carve.FreeSpace(),
				data:     freeSpace,
			})
		}
	}

	if p.CookieDatabase != "" {
		events = append(events, extractCookieDatabase(fs, p, summary)...)
	}

	candidates = append(candidates, runCarveTasks(fs, p, tasks, summary)...)
	return events, candidates
}

// carveTask pairs one artifact with the strategy that scans it. Tasks hold
// either a path to read or bytes captured earlier.
type carveTask struct {
	artifact browserartifacts.Artifact
	strategy carve.Strategy
	path     string
	data     []byte
}

func carveTasks(p *Profile) []carveTask {
	var tasks []carveTask
	if p.WAL != "" {
		tasks = append(tasks, carveTask{
			artifact: browserartifacts.ArtifactWriteAheadLog,
			strategy: carve.WAL(),
			path:     p.WAL,
		})
	}
	if p.Journal != "" {
		tasks = append(tasks, carveTask{
			artifact: browserartifacts.ArtifactRollbackJournal,
			strategy: carve.Journal(),
			path:     p.Journal,
		})
	}
	for _, session := range p.SessionFiles {
		tasks = append(tasks, carveTask{
			artifact: browserartifacts.ArtifactSessionContainer,
			strategy: carve.SessionStore{},
			path:     session,
		})
	}
	if p.CookieFile != "" {
		tasks = append(tasks, carveTask{
			artifact: browserartifacts.ArtifactCookieContainer,
			strategy: carve.BinaryCookies{},
			path:     p.CookieFile,
		})
	}
	return tasks
}

// runCarveTasks scans all artifacts concurrently. Results land in an indexed
// slice, so the output order stays deterministic regardless of scheduling.
func runCarveTasks(
	fs afero.Fs, p *Profile, tasks []carveTask, summary *browserartifacts.RunSummary,
) []*browserartifacts.RecoveredRecord {
	results := make([]carve.Result, len(tasks))
	readErrs := make([]error, len(tasks))

	var wg sync.WaitGroup
	for i := range tasks {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data := tasks[i].data
			if data == nil {
				var err error
				data, err = afero.ReadFile(fs, tasks[i].path)
				if err != nil {
					readErrs[i] = err
					return
				}
			}
			results[i] = tasks[i].strategy.Carve(data)
		}(i)
	}
	wg.Wait()

	var candidates []*browserartifacts.RecoveredRecord
	for i, task := range tasks {
		if readErrs[i] != nil {
			summary.Add(p.Browser, string(task.artifact), task.strategy.Name(),
				readOutcome(readErrs[i]), readErrs[i].Error())
			continue
		}
		for _, record := range results[i].Records {
			record.Browser = p.Browser
		}
		summary.Add(p.Browser, string(task.artifact), task.strategy.Name(),
			results[i].Outcome, results[i].Detail)
		candidates = append(candidates, results[i].Records...)
	}
	return candidates
}

// extractDatabase copies the history database to a scratch location, reads
// live events and orphaned rows from the copy and, if the freelist is not
// empty, captures the raw bytes for free space carving.
func extractDatabase(fs afero.Fs, p *Profile, summary *browserartifacts.RunSummary) (
	[]*browserartifacts.ArtifactEvent, []*browserartifacts.RecoveredRecord, []byte,
) {
	scratch, err := browserdb.NewScratch(fs, p.Database)
	if err != nil {
		summary.Add(p.Browser, string(browserartifacts.ArtifactLiveTable), "live_extraction",
			readOutcome(err), err.Error())
		return nil, nil, nil
	}
	defer func() {
		if err := scratch.Close(); err != nil {
			log.Printf("could not remove scratch copy of %s: %v", p.Database, err)
		}
	}()

	db, err := browserdb.Open(scratch.Path)
	if err != nil {
		summary.Add(p.Browser, string(browserartifacts.ArtifactLiveTable), "live_extraction",
			browserartifacts.OutcomeUnreadable, err.Error())
		return nil, nil, nil
	}

	events, candidates := extractLive(db, p, summary)

	var freeSpace []byte
	pages, _, err := db.FreeSpace()
	if err == nil && pages > 0 {
		if data, err := afero.ReadFile(fs, scratch.Path); err == nil {
			freeSpace = data
		}
	}

	if err := db.Close(); err != nil {
		log.Printf("could not close %s: %v", scratch.Path, err)
	}
	return events, candidates, freeSpace
}

func extractLive(db *browserdb.DB, p *Profile, summary *browserartifacts.RunSummary) (
	[]*browserartifacts.ArtifactEvent, []*browserartifacts.RecoveredRecord,
) {
	var events []*browserartifacts.ArtifactEvent
	var candidates []*browserartifacts.RecoveredRecord

	addLive := func(liveEvents []*browserartifacts.ArtifactEvent, err error) {
		if err != nil {
			summary.Add(p.Browser, string(browserartifacts.ArtifactLiveTable), "live_extraction",
				liveOutcome(err), err.Error())
			return
		}
		events = append(events, liveEvents...)
	}

	switch family(p.Browser) {
	case firefoxFamily:
		addLive(db.FirefoxHistory(p.Browser))

		orphans, err := db.FirefoxOrphans(p.Browser)
		if err != nil {
			summary.Add(p.Browser, string(browserartifacts.ArtifactOrphanedRow), "orphaned_record",
				liveOutcome(err), err.Error())
		} else {
			summary.Add(p.Browser, string(browserartifacts.ArtifactOrphanedRow), "orphaned_record",
				browserartifacts.OutcomeOK, "")
			candidates = append(candidates, orphans...)
		}
	case safariFamily:
		addLive(db.SafariHistory(p.Browser))

		tombstones, err := db.SafariTombstones(p.Browser)
		if err != nil {
			summary.Add(p.Browser, string(browserartifacts.ArtifactOrphanedRow), "tombstone_recovery",
				liveOutcome(err), err.Error())
		} else {
			candidates = append(candidates, tombstones...)
		}
	default:
		addLive(db.ChromeHistory(p.Browser))
		addLive(db.ChromeDownloads(p.Browser))
	}
	return events, candidates
}

func extractCookieDatabase(
	fs afero.Fs, p *Profile, summary *browserartifacts.RunSummary,
) []*browserartifacts.ArtifactEvent {
	scratch, err := browserdb.NewScratch(fs, p.CookieDatabase)
	if err != nil {
		summary.Add(p.Browser, string(browserartifacts.ArtifactLiveTable), "cookie_extraction",
			readOutcome(err), err.Error())
		return nil
	}
	defer func() {
		if err := scratch.Close(); err != nil {
			log.Printf("could not remove scratch copy of %s: %v", p.CookieDatabase, err)
		}
	}()

	db, err := browserdb.Open(scratch.Path)
	if err != nil {
		summary.Add(p.Browser, string(browserartifacts.ArtifactLiveTable), "cookie_extraction",
			browserartifacts.OutcomeUnreadable, err.Error())
		return nil
	}
	defer db.Close()

	var events []*browserartifacts.ArtifactEvent
	if family(p.Browser) == firefoxFamily {
		events, err = db.FirefoxCookies(p.Browser)
	} else {
		events, err = db.ChromeCookies(p.Browser)
	}
	if err != nil {
		summary.Add(p.Browser, string(browserartifacts.ArtifactLiveTable), "cookie_extraction",
			liveOutcome(err), err.Error())
		return nil
	}
	return events
}

const (
	chromeFamily  = "chrome"
	firefoxFamily = "firefox"
	safariFamily  = "safari"
)

// family maps a browser name onto the schema family its databases use. Edge
// and other Blink based browsers share the Chrome schema.
func family(browser string) string {
	switch strings.ToLower(browser) {
	case "firefox":
		return firefoxFamily
	case "safari":
		return safariFamily
	default:
		return chromeFamily
	}
}

func readOutcome(err error) browserartifacts.Outcome {
	if errors.Is(err, browserartifacts.ErrMissingArtifact) || os.IsNotExist(errors.Cause(err)) {
		return browserartifacts.OutcomeMissing
	}
	return browserartifacts.OutcomeUnreadable
}

func liveOutcome(err error) browserartifacts.Outcome {
	if errors.Is(err, browserartifacts.ErrCorruptContainer) {
		return browserartifacts.OutcomeCorruptContainer
	}
	return browserartifacts.OutcomeUnreadable
}
