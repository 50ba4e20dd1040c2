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

// Package profile locates the default browser profile directories of the
// current user and maps them onto the artifact files the recovery pipeline
// consumes. Only artifacts that actually exist end up in a profile; a
// browser with no profile directory is silently skipped.
package profile

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/forensicanalysis/browserartifacts/recovery"
)

// root is a candidate profile directory of one browser.
type root struct {
	browser string
	dir     string
}

// roots lists the default profile locations per operating system, relative
// to the user's home directory.
func roots(home, goos string) []root {
	switch goos {
	case "darwin":
		return []root{
			{"Chrome", filepath.Join(home, "Library", "Application Support", "Google", "Chrome", "Default")},
			{"Edge", filepath.Join(home, "Library", "Application Support", "Microsoft Edge", "Default")},
			{"Firefox", filepath.Join(home, "Library", "Application Support", "Firefox", "Profiles")},
			{"Safari", filepath.Join(home, "Library", "Safari")},
		}
	case "windows":
		return []root{
			{"Chrome", filepath.Join(home, "AppData", "Local", "Google", "Chrome", "User Data", "Default")},
			{"Edge", filepath.Join(home, "AppData", "Local", "Microsoft", "Edge", "User Data", "Default")},
			{"Firefox", filepath.Join(home, "AppData", "Roaming", "Mozilla", "Firefox", "Profiles")},
		}
	default:
		return []root{
			{"Chrome", filepath.Join(home, ".config", "google-chrome", "Default")},
			{"Edge", filepath.Join(home, ".config", "microsoft-edge", "Default")},
			{"Firefox", filepath.Join(home, ".mozilla", "firefox")},
		}
	}
}

// Discover probes the default profile locations for the given home
// directory and operating system and returns a pipeline profile for every
// browser whose history database exists.
func Discover(fs afero.Fs, home, goos string) ([]recovery.Profile, error) {
	var profiles []recovery.Profile
	for _, r := range roots(home, goos) {
		var p *recovery.Profile
		var err error

		switch r.browser {
		case "Firefox":
			p, err = firefoxProfile(fs, r.dir)
		case "Safari":
			p, err = safariProfile(fs, home, r.dir)
		default:
			p, err = chromeProfile(fs, r.browser, r.dir)
		}
		if err != nil {
			return nil, err
		}
		if p != nil {
			profiles = append(profiles, *p)
		}
	}
	return profiles, nil
}

// FromDirectory builds a pipeline profile from an explicitly given profile
// directory, overriding the default locations.
func FromDirectory(fs afero.Fs, browser, dir string) (*recovery.Profile, error) {
	switch browser {
	case "Firefox":
		return firefoxDirProfile(fs, dir)
	case "Safari":
		return safariDirProfile(fs, dir, dir)
	default:
		return chromeProfile(fs, browser, dir)
	}
}

func chromeProfile(fs afero.Fs, browser, dir string) (*recovery.Profile, error) {
	history := filepath.Join(dir, "History")
	ok, err := afero.Exists(fs, history)
	if err != nil || !ok {
		return nil, err
	}

	p := &recovery.Profile{Browser: browser, Database: history}
	p.WAL = existing(fs, history+"-wal")
	p.Journal = existing(fs, history+"-journal")
	p.CookieDatabase = existing(fs, filepath.Join(dir, "Cookies"))
	if p.CookieDatabase == "" {
		// newer Chrome keeps cookies below Network/
		p.CookieDatabase = existing(fs, filepath.Join(dir, "Network", "Cookies"))
	}
	return p, nil
}

// firefoxProfile selects one profile directory below the Profiles root.
// Directories named *.default-release are preferred, matching the profile
// Firefox itself uses by default.
func firefoxProfile(fs afero.Fs, profilesDir string) (*recovery.Profile, error) {
	infos, err := afero.ReadDir(fs, profilesDir)
	if err != nil {
		return nil, nil // no Firefox installed
	}

	var candidates []string
	for _, info := range infos {
		if !info.IsDir() {
			continue
		}
		dir := filepath.Join(profilesDir, info.Name())
		if ok, _ := afero.Exists(fs, filepath.Join(dir, "places.sqlite")); ok {
			candidates = append(candidates, dir)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	sort.Slice(candidates, func(i, j int) bool {
		iDefault := strings.HasSuffix(candidates[i], ".default-release")
		jDefault := strings.HasSuffix(candidates[j], ".default-release")
		if iDefault != jDefault {
			return iDefault
		}
		return candidates[i] < candidates[j]
	})
	return firefoxDirProfile(fs, candidates[0])
}

func firefoxDirProfile(fs afero.Fs, dir string) (*recovery.Profile, error) {
	places := filepath.Join(dir, "places.sqlite")
	ok, err := afero.Exists(fs, places)
	if err != nil || !ok {
		return nil, err
	}

	p := &recovery.Profile{Browser: "Firefox", Database: places}
	p.WAL = existing(fs, places+"-wal")
	p.Journal = existing(fs, places+"-journal")
	p.CookieDatabase = existing(fs, filepath.Join(dir, "cookies.sqlite"))

	backups := filepath.Join(dir, "sessionstore-backups")
	for _, name := range []string{"previous.jsonlz4", "recovery.jsonlz4", "recovery.baklz4"} {
		if path := existing(fs, filepath.Join(backups, name)); path != "" {
			p.SessionFiles = append(p.SessionFiles, path)
		}
	}
	return p, nil
}

func safariProfile(fs afero.Fs, home, dir string) (*recovery.Profile, error) {
	return safariDirProfile(fs, dir, filepath.Join(home, "Library", "Cookies"))
}

func safariDirProfile(fs afero.Fs, dir, cookieDir string) (*recovery.Profile, error) {
	history := filepath.Join(dir, "History.db")
	ok, err := afero.Exists(fs, history)
	if err != nil || !ok {
		return nil, err
	}

	p := &recovery.Profile{Browser: "Safari", Database: history}
	p.WAL = existing(fs, history+"-wal")
	p.Journal = existing(fs, history+"-journal")
	p.CookieFile = existing(fs, filepath.Join(cookieDir, "Cookies.binarycookies"))
	return p, nil
}

func existing(fs afero.Fs, path string) string {
	if ok, _ := afero.Exists(fs, path); ok {
		return path
	}
	return ""
}
