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

// Package cmd implements the browserartifacts command line subcommands.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/browserartifacts/export"
	"github.com/forensicanalysis/browserartifacts/profile"
	"github.com/forensicanalysis/browserartifacts/recovery"
	"github.com/forensicanalysis/browserartifacts/store"
	"github.com/forensicanalysis/browserartifacts/timeline"
)

// sourceFlags are the artifact source options shared by all subcommands.
type sourceFlags struct {
	home       string
	browser    string
	profileDir string
}

func (f *sourceFlags) register(command *cobra.Command) {
	command.Flags().StringVar(&f.home, "home", "",
		"home directory to probe for browser profiles (default: current user)")
	command.Flags().StringVar(&f.browser, "browser", "Chrome",
		"browser of an explicitly given profile directory")
	command.Flags().StringVar(&f.profileDir, "profile-dir", "",
		"analyze a single profile directory instead of probing default locations")
}

// profiles resolves the flags into the set of profiles to analyze.
func (f *sourceFlags) profiles(fs afero.Fs) ([]recovery.Profile, error) {
	if f.profileDir != "" {
		p, err := profile.FromDirectory(fs, f.browser, f.profileDir)
		if err != nil {
			return nil, err
		}
		if p == nil {
			return nil, errors.Errorf("no %s artifacts in %s", f.browser, f.profileDir)
		}
		return []recovery.Profile{*p}, nil
	}

	home := f.home
	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil {
			return nil, err
		}
	}

	profiles, err := profile.Discover(fs, home, runtime.GOOS)
	if err != nil {
		return nil, err
	}
	if len(profiles) == 0 {
		return nil, errors.Errorf("no browser profiles found below %s", home)
	}
	return profiles, nil
}

// Extract is the browserartifacts extract commandline subcommand. It runs
// live extraction and deleted record recovery over every found profile and
// writes timeline.csv, recovered.csv and summary.json. With --store the
// results are additionally persisted in a single SQLite file.
func Extract() *cobra.Command {
	var source sourceFlags
	var output string
	var storePath string

	extractCommand := &cobra.Command{
		Use:   "extract",
		Short: "Extract live and deleted browser activity to CSV and JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()

			profiles, err := source.profiles(fs)
			if err != nil {
				return err
			}

			result := recovery.Run(fs, profiles)
			tl := timeline.Build(result.Events, result.Recovered)

			if err := os.MkdirAll(output, 0755); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(output, "timeline.csv"), func(w *os.File) error {
				return export.TimelineCSV(w, tl)
			}); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(output, "recovered.csv"), func(w *os.File) error {
				return export.RecoveredCSV(w, result.Recovered)
			}); err != nil {
				return err
			}
			if err := writeFile(filepath.Join(output, "summary.json"), func(w *os.File) error {
				return export.SummaryJSON(w, result.Summary)
			}); err != nil {
				return err
			}

			if storePath != "" {
				if err := persist(storePath, result); err != nil {
					return err
				}
			}

			fmt.Printf("%d live events, %d recovered records from %d profiles\n",
				result.Summary.LiveEvents, result.Summary.Recovered, len(profiles))
			return nil
		},
	}
	source.register(extractCommand)
	extractCommand.Flags().StringVarP(&output, "output", "o", ".", "output directory")
	extractCommand.Flags().StringVar(&storePath, "store", "",
		"also persist the results in a SQLite store at this path")
	return extractCommand
}

func persist(path string, result *recovery.Result) error {
	s, err := store.New(path)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.InsertEvents(result.Events); err != nil {
		return err
	}
	if err := s.InsertRecovered(result.Recovered); err != nil {
		return err
	}
	return s.SetSummary(result.Summary)
}

// Analyze is the browserartifacts analyze commandline subcommand. It
// segments the merged timeline into usage sessions and prints session
// statistics as JSON.
func Analyze() *cobra.Command {
	var source sourceFlags
	var threshold time.Duration

	analyzeCommand := &cobra.Command{
		Use:     "analyze",
		Aliases: []string{"sessions"},
		Short:   "Segment browser activity into usage sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := afero.NewOsFs()

			profiles, err := source.profiles(fs)
			if err != nil {
				return err
			}

			result := recovery.Run(fs, profiles)
			tl := timeline.Build(result.Events, result.Recovered)
			sessions := timeline.Split(tl.Ordered, threshold)

			return export.SessionsJSON(cmd.OutOrStdout(), sessions, timeline.Summarize(sessions))
		},
	}
	source.register(analyzeCommand)
	analyzeCommand.Flags().DurationVar(&threshold, "threshold",
		timeline.DefaultInactivityThreshold, "inactivity gap that ends a session")
	return analyzeCommand
}

func writeFile(path string, write func(w *os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
