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

// Package main implements the browserartifacts command line tool that
// reconstructs browser activity, including deleted records, from the
// on-disk artifacts of Chrome, Firefox and Safari profiles.
//     extract   Extract live and deleted browser activity to CSV and JSON
//     analyze   Segment browser activity into usage sessions
//
// Usage
//
// Extract everything from the current user's browsers
//     browserartifacts extract -o report/
// Analyze one exported profile directory
//     browserartifacts extract --browser Firefox --profile-dir /evidence/profile
// Session statistics with a custom inactivity threshold
//     browserartifacts analyze --threshold 15m
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/browserartifacts/cmd"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "browserartifacts",
		Short: "Recover and analyze browser activity from profile artifacts",
	}
	rootCmd.AddCommand(cmd.Extract(), cmd.Analyze())
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
