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

package browserdb

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/browserartifacts"
)

// Scratch is an isolated copy of one artifact file. The source is opened
// read only and never modified; the copy lives in its own temporary
// directory and is removed by Close on every exit path of the analysis.
type Scratch struct {
	fs  afero.Fs
	dir string

	// Path of the copied artifact.
	Path string
}

// NewScratch copies the artifact at src into a fresh temporary directory.
// A missing source maps to ErrMissingArtifact, a permission or lock
// failure to ErrLockedOrUnreadable.
func NewScratch(fs afero.Fs, src string) (*Scratch, error) {
	data, err := afero.ReadFile(fs, src)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(browserartifacts.ErrMissingArtifact, src)
		}
		return nil, errors.Wrap(browserartifacts.ErrLockedOrUnreadable, src)
	}

	dir, err := afero.TempDir(fs, "", "browserartifacts")
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, filepath.Base(src))
	if err := afero.WriteFile(fs, path, data, 0600); err != nil {
		_ = fs.RemoveAll(dir)
		return nil, err
	}

	return &Scratch{fs: fs, dir: dir, Path: path}, nil
}

// Close removes the scratch directory and everything in it, including
// journal or WAL side files sqlite may have created next to the copy.
func (s *Scratch) Close() error {
	return s.fs.RemoveAll(s.dir)
}
