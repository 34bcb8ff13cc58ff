// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A basic os.File backed Filer.

package storage

import (
	"io"
	"os"
)

var _ Filer = (*OSFiler)(nil)

// OSFiler is an os.File backed Filer. It implements no structural integrity
// measures of any kind: a process that dies mid-write can leave the
// underlying file logically corrupt. This is intentional — the format this
// module implements has no write-ahead log, no fsync discipline and no
// checksums, so a more careful Filer would be false advertising.
type OSFiler struct {
	file *os.File
}

// NewOSFiler returns a new OSFiler wrapping f.
func NewOSFiler(f *os.File) *OSFiler {
	return &OSFiler{file: f}
}

// Name implements Filer.
func (f *OSFiler) Name() string { return f.file.Name() }

// Close implements Filer.
func (f *OSFiler) Close() error { return f.file.Close() }

// Seek implements Filer.
func (f *OSFiler) Seek(offset int64, whence int) (int64, error) {
	return f.file.Seek(offset, whence)
}

// Read implements Filer.
func (f *OSFiler) Read(b []byte) (n int, err error) {
	n, err = io.ReadFull(f.file, b)
	if err == io.EOF {
		err = io.ErrUnexpectedEOF
	}

	return n, err
}

// Write implements Filer.
func (f *OSFiler) Write(b []byte) (n int, err error) {
	return f.file.Write(b)
}

// Truncate implements Filer.
func (f *OSFiler) Truncate() error {
	off, err := f.file.Seek(0, io.SeekCurrent)
	if err != nil {
		return err
	}

	return f.file.Truncate(off)
}

// Size implements Filer.
func (f *OSFiler) Size() (int64, error) {
	fi, err := f.file.Stat()
	if err != nil {
		return 0, err
	}

	return fi.Size(), nil
}
