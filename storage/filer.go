// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package storage provides the file-like abstraction the rest of this
// module is built on: a single random-access byte store addressed by one
// mutable seek cursor, as described by the on-disk file format.
package storage

import (
	"io"
)

// A Filer is a []byte-like model of a file or similar entity. In contrast to
// lldb's Filer (this package's ancestor), a storage.Filer is addressed
// exclusively through its seek cursor: every Read/Write acts at the current
// offset and advances it, mirroring the on-disk format's own "every pointer
// is reached by seeking there first" discipline. A Filer is not safe for
// concurrent access; it is designed for consumption by exactly one logical
// writer/reader, which should use a Filer from one goroutine only or guard
// it with a mutex of its own.
type Filer interface {
	// As os.File.Name().
	Name() string

	// As os.File.Close().
	Close() error

	// As os.File.Seek(). whence is one of io.SeekStart, io.SeekCurrent,
	// io.SeekEnd.
	Seek(offset int64, whence int) (int64, error)

	// Read reads exactly len(b) bytes starting at the current cursor and
	// advances the cursor by len(b). It returns io.ErrUnexpectedEOF (never
	// io.EOF) if fewer bytes were available.
	Read(b []byte) (n int, err error)

	// Write writes all of b starting at the current cursor, extending the
	// file as necessary, and advances the cursor by len(b).
	Write(b []byte) (n int, err error)

	// Truncate shortens the file so that its size equals the current
	// cursor position. The cursor itself is unaffected.
	Truncate() error

	// Size reports the current file length, as os.File.FileInfo().Size().
	Size() (int64, error)
}

// ReadAt is a convenience wrapper seeking to off before reading len(b)
// bytes. It exists because every component above this package (heap, trie)
// addresses the file purely in terms of absolute offsets; resynchronizing
// with an absolute seek at the start of every access is the discipline this
// module follows throughout, per the file format's single shared cursor.
func ReadAt(f Filer, b []byte, off int64) error {
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return err
	}

	_, err := f.Read(b)
	return err
}

// WriteAt is the Write analog of ReadAt.
func WriteAt(f Filer, b []byte, off int64) error {
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return err
	}

	_, err := f.Write(b)
	return err
}
