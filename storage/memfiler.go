// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// A memory-only implementation of Filer.

package storage

import (
	"io"
)

var _ Filer = (*MemFiler)(nil)

// MemFiler is a memory backed Filer. It holds its entire content in a
// single growable byte slice; unlike lldb's paged MemFiler, this module's
// files are small enough (the format has no size limit beyond u64
// addressability, but test and tool usage never approaches it) that paging
// buys nothing but complexity. MemFiler is not persistent.
type MemFiler struct {
	buf  []byte
	pos  int64
	name string
}

// NewMemFiler returns a new, empty MemFiler.
func NewMemFiler() *MemFiler {
	return &MemFiler{name: "mem"}
}

// Name implements Filer.
func (f *MemFiler) Name() string { return f.name }

// Close implements Filer.
func (f *MemFiler) Close() error { return nil }

// Seek implements Filer.
func (f *MemFiler) Seek(offset int64, whence int) (int64, error) {
	var newPos int64
	switch whence {
	case io.SeekStart:
		newPos = offset
	case io.SeekCurrent:
		newPos = f.pos + offset
	case io.SeekEnd:
		newPos = int64(len(f.buf)) + offset
	default:
		return 0, &ErrINVAL{f.name + ":Seek whence", whence}
	}

	if newPos < 0 {
		return 0, &ErrINVAL{f.name + ":Seek offset", offset}
	}

	f.pos = newPos
	return f.pos, nil
}

// Read implements Filer.
func (f *MemFiler) Read(b []byte) (n int, err error) {
	avail := int64(len(f.buf)) - f.pos
	if avail < int64(len(b)) {
		return 0, io.ErrUnexpectedEOF
	}

	n = copy(b, f.buf[f.pos:])
	f.pos += int64(n)
	return n, nil
}

// Write implements Filer.
func (f *MemFiler) Write(b []byte) (n int, err error) {
	end := f.pos + int64(len(b))
	if end > int64(len(f.buf)) {
		grown := make([]byte, end)
		copy(grown, f.buf)
		f.buf = grown
	}

	n = copy(f.buf[f.pos:end], b)
	f.pos += int64(n)
	return n, nil
}

// Truncate implements Filer.
func (f *MemFiler) Truncate() error {
	if f.pos > int64(len(f.buf)) {
		return &ErrINVAL{f.name + ":Truncate", f.pos}
	}

	f.buf = f.buf[:f.pos]
	return nil
}

// Size implements Filer.
func (f *MemFiler) Size() (int64, error) {
	return int64(len(f.buf)), nil
}
