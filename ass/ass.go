// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package ass implements ASS v1, an embedded, single-file, persistent
// key/value store. Keys and values are arbitrary byte strings, including
// the empty string. The whole store lives in one file built from two
// coupled subsystems: package heap's in-file free-space allocator and
// package trie's bitwise binary trie index. Package ass itself only owns
// the file's lifecycle — the 7-byte header, the pinned first block, and
// wiring the allocator to the index — the same layering dbm/dbm.go uses
// to sit a B-tree and an lldb.Allocator behind one Create/Open pair.
package ass

import (
	"bytes"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/megahomyak/assystem/heap"
	"github.com/megahomyak/assystem/storage"
	"github.com/megahomyak/assystem/trie"
)

// magic is the fixed 7-byte header every ASS v1 file begins with.
var magic = [7]byte{'A', 'S', 'S', ' ', 'v', '1', 0}

// HeaderLen is the size, in bytes, of the file header.
const HeaderLen = len(magic)

// ErrFormat reports that a file does not look like an ASS v1 store: a
// short read of the header, or a header whose bytes do not match magic.
type ErrFormat struct {
	Name string
	Got  []byte
}

func (e *ErrFormat) Error() string {
	return fmt.Sprintf("%s: not an ASS v1 file (header %x)", e.Name, e.Got)
}

// Store is one open ASS v1 file. A Store is not safe for concurrent use
// by multiple goroutines; callers needing that must serialize their own
// access, exactly as storage.Filer's doc comment requires of its callers.
type Store struct {
	f     storage.Filer
	alloc *heap.Allocator
	index *trie.Index
}

// Open wraps f as a Store, initializing a fresh ASS v1 header and pinned
// root block if f is empty, or validating an existing header otherwise.
// Open takes ownership of f only in the sense that Store.Close closes it;
// the caller is responsible for not using f directly afterward.
func Open(f storage.Filer) (*Store, error) {
	size, err := f.Size()
	if err != nil {
		return nil, err
	}

	switch {
	case size == 0:
		if err := initEmpty(f); err != nil {
			return nil, err
		}
	default:
		if err := checkHeader(f); err != nil {
			return nil, err
		}
	}

	alloc := heap.NewAllocator(f, int64(HeaderLen))
	return &Store{f: f, alloc: alloc, index: trie.New(f, alloc)}, nil
}

// initEmpty writes the header and the pinned first block — an all-NIL
// root trie node — to an empty file.
func initEmpty(f storage.Filer) error {
	if err := storage.WriteAt(f, magic[:], 0); err != nil {
		return err
	}

	var blk [heap.HeaderSize + trie.NodeSize]byte
	binary64(blk[8:16], trie.NodeSize)
	return storage.WriteAt(f, blk[:], int64(HeaderLen))
}

// checkHeader validates the magic header of a non-empty file.
func checkHeader(f storage.Filer) error {
	var buf [HeaderLen]byte
	if err := storage.ReadAt(f, buf[:], 0); err != nil {
		if err == io.ErrUnexpectedEOF {
			return &ErrFormat{Name: f.Name(), Got: buf[:]}
		}

		return err
	}

	if !bytes.Equal(buf[:], magic[:]) {
		return &ErrFormat{Name: f.Name(), Got: append([]byte(nil), buf[:]...)}
	}

	return nil
}

func binary64(b []byte, v int64) {
	for i := 7; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
}

// Create creates a new ASS v1 file at path, truncating it if it already
// exists, and opens it. Grounded on dbm.Create's os.OpenFile handling.
func Create(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, err
	}

	s, err := Open(storage.NewOSFiler(f))
	if err != nil {
		f.Close()
		return nil, err
	}

	return s, nil
}

// OpenFile opens an existing ASS v1 file at path. Grounded on dbm.Open's
// os.OpenFile handling.
func OpenFile(path string) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		return nil, err
	}

	s, err := Open(storage.NewOSFiler(f))
	if err != nil {
		f.Close()
		return nil, err
	}

	return s, nil
}

// Get returns the value stored at key, if any. ok is false exactly when
// no call to Set has ever stored a value for key without a later Remove;
// it never signals an I/O error, which is always reported via err.
func (s *Store) Get(key []byte) (value []byte, ok bool, err error) {
	return s.index.Get(key)
}

// Set stores value at key, returning the value previously stored there,
// if any. An empty value is stored and later returned as a present,
// zero-length slice — distinct from key being absent. If Set returns an
// I/O error, the file may be left in an inconsistent state.
func (s *Store) Set(key, value []byte) (prev []byte, existed bool, err error) {
	return s.index.Set(key, value)
}

// Remove deletes key, returning the value it held, if any, and then
// prunes every ancestor node left holding no branch and no value. If
// Remove returns an I/O error, the file may be left in an inconsistent
// state.
func (s *Store) Remove(key []byte) (prev []byte, existed bool, err error) {
	return s.index.Remove(key)
}

// Cursor is a stateful depth-first walk over a Store's key/value pairs,
// true branches visited before false branches at every node.
type Cursor = trie.Cursor

// List starts a fresh walk of every (key, value) pair in s.
func (s *Store) List() (*Cursor, error) {
	return s.index.List(), nil
}

// All returns an iter.Seq2 visiting every (key, value) pair in s in the
// same depth-first, true-branch-first order as List. It is a pure
// ergonomic wrapper around List/Cursor.Next added for current idiomatic
// Go range-over-func call sites; it introduces no new traversal logic.
func (s *Store) All() iter.Seq2[[]byte, []byte] {
	return func(yield func([]byte, []byte) bool) {
		c, err := s.List()
		if err != nil {
			return
		}

		for {
			k, v, ok, err := c.Next()
			if err != nil || !ok {
				return
			}

			if !yield(k, v) {
				return
			}
		}
	}
}

// Close closes the underlying Filer. It does not flush anything beyond
// what the Filer itself already wrote; ASS v1 has no write buffering to
// flush and no fsync discipline to perform.
func (s *Store) Close() error {
	return s.f.Close()
}
