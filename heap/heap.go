// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package heap implements the in-file free-space allocator: variable-length
// blocks are tracked by a doubly-linked chain of live blocks in strictly
// ascending file-offset order, and free space is whatever gap separates two
// adjacent live blocks. This is a deliberately simplified sibling of lldb's
// Allocator (package lldb, falloc.go): there are no atoms, no tag bytes, no
// free-lists-by-size, no compression and no relocation blocks — a single
// first-fit linear scan of the live chain is the whole algorithm.
package heap

import (
	"encoding/binary"
	"io"

	"github.com/megahomyak/assystem/storage"
)

const (
	// NIL is the sentinel offset meaning "does not exist".
	NIL = 0

	// EmptyValue is the sentinel block address denoting the empty byte
	// string as a stored value without consuming a real block. It is
	// never dereferenced.
	EmptyValue = 1

	// HeaderSize is the size, in bytes, of a block's header: prev(8) |
	// length(8) | next(8).
	HeaderSize = 24
)

// Allocator manages the live-block chain of a storage.Filer on behalf of
// higher-level code (package trie). First is the address of the pinned
// first block — the chain's head — which the caller (package ass) places
// immediately after the file header and never deallocates.
type Allocator struct {
	f     storage.Filer
	first int64
}

// NewAllocator returns an Allocator whose live chain starts at first.
func NewAllocator(f storage.Filer, first int64) *Allocator {
	return &Allocator{f: f, first: first}
}

// First returns the address of the pinned first block.
func (a *Allocator) First() int64 { return a.first }

// Alloc allocates storage for data and returns the address of the new
// block. If data is empty, Alloc returns EmptyValue without touching the
// file. Alloc never relocates or compacts existing blocks; because the
// chain is scanned from the front on every call, Alloc is O(blocks).
//
// The "gap threshold" used to decide whether a free gap is reused is
// len(data)+HeaderSize — a gap of at least that size is reused (one of
// exactly that size included), and any smaller gap is skipped, because
// the new block's header must fit in the gap along with its payload. This is the fragmentation/simplicity
// tradeoff spec'd for this format; see heap_test.go for the boundary case.
func (a *Allocator) Alloc(data []byte) (addr int64, err error) {
	if len(data) == 0 {
		return EmptyValue, nil
	}

	need := int64(len(data)) + HeaderSize
	cur := a.first
	for {
		b, err := a.readHeader(cur)
		if err != nil {
			return 0, err
		}

		payloadEnd := cur + HeaderSize + b.length
		if b.next == NIL {
			newAddr := payloadEnd
			if err := a.writeHeader(newAddr, cur, int64(len(data)), NIL); err != nil {
				return 0, err
			}

			if err := storage.WriteAt(a.f, data, newAddr+HeaderSize); err != nil {
				return 0, err
			}

			if err := a.patchNext(cur, newAddr); err != nil {
				return 0, err
			}

			return newAddr, nil
		}

		if gap := b.next - payloadEnd; gap >= need {
			newAddr := payloadEnd
			if err := a.writeHeader(newAddr, cur, int64(len(data)), b.next); err != nil {
				return 0, err
			}

			if err := storage.WriteAt(a.f, data, newAddr+HeaderSize); err != nil {
				return 0, err
			}

			if err := a.patchNext(cur, newAddr); err != nil {
				return 0, err
			}

			if err := a.patchPrev(b.next, newAddr); err != nil {
				return 0, err
			}

			return newAddr, nil
		}

		cur = b.next
	}
}

// Free deallocates the block at addr. If addr is EmptyValue, Free is a
// no-op. The pinned first block MUST NOT ever be passed to Free; callers
// (package trie) are responsible for preserving that invariant.
func (a *Allocator) Free(addr int64) error {
	if addr == EmptyValue {
		return nil
	}

	b, err := a.readHeader(addr)
	if err != nil {
		return err
	}

	if b.next == NIL {
		if err := a.patchNext(b.prev, NIL); err != nil {
			return err
		}

		prevB, err := a.readHeader(b.prev)
		if err != nil {
			return err
		}

		end := b.prev + HeaderSize + prevB.length
		if _, err := a.f.Seek(end, io.SeekStart); err != nil {
			return err
		}

		return a.f.Truncate()
	}

	if err := a.patchPrev(b.next, b.prev); err != nil {
		return err
	}

	return a.patchNext(b.prev, b.next)
}

// Read returns the payload stored at addr. If addr is EmptyValue, Read
// returns an empty, non-nil slice.
func (a *Allocator) Read(addr int64) ([]byte, error) {
	if addr == EmptyValue {
		return []byte{}, nil
	}

	b, err := a.readHeader(addr)
	if err != nil {
		return nil, err
	}

	buf := make([]byte, b.length)
	if err := storage.ReadAt(a.f, buf, addr+HeaderSize); err != nil {
		return nil, err
	}

	return buf, nil
}

type blockHeader struct {
	prev, length, next int64
}

func (a *Allocator) readHeader(addr int64) (blockHeader, error) {
	var buf [HeaderSize]byte
	if err := storage.ReadAt(a.f, buf[:], addr); err != nil {
		return blockHeader{}, err
	}

	return blockHeader{
		prev:   int64(binary.BigEndian.Uint64(buf[0:8])),
		length: int64(binary.BigEndian.Uint64(buf[8:16])),
		next:   int64(binary.BigEndian.Uint64(buf[16:24])),
	}, nil
}

func (a *Allocator) writeHeader(addr, prev, length, next int64) error {
	var buf [HeaderSize]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(prev))
	binary.BigEndian.PutUint64(buf[8:16], uint64(length))
	binary.BigEndian.PutUint64(buf[16:24], uint64(next))
	return storage.WriteAt(a.f, buf[:], addr)
}

func (a *Allocator) patchNext(addr, next int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(next))
	return storage.WriteAt(a.f, buf[:], addr+16)
}

func (a *Allocator) patchPrev(addr, prev int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(prev))
	return storage.WriteAt(a.f, buf[:], addr)
}
