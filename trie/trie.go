// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package trie implements the key → content-block-offset index: a bitwise
// binary trie whose nodes are themselves stored as the payload of blocks
// managed by package heap. Every key bit chooses one of two children; the
// trie is path-compressed only by lazy node allocation, the same
// tree-on-top-of-an-allocator shape the teacher package dbm builds (there,
// a B-tree on top of lldb.Allocator) generalized here to a bit-trie.
package trie

import (
	"encoding/binary"

	"github.com/megahomyak/assystem/bitpath"
	"github.com/megahomyak/assystem/heap"
	"github.com/megahomyak/assystem/storage"
)

// NodeSize is the size, in bytes, of a trie node: false_child(8) |
// true_child(8) | content(8).
const NodeSize = 24

// node is the in-memory decoding of a 24-byte node record.
type node struct {
	falseChild, trueChild int64
	content               int64
}

// Index maps keys to content-block offsets via a bit-trie stored inside f,
// using alloc to manage node and content blocks.
type Index struct {
	f     storage.Filer
	alloc *heap.Allocator
	root  int64 // address of the root node (a payload offset, not a block offset)
}

// New returns an Index whose root node is the payload of alloc's pinned
// first block, per the file format's static root placement
// (HEADER_LEN + BLOCK_HEADER_SIZE).
func New(f storage.Filer, alloc *heap.Allocator) *Index {
	return &Index{f: f, alloc: alloc, root: alloc.First() + heap.HeaderSize}
}

// Root returns the address of the root node.
func (x *Index) Root() int64 { return x.root }

// Get performs a pure descent for key, per the file format's bit-by-bit
// traversal: a NIL child at any depth means the key is absent.
func (x *Index) Get(key []byte) (value []byte, ok bool, err error) {
	addr, found, err := x.descend(key)
	if err != nil || !found {
		return nil, false, err
	}

	n, err := x.readNode(addr)
	if err != nil {
		return nil, false, err
	}

	return x.readContent(n.content)
}

// descend walks addr from the root, consuming one bit of key per node,
// without ever materializing a missing child. found is false if any child
// pointer along the way is NIL.
func (x *Index) descend(key []byte) (addr int64, found bool, err error) {
	addr = x.root
	it := bitpath.New(key)
	for !it.Done() {
		n, err := x.readNode(addr)
		if err != nil {
			return 0, false, err
		}

		bit := it.Next()
		child := n.falseChild
		if bit == 1 {
			child = n.trueChild
		}

		if child == heap.NIL {
			return 0, false, nil
		}

		addr = child
	}

	return addr, true, nil
}

// Set upserts value at key and returns the previous value, if any, exactly
// as spec.md's set(key, value) -> previous? operation: missing children are
// materialized as fresh all-NIL nodes while descending, and the terminal
// node's old content block (if a real block, not EMPTY_VALUE) is read then
// freed before the new one is written.
func (x *Index) Set(key, value []byte) (prev []byte, existed bool, err error) {
	addr := x.root
	it := bitpath.New(key)
	for !it.Done() {
		n, err := x.readNode(addr)
		if err != nil {
			return nil, false, err
		}

		bit := it.Next()
		child := n.falseChild
		if bit == 1 {
			child = n.trueChild
		}

		if child == heap.NIL {
			child, err = x.allocNode()
			if err != nil {
				return nil, false, err
			}

			if err := x.patchChild(addr, bit, child); err != nil {
				return nil, false, err
			}
		}

		addr = child
	}

	n, err := x.readNode(addr)
	if err != nil {
		return nil, false, err
	}

	switch n.content {
	case heap.NIL:
		// No previous value.
	case heap.EmptyValue:
		prev, existed = []byte{}, true
	default:
		prev, err = x.alloc.Read(n.content)
		if err != nil {
			return nil, false, err
		}

		if err := x.alloc.Free(n.content); err != nil {
			return nil, false, err
		}

		existed = true
	}

	var newContent int64
	if len(value) == 0 {
		newContent = heap.EmptyValue
	} else {
		newContent, err = x.alloc.Alloc(value)
		if err != nil {
			return nil, false, err
		}
	}

	if err := x.patchContent(addr, newContent); err != nil {
		return nil, false, err
	}

	return prev, existed, nil
}

// Remove descends without materializing, clears the terminal node's
// content, and then performs branch reduction: it walks back along the
// remembered parent stack, deallocating every ancestor node whose three
// fields have all become NIL, until it meets one that still holds a live
// branch or value, or would otherwise reach the root. The root is never
// deallocated, matching spec.md's invariant that every non-root node
// exists because some descendant subtree still holds a value.
func (x *Index) Remove(key []byte) (prev []byte, existed bool, err error) {
	type frame struct {
		addr int64
		bit  int
	}

	addr := x.root
	var stack []frame
	it := bitpath.New(key)
	for !it.Done() {
		n, err := x.readNode(addr)
		if err != nil {
			return nil, false, err
		}

		bit := it.Next()
		child := n.falseChild
		if bit == 1 {
			child = n.trueChild
		}

		if child == heap.NIL {
			return nil, false, nil
		}

		stack = append(stack, frame{addr: addr, bit: bit})
		addr = child
	}

	n, err := x.readNode(addr)
	if err != nil {
		return nil, false, err
	}

	if n.content == heap.NIL {
		return nil, false, nil
	}

	switch n.content {
	case heap.EmptyValue:
		prev = []byte{}
	default:
		prev, err = x.alloc.Read(n.content)
		if err != nil {
			return nil, false, err
		}

		if err := x.alloc.Free(n.content); err != nil {
			return nil, false, err
		}
	}
	existed = true

	if err := x.patchContent(addr, heap.NIL); err != nil {
		return nil, false, err
	}

	cur := addr
	for i := len(stack) - 1; i >= 0; i-- {
		n, err := x.readNode(cur)
		if err != nil {
			return nil, false, err
		}

		if n.falseChild != heap.NIL || n.trueChild != heap.NIL || n.content != heap.NIL {
			break
		}

		if err := x.freeNode(cur); err != nil {
			return nil, false, err
		}

		parent := stack[i]
		if err := x.patchChild(parent.addr, parent.bit, heap.NIL); err != nil {
			return nil, false, err
		}

		cur = parent.addr
	}

	return prev, existed, nil
}

func (x *Index) readContent(content int64) (value []byte, ok bool, err error) {
	switch content {
	case heap.NIL:
		return nil, false, nil
	case heap.EmptyValue:
		return []byte{}, true, nil
	default:
		v, err := x.alloc.Read(content)
		return v, true, err
	}
}

// allocNode allocates a fresh all-NIL node block and returns its node
// address (the block's payload offset, not the block's own offset).
func (x *Index) allocNode() (int64, error) {
	blockAddr, err := x.alloc.Alloc(make([]byte, NodeSize))
	if err != nil {
		return 0, err
	}

	return blockAddr + heap.HeaderSize, nil
}

// freeNode deallocates the block backing the node at nodeAddr.
func (x *Index) freeNode(nodeAddr int64) error {
	return x.alloc.Free(nodeAddr - heap.HeaderSize)
}

func (x *Index) readNode(addr int64) (node, error) {
	var buf [NodeSize]byte
	if err := storage.ReadAt(x.f, buf[:], addr); err != nil {
		return node{}, err
	}

	return node{
		falseChild: int64(binary.BigEndian.Uint64(buf[0:8])),
		trueChild:  int64(binary.BigEndian.Uint64(buf[8:16])),
		content:    int64(binary.BigEndian.Uint64(buf[16:24])),
	}, nil
}

// patchChild rewrites the child pointer for bit (0 -> false_child at +0, 1
// -> true_child at +8) of the node at addr.
func (x *Index) patchChild(addr int64, bit int, child int64) error {
	off := addr
	if bit == 1 {
		off = addr + 8
	}

	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(child))
	return storage.WriteAt(x.f, buf[:], off)
}

// patchContent rewrites the content pointer (at +16) of the node at addr.
func (x *Index) patchContent(addr int64, content int64) error {
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(content))
	return storage.WriteAt(x.f, buf[:], addr+16)
}
