// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trie

import (
	"github.com/megahomyak/assystem/bitpath"
	"github.com/megahomyak/assystem/heap"
)

// task is one DFS frame: the node at nodeAddr, reached from the frame at
// index parent by branch bit (parent == -1 for the root, whose bit is
// meaningless). Frames reference their parent by slice index rather than
// by pointer — spec.md's §9 design note recommendation for languages
// without reference counting, and the natural Go idiom besides: it avoids
// a graph of parent pointers whose sibling tasks would otherwise need
// manual unsharing, leaving the whole arena to ordinary GC once the
// Cursor is dropped.
type task struct {
	nodeAddr int64
	parent   int
	bit      int
}

// Cursor is a stateful, non-restartable DFS walk over an Index, the
// iteration engine of spec.md §4.E. Pushing the false branch before the
// true branch at each node means true branches are popped, and so
// visited, first.
type Cursor struct {
	x     *Index
	tasks []task
	stack []int
}

// List returns a Cursor starting a fresh depth-first walk of x.
func (x *Index) List() *Cursor {
	c := &Cursor{x: x}
	c.tasks = append(c.tasks, task{nodeAddr: x.root, parent: -1})
	c.stack = append(c.stack, 0)
	return c
}

// Next advances the Cursor to the next (key, value) pair whose node has a
// non-NIL content. ok is false once every reachable node has been visited;
// Next must not be called again after that.
func (c *Cursor) Next() (key, value []byte, ok bool, err error) {
	for len(c.stack) > 0 {
		idx := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]

		n, err := c.x.readNode(c.tasks[idx].nodeAddr)
		if err != nil {
			return nil, nil, false, err
		}

		if n.falseChild != heap.NIL {
			c.tasks = append(c.tasks, task{nodeAddr: n.falseChild, parent: idx, bit: 0})
			c.stack = append(c.stack, len(c.tasks)-1)
		}

		if n.trueChild != heap.NIL {
			c.tasks = append(c.tasks, task{nodeAddr: n.trueChild, parent: idx, bit: 1})
			c.stack = append(c.stack, len(c.tasks)-1)
		}

		if n.content == heap.NIL {
			continue
		}

		key = c.reconstructKey(idx)
		value, _, err = c.x.readContent(n.content)
		if err != nil {
			return nil, nil, false, err
		}

		return key, value, true, nil
	}

	return nil, nil, false, nil
}

// reconstructKey walks the parent chain from tasks[idx] back to the root,
// collecting branch bits, then replays them root-first into bytes.
func (c *Cursor) reconstructKey(idx int) []byte {
	var bits []int
	for i := idx; c.tasks[i].parent != -1; i = c.tasks[i].parent {
		bits = append(bits, c.tasks[i].bit)
	}

	var b bitpath.Builder
	for i := len(bits) - 1; i >= 0; i-- {
		b.Push(bits[i])
	}

	return b.Bytes()
}
