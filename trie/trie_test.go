// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package trie

import (
	"bytes"
	"testing"

	"github.com/megahomyak/assystem/heap"
	"github.com/megahomyak/assystem/storage"
)

// newIndex returns an Index over a fresh MemFiler with a pinned first
// block (an all-NIL root node) already in place at offset 0.
func newIndex(t *testing.T) (storage.Filer, *Index) {
	t.Helper()
	f := storage.NewMemFiler()
	if err := storage.WriteAt(f, make([]byte, heap.HeaderSize+NodeSize), 0); err != nil {
		t.Fatal(err)
	}

	// Patch the pinned block's own header: prev=NIL, length=NodeSize, next=NIL.
	var hdr [heap.HeaderSize]byte
	hdr[15] = NodeSize // length field, big-endian, fits in last byte
	if err := storage.WriteAt(f, hdr[:], 0); err != nil {
		t.Fatal(err)
	}

	alloc := heap.NewAllocator(f, 0)
	return f, New(f, alloc)
}

func mustGet(t *testing.T, x *Index, key string) ([]byte, bool) {
	t.Helper()
	v, ok, err := x.Get([]byte(key))
	if err != nil {
		t.Fatal(err)
	}

	return v, ok
}

func TestGetAbsentOnEmptyTrie(t *testing.T) {
	_, x := newIndex(t)
	if _, ok := mustGet(t, x, "nope"); ok {
		t.Fatal("expected absent")
	}
}

func TestSetGetReplace(t *testing.T) {
	_, x := newIndex(t)

	if _, existed, err := x.Set([]byte("Drunk"), []byte("Driving")); err != nil || existed {
		t.Fatal(existed, err)
	}

	if _, existed, err := x.Set([]byte("Spongebob"), []byte("Squarewave")); err != nil || existed {
		t.Fatal(existed, err)
	}

	prev, existed, err := x.Set([]byte("Drunk"), []byte("Driving"))
	if err != nil || !existed || !bytes.Equal(prev, []byte("Driving")) {
		t.Fatal(string(prev), existed, err)
	}

	if v, ok := mustGet(t, x, "Spongebob"); !ok || !bytes.Equal(v, []byte("Squarewave")) {
		t.Fatal(string(v), ok)
	}

	if v, ok := mustGet(t, x, "Drunk"); !ok || !bytes.Equal(v, []byte("Driving")) {
		t.Fatal(string(v), ok)
	}

	if _, ok := mustGet(t, x, "DISTONN"); ok {
		t.Fatal("expected absent")
	}
}

func TestSetReplaceSizeDelta(t *testing.T) {
	f, x := newIndex(t)
	if _, _, err := x.Set([]byte("Spongebob"), []byte("Squarewave")); err != nil {
		t.Fatal(err)
	}

	l1, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}

	prev, existed, err := x.Set([]byte("Spongebob"), []byte("Squarepants"))
	if err != nil || !existed || !bytes.Equal(prev, []byte("Squarewave")) {
		t.Fatal(string(prev), existed, err)
	}

	l2, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}

	if l2-l1 != 1 {
		t.Fatalf("expected growth of 1 byte, got %d", l2-l1)
	}

	prev, existed, err = x.Set([]byte("Spongebob"), []byte("Squarepants"))
	if err != nil || !existed || !bytes.Equal(prev, []byte("Squarepants")) {
		t.Fatal(string(prev), existed, err)
	}

	l3, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}

	if l3 != l2 {
		t.Fatalf("identical replace must not change size: %d -> %d", l2, l3)
	}
}

func TestRemove(t *testing.T) {
	_, x := newIndex(t)
	if _, _, err := x.Set([]byte("Spongebob"), []byte("Squarewave")); err != nil {
		t.Fatal(err)
	}

	prev, existed, err := x.Remove([]byte("Spongebob"))
	if err != nil || !existed || !bytes.Equal(prev, []byte("Squarewave")) {
		t.Fatal(string(prev), existed, err)
	}

	_, existed, err = x.Remove([]byte("Spongebob"))
	if err != nil || existed {
		t.Fatal(existed, err)
	}
}

func TestBranchReductionRestoresSize(t *testing.T) {
	f, x := newIndex(t)
	if _, _, err := x.Set([]byte("Drunk"), []byte("Driving")); err != nil {
		t.Fatal(err)
	}

	if _, _, err := x.Set([]byte("Spongebob"), []byte("Squarewave")); err != nil {
		t.Fatal(err)
	}

	l1, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}

	if _, existed, err := x.Set([]byte("Spongebob1"), []byte("TEST")); err != nil || existed {
		t.Fatal(existed, err)
	}

	prev, existed, err := x.Remove([]byte("Spongebob1"))
	if err != nil || !existed || !bytes.Equal(prev, []byte("TEST")) {
		t.Fatal(string(prev), existed, err)
	}

	if _, existed, err := x.Remove([]byte("Spongebob1")); err != nil || existed {
		t.Fatal(existed, err)
	}

	if v, ok := mustGet(t, x, "Spongebob"); !ok || !bytes.Equal(v, []byte("Squarewave")) {
		t.Fatal(string(v), ok)
	}

	l2, err := f.Size()
	if err != nil {
		t.Fatal(err)
	}

	if l2 != l1 {
		t.Fatalf("branch reduction did not restore size: %d -> %d", l1, l2)
	}
}

func TestEmptyValueDistinctFromAbsence(t *testing.T) {
	_, x := newIndex(t)
	if _, existed, err := x.Set([]byte("k"), []byte{}); err != nil || existed {
		t.Fatal(existed, err)
	}

	v, ok := mustGet(t, x, "k")
	if !ok || len(v) != 0 {
		t.Fatalf("got %v %v, want present empty", v, ok)
	}

	prev, existed, err := x.Remove([]byte("k"))
	if err != nil || !existed || len(prev) != 0 {
		t.Fatal(prev, existed, err)
	}

	if _, ok := mustGet(t, x, "k"); ok {
		t.Fatal("expected absent after remove")
	}
}

func TestEmptyKeyOperatesOnRoot(t *testing.T) {
	_, x := newIndex(t)
	if _, ok := mustGet(t, x, ""); ok {
		t.Fatal("expected absent on fresh root")
	}

	if _, existed, err := x.Set(nil, []byte("rootval")); err != nil || existed {
		t.Fatal(existed, err)
	}

	if v, ok := mustGet(t, x, ""); !ok || !bytes.Equal(v, []byte("rootval")) {
		t.Fatal(string(v), ok)
	}

	prev, existed, err := x.Remove(nil)
	if err != nil || !existed || !bytes.Equal(prev, []byte("rootval")) {
		t.Fatal(string(prev), existed, err)
	}
}

func TestListTrueBranchFirst(t *testing.T) {
	_, x := newIndex(t)

	// Single-byte keys differing only in their leading (most significant)
	// bit: 0x00 takes the false branch from root, 0x80 takes the true
	// branch. The true branch MUST be visited first.
	if _, _, err := x.Set([]byte{0x00}, []byte("false-branch")); err != nil {
		t.Fatal(err)
	}

	if _, _, err := x.Set([]byte{0x80}, []byte("true-branch")); err != nil {
		t.Fatal(err)
	}

	c := x.List()
	k1, v1, ok, err := c.Next()
	if err != nil || !ok {
		t.Fatal(ok, err)
	}

	if !bytes.Equal(k1, []byte{0x80}) || !bytes.Equal(v1, []byte("true-branch")) {
		t.Fatalf("first pair = %x %q, want true branch first", k1, v1)
	}

	k2, v2, ok, err := c.Next()
	if err != nil || !ok {
		t.Fatal(ok, err)
	}

	if !bytes.Equal(k2, []byte{0x00}) || !bytes.Equal(v2, []byte("false-branch")) {
		t.Fatalf("second pair = %x %q, want false branch second", k2, v2)
	}

	if _, _, ok, err := c.Next(); ok || err != nil {
		t.Fatal("expected iteration to be exhausted", ok, err)
	}
}

func TestListCompletenessAfterMixedOps(t *testing.T) {
	_, x := newIndex(t)
	want := map[string]string{
		"alpha": "1",
		"beta":  "2",
		"gamma": "3",
	}

	for k, v := range want {
		if _, _, err := x.Set([]byte(k), []byte(v)); err != nil {
			t.Fatal(err)
		}
	}

	if _, _, err := x.Set([]byte("doomed"), []byte("x")); err != nil {
		t.Fatal(err)
	}

	if _, _, err := x.Remove([]byte("doomed")); err != nil {
		t.Fatal(err)
	}

	got := map[string]string{}
	c := x.List()
	for {
		k, v, ok, err := c.Next()
		if err != nil {
			t.Fatal(err)
		}

		if !ok {
			break
		}

		got[string(k)] = string(v)
	}

	if len(got) != len(want) {
		t.Fatalf("got %d pairs, want %d: %v", len(got), len(want), got)
	}

	for k, v := range want {
		if got[k] != v {
			t.Fatalf("key %q: got %q, want %q", k, got[k], v)
		}
	}
}
