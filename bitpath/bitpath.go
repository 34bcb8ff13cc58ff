// Copyright 2013 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bitpath exposes a byte slice as a sequence of bits, MSB first per
// byte, the order in which the trie index consumes a key. The byte-mask
// table below is the same shape as dbm's byteMask/bitMask tables, restated
// for sequential rather than random-access bit addressing.
package bitpath

// bitMask[i] isolates bit i counting from the most significant bit (bit 0
// is 0x80), mirroring dbm's bitMask table but MSB-first instead of
// LSB-first since that is the order keys are consumed in.
var bitMask = [8]byte{0x80, 0x40, 0x20, 0x10, 0x08, 0x04, 0x02, 0x01}

// Iterator yields the bits of a byte slice MSB-first per byte: bit 7 of
// b[0], bit 6 of b[0], ..., bit 0 of b[0], bit 7 of b[1], and so on. It is
// finite, non-restartable and yields zero bits for a zero-length slice.
type Iterator struct {
	data []byte
	pos  int // absolute bit position, 0..8*len(data)
}

// New returns an Iterator over data. data is not copied; it must not be
// mutated while the Iterator is in use.
func New(data []byte) *Iterator {
	return &Iterator{data: data}
}

// Len reports the total number of bits the Iterator will yield.
func (it *Iterator) Len() int {
	return 8 * len(it.data)
}

// Done reports whether every bit has already been consumed by Next.
func (it *Iterator) Done() bool {
	return it.pos >= it.Len()
}

// Next returns the next bit (0 or 1) and advances the Iterator. Calling
// Next after Done reports true panics, as that indicates a bug in the
// caller: the trie descent never consumes more than 8*len(key) bits.
func (it *Iterator) Next() int {
	if it.Done() {
		panic("bitpath: Next called past end of key")
	}

	byteIdx := it.pos >> 3
	bitIdx := it.pos & 7
	it.pos++
	if it.data[byteIdx]&bitMask[bitIdx] != 0 {
		return 1
	}

	return 0
}

// Builder assembles bits pushed MSB-first back into bytes, the inverse of
// Iterator, used by the iteration engine to reconstruct a key from a bit
// path.
type Builder struct {
	buf     []byte
	nbits   int
	current byte
}

// Push appends one bit (0 or 1) to the Builder.
func (b *Builder) Push(bit int) {
	b.current <<= 1
	if bit != 0 {
		b.current |= 1
	}

	b.nbits++
	if b.nbits%8 == 0 {
		b.buf = append(b.buf, b.current)
		b.current = 0
	}
}

// Bytes returns the bytes assembled so far. Push must have been called a
// multiple of 8 times, matching the trie invariant that a key's bit path
// always ends on a byte boundary (path length == 8*len(key)).
func (b *Builder) Bytes() []byte {
	if b.nbits%8 != 0 {
		panic("bitpath: Builder.Bytes called with a partial byte pending")
	}

	out := make([]byte, len(b.buf))
	copy(out, b.buf)
	return out
}
