package util

import "math/bits"

const blockw = 32 // width of each block

// BitSet is a growable set of non-negative integers, stored as a bitarray.
// The zero value is an empty set, ready to use.
// A nil *BitSet is a valid, empty, read-only set.
type BitSet struct {
	data []uint32
	ones uint
}

// ensureCap guarantees space for `n` bits.
func (b *BitSet) ensureCap(n uint) {
	size := uint(len(b.data))
	expected := divup(n, blockw)

	if size < expected {
		b.data = append(b.data, make([]uint32, expected-size)...)
	}
}

// divup performs the integer division (a / b) and rounds up the result.
func divup(a, b uint) uint {
	return (a + b - 1) / b
}

// mask returns the block index and the bit mask of the `i`-th bit.
// Bits are stored from the most significant bit to the least significant one.
func mask(i uint) (uint, uint32) {
	bitoff := i % blockw
	return i / blockw, uint32(1) << (blockw - bitoff - 1)
}

// Add inserts `i` into the set. Negative values are ignored.
func (b *BitSet) Add(i int) {
	if i < 0 {
		return
	}

	b.ensureCap(uint(i) + 1)

	valindex, m := mask(uint(i))
	if b.data[valindex]&m == 0 {
		b.data[valindex] |= m
		b.ones++
	}
}

// Contains reports whether `i` is an element of the set.
func (b *BitSet) Contains(i int) bool {
	if b == nil || i < 0 {
		return false
	}

	valindex, m := mask(uint(i))
	if valindex >= uint(len(b.data)) {
		return false
	}

	return b.data[valindex]&m != 0
}

// Values returns the elements of the set in ascending order.
func (b *BitSet) Values() []int {
	if b == nil || b.ones == 0 {
		return nil
	}

	res := make([]int, 0, b.ones)
	for valindex, block := range b.data {
		for block != 0 {
			off := bits.LeadingZeros32(block)
			res = append(res, valindex*blockw+off)
			block &^= uint32(1) << (blockw - off - 1)
		}
	}

	return res
}
