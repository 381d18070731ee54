package util

import (
	"slices"
	"testing"
)

func TestBitSet(t *testing.T) {
	var b BitSet
	for _, v := range []int{3, 0, 31, 32, 100, 3} {
		b.Add(v)
	}

	for _, v := range []int{0, 3, 31, 32, 100} {
		if !b.Contains(v) {
			t.Errorf("Contains(%d) = false, want true", v)
		}
	}
	for _, v := range []int{-1, 1, 2, 30, 33, 99, 101, 1000} {
		if b.Contains(v) {
			t.Errorf("Contains(%d) = true, want false", v)
		}
	}

	if got, want := b.Values(), []int{0, 3, 31, 32, 100}; !slices.Equal(got, want) {
		t.Errorf("Values() = %v, want %v", got, want)
	}
}

func TestNilBitSet(t *testing.T) {
	var b *BitSet

	if b.Contains(0) {
		t.Error("nil set must not contain any value")
	}
	if b.Values() != nil {
		t.Error("nil set must be empty")
	}

	var z BitSet
	z.Add(-5)
	if got := z.Values(); got != nil {
		t.Errorf("negative values must be ignored, got %v", got)
	}
}
