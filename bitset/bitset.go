// Package bitset implements an arbitrary-width bit vector used by the
// solver to track which include/exclude rows a candidate or atom matches.
//
// A fixed machine-word integer caps out at 64 rows; PatternForge's corpora
// (pin lists, instance trees) routinely exceed that, so Set grows its word
// slice on demand instead of capping at one word.
package bitset

import "math/bits"

// Set is a dynamically sized bit vector, word 0 holding bits [0, 64).
type Set struct {
	words []uint64
}

// New returns an empty Set.
func New() *Set {
	return &Set{}
}

// Make builds a Set with the given indexes turned on.
func Make(indexes ...int) *Set {
	s := New()
	for _, idx := range indexes {
		s.Set(idx)
	}
	return s
}

func wordIndex(i int) int { return i / 64 }
func bitIndex(i int) uint { return uint(i % 64) }

func (s *Set) grow(words int) {
	if words <= len(s.words) {
		return
	}
	grown := make([]uint64, words)
	copy(grown, s.words)
	s.words = grown
}

// Set turns bit i on.
func (s *Set) Set(i int) {
	w := wordIndex(i)
	s.grow(w + 1)
	s.words[w] |= 1 << bitIndex(i)
}

// Test reports whether bit i is on.
func (s *Set) Test(i int) bool {
	w := wordIndex(i)
	if w >= len(s.words) {
		return false
	}
	return s.words[w]&(1<<bitIndex(i)) != 0
}

// Count returns the popcount of the set (number of set bits).
func (s *Set) Count() int {
	total := 0
	for _, w := range s.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// IsEmpty reports whether no bits are set.
func (s *Set) IsEmpty() bool {
	for _, w := range s.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of s.
func (s *Set) Clone() *Set {
	out := &Set{words: make([]uint64, len(s.words))}
	copy(out.words, s.words)
	return out
}

// Or returns a new Set that is the union of a and b.
func Or(a, b *Set) *Set {
	n := len(a.words)
	if len(b.words) > n {
		n = len(b.words)
	}
	out := &Set{words: make([]uint64, n)}
	for i := 0; i < n; i++ {
		var wa, wb uint64
		if i < len(a.words) {
			wa = a.words[i]
		}
		if i < len(b.words) {
			wb = b.words[i]
		}
		out.words[i] = wa | wb
	}
	return out
}

// And returns a new Set that is the intersection of s and other.
func And(a, b *Set) *Set {
	n := len(a.words)
	if len(b.words) < n {
		n = len(b.words)
	}
	out := &Set{words: make([]uint64, n)}
	for i := 0; i < n; i++ {
		out.words[i] = a.words[i] & b.words[i]
	}
	return out
}

// AndNot returns a new Set containing bits in a that are not in b (a &^ b).
func AndNot(a, b *Set) *Set {
	out := &Set{words: make([]uint64, len(a.words))}
	for i := range a.words {
		w := a.words[i]
		if i < len(b.words) {
			w &^= b.words[i]
		}
		out.words[i] = w
	}
	return out
}

// Not returns the complement of s within a universe of `size` bits.
func Not(s *Set, size int) *Set {
	if size <= 0 {
		return New()
	}
	words := wordIndex(size-1) + 1
	out := &Set{words: make([]uint64, words)}
	for i := 0; i < words; i++ {
		var w uint64
		if i < len(s.words) {
			w = s.words[i]
		}
		out.words[i] = ^w
	}
	// Mask off bits beyond size in the final word.
	lastBits := uint(size % 64)
	if lastBits != 0 {
		mask := uint64(1)<<lastBits - 1
		out.words[words-1] &= mask
	}
	return out
}

// Iter calls fn for every set bit index, in ascending order.
func (s *Set) Iter(fn func(index int)) {
	for wi, w := range s.words {
		for w != 0 {
			tz := bits.TrailingZeros64(w)
			fn(wi*64 + tz)
			w &= w - 1
		}
	}
}

// Indexes returns the sorted set bit indexes.
func (s *Set) Indexes() []int {
	out := make([]int, 0, s.Count())
	s.Iter(func(i int) { out = append(out, i) })
	return out
}

// Equal reports whether a and b have identical bits set.
func Equal(a, b *Set) bool {
	n := len(a.words)
	if len(b.words) > n {
		n = len(b.words)
	}
	for i := 0; i < n; i++ {
		var wa, wb uint64
		if i < len(a.words) {
			wa = a.words[i]
		}
		if i < len(b.words) {
			wb = b.words[i]
		}
		if wa != wb {
			return false
		}
	}
	return true
}

// Subset reports whether every bit set in a is also set in b.
func Subset(a, b *Set) bool {
	for i, wa := range a.words {
		var wb uint64
		if i < len(b.words) {
			wb = b.words[i]
		}
		if wa&^wb != 0 {
			return false
		}
	}
	return true
}
