// Package pieceset implements a fixed-length bitset over a torrent's piece
// indices: the primitive used everywhere a file or directory node needs to
// say which pieces it touches.
package pieceset

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

const wordBits = 64

// ErrLengthMismatch is returned when a set operation is given operands of
// differing declared length.
var ErrLengthMismatch = errors.New("pieceset: length mismatch")

// Set is a bitset over [0, N) for some fixed N, stored word-parallel.
// Bit i corresponds to piece i; Bitstring renders bit 0 first (MSB-first).
type Set struct {
	words []uint64
	n     int
}

// Empty returns a Set of length n with no bits set.
func Empty(n int) Set {
	if n < 0 {
		panic(errors.Errorf("pieceset: negative length %d", n))
	}
	return Set{words: make([]uint64, wordCount(n)), n: n}
}

func wordCount(n int) int {
	return (n + wordBits - 1) / wordBits
}

// FromBitstring builds a Set from a string of '0'/'1' characters, MSB-first,
// one character per piece.
func FromBitstring(bits string) (Set, error) {
	s := Empty(len(bits))
	for i, c := range bits {
		switch c {
		case '1':
			s.Set(i)
		case '0':
		default:
			return Set{}, errors.Errorf("pieceset: illegal character %q at %d", c, i)
		}
	}
	return s, nil
}

// Len returns the declared length of the set.
func (s Set) Len() int { return s.n }

// Set marks piece i as present.
func (s Set) Set(i int) {
	if i < 0 || i >= s.n {
		panic(errors.Errorf("pieceset: index %d out of range [0,%d)", i, s.n))
	}
	s.words[i/wordBits] |= 1 << uint(i%wordBits)
}

// Contains reports whether piece i is present in the set.
func (s Set) Contains(i int) bool {
	if i < 0 || i >= s.n {
		return false
	}
	return s.words[i/wordBits]&(1<<uint(i%wordBits)) != 0
}

// PopCount returns the number of set bits (the Size operation in spec terms).
func (s Set) PopCount() int {
	total := 0
	for _, w := range s.words {
		total += bits.OnesCount64(w)
	}
	return total
}

// IsEmpty reports whether no bits are set.
func (s Set) IsEmpty() bool {
	return s.PopCount() == 0
}

func (s Set) requireSameLen(other Set) error {
	if s.n != other.n {
		return errors.Wrapf(ErrLengthMismatch, "%d vs %d", s.n, other.n)
	}
	return nil
}

// Union returns the bitwise OR of s and other. Both must share length.
func (s Set) Union(other Set) (Set, error) {
	if err := s.requireSameLen(other); err != nil {
		return Set{}, err
	}
	out := Empty(s.n)
	for i := range out.words {
		out.words[i] = s.words[i] | other.words[i]
	}
	return out, nil
}

// Intersect returns the bitwise AND of s and other. Both must share length.
func (s Set) Intersect(other Set) (Set, error) {
	if err := s.requireSameLen(other); err != nil {
		return Set{}, err
	}
	out := Empty(s.n)
	for i := range out.words {
		out.words[i] = s.words[i] & other.words[i]
	}
	return out, nil
}

// Difference returns the bits set in s but not in other. Both must share length.
func (s Set) Difference(other Set) (Set, error) {
	if err := s.requireSameLen(other); err != nil {
		return Set{}, err
	}
	out := Empty(s.n)
	for i := range out.words {
		out.words[i] = s.words[i] &^ other.words[i]
	}
	return out, nil
}

// Bitstring renders the set as a '0'/'1' string, MSB-first, one character
// per declared piece.
func (s Set) Bitstring() string {
	var b strings.Builder
	b.Grow(s.n)
	for i := 0; i < s.n; i++ {
		if s.Contains(i) {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Universal returns a Set of length n with every bit set.
func Universal(n int) Set {
	s := Empty(n)
	for i := 0; i < n; i++ {
		s.Set(i)
	}
	return s
}
