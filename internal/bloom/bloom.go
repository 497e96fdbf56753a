// Package bloom implements a two-hash Kirsch-Mitzenmacher bloom filter
// sized for a target false-positive rate, used by every on-disk segment to
// answer "definitely absent" without touching the block index.
package bloom

import (
	"hash/fnv"
	"math"
)

// Filter is a fixed-size bitset bloom filter. Insert always sets every bit
// derived for a key before any Contains call can observe them, so the
// filter never produces a false negative.
type Filter struct {
	bits []uint64
	m    uint64 // number of bits
	k    uint64 // number of hash rounds
}

// New sizes a Filter for n expected insertions at the given target
// false-positive rate p. p must be in (0, 1); n must be >= 1.
//
// m = ceil(-n*ln(p) / (ln2)^2), k = ceil(-ln(p) / ln2), matching the
// standard bloom filter sizing formulas ported from the reference
// implementation's BloomFilter::new.
func New(n int, p float64) *Filter {
	if n < 1 {
		n = 1
	}
	if p <= 0 || p >= 1 {
		p = 0.01
	}

	nf := float64(n)
	ln2 := math.Ln2
	m := uint64(math.Ceil(-nf * math.Log(p) / (ln2 * ln2)))
	if m < 8 {
		m = 8
	}
	k := uint64(math.Ceil(-math.Log(p) / ln2))
	if k < 1 {
		k = 1
	}

	words := (m + 63) / 64
	return &Filter{bits: make([]uint64, words), m: m, k: k}
}

// Insert adds key to the filter.
func (f *Filter) Insert(key []byte) {
	h1, h2 := hashKernel(key)
	for i := uint64(0); i < f.k; i++ {
		idx := f.index(h1, h2, i)
		f.bits[idx/64] |= 1 << (idx % 64)
	}
}

// Contains reports whether key may have been inserted. A false result is
// authoritative (the key is definitely absent); a true result may be a
// false positive.
func (f *Filter) Contains(key []byte) bool {
	h1, h2 := hashKernel(key)
	for i := uint64(0); i < f.k; i++ {
		idx := f.index(h1, h2, i)
		if f.bits[idx/64]&(1<<(idx%64)) == 0 {
			return false
		}
	}
	return true
}

func (f *Filter) index(h1, h2, i uint64) uint64 {
	return (h1 + i*h2) % f.m
}

// hashKernel derives the two independent seed hashes the Kirsch-Mitzenmacher
// scheme combines as h1 + i*h2. FNV-1a and FNV-1 over the same input give
// two cheap, sufficiently independent 64-bit hashes without pulling in a
// third-party hashing library for a single bit-index computation.
func hashKernel(key []byte) (uint64, uint64) {
	a := fnv.New64a()
	a.Write(key)
	h1 := a.Sum64()

	b := fnv.New64()
	b.Write(key)
	h2 := b.Sum64()

	return h1, h2
}
