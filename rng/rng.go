// Package rng implements explicit, splittable pseudo-random keys.  A Key is an
// immutable value; deriving randomness from it never changes it, and Split
// deterministically produces independent child keys.  There is no hidden
// global random state.
package rng

import (
	"fmt"

	"golang.org/x/exp/rand"
)

const golden = 0x9e3779b97f4a7c15

// Key identifies a pseudo-random stream.  The zero Key is valid.
type Key struct {
	hi, lo uint64
}

// NewKey creates the root key for seed.
func NewKey(seed uint64) Key {
	return Key{hi: splitmix(seed), lo: splitmix(seed ^ 0xda942042e4dd58b5)}
}

// splitmix is the SplitMix64 finalizer (Vigna 2014).
func splitmix(x uint64) uint64 {
	x += golden
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

// Fold derives a new key from k and data.  Fold(k, i) for distinct i yields
// distinct independent keys and is the building block of Split.
func (k Key) Fold(data uint64) Key {
	h := splitmix(k.hi ^ splitmix(data+golden))
	l := splitmix(k.lo ^ splitmix(h^data))
	return Key{hi: h, lo: l}
}

// Split returns n independent child keys of k.  The i-th child depends only on
// k and i, so Split(k, n)[i] == Split(k, m)[i] for all i < min(n, m).
func (k Key) Split(n int) []Key {
	if n < 0 {
		panic(fmt.Sprintf("rng: negative split count %v", n))
	}
	keys := make([]Key, n)
	for i := range keys {
		keys[i] = k.Fold(uint64(i))
	}
	return keys
}

// Split2 is shorthand for splitting k into two keys.
func (k Key) Split2() (Key, Key) {
	return k.Fold(0), k.Fold(1)
}

// Source returns a new PCG source seeded from k.  Two sources created from
// equal keys produce identical streams.
func (k Key) Source() rand.Source {
	return rand.NewSource(splitmix(k.hi) ^ k.lo)
}

// Rand returns a new generator seeded from k.
func (k Key) Rand() *rand.Rand {
	return rand.New(k.Source())
}

// Uniform returns n uniform variates in [0, 1) drawn from k.
func (k Key) Uniform(n int) []float64 {
	r := k.Rand()
	v := make([]float64, n)
	for i := range v {
		v[i] = r.Float64()
	}
	return v
}

func (k Key) String() string { return fmt.Sprintf("Key(%016x%016x)", k.hi, k.lo) }
