// Package hashmix holds the bit-mixing and range-reduction primitives shared
// by every filter variant in this module: a splitmix-style 64-bit finalizer,
// Lemire's fast-range reduction, and a replaceable process-wide seed source.
//
// Keys are represented exclusively as 64-bit hashes (see package keyhash for
// a ready-made one); hashmix turns such a hash, plus a per-filter seed, into
// the indices and fingerprints the filter layouts need.
package hashmix

import (
	"math/bits"
	"math/rand"
	"sync"
)

// Hash64 mixes a key k with a seed s using the avalanche finalizer of
// splitmix64 / MurmurHash3's fmix64. It is not cryptographically secure;
// it is chosen for speed and bit dispersion only.
func Hash64(k, s uint64) uint64 {
	x := k + s
	x = (x ^ (x >> 33)) * 0xff51afd7ed558ccd
	x = (x ^ (x >> 33)) * 0xc4ceb9fe1a85ec53
	x = x ^ (x >> 33)
	return x
}

// Reduce32 maps h, a 32-bit value, onto the range [0,n) without a modulo,
// using Lemire's fast alternative to the modulo reduction:
// https://lemire.me/blog/2016/06/27/a-fast-alternative-to-the-modulo-reduction/
func Reduce32(h uint32, n uint32) uint32 {
	return uint32((uint64(h) * uint64(n)) >> 32)
}

// Reduce64 is Reduce32 generalized to 64-bit values and ranges; package gcs
// uses it to map a hash onto its fingerprint space.
func Reduce64(h uint64, n uint64) uint64 {
	hi, _ := bits.Mul64(h, n)
	return hi
}

// UnsignedMulHigh returns the high 64 bits of the full 128-bit unsigned
// product of a and b.
func UnsignedMulHigh(a, b uint64) uint64 {
	hi, _ := bits.Mul64(a, b)
	return hi
}

// Rotl64 rotates x left by k bits, masking k into [0,64) first. Binary-fuse
// and xor-filter index derivation rotate a mixed hash by a multiple of 21
// bits per hop.
func Rotl64(x uint64, k uint) uint64 {
	return bits.RotateLeft64(x, int(k))
}

// seedSource is the process-wide random source used by RandomSeed. It is
// replaceable so tests can make seed selection (and therefore retry
// behavior in xor/cuckoo construction) deterministic.
var seedSource struct {
	sync.Mutex
	r *rand.Rand
}

func init() {
	seedSource.r = rand.New(rand.NewSource(1))
}

// SetSeedSource replaces the process-wide random source consulted by
// RandomSeed. The default source is seeded with the constant 1, so until
// SetSeedSource is called every run draws the same sequence of seeds.
func SetSeedSource(r *rand.Rand) {
	seedSource.Lock()
	seedSource.r = r
	seedSource.Unlock()
}

// RandomSeed returns a uniformly random 64-bit value from the process-wide
// source. Filter constructors call it once to seed their hash, and again
// for each retry after a construction failure.
func RandomSeed() uint64 {
	seedSource.Lock()
	defer seedSource.Unlock()
	hi := uint64(seedSource.r.Uint32())
	lo := uint64(seedSource.r.Uint32())
	return hi<<32 | lo
}
