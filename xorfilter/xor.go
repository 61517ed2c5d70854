package xorfilter

import (
	"math"

	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/hashmix"
)

// Xor8 is an immutable xor filter with 8-bit fingerprints: roughly 9.8
// bits per key at a false-positive rate just under 1/256.
type Xor8 struct {
	seed  uint64
	third uint32
	fp    []uint8
}

// Xor16 is an immutable xor filter with 16-bit fingerprints, trading space
// for a false-positive rate just under 1/65536.
type Xor16 struct {
	seed  uint64
	third uint32
	fp    []uint16
}

// arrayLength computes m = ceil((32 + 1.23n + 2) / 3) * 3, the total slot
// count for n keys, split into three equal segments of length m/3.
func arrayLength(n uint32) uint32 {
	third := uint32(math.Ceil((32 + 1.23*float64(n) + 2) / 3))
	if third < 1 {
		third = 1
	}
	return third * 3
}

// indices derives a key hash's three candidate slots: segment i starts at
// i*third, offset within it by a 21*i-bit rotation of the hash reduced
// into [0,third).
func indices(h uint64, third uint32) [3]uint32 {
	var idx [3]uint32
	for i := 0; i < 3; i++ {
		r := hashmix.Rotl64(h, uint(21*i))
		idx[i] = uint32(i)*third + hashmix.Reduce32(uint32(r), third)
	}
	return idx
}

// BuildXor8 constructs an 8-bit xor filter from a duplicate-free key set,
// retrying construction with a fresh seed (up to maxRetries times) if
// peeling fails to account for every key.
func BuildXor8(keys []uint64) (*Xor8, error) {
	values, seed, third, err := build(keys, func(h uint64) uint64 { return uint64(uint8(h)) })
	if err != nil {
		return nil, err
	}
	fp := make([]uint8, len(values))
	for i, v := range values {
		fp[i] = uint8(v)
	}
	return &Xor8{seed: seed, third: third, fp: fp}, nil
}

// BuildXor16 is BuildXor8 at 16-bit fingerprint width.
func BuildXor16(keys []uint64) (*Xor16, error) {
	values, seed, third, err := build(keys, func(h uint64) uint64 { return uint64(uint16(h)) })
	if err != nil {
		return nil, err
	}
	fp := make([]uint16, len(values))
	for i, v := range values {
		fp[i] = uint16(v)
	}
	return &Xor16{seed: seed, third: third, fp: fp}, nil
}

// build is the seed-retry loop shared by BuildXor8/BuildXor16: peel, and
// on success assign fingerprints with fp as the per-key fingerprint
// function applied to the seed-mixed hash.
func build(keys []uint64, fp func(hash uint64) uint64) (values []uint64, seed uint64, third uint32, err error) {
	n := uint32(len(keys))
	m := arrayLength(n)
	third = m / 3

	seed = hashmix.RandomSeed()
	for attempt := 0; attempt < maxRetries; attempt++ {
		hashes := make([]uint64, len(keys))
		for i, k := range keys {
			hashes[i] = hashmix.Hash64(k, seed)
		}
		indexer := func(h uint64) [3]uint32 { return indices(h, third) }
		order, which, ok := Peel(hashes, m, indexer)
		if ok {
			return AssignFingerprints(order, which, m, indexer, fp), seed, third, nil
		}
		seed = hashmix.RandomSeed()
	}
	return nil, 0, 0, sieve.ErrPeelFailure
}

// MayContain reports whether key may have been among the filter's keys.
func (f *Xor8) MayContain(key uint64) bool {
	h := hashmix.Hash64(key, f.seed)
	idx := indices(h, f.third)
	x := uint8(h) ^ f.fp[idx[0]] ^ f.fp[idx[1]] ^ f.fp[idx[2]]
	return x == 0
}

// BitCount returns the filter's memory footprint in bits.
func (f *Xor8) BitCount() uint64 { return uint64(len(f.fp)) * 8 }

func (f *Xor16) MayContain(key uint64) bool {
	h := hashmix.Hash64(key, f.seed)
	idx := indices(h, f.third)
	x := uint16(h) ^ f.fp[idx[0]] ^ f.fp[idx[1]] ^ f.fp[idx[2]]
	return x == 0
}

func (f *Xor16) BitCount() uint64 { return uint64(len(f.fp)) * 16 }

var (
	_ sieve.Queryable = (*Xor8)(nil)
	_ sieve.Queryable = (*Xor16)(nil)
)
