package gcs

import (
	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/bitbuf"
	"github.com/tidesign/sieve/hashmix"
	"github.com/tidesign/sieve/radix"
)

// targetBucketSize is the average number of keys per bucket the filter is
// sized for: n keys split into ceil(n/targetBucketSize) buckets.
const targetBucketSize = 64

// GCS is an immutable Golomb-compressed set.
type GCS struct {
	seed            uint64
	fingerprintBits uint
	shift           uint
	numBuckets      uint32
	n               int

	data    *bitbuf.Buffer
	offsets []uint64 // decoded bucket-start bit offsets, length numBuckets+1

	// indexBits is the bit length the per-bucket offsets would occupy if
	// Elias-delta coded, accounted for in BitCount even though this
	// implementation keeps a decoded copy in offsets for O(1) query access.
	indexBits uint64
}

// Build constructs a GCS over keys using fingerprintBits bits per
// fingerprint (the Golomb-Rice shift is fingerprintBits-1). Larger
// fingerprintBits lowers the false-positive rate at the cost of more bits
// per key. fingerprintBits must be at least 1.
func Build(keys []uint64, fingerprintBits uint) (*GCS, error) {
	if fingerprintBits < 1 {
		return nil, sieve.ErrInvalidArgument
	}

	n := len(keys)
	numBuckets := uint32((n + targetBucketSize - 1) / targetBucketSize)
	if numBuckets < 1 {
		numBuckets = 1
	}
	seed := hashmix.RandomSeed()
	space := uint64(1) << fingerprintBits

	buckets := make([]uint32, n)
	fps := make([]uint64, n)
	counts := make([]int, numBuckets)
	for i, k := range keys {
		h := hashmix.Hash64(k, seed)
		b := hashmix.Reduce32(uint32(h>>32), numBuckets)
		buckets[i] = b
		fps[i] = hashmix.Reduce64(hashmix.Rotl64(h, 32), space)
		counts[b]++
	}

	starts := make([]int, numBuckets+1)
	for b := uint32(0); b < numBuckets; b++ {
		starts[b+1] = starts[b] + counts[b]
	}

	sorted := make([]uint64, n)
	cursor := make([]int, numBuckets)
	copy(cursor, starts[:numBuckets])
	for i, b := range buckets {
		sorted[cursor[b]] = fps[i]
		cursor[b]++
	}
	for b := uint32(0); b < numBuckets; b++ {
		radix.SortUnsigned(sorted, starts[b], counts[b])
	}

	shift := fingerprintBits - 1
	data := bitbuf.New(uint64(n) * uint64(fingerprintBits))
	offsets := make([]uint64, numBuckets+1)
	indexData := bitbuf.New(uint64(numBuckets) * 8)

	// Deltas are offsets[b]-prevOffset+1, always >= 1, so WriteEliasDelta
	// never returns its ErrInvalidArgument here.
	prevOffset := uint64(0)
	for b := uint32(0); b < numBuckets; b++ {
		offsets[b] = data.Position()
		_ = indexData.WriteEliasDelta(offsets[b] - prevOffset + 1)
		prevOffset = offsets[b]

		var running uint64
		for i := starts[b]; i < starts[b+1]; i++ {
			diff := sorted[i] - running
			running = sorted[i]
			data.WriteGolombRice(shift, diff)
		}
	}
	offsets[numBuckets] = data.Position()
	_ = indexData.WriteEliasDelta(offsets[numBuckets] - prevOffset + 1)

	return &GCS{
		seed:            seed,
		fingerprintBits: fingerprintBits,
		shift:           shift,
		numBuckets:      numBuckets,
		n:               n,
		data:            data,
		offsets:         offsets,
		indexBits:       indexData.Position(),
	}, nil
}

// decodeAt decodes a single Golomb-Rice value starting at bit position pos
// without touching the shared buffer cursor, so concurrent MayContain
// calls never race on it.
func (g *GCS) decodeAt(pos uint64, shift uint) (value uint64, next uint64) {
	ones := g.data.ReadUntilZero(pos)
	p := pos + uint64(ones) + 1
	var rem uint64
	if shift > 0 {
		rem = g.data.ReadNumberAt(p, int(shift))
		p += uint64(shift)
	}
	return uint64(ones)<<shift | rem, p
}

// MayContain reports whether key may have been among the filter's keys.
func (g *GCS) MayContain(key uint64) bool {
	h := hashmix.Hash64(key, g.seed)
	b := hashmix.Reduce32(uint32(h>>32), g.numBuckets)
	fp := hashmix.Reduce64(hashmix.Rotl64(h, 32), uint64(1)<<g.fingerprintBits)

	pos := g.offsets[b]
	end := g.offsets[b+1]
	var running uint64
	for pos < end {
		diff, next := g.decodeAt(pos, g.shift)
		running += diff
		if running == fp {
			return true
		}
		if running > fp {
			return false
		}
		pos = next
	}
	return false
}

// BitCount returns the filter's memory footprint in bits: the Golomb-Rice
// coded payload plus the Elias-delta-coded monotone bucket index.
func (g *GCS) BitCount() uint64 {
	return g.data.Position() + g.indexBits
}

// Cardinality returns the number of keys the filter was built from.
func (g *GCS) Cardinality() int64 { return int64(g.n) }

var (
	_ sieve.Queryable   = (*GCS)(nil)
	_ sieve.Cardinality = (*GCS)(nil)
)
