package mphf

import (
	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/bitbuf"
	"github.com/tidesign/sieve/hashmix"
)

const (
	defaultLeafSize   = 8
	defaultBucketSize = 100

	maxSplitTries = 20000
	maxLeafTries  = 20000

	splitShift uint = 6
	leafShift  uint = 4

	maxFingerprintBits = 16
)

// MPHF is an immutable minimal-perfect-hash filter.
type MPHF struct {
	seed            uint64
	leafSize        int
	fingerprintBits uint
	fpMask          uint64

	numBuckets      uint32
	bucketSlotBase  []uint64 // cumulative slot offset per bucket, length numBuckets+1
	bucketBitOffset []uint64 // bit offset where bucket b's tree starts in index, length numBuckets+1

	index *bitbuf.Buffer
	fp    []uint16
}

// Build constructs an MPHF over a duplicate-free key set using the default
// leaf size and average bucket size.
func Build(keys []uint64, fingerprintBits uint) (*MPHF, error) {
	return BuildWithParams(keys, fingerprintBits, defaultLeafSize, defaultBucketSize)
}

// BuildWithParams is Build with explicit leaf size and average bucket size.
func BuildWithParams(keys []uint64, fingerprintBits uint, leafSize, avgBucketSize int) (*MPHF, error) {
	if fingerprintBits < 1 || fingerprintBits > maxFingerprintBits {
		return nil, sieve.ErrInvalidArgument
	}
	if leafSize < 1 || avgBucketSize < leafSize {
		return nil, sieve.ErrInvalidArgument
	}

	seen := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		if seen[k] {
			return nil, sieve.ErrDuplicateKey
		}
		seen[k] = true
	}

	n := len(keys)
	numBuckets := uint32((n + avgBucketSize - 1) / avgBucketSize)
	if numBuckets < 1 {
		numBuckets = 1
	}
	seed := hashmix.RandomSeed()

	groups := make([][]uint64, numBuckets)
	for _, k := range keys {
		h := hashmix.Hash64(k, seed)
		b := hashmix.Reduce32(uint32(h>>32), numBuckets)
		groups[b] = append(groups[b], k)
	}

	bucketSlotBase := make([]uint64, numBuckets+1)
	for b, g := range groups {
		bucketSlotBase[b+1] = bucketSlotBase[b] + uint64(len(g))
	}

	fpMask := uint64(1)<<fingerprintBits - 1
	fp := make([]uint16, n)
	index := bitbuf.New(uint64(n) * 8)
	bucketBitOffset := make([]uint64, numBuckets+1)

	for b, g := range groups {
		bucketBitOffset[b] = index.Position()
		if err := buildNode(g, seed, leafSize, index, fp, bucketSlotBase[b], fpMask); err != nil {
			return nil, err
		}
	}
	bucketBitOffset[numBuckets] = index.Position()

	return &MPHF{
		seed:            seed,
		leafSize:        leafSize,
		fingerprintBits: fingerprintBits,
		fpMask:          fpMask,
		numBuckets:      numBuckets,
		bucketSlotBase:  bucketSlotBase,
		bucketBitOffset: bucketBitOffset,
		index:           index,
		fp:              fp,
	}, nil
}

// combinedSeed mixes the filter-wide seed with a node's trial seed, so each
// trial evaluates the node's keys under a different hash while every key
// in the node is still evaluated under the one seed the node settled on.
func combinedSeed(seed uint64, trial uint32) uint64 {
	return seed ^ uint64(trial)
}

func buildNode(keys []uint64, seed uint64, leafSize int, idx *bitbuf.Buffer, fp []uint16, base uint64, fpMask uint64) error {
	size := len(keys)
	if size <= leafSize {
		s, ok := searchLeafSeed(keys, seed, size)
		if !ok {
			return sieve.ErrPeelFailure
		}
		idx.WriteGolombRice(leafShift, uint64(s))

		cs := combinedSeed(seed, s)
		for _, k := range keys {
			local := hashmix.Reduce32(uint32(hashmix.Hash64(k, cs)), uint32(size))
			fp[base+uint64(local)] = uint16(hashmix.Hash64(k, seed) & fpMask)
		}
		return nil
	}

	mid := (size + 1) / 2
	s, left, right, ok := searchSplitSeed(keys, seed, mid)
	if !ok {
		return sieve.ErrPeelFailure
	}
	idx.WriteGolombRice(splitShift, uint64(s))

	if err := buildNode(left, seed, leafSize, idx, fp, base, fpMask); err != nil {
		return err
	}
	return buildNode(right, seed, leafSize, idx, fp, base+uint64(mid), fpMask)
}

// searchLeafSeed tries trial seeds until one maps every key in keys to a
// distinct local slot in [0,size).
func searchLeafSeed(keys []uint64, seed uint64, size int) (uint32, bool) {
	seen := make([]bool, size)
	for s := uint32(0); s < maxLeafTries; s++ {
		for i := range seen {
			seen[i] = false
		}
		cs := combinedSeed(seed, s)
		ok := true
		for _, k := range keys {
			local := hashmix.Reduce32(uint32(hashmix.Hash64(k, cs)), uint32(size))
			if seen[local] {
				ok = false
				break
			}
			seen[local] = true
		}
		if ok {
			return s, true
		}
	}
	return 0, false
}

// searchSplitSeed tries trial seeds until one routes exactly mid of keys to
// the left branch (the rest to the right), returning the two sub-slices in
// original relative order.
func searchSplitSeed(keys []uint64, seed uint64, mid int) (uint32, []uint64, []uint64, bool) {
	for s := uint32(0); s < maxSplitTries; s++ {
		cs := combinedSeed(seed, s)
		count := 0
		for _, k := range keys {
			if isLeft(k, cs) {
				count++
			}
		}
		if count != mid {
			continue
		}
		left := make([]uint64, 0, mid)
		right := make([]uint64, 0, len(keys)-mid)
		for _, k := range keys {
			if isLeft(k, cs) {
				left = append(left, k)
			} else {
				right = append(right, k)
			}
		}
		return s, left, right, true
	}
	return 0, nil, nil, false
}

func isLeft(key uint64, cs uint64) bool {
	return hashmix.Reduce32(uint32(hashmix.Hash64(key, cs)), 2) == 0
}

// decodeAt decodes a single Golomb-Rice value at bit position pos without
// touching the shared buffer cursor, and returns the position just past it.
func (f *MPHF) decodeAt(pos uint64, shift uint) (value uint32, next uint64) {
	ones := f.index.ReadUntilZero(pos)
	p := pos + uint64(ones) + 1
	var rem uint64
	if shift > 0 {
		rem = f.index.ReadNumberAt(p, int(shift))
		p += uint64(shift)
	}
	return uint32(uint64(ones)<<shift | rem), p
}

// skipSubtree advances past the node encoding for a subtree over size keys
// that the query does not need, returning the position just after it. The
// recursion shape (how many split/leaf nodes, and in what order) depends
// only on size, so this mirrors buildNode's structure without needing the
// subtree's actual keys.
func (f *MPHF) skipSubtree(pos uint64, size int) uint64 {
	if size <= f.leafSize {
		_, next := f.decodeAt(pos, leafShift)
		return next
	}
	_, next := f.decodeAt(pos, splitShift)
	mid := (size + 1) / 2
	next = f.skipSubtree(next, mid)
	return f.skipSubtree(next, size-mid)
}

// slotFor locates key's unique slot within a bucket of the given size
// rooted at pos, returning base plus the key's local slot and whether it
// decoded cleanly.
func (f *MPHF) slotFor(key uint64, pos uint64, size int, base uint64) (uint64, bool) {
	if size <= f.leafSize {
		s, _ := f.decodeAt(pos, leafShift)
		cs := combinedSeed(f.seed, s)
		local := hashmix.Reduce32(uint32(hashmix.Hash64(key, cs)), uint32(size))
		return base + uint64(local), true
	}

	s, next := f.decodeAt(pos, splitShift)
	cs := combinedSeed(f.seed, s)
	mid := (size + 1) / 2

	if isLeft(key, cs) {
		return f.slotFor(key, next, mid, base)
	}
	afterLeft := f.skipSubtree(next, mid)
	return f.slotFor(key, afterLeft, size-mid, base+uint64(mid))
}

// MayContain reports whether key may have been among the filter's keys. A
// false positive can occur only via a fingerprint collision at the slot a
// non-member key's path happens to resolve to.
func (f *MPHF) MayContain(key uint64) bool {
	h := hashmix.Hash64(key, f.seed)
	b := hashmix.Reduce32(uint32(h>>32), f.numBuckets)

	size := int(f.bucketSlotBase[b+1] - f.bucketSlotBase[b])
	if size == 0 {
		return false
	}

	slot, ok := f.slotFor(key, f.bucketBitOffset[b], size, f.bucketSlotBase[b])
	if !ok {
		return false
	}
	return f.fp[slot] == uint16(h&f.fpMask)
}

// BitCount returns the filter's memory footprint in bits: the Golomb-Rice
// coded tree index plus the fixed-width fingerprint array.
func (f *MPHF) BitCount() uint64 {
	return f.index.Position() + uint64(len(f.fp))*uint64(f.fingerprintBits)
}

// Cardinality returns the number of keys the filter was built from, which
// is exactly the size of its slot range.
func (f *MPHF) Cardinality() int64 { return int64(len(f.fp)) }

var (
	_ sieve.Queryable   = (*MPHF)(nil)
	_ sieve.Cardinality = (*MPHF)(nil)
)
