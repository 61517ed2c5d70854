package cuckoo

import (
	"math/bits"
	"math/rand"

	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/hashmix"
)

const (
	// maxKicks bounds the eviction loop run by add before the table is
	// declared full. The constructors that build from a full key list
	// retry with a fresh seed when this bound is hit.
	maxKicks = 1000

	// loadFactor is the target occupancy used to size the bucket array;
	// past this point evictions become likely enough that insertion
	// slows down sharply.
	loadFactor = 0.95
)

// table is the shared bucket-array core for both the 4-entry Cuckoo
// variants and the 2-entry CuckooPlus variants. entriesPerBucket and
// fpBits are fixed at construction time.
type table struct {
	buckets          [][]uint32
	entriesPerBucket int
	fpBits           uint
	fpMask           uint32
	seed             uint64
	rng              *rand.Rand
	count            int
}

func nextPow2(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << (64 - bits.LeadingZeros64(n-1))
}

// newTable allocates a bucket array sized for capacity keys at the given
// entries-per-bucket and fingerprint width, using loadFactor as the target
// occupancy. The bucket count is always a power of two, hence even, which
// the alternate-bucket involution in altBucket relies on.
func newTable(capacity uint64, entriesPerBucket int, fpBits uint, seed uint64) *table {
	return newTableWithLoadFactor(capacity, entriesPerBucket, fpBits, seed, loadFactor)
}

// newTableWithLoadFactor is newTable with an explicit target occupancy.
// CuckooPlus sizes its 2-entry buckets more conservatively than the
// 4-entry variants, since fewer entries per bucket and a narrower
// fingerprint both raise the odds of a stuck eviction at high load.
func newTableWithLoadFactor(capacity uint64, entriesPerBucket int, fpBits uint, seed uint64, targetLoad float64) *table {
	want := uint64(1)
	if capacity > 0 {
		want = uint64(float64(capacity) / (float64(entriesPerBucket) * targetLoad))
		if want == 0 {
			want = 1
		}
	}
	b := nextPow2(want)
	if b < 2 {
		b = 2
	}
	buckets := make([][]uint32, b)
	for i := range buckets {
		buckets[i] = make([]uint32, entriesPerBucket)
	}
	return &table{
		buckets:          buckets,
		entriesPerBucket: entriesPerBucket,
		fpBits:           fpBits,
		fpMask:           uint32(1)<<fpBits - 1,
		seed:             seed,
		rng:              rand.New(rand.NewSource(int64(seed))),
	}
}

func (t *table) bucketCount() uint32 { return uint32(len(t.buckets)) }

// fingerprint derives key's fingerprint: the fpMask low bits of the high
// half of hash64(key, seed), remapped to 1 if they happen to land on the
// reserved "empty" value 0.
func (t *table) fingerprint(key uint64) uint32 {
	h := hashmix.Hash64(key, t.seed)
	fp := uint32(h>>32) & t.fpMask
	if fp == 0 {
		fp = 1
	}
	return fp
}

func (t *table) primaryBucket(key uint64) uint32 {
	h := hashmix.Hash64(key, t.seed)
	return hashmix.Reduce32(uint32(h), t.bucketCount())
}

// altBucket computes the alternate bucket for a fingerprint found in bucket
// b. It is its own inverse: altBucket(altBucket(b, fp), fp) == b, because r
// is fixed by fp alone and every step is linear mod bucketCount().
func (t *table) altBucket(b uint32, fp uint32) uint32 {
	B := int64(t.bucketCount())
	rm := hashmix.Hash64(uint64(fp), t.seed)
	r := int64(2*hashmix.Reduce32(uint32(rm), uint32(B/2)) + 1)
	v := (B - int64(b) - r) % B
	if v < 0 {
		v += B
	}
	return uint32(v)
}

func (t *table) bucketEmptySlot(idx uint32) (int, bool) {
	b := t.buckets[idx]
	for i, v := range b {
		if v == 0 {
			return i, true
		}
	}
	return 0, false
}

func (t *table) bucketContains(idx uint32, fp uint32) bool {
	for _, v := range t.buckets[idx] {
		if v&t.fpMask == fp {
			return true
		}
	}
	return false
}

func (t *table) bucketRemove(idx uint32, fp uint32) bool {
	b := t.buckets[idx]
	for i, v := range b {
		if v&t.fpMask == fp {
			b[i] = 0
			return true
		}
	}
	return false
}

// add inserts key's fingerprint into one of its two candidate buckets,
// evicting a random occupant to its own alternate bucket when both
// candidates are full. It returns sieve.ErrTableFull once maxKicks
// evictions fail to settle the displaced fingerprint.
func (t *table) add(key uint64) error {
	_, _, _, err := t.addReport(key)
	return err
}

// addReport is add, additionally reporting which bucket the key's own
// fingerprint landed in (landed), whether that was the key's second
// candidate bucket rather than its first (second), and whether placing it
// required evicting an occupant (shifted). CuckooPlus uses this to set its
// two per-entry flag bits; the plain Cuckoo variants ignore the report.
//
// The key's own fingerprint is placed in landed by the first kick of the
// eviction loop below; a later kick that revisits landed can move it on
// again, and the report still names landed. If the loop runs out of kicks,
// every kick is undone, so the table holds exactly what it held before
// the call.
func (t *table) addReport(key uint64) (landed uint32, second, shifted bool, err error) {
	fp := t.fingerprint(key)
	b1 := t.primaryBucket(key)
	b2 := t.altBucket(b1, fp)

	if t.bucketContains(b1, fp) {
		return b1, false, false, nil
	}
	if t.bucketContains(b2, fp) {
		return b2, true, false, nil
	}
	if slot, ok := t.bucketEmptySlot(b1); ok {
		t.buckets[b1][slot] = fp
		t.count++
		return b1, false, false, nil
	}
	if slot, ok := t.bucketEmptySlot(b2); ok {
		t.buckets[b2][slot] = fp
		t.count++
		return b2, true, false, nil
	}

	idx := b1
	isSecond := false
	if t.rng.Intn(2) == 1 {
		idx = b2
		isSecond = true
	}
	landed = idx
	type kick struct {
		idx  uint32
		slot int
		old  uint32
	}
	path := make([]kick, 0, maxKicks)
	for i := 0; i < maxKicks; i++ {
		slot := t.rng.Intn(t.entriesPerBucket)
		path = append(path, kick{idx, slot, t.buckets[idx][slot]})
		fp, t.buckets[idx][slot] = t.buckets[idx][slot]&t.fpMask, fp
		idx = t.altBucket(idx, fp)
		if s, ok := t.bucketEmptySlot(idx); ok {
			t.buckets[idx][s] = fp
			t.count++
			return landed, isSecond, true, nil
		}
	}
	for i := len(path) - 1; i >= 0; i-- {
		t.buckets[path[i].idx][path[i].slot] = path[i].old
	}
	return 0, false, false, sieve.ErrTableFull
}

func (t *table) mayContain(key uint64) bool {
	fp := t.fingerprint(key)
	b1 := t.primaryBucket(key)
	if t.bucketContains(b1, fp) {
		return true
	}
	return t.bucketContains(t.altBucket(b1, fp), fp)
}

// remove clears the first matching fingerprint in either of key's two
// candidate buckets. Removing a key that was never inserted (or whose
// fingerprint collided with another key's) is a no-op: the filter cannot
// tell the two cases apart, which is inherent to any approximate
// membership structure.
func (t *table) remove(key uint64) error {
	fp := t.fingerprint(key)
	b1 := t.primaryBucket(key)
	if t.bucketRemove(b1, fp) {
		t.count--
		return nil
	}
	if t.bucketRemove(t.altBucket(b1, fp), fp) {
		t.count--
		return nil
	}
	return nil
}

// setFlags ORs extra bits (beyond fpMask) into the stored entry matching fp
// in bucket idx. Used by CuckooPlus to record its shifted/second flags
// without table needing to know about them.
func (t *table) setFlags(idx uint32, fp uint32, flags uint32) {
	b := t.buckets[idx]
	for i, v := range b {
		if v&t.fpMask == fp {
			b[i] = fp | flags
			return
		}
	}
}

func (t *table) bitCount() uint64 {
	return uint64(len(t.buckets)) * uint64(t.entriesPerBucket) * uint64(t.fpBits)
}

func (t *table) cardinality() int64 { return int64(t.count) }

// buildRetries bounds how many fresh seeds a bulk constructor will try
// before giving up on a key set that keeps exhausting the eviction loop.
const buildRetries = 10

// build inserts every key into a freshly seeded table, retrying the whole
// table from scratch with a new seed up to buildRetries times if the
// eviction loop exhausts itself (spec.md's table-full retry contract).
func build(keys []uint64, entriesPerBucket int, fpBits uint) (*table, error) {
	var lastErr error
	for attempt := 0; attempt < buildRetries; attempt++ {
		t := newTable(uint64(len(keys)), entriesPerBucket, fpBits, hashmix.RandomSeed())
		ok := true
		for _, k := range keys {
			if err := t.add(k); err != nil {
				lastErr = err
				ok = false
				break
			}
		}
		if ok {
			return t, nil
		}
	}
	return nil, lastErr
}
