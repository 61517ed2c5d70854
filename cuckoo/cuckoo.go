package cuckoo

import (
	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/hashmix"
)

const entriesPerBucket = 4

// Cuckoo8 is a cuckoo filter with 8-bit fingerprints, 4 entries per bucket.
type Cuckoo8 struct{ t *table }

// Cuckoo16 is a cuckoo filter with 16-bit fingerprints, 4 entries per
// bucket, trading space for a lower false-positive rate than Cuckoo8.
type Cuckoo16 struct{ t *table }

// NewCuckoo8 allocates an empty 8-bit cuckoo filter sized for capacity
// keys. Use Add to insert keys one at a time; Add itself never retries on
// table-full, since an empty filter built for capacity keys only needs a
// fresh seed if the caller overloads it well beyond capacity.
func NewCuckoo8(capacity uint64) *Cuckoo8 {
	return &Cuckoo8{t: newTable(capacity, entriesPerBucket, 8, hashmix.RandomSeed())}
}

// NewCuckoo16 is NewCuckoo8 at 16-bit fingerprint width.
func NewCuckoo16(capacity uint64) *Cuckoo16 {
	return &Cuckoo16{t: newTable(capacity, entriesPerBucket, 16, hashmix.RandomSeed())}
}

// BuildCuckoo8 constructs an 8-bit cuckoo filter from a full key set,
// retrying with a fresh seed up to buildRetries times if the eviction loop
// bottoms out before every key is placed.
func BuildCuckoo8(keys []uint64) (*Cuckoo8, error) {
	t, err := build(keys, entriesPerBucket, 8)
	if err != nil {
		return nil, err
	}
	return &Cuckoo8{t: t}, nil
}

// BuildCuckoo16 is BuildCuckoo8 at 16-bit fingerprint width.
func BuildCuckoo16(keys []uint64) (*Cuckoo16, error) {
	t, err := build(keys, entriesPerBucket, 16)
	if err != nil {
		return nil, err
	}
	return &Cuckoo16{t: t}, nil
}

func (f *Cuckoo8) Add(key uint64) error       { return f.t.add(key) }
func (f *Cuckoo8) Remove(key uint64) error    { return f.t.remove(key) }
func (f *Cuckoo8) MayContain(key uint64) bool { return f.t.mayContain(key) }
func (f *Cuckoo8) BitCount() uint64           { return f.t.bitCount() }
func (f *Cuckoo8) Cardinality() int64         { return f.t.cardinality() }

// TryAdd is Add without the error: it reports whether key was inserted,
// for callers that treat table-full as "stop feeding this filter" rather
// than an error to handle.
func (f *Cuckoo8) TryAdd(key uint64) bool { return f.t.add(key) == nil }

func (f *Cuckoo16) Add(key uint64) error       { return f.t.add(key) }
func (f *Cuckoo16) Remove(key uint64) error    { return f.t.remove(key) }
func (f *Cuckoo16) MayContain(key uint64) bool { return f.t.mayContain(key) }
func (f *Cuckoo16) BitCount() uint64           { return f.t.bitCount() }
func (f *Cuckoo16) Cardinality() int64         { return f.t.cardinality() }

// TryAdd is Add without the error: it reports whether key was inserted.
func (f *Cuckoo16) TryAdd(key uint64) bool { return f.t.add(key) == nil }

var (
	_ sieve.Removable   = (*Cuckoo8)(nil)
	_ sieve.Cardinality = (*Cuckoo8)(nil)
	_ sieve.Removable   = (*Cuckoo16)(nil)
	_ sieve.Cardinality = (*Cuckoo16)(nil)
)
