package cuckoo

import (
	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/hashmix"
)

const plusEntriesPerBucket = 2

// CuckooPlus8 packs 2 entries per bucket instead of 4, each carrying a
// 6-bit fingerprint plus a "shifted" bit (set when the entry reached its
// bucket through an eviction rather than a direct insert) and a "second"
// bit (set when the entry's natural home is its key's alternate bucket
// rather than its primary one). The two flag bits are metadata alongside
// the fingerprint; they do not change how insertion, lookup or removal
// address buckets, nor when a bucket counts as full — the spec this
// variant follows flags its exact packing as an open
// question, so this implementation keeps the flags purely informational
// and relies on the same two-bucket membership test as Cuckoo8.
type CuckooPlus8 struct{ t *table }

// CuckooPlus16 is CuckooPlus8 at a 14-bit fingerprint width.
type CuckooPlus16 struct{ t *table }

const (
	plusFlagSecond  = 1 // bit set when the entry is homed in its second bucket
	plusFlagShifted = 2 // bit set when the entry arrived via eviction

	// plusLoadFactor targets a lower occupancy than the 4-entry Cuckoo
	// variants: 2 entries per bucket and a narrower fingerprint both make
	// the eviction loop more likely to stall near full load.
	plusLoadFactor = 0.80
)

// NewCuckooPlus8 allocates an empty CuckooPlus8 sized for capacity keys.
func NewCuckooPlus8(capacity uint64) *CuckooPlus8 {
	return &CuckooPlus8{t: newTableWithLoadFactor(capacity, plusEntriesPerBucket, 6, hashmix.RandomSeed(), plusLoadFactor)}
}

// NewCuckooPlus16 allocates an empty CuckooPlus16 sized for capacity keys.
func NewCuckooPlus16(capacity uint64) *CuckooPlus16 {
	return &CuckooPlus16{t: newTableWithLoadFactor(capacity, plusEntriesPerBucket, 14, hashmix.RandomSeed(), plusLoadFactor)}
}

// BuildCuckooPlus8 constructs a CuckooPlus8 from a full key set, retrying
// with a fresh seed on eviction exhaustion exactly as BuildCuckoo8 does.
func BuildCuckooPlus8(keys []uint64) (*CuckooPlus8, error) {
	f := NewCuckooPlus8(uint64(len(keys)))
	for _, k := range keys {
		if err := f.addRetrying(k, keys); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// BuildCuckooPlus16 is BuildCuckooPlus8 at 14-bit fingerprint width.
func BuildCuckooPlus16(keys []uint64) (*CuckooPlus16, error) {
	f := NewCuckooPlus16(uint64(len(keys)))
	for _, k := range keys {
		if err := f.addRetrying(k, keys); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (f *CuckooPlus8) addRetrying(k uint64, keys []uint64) error {
	if err := f.Add(k); err == nil {
		return nil
	}
	for attempt := 0; attempt < buildRetries; attempt++ {
		f.t = newTableWithLoadFactor(uint64(len(keys)), plusEntriesPerBucket, 6, hashmix.RandomSeed(), plusLoadFactor)
		ok := true
		for _, kk := range keys {
			if err := f.Add(kk); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return nil
		}
	}
	return sieve.ErrTableFull
}

func (f *CuckooPlus16) addRetrying(k uint64, keys []uint64) error {
	if err := f.Add(k); err == nil {
		return nil
	}
	for attempt := 0; attempt < buildRetries; attempt++ {
		f.t = newTableWithLoadFactor(uint64(len(keys)), plusEntriesPerBucket, 14, hashmix.RandomSeed(), plusLoadFactor)
		ok := true
		for _, kk := range keys {
			if err := f.Add(kk); err != nil {
				ok = false
				break
			}
		}
		if ok {
			return nil
		}
	}
	return sieve.ErrTableFull
}

// Add inserts key, setting its shifted/second flags according to how the
// insertion landed.
func (f *CuckooPlus8) Add(key uint64) error {
	landed, second, shifted, err := f.t.addReport(key)
	if err != nil {
		return err
	}
	f.setFlags(landed, key, second, shifted)
	return nil
}

func (f *CuckooPlus16) Add(key uint64) error {
	landed, second, shifted, err := f.t.addReport(key)
	if err != nil {
		return err
	}
	f.setFlags(landed, key, second, shifted)
	return nil
}

func (f *CuckooPlus8) setFlags(landed uint32, key uint64, second, shifted bool) {
	fp := f.t.fingerprint(key)
	var flags uint32
	if second {
		flags |= plusFlagSecond
	}
	if shifted {
		flags |= plusFlagShifted
	}
	if flags != 0 {
		f.t.setFlags(landed, fp, flags<<f.t.fpBits)
	}
}

func (f *CuckooPlus16) setFlags(landed uint32, key uint64, second, shifted bool) {
	fp := f.t.fingerprint(key)
	var flags uint32
	if second {
		flags |= plusFlagSecond
	}
	if shifted {
		flags |= plusFlagShifted
	}
	if flags != 0 {
		f.t.setFlags(landed, fp, flags<<f.t.fpBits)
	}
}

// TryAdd is Add without the error, for callers that treat table-full as a
// stop signal rather than something to handle.
func (f *CuckooPlus8) TryAdd(key uint64) bool { return f.Add(key) == nil }

func (f *CuckooPlus8) Remove(key uint64) error    { return f.t.remove(key) }
func (f *CuckooPlus8) MayContain(key uint64) bool { return f.t.mayContain(key) }
func (f *CuckooPlus8) BitCount() uint64           { return f.t.bitCount() + uint64(len(f.t.buckets))*uint64(plusEntriesPerBucket)*2 }
func (f *CuckooPlus8) Cardinality() int64         { return f.t.cardinality() }

// TryAdd is Add without the error.
func (f *CuckooPlus16) TryAdd(key uint64) bool { return f.Add(key) == nil }

func (f *CuckooPlus16) Remove(key uint64) error    { return f.t.remove(key) }
func (f *CuckooPlus16) MayContain(key uint64) bool { return f.t.mayContain(key) }
func (f *CuckooPlus16) BitCount() uint64 {
	return f.t.bitCount() + uint64(len(f.t.buckets))*uint64(plusEntriesPerBucket)*2
}
func (f *CuckooPlus16) Cardinality() int64 { return f.t.cardinality() }

var (
	_ sieve.Removable   = (*CuckooPlus8)(nil)
	_ sieve.Cardinality = (*CuckooPlus8)(nil)
	_ sieve.Removable   = (*CuckooPlus16)(nil)
	_ sieve.Cardinality = (*CuckooPlus16)(nil)
)
