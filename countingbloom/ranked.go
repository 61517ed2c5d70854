package countingbloom

import (
	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/rank9"
)

// Ranked layers a rank9 index over a Succinct filter's occupancy bitmap,
// giving O(1) queries for "how many slots below position i are occupied"
// across the whole filter rather than one group at a time. The occupancy
// bitmap itself remains mutable (Add/Remove flip bits in it), so the rank9
// index is rebuilt lazily on demand rather than maintained incrementally —
// rank9 is a static structure by design (see package rank9).
type Ranked struct {
	*Succinct
	rank      *rank9.Rank9
	rankDirty bool
}

// NewRanked constructs a Ranked counting Bloom filter sized for capacity
// keys at the given bits-per-key.
func NewRanked(capacity uint64, bitsPerKey float64) *Ranked {
	return &Ranked{
		Succinct:  NewSuccinct(capacity, bitsPerKey),
		rankDirty: true,
	}
}

// Add increments key's counters and marks the rank index stale.
func (f *Ranked) Add(key uint64) error {
	err := f.Succinct.Add(key)
	f.rankDirty = true
	return err
}

// Remove decrements key's counters and marks the rank index stale.
func (f *Ranked) Remove(key uint64) error {
	err := f.Succinct.Remove(key)
	f.rankDirty = true
	return err
}

func (f *Ranked) ensureRank() {
	if !f.rankDirty && f.rank != nil {
		return
	}
	f.rank = rank9.New(f.data, uint64(len(f.data))*64)
	f.rankDirty = false
}

// OccupiedBelow returns the number of occupied slots with index strictly
// less than slot, across the whole filter, in O(1) amortized (the rank9
// index is rebuilt the first time this is called after a mutation).
func (f *Ranked) OccupiedBelow(slot uint64) uint64 {
	f.ensureRank()
	return f.rank.Rank(slot)
}

// Cardinality returns the total number of occupied slots in the filter.
func (f *Ranked) Cardinality() int64 {
	f.ensureRank()
	return int64(f.rank.Rank(uint64(f.nslots)))
}

var (
	_ sieve.Removable   = (*Ranked)(nil)
	_ sieve.Cardinality = (*Ranked)(nil)
)
