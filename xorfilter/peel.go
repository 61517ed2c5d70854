package xorfilter

import "github.com/tidesign/sieve/radix"

// maxRetries bounds how many fresh seeds a construction attempt will try
// before giving up — the reference implementation this module follows
// caps retries at 10.
const maxRetries = 10

// Peel runs one attempt of the xor-filter peeling construction over a set
// of already seed-mixed key hashes, given an indexer that derives three
// slot indices from a hash. It returns the keys' hashes in peel order
// (order[0] is the first slot "orphaned" down to a single occupant, i.e.
// the most peripheral key) together with which of the three indices
// (0, 1, or 2) each hash was ultimately assigned to, and whether every
// hash was peeled.
//
// A copy of hashes is sorted (by value, via this module's own radix sort)
// before accumulation. The per-slot counts and XOR masks, and therefore
// whether peeling succeeds, are the same for any order of the hashes.
func Peel(hashes []uint64, capacity uint32, indexer func(hash uint64) [3]uint32) (order []uint64, which []uint8, ok bool) {
	sorted := make([]uint64, len(hashes))
	copy(sorted, hashes)
	radix.Sort(sorted)

	count := make([]uint8, capacity)
	xormask := make([]uint64, capacity)
	for _, h := range sorted {
		idx := indexer(h)
		for _, i := range idx {
			count[i]++
			xormask[i] ^= h
		}
	}

	alone := make([]uint32, 0, capacity)
	for i := uint32(0); i < capacity; i++ {
		if count[i] == 1 {
			alone = append(alone, i)
		}
	}

	order = make([]uint64, 0, len(hashes))
	which = make([]uint8, 0, len(hashes))
	for len(alone) > 0 {
		s := alone[len(alone)-1]
		alone = alone[:len(alone)-1]
		if count[s] != 1 {
			continue
		}
		h := xormask[s]
		idx := indexer(h)

		var w uint8
		switch s {
		case idx[0]:
			w = 0
		case idx[1]:
			w = 1
		default:
			w = 2
		}
		order = append(order, h)
		which = append(which, w)

		for k, i := range idx {
			if uint8(k) == w {
				continue
			}
			count[i]--
			xormask[i] ^= h
			if count[i] == 1 {
				alone = append(alone, i)
			}
		}
	}

	return order, which, len(order) == len(hashes)
}

// AssignFingerprints walks a peel's order/which in reverse — from the last
// slot peeled (the most constrained, assigned first) back to the first
// (the most peripheral, assigned last using its now-known neighbors) —
// writing fp(h) XOR the other two slots' current values into each key's
// chosen slot. fp computes a key's stored fingerprint from its hash. The
// returned slice has length capacity; unused slots stay zero.
func AssignFingerprints(order []uint64, which []uint8, capacity uint32, indexer func(hash uint64) [3]uint32, fp func(hash uint64) uint64) []uint64 {
	values := make([]uint64, capacity)
	for i := len(order) - 1; i >= 0; i-- {
		h := order[i]
		w := which[i]
		idx := indexer(h)
		x := fp(h)
		for k, ix := range idx {
			if uint8(k) == w {
				continue
			}
			x ^= values[ix]
		}
		values[idx[w]] = x
	}
	return values
}
