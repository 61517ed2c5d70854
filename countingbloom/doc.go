// Package countingbloom implements counting Bloom filters: structures that
// support Add, Remove, and MayContain by replacing each of a plain Bloom
// filter's single bits with a small counter.
//
// Four variants are provided:
//
//   - Plain: one 4-bit counter per slot, k independent index derivations
//     exactly as in a plain Bloom filter (see package sieve).
//   - BlockedPlain: the same 4-bit counters, addressed through a blocked
//     layout (one hash picks a 64-slot block, the rest index within it),
//     trading a little false-positive rate for cache locality.
//   - Succinct: a bit-packed, rank/select-based counter representation
//     that keeps per-slot overhead near the information-theoretic minimum,
//     falling back to an explicit 8-bit-per-slot overflow record for
//     groups whose counters no longer fit inline.
//   - Ranked: a Succinct filter with a rank9 index over its occupancy
//     bitmap, for O(1) global occupied-slot-count queries.
//
// All four share the fundamental counting-Bloom invariant: mayContain(k)
// is true whenever every one of k's derived counters is non-zero, and a
// balanced sequence of Add/Remove that never overflows a counter returns
// every counter (and therefore Cardinality) to zero.
package countingbloom
