// Package cuckoo implements cuckoo filters: flat bucket tables of small
// fingerprints with two candidate buckets per key, supporting eviction-based
// insertion and true deletion (unlike a Bloom filter).
//
// Cuckoo8 and Cuckoo16 use 4 entries per bucket at 8- and 16-bit fingerprint
// widths respectively. CuckooPlus8 and CuckooPlus16 pack 2 entries per
// bucket with a narrower fingerprint plus two flag bits, trading a little
// false-positive rate for a higher achievable load factor.
//
// Every key's fingerprint lives in one of exactly two buckets, b1 and b2,
// related by an involution: computing the alternate bucket of b2 yields b1
// back. Insertion that finds both candidate buckets full evicts a random
// occupant to its own alternate bucket, repeating up to a bounded number of
// times before giving up.
package cuckoo
