// Package sieve implements a family of approximate set-membership filters:
// plain and blocked Bloom filters, counting and succinct-counting Bloom
// filters, cuckoo filters, xor and binary-fuse filters, a Golomb-compressed
// set, and a minimal-perfect-hash filter.
//
// Every variant answers "is key K probably in set S?" with zero false
// negatives and a bounded, configurable false positive rate. Keys are
// represented exclusively as 64-bit hashes; client code supplies the hash
// (see package keyhash for a ready-made xxhash-backed one, or use any hash
// of your own).
//
// This package holds the plain and blocked Bloom filter (the teacher's
// original scope). The other variants live in their own packages:
// countingbloom, cuckoo, xorfilter, binaryfuse, gcs, mphf. hashmix and
// bitbuf hold the shared bit-level primitives; radix and rank9 hold the
// supporting sort and rank structures.
package sieve
