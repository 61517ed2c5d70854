// Package mphf implements an experimental minimal-perfect-hash filter: keys
// are bucketed, then each bucket's key set is recursively bisected (in the
// manner of RecSplit) until groups are small enough to be leaves, at which
// point a brute-force seed search finds a bijection onto the leaf's local
// slot range. Every internal decision (a split's seed, a leaf's seed) is
// Golomb-Rice coded into one shared bit buffer, each bucket's tree starting
// at a recorded bit offset.
//
// Every key therefore maps to a unique slot in [0,n), at which a small
// fingerprint is stored for a final membership check. Unlike this module's
// other filters, mphf requires its input key set to be duplicate-free and
// does not support incremental Add.
package mphf
