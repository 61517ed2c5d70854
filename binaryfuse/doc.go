// Package binaryfuse implements the binary-fuse filter, a refinement of
// the xor filter (package xorfilter) that raises the peelable load from
// roughly 1.23n to roughly 1.13n slots per n keys by drawing a key's three
// slots from three overlapping segments instead of three disjoint thirds
// of the whole array.
//
// BinaryFuse8 and BinaryFuse16 share construction and query logic with
// xorfilter (the same peel-then-reverse-assign algorithm, via
// xorfilter.Peel/AssignFingerprints) and differ only in how the three
// slot indices are derived from a hash. BinaryFuse16 additionally defines
// a fixed binary wire format for persisting a built filter.
package binaryfuse
