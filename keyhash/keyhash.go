// Package keyhash gives callers a ready-made 64-bit hash for keys that
// aren't already hashes: every filter in this module takes a uint64, and
// client code that has raw bytes or strings instead needs something to turn
// them into one. It wraps xxhash, chosen for speed rather than collision
// resistance — this module makes no cryptographic claims.
package keyhash

import "github.com/cespare/xxhash/v2"

// HashBytes returns the 64-bit xxhash of b.
func HashBytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// HashString returns the 64-bit xxhash of s, without allocating a copy.
func HashString(s string) uint64 {
	return xxhash.Sum64String(s)
}

// A Hasher accumulates bytes and strings into a running xxhash state, for
// callers building a key out of several fields.
type Hasher struct {
	d *xxhash.Digest
}

// NewHasher returns a ready-to-use Hasher.
func NewHasher() *Hasher {
	return &Hasher{d: xxhash.New()}
}

// Write adds b to the hash state. It never returns an error.
func (h *Hasher) Write(b []byte) (int, error) {
	return h.d.Write(b)
}

// WriteString adds s to the hash state.
func (h *Hasher) WriteString(s string) (int, error) {
	return h.d.WriteString(s)
}

// Sum64 returns the current 64-bit hash value.
func (h *Hasher) Sum64() uint64 {
	return h.d.Sum64()
}

// Reset clears h so it can be reused.
func (h *Hasher) Reset() {
	h.d.Reset()
}
