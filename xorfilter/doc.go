// Package xorfilter implements the xor filter: an immutable, perfectly
// peelable hash table where every inserted key's fingerprint is recoverable
// as the XOR of three slots chosen at construction time.
//
// Xor8 and Xor16 differ only in fingerprint width. XorPlus8 takes a built
// Xor8 and keeps only its non-zero fingerprints, located through a rank9
// bitmap, trading a little query cost for a few percent less space.
//
// Construction peels keys into an assignment order by repeatedly finding
// slots touched by exactly one remaining key ("alone" slots); if peeling
// cannot account for every key the whole table is rebuilt with a fresh
// seed, up to a bounded number of retries.
package xorfilter
