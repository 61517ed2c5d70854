package sieve

import "errors"

// Sentinel errors shared by every filter variant in this module. Construction
// and mutation failures return these values directly, without added
// context, so callers can match with errors.Is or ==.
var (
	// ErrCounterOverflow is returned when a counting Bloom filter's counter
	// would exceed its maximum value on Add.
	ErrCounterOverflow = errors.New("sieve: counter overflow")

	// ErrTableFull is returned when a cuckoo filter's eviction loop is
	// exhausted without finding room for a fingerprint. Constructors retry
	// with a fresh seed internally; this is only surfaced once retries are
	// exhausted or the caller is inserting into an already-built filter.
	ErrTableFull = errors.New("sieve: cuckoo table full")

	// ErrPeelFailure is returned when xor/binary-fuse peeling, or an mphf
	// split/leaf seed search, could not complete after exhausting the
	// internal retry budget.
	ErrPeelFailure = errors.New("sieve: peeling failed")

	// ErrDuplicateKey is returned by mphf construction when its key set
	// contains a duplicate. Xor and binary-fuse construction do not check
	// for duplicates.
	ErrDuplicateKey = errors.New("sieve: duplicate key")

	// ErrInvalidArgument is returned for out-of-range parameters: a
	// non-positive Elias-delta value, a gcs or mphf fingerprint width or
	// mphf leaf/bucket size out of range, and an unknown version byte in a
	// serialized BinaryFuse16.
	ErrInvalidArgument = errors.New("sieve: invalid argument")

	// ErrBufferTooSmall is returned by Deserialize when the supplied byte
	// buffer is shorter than the serialized format requires.
	ErrBufferTooSmall = errors.New("sieve: buffer too small")

	// ErrUnsupportedOperation is not returned by any function in this
	// module: the immutable filter variants have no mutating methods.
	ErrUnsupportedOperation = errors.New("sieve: unsupported operation")
)
