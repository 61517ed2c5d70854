package sieve

// Queryable is the read-only capability every filter variant supports.
type Queryable interface {
	// MayContain reports whether a key with hash h may have been added.
	// It never returns false for a key that was added and not removed.
	MayContain(h uint64) bool

	// BitCount returns the total memory footprint of the filter, in bits.
	BitCount() uint64
}

// Mutable is a Queryable that also supports insertion after construction.
type Mutable interface {
	Queryable
	Add(h uint64) error
}

// Removable is a Mutable that also supports deletion.
type Removable interface {
	Mutable
	Remove(h uint64) error
}

// Cardinality is implemented by variants that can report a cardinality
// estimate or exact count. Filters that cannot support it return -1.
type Cardinality interface {
	Cardinality() int64
}
