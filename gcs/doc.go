// Package gcs implements the Golomb-Compressed Set filter: keys are
// bucketed (about 64 per bucket), each bucket's fingerprints are sorted
// and stored as Golomb-Rice-coded successive differences, and a monotone
// index of per-bucket bit offsets lets a query jump straight to the
// relevant bucket instead of decoding from the start of the set.
//
// A GCS is immutable once built: there is no Add or Remove, only Build
// and MayContain.
package gcs
