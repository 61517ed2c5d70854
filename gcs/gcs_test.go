package gcs

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func distinctKeys(n int, seed int64) []uint64 {
	r := rand.New(rand.NewSource(seed))
	keys := make(map[uint64]bool, n)
	for len(keys) < n {
		keys[r.Uint64()] = true
	}
	out := make([]uint64, 0, n)
	for k := range keys {
		out = append(out, k)
	}
	return out
}

func TestGCSNoFalseNegatives(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(5000, 1)
	f, err := Build(keys, 20)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}

func TestGCSSmallSet(t *testing.T) {
	t.Parallel()

	keys := []uint64{1, 2, 3}
	f, err := Build(keys, 16)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}

func TestGCSRejectsNonPositiveFingerprintBits(t *testing.T) {
	t.Parallel()

	_, err := Build([]uint64{1, 2, 3}, 0)
	assert.Error(t, err)
}

func TestGCSFalsePositiveRateRoughlyMatchesFingerprintWidth(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(5000, 2)
	f, err := Build(keys, 16)
	require.NoError(t, err)

	present := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		present[k] = true
	}

	r := rand.New(rand.NewSource(99))
	fp := 0
	const trials = 50000
	for i := 0; i < trials; i++ {
		k := r.Uint64()
		if present[k] {
			continue
		}
		if f.MayContain(k) {
			fp++
		}
	}
	rate := float64(fp) / trials
	// ~64 keys per bucket in a 16-bit fingerprint space gives about
	// 64/65536 (~0.001) false positives; allow generous headroom since the
	// target is structural, not exact.
	assert.Less(t, rate, 0.01)
}

func TestGCSCardinality(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(1000, 3)
	f, err := Build(keys, 12)
	require.NoError(t, err)
	assert.EqualValues(t, len(keys), f.Cardinality())
}

func TestGCSBitCount(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(1000, 4)
	f, err := Build(keys, 12)
	require.NoError(t, err)
	assert.Greater(t, f.BitCount(), uint64(0))
}

func TestGCSConcurrentQueries(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(2000, 5)
	f, err := Build(keys, 18)
	require.NoError(t, err)

	done := make(chan bool, len(keys))
	for _, k := range keys {
		k := k
		go func() {
			done <- f.MayContain(k)
		}()
	}
	for range keys {
		assert.True(t, <-done)
	}
}
