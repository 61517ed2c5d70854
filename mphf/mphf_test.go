package mphf

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidesign/sieve"
	"github.com/tidesign/sieve/hashmix"
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

func TestMPHFNoFalseNegatives(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(2000, 1)
	f, err := Build(keys, 12)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}

func TestMPHFSlotsAreUnique(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(1500, 2)
	f, err := BuildWithParams(keys, 12, 4, 50)
	require.NoError(t, err)

	seen := make(map[uint64]bool, len(keys))
	for _, k := range keys {
		h := hashmix.Hash64(k, f.seed)
		b := hashmix.Reduce32(uint32(h>>32), f.numBuckets)
		size := int(f.bucketSlotBase[b+1] - f.bucketSlotBase[b])
		slot, ok := f.slotFor(k, f.bucketBitOffset[b], size, f.bucketSlotBase[b])
		require.True(t, ok)
		assert.False(t, seen[slot], "slot %d reused", slot)
		seen[slot] = true
		assert.Less(t, slot, uint64(len(keys)))
	}
}

func TestMPHFRejectsDuplicateKeys(t *testing.T) {
	t.Parallel()

	keys := []uint64{1, 2, 3, 2}
	_, err := Build(keys, 8)
	assert.ErrorIs(t, err, sieve.ErrDuplicateKey)
}

func TestMPHFRejectsInvalidFingerprintBits(t *testing.T) {
	t.Parallel()

	_, err := Build([]uint64{1, 2, 3}, 0)
	assert.Error(t, err)

	_, err = Build([]uint64{1, 2, 3}, 64)
	assert.Error(t, err)
}

func TestMPHFCardinality(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(500, 3)
	f, err := Build(keys, 10)
	require.NoError(t, err)
	assert.EqualValues(t, len(keys), f.Cardinality())
}

func TestMPHFBitCount(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(500, 4)
	f, err := Build(keys, 10)
	require.NoError(t, err)
	assert.Greater(t, f.BitCount(), uint64(0))
}

func TestMPHFSmallBuckets(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(300, 5)
	f, err := BuildWithParams(keys, 10, 2, 8)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}
