package xorfilter

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

func TestXor8NoFalseNegatives(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(5000, 1)
	f, err := BuildXor8(keys)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}

func TestXor16NoFalseNegatives(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(5000, 2)
	f, err := BuildXor16(keys)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}

// TestXorFingerprintInvariant checks the construction invariant directly:
// for every inserted key, XOR of its three indexed fingerprints equals the
// key's own fingerprint.
func TestXorFingerprintInvariant(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(3000, 3)
	f, err := BuildXor8(keys)
	require.NoError(t, err)

	for _, k := range keys {
		h := hashmix.Hash64(k, f.seed)
		idx := indices(h, f.third)
		x := uint8(h) ^ f.fp[idx[0]] ^ f.fp[idx[1]] ^ f.fp[idx[2]]
		assert.Zero(t, x, "key %d", k)
	}
}

func TestXor8FalsePositiveRate(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(5000, 4)
	f, err := BuildXor8(keys)
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
	assert.Less(t, rate, 0.01)
}

func TestXorPlus8NoFalseNegatives(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(4000, 5)
	f, err := BuildXorPlus8(keys)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, f.MayContain(k), "key %d", k)
	}
}

func TestXorPlus8SmallerThanXor8(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(4000, 6)
	base, err := BuildXor8(keys)
	require.NoError(t, err)
	plus, err := BuildXorPlus8(keys)
	require.NoError(t, err)

	assert.Less(t, plus.BitCount(), base.BitCount())
}

func TestXorPlus8SerializeRoundTrip(t *testing.T) {
	t.Parallel()

	keys := distinctKeys(3000, 7)
	f, err := BuildXorPlus8(keys)
	require.NoError(t, err)

	buf := f.Serialize()
	assert.Len(t, buf, f.SerializedSize())

	back, err := DeserializeXorPlus8(buf)
	require.NoError(t, err)

	for _, k := range keys {
		assert.True(t, back.MayContain(k), "key %d", k)
	}
	assert.Equal(t, f.BitCount(), back.BitCount())
}

func TestXorPlus8DeserializeShortBuffer(t *testing.T) {
	t.Parallel()

	_, err := DeserializeXorPlus8([]byte{1, 2, 3})
	assert.ErrorIs(t, err, sieve.ErrBufferTooSmall)
}
