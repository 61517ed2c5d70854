// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package sieve

import "math"

// // A Config holds parameters for Optimize or NewOptimized.
type Config struct {
	// Desired lower bound on the false positive rate when Capacity distinct
	// keys have been inserted.
	FPRate float64

	// Maximum size of the Bloom filter in bits.
	//
	// Zero means no limit. Otherwise, MaxBits should be at least 512.
	MaxBits uint64

	// Expected number of distinct keys.
	Capacity uint64

	// Trigger the "contains filtered or unexported fields" message
	// for forward compatibility and force the caller to use named fields.
	_ struct{}
}

// NewOptimized is shorthand for New(Optimize(cfg)).
func NewOptimized(cfg Config) *Filter {
	nbits, nhashes := Optimize(cfg)
	return New(uint64(nbits), nhashes)
}

// NewSyncOptimized is shorthand for NewSync(Optimize(cfg)).
func NewSyncOptimized(cfg Config) *SyncFilter {
	nbits, nhashes := Optimize(cfg)
	return NewSync(uint64(nbits), nhashes)
}

// Optimize returns numbers of bits and hash functions that achieve the
// desired false positive described by cfg.
func Optimize(cfg Config) (nbits, nhashes int) {
	var (
		n = float64(cfg.Capacity)
		p = cfg.FPRate
	)

	if p <= 0 || p > 1 {
		panic("false positive rate for a Bloom filter must be > 0, <= 1")
	}
	if n == 0 {
		// Assume the client wants to add at least one key; log2(0) = -inf.
		n = 1
	}

	// The optimal nbits/n is c = -log2(p) / ln(2) for a vanilla Bloom filter.
	c := math.Ceil(-math.Log2(p) / math.Ln2)
	if c < float64(len(correctC)) {
		c = float64(correctC[int(c)])
	} else {
		// We can't achieve the desired FPR. Just triple the number of bits.
		c *= 3
	}
	nbits = int(c * n)

	// Round up to a multiple of BlockBits.
	if nbits%BlockBits != 0 {
		nbits += BlockBits - nbits%BlockBits
	}

	maxbits := (1 << 32) * BlockBits
	if cfg.MaxBits != 0 && int(cfg.MaxBits) < maxbits {
		maxbits = int(cfg.MaxBits)
		if maxbits < BlockBits {
			maxbits = BlockBits
		}
	}
	if nbits > maxbits {
		nbits = maxbits
		// Round down to a multiple of BlockBits.
		nbits -= nbits % BlockBits
	}

	// The corresponding optimal number of hash functions is k = c * log(2).
	c = float64(nbits) / n
	nhashes = int(math.Round(c * math.Ln2))

	if nhashes < 1 {
		nhashes = 1
	}

	return nbits, nhashes
}

// correctC maps c = m/n for a vanilla Bloom filter to the c' for a
// blocked Bloom filter.
//
// This is Putze et al.'s Table I, extended down to zero.
// For c > 34, the values become huge and are hard to compute.
var correctC = []byte{
	1, 1, 2, 4, 5,
	6, 7, 8, 9, 10, 11, 12, 13, 14, 16, 17, 18, 20, 21, 23,
	25, 26, 28, 30, 32, 35, 38, 40, 44, 48, 51, 58, 64, 74, 90,
}

// FPRate computes an estimate of the false positive rate of Bloom filter
// after nkeys distinct keys have been added.
func FPRate(nkeys, nbits, nhashes int) float64 {
	if nbits <= 0 {
		panic("sieve: nbits must be positive")
	}
	if nhashes <= 0 {
		panic("sieve: nhashes must be positive")
	}
	if nkeys == 0 {
		return 0
	}

	c := float64(nbits) / float64(nkeys)
	k := float64(nhashes)

	fpr, _ := fpRate(c, k)
	return fpr
}

// fpRate is FPRate's core, parameterized by c = nbits/nkeys and k = nhashes,
// reporting the number of terms of the series it summed.
//
// Putze et al.'s Equation (3).
func fpRate(c, k float64) (fpr float64, iterations int) {
	var sum float64
	for i := float64(0); ; i++ {
		prev := sum
		sum += math.Exp(logPoisson(BlockBits/c, i) + logFprBlock(BlockBits/i, k))
		iterations++
		if sum/prev-1 < 1e-10 {
			break
		}
	}
	return sum, iterations
}

// FPRate computes an estimate of f's false positive rate after nkeys distinct
// keys have been added.
func (f *Filter) FPRate(nkeys int) float64 {
	return FPRate(nkeys, int(f.NumBits()), f.k)
}

// Log of the frp of single block.
func logFprBlock(c, k float64) float64 {
	return k * math.Log1p(-math.Exp(-k/c))
}

// Log of the Poisson distribution's pmf.
func logPoisson(λ, k float64) float64 {
	if k < 0 {
		panic("negative k")
	}
	lg, _ := math.Lgamma(k + 1)
	return k*math.Log(λ) - λ - lg
}
