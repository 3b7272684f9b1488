// Package minhash estimates Jaccard similarity between shingle sets with
// min-wise independent permutations and indexes the resulting signatures
// for fast candidate lookup (LSH banding).
package minhash

import (
	"crypto/sha1"
	"encoding/binary"
	"math/bits"
	"math/rand/v2"

	"github.com/rotisserie/eris"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

const (
	// DefaultNumPerm is the signature length used when none is configured.
	DefaultNumPerm = 128
	// DefaultSeed fixes the permutation family so signatures from separate
	// runs stay comparable.
	DefaultSeed uint64 = 1

	mersennePrime uint64 = (1 << 61) - 1
	maxHash       uint64 = (1 << 32) - 1
)

// Permutations is a family of universal hash functions
// h'(x) = ((a*h(x) + b) mod p) & maxHash. Signatures can only be compared
// when they come from the same family.
type Permutations struct {
	a []uint64
	b []uint64
}

// NewPermutations draws numPerm (a, b) pairs from a PRNG seeded with seed.
func NewPermutations(numPerm int, seed uint64) (*Permutations, error) {
	if numPerm <= 0 {
		return nil, eris.Wrapf(internalerr.ErrInvalidInput, "minhash: num_perm must be positive, got %d", numPerm)
	}

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	p := &Permutations{
		a: make([]uint64, numPerm),
		b: make([]uint64, numPerm),
	}
	for i := 0; i < numPerm; i++ {
		p.a[i] = 1 + rng.Uint64N(mersennePrime-1)
		p.b[i] = rng.Uint64N(mersennePrime)
	}
	return p, nil
}

// Size returns the number of permutation functions.
func (p *Permutations) Size() int { return len(p.a) }

// Sign computes the signature of a set of shingles. The iteration order of
// the set does not matter: each position keeps the minimum.
func (p *Permutations) Sign(shingles map[string]struct{}) Signature {
	values := make([]uint64, len(p.a))
	for i := range values {
		values[i] = maxHash
	}

	for sh := range shingles {
		hv := hash32(sh)
		for i := range values {
			// a < 2^61 and hv < 2^32, so the product needs 128 bits.
			hi, lo := bits.Mul64(p.a[i], hv)
			phv := (bits.Rem64(hi, lo, mersennePrime) + p.b[i]) % mersennePrime
			phv &= maxHash
			if phv < values[i] {
				values[i] = phv
			}
		}
	}
	return Signature{values: values}
}

// hash32 takes the first four bytes of the SHA-1 digest, little endian.
func hash32(s string) uint64 {
	sum := sha1.Sum([]byte(s))
	return uint64(binary.LittleEndian.Uint32(sum[:4]))
}

// Signature is an immutable MinHash fingerprint.
type Signature struct {
	values []uint64
}

// Len returns the number of positions in the signature.
func (s Signature) Len() int { return len(s.values) }

// Values returns a copy of the raw min-hash values.
func (s Signature) Values() []uint64 {
	out := make([]uint64, len(s.values))
	copy(out, s.values)
	return out
}

// Jaccard estimates the Jaccard similarity of the underlying shingle sets
// as the fraction of equal positions.
func (s Signature) Jaccard(other Signature) (float64, error) {
	if len(s.values) != len(other.values) {
		return 0, eris.Wrapf(internalerr.ErrInvalidInput,
			"minhash: cannot compare signatures of length %d and %d", len(s.values), len(other.values))
	}
	if len(s.values) == 0 {
		return 0, nil
	}

	equal := 0
	for i, v := range s.values {
		if v == other.values[i] {
			equal++
		}
	}
	return float64(equal) / float64(len(s.values)), nil
}
