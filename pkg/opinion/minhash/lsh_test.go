package minhash

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

func TestOptimalParamsFitSignature(t *testing.T) {
	tests := []struct {
		threshold float64
		numPerm   int
	}{
		{0.85, 128},
		{0.5, 128},
		{0.7, 64},
		{0.9, 256},
	}

	for _, tt := range tests {
		b, r := OptimalParams(tt.threshold, tt.numPerm)
		assert.GreaterOrEqual(t, b, 1)
		assert.GreaterOrEqual(t, r, 1)
		assert.LessOrEqual(t, b*r, tt.numPerm)
	}
}

func TestOptimalParamsStricterThresholdUsesMoreRows(t *testing.T) {
	_, loose := OptimalParams(0.3, 128)
	_, strict := OptimalParams(0.9, 128)
	assert.Greater(t, strict, loose)
}

func TestNewIndexValidation(t *testing.T) {
	_, err := NewIndex(1.5, 128)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))

	_, err = NewIndex(0.8, 1)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestIndexQueryFindsSimilarNotDisjoint(t *testing.T) {
	p, err := NewPermutations(DefaultNumPerm, DefaultSeed)
	require.NoError(t, err)
	idx, err := NewIndex(DefaultThreshold, DefaultNumPerm)
	require.NoError(t, err)

	base := p.Sign(numberedSet(0, 200))
	near := p.Sign(numberedSet(0, 199))
	far := p.Sign(numberedSet(5000, 5200))

	require.NoError(t, idx.Insert(0, base))
	require.NoError(t, idx.Insert(1, near))
	require.NoError(t, idx.Insert(2, far))
	assert.Equal(t, 3, idx.Len())

	got, err := idx.Query(base)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, got)

	got, err = idx.Query(far)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, got)
}

func TestIndexQueryAlwaysReturnsSelf(t *testing.T) {
	p, err := NewPermutations(DefaultNumPerm, DefaultSeed)
	require.NoError(t, err)
	idx, err := NewIndex(0.99, DefaultNumPerm)
	require.NoError(t, err)

	sig := p.Sign(numberedSet(0, 3))
	require.NoError(t, idx.Insert(7, sig))

	got, err := idx.Query(sig)
	require.NoError(t, err)
	assert.Equal(t, []int{7}, got)
}

func TestIndexRejectsDuplicateID(t *testing.T) {
	p, err := NewPermutations(DefaultNumPerm, DefaultSeed)
	require.NoError(t, err)
	idx, err := NewIndex(DefaultThreshold, DefaultNumPerm)
	require.NoError(t, err)

	sig := p.Sign(numberedSet(0, 10))
	require.NoError(t, idx.Insert(1, sig))

	err = idx.Insert(1, sig)
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrDuplicate))
}

func TestIndexRejectsWrongSignatureLength(t *testing.T) {
	p, err := NewPermutations(64, DefaultSeed)
	require.NoError(t, err)
	idx, err := NewIndex(DefaultThreshold, DefaultNumPerm)
	require.NoError(t, err)

	sig := p.Sign(numberedSet(0, 10))
	assert.True(t, errors.Is(idx.Insert(0, sig), internalerr.ErrInvalidInput))

	_, err = idx.Query(sig)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
}

func TestIntegrateSimpson(t *testing.T) {
	got := integrate(func(x float64) float64 { return x * x }, 0, 1)
	assert.InDelta(t, 1.0/3.0, got, 1e-9)
	assert.Equal(t, 0.0, integrate(func(float64) float64 { return 1 }, 1, 1))
}
