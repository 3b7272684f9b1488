// Package shingle turns review text into sets of fixed-length character
// n-grams, the unit of comparison for MinHash signatures.
package shingle

import (
	"sort"

	"github.com/rotisserie/eris"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// DefaultSize is the shingle length used when none is configured.
const DefaultSize = 5

// Set is a set of shingles.
type Set map[string]struct{}

// Build slides a window of k runes over text with step 1.
//
// Text shorter than k yields the single-element set {text}, so every review
// contributes at least one shingle, including the empty string.
func Build(text string, k int) (Set, error) {
	if k <= 0 {
		return nil, eris.Wrapf(internalerr.ErrInvalidInput, "shingle: size must be positive, got %d", k)
	}

	runes := []rune(text)
	if len(runes) < k {
		return Set{text: {}}, nil
	}

	set := make(Set, len(runes)-k+1)
	for i := 0; i <= len(runes)-k; i++ {
		set[string(runes[i:i+k])] = struct{}{}
	}
	return set, nil
}

// Len returns the number of distinct shingles.
func (s Set) Len() int { return len(s) }

// Contains reports whether sh is in the set.
func (s Set) Contains(sh string) bool {
	_, ok := s[sh]
	return ok
}

// Slice returns the shingles in lexical order.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for sh := range s {
		out = append(out, sh)
	}
	sort.Strings(out)
	return out
}
