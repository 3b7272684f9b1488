// Package overlap implements the word-level containment check that catches
// duplicates MinHash under-reports, where one review is a subset or
// extension of another ("great food" vs "great food and excellent service").
package overlap

import "strings"

// DefaultThreshold is the overlap coefficient a pair must exceed.
const DefaultThreshold = 0.85

// WordSet is the set of whitespace-separated words of a review.
type WordSet map[string]struct{}

// Words splits text on whitespace.
func Words(text string) WordSet {
	fields := strings.Fields(text)
	set := make(WordSet, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Coefficient is the Szymkiewicz–Simpson overlap |A ∩ B| / min(|A|, |B|).
// It is 0 when either set is empty.
func Coefficient(a, b WordSet) float64 {
	shorter, longer := a, b
	if len(b) < len(a) {
		shorter, longer = b, a
	}
	if len(shorter) == 0 {
		return 0
	}

	inter := 0
	for w := range shorter {
		if _, ok := longer[w]; ok {
			inter++
		}
	}
	return float64(inter) / float64(len(shorter))
}

// Verifier flags pairs whose overlap coefficient strictly exceeds Threshold.
type Verifier struct {
	Threshold float64
}

// Duplicate reports whether a and b are containment duplicates.
func (v Verifier) Duplicate(a, b string) bool {
	return Coefficient(Words(a), Words(b)) > v.Threshold
}

// Corpus caches the word sets of one batch of reviews so pairwise checks do
// not re-split text.
type Corpus struct {
	verifier Verifier
	words    []WordSet
}

// NewCorpus splits every text once.
func NewCorpus(v Verifier, texts []string) *Corpus {
	words := make([]WordSet, len(texts))
	for i, t := range texts {
		words[i] = Words(t)
	}
	return &Corpus{verifier: v, words: words}
}

// Len returns the number of texts in the corpus.
func (c *Corpus) Len() int { return len(c.words) }

// Coefficient returns the overlap coefficient between texts i and j.
func (c *Corpus) Coefficient(i, j int) float64 {
	return Coefficient(c.words[i], c.words[j])
}

// Duplicate reports whether texts i and j exceed the verifier threshold.
func (c *Corpus) Duplicate(i, j int) bool {
	return c.Coefficient(i, j) > c.verifier.Threshold
}
