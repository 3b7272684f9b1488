// Package selector chooses the review that represents each duplicate
// cluster.
package selector

import (
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
)

// ScoreFunc returns the aspect score of a review text.
type ScoreFunc func(text string) float64

// Pick is the representative chosen for one cluster.
type Pick struct {
	Cluster int     // position of the cluster in the input
	Index   int     // review index of the representative
	Score   float64 // score of the representative
	// MemberScores is parallel to the cluster's members.
	MemberScores []float64
	// Kept is false when even the best member scored zero.
	Kept bool
}

// Choose picks a representative for every cluster: the member with the
// highest score, ties broken by the longer text (in runes), remaining ties
// by member order. Each member is scored exactly once.
func Choose(clusters [][]int, texts []string, score ScoreFunc) ([]Pick, error) {
	picks := make([]Pick, 0, len(clusters))
	for ci, members := range clusters {
		if len(members) == 0 {
			return nil, eris.Wrapf(internalerr.ErrInconsistent, "selector: cluster %d is empty", ci)
		}

		p := Pick{Cluster: ci, Index: -1, MemberScores: make([]float64, len(members))}
		bestLen := -1
		for mi, idx := range members {
			if idx < 0 || idx >= len(texts) {
				return nil, eris.Wrapf(internalerr.ErrInconsistent,
					"selector: cluster %d member %d outside [0,%d)", ci, idx, len(texts))
			}
			s := score(texts[idx])
			p.MemberScores[mi] = s
			n := utf8.RuneCountInString(texts[idx])
			if p.Index < 0 || s > p.Score || (s == p.Score && n > bestLen) {
				p.Index, p.Score, bestLen = idx, s, n
			}
		}
		p.Kept = p.Score > 0
		picks = append(picks, p)
	}
	return picks, nil
}

// Select is Choose restricted to clusters whose representative scored
// above zero.
func Select(clusters [][]int, texts []string, score ScoreFunc) ([]Pick, error) {
	all, err := Choose(clusters, texts, score)
	if err != nil {
		return nil, err
	}
	kept := all[:0]
	for _, p := range all {
		if p.Kept {
			kept = append(kept, p)
		}
	}
	return kept, nil
}

// Texts returns the representative texts of picks in order.
func Texts(picks []Pick, texts []string) []string {
	out := make([]string, len(picks))
	for i, p := range picks {
		out[i] = texts[p.Index]
	}
	return out
}
