// Package cluster partitions reviews into duplicate groups in a single pass
// over anchors, combining approximate index candidates with the exact
// word-overlap check.
//
// Grouping is one-hop: a review joins the cluster of the first anchor that
// matches it directly. If A~B and B~C but A≁C, C is not pulled into A's
// cluster through B; depending on order C may form its own cluster. This is
// a known approximation, not transitive closure.
package cluster

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/minhash"
)

// Candidates returns ids likely similar to a signature.
type Candidates interface {
	Query(sig minhash.Signature) ([]int, error)
}

// Overlap reports whether reviews i and j are containment duplicates.
type Overlap interface {
	Duplicate(i, j int) bool
}

// Cluster is a group of review indices. Members[0] is the anchor, the rest
// follow in ascending order.
type Cluster struct {
	Members []int
}

// Anchor returns the review that opened the cluster.
func (c Cluster) Anchor() int { return c.Members[0] }

// Singleton reports whether the anchor matched nothing.
func (c Cluster) Singleton() bool { return len(c.Members) == 1 }

// Result holds the clusters in discovery order.
type Result struct {
	Clusters []Cluster
	// Unmatched lists anchors that had no partner, whether or not they were
	// also emitted as singleton clusters.
	Unmatched []int
}

// Builder runs the clustering pass.
type Builder struct {
	Index      Candidates
	Signatures []minhash.Signature
	Overlap    Overlap
	// EmitSingletons records partner-less anchors as single-member clusters.
	EmitSingletons bool
	Logger         *zap.Logger
}

// Build walks anchors in index order and returns disjoint clusters.
func (b *Builder) Build() (*Result, error) {
	n := len(b.Signatures)
	log := b.Logger
	if log == nil {
		log = zap.NewNop()
	}

	visited := make([]bool, n)
	res := &Result{}

	for anchor := 0; anchor < n; anchor++ {
		if visited[anchor] {
			continue
		}

		ids, err := b.Index.Query(b.Signatures[anchor])
		if err != nil {
			return nil, eris.Wrapf(err, "cluster: query anchor %d", anchor)
		}

		candidate := make([]bool, n)
		for _, id := range ids {
			if id < 0 || id >= n {
				return nil, eris.Wrapf(internalerr.ErrInconsistent,
					"cluster: index returned id %d outside [0, %d)", id, n)
			}
			candidate[id] = true
		}

		// Second pass only over items neither visited nor already candidates.
		if b.Overlap != nil {
			for j := 0; j < n; j++ {
				if j == anchor || candidate[j] || visited[j] {
					continue
				}
				if b.Overlap.Duplicate(anchor, j) {
					candidate[j] = true
				}
			}
		}

		members := []int{anchor}
		for j := 0; j < n; j++ {
			if j != anchor && candidate[j] && !visited[j] {
				members = append(members, j)
			}
		}

		if len(members) == 1 {
			res.Unmatched = append(res.Unmatched, anchor)
			if !b.EmitSingletons {
				continue
			}
		}

		for _, m := range members {
			visited[m] = true
		}
		res.Clusters = append(res.Clusters, Cluster{Members: members})
	}

	log.Debug("clustering finished",
		zap.Int("reviews", n),
		zap.Int("clusters", len(res.Clusters)),
		zap.Int("unmatched", len(res.Unmatched)))

	return res, nil
}
