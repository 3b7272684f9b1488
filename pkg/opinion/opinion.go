// Package opinion removes near-duplicate reviews of a business and keeps,
// for every duplicate group, the review that covers the most aspects of its
// category.
//
// A call shingles every review, signs it with MinHash, indexes the
// signatures with LSH banding, confirms containment duplicates with the
// word-overlap coefficient, clusters in a single one-hop pass and finally
// picks each cluster's representative by aspect score.
package opinion

import (
	"crypto/rand"
	"fmt"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/aspect"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/cluster"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/minhash"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/overlap"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/selector"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/shingle"
)

// DefaultConcurrency bounds DeduplicateBatch when Options leaves it unset.
const DefaultConcurrency = 4

// Params tunes the duplicate detection.
type Params struct {
	Threshold        float64 // LSH Jaccard threshold
	NumPerm          int     // MinHash signature length
	ShingleSize      int     // characters per shingle
	OverlapThreshold float64 // word-overlap coefficient a pair must exceed
	DropUnmatched    bool    // discard reviews without duplicates instead of emitting them alone
	Seed             uint64  // MinHash permutation seed
}

// DefaultParams returns the parameters the engine was tuned with.
func DefaultParams() Params {
	return Params{
		Threshold:        minhash.DefaultThreshold,
		NumPerm:          minhash.DefaultNumPerm,
		ShingleSize:      shingle.DefaultSize,
		OverlapThreshold: overlap.DefaultThreshold,
		Seed:             minhash.DefaultSeed,
	}
}

// Problems lists every out-of-range parameter; it is empty for valid
// parameters.
func (p Params) Problems() []string {
	var errs []string
	if p.Threshold < 0 || p.Threshold > 1 {
		errs = append(errs, fmt.Sprintf("threshold must be in [0, 1], got %v", p.Threshold))
	}
	if p.NumPerm < 2 {
		errs = append(errs, fmt.Sprintf("num_perm must be >= 2, got %d", p.NumPerm))
	}
	if p.ShingleSize < 1 {
		errs = append(errs, fmt.Sprintf("shingle_size must be >= 1, got %d", p.ShingleSize))
	}
	if p.OverlapThreshold < 0 || p.OverlapThreshold > 1 {
		errs = append(errs, fmt.Sprintf("overlap_threshold must be in [0, 1], got %v", p.OverlapThreshold))
	}
	return errs
}

// Validate reports every out-of-range parameter at once.
func (p Params) Validate() error {
	if errs := p.Problems(); len(errs) > 0 {
		return eris.Wrapf(internalerr.ErrInvalidConfig, "opinion: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Options configures a Deduplicator.
type Options struct {
	// Params defaults to DefaultParams() when left zero.
	Params Params
	// Scorer defaults to the embedded aspect table with the embedded
	// lexical graph and the prose tagger.
	Scorer *aspect.Scorer
	// Concurrency bounds DeduplicateBatch.
	Concurrency int
	Logger      *zap.Logger
}

// Deduplicator runs deduplication calls. It is safe for concurrent use;
// every call owns its index and visited set, and the scorer's cache is
// internally locked.
type Deduplicator struct {
	params      Params
	perms       *minhash.Permutations
	scorer      *aspect.Scorer
	concurrency int
	logger      *zap.Logger

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// New validates opts and builds a Deduplicator.
func New(opts Options) (*Deduplicator, error) {
	params := opts.Params
	if params == (Params{}) {
		params = DefaultParams()
	}
	if err := params.Validate(); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	perms, err := minhash.NewPermutations(params.NumPerm, params.Seed)
	if err != nil {
		return nil, err
	}

	scorer := opts.Scorer
	if scorer == nil {
		if scorer, err = defaultScorer(logger); err != nil {
			return nil, err
		}
	}

	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	return &Deduplicator{
		params:      params,
		perms:       perms,
		scorer:      scorer,
		concurrency: concurrency,
		logger:      logger,
		entropy:     ulid.Monotonic(rand.Reader, 0),
	}, nil
}

func defaultScorer(logger *zap.Logger) (*aspect.Scorer, error) {
	table, err := aspect.DefaultTable()
	if err != nil {
		return nil, err
	}
	graph, err := lexnet.Default()
	if err != nil {
		return nil, err
	}
	return aspect.NewScorer(table,
		aspect.WithGeneralizer(graph),
		aspect.WithTagger(aspect.NewProseTagger()),
		aspect.WithLogger(logger))
}

// Params returns the parameters in use.
func (d *Deduplicator) Params() Params { return d.params }

// Scorer returns the aspect scorer in use.
func (d *Deduplicator) Scorer() *aspect.Scorer { return d.scorer }

// ClusterReport describes one duplicate group.
type ClusterReport struct {
	Members        []int     `json:"members"`
	Representative int       `json:"representative"`
	Score          float64   `json:"score"`
	MemberScores   []float64 `json:"member_scores"`
	Kept           bool      `json:"kept"`
}

// Report is the full outcome of one call.
type Report struct {
	RunID     string          `json:"run_id"`
	Category  string          `json:"category"`
	Reviews   int             `json:"reviews"`
	Bands     int             `json:"lsh_bands"`
	Rows      int             `json:"lsh_rows"`
	Clusters  []ClusterReport `json:"clusters"`
	Unmatched []int           `json:"unmatched,omitempty"`
	Output    []string        `json:"output"`
}

// Deduplicate returns one representative per duplicate group, in the order
// the groups were discovered, with zero-score groups removed.
func (d *Deduplicator) Deduplicate(reviews []string, category string) ([]string, error) {
	r, err := d.Run(reviews, category)
	if err != nil {
		return nil, err
	}
	return r.Output, nil
}

// Run deduplicates reviews and reports how every group was decided.
func (d *Deduplicator) Run(reviews []string, category string) (*Report, error) {
	if strings.TrimSpace(category) == "" {
		return nil, eris.Wrap(internalerr.ErrInvalidInput, "opinion: category is required")
	}

	idx, err := minhash.NewIndex(d.params.Threshold, d.params.NumPerm)
	if err != nil {
		return nil, err
	}
	bands, rows := idx.Params()

	report := &Report{
		RunID:    d.newRunID(),
		Category: category,
		Reviews:  len(reviews),
		Bands:    bands,
		Rows:     rows,
		Clusters: []ClusterReport{},
		Output:   []string{},
	}
	if len(reviews) == 0 {
		return report, nil
	}

	sigs := make([]minhash.Signature, len(reviews))
	for i, text := range reviews {
		sh, err := shingle.Build(text, d.params.ShingleSize)
		if err != nil {
			return nil, err
		}
		sigs[i] = d.perms.Sign(sh)
		if err := idx.Insert(i, sigs[i]); err != nil {
			return nil, err
		}
	}

	b := cluster.Builder{
		Index:          idx,
		Signatures:     sigs,
		Overlap:        overlap.NewCorpus(overlap.Verifier{Threshold: d.params.OverlapThreshold}, reviews),
		EmitSingletons: !d.params.DropUnmatched,
		Logger:         d.logger,
	}
	res, err := b.Build()
	if err != nil {
		return nil, err
	}

	groups := make([][]int, len(res.Clusters))
	for i, c := range res.Clusters {
		groups[i] = c.Members
	}
	picks, err := selector.Choose(groups, reviews, func(text string) float64 {
		return d.scorer.Score(text, category)
	})
	if err != nil {
		return nil, err
	}

	for i, p := range picks {
		report.Clusters = append(report.Clusters, ClusterReport{
			Members:        groups[i],
			Representative: p.Index,
			Score:          p.Score,
			MemberScores:   p.MemberScores,
			Kept:           p.Kept,
		})
		if p.Kept {
			report.Output = append(report.Output, reviews[p.Index])
		}
	}
	report.Unmatched = res.Unmatched

	d.logger.Debug("deduplication finished",
		zap.String("run_id", report.RunID),
		zap.String("category", category),
		zap.Int("reviews", len(reviews)),
		zap.Int("clusters", len(report.Clusters)),
		zap.Int("kept", len(report.Output)))

	return report, nil
}

func (d *Deduplicator) newRunID() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return ulid.MustNew(ulid.Now(), d.entropy).String()
}
