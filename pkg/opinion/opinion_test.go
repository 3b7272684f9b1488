package opinion

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/aspect"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
)

const (
	ribeyeShort = "the ribeye was succulent and the server was helpful"
	ribeyeLong  = "the ribeye was succulent and the server was helpful amazing"
	prices      = "the prices were high but the atmosphere was nice"
	pasta       = "the linguine was al dente and the lasagna was flavorful"
	junk        = "whoa okay then"
)

// stubScorer tags a fixed noun list so scores do not depend on a
// statistical model.
func stubScorer(t *testing.T) *aspect.Scorer {
	t.Helper()
	nouns := map[string]bool{
		"ribeye": true, "server": true, "prices": true, "atmosphere": true,
		"linguine": true, "lasagna": true, "okay": true, "food": true, "staff": true,
	}
	tagger := aspect.FuncTagger(func(text string) ([]aspect.Token, error) {
		var out []aspect.Token
		for _, w := range strings.Fields(text) {
			tag := "DT"
			if nouns[w] {
				tag = "NNS"
			}
			out = append(out, aspect.Token{Text: w, Tag: tag})
		}
		return out, nil
	})

	table, err := aspect.DefaultTable()
	require.NoError(t, err)
	graph, err := lexnet.Default()
	require.NoError(t, err)
	s, err := aspect.NewScorer(table, aspect.WithGeneralizer(graph), aspect.WithTagger(tagger))
	require.NoError(t, err)
	return s
}

func newTestDeduplicator(t *testing.T, mutate func(*Params)) *Deduplicator {
	t.Helper()
	p := DefaultParams()
	if mutate != nil {
		mutate(&p)
	}
	d, err := New(Options{Params: p, Scorer: stubScorer(t)})
	require.NoError(t, err)
	return d
}

func TestNearDuplicateKeepsRicherLongerReview(t *testing.T) {
	d := newTestDeduplicator(t, func(p *Params) { p.ShingleSize = 3 })

	r, err := d.Run([]string{ribeyeShort, ribeyeLong}, "restaurant")
	require.NoError(t, err)

	require.Len(t, r.Clusters, 1)
	assert.Equal(t, []int{0, 1}, r.Clusters[0].Members)
	assert.Equal(t, 1, r.Clusters[0].Representative)
	assert.Equal(t, []string{ribeyeLong}, r.Output)
	assert.Empty(t, r.Unmatched)
}

func TestDistinctReviewsStaySeparate(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	r, err := d.Run([]string{prices, pasta}, "restaurant")
	require.NoError(t, err)

	require.Len(t, r.Clusters, 2)
	assert.Equal(t, []int{0}, r.Clusters[0].Members)
	assert.Equal(t, []int{1}, r.Clusters[1].Members)
	assert.Greater(t, r.Clusters[1].Score, 0.0, "pasta nouns generalize to food aspects")
	assert.Equal(t, []string{prices, pasta}, r.Output)
	assert.Equal(t, []int{0, 1}, r.Unmatched)
}

func TestContentlessReviewDropped(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	r, err := d.Run([]string{junk}, "restaurant")
	require.NoError(t, err)

	require.Len(t, r.Clusters, 1)
	assert.False(t, r.Clusters[0].Kept)
	assert.Equal(t, 0.0, r.Clusters[0].Score)
	assert.Empty(t, r.Output)

	out, err := d.Deduplicate([]string{junk, "great food"}, "restaurant")
	require.NoError(t, err)
	assert.Equal(t, []string{"great food"}, out)
}

func TestExactDuplicatesCollapse(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	out, err := d.Deduplicate([]string{
		"great food and friendly staff",
		"the parking lot was full",
		"great food and friendly staff",
	}, "restaurant")
	require.NoError(t, err)
	assert.Equal(t, []string{"great food and friendly staff"}, out)
}

func TestContainmentDuplicateCaughtByOverlap(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	r, err := d.Run([]string{
		"great food",
		"the menu is short",
		"great food and excellent service at a fair price",
	}, "restaurant")
	require.NoError(t, err)

	require.Len(t, r.Clusters, 2)
	assert.Equal(t, []int{0, 2}, r.Clusters[0].Members)
	assert.Equal(t, 2, r.Clusters[0].Representative)
	assert.Equal(t, []int{1}, r.Clusters[1].Members)
}

func TestOutputFollowsClusterOrder(t *testing.T) {
	d := newTestDeduplicator(t, nil)
	reviews := []string{
		"the food was cold",
		"friendly staff and quick service",
		"the food was cold",
		"lovely atmosphere but pricey menu",
		"whoa okay then",
		"friendly staff and quick service!",
	}

	r, err := d.Run(reviews, "restaurant")
	require.NoError(t, err)

	assert.Subset(t, reviews, r.Output)
	assert.NotContains(t, r.Output, "whoa okay then")
	assert.Equal(t, []int{0, 2}, r.Clusters[0].Members)

	// Output follows cluster discovery order.
	var reps []string
	for _, c := range r.Clusters {
		if c.Kept {
			reps = append(reps, reviews[c.Representative])
		}
	}
	assert.Equal(t, reps, r.Output)
}

func TestUnknownCategoryUsesLengthScore(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	r, err := d.Run([]string{"short one", "a much longer review text"}, "spaceport")
	require.NoError(t, err)
	assert.Len(t, r.Output, 2)
	assert.InDelta(t, 0.2, r.Clusters[0].Score, 1e-9)
}

func TestWithoutUnmatchedOnlyDuplicateGroupsRemain(t *testing.T) {
	d := newTestDeduplicator(t, func(p *Params) { p.DropUnmatched = true })

	r, err := d.Run([]string{
		"great food",
		"the staff was friendly and the waiter was quick",
		"great food",
	}, "restaurant")
	require.NoError(t, err)

	require.Len(t, r.Clusters, 1)
	assert.Equal(t, []int{0, 2}, r.Clusters[0].Members)
	assert.Equal(t, []int{1}, r.Unmatched)
	assert.Equal(t, []string{"great food"}, r.Output)
}

func TestEmptyInput(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	out, err := d.Deduplicate(nil, "restaurant")
	require.NoError(t, err)
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestBlankCategoryRejected(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	for _, cat := range []string{"", "   "} {
		_, err := d.Deduplicate([]string{"great food"}, cat)
		assert.True(t, errors.Is(err, internalerr.ErrInvalidInput))
	}
}

func TestReportRunIDs(t *testing.T) {
	d := newTestDeduplicator(t, nil)

	a, err := d.Run([]string{"great food"}, "restaurant")
	require.NoError(t, err)
	b, err := d.Run([]string{"great food"}, "restaurant")
	require.NoError(t, err)

	_, err = ulid.Parse(a.RunID)
	require.NoError(t, err)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.Equal(t, 1, a.Reviews)
	assert.LessOrEqual(t, a.Bands*a.Rows, DefaultParams().NumPerm)
}

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, DefaultParams().Validate())

	err := Params{Threshold: 1.5, NumPerm: 1, ShingleSize: 0, OverlapThreshold: -0.1}.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
	for _, field := range []string{"threshold", "num_perm", "shingle_size", "overlap_threshold"} {
		assert.Contains(t, err.Error(), field)
	}

	_, err = New(Options{Params: Params{Threshold: 0.5}})
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestZeroParamsUseDefaults(t *testing.T) {
	d, err := New(Options{Scorer: stubScorer(t)})
	require.NoError(t, err)
	assert.Equal(t, DefaultParams(), d.Params())
}

func TestExplicitKnobsKeepUnmatchedReviews(t *testing.T) {
	d, err := New(Options{
		Params: Params{
			Threshold:        0.85,
			NumPerm:          128,
			ShingleSize:      3,
			OverlapThreshold: 0.85,
		},
		Scorer: stubScorer(t),
	})
	require.NoError(t, err)

	r, err := d.Run([]string{prices, pasta}, "restaurant")
	require.NoError(t, err)
	assert.Len(t, r.Clusters, 2)
	assert.Equal(t, []string{prices, pasta}, r.Output)
}

func TestConcurrentCallsAgree(t *testing.T) {
	d := newTestDeduplicator(t, nil)
	reviews := []string{ribeyeShort, ribeyeLong, prices, pasta, junk}
	want, err := d.Deduplicate(reviews, "restaurant")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := d.Deduplicate(reviews, "restaurant")
			assert.NoError(t, err)
			assert.Equal(t, want, got)
		}()
	}
	wg.Wait()
}

func TestDefaultScorerEndToEnd(t *testing.T) {
	d, err := New(Options{})
	require.NoError(t, err)

	out, err := d.Deduplicate([]string{prices, pasta, junk}, "restaurant")
	require.NoError(t, err)
	assert.Equal(t, []string{prices, pasta}, out)
}

func ExampleDeduplicator_Deduplicate() {
	d, err := New(Options{})
	if err != nil {
		panic(err)
	}
	out, err := d.Deduplicate([]string{
		"great food and friendly staff",
		"great food and friendly staff",
		"whoa okay then",
	}, "restaurant")
	if err != nil {
		panic(err)
	}
	fmt.Println(out)
	// Output: [great food and friendly staff]
}
