// Package aspect scores how many category-relevant aspects a review covers.
//
// A review earns one point per distinct aspect and half a point per mention.
// Aspects come from two sources: literal keyword hits from the category
// table, and nouns whose hypernyms generalize to a keyword ("ribeye" is a
// kind of "food"). Reviews of unknown categories fall back to a length score.
package aspect

import (
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
)

const (
	// DefaultCacheSize bounds the number of memoized (text, category) scores.
	DefaultCacheSize = 2000

	fallbackPerWord = 0.1
	mentionWeight   = 0.5
)

// Breakdown explains one score.
type Breakdown struct {
	Category    string            `json:"category"`
	Known       bool              `json:"known_category"`
	Keywords    map[string]int    `json:"keywords,omitempty"`
	Generalized map[string]string `json:"generalized,omitempty"` // noun -> keyword it generalized to
	Aspects     int               `json:"aspects"`
	Mentions    int               `json:"mentions"`
	Score       float64           `json:"score"`
}

type cacheKey struct {
	text     string
	category string
}

// Scorer computes aspect scores. It is safe for concurrent use.
type Scorer struct {
	table  *Table
	gen    lexnet.Generalizer
	tagger Tagger
	cache  *lru.Cache[cacheKey, float64]
	logger *zap.Logger
}

type settings struct {
	gen       lexnet.Generalizer
	tagger    Tagger
	cacheSize int
	logger    *zap.Logger
}

// Option configures a Scorer.
type Option func(*settings)

// WithGeneralizer enables hypernym generalization of nouns.
func WithGeneralizer(g lexnet.Generalizer) Option {
	return func(s *settings) { s.gen = g }
}

// WithTagger sets the part-of-speech tagger used to find nouns.
func WithTagger(t Tagger) Option {
	return func(s *settings) { s.tagger = t }
}

// WithCacheSize bounds the score cache.
func WithCacheSize(n int) Option {
	return func(s *settings) { s.cacheSize = n }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.logger = l }
}

// NewScorer creates a scorer over table. Without a tagger or a generalizer
// only literal keyword hits count.
func NewScorer(table *Table, opts ...Option) (*Scorer, error) {
	if table == nil {
		return nil, eris.Wrap(internalerr.ErrInvalidInput, "aspect: nil table")
	}
	s := settings{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&s)
	}
	if s.cacheSize <= 0 {
		return nil, eris.Wrapf(internalerr.ErrInvalidConfig, "aspect: cache size %d", s.cacheSize)
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}

	cache, err := lru.New[cacheKey, float64](s.cacheSize)
	if err != nil {
		return nil, eris.Wrap(err, "aspect: create cache")
	}
	return &Scorer{
		table:  table,
		gen:    s.gen,
		tagger: s.tagger,
		cache:  cache,
		logger: s.logger,
	}, nil
}

// Table returns the category table the scorer was built with.
func (s *Scorer) Table() *Table { return s.table }

// Score returns the aspect score of text under category.
func (s *Scorer) Score(text, category string) float64 {
	key := cacheKey{text: text, category: category}
	if v, ok := s.cache.Get(key); ok {
		return v
	}
	v := s.Explain(text, category).Score
	s.cache.Add(key, v)
	return v
}

// Explain computes the score of text under category along with the
// keywords and nouns that produced it. Results are not cached.
func (s *Scorer) Explain(text, category string) Breakdown {
	b := Breakdown{Category: category}

	c, ok := s.table.categories[category]
	if !ok {
		b.Score = fallbackPerWord * float64(len(strings.Fields(text)))
		return b
	}
	b.Known = true

	lower := strings.ToLower(text)
	aspects := make(map[string]struct{})

	b.Keywords = c.match(lower)
	for _, kw := range sortedKeys(b.Keywords) {
		aspects[kw] = struct{}{}
		b.Mentions += b.Keywords[kw]
	}

	if s.tagger != nil && s.gen != nil {
		b.Generalized = s.generalize(c, lower, aspects)
		b.Mentions += len(b.Generalized)
	}

	b.Aspects = len(aspects)
	b.Score = float64(b.Aspects) + mentionWeight*float64(b.Mentions)
	return b
}

// generalize adds every noun whose hypernyms reach a category keyword to
// aspects, once per distinct noun.
func (s *Scorer) generalize(c *category, text string, aspects map[string]struct{}) map[string]string {
	tokens, err := s.tagger.Tag(text)
	if err != nil {
		s.logger.Warn("tagging failed, keyword hits only", zap.Error(err))
		return nil
	}

	var mapped map[string]string
	for _, tok := range tokens {
		if !isNoun(tok.Tag) {
			continue
		}
		word := strings.ToLower(tok.Text)
		if _, seen := aspects[word]; seen {
			continue
		}
		kw, ok := c.firstKeyword(s.gen.Ancestors(word))
		if !ok {
			continue
		}
		if mapped == nil {
			mapped = make(map[string]string)
		}
		aspects[word] = struct{}{}
		mapped[word] = kw
	}
	return mapped
}
