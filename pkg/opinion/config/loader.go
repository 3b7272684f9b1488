package config

import (
	"context"
	"os"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/aspect"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
	lexsqlite "github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet/sqlite"
)

// Loader reads the data files a configuration points at and constructs the
// scoring components.
type Loader struct {
	TablePath    string
	LexnetSource string
	LexnetPath   string
	Tagger       string
	CacheSize    int
	Logger       *zap.Logger
}

// Components holds the loaded components.
type Components struct {
	Table       *aspect.Table
	Graph       *lexnet.Graph
	Tagger      aspect.Tagger // nil when tagging is off
	Scorer      *aspect.Scorer
	GraphSource string
}

// NewLoader creates a loader for cfg.
func NewLoader(cfg *Config, logger *zap.Logger) *Loader {
	return &Loader{
		TablePath:    cfg.Aspect.TablePath,
		LexnetSource: cfg.Lexnet.Source,
		LexnetPath:   cfg.Lexnet.Path,
		Tagger:       cfg.Tagger,
		CacheSize:    cfg.Aspect.CacheSize,
		Logger:       logger,
	}
}

// Load reads all configured data and returns initialized components.
func (l *Loader) Load(ctx context.Context) (*Components, error) {
	logger := l.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	comp := &Components{GraphSource: l.LexnetSource}

	// Aspect table
	var err error
	if l.TablePath != "" {
		comp.Table, err = aspect.LoadTable(l.TablePath)
	} else {
		comp.Table, err = aspect.DefaultTable()
	}
	if err != nil {
		return nil, eris.Wrap(err, "load aspect table")
	}

	// Lexical graph
	comp.Graph, err = l.loadGraph(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "load lexical graph")
	}

	// Tagger
	switch l.Tagger {
	case TaggerProse, "":
		comp.Tagger = aspect.NewProseTagger()
	case TaggerNone:
	default:
		return nil, eris.Wrapf(internalerr.ErrInvalidConfig, "unknown tagger %q", l.Tagger)
	}

	opts := []aspect.Option{aspect.WithLogger(logger), aspect.WithGeneralizer(comp.Graph)}
	if l.CacheSize > 0 {
		opts = append(opts, aspect.WithCacheSize(l.CacheSize))
	}
	if comp.Tagger != nil {
		opts = append(opts, aspect.WithTagger(comp.Tagger))
	}
	comp.Scorer, err = aspect.NewScorer(comp.Table, opts...)
	if err != nil {
		return nil, err
	}

	st := comp.Graph.Stats()
	logger.Debug("components loaded",
		zap.Int("categories", len(comp.Table.Categories())),
		zap.String("lexnet_source", l.LexnetSource),
		zap.Int("synsets", st.Synsets),
		zap.String("tagger", l.Tagger))

	return comp, nil
}

func (l *Loader) loadGraph(ctx context.Context) (*lexnet.Graph, error) {
	switch l.LexnetSource {
	case SourceEmbedded, "":
		return lexnet.Default()
	case SourceYAML:
		return lexnet.LoadFromYAML(l.LexnetPath)
	case SourceSQLite:
		if _, err := os.Stat(l.LexnetPath); err != nil {
			return nil, eris.Wrapf(internalerr.ErrNotFound, "lexical database %s", l.LexnetPath)
		}
		st, err := lexsqlite.OpenSQLite(ctx, l.LexnetPath)
		if err != nil {
			return nil, err
		}
		defer st.Close()
		return st.LoadGraph(ctx)
	default:
		return nil, eris.Wrapf(internalerr.ErrInvalidConfig, "unknown lexnet source %q", l.LexnetSource)
	}
}

// BuildDeduplicator validates cfg, loads its components and returns a ready
// Deduplicator.
func BuildDeduplicator(ctx context.Context, cfg *Config, logger *zap.Logger) (*opinion.Deduplicator, *Components, error) {
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	comp, err := NewLoader(cfg, logger).Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	d, err := opinion.New(opinion.Options{
		Params:      cfg.Params(),
		Scorer:      comp.Scorer,
		Concurrency: cfg.Batch.Concurrency,
		Logger:      logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return d, comp, nil
}
