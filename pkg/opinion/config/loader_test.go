package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/internalerr"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
	lexsqlite "github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet/sqlite"
)

func TestLoaderDefaults(t *testing.T) {
	comp, err := NewLoader(validDefaults(), nil).Load(context.Background())
	require.NoError(t, err)

	assert.Len(t, comp.Table.Categories(), 12)
	assert.NotNil(t, comp.Graph)
	assert.NotNil(t, comp.Tagger)
	assert.NotNil(t, comp.Scorer)
	assert.Greater(t, comp.Scorer.Score("great food", "restaurant"), 0.0)
}

func TestLoaderCustomFiles(t *testing.T) {
	dir := t.TempDir()
	tablePath := filepath.Join(dir, "aspects.yaml")
	graphPath := filepath.Join(dir, "graph.yaml")
	require.NoError(t, os.WriteFile(tablePath, []byte(`
categories:
  - name: bakery
    keywords: [bread, pastry]
`), 0644))
	require.NoError(t, os.WriteFile(graphPath, []byte(`
synsets:
  - {id: pastry.n.01, lemmas: [pastry]}
  - {id: croissant.n.01, lemmas: [croissant], hypernyms: [pastry.n.01]}
`), 0644))

	cfg := validDefaults()
	cfg.Aspect.TablePath = tablePath
	cfg.Lexnet = LexnetConfig{Source: SourceYAML, Path: graphPath}
	cfg.Tagger = TaggerNone

	comp, err := NewLoader(cfg, zap.NewNop()).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bakery"}, comp.Table.Categories())
	assert.Nil(t, comp.Tagger)
	assert.Equal(t, []string{"croissant", "pastry"}, comp.Graph.Ancestors("croissant"))
	assert.InDelta(t, 1.5, comp.Scorer.Score("fresh bread", "bakery"), 1e-9)
}

func TestLoaderSQLiteGraph(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "lex.db")

	g, err := lexnet.Parse([]byte(`
synsets:
  - {id: food.n.01, lemmas: [food]}
  - {id: pizza.n.01, lemmas: [pizza], hypernyms: [food.n.01]}
`))
	require.NoError(t, err)
	st, err := lexsqlite.OpenSQLite(ctx, dbPath)
	require.NoError(t, err)
	_, err = st.Import(ctx, g)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	cfg := validDefaults()
	cfg.Lexnet = LexnetConfig{Source: SourceSQLite, Path: dbPath}
	comp, err := NewLoader(cfg, nil).Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza", "food"}, comp.Graph.Ancestors("pizza"))

	cfg.Lexnet.Path = filepath.Join(t.TempDir(), "missing.db")
	_, err = NewLoader(cfg, nil).Load(ctx)
	assert.True(t, errors.Is(err, internalerr.ErrNotFound))
}

func TestLoaderRejectsUnknownNames(t *testing.T) {
	cfg := validDefaults()
	cfg.Tagger = "spacy"
	_, err := NewLoader(cfg, nil).Load(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))

	cfg = validDefaults()
	cfg.Lexnet.Source = "wordnet"
	_, err = NewLoader(cfg, nil).Load(context.Background())
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}

func TestBuildDeduplicator(t *testing.T) {
	cfg := validDefaults()
	cfg.Dedup.ShingleSize = 3
	cfg.Tagger = TaggerNone

	d, comp, err := BuildDeduplicator(context.Background(), cfg, nil)
	require.NoError(t, err)
	require.NotNil(t, comp)
	assert.Equal(t, 3, d.Params().ShingleSize)

	out, err := d.Deduplicate([]string{"great food", "great food", "whoa okay then"}, "restaurant")
	require.NoError(t, err)
	assert.Equal(t, []string{"great food"}, out)

	cfg.Batch.Concurrency = 0
	_, _, err = BuildDeduplicator(context.Background(), cfg, nil)
	assert.True(t, errors.Is(err, internalerr.ErrInvalidConfig))
}
