package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
)

const graphYAML = `
synsets:
  - {id: food.n.01, lemmas: [food]}
  - {id: dish.n.02, lemmas: [dish], hypernyms: [food.n.01]}
  - {id: pasta.n.02, lemmas: [pasta], hypernyms: [dish.n.02]}
  - {id: lasagna.n.01, lemmas: [lasagna, lasagne], hypernyms: [pasta.n.02]}
`

func openTemp(t *testing.T) *Store {
	t.Helper()
	st, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "lex.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestImportAndLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	g, err := lexnet.Parse([]byte(graphYAML))
	require.NoError(t, err)

	n, err := st.Import(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.Stats(), stats)

	loaded, err := st.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, g.Ancestors("lasagne"), loaded.Ancestors("lasagne"))
	assert.Equal(t, []string{"lasagna", "pasta", "dish", "food"}, loaded.Ancestors("lasagnas"))
}

func TestImportIsIdempotent(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	g, err := lexnet.Parse([]byte(graphYAML))
	require.NoError(t, err)

	_, err = st.Import(ctx, g)
	require.NoError(t, err)
	_, err = st.Import(ctx, g)
	require.NoError(t, err)

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, lexnet.Stats{Synsets: 4, Lemmas: 5, Edges: 3}, stats)
}

func TestImportMergesGraphs(t *testing.T) {
	ctx := context.Background()
	st := openTemp(t)

	first, err := lexnet.Parse([]byte(graphYAML))
	require.NoError(t, err)
	second, err := lexnet.Parse([]byte(`
synsets:
  - {id: food.n.01, lemmas: [food]}
  - {id: pizza.n.01, lemmas: [pizza], hypernyms: [food.n.01]}
`))
	require.NoError(t, err)

	_, err = st.Import(ctx, first)
	require.NoError(t, err)
	_, err = st.Import(ctx, second)
	require.NoError(t, err)

	loaded, err := st.LoadGraph(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"pizza", "food"}, loaded.Ancestors("pizza"))
	assert.Contains(t, loaded.Ancestors("lasagna"), "dish")
}

func TestLoadEmptyDatabase(t *testing.T) {
	st := openTemp(t)

	g, err := st.LoadGraph(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lexnet.Stats{}, g.Stats())
	assert.Nil(t, g.Ancestors("food"))
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "lex.db")

	st, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	g, err := lexnet.Parse([]byte(graphYAML))
	require.NoError(t, err)
	_, err = st.Import(ctx, g)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	st, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer st.Close()

	stats, err := st.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Synsets)
}
