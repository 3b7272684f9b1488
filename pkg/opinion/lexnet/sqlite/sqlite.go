// Package sqlite persists a lexnet hierarchy in a SQLite database so a full
// WordNet export can be imported once and loaded without re-parsing YAML.
package sqlite

import (
	"context"
	"database/sql"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
)

// Store is a SQLite-backed synset table.
type Store struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path with WAL mode and
// foreign keys enabled.
func OpenSQLite(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrapf(err, "lexdb: open %s", path)
	}

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA foreign_keys=ON"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "lexdb: %s", pragma)
		}
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS synsets (
	id TEXT PRIMARY KEY
);

CREATE TABLE IF NOT EXISTS lemmas (
	lemma TEXT NOT NULL,
	synset_id TEXT NOT NULL,
	PRIMARY KEY(lemma, synset_id),
	FOREIGN KEY(synset_id) REFERENCES synsets(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_lemmas_lemma ON lemmas(lemma);

CREATE TABLE IF NOT EXISTS hypernyms (
	synset_id TEXT NOT NULL,
	hypernym_id TEXT NOT NULL,
	PRIMARY KEY(synset_id, hypernym_id),
	FOREIGN KEY(synset_id) REFERENCES synsets(id) ON DELETE CASCADE,
	FOREIGN KEY(hypernym_id) REFERENCES synsets(id) ON DELETE CASCADE
);
`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return eris.Wrap(err, "lexdb: init schema")
	}
	return nil
}

// Import writes every synset of g in one transaction. Existing rows are
// kept, so importing several graphs merges them. It returns the number of
// synsets written.
func (s *Store) Import(ctx context.Context, g *lexnet.Graph) (int, error) {
	synsets := g.Synsets()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "lexdb: begin import")
	}
	defer tx.Rollback()

	synStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO synsets (id) VALUES (?)`)
	if err != nil {
		return 0, eris.Wrap(err, "lexdb: prepare synsets")
	}
	defer synStmt.Close()

	lemmaStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO lemmas (lemma, synset_id) VALUES (?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "lexdb: prepare lemmas")
	}
	defer lemmaStmt.Close()

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO hypernyms (synset_id, hypernym_id) VALUES (?, ?)`)
	if err != nil {
		return 0, eris.Wrap(err, "lexdb: prepare hypernyms")
	}
	defer edgeStmt.Close()

	// Nodes first so edge foreign keys resolve.
	for _, syn := range synsets {
		if _, err := synStmt.ExecContext(ctx, syn.ID); err != nil {
			return 0, eris.Wrapf(err, "lexdb: insert synset %s", syn.ID)
		}
		for _, lemma := range syn.Lemmas {
			if _, err := lemmaStmt.ExecContext(ctx, lemma, syn.ID); err != nil {
				return 0, eris.Wrapf(err, "lexdb: insert lemma %s", lemma)
			}
		}
	}
	for _, syn := range synsets {
		for _, h := range syn.Hypernyms {
			if _, err := edgeStmt.ExecContext(ctx, syn.ID, h); err != nil {
				return 0, eris.Wrapf(err, "lexdb: insert edge %s -> %s", syn.ID, h)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "lexdb: commit import")
	}
	return len(synsets), nil
}

// LoadGraph reads the whole hierarchy back into memory.
func (s *Store) LoadGraph(ctx context.Context) (*lexnet.Graph, error) {
	lemmas, err := s.groupBy(ctx, `SELECT synset_id, lemma FROM lemmas ORDER BY synset_id, rowid`)
	if err != nil {
		return nil, err
	}
	edges, err := s.groupBy(ctx, `SELECT synset_id, hypernym_id FROM hypernyms ORDER BY synset_id, rowid`)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM synsets ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "lexdb: query synsets")
	}
	defer rows.Close()

	g := lexnet.New()
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "lexdb: scan synset")
		}
		if err := g.Add(lexnet.Synset{ID: id, Lemmas: lemmas[id], Hypernyms: edges[id]}); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "lexdb: iterate synsets")
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Stats counts the stored synsets, distinct lemmas and edges.
func (s *Store) Stats(ctx context.Context) (lexnet.Stats, error) {
	var st lexnet.Stats
	err := s.db.QueryRowContext(ctx, `
SELECT
	(SELECT COUNT(*) FROM synsets),
	(SELECT COUNT(DISTINCT lemma) FROM lemmas),
	(SELECT COUNT(*) FROM hypernyms)
`).Scan(&st.Synsets, &st.Lemmas, &st.Edges)
	if err != nil {
		return lexnet.Stats{}, eris.Wrap(err, "lexdb: stats")
	}
	return st, nil
}

func (s *Store) groupBy(ctx context.Context, query string) (map[string][]string, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "lexdb: query")
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var key, val string
		if err := rows.Scan(&key, &val); err != nil {
			return nil, eris.Wrap(err, "lexdb: scan")
		}
		out[key] = append(out[key], val)
	}
	return out, rows.Err()
}
