package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/internal/reviewio"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet"
	lexsqlite "github.com/MikejR2904/opinion-quality-filter/pkg/opinion/lexnet/sqlite"
)

var (
	lexdbPath string
	lexdbYAML string
)

var lexdbCmd = &cobra.Command{
	Use:   "lexdb",
	Short: "Manage the SQLite hypernym database",
}

var lexdbImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Import a YAML hypernym graph (default: the embedded graph)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		var (
			g   *lexnet.Graph
			err error
		)
		if lexdbYAML != "" {
			g, err = lexnet.LoadFromYAML(lexdbYAML)
		} else {
			g, err = lexnet.Default()
		}
		if err != nil {
			return eris.Wrap(err, "load graph")
		}

		st, err := lexsqlite.OpenSQLite(ctx, lexdbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		n, err := st.Import(ctx, g)
		if err != nil {
			return err
		}
		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}

		zap.L().Info("lexdb import complete",
			zap.String("db", lexdbPath),
			zap.Int("inserted", n),
			zap.Int("synsets", stats.Synsets),
			zap.Int("lemmas", stats.Lemmas),
			zap.Int("edges", stats.Edges))
		return nil
	},
}

var lexdbStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print synset, lemma and edge counts",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := lexsqlite.OpenSQLite(ctx, lexdbPath)
		if err != nil {
			return err
		}
		defer st.Close()

		stats, err := st.Stats(ctx)
		if err != nil {
			return err
		}
		return reviewio.WriteJSON(cmd.OutOrStdout(), stats)
	},
}

func init() {
	lexdbCmd.PersistentFlags().StringVar(&lexdbPath, "db", "", "SQLite database path (required)")
	_ = lexdbCmd.MarkPersistentFlagRequired("db")
	lexdbImportCmd.Flags().StringVar(&lexdbYAML, "yaml", "", "YAML graph file")

	lexdbCmd.AddCommand(lexdbImportCmd, lexdbStatsCmd)
	rootCmd.AddCommand(lexdbCmd)
}
