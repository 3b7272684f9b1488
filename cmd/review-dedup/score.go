package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/internal/reviewio"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/aspect"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/config"
)

var scoreCategory string

var scoreCmd = &cobra.Command{
	Use:   "score TEXT...",
	Short: "Explain the aspect score of review texts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		comp, err := config.NewLoader(cfg, zap.L()).Load(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "load components")
		}

		out := make([]aspect.Breakdown, len(args))
		for i, text := range args {
			out[i] = comp.Scorer.Explain(text, scoreCategory)
		}
		return reviewio.WriteJSON(cmd.OutOrStdout(), out)
	},
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCategory, "category", "", "business category (required)")
	_ = scoreCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(scoreCmd)
}
