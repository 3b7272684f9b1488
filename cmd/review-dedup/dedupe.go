package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/internal/reviewio"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/config"
)

var (
	dedupeInput    string
	dedupeCategory string
	dedupeOutput   string
	dedupeReport   bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deduplicate the reviews of one business",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		logger := zap.L()

		reviews, err := reviewio.LoadReviews(dedupeInput, logger)
		if err != nil {
			return eris.Wrap(err, "load reviews")
		}

		d, _, err := config.BuildDeduplicator(ctx, cfg, logger)
		if err != nil {
			return eris.Wrap(err, "build deduplicator")
		}

		report, err := d.Run(reviews, dedupeCategory)
		if err != nil {
			return eris.Wrap(err, "deduplicate")
		}

		logger.Info("dedupe complete",
			zap.String("run_id", report.RunID),
			zap.Int("reviews", report.Reviews),
			zap.Int("clusters", len(report.Clusters)),
			zap.Int("kept", len(report.Output)))

		if dedupeReport {
			return reviewio.WriteJSONFile(dedupeOutput, cmd.OutOrStdout(), report)
		}
		return reviewio.WriteJSONFile(dedupeOutput, cmd.OutOrStdout(), report.Output)
	},
}

func init() {
	dedupeCmd.Flags().StringVar(&dedupeInput, "input", "", "review file, one per line or JSONL (required)")
	dedupeCmd.Flags().StringVar(&dedupeCategory, "category", "", "business category (required)")
	dedupeCmd.Flags().StringVar(&dedupeOutput, "output", "", "output file (default stdout)")
	dedupeCmd.Flags().BoolVar(&dedupeReport, "report", false, "write the full cluster report instead of the kept reviews")
	_ = dedupeCmd.MarkFlagRequired("input")
	_ = dedupeCmd.MarkFlagRequired("category")
	rootCmd.AddCommand(dedupeCmd)
}
