package main

import (
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MikejR2904/opinion-quality-filter/internal/reviewio"
	"github.com/MikejR2904/opinion-quality-filter/pkg/opinion/config"
)

var (
	batchInput       string
	batchOutput      string
	batchCategory    string
	batchConcurrency int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Deduplicate the reviews of many businesses concurrently",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		logger := zap.L()

		records, err := reviewio.LoadJSONL(batchInput, logger)
		if err != nil {
			return eris.Wrap(err, "load records")
		}
		batches := reviewio.GroupByBusiness(records, batchCategory)

		if batchConcurrency > 0 {
			cfg.Batch.Concurrency = batchConcurrency
		}
		d, _, err := config.BuildDeduplicator(ctx, cfg, logger)
		if err != nil {
			return eris.Wrap(err, "build deduplicator")
		}

		results, err := d.DeduplicateBatch(ctx, batches)
		if err != nil {
			return eris.Wrap(err, "deduplicate batch")
		}

		failed := 0
		for _, r := range results {
			if r.Err != nil {
				failed++
			}
		}
		logger.Info("batch complete",
			zap.Int("records", len(records)),
			zap.Int("businesses", len(results)),
			zap.Int("failed", failed))

		return reviewio.WriteJSONFile(batchOutput, cmd.OutOrStdout(), results)
	},
}

func init() {
	batchCmd.Flags().StringVar(&batchInput, "input", "", "JSONL file of {business_id, category, text} records (required)")
	batchCmd.Flags().StringVar(&batchOutput, "output", "", "output file (default stdout)")
	batchCmd.Flags().StringVar(&batchCategory, "category", "", "category for businesses whose records name none")
	batchCmd.Flags().IntVar(&batchConcurrency, "concurrency", 0, "concurrent businesses (default batch.concurrency)")
	_ = batchCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(batchCmd)
}
