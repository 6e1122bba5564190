package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/meenmo/cdslib/cmd/cdsprice/internal/input"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Value a list of trades against shared curves",
		Long: `batch reads {curves, trades} and values every trade concurrently.
A failed trade is reported in its own result; the others are still priced.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("input")
			workers, _ := cmd.Flags().GetInt("workers")
			if workers <= 0 {
				workers = a.cfg.Batch.Workers
			}

			data, err := input.Read(path, a.stdin)
			if err != nil {
				return writeError(a.stdout, fmt.Sprintf("failed to read input: %v", err))
			}
			var in input.BatchInput
			if err := input.Decode(data, &in); err != nil {
				return writeError(a.stdout, err.Error())
			}
			bundle, err := input.Bundle(in.Curves)
			if err != nil {
				return writeError(a.stdout, err.Error())
			}

			runID := uuid.NewString()
			log := a.log.With(zap.String("run_id", runID))
			log.Info("batch started", zap.Int("trades", len(in.Trades)), zap.Int("workers", workers))
			began := time.Now()

			// Curves and trades are read-only here, so workers share them freely.
			results := make([]PricingOutput, len(in.Trades))
			g, ctx := errgroup.WithContext(cmd.Context())
			g.SetLimit(workers)
			for i, tr := range in.Trades {
				i, tr := i, tr
				g.Go(func() error {
					if err := ctx.Err(); err != nil {
						return err
					}
					results[i] = a.priceOne(tr, bundle)
					return nil
				})
			}
			if err := g.Wait(); err != nil {
				return err
			}

			out := BatchOutput{RunID: runID, Results: results}
			for _, r := range results {
				if r.Error != "" {
					out.Failed++
				}
			}
			log.Info("batch finished",
				zap.Int("failed", out.Failed),
				zap.Duration("elapsed", time.Since(began)))

			if err := writeJSON(a.stdout, out); err != nil {
				return err
			}
			if out.Failed > 0 {
				return exitCode(1)
			}
			return nil
		},
	}
	addInputFlag(cmd)
	cmd.Flags().Int("workers", 0, "concurrent valuations (default from config batch.workers)")
	return cmd
}
