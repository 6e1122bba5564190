package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/cdslib/cmd/cdsprice/internal/input"
)

func newImpliedCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "implied",
		Short: "Solve the flat hazard rate that reproduces an upfront amount",
		Long: `implied reads a single-trade request with target_pv set and returns the flat
hazard rate at which the analytic present value equals it. Only the discount
curve is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, _ := cmd.Flags().GetString("input")
			data, err := input.Read(path, a.stdin)
			if err != nil {
				return writeError(a.stdout, fmt.Sprintf("failed to read input: %v", err))
			}
			var in input.PricingInput
			if err := input.Decode(data, &in); err != nil {
				return writeError(a.stdout, err.Error())
			}

			out := ImpliedOutput{ID: in.ID, TargetPV: in.TargetPV}
			h, err := a.impliedHazard(in)
			if err != nil {
				a.log.Warn("implied hazard failed", zap.String("id", in.ID), zap.Error(err))
				out.Error = err.Error()
				if werr := writeJSON(a.stdout, out); werr != nil {
					return werr
				}
				return exitCode(1)
			}
			out.HazardRate = &h
			return writeJSON(a.stdout, out)
		},
	}
	addInputFlag(cmd)
	return cmd
}

func (a *app) impliedHazard(in input.PricingInput) (float64, error) {
	if in.TargetPV == nil {
		return 0, fmt.Errorf("target_pv is required")
	}
	bundle, err := input.Bundle(in.Curves)
	if err != nil {
		return 0, err
	}
	trade, err := in.Trade()
	if err != nil {
		return 0, err
	}
	discount, err := bundle.Get(trade.DiscountCurve)
	if err != nil {
		return 0, err
	}

	engine := a.cfg.Pricing.Engine(a.log)
	solver := a.cfg.Solver.Solver(a.log)
	return engine.Analytic.ImpliedHazardRate(solver, trade, discount, *in.TargetPV)
}
