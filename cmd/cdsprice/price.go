package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/cmd/cdsprice/internal/input"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/pricing"
	"github.com/meenmo/cdslib/utils"
)

func newPriceCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Value one trade",
		Example: `  cdsprice price < request.yaml
  cdsprice price -i request.json --log-level debug`,
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
			bundle, err := input.Bundle(in.Curves)
			if err != nil {
				return writeError(a.stdout, err.Error())
			}

			out := a.priceOne(in.TradeInput, bundle)
			if err := writeJSON(a.stdout, out); err != nil {
				return err
			}
			if out.Error != "" {
				return exitCode(1)
			}
			return nil
		},
	}
	addInputFlag(cmd)
	return cmd
}

// priceOne values a single trade; failures are reported in the output.
func (a *app) priceOne(in input.TradeInput, bundle curve.Bundle) PricingOutput {
	out := PricingOutput{ID: in.ID}
	fail := func(err error) PricingOutput {
		a.log.Warn("valuation failed", zap.String("id", in.ID), zap.Error(err))
		out.Error = err.Error()
		return out
	}

	methodName := in.Method
	if methodName == "" {
		methodName = a.cfg.Pricing.Method
	}
	method, err := pricing.ParseMethod(methodName)
	if err != nil {
		return fail(err)
	}
	out.Method = string(method)

	trade, err := in.Trade()
	if err != nil {
		return fail(err)
	}
	settle, err := in.CashSettleDate()
	if err != nil {
		return fail(err)
	}
	out.CashSettle = settle.Format(utils.DateLayout)

	engine := a.cfg.Pricing.Engine(a.log)
	legs, err := engine.Price(method, trade, bundle)
	if err != nil {
		return fail(err)
	}
	out.Currency = legs.PresentValue.Currency
	out.PremiumLeg = money(legs.PremiumLeg)
	out.DefaultLeg = money(legs.DefaultLeg)
	pv := legs.PresentValue.Decimal(moneyPlaces)
	out.PresentValue = &pv

	if method == pricing.Analytic {
		// Curves resolved successfully in Price above.
		discount, _ := bundle.Get(trade.DiscountCurve)
		survival, _ := bundle.Get(trade.SurvivalCurve)
		risk, err := analyticRisk(engine.Analytic, trade, discount, survival)
		if err != nil {
			return fail(err)
		}
		out.Risk = risk
	}

	a.log.Debug("priced trade",
		zap.String("id", in.ID),
		zap.String("method", out.Method),
		zap.Stringer("pv", legs.PresentValue))
	return out
}

// parSpreadPlaces is the rounding of par_spread_bp in the output.
const parSpreadPlaces = 4

func analyticRisk(p pricing.AnalyticFlatForward, trade cds.CreditDefaultSwap, discount, survival *curve.Curve) (*RiskOutput, error) {
	var risk RiskOutput
	if trade.Spread != 0 {
		par, err := p.ParSpread(trade, discount, survival)
		if err != nil {
			return nil, err
		}
		risk.ParSpreadBP = utils.RoundTo(par*10000.0, parSpreadPlaces)
	}
	cs01, err := p.CS01(trade, discount, survival)
	if err != nil {
		return nil, err
	}
	ir01, err := p.IR01(trade, discount, survival)
	if err != nil {
		return nil, err
	}
	risk.CS01 = *money(cs01)
	risk.IR01 = *money(ir01)
	return &risk, nil
}
