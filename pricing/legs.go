// Package pricing values credit default swaps.
//
// Two strategies are provided: AnalyticFlatForward integrates the legs in
// closed form between curve knots, DiscreteAnnuity samples them on the trade's
// schedule dates. Both are pure functions of the trade and the curves.
package pricing

import (
	"math"
	"strings"

	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/errs"
)

// Legs is the leg breakdown of a valuation, in trade currency.
type Legs struct {
	PremiumLeg   float64
	DefaultLeg   float64
	PresentValue cds.CurrencyAmount
}

// Method selects a pricing strategy.
type Method string

const (
	Analytic Method = "analytic"
	Discrete Method = "discrete"
)

// ParseMethod maps a method name from configuration or the command line.
func ParseMethod(s string) (Method, error) {
	switch m := Method(strings.ToLower(strings.TrimSpace(s))); m {
	case Analytic, Discrete:
		return m, nil
	case "":
		return Analytic, nil
	default:
		return "", errs.InvalidInput("ParseMethod", "unknown pricing method %q", s)
	}
}

// Engine prices trades against a curve bundle with either strategy.
type Engine struct {
	Analytic AnalyticFlatForward
	Discrete DiscreteAnnuity
}

// Price values trade with the default Engine.
func Price(method Method, trade cds.CreditDefaultSwap, curves curve.Bundle) (Legs, error) {
	return Engine{}.Price(method, trade, curves)
}

// Price resolves the trade's curves by name and values it with method.
//
// The analytic method uses the discount and survival curves. The discrete
// method treats the survival curve as a spread over the bond curve, which
// defaults to the discount curve when the trade names none.
func (e Engine) Price(method Method, trade cds.CreditDefaultSwap, curves curve.Bundle) (Legs, error) {
	discount, err := curves.Get(trade.DiscountCurve)
	if err != nil {
		return Legs{}, err
	}
	survival, err := curves.Get(trade.SurvivalCurve)
	if err != nil {
		return Legs{}, err
	}

	switch method {
	case Analytic:
		return e.Analytic.Legs(trade, discount, survival)
	case Discrete:
		bond := discount
		if trade.BondCurve != "" {
			if bond, err = curves.Get(trade.BondCurve); err != nil {
				return Legs{}, err
			}
		}
		return e.Discrete.Legs(trade, discount, bond, survival)
	default:
		return Legs{}, errs.InvalidInput("Engine.Price", "unknown pricing method %q", method)
	}
}

// checkFinite rejects legs that overflowed float64, as happens with extreme
// curve rates.
func checkFinite(op string, premiumLeg, defaultLeg float64) error {
	for _, v := range []float64{premiumLeg, defaultLeg} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errs.InvalidInput(op, "legs are not finite (premium %v, default %v); check curve rates", premiumLeg, defaultLeg)
		}
	}
	return nil
}
