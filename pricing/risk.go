package pricing

import (
	"math"

	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/errs"
	"github.com/meenmo/cdslib/rootfind"
)

// OneBasisPoint is the parallel shift used by CS01 and IR01.
const OneBasisPoint = 1e-4

// Hazard rate search settings for ImpliedHazardRate.
const (
	HazardLower     = 0.0
	HazardUpper     = 5.0
	hazardStep      = 1e-4
	hazardTolerance = 1e-12
	pvTolerance     = 1e-12
)

// ParSpread returns the running spread at which the analytic present value is
// zero. Coupon amounts are assumed proportional to the spread.
func (p AnalyticFlatForward) ParSpread(trade cds.CreditDefaultSwap, discount, survival *curve.Curve) (float64, error) {
	const op = "ParSpread"
	if trade.Spread == 0 {
		return 0, errs.InvalidInput(op, "trade spread is zero")
	}
	legs, err := p.Legs(trade, discount, survival)
	if err != nil {
		return 0, err
	}
	if legs.PremiumLeg == 0 {
		return 0, errs.InvalidInput(op, "premium leg is zero")
	}
	par := trade.Spread * legs.DefaultLeg / legs.PremiumLeg
	if math.IsInf(par, 0) {
		return 0, errs.InvalidInput(op, "par spread overflows: premium leg %v", legs.PremiumLeg)
	}
	return par, nil
}

// ImpliedHazardRate solves for the flat hazard rate whose analytic present
// value equals targetPV. The search starts from spread/(1-recovery).
func (p AnalyticFlatForward) ImpliedHazardRate(solver rootfind.Solver, trade cds.CreditDefaultSwap, discount *curve.Curve, targetPV float64) (float64, error) {
	const op = "ImpliedHazardRate"
	if discount == nil {
		return 0, errs.InvalidInput(op, "discount curve is required")
	}
	if err := trade.Validate(); err != nil {
		return 0, err
	}
	if trade.Notional == 0 {
		return 0, errs.InvalidInput(op, "notional is zero")
	}

	var evalErr error
	f := func(h float64) float64 {
		pv, err := p.PresentValue(trade, discount, curve.Flat(h, 0))
		if err != nil {
			evalErr = err
			return math.NaN()
		}
		return (pv.Amount - targetPV) / trade.Notional
	}

	guess := HazardLower
	if lgd := trade.LossGivenDefault(); lgd > 0 {
		guess = math.Min(math.Max(trade.Spread/lgd, HazardLower), HazardUpper)
	}

	h, err := solver.FindRoot(f, HazardLower, HazardUpper, guess, hazardStep, 0, hazardTolerance, pvTolerance)
	if evalErr != nil {
		return 0, evalErr
	}
	if err != nil {
		return 0, err
	}
	return h, nil
}

// CS01 is the change in analytic present value for a one basis point
// parallel increase of the survival curve.
func (p AnalyticFlatForward) CS01(trade cds.CreditDefaultSwap, discount, survival *curve.Curve) (float64, error) {
	if survival == nil {
		return 0, errs.InvalidInput("CS01", "survival curve is required")
	}
	return p.bump(trade, discount, survival, discount, survival.Shift(OneBasisPoint))
}

// IR01 is the change in analytic present value for a one basis point
// parallel increase of the discount curve.
func (p AnalyticFlatForward) IR01(trade cds.CreditDefaultSwap, discount, survival *curve.Curve) (float64, error) {
	if discount == nil {
		return 0, errs.InvalidInput("IR01", "discount curve is required")
	}
	return p.bump(trade, discount, survival, discount.Shift(OneBasisPoint), survival)
}

func (p AnalyticFlatForward) bump(trade cds.CreditDefaultSwap, discount, survival, bumpedDiscount, bumpedSurvival *curve.Curve) (float64, error) {
	base, err := p.PresentValue(trade, discount, survival)
	if err != nil {
		return 0, err
	}
	bumped, err := p.PresentValue(trade, bumpedDiscount, bumpedSurvival)
	if err != nil {
		return 0, err
	}
	return bumped.Amount - base.Amount, nil
}
