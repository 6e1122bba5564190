package pricing

import (
	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/errs"
)

// DiscreteAnnuity values the legs only on the trade's schedule dates, using
// default probabilities implied by a risky curve built as bond curve plus
// spread curve.
type DiscreteAnnuity struct{}

// PresentValue returns default leg minus premium leg.
func (p DiscreteAnnuity) PresentValue(trade cds.CreditDefaultSwap, discount, bond, spread *curve.Curve) (cds.CurrencyAmount, error) {
	legs, err := p.Legs(trade, discount, bond, spread)
	if err != nil {
		return cds.CurrencyAmount{}, err
	}
	return legs.PresentValue, nil
}

// Legs values both legs of trade. Payments at negative times are skipped.
func (DiscreteAnnuity) Legs(trade cds.CreditDefaultSwap, discount, bond, spread *curve.Curve) (Legs, error) {
	const op = "DiscreteAnnuity.Legs"
	if discount == nil || bond == nil || spread == nil {
		return Legs{}, errs.InvalidInput(op, "discount, bond and spread curves are required")
	}
	if err := trade.Validate(); err != nil {
		return Legs{}, err
	}
	lgd := trade.LossGivenDefault()
	if lgd == 0 {
		return Legs{}, errs.InvalidInput(op, "recovery rate 1 leaves default probability undefined")
	}

	risky := curve.Combine(bond, spread)
	pd := func(t float64) float64 {
		return (1 - risky.DiscountFactor(t)/bond.DiscountFactor(t)) / lgd
	}

	var premiumLeg float64
	for _, c := range trade.Premiums {
		if c.Time < 0 {
			continue
		}
		premiumLeg += c.Amount * (1 - pd(c.Time)) * discount.DiscountFactor(c.Time)
	}

	var defaultLeg, prior float64
	for _, c := range trade.Payouts {
		if c.Time < 0 {
			continue
		}
		q := pd(c.Time)
		defaultLeg += c.Amount * (q - prior) * discount.DiscountFactor(c.Time)
		prior = q
	}

	if err := checkFinite(op, premiumLeg, defaultLeg); err != nil {
		return Legs{}, err
	}
	return Legs{
		PremiumLeg:   premiumLeg,
		DefaultLeg:   defaultLeg,
		PresentValue: cds.CurrencyAmount{Currency: trade.Currency, Amount: defaultLeg - premiumLeg},
	}, nil
}
