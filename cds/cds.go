// Package cds defines the credit default swap trade and its cash-flow schedules.
package cds

import (
	"math"
	"strings"

	"github.com/meenmo/cdslib/errs"
)

// Payment is a scheduled amount at a time measured in ACT/365F years from the
// valuation date. Past payments have negative times.
type Payment struct {
	Time   float64
	Amount float64
}

// CreditDefaultSwap is a single-name CDS as seen by the pricers.
//
// Curves are referenced by name and resolved against a curve.Bundle at pricing
// time. Premiums are the fixed coupons the protection buyer pays; Payouts are
// the contingent default nodes used by the discrete pricer, each carrying the
// amount paid if default happens by that node.
type CreditDefaultSwap struct {
	Currency      string
	DiscountCurve string
	SurvivalCurve string
	BondCurve     string

	Premiums []Payment
	Payouts  []Payment

	ProtectionStart float64
	Maturity        float64
	StepIn          float64

	Notional         float64
	Spread           float64
	RecoveryRate     float64
	AccrualOnDefault bool
}

// Terms is an unvalidated CreditDefaultSwap.
type Terms CreditDefaultSwap

// New validates t and returns a trade that owns copies of its schedules.
func New(t Terms) (CreditDefaultSwap, error) {
	c := CreditDefaultSwap(t)
	c.Premiums = append([]Payment(nil), t.Premiums...)
	c.Payouts = append([]Payment(nil), t.Payouts...)
	c.Currency = strings.ToUpper(strings.TrimSpace(c.Currency))
	if err := c.Validate(); err != nil {
		return CreditDefaultSwap{}, err
	}
	return c, nil
}

// Validate checks the trade terms.
func (c CreditDefaultSwap) Validate() error {
	const op = "cds.Validate"
	if c.Currency == "" {
		return errs.InvalidInput(op, "currency is empty")
	}
	if c.DiscountCurve == "" {
		return errs.InvalidInput(op, "discount curve name is empty")
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"notional", c.Notional},
		{"spread", c.Spread},
		{"protection start", c.ProtectionStart},
		{"maturity", c.Maturity},
		{"step-in", c.StepIn},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			return errs.InvalidInput(op, "%s %v is not finite", f.name, f.v)
		}
	}
	if !(c.RecoveryRate >= 0 && c.RecoveryRate <= 1) {
		return errs.InvalidInput(op, "recovery rate %v outside [0, 1]", c.RecoveryRate)
	}
	if c.ProtectionStart > c.Maturity {
		return errs.InvalidInput(op, "protection start %v after maturity %v", c.ProtectionStart, c.Maturity)
	}
	if err := checkSchedule(op, "premium", c.Premiums); err != nil {
		return err
	}
	return checkSchedule(op, "payout", c.Payouts)
}

func checkSchedule(op, name string, ps []Payment) error {
	for i, p := range ps {
		if math.IsNaN(p.Time) || math.IsInf(p.Time, 0) || math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) {
			return errs.InvalidInput(op, "%s payment %d (%v, %v) is not finite", name, i, p.Time, p.Amount)
		}
		if i > 0 && p.Time < ps[i-1].Time {
			return errs.InvalidInput(op, "%s schedule not sorted at %d: %v < %v", name, i, p.Time, ps[i-1].Time)
		}
	}
	return nil
}

// LossGivenDefault is 1 - RecoveryRate.
func (c CreditDefaultSwap) LossGivenDefault() float64 {
	return 1 - c.RecoveryRate
}

// WithSpread returns a copy of the trade running at spread, with premium
// amounts rescaled in proportion.
func (c CreditDefaultSwap) WithSpread(spread float64) CreditDefaultSwap {
	out := c
	out.Premiums = make([]Payment, len(c.Premiums))
	for i, p := range c.Premiums {
		amount := 0.0
		if c.Spread != 0 {
			amount = p.Amount * (spread / c.Spread)
		}
		out.Premiums[i] = Payment{Time: p.Time, Amount: amount}
	}
	out.Spread = spread
	return out
}
