// Package input decodes cdsprice request files into trades and curve bundles.
//
// Conventions:
// - rates are in percent (e.g., 2.50 means 2.50%)
// - spreads are in bp (e.g., 100 means 1%)
// - curve times are ACT/365F years from the valuation date
package input

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meenmo/cdslib/calendar"
	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/utils"
)

const defaultCashSettleDays = 3

// CurveInput is a zero curve given by knots.
type CurveInput struct {
	Times      []float64 `yaml:"times"`
	RatesPct   []float64 `yaml:"rates"`
	OffsetDays float64   `yaml:"offset_days"` // settlement or step-in lag in calendar days
}

// TradeInput describes one CDS.
type TradeInput struct {
	ID            string `yaml:"id"`
	ValuationDate string `yaml:"valuation_date"` // "2024-03-20"
	StartDate     string `yaml:"start_date"`     // optional, defaults to valuation_date
	MaturityDate  string `yaml:"maturity_date"`
	StepInDate    string `yaml:"step_in_date"` // optional, defaults to valuation_date + 1 calendar day

	Currency     string  `yaml:"currency"`
	Notional     float64 `yaml:"notional"`
	SpreadBP     float64 `yaml:"spread_bp"`
	RecoveryRate float64 `yaml:"recovery_rate"`

	FrequencyMonths       int      `yaml:"frequency_months"`        // default 3
	PayoutFrequencyMonths int      `yaml:"payout_frequency_months"` // default frequency_months
	Calendar              string   `yaml:"calendar"`
	Holidays              []string `yaml:"holidays"`
	BusinessDayConvention string   `yaml:"business_day_convention"` // FOLLOWING (default), MODIFIED_FOLLOWING, NONE
	DayCount              string   `yaml:"day_count"`               // coupon basis, default ACT/360
	CashSettleDays        *int     `yaml:"cash_settle_days"`        // business days, default 3
	AccrualOnDefault      bool     `yaml:"accrual_on_default"`

	DiscountCurve string `yaml:"discount_curve"`
	SurvivalCurve string `yaml:"survival_curve"`
	BondCurve     string `yaml:"bond_curve"`

	// Method overrides the configured pricing method.
	Method string `yaml:"method"`

	// TargetPV is the upfront amount used by the implied command.
	TargetPV *float64 `yaml:"target_pv"`
}

// PricingInput is a single-trade request.
type PricingInput struct {
	Curves     map[string]CurveInput `yaml:"curves"`
	TradeInput `yaml:",inline"`
}

// BatchInput prices many trades against one set of curves.
type BatchInput struct {
	Curves map[string]CurveInput `yaml:"curves"`
	Trades []TradeInput          `yaml:"trades"`
}

// Read returns the contents of path, or all of stdin when path is empty.
func Read(path string, stdin io.Reader) ([]byte, error) {
	if strings.TrimSpace(path) != "" {
		return os.ReadFile(path)
	}
	return io.ReadAll(stdin)
}

// Decode parses YAML (or JSON) into v, rejecting unknown fields.
func Decode(data []byte, v any) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("failed to parse input: %w", err)
	}
	return nil
}

// Bundle builds the named curves.
func Bundle(curves map[string]CurveInput) (curve.Bundle, error) {
	out := make(curve.Bundle, len(curves))
	for name, c := range curves {
		rates := make([]float64, len(c.RatesPct))
		for i, r := range c.RatesPct {
			rates[i] = r / 100.0
		}
		built, err := curve.New(c.Times, rates, c.OffsetDays/365.0)
		if err != nil {
			return nil, fmt.Errorf("curve %q: %w", name, err)
		}
		out[name] = built
	}
	return out, nil
}

// Trade builds the CDS, rolling its schedules from the dates.
func (in TradeInput) Trade() (cds.CreditDefaultSwap, error) {
	valuation, err := parseDate("valuation_date", in.ValuationDate, time.Time{})
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}
	start, err := parseDate("start_date", in.StartDate, valuation)
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}
	maturity, err := parseDate("maturity_date", in.MaturityDate, time.Time{})
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}
	stepIn, err := parseDate("step_in_date", in.StepInDate, valuation.AddDate(0, 0, 1))
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}
	cal, err := in.calendar()
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}
	conv, err := calendar.ParseConvention(in.BusinessDayConvention)
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}

	freq := in.FrequencyMonths
	if freq == 0 {
		freq = 3
	}
	spread := in.SpreadBP / 10000.0

	premiums, payouts, err := cds.BuildSchedule(cds.ScheduleParams{
		ValuationDate:         valuation,
		StartDate:             start,
		MaturityDate:          maturity,
		FrequencyMonths:       freq,
		PayoutFrequencyMonths: in.PayoutFrequencyMonths,
		Calendar:              cal,
		Convention:            conv,
		DayCount:              strings.ToUpper(strings.TrimSpace(in.DayCount)),
		Notional:              in.Notional,
		Spread:                spread,
		RecoveryRate:          in.RecoveryRate,
	})
	if err != nil {
		return cds.CreditDefaultSwap{}, err
	}

	return cds.New(cds.Terms{
		Currency:         in.Currency,
		DiscountCurve:    in.DiscountCurve,
		SurvivalCurve:    in.SurvivalCurve,
		BondCurve:        in.BondCurve,
		Premiums:         premiums,
		Payouts:          payouts,
		ProtectionStart:  utils.TimeBetween(valuation, start),
		Maturity:         utils.TimeBetween(valuation, maturity),
		StepIn:           utils.TimeBetween(valuation, stepIn),
		Notional:         in.Notional,
		Spread:           spread,
		RecoveryRate:     in.RecoveryRate,
		AccrualOnDefault: in.AccrualOnDefault,
	})
}

// CashSettleDate is the valuation date plus cash_settle_days business days on
// the trade calendar.
func (in TradeInput) CashSettleDate() (time.Time, error) {
	valuation, err := parseDate("valuation_date", in.ValuationDate, time.Time{})
	if err != nil {
		return time.Time{}, err
	}
	cal, err := in.calendar()
	if err != nil {
		return time.Time{}, err
	}
	days := defaultCashSettleDays
	if in.CashSettleDays != nil {
		days = *in.CashSettleDays
	}
	if days < 0 {
		return time.Time{}, fmt.Errorf("cash_settle_days %d must not be negative", days)
	}
	return cal.AddBusinessDays(valuation, days), nil
}

func (in TradeInput) calendar() (calendar.Calendar, error) {
	holidays := make([]time.Time, 0, len(in.Holidays))
	for _, h := range in.Holidays {
		d, err := utils.ParseDate(h)
		if err != nil {
			return calendar.Calendar{}, fmt.Errorf("invalid holiday: %w", err)
		}
		holidays = append(holidays, d)
	}
	return calendar.Parse(in.Calendar, holidays...), nil
}

func parseDate(field, s string, fallback time.Time) (time.Time, error) {
	if strings.TrimSpace(s) == "" {
		if fallback.IsZero() {
			return time.Time{}, fmt.Errorf("%s is required", field)
		}
		return fallback, nil
	}
	d, err := utils.ParseDate(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return d, nil
}
