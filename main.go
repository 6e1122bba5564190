package main

import (
	"fmt"
	"time"

	"github.com/meenmo/cdslib/calendar"
	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/pricing"
	"github.com/meenmo/cdslib/utils"
)

func main() {
	valuation := time.Date(2025, 11, 21, 0, 0, 0, 0, time.UTC)
	maturity := time.Date(2030, 12, 20, 0, 0, 0, 0, time.UTC)

	discount, err := curve.New(
		[]float64{0.25, 0.5, 1, 2, 3, 5, 7, 10},
		[]float64{0.0431, 0.0422, 0.0405, 0.0381, 0.0372, 0.0375, 0.0383, 0.0396},
		0,
	)
	if err != nil {
		panic(err)
	}
	survival, err := curve.New(
		[]float64{0.5, 1, 3, 5, 7, 10},
		[]float64{0.0105, 0.0118, 0.0152, 0.0181, 0.0195, 0.0204},
		0,
	)
	if err != nil {
		panic(err)
	}

	notional := 10_000_000.0
	spread := 0.01
	recovery := 0.4
	premiums, payouts, err := cds.BuildSchedule(cds.ScheduleParams{
		ValuationDate:   valuation,
		StartDate:       time.Date(2025, 9, 22, 0, 0, 0, 0, time.UTC),
		MaturityDate:    maturity,
		FrequencyMonths: 3,
		Calendar:        calendar.New(calendar.USD),
		Notional:        notional,
		Spread:          spread,
		RecoveryRate:    recovery,
	})
	if err != nil {
		panic(err)
	}

	trade, err := cds.New(cds.Terms{
		Currency:         "USD",
		DiscountCurve:    "USD",
		SurvivalCurve:    "ACME",
		Premiums:         premiums,
		Payouts:          payouts,
		ProtectionStart:  0,
		Maturity:         utils.TimeBetween(valuation, maturity),
		StepIn:           1.0 / 365.0,
		Notional:         notional,
		Spread:           spread,
		RecoveryRate:     recovery,
		AccrualOnDefault: true,
	})
	if err != nil {
		panic(err)
	}

	legs, err := pricing.AnalyticFlatForward{}.Legs(trade, discount, survival)
	if err != nil {
		panic(err)
	}
	par, err := pricing.AnalyticFlatForward{}.ParSpread(trade, discount, survival)
	if err != nil {
		panic(err)
	}

	fmt.Printf("Premium leg: %.2f\n", legs.PremiumLeg)
	fmt.Printf("Default leg: %.2f\n", legs.DefaultLeg)
	fmt.Printf("PV: %s\n", legs.PresentValue)
	fmt.Printf("Par spread: %.2f bp\n", par*10000)
}
