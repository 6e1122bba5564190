package pricing_test

import (
	"errors"
	"math"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/errs"
	"github.com/meenmo/cdslib/pricing"
	"github.com/meenmo/cdslib/rootfind"
)

func flat(t *testing.T, rate float64) *curve.Curve {
	t.Helper()
	c, err := curve.New([]float64{0, 10}, []float64{rate, rate}, 0)
	if err != nil {
		t.Fatalf("curve.New: %v", err)
	}
	return c
}

func quarterly(notional, spread, maturity float64) []cds.Payment {
	var out []cds.Payment
	for i := 1; float64(i)*0.25 <= maturity+1e-12; i++ {
		out = append(out, cds.Payment{Time: float64(i) * 0.25, Amount: notional * spread * 0.25})
	}
	return out
}

func evenPayouts(perYear int, maturity, amount float64) []cds.Payment {
	n := int(math.Round(maturity * float64(perYear)))
	out := make([]cds.Payment, n)
	for i := range out {
		out[i] = cds.Payment{Time: float64(i+1) / float64(perYear), Amount: amount}
	}
	return out
}

// breakEven is a 5y trade priced against a hazard rate of spread/(1-recovery).
func breakEven() cds.CreditDefaultSwap {
	return cds.CreditDefaultSwap{
		Currency:         "USD",
		DiscountCurve:    "USD",
		SurvivalCurve:    "ACME",
		Premiums:         quarterly(1e7, 0.01, 5),
		ProtectionStart:  0,
		Maturity:         5,
		Notional:         1e7,
		Spread:           0.01,
		RecoveryRate:     0.4,
		AccrualOnDefault: true,
	}
}

func TestAnalytic_SingleIntervalClosedForm(t *testing.T) {
	t.Parallel()

	const (
		h, r     = 0.02, 0.03
		maturity = 5.0
		notional = 1e7
		spread   = 0.01
		recovery = 0.4
	)
	trade := cds.CreditDefaultSwap{
		Currency:         "EUR",
		DiscountCurve:    "EUR",
		SurvivalCurve:    "ACME",
		Maturity:         maturity,
		Notional:         notional,
		Spread:           spread,
		RecoveryRate:     recovery,
		AccrualOnDefault: true,
	}

	legs, err := pricing.AnalyticFlatForward{}.Legs(trade, curve.Flat(r, 0), curve.Flat(h, 0))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}

	k := h + r
	wantDefault := notional * (1 - recovery) * h / k * (1 - math.Exp(-k*maturity))
	wantPremium := notional * spread * 365 / 360 * h * ((1/k)/k - (maturity+1/k)/k*math.Exp(-k*maturity))

	if math.Abs(legs.DefaultLeg-wantDefault) > 1e-10*wantDefault {
		t.Fatalf("default leg mismatch: got %.12f want %.12f", legs.DefaultLeg, wantDefault)
	}
	if math.Abs(legs.PremiumLeg-wantPremium) > 1e-10*wantPremium {
		t.Fatalf("premium leg mismatch: got %.12f want %.12f", legs.PremiumLeg, wantPremium)
	}
	if legs.PresentValue.Currency != "EUR" || legs.PresentValue.Amount != legs.PremiumLeg-legs.DefaultLeg {
		t.Fatalf("present value mismatch: %+v", legs.PresentValue)
	}
}

func TestAnalytic_MaturedTradeHasNoDefaultLeg(t *testing.T) {
	t.Parallel()

	trade := cds.CreditDefaultSwap{
		Currency:        "USD",
		DiscountCurve:   "USD",
		SurvivalCurve:   "ACME",
		Premiums:        []cds.Payment{{Time: -0.75, Amount: 25000}, {Time: -0.5, Amount: 25000}},
		ProtectionStart: -1,
		Maturity:        -0.5,
		Notional:        1e7,
		Spread:          0.01,
		RecoveryRate:    0.4,
	}
	legs, err := pricing.AnalyticFlatForward{}.Legs(trade, flat(t, 0.02), flat(t, 0.03))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if legs.DefaultLeg != 0 || legs.PremiumLeg != 0 || legs.PresentValue.Amount != 0 {
		t.Fatalf("matured trade should be worthless: %+v", legs)
	}
}

func TestAnalytic_BreakEvenSpread(t *testing.T) {
	t.Parallel()

	trade := breakEven()
	hazard := trade.Spread / trade.LossGivenDefault()
	legs, err := pricing.AnalyticFlatForward{}.Legs(trade, flat(t, 0.02), flat(t, hazard))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if math.Abs(legs.PresentValue.Amount) > 5e-4*trade.Notional {
		t.Fatalf("expected near break-even: premium %.2f default %.2f pv %.2f",
			legs.PremiumLeg, legs.DefaultLeg, legs.PresentValue.Amount)
	}
	if math.Abs(legs.PremiumLeg/legs.DefaultLeg-1) > 0.01 {
		t.Fatalf("legs differ by more than 1%%: premium %.2f default %.2f", legs.PremiumLeg, legs.DefaultLeg)
	}
}

func TestAnalytic_AccrualOnDefaultAddsPremium(t *testing.T) {
	t.Parallel()

	with := breakEven()
	without := breakEven()
	without.AccrualOnDefault = false

	p := pricing.AnalyticFlatForward{}
	a, err := p.Legs(with, flat(t, 0.02), flat(t, 0.02))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	b, err := p.Legs(without, flat(t, 0.02), flat(t, 0.02))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if !(a.PremiumLeg > b.PremiumLeg) || a.DefaultLeg != b.DefaultLeg {
		t.Fatalf("accrual on default: with %+v without %+v", a, b)
	}
	// Roughly half a quarter of coupon times the default probability.
	if extra := a.PremiumLeg - b.PremiumLeg; extra > 0.01*b.PremiumLeg {
		t.Fatalf("accrual on default too large: %.2f", extra)
	}
}

func TestAnalytic_StepInMovesProtectionStart(t *testing.T) {
	t.Parallel()

	trade := breakEven()
	trade.AccrualOnDefault = false
	moved := trade
	moved.StepIn = 1

	p := pricing.AnalyticFlatForward{}
	a, err := p.Legs(trade, flat(t, 0.02), flat(t, 0.02))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	b, err := p.Legs(moved, flat(t, 0.02), flat(t, 0.02))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}

	// Flat curves: only the first year of protection and coupons drops out.
	k := 0.04
	wantDefault := 1e7 * 0.6 * 0.5 * (math.Exp(-k) - math.Exp(-5*k))
	if math.Abs(b.DefaultLeg-wantDefault) > 1e-6 {
		t.Fatalf("default leg after step-in mismatch: got %.8f want %.8f", b.DefaultLeg, wantDefault)
	}
	if !(b.PremiumLeg < a.PremiumLeg) {
		t.Fatalf("coupons before step-in were not dropped: %.2f >= %.2f", b.PremiumLeg, a.PremiumLeg)
	}
}

func TestAnalytic_LogsLegs(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.DebugLevel)
	p := pricing.AnalyticFlatForward{Logger: zap.New(core)}
	if _, err := p.PresentValue(breakEven(), flat(t, 0.02), flat(t, 0.02)); err != nil {
		t.Fatalf("PresentValue: %v", err)
	}
	entries := logs.FilterMessage("analytic legs").All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["intervals"]; got != int64(1) {
		t.Fatalf("expected a single grid interval, got %v", got)
	}
}

func TestAnalytic_RejectsInvalidInput(t *testing.T) {
	t.Parallel()

	trade := breakEven()
	trade.RecoveryRate = 2
	if _, err := (pricing.AnalyticFlatForward{}).Legs(trade, flat(t, 0.02), flat(t, 0.02)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := (pricing.AnalyticFlatForward{}).Legs(breakEven(), nil, flat(t, 0.02)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for nil curve, got %v", err)
	}
}

func TestAnalytic_UnderflowingSurvivalIsAbsorbing(t *testing.T) {
	t.Parallel()

	// S(5) = exp(-1000) underflows to zero: default is certain inside the
	// single grid interval, so the default leg is the full loss at t=0.
	trade := breakEven()
	legs, err := (pricing.AnalyticFlatForward{}).Legs(trade, flat(t, 0.02), flat(t, 200))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if math.IsNaN(legs.PremiumLeg) || math.IsInf(legs.PremiumLeg, 0) {
		t.Fatalf("premium leg is not finite: %v", legs.PremiumLeg)
	}
	if want := 1e7 * 0.6; math.Abs(legs.DefaultLeg-want) > 1e-6 {
		t.Fatalf("default leg mismatch: got %.6f want %.6f", legs.DefaultLeg, want)
	}
	if legs.PremiumLeg <= 0 || legs.PremiumLeg > 1e3 {
		t.Fatalf("premium leg should be a small accrued amount, got %.6f", legs.PremiumLeg)
	}
}

func TestLegs_RejectOverflow(t *testing.T) {
	t.Parallel()

	// exp(400*t) leaves float64 range well before maturity.
	discount := flat(t, -400)
	if _, err := (pricing.AnalyticFlatForward{}).Legs(breakEven(), discount, flat(t, 0.02)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("analytic: expected ErrInvalidInput, got %v", err)
	}
	trade := breakEven()
	trade.Payouts = evenPayouts(4, 5, 6e6)
	if _, err := (pricing.DiscreteAnnuity{}).Legs(trade, discount, discount, flat(t, 0.02)); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("discrete: expected ErrInvalidInput, got %v", err)
	}
}

func TestDiscrete_SingleDate(t *testing.T) {
	t.Parallel()

	trade := cds.CreditDefaultSwap{
		Currency:      "USD",
		DiscountCurve: "USD",
		SurvivalCurve: "SPREAD",
		Premiums:      []cds.Payment{{Time: -0.1, Amount: 100}, {Time: 1, Amount: 1}},
		Payouts:       []cds.Payment{{Time: -0.1, Amount: 100}, {Time: 1, Amount: 0.6}},
		Maturity:      1,
		Notional:      1,
		Spread:        0.01,
		RecoveryRate:  0.4,
	}
	legs, err := pricing.DiscreteAnnuity{}.Legs(trade, flat(t, 0.03), flat(t, 0.03), flat(t, 0.02))
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}

	z := math.Exp(-0.03)
	pd := (1 - math.Exp(-(0.03+0.02))/z) / 0.6
	wantPremium := (1 - pd) * z
	wantDefault := 0.6 * pd * z
	if math.Abs(legs.PremiumLeg-wantPremium) > 1e-15 {
		t.Fatalf("premium leg mismatch: got %.15f want %.15f", legs.PremiumLeg, wantPremium)
	}
	if math.Abs(legs.DefaultLeg-wantDefault) > 1e-15 {
		t.Fatalf("default leg mismatch: got %.15f want %.15f", legs.DefaultLeg, wantDefault)
	}
	if legs.PresentValue.Amount != legs.DefaultLeg-legs.PremiumLeg {
		t.Fatalf("present value should be default minus premium: %+v", legs)
	}
}

func TestDiscrete_FullRecoveryIsRejected(t *testing.T) {
	t.Parallel()

	trade := breakEven()
	trade.RecoveryRate = 1
	_, err := pricing.DiscreteAnnuity{}.Legs(trade, flat(t, 0.03), flat(t, 0.03), flat(t, 0.02))
	if !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestDiscreteConvergesToAnalytic(t *testing.T) {
	t.Parallel()

	const h, r = 0.02, 0.03
	discount := flat(t, r)
	survival := flat(t, h)

	base := cds.CreditDefaultSwap{
		Currency:      "USD",
		DiscountCurve: "USD",
		SurvivalCurve: "ACME",
		Premiums:      quarterly(1, 0.01, 5),
		Maturity:      5,
		Notional:      1,
		Spread:        0.01,
		RecoveryRate:  0,
	}
	analytic, err := pricing.AnalyticFlatForward{}.Legs(base, discount, survival)
	if err != nil {
		t.Fatalf("analytic Legs: %v", err)
	}
	if want := 0.4 * (1 - math.Exp(-0.25)); math.Abs(analytic.DefaultLeg-want) > 1e-12 {
		t.Fatalf("analytic default leg mismatch: got %.12f want %.12f", analytic.DefaultLeg, want)
	}

	prevErr := math.Inf(1)
	for _, freq := range []int{4, 12, 52, 365} {
		trade := base
		trade.Payouts = evenPayouts(freq, 5, 1)
		discrete, err := pricing.DiscreteAnnuity{}.Legs(trade, discount, discount, survival)
		if err != nil {
			t.Fatalf("discrete Legs: %v", err)
		}
		diff := math.Abs(discrete.DefaultLeg - analytic.DefaultLeg)
		if !(diff < prevErr) {
			t.Fatalf("frequency %d: error %.3e did not shrink from %.3e", freq, diff, prevErr)
		}
		prevErr = diff

		if freq == 365 {
			if diff > 1e-5 {
				t.Fatalf("daily default leg too far from analytic: %.3e", diff)
			}
			// Opposite sign conventions: the two present values cancel.
			if sum := analytic.PresentValue.Amount + discrete.PresentValue.Amount; math.Abs(sum) > 1e-5 {
				t.Fatalf("present values do not offset: %.3e", sum)
			}
		}
	}
}

func TestEnginePrice(t *testing.T) {
	t.Parallel()

	bundle := curve.Bundle{
		"USD":  flat(t, 0.02),
		"ACME": flat(t, 0.015),
	}
	trade := breakEven()
	trade.Payouts = evenPayouts(12, 5, trade.Notional*trade.LossGivenDefault())

	got, err := pricing.Price(pricing.Analytic, trade, bundle)
	if err != nil {
		t.Fatalf("Price analytic: %v", err)
	}
	want, err := pricing.AnalyticFlatForward{}.Legs(trade, bundle["USD"], bundle["ACME"])
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if got != want {
		t.Fatalf("analytic mismatch: got %+v want %+v", got, want)
	}

	got, err = pricing.Price(pricing.Discrete, trade, bundle)
	if err != nil {
		t.Fatalf("Price discrete: %v", err)
	}
	want, err = pricing.DiscreteAnnuity{}.Legs(trade, bundle["USD"], bundle["USD"], bundle["ACME"])
	if err != nil {
		t.Fatalf("Legs: %v", err)
	}
	if got != want {
		t.Fatalf("discrete mismatch: got %+v want %+v", got, want)
	}

	trade.BondCurve = "USD-BOND"
	if _, err := pricing.Price(pricing.Discrete, trade, bundle); !errors.Is(err, errs.ErrCurveNotFound) {
		t.Fatalf("expected ErrCurveNotFound, got %v", err)
	}
	if _, err := pricing.Price("lattice", breakEven(), bundle); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParseMethod(t *testing.T) {
	t.Parallel()

	cases := map[string]pricing.Method{
		"":          pricing.Analytic,
		"Analytic":  pricing.Analytic,
		" discrete": pricing.Discrete,
	}
	for in, want := range cases {
		got, err := pricing.ParseMethod(in)
		if err != nil || got != want {
			t.Fatalf("ParseMethod(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := pricing.ParseMethod("monte-carlo"); !errors.Is(err, errs.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestParSpread(t *testing.T) {
	t.Parallel()

	p := pricing.AnalyticFlatForward{}
	trade := breakEven()
	discount, survival := flat(t, 0.02), flat(t, 0.025)

	par, err := p.ParSpread(trade, discount, survival)
	if err != nil {
		t.Fatalf("ParSpread: %v", err)
	}
	if !(par > trade.Spread) {
		t.Fatalf("hazard above spread/(1-R) should imply a wider par spread, got %.6f", par)
	}
	pv, err := p.PresentValue(trade.WithSpread(par), discount, survival)
	if err != nil {
		t.Fatalf("PresentValue: %v", err)
	}
	if math.Abs(pv.Amount) > 1e-6 {
		t.Fatalf("PV at par spread not zero: %.9f", pv.Amount)
	}
}

func TestImpliedHazardRate(t *testing.T) {
	t.Parallel()

	p := pricing.AnalyticFlatForward{}
	trade := breakEven()
	discount := flat(t, 0.02)

	target, err := p.PresentValue(trade, discount, curve.Flat(0.03, 0))
	if err != nil {
		t.Fatalf("PresentValue: %v", err)
	}
	h, err := p.ImpliedHazardRate(rootfind.NewSolver(nil), trade, discount, target.Amount)
	if err != nil {
		t.Fatalf("ImpliedHazardRate: %v", err)
	}
	if math.Abs(h-0.03) > 1e-8 {
		t.Fatalf("implied hazard mismatch: got %.12f want 0.03", h)
	}
}

func TestCS01AndIR01(t *testing.T) {
	t.Parallel()

	p := pricing.AnalyticFlatForward{}
	trade := breakEven()
	discount, survival := flat(t, 0.02), flat(t, 0.02)

	base, err := p.PresentValue(trade, discount, survival)
	if err != nil {
		t.Fatalf("PresentValue: %v", err)
	}

	cs01, err := p.CS01(trade, discount, survival)
	if err != nil {
		t.Fatalf("CS01: %v", err)
	}
	bumped, err := p.PresentValue(trade, discount, flat(t, 0.02+pricing.OneBasisPoint))
	if err != nil {
		t.Fatalf("PresentValue: %v", err)
	}
	if want := bumped.Amount - base.Amount; math.Abs(cs01-want) > 1e-6 || !(cs01 < 0) {
		t.Fatalf("CS01 mismatch: got %.6f want %.6f", cs01, want)
	}

	ir01, err := p.IR01(trade, discount, survival)
	if err != nil {
		t.Fatalf("IR01: %v", err)
	}
	bumped, err = p.PresentValue(trade, flat(t, 0.02+pricing.OneBasisPoint), survival)
	if err != nil {
		t.Fatalf("PresentValue: %v", err)
	}
	if want := bumped.Amount - base.Amount; math.Abs(ir01-want) > 1e-6 {
		t.Fatalf("IR01 mismatch: got %.6f want %.6f", ir01, want)
	}
}
