package pricing

import (
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/meenmo/cdslib/cds"
	"github.com/meenmo/cdslib/curve"
	"github.com/meenmo/cdslib/errs"
)

// DefaultEpsilon is added to hazard plus forward rate before dividing by it.
const DefaultEpsilon = 1e-50

// Below this exponent the interval integrals switch to their Taylor series.
const seriesThreshold = 1e-3

// AnalyticFlatForward integrates both legs exactly under flat hazard and flat
// forward rates between adjacent knots of the discount and survival curves.
type AnalyticFlatForward struct {
	Epsilon float64
	Logger  *zap.Logger
}

// PresentValue returns premium leg minus default leg.
func (p AnalyticFlatForward) PresentValue(trade cds.CreditDefaultSwap, discount, survival *curve.Curve) (cds.CurrencyAmount, error) {
	legs, err := p.Legs(trade, discount, survival)
	if err != nil {
		return cds.CurrencyAmount{}, err
	}
	return legs.PresentValue, nil
}

// Legs values both legs of trade.
//
// Protection runs from max(ProtectionStart, StepIn, 0) to Maturity. The
// premium leg is the survival-weighted coupons paid after that start plus,
// when AccrualOnDefault is set, the expected coupon accrued up to default,
// with accrual measured from the start of the coupon period that contains
// each interval.
func (p AnalyticFlatForward) Legs(trade cds.CreditDefaultSwap, discount, survival *curve.Curve) (Legs, error) {
	const op = "AnalyticFlatForward.Legs"
	if discount == nil || survival == nil {
		return Legs{}, errs.InvalidInput(op, "discount and survival curves are required")
	}
	if err := trade.Validate(); err != nil {
		return Legs{}, err
	}

	eps := p.Epsilon
	if eps == 0 {
		eps = DefaultEpsilon
	}

	start := math.Max(math.Max(trade.ProtectionStart, trade.StepIn), 0)
	grid := integrationGrid(discount, survival, start, trade.Maturity)

	var defaultLeg float64
	if trade.Maturity >= 0 {
		for i := 1; i < len(grid); i++ {
			iv := newInterval(grid[i-1], grid[i], discount, survival)
			defaultLeg += iv.protection(eps)
		}
		defaultLeg *= trade.Notional * trade.LossGivenDefault()
	}

	var premiumLeg float64
	for _, c := range trade.Premiums {
		if c.Time > start {
			premiumLeg += c.Amount * survival.DiscountFactor(c.Time) * discount.DiscountFactor(c.Time)
		}
	}

	accrualIntervals := 0
	if trade.AccrualOnDefault && trade.Maturity >= 0 {
		periods := accrualStarts(trade)
		couponGrid := curve.MergeTimes(grid, couponTimes(trade.Premiums, start, trade.Maturity))
		accrualRate := trade.Notional * trade.Spread * 365 / 360

		var accrued float64
		for i := 1; i < len(couponGrid); i++ {
			iv := newInterval(couponGrid[i-1], couponGrid[i], discount, survival)
			accrued += iv.accrual(periodStart(periods, iv.t0), eps)
		}
		premiumLeg += accrualRate * accrued
		accrualIntervals = len(couponGrid) - 1
	}

	if err := checkFinite(op, premiumLeg, defaultLeg); err != nil {
		return Legs{}, err
	}

	p.logger().Debug("analytic legs",
		zap.Int("intervals", max(len(grid)-1, 0)),
		zap.Int("accrual_intervals", accrualIntervals),
		zap.Float64("premium_leg", premiumLeg),
		zap.Float64("default_leg", defaultLeg))

	return Legs{
		PremiumLeg:   premiumLeg,
		DefaultLeg:   defaultLeg,
		PresentValue: cds.CurrencyAmount{Currency: trade.Currency, Amount: premiumLeg - defaultLeg},
	}, nil
}

func (p AnalyticFlatForward) logger() *zap.Logger {
	if p.Logger == nil {
		return zap.NewNop()
	}
	return p.Logger
}

// integrationGrid is start, the knots of both curves strictly inside
// (start, maturity), and maturity. It is just [start] once maturity <= start.
func integrationGrid(discount, survival *curve.Curve, start, maturity float64) []float64 {
	knots := curve.MergeTimes(discount.KnotTimes(), survival.KnotTimes())
	grid := make([]float64, 0, len(knots)+2)
	grid = append(grid, start)
	for _, t := range knots {
		if t > start && t < maturity {
			grid = append(grid, t)
		}
	}
	if maturity > start {
		grid = append(grid, maturity)
	}
	return grid
}

// couponTimes returns the payment times strictly inside (start, maturity).
func couponTimes(premiums []cds.Payment, start, maturity float64) []float64 {
	out := make([]float64, 0, len(premiums))
	for _, c := range premiums {
		if c.Time > start && c.Time < maturity && (len(out) == 0 || c.Time > out[len(out)-1]) {
			out = append(out, c.Time)
		}
	}
	return out
}

// accrualStarts lists the coupon period start times: protection start, then
// every coupon date.
func accrualStarts(trade cds.CreditDefaultSwap) []float64 {
	out := make([]float64, 0, len(trade.Premiums)+1)
	out = append(out, trade.ProtectionStart)
	for _, c := range trade.Premiums {
		if c.Time > out[len(out)-1] {
			out = append(out, c.Time)
		}
	}
	return out
}

// periodStart is the last accrual start at or before t.
func periodStart(starts []float64, t float64) float64 {
	i := sort.Search(len(starts), func(i int) bool { return starts[i] > t })
	if i == 0 {
		return starts[0]
	}
	return starts[i-1]
}

// interval holds the flat hazard and forward rates implied between two grid points.
//
// When the survival factor underflows to zero inside the interval, default is
// certain before t1: the interval is absorbing and pays S0·Z0 at t0.
type interval struct {
	t0, dt       float64
	lambda, rate float64
	s0, z0       float64
	absorbing    bool
}

func newInterval(t0, t1 float64, discount, survival *curve.Curve) interval {
	s0, s1 := survival.DiscountFactor(t0), survival.DiscountFactor(t1)
	z0, z1 := discount.DiscountFactor(t0), discount.DiscountFactor(t1)
	dt := t1 - t0
	switch {
	case s0 == 0 || z0 == 0:
		// Nothing left to protect or discount.
		return interval{t0: t0, dt: dt}
	case s1 == 0:
		return interval{t0: t0, dt: dt, s0: s0, z0: z0, absorbing: true}
	case z1 == 0:
		return interval{t0: t0, dt: dt}
	}
	return interval{
		t0:     t0,
		dt:     dt,
		lambda: math.Log(s0/s1) / dt,
		rate:   math.Log(z0/z1) / dt,
		s0:     s0,
		z0:     z0,
	}
}

// protection is λ/k·(1-exp(-k·dt))·S0·Z0 with k = λ+r+eps.
func (iv interval) protection(eps float64) float64 {
	if iv.absorbing {
		return iv.s0 * iv.z0
	}
	k := iv.lambda + iv.rate + eps
	return iv.lambda * iv.dt * phi1(k*iv.dt) * iv.s0 * iv.z0
}

// accrual is the integral over the interval of (t-a)·λ·S(t)·Z(t), i.e.
// λ·S0·Z0·[(u0+1/k)/k - (u1+1/k)/k·exp(-k·dt)] with u = t-a, rearranged so it
// stays accurate as k·dt goes to zero.
func (iv interval) accrual(a, eps float64) float64 {
	u0 := iv.t0 - a
	if iv.absorbing {
		return iv.s0 * iv.z0 * u0
	}
	k := iv.lambda + iv.rate + eps
	x := k * iv.dt
	return iv.lambda * iv.s0 * iv.z0 * (u0*iv.dt*phi1(x) + iv.dt*iv.dt*phi2(x))
}

// phi1 is (1-exp(-x))/x.
func phi1(x float64) float64 {
	if math.Abs(x) < seriesThreshold {
		return 1 - x/2 + x*x/6 - x*x*x/24
	}
	return -math.Expm1(-x) / x
}

// phi2 is (1-exp(-x)·(1+x))/x².
func phi2(x float64) float64 {
	if math.Abs(x) < seriesThreshold {
		return 0.5 - x/3 + x*x/8 - x*x*x/30
	}
	return (-math.Expm1(-x) - x*math.Exp(-x)) / (x * x)
}
