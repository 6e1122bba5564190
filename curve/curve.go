package curve

import (
	"math"
	"sort"

	"github.com/meenmo/cdslib/errs"
)

// Curve is a zero-rate curve on an ACT/365F time axis.
//
// Rates are continuously compounded decimals. Between knots the rate is linearly
// interpolated; outside the knot range it is held flat at the boundary value.
// A Curve is never modified after New, so one instance can back any number of
// concurrent valuations. The zero value has no knots and reads as a flat zero
// curve.
type Curve struct {
	times  []float64
	rates  []float64
	offset float64
}

// New creates a curve from knot times and zero rates.
//
// offset is a day-count fraction (typically a step-in or settlement lag) that
// shifts the discounting origin, see DiscountFactor.
func New(times, rates []float64, offset float64) (*Curve, error) {
	if len(times) == 0 {
		return nil, errs.InvalidInput("curve.New", "no knots")
	}
	if len(times) != len(rates) {
		return nil, errs.InvalidInput("curve.New", "%d times but %d rates", len(times), len(rates))
	}
	if !isFinite(offset) {
		return nil, errs.InvalidInput("curve.New", "offset %v is not finite", offset)
	}
	for i := range times {
		if !isFinite(times[i]) || !isFinite(rates[i]) {
			return nil, errs.InvalidInput("curve.New", "knot %d (%v, %v) is not finite", i, times[i], rates[i])
		}
		if i > 0 && times[i] <= times[i-1] {
			return nil, errs.InvalidInput("curve.New", "knot times must be strictly increasing: t[%d]=%v, t[%d]=%v", i-1, times[i-1], i, times[i])
		}
	}

	c := &Curve{
		times:  make([]float64, len(times)),
		rates:  make([]float64, len(rates)),
		offset: offset,
	}
	copy(c.times, times)
	copy(c.rates, rates)
	return c, nil
}

// Flat returns a single-knot curve with a constant rate.
func Flat(rate, offset float64) *Curve {
	return &Curve{times: []float64{0}, rates: []float64{rate}, offset: offset}
}

// Rate returns the interpolated zero rate at t.
func (c *Curve) Rate(t float64) float64 {
	n := len(c.times)
	if n == 0 {
		return 0
	}
	if t <= c.times[0] {
		return c.rates[0]
	}
	if t >= c.times[n-1] {
		return c.rates[n-1]
	}

	// First knot strictly greater than t; t is inside (times[0], times[n-1]).
	i := sort.Search(n, func(i int) bool { return c.times[i] > t })
	t1, t2 := c.times[i-1], c.times[i]
	r1, r2 := c.rates[i-1], c.rates[i]
	return r1 + (r2-r1)*(t-t1)/(t2-t1)
}

// DiscountFactor returns exp((offset - t) * rate(t)) / exp(offset * rate(0)).
//
// The curve is normalised at the offset point, so DiscountFactor(offset) is
// 1/exp(offset*rate(0)) rather than 1.
func (c *Curve) DiscountFactor(t float64) float64 {
	return math.Exp((c.offset-t)*c.Rate(t)) / math.Exp(c.offset*c.Rate(0))
}

// KnotTimes returns a copy of the knot times.
func (c *Curve) KnotTimes() []float64 {
	out := make([]float64, len(c.times))
	copy(out, c.times)
	return out
}

// Rates returns a copy of the knot rates.
func (c *Curve) Rates() []float64 {
	out := make([]float64, len(c.rates))
	copy(out, c.rates)
	return out
}

// Offset returns the curve's offset.
func (c *Curve) Offset() float64 {
	return c.offset
}

// Shift returns a copy of the curve with delta added to every knot rate.
func (c *Curve) Shift(delta float64) *Curve {
	if len(c.times) == 0 {
		return Flat(delta, c.offset)
	}
	out := &Curve{
		times:  c.KnotTimes(),
		rates:  make([]float64, len(c.rates)),
		offset: c.offset,
	}
	for i, r := range c.rates {
		out.rates[i] = r + delta
	}
	return out
}

// Combine adds the zero rates of spread to base.
//
// The result has knots at the union of both knot sets and base's offset. Since
// both inputs are piecewise linear with flat ends, the sum evaluated at the
// union knots reproduces base.Rate(t)+spread.Rate(t) for every t.
func Combine(base, spread *Curve) *Curve {
	times := MergeTimes(base.times, spread.times)
	rates := make([]float64, len(times))
	for i, t := range times {
		rates[i] = base.Rate(t) + spread.Rate(t)
	}
	return &Curve{times: times, rates: rates, offset: base.offset}
}

// MergeTimes merges two ascending slices into a new ascending slice without duplicates.
func MergeTimes(a, b []float64) []float64 {
	out := make([]float64, 0, len(a)+len(b))
	push := func(t float64) {
		if len(out) == 0 || t > out[len(out)-1] {
			out = append(out, t)
		}
	}

	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i] <= b[j] {
			push(a[i])
			i++
		} else {
			push(b[j])
			j++
		}
	}
	for ; i < len(a); i++ {
		push(a[i])
	}
	for ; j < len(b); j++ {
		push(b[j])
	}
	return out
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
