package rootfind

import (
	"math"

	"go.uber.org/zap"

	"github.com/meenmo/cdslib/errs"
)

const machineEpsilon = 2.220446049250313e-16

// Brent finds a root of f on [lower, upper], which must bracket a sign change.
// Once maxIter Brent steps are spent the bracket is bisected down to
// xTolerance, so a bracketing interval always yields a root.
func Brent(f Func, lower, upper, xTolerance float64, maxIter int) (float64, error) {
	if !(upper > lower) {
		return 0, errs.InvalidInput("Brent", "upper (%v) must be greater than lower (%v)", upper, lower)
	}
	s := Solver{MaxBrentIterations: maxIter}
	return s.brent(f, lower, upper, f(lower), f(upper), xTolerance)
}

// brent is Brent's method (inverse quadratic interpolation with bisection
// safeguard) started from known endpoint values.
func (s Solver) brent(f Func, a, b, fa, fb, xTol float64) (float64, error) {
	const op = "Brent"
	if fa == 0 {
		return a, nil
	}
	if fb == 0 {
		return b, nil
	}
	if !oppositeSigns(fa, fb) {
		return 0, errs.RootNotFound(op, "f(%v)=%v and f(%v)=%v do not bracket a root", a, fa, b, fb)
	}

	c, fc := b, fb
	var d, e float64
	for iter := 0; iter < s.maxBrent(); iter++ {
		if (fb > 0 && fc > 0) || (fb < 0 && fc < 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol := 2*machineEpsilon*math.Abs(b) + 0.5*xTol
		xm := 0.5 * (c - b)
		if math.Abs(xm) <= tol || fb == 0 {
			return b, nil
		}

		if math.Abs(e) >= tol && math.Abs(fa) > math.Abs(fb) {
			sr := fb / fa
			var p, q float64
			if a == c {
				// secant
				p = 2 * xm * sr
				q = 1 - sr
			} else {
				// inverse quadratic
				q = fa / fc
				r := fb / fc
				p = sr * (2*xm*q*(q-r) - (b-a)*(r-1))
				q = (q - 1) * (r - 1) * (sr - 1)
			}
			if p > 0 {
				q = -q
			}
			p = math.Abs(p)
			min1 := 3*xm*q - math.Abs(tol*q)
			min2 := math.Abs(e * q)
			if 2*p < math.Min(min1, min2) {
				e = d
				d = p / q
			} else {
				d = xm
				e = d
			}
		} else {
			d = xm
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol {
			b += d
		} else {
			b += math.Copysign(tol, xm)
		}
		fb = f(b)
	}

	if fb == 0 {
		return b, nil
	}
	if !oppositeSigns(fb, fc) {
		c, fc = a, fa
	}
	s.logger().Debug("brent iteration limit reached, bisecting",
		zap.Int("iterations", s.maxBrent()), zap.Float64("b", b), zap.Float64("c", c))
	return bisect(f, b, c, fb, fc, xTol), nil
}

// bisect halves [a, b] (in either order) around the sign change until it is
// no wider than xTol or float64 resolution, and returns the endpoint with the
// smaller |f|.
func bisect(f Func, a, b, fa, fb, xTol float64) float64 {
	for math.Abs(b-a) > xTol {
		m := a + 0.5*(b-a)
		if m == a || m == b {
			break
		}
		fm := f(m)
		if fm == 0 {
			return m
		}
		if oppositeSigns(fa, fm) {
			b, fb = m, fm
		} else {
			a, fa = m, fm
		}
	}
	if math.Abs(fa) <= math.Abs(fb) {
		return a
	}
	return b
}
