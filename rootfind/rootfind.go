// Package rootfind implements the hybrid scalar root finder used for implied
// hazard rates and curve shifts: a guess-directed probe, a bounded secant
// search, and Brent's method once a sign change has been bracketed.
//
// The sequence of steps and their tolerances follow the ISDA standard model
// so that solved parameters agree with reference implementations.
package rootfind

import (
	"math"

	"go.uber.org/zap"

	"github.com/meenmo/cdslib/errs"
)

// Func is the scalar function whose root is sought.
type Func func(x float64) float64

const (
	// DefaultMaxSecantIterations bounds the secant phase.
	DefaultMaxSecantIterations = 100
	// DefaultMaxBrentIterations bounds the bracketing phase.
	DefaultMaxBrentIterations = 100

	onePercent = 0.01
)

// Solver carries the iteration limits and an optional logger. It holds no
// state between calls; the zero value uses the defaults.
type Solver struct {
	MaxSecantIterations int
	MaxBrentIterations  int
	Logger              *zap.Logger
}

// NewSolver returns a Solver with default limits that logs to logger.
func NewSolver(logger *zap.Logger) Solver {
	return Solver{
		MaxSecantIterations: DefaultMaxSecantIterations,
		MaxBrentIterations:  DefaultMaxBrentIterations,
		Logger:              logger,
	}
}

// FindRoot runs the hybrid search with default limits. See Solver.FindRoot.
func FindRoot(f Func, xLower, xUpper, xGuess, initialStep, initialDeriv, xTolerance, yTolerance float64) (float64, error) {
	return Solver{}.FindRoot(f, xLower, xUpper, xGuess, initialStep, initialDeriv, xTolerance, yTolerance)
}

// FindRoot finds x in [xLower, xUpper] with f(x) ≈ 0.
//
// initialStep and initialDeriv only choose the second probe point: a Newton
// step from xGuess when initialDeriv is non-zero, otherwise xGuess+initialStep.
// A point is accepted early only when f is within yTolerance and the point is
// within xTolerance of one of the bounds; interior roots are always polished
// by Brent's method to xTolerance.
func (s Solver) FindRoot(f Func, xLower, xUpper, xGuess, initialStep, initialDeriv, xTolerance, yTolerance float64) (float64, error) {
	const op = "FindRoot"
	if !(xUpper > xLower) {
		return 0, errs.InvalidInput(op, "xUpper (%v) must be greater than xLower (%v)", xUpper, xLower)
	}
	if !(xGuess >= xLower && xGuess <= xUpper) {
		return 0, errs.InvalidInput(op, "xGuess (%v) outside [%v, %v]", xGuess, xLower, xUpper)
	}

	log := s.logger()
	b := domain{lower: xLower, upper: xUpper, xTol: xTolerance, yTol: yTolerance}

	x1 := xGuess
	y1 := f(x1)
	if b.accept(x1, y1) {
		return x1, nil
	}

	x3 := b.probe(x1, y1, initialStep, initialDeriv)
	y3 := f(x3)
	if b.accept(x3, y3) {
		return x3, nil
	}

	switch out := s.secant(f, b, x1, y1, x3, y3).(type) {
	case found:
		log.Debug("secant converged", zap.Float64("x", out.x))
		return out.x, nil

	case bracketed:
		log.Debug("secant bracketed root",
			zap.Float64("lower", out.lower), zap.Float64("upper", out.upper))
		return s.brent(f, out.lower, out.upper, out.yLower, out.yUpper, xTolerance)

	case notFound:
		log.Debug("secant did not converge, bracketing from bounds",
			zap.Float64("best", out.best), zap.Float64("f_best", out.yBest))

		yLo := f(xLower)
		if yLo == 0 || math.Abs(yLo) <= yTolerance {
			return xLower, nil
		}
		yHi := f(xUpper)
		if yHi == 0 || math.Abs(yHi) <= yTolerance {
			return xUpper, nil
		}

		switch {
		case oppositeSigns(out.yBest, yLo):
			return s.brent(f, xLower, out.best, yLo, out.yBest, xTolerance)
		case oppositeSigns(out.yBest, yHi):
			return s.brent(f, out.best, xUpper, out.yBest, yHi, xTolerance)
		default:
			return 0, errs.RootNotFound(op, "f(%v)=%v and f(%v)=%v have the same sign as f(%v)=%v",
				xLower, yLo, xUpper, yHi, out.best, out.yBest)
		}
	}

	// Unreachable: secant returns one of the three outcomes.
	return 0, errs.RootNotFound(op, "no secant outcome")
}

// domain is the search interval with its acceptance tolerances.
type domain struct {
	lower, upper float64
	xTol, yTol   float64
}

// accept reports whether (x, y) ends the search: an exact zero, or a value
// within yTol at a point within xTol of either bound.
func (d domain) accept(x, y float64) bool {
	if y == 0 {
		return true
	}
	return math.Abs(y) <= d.yTol && (math.Abs(x-d.lower) <= d.xTol || math.Abs(x-d.upper) <= d.xTol)
}

func (d domain) contains(x float64) bool {
	return x >= d.lower && x <= d.upper
}

// probe picks the second point of the secant pair.
func (d domain) probe(x1, y1, step, deriv float64) float64 {
	width := d.upper - d.lower
	if step == 0 {
		step = onePercent * width
	}

	var x3 float64
	if deriv == 0 {
		x3 = x1 + step
	} else {
		x3 = x1 - y1/deriv
	}

	if !d.contains(x3) {
		x3 = clamp(x1-step, d.lower, d.upper)
	}
	if x3 == x1 {
		if x3 == d.lower {
			x3 = d.lower + onePercent*width
		} else {
			x3 = d.upper - onePercent*width
		}
	}
	return x3
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func oppositeSigns(a, b float64) bool {
	return (a < 0 && b > 0) || (a > 0 && b < 0)
}

func (s Solver) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s Solver) maxSecant() int {
	if s.MaxSecantIterations <= 0 {
		return DefaultMaxSecantIterations
	}
	return s.MaxSecantIterations
}

func (s Solver) maxBrent() int {
	if s.MaxBrentIterations <= 0 {
		return DefaultMaxBrentIterations
	}
	return s.MaxBrentIterations
}
