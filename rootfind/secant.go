package rootfind

import "math"

// secantOutcome is one of found, bracketed or notFound.
type secantOutcome interface {
	isSecantOutcome()
}

// found: the secant landed on an acceptable point.
type found struct {
	x float64
}

// bracketed: f changes sign on [lower, upper].
type bracketed struct {
	lower, upper   float64
	yLower, yUpper float64
}

// notFound: the iteration left the domain or ran out of steps. best is the
// point with the smallest |f| seen so far.
type notFound struct {
	best, yBest float64
}

func (found) isSecantOutcome()     {}
func (bracketed) isSecantOutcome() {}
func (notFound) isSecantOutcome()  {}

// secant iterates from the pair (x1, y1), (x3, y3) until it either accepts a
// point, observes a sign change, or gives up.
func (s Solver) secant(f Func, d domain, x1, y1, x3, y3 float64) secantOutcome {
	for iter := 0; iter < s.maxSecant(); iter++ {
		// x1 is the better estimate.
		if math.Abs(y1) > math.Abs(y3) {
			x1, x3 = x3, x1
			y1, y3 = y3, y1
		}

		var dx float64
		if math.Abs(y1-y3) <= d.yTol {
			// Near-equal values: take a large step scaled by the tolerance instead of dividing by ~0.
			if y1-y3 > 0 {
				dx = -y1 * (x1 - x3) / d.yTol
			} else {
				dx = y1 * (x1 - x3) / d.yTol
			}
		} else {
			dx = (x3 - x1) * y1 / (y1 - y3)
		}

		x2 := x1 + dx
		if !d.contains(x2) {
			return notFound{best: x1, yBest: y1}
		}

		y2 := f(x2)
		if d.accept(x2, y2) {
			return found{x: x2}
		}

		if sameSign(y1, y2, y3) {
			// Keep the two smallest |f| as the next secant pair.
			if math.Abs(y1) > math.Abs(y2) {
				x3, y3 = x1, y1
				x1, y1 = x2, y2
			} else {
				x3, y3 = x2, y2
			}
			continue
		}

		// y2 differs in sign from y1, or from y3 (then y1 and y3 already differ).
		lo, hi, yLo, yHi := x1, x2, y1, y2
		if !oppositeSigns(y1, y2) {
			lo, hi, yLo, yHi = x2, x3, y2, y3
		}
		if lo > hi {
			lo, hi = hi, lo
			yLo, yHi = yHi, yLo
		}
		return bracketed{lower: lo, upper: hi, yLower: yLo, yUpper: yHi}
	}
	if math.Abs(y1) > math.Abs(y3) {
		x1, y1 = x3, y3
	}
	return notFound{best: x1, yBest: y1}
}

func sameSign(a, b, c float64) bool {
	return (a < 0 && b < 0 && c < 0) || (a > 0 && b > 0 && c > 0)
}
