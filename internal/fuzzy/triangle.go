package fuzzy

import (
	"fmt"
	"math"
)

// Triangle is a triangular fuzzy set with left foot A, peak B and right foot C.
type Triangle struct {
	A float64 `json:"a" yaml:"a"`
	B float64 `json:"b" yaml:"b"`
	C float64 `json:"c" yaml:"c"`
}

// NewTriangle builds a set from its two feet. The peak sits at their midpoint.
func NewTriangle(left, right float64) (Triangle, error) {
	if !finite(left) || !finite(right) {
		return Triangle{}, ErrInvalidNumber
	}
	if left > right {
		return Triangle{}, fmt.Errorf("%w: %g > %g", ErrInvalidRange, left, right)
	}
	return Triangle{A: left, B: (left + right) / 2, C: right}, nil
}

// Valid reports whether the control points are finite and non-decreasing.
func (t Triangle) Valid() bool {
	return finite(t.A) && finite(t.B) && finite(t.C) && t.A <= t.B && t.B <= t.C
}

// Degree returns the membership degree of x in [0,1].
func (t Triangle) Degree(x float64) float64 {
	a, b, c := t.A, t.B, t.C
	if a == b && b == c {
		if x == a {
			return 1
		}
		return 0
	}
	if x <= a || x >= c {
		return 0
	}
	if x <= b {
		return (x - a) / (b - a)
	}
	return (c - x) / (c - b)
}

// Fuzzify is the functional form of Triangle.Degree.
func Fuzzify(x float64, t Triangle) float64 {
	return t.Degree(x)
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
