package fuzzy

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/floats"
)

// Default output domain: 1000 evenly spaced points over [0, 10].
const (
	DefaultDomainMin    = 0.0
	DefaultDomainMax    = 10.0
	DefaultDomainPoints = 1000
)

// Domain is the sampled output axis shared by every output set.
type Domain struct {
	points []float64
}

// NewDomain samples n evenly spaced points over [lo, hi], both ends included.
func NewDomain(lo, hi float64, n int) (Domain, error) {
	if !finite(lo) || !finite(hi) || lo >= hi {
		return Domain{}, fmt.Errorf("%w: bounds [%g, %g]", ErrInvalidDomain, lo, hi)
	}
	if n < 2 {
		return Domain{}, fmt.Errorf("%w: need at least 2 points, got %d", ErrInvalidDomain, n)
	}
	return Domain{points: floats.Span(make([]float64, n), lo, hi)}, nil
}

// DefaultDomain returns the default output domain.
func DefaultDomain() Domain {
	d, _ := NewDomain(DefaultDomainMin, DefaultDomainMax, DefaultDomainPoints)
	return d
}

// Points returns the sample positions. Callers must not modify them.
func (d Domain) Points() []float64 {
	return d.points
}

// Len returns the number of samples.
func (d Domain) Len() int {
	return len(d.points)
}

// OutputRow is one row of the output-membership table.
type OutputRow struct {
	Line    int
	Disease string
	A       string
	B       string
	C       string
}

// LoadOutputs builds the per-disease output sets. Unlike input sets, all
// three control points come from the source.
func LoadOutputs(rows []OutputRow) (map[string]Triangle, []*RowError) {
	out := make(map[string]Triangle, len(rows))
	var rejected []*RowError

	for _, row := range rows {
		disease := strings.TrimSpace(row.Disease)
		rowErr := func(field, value string, err error) *RowError {
			return &RowError{Table: TableOutputs, Line: row.Line, Key: disease, Field: field, Value: value, Err: err}
		}
		if disease == "" {
			rejected = append(rejected, rowErr("disease", row.Disease, ErrMissingField))
			continue
		}

		var pts [3]float64
		var bad *RowError
		for i, raw := range []string{row.A, row.B, row.C} {
			v, err := parseNumber(raw)
			if err != nil {
				bad = rowErr(string(rune('a'+i)), raw, err)
				break
			}
			pts[i] = v
		}
		if bad != nil {
			rejected = append(rejected, bad)
			continue
		}

		t := Triangle{A: pts[0], B: pts[1], C: pts[2]}
		if !t.Valid() {
			rejected = append(rejected, rowErr("b", row.B, ErrInvalidRange))
			continue
		}
		if _, dup := out[disease]; dup {
			rejected = append(rejected, rowErr("disease", row.Disease, ErrDuplicateSet))
			continue
		}
		out[disease] = t
	}
	return out, rejected
}
