package fuzzy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// RuleActivation is the firing strength of one rule.
type RuleActivation struct {
	Disease string  `json:"disease"`
	Alpha   float64 `json:"alpha"`
}

// DiseaseCurve is the max-aggregate of every clipped output set of a disease.
type DiseaseCurve struct {
	Disease string    `json:"disease"`
	Curve   []float64 `json:"curve"`
	Peak    float64   `json:"peak"`
}

// MamdaniResult is the output of InferMamdani.
type MamdaniResult struct {
	Fuzzification Fuzzification    `json:"fuzzification"`
	Activations   []RuleActivation `json:"activations"`
	Curves        []DiseaseCurve   `json:"curves"`
	Aggregated    []float64        `json:"aggregated"`
	Crisp         float64          `json:"crisp"`
}

// PeakScores returns each disease's peak clipped height, leaving out
// diseases that did not fire. These are the comparable scores for ranking.
func (r *MamdaniResult) PeakScores() Scores {
	out := make(Scores, 0, len(r.Curves))
	for _, c := range r.Curves {
		if c.Peak > 0 {
			out = append(out, Score{Disease: c.Disease, Value: c.Peak})
		}
	}
	return out
}

// Curve returns the aggregated curve of one disease.
func (r *MamdaniResult) Curve(disease string) ([]float64, bool) {
	for _, c := range r.Curves {
		if c.Disease == disease {
			return c.Curve, true
		}
	}
	return nil, false
}

// InferMamdani runs min-implication and max-aggregation over the sampled
// domain and defuzzifies the global curve by mean of maxima. A rule whose
// disease has no output set fails the whole run.
func InferMamdani(inputs map[string]float64, model *MembershipModel, rules []Rule, outputs map[string]Triangle, domain Domain) (*MamdaniResult, error) {
	if domain.Len() == 0 {
		return nil, fmt.Errorf("%w: empty", ErrInvalidDomain)
	}

	fz := model.Fuzzify(inputs)
	res := &MamdaniResult{
		Fuzzification: fz,
		Activations:   make([]RuleActivation, 0, len(rules)),
		Aggregated:    make([]float64, domain.Len()),
	}
	index := make(map[string]int)

	for _, rule := range rules {
		out, ok := outputs[rule.Disease]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingOutputSet, rule.Disease)
		}

		alpha := Activation(fz, rule)
		res.Activations = append(res.Activations, RuleActivation{Disease: rule.Disease, Alpha: alpha})

		clipped := Clip(alpha, out, domain)
		maxInto(res.Aggregated, clipped)

		if i, seen := index[rule.Disease]; seen {
			maxInto(res.Curves[i].Curve, clipped)
			continue
		}
		index[rule.Disease] = len(res.Curves)
		res.Curves = append(res.Curves, DiseaseCurve{Disease: rule.Disease, Curve: clipped})
	}

	for i := range res.Curves {
		res.Curves[i].Peak = floats.Max(res.Curves[i].Curve)
	}
	res.Crisp = DefuzzifyMoM(domain, res.Aggregated)
	return res, nil
}

// Activation is the weighted mean membership of a rule's conditions.
func Activation(fz Fuzzification, rule Rule) float64 {
	if len(rule.Conditions) == 0 {
		return 0
	}
	degrees := make([]float64, len(rule.Conditions))
	for i, c := range rule.Conditions {
		degrees[i] = fz.Degree(c.Variable, c.Set)
	}
	total := floats.Sum(rule.Weights)
	if total == 0 {
		return 0
	}
	return floats.Dot(degrees, rule.Weights) / total
}

// Clip samples an output set over the domain, capped at height alpha.
func Clip(alpha float64, t Triangle, domain Domain) []float64 {
	pts := domain.Points()
	out := make([]float64, len(pts))
	for i, y := range pts {
		out[i] = math.Min(alpha, t.Degree(y))
	}
	return out
}

// DefuzzifyMoM returns the midpoint between the first and last domain points
// where the curve reaches its peak, or 0 for an all-zero curve.
func DefuzzifyMoM(domain Domain, curve []float64) float64 {
	pts := domain.Points()
	if len(curve) == 0 || len(curve) != len(pts) {
		return 0
	}
	peak := floats.Max(curve)
	if peak == 0 {
		return 0
	}

	first, last := -1, -1
	for i, mu := range curve {
		if mu == peak {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	return (pts[first] + pts[last]) / 2
}

func maxInto(dst, src []float64) {
	for i, v := range src {
		if v > dst[i] {
			dst[i] = v
		}
	}
}
