package fuzzy

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// AccumulationPolicy decides how boosted scores of several rules for the same
// disease are combined.
type AccumulationPolicy string

const (
	// AccumulateLast keeps the score of the last evaluated rule.
	AccumulateLast AccumulationPolicy = "last"
	// AccumulateSum adds the scores of all rules.
	AccumulateSum AccumulationPolicy = "sum"
	// AccumulateMax keeps the highest score.
	AccumulateMax AccumulationPolicy = "max"
)

// ParseAccumulationPolicy validates a policy name. Empty means AccumulateLast.
func ParseAccumulationPolicy(s string) (AccumulationPolicy, error) {
	switch p := AccumulationPolicy(s); p {
	case "":
		return AccumulateLast, nil
	case AccumulateLast, AccumulateSum, AccumulateMax:
		return p, nil
	default:
		return "", fmt.Errorf("unknown accumulation policy %q", s)
	}
}

func (p AccumulationPolicy) merge(old, v float64) float64 {
	switch p {
	case AccumulateSum:
		return old + v
	case AccumulateMax:
		return math.Max(old, v)
	default:
		return v
	}
}

// Contribution is the evidence one condition adds to a rule.
type Contribution struct {
	Condition Condition `json:"condition"`
	Degree    float64   `json:"degree"`
	Weight    float64   `json:"weight"`
	Value     float64   `json:"value"`
}

// RuleTrace explains how a rule was scored.
type RuleTrace struct {
	Disease       string         `json:"disease"`
	Contributions []Contribution `json:"contributions"`
	Base          float64        `json:"base"`
	Matches       int            `json:"matches"`
	MatchRatio    float64        `json:"match_ratio"`
	Boosted       float64        `json:"boosted"`
}

// WeightedResult is the output of InferWeighted.
type WeightedResult struct {
	Fuzzification Fuzzification `json:"fuzzification"`
	Scores        Scores        `json:"scores"`
	Trace         []RuleTrace   `json:"trace"`
}

// InferWeighted scores every rule by its weighted membership sum, boosted by
// the share of conditions that matched at all:
//
//	boosted = Σ μᵢ·wᵢ × (1 + matches/len(conditions))
//
// Rules sharing a disease are combined according to policy.
func InferWeighted(inputs map[string]float64, model *MembershipModel, rules []Rule, policy AccumulationPolicy) WeightedResult {
	fz := model.Fuzzify(inputs)
	board := newScoreBoard()
	trace := make([]RuleTrace, 0, len(rules))

	for _, rule := range rules {
		t := scoreRule(fz, rule)
		trace = append(trace, t)
		board.update(rule.Disease, t.Boosted, policy.merge)
	}

	return WeightedResult{
		Fuzzification: fz,
		Scores:        board.scores,
		Trace:         trace,
	}
}

func scoreRule(fz Fuzzification, rule Rule) RuleTrace {
	degrees := make([]float64, len(rule.Conditions))
	t := RuleTrace{
		Disease:       rule.Disease,
		Contributions: make([]Contribution, len(rule.Conditions)),
	}
	for i, c := range rule.Conditions {
		mu := fz.Degree(c.Variable, c.Set)
		degrees[i] = mu
		if mu > 0 {
			t.Matches++
		}
		t.Contributions[i] = Contribution{Condition: c, Degree: mu, Weight: rule.Weights[i], Value: mu * rule.Weights[i]}
	}
	if len(degrees) == 0 {
		return t
	}

	t.Base = floats.Dot(degrees, rule.Weights)
	t.MatchRatio = float64(t.Matches) / float64(len(rule.Conditions))
	t.Boosted = t.Base * (1 + t.MatchRatio)
	return t
}
