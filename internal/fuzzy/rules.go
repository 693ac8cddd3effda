package fuzzy

import (
	"fmt"
	"strings"
)

// Condition references one fuzzy set of one variable.
type Condition struct {
	Variable string `json:"variable" yaml:"variable"`
	Set      string `json:"set" yaml:"set"`
}

// Token returns the legacy "<variable>_<set>" encoding.
func (c Condition) Token() string {
	return c.Variable + "_" + c.Set
}

// Rule is a weighted conjunction of conditions supporting one disease.
type Rule struct {
	Disease    string      `json:"disease"`
	Conditions []Condition `json:"conditions"`
	Weights    []float64   `json:"weights"`
}

// RuleRow is one row of the rule table. Text sources fill Conditions and
// Weights with list literals; structured sources fill Pairs and WeightValues,
// which take precedence when either is set.
type RuleRow struct {
	Line         int
	Disease      string
	Conditions   string
	Weights      string
	Pairs        []Condition
	WeightValues []float64
}

// NewRule validates and builds a rule from explicit conditions, each of
// which must name both a variable and a set.
func NewRule(disease string, conditions []Condition, weights []float64) (Rule, error) {
	for i, c := range conditions {
		if strings.TrimSpace(c.Variable) == "" || strings.TrimSpace(c.Set) == "" {
			return Rule{}, fmt.Errorf("%w: condition %d", ErrInvalidToken, i)
		}
	}
	r, _, err := newRule(disease, conditions, weights)
	return r, err
}

func newRule(disease string, conditions []Condition, weights []float64) (Rule, string, error) {
	disease = strings.TrimSpace(disease)
	if disease == "" {
		return Rule{}, "disease", ErrMissingField
	}
	for i, w := range weights {
		if !finite(w) || w <= 0 {
			return Rule{}, "weights", fmt.Errorf("%w: weight %d is %g", ErrInvalidWeight, i, w)
		}
	}
	if len(weights) != len(conditions) {
		return Rule{}, "weights", fmt.Errorf("%w: %d weights, %d conditions", ErrWeightCountMismatch, len(weights), len(conditions))
	}

	return Rule{
		Disease:    disease,
		Conditions: append([]Condition(nil), conditions...),
		Weights:    append([]float64(nil), weights...),
	}, "", nil
}

// LoadRules parses rule rows. Rows that cannot be parsed or validated are
// excluded from the returned rule set and reported.
func LoadRules(rows []RuleRow) ([]Rule, []*RowError) {
	rules := make([]Rule, 0, len(rows))
	var rejected []*RowError

	for _, row := range rows {
		rule, rowErr := parseRuleRow(row)
		if rowErr != nil {
			rejected = append(rejected, rowErr)
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rejected
}

func parseRuleRow(row RuleRow) (Rule, *RowError) {
	rowErr := func(field, value string, err error) *RowError {
		return &RowError{Table: TableRules, Line: row.Line, Key: strings.TrimSpace(row.Disease), Field: field, Value: value, Err: err}
	}

	conditions, weights := row.Pairs, row.WeightValues
	if conditions == nil && weights == nil {
		var err error
		conditions, err = ParseConditionList(row.Conditions)
		if err != nil {
			return Rule{}, rowErr("conditions", row.Conditions, err)
		}
		weights, err = ParseWeightList(row.Weights)
		if err != nil {
			return Rule{}, rowErr("weights", row.Weights, err)
		}
	}

	rule, field, err := newRule(row.Disease, conditions, weights)
	if err != nil {
		value := row.Weights
		switch field {
		case "disease":
			value = row.Disease
		case "conditions":
			value = row.Conditions
		}
		return Rule{}, rowErr(field, value, err)
	}
	return rule, nil
}

// Diseases returns the distinct rule targets in first-seen order.
func Diseases(rules []Rule) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range rules {
		if !seen[r.Disease] {
			seen[r.Disease] = true
			out = append(out, r.Disease)
		}
	}
	return out
}
