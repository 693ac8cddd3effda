package knowledge

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
)

// YAMLSource reads all three tables from one bundle file:
//
//	membership:
//	  - {category: umum, variable: demam, set: tinggi, left: 6, right: 10}
//	rules:
//	  - disease: flu
//	    conditions: [[demam, tinggi], batuk_ringan]
//	    weights: [0.6, 0.4]
//	outputs:
//	  - {disease: flu, a: 0, b: 2.5, c: 5}
//
// Conditions may also be given as a legacy list literal string.
type YAMLSource struct {
	Path string
}

type bundle struct {
	Membership []yaml.Node `yaml:"membership"`
	Rules      []yaml.Node `yaml:"rules"`
	Outputs    []yaml.Node `yaml:"outputs"`
}

type membershipEntry struct {
	Category string `yaml:"category"`
	Variable string `yaml:"variable"`
	Set      string `yaml:"set"`
	Left     string `yaml:"left"`
	Right    string `yaml:"right"`
}

type ruleEntry struct {
	Disease    string    `yaml:"disease"`
	Conditions yaml.Node `yaml:"conditions"`
	Weights    yaml.Node `yaml:"weights"`
}

type outputEntry struct {
	Disease string `yaml:"disease"`
	A       string `yaml:"a"`
	B       string `yaml:"b"`
	C       string `yaml:"c"`
}

func (s *YAMLSource) Name() string { return "yaml" }

func (s *YAMLSource) Load(ctx context.Context) (*Tables, error) {
	content, err := os.ReadFile(filepath.Clean(s.Path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(s.Path), err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return ParseBundle(content)
}

// ParseBundle decodes a knowledge bundle. Document-level syntax errors fail
// the load; entries with the wrong shape are rejected one by one.
func ParseBundle(content []byte) (*Tables, error) {
	var b bundle
	if err := yaml.Unmarshal(content, &b); err != nil {
		return nil, fmt.Errorf("decode bundle: %w", err)
	}

	t := &Tables{}
	for i := range b.Membership {
		n := &b.Membership[i]
		var e membershipEntry
		if err := n.Decode(&e); err != nil {
			t.Rejected = append(t.Rejected, shapeError(fuzzy.TableMembership, n, err))
			continue
		}
		t.Membership = append(t.Membership, fuzzy.MembershipRow{
			Line: n.Line, Category: e.Category, Variable: e.Variable, Set: e.Set, Left: e.Left, Right: e.Right,
		})
	}

	for i := range b.Rules {
		n := &b.Rules[i]
		row, rowErr := ruleRowFromNode(n)
		if rowErr != nil {
			t.Rejected = append(t.Rejected, rowErr)
			continue
		}
		t.Rules = append(t.Rules, row)
	}

	for i := range b.Outputs {
		n := &b.Outputs[i]
		var e outputEntry
		if err := n.Decode(&e); err != nil {
			t.Rejected = append(t.Rejected, shapeError(fuzzy.TableOutputs, n, err))
			continue
		}
		t.Outputs = append(t.Outputs, fuzzy.OutputRow{Line: n.Line, Disease: e.Disease, A: e.A, B: e.B, C: e.C})
	}
	return t, nil
}

func ruleRowFromNode(n *yaml.Node) (fuzzy.RuleRow, *fuzzy.RowError) {
	var e ruleEntry
	if err := n.Decode(&e); err != nil {
		return fuzzy.RuleRow{}, shapeError(fuzzy.TableRules, n, err)
	}
	reject := func(field string, v *yaml.Node, err error) *fuzzy.RowError {
		return &fuzzy.RowError{Table: fuzzy.TableRules, Line: n.Line, Key: e.Disease, Field: field, Value: v.Value, Err: err}
	}

	conditions, err := conditionsOf(&e.Conditions)
	if err != nil {
		return fuzzy.RuleRow{}, reject("conditions", &e.Conditions, err)
	}
	weights, err := weightsOf(&e.Weights)
	if err != nil {
		return fuzzy.RuleRow{}, reject("weights", &e.Weights, err)
	}
	return fuzzy.RuleRow{Line: n.Line, Disease: e.Disease, Pairs: conditions, WeightValues: weights}, nil
}

func conditionsOf(n *yaml.Node) ([]fuzzy.Condition, error) {
	switch {
	case n.Kind == 0:
		return nil, fuzzy.ErrMissingField
	case n.Kind == yaml.SequenceNode:
		return fuzzy.ConditionsFromNodes(n.Content)
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str":
		return fuzzy.ParseConditionList(n.Value)
	}
	return nil, fmt.Errorf("%w: conditions must be a list", fuzzy.ErrMalformedLiteral)
}

func weightsOf(n *yaml.Node) ([]float64, error) {
	switch {
	case n.Kind == 0:
		return nil, fuzzy.ErrMissingField
	case n.Kind == yaml.SequenceNode:
		return fuzzy.WeightsFromNodes(n.Content)
	case n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str":
		return fuzzy.ParseWeightList(n.Value)
	}
	return nil, fmt.Errorf("%w: weights must be a list", fuzzy.ErrMalformedLiteral)
}

func shapeError(table string, n *yaml.Node, err error) *fuzzy.RowError {
	return &fuzzy.RowError{Table: table, Line: n.Line, Err: fmt.Errorf("%w: %v", fuzzy.ErrMalformedLiteral, err)}
}
