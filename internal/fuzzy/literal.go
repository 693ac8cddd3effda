package fuzzy

import (
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Rule tables encode conditions and weights as bracketed list literals, e.g.
// ['demam_tinggi', 'batuk_ringan'] and [0.6, 0.4]. These are valid YAML flow
// sequences, so decoding goes through yaml.v3 nodes and every element is then
// checked against the expected schema. An outer tuple, ('demam_tinggi',),
// is read as a list; flow sequences tolerate its trailing comma.

func decodeList(text string) ([]*yaml.Node, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "(") && strings.HasSuffix(trimmed, ")") {
		trimmed = "[" + trimmed[1:len(trimmed)-1] + "]"
	}
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, fmt.Errorf("%w: expected [...] or (...)", ErrMalformedLiteral)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(trimmed), &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedLiteral, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: not a list", ErrMalformedLiteral)
	}
	return doc.Content[0].Content, nil
}

// ParseConditionList decodes a condition literal. Elements are legacy
// "<variable>_<set>" tokens, explicit [variable, set] pairs, or
// {variable: .., set: ..} maps.
func ParseConditionList(text string) ([]Condition, error) {
	items, err := decodeList(text)
	if err != nil {
		return nil, err
	}
	return ConditionsFromNodes(items)
}

// ConditionsFromNodes converts already-decoded YAML sequence elements.
func ConditionsFromNodes(items []*yaml.Node) ([]Condition, error) {
	out := make([]Condition, 0, len(items))
	for i, item := range items {
		switch item.Kind {
		case yaml.ScalarNode:
			if item.ShortTag() != "!!str" {
				return nil, fmt.Errorf("%w: element %d is %s, want string", ErrMalformedLiteral, i, item.ShortTag())
			}
			out = append(out, ParseConditionToken(item.Value))
		case yaml.SequenceNode:
			c, err := decodePair(item)
			if err != nil {
				return nil, fmt.Errorf("element %d: %w", i, err)
			}
			out = append(out, c)
		case yaml.MappingNode:
			var pair struct {
				Variable string `yaml:"variable"`
				Set      string `yaml:"set"`
			}
			if err := item.Decode(&pair); err != nil {
				return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedLiteral, i, err)
			}
			c := Condition{Variable: strings.TrimSpace(pair.Variable), Set: strings.TrimSpace(pair.Set)}
			if c.Variable == "" || c.Set == "" {
				return nil, fmt.Errorf("%w: element %d needs variable and set", ErrInvalidToken, i)
			}
			out = append(out, c)
		default:
			return nil, fmt.Errorf("%w: element %d has unsupported shape", ErrMalformedLiteral, i)
		}
	}
	return out, nil
}

func decodePair(n *yaml.Node) (Condition, error) {
	if len(n.Content) != 2 {
		return Condition{}, fmt.Errorf("%w: pair needs 2 elements, got %d", ErrMalformedLiteral, len(n.Content))
	}
	for _, part := range n.Content {
		if part.Kind != yaml.ScalarNode || part.ShortTag() != "!!str" {
			return Condition{}, fmt.Errorf("%w: pair elements must be strings", ErrMalformedLiteral)
		}
	}
	c := Condition{
		Variable: strings.TrimSpace(n.Content[0].Value),
		Set:      strings.TrimSpace(n.Content[1].Value),
	}
	if c.Variable == "" || c.Set == "" {
		return Condition{}, fmt.Errorf("%w: empty variable or set", ErrInvalidToken)
	}
	return c, nil
}

// ParseWeightList decodes a weight literal. Quoted numbers are accepted.
func ParseWeightList(text string) ([]float64, error) {
	items, err := decodeList(text)
	if err != nil {
		return nil, err
	}
	return WeightsFromNodes(items)
}

// WeightsFromNodes converts already-decoded YAML sequence elements into
// weights. Range checks are left to rule validation.
func WeightsFromNodes(items []*yaml.Node) ([]float64, error) {
	out := make([]float64, 0, len(items))
	for i, item := range items {
		if item.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: element %d is not a number", ErrInvalidWeight, i)
		}
		switch item.ShortTag() {
		case "!!int", "!!float", "!!str":
		default:
			return nil, fmt.Errorf("%w: element %d is %s", ErrInvalidWeight, i, item.ShortTag())
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(item.Value), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d %q is not numeric", ErrInvalidWeight, i, item.Value)
		}
		out = append(out, v)
	}
	return out, nil
}

// ParseConditionToken splits a legacy token on its last underscore, so
// variable names may themselves contain underscores. A token without an
// underscore is all set name. Such conditions reference no known set and
// evaluate to degree 0 instead of invalidating the rule.
func ParseConditionToken(token string) Condition {
	token = strings.TrimSpace(token)
	i := strings.LastIndex(token, "_")
	if i < 0 {
		return Condition{Set: token}
	}
	return Condition{Variable: token[:i], Set: token[i+1:]}
}
