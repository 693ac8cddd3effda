package fuzzy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func integerDomain(t *testing.T, hi int) Domain {
	t.Helper()
	d, err := NewDomain(0, float64(hi), hi+1)
	require.NoError(t, err)
	return d
}

func TestNewDomain(t *testing.T) {
	d := DefaultDomain()
	require.Equal(t, DefaultDomainPoints, d.Len())
	assert.Equal(t, 0.0, d.Points()[0])
	assert.Equal(t, 10.0, d.Points()[d.Len()-1])

	for _, tt := range []struct {
		lo, hi float64
		n      int
	}{{0, 10, 1}, {5, 5, 10}, {10, 0, 10}} {
		_, err := NewDomain(tt.lo, tt.hi, tt.n)
		assert.True(t, errors.Is(err, ErrInvalidDomain))
	}
}

func TestDefuzzifyMoMPlateau(t *testing.T) {
	d := integerDomain(t, 9)
	curve := make([]float64, d.Len())
	for i := 3; i <= 6; i++ {
		curve[i] = 0.4
	}

	assert.Equal(t, 4.5, DefuzzifyMoM(d, curve))
}

func TestDefuzzifyMoMUsesExtremesOnly(t *testing.T) {
	d := integerDomain(t, 9)
	curve := []float64{0, 1, 0, 0, 0, 0, 0, 0, 1, 0.5}

	// The two peaks at 1 and 8 are averaged even though the curve dips between them.
	assert.Equal(t, 4.5, DefuzzifyMoM(d, curve))
}

func TestDefuzzifyMoMZeroCurve(t *testing.T) {
	d := integerDomain(t, 9)
	assert.Equal(t, 0.0, DefuzzifyMoM(d, make([]float64, d.Len())))
}

func TestActivation(t *testing.T) {
	fz := Fuzzification{"demam": {"mid": 1, "low": 0}}
	rule := Rule{Disease: "flu", Conditions: []Condition{{"demam", "mid"}, {"demam", "low"}}, Weights: []float64{1, 3}}

	assert.Equal(t, 0.25, Activation(fz, rule))
	assert.Equal(t, 0.0, Activation(fz, Rule{Disease: "flu"}))
}

func TestInferMamdani(t *testing.T) {
	model, _ := LoadMembership(demamRows())
	rules := []Rule{
		{Disease: "flu", Conditions: []Condition{{"demam", "mid"}}, Weights: []float64{1}},
		{Disease: "asma", Conditions: []Condition{{"demam", "mid"}, {"demam", "high"}}, Weights: []float64{1, 1}},
	}
	outputs := map[string]Triangle{
		"flu":  {A: 0, B: 2, C: 4},
		"asma": {A: 4, B: 7, C: 10},
	}
	d := integerDomain(t, 10)

	res, err := InferMamdani(map[string]float64{"demam": 5}, model, rules, outputs, d)
	require.NoError(t, err)

	assert.Equal(t, []RuleActivation{{"flu", 1}, {"asma", 0.5}}, res.Activations)
	require.Len(t, res.Curves, 2)
	assert.Equal(t, 1.0, res.Curves[0].Peak)
	assert.Equal(t, 0.5, res.Curves[1].Peak)

	// The global peak is flu's apex at y=2.
	assert.Equal(t, 2.0, res.Crisp)

	scores := res.PeakScores()
	assert.Equal(t, Scores{{"flu", 1}, {"asma", 0.5}}, scores)

	ranking := RankTopN(scores, DefaultTopN)
	assert.InDelta(t, 66.6667, ranking.Confidences["flu"], 1e-3)
	assert.InDelta(t, 33.3333, ranking.Confidences["asma"], 1e-3)
}

func TestInferMamdaniAggregatesSameDiseaseByMax(t *testing.T) {
	model, _ := LoadMembership(demamRows())
	rules := []Rule{
		{Disease: "flu", Conditions: []Condition{{"demam", "mid"}, {"demam", "low"}}, Weights: []float64{1, 3}},
		{Disease: "flu", Conditions: []Condition{{"demam", "mid"}}, Weights: []float64{1}},
	}
	outputs := map[string]Triangle{"flu": {A: 0, B: 5, C: 10}}
	d := integerDomain(t, 10)

	res, err := InferMamdani(map[string]float64{"demam": 5}, model, rules, outputs, d)
	require.NoError(t, err)

	curve, ok := res.Curve("flu")
	require.True(t, ok)
	assert.Equal(t, 1.0, res.Curves[0].Peak)
	assert.Equal(t, 1.0, curve[5])
	assert.InDelta(t, 0.2, curve[1], 1e-12)
	assert.Equal(t, 5.0, res.Crisp)
}

func TestInferMamdaniZeroActivation(t *testing.T) {
	model, _ := LoadMembership(demamRows())
	rules := []Rule{{Disease: "flu", Conditions: []Condition{{"demam", "high"}}, Weights: []float64{1}}}
	outputs := map[string]Triangle{"flu": {A: 0, B: 5, C: 10}}

	res, err := InferMamdani(map[string]float64{"demam": 5}, model, rules, outputs, DefaultDomain())
	require.NoError(t, err)

	for _, v := range res.Aggregated {
		if v != 0 {
			t.Fatalf("Expected all-zero aggregate, got %v", v)
		}
	}
	assert.Equal(t, 0.0, res.Crisp)
	assert.Empty(t, res.PeakScores())
}

func TestInferMamdaniMissingOutputSet(t *testing.T) {
	model, _ := LoadMembership(demamRows())
	rules := []Rule{{Disease: "tbc", Conditions: []Condition{{"demam", "mid"}}, Weights: []float64{1}}}

	_, err := InferMamdani(map[string]float64{"demam": 5}, model, rules, map[string]Triangle{}, DefaultDomain())
	if !errors.Is(err, ErrMissingOutputSet) {
		t.Errorf("Expected ErrMissingOutputSet, got %v", err)
	}
}

func TestLoadOutputs(t *testing.T) {
	outputs, rejected := LoadOutputs([]OutputRow{
		{Line: 2, Disease: "flu", A: "0", B: "2", C: "4"},
		{Line: 3, Disease: "asma", A: "5", B: "3", C: "8"},
		{Line: 4, Disease: "tbc", A: "1", B: "x", C: "8"},
		{Line: 5, Disease: "flu", A: "1", B: "2", C: "3"},
	})

	assert.Equal(t, map[string]Triangle{"flu": {A: 0, B: 2, C: 4}}, outputs)
	require.Len(t, rejected, 3)
	assert.True(t, errors.Is(rejected[0], ErrInvalidRange))
	assert.True(t, errors.Is(rejected[1], ErrInvalidNumber))
	assert.Equal(t, "b", rejected[1].Field)
	assert.True(t, errors.Is(rejected[2], ErrDuplicateSet))
}
