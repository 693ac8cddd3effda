package fuzzy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankTopNNormalisesTopSet(t *testing.T) {
	scores := Scores{{"asma", 1}, {"flu", 3}, {"tbc", 0.5}, {"ispa", 1}}

	r := RankTopN(scores, 3)

	require.Equal(t, []string{"flu", "asma", "ispa"}, r.TopDiseases(), "ties keep first-seen order")
	assert.InDelta(t, 60.0, r.Confidences["flu"], 1e-9)
	assert.InDelta(t, 20.0, r.Confidences["asma"], 1e-9)
	assert.InDelta(t, 20.0, r.Confidences["ispa"], 1e-9)
	assert.Equal(t, 0.0, r.Confidences["tbc"])

	var sum float64
	for _, e := range r.Top {
		sum += e.Confidence
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestRankTopNSumsToHundred(t *testing.T) {
	tests := []struct {
		name   string
		scores Scores
		n      int
	}{
		{"fewer than n", Scores{{"a", 0.3}, {"b", 0.7}}, 3},
		{"exactly n", Scores{{"a", 1.1}, {"b", 2.2}, {"c", 3.3}}, 3},
		{"more than n", Scores{{"a", 0.1}, {"b", 0.2}, {"c", 0.3}, {"d", 0.4}, {"e", 0.5}}, 2},
		{"single", Scores{{"a", 7}}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := RankTopN(tt.scores, tt.n)
			var sum float64
			for _, c := range r.Confidences {
				sum += c
			}
			assert.InDelta(t, 100.0, sum, 1e-9)
			assert.LessOrEqual(t, len(r.Top), tt.n)
		})
	}
}

func TestRankTopNZeroEvidence(t *testing.T) {
	r := RankTopN(Scores{{"flu", 0}, {"asma", 0}}, 3)
	assert.Empty(t, r.Top)
	assert.Equal(t, map[string]float64{"flu": 0, "asma": 0}, r.Confidences)

	empty := RankTopN(nil, 3)
	assert.Empty(t, empty.Top)
	assert.Empty(t, empty.Confidences)
}

func TestRankTopNNonPositiveN(t *testing.T) {
	r := RankTopN(Scores{{"flu", 2}}, 0)
	assert.Empty(t, r.Top)
	assert.Equal(t, 0.0, r.Confidences["flu"])
}
