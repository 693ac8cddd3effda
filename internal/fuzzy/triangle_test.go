package fuzzy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriangleDegenerate(t *testing.T) {
	tri := Triangle{A: 3, B: 3, C: 3}

	assert.Equal(t, 1.0, tri.Degree(3))
	for _, x := range []float64{-1, 0, 2.999, 3.001, 10} {
		assert.Equal(t, 0.0, tri.Degree(x), "x=%v", x)
	}
}

func TestTriangleShape(t *testing.T) {
	tri, err := NewTriangle(2, 6)
	require.NoError(t, err)
	require.Equal(t, 4.0, tri.B)

	tests := []struct {
		x    float64
		want float64
	}{
		{1, 0},
		{2, 0},
		{3, 0.5},
		{4, 1},
		{5, 0.5},
		{6, 0},
		{7, 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, tri.Degree(tt.x), 1e-12, "x=%v", tt.x)
	}
}

func TestTriangleContinuity(t *testing.T) {
	tri, err := NewTriangle(0, 10)
	require.NoError(t, err)

	prev := tri.Degree(0)
	for x := 0.01; x <= 10; x += 0.01 {
		d := tri.Degree(x)
		assert.GreaterOrEqual(t, d, 0.0)
		assert.LessOrEqual(t, d, 1.0)
		assert.InDelta(t, prev, d, 0.0021, "jump at x=%v", x)
		prev = d
	}
}

func TestNewTriangleRejectsReversedFeet(t *testing.T) {
	_, err := NewTriangle(5, 1)
	if !errors.Is(err, ErrInvalidRange) {
		t.Errorf("Expected ErrInvalidRange, got %v", err)
	}
}

func TestFuzzifyDemamScenario(t *testing.T) {
	model, rejected := LoadMembership(demamRows())
	require.Empty(t, rejected)

	fz := model.Fuzzify(map[string]float64{"demam": 5.0})

	assert.Equal(t, 0.0, fz.Degree("demam", "low"))
	assert.Equal(t, 1.0, fz.Degree("demam", "mid"))
	assert.Equal(t, 0.0, fz.Degree("demam", "high"))
	assert.Equal(t, 0.0, fz.Degree("batuk", "mid"), "absent variable must resolve to 0")
}

func demamRows() []MembershipRow {
	return []MembershipRow{
		{Line: 2, Category: "umum", Variable: "demam", Set: "low", Left: "0", Right: "4"},
		{Line: 3, Category: "umum", Variable: "demam", Set: "mid", Left: "3", Right: "7"},
		{Line: 4, Category: "umum", Variable: "demam", Set: "high", Left: "6", Right: "10"},
	}
}
