package knowledge

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
	"github.com/respira-diag/fuzzydx/internal/shared/logging"
)

type stubSource struct {
	tables *Tables
	err    error
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Load(ctx context.Context) (*Tables, error) {
	return s.tables, s.err
}

func stubTables() *Tables {
	return &Tables{
		Membership: []fuzzy.MembershipRow{
			{Line: 2, Category: "umum", Variable: "demam", Set: "tinggi", Left: "6", Right: "10"},
			{Line: 3, Category: "umum", Variable: "demam", Set: "rendah", Left: "4", Right: "0"},
		},
		Rules: []fuzzy.RuleRow{
			{Line: 2, Disease: "flu", Conditions: "['demam_tinggi']", Weights: "[1]"},
			{Line: 3, Disease: "asma", Conditions: "['demam_tinggi']", Weights: "[1, 2]"},
		},
	}
}

func TestStoreReload(t *testing.T) {
	src := &stubSource{tables: stubTables()}
	store := NewStore(src, logging.Discard())
	assert.Nil(t, store.Current())

	base, err := store.Reload(context.Background())
	require.NoError(t, err)
	assert.Same(t, base, store.Current())

	r := base.Report
	assert.Equal(t, "stub", r.Source)
	assert.Equal(t, 1, r.Variables)
	assert.Equal(t, 1, r.Rules)
	assert.Equal(t, map[string]int{fuzzy.TableMembership: 1, fuzzy.TableRules: 1, fuzzy.TableOutputs: 0}, r.RejectedByTable)
	assert.Equal(t, []string{"flu"}, r.MissingOutputs)
	require.Len(t, r.Rejected, 2)
	assert.Equal(t, 3, r.Rejected[0].Line)
}

func TestStoreReloadFailureKeepsPrevious(t *testing.T) {
	src := &stubSource{tables: stubTables()}
	store := NewStore(src, logging.Discard())
	first, err := store.Reload(context.Background())
	require.NoError(t, err)

	src.err = errors.New("connection refused")
	_, err = store.Reload(context.Background())
	assert.Error(t, err)
	assert.Same(t, first, store.Current())

	src.err = nil
	src.tables = &Tables{Rules: stubTables().Rules}
	_, err = store.Reload(context.Background())
	assert.True(t, errors.Is(err, ErrEmptyKnowledgeBase))
	assert.Same(t, first, store.Current())
}

func TestBuildVersionIsStable(t *testing.T) {
	now := func() time.Time { return time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC) }

	a := Build(stubTables(), BuildOptions{Now: now})
	b := Build(stubTables(), BuildOptions{Now: now})
	assert.Equal(t, a.Report.Version, b.Report.Version)
	assert.Equal(t, now(), a.Report.LoadedAt)

	changed := stubTables()
	changed.Rules[0].Weights = "[2]"
	c := Build(changed, BuildOptions{Now: now})
	assert.NotEqual(t, a.Report.Version, c.Report.Version)
}
