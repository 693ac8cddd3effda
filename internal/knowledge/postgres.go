package knowledge

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
	"github.com/respira-diag/fuzzydx/internal/shared/metrics"
)

// PostgresSource reads the reference tables created by the embedded
// migrations. Row ids stand in for line numbers in load reports.
type PostgresSource struct {
	pool *pgxpool.Pool
}

func NewPostgresSource(pool *pgxpool.Pool) *PostgresSource {
	return &PostgresSource{pool: pool}
}

func (s *PostgresSource) Name() string { return "postgres" }

func (s *PostgresSource) Health(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PostgresSource) Load(ctx context.Context) (*Tables, error) {
	t := &Tables{}
	var err error

	if t.Membership, err = s.loadMembership(ctx); err != nil {
		return nil, err
	}
	if t.Rules, err = s.loadRules(ctx); err != nil {
		return nil, err
	}
	if t.Outputs, err = s.loadOutputs(ctx); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *PostgresSource) loadMembership(ctx context.Context) ([]fuzzy.MembershipRow, error) {
	defer observe(s.Name(), fuzzy.TableMembership)()

	rows, err := s.pool.Query(ctx, `
		SELECT id, category, variable, set_label, left_foot, right_foot
		FROM membership_sets
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query membership sets: %w", err)
	}
	defer rows.Close()

	var out []fuzzy.MembershipRow
	for rows.Next() {
		var r fuzzy.MembershipRow
		var left, right float64
		if err := rows.Scan(&r.Line, &r.Category, &r.Variable, &r.Set, &left, &right); err != nil {
			return nil, fmt.Errorf("failed to scan membership set: %w", err)
		}
		r.Left, r.Right = formatFloat(left), formatFloat(right)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read membership sets: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) loadRules(ctx context.Context) ([]fuzzy.RuleRow, error) {
	defer observe(s.Name(), fuzzy.TableRules)()

	rows, err := s.pool.Query(ctx, `SELECT id, disease, conditions, weights FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var out []fuzzy.RuleRow
	for rows.Next() {
		var r fuzzy.RuleRow
		if err := rows.Scan(&r.Line, &r.Disease, &r.Conditions, &r.Weights); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return out, nil
}

func (s *PostgresSource) loadOutputs(ctx context.Context) ([]fuzzy.OutputRow, error) {
	defer observe(s.Name(), fuzzy.TableOutputs)()

	rows, err := s.pool.Query(ctx, `SELECT id, disease, a, b, c FROM output_sets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query output sets: %w", err)
	}
	defer rows.Close()

	var out []fuzzy.OutputRow
	for rows.Next() {
		var r fuzzy.OutputRow
		var a, b, c float64
		if err := rows.Scan(&r.Line, &r.Disease, &a, &b, &c); err != nil {
			return nil, fmt.Errorf("failed to scan output set: %w", err)
		}
		r.A, r.B, r.C = formatFloat(a), formatFloat(b), formatFloat(c)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read output sets: %w", err)
	}
	return out, nil
}

// formatFloat renders a stored number back into the text form the core
// loaders parse, without losing precision.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func observe(source, table string) func() {
	start := time.Now()
	return func() {
		metrics.RecordDBQuery(source, table, time.Since(start))
	}
}
