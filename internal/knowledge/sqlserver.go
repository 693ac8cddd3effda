package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/denisenkom/go-mssqldb" // SQL Server driver

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
	"github.com/respira-diag/fuzzydx/internal/shared/config"
)

// SQLServerSource reads the reference tables from a SQL Server database,
// typically the clinic's existing records server.
type SQLServerSource struct {
	db *sql.DB
}

// OpenSQLServer connects and verifies the connection.
func OpenSQLServer(ctx context.Context, cfg config.SQLServerConfig) (*SQLServerSource, error) {
	db, err := sql.Open("sqlserver", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &SQLServerSource{db: db}, nil
}

func NewSQLServerSource(db *sql.DB) *SQLServerSource {
	return &SQLServerSource{db: db}
}

func (s *SQLServerSource) Name() string { return "sqlserver" }

func (s *SQLServerSource) Close() error {
	return s.db.Close()
}

func (s *SQLServerSource) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLServerSource) Load(ctx context.Context) (*Tables, error) {
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

func (s *SQLServerSource) loadMembership(ctx context.Context) ([]fuzzy.MembershipRow, error) {
	defer observe(s.Name(), fuzzy.TableMembership)()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, category, variable, set_label, left_foot, right_foot
		FROM membership_sets
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query membership sets: %w", err)
	}
	defer rows.Close()

	var out []fuzzy.MembershipRow
	for rows.Next() {
		var r fuzzy.MembershipRow
		var category, variable, set sql.NullString
		var left, right sql.NullFloat64
		if err := rows.Scan(&r.Line, &category, &variable, &set, &left, &right); err != nil {
			return nil, fmt.Errorf("failed to scan membership set: %w", err)
		}
		r.Category, r.Variable, r.Set = category.String, variable.String, set.String
		r.Left, r.Right = nullFloat(left), nullFloat(right)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read membership sets: %w", err)
	}
	return out, nil
}

func (s *SQLServerSource) loadRules(ctx context.Context) ([]fuzzy.RuleRow, error) {
	defer observe(s.Name(), fuzzy.TableRules)()

	rows, err := s.db.QueryContext(ctx, `SELECT id, disease, conditions, weights FROM rules ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer rows.Close()

	var out []fuzzy.RuleRow
	for rows.Next() {
		var r fuzzy.RuleRow
		var disease, conditions, weights sql.NullString
		if err := rows.Scan(&r.Line, &disease, &conditions, &weights); err != nil {
			return nil, fmt.Errorf("failed to scan rule: %w", err)
		}
		r.Disease, r.Conditions, r.Weights = disease.String, conditions.String, weights.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}
	return out, nil
}

func (s *SQLServerSource) loadOutputs(ctx context.Context) ([]fuzzy.OutputRow, error) {
	defer observe(s.Name(), fuzzy.TableOutputs)()

	rows, err := s.db.QueryContext(ctx, `SELECT id, disease, a, b, c FROM output_sets ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query output sets: %w", err)
	}
	defer rows.Close()

	var out []fuzzy.OutputRow
	for rows.Next() {
		var r fuzzy.OutputRow
		var disease sql.NullString
		var a, b, c sql.NullFloat64
		if err := rows.Scan(&r.Line, &disease, &a, &b, &c); err != nil {
			return nil, fmt.Errorf("failed to scan output set: %w", err)
		}
		r.Disease = disease.String
		r.A, r.B, r.C = nullFloat(a), nullFloat(b), nullFloat(c)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read output sets: %w", err)
	}
	return out, nil
}

// nullFloat maps NULL to an empty cell so the row is rejected as missing.
func nullFloat(v sql.NullFloat64) string {
	if !v.Valid {
		return ""
	}
	return formatFloat(v.Float64)
}
