package knowledge

import (
	"context"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
)

// Tables holds the raw rows of the three reference tables. Rejected carries
// rows a source could not even shape into a row (for example a YAML rule
// whose conditions are not a list); Build reports them with the rest.
type Tables struct {
	Membership []fuzzy.MembershipRow
	Rules      []fuzzy.RuleRow
	Outputs    []fuzzy.OutputRow
	Rejected   []*fuzzy.RowError
}

// Source loads reference tables from one storage backend.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Tables, error)
}
