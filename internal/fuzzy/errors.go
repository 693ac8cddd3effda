package fuzzy

import (
	"errors"
	"fmt"
)

// Load-time and evaluation errors
var (
	ErrMissingField        = errors.New("missing field")
	ErrMalformedRecord     = errors.New("malformed record")
	ErrInvalidNumber       = errors.New("invalid number")
	ErrInvalidRange        = errors.New("left foot greater than right foot")
	ErrDuplicateSet        = errors.New("fuzzy set already defined for variable")
	ErrCategoryConflict    = errors.New("variable already belongs to another category")
	ErrMalformedLiteral    = errors.New("malformed list literal")
	ErrInvalidToken        = errors.New("invalid condition pair")
	ErrInvalidWeight       = errors.New("invalid weight")
	ErrWeightCountMismatch = errors.New("weight count does not match condition count")
	ErrNoMembershipData    = errors.New("no membership data")
	ErrMissingOutputSet    = errors.New("no output membership for disease")
	ErrInvalidDomain       = errors.New("invalid output domain")
)

// Table names used in RowError
const (
	TableMembership = "membership"
	TableRules      = "rules"
	TableOutputs    = "outputs"
)

// RowError reports a rejected source row. The row is skipped; loading continues.
type RowError struct {
	Table string
	Line  int
	Key   string // disease or variable the row was about, if known
	Field string
	Value string
	Err   error
}

func (e *RowError) Error() string {
	where := fmt.Sprintf("%s row %d", e.Table, e.Line)
	if e.Key != "" {
		where += fmt.Sprintf(" (%s)", e.Key)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: field %s %q: %v", where, e.Field, e.Value, e.Err)
	}
	return fmt.Sprintf("%s: %v", where, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}
