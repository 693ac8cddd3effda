package fuzzy

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// MembershipRow is one row of the membership table. Endpoints stay textual so
// that a malformed number is reported against its row.
type MembershipRow struct {
	Line     int
	Category string
	Variable string
	Set      string
	Left     string
	Right    string
}

// NamedSet pairs a linguistic label with its triangle.
type NamedSet struct {
	Label    string   `json:"label"`
	Triangle Triangle `json:"triangle"`
}

// CategoryVariables lists the input variables of one symptom category.
type CategoryVariables struct {
	Category  string   `json:"category"`
	Variables []string `json:"variables"`
}

// MembershipModel holds the triangular sets of every symptom variable and the
// category each variable belongs to. It is read-only once built.
type MembershipModel struct {
	sets     map[string]map[string]Triangle
	order    map[string][]string
	category map[string]string
}

// LoadMembership builds the model from membership rows. Malformed rows are
// skipped and returned as row errors.
func LoadMembership(rows []MembershipRow) (*MembershipModel, []*RowError) {
	m := &MembershipModel{
		sets:     make(map[string]map[string]Triangle),
		order:    make(map[string][]string),
		category: make(map[string]string),
	}
	var rejected []*RowError

	for _, row := range rows {
		if err := m.add(row); err != nil {
			rejected = append(rejected, err)
		}
	}
	return m, rejected
}

func (m *MembershipModel) add(row MembershipRow) *RowError {
	category := strings.TrimSpace(row.Category)
	variable := strings.TrimSpace(row.Variable)
	label := strings.TrimSpace(row.Set)

	rowErr := func(field, value string, err error) *RowError {
		return &RowError{Table: TableMembership, Line: row.Line, Key: variable, Field: field, Value: value, Err: err}
	}

	switch {
	case category == "":
		return rowErr("category", row.Category, ErrMissingField)
	case variable == "":
		return rowErr("variable", row.Variable, ErrMissingField)
	case label == "":
		return rowErr("set", row.Set, ErrMissingField)
	}

	left, err := parseNumber(row.Left)
	if err != nil {
		return rowErr("left", row.Left, err)
	}
	right, err := parseNumber(row.Right)
	if err != nil {
		return rowErr("right", row.Right, err)
	}
	tri, err := NewTriangle(left, right)
	if err != nil {
		return rowErr("right", row.Right, err)
	}

	if owner, ok := m.category[variable]; ok && owner != category {
		return rowErr("category", row.Category, fmt.Errorf("%w: %s", ErrCategoryConflict, owner))
	}
	if _, ok := m.sets[variable][label]; ok {
		return rowErr("set", row.Set, ErrDuplicateSet)
	}

	if m.sets[variable] == nil {
		m.sets[variable] = make(map[string]Triangle)
	}
	m.sets[variable][label] = tri
	m.order[variable] = append(m.order[variable], label)
	m.category[variable] = category
	return nil
}

// Has reports whether the variable has at least one fuzzy set.
func (m *MembershipModel) Has(variable string) bool {
	return len(m.sets[variable]) > 0
}

// Set returns one named set of a variable.
func (m *MembershipModel) Set(variable, label string) (Triangle, bool) {
	t, ok := m.sets[variable][label]
	return t, ok
}

// Sets returns the sets of a variable in source order.
func (m *MembershipModel) Sets(variable string) []NamedSet {
	labels := m.order[variable]
	out := make([]NamedSet, 0, len(labels))
	for _, label := range labels {
		out = append(out, NamedSet{Label: label, Triangle: m.sets[variable][label]})
	}
	return out
}

// Category returns the category a variable belongs to.
func (m *MembershipModel) Category(variable string) (string, bool) {
	c, ok := m.category[variable]
	return c, ok
}

// Variables returns every variable name, sorted.
func (m *MembershipModel) Variables() []string {
	out := make([]string, 0, len(m.sets))
	for v := range m.sets {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Categories returns category -> variable names.
func (m *MembershipModel) Categories() map[string][]string {
	out := make(map[string][]string)
	for v, c := range m.category {
		out[c] = append(out[c], v)
	}
	for c := range out {
		sort.Strings(out[c])
	}
	return out
}

// InputVariables returns, per category, the variables a caller should collect
// input for. Variables without membership data are left out.
func (m *MembershipModel) InputVariables() []CategoryVariables {
	cats := m.Categories()
	names := make([]string, 0, len(cats))
	for c := range cats {
		names = append(names, c)
	}
	sort.Strings(names)

	out := make([]CategoryVariables, 0, len(names))
	for _, c := range names {
		var vars []string
		for _, v := range cats[c] {
			if m.Has(v) {
				vars = append(vars, v)
			}
		}
		if len(vars) > 0 {
			out = append(out, CategoryVariables{Category: c, Variables: vars})
		}
	}
	return out
}

// RangeOf returns the smallest and largest control point across the sets of
// a variable. Crisp inputs outside this range are invalid.
func (m *MembershipModel) RangeOf(variable string) (float64, float64, error) {
	sets := m.sets[variable]
	if len(sets) == 0 {
		return 0, 0, fmt.Errorf("%w: %s", ErrNoMembershipData, variable)
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, t := range sets {
		lo = math.Min(lo, math.Min(t.A, math.Min(t.B, t.C)))
		hi = math.Max(hi, math.Max(t.A, math.Max(t.B, t.C)))
	}
	return lo, hi, nil
}

// Fuzzify computes the degree of every set of every supplied variable.
// Inputs for unknown variables yield an empty entry.
func (m *MembershipModel) Fuzzify(inputs map[string]float64) Fuzzification {
	out := make(Fuzzification, len(inputs))
	for variable, x := range inputs {
		degrees := make(map[string]float64, len(m.sets[variable]))
		for label, t := range m.sets[variable] {
			degrees[label] = t.Degree(x)
		}
		out[variable] = degrees
	}
	return out
}

// Fuzzification maps variable -> set label -> membership degree.
type Fuzzification map[string]map[string]float64

// Degree returns the degree for a condition, 0 when the variable had no input
// or the set is unknown.
func (f Fuzzification) Degree(variable, label string) float64 {
	return f[variable][label]
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrMissingField
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, ErrInvalidNumber
	}
	return v, nil
}
