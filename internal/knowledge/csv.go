package knowledge

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
)

var ErrMissingColumn = errors.New("missing column")

// Column names accepted per field. The first name is the canonical header of
// the legacy spreadsheets; "kategori" and "Kategori" differ only by case, so
// exact matches are resolved before case-insensitive ones.
var (
	membershipColumns = []column{
		{"category", []string{"kategori", "category", "group"}},
		{"variable", []string{"Gejala", "variable", "symptom"}},
		{"set", []string{"Kategori", "set", "label"}},
		{"left", []string{"first", "left"}},
		{"right", []string{"second", "right"}},
	}
	ruleColumns = []column{
		{"disease", []string{"nama_penyakit", "disease"}},
		{"conditions", []string{"vars", "conditions"}},
		{"weights", []string{"weights", "bobot"}},
	}
	outputColumns = []column{
		{"disease", []string{"penyakit", "disease"}},
		{"a", []string{"a"}},
		{"b", []string{"b"}},
		{"c", []string{"c"}},
	}
)

type column struct {
	field string
	names []string
}

// CSVSource reads the three tables from delimited files. OutputsPath may be
// empty when only the weighted strategy is used.
type CSVSource struct {
	MembershipPath string
	RulesPath      string
	OutputsPath    string
}

func (s *CSVSource) Name() string { return "csv" }

// Load reads every table. Records the CSV reader cannot parse are skipped
// and listed in Tables.Rejected; only unreadable files or headers fail.
func (s *CSVSource) Load(ctx context.Context) (*Tables, error) {
	t := &Tables{}

	err := readFile(s.MembershipPath, func(r io.Reader) error {
		rows, rejected, err := ParseMembershipCSV(r)
		t.Membership = rows
		t.Rejected = append(t.Rejected, rejected...)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	err = readFile(s.RulesPath, func(r io.Reader) error {
		rows, rejected, err := ParseRulesCSV(r)
		t.Rules = rows
		t.Rejected = append(t.Rejected, rejected...)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.OutputsPath != "" {
		err = readFile(s.OutputsPath, func(r io.Reader) error {
			rows, rejected, err := ParseOutputsCSV(r)
			t.Outputs = rows
			t.Rejected = append(t.Rejected, rejected...)
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	return t, nil
}

func readFile(path string, parse func(io.Reader) error) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := parse(f); err != nil {
		return fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ParseMembershipCSV reads kategori,Gejala,Kategori,first,second rows.
func ParseMembershipCSV(r io.Reader) ([]fuzzy.MembershipRow, []*fuzzy.RowError, error) {
	var out []fuzzy.MembershipRow
	rejected, err := readTable(r, fuzzy.TableMembership, membershipColumns, func(line int, get func(string) string) {
		out = append(out, fuzzy.MembershipRow{
			Line:     line,
			Category: get("category"),
			Variable: get("variable"),
			Set:      get("set"),
			Left:     get("left"),
			Right:    get("right"),
		})
	})
	return out, rejected, err
}

// ParseRulesCSV reads nama_penyakit,vars,weights rows.
func ParseRulesCSV(r io.Reader) ([]fuzzy.RuleRow, []*fuzzy.RowError, error) {
	var out []fuzzy.RuleRow
	rejected, err := readTable(r, fuzzy.TableRules, ruleColumns, func(line int, get func(string) string) {
		out = append(out, fuzzy.RuleRow{
			Line:       line,
			Disease:    get("disease"),
			Conditions: get("conditions"),
			Weights:    get("weights"),
		})
	})
	return out, rejected, err
}

// ParseOutputsCSV reads penyakit,a,b,c rows.
func ParseOutputsCSV(r io.Reader) ([]fuzzy.OutputRow, []*fuzzy.RowError, error) {
	var out []fuzzy.OutputRow
	rejected, err := readTable(r, fuzzy.TableOutputs, outputColumns, func(line int, get func(string) string) {
		out = append(out, fuzzy.OutputRow{
			Line:    line,
			Disease: get("disease"),
			A:       get("a"),
			B:       get("b"),
			C:       get("c"),
		})
	})
	return out, rejected, err
}

// readTable resolves the header and hands each record to emit with its
// 1-based source line. Short records yield empty cells, which the core
// loaders reject per row. Records with broken quoting are returned as
// rejected rows and reading continues with the next record.
func readTable(r io.Reader, table string, columns []column, emit func(line int, get func(string) string)) ([]*fuzzy.RowError, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err == io.EOF {
		return nil, errors.New("empty table")
	}
	if err != nil {
		return nil, err
	}
	for i, cell := range header {
		header[i] = cleanCell(cell)
	}

	index, err := resolveColumns(header, columns)
	if err != nil {
		return nil, err
	}

	var rejected []*fuzzy.RowError
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return rejected, nil
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			rejected = append(rejected, &fuzzy.RowError{
				Table: table,
				Line:  pe.StartLine,
				Err:   fmt.Errorf("%w: column %d: %v", fuzzy.ErrMalformedRecord, pe.Column, pe.Err),
			})
			continue
		}
		if err != nil {
			return rejected, err
		}
		line, _ := reader.FieldPos(0)
		get := func(field string) string {
			i := index[field]
			if i >= len(record) {
				return ""
			}
			return cleanCell(record[i])
		}
		emit(line, get)
	}
}

func resolveColumns(header []string, columns []column) (map[string]int, error) {
	index := make(map[string]int, len(columns))
	claimed := make(map[int]bool, len(header))

	for _, col := range columns {
		for i, h := range header {
			if !claimed[i] && h == col.names[0] {
				index[col.field] = i
				claimed[i] = true
				break
			}
		}
	}
	for _, col := range columns {
		if _, ok := index[col.field]; ok {
			continue
		}
		if i := findColumn(header, col.names, claimed); i >= 0 {
			index[col.field] = i
			claimed[i] = true
			continue
		}
		return nil, fmt.Errorf("%w: %s (accepted headers: %s)", ErrMissingColumn, col.field, strings.Join(col.names, ", "))
	}
	return index, nil
}

func findColumn(header []string, candidates []string, claimed map[int]bool) int {
	for _, cand := range candidates {
		for i, col := range header {
			if !claimed[i] && strings.EqualFold(col, cand) {
				return i
			}
		}
	}
	return -1
}

// cleanCell normalises spreadsheet exports: BOM, compatibility forms such as
// full-width digits, and stray control characters.
func cleanCell(v string) string {
	v = strings.TrimPrefix(v, "\ufeff")
	v = norm.NFKC.String(v)
	v = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, v)
	return strings.TrimSpace(v)
}
