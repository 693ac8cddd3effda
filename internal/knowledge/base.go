package knowledge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
	"github.com/respira-diag/fuzzydx/internal/shared/types"
)

// Base is an immutable, fully loaded knowledge base. Requests share it
// without locking; a reload builds a new Base.
type Base struct {
	Model   *fuzzy.MembershipModel
	Rules   []fuzzy.Rule
	Outputs map[string]fuzzy.Triangle
	Report  LoadReport
}

// LoadReport summarises a load for operators.
type LoadReport struct {
	Version         types.ID       `json:"version"`
	Source          string         `json:"source"`
	LoadedAt        time.Time      `json:"loaded_at"`
	Variables       int            `json:"variables"`
	Sets            int            `json:"sets"`
	Rules           int            `json:"rules"`
	Diseases        []string       `json:"diseases"`
	Outputs         int            `json:"outputs"`
	MissingOutputs  []string       `json:"missing_outputs,omitempty"` // rule targets without an output set
	RejectedByTable map[string]int `json:"rejected_by_table"`
	Rejected        []RejectedRow  `json:"rejected,omitempty"`
}

type RejectedRow struct {
	Table string `json:"table"`
	Line  int    `json:"line"`
	Key   string `json:"key,omitempty"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
	Error string `json:"error"`
}

// RejectedCount is the total number of rows skipped during the load.
func (r LoadReport) RejectedCount() int {
	return len(r.Rejected)
}

type BuildOptions struct {
	Source string
	Now    func() time.Time
}

// Build runs the core loaders over t. Bad rows are skipped and reported;
// Build itself never fails.
func Build(t *Tables, opts BuildOptions) *Base {
	if opts.Now == nil {
		opts.Now = time.Now
	}

	model, memErrs := fuzzy.LoadMembership(t.Membership)
	rules, ruleErrs := fuzzy.LoadRules(t.Rules)
	outputs, outErrs := fuzzy.LoadOutputs(t.Outputs)

	rowErrs := make([]*fuzzy.RowError, 0, len(t.Rejected)+len(memErrs)+len(ruleErrs)+len(outErrs))
	rowErrs = append(rowErrs, t.Rejected...)
	rowErrs = append(rowErrs, memErrs...)
	rowErrs = append(rowErrs, ruleErrs...)
	rowErrs = append(rowErrs, outErrs...)

	report := LoadReport{
		Version:  version(t),
		Source:   opts.Source,
		LoadedAt: opts.Now().UTC(),
		Rules:    len(rules),
		Diseases: fuzzy.Diseases(rules),
		Outputs:  len(outputs),
		RejectedByTable: map[string]int{
			fuzzy.TableMembership: 0,
			fuzzy.TableRules:      0,
			fuzzy.TableOutputs:    0,
		},
	}
	for _, v := range model.Variables() {
		report.Variables++
		report.Sets += len(model.Sets(v))
	}
	for _, d := range report.Diseases {
		if _, ok := outputs[d]; !ok {
			report.MissingOutputs = append(report.MissingOutputs, d)
		}
	}
	for _, e := range rowErrs {
		report.RejectedByTable[e.Table]++
		report.Rejected = append(report.Rejected, RejectedRow{
			Table: e.Table,
			Line:  e.Line,
			Key:   e.Key,
			Field: e.Field,
			Value: e.Value,
			Error: e.Err.Error(),
		})
	}

	return &Base{
		Model:   model,
		Rules:   rules,
		Outputs: outputs,
		Report:  report,
	}
}

// version derives a stable ID from the raw tables, so reloading unchanged
// data keeps the same version.
func version(t *Tables) types.ID {
	h := sha256.New()
	enc := json.NewEncoder(h)
	_ = enc.Encode(t.Membership)
	_ = enc.Encode(t.Rules)
	_ = enc.Encode(t.Outputs)
	return types.NewDeterministicID("knowledge", hex.EncodeToString(h.Sum(nil)))
}
