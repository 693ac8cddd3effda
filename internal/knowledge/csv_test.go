package knowledge

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
)

func dataSource() *CSVSource {
	return &CSVSource{
		MembershipPath: "../../data/member_function_respirasi.csv",
		RulesPath:      "../../data/bobot_respirasi.csv",
		OutputsPath:    "../../data/output_member_function.csv",
	}
}

func TestParseMembershipCSVLegacyHeaders(t *testing.T) {
	input := "\ufeffkategori,Gejala,Kategori,first,second\n" +
		"umum,demam,tinggi,6,10\n" +
		"\n" +
		"pernapasan, batuk ,ringan,\uff10,4\n" +
		"pernapasan,batuk,berat\n"

	rows, rejected, err := ParseMembershipCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, rejected)
	require.Len(t, rows, 3)

	assert.Equal(t, fuzzy.MembershipRow{Line: 2, Category: "umum", Variable: "demam", Set: "tinggi", Left: "6", Right: "10"}, rows[0])
	assert.Equal(t, 4, rows[1].Line)
	assert.Equal(t, "batuk", rows[1].Variable)
	assert.Equal(t, "0", rows[1].Left, "full-width digits are normalised")
	assert.Equal(t, "", rows[2].Left)
}

func TestParseMembershipCSVEnglishHeaders(t *testing.T) {
	input := "Right,Left,Set,Variable,Category\n10,6,high,fever,general\n"

	rows, _, err := ParseMembershipCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, fuzzy.MembershipRow{Line: 2, Category: "general", Variable: "fever", Set: "high", Left: "6", Right: "10"}, rows[0])
}

func TestParseRulesCSVMissingColumn(t *testing.T) {
	_, _, err := ParseRulesCSV(strings.NewReader("nama_penyakit,vars\nflu,\"['demam_tinggi']\"\n"))
	if !errors.Is(err, ErrMissingColumn) {
		t.Errorf("Expected ErrMissingColumn, got %v", err)
	}

	_, _, err = ParseRulesCSV(strings.NewReader(""))
	assert.Error(t, err)
}

func TestParseRulesCSVQuotedLiterals(t *testing.T) {
	input := "nama_penyakit,vars,weights\n" +
		"Asma,\"['sesak_napas_berat', 'batuk_ringan']\",\"[0.7, 0.3]\"\n"

	rows, _, err := ParseRulesCSV(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "['sesak_napas_berat', 'batuk_ringan']", rows[0].Conditions)
	assert.Equal(t, "[0.7, 0.3]", rows[0].Weights)
}

const brokenQuoteRules = "nama_penyakit,vars,weights\n" +
	"ISPA,\"['demam_sedang', 'batuk_sedang']\",\"[0.5, 0.5]\"\n" +
	"Asma,\"['sesak_napas_berat']\"x,\"[0.7]\"\n" +
	"TBC,\"['demam_sedang']\",\"[0.3]\"\n"

func TestParseRulesCSVSkipsBrokenQuoting(t *testing.T) {
	rows, rejected, err := ParseRulesCSV(strings.NewReader(brokenQuoteRules))
	require.NoError(t, err)

	require.Len(t, rows, 2)
	assert.Equal(t, "ISPA", rows[0].Disease)
	assert.Equal(t, "TBC", rows[1].Disease)
	assert.Equal(t, 4, rows[1].Line)

	require.Len(t, rejected, 1)
	assert.Equal(t, fuzzy.TableRules, rejected[0].Table)
	assert.Equal(t, 3, rejected[0].Line)
	if !errors.Is(rejected[0], fuzzy.ErrMalformedRecord) {
		t.Errorf("Expected ErrMalformedRecord, got %v", rejected[0])
	}
}

func TestCSVSourceLoadReportsBrokenRecord(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.csv")
	require.NoError(t, os.WriteFile(path, []byte(brokenQuoteRules), 0o600))

	src := dataSource()
	src.RulesPath = path
	tables, err := src.Load(context.Background())
	require.NoError(t, err)

	r := Build(tables, BuildOptions{Source: "csv"}).Report
	assert.Equal(t, 2, r.Rules)
	assert.Equal(t, []string{"ISPA", "TBC"}, r.Diseases)
	assert.Equal(t, 1, r.RejectedByTable[fuzzy.TableRules])
	require.Len(t, r.Rejected, 1)
	assert.Equal(t, 3, r.Rejected[0].Line)
}

func TestCSVSourceLoad(t *testing.T) {
	tables, err := dataSource().Load(context.Background())
	require.NoError(t, err)

	base := Build(tables, BuildOptions{Source: "csv"})
	r := base.Report

	assert.Equal(t, 4, r.Variables)
	assert.Equal(t, 10, r.Sets)
	assert.Equal(t, 5, r.Rules)
	assert.Equal(t, 5, r.Outputs)
	assert.Empty(t, r.Rejected)
	assert.Empty(t, r.MissingOutputs)
	assert.Equal(t, []string{"ISPA", "Pneumonia", "Asma", "Bronkitis", "TBC"}, r.Diseases)
}

func TestCSVSourceMissingFile(t *testing.T) {
	src := dataSource()
	src.RulesPath = "does-not-exist.csv"

	_, err := src.Load(context.Background())
	assert.Error(t, err)
}
