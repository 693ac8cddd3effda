package diagnosis

import (
	"time"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
	"github.com/respira-diag/fuzzydx/internal/shared/types"
)

// Strategy selects the inference method
type Strategy string

const (
	StrategyWeighted Strategy = "weighted"
	StrategyMamdani  Strategy = "mamdani"
)

// Request is one consultation: crisp symptom values keyed by variable name.
type Request struct {
	Inputs   map[string]float64 `json:"inputs"`
	Strategy Strategy           `json:"strategy,omitempty"`
	TopN     int                `json:"top_n,omitempty"`
	Trace    bool               `json:"trace,omitempty"`
}

// Diagnosis is one ranked candidate
type Diagnosis struct {
	Rank       int     `json:"rank"`
	Disease    string  `json:"disease"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Response is the result of one consultation. Confidences covers every
// scored disease; Diagnoses holds only the ranked top.
type Response struct {
	ID               types.ID            `json:"id"`
	Timestamp        time.Time           `json:"timestamp"`
	Strategy         Strategy            `json:"strategy"`
	KnowledgeVersion types.ID            `json:"knowledge_version"`
	Diagnoses        []Diagnosis         `json:"diagnoses"`
	Confidences      map[string]float64  `json:"confidences"`
	NoEvidence       bool                `json:"no_evidence"`
	Fuzzification    fuzzy.Fuzzification `json:"fuzzification"`
	CrispScore       *float64            `json:"crisp_score,omitempty"` // mean of maxima, Mamdani only
	ProcessingTimeMs float64             `json:"processing_time_ms"`
	Trace            *Trace              `json:"trace,omitempty"`
}

// Trace exposes intermediate results on request
type Trace struct {
	Rules       []fuzzy.RuleTrace      `json:"rules,omitempty"`
	Activations []fuzzy.RuleActivation `json:"activations,omitempty"`
	Domain      []float64              `json:"domain,omitempty"`
	Curves      []fuzzy.DiseaseCurve   `json:"curves,omitempty"`
	Aggregated  []float64              `json:"aggregated,omitempty"`
}

// Symptom describes one input the caller should collect
type Symptom struct {
	Variable string   `json:"variable"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
	Sets     []string `json:"sets"`
}

type SymptomCategory struct {
	Category string    `json:"category"`
	Symptoms []Symptom `json:"symptoms"`
}

type SymptomsResponse struct {
	KnowledgeVersion types.ID          `json:"knowledge_version"`
	Categories       []SymptomCategory `json:"categories"`
}
