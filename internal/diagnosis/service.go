package diagnosis

import (
	"context"
	stderrors "errors"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/respira-diag/fuzzydx/internal/fuzzy"
	"github.com/respira-diag/fuzzydx/internal/knowledge"
	"github.com/respira-diag/fuzzydx/internal/shared/config"
	"github.com/respira-diag/fuzzydx/internal/shared/errors"
	"github.com/respira-diag/fuzzydx/internal/shared/metrics"
	"github.com/respira-diag/fuzzydx/internal/shared/types"
)

// MaxTopN bounds the requested ranking size
const MaxTopN = 50

// Options are the defaults applied when a request leaves a field empty.
type Options struct {
	Strategy     Strategy
	TopN         int
	Accumulation fuzzy.AccumulationPolicy
	Domain       fuzzy.Domain
}

// OptionsFromConfig validates the inference section and turns it into Options.
func OptionsFromConfig(cfg config.InferenceConfig) (Options, error) {
	strategy, err := ParseStrategy(cfg.Strategy)
	if err != nil {
		return Options{}, err
	}
	policy, err := fuzzy.ParseAccumulationPolicy(cfg.Accumulation)
	if err != nil {
		return Options{}, err
	}
	domain, err := fuzzy.NewDomain(cfg.DomainMin, cfg.DomainMax, cfg.DomainPoints)
	if err != nil {
		return Options{}, err
	}
	topN := cfg.TopN
	if topN <= 0 {
		topN = fuzzy.DefaultTopN
	}
	return Options{Strategy: strategy, TopN: topN, Accumulation: policy, Domain: domain}, nil
}

// ParseStrategy accepts "weighted" or "mamdani".
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyWeighted, StrategyMamdani:
		return Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q (want weighted or mamdani)", s)
}

// Service runs consultations against the current knowledge base.
type Service struct {
	store *knowledge.Store
	opts  Options
	log   logrus.FieldLogger
	now   func() time.Time
}

// NewService fills unset options with the package defaults.
func NewService(store *knowledge.Store, opts Options, log logrus.FieldLogger) *Service {
	if opts.TopN <= 0 {
		opts.TopN = fuzzy.DefaultTopN
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyWeighted
	}
	if opts.Domain.Len() == 0 {
		opts.Domain = fuzzy.DefaultDomain()
	}
	return &Service{store: store, opts: opts, log: log, now: time.Now}
}

func (s *Service) base() (*knowledge.Base, error) {
	base := s.store.Current()
	if base == nil {
		return nil, errors.ServiceUnavailable("knowledge base not loaded")
	}
	return base, nil
}

// Diagnose validates the request, evaluates it and ranks the candidates.
func (s *Service) Diagnose(ctx context.Context, req Request) (*Response, error) {
	base, err := s.base()
	if err != nil {
		return nil, err
	}

	strategy := req.Strategy
	if strategy == "" {
		strategy = s.opts.Strategy
	}
	if _, err := ParseStrategy(string(strategy)); err != nil {
		return nil, errors.Validation("invalid request", map[string]string{"strategy": err.Error()})
	}

	topN := req.TopN
	if topN == 0 {
		topN = s.opts.TopN
	}
	if topN < 0 || topN > MaxTopN {
		return nil, errors.Validation("invalid request", map[string]string{
			"top_n": fmt.Sprintf("must be between 1 and %d", MaxTopN),
		})
	}

	if err := validateInputs(base.Model, req.Inputs); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	resp := &Response{
		ID:               types.NewID(),
		Timestamp:        s.now().UTC(),
		Strategy:         strategy,
		KnowledgeVersion: base.Report.Version,
	}

	var scores fuzzy.Scores
	switch strategy {
	case StrategyWeighted:
		res := fuzzy.InferWeighted(req.Inputs, base.Model, base.Rules, s.opts.Accumulation)
		scores = res.Scores
		resp.Fuzzification = res.Fuzzification
		if req.Trace {
			resp.Trace = &Trace{Rules: res.Trace}
		}

	case StrategyMamdani:
		res, err := fuzzy.InferMamdani(req.Inputs, base.Model, base.Rules, base.Outputs, s.opts.Domain)
		if err != nil {
			metrics.RecordDiagnosis(string(strategy), "error", time.Since(start))
			s.log.WithError(err).WithField("knowledge_version", base.Report.Version).Error("mamdani evaluation failed")
			if stderrors.Is(err, fuzzy.ErrMissingOutputSet) {
				return nil, errors.Wrap(err, "knowledge base is missing output membership")
			}
			return nil, errors.Internal(err)
		}
		scores = res.PeakScores()
		crisp := res.Crisp
		resp.CrispScore = &crisp
		resp.Fuzzification = res.Fuzzification
		if req.Trace {
			resp.Trace = &Trace{
				Activations: res.Activations,
				Domain:      s.opts.Domain.Points(),
				Curves:      res.Curves,
				Aggregated:  res.Aggregated,
			}
		}
	}

	ranking := fuzzy.RankTopN(scores, topN)
	resp.Confidences = ranking.Confidences
	resp.Diagnoses = make([]Diagnosis, 0, len(ranking.Top))
	for i, r := range ranking.Top {
		resp.Diagnoses = append(resp.Diagnoses, Diagnosis{
			Rank:       i + 1,
			Disease:    r.Disease,
			Score:      r.Score,
			Confidence: r.Confidence,
		})
	}
	resp.NoEvidence = len(resp.Diagnoses) == 0

	elapsed := time.Since(start)
	resp.ProcessingTimeMs = float64(elapsed.Microseconds()) / 1000

	outcome := "ok"
	if resp.NoEvidence {
		outcome = "no_evidence"
	}
	metrics.RecordDiagnosis(string(strategy), outcome, elapsed)

	entry := s.log.WithFields(logrus.Fields{
		"diagnosis_id": resp.ID,
		"strategy":     strategy,
		"inputs":       len(req.Inputs),
		"candidates":   len(resp.Diagnoses),
	})
	if !resp.NoEvidence {
		entry = entry.WithField("top", resp.Diagnoses[0].Disease)
	}
	entry.Debug("diagnosis completed")

	return resp, nil
}

// validateInputs rejects unknown variables and values outside the
// variable's membership range; such values never reach the evaluators.
func validateInputs(model *fuzzy.MembershipModel, inputs map[string]float64) error {
	details := make(map[string]string)
	for variable, x := range inputs {
		lo, hi, err := model.RangeOf(variable)
		if err != nil {
			details[variable] = "unknown symptom"
			continue
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			details[variable] = "must be a finite number"
			continue
		}
		if x < lo || x > hi {
			details[variable] = fmt.Sprintf("must be between %g and %g", lo, hi)
		}
	}
	if len(details) > 0 {
		return errors.Validation("invalid symptom values", details)
	}
	return nil
}

// Symptoms lists the inputs to collect, grouped by category.
func (s *Service) Symptoms() (*SymptomsResponse, error) {
	base, err := s.base()
	if err != nil {
		return nil, err
	}

	resp := &SymptomsResponse{KnowledgeVersion: base.Report.Version}
	for _, cv := range base.Model.InputVariables() {
		cat := SymptomCategory{Category: cv.Category}
		for _, v := range cv.Variables {
			lo, hi, err := base.Model.RangeOf(v)
			if err != nil {
				continue
			}
			sym := Symptom{Variable: v, Min: lo, Max: hi}
			for _, set := range base.Model.Sets(v) {
				sym.Sets = append(sym.Sets, set.Label)
			}
			cat.Symptoms = append(cat.Symptoms, sym)
		}
		resp.Categories = append(resp.Categories, cat)
	}
	return resp, nil
}

// Knowledge returns the report of the active knowledge base.
func (s *Service) Knowledge() (*knowledge.LoadReport, error) {
	base, err := s.base()
	if err != nil {
		return nil, err
	}
	report := base.Report
	return &report, nil
}

// Reload swaps in a freshly loaded knowledge base.
func (s *Service) Reload(ctx context.Context) (*knowledge.LoadReport, error) {
	base, err := s.store.Reload(ctx)
	if err != nil {
		if stderrors.Is(err, knowledge.ErrEmptyKnowledgeBase) {
			return nil, errors.Validation("reload rejected", map[string]string{"membership": err.Error()})
		}
		return nil, errors.Wrap(err, "knowledge base reload failed")
	}
	report := base.Report
	return &report, nil
}
