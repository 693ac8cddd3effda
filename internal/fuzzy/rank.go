package fuzzy

import "sort"

// DefaultTopN is the number of diagnoses presented by default.
const DefaultTopN = 3

// Score is the raw evidence for one disease.
type Score struct {
	Disease string  `json:"disease"`
	Value   float64 `json:"value"`
}

// Scores keeps per-disease scores in first-seen order, which is also the
// tie-break order when ranking.
type Scores []Score

// Get returns the score of a disease.
func (s Scores) Get(disease string) (float64, bool) {
	for _, sc := range s {
		if sc.Disease == disease {
			return sc.Value, true
		}
	}
	return 0, false
}

// Map returns the scores keyed by disease.
func (s Scores) Map() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, sc := range s {
		out[sc.Disease] = sc.Value
	}
	return out
}

// Ranked is one entry of a ranking.
type Ranked struct {
	Disease    string  `json:"disease"`
	Score      float64 `json:"score"`
	Confidence float64 `json:"confidence"`
}

// Ranking is the normalised result of RankTopN. Confidences covers every
// scored disease; Top holds the selected diseases in rank order.
type Ranking struct {
	Confidences map[string]float64 `json:"confidences"`
	Top         []Ranked           `json:"top"`
}

// TopDiseases returns the names in Top.
func (r Ranking) TopDiseases() []string {
	out := make([]string, len(r.Top))
	for i, t := range r.Top {
		out[i] = t.Disease
	}
	return out
}

// RankTopN selects the n highest scores and turns them into percentages of
// their sum. With zero total evidence every confidence is 0 and Top is empty.
func RankTopN(scores Scores, n int) Ranking {
	r := Ranking{Confidences: make(map[string]float64, len(scores))}
	for _, sc := range scores {
		r.Confidences[sc.Disease] = 0
	}
	if n <= 0 || len(scores) == 0 {
		return r
	}

	sorted := append(Scores(nil), scores...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Value > sorted[j].Value
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	top := sorted[:n]

	var total float64
	for _, sc := range top {
		total += sc.Value
	}
	if total <= 0 {
		return r
	}

	r.Top = make([]Ranked, 0, n)
	for _, sc := range top {
		pct := 100 * sc.Value / total
		r.Confidences[sc.Disease] = pct
		r.Top = append(r.Top, Ranked{Disease: sc.Disease, Score: sc.Value, Confidence: pct})
	}
	return r
}

type scoreBoard struct {
	index  map[string]int
	scores Scores
}

func newScoreBoard() *scoreBoard {
	return &scoreBoard{index: make(map[string]int)}
}

func (b *scoreBoard) update(disease string, v float64, merge func(old, v float64) float64) {
	if i, ok := b.index[disease]; ok {
		b.scores[i].Value = merge(b.scores[i].Value, v)
		return
	}
	b.index[disease] = len(b.scores)
	b.scores = append(b.scores, Score{Disease: disease, Value: v})
}
