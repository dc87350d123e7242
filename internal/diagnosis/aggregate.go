package diagnosis

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultClarificationPrompt is used when the service asks for more detail
// without saying what it needs.
const DefaultClarificationPrompt = "Please describe your condition in more detail."

// Ranked is a candidate with its display position, starting at 1.
type Ranked struct {
	Rank       int             `json:"rank"`
	Disease    string          `json:"disease"`
	Confidence decimal.Decimal `json:"confidence"`
	Percent    string          `json:"percent"`
}

// Result is the view model for one symptom submission. A clarification result
// carries only Prompt.
type Result struct {
	Kind             Kind       `json:"kind"`
	Prompt           string     `json:"prompt,omitempty"`
	Ranked           []Ranked   `json:"ranked,omitempty"`
	FollowUp         string     `json:"follow_up,omitempty"`
	Treatment        *Treatment `json:"treatment,omitempty"`
	DetectedSymptoms []string   `json:"detected_symptoms,omitempty"`
	SubmittedAt      time.Time  `json:"submitted_at"`
}

// Primary returns the rank-1 entry, if any.
func (r Result) Primary() (Ranked, bool) {
	if len(r.Ranked) == 0 {
		return Ranked{}, false
	}
	return r.Ranked[0], true
}

// Aggregate builds the ranked view. The primary prediction is always rank 1
// and the alternatives keep the order the service returned them in; entries
// that repeat the primary disease are dropped. Confidences are not clamped.
func Aggregate(p Prediction) Result {
	if p.Kind == KindNeedsClarification {
		prompt := strings.TrimSpace(p.FollowUp)
		if prompt == "" {
			prompt = DefaultClarificationPrompt
		}
		return Result{Kind: KindNeedsClarification, Prompt: prompt}
	}

	kind := p.Kind
	if kind == "" {
		kind = KindResolved
	}

	ranked := make([]Ranked, 0, len(p.Alternatives)+1)
	ranked = append(ranked, rank(1, p.Primary))
	for _, alt := range p.Alternatives {
		if strings.EqualFold(strings.TrimSpace(alt.Disease), strings.TrimSpace(p.Primary.Disease)) {
			continue
		}
		ranked = append(ranked, rank(len(ranked)+1, alt))
	}

	result := Result{
		Kind:             kind,
		Ranked:           ranked,
		FollowUp:         strings.TrimSpace(p.FollowUp),
		DetectedSymptoms: p.DetectedSymptoms,
	}
	if p.Treatment != nil {
		treatment := *p.Treatment
		result.Treatment = &treatment
	}
	return result
}

// Percent renders a confidence the way the dashboard shows it.
func Percent(confidence decimal.Decimal) string {
	return confidence.String() + "%"
}

func rank(position int, c Candidate) Ranked {
	return Ranked{
		Rank:       position,
		Disease:    c.Disease,
		Confidence: c.Confidence,
		Percent:    Percent(c.Confidence),
	}
}
