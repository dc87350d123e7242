package diagnosis

import (
	"testing"

	"github.com/shopspring/decimal"
)

func candidate(disease string, confidence int64) Candidate {
	return Candidate{Disease: disease, Confidence: decimal.NewFromInt(confidence)}
}

func TestAggregateClarificationCarriesOnlyPrompt(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{
		Kind:         KindNeedsClarification,
		Primary:      candidate("Unknown", 0),
		FollowUp:     "Please specify duration",
		Treatment:    &Treatment{Medicines: []string{"Tulsi"}},
		Alternatives: []Candidate{candidate("Cold", 10)},
	})

	if result.Kind != KindNeedsClarification {
		t.Fatalf("expected clarification kind, got %s", result.Kind)
	}
	if result.Prompt != "Please specify duration" {
		t.Fatalf("unexpected prompt %q", result.Prompt)
	}
	if len(result.Ranked) != 0 || result.Treatment != nil || result.FollowUp != "" {
		t.Fatalf("clarification must not carry ranking or treatment: %+v", result)
	}
}

func TestAggregateClarificationDefaultPrompt(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{Kind: KindNeedsClarification})
	if result.Prompt != DefaultClarificationPrompt {
		t.Fatalf("expected default prompt, got %q", result.Prompt)
	}
}

func TestAggregatePrimaryAlwaysFirst(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{
		Kind:         KindResolved,
		Primary:      candidate("Flu", 80),
		Alternatives: []Candidate{candidate("Cold", 60)},
	})

	if len(result.Ranked) != 2 {
		t.Fatalf("expected two ranked entries, got %+v", result.Ranked)
	}
	first, second := result.Ranked[0], result.Ranked[1]
	if first.Rank != 1 || first.Disease != "Flu" || first.Percent != "80%" {
		t.Fatalf("unexpected primary %+v", first)
	}
	if second.Rank != 2 || second.Disease != "Cold" || second.Percent != "60%" {
		t.Fatalf("unexpected alternative %+v", second)
	}
}

func TestAggregateDoesNotResortByConfidence(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{
		Primary:      candidate("Migraine", 40),
		Alternatives: []Candidate{candidate("Tension headache", 35), candidate("Sinusitis", 90)},
	})

	want := []string{"Migraine", "Tension headache", "Sinusitis"}
	for i, name := range want {
		if result.Ranked[i].Disease != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, result.Ranked[i].Disease)
		}
	}
	if result.Kind != KindResolved {
		t.Fatalf("empty kind should default to resolved, got %s", result.Kind)
	}
}

func TestAggregateDropsRepeatedPrimary(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{
		Kind:         KindResolved,
		Primary:      candidate("Jaundice", 70),
		Alternatives: []Candidate{candidate("jaundice ", 70), candidate("Hepatitis A", 30)},
	})

	if len(result.Ranked) != 2 || result.Ranked[1].Disease != "Hepatitis A" || result.Ranked[1].Rank != 2 {
		t.Fatalf("expected primary not to repeat, got %+v", result.Ranked)
	}
}

func TestAggregatePassesOutOfRangeConfidenceThrough(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{
		Primary:      Candidate{Disease: "Dengue", Confidence: decimal.RequireFromString("130.5")},
		Alternatives: []Candidate{candidate("Malaria", -5)},
	})

	if result.Ranked[0].Percent != "130.5%" || result.Ranked[1].Percent != "-5%" {
		t.Fatalf("expected unclamped confidences, got %+v", result.Ranked)
	}
}

func TestAggregateBlockedKeepsFields(t *testing.T) {
	t.Parallel()

	result := Aggregate(Prediction{
		Kind:      KindBlocked,
		Primary:   candidate("Blocked by Guardrail", 0),
		FollowUp:  "Out of scope",
		Treatment: &Treatment{Precautions: []string{"See a doctor"}},
	})

	if result.Kind != KindBlocked {
		t.Fatalf("expected blocked kind, got %s", result.Kind)
	}
	if len(result.Ranked) != 1 || result.Treatment == nil || result.FollowUp != "Out of scope" {
		t.Fatalf("blocked results keep confidence and treatment: %+v", result)
	}
	if _, ok := result.Primary(); !ok {
		t.Fatalf("expected a primary entry")
	}
}
