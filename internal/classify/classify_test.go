package classify

import (
	"context"
	"testing"

	"github.com/lessonforge/pipeline/internal/llm"
)

func TestClassifyByKeywordMatchesFirstEntry(t *testing.T) {
	tests := []struct {
		topic        string
		wantCategory string
		wantLanguage string
	}{
		{"Intro to React Hooks", "frontend", "javascript"},
		{"Building REST APIs with Flask", "backend", "python"},
		{"Deploying with Kubernetes and Terraform", "devops", ""},
		{"Pandas for data cleaning", "data", "python"},
		{"SwiftUI basics", "mobile", "swift"},
	}

	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			got := classifyByKeyword(tt.topic)
			if got.Category != tt.wantCategory {
				t.Errorf("category = %q, want %q", got.Category, tt.wantCategory)
			}
			if got.Language != tt.wantLanguage {
				t.Errorf("language = %q, want %q", got.Language, tt.wantLanguage)
			}
			if got.Confidence != 1.0 {
				t.Errorf("confidence = %v, want 1.0 for a matched keyword", got.Confidence)
			}
		})
	}
}

func TestClassifyByKeywordDefaultsToGeneral(t *testing.T) {
	got := classifyByKeyword("The history of typewriters")
	if got.Category != "general" || got.Confidence != 0.3 {
		t.Fatalf("expected the general/0.3 default for an unmatched topic, got %+v", got)
	}
}

func TestNormalizeTopicCollapsesWhitespaceAndCase(t *testing.T) {
	if got := normalizeTopic("  Intro   To   REACT  "); got != "intro to react" {
		t.Fatalf("normalizeTopic = %q", got)
	}
}

// TestClassifyFallsBackWithoutAnyTiers exercises the classifier's two-tier
// contract end to end: an orchestrator with no configured tiers fails every
// call immediately, so Classify must still return a usable result from the
// keyword table rather than propagating an error.
func TestClassifyFallsBackWithoutAnyTiers(t *testing.T) {
	orchestrator := llm.NewOrchestrator() // no tiers configured
	classifier, err := New(orchestrator)
	if err != nil {
		t.Fatalf("unexpected error building classifier: %v", err)
	}

	result := classifier.Classify(context.Background(), "Learning Kubernetes operators")
	if result.Category != "devops" {
		t.Fatalf("expected keyword fallback to classify as devops, got %+v", result)
	}

	// Second call for the same (normalized) topic should be served from cache,
	// not recomputed — same result either way since the fallback is
	// deterministic, but this exercises the cache path.
	again := classifier.Classify(context.Background(), "  LEARNING   kubernetes operators ")
	if again != result {
		t.Fatalf("expected a cached result for the normalized topic, got %+v vs %+v", again, result)
	}
}
