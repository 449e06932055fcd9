package parse

import (
	"errors"
	"strings"
	"testing"
)

func TestExtractJSONFromFencedBlock(t *testing.T) {
	raw := "Here is the result:\n```json\n{\"text\": \"hello\"}\n```\nHope that helps."
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"text": "hello"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONFromBareObject(t *testing.T) {
	raw := `some preamble {"text": "hello"} trailing notes`
	got, err := ExtractJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != `{"text": "hello"}` {
		t.Fatalf("got %q", got)
	}
}

func TestExtractJSONNoObjectFound(t *testing.T) {
	if _, err := ExtractJSON("no json here"); err == nil {
		t.Fatal("expected an error when no JSON object is present")
	}
}

func TestParseTextRejectsEmpty(t *testing.T) {
	_, err := ParseText("introduction", `{"text": "   "}`)
	if err == nil {
		t.Fatal("expected an error for blank text")
	}
	var invalid *ErrInvalidResponse
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *ErrInvalidResponse, got %T", err)
	}
}

func TestParseTextAcceptsValid(t *testing.T) {
	text, err := ParseText("body", `{"text": "Channels are typed conduits."}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text != "Channels are typed conduits." {
		t.Fatalf("got %q", text)
	}
}

func TestParseExercisesCapsAndKeepsFraction(t *testing.T) {
	raw := `{"exercises": [
		{"prompt": "one"}, {"prompt": "two"}, {"prompt": "three"},
		{"prompt": "four"}, {"prompt": "five"}, {"prompt": "six"}
	]}`

	exercises, err := ParseExercises(raw, 4, 0.6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// capped to 4, then 60% of 4 rounded = 2 (4*0.6+0.5=2.9 -> 2)
	if len(exercises) != 2 {
		t.Fatalf("expected 2 exercises after capping and fraction, got %d", len(exercises))
	}
	if exercises[0].Prompt != "one" || exercises[1].Prompt != "two" {
		t.Fatalf("expected the leading exercises to be kept, got %+v", exercises)
	}
}

func TestParseExercisesRejectsMissingPrompt(t *testing.T) {
	raw := `{"exercises": [{"prompt": ""}]}`
	if _, err := ParseExercises(raw, 4, 1.0); err == nil {
		t.Fatal("expected an error for an exercise missing its prompt")
	}
}

func TestParseExercisesRejectsEmptyList(t *testing.T) {
	if _, err := ParseExercises(`{"exercises": []}`, 4, 1.0); err == nil {
		t.Fatal("expected an error for an empty exercises list")
	}
}

func TestParseQuizRejectsTooFewChoices(t *testing.T) {
	raw := `{"quiz": [{"question": "q", "choices": ["a"], "answer": "a"}]}`
	if _, err := ParseQuiz(raw); err == nil {
		t.Fatal("expected an error for a question with fewer than 2 choices")
	}
}

func TestParseQuizCapsAtMax(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`{"quiz": [`)
	for i := 0; i < 15; i++ {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(`{"question": "q", "choices": ["a", "b"], "answer": "a"}`)
	}
	sb.WriteString(`]}`)

	quiz, err := ParseQuiz(sb.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(quiz) != maxQuizQuestions {
		t.Fatalf("expected quiz capped at %d, got %d", maxQuizQuestions, len(quiz))
	}
}

func TestParseDiagramsWrapperShape(t *testing.T) {
	diagrams, err := ParseDiagrams(`{"diagrams": [{"type": "mermaid", "code": "graph TD; A-->B"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diagrams) != 1 || diagrams[0].Code != "graph TD; A-->B" {
		t.Fatalf("got %+v", diagrams)
	}
}

func TestParseDiagramsBareListShape(t *testing.T) {
	diagrams, err := ParseDiagrams(`[{"type": "mermaid", "code": "graph TD; A-->B"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diagrams) != 1 {
		t.Fatalf("got %+v", diagrams)
	}
}

func TestParseDiagramsSingleObjectShape(t *testing.T) {
	diagrams, err := ParseDiagrams(`{"code": "graph TD; A-->B"}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diagrams) != 1 {
		t.Fatalf("got %+v", diagrams)
	}
}

// TestParseDiagramsDefaultsMissingType is a regression test: validateDiagrams
// used to mutate a range-loop copy, so a missing type was silently dropped
// instead of defaulted to "mermaid".
func TestParseDiagramsDefaultsMissingType(t *testing.T) {
	diagrams, err := ParseDiagrams(`{"diagrams": [{"code": "graph TD; A-->B"}]}`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(diagrams) != 1 {
		t.Fatalf("got %+v", diagrams)
	}
	if diagrams[0].Type != "mermaid" {
		t.Fatalf("expected missing diagram type to default to \"mermaid\", got %q", diagrams[0].Type)
	}
}

func TestParseDiagramsRejectsMissingCode(t *testing.T) {
	if _, err := ParseDiagrams(`{"diagrams": [{"type": "mermaid", "code": ""}]}`); err == nil {
		t.Fatal("expected an error for a diagram missing its code")
	}
}

func TestParseDiagramsRejectsUnrecognizedShape(t *testing.T) {
	if _, err := ParseDiagrams(`{"foo": "bar"}`); err == nil {
		t.Fatal("expected an error for an unrecognized diagram shape")
	}
}
