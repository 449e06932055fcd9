// Package parse implements the response parser (G): tolerant JSON extraction,
// per-component schema validation, diagram shape normalization, and
// list-length capping. It rejects and reports malformed responses rather
// than silently repairing them.
package parse

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lessonforge/pipeline/internal/model"
)

// ErrInvalidResponse reports a rejected AI response, carrying enough detail
// for the assembler to feed back into a single regeneration attempt.
type ErrInvalidResponse struct {
	Component string
	Reason    string
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Component, e.Reason)
}

var jsonBlockRe = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// ExtractJSON tolerantly pulls a JSON object out of model output that may be
// wrapped in prose or a fenced code block.
func ExtractJSON(text string) (string, error) {
	text = strings.TrimSpace(text)

	if m := jsonBlockRe.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start == -1 || end == -1 || end < start {
		return "", fmt.Errorf("no JSON object found in response")
	}

	return text[start : end+1], nil
}

// textResponse is what the assembler expects for the introduction/body/reading components.
type textResponse struct {
	Text string `json:"text"`
}

// ParseText validates a free-text component response (introduction, body, reading).
func ParseText(component, raw string) (string, error) {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return "", &ErrInvalidResponse{Component: component, Reason: err.Error()}
	}

	var resp textResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return "", &ErrInvalidResponse{Component: component, Reason: "malformed JSON: " + err.Error()}
	}
	if strings.TrimSpace(resp.Text) == "" {
		return "", &ErrInvalidResponse{Component: component, Reason: "missing required field: text"}
	}

	return resp.Text, nil
}

type exercisesResponse struct {
	Exercises []model.Exercise `json:"exercises"`
}

// ParseExercises caps the list per content depth's complexity adjustment:
// low time-commitment keeps the leading 60%, others keep all.
func ParseExercises(raw string, maxCount int, keepFraction float64) ([]model.Exercise, error) {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return nil, &ErrInvalidResponse{Component: "exercises", Reason: err.Error()}
	}

	var resp exercisesResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, &ErrInvalidResponse{Component: "exercises", Reason: "malformed JSON: " + err.Error()}
	}
	if len(resp.Exercises) == 0 {
		return nil, &ErrInvalidResponse{Component: "exercises", Reason: "missing required field: exercises"}
	}

	for _, ex := range resp.Exercises {
		if strings.TrimSpace(ex.Prompt) == "" {
			return nil, &ErrInvalidResponse{Component: "exercises", Reason: "exercise missing prompt"}
		}
	}

	capped := capList(resp.Exercises, maxCount)
	keep := int(float64(len(capped))*keepFraction + 0.5)
	if keep < 1 {
		keep = 1
	}
	if keep > len(capped) {
		keep = len(capped)
	}
	return capped[:keep], nil
}

type quizResponse struct {
	Quiz []model.QuizQuestion `json:"quiz"`
}

const maxQuizQuestions = 10

// ParseQuiz validates the quiz response, rejecting questions with too few choices.
func ParseQuiz(raw string) ([]model.QuizQuestion, error) {
	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		return nil, &ErrInvalidResponse{Component: "quiz", Reason: err.Error()}
	}

	var resp quizResponse
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return nil, &ErrInvalidResponse{Component: "quiz", Reason: "malformed JSON: " + err.Error()}
	}
	if len(resp.Quiz) == 0 {
		return nil, &ErrInvalidResponse{Component: "quiz", Reason: "missing required field: quiz"}
	}

	for _, q := range resp.Quiz {
		if len(q.Choices) < 2 {
			return nil, &ErrInvalidResponse{Component: "quiz", Reason: "question has fewer than 2 choices"}
		}
		if q.Answer == "" {
			return nil, &ErrInvalidResponse{Component: "quiz", Reason: "question missing answer"}
		}
	}

	return capList(resp.Quiz, maxQuizQuestions), nil
}

// ParseDiagrams normalizes any of the shape variations a model might emit —
// a bare list, a {diagrams: [...]} wrapper, a single object, or a raw code
// string with no JSON object in it — into the canonical [{type, code}, ...]
// shape.
func ParseDiagrams(raw string) ([]model.Diagram, error) {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "[") {
		var bare []model.Diagram
		if err := json.Unmarshal([]byte(trimmed), &bare); err == nil && len(bare) > 0 {
			return validateDiagrams(bare)
		}
	}

	jsonStr, err := ExtractJSON(raw)
	if err != nil {
		if trimmed != "" {
			return validateDiagrams([]model.Diagram{{Code: trimmed}})
		}
		return nil, &ErrInvalidResponse{Component: "diagrams", Reason: err.Error()}
	}

	var asWrapper struct {
		Diagrams []model.Diagram `json:"diagrams"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &asWrapper); err == nil && len(asWrapper.Diagrams) > 0 {
		return validateDiagrams(asWrapper.Diagrams)
	}

	var asList []model.Diagram
	if err := json.Unmarshal([]byte(jsonStr), &asList); err == nil && len(asList) > 0 {
		return validateDiagrams(asList)
	}

	var asSingle model.Diagram
	if err := json.Unmarshal([]byte(jsonStr), &asSingle); err == nil && asSingle.Code != "" {
		return validateDiagrams([]model.Diagram{asSingle})
	}

	return nil, &ErrInvalidResponse{Component: "diagrams", Reason: "unrecognized diagram shape"}
}

func validateDiagrams(diagrams []model.Diagram) ([]model.Diagram, error) {
	for i := range diagrams {
		if strings.TrimSpace(diagrams[i].Code) == "" {
			return nil, &ErrInvalidResponse{Component: "diagrams", Reason: "diagram missing code"}
		}
		if diagrams[i].Type == "" {
			diagrams[i].Type = "mermaid"
		}
	}
	return diagrams, nil
}

func capList[T any](items []T, max int) []T {
	if len(items) <= max {
		return items
	}
	return items[:max]
}
