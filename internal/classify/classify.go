// Package classify implements the two-tier topic classifier (C): an AI
// primary path with an LRU cache, falling back to a deterministic keyword
// table when the AI call fails or quota is exhausted.
package classify

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/golang-lru/v2"
	commonllm "github.com/lessonforge/pipeline/common/llm"
	"github.com/lessonforge/pipeline/internal/llm"
)

// Result is the classifier's output for one topic.
type Result struct {
	Category   string  `json:"category" jsonschema:"required"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence" jsonschema:"required"`
}

type aiResponse struct {
	Category   string  `json:"category" jsonschema:"required,enum=frontend,enum=backend,enum=data,enum=devops,enum=mobile,enum=general"`
	Language   string  `json:"language,omitempty"`
	Confidence float64 `json:"confidence" jsonschema:"required"`
}

// Classifier resolves a free-text topic to a category and optional language.
type Classifier struct {
	orchestrator *llm.Orchestrator
	cache        *lru.Cache[string, Result]
}

// New builds a Classifier with an LRU cache of at least 1000 entries.
func New(orchestrator *llm.Orchestrator) (*Classifier, error) {
	cache, err := lru.New[string, Result](1000)
	if err != nil {
		return nil, fmt.Errorf("creating classifier cache: %w", err)
	}
	return &Classifier{orchestrator: orchestrator, cache: cache}, nil
}

// Classify returns (category, language). It never errors: AI failure falls
// through to the deterministic keyword table, which always produces a result.
func (c *Classifier) Classify(ctx context.Context, topic string) Result {
	key := normalizeTopic(topic)

	if cached, ok := c.cache.Get(key); ok {
		return cached
	}

	if result, ok := c.classifyWithAI(ctx, topic); ok {
		c.cache.Add(key, result)
		return result
	}

	result := classifyByKeyword(topic)
	c.cache.Add(key, result)
	return result
}

func (c *Classifier) classifyWithAI(ctx context.Context, topic string) (Result, bool) {
	var resp aiResponse
	req := commonllm.Request{
		SystemPrompt: "You classify a programming lesson topic into exactly one category: frontend, backend, data, devops, mobile, or general. Identify a programming language if one is clearly implied.",
		UserPrompt:   fmt.Sprintf("Topic: %s", topic),
		SchemaName:   "topic_classification",
		Schema:       commonllm.GenerateSchema[aiResponse](),
		MaxTokens:    200,
		Temperature:  commonllm.Temp(0),
	}

	res, err := c.orchestrator.Generate(ctx, "classify", req, &resp)
	if err != nil {
		return Result{}, false
	}
	_ = res

	return Result{Category: resp.Category, Language: resp.Language, Confidence: resp.Confidence}, true
}

func normalizeTopic(topic string) string {
	return strings.ToLower(strings.Join(strings.Fields(topic), " "))
}
