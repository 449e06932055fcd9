// Package llm orchestrates AI generation calls across a tiered set of
// providers: exactly one attempt per tier, advancing to the next tier on any
// failure (component E). There is no same-tier retry: spec's zero-retry
// mandate means the only decision at the call site is whether to fail over,
// never whether to retry.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	commonllm "github.com/lessonforge/pipeline/common/llm"
	"github.com/lessonforge/pipeline/internal/logging"
	"github.com/lessonforge/pipeline/internal/ratelimit"
)

// Tier pairs a provider client with the gate guarding its call rate.
type Tier struct {
	Name   string
	Client commonllm.Client
	Gate   *ratelimit.Gate
}

// Orchestrator fails over across tiers in order, never retrying within a tier.
type Orchestrator struct {
	tiers []Tier
}

func NewOrchestrator(tiers ...Tier) *Orchestrator {
	return &Orchestrator{tiers: tiers}
}

// Result is one successful generation plus accounting for the tier that served it.
type Result struct {
	Provider         string
	PromptTokens     int
	CompletionTokens int
	ElapsedMS        int64
}

// ErrAllTiersFailed is returned when every configured tier failed once.
type ErrAllTiersFailed struct {
	TierErrors map[string]error
}

func (e *ErrAllTiersFailed) Error() string {
	return fmt.Sprintf("all %d provider tiers failed", len(e.TierErrors))
}

// Generate issues exactly one call per tier, in order, stopping at the first
// success. result is populated in place via commonllm.Client.Chat's schema
// unmarshal contract.
func (o *Orchestrator) Generate(ctx context.Context, component string, req commonllm.Request, result any) (*Result, error) {
	tierErrs := make(map[string]error)

	for _, tier := range o.tiers {
		ctx := logging.WithFields(ctx, logging.Fields{Component: component, Provider: tier.Name})

		if err := tier.Gate.Wait(ctx); err != nil {
			return nil, err
		}

		start := time.Now()
		resp, err := tier.Client.Chat(ctx, req, result)
		elapsed := time.Since(start).Milliseconds()

		if err != nil {
			slog.WarnContext(ctx, "provider tier failed, advancing to next tier",
				"reason", classify(err), "elapsed_ms", elapsed)
			tierErrs[tier.Name] = err
			continue
		}

		slog.InfoContext(ctx, "provider tier succeeded", "elapsed_ms", elapsed)
		return &Result{
			Provider:         tier.Name,
			PromptTokens:     resp.PromptTokens,
			CompletionTokens: resp.CompletionTokens,
			ElapsedMS:        elapsed,
		}, nil
	}

	return nil, &ErrAllTiersFailed{TierErrors: tierErrs}
}

// classify gives failure logs a stable reason string without ever retrying
// same-tier; it only affects what gets logged.
func classify(err error) string {
	if err == nil {
		return ""
	}
	if _, ok := err.(interface{ Timeout() bool }); ok {
		return "timeout"
	}
	return "provider_error"
}
