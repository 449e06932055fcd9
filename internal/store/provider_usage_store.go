package store

import (
	"context"

	"github.com/lessonforge/pipeline/core/db"
)

// ProviderUsageStore appends an audit trail of which provider tier served
// each AI call, for cost/reliability reporting (GenerationMetadata.Calls
// denormalized at a per-module granularity).
type ProviderUsageStore interface {
	LogCall(ctx context.Context, moduleID, component, provider string, promptTokens, completionTokens int, elapsedMS int64, failed bool) error
}

type providerUsageStore struct {
	q db.Querier
}

func (s *providerUsageStore) LogCall(ctx context.Context, moduleID, component, provider string, promptTokens, completionTokens int, elapsedMS int64, failed bool) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO provider_usage_log
			(module_id, component, provider, prompt_tokens, completion_tokens, elapsed_ms, failed, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())`,
		moduleID, component, provider, promptTokens, completionTokens, elapsedMS, failed)
	return err
}
