package store

import (
	"context"

	"github.com/lessonforge/pipeline/core/db"
)

// StoreProvider exposes the stores available within a transactional operation.
type StoreProvider interface {
	Modules() ModuleStore
	Lessons() LessonStore
	ProviderUsage() ProviderUsageStore
}

// TxRunner runs a function within a database transaction, handing it stores
// bound to that transaction. Callers use separate short-lived transactions
// (module load and claim, cache lookup, lesson save, terminal transition)
// around the long-running, non-transactional AI generation step, never one
// transaction spanning an AI call.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(stores StoreProvider) error) error
}

type dbTxRunner struct {
	db *db.DB
}

func NewTxRunner(database *db.DB) TxRunner {
	return &dbTxRunner{db: database}
}

func (r *dbTxRunner) WithTx(ctx context.Context, fn func(stores StoreProvider) error) error {
	return r.db.WithTx(ctx, func(q db.Querier) error {
		return fn(NewStores(q))
	})
}
