// Package store is a hand-written pgx repository layer. The teacher
// generates its query layer with sqlc; since no code generator runs here,
// each store writes its SQL directly against db.Querier, which both
// *pgxpool.Pool and pgx.Tx satisfy.
package store

import (
	"errors"

	"github.com/lessonforge/pipeline/core/db"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Stores provides access to all store implementations, backed by either a
// pooled connection or an in-flight transaction depending on how it was
// constructed.
type Stores struct {
	q db.Querier
}

func NewStores(q db.Querier) *Stores {
	return &Stores{q: q}
}

func (s *Stores) Modules() ModuleStore {
	return &moduleStore{q: s.q}
}

func (s *Stores) Lessons() LessonStore {
	return &lessonStore{q: s.q}
}

func (s *Stores) ProviderUsage() ProviderUsageStore {
	return &providerUsageStore{q: s.q}
}
