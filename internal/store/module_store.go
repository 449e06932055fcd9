package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lessonforge/pipeline/core/db"
	"github.com/lessonforge/pipeline/internal/model"
)

// ModuleStore persists roadmap modules and drives the generation state
// machine's claim/complete/fail transitions (K).
type ModuleStore interface {
	GetByID(ctx context.Context, id string) (*model.Module, error)
	Upsert(ctx context.Context, m *model.Module) error
	// ClaimQueued transitions a module from not_started or queued into
	// in_progress, recording the idempotency key. Returns ok=false if the
	// module was already in_progress, completed, or failed — a no-op, not
	// an error, since that is the expected shape of duplicate delivery.
	ClaimQueued(ctx context.Context, id, idempotencyKey string) (ok bool, m *model.Module, err error)
	SetCompleted(ctx context.Context, id string) error
	SetFailed(ctx context.Context, id, reason string) error
}

type moduleStore struct {
	q db.Querier
}

func (s *moduleStore) GetByID(ctx context.Context, id string) (*model.Module, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, roadmap_id, title, description, difficulty, num_lessons_target,
		       generation_status, idempotency_key, generation_started_at,
		       generation_completed_at, generation_error
		FROM modules WHERE id = $1`, id)

	m, err := scanModule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return m, err
}

func (s *moduleStore) Upsert(ctx context.Context, m *model.Module) error {
	_, err := s.q.Exec(ctx, `
		INSERT INTO modules (id, roadmap_id, title, description, difficulty, num_lessons_target, generation_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			difficulty = EXCLUDED.difficulty,
			num_lessons_target = EXCLUDED.num_lessons_target`,
		m.ID, m.RoadmapID, m.Title, m.Description, m.Difficulty, m.NumLessonsTarget, m.GenerationStatus)
	return err
}

func (s *moduleStore) ClaimQueued(ctx context.Context, id, idempotencyKey string) (bool, *model.Module, error) {
	row := s.q.QueryRow(ctx, `
		UPDATE modules
		SET generation_status = 'in_progress',
		    idempotency_key = $2,
		    generation_started_at = now(),
		    generation_error = ''
		WHERE id = $1
		  AND generation_status IN ('not_started', 'queued')
		RETURNING id, roadmap_id, title, description, difficulty, num_lessons_target,
		          generation_status, idempotency_key, generation_started_at,
		          generation_completed_at, generation_error`,
		id, idempotencyKey)

	m, err := scanModule(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil, nil
	}
	if err != nil {
		return false, nil, err
	}
	return true, m, nil
}

func (s *moduleStore) SetCompleted(ctx context.Context, id string) error {
	tag, err := s.q.Exec(ctx, `
		UPDATE modules
		SET generation_status = 'completed', generation_completed_at = now()
		WHERE id = $1 AND generation_status = 'in_progress'`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errors.New("module was not in_progress")
	}
	return nil
}

func (s *moduleStore) SetFailed(ctx context.Context, id, reason string) error {
	_, err := s.q.Exec(ctx, `
		UPDATE modules
		SET generation_status = 'failed', generation_completed_at = now(), generation_error = $2
		WHERE id = $1`, id, reason)
	return err
}

func scanModule(row pgx.Row) (*model.Module, error) {
	var m model.Module
	err := row.Scan(
		&m.ID, &m.RoadmapID, &m.Title, &m.Description, &m.Difficulty, &m.NumLessonsTarget,
		&m.GenerationStatus, &m.IdempotencyKey, &m.GenerationStartedAt,
		&m.GenerationCompletedAt, &m.GenerationError,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
