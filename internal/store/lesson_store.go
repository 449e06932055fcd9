package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/lessonforge/pipeline/core/db"
	"github.com/lessonforge/pipeline/internal/model"
)

// LessonStore persists generated lesson content (the lesson assembler's save transaction, component I).
type LessonStore interface {
	GetByModuleAndNumber(ctx context.Context, moduleID string, lessonNumber int) (*model.LessonContent, error)
	GetByContentHash(ctx context.Context, contentHash string) (*model.LessonContent, error)
	Create(ctx context.Context, l *model.LessonContent) (int64, error)
	RecordVote(ctx context.Context, lessonID int64, approve bool) error
}

type lessonStore struct {
	q db.Querier
}

func (s *lessonStore) GetByModuleAndNumber(ctx context.Context, moduleID string, lessonNumber int) (*model.LessonContent, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, module_id, lesson_number, title, content_hash, components,
		       source_attribution, generation_metadata, ai_model_used, is_approved,
		       upvotes, downvotes, created_at
		FROM lesson_contents WHERE module_id = $1 AND lesson_number = $2`, moduleID, lessonNumber)
	return scanLesson(row)
}

func (s *lessonStore) GetByContentHash(ctx context.Context, contentHash string) (*model.LessonContent, error) {
	row := s.q.QueryRow(ctx, `
		SELECT id, module_id, lesson_number, title, content_hash, components,
		       source_attribution, generation_metadata, ai_model_used, is_approved,
		       upvotes, downvotes, created_at
		FROM lesson_contents WHERE content_hash = $1
		ORDER BY created_at DESC LIMIT 1`, contentHash)
	return scanLesson(row)
}

func (s *lessonStore) Create(ctx context.Context, l *model.LessonContent) (int64, error) {
	componentsJSON, err := json.Marshal(l.Components)
	if err != nil {
		return 0, err
	}
	attributionJSON, err := json.Marshal(l.SourceAttribution)
	if err != nil {
		return 0, err
	}
	metadataJSON, err := json.Marshal(l.GenerationMetadata)
	if err != nil {
		return 0, err
	}

	var id int64
	err = s.q.QueryRow(ctx, `
		INSERT INTO lesson_contents
			(id, module_id, lesson_number, title, content_hash, components,
			 source_attribution, generation_metadata, ai_model_used)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (module_id, lesson_number) DO UPDATE SET
			title = EXCLUDED.title,
			content_hash = EXCLUDED.content_hash,
			components = EXCLUDED.components,
			source_attribution = EXCLUDED.source_attribution,
			generation_metadata = EXCLUDED.generation_metadata,
			ai_model_used = EXCLUDED.ai_model_used
		RETURNING id`,
		l.ID, l.ModuleID, l.LessonNumber, l.Title, l.ContentHash, componentsJSON,
		attributionJSON, metadataJSON, l.AIModelUsed,
	).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (s *lessonStore) RecordVote(ctx context.Context, lessonID int64, approve bool) error {
	column := "downvotes"
	if approve {
		column = "upvotes"
	}
	_, err := s.q.Exec(ctx, `UPDATE lesson_contents SET `+column+` = `+column+` + 1 WHERE id = $1`, lessonID)
	return err
}

func scanLesson(row pgx.Row) (*model.LessonContent, error) {
	var l model.LessonContent
	var componentsJSON, attributionJSON, metadataJSON []byte

	err := row.Scan(
		&l.ID, &l.ModuleID, &l.LessonNumber, &l.Title, &l.ContentHash, &componentsJSON,
		&attributionJSON, &metadataJSON, &l.AIModelUsed, &l.IsApproved,
		&l.Upvotes, &l.Downvotes, &l.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(componentsJSON, &l.Components); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(attributionJSON, &l.SourceAttribution); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadataJSON, &l.GenerationMetadata); err != nil {
		return nil, err
	}

	return &l, nil
}
