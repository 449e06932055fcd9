// Package modulejob implements the module orchestrator and generation state
// machine (J, K): it turns one delivered JobMessage into a sequence of
// lesson assemblies and drives the module's not_started -> queued ->
// in_progress -> {completed|failed} transitions.
package modulejob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lessonforge/pipeline/internal/logging"
	"github.com/lessonforge/pipeline/internal/model"
	"github.com/lessonforge/pipeline/internal/queue"
	"github.com/lessonforge/pipeline/internal/store"
)

// LessonAssembler builds one lesson. *assembler.Assembler is the production
// implementation; the interface exists so the state machine can be tested
// without standing up the full AI/research stack.
type LessonAssembler interface {
	Assemble(ctx context.Context, moduleID string, req model.LessonRequest) (*model.LessonContent, error)
}

// Worker processes one JobMessage at a time, sequentially generating each
// lesson in a module — sequential because each lesson's AI calls share the
// same rate-limited provider tiers and must leave an ordered audit trail.
type Worker struct {
	Assembler      LessonAssembler
	Stores         store.TxRunner
	EnableResearch bool
}

// Process implements §4.9's numbered steps. It acks on every reachable
// terminal or no-op outcome; it returns an error (leaving the message
// unacked, for redelivery) only on an infra-level failure that never reached
// a state transition.
func (w *Worker) Process(ctx context.Context, msg queue.Message) error {
	job := msg.Job
	ctx = logging.WithFields(ctx, logging.Fields{ModuleID: job.ModuleID})

	module, err := w.loadModule(ctx, job.ModuleID)
	if err != nil {
		return fmt.Errorf("loading module %s: %w", job.ModuleID, err)
	}
	if module == nil {
		slog.WarnContext(ctx, "job references unknown module, dropping", "module_id", job.ModuleID)
		return nil
	}

	// Step 1: redelivery of an already-claimed job with the same idempotency
	// key is a no-op — the first delivery either finished or is finishing.
	if (module.GenerationStatus == model.StatusInProgress || module.GenerationStatus == model.StatusCompleted) &&
		module.IdempotencyKey == job.IdempotencyKey {
		slog.InfoContext(ctx, "job already claimed under this idempotency key, skipping", "status", module.GenerationStatus)
		return nil
	}

	// Step 2: claim queued/not_started -> in_progress.
	claimed, err := w.claim(ctx, job)
	if err != nil {
		return fmt.Errorf("claiming module %s: %w", job.ModuleID, err)
	}
	if claimed == nil {
		slog.InfoContext(ctx, "module was not in a claimable state, treating as stale")
		return nil
	}

	// Step 3: determine lesson count for this difficulty.
	target := model.NumLessonsTargetFor(claimed.Difficulty)

	// Step 4: generate each lesson sequentially.
	var failure error
	for lessonNumber := 1; lessonNumber <= target; lessonNumber++ {
		req := model.LessonRequest{
			StepTitle:      job.Title,
			LessonNumber:   lessonNumber,
			LearningStyle:  job.UserProfile.LearningStyle,
			UserProfile:    job.UserProfile,
			Difficulty:     job.Difficulty,
			Industry:       job.UserProfile.Industry,
			EnableResearch: w.EnableResearch,
		}

		if _, err := w.Assembler.Assemble(ctx, job.ModuleID, req); err != nil {
			slog.ErrorContext(ctx, "lesson assembly failed", "lesson_number", lessonNumber, "error", err)
			failure = fmt.Errorf("lesson %d: %w", lessonNumber, err)
			break
		}
	}

	// Steps 5/6: terminal transition. Lessons already persisted before the
	// failure remain — partial success is allowed at the lesson level, never
	// at the component level within one lesson.
	if failure != nil {
		if err := w.setFailed(ctx, job.ModuleID, failure.Error()); err != nil {
			return fmt.Errorf("recording module failure: %w", err)
		}
		return nil
	}

	if err := w.setCompleted(ctx, job.ModuleID); err != nil {
		return fmt.Errorf("recording module completion: %w", err)
	}

	slog.InfoContext(ctx, "module generation completed", "lessons", target)
	return nil
}

func (w *Worker) loadModule(ctx context.Context, moduleID string) (*model.Module, error) {
	var module *model.Module
	err := w.Stores.WithTx(ctx, func(stores store.StoreProvider) error {
		m, err := stores.Modules().GetByID(ctx, moduleID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		module = m
		return nil
	})
	return module, err
}

func (w *Worker) claim(ctx context.Context, job model.JobMessage) (*model.Module, error) {
	var claimed *model.Module
	err := w.Stores.WithTx(ctx, func(stores store.StoreProvider) error {
		ok, m, err := stores.Modules().ClaimQueued(ctx, job.ModuleID, job.IdempotencyKey)
		if err != nil {
			return err
		}
		if ok {
			claimed = m
		}
		return nil
	})
	return claimed, err
}

func (w *Worker) setCompleted(ctx context.Context, moduleID string) error {
	return w.Stores.WithTx(ctx, func(stores store.StoreProvider) error {
		return stores.Modules().SetCompleted(ctx, moduleID)
	})
}

func (w *Worker) setFailed(ctx context.Context, moduleID, reason string) error {
	return w.Stores.WithTx(ctx, func(stores store.StoreProvider) error {
		return stores.Modules().SetFailed(ctx, moduleID, reason)
	})
}
