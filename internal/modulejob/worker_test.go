package modulejob_test

import (
	"context"
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/lessonforge/pipeline/internal/model"
	"github.com/lessonforge/pipeline/internal/modulejob"
	"github.com/lessonforge/pipeline/internal/queue"
	"github.com/lessonforge/pipeline/internal/store"
)

// mockModuleStore is an in-memory stand-in for store.ModuleStore.
type mockModuleStore struct {
	modules map[string]*model.Module
}

func newMockModuleStore(modules ...*model.Module) *mockModuleStore {
	m := &mockModuleStore{modules: map[string]*model.Module{}}
	for _, mod := range modules {
		m.modules[mod.ID] = mod
	}
	return m
}

func (s *mockModuleStore) GetByID(_ context.Context, id string) (*model.Module, error) {
	m, ok := s.modules[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	copyM := *m
	return &copyM, nil
}

func (s *mockModuleStore) Upsert(_ context.Context, m *model.Module) error {
	copyM := *m
	s.modules[m.ID] = &copyM
	return nil
}

func (s *mockModuleStore) ClaimQueued(_ context.Context, id, idempotencyKey string) (bool, *model.Module, error) {
	m, ok := s.modules[id]
	if !ok {
		return false, nil, nil
	}
	if m.GenerationStatus != model.StatusNotStarted && m.GenerationStatus != model.StatusQueued {
		return false, nil, nil
	}
	m.GenerationStatus = model.StatusInProgress
	m.IdempotencyKey = idempotencyKey
	copyM := *m
	return true, &copyM, nil
}

func (s *mockModuleStore) SetCompleted(_ context.Context, id string) error {
	m, ok := s.modules[id]
	if !ok {
		return store.ErrNotFound
	}
	m.GenerationStatus = model.StatusCompleted
	return nil
}

func (s *mockModuleStore) SetFailed(_ context.Context, id, reason string) error {
	m, ok := s.modules[id]
	if !ok {
		return store.ErrNotFound
	}
	m.GenerationStatus = model.StatusFailed
	m.GenerationError = reason
	return nil
}

// mockStoreProvider only wires Modules(); Lessons/ProviderUsage are unused by
// the state machine, which persists lesson content through the assembler.
type mockStoreProvider struct {
	modules *mockModuleStore
}

func (p *mockStoreProvider) Modules() store.ModuleStore             { return p.modules }
func (p *mockStoreProvider) Lessons() store.LessonStore             { return nil }
func (p *mockStoreProvider) ProviderUsage() store.ProviderUsageStore { return nil }

// mockTxRunner runs fn directly against the shared in-memory stores, with no
// real transactional isolation — sufficient for exercising the state machine.
type mockTxRunner struct {
	provider *mockStoreProvider
}

func (r *mockTxRunner) WithTx(_ context.Context, fn func(stores store.StoreProvider) error) error {
	return fn(r.provider)
}

// mockAssembler controls lesson-generation outcomes per lesson number.
type mockAssembler struct {
	failAtLesson int // 0 means never fail
	calls        []int
}

func (a *mockAssembler) Assemble(_ context.Context, _ string, req model.LessonRequest) (*model.LessonContent, error) {
	a.calls = append(a.calls, req.LessonNumber)
	if a.failAtLesson != 0 && req.LessonNumber == a.failAtLesson {
		return nil, fmt.Errorf("simulated failure for lesson %d", req.LessonNumber)
	}
	return &model.LessonContent{LessonNumber: req.LessonNumber}, nil
}

func newJob(moduleID string) model.JobMessage {
	return model.JobMessage{
		ModuleID:       moduleID,
		Title:          "Intro to Goroutines",
		Difficulty:     model.SkillBeginner,
		IdempotencyKey: "key-1",
	}
}

var _ = Describe("Worker", func() {
	var (
		modules *mockModuleStore
		asm     *mockAssembler
		worker  *modulejob.Worker
		ctx     context.Context
	)

	BeforeEach(func() {
		ctx = context.Background()
		asm = &mockAssembler{}
	})

	newWorker := func(mod *model.Module) *modulejob.Worker {
		modules = newMockModuleStore(mod)
		runner := &mockTxRunner{provider: &mockStoreProvider{modules: modules}}
		worker = &modulejob.Worker{Assembler: asm, Stores: runner, EnableResearch: false}
		return worker
	}

	It("claims a not_started module and generates all target lessons", func() {
		mod := &model.Module{ID: "m1", Difficulty: model.SkillBeginner, GenerationStatus: model.StatusNotStarted}
		w := newWorker(mod)

		err := w.Process(ctx, queue.Message{Job: newJob("m1")})
		Expect(err).NotTo(HaveOccurred())

		got, _ := modules.GetByID(ctx, "m1")
		Expect(got.GenerationStatus).To(Equal(model.StatusCompleted))
		Expect(asm.calls).To(Equal([]int{1, 2, 3})) // beginner targets 3 lessons
	})

	It("is a no-op when the module is already in_progress under the same idempotency key", func() {
		mod := &model.Module{
			ID:               "m1",
			Difficulty:       model.SkillBeginner,
			GenerationStatus: model.StatusInProgress,
			IdempotencyKey:   "key-1",
		}
		w := newWorker(mod)

		err := w.Process(ctx, queue.Message{Job: newJob("m1")})
		Expect(err).NotTo(HaveOccurred())
		Expect(asm.calls).To(BeEmpty())

		got, _ := modules.GetByID(ctx, "m1")
		Expect(got.GenerationStatus).To(Equal(model.StatusInProgress))
	})

	It("does not regenerate a completed module even under a fresh idempotency key, since it is no longer claimable", func() {
		mod := &model.Module{
			ID:               "m1",
			Difficulty:       model.SkillBeginner,
			GenerationStatus: model.StatusCompleted,
			IdempotencyKey:   "stale-key",
		}
		w := newWorker(mod)

		job := newJob("m1")
		job.IdempotencyKey = "fresh-key"
		err := w.Process(ctx, queue.Message{Job: job})
		Expect(err).NotTo(HaveOccurred())
		Expect(asm.calls).To(BeEmpty())

		got, _ := modules.GetByID(ctx, "m1")
		Expect(got.GenerationStatus).To(Equal(model.StatusCompleted))
	})

	It("drops a job for a module that was not in a claimable state", func() {
		mod := &model.Module{ID: "m1", Difficulty: model.SkillBeginner, GenerationStatus: model.StatusFailed, IdempotencyKey: "old"}
		w := newWorker(mod)

		job := newJob("m1")
		job.IdempotencyKey = "new"
		err := w.Process(ctx, queue.Message{Job: job})
		Expect(err).NotTo(HaveOccurred())
		Expect(asm.calls).To(BeEmpty())
	})

	It("marks the module failed and stops generating once a lesson fails", func() {
		mod := &model.Module{ID: "m1", Difficulty: model.SkillIntermediate, GenerationStatus: model.StatusQueued}
		w := newWorker(mod)
		asm.failAtLesson = 2

		err := w.Process(ctx, queue.Message{Job: newJob("m1")})
		Expect(err).NotTo(HaveOccurred())

		got, _ := modules.GetByID(ctx, "m1")
		Expect(got.GenerationStatus).To(Equal(model.StatusFailed))
		Expect(got.GenerationError).To(ContainSubstring("lesson 2"))
		Expect(asm.calls).To(Equal([]int{1, 2})) // never reaches lesson 3 or 4
	})

	It("drops a job whose module no longer exists", func() {
		w := newWorker(&model.Module{ID: "other", GenerationStatus: model.StatusNotStarted})
		err := w.Process(ctx, queue.Message{Job: newJob("missing")})
		Expect(err).NotTo(HaveOccurred())
		Expect(asm.calls).To(BeEmpty())
	})

	It("returns an error when the module transaction fails at the infra level, leaving the message unacked", func() {
		mod := &model.Module{ID: "m1", Difficulty: model.SkillBeginner, GenerationStatus: model.StatusNotStarted}
		modules = newMockModuleStore(mod)
		failingRunner := &erroringTxRunner{err: errors.New("connection reset")}
		worker = &modulejob.Worker{Assembler: asm, Stores: failingRunner}

		err := worker.Process(ctx, queue.Message{Job: newJob("m1")})
		Expect(err).To(HaveOccurred())
	})
})

type erroringTxRunner struct{ err error }

func (r *erroringTxRunner) WithTx(_ context.Context, _ func(stores store.StoreProvider) error) error {
	return r.err
}
