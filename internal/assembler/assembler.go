// Package assembler implements the lesson assembler (I): cache-check,
// single-flight, classification, research, structure, per-component AI
// calls, parsing, and persistence. Assembly is all-or-nothing — a failed
// component fails the whole lesson.
package assembler

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	commonllm "github.com/lessonforge/pipeline/common/llm"
	"github.com/lessonforge/pipeline/internal/cache"
	"github.com/lessonforge/pipeline/internal/classify"
	"github.com/lessonforge/pipeline/internal/id"
	"github.com/lessonforge/pipeline/internal/llm"
	"github.com/lessonforge/pipeline/internal/logging"
	"github.com/lessonforge/pipeline/internal/model"
	"github.com/lessonforge/pipeline/internal/parse"
	"github.com/lessonforge/pipeline/internal/prompt"
	"github.com/lessonforge/pipeline/internal/retriever"
	"github.com/lessonforge/pipeline/internal/store"
)

// ErrAssemblyFailed wraps the component that could not be produced.
type ErrAssemblyFailed struct {
	Component string
	Cause     error
}

func (e *ErrAssemblyFailed) Error() string {
	return fmt.Sprintf("assembling %s: %v", e.Component, e.Cause)
}

func (e *ErrAssemblyFailed) Unwrap() error { return e.Cause }

type Assembler struct {
	Orchestrator   *llm.Orchestrator
	Classifier     *classify.Classifier
	ResearchEngine *retriever.Engine
	Builder        *cache.Builder
	Stores         store.TxRunner
	SchemaVersion  int
}

// Assemble produces (or reuses) a LessonContent for req within moduleID. It is
// safe to call concurrently for the same fingerprint: the single-flight
// builder ensures only one build runs at a time per process.
func (a *Assembler) Assemble(ctx context.Context, moduleID string, req model.LessonRequest) (*model.LessonContent, error) {
	contentHash := cache.ContentHash(req, a.SchemaVersion)
	ctx = logging.WithFields(ctx, logging.Fields{ModuleID: moduleID, LessonNumber: &req.LessonNumber})

	if existing, hit := a.lookupCache(ctx, contentHash); hit {
		return existing, nil
	}

	result, err := a.Builder.Do(ctx, contentHash, func() (any, error) {
		return a.build(ctx, moduleID, req, contentHash)
	})
	if err != nil {
		return nil, err
	}

	return result.(*model.LessonContent), nil
}

func (a *Assembler) lookupCache(ctx context.Context, contentHash string) (*model.LessonContent, bool) {
	var found *model.LessonContent
	err := a.Stores.WithTx(ctx, func(stores store.StoreProvider) error {
		lesson, err := stores.Lessons().GetByContentHash(ctx, contentHash)
		if err != nil {
			if err == store.ErrNotFound {
				return nil
			}
			return err
		}
		if lesson.IsApproved {
			found = lesson
		}
		return nil
	})
	if err != nil {
		return nil, false
	}
	return found, found != nil
}

func (a *Assembler) build(ctx context.Context, moduleID string, req model.LessonRequest, contentHash string) (*model.LessonContent, error) {
	classification := a.Classifier.Classify(ctx, req.StepTitle)

	var bundle *model.ResearchBundle
	if req.EnableResearch {
		bundle = a.ResearchEngine.Research(ctx, req.StepTitle, classification.Category, classification.Language)
	}

	complexity := complexityFor(classification.Confidence)
	structure := classify.Structure(complexity, req.Difficulty, req.UserProfile.Role, req.LearningStyle, req.UserProfile.TimeCommitment)

	components := model.LessonComponents{Structure: structure}
	metadata := model.GenerationMetadata{Mode: "ai_only"}
	if bundle != nil && !bundle.SourceStatus.AllUnavailable() {
		metadata.Mode = "researched"
	}

	for _, spec := range requiredComponents(req.LearningStyle) {
		record, err := a.generateComponent(ctx, spec, req, structure, bundle, &components)
		if err != nil {
			return nil, &ErrAssemblyFailed{Component: string(spec.component), Cause: err}
		}
		metadata.Calls = append(metadata.Calls, *record)
	}

	lesson := &model.LessonContent{
		ID:           id.New(),
		ModuleID:     moduleID,
		LessonNumber: req.LessonNumber,
		Title:        req.StepTitle,
		ContentHash:  contentHash,
		Components:   components,
		SourceAttribution: model.SourceAttribution{
			SourceStatus: sourceStatusOf(bundle),
			Summary:      summaryOf(bundle),
		},
		GenerationMetadata: metadata,
		AIModelUsed:        lastProvider(metadata.Calls),
		CreatedAt:          time.Now(),
	}

	if err := a.persist(ctx, lesson, metadata.Calls); err != nil {
		return nil, err
	}

	return lesson, nil
}

// persist saves the lesson and its provider-usage audit trail in one
// transaction (step 9): the row and its call log appear together or not at all.
func (a *Assembler) persist(ctx context.Context, lesson *model.LessonContent, calls []model.ComponentCallRecord) error {
	return a.Stores.WithTx(ctx, func(stores store.StoreProvider) error {
		savedID, err := stores.Lessons().Create(ctx, lesson)
		if err != nil {
			return fmt.Errorf("saving lesson content: %w", err)
		}
		lesson.ID = savedID

		for _, call := range calls {
			if err := stores.ProviderUsage().LogCall(ctx, lesson.ModuleID, call.Component, call.Provider,
				call.PromptTokens, call.CompletionTokens, call.ElapsedMS, false); err != nil {
				return fmt.Errorf("logging provider usage: %w", err)
			}
		}

		return nil
	})
}

func sourceStatusOf(bundle *model.ResearchBundle) model.ResearchSourceStatus {
	if bundle == nil {
		return model.ResearchSourceStatus{}
	}
	return bundle.SourceStatus
}

func summaryOf(bundle *model.ResearchBundle) string {
	if bundle == nil {
		return "research disabled for this request"
	}
	return bundle.Summary
}

func lastProvider(calls []model.ComponentCallRecord) string {
	if len(calls) == 0 {
		return ""
	}
	return calls[len(calls)-1].Provider
}

func complexityFor(confidence float64) classify.Complexity {
	switch {
	case confidence >= 0.8:
		return classify.ComplexityComplex
	case confidence >= 0.5:
		return classify.ComplexityMedium
	default:
		return classify.ComplexitySimple
	}
}

// generateComponent issues one AI call and parses the result, regenerating
// at most once if parsing fails — the second failure fails the lesson.
func (a *Assembler) generateComponent(
	ctx context.Context,
	spec componentSpec,
	req model.LessonRequest,
	structure model.Structure,
	bundle *model.ResearchBundle,
	out *model.LessonComponents,
) (*model.ComponentCallRecord, error) {
	system, user := prompt.Build(spec.component, req, structure, bundle)

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		if attempt == 1 {
			user += fmt.Sprintf("\n\nYour previous response was invalid: %v. Return only the corrected JSON object.", lastErr)
		}

		llmReq := commonllm.Request{
			SystemPrompt: system,
			UserPrompt:   user,
			SchemaName:   string(spec.component),
			Schema:       spec.schema,
			MaxTokens:    2000,
		}

		var raw rawComponentResponse
		start := time.Now()
		res, err := a.Orchestrator.Generate(ctx, string(spec.component), llmReq, &raw)
		if err != nil {
			return nil, err
		}

		if parseErr := spec.apply(raw.raw(), out, structure, req); parseErr != nil {
			lastErr = parseErr
			continue
		}

		return &model.ComponentCallRecord{
			Component:        string(spec.component),
			Provider:         res.Provider,
			PromptTokens:     res.PromptTokens,
			CompletionTokens: res.CompletionTokens,
			ElapsedMS:        time.Since(start).Milliseconds(),
		}, nil
	}

	return nil, lastErr
}

// rawComponentResponse captures the raw JSON object the orchestrator decoded,
// so the parse package can re-extract and validate it by component shape.
type rawComponentResponse map[string]any

func (r rawComponentResponse) raw() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "{}"
	}
	return string(b)
}

type componentSpec struct {
	component prompt.Component
	schema    any
	apply     func(raw string, out *model.LessonComponents, structure model.Structure, req model.LessonRequest) error
}

func requiredComponents(style model.LearningStyle) []componentSpec {
	switch style {
	case model.LearningHandsOn:
		return []componentSpec{introductionSpec(), exercisesSpec(), quizSpec(), diagramsSpec()}
	case model.LearningVideo:
		return []componentSpec{videoGuideSpec(), quizSpec()}
	case model.LearningReading:
		return []componentSpec{bodySpec(), diagramsSpec(), quizSpec()}
	case model.LearningMixed:
		return []componentSpec{introductionSpec(), bodySpec(), exercisesSpec(), diagramsSpec(), quizSpec(), videoGuideSpec()}
	default:
		return []componentSpec{introductionSpec(), quizSpec()}
	}
}

type textSchema struct {
	Text string `json:"text" jsonschema:"required"`
}

type exercisesSchema struct {
	Exercises []model.Exercise `json:"exercises" jsonschema:"required"`
}

type quizSchema struct {
	Quiz []model.QuizQuestion `json:"quiz" jsonschema:"required"`
}

type diagramsSchema struct {
	Diagrams []model.Diagram `json:"diagrams" jsonschema:"required"`
}

func introductionSpec() componentSpec {
	return componentSpec{
		component: prompt.ComponentIntroduction,
		schema:    commonllm.GenerateSchema[textSchema](),
		apply: func(raw string, out *model.LessonComponents, _ model.Structure, _ model.LessonRequest) error {
			text, err := parse.ParseText("introduction", raw)
			if err != nil {
				return err
			}
			out.Introduction = text
			return nil
		},
	}
}

func bodySpec() componentSpec {
	return componentSpec{
		component: prompt.ComponentBody,
		schema:    commonllm.GenerateSchema[textSchema](),
		apply: func(raw string, out *model.LessonComponents, _ model.Structure, _ model.LessonRequest) error {
			text, err := parse.ParseText("body", raw)
			if err != nil {
				return err
			}
			out.Body = text
			return nil
		},
	}
}

func videoGuideSpec() componentSpec {
	return componentSpec{
		component: prompt.ComponentVideoGuide,
		schema:    commonllm.GenerateSchema[textSchema](),
		apply: func(raw string, out *model.LessonComponents, _ model.Structure, _ model.LessonRequest) error {
			text, err := parse.ParseText("video_guide", raw)
			if err != nil {
				return err
			}
			out.VideoGuide = text
			return nil
		},
	}
}

func exercisesSpec() componentSpec {
	return componentSpec{
		component: prompt.ComponentExercises,
		schema:    commonllm.GenerateSchema[exercisesSchema](),
		apply: func(raw string, out *model.LessonComponents, structure model.Structure, req model.LessonRequest) error {
			maxCount := exerciseCap(structure.ContentDepth)
			keepFraction := keepFractionFor(req.UserProfile.TimeCommitment)
			exercises, err := parse.ParseExercises(raw, maxCount, keepFraction)
			if err != nil {
				return err
			}
			out.Exercises = exercises
			return nil
		},
	}
}

func quizSpec() componentSpec {
	return componentSpec{
		component: prompt.ComponentQuiz,
		schema:    commonllm.GenerateSchema[quizSchema](),
		apply: func(raw string, out *model.LessonComponents, _ model.Structure, _ model.LessonRequest) error {
			quiz, err := parse.ParseQuiz(raw)
			if err != nil {
				return err
			}
			out.Quiz = quiz
			return nil
		},
	}
}

func diagramsSpec() componentSpec {
	return componentSpec{
		component: prompt.ComponentDiagrams,
		schema:    commonllm.GenerateSchema[diagramsSchema](),
		apply: func(raw string, out *model.LessonComponents, _ model.Structure, _ model.LessonRequest) error {
			diagrams, err := parse.ParseDiagrams(raw)
			if err != nil {
				return err
			}
			out.Diagrams = diagrams
			return nil
		},
	}
}

func exerciseCap(depth model.ContentDepth) int {
	switch depth {
	case model.DepthFoundational:
		return 4
	case model.DepthComprehensive:
		return 6
	case model.DepthAdvanced:
		return 8
	default:
		return 4
	}
}

func keepFractionFor(commitment model.TimeCommitment) float64 {
	if commitment == model.TimeCommitment1to3 {
		return 0.6
	}
	return 1.0
}
