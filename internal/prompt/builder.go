// Package prompt builds provider-neutral prompts from a lesson request and
// its research bundle (F). JSON-mode switching and schema enforcement are the
// orchestrator's responsibility, not the builder's.
package prompt

import (
	"fmt"
	"strings"

	"github.com/lessonforge/pipeline/internal/model"
)

const (
	docExcerptBudget     = 1500
	qaAnswerBudget       = 800
	articleExcerptBudget = 600
)

// Component identifies which lesson component a prompt targets.
type Component string

const (
	ComponentIntroduction Component = "introduction"
	ComponentBody         Component = "body"
	ComponentExercises    Component = "exercises"
	ComponentQuiz         Component = "quiz"
	ComponentDiagrams     Component = "diagrams"
	ComponentVideoGuide   Component = "video_guide"
	ComponentReading      Component = "reading"
)

// Build composes the system preamble, lesson request block, and (if
// available) verified research context into one provider-neutral prompt.
func Build(component Component, req model.LessonRequest, structure model.Structure, bundle *model.ResearchBundle) (system, user string) {
	system = systemPreamble(component)
	user = requestBlock(req, structure)

	if bundle != nil && !bundle.SourceStatus.AllUnavailable() {
		user += "\n\n" + researchBlock(bundle)
	}

	return system, user
}

func systemPreamble(component Component) string {
	var persona string
	switch component {
	case ComponentExercises:
		persona = "You are an expert instructional designer writing hands-on coding exercises."
	case ComponentQuiz:
		persona = "You are an expert instructional designer writing a short comprehension quiz."
	case ComponentDiagrams:
		persona = "You are an expert instructional designer producing explanatory diagrams as Mermaid code."
	case ComponentVideoGuide:
		persona = "You are an expert instructional designer writing a study guide to accompany a video lesson."
	case ComponentReading:
		persona = "You are an expert instructional designer writing long-form reading content."
	default:
		persona = "You are an expert instructional designer writing lesson content."
	}

	return persona + " Respond with a single JSON object matching the schema provided by the caller. " +
		"Prefer statements grounded in the supplied research context over your own priors, and cite source URLs " +
		"inline when you rely on a specific source. Never fabricate a URL."
}

func requestBlock(req model.LessonRequest, structure model.Structure) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Lesson topic: %s\n", req.StepTitle)
	fmt.Fprintf(&b, "Lesson number: %d\n", req.LessonNumber)
	fmt.Fprintf(&b, "Learner role: %s, skill level: %s, time commitment: %s hours/week\n",
		req.UserProfile.Role, req.Difficulty, req.UserProfile.TimeCommitment)
	fmt.Fprintf(&b, "Learning style: %s\n", req.LearningStyle)
	fmt.Fprintf(&b, "Content depth: %s, target duration: %d minutes\n", structure.ContentDepth, structure.DurationMinutes)
	if req.Industry != "" {
		fmt.Fprintf(&b, "Learner industry context: %s\n", req.Industry)
	}
	return b.String()
}

func researchBlock(bundle *model.ResearchBundle) string {
	var b strings.Builder
	b.WriteString("Verified research context (use this; do not contradict it without reason):\n")

	if bundle.Sources.OfficialDoc != nil {
		fmt.Fprintf(&b, "\n[Official docs] %s (%s)\n%s\n",
			bundle.Sources.OfficialDoc.Title, bundle.Sources.OfficialDoc.URL, truncate(bundle.Sources.OfficialDoc.BodyExcerpt, docExcerptBudget))
	}

	if len(bundle.Sources.SOAnswers) > 0 {
		b.WriteString("\n[Community Q&A]\n")
		for _, qa := range bundle.Sources.SOAnswers {
			fmt.Fprintf(&b, "- %s (score %d, %s): %s\n", qa.QuestionTitle, qa.Score, qa.URL, truncate(qa.AcceptedAnswerBody, qaAnswerBudget))
		}
	}

	if len(bundle.Sources.CodeExamples) > 0 {
		b.WriteString("\n[Code examples]\n")
		for _, ex := range bundle.Sources.CodeExamples {
			fmt.Fprintf(&b, "- %s/%s (%d stars, %s):\n%s\n", ex.Repo, ex.Path, ex.Stars, ex.URL, ex.Snippet)
		}
	}

	if len(bundle.Sources.Articles) > 0 {
		b.WriteString("\n[Community articles]\n")
		for _, a := range bundle.Sources.Articles {
			fmt.Fprintf(&b, "- %s (%s): %s\n", a.Title, a.URL, truncate(a.BodyExcerpt, articleExcerptBudget))
		}
	}

	if bundle.Sources.Video != nil {
		fmt.Fprintf(&b, "\n[Video] %s by %s (%s)\nTranscript excerpt: %s\n",
			bundle.Sources.Video.Title, bundle.Sources.Video.Channel, bundle.Sources.Video.URL,
			truncate(bundle.Sources.Video.Transcript, articleExcerptBudget))
	}

	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
