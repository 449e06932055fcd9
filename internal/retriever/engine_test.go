package retriever

import (
	"testing"

	"github.com/lessonforge/pipeline/internal/model"
)

func TestDedupeQAKeepsFirstOccurrenceByURL(t *testing.T) {
	existing := []model.QAItem{
		{URL: "https://stackoverflow.com/q/1", QuestionTitle: "first"},
		{URL: "https://stackoverflow.com/q/2", QuestionTitle: "second"},
	}
	additional := []model.QAItem{
		{URL: "https://stackoverflow.com/q/2", QuestionTitle: "duplicate of second"},
		{URL: "https://stackoverflow.com/q/3", QuestionTitle: "third"},
	}

	merged := dedupeQA(existing, additional)

	if len(merged) != 3 {
		t.Fatalf("expected 3 deduped items, got %d: %+v", len(merged), merged)
	}
	if merged[1].QuestionTitle != "second" {
		t.Fatalf("expected the original occurrence to win over the duplicate, got %q", merged[1].QuestionTitle)
	}
	if merged[2].URL != "https://stackoverflow.com/q/3" {
		t.Fatalf("expected the new item to be appended, got %+v", merged[2])
	}
}

func TestDedupeQAWithNoAdditional(t *testing.T) {
	existing := []model.QAItem{{URL: "a"}, {URL: "b"}}
	merged := dedupeQA(existing, nil)
	if len(merged) != 2 {
		t.Fatalf("expected unchanged length, got %d", len(merged))
	}
}

func TestSummarizeAllAvailable(t *testing.T) {
	status := model.ResearchSourceStatus{
		OfficialDocsOK: true, StackOverflowOK: true, GithubOK: true, DevToOK: true, YoutubeOK: true,
	}
	if got := summarize(status); got != "all sources available" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizeAllUnavailable(t *testing.T) {
	if got := summarize(model.ResearchSourceStatus{}); got != "all sources unavailable" {
		t.Fatalf("got %q", got)
	}
}

func TestSummarizePartial(t *testing.T) {
	status := model.ResearchSourceStatus{OfficialDocsOK: true, StackOverflowOK: true}
	got := summarize(status)
	if got != "available: official docs, Q&A; unavailable: code examples, articles, video" {
		t.Fatalf("got %q", got)
	}
}

func TestResearchSourceStatusMissingExcludesDocsAndQA(t *testing.T) {
	status := model.ResearchSourceStatus{OfficialDocsOK: false, StackOverflowOK: false}
	if got := status.Missing(); got != 3 {
		t.Fatalf("expected Missing() to count only youtube/github/devto, got %d", got)
	}
}
