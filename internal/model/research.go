package model

import "time"

type DevToTier string

const (
	DevToTierRecent   DevToTier = "recent"
	DevToTierExtended DevToTier = "extended"
	DevToTierNone     DevToTier = "none"
)

type VideoSourceTier string

const (
	VideoSourcePrimary  VideoSourceTier = "primary"
	VideoSourceFallback VideoSourceTier = "fallback"
	VideoSourceNone     VideoSourceTier = "none"
)

// ResearchSourceStatus records which of the five sources contributed evidence.
type ResearchSourceStatus struct {
	OfficialDocsOK bool            `json:"official_docs_ok"`
	StackOverflowOK bool           `json:"stackoverflow_ok"`
	GithubOK       bool            `json:"github_ok"`
	DevToOK        bool            `json:"devto_ok"`
	YoutubeOK      bool            `json:"youtube_ok"`
	DevToTier      DevToTier       `json:"devto_tier"`
	VideoSource    VideoSourceTier `json:"video_source"`
}

// AllUnavailable reports whether every source failed this run.
func (s ResearchSourceStatus) AllUnavailable() bool {
	return !s.OfficialDocsOK && !s.StackOverflowOK && !s.GithubOK && !s.DevToOK && !s.YoutubeOK
}

// Missing counts the unavailable sources among video, code examples, and
// articles for the Q&A compensation formula (§4.3.2); Q&A and official docs
// are not counted.
func (s ResearchSourceStatus) Missing() int {
	n := 0
	if !s.YoutubeOK {
		n++
	}
	if !s.GithubOK {
		n++
	}
	if !s.DevToOK {
		n++
	}
	return n
}

type OfficialDocItem struct {
	Title        string   `json:"title"`
	URL          string   `json:"url"`
	BodyExcerpt  string   `json:"body_excerpt"`
	Sections     []string `json:"sections"`
}

type QAItem struct {
	QuestionTitle      string `json:"question_title"`
	Score              int    `json:"score"`
	AcceptedAnswerBody string `json:"accepted_answer_body"`
	ViewCount          int    `json:"view_count"`
	URL                string `json:"url"`
}

type CodeExampleItem struct {
	Repo    string `json:"repo"`
	Path    string `json:"path"`
	Snippet string `json:"snippet"`
	Stars   int    `json:"stars"`
	URL     string `json:"url"`
}

type ArticleItem struct {
	Title       string `json:"title"`
	BodyExcerpt string `json:"body_excerpt"`
	Reactions   int    `json:"reactions"`
	URL         string `json:"url"`
}

type VideoItem struct {
	Title      string `json:"title"`
	URL        string `json:"url"`
	Channel    string `json:"channel"`
	Transcript string `json:"transcript"`
	QualityScore float64 `json:"quality_score"`
}

// ResearchSources is the per-topic evidence fanned out to by the research engine.
type ResearchSources struct {
	OfficialDoc  *OfficialDocItem  `json:"official_doc,omitempty"`
	SOAnswers    []QAItem          `json:"so_answers,omitempty"`
	CodeExamples []CodeExampleItem `json:"code_examples,omitempty"`
	Articles     []ArticleItem     `json:"articles,omitempty"`
	Video        *VideoItem        `json:"video,omitempty"`
}

// ResearchBundle is the aggregated evidence for one lesson topic. Never persisted;
// it is denormalized into LessonContent.SourceAttribution at assembly time.
type ResearchBundle struct {
	Topic        string               `json:"topic"`
	Category     string               `json:"category"`
	Language     string               `json:"language,omitempty"`
	ElapsedMS    int64                `json:"elapsed_ms"`
	Sources      ResearchSources      `json:"sources"`
	SourceStatus ResearchSourceStatus `json:"source_status"`
	Summary      string               `json:"summary"`
}

// FetchedAt is a provenance timestamp type; none of the item types above embed it.
type FetchedAt struct {
	At time.Time `json:"fetched_at"`
}
