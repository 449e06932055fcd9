package retriever

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

const (
	qaBaseCount = 5
	qaMaxCount  = 8
)

// Engine fans out across the five source adapters, applies two-pass Q&A
// compensation, and aggregates the result into a ResearchBundle (D). It never
// raises: total failure across all adapters yields a bundle with everything
// unavailable, and the assembler proceeds in AI-only mode.
type Engine struct {
	Deadline time.Duration

	OfficialDocs *OfficialDocsAdapter
	QA           *QAAdapter
	Code         *CodeAdapter
	Articles     *ArticlesAdapter
	Video        *VideoAdapter
}

func (e *Engine) Research(ctx context.Context, topic, category, language string) *model.ResearchBundle {
	ctx, cancel := context.WithTimeout(ctx, e.Deadline)
	defer cancel()

	start := time.Now()

	var (
		wg                      sync.WaitGroup
		docItem                 *model.OfficialDocItem
		docOK                   bool
		qaItems                 []model.QAItem
		qaOK                    bool
		codeItems               []model.CodeExampleItem
		codeOK                  bool
		articleItems            []model.ArticleItem
		devToTier               model.DevToTier
		articlesOK              bool
		videoItem               *model.VideoItem
		videoSource             model.VideoSourceTier
		videoOK                 bool
	)

	wg.Add(5)
	go func() {
		defer wg.Done()
		docItem, docOK = e.OfficialDocs.Fetch(ctx, topic, category)
	}()
	go func() {
		defer wg.Done()
		qaItems, qaOK = e.QA.Fetch(ctx, topic, qaBaseCount)
	}()
	go func() {
		defer wg.Done()
		codeItems, codeOK = e.Code.Fetch(ctx, topic, language)
	}()
	go func() {
		defer wg.Done()
		articleItems, devToTier, articlesOK = e.Articles.Fetch(ctx, topic)
	}()
	go func() {
		defer wg.Done()
		videoItem, videoSource, videoOK = e.Video.Fetch(ctx, topic)
	}()
	wg.Wait()

	status := model.ResearchSourceStatus{
		OfficialDocsOK:  docOK,
		StackOverflowOK: qaOK,
		GithubOK:        codeOK,
		DevToOK:         articlesOK,
		YoutubeOK:       videoOK,
		DevToTier:       devToTier,
		VideoSource:     videoSource,
	}

	// Two-pass Q&A compensation: a missing source outside Q&A/docs raises
	// the target item count, traded against the compensation cap.
	target := qaBaseCount + status.Missing()
	if target > qaMaxCount {
		target = qaMaxCount
	}
	if qaOK && len(qaItems) < target {
		if more, ok := e.QA.Fetch(ctx, topic, target); ok {
			qaItems = dedupeQA(qaItems, more)
		}
	}

	bundle := &model.ResearchBundle{
		Topic:     topic,
		Category:  category,
		Language:  language,
		ElapsedMS: time.Since(start).Milliseconds(),
		Sources: model.ResearchSources{
			OfficialDoc:  docItem,
			SOAnswers:    qaItems,
			CodeExamples: codeItems,
			Articles:     articleItems,
			Video:        videoItem,
		},
		SourceStatus: status,
		Summary:      summarize(status),
	}

	return bundle
}

func dedupeQA(existing, additional []model.QAItem) []model.QAItem {
	seen := make(map[string]bool, len(existing))
	for _, q := range existing {
		seen[q.URL] = true
	}
	merged := append([]model.QAItem{}, existing...)
	for _, q := range additional {
		if !seen[q.URL] {
			merged = append(merged, q)
			seen[q.URL] = true
		}
	}
	return merged
}

func summarize(status model.ResearchSourceStatus) string {
	var ok, failed []string
	note := func(name string, up bool) {
		if up {
			ok = append(ok, name)
		} else {
			failed = append(failed, name)
		}
	}
	note("official docs", status.OfficialDocsOK)
	note("Q&A", status.StackOverflowOK)
	note("code examples", status.GithubOK)
	note("articles", status.DevToOK)
	note("video", status.YoutubeOK)

	if len(failed) == 0 {
		return "all sources available"
	}
	if len(ok) == 0 {
		return "all sources unavailable"
	}
	return fmt.Sprintf("available: %s; unavailable: %s", strings.Join(ok, ", "), strings.Join(failed, ", "))
}
