package retriever

import (
	"context"
	"strings"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

// docBaseURLs maps a category to its canonical documentation index.
var docBaseURLs = map[string]string{
	"frontend": "https://developer.mozilla.org/en-US/docs/Web",
	"backend":  "https://docs.python.org/3/",
	"data":     "https://pandas.pydata.org/docs/",
	"devops":   "https://docs.docker.com/",
	"mobile":   "https://developer.android.com/docs",
	"general":  "https://en.wikipedia.org/wiki/Software_engineering",
}

type docIndexResponse struct {
	Title    string   `json:"title"`
	Sections []string `json:"sections"`
	Body     string   `json:"body"`
}

// OfficialDocsAdapter fetches one topic-relevant section from the category's
// canonical documentation index.
type OfficialDocsAdapter struct {
	Timeout time.Duration
}

func (a *OfficialDocsAdapter) Fetch(ctx context.Context, topic, category string) (*model.OfficialDocItem, bool) {
	base, ok := docBaseURLs[category]
	if !ok {
		base = docBaseURLs["general"]
	}

	var idx docIndexResponse
	if !fetchJSON(ctx, a.Timeout, base, nil, &idx) {
		return nil, false
	}

	section, ok := matchSection(topic, idx.Sections)
	if !ok {
		return nil, false
	}

	excerpt := idx.Body
	if len(excerpt) > 2000 {
		excerpt = excerpt[:2000]
	}
	if excerpt == "" {
		return nil, false
	}

	return &model.OfficialDocItem{
		Title:       idx.Title,
		URL:         base,
		BodyExcerpt: excerpt,
		Sections:    []string{section},
	}, true
}

// matchSection does a case-insensitive substring match, preferring the
// longest matching section title.
func matchSection(topic string, sections []string) (string, bool) {
	topicLower := strings.ToLower(topic)
	best := ""
	for _, s := range sections {
		if strings.Contains(topicLower, strings.ToLower(s)) || strings.Contains(strings.ToLower(s), topicLower) {
			if len(s) > len(best) {
				best = s
			}
		}
	}
	return best, best != ""
}
