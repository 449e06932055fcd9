package retriever

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

const (
	codeMinStars   = 100
	codeMaxResults = 5
)

// languageAlias maps lesson language tags to the search index's language facet.
var languageAlias = map[string]string{
	"jsx":        "javascript",
	"tsx":        "typescript",
	"dockerfile": "dockerfile",
}

type codeSearchResponse struct {
	Items []struct {
		Repository struct {
			FullName string `json:"full_name"`
		} `json:"repository"`
		Path    string `json:"path"`
		Snippet string `json:"text_matches_snippet"`
		URL     string `json:"html_url"`
		Stars   int    `json:"stars"`
	} `json:"items"`
}

// CodeAdapter queries a code-search index (e.g. GitHub code search) filtered
// by minimum stars and language.
type CodeAdapter struct {
	Timeout time.Duration
	BaseURL string
}

func (a *CodeAdapter) Fetch(ctx context.Context, topic, language string) ([]model.CodeExampleItem, bool) {
	base := a.BaseURL
	if base == "" {
		base = "https://api.github.com/search/code"
	}

	lang := language
	if alias, ok := languageAlias[language]; ok {
		lang = alias
	}

	q := topic
	if lang != "" {
		q += " language:" + lang
	}
	fetchURL := fmt.Sprintf("%s?q=%s", base, url.QueryEscape(q))

	var resp codeSearchResponse
	if !fetchJSON(ctx, a.Timeout, fetchURL, map[string]string{"Accept": "application/vnd.github+json"}, &resp) {
		return nil, false
	}

	var items []model.CodeExampleItem
	for _, raw := range resp.Items {
		if raw.Stars < codeMinStars {
			continue
		}
		items = append(items, model.CodeExampleItem{
			Repo:    raw.Repository.FullName,
			Path:    raw.Path,
			Snippet: raw.Snippet,
			Stars:   raw.Stars,
			URL:     raw.URL,
		})
		if len(items) >= codeMaxResults {
			break
		}
	}

	return items, true
}
