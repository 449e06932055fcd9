package retriever

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

const qaMinScore = 5

type qaAPIResponse struct {
	Items []struct {
		Title         string `json:"title"`
		Score         int    `json:"score"`
		ViewCount     int    `json:"view_count"`
		Link          string `json:"link"`
		IsAnswered    bool   `json:"is_answered"`
		AcceptedBody  string `json:"accepted_answer_body"`
	} `json:"items"`
}

// QAAdapter queries a Stack Exchange–style Q&A API and keeps only
// high-signal, accepted answers.
type QAAdapter struct {
	Timeout time.Duration
	BaseURL string // default: Stack Exchange API
}

func (a *QAAdapter) Fetch(ctx context.Context, topic string, count int) ([]model.QAItem, bool) {
	base := a.BaseURL
	if base == "" {
		base = "https://api.stackexchange.com/2.3/search/advanced"
	}
	fetchURL := fmt.Sprintf("%s?q=%s&sort=votes&site=stackoverflow", base, url.QueryEscape(topic))

	var resp qaAPIResponse
	if !fetchJSON(ctx, a.Timeout, fetchURL, nil, &resp) {
		return nil, false
	}

	var items []model.QAItem
	for _, raw := range resp.Items {
		if raw.Score < qaMinScore || !raw.IsAnswered || raw.AcceptedBody == "" {
			continue
		}
		items = append(items, model.QAItem{
			QuestionTitle:      raw.Title,
			Score:              raw.Score,
			AcceptedAnswerBody: raw.AcceptedBody,
			ViewCount:          raw.ViewCount,
			URL:                raw.Link,
		})
	}

	sort.Slice(items, func(i, j int) bool { return items[i].Score > items[j].Score })

	if len(items) > count {
		items = items[:count]
	}

	return items, true
}
