package retriever

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

const (
	articlesMinReactions = 20
	articlesMaxResults   = 5
	articlesMinCount     = 2
)

type articlesAPIResponse []struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	PositiveReactionsCount int `json:"positive_reactions_count"`
	URL             string `json:"url"`
}

// ArticlesAdapter queries a community-article source (e.g. Dev.to) with a
// two-tier lookback window: 365 days first, widening to 730 days if fewer
// than articlesMinCount qualify.
type ArticlesAdapter struct {
	Timeout        time.Duration
	BaseURL        string
	PrimaryDays    int
	FallbackDays   int
}

func (a *ArticlesAdapter) Fetch(ctx context.Context, topic string) ([]model.ArticleItem, model.DevToTier, bool) {
	base := a.BaseURL
	if base == "" {
		base = "https://dev.to/api/articles"
	}

	primaryDays := a.PrimaryDays
	if primaryDays == 0 {
		primaryDays = 365
	}
	fallbackDays := a.FallbackDays
	if fallbackDays == 0 {
		fallbackDays = 730
	}

	items, ok := a.fetchWindow(ctx, base, topic, primaryDays)
	if !ok {
		return nil, model.DevToTierNone, false
	}
	if len(items) >= articlesMinCount {
		return items, model.DevToTierRecent, true
	}

	widened, ok := a.fetchWindow(ctx, base, topic, fallbackDays)
	if !ok || len(widened) < len(items) {
		return items, model.DevToTierRecent, true
	}

	return widened, model.DevToTierExtended, true
}

func (a *ArticlesAdapter) fetchWindow(ctx context.Context, base, topic string, days int) ([]model.ArticleItem, bool) {
	fetchURL := fmt.Sprintf("%s?tag=%s&top=%d", base, url.QueryEscape(topic), days)

	var resp articlesAPIResponse
	if !fetchJSON(ctx, a.Timeout, fetchURL, nil, &resp) {
		return nil, false
	}

	var items []model.ArticleItem
	for _, raw := range resp {
		if raw.PositiveReactionsCount < articlesMinReactions {
			continue
		}
		items = append(items, model.ArticleItem{
			Title:       raw.Title,
			BodyExcerpt: raw.Description,
			Reactions:   raw.PositiveReactionsCount,
			URL:         raw.URL,
		})
		if len(items) >= articlesMaxResults {
			break
		}
	}

	return items, true
}
