package retriever

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

func articleJSON(n, reactions int) []byte {
	type article struct {
		Title                  string `json:"title"`
		Description            string `json:"description"`
		PositiveReactionsCount int    `json:"positive_reactions_count"`
		URL                    string `json:"url"`
	}
	items := make([]article, n)
	for i := range items {
		items[i] = article{
			Title:                  fmt.Sprintf("article %d", i),
			Description:            "body",
			PositiveReactionsCount: reactions,
			URL:                    fmt.Sprintf("https://dev.to/article-%d", i),
		}
	}
	b, _ := json.Marshal(items)
	return b
}

func TestArticlesAdapterReturnsPrimaryWindowWhenEnoughQualify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		top := r.URL.Query().Get("top")
		if top != "365" {
			t.Fatalf("expected the primary window (365) to be queried first, got %q", top)
		}
		w.Write(articleJSON(3, 50))
	}))
	defer srv.Close()

	adapter := &ArticlesAdapter{Timeout: time.Second, BaseURL: srv.URL, PrimaryDays: 365, FallbackDays: 730}
	items, tier, ok := adapter.Fetch(context.Background(), "goroutines")

	if !ok {
		t.Fatal("expected Fetch to succeed")
	}
	if tier != model.DevToTierRecent {
		t.Fatalf("expected DevToTierRecent, got %v", tier)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}
}

func TestArticlesAdapterWidensWindowWhenTooFewQualify(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		top := r.URL.Query().Get("top")
		if calls == 1 {
			if top != "365" {
				t.Fatalf("expected first call to use the primary window, got %q", top)
			}
			w.Write(articleJSON(1, 50)) // below articlesMinCount(2)
			return
		}
		if top != "730" {
			t.Fatalf("expected second call to use the fallback window, got %q", top)
		}
		w.Write(articleJSON(4, 50))
	}))
	defer srv.Close()

	adapter := &ArticlesAdapter{Timeout: time.Second, BaseURL: srv.URL, PrimaryDays: 365, FallbackDays: 730}
	items, tier, ok := adapter.Fetch(context.Background(), "goroutines")

	if !ok {
		t.Fatal("expected Fetch to succeed")
	}
	if tier != model.DevToTierExtended {
		t.Fatalf("expected DevToTierExtended after widening, got %v", tier)
	}
	if len(items) != 4 {
		t.Fatalf("expected the widened result (4 items), got %d", len(items))
	}
	if calls != 2 {
		t.Fatalf("expected exactly 2 requests (primary then fallback), got %d", calls)
	}
}

func TestArticlesAdapterFiltersBelowReactionThreshold(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(articleJSON(5, 5)) // below articlesMinReactions(20)
	}))
	defer srv.Close()

	adapter := &ArticlesAdapter{Timeout: time.Second, BaseURL: srv.URL}
	items, _, ok := adapter.Fetch(context.Background(), "goroutines")
	if !ok {
		t.Fatal("expected Fetch to succeed even with zero qualifying articles")
	}
	if len(items) != 0 {
		t.Fatalf("expected all low-reaction articles to be filtered out, got %d", len(items))
	}
}

func TestArticlesAdapterUnavailableOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	adapter := &ArticlesAdapter{Timeout: time.Second, BaseURL: srv.URL}
	_, _, ok := adapter.Fetch(context.Background(), "goroutines")
	if ok {
		t.Fatal("expected a 5xx response to be treated as unavailable")
	}
}

func TestArticlesAdapterQueryEscapesTopic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("tag") != "go routines & channels" {
			t.Fatalf("expected the topic to round-trip through query escaping, got %q", r.URL.Query().Get("tag"))
		}
		w.Write(articleJSON(3, 50))
	}))
	defer srv.Close()

	adapter := &ArticlesAdapter{Timeout: time.Second, BaseURL: srv.URL}
	if _, _, ok := adapter.Fetch(context.Background(), "go routines & channels"); !ok {
		t.Fatal("expected Fetch to succeed")
	}
}
