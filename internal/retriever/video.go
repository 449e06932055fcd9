package retriever

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/lessonforge/pipeline/internal/model"
)

type videoCandidate struct {
	Title          string `json:"title"`
	URL            string `json:"url"`
	Channel        string `json:"channel"`
	ViewCount      int64  `json:"view_count"`
	LikeCount      int64  `json:"like_count"`
	CommentCount   int64  `json:"comment_count"`
	ChannelSubs    int64  `json:"channel_subscriber_count"`
	PublishedDaysAgo int  `json:"published_days_ago"`
	Captions       string `json:"captions,omitempty"`
}

type videoSearchResponse struct {
	Items []videoCandidate `json:"items"`
}

// VideoAdapter ranks candidates by a 5-factor quality score and fetches the
// top candidate's transcript, falling back through captions, then
// speech-to-text, then an alternate platform.
type VideoAdapter struct {
	Timeout          time.Duration
	PrimaryBaseURL   string
	AlternateBaseURL string
	Transcriber      Transcriber
}

// Transcriber abstracts the transcription provider used when a video has no
// platform-native captions.
type Transcriber interface {
	Transcribe(ctx context.Context, videoURL string) (string, bool)
}

func (a *VideoAdapter) Fetch(ctx context.Context, topic string) (*model.VideoItem, model.VideoSourceTier, bool) {
	primary := a.PrimaryBaseURL
	if primary == "" {
		primary = "https://www.googleapis.com/youtube/v3/search"
	}

	if item, ok := a.fetchFrom(ctx, primary, topic); ok {
		return item, model.VideoSourcePrimary, true
	}

	alternate := a.AlternateBaseURL
	if alternate != "" {
		if item, ok := a.fetchFrom(ctx, alternate, topic); ok {
			return item, model.VideoSourceFallback, true
		}
	}

	return nil, model.VideoSourceNone, false
}

func (a *VideoAdapter) fetchFrom(ctx context.Context, base, topic string) (*model.VideoItem, bool) {
	fetchURL := fmt.Sprintf("%s?q=%s", base, url.QueryEscape(topic))

	var resp videoSearchResponse
	if !fetchJSON(ctx, a.Timeout, fetchURL, nil, &resp) {
		return nil, false
	}
	if len(resp.Items) == 0 {
		return nil, false
	}

	best := resp.Items[0]
	bestScore := qualityScore(best, topic)
	for _, c := range resp.Items[1:] {
		if s := qualityScore(c, topic); s > bestScore {
			best, bestScore = c, s
		}
	}

	transcript, ok := a.resolveTranscript(ctx, best)
	if !ok {
		return nil, false
	}

	return &model.VideoItem{
		Title:        best.Title,
		URL:          best.URL,
		Channel:      best.Channel,
		Transcript:   transcript,
		QualityScore: bestScore,
	}, true
}

// resolveTranscript chains: platform captions -> speech-to-text -> give up.
func (a *VideoAdapter) resolveTranscript(ctx context.Context, c videoCandidate) (string, bool) {
	if c.Captions != "" {
		return c.Captions, true
	}
	if a.Transcriber != nil {
		if text, ok := a.Transcriber.Transcribe(ctx, c.URL); ok {
			return text, true
		}
	}
	return "", false
}

// qualityScore weights views 30%, engagement 25%, channel authority 20%,
// topical relevance 15%, recency 10% (optimal band 6-36 months).
func qualityScore(c videoCandidate, topic string) float64 {
	views := normalizeLog(c.ViewCount, 1_000_000)
	engagement := normalizeLog(c.LikeCount+c.CommentCount, 50_000)
	authority := normalizeLog(c.ChannelSubs, 1_000_000)
	relevance := topicalRelevance(c.Title, topic)
	recency := recencyScore(c.PublishedDaysAgo)

	return views*0.30 + engagement*0.25 + authority*0.20 + relevance*0.15 + recency*0.10
}

func normalizeLog(v int64, max int64) float64 {
	if v <= 0 {
		return 0
	}
	if v >= max {
		return 1
	}
	return float64(v) / float64(max)
}

func topicalRelevance(title, topic string) float64 {
	if title == "" || topic == "" {
		return 0
	}
	if strings.Contains(strings.ToLower(title), strings.ToLower(topic)) {
		return 1
	}
	return 0.3
}

// recencyScore peaks in the 6-36 month band and tapers outside it.
func recencyScore(daysAgo int) float64 {
	months := float64(daysAgo) / 30.0
	switch {
	case months < 6:
		return 0.6 + 0.4*(months/6)
	case months <= 36:
		return 1.0
	default:
		over := months - 36
		score := 1.0 - over*0.02
		if score < 0.1 {
			return 0.1
		}
		return score
	}
}
