package news

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"helios/internal/domain/trend"
	"helios/internal/metrics"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// KeywordExtractor turns a batch of headlines into weighted topics.
// The AI adapter implements this; a nil extractor falls back to
// frequency counting.
type KeywordExtractor interface {
	ExtractTopics(ctx context.Context, headlines []string) (map[string]float64, error)
}

// Config contains configuration for the news client
type Config struct {
	BaseURL            string
	APIKey             string
	Timeout            time.Duration
	RateLimitPerSecond float64
	MaxHeadlines       int
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://cryptopanic.com/api/v1",
		Timeout:            15 * time.Second,
		RateLimitPerSecond: 1,
		MaxHeadlines:       50,
	}
}

// Client fetches crypto news and derives trending topics and aggregated
// sentiment from it
type Client struct {
	cfg       Config
	http      *http.Client
	limiter   *rate.Limiter
	extractor KeywordExtractor // optional
	log       *logger.Logger
}

// NewClient creates a news client. extractor may be nil.
func NewClient(cfg Config, extractor KeywordExtractor) *Client {
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		extractor: extractor,
		log:       logger.Get().With("component", "news"),
	}
}

type postsResponse struct {
	Results []post `json:"results"`
}

type post struct {
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
	Votes       struct {
		Positive int `json:"positive"`
		Negative int `json:"negative"`
		Neutral  int `json:"important"`
	} `json:"votes"`
}

// FetchTrendingTopics fetches current headlines and scores the topics
// they mention. Implements the analysis service's NewsProvider.
func (c *Client) FetchTrendingTopics(ctx context.Context) ([]trend.TopicScore, error) {
	started := time.Now()
	posts, err := c.fetchPosts(ctx)
	metrics.RecordCollaboratorFetch("news", time.Since(started), err)
	if err != nil {
		return nil, err
	}

	headlines := make([]string, 0, len(posts))
	for _, p := range posts {
		if p.Title != "" {
			headlines = append(headlines, p.Title)
		}
	}
	if len(headlines) == 0 {
		return nil, nil
	}
	if len(headlines) > c.cfg.MaxHeadlines {
		headlines = headlines[:c.cfg.MaxHeadlines]
	}

	weights := c.topicWeights(ctx, headlines)

	now := time.Now()
	scores := make([]trend.TopicScore, 0, len(weights))
	for topic, weight := range weights {
		scores = append(scores, trend.TopicScore{
			Topic:           topic,
			PopularityScore: weight,
			SampledAt:       now,
		})
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].PopularityScore != scores[j].PopularityScore {
			return scores[i].PopularityScore > scores[j].PopularityScore
		}
		return scores[i].Topic < scores[j].Topic
	})

	c.log.Infow("Extracted trending topics", "headlines", len(headlines), "topics", len(scores))
	return scores, nil
}

// FetchSentiment aggregates reader votes on recent posts into 24h and
// 48h sentiment snapshots. Implements SentimentProvider.
func (c *Client) FetchSentiment(ctx context.Context) ([]trend.SentimentSnapshot, error) {
	started := time.Now()
	posts, err := c.fetchPosts(ctx)
	metrics.RecordCollaboratorFetch("sentiment", time.Since(started), err)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	snapshots := make([]trend.SentimentSnapshot, 0, 2)
	for _, window := range []struct {
		interval string
		maxAge   time.Duration
	}{
		{"24h", 24 * time.Hour},
		{"48h", 48 * time.Hour},
	} {
		snap := aggregate(posts, window.interval, now, window.maxAge)
		if snap.Total > 0 {
			snapshots = append(snapshots, snap)
		}
	}
	return snapshots, nil
}

func (c *Client) fetchPosts(ctx context.Context) ([]post, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	url := fmt.Sprintf("%s/posts/?auth_token=%s&currencies=SOL&public=true", c.cfg.BaseURL, c.cfg.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "unexpected status %d", resp.StatusCode)
	}

	var parsed postsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode news response")
	}
	return parsed.Results, nil
}

// topicWeights prefers the AI extractor and falls back to plain token
// frequency when it is absent or fails
func (c *Client) topicWeights(ctx context.Context, headlines []string) map[string]float64 {
	if c.extractor != nil {
		weights, err := c.extractor.ExtractTopics(ctx, headlines)
		if err == nil && len(weights) > 0 {
			return weights
		}
		if err != nil {
			c.log.Warnw("Keyword extraction failed, falling back to frequency counting", "error", err)
		}
	}
	return frequencyWeights(headlines)
}

// frequencyWeights scores each capitalized token by how many headlines
// mention it, normalized to 0-100
func frequencyWeights(headlines []string) map[string]float64 {
	counts := make(map[string]int)
	for _, h := range headlines {
		seen := make(map[string]bool)
		for _, word := range strings.Fields(h) {
			word = strings.Trim(word, ".,!?:;\"'()[]")
			if len(word) < 3 || word != strings.ToUpper(word[:1])+word[1:] {
				continue
			}
			key := strings.ToLower(word)
			if stopwords[key] || seen[key] {
				continue
			}
			seen[key] = true
			counts[key]++
		}
	}

	max := 0
	for _, n := range counts {
		if n > max {
			max = n
		}
	}
	if max == 0 {
		return nil
	}

	weights := make(map[string]float64, len(counts))
	for topic, n := range counts {
		if n < 2 {
			continue
		}
		weights[topic] = float64(n) / float64(max) * 100
	}
	return weights
}

func aggregate(posts []post, interval string, now time.Time, maxAge time.Duration) trend.SentimentSnapshot {
	var positive, negative, neutral int
	for _, p := range posts {
		if !p.PublishedAt.IsZero() && now.Sub(p.PublishedAt) > maxAge {
			continue
		}
		switch {
		case p.Votes.Positive > p.Votes.Negative:
			positive++
		case p.Votes.Negative > p.Votes.Positive:
			negative++
		default:
			neutral++
		}
	}

	total := positive + negative + neutral
	snap := trend.SentimentSnapshot{
		Interval:   interval,
		Total:      total,
		RecordedAt: now,
	}
	if total > 0 {
		snap.PositivePct = float64(positive) / float64(total) * 100
		snap.NegativePct = float64(negative) / float64(total) * 100
		snap.NeutralPct = float64(neutral) / float64(total) * 100
	}
	return snap
}

var stopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "this": true,
	"that": true, "from": true, "after": true, "over": true, "into": true,
	"will": true, "has": true, "its": true, "are": true, "new": true,
	"how": true, "why": true, "what": true, "when": true, "amid": true,
}
