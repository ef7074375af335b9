package analysis

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"helios/internal/domain/market"
	"helios/internal/domain/trend"
	"helios/internal/metrics"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// DataProvider fetches the candidate asset universe for one cycle
type DataProvider interface {
	FetchCandidateAssets(ctx context.Context) ([]market.Asset, error)
}

// NewsProvider turns current news into scored trending topics
type NewsProvider interface {
	FetchTrendingTopics(ctx context.Context) ([]trend.TopicScore, error)
}

// SentimentProvider fetches aggregated news-sentiment snapshots
type SentimentProvider interface {
	FetchSentiment(ctx context.Context) ([]trend.SentimentSnapshot, error)
}

// FearGreedProvider fetches the current fear/greed index reading
type FearGreedProvider interface {
	FetchFearGreed(ctx context.Context) (*trend.FearGreedSnapshot, error)
}

// SnapshotCache persists the latest market snapshot between processes
type SnapshotCache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
}

// Config contains configuration for the market analysis service
type Config struct {
	RefreshTimeout time.Duration
	SnapshotTTL    time.Duration
	SnapshotKey    string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		RefreshTimeout: 30 * time.Second,
		SnapshotTTL:    15 * time.Minute,
		SnapshotKey:    "analysis:snapshot",
	}
}

// Snapshot is the cached view of the last successful refresh
type Snapshot struct {
	Stats       trend.SummaryStats   `json:"stats"`
	FearGreed   trend.FearGreedStats `json:"fear_greed"`
	AssetCount  int                  `json:"asset_count"`
	RefreshedAt time.Time            `json:"refreshed_at"`
}

// Service owns the trend analyzer and the latest candidate universe.
// Refresh fans out to the external collaborators; every result that
// arrives is merged into the analyzer synchronously, and a collaborator
// failure only costs its own signal for the cycle.
type Service struct {
	cfg       Config
	data      DataProvider
	news      NewsProvider
	sentiment SentimentProvider
	fearGreed FearGreedProvider
	cache     SnapshotCache // optional

	analyzer *trend.Analyzer

	mu          sync.RWMutex
	assets      []market.Asset
	lastRefresh time.Time

	log *logger.Logger
}

// NewService creates a market analysis service. cache may be nil.
func NewService(
	cfg Config,
	data DataProvider,
	news NewsProvider,
	sentiment SentimentProvider,
	fearGreed FearGreedProvider,
	cache SnapshotCache,
) *Service {
	return &Service{
		cfg:       cfg,
		data:      data,
		news:      news,
		sentiment: sentiment,
		fearGreed: fearGreed,
		cache:     cache,
		analyzer:  trend.NewAnalyzer(trend.DefaultAnalyzerConfig()),
		log:       logger.Get().With("component", "market_analysis"),
	}
}

// Refresh gathers fresh data from all collaborators concurrently and
// merges the results into the trend analyzer. It only returns an error
// when every collaborator failed and nothing could be refreshed.
func (s *Service) Refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.RefreshTimeout)
	defer cancel()

	var (
		assets    []market.Asset
		topics    []trend.TopicScore
		snapshots []trend.SentimentSnapshot
		fearGreed *trend.FearGreedSnapshot
	)

	// Fan-out: the four reads are independent and share no state.
	// Errors are swallowed per branch so one dead collaborator does not
	// abort the cycle.
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		fetched, err := s.data.FetchCandidateAssets(gctx)
		if err != nil {
			s.collaboratorFailed("market_data", err)
			return nil
		}
		assets = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := s.news.FetchTrendingTopics(gctx)
		if err != nil {
			s.collaboratorFailed("news", err)
			return nil
		}
		topics = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := s.sentiment.FetchSentiment(gctx)
		if err != nil {
			s.collaboratorFailed("sentiment", err)
			return nil
		}
		snapshots = fetched
		return nil
	})
	g.Go(func() error {
		fetched, err := s.fearGreed.FetchFearGreed(gctx)
		if err != nil {
			s.collaboratorFailed("fear_greed", err)
			return nil
		}
		fearGreed = fetched
		return nil
	})

	_ = g.Wait()

	if assets == nil && topics == nil && snapshots == nil && fearGreed == nil {
		return errors.Wrap(errors.ErrUnavailable, "all market collaborators failed")
	}

	// Fan-in: merge synchronously so scoring always sees a complete
	// snapshot.
	if topics != nil {
		s.analyzer.RecordTopicScores(topics)
	}
	for _, snap := range snapshots {
		s.analyzer.RecordSentiment(snap)
	}
	if fearGreed != nil {
		s.analyzer.RecordFearGreed(*fearGreed)
	}

	s.mu.Lock()
	if assets != nil {
		s.assets = assets
	}
	s.lastRefresh = time.Now()
	s.mu.Unlock()

	condition := s.analyzer.SummaryStats().Condition
	for _, c := range []trend.MarketCondition{trend.ConditionBullish, trend.ConditionBearish, trend.ConditionNeutral} {
		v := 0.0
		if c == condition {
			v = 1
		}
		metrics.MarketCondition.WithLabelValues(string(c)).Set(v)
	}
	metrics.CandidateAssets.Set(float64(len(s.CandidateAssets())))

	s.log.Infow("Market data refreshed",
		"assets", len(assets),
		"topics", len(topics),
		"sentiment_snapshots", len(snapshots),
		"fear_greed_ok", fearGreed != nil,
	)

	s.storeSnapshot(ctx)
	return nil
}

// CandidateAssets returns a copy of the latest candidate universe
func (s *Service) CandidateAssets() []market.Asset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]market.Asset, len(s.assets))
	copy(out, s.assets)
	return out
}

// SummaryStats returns the analyzer's aggregate trend picture
func (s *Service) SummaryStats() trend.SummaryStats {
	return s.analyzer.SummaryStats()
}

// FearGreedTrend returns the analyzer's fear/greed statistics
func (s *Service) FearGreedTrend() trend.FearGreedStats {
	return s.analyzer.FearGreedTrend()
}

// SentimentTrend returns the analyzer's sentiment shift
func (s *Service) SentimentTrend() trend.Shift {
	return s.analyzer.SentimentTrend()
}

// ComputeTrends returns per-topic trend points
func (s *Service) ComputeTrends() []trend.Point {
	return s.analyzer.ComputeTrends()
}

// LastRefresh returns when the last successful refresh completed
func (s *Service) LastRefresh() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRefresh
}

func (s *Service) collaboratorFailed(name string, err error) {
	metrics.CollaboratorErrors.WithLabelValues(name).Inc()
	s.log.Warnw("Collaborator fetch failed, skipping signal this cycle",
		"collaborator", name,
		"error", err,
	)
}

// storeSnapshot caches the merged view so a restarted process can report
// provenance before its first full refresh. Cache failures are logged
// and ignored.
func (s *Service) storeSnapshot(ctx context.Context) {
	if s.cache == nil {
		return
	}

	snap := Snapshot{
		Stats:       s.SummaryStats(),
		FearGreed:   s.FearGreedTrend(),
		AssetCount:  len(s.CandidateAssets()),
		RefreshedAt: time.Now(),
	}

	if err := s.cache.Set(ctx, s.cfg.SnapshotKey, snap, s.cfg.SnapshotTTL); err != nil {
		s.log.Warnw("Failed to cache market snapshot", "error", err)
	}
}

// CachedSnapshot loads the last stored snapshot, if any
func (s *Service) CachedSnapshot(ctx context.Context) (*Snapshot, error) {
	if s.cache == nil {
		return nil, nil
	}

	var snap Snapshot
	if err := s.cache.Get(ctx, s.cfg.SnapshotKey, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}
