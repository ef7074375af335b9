package portfolio

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"helios/internal/domain/market"
	"helios/internal/domain/portfolio"
	"helios/internal/domain/risk"
	"helios/internal/domain/trend"
	"helios/internal/metrics"
	"helios/pkg/logger"
)

// maxPerPrefixGroup caps how many selected tokens may share a short
// symbol prefix before backfill kicks in
const maxPerPrefixGroup = 2

// symbolPrefixLen is the group key length for the diversification cap
const symbolPrefixLen = 3

// OpportunityAssessor is the market-data collaborator's pre-scoring
// function; its score seeds candidate confidence
type OpportunityAssessor interface {
	AssessOpportunity(asset market.Asset) market.OpportunityAssessment
}

// BuildResult is a freshly built target portfolio with its analysis
type BuildResult struct {
	Portfolio *portfolio.Portfolio
	Analysis  portfolio.Analysis
}

// Service builds equal-weight target portfolios from scored candidates
type Service struct {
	assessor OpportunityAssessor
	log      *logger.Logger
}

// NewService creates a portfolio service
func NewService(assessor OpportunityAssessor) *Service {
	return &Service{
		assessor: assessor,
		log:      logger.Get().With("component", "portfolio_service"),
	}
}

// scoredCandidate is local to one build; it is never stored
type scoredCandidate struct {
	asset          market.Asset
	sentimentScore float64
	momentumScore  float64
	confidence     float64
	composite      float64
	reasoning      string
}

// BuildEqualAllocationPortfolio filters, scores and selects candidates
// under the given risk profile and assembles them into an equal-weight
// target portfolio. Too few surviving candidates produces a smaller
// portfolio plus a warning, never an error.
func (s *Service) BuildEqualAllocationPortfolio(
	ctx context.Context,
	targetCount int,
	profile risk.Profile,
	assets []market.Asset,
	stats trend.SummaryStats,
	fearGreed trend.FearGreedStats,
) (*BuildResult, error) {
	candidates := s.scoreCandidates(assets, profile, fearGreed)

	selected, backfilled := s.selectDiversified(candidates, targetCount)
	if backfilled > 0 {
		s.log.Warnw("Diversification cap relaxed to reach target count",
			"backfilled", backfilled,
			"target", targetCount,
		)
	}

	p := s.assemble(selected, targetCount, profile, assets, stats, fearGreed)

	analysis := s.Analyze(p, profile, stats, fearGreed)
	if len(selected) < targetCount {
		s.log.Warnw("Portfolio smaller than requested target",
			"selected", len(selected),
			"target", targetCount,
		)
	}

	metrics.PortfoliosBuilt.WithLabelValues(string(profile.Level())).Inc()

	s.log.Infow("Portfolio built",
		"id", p.ID,
		"tokens", len(p.Tokens),
		"risk_level", profile.Level(),
		"action", analysis.RecommendedAction,
	)

	return &BuildResult{Portfolio: p, Analysis: analysis}, nil
}

// scoreCandidates filters out intolerable assets and produces scored
// candidates for the rest, dropping any below the profile's confidence
// floor
func (s *Service) scoreCandidates(assets []market.Asset, profile risk.Profile, fearGreed trend.FearGreedStats) []scoredCandidate {
	candidates := make([]scoredCandidate, 0, len(assets))

	for i := range assets {
		asset := assets[i]

		if err := asset.Validate(); err != nil {
			s.log.Debugw("Dropping malformed candidate", "error", err)
			metrics.CandidatesFiltered.WithLabelValues("invalid").Inc()
			continue
		}
		if profile.ExceedsRiskTolerance(asset.Risk.Flagged, asset.Risk.Score) {
			metrics.CandidatesFiltered.WithLabelValues("risk_tolerance").Inc()
			continue
		}

		opportunity := s.assessor.AssessOpportunity(asset)

		c := scoredCandidate{
			asset:          asset,
			sentimentScore: sentimentScore(&asset),
			momentumScore:  momentumScore(&asset),
		}
		c.confidence = confidenceScore(&asset, opportunity, profile)
		if c.confidence < profile.MinConfidence() {
			metrics.CandidatesFiltered.WithLabelValues("low_confidence").Inc()
			continue
		}

		c.reasoning = buildReasoning(&asset, opportunity)
		c.composite = profile.CompositeScore(risk.ScoreInput{
			Confidence:     c.confidence,
			SentimentScore: c.sentimentScore,
			MomentumScore:  c.momentumScore,
			RiskScore:      asset.Risk.Score,
		})

		candidates = append(candidates, c)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].composite != candidates[j].composite {
			return candidates[i].composite > candidates[j].composite
		}
		return candidates[i].asset.Symbol < candidates[j].asset.Symbol
	})

	return candidates
}

// selectDiversified walks the sorted candidates enforcing the symbol
// prefix cap, then backfills past the cap if the target count was not
// reached. Returns the selection and how many entries were backfilled.
func (s *Service) selectDiversified(candidates []scoredCandidate, targetCount int) ([]scoredCandidate, int) {
	if targetCount <= 0 {
		return nil, 0
	}

	selected := make([]scoredCandidate, 0, targetCount)
	picked := make(map[int]bool, targetCount)
	groups := make(map[string]int)

	for i, c := range candidates {
		if len(selected) == targetCount {
			break
		}
		g := prefixGroup(c.asset.Symbol)
		if groups[g] >= maxPerPrefixGroup {
			metrics.CandidatesFiltered.WithLabelValues("diversification").Inc()
			continue
		}
		groups[g]++
		picked[i] = true
		selected = append(selected, c)
	}

	backfilled := 0
	for i, c := range candidates {
		if len(selected) == targetCount {
			break
		}
		if picked[i] {
			continue
		}
		selected = append(selected, c)
		backfilled++
	}

	return selected, backfilled
}

// assemble turns the selection into an immutable equal-weight portfolio
// with provenance metadata
func (s *Service) assemble(
	selected []scoredCandidate,
	targetCount int,
	profile risk.Profile,
	analyzed []market.Asset,
	stats trend.SummaryStats,
	fearGreed trend.FearGreedStats,
) *portfolio.Portfolio {
	allocation := 0.0
	if len(selected) > 0 {
		allocation = 100.0 / float64(len(selected))
	}

	tokens := make([]portfolio.Token, 0, len(selected))
	for _, c := range selected {
		tokens = append(tokens, portfolio.Token{
			Symbol:         c.asset.Symbol,
			Mint:           c.asset.Mint,
			Name:           c.asset.Name,
			AllocationPct:  allocation,
			SentimentScore: c.sentimentScore,
			RiskScore:      c.asset.Risk.Score,
			MomentumScore:  c.momentumScore,
			Confidence:     c.confidence,
			Reasoning:      c.reasoning,
		})
	}

	fearGreedValue := 0.0
	if fearGreed.Current != nil {
		fearGreedValue = fearGreed.Current.TodayValue
	}

	return &portfolio.Portfolio{
		ID:        uuid.New(),
		CreatedAt: time.Now().UTC(),
		Strategy:  portfolio.StrategyEqualWeight,
		RiskLevel: profile.Level(),
		Tokens:    tokens,
		Provenance: portfolio.Provenance{
			FearGreedValue:      fearGreedValue,
			MarketSentiment:     stats.Condition.String(),
			TotalAssetsAnalyzed: len(analyzed),
			TopTrendingTopics:   stats.TopTopics,
		},
	}
}

// prefixGroup derives the diversification group key from a symbol
func prefixGroup(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if len(s) > symbolPrefixLen {
		return s[:symbolPrefixLen]
	}
	return s
}
