package portfolio

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/market"
	"helios/internal/domain/portfolio"
	"helios/internal/domain/risk"
	"helios/internal/domain/trend"
)

// stubAssessor returns a fixed opportunity score per mint
type stubAssessor struct {
	scores map[string]float64
}

func (s *stubAssessor) AssessOpportunity(asset market.Asset) market.OpportunityAssessment {
	return market.OpportunityAssessment{
		Score:          s.scores[asset.Mint],
		Recommendation: market.RecommendWatch,
	}
}

func mint(c byte) string {
	return strings.Repeat(string(c), 40)
}

// neutralAsset builds an asset whose sentiment, momentum and confidence
// adjustments are all zero, so confidence equals the assessor score
// under the moderate profile
func neutralAsset(symbol string, m string) market.Asset {
	return market.Asset{
		Mint:   m,
		Symbol: symbol,
		Name:   symbol,
		Risk:   market.RiskAssessment{Score: 4},
		Pool: market.Pool{
			Address:      "pool-" + symbol,
			LiquidityUSD: 200_000,
			LPBurnPct:    60,
		},
		MintAuthorityRenounced:   true,
		FreezeAuthorityRenounced: false,
	}
}

func TestBuild_ConfidenceFloorAndEqualSplit(t *testing.T) {
	assessor := &stubAssessor{scores: map[string]float64{
		mint('A'): 80,
		mint('B'): 60,
		mint('C'): 40, // below the moderate floor of 50
	}}
	svc := NewService(assessor)

	assets := []market.Asset{
		neutralAsset("ALPHA", mint('A')),
		neutralAsset("BRAVO", mint('B')),
		neutralAsset("CHARL", mint('C')),
	}

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 3, risk.ProfileFor(risk.LevelModerate),
		assets, trend.SummaryStats{Condition: trend.ConditionNeutral}, trend.FearGreedStats{},
	)
	require.NoError(t, err)

	p := result.Portfolio
	require.Len(t, p.Tokens, 2)

	// Sorted by composite, so the higher-confidence token comes first
	assert.Equal(t, "ALPHA", p.Tokens[0].Symbol)
	assert.Equal(t, "BRAVO", p.Tokens[1].Symbol)

	for _, token := range p.Tokens {
		assert.InDelta(t, 50.0, token.AllocationPct, 1e-9)
	}

	assert.InDelta(t, 80.0, p.Tokens[0].Confidence, 1e-9)
	assert.InDelta(t, 60.0, p.Tokens[1].Confidence, 1e-9)

	assert.Equal(t, portfolio.StrategyEqualWeight, p.Strategy)
	assert.Equal(t, risk.LevelModerate, p.RiskLevel)
	assert.Equal(t, 3, p.Provenance.TotalAssetsAnalyzed)
}

func TestBuild_AllocationsSumToHundred(t *testing.T) {
	assessor := &stubAssessor{scores: map[string]float64{
		mint('A'): 80, mint('B'): 75, mint('C'): 70,
	}}
	svc := NewService(assessor)

	assets := []market.Asset{
		neutralAsset("ALPHA", mint('A')),
		neutralAsset("BRAVO", mint('B')),
		neutralAsset("CHARL", mint('C')),
	}

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 3, risk.ProfileFor(risk.LevelModerate),
		assets, trend.SummaryStats{}, trend.FearGreedStats{},
	)
	require.NoError(t, err)
	require.Len(t, result.Portfolio.Tokens, 3)

	sum := 0.0
	for _, token := range result.Portfolio.Tokens {
		sum += token.AllocationPct
	}
	assert.InDelta(t, 100.0, sum, 1e-9)
}

func TestBuild_DiversificationCap(t *testing.T) {
	assessor := &stubAssessor{scores: map[string]float64{
		mint('A'): 90, // DOGA
		mint('B'): 85, // DOGB
		mint('C'): 80, // DOGC
		mint('D'): 70, // CATX
		mint('E'): 65, // FOXY
	}}
	svc := NewService(assessor)

	assets := []market.Asset{
		neutralAsset("DOGA", mint('A')),
		neutralAsset("DOGB", mint('B')),
		neutralAsset("DOGC", mint('C')),
		neutralAsset("CATX", mint('D')),
		neutralAsset("FOXY", mint('E')),
	}

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 4, risk.ProfileFor(risk.LevelModerate),
		assets, trend.SummaryStats{}, trend.FearGreedStats{},
	)
	require.NoError(t, err)

	symbols := make([]string, 0, 4)
	for _, token := range result.Portfolio.Tokens {
		symbols = append(symbols, token.Symbol)
	}

	// The third DOG-prefixed token is skipped in favor of other groups
	assert.Equal(t, []string{"DOGA", "DOGB", "CATX", "FOXY"}, symbols)
}

func TestBuild_BackfillWhenCapLeavesShortfall(t *testing.T) {
	assessor := &stubAssessor{scores: map[string]float64{
		mint('A'): 90, mint('B'): 85, mint('C'): 80,
	}}
	svc := NewService(assessor)

	assets := []market.Asset{
		neutralAsset("DOGA", mint('A')),
		neutralAsset("DOGB", mint('B')),
		neutralAsset("DOGC", mint('C')),
	}

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 3, risk.ProfileFor(risk.LevelModerate),
		assets, trend.SummaryStats{}, trend.FearGreedStats{},
	)
	require.NoError(t, err)

	// Cap allows only two DOG tokens, backfill readmits the third
	require.Len(t, result.Portfolio.Tokens, 3)
	assert.Equal(t, "DOGC", result.Portfolio.Tokens[2].Symbol)
}

func TestBuild_FlaggedAssetNeverSelected(t *testing.T) {
	flagged := neutralAsset("EVIL", mint('F'))
	flagged.Risk.Flagged = true

	assessor := &stubAssessor{scores: map[string]float64{mint('F'): 95}}
	svc := NewService(assessor)

	for _, level := range []risk.Level{risk.LevelConservative, risk.LevelModerate, risk.LevelAggressive} {
		result, err := svc.BuildEqualAllocationPortfolio(
			context.Background(), 1, risk.ProfileFor(level),
			[]market.Asset{flagged}, trend.SummaryStats{}, trend.FearGreedStats{},
		)
		require.NoError(t, err)
		assert.Empty(t, result.Portfolio.Tokens, "level %s", level)
	}
}

func TestBuild_InvalidAssetSkipped(t *testing.T) {
	bad := neutralAsset("BAD", "tooshort")
	good := neutralAsset("GOOD", mint('G'))

	assessor := &stubAssessor{scores: map[string]float64{mint('G'): 80, "tooshort": 90}}
	svc := NewService(assessor)

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 2, risk.ProfileFor(risk.LevelModerate),
		[]market.Asset{bad, good}, trend.SummaryStats{}, trend.FearGreedStats{},
	)
	require.NoError(t, err)
	require.Len(t, result.Portfolio.Tokens, 1)
	assert.Equal(t, "GOOD", result.Portfolio.Tokens[0].Symbol)
}

func TestBuild_EmptyUniverseProducesWarning(t *testing.T) {
	svc := NewService(&stubAssessor{scores: map[string]float64{}})

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 5, risk.ProfileFor(risk.LevelModerate),
		nil, trend.SummaryStats{}, trend.FearGreedStats{},
	)
	require.NoError(t, err)
	assert.Empty(t, result.Portfolio.Tokens)
	assert.Contains(t, result.Analysis.Warnings, "no candidates survived filtering")
}

func TestAnalyze_Deterministic(t *testing.T) {
	assessor := &stubAssessor{scores: map[string]float64{
		mint('A'): 80, mint('B'): 70,
	}}
	svc := NewService(assessor)

	assets := []market.Asset{
		neutralAsset("ALPHA", mint('A')),
		neutralAsset("BRAVO", mint('B')),
	}
	stats := trend.SummaryStats{Condition: trend.ConditionBullish, PositivePct: 62}
	fg := trend.FearGreedStats{Current: &trend.FearGreedSnapshot{TodayValue: 55}}

	result, err := svc.BuildEqualAllocationPortfolio(
		context.Background(), 2, risk.ProfileFor(risk.LevelModerate), assets, stats, fg,
	)
	require.NoError(t, err)

	again := svc.Analyze(result.Portfolio, risk.ProfileFor(risk.LevelModerate), stats, fg)
	assert.Equal(t, result.Analysis, again)
}

func TestAnalyze_FearGreedAlignmentBonus(t *testing.T) {
	svc := NewService(&stubAssessor{scores: map[string]float64{}})

	p := &portfolio.Portfolio{
		RiskLevel: risk.LevelConservative,
		Tokens: []portfolio.Token{
			{Symbol: "ALPHA", AllocationPct: 100, RiskScore: 2, Confidence: 75},
		},
	}
	stats := trend.SummaryStats{Condition: trend.ConditionNeutral}

	without := svc.Analyze(p, risk.ProfileFor(risk.LevelConservative), stats,
		trend.FearGreedStats{Current: &trend.FearGreedSnapshot{TodayValue: 70}})
	with := svc.Analyze(p, risk.ProfileFor(risk.LevelConservative), stats,
		trend.FearGreedStats{Current: &trend.FearGreedSnapshot{TodayValue: 80}})

	// Conservative earns its +10 alignment bonus only above 75
	assert.InDelta(t, 10.0, with.MarketAlignmentScore-without.MarketAlignmentScore, 1e-9)
}

func TestPrefixGroup(t *testing.T) {
	assert.Equal(t, "DOG", prefixGroup("DOGWIF"))
	assert.Equal(t, "DOG", prefixGroup("dogcoin"))
	assert.Equal(t, "AB", prefixGroup("ab"))
	assert.Equal(t, "SOL", prefixGroup("  sol  "))
}
