package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"helios/internal/domain/trend"
)

func TestProfileFor_FallsBackToModerate(t *testing.T) {
	p := ProfileFor(Level("reckless"))
	assert.Equal(t, LevelModerate, p.Level())

	p = ProfileFor(LevelAggressive)
	assert.Equal(t, LevelAggressive, p.Level())
}

func TestProfile_MinConfidence(t *testing.T) {
	assert.InDelta(t, 70.0, ProfileFor(LevelConservative).MinConfidence(), 1e-9)
	assert.InDelta(t, 50.0, ProfileFor(LevelModerate).MinConfidence(), 1e-9)
	assert.InDelta(t, 30.0, ProfileFor(LevelAggressive).MinConfidence(), 1e-9)
}

func TestProfile_Criteria(t *testing.T) {
	c := ProfileFor(LevelConservative).Criteria()
	assert.InDelta(t, 4.0, c.MaxRiskScore, 1e-9)
	assert.InDelta(t, 500_000.0, c.MinLiquidityUSD, 1e-9)

	c = ProfileFor(LevelAggressive).Criteria()
	assert.InDelta(t, 10.0, c.MaxRiskScore, 1e-9)
	assert.InDelta(t, 25_000.0, c.MinLiquidityUSD, 1e-9)
}

func TestProfile_ExceedsRiskTolerance(t *testing.T) {
	conservative := ProfileFor(LevelConservative)
	assert.True(t, conservative.ExceedsRiskTolerance(false, 4.5))
	assert.False(t, conservative.ExceedsRiskTolerance(false, 4.0))
	assert.True(t, conservative.ExceedsRiskTolerance(true, 0))

	moderate := ProfileFor(LevelModerate)
	assert.True(t, moderate.ExceedsRiskTolerance(false, 7.5))
	assert.False(t, moderate.ExceedsRiskTolerance(false, 7.0))

	// Aggressive never rejects on risk alone, even flagged assets pass
	// here (they are zeroed out by confidence scoring instead)
	aggressive := ProfileFor(LevelAggressive)
	assert.False(t, aggressive.ExceedsRiskTolerance(false, 10))
	assert.False(t, aggressive.ExceedsRiskTolerance(true, 10))
}

func TestProfile_ConfidenceModifier(t *testing.T) {
	conservative := ProfileFor(LevelConservative)
	assert.InDelta(t, 0.0, conservative.ConfidenceModifier(2), 1e-9)
	assert.InDelta(t, -10.0, conservative.ConfidenceModifier(4), 1e-9)
	assert.InDelta(t, 0.0, conservative.ConfidenceModifier(1), 1e-9) // never positive

	assert.InDelta(t, 0.0, ProfileFor(LevelModerate).ConfidenceModifier(8), 1e-9)

	aggressive := ProfileFor(LevelAggressive)
	assert.InDelta(t, 6.0, aggressive.ConfidenceModifier(3), 1e-9)
	assert.InDelta(t, 10.0, aggressive.ConfidenceModifier(8), 1e-9) // capped at +10
}

func TestProfile_FearGreedAlignmentBonus(t *testing.T) {
	aggressive := ProfileFor(LevelAggressive)
	assert.InDelta(t, 15.0, aggressive.FearGreedAlignmentBonus(20), 1e-9)
	assert.InDelta(t, 0.0, aggressive.FearGreedAlignmentBonus(25), 1e-9)
	assert.InDelta(t, 0.0, aggressive.FearGreedAlignmentBonus(80), 1e-9)

	conservative := ProfileFor(LevelConservative)
	assert.InDelta(t, 10.0, conservative.FearGreedAlignmentBonus(80), 1e-9)
	assert.InDelta(t, 0.0, conservative.FearGreedAlignmentBonus(75), 1e-9)
	assert.InDelta(t, 0.0, conservative.FearGreedAlignmentBonus(20), 1e-9)

	assert.InDelta(t, 0.0, ProfileFor(LevelModerate).FearGreedAlignmentBonus(10), 1e-9)
}

func TestProfile_CompositeScore(t *testing.T) {
	in := ScoreInput{Confidence: 80, SentimentScore: 60, MomentumScore: 70, RiskScore: 4}

	// conservative: 0.4*80 + 0.3*60 + 0.2*70 + (10-4)*1.0 = 70
	assert.InDelta(t, 70.0, ProfileFor(LevelConservative).CompositeScore(in), 1e-9)

	// moderate: 0.3*80 + 0.3*60 + 0.3*70 + (10-4)*0.5 = 66
	assert.InDelta(t, 66.0, ProfileFor(LevelModerate).CompositeScore(in), 1e-9)

	// aggressive: 0.2*80 + 0.3*60 + 0.4*70 + (10-4)*0.2 = 63.2
	assert.InDelta(t, 63.2, ProfileFor(LevelAggressive).CompositeScore(in), 1e-9)
}

func TestDetermineLevel(t *testing.T) {
	tests := []struct {
		name  string
		stats trend.SummaryStats
		fg    trend.FearGreedStats
		want  Level
	}{
		{
			name:  "no signals stays moderate",
			stats: trend.SummaryStats{Condition: trend.ConditionNeutral, PositivePct: 50},
			want:  LevelModerate,
		},
		{
			name: "extreme fear alone is aggressive",
			stats: trend.SummaryStats{
				Condition: trend.ConditionNeutral, PositivePct: 50, FearGreedValue: 20,
			},
			want: LevelAggressive,
		},
		{
			name: "extreme greed alone is conservative",
			stats: trend.SummaryStats{
				Condition: trend.ConditionNeutral, PositivePct: 50, FearGreedValue: 80,
			},
			want: LevelConservative,
		},
		{
			name: "bullish breadth is aggressive",
			stats: trend.SummaryStats{
				Condition:    trend.ConditionBullish,
				PositivePct:  70,
				RisingCount:  6,
				FallingCount: 2,
			},
			fg:   trend.FearGreedStats{Current: &trend.FearGreedSnapshot{TodayValue: 55}},
			want: LevelAggressive,
		},
		{
			name: "bearish market is conservative",
			stats: trend.SummaryStats{
				Condition:   trend.ConditionBearish,
				PositivePct: 30,
			},
			fg:   trend.FearGreedStats{Current: &trend.FearGreedSnapshot{TodayValue: 50}},
			want: LevelConservative,
		},
		{
			name: "offsetting signals stay moderate",
			stats: trend.SummaryStats{
				Condition:   trend.ConditionBullish,
				PositivePct: 50,
			},
			fg:   trend.FearGreedStats{Current: &trend.FearGreedSnapshot{TodayValue: 80}},
			want: LevelModerate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetermineLevel(tt.stats, tt.fg))
		})
	}
}
