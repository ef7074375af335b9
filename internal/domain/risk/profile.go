package risk

import (
	"math"

	"helios/internal/domain/trend"
)

// Level defines the risk appetite of a portfolio build
type Level string

const (
	LevelConservative Level = "conservative"
	LevelModerate     Level = "moderate"
	LevelAggressive   Level = "aggressive"
)

// Valid checks if level is valid
func (l Level) Valid() bool {
	switch l {
	case LevelConservative, LevelModerate, LevelAggressive:
		return true
	}
	return false
}

// String returns string representation
func (l Level) String() string {
	return string(l)
}

// Criteria summarizes the hard filters a profile applies, for display
// and candidate pre-filtering by callers
type Criteria struct {
	MaxRiskScore    float64 `json:"max_risk_score"`
	MinLiquidityUSD float64 `json:"min_liquidity_usd"`
	MinConfidence   float64 `json:"min_confidence"`
}

// ScoreInput carries the per-candidate numbers the composite score combines
type ScoreInput struct {
	Confidence     float64 // 0-100
	SentimentScore float64 // 0-100
	MomentumScore  float64 // 0-100
	RiskScore      float64 // 0-10
}

// Profile is an immutable scoring and filtering policy for one risk level.
// It carries its own constants; construct via ProfileFor and never mutate.
type Profile struct {
	level Level

	minConfidence   float64
	maxRiskScore    float64
	minLiquidityUSD float64

	// Composite score weights
	confidenceWeight float64
	sentimentWeight  float64
	momentumWeight   float64
	inverseRiskScale float64
}

var profiles = map[Level]Profile{
	LevelConservative: {
		level:            LevelConservative,
		minConfidence:    70,
		maxRiskScore:     4,
		minLiquidityUSD:  500_000,
		confidenceWeight: 0.4,
		sentimentWeight:  0.3,
		momentumWeight:   0.2,
		inverseRiskScale: 1.0,
	},
	LevelModerate: {
		level:            LevelModerate,
		minConfidence:    50,
		maxRiskScore:     7,
		minLiquidityUSD:  100_000,
		confidenceWeight: 0.3,
		sentimentWeight:  0.3,
		momentumWeight:   0.3,
		inverseRiskScale: 0.5,
	},
	LevelAggressive: {
		level:            LevelAggressive,
		minConfidence:    30,
		maxRiskScore:     10,
		minLiquidityUSD:  25_000,
		confidenceWeight: 0.2,
		sentimentWeight:  0.3,
		momentumWeight:   0.4,
		inverseRiskScale: 0.2,
	},
}

// ProfileFor returns the policy value for a level; unknown levels fall
// back to moderate
func ProfileFor(level Level) Profile {
	if p, ok := profiles[level]; ok {
		return p
	}
	return profiles[LevelModerate]
}

// Level returns the profile's risk level
func (p Profile) Level() Level {
	return p.level
}

// MinConfidence returns the minimum confidence a candidate needs to survive
func (p Profile) MinConfidence() float64 {
	return p.minConfidence
}

// Criteria returns the profile's hard filters
func (p Profile) Criteria() Criteria {
	return Criteria{
		MaxRiskScore:    p.maxRiskScore,
		MinLiquidityUSD: p.minLiquidityUSD,
		MinConfidence:   p.minConfidence,
	}
}

// ExceedsRiskTolerance reports whether an asset is too risky for this
// profile. Aggressive never rejects on this axis alone; flagged assets
// still die later because their confidence is forced to zero.
func (p Profile) ExceedsRiskTolerance(flagged bool, riskScore float64) bool {
	switch p.level {
	case LevelConservative, LevelModerate:
		return flagged || riskScore > p.maxRiskScore
	default:
		return false
	}
}

// ConfidenceModifier returns the profile's risk-dependent confidence
// adjustment: conservative penalizes risk, aggressive rewards it
func (p Profile) ConfidenceModifier(riskScore float64) float64 {
	switch p.level {
	case LevelConservative:
		return -math.Max(0, (riskScore-2)*5)
	case LevelAggressive:
		return math.Min(10, riskScore*2)
	default:
		return 0
	}
}

// FearGreedAlignmentBonus rewards builds aligned with the profile's
// temperament: aggressive buys the fear, conservative is rewarded for
// caution in greed
func (p Profile) FearGreedAlignmentBonus(fearGreedValue float64) float64 {
	switch p.level {
	case LevelAggressive:
		if fearGreedValue < 25 {
			return 15
		}
	case LevelConservative:
		if fearGreedValue > 75 {
			return 10
		}
	}
	return 0
}

// CompositeScore is the single ranking number used for candidate selection
func (p Profile) CompositeScore(in ScoreInput) float64 {
	return p.confidenceWeight*in.Confidence +
		p.sentimentWeight*in.SentimentScore +
		p.momentumWeight*in.MomentumScore +
		(10-in.RiskScore)*p.inverseRiskScale
}

// DetermineLevel picks the risk level for the next build from current
// market signals using a signed vote: positive votes favor aggressive,
// negative votes favor conservative.
func DetermineLevel(stats trend.SummaryStats, fg trend.FearGreedStats) Level {
	score := 0

	fearGreed := stats.FearGreedValue
	if fg.Current != nil {
		fearGreed = fg.Current.TodayValue
	}

	// The index runs 1-100; zero means no reading this cycle
	switch {
	case fearGreed > 0 && fearGreed < 25:
		score += 2 // extreme fear, contrarian entry
	case fearGreed > 75:
		score -= 2 // extreme greed, back off
	}

	switch {
	case stats.PositivePct > 65:
		score++
	case stats.PositivePct < 35:
		score--
	}

	switch stats.Condition {
	case trend.ConditionBullish:
		score++
	case trend.ConditionBearish:
		score -= 2
	}

	if float64(stats.RisingCount) > float64(stats.FallingCount)*1.5 {
		score++
	}

	switch {
	case score >= 2:
		return LevelAggressive
	case score <= -2:
		return LevelConservative
	default:
		return LevelModerate
	}
}
