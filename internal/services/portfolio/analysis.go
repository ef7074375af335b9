package portfolio

import (
	"math"

	"helios/internal/domain/portfolio"
	"helios/internal/domain/risk"
	"helios/internal/domain/trend"
)

// Analyze derives the quality report for a built portfolio. It is a pure
// function of the portfolio and the market context it was built under, so
// repeated calls yield identical results.
func (s *Service) Analyze(
	p *portfolio.Portfolio,
	profile risk.Profile,
	stats trend.SummaryStats,
	fearGreed trend.FearGreedStats,
) portfolio.Analysis {
	a := portfolio.Analysis{RecommendedAction: portfolio.ActionWait}

	n := len(p.Tokens)
	if n > 0 {
		var riskSum, momentumSum, sentimentSum float64
		for _, t := range p.Tokens {
			riskSum += t.RiskScore
			momentumSum += t.MomentumScore
			sentimentSum += t.SentimentScore
		}
		a.AverageRiskScore = riskSum / float64(n)
		a.AverageMomentumScore = momentumSum / float64(n)
		a.AverageSentimentScore = sentimentSum / float64(n)
		a.DiversificationScore = diversificationScore(p.Tokens)
	}

	a.MarketAlignmentScore = s.marketAlignmentScore(profile, stats, fearGreed)

	switch {
	case a.MarketAlignmentScore > 70 && a.AverageRiskScore < 5:
		a.RecommendedAction = portfolio.ActionBuild
	case stats.Condition == trend.ConditionBearish || a.AverageRiskScore > 7:
		a.RecommendedAction = portfolio.ActionWait
	default:
		a.RecommendedAction = portfolio.ActionAdjust
	}

	a.Warnings, a.Strengths = s.assess(p, a, stats, fearGreed)
	return a
}

// marketAlignmentScore rates how well building right now agrees with the
// broader market mood
func (s *Service) marketAlignmentScore(profile risk.Profile, stats trend.SummaryStats, fearGreed trend.FearGreedStats) float64 {
	score := 50.0

	switch stats.Condition {
	case trend.ConditionBullish:
		score += 20
	case trend.ConditionBearish:
		score -= 20
	}

	if fearGreed.Current != nil {
		score += profile.FearGreedAlignmentBonus(fearGreed.Current.TodayValue)
	}

	switch {
	case stats.PositivePct > 60:
		score += 10
	case stats.PositivePct < 40 && stats.PositivePct > 0:
		score -= 10
	}

	return clamp(score)
}

// diversificationScore averages symbol-prefix uniqueness with how evenly
// allocations are spread
func diversificationScore(tokens []portfolio.Token) float64 {
	n := len(tokens)
	if n == 0 {
		return 0
	}

	prefixes := make(map[string]bool, n)
	for _, t := range tokens {
		prefixes[prefixGroup(t.Symbol)] = true
	}
	uniqueness := float64(len(prefixes)) / float64(n) * 100

	equal := 100.0 / float64(n)
	var deviation float64
	for _, t := range tokens {
		deviation += math.Abs(t.AllocationPct - equal)
	}
	deviation /= float64(n)
	balance := clamp(100 - 10*deviation)

	return (uniqueness + balance) / 2
}

// assess runs the independent threshold checks that produce warnings and
// strengths
func (s *Service) assess(p *portfolio.Portfolio, a portfolio.Analysis, stats trend.SummaryStats, fearGreed trend.FearGreedStats) (warnings, strengths []string) {
	n := len(p.Tokens)

	var confidenceSum float64
	for _, t := range p.Tokens {
		confidenceSum += t.Confidence
	}
	avgConfidence := 0.0
	if n > 0 {
		avgConfidence = confidenceSum / float64(n)
	}

	if n == 0 {
		warnings = append(warnings, "no candidates survived filtering")
	}
	if a.AverageRiskScore > 6 {
		warnings = append(warnings, "high average risk score")
	}
	if n > 0 && avgConfidence < 50 {
		warnings = append(warnings, "low average confidence")
	}
	if n > 1 && a.DiversificationScore < 50 {
		warnings = append(warnings, "concentrated in similar symbols")
	}
	if stats.Condition == trend.ConditionBearish {
		warnings = append(warnings, "bearish market conditions")
	}
	if fearGreed.Current != nil {
		if v := fearGreed.Current.TodayValue; v < 25 || v > 75 {
			warnings = append(warnings, "extreme fear/greed reading")
		}
	}

	if avgConfidence > 70 {
		strengths = append(strengths, "high average confidence")
	}
	if n > 0 && a.AverageRiskScore < 3 {
		strengths = append(strengths, "low overall risk")
	}
	if a.DiversificationScore > 80 {
		strengths = append(strengths, "well diversified selection")
	}
	if a.AverageMomentumScore > 65 {
		strengths = append(strengths, "strong momentum across tokens")
	}
	if a.MarketAlignmentScore > 70 {
		strengths = append(strengths, "aligned with market conditions")
	}

	return warnings, strengths
}
