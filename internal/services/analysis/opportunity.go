package analysis

import (
	"helios/internal/domain/market"
)

// AssessOpportunity produces the deterministic 0-100 opportunity score
// used as the confidence seed during portfolio scoring, together with
// the signals and risks that drove it.
func (s *Service) AssessOpportunity(asset market.Asset) market.OpportunityAssessment {
	score := 50.0
	var signals, risks []string

	short := (asset.ChangePct(market.Timeframe5m) +
		asset.ChangePct(market.Timeframe15m) +
		asset.ChangePct(market.Timeframe1h)) / 3
	if short > 5 {
		score += 10
		signals = append(signals, "accelerating price action")
	}

	if asset.ChangePct(market.Timeframe24h) > 30 {
		score += 10
		signals = append(signals, "strong daily uptrend")
	}

	if asset.BuySellRatio() > 0.65 {
		score += 10
		signals = append(signals, "sustained buy pressure")
	}

	if asset.Pool.LiquidityUSD > 500_000 {
		score += 10
		signals = append(signals, "healthy pool depth")
	}

	if asset.Pool.LiquidityUSD > 0 && asset.Pool.VolumeUSD24h/asset.Pool.LiquidityUSD > 2 {
		score += 5
		signals = append(signals, "high turnover relative to liquidity")
	}

	if asset.Risk.Score > 6 {
		score -= 15
		risks = append(risks, "elevated screener risk score")
	}

	if asset.Pool.LPBurnPct < 50 {
		score -= 10
		risks = append(risks, "majority of LP tokens unburned")
	}

	if !asset.MintAuthorityRenounced || !asset.FreezeAuthorityRenounced {
		score -= 10
		risks = append(risks, "token authorities retained")
	}

	if asset.Risk.Flagged {
		score = 0
		risks = append(risks, "flagged as compromised")
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	recommendation := market.RecommendAvoid
	switch {
	case score >= 70:
		recommendation = market.RecommendBuy
	case score >= 45:
		recommendation = market.RecommendWatch
	}

	return market.OpportunityAssessment{
		Score:          score,
		Signals:        signals,
		Risks:          risks,
		Recommendation: recommendation,
	}
}
