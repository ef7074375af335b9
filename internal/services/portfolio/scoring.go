package portfolio

import (
	"strings"

	"helios/internal/domain/market"
	"helios/internal/domain/risk"
)

// Score band constants. Sentiment and momentum both start at a neutral 50
// and collect independent adjustments per signal, clamped to [0,100].
const neutralScore = 50.0

// sentimentScore rates crowd behavior around an asset: recent price
// reaction, buy/sell pressure and pool depth
func sentimentScore(a *market.Asset) float64 {
	score := neutralScore

	// Short-window price reaction
	switch change := a.ChangePct(market.Timeframe1h); {
	case change > 10:
		score += 15
	case change > 5:
		score += 10
	case change < -10:
		score -= 15
	case change < -5:
		score -= 10
	}

	// Daily growth
	switch change := a.ChangePct(market.Timeframe24h); {
	case change > 50:
		score += 20
	case change > 30:
		score += 15
	case change < -50:
		score -= 20
	case change < -30:
		score -= 15
	}

	// Buy pressure
	switch ratio := a.BuySellRatio(); {
	case ratio > 0.7:
		score += 15
	case ratio > 0.6:
		score += 10
	case ratio < 0.3:
		score -= 15
	case ratio < 0.4:
		score -= 10
	}

	switch liq := a.Pool.LiquidityUSD; {
	case liq > 1_000_000:
		score += 10
	case liq > 500_000:
		score += 5
	case liq < 100_000:
		score -= 10
	}

	switch vol := a.Pool.VolumeUSD24h; {
	case vol > 5_000_000:
		score += 10
	case vol > 1_000_000:
		score += 5
	}

	return clamp(score)
}

// momentumScore rates price momentum over three horizons; each horizon
// contributes independently in both directions
func momentumScore(a *market.Asset) float64 {
	score := neutralScore

	short := avg(
		a.ChangePct(market.Timeframe5m),
		a.ChangePct(market.Timeframe15m),
		a.ChangePct(market.Timeframe1h),
	)
	medium := avg(
		a.ChangePct(market.Timeframe2h),
		a.ChangePct(market.Timeframe4h),
		a.ChangePct(market.Timeframe6h),
	)
	long := avg(
		a.ChangePct(market.Timeframe12h),
		a.ChangePct(market.Timeframe24h),
	)

	switch {
	case short > 5:
		score += 20
	case short > 2:
		score += 10
	case short < -5:
		score -= 20
	case short < -2:
		score -= 10
	}

	switch {
	case medium > 10:
		score += 15
	case medium > 5:
		score += 8
	case medium < -10:
		score -= 15
	case medium < -5:
		score -= 8
	}

	switch {
	case long > 20:
		score += 15
	case long > 10:
		score += 7
	case long < -20:
		score -= 15
	case long < -10:
		score -= 7
	}

	return clamp(score)
}

// confidenceScore seeds from the opportunity assessment, then applies
// risk, liquidity, LP-burn and authority adjustments plus the profile's
// modifier. Flagged assets are forced to zero.
func confidenceScore(a *market.Asset, opp market.OpportunityAssessment, profile risk.Profile) float64 {
	if a.Risk.Flagged {
		return 0
	}

	score := opp.Score

	switch rs := a.Risk.Score; {
	case rs < 2:
		score += 10
	case rs < 4:
		score += 5
	case rs > 7:
		score -= 15
	case rs > 5:
		score -= 10
	}

	switch liq := a.Pool.LiquidityUSD; {
	case liq > 1_000_000:
		score += 10
	case liq > 500_000:
		score += 5
	case liq < 100_000:
		score -= 10
	}

	switch burn := a.Pool.LPBurnPct; {
	case burn >= 100:
		score += 10
	case burn < 50:
		score -= 10
	}

	if a.MintAuthorityRenounced && a.FreezeAuthorityRenounced {
		score += 10
	}

	score += profile.ConfidenceModifier(a.Risk.Score)

	return clamp(score)
}

// buildReasoning assembles a short human-readable rationale from the
// signal bands that fired, capped at four clauses
func buildReasoning(a *market.Asset, opp market.OpportunityAssessment) string {
	const maxClauses = 4
	clauses := make([]string, 0, maxClauses)

	short := avg(
		a.ChangePct(market.Timeframe5m),
		a.ChangePct(market.Timeframe15m),
		a.ChangePct(market.Timeframe1h),
	)
	if short > 5 {
		clauses = append(clauses, "strong short-term momentum")
	}
	if a.ChangePct(market.Timeframe24h) > 30 {
		clauses = append(clauses, "sustained 24h growth")
	}
	if a.Risk.Score < 3 {
		clauses = append(clauses, "low risk score")
	}
	if a.BuySellRatio() > 0.65 {
		clauses = append(clauses, "heavy buy pressure")
	}
	if a.Pool.LiquidityUSD > 1_000_000 {
		clauses = append(clauses, "deep liquidity")
	}
	if a.Pool.LPBurnPct >= 100 {
		clauses = append(clauses, "LP fully burned")
	}

	for i := 0; i < len(opp.Signals) && i < 2; i++ {
		clauses = append(clauses, opp.Signals[i])
	}

	if len(clauses) > maxClauses {
		clauses = clauses[:maxClauses]
	}
	if len(clauses) == 0 {
		return "meets minimum screening criteria"
	}
	return strings.Join(clauses, "; ")
}

func clamp(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

func avg(values ...float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
