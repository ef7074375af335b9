package market

import (
	"strings"
	"time"

	"helios/pkg/errors"
)

// Timeframe identifies a price-change observation window
type Timeframe string

const (
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe2h  Timeframe = "2h"
	Timeframe4h  Timeframe = "4h"
	Timeframe6h  Timeframe = "6h"
	Timeframe12h Timeframe = "12h"
	Timeframe24h Timeframe = "24h"
)

// Pool describes the primary liquidity pool of an asset
type Pool struct {
	Address      string  `json:"address"`
	LiquidityUSD float64 `json:"liquidity_usd"`
	VolumeUSD24h float64 `json:"volume_usd_24h"`
	LPBurnPct    float64 `json:"lp_burn_pct"` // 0-100, share of LP tokens burned
}

// RiskAssessment is the upstream screener's verdict on an asset
type RiskAssessment struct {
	Flagged bool    `json:"flagged"` // known rug / honeypot / compromised
	Score   float64 `json:"score"`   // 0 (safe) - 10 (avoid)
}

// Asset is a read-only snapshot of one tradable token for a single cycle
type Asset struct {
	Mint   string `json:"mint"`
	Symbol string `json:"symbol"`
	Name   string `json:"name"`

	// Percent price change per timeframe, e.g. PriceChange["1h"] = -3.2
	PriceChange map[Timeframe]float64 `json:"price_change"`

	BuyCount  int `json:"buy_count"`
	SellCount int `json:"sell_count"`

	Pool Pool           `json:"pool"`
	Risk RiskAssessment `json:"risk"`

	// Token authority flags; true means the authority has been renounced
	MintAuthorityRenounced   bool `json:"mint_authority_renounced"`
	FreezeAuthorityRenounced bool `json:"freeze_authority_renounced"`

	FetchedAt time.Time `json:"fetched_at"`
}

// Validate rejects assets with unusable identifiers. Solana mints are
// base58 strings of 32-44 characters.
func (a *Asset) Validate() error {
	if a.Mint == "" || len(a.Mint) < 32 || len(a.Mint) > 44 {
		return errors.Wrapf(errors.ErrInvalidAsset, "mint %q", a.Mint)
	}
	if strings.TrimSpace(a.Symbol) == "" {
		return errors.Wrapf(errors.ErrInvalidAsset, "empty symbol for mint %s", a.Mint)
	}
	return nil
}

// BuySellRatio returns buys/(buys+sells), or 0.5 when there is no activity
func (a *Asset) BuySellRatio() float64 {
	total := a.BuyCount + a.SellCount
	if total == 0 {
		return 0.5
	}
	return float64(a.BuyCount) / float64(total)
}

// ChangePct returns the price change for a timeframe, 0 when absent
func (a *Asset) ChangePct(tf Timeframe) float64 {
	if a.PriceChange == nil {
		return 0
	}
	return a.PriceChange[tf]
}

// Recommendation is the opportunity screener's verdict
type Recommendation string

const (
	RecommendBuy   Recommendation = "buy"
	RecommendWatch Recommendation = "watch"
	RecommendAvoid Recommendation = "avoid"
)

// OpportunityAssessment is the deterministic pre-score for one asset,
// used as the confidence seed during portfolio scoring
type OpportunityAssessment struct {
	Score          float64        `json:"score"` // 0-100
	Signals        []string       `json:"signals"`
	Risks          []string       `json:"risks"`
	Recommendation Recommendation `json:"recommendation"`
}
