package portfolio

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"helios/internal/domain/risk"
)

// Strategy defines how allocations are assigned across selected tokens
type Strategy string

const (
	// StrategyEqualWeight gives every selected token an identical allocation
	StrategyEqualWeight Strategy = "equal_weight"
)

// String returns string representation
func (s Strategy) String() string {
	return string(s)
}

// Token is one selected asset inside a portfolio
type Token struct {
	Symbol         string  `json:"symbol"`
	Mint           string  `json:"mint"`
	Name           string  `json:"name"`
	AllocationPct  float64 `json:"allocation_pct"`
	SentimentScore float64 `json:"sentiment_score"`
	RiskScore      float64 `json:"risk_score"`
	MomentumScore  float64 `json:"momentum_score"`
	Confidence     float64 `json:"confidence"`
	Reasoning      string  `json:"reasoning"`
}

// Provenance records the market context a portfolio was built from
type Provenance struct {
	FearGreedValue      float64  `json:"fear_greed_value"`
	MarketSentiment     string   `json:"market_sentiment"`
	TotalAssetsAnalyzed int      `json:"total_assets_analyzed"`
	TopTrendingTopics   []string `json:"top_trending_topics"`
}

// Portfolio is an immutable target allocation produced by one rebalance
// decision. A new build supersedes it; it is never mutated in place.
type Portfolio struct {
	ID         uuid.UUID  `json:"id"`
	CreatedAt  time.Time  `json:"created_at"`
	Strategy   Strategy   `json:"strategy"`
	RiskLevel  risk.Level `json:"risk_level"`
	Tokens     []Token    `json:"tokens"`
	Provenance Provenance `json:"provenance"`
}

// Contains reports whether the portfolio targets a mint
func (p *Portfolio) Contains(mint string) bool {
	for _, t := range p.Tokens {
		if t.Mint == mint {
			return true
		}
	}
	return false
}

// Action is the analysis verdict on a freshly built portfolio
type Action string

const (
	ActionBuild  Action = "build"
	ActionWait   Action = "wait"
	ActionAdjust Action = "adjust"
)

// String returns string representation
func (a Action) String() string {
	return string(a)
}

// Analysis is the derived quality report for a portfolio. Recomputing it
// for the same portfolio and market context yields identical values.
type Analysis struct {
	AverageRiskScore      float64  `json:"average_risk_score"`
	AverageMomentumScore  float64  `json:"average_momentum_score"`
	AverageSentimentScore float64  `json:"average_sentiment_score"`
	DiversificationScore  float64  `json:"diversification_score"`
	MarketAlignmentScore  float64  `json:"market_alignment_score"`
	RecommendedAction     Action   `json:"recommended_action"`
	Warnings              []string `json:"warnings"`
	Strengths             []string `json:"strengths"`
}

// SellTarget is a held position the target portfolio no longer wants
type SellTarget struct {
	Mint           string
	CurrentBalance decimal.Decimal
}

// BuyTarget is a desired position the wallet does not hold yet
type BuyTarget struct {
	Mint   string
	Symbol string
}

// HoldingDiff is the ephemeral reconciliation between current holdings
// and a target portfolio; it is computed, executed and discarded
type HoldingDiff struct {
	ToSell []SellTarget
	ToBuy  []BuyTarget
	ToKeep []string // mints held and still desired
}

// Empty reports whether the diff requires no instructions
func (d *HoldingDiff) Empty() bool {
	return len(d.ToSell) == 0 && len(d.ToBuy) == 0
}

// Side is the direction of a trade instruction
type Side string

const (
	SideBuy  Side = "buy"
	SideSell Side = "sell"
)

// TradeInstruction is one ordered command for the execution boundary.
// Sells carry the token balance to liquidate; buys carry the quote
// amount to spend.
type TradeInstruction struct {
	Side   Side            `json:"side"`
	Mint   string          `json:"mint"`
	Symbol string          `json:"symbol"`
	Amount decimal.Decimal `json:"amount"`
	Reason string          `json:"reason"`
}
