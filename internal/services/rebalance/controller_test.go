package rebalance

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/market"
	"helios/internal/domain/portfolio"
	"helios/internal/domain/risk"
	"helios/internal/domain/trend"
	portfoliosvc "helios/internal/services/portfolio"
)

func mint(c byte) string {
	return strings.Repeat(string(c), 40)
}

// fakeMarket serves canned data without any fetching
type fakeMarket struct {
	assets     []market.Asset
	stats      trend.SummaryStats
	fearGreed  trend.FearGreedStats
	refreshErr error
}

func (m *fakeMarket) Refresh(ctx context.Context) error    { return m.refreshErr }
func (m *fakeMarket) CandidateAssets() []market.Asset      { return m.assets }
func (m *fakeMarket) SummaryStats() trend.SummaryStats     { return m.stats }
func (m *fakeMarket) FearGreedTrend() trend.FearGreedStats { return m.fearGreed }

// fakeBuilder returns a fixed target portfolio
type fakeBuilder struct {
	tokens []portfolio.Token
	calls  int
}

func (b *fakeBuilder) BuildEqualAllocationPortfolio(
	ctx context.Context,
	targetCount int,
	profile risk.Profile,
	assets []market.Asset,
	stats trend.SummaryStats,
	fearGreed trend.FearGreedStats,
) (*portfoliosvc.BuildResult, error) {
	b.calls++
	return &portfoliosvc.BuildResult{
		Portfolio: &portfolio.Portfolio{
			ID:        uuid.New(),
			CreatedAt: time.Now(),
			Strategy:  portfolio.StrategyEqualWeight,
			RiskLevel: profile.Level(),
			Tokens:    b.tokens,
		},
	}, nil
}

// fakeWallet applies instructions to in-memory balances and records the
// order they arrive in
type fakeWallet struct {
	quote    decimal.Decimal
	holdings map[string]decimal.Decimal
	executed []portfolio.TradeInstruction
}

func newFakeWallet(quote int64, holdings map[string]decimal.Decimal) *fakeWallet {
	if holdings == nil {
		holdings = make(map[string]decimal.Decimal)
	}
	return &fakeWallet{quote: decimal.NewFromInt(quote), holdings: holdings}
}

func (w *fakeWallet) Holdings(ctx context.Context) (map[string]decimal.Decimal, error) {
	out := make(map[string]decimal.Decimal, len(w.holdings))
	for k, v := range w.holdings {
		out[k] = v
	}
	return out, nil
}

func (w *fakeWallet) AvailableBalance(ctx context.Context) (decimal.Decimal, error) {
	return w.quote, nil
}

func (w *fakeWallet) Execute(ctx context.Context, instruction portfolio.TradeInstruction) error {
	w.executed = append(w.executed, instruction)
	switch instruction.Side {
	case portfolio.SideSell:
		w.quote = w.quote.Add(instruction.Amount)
		delete(w.holdings, instruction.Mint)
	case portfolio.SideBuy:
		w.quote = w.quote.Sub(instruction.Amount)
		w.holdings[instruction.Mint] = instruction.Amount
	}
	return nil
}

func token(symbol string, m string) portfolio.Token {
	return portfolio.Token{Symbol: symbol, Mint: m, AllocationPct: 50}
}

func newTestController(cfg Config, m MarketView, b Builder, w Wallet) *Controller {
	return NewController(cfg, m, b, w, nil, nil)
}

func TestRebalance_SellsBeforeBuys(t *testing.T) {
	mkt := &fakeMarket{
		assets: []market.Asset{{Mint: mint('X'), Symbol: "XXX"}},
		stats:  trend.SummaryStats{Condition: trend.ConditionNeutral, PositivePct: 50},
	}
	builder := &fakeBuilder{tokens: []portfolio.Token{
		token("NEW1", mint('A')),
		token("NEW2", mint('B')),
	}}
	wallet := newFakeWallet(0, map[string]decimal.Decimal{
		mint('O'): decimal.NewFromInt(100),
	})

	c := newTestController(DefaultConfig(), mkt, builder, wallet)

	report, err := c.Rebalance(context.Background())
	require.NoError(t, err)
	require.NotNil(t, report)

	require.Len(t, wallet.executed, 3)
	assert.Equal(t, portfolio.SideSell, wallet.executed[0].Side)
	assert.Equal(t, mint('O'), wallet.executed[0].Mint)
	assert.Equal(t, portfolio.SideBuy, wallet.executed[1].Side)
	assert.Equal(t, portfolio.SideBuy, wallet.executed[2].Side)

	// Buys split the proceeds of the sell equally
	assert.True(t, wallet.executed[1].Amount.Equal(decimal.NewFromInt(50)),
		"got %s", wallet.executed[1].Amount)
	assert.True(t, wallet.executed[2].Amount.Equal(decimal.NewFromInt(50)))

	assert.Equal(t, 1, report.SellsIssued)
	assert.Equal(t, 2, report.BuysIssued)
	assert.Equal(t, 0, report.FailedTrades)
	assert.InDelta(t, 1.0, report.SuccessRatio, 1e-9)

	// State reflects the new target
	current := c.Current()
	require.NotNil(t, current)
	assert.True(t, current.Contains(mint('A')))
	assert.True(t, current.Contains(mint('B')))
}

func TestRebalance_KeepsOverlappingHoldings(t *testing.T) {
	mkt := &fakeMarket{
		assets: []market.Asset{{Mint: mint('X'), Symbol: "XXX"}},
		stats:  trend.SummaryStats{Condition: trend.ConditionNeutral, PositivePct: 50},
	}
	builder := &fakeBuilder{tokens: []portfolio.Token{
		token("KEEP", mint('A')),
		token("NEW", mint('B')),
	}}
	wallet := newFakeWallet(40, map[string]decimal.Decimal{
		mint('A'): decimal.NewFromInt(50),
	})

	c := newTestController(DefaultConfig(), mkt, builder, wallet)

	report, err := c.Rebalance(context.Background())
	require.NoError(t, err)

	// Nothing to sell, one buy funded from the existing quote balance
	require.Len(t, wallet.executed, 1)
	assert.Equal(t, portfolio.SideBuy, wallet.executed[0].Side)
	assert.Equal(t, mint('B'), wallet.executed[0].Mint)
	assert.True(t, wallet.executed[0].Amount.Equal(decimal.NewFromInt(40)))

	assert.Equal(t, 1, report.Kept)
	assert.Equal(t, 0, report.SellsIssued)
}

func TestRebalance_NoCandidatesSkipsQuietly(t *testing.T) {
	mkt := &fakeMarket{stats: trend.SummaryStats{Condition: trend.ConditionNeutral}}
	builder := &fakeBuilder{}
	wallet := newFakeWallet(100, nil)

	c := newTestController(DefaultConfig(), mkt, builder, wallet)

	report, err := c.Rebalance(context.Background())
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Zero(t, builder.calls)
	assert.Nil(t, c.Current())
}

func TestShouldRebalance_Lifecycle(t *testing.T) {
	mkt := &fakeMarket{
		assets: []market.Asset{{Mint: mint('X'), Symbol: "XXX"}},
		stats:  trend.SummaryStats{Condition: trend.ConditionNeutral, PositivePct: 50},
	}
	builder := &fakeBuilder{tokens: []portfolio.Token{token("NEW", mint('A')), token("TWO", mint('B'))}}
	wallet := newFakeWallet(100, nil)

	c := newTestController(DefaultConfig(), mkt, builder, wallet)

	// No portfolio yet
	assert.True(t, c.ShouldRebalance())

	_, err := c.Rebalance(context.Background())
	require.NoError(t, err)

	// Fresh portfolio, calm market
	assert.False(t, c.ShouldRebalance())

	// Bearish market forces a rebalance regardless of age
	mkt.stats.Condition = trend.ConditionBearish
	assert.True(t, c.ShouldRebalance())
	mkt.stats.Condition = trend.ConditionNeutral

	// A large fear/greed swing does too
	mkt.fearGreed = trend.FearGreedStats{
		Current: &trend.FearGreedSnapshot{TodayValue: 30, Change: -25},
	}
	assert.True(t, c.ShouldRebalance())

	mkt.fearGreed = trend.FearGreedStats{
		Current: &trend.FearGreedSnapshot{TodayValue: 50, Change: 5},
	}
	assert.False(t, c.ShouldRebalance())
}

func TestShouldRebalance_IntervalElapsed(t *testing.T) {
	mkt := &fakeMarket{
		assets: []market.Asset{{Mint: mint('X'), Symbol: "XXX"}},
		stats:  trend.SummaryStats{Condition: trend.ConditionNeutral, PositivePct: 50},
	}
	builder := &fakeBuilder{tokens: []portfolio.Token{token("NEW", mint('A'))}}
	wallet := newFakeWallet(100, nil)

	cfg := DefaultConfig()
	cfg.ModerateInterval = time.Nanosecond

	c := newTestController(cfg, mkt, builder, wallet)

	_, err := c.Rebalance(context.Background())
	require.NoError(t, err)

	time.Sleep(time.Millisecond)
	assert.True(t, c.ShouldRebalance())
}

func TestRunCycle_SkipsWhenNotDue(t *testing.T) {
	mkt := &fakeMarket{
		assets: []market.Asset{{Mint: mint('X'), Symbol: "XXX"}},
		stats:  trend.SummaryStats{Condition: trend.ConditionNeutral, PositivePct: 50},
	}
	builder := &fakeBuilder{tokens: []portfolio.Token{token("NEW", mint('A'))}}
	wallet := newFakeWallet(100, nil)

	c := newTestController(DefaultConfig(), mkt, builder, wallet)

	require.NoError(t, c.RunCycle(context.Background()))
	assert.Equal(t, 1, builder.calls)

	// Second cycle: portfolio is fresh, nothing to do
	require.NoError(t, c.RunCycle(context.Background()))
	assert.Equal(t, 1, builder.calls)
}

func TestComputeDiff(t *testing.T) {
	target := &portfolio.Portfolio{Tokens: []portfolio.Token{
		token("KEEP", mint('A')),
		token("WANT", mint('B')),
	}}

	holdings := map[string]decimal.Decimal{
		mint('A'): decimal.NewFromInt(10), // held and wanted
		mint('C'): decimal.NewFromInt(5),  // held, unwanted
		mint('D'): decimal.Zero,           // dust, ignored
	}

	diff := ComputeDiff(holdings, target)

	assert.Equal(t, []string{mint('A')}, diff.ToKeep)

	require.Len(t, diff.ToSell, 1)
	assert.Equal(t, mint('C'), diff.ToSell[0].Mint)
	assert.True(t, diff.ToSell[0].CurrentBalance.Equal(decimal.NewFromInt(5)))

	require.Len(t, diff.ToBuy, 1)
	assert.Equal(t, mint('B'), diff.ToBuy[0].Mint)
	assert.Equal(t, "WANT", diff.ToBuy[0].Symbol)

	assert.False(t, diff.Empty())
	assert.True(t, (&portfolio.HoldingDiff{}).Empty())
}
