package rebalance

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"helios/internal/domain/market"
	"helios/internal/domain/portfolio"
	"helios/internal/domain/risk"
	"helios/internal/domain/trend"
	"helios/internal/metrics"
	portfoliosvc "helios/internal/services/portfolio"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Wallet is the execution boundary. The controller treats it purely as
// an idempotent diff target; how a swap is physically executed is not
// its concern.
type Wallet interface {
	// Holdings returns token balances by mint, excluding the quote
	// currency used to fund buys
	Holdings(ctx context.Context) (map[string]decimal.Decimal, error)

	// AvailableBalance returns the spendable quote balance
	AvailableBalance(ctx context.Context) (decimal.Decimal, error)

	// Execute performs one trade instruction
	Execute(ctx context.Context, instruction portfolio.TradeInstruction) error
}

// MarketView is the cached market state the controller decides from.
// Satisfied by the analysis service.
type MarketView interface {
	Refresh(ctx context.Context) error
	CandidateAssets() []market.Asset
	SummaryStats() trend.SummaryStats
	FearGreedTrend() trend.FearGreedStats
}

// Builder constructs target portfolios. Satisfied by the portfolio
// service.
type Builder interface {
	BuildEqualAllocationPortfolio(
		ctx context.Context,
		targetCount int,
		profile risk.Profile,
		assets []market.Asset,
		stats trend.SummaryStats,
		fearGreed trend.FearGreedStats,
	) (*portfoliosvc.BuildResult, error)
}

// EventPublisher emits rebalance lifecycle events. Optional.
type EventPublisher interface {
	PublishPortfolioBuilt(ctx context.Context, p *portfolio.Portfolio, a portfolio.Analysis)
	PublishTradeExecuted(ctx context.Context, instruction portfolio.TradeInstruction, err error)
	PublishRebalanceCompleted(ctx context.Context, report *CycleReport)
}

// Notifier delivers a human-readable rebalance report. Optional.
type Notifier interface {
	SendRebalanceReport(ctx context.Context, report *CycleReport) error
}

// Config contains configuration for the rebalancing controller
type Config struct {
	TargetPortfolioSize int

	// Refresh interval per risk level; riskier profiles rebalance more
	// often
	ConservativeInterval time.Duration
	ModerateInterval     time.Duration
	AggressiveInterval   time.Duration

	// A fear/greed day-over-day move beyond this forces a rebalance
	FearGreedChangeThreshold float64
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		TargetPortfolioSize:      5,
		ConservativeInterval:     12 * time.Hour,
		ModerateInterval:         6 * time.Hour,
		AggressiveInterval:       2 * time.Hour,
		FearGreedChangeThreshold: 20,
	}
}

func (c Config) interval(level risk.Level) time.Duration {
	switch level {
	case risk.LevelConservative:
		return c.ConservativeInterval
	case risk.LevelAggressive:
		return c.AggressiveInterval
	default:
		return c.ModerateInterval
	}
}

// CycleReport summarizes one executed rebalance
type CycleReport struct {
	Portfolio    *portfolio.Portfolio `json:"portfolio"`
	Analysis     portfolio.Analysis   `json:"analysis"`
	SellsIssued  int                  `json:"sells_issued"`
	BuysIssued   int                  `json:"buys_issued"`
	FailedTrades int                  `json:"failed_trades"`
	Kept         int                  `json:"kept"`
	SuccessRatio float64              `json:"success_ratio"`
	CompletedAt  time.Time            `json:"completed_at"`
}

// Controller owns the current portfolio and decides when and how to move
// the wallet toward a fresh target. One cycle runs at a time; the mutex
// covers the whole decide-diff-execute sequence.
type Controller struct {
	cfg     Config
	market  MarketView
	builder Builder
	wallet  Wallet
	events  EventPublisher // optional
	notify  Notifier       // optional

	mu         sync.Mutex
	current    *portfolio.Portfolio
	lastUpdate time.Time

	log *logger.Logger
}

// NewController creates a rebalancing controller. events and notify may
// be nil.
func NewController(cfg Config, market MarketView, builder Builder, wallet Wallet, events EventPublisher, notify Notifier) *Controller {
	return &Controller{
		cfg:     cfg,
		market:  market,
		builder: builder,
		wallet:  wallet,
		events:  events,
		notify:  notify,
		log:     logger.Get().With("component", "rebalance_controller"),
	}
}

// Current returns the portfolio recorded by the last completed rebalance
func (c *Controller) Current() *portfolio.Portfolio {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// ShouldRebalance decides from already-cached state whether a cycle is
// due. It never triggers external fetches.
func (c *Controller) ShouldRebalance() bool {
	c.mu.Lock()
	current := c.current
	lastUpdate := c.lastUpdate
	c.mu.Unlock()

	if current == nil {
		return true
	}

	if time.Since(lastUpdate) > c.cfg.interval(current.RiskLevel) {
		return true
	}

	stats := c.market.SummaryStats()
	if stats.Condition == trend.ConditionBearish {
		return true
	}

	fg := c.market.FearGreedTrend()
	if fg.Current != nil && abs(fg.Current.Change) > c.cfg.FearGreedChangeThreshold {
		return true
	}

	return false
}

// RunCycle refreshes market data, evaluates the trigger condition and
// rebalances when due. Invoked by the scheduler; invocations are
// serialized by the worker and by the controller's own mutex.
func (c *Controller) RunCycle(ctx context.Context) error {
	if err := c.market.Refresh(ctx); err != nil {
		// Stale analyzer state is still usable for the trigger check
		c.log.Warnw("Market refresh failed, deciding on cached data", "error", err)
	}

	if !c.ShouldRebalance() {
		c.log.Debug("Rebalance not due")
		return nil
	}

	report, err := c.Rebalance(ctx)
	if err != nil {
		return err
	}
	if report == nil {
		return nil
	}

	if c.notify != nil {
		if err := c.notify.SendRebalanceReport(ctx, report); err != nil {
			c.log.Warnw("Failed to send rebalance report", "error", err)
		}
	}
	return nil
}

// Rebalance builds a new target portfolio, diffs it against the wallet
// and issues sell-then-buy instructions. State is recorded only after
// instructions were issued, so a crash mid-cycle never marks the cycle
// complete. A nil report without error means there was nothing to do.
func (c *Controller) Rebalance(ctx context.Context) (*CycleReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	started := time.Now()

	stats := c.market.SummaryStats()
	fearGreed := c.market.FearGreedTrend()

	assets := c.market.CandidateAssets()
	if len(assets) == 0 {
		// Data insufficiency degrades to a skipped cycle, never an error
		c.log.Warn("No candidate assets available, skipping rebalance")
		return nil, nil
	}

	level := risk.DetermineLevel(stats, fearGreed)
	profile := risk.ProfileFor(level)

	c.log.Infow("Starting rebalance",
		"risk_level", level,
		"market_condition", stats.Condition,
		"candidates", len(assets),
	)

	result, err := c.builder.BuildEqualAllocationPortfolio(
		ctx, c.cfg.TargetPortfolioSize, profile, assets, stats, fearGreed,
	)
	if err != nil {
		return nil, errors.Wrap(err, "build target portfolio")
	}
	target := result.Portfolio

	if c.events != nil {
		c.events.PublishPortfolioBuilt(ctx, target, result.Analysis)
	}

	holdings, err := c.wallet.Holdings(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read wallet holdings")
	}

	diff := ComputeDiff(holdings, target)
	report := &CycleReport{
		Portfolio: target,
		Analysis:  result.Analysis,
		Kept:      len(diff.ToKeep),
	}

	// Sells free the capital the buys are sized from, so ordering is a
	// hard guarantee, not an optimization.
	c.executeSells(ctx, diff, report)
	c.executeBuys(ctx, diff, report)

	c.current = target
	c.lastUpdate = time.Now()

	c.verify(ctx, target, report)
	report.CompletedAt = time.Now()

	metrics.RebalanceCycles.WithLabelValues("completed").Inc()
	metrics.RebalanceDuration.Observe(time.Since(started).Seconds())
	metrics.PortfolioTokens.Set(float64(len(target.Tokens)))

	if c.events != nil {
		c.events.PublishRebalanceCompleted(ctx, report)
	}

	c.log.Infow("Rebalance complete",
		"portfolio_id", target.ID,
		"sells", report.SellsIssued,
		"buys", report.BuysIssued,
		"failed", report.FailedTrades,
		"success_ratio", report.SuccessRatio,
	)

	return report, nil
}

// ComputeDiff reconciles current holdings against a target portfolio.
// Dust balances are treated as held.
func ComputeDiff(holdings map[string]decimal.Decimal, target *portfolio.Portfolio) *portfolio.HoldingDiff {
	diff := &portfolio.HoldingDiff{}

	mints := make([]string, 0, len(holdings))
	for mint := range holdings {
		mints = append(mints, mint)
	}
	sort.Strings(mints)

	for _, mint := range mints {
		balance := holdings[mint]
		if balance.IsZero() {
			continue
		}
		if target.Contains(mint) {
			diff.ToKeep = append(diff.ToKeep, mint)
		} else {
			diff.ToSell = append(diff.ToSell, portfolio.SellTarget{
				Mint:           mint,
				CurrentBalance: balance,
			})
		}
	}

	for _, t := range target.Tokens {
		if balance, held := holdings[t.Mint]; !held || balance.IsZero() {
			diff.ToBuy = append(diff.ToBuy, portfolio.BuyTarget{
				Mint:   t.Mint,
				Symbol: t.Symbol,
			})
		}
	}

	return diff
}

// executeSells liquidates every held-but-undesired position. Failures
// are logged and left for the next cycle's diff to retry.
func (c *Controller) executeSells(ctx context.Context, diff *portfolio.HoldingDiff, report *CycleReport) {
	for _, sell := range diff.ToSell {
		instruction := portfolio.TradeInstruction{
			Side:   portfolio.SideSell,
			Mint:   sell.Mint,
			Amount: sell.CurrentBalance,
			Reason: "no longer in target portfolio",
		}

		err := c.wallet.Execute(ctx, instruction)
		c.recordInstruction(ctx, instruction, err, report)
		if err == nil {
			report.SellsIssued++
		}
	}
}

// executeBuys splits the freed quote balance evenly across every
// desired-but-unheld mint
func (c *Controller) executeBuys(ctx context.Context, diff *portfolio.HoldingDiff, report *CycleReport) {
	if len(diff.ToBuy) == 0 {
		return
	}

	balance, err := c.wallet.AvailableBalance(ctx)
	if err != nil {
		c.log.Errorw("Failed to read available balance, skipping buys", "error", err)
		report.FailedTrades += len(diff.ToBuy)
		return
	}
	if !balance.IsPositive() {
		c.log.Warnw("No available balance to fund buys", "pending_buys", len(diff.ToBuy))
		report.FailedTrades += len(diff.ToBuy)
		return
	}

	// Equal split across buy targets. This coincides with target weights
	// only because the strategy is equal-weight; a weighted strategy
	// would have to size buys from each token's allocation instead.
	perBuy := balance.Div(decimal.NewFromInt(int64(len(diff.ToBuy))))

	for _, buy := range diff.ToBuy {
		instruction := portfolio.TradeInstruction{
			Side:   portfolio.SideBuy,
			Mint:   buy.Mint,
			Symbol: buy.Symbol,
			Amount: perBuy,
			Reason: "entering target portfolio",
		}

		err := c.wallet.Execute(ctx, instruction)
		c.recordInstruction(ctx, instruction, err, report)
		if err == nil {
			report.BuysIssued++
		}
	}
}

func (c *Controller) recordInstruction(ctx context.Context, instruction portfolio.TradeInstruction, err error, report *CycleReport) {
	if c.events != nil {
		c.events.PublishTradeExecuted(ctx, instruction, err)
	}

	if err != nil {
		report.FailedTrades++
		metrics.TradeInstructions.WithLabelValues(string(instruction.Side), "error").Inc()
		c.log.Errorw("Trade instruction failed",
			"side", instruction.Side,
			"mint", instruction.Mint,
			"error", err,
		)
		return
	}

	metrics.TradeInstructions.WithLabelValues(string(instruction.Side), "success").Inc()
	c.log.Infow("Trade instruction executed",
		"side", instruction.Side,
		"mint", instruction.Mint,
		"amount", instruction.Amount,
	)
}

// verify re-reads holdings and reports how much of the target is
// actually held. No rollback: under-target holdings are corrected by
// the next cycle's diff.
func (c *Controller) verify(ctx context.Context, target *portfolio.Portfolio, report *CycleReport) {
	if len(target.Tokens) == 0 {
		report.SuccessRatio = 1
		return
	}

	holdings, err := c.wallet.Holdings(ctx)
	if err != nil {
		c.log.Warnw("Post-rebalance verification failed", "error", err)
		return
	}

	held := 0
	for _, t := range target.Tokens {
		if balance, ok := holdings[t.Mint]; ok && balance.IsPositive() {
			held++
		}
	}
	report.SuccessRatio = float64(held) / float64(len(target.Tokens))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
