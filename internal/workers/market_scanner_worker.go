package workers

import (
	"context"
	"time"

	"helios/internal/services/analysis"
)

// MarketScannerWorker periodically refreshes the market analysis
// service's collaborator data so trend histories keep accumulating even
// between rebalance cycles
type MarketScannerWorker struct {
	*BaseWorker
	analysis *analysis.Service
}

// NewMarketScannerWorker creates a market scanner worker
func NewMarketScannerWorker(analysisService *analysis.Service, interval time.Duration) *MarketScannerWorker {
	return &MarketScannerWorker{
		BaseWorker: NewBaseWorker("market_scanner", interval, true),
		analysis:   analysisService,
	}
}

// Run refreshes all market collaborators once
func (w *MarketScannerWorker) Run(ctx context.Context) error {
	start := time.Now()

	err := w.analysis.Refresh(ctx)
	if err != nil {
		w.RecordError(err, time.Since(start))
		return err
	}

	stats := w.analysis.SummaryStats()
	w.Log().Infow("Market scan completed",
		"condition", stats.Condition,
		"rising", stats.RisingCount,
		"falling", stats.FallingCount,
	)

	w.RecordRun(time.Since(start))
	return nil
}
