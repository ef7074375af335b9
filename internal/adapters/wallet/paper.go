package wallet

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"helios/internal/domain/portfolio"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Config contains configuration for the paper wallet
type Config struct {
	InitialBalance decimal.Decimal
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		InitialBalance: decimal.NewFromInt(10_000),
	}
}

// PaperWallet simulates execution against an in-memory balance sheet.
// Buys debit the quote balance one-for-one; token amounts are tracked in
// quote-currency terms, which is sufficient for diffing and verification.
type PaperWallet struct {
	mu       sync.Mutex
	quote    decimal.Decimal
	holdings map[string]decimal.Decimal
	trades   []Trade

	log *logger.Logger
}

// Trade is one executed paper trade
type Trade struct {
	Side       portfolio.Side  `json:"side"`
	Mint       string          `json:"mint"`
	Symbol     string          `json:"symbol"`
	Amount     decimal.Decimal `json:"amount"`
	Reason     string          `json:"reason"`
	ExecutedAt time.Time       `json:"executed_at"`
}

// NewPaperWallet creates a paper wallet with the configured balance
func NewPaperWallet(cfg Config) *PaperWallet {
	return &PaperWallet{
		quote:    cfg.InitialBalance,
		holdings: make(map[string]decimal.Decimal),
		log:      logger.Get().With("component", "paper_wallet"),
	}
}

// Holdings returns token balances by mint
func (w *PaperWallet) Holdings(ctx context.Context) (map[string]decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make(map[string]decimal.Decimal, len(w.holdings))
	for mint, balance := range w.holdings {
		out[mint] = balance
	}
	return out, nil
}

// AvailableBalance returns the spendable quote balance
func (w *PaperWallet) AvailableBalance(ctx context.Context) (decimal.Decimal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.quote, nil
}

// Execute applies one trade instruction to the balance sheet
func (w *PaperWallet) Execute(ctx context.Context, instruction portfolio.TradeInstruction) error {
	if !instruction.Amount.IsPositive() {
		return errors.Wrapf(errors.ErrInvalidInput, "non-positive amount %s", instruction.Amount)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	switch instruction.Side {
	case portfolio.SideBuy:
		if instruction.Amount.GreaterThan(w.quote) {
			return errors.Wrapf(errors.ErrInsufficientBalance,
				"buy %s needs %s, have %s", instruction.Mint, instruction.Amount, w.quote)
		}
		w.quote = w.quote.Sub(instruction.Amount)
		w.holdings[instruction.Mint] = w.holdings[instruction.Mint].Add(instruction.Amount)

	case portfolio.SideSell:
		held, ok := w.holdings[instruction.Mint]
		if !ok || held.IsZero() {
			return errors.Wrapf(errors.ErrHoldingNotFound, "mint %s", instruction.Mint)
		}
		amount := instruction.Amount
		if amount.GreaterThan(held) {
			amount = held
		}
		w.holdings[instruction.Mint] = held.Sub(amount)
		if w.holdings[instruction.Mint].IsZero() {
			delete(w.holdings, instruction.Mint)
		}
		w.quote = w.quote.Add(amount)

	default:
		return errors.Wrapf(errors.ErrInvalidInput, "unknown side %q", instruction.Side)
	}

	w.trades = append(w.trades, Trade{
		Side:       instruction.Side,
		Mint:       instruction.Mint,
		Symbol:     instruction.Symbol,
		Amount:     instruction.Amount,
		Reason:     instruction.Reason,
		ExecutedAt: time.Now(),
	})

	w.log.Debugw("Executed paper trade",
		"side", instruction.Side,
		"mint", instruction.Mint,
		"amount", instruction.Amount,
		"quote_balance", w.quote,
	)
	return nil
}

// Trades returns a copy of the executed trade log
func (w *PaperWallet) Trades() []Trade {
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]Trade, len(w.trades))
	copy(out, w.trades)
	return out
}
