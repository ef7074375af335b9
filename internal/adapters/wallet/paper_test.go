package wallet

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"helios/internal/domain/portfolio"
	"helios/pkg/errors"
)

func buy(mint string, amount int64) portfolio.TradeInstruction {
	return portfolio.TradeInstruction{
		Side:   portfolio.SideBuy,
		Mint:   mint,
		Amount: decimal.NewFromInt(amount),
	}
}

func sell(mint string, amount int64) portfolio.TradeInstruction {
	return portfolio.TradeInstruction{
		Side:   portfolio.SideSell,
		Mint:   mint,
		Amount: decimal.NewFromInt(amount),
	}
}

func TestPaperWallet_BuyDebitsQuote(t *testing.T) {
	w := NewPaperWallet(Config{InitialBalance: decimal.NewFromInt(1000)})
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, buy("mint-a", 400)))

	balance, err := w.AvailableBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(600)), "got %s", balance)

	holdings, err := w.Holdings(ctx)
	require.NoError(t, err)
	assert.True(t, holdings["mint-a"].Equal(decimal.NewFromInt(400)))
}

func TestPaperWallet_BuyInsufficientBalance(t *testing.T) {
	w := NewPaperWallet(Config{InitialBalance: decimal.NewFromInt(100)})

	err := w.Execute(context.Background(), buy("mint-a", 150))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)

	// Nothing was applied
	balance, _ := w.AvailableBalance(context.Background())
	assert.True(t, balance.Equal(decimal.NewFromInt(100)))
	holdings, _ := w.Holdings(context.Background())
	assert.Empty(t, holdings)
}

func TestPaperWallet_SellCreditsQuoteAndClearsHolding(t *testing.T) {
	w := NewPaperWallet(Config{InitialBalance: decimal.NewFromInt(500)})
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, buy("mint-a", 200)))
	require.NoError(t, w.Execute(ctx, sell("mint-a", 200)))

	balance, err := w.AvailableBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.NewFromInt(500)))

	holdings, err := w.Holdings(ctx)
	require.NoError(t, err)
	assert.NotContains(t, holdings, "mint-a")
}

func TestPaperWallet_SellUnknownHolding(t *testing.T) {
	w := NewPaperWallet(DefaultConfig())

	err := w.Execute(context.Background(), sell("mint-x", 10))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrHoldingNotFound)
}

func TestPaperWallet_SellClampsToHeldBalance(t *testing.T) {
	w := NewPaperWallet(Config{InitialBalance: decimal.NewFromInt(100)})
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, buy("mint-a", 60)))

	// Asking for more than held liquidates the position, nothing more
	require.NoError(t, w.Execute(ctx, sell("mint-a", 500)))

	balance, _ := w.AvailableBalance(ctx)
	assert.True(t, balance.Equal(decimal.NewFromInt(100)), "got %s", balance)

	holdings, _ := w.Holdings(ctx)
	assert.Empty(t, holdings)
}

func TestPaperWallet_RejectsInvalidInstructions(t *testing.T) {
	w := NewPaperWallet(DefaultConfig())
	ctx := context.Background()

	err := w.Execute(ctx, portfolio.TradeInstruction{
		Side: portfolio.SideBuy, Mint: "mint-a", Amount: decimal.Zero,
	})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)

	err = w.Execute(ctx, portfolio.TradeInstruction{
		Side: "hold", Mint: "mint-a", Amount: decimal.NewFromInt(1),
	})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestPaperWallet_TradeLog(t *testing.T) {
	w := NewPaperWallet(Config{InitialBalance: decimal.NewFromInt(100)})
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, buy("mint-a", 30)))
	require.NoError(t, w.Execute(ctx, sell("mint-a", 30)))

	trades := w.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, portfolio.SideBuy, trades[0].Side)
	assert.Equal(t, portfolio.SideSell, trades[1].Side)
	assert.False(t, trades[0].ExecutedAt.IsZero())

	// Failed instructions are not recorded
	_ = w.Execute(ctx, sell("mint-z", 10))
	assert.Len(t, w.Trades(), 2)
}

func TestPaperWallet_HoldingsReturnsCopy(t *testing.T) {
	w := NewPaperWallet(Config{InitialBalance: decimal.NewFromInt(100)})
	ctx := context.Background()

	require.NoError(t, w.Execute(ctx, buy("mint-a", 50)))

	holdings, _ := w.Holdings(ctx)
	holdings["mint-a"] = decimal.Zero

	fresh, _ := w.Holdings(ctx)
	assert.True(t, fresh["mint-a"].Equal(decimal.NewFromInt(50)))
}
