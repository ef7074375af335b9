package dexscreener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"helios/internal/domain/market"
	"helios/internal/metrics"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Config contains configuration for the DexScreener client
type Config struct {
	BaseURL            string
	Timeout            time.Duration
	RateLimitPerSecond float64
	SearchQuery        string
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:            "https://api.dexscreener.com",
		Timeout:            15 * time.Second,
		RateLimitPerSecond: 5,
		SearchQuery:        "SOL",
	}
}

// Client fetches candidate assets from the DexScreener public API
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	log     *logger.Logger
}

// NewClient creates a new DexScreener client
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimitPerSecond), 1),
		log:     logger.Get().With("component", "dexscreener"),
	}
}

// pairResponse mirrors the subset of the DexScreener pair payload we use
type pairResponse struct {
	Pairs []pair `json:"pairs"`
}

type pair struct {
	PairAddress string `json:"pairAddress"`
	BaseToken   struct {
		Address string `json:"address"`
		Name    string `json:"name"`
		Symbol  string `json:"symbol"`
	} `json:"baseToken"`
	PriceUSD    string `json:"priceUsd"`
	PriceChange struct {
		M5  float64 `json:"m5"`
		H1  float64 `json:"h1"`
		H6  float64 `json:"h6"`
		H24 float64 `json:"h24"`
	} `json:"priceChange"`
	Txns struct {
		H24 struct {
			Buys  int `json:"buys"`
			Sells int `json:"sells"`
		} `json:"h24"`
	} `json:"txns"`
	Liquidity struct {
		USD float64 `json:"usd"`
	} `json:"liquidity"`
	Volume struct {
		H24 float64 `json:"h24"`
	} `json:"volume"`
	FDV           float64 `json:"fdv"`
	PairCreatedAt int64   `json:"pairCreatedAt"`
}

// FetchCandidateAssets returns the current screener universe mapped into
// domain assets. Implements the analysis service's DataProvider.
func (c *Client) FetchCandidateAssets(ctx context.Context) ([]market.Asset, error) {
	started := time.Now()

	var resp pairResponse
	url := fmt.Sprintf("%s/latest/dex/search?q=%s", c.cfg.BaseURL, c.cfg.SearchQuery)
	err := c.getJSON(ctx, url, &resp)
	metrics.RecordCollaboratorFetch("market_data", time.Since(started), err)
	if err != nil {
		return nil, errors.Wrap(err, "fetch dexscreener pairs")
	}

	assets := make([]market.Asset, 0, len(resp.Pairs))
	for _, p := range resp.Pairs {
		asset := toAsset(p)
		if err := asset.Validate(); err != nil {
			c.log.Debugw("Skipping invalid pair", "pair", p.PairAddress, "error", err)
			continue
		}
		assets = append(assets, asset)
	}

	c.log.Infow("Fetched candidate assets", "pairs", len(resp.Pairs), "valid", len(assets))
	return assets, nil
}

func (c *Client) getJSON(ctx context.Context, url string, dest interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errors.Wrap(errors.ErrRateLimitExceeded, err.Error())
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return errors.Wrapf(errors.ErrRateLimitExceeded, "status %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return errors.Wrapf(errors.ErrExternal, "unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(dest)
}

// toAsset maps a screener pair to the domain asset. DexScreener only
// reports four change windows; the remaining timeframes are left unset
// and read as zero.
func toAsset(p pair) market.Asset {
	asset := market.Asset{
		Mint:   p.BaseToken.Address,
		Symbol: p.BaseToken.Symbol,
		Name:   p.BaseToken.Name,
		PriceChange: map[market.Timeframe]float64{
			market.Timeframe5m:  p.PriceChange.M5,
			market.Timeframe1h:  p.PriceChange.H1,
			market.Timeframe6h:  p.PriceChange.H6,
			market.Timeframe24h: p.PriceChange.H24,
		},
		BuyCount:  p.Txns.H24.Buys,
		SellCount: p.Txns.H24.Sells,
		Pool: market.Pool{
			Address:      p.PairAddress,
			LiquidityUSD: p.Liquidity.USD,
			VolumeUSD24h: p.Volume.H24,
		},
		FetchedAt: time.Now(),
	}

	asset.Risk = assessRisk(p)
	return asset
}

// assessRisk derives a coarse 0-10 screener risk score from observable
// pool characteristics. Authority and LP-burn data are not part of the
// pair payload, so those fields stay at their zero values and downstream
// scoring treats them as unverified.
func assessRisk(p pair) market.RiskAssessment {
	score := 0.0

	switch liq := p.Liquidity.USD; {
	case liq < 10_000:
		score += 4
	case liq < 50_000:
		score += 3
	case liq < 250_000:
		score += 1
	}

	if p.Liquidity.USD > 0 && p.Volume.H24/p.Liquidity.USD > 20 {
		// Extreme turnover on thin liquidity is a wash-trading tell
		score += 2
	}

	if p.PairCreatedAt > 0 {
		age := time.Since(time.UnixMilli(p.PairCreatedAt))
		if age < 24*time.Hour {
			score += 3
		} else if age < 7*24*time.Hour {
			score += 1
		}
	}

	if p.FDV > 0 && p.Liquidity.USD > 0 && p.FDV/p.Liquidity.USD > 1000 {
		score += 1
	}

	if score > 10 {
		score = 10
	}

	return market.RiskAssessment{
		Flagged: false,
		Score:   score,
	}
}
