package feargreed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"helios/internal/domain/trend"
	"helios/internal/metrics"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

// Config contains configuration for the fear/greed client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// DefaultConfig returns default configuration
func DefaultConfig() Config {
	return Config{
		BaseURL: "https://api.alternative.me",
		Timeout: 15 * time.Second,
	}
}

// Client fetches the crypto fear/greed index
type Client struct {
	cfg  Config
	http *http.Client
	log  *logger.Logger
}

// NewClient creates a new fear/greed client
func NewClient(cfg Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  logger.Get().With("component", "fear_greed"),
	}
}

type indexResponse struct {
	Data []struct {
		Value          string `json:"value"`
		Classification string `json:"value_classification"`
		Timestamp      string `json:"timestamp"`
	} `json:"data"`
}

// FetchFearGreed returns today's index reading together with its
// day-over-day delta. Implements the analysis service's
// FearGreedProvider.
func (c *Client) FetchFearGreed(ctx context.Context) (*trend.FearGreedSnapshot, error) {
	started := time.Now()
	snap, err := c.fetch(ctx)
	metrics.RecordCollaboratorFetch("fear_greed", time.Since(started), err)
	return snap, err
}

func (c *Client) fetch(ctx context.Context) (*trend.FearGreedSnapshot, error) {
	url := fmt.Sprintf("%s/fng/?limit=2", c.cfg.BaseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrExternal, err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Wrapf(errors.ErrExternal, "unexpected status %d", resp.StatusCode)
	}

	var parsed indexResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.Wrap(err, "decode fear/greed response")
	}
	if len(parsed.Data) == 0 {
		return nil, errors.Wrap(errors.ErrExternal, "empty fear/greed response")
	}

	today, err := strconv.ParseFloat(parsed.Data[0].Value, 64)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrExternal, "bad index value %q", parsed.Data[0].Value)
	}

	snap := &trend.FearGreedSnapshot{
		TodayValue:          today,
		TodayClassification: parsed.Data[0].Classification,
		RecordedAt:          time.Now(),
	}

	if len(parsed.Data) > 1 {
		yesterday, err := strconv.ParseFloat(parsed.Data[1].Value, 64)
		if err == nil {
			snap.YesterdayValue = yesterday
			snap.Change = today - yesterday
			snap.TrendClassification = classifyChange(snap.Change)
		}
	}

	c.log.Debugw("Fetched fear/greed index",
		"value", snap.TodayValue,
		"classification", snap.TodayClassification,
		"change", snap.Change,
	)
	return snap, nil
}

func classifyChange(change float64) string {
	switch {
	case change > 5:
		return "improving"
	case change < -5:
		return "declining"
	default:
		return "stable"
	}
}
