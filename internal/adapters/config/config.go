package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"helios/pkg/errors"
)

type Config struct {
	App           AppConfig
	Redis         RedisConfig
	Kafka         KafkaConfig
	Telegram      TelegramConfig
	AI            AIConfig
	MarketData    MarketDataConfig
	Trading       TradingConfig
	ErrorTracking ErrorTrackingConfig
	Workers       WorkerConfig
	Metrics       MetricsConfig
}

type AppConfig struct {
	Name     string `envconfig:"APP_NAME" default:"helios"`
	Env      string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
}

type RedisConfig struct {
	Host     string `envconfig:"REDIS_HOST" default:"localhost"`
	Port     int    `envconfig:"REDIS_PORT" default:"6379"`
	Password string `envconfig:"REDIS_PASSWORD"`
	DB       int    `envconfig:"REDIS_DB" default:"0"`
}

func (c RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

type KafkaConfig struct {
	Enabled bool     `envconfig:"KAFKA_ENABLED" default:"false"`
	Brokers []string `envconfig:"KAFKA_BROKERS" default:"localhost:9092"`
	GroupID string   `envconfig:"KAFKA_GROUP_ID" default:"helios"`
}

type TelegramConfig struct {
	Enabled  bool   `envconfig:"TELEGRAM_ENABLED" default:"false"`
	BotToken string `envconfig:"TELEGRAM_BOT_TOKEN"`
	ChatID   int64  `envconfig:"TELEGRAM_CHAT_ID"`
}

type AIConfig struct {
	OpenAIKey string        `envconfig:"OPENAI_API_KEY"`
	Model     string        `envconfig:"AI_MODEL" default:"gpt-4o-mini"`
	Timeout   time.Duration `envconfig:"AI_TIMEOUT" default:"30s"`
}

type MarketDataConfig struct {
	DexScreenerBaseURL string        `envconfig:"DEXSCREENER_BASE_URL" default:"https://api.dexscreener.com"`
	NewsBaseURL        string        `envconfig:"NEWS_BASE_URL" default:"https://cryptopanic.com/api/v1"`
	NewsAPIKey         string        `envconfig:"NEWS_API_KEY"`
	FearGreedBaseURL   string        `envconfig:"FEAR_GREED_BASE_URL" default:"https://api.alternative.me"`
	RequestTimeout     time.Duration `envconfig:"MARKET_DATA_TIMEOUT" default:"15s"`
	RateLimitPerSecond float64       `envconfig:"MARKET_DATA_RATE_LIMIT" default:"5"`
}

type TradingConfig struct {
	TargetPortfolioSize  int           `envconfig:"TARGET_PORTFOLIO_SIZE" default:"5"`
	InitialBalance       float64       `envconfig:"INITIAL_BALANCE" default:"10000"`
	ConservativeInterval time.Duration `envconfig:"REBALANCE_CONSERVATIVE_INTERVAL" default:"12h"`
	ModerateInterval     time.Duration `envconfig:"REBALANCE_MODERATE_INTERVAL" default:"6h"`
	AggressiveInterval   time.Duration `envconfig:"REBALANCE_AGGRESSIVE_INTERVAL" default:"2h"`
	FearGreedThreshold   float64       `envconfig:"REBALANCE_FEAR_GREED_THRESHOLD" default:"20"`
}

type ErrorTrackingConfig struct {
	Enabled     bool   `envconfig:"ERROR_TRACKING_ENABLED" default:"false"`
	Provider    string `envconfig:"ERROR_TRACKING_PROVIDER" default:"sentry"`
	SentryDSN   string `envconfig:"SENTRY_DSN"`
	Environment string `envconfig:"SENTRY_ENVIRONMENT" default:"production"`
}

// WorkerConfig contains intervals for all background workers
type WorkerConfig struct {
	// Market scanner refreshes collaborator data and trend state
	MarketScannerInterval time.Duration `envconfig:"WORKER_MARKET_SCANNER_INTERVAL" default:"5m"`

	// Rebalance worker evaluates the trigger condition and rebalances
	RebalanceInterval time.Duration `envconfig:"WORKER_REBALANCE_INTERVAL" default:"15m"`
}

type MetricsConfig struct {
	Enabled bool   `envconfig:"METRICS_ENABLED" default:"true"`
	Addr    string `envconfig:"METRICS_ADDR" default:":9090"`
}

// Load reads configuration from environment variables
// It first tries to load .env file (useful for local development)
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not exists)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to process env config")
	}

	return &cfg, nil
}
