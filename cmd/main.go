package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"helios/internal/adapters/ai"
	"helios/internal/adapters/config"
	"helios/internal/adapters/dexscreener"
	"helios/internal/adapters/errors/noop"
	"helios/internal/adapters/errors/sentry"
	"helios/internal/adapters/feargreed"
	"helios/internal/adapters/kafka"
	"helios/internal/adapters/news"
	"helios/internal/adapters/redis"
	"helios/internal/adapters/telegram"
	"helios/internal/adapters/wallet"
	"helios/internal/events"
	"helios/internal/metrics"
	"helios/internal/services/analysis"
	portfoliosvc "helios/internal/services/portfolio"
	"helios/internal/services/rebalance"
	"helios/internal/workers"
	"helios/pkg/errors"
	"helios/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()
	log.Infof("Starting %s in %s mode", cfg.App.Name, cfg.App.Env)

	errorTracker := initErrorTracker(cfg, log)
	logger.SetErrorTracker(errorTracker)

	metrics.Init()

	// Redis backs the snapshot cache and the distributed rebalance lock.
	// Both degrade gracefully, so a dead Redis is a warning, not a fatal.
	var redisClient *redis.Client
	if rc, err := redis.NewClient(cfg.Redis); err != nil {
		log.Warnf("Redis unavailable, running without cache and lock: %v", err)
	} else {
		redisClient = rc
		defer redisClient.Close()
	}

	analysisService := initAnalysis(cfg, redisClient, log)
	portfolioService := portfoliosvc.NewService(analysisService)

	paperWallet := wallet.NewPaperWallet(wallet.Config{
		InitialBalance: decimal.NewFromFloat(cfg.Trading.InitialBalance),
	})

	var publisher *events.Publisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(kafka.ProducerConfig{Brokers: cfg.Kafka.Brokers})
		defer producer.Close()
		publisher = events.NewPublisher(producer)
	}

	controller := rebalance.NewController(
		rebalance.Config{
			TargetPortfolioSize:      cfg.Trading.TargetPortfolioSize,
			ConservativeInterval:     cfg.Trading.ConservativeInterval,
			ModerateInterval:         cfg.Trading.ModerateInterval,
			AggressiveInterval:       cfg.Trading.AggressiveInterval,
			FearGreedChangeThreshold: cfg.Trading.FearGreedThreshold,
		},
		analysisService,
		portfolioService,
		paperWallet,
		eventPublisherOrNil(publisher),
		initNotifier(cfg, log),
	)

	scheduler := workers.NewScheduler()
	if publisher != nil {
		scheduler.SetErrorHook(func(worker string, err error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			publisher.PublishWorkerFailed(ctx, worker, err)
		})
	}

	scheduler.RegisterWorker(workers.NewMarketScannerWorker(analysisService, cfg.Workers.MarketScannerInterval))
	scheduler.RegisterWorker(workers.NewRebalanceWorker(controller, lockerOrNil(redisClient), cfg.Workers.RebalanceInterval))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := scheduler.Start(ctx); err != nil {
		log.Fatalf("Failed to start scheduler: %v", err)
	}

	if cfg.Metrics.Enabled {
		startMetricsServer(cfg, redisClient, log)
	}

	log.Info("System initialized successfully")

	waitForShutdown(ctx, cancel, scheduler, errorTracker, log)
}

// initAnalysis wires the market analysis service with its four external
// collaborators
func initAnalysis(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) *analysis.Service {
	var extractor news.KeywordExtractor
	if cfg.AI.OpenAIKey != "" {
		ext, err := ai.NewTopicExtractor(ai.Config{
			APIKey:  cfg.AI.OpenAIKey,
			Model:   cfg.AI.Model,
			Timeout: cfg.AI.Timeout,
		})
		if err != nil {
			log.Warnf("Topic extractor unavailable, using frequency fallback: %v", err)
		} else {
			extractor = ext
		}
	}

	newsClient := news.NewClient(news.Config{
		BaseURL:            cfg.MarketData.NewsBaseURL,
		APIKey:             cfg.MarketData.NewsAPIKey,
		Timeout:            cfg.MarketData.RequestTimeout,
		RateLimitPerSecond: 1,
		MaxHeadlines:       50,
	}, extractor)

	dexClient := dexscreener.NewClient(dexscreener.Config{
		BaseURL:            cfg.MarketData.DexScreenerBaseURL,
		Timeout:            cfg.MarketData.RequestTimeout,
		RateLimitPerSecond: cfg.MarketData.RateLimitPerSecond,
		SearchQuery:        "SOL",
	})

	fgClient := feargreed.NewClient(feargreed.Config{
		BaseURL: cfg.MarketData.FearGreedBaseURL,
		Timeout: cfg.MarketData.RequestTimeout,
	})

	var cache analysis.SnapshotCache
	if redisClient != nil {
		cache = redisClient
	}

	return analysis.NewService(
		analysis.DefaultConfig(),
		dexClient,
		newsClient,
		newsClient,
		fgClient,
		cache,
	)
}

// initNotifier builds the Telegram notifier when configured
func initNotifier(cfg *config.Config, log *logger.Logger) rebalance.Notifier {
	if !cfg.Telegram.Enabled {
		return nil
	}

	notifier, err := telegram.NewNotifier(telegram.Config{
		BotToken: cfg.Telegram.BotToken,
		ChatID:   cfg.Telegram.ChatID,
	})
	if err != nil {
		log.Warnf("Telegram notifier unavailable: %v", err)
		return nil
	}
	return notifier
}

// initErrorTracker initializes error tracking (Sentry or no-op)
func initErrorTracker(cfg *config.Config, log *logger.Logger) errors.Tracker {
	if !cfg.ErrorTracking.Enabled || cfg.ErrorTracking.SentryDSN == "" {
		log.Info("Error tracking disabled")
		return noop.New()
	}

	tracker, err := sentry.New(cfg.ErrorTracking.SentryDSN, cfg.ErrorTracking.Environment)
	if err != nil {
		log.Warnf("Failed to initialize Sentry: %v", err)
		return noop.New()
	}

	log.Info("Error tracking initialized (Sentry)")
	return tracker
}

// eventPublisherOrNil keeps the controller's optional dependency a true
// nil interface when Kafka is disabled
func eventPublisherOrNil(p *events.Publisher) rebalance.EventPublisher {
	if p == nil {
		return nil
	}
	return p
}

func lockerOrNil(c *redis.Client) workers.Locker {
	if c == nil {
		return nil
	}
	return c
}

// startMetricsServer exposes /metrics on the configured address
func startMetricsServer(cfg *config.Config, redisClient *redis.Client, log *logger.Logger) {
	if redisClient != nil {
		collector := metrics.NewCustomCollector(log, redisClient.Client())
		if err := metrics.Register(collector); err != nil {
			log.Warnf("Failed to register custom collector: %v", err)
		}
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	go func() {
		log.Infof("Metrics server listening on %s", cfg.Metrics.Addr)
		if err := http.ListenAndServe(cfg.Metrics.Addr, mux); err != nil {
			log.Errorf("Metrics server error: %v", err)
		}
	}()
}

// waitForShutdown waits for shutdown signal and performs graceful shutdown
func waitForShutdown(ctx context.Context, cancel context.CancelFunc, scheduler *workers.Scheduler, errorTracker errors.Tracker, log *logger.Logger) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	log.Info("Shutting down...")

	cancel()

	if err := scheduler.Stop(); err != nil {
		log.Warnf("Scheduler shutdown: %v", err)
	}

	if errorTracker != nil {
		if err := errorTracker.Flush(ctx); err != nil {
			log.Warnf("Failed to flush error tracker: %v", err)
		}
	}

	log.Info("Shutdown complete")
}
